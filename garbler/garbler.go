//
// Copyright (c) 2019-2024 Markku Rossi
//
// All rights reserved.
//

// Package garbler builds garbled tables for a circuit.Circuit using Free-XOR
// and garbled row reduction (GRR3): XOR gates carry no table at all, and
// AND/NOT gates transmit one fewer ciphertext than their row count by
// deriving the row whose input permute bits are all 0 directly from the hash.
package garbler

import (
	"fmt"
	"io"

	"github.com/gogarble/yaogc/circuit"
	"github.com/gogarble/yaogc/gcrypto"
	"github.com/gogarble/yaogc/label"
)

// Labels holds both labels of every wire in a circuit. Zeros[w]/Ones[w] are
// the labels carrying the false/true value of wire w; Xor(Zeros[w],
// Ones[w]) == R for every w.
type Labels struct {
	R     label.Label
	Zeros []label.Label
	Ones  []label.Label
}

// For returns the label for wire w carrying bit.
func (l *Labels) For(w circuit.Wire, bit bool) label.Label {
	if bit {
		return l.Ones[w]
	}
	return l.Zeros[w]
}

// Wipe zeroes the label material in place once a session no longer needs it.
func (l *Labels) Wipe() {
	var zero label.Label
	for i := range l.Zeros {
		l.Zeros[i] = zero
		l.Ones[i] = zero
	}
	l.R = zero
}

// GarbledGate is one gate's wire-format garbled table. XOR gates have no
// entries; AND and NOT gates have one fewer entry than their row count
// (3 and 1 respectively) because the row whose input permute bits are all 0
// is reconstructed directly from the hash rather than transmitted.
type GarbledGate struct {
	Op      circuit.Op
	Entries []label.Label
}

// Garble samples fresh labels for every input wire, derives the labels of
// every gate-output wire (by Free-XOR for XOR, from the permute-bit-0 row's
// hash for AND/NOT) and produces the garbled table for every gate, visiting
// gates in order. The returned Labels carries both labels for
// every wire, including inputs, so the caller can hand the garbler's own
// input labels to the evaluator and serve the rest over OT.
func Garble(circ *circuit.Circuit, rnd io.Reader) (*Labels, []GarbledGate, error) {
	if err := circ.Validate(); err != nil {
		return nil, nil, err
	}

	r, err := label.GlobalOffset(rnd)
	if err != nil {
		return nil, nil, fmt.Errorf("garbler: sampling global offset: %w", err)
	}

	labels := &Labels{
		R:     r,
		Zeros: make([]label.Label, circ.NumWires),
		Ones:  make([]label.Label, circ.NumWires),
	}

	numInputs := circ.NumGarblerInputs + circ.NumEvaluatorInputs
	for w := 0; w < numInputs; w++ {
		pair, err := label.FreshPair(rnd, r)
		if err != nil {
			return nil, nil, fmt.Errorf("garbler: sampling wire %d labels: %w", w, err)
		}
		labels.Zeros[w] = pair.L0
		labels.Ones[w] = pair.L1
	}

	gates := make([]GarbledGate, len(circ.Gates))
	for i, g := range circ.Gates {
		switch g.Op {
		case circuit.XOR:
			labels.Zeros[g.Output] = label.Xor(labels.Zeros[g.Input0], labels.Zeros[g.Input1])
			labels.Ones[g.Output] = label.Xor(labels.Zeros[g.Output], r)
			gates[i] = GarbledGate{Op: circuit.XOR}

		case circuit.AND:
			entries, err := garbleBinary(labels, g, uint32(i), func(a, b bool) bool {
				return a && b
			})
			if err != nil {
				return nil, nil, fmt.Errorf("garbler: gate %d: %w", i, err)
			}
			gates[i] = GarbledGate{Op: circuit.AND, Entries: entries}

		case circuit.NOT:
			entries, err := garbleUnary(labels, g, uint32(i))
			if err != nil {
				return nil, nil, fmt.Errorf("garbler: gate %d: %w", i, err)
			}
			gates[i] = GarbledGate{Op: circuit.NOT, Entries: entries}

		default:
			return nil, nil, fmt.Errorf("garbler: unsupported gate op %s", g.Op)
		}
	}

	return labels, gates, nil
}

func slotIndex(a, b bool) int {
	i, j := 0, 0
	if a {
		i = 1
	}
	if b {
		j = 1
	}
	return 2*i + j
}

// garbleBinary produces the 3-entry GRR3 table for a two-input gate whose
// truth table is fn.
func garbleBinary(labels *Labels, g circuit.Gate, tweak uint32, fn func(a, b bool) bool) ([]label.Label, error) {
	entries := make([]label.Label, 3)

	type combo struct {
		a, b bool
		l0   label.Label
		l1   label.Label
	}
	combos := []combo{
		{false, false, labels.Zeros[g.Input0], labels.Zeros[g.Input1]},
		{false, true, labels.Zeros[g.Input0], labels.Ones[g.Input1]},
		{true, false, labels.Ones[g.Input0], labels.Zeros[g.Input1]},
		{true, true, labels.Ones[g.Input0], labels.Ones[g.Input1]},
	}

	var zeroRowSet bool
	for _, c := range combos {
		if slotIndex(c.l0.S(), c.l1.S()) != 0 {
			continue
		}
		h := gcrypto.Hash(c.l0, c.l1, tweak)
		if fn(c.a, c.b) {
			labels.Ones[g.Output] = h
			labels.Zeros[g.Output] = label.Xor(h, labels.R)
		} else {
			labels.Zeros[g.Output] = h
			labels.Ones[g.Output] = label.Xor(h, labels.R)
		}
		zeroRowSet = true
	}
	if !zeroRowSet {
		return nil, fmt.Errorf("no combination mapped to the zero row")
	}

	for _, c := range combos {
		idx := slotIndex(c.l0.S(), c.l1.S())
		if idx == 0 {
			continue
		}
		h := gcrypto.Hash(c.l0, c.l1, tweak)
		target := labels.Zeros[g.Output]
		if fn(c.a, c.b) {
			target = labels.Ones[g.Output]
		}
		entries[idx-1] = label.Xor(h, target)
	}

	return entries, nil
}

// garbleUnary produces the 1-entry GRR3 table for a NOT gate, hashing the
// single input against the fixed public DummyRHS so Hash keeps its
// two-argument shape.
func garbleUnary(labels *Labels, g circuit.Gate, tweak uint32) ([]label.Label, error) {
	entries := make([]label.Label, 1)

	type combo struct {
		a  bool
		l0 label.Label
	}
	combos := []combo{
		{false, labels.Zeros[g.Input0]},
		{true, labels.Ones[g.Input0]},
	}

	var zeroRowSet bool
	for _, c := range combos {
		if c.l0.S() {
			continue
		}
		h := gcrypto.Hash(c.l0, gcrypto.DummyRHS, tweak)
		if !c.a {
			labels.Ones[g.Output] = h
			labels.Zeros[g.Output] = label.Xor(h, labels.R)
		} else {
			labels.Zeros[g.Output] = h
			labels.Ones[g.Output] = label.Xor(h, labels.R)
		}
		zeroRowSet = true
	}
	if !zeroRowSet {
		return nil, fmt.Errorf("no combination mapped to the zero row")
	}

	for _, c := range combos {
		if !c.l0.S() {
			continue
		}
		h := gcrypto.Hash(c.l0, gcrypto.DummyRHS, tweak)
		target := labels.Zeros[g.Output]
		if !c.a {
			target = labels.Ones[g.Output]
		}
		entries[0] = label.Xor(h, target)
	}

	return entries, nil
}
