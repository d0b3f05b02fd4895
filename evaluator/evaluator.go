//
// Copyright (c) 2019-2024 Markku Rossi
//
// All rights reserved.
//

// Package evaluator walks a garbled circuit gate by gate, recovering exactly
// one label per wire without ever learning which bit it encodes.
package evaluator

import (
	"fmt"

	"github.com/gogarble/yaogc/circuit"
	"github.com/gogarble/yaogc/garbler"
	"github.com/gogarble/yaogc/gcrypto"
	"github.com/gogarble/yaogc/label"
)

// Eval evaluates circ gate by gate given one label per input wire in
// wires[0:NumGarblerInputs+NumEvaluatorInputs], filling in the remaining
// wires with their gate-output labels as it goes. gates must be in the same
// order circ.Gates is.
func Eval(circ *circuit.Circuit, gates []garbler.GarbledGate, wires []label.Label) error {
	if len(gates) != len(circ.Gates) {
		return fmt.Errorf("evaluator: %d garbled gates, circuit has %d",
			len(gates), len(circ.Gates))
	}
	if len(wires) != circ.NumWires {
		return fmt.Errorf("evaluator: %d wire labels, circuit has %d wires",
			len(wires), circ.NumWires)
	}

	for i, g := range circ.Gates {
		gg := gates[i]
		if gg.Op != g.Op {
			return fmt.Errorf("evaluator: gate %d: table op %s does not match circuit op %s",
				i, gg.Op, g.Op)
		}

		switch g.Op {
		case circuit.XOR:
			wires[g.Output] = label.Xor(wires[g.Input0], wires[g.Input1])

		case circuit.AND:
			l0, l1 := wires[g.Input0], wires[g.Input1]
			if len(gg.Entries) != 3 {
				return fmt.Errorf("evaluator: gate %d: AND table has %d entries, want 3",
					i, len(gg.Entries))
			}
			idx := 2 * bit(l0.S())
			if l1.S() {
				idx++
			}
			h := gcrypto.Hash(l0, l1, uint32(i))
			if idx == 0 {
				wires[g.Output] = h
			} else {
				wires[g.Output] = label.Xor(h, gg.Entries[idx-1])
			}

		case circuit.NOT:
			l0 := wires[g.Input0]
			if len(gg.Entries) != 1 {
				return fmt.Errorf("evaluator: gate %d: NOT table has %d entries, want 1",
					i, len(gg.Entries))
			}
			h := gcrypto.Hash(l0, gcrypto.DummyRHS, uint32(i))
			if !l0.S() {
				wires[g.Output] = h
			} else {
				wires[g.Output] = label.Xor(h, gg.Entries[0])
			}

		default:
			return fmt.Errorf("evaluator: gate %d: unsupported op %s", i, g.Op)
		}
	}

	return nil
}

func bit(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Decode matches each of circ's output wire labels against the garbler's
// known Zeros/Ones pairs, recovering the output bitstring. It returns an
// error if a label matches neither candidate, the signal of a corrupted or
// malicious garbling.
func Decode(circ *circuit.Circuit, labels *garbler.Labels, wires []label.Label) (string, error) {
	out := make([]byte, 0, circ.NumOutputs)
	for _, w := range circ.OutputWires() {
		l := wires[w]
		switch {
		case l.Equal(labels.Zeros[w]):
			out = append(out, '0')
		case l.Equal(labels.Ones[w]):
			out = append(out, '1')
		default:
			return "", fmt.Errorf("evaluator: output wire %s: label matches neither candidate", w)
		}
	}
	return string(out), nil
}

// DecodeOutputs is Decode specialized to the Garbler side of the session
// protocol: it only ever holds the output wires' labels (received over the
// wire as FinalLabels), not a full wires array.
func DecodeOutputs(circ *circuit.Circuit, labels *garbler.Labels, outputLabels []label.Label) (string, error) {
	wires := circ.OutputWires()
	if len(outputLabels) != len(wires) {
		return "", fmt.Errorf("evaluator: got %d output labels, want %d",
			len(outputLabels), len(wires))
	}
	out := make([]byte, 0, len(wires))
	for i, w := range wires {
		l := outputLabels[i]
		switch {
		case l.Equal(labels.Zeros[w]):
			out = append(out, '0')
		case l.Equal(labels.Ones[w]):
			out = append(out, '1')
		default:
			return "", fmt.Errorf("evaluator: output wire %s: label matches neither candidate", w)
		}
	}
	return string(out), nil
}
