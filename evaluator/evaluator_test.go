//
// Copyright (c) 2019-2024 Markku Rossi
//
// All rights reserved.
//

package evaluator

import (
	"testing"

	"github.com/gogarble/yaogc/circuit"
	"github.com/gogarble/yaogc/garbler"
	"github.com/gogarble/yaogc/label"
)

func TestEvalRejectsGateCountMismatch(t *testing.T) {
	circ := &circuit.Circuit{
		NumGates: 2,
		NumWires: 3,
		Gates: []circuit.Gate{
			{Op: circuit.XOR, Input0: 0, Input1: 1, Output: 2},
			{Op: circuit.XOR, Input0: 0, Input1: 1, Output: 2},
		},
	}
	err := Eval(circ, []garbler.GarbledGate{{Op: circuit.XOR}}, make([]label.Label, 3))
	if err == nil {
		t.Fatal("expected error for gate count mismatch")
	}
}

func TestEvalRejectsWireCountMismatch(t *testing.T) {
	circ := &circuit.Circuit{
		NumGates: 1,
		NumWires: 3,
		Gates: []circuit.Gate{
			{Op: circuit.XOR, Input0: 0, Input1: 1, Output: 2},
		},
	}
	err := Eval(circ, []garbler.GarbledGate{{Op: circuit.XOR}}, make([]label.Label, 2))
	if err == nil {
		t.Fatal("expected error for wire count mismatch")
	}
}

func TestEvalRejectsOpMismatch(t *testing.T) {
	circ := &circuit.Circuit{
		NumGates: 1,
		NumWires: 3,
		Gates: []circuit.Gate{
			{Op: circuit.AND, Input0: 0, Input1: 1, Output: 2},
		},
	}
	gates := []garbler.GarbledGate{{Op: circuit.XOR}}
	err := Eval(circ, gates, make([]label.Label, 3))
	if err == nil {
		t.Fatal("expected error for op mismatch between table and circuit")
	}
}

func TestDecodeRejectsUnmatchedLabel(t *testing.T) {
	circ := &circuit.Circuit{
		NumWires:   1,
		NumOutputs: 1,
	}
	labels := &garbler.Labels{
		Zeros: []label.Label{{D0: 1, D1: 1}},
		Ones:  []label.Label{{D0: 2, D1: 2}},
	}
	wires := []label.Label{{D0: 3, D1: 3}}
	if _, err := Decode(circ, labels, wires); err == nil {
		t.Fatal("expected error for a label matching neither candidate")
	}
}

func TestDecodeMatchesZerosOrOnes(t *testing.T) {
	circ := &circuit.Circuit{
		NumWires:   1,
		NumOutputs: 1,
	}
	labels := &garbler.Labels{
		Zeros: []label.Label{{D0: 1, D1: 1}},
		Ones:  []label.Label{{D0: 2, D1: 2}},
	}
	wires := []label.Label{{D0: 2, D1: 2}}
	got, err := Decode(circ, labels, wires)
	if err != nil {
		t.Fatal(err)
	}
	if got != "1" {
		t.Fatalf("got %q, want %q", got, "1")
	}
}
