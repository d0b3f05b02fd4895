//
// Copyright (c) 2019-2024 Markku Rossi
//
// All rights reserved.
//

package gcrypto

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/gogarble/yaogc/label"
)

// DummyRHS is the fixed, public right-hand operand hashed against a NOT
// gate's single input so that Hash keeps its two-argument shape even when
// a gate is unary. Its permute bit is a fixed public constant (0); callers
// must never treat it as secret.
var DummyRHS = label.Label{D0: 0x1ed0edded0edded0, D1: 0xfeedfacefeedface}

// Hash is the dual-input tweakable hash the garbler and evaluator use to
// derive garbled-table rows. It is modelled as a random oracle; t (the gate
// id) need not be included for semi-honest security but is mixed in here as
// domain separation between gates that happen to share input labels.
func Hash(a, b label.Label, t uint32) label.Label {
	h := sha256.New()
	var buf label.Data
	a.GetData(&buf)
	h.Write(buf[:])
	b.GetData(&buf)
	h.Write(buf[:])
	var tweak [4]byte
	binary.BigEndian.PutUint32(tweak[:], t)
	h.Write(tweak[:])

	sum := h.Sum(nil)
	var out label.Data
	copy(out[:], sum[:label.Len])
	var l label.Label
	l.SetData(&out)
	return l
}
