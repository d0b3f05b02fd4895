//
// Copyright (c) 2019-2024 Markku Rossi
//
// All rights reserved.
//

package session

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/gogarble/yaogc/circuit"
	"github.com/gogarble/yaogc/garbler"
	"github.com/gogarble/yaogc/label"
	"github.com/gogarble/yaogc/ot"
	"github.com/gogarble/yaogc/transport"
)

// DHPublicValue is the unwrapped key-exchange message both parties send
// before any AEAD key exists.
func sendDHPublicValue(ch *transport.Channel, pub *big.Int) error {
	if err := ch.SendData(pub.Bytes()); err != nil {
		return err
	}
	return ch.Flush()
}

func receiveDHPublicValue(ch *transport.Channel) (*big.Int, error) {
	data, err := ch.ReceiveData()
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(data), nil
}

// sendBigInt/receiveBigInt carry SR_OTPublicValue/RS_OTPublicValue, AEAD
// wrapped per spec.md §9's "keep the wrapping" decision.
func sendBigInt(ch *transport.Channel, key []byte, v *big.Int) error {
	return ch.SealAndSend(key, v.Bytes())
}

func receiveBigInt(ch *transport.Channel, key []byte) (*big.Int, error) {
	data, err := ch.ReceiveAndOpen(key)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(data), nil
}

// sendEncryptedValues/receiveEncryptedValues carry SR_OTEncryptedValues.
func sendEncryptedValues(ch *transport.Channel, key []byte, vals *ot.EncryptedValues) error {
	var buf []byte
	buf = appendField(buf, vals.E0)
	buf = appendField(buf, vals.IV0)
	buf = appendField(buf, vals.E1)
	buf = appendField(buf, vals.IV1)
	return ch.SealAndSend(key, buf)
}

func receiveEncryptedValues(ch *transport.Channel, key []byte) (*ot.EncryptedValues, error) {
	buf, err := ch.ReceiveAndOpen(key)
	if err != nil {
		return nil, err
	}
	vals := &ot.EncryptedValues{}
	fields := []*[]byte{&vals.E0, &vals.IV0, &vals.E1, &vals.IV1}
	for _, f := range fields {
		v, rest, err := readField(buf)
		if err != nil {
			return nil, err
		}
		*f = v
		buf = rest
	}
	return vals, nil
}

func appendField(buf, field []byte) []byte {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(field)))
	buf = append(buf, length[:]...)
	return append(buf, field...)
}

func readField(buf []byte) (field, rest []byte, err error) {
	if len(buf) < 4 {
		return nil, nil, fmt.Errorf("session: truncated field length")
	}
	n := binary.BigEndian.Uint32(buf[:4])
	buf = buf[4:]
	if uint64(len(buf)) < uint64(n) {
		return nil, nil, fmt.Errorf("session: truncated field body")
	}
	return buf[:n], buf[n:], nil
}

// sendLabels/receiveLabels carry GarblerInputs and FinalLabels.
func sendLabels(ch *transport.Channel, key []byte, labels []label.Label) error {
	buf := make([]byte, 0, len(labels)*label.Len)
	for _, l := range labels {
		buf = append(buf, l.Bytes()...)
	}
	return ch.SealAndSend(key, buf)
}

func receiveLabels(ch *transport.Channel, key []byte, n int) ([]label.Label, error) {
	buf, err := ch.ReceiveAndOpen(key)
	if err != nil {
		return nil, err
	}
	if len(buf) != n*label.Len {
		return nil, fmt.Errorf("session: expected %d labels (%d bytes), got %d bytes",
			n, n*label.Len, len(buf))
	}
	labels := make([]label.Label, n)
	for i := range labels {
		l, err := label.FromBytes(buf[i*label.Len : (i+1)*label.Len])
		if err != nil {
			return nil, err
		}
		labels[i] = l
	}
	return labels, nil
}

// sendGarbledTables/receiveGarbledTables carry the GarbledTables message.
func sendGarbledTables(ch *transport.Channel, key []byte, gates []garbler.GarbledGate) error {
	var buf []byte
	for _, g := range gates {
		buf = append(buf, byte(g.Op))
		buf = append(buf, byte(len(g.Entries)))
		for _, e := range g.Entries {
			buf = append(buf, e.Bytes()...)
		}
	}
	return ch.SealAndSend(key, buf)
}

func receiveGarbledTables(ch *transport.Channel, key []byte, circ *circuit.Circuit) ([]garbler.GarbledGate, error) {
	buf, err := ch.ReceiveAndOpen(key)
	if err != nil {
		return nil, err
	}
	gates := make([]garbler.GarbledGate, len(circ.Gates))
	for i, want := range circ.Gates {
		if len(buf) < 2 {
			return nil, fmt.Errorf("session: truncated garbled table at gate %d", i)
		}
		op := circuit.Op(buf[0])
		numEntries := int(buf[1])
		buf = buf[2:]
		if op != want.Op {
			return nil, fmt.Errorf("session: gate %d: table op %s, circuit op %s", i, op, want.Op)
		}
		if len(buf) < numEntries*label.Len {
			return nil, fmt.Errorf("session: truncated entries at gate %d", i)
		}
		entries := make([]label.Label, numEntries)
		for j := range entries {
			l, err := label.FromBytes(buf[j*label.Len : (j+1)*label.Len])
			if err != nil {
				return nil, err
			}
			entries[j] = l
		}
		buf = buf[numEntries*label.Len:]
		gates[i] = garbler.GarbledGate{Op: op, Entries: entries}
	}
	if len(buf) != 0 {
		return nil, fmt.Errorf("session: %d trailing bytes in GarbledTables", len(buf))
	}
	return gates, nil
}

// sendFinalOutput/receiveFinalOutput carry FinalOutput.
func sendFinalOutput(ch *transport.Channel, key []byte, bits string) error {
	return ch.SealAndSend(key, []byte(bits))
}

func receiveFinalOutput(ch *transport.Channel, key []byte) (string, error) {
	buf, err := ch.ReceiveAndOpen(key)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}
