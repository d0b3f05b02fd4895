//
// Copyright (c) 2019-2024 Markku Rossi
//
// All rights reserved.
//

// Package session drives the two-party protocol end to end: key exchange,
// garbled-table transfer, oblivious transfer of the evaluator's input
// labels, evaluation, and output decoding.
package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/gogarble/yaogc/circuit"
	"github.com/gogarble/yaogc/evaluator"
	"github.com/gogarble/yaogc/garbler"
	"github.com/gogarble/yaogc/gcrypto"
	"github.com/gogarble/yaogc/label"
	"github.com/gogarble/yaogc/ot"
	"github.com/gogarble/yaogc/transport"
)

// Kind classifies why a session aborted.
type Kind int

const (
	// IntegrityFailure marks an AEAD or OT authentication failure.
	IntegrityFailure Kind = iota
	// TransportError marks a network I/O failure.
	TransportError
	// ProtocolError marks a malformed or out-of-sequence message.
	ProtocolError
	// DecodeFailure marks an output label matching neither candidate.
	DecodeFailure
	// InputError marks a malformed circuit or input file, caught before
	// any network activity.
	InputError
)

func (k Kind) String() string {
	switch k {
	case IntegrityFailure:
		return "integrity failure"
	case TransportError:
		return "transport error"
	case ProtocolError:
		return "protocol error"
	case DecodeFailure:
		return "decode failure"
	case InputError:
		return "input error"
	default:
		return "unknown"
	}
}

// AbortError is the error type every session-ending failure is reported as.
type AbortError struct {
	Kind Kind
	Err  error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("session: %s: %v", e.Kind, e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

func abort(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var te *transport.Error
	if errors.As(err, &te) {
		switch te.Kind {
		case transport.ErrIntegrity:
			kind = IntegrityFailure
		case transport.ErrTransport:
			kind = TransportError
		case transport.ErrProtocol:
			kind = ProtocolError
		}
	}
	return &AbortError{Kind: kind, Err: err}
}

// RunGarbler drives the Garbler side of the protocol over ch for circ with
// garbler-held input bits, returning the decoded output bitstring.
func RunGarbler(ch *transport.Channel, circ *circuit.Circuit, input []bool) (string, error) {
	if len(input) != circ.NumGarblerInputs {
		return "", abort(InputError, fmt.Errorf(
			"garbler input has %d bits, circuit wants %d", len(input), circ.NumGarblerInputs))
	}

	grp := gcrypto.DefaultGroup
	sessionKey, err := keyExchangeGarbler(ch, grp, rand.Reader)
	if err != nil {
		return "", err
	}
	defer clear(sessionKey)

	labels, gates, err := garbler.Garble(circ, rand.Reader)
	if err != nil {
		return "", abort(InputError, err)
	}
	defer labels.Wipe()

	if err := sendGarbledTables(ch, sessionKey, gates); err != nil {
		return "", abort(TransportError, err)
	}

	garblerLabels := make([]label.Label, circ.NumGarblerInputs)
	for i, w := range circ.GarblerInputWires() {
		garblerLabels[i] = labels.For(w, input[i])
	}
	if err := sendLabels(ch, sessionKey, garblerLabels); err != nil {
		return "", abort(TransportError, err)
	}

	for _, w := range circ.EvaluatorInputWires() {
		if err := otSendWire(ch, sessionKey, grp, labels, w); err != nil {
			return "", err
		}
	}

	outputLabels, err := receiveLabels(ch, sessionKey, circ.NumOutputs)
	if err != nil {
		return "", abort(TransportError, err)
	}

	out, err := evaluator.DecodeOutputs(circ, labels, outputLabels)
	if err != nil {
		return "", abort(DecodeFailure, err)
	}

	if err := sendFinalOutput(ch, sessionKey, out); err != nil {
		return "", abort(TransportError, err)
	}
	return out, nil
}

// RunEvaluator drives the Evaluator side of the protocol over ch for circ
// with evaluator-held input bits, returning the decoded output bitstring.
func RunEvaluator(ch *transport.Channel, circ *circuit.Circuit, input []bool) (string, error) {
	if len(input) != circ.NumEvaluatorInputs {
		return "", abort(InputError, fmt.Errorf(
			"evaluator input has %d bits, circuit wants %d", len(input), circ.NumEvaluatorInputs))
	}

	grp := gcrypto.DefaultGroup
	sessionKey, err := keyExchangeEvaluator(ch, grp, rand.Reader)
	if err != nil {
		return "", err
	}
	defer clear(sessionKey)

	gates, err := receiveGarbledTables(ch, sessionKey, circ)
	if err != nil {
		return "", abort(TransportError, err)
	}

	wires := make([]label.Label, circ.NumWires)

	garblerLabels, err := receiveLabels(ch, sessionKey, circ.NumGarblerInputs)
	if err != nil {
		return "", abort(TransportError, err)
	}
	for i, w := range circ.GarblerInputWires() {
		wires[w] = garblerLabels[i]
	}

	for i, w := range circ.EvaluatorInputWires() {
		l, err := otReceiveWire(ch, sessionKey, grp, input[i])
		if err != nil {
			return "", err
		}
		wires[w] = l
	}

	if err := evaluator.Eval(circ, gates, wires); err != nil {
		return "", abort(ProtocolError, err)
	}

	var outputLabels []label.Label
	for _, w := range circ.OutputWires() {
		outputLabels = append(outputLabels, wires[w])
	}
	if err := sendLabels(ch, sessionKey, outputLabels); err != nil {
		return "", abort(TransportError, err)
	}

	out, err := receiveFinalOutput(ch, sessionKey)
	if err != nil {
		return "", abort(TransportError, err)
	}
	return out, nil
}

func keyExchangeGarbler(ch *transport.Channel, grp gcrypto.Group, rnd io.Reader) ([]byte, error) {
	priv, pub, err := grp.Init(rnd)
	if err != nil {
		return nil, abort(ProtocolError, err)
	}
	if err := sendDHPublicValue(ch, pub); err != nil {
		return nil, abort(TransportError, err)
	}
	peerPub, err := receiveDHPublicValue(ch)
	if err != nil {
		return nil, abort(TransportError, err)
	}
	shared, err := grp.Shared(priv, peerPub)
	if err != nil {
		return nil, abort(ProtocolError, err)
	}
	key, err := gcrypto.KDFAES(shared.Bytes())
	if err != nil {
		return nil, abort(ProtocolError, err)
	}
	return key, nil
}

func keyExchangeEvaluator(ch *transport.Channel, grp gcrypto.Group, rnd io.Reader) ([]byte, error) {
	peerPub, err := receiveDHPublicValue(ch)
	if err != nil {
		return nil, abort(TransportError, err)
	}
	priv, pub, err := grp.Init(rnd)
	if err != nil {
		return nil, abort(ProtocolError, err)
	}
	if err := sendDHPublicValue(ch, pub); err != nil {
		return nil, abort(TransportError, err)
	}
	shared, err := grp.Shared(priv, peerPub)
	if err != nil {
		return nil, abort(ProtocolError, err)
	}
	key, err := gcrypto.KDFAES(shared.Bytes())
	if err != nil {
		return nil, abort(ProtocolError, err)
	}
	return key, nil
}

// otSendWire runs one OT instance as Sender, transferring wire w's (zero,
// one) label pair.
func otSendWire(ch *transport.Channel, sessionKey []byte, grp gcrypto.Group, labels *garbler.Labels, w circuit.Wire) error {
	sender := ot.NewSender(grp)
	sx, err := sender.NewTransfer(rand.Reader, labels.Zeros[w].Bytes(), labels.Ones[w].Bytes())
	if err != nil {
		return abort(ProtocolError, err)
	}
	if err := sendBigInt(ch, sessionKey, sx.PublicValue()); err != nil {
		return abort(TransportError, err)
	}
	peerB, err := receiveBigInt(ch, sessionKey)
	if err != nil {
		return abort(TransportError, err)
	}
	vals, err := sx.ReceiveB(peerB)
	if err != nil {
		return abort(ProtocolError, err)
	}
	if err := sendEncryptedValues(ch, sessionKey, vals); err != nil {
		return abort(TransportError, err)
	}
	return nil
}

// otReceiveWire runs one OT instance as Receiver for the given choice bit,
// returning the recovered label.
func otReceiveWire(ch *transport.Channel, sessionKey []byte, grp gcrypto.Group, choice bool) (label.Label, error) {
	receiver := ot.NewReceiver(grp)
	rx, err := receiver.NewTransfer(rand.Reader, choice)
	if err != nil {
		return label.Label{}, abort(ProtocolError, err)
	}
	peerA, err := receiveBigInt(ch, sessionKey)
	if err != nil {
		return label.Label{}, abort(TransportError, err)
	}
	myB, err := rx.ReceiveA(peerA)
	if err != nil {
		return label.Label{}, abort(ProtocolError, err)
	}
	if err := sendBigInt(ch, sessionKey, myB); err != nil {
		return label.Label{}, abort(TransportError, err)
	}
	vals, err := receiveEncryptedValues(ch, sessionKey)
	if err != nil {
		return label.Label{}, abort(TransportError, err)
	}
	msg, ok := rx.ReceiveE(vals)
	if !ok {
		return label.Label{}, abort(IntegrityFailure, errors.New("OT decryption failed"))
	}
	l, err := label.FromBytes(msg)
	if err != nil {
		return label.Label{}, abort(ProtocolError, err)
	}
	return l, nil
}
