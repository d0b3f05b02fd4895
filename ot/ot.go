//
// Copyright (c) 2019-2024 Markku Rossi
//
// All rights reserved.
//

// Package ot implements 1-out-of-2 oblivious transfer in the
// Bellare-Micali style over a fixed Diffie-Hellman safe-prime group.
package ot

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/gogarble/yaogc/gcrypto"
)

// Sender is a 1-out-of-2 OT sender bound to a fixed DH group.
type Sender struct {
	grp gcrypto.Group
}

// NewSender creates an OT sender over grp.
func NewSender(grp gcrypto.Group) *Sender {
	return &Sender{grp: grp}
}

// NewTransfer samples the sender's half of one OT instance and returns its
// public value A together with the in-progress transfer state.
func (s *Sender) NewTransfer(rnd io.Reader, m0, m1 []byte) (*SenderXfer, error) {
	a, A, err := s.grp.Init(rnd)
	if err != nil {
		return nil, err
	}
	return &SenderXfer{
		grp: s.grp,
		a:   a,
		A:   A,
		m0:  m0,
		m1:  m1,
	}, nil
}

// SenderXfer is one in-progress OT transfer on the sender side.
type SenderXfer struct {
	grp gcrypto.Group
	a   *big.Int
	A   *big.Int
	m0  []byte
	m1  []byte
}

// PublicValue returns A = G^a, to be sent to the receiver.
func (s *SenderXfer) PublicValue() *big.Int {
	return s.A
}

// ReceiveB consumes the receiver's public value B and returns the two
// CBC-encrypted, IV-tagged messages to send back.
func (s *SenderXfer) ReceiveB(B *big.Int) (*EncryptedValues, error) {
	if err := s.grp.ValidatePublic(B); err != nil {
		return nil, err
	}

	// k0 = KDF(B^a).
	k0Secret := new(big.Int).Exp(B, s.a, s.grp.P)
	k0, err := gcrypto.KDFMAC(k0Secret.Bytes())
	if err != nil {
		return nil, err
	}

	// k1 = KDF((B * A^-1)^a).
	AInv := new(big.Int).ModInverse(s.A, s.grp.P)
	if AInv == nil {
		return nil, fmt.Errorf("ot: A has no inverse mod P")
	}
	base := new(big.Int).Mul(B, AInv)
	base.Mod(base, s.grp.P)
	k1Secret := new(big.Int).Exp(base, s.a, s.grp.P)
	k1, err := gcrypto.KDFMAC(k1Secret.Bytes())
	if err != nil {
		return nil, err
	}

	e0, iv0, err := gcrypto.CBCEncrypt(k0, s.m0)
	if err != nil {
		return nil, err
	}
	e1, iv1, err := gcrypto.CBCEncrypt(k1, s.m1)
	if err != nil {
		return nil, err
	}

	return &EncryptedValues{E0: e0, IV0: iv0, E1: e1, IV1: iv1}, nil
}

// EncryptedValues is the sender's final OT message, SR_OTEncryptedValues in
// the wire protocol.
type EncryptedValues struct {
	E0  []byte
	IV0 []byte
	E1  []byte
	IV1 []byte
}

// Receiver is a 1-out-of-2 OT receiver bound to a fixed DH group.
type Receiver struct {
	grp gcrypto.Group
}

// NewReceiver creates an OT receiver over grp.
func NewReceiver(grp gcrypto.Group) *Receiver {
	return &Receiver{grp: grp}
}

// NewTransfer samples the receiver's half of one OT instance for the given
// selection bit.
func (r *Receiver) NewTransfer(rnd io.Reader, choice bool) (*ReceiverXfer, error) {
	b, err := rand.Int(rnd, r.grp.Q)
	if err != nil {
		return nil, err
	}
	return &ReceiverXfer{
		grp:    r.grp,
		b:      b,
		choice: choice,
	}, nil
}

// ReceiverXfer is one in-progress OT transfer on the receiver side.
type ReceiverXfer struct {
	grp    gcrypto.Group
	b      *big.Int
	choice bool
	A      *big.Int
}

// ReceiveA consumes the sender's public value A and returns the receiver's
// reply B: G^b for choice 0, A*G^b for choice 1.
func (r *ReceiverXfer) ReceiveA(A *big.Int) (*big.Int, error) {
	if err := r.grp.ValidatePublic(A); err != nil {
		return nil, err
	}
	r.A = A

	B := new(big.Int).Exp(r.grp.G, r.b, r.grp.P)
	if r.choice {
		B.Mul(B, A)
		B.Mod(B, r.grp.P)
	}
	return B, nil
}

// ReceiveE consumes the sender's encrypted values and recovers the chosen
// message. It returns no error value: a key-derivation, length or padding
// failure is reported as ok == false.
func (r *ReceiverXfer) ReceiveE(vals *EncryptedValues) (msg []byte, ok bool) {
	kSecret := new(big.Int).Exp(r.A, r.b, r.grp.P)
	k, err := gcrypto.KDFMAC(kSecret.Bytes())
	if err != nil {
		return nil, false
	}

	var ct, ivBytes []byte
	if r.choice {
		ct, ivBytes = vals.E1, vals.IV1
	} else {
		ct, ivBytes = vals.E0, vals.IV0
	}
	pt, err := gcrypto.CBCDecrypt(k, ct, ivBytes)
	if err != nil {
		return nil, false
	}
	return pt, true
}
