//
// Copyright (c) 2019-2024 Markku Rossi
//
// All rights reserved.
//

// Package gcrypto implements the cryptographic primitives the garbled-circuit
// protocol treats as an opaque interface: a dual-input tweakable hash, AEAD
// sealing, session-key derivation, and Diffie-Hellman group arithmetic.
package gcrypto

import (
	cryptorand "crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// Group is a fixed, public Diffie-Hellman group: a 2048 bit MODP safe prime
// P, its order Q = (P-1)/2, and generator G. These are the RFC 3526 group 14
// parameters, chosen because 2048 bits meets spec's "cryptographic strength"
// floor for the group the OT subprotocol runs over.
type Group struct {
	P *big.Int
	Q *big.Int
	G *big.Int
}

var modp2048P, _ = new(big.Int).SetString(""+
	"FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD1"+
	"29024E088A67CC74020BBEA63B139B22514A08798E3404DD"+
	"EF9519B3CD3A431B302B0A6DF25F14374FE1356D6D51C245"+
	"E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7ED"+
	"EE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45B3D"+
	"C2007CB8A163BF0598DA48361C55D39A69163FA8FD24CF5F"+
	"83655D23DCA3AD961C62F356208552BB9ED529077096966D"+
	"670C354E4ABC9804F1746C08CA18217C32905E462E36CE3B"+
	"E39E772C180E86039B2783A2EC07A28FB5C55DF06F4C52C9"+
	"DE2BCBF6955817183995497CEA956AE515D2261898FA0510"+
	"15728E5A8AACAA68FFFFFFFFFFFFFFFF",
	16)

// modpQ is (modpP - 1) / 2, the order of the subgroup generated by g=2 in
// a safe prime group.
var modpQ = new(big.Int).Rsh(new(big.Int).Sub(modp2048P, big.NewInt(1)), 1)

// DefaultGroup is the process-wide DH group used by key exchange and OT.
var DefaultGroup = Group{
	P: modp2048P,
	Q: modpQ,
	G: big.NewInt(2),
}

// Init samples a fresh private exponent and returns it together with the
// corresponding public value G^priv mod P.
func (grp Group) Init(rand io.Reader) (priv, pub *big.Int, err error) {
	priv, err = cryptorand.Int(rand, grp.Q)
	if err != nil {
		return nil, nil, err
	}
	pub = new(big.Int).Exp(grp.G, priv, grp.P)
	return priv, pub, nil
}

// Shared computes the Diffie-Hellman shared secret peerPub^priv mod P.
func (grp Group) Shared(priv, peerPub *big.Int) (*big.Int, error) {
	if peerPub.Sign() <= 0 || peerPub.Cmp(grp.P) >= 0 {
		return nil, fmt.Errorf("gcrypto: peer public value out of range")
	}
	return new(big.Int).Exp(peerPub, priv, grp.P), nil
}

// ValidatePublic checks that a received DH public value is in range.
func (grp Group) ValidatePublic(pub *big.Int) error {
	if pub == nil || pub.Sign() <= 0 || pub.Cmp(grp.P) >= 0 {
		return fmt.Errorf("gcrypto: DH public value out of range")
	}
	return nil
}

