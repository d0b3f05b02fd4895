//
// Copyright (c) 2019-2024 Markku Rossi
//
// All rights reserved.
//

package gcrypto

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// aesInfo and macInfo are the HKDF info tags that separate the session AEAD
// key (KDFAES) from the OT transfer keys (KDFMAC).
var (
	aesInfo = []byte("yaogc session aead key")
	macInfo = []byte("yaogc session ot key")
)

// KDFAES derives the session AEAD key from the DH shared secret.
func KDFAES(secret []byte) ([]byte, error) {
	return hkdfExpand(secret, aesInfo, 32)
}

// KDFMAC derives the per-OT-transfer symmetric key from a DH element. Named
// for the role it plays in spec.md's key schedule (the "HMAC_key" slot);
// under the AEAD-everywhere design it keys the OT ciphertexts' AES-CBC
// layer rather than a standalone MAC.
func KDFMAC(secret []byte) ([]byte, error) {
	return hkdfExpand(secret, macInfo, 32)
}

func hkdfExpand(secret, info []byte, size int) ([]byte, error) {
	r := hkdf.New(sha256.New, secret, nil, info)
	out := make([]byte, size)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}
