//
// Copyright (c) 2019-2024 Markku Rossi
//
// All rights reserved.
//

package gcrypto

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// Seal encrypts and authenticates msg under key, returning a frame of
// nonce||ciphertext. key must be chacha20poly1305.KeySize bytes (the output
// of KDFAES).
func Seal(key, msg []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	out := aead.Seal(nonce, nonce, msg, nil)
	return out, nil
}

// Open verifies and decrypts a frame produced by Seal. ok is false on any
// authentication failure; the core treats that as fatal and never inspects
// plaintext in that case.
func Open(key, framed []byte) (plaintext []byte, ok bool) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, false
	}
	if len(framed) < chacha20poly1305.NonceSizeX {
		return nil, false
	}
	nonce := framed[:chacha20poly1305.NonceSizeX]
	ct := framed[chacha20poly1305.NonceSizeX:]
	pt, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, false
	}
	return pt, true
}

// CBCEncrypt AES-CBC-encrypts m under key with a fresh random IV, used for
// the OT subprotocol's per-message symmetric layer (spec.md §4.3 step 4).
// The IV is returned alongside the ciphertext for transmission.
func CBCEncrypt(key, m []byte) (ct, iv []byte, err error) {
	return cbcEncryptPadded(key, m)
}

// CBCDecrypt reverses CBCEncrypt.
func CBCDecrypt(key, ct, iv []byte) ([]byte, error) {
	return cbcDecryptPadded(key, ct, iv)
}

// errAuth is a sentinel the CBC layer returns for a ciphertext of the wrong
// length. Malformed padding is reported by pkcs7Unpad with its own error.
var errAuth = fmt.Errorf("gcrypto: decryption failed")
