package store

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var ErrUnseal = errors.New("store: cannot open sealed payload")

// Seal encrypts and authenticates data with key. The random nonce is
// prepended to the output.
func Seal(key *[32]byte, data []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("store: generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], data, &nonce, key), nil
}

// Unseal reverses Seal.
func Unseal(key *[32]byte, sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, ErrUnseal
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	data, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, key)
	if !ok {
		return nil, ErrUnseal
	}
	return data, nil
}
