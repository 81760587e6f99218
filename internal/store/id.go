package store

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const (
	transferIDBytes    = 16
	accessCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	idMaxAttempts      = 20
)

// NewTransferID returns a new opaque URL-safe transfer id (128 bits of
// entropy). It retries on collisions using the provided exists function.
func NewTransferID(exists func(string) (bool, error)) (string, error) {
	for i := 0; i < idMaxAttempts; i++ {
		b := make([]byte, transferIDBytes)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}
		id := base64.RawURLEncoding.EncodeToString(b)
		if exists == nil {
			return id, nil
		}
		ok, err := exists(id)
		if err != nil {
			return "", err
		}
		if !ok {
			return id, nil
		}
	}

	return "", fmt.Errorf("unable to generate unique transfer id")
}

// NewAccessCode returns a short human-typeable uppercase alphanumeric code.
// Six characters carry just over 31 bits of entropy. Random bytes outside the
// largest multiple of the alphabet size are discarded so every character is
// equally likely.
func NewAccessCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("access code length must be positive")
	}
	// 252 = floor(256/36)*36; bytes at or above it would bias the low indices.
	const limit = byte(256 / len(accessCodeAlphabet) * len(accessCodeAlphabet))

	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, accessCodeAlphabet[int(b)%len(accessCodeAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
