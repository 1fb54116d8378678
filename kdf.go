package pqseal

import (
	"crypto/sha512"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

// DeriveKey derives a key using HKDF-SHA-512.
//
// Parameters:
//   - secret: the input key material
//   - salt: optional salt value; if empty, a zero-filled salt is used
//   - info: context/application-specific info for domain separation
//   - length: desired output key length in bytes
func DeriveKey(secret, salt, info []byte, length int) ([]byte, error) {
	if len(salt) == 0 {
		salt = make([]byte, sha512.Size)
	}

	reader := hkdf.New(sha512.New, secret, salt, info)
	key := make([]byte, length)

	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	return key, nil
}

// Argon2Key derives a key from a password using Argon2id.
//
// Parameters:
//   - password: the password to derive the key from
//   - salt: the salt (should be random, at least 16 bytes)
//   - time: number of iterations (RFC 9106 recommends 1)
//   - memory: memory size in KiB
//   - threads: degree of parallelism
//   - length: desired output key length in bytes
func Argon2Key(password, salt []byte, time, memory uint32, threads uint8, length uint32) []byte {
	return argon2.IDKey(password, salt, time, memory, threads, length)
}
