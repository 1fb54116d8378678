package pqseal

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// FingerprintSize is the size of a key fingerprint in bytes.
const FingerprintSize = 32

// Fingerprint is a 32-byte identifier for a public key, computed as the
// SHA-256 hash of the key's raw encoding. Equal public keys always produce
// equal fingerprints, so a fingerprint embedded in an envelope header is a
// stable lookup handle for the key itself.
type Fingerprint [FingerprintSize]byte

// FingerprintFromBytes creates a fingerprint from a 32-byte slice.
func FingerprintFromBytes(b []byte) (Fingerprint, error) {
	var fp Fingerprint
	if len(b) != FingerprintSize {
		return fp, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeyLength, len(b), FingerprintSize)
	}
	copy(fp[:], b)
	return fp, nil
}

// Bytes returns the fingerprint as a 32-byte slice.
func (f Fingerprint) Bytes() []byte {
	out := make([]byte, FingerprintSize)
	copy(out, f[:])
	return out
}

// String returns the fingerprint as lowercase hex.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// fingerprintOf hashes a raw public key encoding.
func fingerprintOf(raw []byte) Fingerprint {
	return Fingerprint(sha256.Sum256(raw))
}

// PublicKey is the capability shared by all public key families. The
// families are deliberately distinct concrete types and never substitutable
// for one another; this interface only captures the identity and encoding
// surface they have in common.
type PublicKey interface {
	// Fingerprint returns the SHA-256 hash of Bytes().
	Fingerprint() Fingerprint
	// Bytes returns the fixed-length raw encoding.
	Bytes() []byte
	// DER returns the SubjectPublicKeyInfo encoding.
	DER() ([]byte, error)
	// PEM returns the DER encoding wrapped in a PEM block.
	PEM() (string, error)
}

// SecretKey is the capability shared by all secret key families.
type SecretKey interface {
	// Fingerprint returns the fingerprint of the corresponding public key.
	Fingerprint() Fingerprint
	// Bytes returns the fixed-length raw encoding (seed or key material).
	Bytes() []byte
	// DER returns the PKCS#8-shaped encoding.
	DER() ([]byte, error)
	// PEM returns the DER encoding wrapped in a PEM block.
	PEM() (string, error)
}
