package pqseal

import "errors"

// Sentinel errors for errors.Is() checks. Cryptographic failures are never
// distinguished beyond these categories, to avoid giving an attacker an
// oracle. Callers should treat every verification failure as the same
// untrusted-input signal.
var (
	// ErrParse is returned when a DER, PEM, or certificate encoding is not
	// well-formed.
	ErrParse = errors.New("malformed encoding")

	// ErrInvalidKeyLength is returned when raw key, seed, signature, or
	// fingerprint bytes have the wrong length for the key family.
	ErrInvalidKeyLength = errors.New("invalid key length")

	// ErrInvalidConstraint is returned when a certificate path length is
	// requested for a non-CA certificate.
	ErrInvalidConstraint = errors.New("path length requires a CA certificate")

	// ErrSignatureInvalid is returned when signature verification fails.
	ErrSignatureInvalid = errors.New("signature verification failed")

	// ErrAEADAuthentication is returned when authenticated decryption fails.
	ErrAEADAuthentication = errors.New("aead authentication failed")

	// ErrDecapsulationFailed is returned when the encapsulated session key
	// cannot be recovered.
	ErrDecapsulationFailed = errors.New("decapsulation failed")

	// ErrDomainMismatch is returned when an envelope's domain does not match
	// the domain the caller expects.
	ErrDomainMismatch = errors.New("domain mismatch")

	// ErrReplayRejected is returned when an envelope's timestamp falls
	// outside the caller's allowed clock drift.
	ErrReplayRejected = errors.New("timestamp outside allowed drift")
)
