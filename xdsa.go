package pqseal

import (
	"crypto/ed25519"
	"fmt"

	"github.com/cloudflare/circl/sign/mldsa/mldsa65"

	"github.com/pqseal/pqseal-go/internal/der"
)

// Sizes of the composite xDSA (ML-DSA-65 + Ed25519) encodings in bytes.
const (
	// XDSASeedSize is the size of an xDSA secret key seed: a 32-byte
	// ML-DSA-65 seed followed by a 32-byte Ed25519 seed.
	XDSASeedSize = 64
	// XDSAPublicKeySize is the size of an xDSA public key: the ML-DSA-65
	// public key followed by the Ed25519 public key.
	XDSAPublicKeySize = mldsa65.PublicKeySize + ed25519.PublicKeySize
	// XDSASignatureSize is the size of an xDSA signature: the ML-DSA-65
	// signature followed by the Ed25519 signature.
	XDSASignatureSize = mldsa65.SignatureSize + ed25519.SignatureSize
)

// XDSASecretKey is a composite ML-DSA-65 + Ed25519 private key for creating
// quantum-resistant digital signatures. A signature is only valid if both
// component signatures verify, so forging one requires breaking both
// schemes.
type XDSASecretKey struct {
	seed [XDSASeedSize]byte
	ml   *mldsa65.PrivateKey
	ed   ed25519.PrivateKey
	pub  *XDSAPublicKey
}

// GenerateXDSAKey creates a new random xDSA secret key.
func GenerateXDSAKey() (*XDSASecretKey, error) {
	seed, err := RandomBytes(XDSASeedSize)
	if err != nil {
		return nil, fmt.Errorf("generate xdsa seed: %w", err)
	}
	return XDSASecretKeyFromBytes(seed)
}

// XDSASecretKeyFromBytes derives a secret key deterministically from a
// 64-byte seed.
func XDSASecretKeyFromBytes(seed []byte) (*XDSASecretKey, error) {
	if len(seed) != XDSASeedSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeyLength, len(seed), XDSASeedSize)
	}

	var mlSeed [mldsa65.SeedSize]byte
	copy(mlSeed[:], seed[:mldsa65.SeedSize])
	mlPub, mlPriv := mldsa65.NewKeyFromSeed(&mlSeed)
	edPriv := ed25519.NewKeyFromSeed(seed[mldsa65.SeedSize:])

	k := &XDSASecretKey{ml: mlPriv, ed: edPriv}
	copy(k.seed[:], seed)

	// MarshalBinary never fails for keys produced by NewKeyFromSeed.
	mlPubBytes, _ := mlPub.MarshalBinary()
	pub := &XDSAPublicKey{ml: mlPub, ed: edPriv.Public().(ed25519.PublicKey)}
	copy(pub.raw[:mldsa65.PublicKeySize], mlPubBytes)
	copy(pub.raw[mldsa65.PublicKeySize:], pub.ed)
	k.pub = pub

	return k, nil
}

// XDSASecretKeyFromDER parses a DER-encoded secret key.
func XDSASecretKeyFromDER(data []byte) (*XDSASecretKey, error) {
	seed, err := parsePrivateKeyDER(data, der.OIDXDSA)
	if err != nil {
		return nil, err
	}
	return XDSASecretKeyFromBytes(seed)
}

// XDSASecretKeyFromPEM parses a PEM-encoded secret key.
func XDSASecretKeyFromPEM(s string) (*XDSASecretKey, error) {
	data, err := der.DecodePEM(s, der.PEMPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return XDSASecretKeyFromDER(data)
}

// PublicKey returns the public key corresponding to this secret key.
func (k *XDSASecretKey) PublicKey() *XDSAPublicKey { return k.pub }

// Fingerprint returns the fingerprint of the corresponding public key.
func (k *XDSASecretKey) Fingerprint() Fingerprint { return k.pub.Fingerprint() }

// Bytes returns the 64-byte seed.
func (k *XDSASecretKey) Bytes() []byte {
	out := make([]byte, XDSASeedSize)
	copy(out, k.seed[:])
	return out
}

// DER returns the PKCS#8-shaped encoding of the seed.
func (k *XDSASecretKey) DER() ([]byte, error) {
	return der.MarshalPrivateKey(der.OIDXDSA, k.Bytes())
}

// PEM returns the DER encoding wrapped in a PEM block.
func (k *XDSASecretKey) PEM() (string, error) {
	d, err := k.DER()
	if err != nil {
		return "", err
	}
	return der.EncodePEM(der.PEMPrivateKey, d), nil
}

// Sign produces a composite signature over message. Signing is
// deterministic for a given key and message.
func (k *XDSASecretKey) Sign(message []byte) []byte {
	sig := make([]byte, XDSASignatureSize)
	// SignTo only fails for an oversized context string; none is used here.
	_ = mldsa65.SignTo(k.ml, message, nil, false, sig[:mldsa65.SignatureSize])
	copy(sig[mldsa65.SignatureSize:], ed25519.Sign(k.ed, message))
	return sig
}

// XDSAPublicKey is a composite ML-DSA-65 + Ed25519 public key for verifying
// quantum-resistant digital signatures.
type XDSAPublicKey struct {
	raw [XDSAPublicKeySize]byte
	ml  *mldsa65.PublicKey
	ed  ed25519.PublicKey
}

// XDSAPublicKeyFromBytes parses a 1984-byte raw public key.
func XDSAPublicKeyFromBytes(b []byte) (*XDSAPublicKey, error) {
	if len(b) != XDSAPublicKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeyLength, len(b), XDSAPublicKeySize)
	}
	ml := &mldsa65.PublicKey{}
	if err := ml.UnmarshalBinary(b[:mldsa65.PublicKeySize]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	pub := &XDSAPublicKey{ml: ml, ed: ed25519.PublicKey(append([]byte(nil), b[mldsa65.PublicKeySize:]...))}
	copy(pub.raw[:], b)
	return pub, nil
}

// XDSAPublicKeyFromDER parses a DER-encoded public key.
func XDSAPublicKeyFromDER(data []byte) (*XDSAPublicKey, error) {
	raw, err := parsePublicKeyDER(data, der.OIDXDSA)
	if err != nil {
		return nil, err
	}
	return XDSAPublicKeyFromBytes(raw)
}

// XDSAPublicKeyFromPEM parses a PEM-encoded public key.
func XDSAPublicKeyFromPEM(s string) (*XDSAPublicKey, error) {
	data, err := der.DecodePEM(s, der.PEMPublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return XDSAPublicKeyFromDER(data)
}

// Bytes returns the 1984-byte raw encoding.
func (k *XDSAPublicKey) Bytes() []byte {
	out := make([]byte, XDSAPublicKeySize)
	copy(out, k.raw[:])
	return out
}

// DER returns the SubjectPublicKeyInfo encoding.
func (k *XDSAPublicKey) DER() ([]byte, error) {
	return der.MarshalPublicKey(der.OIDXDSA, k.Bytes())
}

// PEM returns the DER encoding wrapped in a PEM block.
func (k *XDSAPublicKey) PEM() (string, error) {
	d, err := k.DER()
	if err != nil {
		return "", err
	}
	return der.EncodePEM(der.PEMPublicKey, d), nil
}

// Fingerprint returns the SHA-256 hash of the raw public key encoding.
func (k *XDSAPublicKey) Fingerprint() Fingerprint {
	return fingerprintOf(k.raw[:])
}

// Verify checks a composite signature over message. Both component
// signatures must verify.
func (k *XDSAPublicKey) Verify(message, signature []byte) error {
	if len(signature) != XDSASignatureSize {
		return ErrSignatureInvalid
	}
	if !mldsa65.Verify(k.ml, message, nil, signature[:mldsa65.SignatureSize]) {
		return ErrSignatureInvalid
	}
	if !ed25519.Verify(k.ed, message, signature[mldsa65.SignatureSize:]) {
		return ErrSignatureInvalid
	}
	return nil
}
