package pqseal

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"math/big"

	"github.com/pqseal/pqseal-go/internal/der"
)

// Sizes of the legacy RSA-2048 encodings in bytes.
const (
	// RSASecretKeySize is the raw secret key encoding:
	// p (128) || q (128) || d (256) || e (8).
	RSASecretKeySize = 520
	// RSAPublicKeySize is the raw public key encoding: n (256) || e (8).
	RSAPublicKeySize = 264
	// RSASignatureSize is the size of an RSA-2048 signature.
	RSASignatureSize = 256

	rsaBits        = 2048
	rsaModulusSize = 256
	rsaPrimeSize   = 128
	rsaExpSize     = 8
)

// RSASecretKey is a 2048-bit RSA private key for creating legacy digital
// signatures (PKCS#1 v1.5 over SHA-256). It exists for interop with systems
// that cannot verify the composite xDSA scheme and offers no post-quantum
// security.
type RSASecretKey struct {
	key *rsa.PrivateKey
}

// GenerateRSAKey creates a new random RSA-2048 secret key.
func GenerateRSAKey() (*RSASecretKey, error) {
	key, err := rsa.GenerateKey(randSource(), rsaBits)
	if err != nil {
		return nil, fmt.Errorf("generate rsa key: %w", err)
	}
	return &RSASecretKey{key: key}, nil
}

// RSASecretKeyFromBytes reconstructs a secret key from its 520-byte raw
// encoding.
func RSASecretKeyFromBytes(b []byte) (*RSASecretKey, error) {
	if len(b) != RSASecretKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeyLength, len(b), RSASecretKeySize)
	}
	p := new(big.Int).SetBytes(b[:rsaPrimeSize])
	q := new(big.Int).SetBytes(b[rsaPrimeSize : 2*rsaPrimeSize])
	d := new(big.Int).SetBytes(b[2*rsaPrimeSize : 2*rsaPrimeSize+rsaModulusSize])
	e := new(big.Int).SetBytes(b[2*rsaPrimeSize+rsaModulusSize:])

	if !e.IsInt64() || e.Int64() < 3 || e.Int64() > 1<<31-1 {
		return nil, fmt.Errorf("%w: public exponent out of range", ErrParse)
	}
	key := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{
			N: new(big.Int).Mul(p, q),
			E: int(e.Int64()),
		},
		D:      d,
		Primes: []*big.Int{p, q},
	}
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	key.Precompute()
	return &RSASecretKey{key: key}, nil
}

// RSASecretKeyFromDER parses a PKCS#1 DER-encoded private key.
func RSASecretKeyFromDER(data []byte) (*RSASecretKey, error) {
	key, err := x509.ParsePKCS1PrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if key.N.BitLen() != rsaBits {
		return nil, fmt.Errorf("%w: modulus is %d bits, want %d", ErrParse, key.N.BitLen(), rsaBits)
	}
	return &RSASecretKey{key: key}, nil
}

// RSASecretKeyFromPEM parses a PEM-encoded private key.
func RSASecretKeyFromPEM(s string) (*RSASecretKey, error) {
	data, err := der.DecodePEM(s, der.PEMPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return RSASecretKeyFromDER(data)
}

// PublicKey returns the public key corresponding to this secret key.
func (k *RSASecretKey) PublicKey() *RSAPublicKey {
	return &RSAPublicKey{key: &k.key.PublicKey}
}

// Fingerprint returns the fingerprint of the corresponding public key.
func (k *RSASecretKey) Fingerprint() Fingerprint { return k.PublicKey().Fingerprint() }

// Bytes returns the 520-byte raw encoding p || q || d || e.
func (k *RSASecretKey) Bytes() []byte {
	out := make([]byte, RSASecretKeySize)
	k.key.Primes[0].FillBytes(out[:rsaPrimeSize])
	k.key.Primes[1].FillBytes(out[rsaPrimeSize : 2*rsaPrimeSize])
	k.key.D.FillBytes(out[2*rsaPrimeSize : 2*rsaPrimeSize+rsaModulusSize])
	big.NewInt(int64(k.key.E)).FillBytes(out[2*rsaPrimeSize+rsaModulusSize:])
	return out
}

// DER returns the PKCS#1 encoding.
func (k *RSASecretKey) DER() ([]byte, error) {
	return x509.MarshalPKCS1PrivateKey(k.key), nil
}

// PEM returns the DER encoding wrapped in a PEM block.
func (k *RSASecretKey) PEM() (string, error) {
	d, err := k.DER()
	if err != nil {
		return "", err
	}
	return der.EncodePEM(der.PEMPrivateKey, d), nil
}

// Sign produces a 256-byte PKCS#1 v1.5 signature over the SHA-256 digest
// of message.
func (k *RSASecretKey) Sign(message []byte) ([]byte, error) {
	digest := sha256.Sum256(message)
	sig, err := rsa.SignPKCS1v15(nil, k.key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("rsa sign: %w", err)
	}
	return sig, nil
}

// RSAPublicKey is a 2048-bit RSA public key for verifying legacy digital
// signatures.
type RSAPublicKey struct {
	key *rsa.PublicKey
}

// RSAPublicKeyFromBytes parses the 264-byte raw encoding n || e.
func RSAPublicKeyFromBytes(b []byte) (*RSAPublicKey, error) {
	if len(b) != RSAPublicKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeyLength, len(b), RSAPublicKeySize)
	}
	n := new(big.Int).SetBytes(b[:rsaModulusSize])
	e := new(big.Int).SetBytes(b[rsaModulusSize:])
	if n.BitLen() != rsaBits {
		return nil, fmt.Errorf("%w: modulus is %d bits, want %d", ErrParse, n.BitLen(), rsaBits)
	}
	if !e.IsInt64() || e.Int64() < 3 || e.Int64() > 1<<31-1 {
		return nil, fmt.Errorf("%w: public exponent out of range", ErrParse)
	}
	return &RSAPublicKey{key: &rsa.PublicKey{N: n, E: int(e.Int64())}}, nil
}

// RSAPublicKeyFromDER parses a PKCS#1 DER-encoded public key.
func RSAPublicKeyFromDER(data []byte) (*RSAPublicKey, error) {
	key, err := x509.ParsePKCS1PublicKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if key.N.BitLen() != rsaBits {
		return nil, fmt.Errorf("%w: modulus is %d bits, want %d", ErrParse, key.N.BitLen(), rsaBits)
	}
	return &RSAPublicKey{key: key}, nil
}

// RSAPublicKeyFromPEM parses a PEM-encoded public key.
func RSAPublicKeyFromPEM(s string) (*RSAPublicKey, error) {
	data, err := der.DecodePEM(s, der.PEMPublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return RSAPublicKeyFromDER(data)
}

// Bytes returns the 264-byte raw encoding n || e.
func (k *RSAPublicKey) Bytes() []byte {
	out := make([]byte, RSAPublicKeySize)
	k.key.N.FillBytes(out[:rsaModulusSize])
	big.NewInt(int64(k.key.E)).FillBytes(out[rsaModulusSize:])
	return out
}

// DER returns the PKCS#1 encoding.
func (k *RSAPublicKey) DER() ([]byte, error) {
	return x509.MarshalPKCS1PublicKey(k.key), nil
}

// PEM returns the DER encoding wrapped in a PEM block.
func (k *RSAPublicKey) PEM() (string, error) {
	d, err := k.DER()
	if err != nil {
		return "", err
	}
	return der.EncodePEM(der.PEMPublicKey, d), nil
}

// Fingerprint returns the SHA-256 hash of the raw public key encoding.
func (k *RSAPublicKey) Fingerprint() Fingerprint {
	return fingerprintOf(k.Bytes())
}

// Verify checks a PKCS#1 v1.5 signature over the SHA-256 digest of message.
func (k *RSAPublicKey) Verify(message, signature []byte) error {
	if len(signature) != RSASignatureSize {
		return ErrSignatureInvalid
	}
	digest := sha256.Sum256(message)
	if err := rsa.VerifyPKCS1v15(k.key, crypto.SHA256, digest[:], signature); err != nil {
		return ErrSignatureInvalid
	}
	return nil
}
