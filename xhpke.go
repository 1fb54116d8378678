package pqseal

import (
	"crypto/cipher"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/xwing"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/pqseal/pqseal-go/internal/der"
)

// Sizes of the xHPKE (X-Wing: X25519 + ML-KEM-768) encodings in bytes.
const (
	// XHPKESeedSize is the size of an xHPKE secret key seed.
	XHPKESeedSize = 32
	// XHPKEPublicKeySize is the size of an xHPKE public key.
	XHPKEPublicKeySize = 1216
	// XHPKESessionKeySize is the size of an encapsulated session key.
	XHPKESessionKeySize = 1120
)

// xhpkeContext is the HKDF context string for xHPKE key derivation.
const xhpkeContext = "pqseal:xhpke:v1"

var xwingScheme = xwing.Scheme()

// XHPKESecretKey is an X-Wing (X25519 + ML-KEM-768) private key for
// post-quantum hybrid public-key encryption.
type XHPKESecretKey struct {
	seed [XHPKESeedSize]byte
	sk   kem.PrivateKey
	pub  *XHPKEPublicKey
}

// GenerateXHPKEKey creates a new random xHPKE secret key.
func GenerateXHPKEKey() (*XHPKESecretKey, error) {
	seed, err := RandomBytes(XHPKESeedSize)
	if err != nil {
		return nil, fmt.Errorf("generate xhpke seed: %w", err)
	}
	return XHPKESecretKeyFromBytes(seed)
}

// XHPKESecretKeyFromBytes derives a secret key deterministically from a
// 32-byte seed.
func XHPKESecretKeyFromBytes(seed []byte) (*XHPKESecretKey, error) {
	if len(seed) != XHPKESeedSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeyLength, len(seed), XHPKESeedSize)
	}
	pk, sk := xwingScheme.DeriveKeyPair(seed)

	k := &XHPKESecretKey{sk: sk}
	copy(k.seed[:], seed)

	// MarshalBinary never fails for keys produced by DeriveKeyPair.
	raw, _ := pk.MarshalBinary()
	pub := &XHPKEPublicKey{pk: pk}
	copy(pub.raw[:], raw)
	k.pub = pub

	return k, nil
}

// XHPKESecretKeyFromDER parses a DER-encoded secret key.
func XHPKESecretKeyFromDER(data []byte) (*XHPKESecretKey, error) {
	seed, err := parsePrivateKeyDER(data, der.OIDXHPKE)
	if err != nil {
		return nil, err
	}
	return XHPKESecretKeyFromBytes(seed)
}

// XHPKESecretKeyFromPEM parses a PEM-encoded secret key.
func XHPKESecretKeyFromPEM(s string) (*XHPKESecretKey, error) {
	data, err := der.DecodePEM(s, der.PEMPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return XHPKESecretKeyFromDER(data)
}

// PublicKey returns the public key corresponding to this secret key.
func (k *XHPKESecretKey) PublicKey() *XHPKEPublicKey { return k.pub }

// Fingerprint returns the fingerprint of the corresponding public key.
func (k *XHPKESecretKey) Fingerprint() Fingerprint { return k.pub.Fingerprint() }

// Bytes returns the 32-byte seed.
func (k *XHPKESecretKey) Bytes() []byte {
	out := make([]byte, XHPKESeedSize)
	copy(out, k.seed[:])
	return out
}

// DER returns the PKCS#8-shaped encoding of the seed.
func (k *XHPKESecretKey) DER() ([]byte, error) {
	return der.MarshalPrivateKey(der.OIDXHPKE, k.Bytes())
}

// PEM returns the DER encoding wrapped in a PEM block.
func (k *XHPKESecretKey) PEM() (string, error) {
	d, err := k.DER()
	if err != nil {
		return "", err
	}
	return der.EncodePEM(der.PEMPrivateKey, d), nil
}

// Open decrypts a message that was encrypted to this key's public
// counterpart. sessionKey, aad, and domain must match the values used by
// [XHPKEPublicKey.Seal].
func (k *XHPKESecretKey) Open(sessionKey, ciphertext, aad, domain []byte) ([]byte, error) {
	if len(sessionKey) != XHPKESessionKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeyLength, len(sessionKey), XHPKESessionKeySize)
	}
	shared, err := xwingScheme.Decapsulate(k.sk, sessionKey)
	if err != nil {
		return nil, ErrDecapsulationFailed
	}
	aead, nonce, err := deriveAEAD(shared, sessionKey, domain)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrAEADAuthentication
	}
	return plaintext, nil
}

// XHPKEPublicKey is an X-Wing (X25519 + ML-KEM-768) public key for
// post-quantum hybrid public-key encryption.
type XHPKEPublicKey struct {
	raw [XHPKEPublicKeySize]byte
	pk  kem.PublicKey
}

// XHPKEPublicKeyFromBytes parses a 1216-byte raw public key.
func XHPKEPublicKeyFromBytes(b []byte) (*XHPKEPublicKey, error) {
	if len(b) != XHPKEPublicKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeyLength, len(b), XHPKEPublicKeySize)
	}
	pk, err := xwingScheme.UnmarshalBinaryPublicKey(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	pub := &XHPKEPublicKey{pk: pk}
	copy(pub.raw[:], b)
	return pub, nil
}

// XHPKEPublicKeyFromDER parses a DER-encoded public key.
func XHPKEPublicKeyFromDER(data []byte) (*XHPKEPublicKey, error) {
	raw, err := parsePublicKeyDER(data, der.OIDXHPKE)
	if err != nil {
		return nil, err
	}
	return XHPKEPublicKeyFromBytes(raw)
}

// XHPKEPublicKeyFromPEM parses a PEM-encoded public key.
func XHPKEPublicKeyFromPEM(s string) (*XHPKEPublicKey, error) {
	data, err := der.DecodePEM(s, der.PEMPublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return XHPKEPublicKeyFromDER(data)
}

// Bytes returns the 1216-byte raw encoding.
func (k *XHPKEPublicKey) Bytes() []byte {
	out := make([]byte, XHPKEPublicKeySize)
	copy(out, k.raw[:])
	return out
}

// DER returns the SubjectPublicKeyInfo encoding.
func (k *XHPKEPublicKey) DER() ([]byte, error) {
	return der.MarshalPublicKey(der.OIDXHPKE, k.Bytes())
}

// PEM returns the DER encoding wrapped in a PEM block.
func (k *XHPKEPublicKey) PEM() (string, error) {
	d, err := k.DER()
	if err != nil {
		return "", err
	}
	return der.EncodePEM(der.PEMPublicKey, d), nil
}

// Fingerprint returns the SHA-256 hash of the raw public key encoding.
func (k *XHPKEPublicKey) Fingerprint() Fingerprint {
	return fingerprintOf(k.raw[:])
}

// Seal encrypts plaintext to this public key with a fresh encapsulation.
// It returns the 1120-byte encapsulated session key and the ciphertext.
// aad is authenticated but not encrypted; domain is mixed into key
// derivation, so a message sealed for one domain cannot be opened under
// another even with the right keys.
func (k *XHPKEPublicKey) Seal(plaintext, aad, domain []byte) (sessionKey, ciphertext []byte, err error) {
	encSeed, err := RandomBytes(xwingScheme.EncapsulationSeedSize())
	if err != nil {
		return nil, nil, fmt.Errorf("encapsulation seed: %w", err)
	}
	sessionKey, shared, err := xwingScheme.EncapsulateDeterministically(k.pk, encSeed)
	if err != nil {
		return nil, nil, fmt.Errorf("encapsulate: %w", err)
	}
	aead, nonce, err := deriveAEAD(shared, sessionKey, domain)
	if err != nil {
		return nil, nil, err
	}
	return sessionKey, aead.Seal(nil, nonce, plaintext, aad), nil
}

// deriveAEAD derives the ChaCha20-Poly1305 cipher and nonce for a message.
//
// The derivation uses:
//   - IKM: the KEM shared secret
//   - Salt: SHA-256 hash of the encapsulated session key
//   - Info: context string || domain length (4 bytes BE) || domain
//
// The session key is fresh per message, so the derived key/nonce pair is
// never reused.
func deriveAEAD(shared, sessionKey, domain []byte) (cipher.AEAD, []byte, error) {
	saltHash := sha256.Sum256(sessionKey)

	info := make([]byte, 0, len(xhpkeContext)+4+len(domain))
	info = append(info, xhpkeContext...)
	info = binary.BigEndian.AppendUint32(info, uint32(len(domain)))
	info = append(info, domain...)

	reader := hkdf.New(sha512.New, shared, saltHash[:], info)
	material := make([]byte, chacha20poly1305.KeySize+chacha20poly1305.NonceSize)
	if _, err := io.ReadFull(reader, material); err != nil {
		return nil, nil, fmt.Errorf("derive key: %w", err)
	}

	aead, err := chacha20poly1305.New(material[:chacha20poly1305.KeySize])
	if err != nil {
		return nil, nil, err
	}
	return aead, material[chacha20poly1305.KeySize:], nil
}
