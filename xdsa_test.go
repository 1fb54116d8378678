package pqseal

import (
	"bytes"
	"errors"
	"testing"
)

func testXDSAKey(t *testing.T) *XDSASecretKey {
	t.Helper()
	k, err := GenerateXDSAKey()
	if err != nil {
		t.Fatalf("GenerateXDSAKey() error = %v", err)
	}
	return k
}

func TestXDSAKey_DeterministicFromSeed(t *testing.T) {
	seed := make([]byte, XDSASeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}

	a, err := XDSASecretKeyFromBytes(seed)
	if err != nil {
		t.Fatalf("XDSASecretKeyFromBytes() error = %v", err)
	}
	b, err := XDSASecretKeyFromBytes(seed)
	if err != nil {
		t.Fatalf("XDSASecretKeyFromBytes() error = %v", err)
	}

	if !bytes.Equal(a.PublicKey().Bytes(), b.PublicKey().Bytes()) {
		t.Error("same seed produced different public keys")
	}
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("same seed produced different fingerprints")
	}
	if !bytes.Equal(a.Bytes(), seed) {
		t.Error("Bytes() does not round-trip the seed")
	}

	msg := []byte("determinism check")
	if !bytes.Equal(a.Sign(msg), b.Sign(msg)) {
		t.Error("same seed produced different signatures")
	}
}

func TestXDSAKey_GenerateIsFresh(t *testing.T) {
	a := testXDSAKey(t)
	b := testXDSAKey(t)
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("two generated keys share a fingerprint")
	}
}

func TestXDSAKey_InvalidSeedLength(t *testing.T) {
	for _, n := range []int{0, 1, 32, 63, 65, 128} {
		if _, err := XDSASecretKeyFromBytes(make([]byte, n)); !errors.Is(err, ErrInvalidKeyLength) {
			t.Errorf("XDSASecretKeyFromBytes(%d bytes) error = %v, want ErrInvalidKeyLength", n, err)
		}
	}
	for _, n := range []int{0, 32, XDSAPublicKeySize - 1, XDSAPublicKeySize + 1} {
		if _, err := XDSAPublicKeyFromBytes(make([]byte, n)); !errors.Is(err, ErrInvalidKeyLength) {
			t.Errorf("XDSAPublicKeyFromBytes(%d bytes) error = %v, want ErrInvalidKeyLength", n, err)
		}
	}
}

func TestXDSA_SignVerify(t *testing.T) {
	key := testXDSAKey(t)
	msg := []byte("a message to sign")

	sig := key.Sign(msg)
	if len(sig) != XDSASignatureSize {
		t.Fatalf("signature length = %d, want %d", len(sig), XDSASignatureSize)
	}
	if err := key.PublicKey().Verify(msg, sig); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if err := key.PublicKey().Verify([]byte("another message"), sig); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("Verify() with wrong message error = %v, want ErrSignatureInvalid", err)
	}
	if err := key.PublicKey().Verify(msg, sig[:len(sig)-1]); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("Verify() with truncated signature error = %v, want ErrSignatureInvalid", err)
	}
}

// Flipping a bit in either component signature must invalidate the whole
// composite: the ML-DSA-65 part occupies the front, Ed25519 the tail.
func TestXDSA_BothComponentsChecked(t *testing.T) {
	key := testXDSAKey(t)
	msg := []byte("composite coverage")
	sig := key.Sign(msg)

	for _, pos := range []int{0, XDSASignatureSize / 2, XDSASignatureSize - 64, XDSASignatureSize - 1} {
		tampered := append([]byte(nil), sig...)
		tampered[pos] ^= 0x80
		if err := key.PublicKey().Verify(msg, tampered); !errors.Is(err, ErrSignatureInvalid) {
			t.Errorf("Verify() with bit flipped at %d error = %v, want ErrSignatureInvalid", pos, err)
		}
	}
}

func TestXDSAKey_EncodingRoundTrips(t *testing.T) {
	key := testXDSAKey(t)

	t.Run("secret DER", func(t *testing.T) {
		d, err := key.DER()
		if err != nil {
			t.Fatal(err)
		}
		got, err := XDSASecretKeyFromDER(d)
		if err != nil {
			t.Fatalf("XDSASecretKeyFromDER() error = %v", err)
		}
		if !bytes.Equal(got.Bytes(), key.Bytes()) {
			t.Error("DER round trip changed the seed")
		}
	})

	t.Run("secret PEM", func(t *testing.T) {
		p, err := key.PEM()
		if err != nil {
			t.Fatal(err)
		}
		got, err := XDSASecretKeyFromPEM(p)
		if err != nil {
			t.Fatalf("XDSASecretKeyFromPEM() error = %v", err)
		}
		if got.Fingerprint() != key.Fingerprint() {
			t.Error("PEM round trip changed the key")
		}
	})

	t.Run("public bytes", func(t *testing.T) {
		got, err := XDSAPublicKeyFromBytes(key.PublicKey().Bytes())
		if err != nil {
			t.Fatalf("XDSAPublicKeyFromBytes() error = %v", err)
		}
		if got.Fingerprint() != key.Fingerprint() {
			t.Error("raw round trip changed the key")
		}
	})

	t.Run("public DER", func(t *testing.T) {
		d, err := key.PublicKey().DER()
		if err != nil {
			t.Fatal(err)
		}
		got, err := XDSAPublicKeyFromDER(d)
		if err != nil {
			t.Fatalf("XDSAPublicKeyFromDER() error = %v", err)
		}
		if !bytes.Equal(got.Bytes(), key.PublicKey().Bytes()) {
			t.Error("DER round trip changed the public key")
		}
	})

	t.Run("public PEM", func(t *testing.T) {
		p, err := key.PublicKey().PEM()
		if err != nil {
			t.Fatal(err)
		}
		got, err := XDSAPublicKeyFromPEM(p)
		if err != nil {
			t.Fatalf("XDSAPublicKeyFromPEM() error = %v", err)
		}
		if got.Fingerprint() != key.Fingerprint() {
			t.Error("PEM round trip changed the public key")
		}
	})
}

// xDSA DER material must not parse as xHPKE and vice versa.
func TestXDSAKey_FamilyConfusion(t *testing.T) {
	key := testXDSAKey(t)
	d, err := key.PublicKey().DER()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := XHPKEPublicKeyFromDER(d); !errors.Is(err, ErrParse) {
		t.Errorf("XHPKEPublicKeyFromDER(xdsa key) error = %v, want ErrParse", err)
	}

	sd, err := key.DER()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := XHPKESecretKeyFromDER(sd); !errors.Is(err, ErrParse) {
		t.Errorf("XHPKESecretKeyFromDER(xdsa key) error = %v, want ErrParse", err)
	}
}
