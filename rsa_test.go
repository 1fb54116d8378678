package pqseal

import (
	"bytes"
	"errors"
	"testing"
)

func testRSAKey(t *testing.T) *RSASecretKey {
	t.Helper()
	k, err := GenerateRSAKey()
	if err != nil {
		t.Fatalf("GenerateRSAKey() error = %v", err)
	}
	return k
}

func TestRSA_SignVerify(t *testing.T) {
	key := testRSAKey(t)
	msg := []byte("legacy interop message")

	sig, err := key.Sign(msg)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if len(sig) != RSASignatureSize {
		t.Fatalf("signature length = %d, want %d", len(sig), RSASignatureSize)
	}
	if err := key.PublicKey().Verify(msg, sig); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if err := key.PublicKey().Verify([]byte("other message"), sig); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("Verify() with wrong message error = %v, want ErrSignatureInvalid", err)
	}
	tampered := append([]byte(nil), sig...)
	tampered[0] ^= 0x01
	if err := key.PublicKey().Verify(msg, tampered); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("Verify() with tampered signature error = %v, want ErrSignatureInvalid", err)
	}
	if err := key.PublicKey().Verify(msg, sig[:100]); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("Verify() with short signature error = %v, want ErrSignatureInvalid", err)
	}
}

func TestRSAKey_RawRoundTrip(t *testing.T) {
	key := testRSAKey(t)

	raw := key.Bytes()
	if len(raw) != RSASecretKeySize {
		t.Fatalf("raw secret length = %d, want %d", len(raw), RSASecretKeySize)
	}
	got, err := RSASecretKeyFromBytes(raw)
	if err != nil {
		t.Fatalf("RSASecretKeyFromBytes() error = %v", err)
	}
	if !bytes.Equal(got.PublicKey().Bytes(), key.PublicKey().Bytes()) {
		t.Error("raw round trip changed the public key")
	}
	if got.Fingerprint() != key.Fingerprint() {
		t.Error("raw round trip changed the fingerprint")
	}

	// The reconstructed key must be able to sign for the original verifier.
	msg := []byte("cross check")
	sig, err := got.Sign(msg)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if err := key.PublicKey().Verify(msg, sig); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestRSAKey_RawRejectsGarbage(t *testing.T) {
	if _, err := RSASecretKeyFromBytes(make([]byte, 100)); !errors.Is(err, ErrInvalidKeyLength) {
		t.Errorf("RSASecretKeyFromBytes(short) error = %v, want ErrInvalidKeyLength", err)
	}
	// Right length, but p*q and d are inconsistent.
	junk := bytes.Repeat([]byte{0x5a}, RSASecretKeySize)
	if _, err := RSASecretKeyFromBytes(junk); !errors.Is(err, ErrParse) {
		t.Errorf("RSASecretKeyFromBytes(junk) error = %v, want ErrParse", err)
	}

	if _, err := RSAPublicKeyFromBytes(make([]byte, 10)); !errors.Is(err, ErrInvalidKeyLength) {
		t.Errorf("RSAPublicKeyFromBytes(short) error = %v, want ErrInvalidKeyLength", err)
	}
	// Zero modulus has the wrong bit length.
	if _, err := RSAPublicKeyFromBytes(make([]byte, RSAPublicKeySize)); !errors.Is(err, ErrParse) {
		t.Errorf("RSAPublicKeyFromBytes(zeros) error = %v, want ErrParse", err)
	}
}

func TestRSAKey_EncodingRoundTrips(t *testing.T) {
	key := testRSAKey(t)

	t.Run("secret PEM", func(t *testing.T) {
		p, err := key.PEM()
		if err != nil {
			t.Fatal(err)
		}
		got, err := RSASecretKeyFromPEM(p)
		if err != nil {
			t.Fatalf("RSASecretKeyFromPEM() error = %v", err)
		}
		if got.Fingerprint() != key.Fingerprint() {
			t.Error("PEM round trip changed the key")
		}
	})

	t.Run("public DER", func(t *testing.T) {
		d, err := key.PublicKey().DER()
		if err != nil {
			t.Fatal(err)
		}
		got, err := RSAPublicKeyFromDER(d)
		if err != nil {
			t.Fatalf("RSAPublicKeyFromDER() error = %v", err)
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
		got, err := RSAPublicKeyFromPEM(p)
		if err != nil {
			t.Fatalf("RSAPublicKeyFromPEM() error = %v", err)
		}
		if got.Fingerprint() != key.Fingerprint() {
			t.Error("PEM round trip changed the public key")
		}
	})
}
