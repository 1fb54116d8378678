package pqseal

import (
	"bytes"
	"errors"
	"testing"
)

func TestCert_IssueValidate_XDSA(t *testing.T) {
	ca := testXDSAKey(t)
	subject := testXDSAKey(t)

	certDER, err := subject.PublicKey().CertDER(ca, CertParams{
		SubjectName: "alice",
		IssuerName:  "root-ca",
		NotBefore:   1700000000,
		NotAfter:    1731536000,
	})
	if err != nil {
		t.Fatalf("CertDER() error = %v", err)
	}

	got, nb, na, err := XDSAPublicKeyFromCertDER(certDER, ca.PublicKey())
	if err != nil {
		t.Fatalf("XDSAPublicKeyFromCertDER() error = %v", err)
	}
	if !bytes.Equal(got.Bytes(), subject.PublicKey().Bytes()) {
		t.Error("certified key differs from the subject key")
	}
	if nb != 1700000000 || na != 1731536000 {
		t.Errorf("validity window = (%d, %d), want (1700000000, 1731536000)", nb, na)
	}
}

func TestCert_IssueValidate_XHPKE(t *testing.T) {
	ca := testXDSAKey(t)
	subject := testXHPKEKey(t)

	certPEM, err := subject.PublicKey().CertPEM(ca, CertParams{
		SubjectName: "bob-encryption",
		IssuerName:  "root-ca",
		NotBefore:   1700000000,
		NotAfter:    1731536000,
	})
	if err != nil {
		t.Fatalf("CertPEM() error = %v", err)
	}

	got, _, _, err := XHPKEPublicKeyFromCertPEM(certPEM, ca.PublicKey())
	if err != nil {
		t.Fatalf("XHPKEPublicKeyFromCertPEM() error = %v", err)
	}
	if got.Fingerprint() != subject.Fingerprint() {
		t.Error("certified key differs from the subject key")
	}
}

func TestCert_WrongIssuerRejected(t *testing.T) {
	ca := testXDSAKey(t)
	impostor := testXDSAKey(t)
	subject := testXDSAKey(t)

	certDER, err := subject.PublicKey().CertDER(ca, CertParams{
		SubjectName: "alice",
		IssuerName:  "root-ca",
		NotAfter:    1731536000,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := XDSAPublicKeyFromCertDER(certDER, impostor.PublicKey()); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("validation with wrong issuer error = %v, want ErrSignatureInvalid", err)
	}
}

func TestCert_TamperRejected(t *testing.T) {
	ca := testXDSAKey(t)
	subject := testXDSAKey(t)

	certDER, err := subject.PublicKey().CertDER(ca, CertParams{
		SubjectName: "alice",
		IssuerName:  "root-ca",
		NotAfter:    1731536000,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Corrupt a byte in the middle of the to-be-signed region and one near
	// the end, inside the signature.
	for _, pos := range []int{len(certDER) / 3, len(certDER) - 10} {
		tampered := append([]byte(nil), certDER...)
		tampered[pos] ^= 0x01
		if _, _, _, err := XDSAPublicKeyFromCertDER(tampered, ca.PublicKey()); err == nil {
			t.Errorf("validation of certificate with byte %d flipped succeeded", pos)
		}
	}
}

func TestCert_KeyAlgorithmConfusion(t *testing.T) {
	ca := testXDSAKey(t)
	subject := testXDSAKey(t)

	certDER, err := subject.PublicKey().CertDER(ca, CertParams{
		SubjectName: "alice",
		IssuerName:  "root-ca",
		NotAfter:    1731536000,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := XHPKEPublicKeyFromCertDER(certDER, ca.PublicKey()); !errors.Is(err, ErrParse) {
		t.Errorf("validating a signing cert as an encryption cert error = %v, want ErrParse", err)
	}
}

func TestCert_PathLenRequiresCA(t *testing.T) {
	ca := testXDSAKey(t)
	subject := testXDSAKey(t)

	pathLen := 0
	_, err := subject.PublicKey().CertDER(ca, CertParams{
		SubjectName: "alice",
		IssuerName:  "root-ca",
		NotAfter:    1731536000,
		PathLen:     &pathLen,
	})
	if !errors.Is(err, ErrInvalidConstraint) {
		t.Errorf("CertDER() with PathLen on non-CA error = %v, want ErrInvalidConstraint", err)
	}
}

func TestCert_SelfSignedChain(t *testing.T) {
	root := testXDSAKey(t)
	intermediate := testXDSAKey(t)
	leaf := testXHPKEKey(t)

	pathLen := 0
	rootCert, err := root.PublicKey().CertDER(root, CertParams{
		SubjectName: "root-ca",
		IssuerName:  "root-ca",
		NotAfter:    1893456000,
		IsCA:        true,
	})
	if err != nil {
		t.Fatal(err)
	}
	intCert, err := intermediate.PublicKey().CertDER(root, CertParams{
		SubjectName: "intermediate-ca",
		IssuerName:  "root-ca",
		NotAfter:    1893456000,
		IsCA:        true,
		PathLen:     &pathLen,
	})
	if err != nil {
		t.Fatal(err)
	}
	leafCert, err := leaf.PublicKey().CertDER(intermediate, CertParams{
		SubjectName: "bob-encryption",
		IssuerName:  "intermediate-ca",
		NotAfter:    1893456000,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Walk the chain one signer level at a time.
	rootKey, _, _, err := XDSAPublicKeyFromCertDER(rootCert, root.PublicKey())
	if err != nil {
		t.Fatalf("root cert validation error = %v", err)
	}
	intKey, _, _, err := XDSAPublicKeyFromCertDER(intCert, rootKey)
	if err != nil {
		t.Fatalf("intermediate cert validation error = %v", err)
	}
	leafKey, _, _, err := XHPKEPublicKeyFromCertDER(leafCert, intKey)
	if err != nil {
		t.Fatalf("leaf cert validation error = %v", err)
	}
	if leafKey.Fingerprint() != leaf.Fingerprint() {
		t.Error("chain walk produced the wrong leaf key")
	}
}

func TestInspectCertificate(t *testing.T) {
	ca := testXDSAKey(t)
	subject := testXDSAKey(t)

	pathLen := 2
	certDER, err := subject.PublicKey().CertDER(ca, CertParams{
		SubjectName: "intermediate-ca",
		IssuerName:  "root-ca",
		NotBefore:   1700000000,
		NotAfter:    1731536000,
		IsCA:        true,
		PathLen:     &pathLen,
	})
	if err != nil {
		t.Fatal(err)
	}

	info, err := InspectCertificate(certDER)
	if err != nil {
		t.Fatalf("InspectCertificate() error = %v", err)
	}
	if info.SubjectName != "intermediate-ca" || info.IssuerName != "root-ca" {
		t.Errorf("names = (%q, %q), want (intermediate-ca, root-ca)", info.SubjectName, info.IssuerName)
	}
	if info.NotBefore != 1700000000 || info.NotAfter != 1731536000 {
		t.Errorf("validity = (%d, %d), want (1700000000, 1731536000)", info.NotBefore, info.NotAfter)
	}
	if !info.IsCA {
		t.Error("IsCA = false, want true")
	}
	if info.PathLen == nil || *info.PathLen != 2 {
		t.Errorf("PathLen = %v, want 2", info.PathLen)
	}
	if info.SerialNumber.Sign() <= 0 {
		t.Error("serial number is not positive")
	}

	if _, err := InspectCertificate([]byte{0x30, 0x03, 0x02, 0x01, 0x01}); !errors.Is(err, ErrParse) {
		t.Errorf("InspectCertificate(garbage) error = %v, want ErrParse", err)
	}
}
