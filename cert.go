package pqseal

import (
	"encoding/asn1"
	"fmt"
	"math/big"

	"github.com/pqseal/pqseal-go/internal/der"
)

// CertParams describes a certificate to be issued. NotBefore and NotAfter
// are Unix timestamps in seconds.
type CertParams struct {
	SubjectName string
	IssuerName  string
	NotBefore   uint64
	NotAfter    uint64
	// IsCA marks the subject as a certificate authority.
	IsCA bool
	// PathLen limits how many intermediate CAs may follow the subject.
	// Setting it on a non-CA certificate fails with ErrInvalidConstraint.
	PathLen *int
}

// CertificateInfo is the unverified content of a certificate, for
// inspection before (or instead of) validating its signature.
type CertificateInfo struct {
	SerialNumber *big.Int
	SubjectName  string
	IssuerName   string
	NotBefore    uint64
	NotAfter     uint64
	IsCA         bool
	PathLen      *int
}

// InspectCertificate parses a DER certificate without verifying its
// signature. Like [Signer] and [Recipient], the result is untrusted.
func InspectCertificate(data []byte) (*CertificateInfo, error) {
	parsed, err := der.ParseCertificate(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &CertificateInfo{
		SerialNumber: parsed.SerialNumber,
		SubjectName:  parsed.SubjectName,
		IssuerName:   parsed.IssuerName,
		NotBefore:    parsed.NotBefore,
		NotAfter:     parsed.NotAfter,
		IsCA:         parsed.IsCA,
		PathLen:      parsed.PathLen,
	}, nil
}

// CertDER issues a DER-encoded X.509-compatible certificate binding this
// public key to params.SubjectName, signed by signer.
func (k *XDSAPublicKey) CertDER(signer *XDSASecretKey, params CertParams) ([]byte, error) {
	return issueCert(signer, params, der.OIDXDSA, k.Bytes(), k.Fingerprint())
}

// CertPEM issues a PEM-encoded certificate. See [XDSAPublicKey.CertDER].
func (k *XDSAPublicKey) CertPEM(signer *XDSASecretKey, params CertParams) (string, error) {
	d, err := k.CertDER(signer, params)
	if err != nil {
		return "", err
	}
	return der.EncodePEM(der.PEMCertificate, d), nil
}

// CertDER issues a DER-encoded X.509-compatible certificate binding this
// public key to params.SubjectName, signed by signer.
func (k *XHPKEPublicKey) CertDER(signer *XDSASecretKey, params CertParams) ([]byte, error) {
	return issueCert(signer, params, der.OIDXHPKE, k.Bytes(), k.Fingerprint())
}

// CertPEM issues a PEM-encoded certificate. See [XHPKEPublicKey.CertDER].
func (k *XHPKEPublicKey) CertPEM(signer *XDSASecretKey, params CertParams) (string, error) {
	d, err := k.CertDER(signer, params)
	if err != nil {
		return "", err
	}
	return der.EncodePEM(der.PEMCertificate, d), nil
}

// XDSAPublicKeyFromCertDER extracts an xDSA public key from a DER
// certificate after verifying the issuer's signature over it. It returns
// the key with the certificate's notBefore and notAfter timestamps.
//
// The current time is deliberately NOT checked against the validity
// window; that is the caller's responsibility. This is identity and
// authenticity validation only, not a chain-of-trust engine — validate one
// signer level at a time to walk a chain.
func XDSAPublicKeyFromCertDER(data []byte, issuer *XDSAPublicKey) (*XDSAPublicKey, uint64, uint64, error) {
	raw, notBefore, notAfter, err := validateCert(data, issuer, der.OIDXDSA)
	if err != nil {
		return nil, 0, 0, err
	}
	key, err := XDSAPublicKeyFromBytes(raw)
	if err != nil {
		return nil, 0, 0, err
	}
	return key, notBefore, notAfter, nil
}

// XDSAPublicKeyFromCertPEM is the PEM variant of [XDSAPublicKeyFromCertDER].
func XDSAPublicKeyFromCertPEM(s string, issuer *XDSAPublicKey) (*XDSAPublicKey, uint64, uint64, error) {
	data, err := der.DecodePEM(s, der.PEMCertificate)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return XDSAPublicKeyFromCertDER(data, issuer)
}

// XHPKEPublicKeyFromCertDER extracts an xHPKE public key from a DER
// certificate after verifying the issuer's signature over it. See
// [XDSAPublicKeyFromCertDER] for the trust model.
func XHPKEPublicKeyFromCertDER(data []byte, issuer *XDSAPublicKey) (*XHPKEPublicKey, uint64, uint64, error) {
	raw, notBefore, notAfter, err := validateCert(data, issuer, der.OIDXHPKE)
	if err != nil {
		return nil, 0, 0, err
	}
	key, err := XHPKEPublicKeyFromBytes(raw)
	if err != nil {
		return nil, 0, 0, err
	}
	return key, notBefore, notAfter, nil
}

// XHPKEPublicKeyFromCertPEM is the PEM variant of [XHPKEPublicKeyFromCertDER].
func XHPKEPublicKeyFromCertPEM(s string, issuer *XDSAPublicKey) (*XHPKEPublicKey, uint64, uint64, error) {
	data, err := der.DecodePEM(s, der.PEMCertificate)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return XHPKEPublicKeyFromCertDER(data, issuer)
}

func issueCert(signer *XDSASecretKey, params CertParams, keyAlg asn1.ObjectIdentifier, keyBytes []byte, subjectFP Fingerprint) ([]byte, error) {
	if params.PathLen != nil && !params.IsCA {
		return nil, ErrInvalidConstraint
	}

	// Serial derived from the subject key so re-issuing the same binding is
	// stable; X.509 serials are at most 20 octets.
	serial := new(big.Int).SetBytes(subjectFP[:20])

	tbs, err := der.MarshalTBS(der.CertInfo{
		SerialNumber:       serial,
		SubjectName:        params.SubjectName,
		IssuerName:         params.IssuerName,
		NotBefore:          params.NotBefore,
		NotAfter:           params.NotAfter,
		IsCA:               params.IsCA,
		PathLen:            params.PathLen,
		KeyAlgorithm:       keyAlg,
		KeyBytes:           keyBytes,
		SignatureAlgorithm: der.OIDXDSA,
	})
	if err != nil {
		return nil, fmt.Errorf("encode certificate: %w", err)
	}

	return der.MarshalCertificate(tbs, der.OIDXDSA, signer.Sign(tbs))
}

func validateCert(data []byte, issuer *XDSAPublicKey, wantKeyAlg asn1.ObjectIdentifier) ([]byte, uint64, uint64, error) {
	parsed, err := der.ParseCertificate(data)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if !parsed.SignatureAlgorithm.Equal(der.OIDXDSA) {
		return nil, 0, 0, fmt.Errorf("%w: unexpected signature algorithm %v", ErrParse, parsed.SignatureAlgorithm)
	}
	if !parsed.KeyAlgorithm.Equal(wantKeyAlg) {
		return nil, 0, 0, fmt.Errorf("%w: unexpected key algorithm %v", ErrParse, parsed.KeyAlgorithm)
	}
	if err := issuer.Verify(parsed.RawTBS, parsed.Signature); err != nil {
		return nil, 0, 0, err
	}
	return parsed.KeyBytes, parsed.NotBefore, parsed.NotAfter, nil
}
