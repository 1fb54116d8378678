package der

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"
	"math/big"
	"time"
)

var (
	oidCommonName       = asn1.ObjectIdentifier{2, 5, 4, 3}
	oidBasicConstraints = asn1.ObjectIdentifier{2, 5, 29, 19}
)

// CertInfo carries everything that goes into an issued certificate.
type CertInfo struct {
	SerialNumber *big.Int
	SubjectName  string
	IssuerName   string
	// NotBefore and NotAfter are Unix timestamps in seconds.
	NotBefore uint64
	NotAfter  uint64
	IsCA      bool
	// PathLen is the optional basic-constraints path length. Callers must
	// only set it together with IsCA.
	PathLen *int
	// KeyAlgorithm and KeyBytes describe the certified public key.
	KeyAlgorithm asn1.ObjectIdentifier
	KeyBytes     []byte
	// SignatureAlgorithm is the algorithm the issuer signs with.
	SignatureAlgorithm asn1.ObjectIdentifier
}

// ParsedCertificate is the decoded form of a certificate. RawTBS holds the
// exact DER bytes covered by the signature.
type ParsedCertificate struct {
	RawTBS             []byte
	SerialNumber       *big.Int
	SubjectName        string
	IssuerName         string
	NotBefore          uint64
	NotAfter           uint64
	IsCA               bool
	PathLen            *int
	KeyAlgorithm       asn1.ObjectIdentifier
	KeyBytes           []byte
	SignatureAlgorithm asn1.ObjectIdentifier
	Signature          []byte
}

type validity struct {
	NotBefore time.Time
	NotAfter  time.Time
}

type tbsCertificate struct {
	Raw                asn1.RawContent
	Version            int `asn1:"optional,explicit,default:0,tag:0"`
	SerialNumber       *big.Int
	SignatureAlgorithm pkix.AlgorithmIdentifier
	Issuer             asn1.RawValue
	Validity           validity
	Subject            asn1.RawValue
	PublicKey          publicKeyInfo
	Extensions         []pkix.Extension `asn1:"optional,explicit,tag:3"`
}

type certificate struct {
	TBSCertificate     asn1.RawValue
	SignatureAlgorithm pkix.AlgorithmIdentifier
	SignatureValue     asn1.BitString
}

type basicConstraints struct {
	IsCA       bool `asn1:"optional"`
	MaxPathLen int  `asn1:"optional,default:-1"`
}

// MarshalTBS builds the DER TBSCertificate for info. The result is what the
// issuer signs.
func MarshalTBS(info CertInfo) ([]byte, error) {
	issuer, err := marshalName(info.IssuerName)
	if err != nil {
		return nil, err
	}
	subject, err := marshalName(info.SubjectName)
	if err != nil {
		return nil, err
	}

	maxPathLen := -1
	if info.PathLen != nil {
		maxPathLen = *info.PathLen
	}
	bcValue, err := asn1.Marshal(basicConstraints{IsCA: info.IsCA, MaxPathLen: maxPathLen})
	if err != nil {
		return nil, err
	}

	tbs := tbsCertificate{
		Version:            2, // X.509 v3
		SerialNumber:       info.SerialNumber,
		SignatureAlgorithm: pkix.AlgorithmIdentifier{Algorithm: info.SignatureAlgorithm},
		Issuer:             issuer,
		Validity: validity{
			NotBefore: time.Unix(int64(info.NotBefore), 0).UTC(),
			NotAfter:  time.Unix(int64(info.NotAfter), 0).UTC(),
		},
		Subject: subject,
		PublicKey: publicKeyInfo{
			Algorithm: pkix.AlgorithmIdentifier{Algorithm: info.KeyAlgorithm},
			PublicKey: asn1.BitString{Bytes: info.KeyBytes, BitLength: len(info.KeyBytes) * 8},
		},
		Extensions: []pkix.Extension{{
			Id:       oidBasicConstraints,
			Critical: true,
			Value:    bcValue,
		}},
	}
	return asn1.Marshal(tbs)
}

// MarshalCertificate assembles the outer certificate around already-signed
// TBS bytes.
func MarshalCertificate(tbs []byte, sigAlg asn1.ObjectIdentifier, signature []byte) ([]byte, error) {
	return asn1.Marshal(certificate{
		TBSCertificate:     asn1.RawValue{FullBytes: tbs},
		SignatureAlgorithm: pkix.AlgorithmIdentifier{Algorithm: sigAlg},
		SignatureValue:     asn1.BitString{Bytes: signature, BitLength: len(signature) * 8},
	})
}

// ParseCertificate decodes a certificate without verifying its signature.
func ParseCertificate(data []byte) (*ParsedCertificate, error) {
	var cert certificate
	rest, err := asn1.Unmarshal(data, &cert)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errors.New("trailing data after certificate")
	}

	var tbs tbsCertificate
	rest, err = asn1.Unmarshal(cert.TBSCertificate.FullBytes, &tbs)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errors.New("trailing data after TBSCertificate")
	}
	if !tbs.SignatureAlgorithm.Algorithm.Equal(cert.SignatureAlgorithm.Algorithm) {
		return nil, errors.New("inner and outer signature algorithms differ")
	}
	if cert.SignatureValue.BitLength%8 != 0 {
		return nil, errors.New("signature is not an octet string")
	}
	if tbs.PublicKey.PublicKey.BitLength%8 != 0 {
		return nil, errors.New("public key is not an octet string")
	}

	subject, err := parseName(tbs.Subject)
	if err != nil {
		return nil, fmt.Errorf("subject: %w", err)
	}
	issuer, err := parseName(tbs.Issuer)
	if err != nil {
		return nil, fmt.Errorf("issuer: %w", err)
	}

	parsed := &ParsedCertificate{
		RawTBS:             tbs.Raw,
		SerialNumber:       tbs.SerialNumber,
		SubjectName:        subject,
		IssuerName:         issuer,
		NotBefore:          uint64(tbs.Validity.NotBefore.Unix()),
		NotAfter:           uint64(tbs.Validity.NotAfter.Unix()),
		KeyAlgorithm:       tbs.PublicKey.Algorithm.Algorithm,
		KeyBytes:           tbs.PublicKey.PublicKey.RightAlign(),
		SignatureAlgorithm: cert.SignatureAlgorithm.Algorithm,
		Signature:          cert.SignatureValue.RightAlign(),
	}

	for _, ext := range tbs.Extensions {
		if !ext.Id.Equal(oidBasicConstraints) {
			continue
		}
		var bc basicConstraints
		bc.MaxPathLen = -1
		if rest, err := asn1.Unmarshal(ext.Value, &bc); err != nil {
			return nil, fmt.Errorf("basic constraints: %w", err)
		} else if len(rest) != 0 {
			return nil, errors.New("trailing data after basic constraints")
		}
		parsed.IsCA = bc.IsCA
		if bc.MaxPathLen >= 0 {
			pathLen := bc.MaxPathLen
			parsed.PathLen = &pathLen
		}
	}

	return parsed, nil
}

// marshalName encodes a common-name-only distinguished name.
func marshalName(cn string) (asn1.RawValue, error) {
	rdn := pkix.RDNSequence{
		pkix.RelativeDistinguishedNameSET{
			pkix.AttributeTypeAndValue{Type: oidCommonName, Value: cn},
		},
	}
	b, err := asn1.Marshal(rdn)
	if err != nil {
		return asn1.RawValue{}, err
	}
	return asn1.RawValue{FullBytes: b}, nil
}

func parseName(raw asn1.RawValue) (string, error) {
	var rdn pkix.RDNSequence
	rest, err := asn1.Unmarshal(raw.FullBytes, &rdn)
	if err != nil {
		return "", err
	}
	if len(rest) != 0 {
		return "", errors.New("trailing data after name")
	}
	var name pkix.Name
	name.FillFromRDNSequence(&rdn)
	return name.CommonName, nil
}
