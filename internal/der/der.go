package der

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"errors"
	"fmt"
)

// Algorithm identifiers under the project's private enterprise arc. The
// composite algorithms have no standardized OIDs yet, so certificates and
// key files produced here are X.509-shaped but only interoperable with
// tooling that knows this arc.
var (
	// OIDXDSA identifies the composite ML-DSA-65 + Ed25519 signature algorithm.
	OIDXDSA = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 61481, 1, 1}

	// OIDXHPKE identifies the X-Wing (X25519 + ML-KEM-768) KEM algorithm.
	OIDXHPKE = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 61481, 1, 2}
)

// PEM block types used for the pqseal key files.
const (
	PEMPublicKey   = "PUBLIC KEY"
	PEMPrivateKey  = "PRIVATE KEY"
	PEMCertificate = "CERTIFICATE"
)

type publicKeyInfo struct {
	Algorithm pkix.AlgorithmIdentifier
	PublicKey asn1.BitString
}

// PKCS#8 shape: version, algorithm, key bytes in an OCTET STRING.
type privateKeyInfo struct {
	Version    int
	Algorithm  pkix.AlgorithmIdentifier
	PrivateKey []byte
}

// MarshalPublicKey encodes raw key bytes as a SubjectPublicKeyInfo.
func MarshalPublicKey(oid asn1.ObjectIdentifier, raw []byte) ([]byte, error) {
	return asn1.Marshal(publicKeyInfo{
		Algorithm: pkix.AlgorithmIdentifier{Algorithm: oid},
		PublicKey: asn1.BitString{Bytes: raw, BitLength: len(raw) * 8},
	})
}

// ParsePublicKey decodes a SubjectPublicKeyInfo, returning the algorithm
// identifier and the raw key bytes.
func ParsePublicKey(data []byte) (asn1.ObjectIdentifier, []byte, error) {
	var info publicKeyInfo
	rest, err := asn1.Unmarshal(data, &info)
	if err != nil {
		return nil, nil, err
	}
	if len(rest) != 0 {
		return nil, nil, errors.New("trailing data after SubjectPublicKeyInfo")
	}
	if info.PublicKey.BitLength%8 != 0 {
		return nil, nil, errors.New("public key is not an octet string")
	}
	return info.Algorithm.Algorithm, info.PublicKey.RightAlign(), nil
}

// MarshalPrivateKey encodes raw private key bytes in a PKCS#8-shaped
// container.
func MarshalPrivateKey(oid asn1.ObjectIdentifier, key []byte) ([]byte, error) {
	return asn1.Marshal(privateKeyInfo{
		Algorithm:  pkix.AlgorithmIdentifier{Algorithm: oid},
		PrivateKey: key,
	})
}

// ParsePrivateKey decodes a PKCS#8-shaped private key container.
func ParsePrivateKey(data []byte) (asn1.ObjectIdentifier, []byte, error) {
	var info privateKeyInfo
	rest, err := asn1.Unmarshal(data, &info)
	if err != nil {
		return nil, nil, err
	}
	if len(rest) != 0 {
		return nil, nil, errors.New("trailing data after private key")
	}
	if info.Version != 0 {
		return nil, nil, fmt.Errorf("unsupported private key version %d", info.Version)
	}
	return info.Algorithm.Algorithm, info.PrivateKey, nil
}

// EncodePEM wraps DER bytes in a single PEM block.
func EncodePEM(blockType string, data []byte) string {
	return string(pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: data}))
}

// DecodePEM extracts the DER bytes from the first PEM block, which must
// have the given type.
func DecodePEM(s, blockType string) ([]byte, error) {
	block, _ := pem.Decode([]byte(s))
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	if block.Type != blockType {
		return nil, fmt.Errorf("unexpected PEM block type %q, want %q", block.Type, blockType)
	}
	return block.Bytes, nil
}
