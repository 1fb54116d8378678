package pqseal

import (
	"encoding/asn1"
	"fmt"

	"github.com/pqseal/pqseal-go/internal/der"
)

// parsePublicKeyDER unwraps a SubjectPublicKeyInfo and checks the algorithm.
func parsePublicKeyDER(data []byte, want asn1.ObjectIdentifier) ([]byte, error) {
	alg, raw, err := der.ParsePublicKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if !alg.Equal(want) {
		return nil, fmt.Errorf("%w: unexpected key algorithm %v", ErrParse, alg)
	}
	return raw, nil
}

// parsePrivateKeyDER unwraps a PKCS#8-shaped container and checks the
// algorithm.
func parsePrivateKeyDER(data []byte, want asn1.ObjectIdentifier) ([]byte, error) {
	alg, key, err := der.ParsePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if !alg.Equal(want) {
		return nil, fmt.Errorf("%w: unexpected key algorithm %v", ErrParse, alg)
	}
	return key, nil
}
