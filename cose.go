package pqseal

import (
	"bytes"
	"fmt"

	"github.com/pqseal/pqseal-go/cbor"
)

// Protected header labels, shared by both envelope kinds. Values follow the
// COSE conventions for alg (1) and kid (4); iat carries the CWT issued-at
// label (6); domain (7) is specific to this protocol.
const (
	labelAlg    = 1
	labelKID    = 4
	labelIAT    = 6
	labelDomain = 7
)

// Algorithm names carried in the protected headers.
const (
	algXDSA  = "xDSA"
	algXHPKE = "xHPKE"
)

const (
	contextSignature1 = "Signature1"
	contextEncrypt0   = "Encrypt0"
)

// Drift is the replay-check policy for Verify and Open. The zero value is
// not valid; construct one with [MaxDrift] or [NoDriftCheck] so that
// disabling replay protection is a visible, deliberate choice at the call
// site.
type Drift struct {
	checked bool
	max     uint64
}

// MaxDrift allows an envelope timestamp to differ from the local clock by
// at most secs seconds in either direction.
func MaxDrift(secs uint64) Drift {
	return Drift{checked: true, max: secs}
}

// NoDriftCheck disables the timestamp check entirely. Without it, a
// captured envelope stays verifiable forever; prefer [MaxDrift] unless
// envelopes are long-lived by design.
func NoDriftCheck() Drift {
	return Drift{}
}

// Sign creates a signature envelope with an embedded payload.
//
// The protected header binds the signer's fingerprint, the current time,
// and the domain; the signature covers the header, the payload, and
// authData. Verifiers must present the same authData and domain.
func Sign(payload, authData cbor.Value, signer *XDSASecretKey, domain []byte) []byte {
	return signEnvelope(cbor.Encode(payload), authData, signer, domain)
}

// SignDetached creates a signature envelope without an embedded payload.
// The signed message travels separately: the verifier supplies it again as
// authData to [VerifyDetached].
func SignDetached(authData cbor.Value, signer *XDSASecretKey, domain []byte) []byte {
	return signEnvelope(nil, authData, signer, domain)
}

func signEnvelope(payloadEnc []byte, authData cbor.Value, signer *XDSASecretKey, domain []byte) []byte {
	fp := signer.Fingerprint()
	protected := cbor.Encode(cbor.Map{
		{Key: labelAlg, Value: cbor.Text(algXDSA)},
		{Key: labelKID, Value: cbor.Bytes(fp.Bytes())},
		{Key: labelIAT, Value: cbor.Int(timeNow().Unix())},
		{Key: labelDomain, Value: cbor.Bytes(domain)},
	})

	signed := sigStructure(protected, cbor.Encode(authData), payloadEnc)
	signature := signer.Sign(signed)

	var payloadField cbor.Value = cbor.Null{}
	if payloadEnc != nil {
		payloadField = cbor.Bytes(payloadEnc)
	}
	return cbor.Encode(cbor.Array{
		cbor.Bytes(protected),
		payloadField,
		cbor.Bytes(signature),
	})
}

// Verify checks a signature envelope with an embedded payload and returns
// the decoded payload. It fails with ErrDomainMismatch if the envelope was
// bound to a different domain, ErrReplayRejected if its timestamp falls
// outside the drift policy, and ErrSignatureInvalid on any cryptographic
// mismatch.
func Verify(sign1 []byte, authData cbor.Value, verifier *XDSAPublicKey, domain []byte, drift Drift) (cbor.Value, error) {
	msg, err := parseSign1(sign1)
	if err != nil {
		return nil, err
	}
	if !msg.hasPayload {
		return nil, fmt.Errorf("%w: envelope has no embedded payload", cbor.ErrMalformed)
	}
	if err := verifyEnvelope(msg, authData, verifier, domain, drift, msg.payload); err != nil {
		return nil, err
	}
	payload, err := cbor.Decode(msg.payload)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// VerifyDetached checks a detached signature envelope. The signed message
// must be supplied as authData, exactly as it was passed to [SignDetached].
func VerifyDetached(sign1 []byte, authData cbor.Value, verifier *XDSAPublicKey, domain []byte, drift Drift) error {
	msg, err := parseSign1(sign1)
	if err != nil {
		return err
	}
	if msg.hasPayload {
		return fmt.Errorf("%w: envelope has an embedded payload", cbor.ErrMalformed)
	}
	return verifyEnvelope(msg, authData, verifier, domain, drift, nil)
}

func verifyEnvelope(msg *sign1Message, authData cbor.Value, verifier *XDSAPublicKey, domain []byte, drift Drift, payloadEnc []byte) error {
	if !bytes.Equal(msg.domain, domain) {
		return ErrDomainMismatch
	}
	if drift.checked {
		now := timeNow().Unix()
		diff := now - msg.iat
		if diff < 0 {
			diff = -diff
		}
		if uint64(diff) > drift.max {
			return ErrReplayRejected
		}
	}
	signed := sigStructure(msg.protected, cbor.Encode(authData), payloadEnc)
	return verifier.Verify(signed, msg.signature)
}

// Signer returns the signer fingerprint from a signature envelope's header
// without verifying anything. The result is untrusted; it exists so a
// caller can look up the signer's public key before calling Verify.
func Signer(sign1 []byte) (Fingerprint, error) {
	msg, err := parseSign1(sign1)
	if err != nil {
		return Fingerprint{}, err
	}
	return msg.kid, nil
}

// Peek returns the embedded payload without verifying the signature. The
// result is untrusted and must not be acted on before Verify succeeds.
func Peek(sign1 []byte) (cbor.Value, error) {
	msg, err := parseSign1(sign1)
	if err != nil {
		return nil, err
	}
	if !msg.hasPayload {
		return nil, fmt.Errorf("%w: envelope has no embedded payload", cbor.ErrMalformed)
	}
	return cbor.Decode(msg.payload)
}

// Encrypt encrypts an already-signed envelope to a recipient. For most use
// cases prefer [Seal], which signs and encrypts in one step; Encrypt exists
// to re-encrypt a decrypted envelope to a different recipient without the
// signer's key.
func Encrypt(sign1 []byte, authData cbor.Value, recipient *XHPKEPublicKey, domain []byte) ([]byte, error) {
	fp := recipient.Fingerprint()
	protected := cbor.Encode(cbor.Map{
		{Key: labelAlg, Value: cbor.Text(algXHPKE)},
		{Key: labelKID, Value: cbor.Bytes(fp.Bytes())},
		{Key: labelDomain, Value: cbor.Bytes(domain)},
	})

	aad := encStructure(protected, cbor.Encode(authData))
	sessionKey, ciphertext, err := recipient.Seal(sign1, aad, domain)
	if err != nil {
		return nil, err
	}
	return cbor.Encode(cbor.Array{
		cbor.Bytes(protected),
		cbor.Bytes(sessionKey),
		cbor.Bytes(ciphertext),
	}), nil
}

// Decrypt decrypts an encryption envelope and returns the inner signature
// envelope WITHOUT verifying it. Use [Signer] on the result to identify the
// sender, then [Verify] to establish trust.
func Decrypt(enc []byte, authData cbor.Value, recipient *XHPKESecretKey, domain []byte) ([]byte, error) {
	msg, err := parseEncrypt0(enc)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(msg.domain, domain) {
		return nil, ErrDomainMismatch
	}
	aad := encStructure(msg.protected, cbor.Encode(authData))
	return recipient.Open(msg.sessionKey, msg.ciphertext, aad, domain)
}

// Recipient returns the recipient fingerprint from an encryption
// envelope's header without decrypting. The result is untrusted; it exists
// for routing a message to the right secret key.
func Recipient(enc []byte) (Fingerprint, error) {
	msg, err := parseEncrypt0(enc)
	if err != nil {
		return Fingerprint{}, err
	}
	return msg.kid, nil
}

// Seal signs payload and encrypts the resulting envelope to recipient
// (sign-then-encrypt). The same authData and domain are bound at both
// layers, so neither can be swapped without both keys. The signature is
// only visible after decryption, which prevents signature stripping on the
// wire while still letting the recipient inspect the signer's fingerprint
// before full verification.
func Seal(payload, authData cbor.Value, signer *XDSASecretKey, recipient *XHPKEPublicKey, domain []byte) ([]byte, error) {
	return Encrypt(Sign(payload, authData, signer, domain), authData, recipient, domain)
}

// Open decrypts a sealed envelope and verifies the inner signature,
// returning the payload. A failure at either stage propagates unchanged;
// there is no partial success.
func Open(sealed []byte, authData cbor.Value, recipient *XHPKESecretKey, sender *XDSAPublicKey, domain []byte, drift Drift) (cbor.Value, error) {
	sign1, err := Decrypt(sealed, authData, recipient, domain)
	if err != nil {
		return nil, err
	}
	return Verify(sign1, authData, sender, domain, drift)
}

// sign1Message is a parsed, unverified signature envelope.
type sign1Message struct {
	protected  []byte
	kid        Fingerprint
	iat        int64
	domain     []byte
	payload    []byte
	hasPayload bool
	signature  []byte
}

// encrypt0Message is a parsed, undecrypted encryption envelope.
type encrypt0Message struct {
	protected  []byte
	kid        Fingerprint
	domain     []byte
	sessionKey []byte
	ciphertext []byte
}

func parseSign1(data []byte) (*sign1Message, error) {
	arr, err := decodeEnvelope(data, 3)
	if err != nil {
		return nil, err
	}
	protected, ok := arr[0].(cbor.Bytes)
	if !ok {
		return nil, fmt.Errorf("%w: protected header is not a byte string", cbor.ErrMalformed)
	}
	signature, ok := arr[2].(cbor.Bytes)
	if !ok {
		return nil, fmt.Errorf("%w: signature is not a byte string", cbor.ErrMalformed)
	}

	msg := &sign1Message{protected: protected, signature: signature}
	switch p := arr[1].(type) {
	case cbor.Bytes:
		msg.payload = p
		msg.hasPayload = true
	case cbor.Null:
	default:
		return nil, fmt.Errorf("%w: payload is neither a byte string nor null", cbor.ErrMalformed)
	}

	header, err := parseHeader(protected, algXDSA, true)
	if err != nil {
		return nil, err
	}
	msg.kid = header.kid
	msg.iat = header.iat
	msg.domain = header.domain
	return msg, nil
}

func parseEncrypt0(data []byte) (*encrypt0Message, error) {
	arr, err := decodeEnvelope(data, 3)
	if err != nil {
		return nil, err
	}
	protected, ok := arr[0].(cbor.Bytes)
	if !ok {
		return nil, fmt.Errorf("%w: protected header is not a byte string", cbor.ErrMalformed)
	}
	sessionKey, ok := arr[1].(cbor.Bytes)
	if !ok {
		return nil, fmt.Errorf("%w: session key is not a byte string", cbor.ErrMalformed)
	}
	ciphertext, ok := arr[2].(cbor.Bytes)
	if !ok {
		return nil, fmt.Errorf("%w: ciphertext is not a byte string", cbor.ErrMalformed)
	}

	header, err := parseHeader(protected, algXHPKE, false)
	if err != nil {
		return nil, err
	}
	return &encrypt0Message{
		protected:  protected,
		kid:        header.kid,
		domain:     header.domain,
		sessionKey: sessionKey,
		ciphertext: ciphertext,
	}, nil
}

func decodeEnvelope(data []byte, arity int) (cbor.Array, error) {
	v, err := cbor.Decode(data)
	if err != nil {
		return nil, err
	}
	arr, ok := v.(cbor.Array)
	if !ok {
		return nil, fmt.Errorf("%w: envelope is not an array", cbor.ErrMalformed)
	}
	if len(arr) != arity {
		return nil, fmt.Errorf("%w: envelope has %d elements, want %d", cbor.ErrMalformed, len(arr), arity)
	}
	return arr, nil
}

type protectedHeader struct {
	kid    Fingerprint
	iat    int64
	domain []byte
}

// parseHeader decodes a protected header map and checks it has exactly the
// labels the envelope kind requires.
func parseHeader(protected []byte, wantAlg string, wantIAT bool) (*protectedHeader, error) {
	v, err := cbor.Decode(protected)
	if err != nil {
		return nil, err
	}
	m, ok := v.(cbor.Map)
	if !ok {
		return nil, fmt.Errorf("%w: protected header is not a map", cbor.ErrMalformed)
	}

	wantLen := 3
	if wantIAT {
		wantLen = 4
	}
	if len(m) != wantLen {
		return nil, fmt.Errorf("%w: protected header has %d entries, want %d", cbor.ErrMalformed, len(m), wantLen)
	}

	var h protectedHeader
	var sawAlg, sawKID, sawIAT, sawDomain bool
	for _, p := range m {
		switch p.Key {
		case labelAlg:
			alg, ok := p.Value.(cbor.Text)
			if !ok || string(alg) != wantAlg {
				return nil, fmt.Errorf("%w: unexpected algorithm", cbor.ErrMalformed)
			}
			sawAlg = true
		case labelKID:
			kid, ok := p.Value.(cbor.Bytes)
			if !ok {
				return nil, fmt.Errorf("%w: kid is not a byte string", cbor.ErrMalformed)
			}
			fp, err := FingerprintFromBytes(kid)
			if err != nil {
				return nil, fmt.Errorf("%w: kid has wrong length", cbor.ErrMalformed)
			}
			h.kid = fp
			sawKID = true
		case labelIAT:
			if !wantIAT {
				return nil, fmt.Errorf("%w: unexpected timestamp label", cbor.ErrMalformed)
			}
			iat, ok := p.Value.(cbor.Int)
			if !ok || iat < 0 {
				return nil, fmt.Errorf("%w: timestamp is not a non-negative integer", cbor.ErrMalformed)
			}
			h.iat = int64(iat)
			sawIAT = true
		case labelDomain:
			d, ok := p.Value.(cbor.Bytes)
			if !ok {
				return nil, fmt.Errorf("%w: domain is not a byte string", cbor.ErrMalformed)
			}
			h.domain = d
			sawDomain = true
		default:
			return nil, fmt.Errorf("%w: unexpected header label %d", cbor.ErrMalformed, p.Key)
		}
	}
	if !sawAlg || !sawKID || !sawDomain || (wantIAT && !sawIAT) {
		return nil, fmt.Errorf("%w: protected header is missing a required label", cbor.ErrMalformed)
	}
	return &h, nil
}

// sigStructure builds the byte sequence covered by an envelope signature.
// payloadEnc is nil for detached envelopes.
func sigStructure(protected, aadEnc, payloadEnc []byte) []byte {
	var payloadField cbor.Value = cbor.Null{}
	if payloadEnc != nil {
		payloadField = cbor.Bytes(payloadEnc)
	}
	return cbor.Encode(cbor.Array{
		cbor.Text(contextSignature1),
		cbor.Bytes(protected),
		cbor.Bytes(aadEnc),
		payloadField,
	})
}

// encStructure builds the AEAD associated data for an encryption envelope.
func encStructure(protected, aadEnc []byte) []byte {
	return cbor.Encode(cbor.Array{
		cbor.Text(contextEncrypt0),
		cbor.Bytes(protected),
		cbor.Bytes(aadEnc),
	})
}
