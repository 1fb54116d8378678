// Package pqseal signs and encrypts application payloads using
// post-quantum-resistant composite primitives, binds every message to an
// application-chosen domain, and embeds timestamps for replay detection.
//
// # Algorithm Suite
//
//   - xDSA: composite ML-DSA-65 (NIST FIPS 204) + Ed25519 signatures.
//     A signature is valid only if both component signatures verify.
//
//   - xHPKE: X-Wing hybrid KEM (X25519 + ML-KEM-768, NIST FIPS 203) with
//     ChaCha20-Poly1305 authenticated encryption and HKDF-SHA-512 key
//     derivation.
//
//   - RSA-2048 with SHA-256 (PKCS#1 v1.5): legacy signatures for interop
//     with systems that cannot verify xDSA. Not post-quantum secure.
//
// # Envelopes
//
// [Seal] signs a payload and encrypts the signature envelope to a
// recipient (sign-then-encrypt); [Open] reverses both layers. The
// envelope wire format is the restricted deterministic CBOR subset from
// the cbor subpackage, shaped like COSE_Sign1 and COSE_Encrypt0.
//
// The domain argument namespaces every envelope: it is signed, mixed into
// encryption key derivation, and checked on the receive path, so an
// envelope produced for one application context cannot be replayed into
// another. Timestamps are checked against a caller-chosen drift window;
// passing [NoDriftCheck] disables replay detection and should be a
// deliberate choice.
//
// # Two-Phase Reception
//
// [Recipient], [Signer], and [Peek] read envelope headers without
// decrypting or verifying. They exist so a receiver can route a message
// to the right secret key and look up the sender's public key before the
// authoritative [Verify]; nothing they return is trustworthy until
// verification succeeds.
//
// # Keys and Certificates
//
// Each key family offers generation, deterministic derivation from a
// fixed-length seed, raw/DER/PEM encodings, and a SHA-256 fingerprint of
// the raw public key that envelope headers use as a key ID.
// X.509-compatible certificates bind a public key to a subject name for a
// validity window, signed by an xDSA issuer key. Certificate validation
// checks authenticity only; checking the validity window against the
// current time is the caller's job.
//
// Basic usage:
//
//	signer, _ := pqseal.GenerateXDSAKey()
//	recipient, _ := pqseal.GenerateXHPKEKey()
//	domain := []byte("example.com/orders/v1")
//
//	sealed, err := pqseal.Seal(cbor.Text("hello"), cbor.Null{}, signer, recipient.PublicKey(), domain)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	payload, err := pqseal.Open(sealed, cbor.Null{}, recipient, signer.PublicKey(), domain, pqseal.MaxDrift(60))
//	if err != nil {
//	    log.Fatal(err)
//	}
package pqseal
