// Package der implements the ASN.1 DER and PEM encodings shared by the
// pqseal key families: SubjectPublicKeyInfo and PKCS#8-shaped private key
// containers with project-assigned algorithm identifiers, and the
// X.509-compatible certificate structure used to bind public keys to names.
//
// The package only handles structure. Signing and verifying certificate
// bytes is the caller's job; ParseCertificate hands back the raw
// TBSCertificate bytes so the caller can recompute exactly what was signed.
package der
