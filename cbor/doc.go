// Package cbor implements the restricted, deterministic CBOR subset used by
// the pqseal envelope formats.
//
// The subset covers booleans, null, integers, UTF-8 text, byte strings,
// arrays, and integer-keyed maps. Optional values are expressed as
// value-or-null. Every logical value has exactly one valid byte
// representation:
//
//   - integer values and length headers use the shortest possible form
//   - all lengths are definite
//   - map keys are unsigned integers in strictly increasing order
//   - floats, tags, and simple values other than false/true/null are rejected
//
// [Decode] enforces all of the above and rejects trailing bytes, so
// decode(encode(v)) == v holds for every supported value and no two distinct
// values share an encoding. This injectivity is what makes signatures over
// encoded structures unambiguous: a verifier can rebuild the exact signed
// byte sequence from the decoded fields.
package cbor
