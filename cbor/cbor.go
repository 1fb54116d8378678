package cbor

import "sort"

// Value is a structured value in the restricted CBOR subset. The concrete
// types are Bool, Null, Int, Text, Bytes, Array, and Map; no other shapes
// are accepted by Encode or produced by Decode.
type Value interface {
	isValue()
}

// Bool is a CBOR boolean.
type Bool bool

// Null is the CBOR null value. It also stands in for an absent optional
// value: an option is encoded as either its inner value or Null.
type Null struct{}

// Int is a CBOR integer (major types 0 and 1).
type Int int64

// Text is a CBOR UTF-8 text string.
type Text string

// Bytes is a CBOR byte string.
type Bytes []byte

// Array is a CBOR array of values.
type Array []Value

// Pair is a single entry of a Map.
type Pair struct {
	Key   uint64
	Value Value
}

// Map is a CBOR map with unsigned integer keys. Encode emits entries in
// strictly increasing key order regardless of the order pairs were added;
// Decode rejects maps whose keys are not strictly increasing.
type Map []Pair

func (Bool) isValue()  {}
func (Null) isValue()  {}
func (Int) isValue()   {}
func (Text) isValue()  {}
func (Bytes) isValue() {}
func (Array) isValue() {}
func (Map) isValue()   {}

const (
	majorUint  = 0
	majorNint  = 1
	majorBytes = 2
	majorText  = 3
	majorArray = 4
	majorMap   = 5
	majorOther = 7
)

const (
	simpleFalse = 20
	simpleTrue  = 21
	simpleNull  = 22
)

// Encode serializes v into its unique canonical form. It is total over the
// supported value set and never fails. Map entries are sorted by key before
// encoding; if a Map carries duplicate keys, the entry appearing last wins.
func Encode(v Value) []byte {
	return appendValue(nil, v)
}

func appendValue(buf []byte, v Value) []byte {
	switch t := v.(type) {
	case Bool:
		if t {
			return append(buf, majorOther<<5|simpleTrue)
		}
		return append(buf, majorOther<<5|simpleFalse)
	case Null:
		return append(buf, majorOther<<5|simpleNull)
	case Int:
		if t >= 0 {
			return appendHead(buf, majorUint, uint64(t))
		}
		return appendHead(buf, majorNint, uint64(-(t + 1)))
	case Text:
		buf = appendHead(buf, majorText, uint64(len(t)))
		return append(buf, t...)
	case Bytes:
		buf = appendHead(buf, majorBytes, uint64(len(t)))
		return append(buf, t...)
	case Array:
		buf = appendHead(buf, majorArray, uint64(len(t)))
		for _, e := range t {
			buf = appendValue(buf, e)
		}
		return buf
	case Map:
		pairs := canonicalPairs(t)
		buf = appendHead(buf, majorMap, uint64(len(pairs)))
		for _, p := range pairs {
			buf = appendHead(buf, majorUint, p.Key)
			buf = appendValue(buf, p.Value)
		}
		return buf
	}
	// The Value interface is sealed; no other types exist.
	panic("cbor: unsupported value type")
}

// canonicalPairs returns the entries of m sorted by key with duplicates
// collapsed (last entry wins).
func canonicalPairs(m Map) []Pair {
	pairs := make([]Pair, len(m))
	copy(pairs, m)
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	out := pairs[:0]
	for i, p := range pairs {
		if i+1 < len(pairs) && pairs[i+1].Key == p.Key {
			continue
		}
		out = append(out, p)
	}
	return out
}

// appendHead writes a major type and its argument in shortest form.
func appendHead(buf []byte, major byte, n uint64) []byte {
	switch {
	case n < 24:
		return append(buf, major<<5|byte(n))
	case n <= 0xff:
		return append(buf, major<<5|24, byte(n))
	case n <= 0xffff:
		return append(buf, major<<5|25, byte(n>>8), byte(n))
	case n <= 0xffffffff:
		return append(buf, major<<5|26, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	default:
		return append(buf, major<<5|27,
			byte(n>>56), byte(n>>48), byte(n>>40), byte(n>>32),
			byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	}
}
