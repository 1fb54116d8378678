package cbor

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

// ErrMalformed is returned when bytes are not a valid canonical encoding.
// All structural, ordering, and UTF-8 violations wrap this sentinel so that
// callers can treat them as a single untrusted-input signal.
var ErrMalformed = errors.New("malformed canonical encoding")

// maxNesting bounds recursion while decoding untrusted input.
const maxNesting = 64

// Decode parses a single canonical value from data. Any deviation from the
// canonical form, and any trailing bytes after the top-level value, fail
// with an error wrapping [ErrMalformed].
func Decode(data []byte) (Value, error) {
	d := decoder{buf: data}
	v, err := d.value(0)
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.buf) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(d.buf)-d.pos)
	}
	return v, nil
}

// Verify checks that data is a single well-formed canonical value without
// retaining the decoded result.
func Verify(data []byte) error {
	_, err := Decode(data)
	return err
}

type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) value(depth int) (Value, error) {
	if depth > maxNesting {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrMalformed, maxNesting)
	}
	major, arg, err := d.head()
	if err != nil {
		return nil, err
	}
	switch major {
	case majorUint:
		if arg > math.MaxInt64 {
			return nil, fmt.Errorf("%w: integer out of range", ErrMalformed)
		}
		return Int(arg), nil
	case majorNint:
		if arg > math.MaxInt64 {
			return nil, fmt.Errorf("%w: integer out of range", ErrMalformed)
		}
		return Int(-1 - int64(arg)), nil
	case majorBytes:
		b, err := d.take(arg)
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(b))
		copy(out, b)
		return Bytes(out), nil
	case majorText:
		b, err := d.take(arg)
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(b) {
			return nil, fmt.Errorf("%w: text is not valid UTF-8", ErrMalformed)
		}
		return Text(b), nil
	case majorArray:
		if arg > uint64(len(d.buf)-d.pos) {
			return nil, fmt.Errorf("%w: array length exceeds input", ErrMalformed)
		}
		arr := make(Array, 0, arg)
		for i := uint64(0); i < arg; i++ {
			e, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, e)
		}
		return arr, nil
	case majorMap:
		if arg > uint64(len(d.buf)-d.pos)/2 {
			return nil, fmt.Errorf("%w: map length exceeds input", ErrMalformed)
		}
		m := make(Map, 0, arg)
		var prev uint64
		for i := uint64(0); i < arg; i++ {
			km, karg, err := d.head()
			if err != nil {
				return nil, err
			}
			if km != majorUint {
				return nil, fmt.Errorf("%w: map key is not an unsigned integer", ErrMalformed)
			}
			if i > 0 && karg <= prev {
				return nil, fmt.Errorf("%w: map keys not in strictly increasing order", ErrMalformed)
			}
			prev = karg
			e, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			m = append(m, Pair{Key: karg, Value: e})
		}
		return m, nil
	case majorOther:
		switch arg {
		case simpleFalse:
			return Bool(false), nil
		case simpleTrue:
			return Bool(true), nil
		case simpleNull:
			return Null{}, nil
		}
		return nil, fmt.Errorf("%w: unsupported simple value %d", ErrMalformed, arg)
	}
	return nil, fmt.Errorf("%w: unsupported major type %d", ErrMalformed, major)
}

// head reads a type header, enforcing shortest-form arguments.
func (d *decoder) head() (major byte, arg uint64, err error) {
	if d.pos >= len(d.buf) {
		return 0, 0, fmt.Errorf("%w: unexpected end of input", ErrMalformed)
	}
	b := d.buf[d.pos]
	d.pos++
	major = b >> 5
	info := b & 0x1f

	if major == majorOther {
		// Simple values are encoded directly in the info bits. Additional
		// info 24..31 covers extended simples and floats, none of which are
		// in the subset.
		if info >= 24 {
			return 0, 0, fmt.Errorf("%w: unsupported header 0x%02x", ErrMalformed, b)
		}
		return major, uint64(info), nil
	}

	switch {
	case info < 24:
		return major, uint64(info), nil
	case info == 24, info == 25, info == 26, info == 27:
		n := 1 << (info - 24)
		if d.pos+n > len(d.buf) {
			return 0, 0, fmt.Errorf("%w: truncated header", ErrMalformed)
		}
		for i := 0; i < n; i++ {
			arg = arg<<8 | uint64(d.buf[d.pos+i])
		}
		d.pos += n
		if !shortestForm(n, arg) {
			return 0, 0, fmt.Errorf("%w: non-minimal integer encoding", ErrMalformed)
		}
		return major, arg, nil
	default:
		// 28..30 reserved, 31 indefinite length.
		return 0, 0, fmt.Errorf("%w: unsupported header 0x%02x", ErrMalformed, b)
	}
}

func shortestForm(width int, arg uint64) bool {
	switch width {
	case 1:
		return arg >= 24
	case 2:
		return arg > 0xff
	case 4:
		return arg > 0xffff
	default:
		return arg > 0xffffffff
	}
}

func (d *decoder) take(n uint64) ([]byte, error) {
	if n > uint64(len(d.buf)-d.pos) {
		return nil, fmt.Errorf("%w: length exceeds input", ErrMalformed)
	}
	b := d.buf[d.pos : d.pos+int(n)]
	d.pos += int(n)
	return b, nil
}
