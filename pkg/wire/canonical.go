package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"unicode/utf8"
)

// Canonical serializes v to canonical JSON: object keys sorted
// lexicographically, no insignificant whitespace, numbers rendered in
// their shortest float64 round-trip form. Two payloads that differ only
// in key order, spacing, or number spelling ("20.0" vs "20") produce
// identical canonical bytes, which is what makes commit digests
// comparable across implementations.
func Canonical(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("wire: marshaling for canonical form: %w", err)
	}
	return CanonicalRaw(raw)
}

// CanonicalRaw re-encodes raw JSON bytes into canonical form. The input
// must be exactly one JSON value with no trailing data.
func CanonicalRaw(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("wire: decoding for canonical form: %w", err)
	}
	if err := dec.Decode(new(any)); err != io.EOF {
		return nil, fmt.Errorf("wire: trailing data after JSON value")
	}

	return appendCanonical(make([]byte, 0, len(raw)), v)
}

// appendCanonical writes the canonical encoding of a decoded JSON value.
func appendCanonical(b []byte, v any) ([]byte, error) {
	switch x := v.(type) {
	case nil:
		return append(b, "null"...), nil

	case bool:
		if x {
			return append(b, "true"...), nil
		}
		return append(b, "false"...), nil

	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("wire: invalid number %q: %w", x.String(), err)
		}
		return appendNumber(b, f)

	case float64:
		return appendNumber(b, x)

	case string:
		return appendString(b, x), nil

	case []any:
		b = append(b, '[')
		for i, e := range x {
			if i > 0 {
				b = append(b, ',')
			}
			var err error
			b, err = appendCanonical(b, e)
			if err != nil {
				return nil, err
			}
		}
		return append(b, ']'), nil

	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b = append(b, '{')
		for i, k := range keys {
			if i > 0 {
				b = append(b, ',')
			}
			b = appendString(b, k)
			b = append(b, ':')
			var err error
			b, err = appendCanonical(b, x[k])
			if err != nil {
				return nil, err
			}
		}
		return append(b, '}'), nil

	default:
		return nil, fmt.Errorf("wire: unsupported JSON value %T", v)
	}
}

// appendNumber renders a float64 the way JSON.stringify does: plain
// decimal notation for 1e-6 <= |f| < 1e21, exponent notation outside
// that range, always the shortest digits that round-trip.
func appendNumber(b []byte, f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("wire: non-finite number")
	}
	if f == 0 {
		return append(b, '0'), nil
	}

	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.AppendFloat(b, f, 'f', -1, 64), nil
	}

	s := strconv.FormatFloat(f, 'e', -1, 64)
	return append(b, trimExponentZeros(s)...), nil
}

// trimExponentZeros strips leading zeros from the exponent digits, so
// Go's "1e-07" becomes "1e-7" to match canonical number formatting.
func trimExponentZeros(s string) string {
	i := bytes.IndexByte([]byte(s), 'e')
	if i < 0 {
		return s
	}
	mant, exp := s[:i+1], s[i+1:]
	sign := ""
	if len(exp) > 0 && (exp[0] == '+' || exp[0] == '-') {
		sign, exp = exp[:1], exp[1:]
	}
	for len(exp) > 1 && exp[0] == '0' {
		exp = exp[1:]
	}
	return mant + sign + exp
}

// appendString writes s as a JSON string with minimal escaping: only
// the quote, backslash, and control characters are escaped; everything
// else passes through as literal UTF-8.
func appendString(b []byte, s string) []byte {
	b = append(b, '"')
	for _, r := range s {
		switch r {
		case '"':
			b = append(b, '\\', '"')
		case '\\':
			b = append(b, '\\', '\\')
		case '\b':
			b = append(b, '\\', 'b')
		case '\t':
			b = append(b, '\\', 't')
		case '\n':
			b = append(b, '\\', 'n')
		case '\f':
			b = append(b, '\\', 'f')
		case '\r':
			b = append(b, '\\', 'r')
		default:
			if r < 0x20 {
				b = append(b, fmt.Sprintf(`\u%04x`, r)...)
			} else {
				b = utf8.AppendRune(b, r)
			}
		}
	}
	return append(b, '"')
}
