package sqlnorm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// marshalCanonicalParams produces a canonical JSON array for a positional
// parameter list. This is the ONLY serialization that should be used when
// computing cache keys: two parameter lists with the same values always
// produce identical bytes.
//
// Key differences from standard json.Marshal:
//  1. No HTML escaping (< > & are NOT escaped)
//  2. Strings are NFC normalized
//  3. Floats use shortest round-trip formatting (strconv 'g', 64-bit)
//  4. Only SQL-bindable scalars are accepted (string, int, float, bool, nil)
func marshalCanonicalParams(params []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')

	for i, p := range params {
		if i > 0 {
			buf.WriteByte(',')
		}
		elem, err := marshalCanonicalScalar(p)
		if err != nil {
			return nil, fmt.Errorf("param[%d]: %w", i, err)
		}
		buf.Write(elem)
	}

	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalCanonicalScalar(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case string:
		return marshalCanonicalString(val)
	case int:
		return []byte(strconv.FormatInt(int64(val), 10)), nil
	case int64:
		return []byte(strconv.FormatInt(val, 10)), nil
	case float64:
		// Shortest representation that round-trips. Integral floats keep a
		// trailing ".0"-free form, which is fine: the key only has to be
		// stable, not human friendly.
		return []byte(strconv.FormatFloat(val, 'g', -1, 64)), nil
	case float32:
		return []byte(strconv.FormatFloat(float64(val), 'g', -1, 32)), nil
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	default:
		return nil, fmt.Errorf("unsupported parameter type: %T", v)
	}
}

// marshalCanonicalString produces a canonical JSON string with NFC
// normalization and HTML escaping disabled.
func marshalCanonicalString(s string) ([]byte, error) {
	// NFC normalize at the serialization boundary so visually identical
	// inputs (composed vs decomposed) map to one key.
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds a trailing newline, remove it
	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}

	return result, nil
}
