package sqlnorm

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// Domain prefix for cache-key hashing. Version suffix enables future
// algorithm migration without colliding with old keys.
const keyDomain = "archidb/query/v1"

// placeholderRe matches named placeholders of the form :name.
var placeholderRe = regexp.MustCompile(`:([A-Za-z_][A-Za-z0-9_]*)`)

// whitespaceRe matches runs of whitespace, including newlines and tabs.
var whitespaceRe = regexp.MustCompile(`\s+`)

// Normalized is the canonical form of a query: one-line SQL with positional
// placeholders, the ordered parameter list, and the cache key derived from
// both.
type Normalized struct {
	// SQL is the canonical query text: whitespace collapsed, trimmed, every
	// named placeholder replaced with ?.
	SQL string

	// Params holds the positional parameter values in first-occurrence order
	// of their placeholders. A placeholder that appears twice contributes its
	// value twice.
	Params []any

	// CacheKey is canonical SQL + ":" + canonical JSON of Params. Identical
	// for any two semantically identical (sql, named) inputs regardless of
	// cosmetic whitespace or map insertion order.
	CacheKey string
}

// KeyHash returns a domain-separated SHA-256 of the cache key, for compact
// log fields. The full CacheKey remains the storage key.
func (n Normalized) KeyHash() string {
	h := sha256.New()
	h.Write([]byte(keyDomain))
	h.Write([]byte{0x00}) // null separator prevents domain/data ambiguity
	h.Write([]byte(n.CacheKey))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Normalize canonicalizes query text and parameter binding.
//
// Named placeholders (:name) are rewritten to positional placeholders (?) in
// first-occurrence order. A named parameter that never appears in the SQL is
// silently dropped; a placeholder with no matching named parameter is an
// *InvalidQueryError.
func Normalize(sql string, named map[string]any) (Normalized, error) {
	canonical := strings.TrimSpace(whitespaceRe.ReplaceAllString(sql, " "))

	var params []any
	var missing string
	rewritten := placeholderRe.ReplaceAllStringFunc(canonical, func(m string) string {
		name := m[1:]
		val, ok := named[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return m
		}
		params = append(params, val)
		return "?"
	})

	if missing != "" {
		return Normalized{}, &InvalidQueryError{
			Placeholder: missing,
			Message:     "placeholder has no matching named parameter",
		}
	}

	paramsJSON, err := marshalCanonicalParams(params)
	if err != nil {
		return Normalized{}, &InvalidQueryError{
			Message: "parameters are not canonically serializable: " + err.Error(),
		}
	}

	return Normalized{
		SQL:      rewritten,
		Params:   params,
		CacheKey: rewritten + ":" + string(paramsJSON),
	}, nil
}
