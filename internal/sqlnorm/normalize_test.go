package sqlnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_WhitespaceCollapse(t *testing.T) {
	n, err := Normalize("SELECT  *\n\tFROM   architecture\n WHERE id = :id ", map[string]any{"id": int64(7)})
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM architecture WHERE id = ?", n.SQL)
	assert.Equal(t, []any{int64(7)}, n.Params)
}

func TestNormalize_FirstOccurrenceOrder(t *testing.T) {
	sql := "SELECT * FROM architecture WHERE prefecture = :pref AND category = :cat AND prefecture != :pref"

	n, err := Normalize(sql, map[string]any{
		"cat":  "museum",
		"pref": "Tokyo",
	})
	require.NoError(t, err)

	// :pref appears twice; its value is appended per occurrence.
	assert.Equal(t, "SELECT * FROM architecture WHERE prefecture = ? AND category = ? AND prefecture != ?", n.SQL)
	assert.Equal(t, []any{"Tokyo", "museum", "Tokyo"}, n.Params)
}

func TestNormalize_CacheKeyInsertionOrderInvariant(t *testing.T) {
	sql := "SELECT * FROM architecture WHERE prefecture = :pref AND category = :cat AND year >= :from"

	// Go maps do not preserve insertion order, but build the two maps in
	// different textual orders anyway and compare keys across many runs.
	p1 := map[string]any{}
	p1["pref"] = "Kyoto"
	p1["cat"] = "museum"
	p1["from"] = int64(1990)

	p2 := map[string]any{}
	p2["from"] = int64(1990)
	p2["cat"] = "museum"
	p2["pref"] = "Kyoto"

	for i := 0; i < 50; i++ {
		n1, err := Normalize(sql, p1)
		require.NoError(t, err)
		n2, err := Normalize(sql, p2)
		require.NoError(t, err)

		assert.Equal(t, n1.CacheKey, n2.CacheKey)
		assert.Equal(t, n1.Params, n2.Params)
	}
}

func TestNormalize_UnusedNamedParamDropped(t *testing.T) {
	n, err := Normalize("SELECT * FROM architect WHERE name = :name", map[string]any{
		"name":   "Tadao Ando",
		"unused": "ignored",
	})
	require.NoError(t, err)

	assert.Equal(t, []any{"Tadao Ando"}, n.Params)
}

func TestNormalize_MissingParamIsInvalidQuery(t *testing.T) {
	_, err := Normalize("SELECT * FROM architect WHERE name = :name", map[string]any{})

	require.Error(t, err)
	assert.True(t, IsInvalidQuery(err))
	assert.Contains(t, err.Error(), "name")
}

func TestNormalize_CosmeticVariantsShareKey(t *testing.T) {
	named := map[string]any{"cat": "museum"}

	n1, err := Normalize("SELECT * FROM architecture WHERE category = :cat", named)
	require.NoError(t, err)
	n2, err := Normalize("SELECT *\n  FROM architecture\n  WHERE category = :cat", named)
	require.NoError(t, err)

	assert.Equal(t, n1.CacheKey, n2.CacheKey)
}

func TestNormalize_FloatAndNullParams(t *testing.T) {
	n, err := Normalize(
		"SELECT * FROM architecture WHERE lat >= :min_lat AND note IS :note",
		map[string]any{"min_lat": 35.0215, "note": nil},
	)
	require.NoError(t, err)

	assert.Equal(t, []any{35.0215, nil}, n.Params)
	assert.Contains(t, n.CacheKey, "35.0215")
	assert.Contains(t, n.CacheKey, "null")
}

func TestNormalize_UnsupportedParamType(t *testing.T) {
	_, err := Normalize("SELECT * FROM architecture WHERE id = :id", map[string]any{
		"id": []string{"not", "a", "scalar"},
	})

	require.Error(t, err)
	assert.True(t, IsInvalidQuery(err))
}

func TestKeyHash_StableAndCompact(t *testing.T) {
	n, err := Normalize("SELECT 1 WHERE a = :a", map[string]any{"a": int64(1)})
	require.NoError(t, err)

	h1 := n.KeyHash()
	h2 := n.KeyHash()
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 16)
}

func TestMarshalCanonicalParams_NFCNormalization(t *testing.T) {
	// e + combining acute vs precomposed e-acute must serialize identically.
	decomposed := "Rénzo"
	composed := "Rénzo"

	b1, err := marshalCanonicalParams([]any{decomposed})
	require.NoError(t, err)
	b2, err := marshalCanonicalParams([]any{composed})
	require.NoError(t, err)

	assert.Equal(t, b1, b2)
}

func TestMarshalCanonicalParams_NoHTMLEscaping(t *testing.T) {
	b, err := marshalCanonicalParams([]any{"<museum> & gallery"})
	require.NoError(t, err)

	assert.Equal(t, `["<museum> & gallery"]`, string(b))
}
