package sqlopt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptimize_PrefectureCategoryCompositeIndex(t *testing.T) {
	sql := "SELECT * FROM architecture WHERE prefecture = ? AND category = ? ORDER BY year DESC LIMIT 20"

	out := Optimize(sql)

	assert.Contains(t, out, "FROM architecture INDEXED BY idx_architecture_prefecture_category")
}

func TestOptimize_YearIndexOnlyWhenYearAlone(t *testing.T) {
	out := Optimize("SELECT * FROM architecture WHERE year >= ? AND year <= ? LIMIT 20")
	assert.Contains(t, out, "INDEXED BY idx_architecture_year")

	// Composite rule wins when prefecture/category are present.
	out = Optimize("SELECT * FROM architecture WHERE prefecture = ? AND category = ? AND year >= ? LIMIT 20")
	assert.Contains(t, out, "INDEXED BY idx_architecture_prefecture_category")
	assert.NotContains(t, out, "idx_architecture_year")
}

func TestOptimize_GeoIndex(t *testing.T) {
	sql := "SELECT * FROM architecture WHERE lat >= ? AND lat <= ? AND lng >= ? AND lng <= ? LIMIT 500"

	out := Optimize(sql)

	assert.Contains(t, out, "INDEXED BY idx_architecture_geo")
}

func TestOptimize_TagIndex(t *testing.T) {
	sql := "SELECT * FROM architecture WHERE '/' || tag || '/' LIKE ? LIMIT 20"

	out := Optimize(sql)

	assert.Contains(t, out, "INDEXED BY idx_architecture_tag")
}

func TestOptimize_ArchitectNameIndex(t *testing.T) {
	sql := "SELECT * FROM architect WHERE name LIKE ? ORDER BY name ASC LIMIT 20"

	out := Optimize(sql)

	assert.Contains(t, out, "FROM architect INDEXED BY idx_architect_name")
}

func TestOptimize_NoHintWithoutWhere(t *testing.T) {
	sql := "SELECT DISTINCT prefecture FROM architecture ORDER BY prefecture ASC"

	out := Optimize(sql)

	assert.NotContains(t, out, "INDEXED BY")
}

func TestOptimize_ExistingHintPreserved(t *testing.T) {
	sql := "SELECT * FROM architecture INDEXED BY idx_architecture_year WHERE year = ? LIMIT 20"

	out := Optimize(sql)

	// No double hint.
	assert.Equal(t, sql, out)
}

func TestOptimize_CountStarRewrite(t *testing.T) {
	out := Optimize("SELECT COUNT(*) FROM architecture WHERE category = ?")
	assert.Contains(t, out, "COUNT(1)")
	assert.NotContains(t, out, "COUNT(*)")

	out = Optimize("SELECT COUNT( * ) FROM architecture")
	assert.Contains(t, out, "COUNT(1)")
}

func TestOptimize_ImplicitLimit(t *testing.T) {
	out := Optimize("SELECT * FROM architecture WHERE category = ?")
	assert.Contains(t, out, "LIMIT 1000")

	// Explicit LIMIT untouched.
	out = Optimize("SELECT * FROM architecture WHERE category = ? LIMIT 20")
	assert.NotContains(t, out, "LIMIT 1000")

	// Aggregates are single-row, no cap needed.
	out = Optimize("SELECT COUNT(1) FROM architecture WHERE category = ?")
	assert.NotContains(t, out, "LIMIT")
}

func TestOptimize_NonSelectPassesThrough(t *testing.T) {
	sql := "PRAGMA user_version"

	assert.Equal(t, sql, Optimize(sql))
}

func TestOptimize_Idempotent(t *testing.T) {
	queries := []string{
		"SELECT * FROM architecture WHERE prefecture = ? AND category = ? LIMIT 20",
		"SELECT * FROM architecture WHERE year = ?",
		"SELECT * FROM architecture WHERE lat >= ? AND lng >= ? LIMIT 500",
		"SELECT * FROM architecture WHERE '/' || tag || '/' LIKE ?",
		"SELECT * FROM architect WHERE name LIKE ?",
		"SELECT COUNT(*) FROM architecture WHERE category = ?",
		"SELECT DISTINCT prefecture FROM architecture ORDER BY prefecture ASC",
		"SELECT * FROM architecture",
		"SELECT title FROM architecture WHERE id = ? LIMIT 1",
	}

	for _, q := range queries {
		once := Optimize(q)
		twice := Optimize(once)
		assert.Equal(t, once, twice, "Optimize must be idempotent for %q", q)
	}
}
