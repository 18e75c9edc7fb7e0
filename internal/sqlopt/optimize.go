// Package sqlopt rewrites canonical SQL so the embedded engine uses the
// index matching the filter instead of its own heuristic choice.
//
// The embedded planner is weak for this workload's access patterns: forcing
// the index that matches the filter makes query cost proportional to matched
// rows rather than table size.
//
// Optimize is a pure, total function and is idempotent:
// Optimize(Optimize(q)) == Optimize(q). It expects canonical (one-line,
// whitespace-collapsed) SQL as produced by sqlnorm.
package sqlopt

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultLimit caps non-aggregate SELECTs that carry no explicit LIMIT,
// bounding worst-case memory and transfer from malformed filter state.
const DefaultLimit = 1000

// indexRule forces an index on a table when the WHERE clause references the
// relevant columns. Rules are tried in order; the first match per table wins
// because injecting the hint suppresses later rules for that table.
type indexRule struct {
	table string
	index string
	match func(where string) bool
}

var indexRules = []indexRule{
	{
		table: "architecture",
		index: "idx_architecture_prefecture_category",
		match: func(w string) bool { return hasColumn(w, "prefecture") && hasColumn(w, "category") },
	},
	{
		table: "architecture",
		index: "idx_architecture_year",
		match: func(w string) bool {
			return hasColumn(w, "year") &&
				!hasColumn(w, "prefecture") && !hasColumn(w, "category") &&
				!hasColumn(w, "lat") && !hasColumn(w, "lng") && !hasColumn(w, "tag")
		},
	},
	{
		table: "architecture",
		index: "idx_architecture_geo",
		match: func(w string) bool { return hasColumn(w, "lat") && hasColumn(w, "lng") },
	},
	{
		table: "architecture",
		index: "idx_architecture_tag",
		match: func(w string) bool { return hasColumn(w, "tag") },
	},
	{
		table: "architect",
		index: "idx_architect_name",
		match: func(w string) bool { return hasColumn(w, "name") },
	},
}

var (
	countStarRe = regexp.MustCompile(`(?i)COUNT\(\s*\*\s*\)`)
	limitRe     = regexp.MustCompile(`(?i)\bLIMIT\b`)
	aggregateRe = regexp.MustCompile(`(?i)\b(COUNT|SUM|AVG|MIN|MAX|TOTAL|GROUP_CONCAT)\s*\(`)
	whereRe     = regexp.MustCompile(`(?i)\bWHERE\b`)
	whereEndRe  = regexp.MustCompile(`(?i)\b(GROUP BY|ORDER BY|LIMIT)\b`)
)

// Optimize rewrites a canonical SELECT for forced index selection and bounded
// result size without changing semantics. Non-SELECT input passes through
// unchanged.
func Optimize(sql string) string {
	out := forceIndexes(sql)
	out = countStarRe.ReplaceAllString(out, "COUNT(1)")
	out = applyDefaultLimit(out)
	return out
}

// forceIndexes injects INDEXED BY hints per indexRules. A table reference
// that already carries a hint is left alone, which also makes the pass
// idempotent.
func forceIndexes(sql string) string {
	where := whereClause(sql)
	if where == "" {
		return sql
	}

	out := sql
	for _, rule := range indexRules {
		if !rule.match(where) {
			continue
		}
		rewritten, ok := injectHint(out, rule.table, rule.index)
		if ok {
			out = rewritten
		}
	}
	return out
}

// injectHint adds "INDEXED BY <index>" after the table reference. Returns
// (sql, false) when the table is absent or already hinted.
func injectHint(sql, table, index string) (string, bool) {
	// Match the table name in FROM or JOIN position, not followed by an
	// existing INDEXED BY.
	tableRe := regexp.MustCompile(`(?i)\b(FROM|JOIN)\s+` + table + `\b`)
	loc := tableRe.FindStringIndex(sql)
	if loc == nil {
		return sql, false
	}

	rest := sql[loc[1]:]
	if strings.HasPrefix(strings.ToUpper(strings.TrimLeft(rest, " ")), "INDEXED BY") {
		return sql, false
	}

	return sql[:loc[1]] + " INDEXED BY " + index + rest, true
}

// whereClause returns the text between WHERE and the next clause keyword,
// or "" when the statement has no WHERE.
func whereClause(sql string) string {
	loc := whereRe.FindStringIndex(sql)
	if loc == nil {
		return ""
	}
	clause := sql[loc[1]:]
	if end := whereEndRe.FindStringIndex(clause); end != nil {
		clause = clause[:end[0]]
	}
	return clause
}

// hasColumn reports whether the clause references col as a whole word.
func hasColumn(clause, col string) bool {
	re := regexp.MustCompile(`(?i)\b` + col + `\b`)
	return re.MatchString(clause)
}

// applyDefaultLimit appends LIMIT 1000 to non-aggregate SELECTs that have no
// explicit LIMIT.
func applyDefaultLimit(sql string) string {
	trimmed := strings.TrimSpace(sql)
	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		return sql
	}
	if limitRe.MatchString(sql) || aggregateRe.MatchString(sql) {
		return sql
	}
	return sql + " LIMIT " + strconv.Itoa(DefaultLimit)
}
