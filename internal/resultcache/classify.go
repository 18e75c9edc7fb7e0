package resultcache

import (
	"regexp"
	"strings"
	"time"
)

// Intent is the shape of a query, assigned by whoever built it. The search
// service always knows what kind of query it is building and passes the
// intent explicitly; Classify exists for queries that enter the pipeline
// without one.
type Intent int

const (
	// IntentDefault is any other SELECT: conservative short TTL.
	IntentDefault Intent = iota

	// IntentWrite is a non-SELECT statement. Never cached. The engine is
	// read-only so this should not occur, but the classifier must handle it
	// safely.
	IntentWrite

	// IntentReference enumerates distinct reference values (prefectures,
	// categories, nationalities, schools). Changes only when the dataset is
	// republished.
	IntentReference

	// IntentTagEnum enumerates tags without a WHERE clause.
	IntentTagEnum

	// IntentDetail is a single-row lookup by primary key.
	IntentDetail

	// IntentList is a paginated/sorted/filtered list query.
	IntentList

	// IntentGeo is a geographic bounding-box query. Shortest TTL: these are
	// issued with rapidly changing bounds during interactive panning.
	IntentGeo
)

// String returns the intent name for log fields.
func (i Intent) String() string {
	switch i {
	case IntentWrite:
		return "write"
	case IntentReference:
		return "reference"
	case IntentTagEnum:
		return "tag_enum"
	case IntentDetail:
		return "detail"
	case IntentList:
		return "list"
	case IntentGeo:
		return "geo"
	default:
		return "default"
	}
}

// TTLFor maps an intent to its time-to-live.
func TTLFor(i Intent) time.Duration {
	switch i {
	case IntentWrite:
		return 0
	case IntentReference:
		return 6 * time.Hour
	case IntentTagEnum:
		return time.Hour
	case IntentDetail:
		return 30 * time.Minute
	case IntentList:
		return 5 * time.Minute
	case IntentGeo:
		return 2 * time.Minute
	default:
		return 5 * time.Minute
	}
}

var (
	writeRe     = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE)\b`)
	distinctRe  = regexp.MustCompile(`(?i)SELECT\s+DISTINCT\s+(prefecture|category|nationality|school)\b`)
	tagSelectRe = regexp.MustCompile(`(?i)SELECT\s+(DISTINCT\s+)?tag\b`)
	detailRe    = regexp.MustCompile(`(?i)\bWHERE\s+id\s*=\s*\?`)
	geoRe       = regexp.MustCompile(`(?i)\blat\b[^)]*\blng\b|\blng\b[^)]*\blat\b`)
	whereWordRe = regexp.MustCompile(`(?i)\bWHERE\b`)
	pagedRe     = regexp.MustCompile(`(?i)\b(LIMIT|OFFSET|ORDER BY)\b`)
)

// Classify assigns an intent from canonical SQL text alone.
//
// This is the fallback path: string classification of SQL is inherently
// weaker than the explicit intent the service attaches, so the geo check
// runs before the list check (a bounded map query usually carries LIMIT too,
// and must get the tighter TTL).
func Classify(canonicalSQL string) Intent {
	sql := strings.TrimSpace(canonicalSQL)

	switch {
	case writeRe.MatchString(sql):
		return IntentWrite
	case distinctRe.MatchString(sql):
		return IntentReference
	case tagSelectRe.MatchString(sql) && !whereWordRe.MatchString(sql):
		return IntentTagEnum
	case detailRe.MatchString(sql):
		return IntentDetail
	case geoRe.MatchString(sql):
		return IntentGeo
	case whereWordRe.MatchString(sql) && pagedRe.MatchString(sql):
		return IntentList
	default:
		return IntentDefault
	}
}
