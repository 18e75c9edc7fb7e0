package facet

// DefaultPageSize is used when a caller does not specify one.
const DefaultPageSize = 20

// MaxPageSize caps a requested page size.
const MaxPageSize = 100

// SortOrder is a sort direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Bounds is a geographic bounding box.
type Bounds struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// FilterState is the caller-facing filter dimensions for a search. The
// translation to SQL is deterministic: semantically identical states always
// produce the same cache key downstream.
type FilterState struct {
	// Query is free text matched as a substring across title, architect
	// name, and address.
	Query string

	Category   string
	Prefecture string

	// YearFrom/YearTo bound the completion year; zero means unbounded.
	YearFrom int
	YearTo   int

	// Tags are compound tokens like "AwardX2014" or bare tag names. Tokens
	// within this slice come from one facet and combine with OR; the slice
	// combines with the other dimensions with AND.
	Tags []string

	// GeoBounds restricts results to a bounding box (map view).
	GeoBounds *Bounds

	// Sort names a column from the sortable set; unknown values fall back
	// to the default (year, newest first).
	Sort  string
	Order SortOrder

	// Page is 1-based.
	Page     int
	PageSize int
}

// sortColumns is the allowlist of sortable columns. Text columns get
// COLLATE BINARY for deterministic ordering across engine versions.
var sortColumns = map[string]bool{
	"id":         false,
	"year":       false,
	"title":      true,
	"prefecture": true,
	"category":   true,
}

// withDefaults normalizes pagination and sorting so equivalent filter states
// converge before SQL construction.
func (fs FilterState) withDefaults() FilterState {
	if fs.Page < 1 {
		fs.Page = 1
	}
	if fs.PageSize <= 0 {
		fs.PageSize = DefaultPageSize
	}
	if fs.PageSize > MaxPageSize {
		fs.PageSize = MaxPageSize
	}

	if _, ok := sortColumns[fs.Sort]; !ok {
		fs.Sort = "year"
		if fs.Order == "" {
			fs.Order = SortDesc
		}
	}
	if fs.Order != SortAsc && fs.Order != SortDesc {
		fs.Order = SortAsc
	}
	return fs
}

// ArchitectFilterState is the filter dimensions for architect search.
type ArchitectFilterState struct {
	// Query matches the architect name as a substring.
	Query string

	Nationality string
	School      string

	Page     int
	PageSize int
}

func (fs ArchitectFilterState) withDefaults() ArchitectFilterState {
	if fs.Page < 1 {
		fs.Page = 1
	}
	if fs.PageSize <= 0 {
		fs.PageSize = DefaultPageSize
	}
	if fs.PageSize > MaxPageSize {
		fs.PageSize = MaxPageSize
	}
	return fs
}
