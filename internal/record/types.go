// Package record defines the explicit row schemas for the two record types
// in the dataset. The engine only reads: records are immutable once scanned.
//
// Optional fields are modeled as pointers, not runtime presence checks; a
// nil Year means the source row had no year, never zero.
package record

// Building is one architecture record.
type Building struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Architect  string   `json:"architect"`
	Year       *int64   `json:"year"`
	Prefecture string   `json:"prefecture"`
	Category   string   `json:"category"`
	Address    string   `json:"address"`
	// Tag holds slash-separated compound tokens, e.g. "AwardX2014/Concrete".
	Tag string   `json:"tag"`
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// Architect is one architect record.
type Architect struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Nationality string `json:"nationality"`
	School      string `json:"school"`
	BirthYear   *int64 `json:"birth_year"`
	DeathYear   *int64 `json:"death_year"`
}

// BuildingColumns is the canonical projection for building queries, in scan
// order.
const BuildingColumns = "id, title, architect, year, prefecture, category, address, tag, lat, lng"

// ArchitectColumns is the canonical projection for architect queries, in
// scan order.
const ArchitectColumns = "id, name, nationality, school, birth_year, death_year"
