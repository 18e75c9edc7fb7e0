package record

import (
	"fmt"

	"github.com/machiya/archidb/internal/executor"
)

// BuildingsFromResult converts a result set using the BuildingColumns
// projection into typed records. Returns an empty slice, not nil, for an
// empty result.
func BuildingsFromResult(rs *executor.ResultSet) ([]Building, error) {
	buildings := make([]Building, 0, len(rs.Rows))
	for i, row := range rs.Rows {
		if len(row) != 10 {
			return nil, fmt.Errorf("building row %d: want 10 columns, got %d", i, len(row))
		}

		var b Building
		var err error
		if b.ID, err = asInt(row[0]); err != nil {
			return nil, fmt.Errorf("building row %d id: %w", i, err)
		}
		b.Title = asString(row[1])
		b.Architect = asString(row[2])
		if b.Year, err = asIntPtr(row[3]); err != nil {
			return nil, fmt.Errorf("building row %d year: %w", i, err)
		}
		b.Prefecture = asString(row[4])
		b.Category = asString(row[5])
		b.Address = asString(row[6])
		b.Tag = asString(row[7])
		if b.Lat, err = asFloatPtr(row[8]); err != nil {
			return nil, fmt.Errorf("building row %d lat: %w", i, err)
		}
		if b.Lng, err = asFloatPtr(row[9]); err != nil {
			return nil, fmt.Errorf("building row %d lng: %w", i, err)
		}

		buildings = append(buildings, b)
	}
	return buildings, nil
}

// ArchitectsFromResult converts a result set using the ArchitectColumns
// projection into typed records.
func ArchitectsFromResult(rs *executor.ResultSet) ([]Architect, error) {
	architects := make([]Architect, 0, len(rs.Rows))
	for i, row := range rs.Rows {
		if len(row) != 6 {
			return nil, fmt.Errorf("architect row %d: want 6 columns, got %d", i, len(row))
		}

		var a Architect
		var err error
		if a.ID, err = asInt(row[0]); err != nil {
			return nil, fmt.Errorf("architect row %d id: %w", i, err)
		}
		a.Name = asString(row[1])
		a.Nationality = asString(row[2])
		a.School = asString(row[3])
		if a.BirthYear, err = asIntPtr(row[4]); err != nil {
			return nil, fmt.Errorf("architect row %d birth_year: %w", i, err)
		}
		if a.DeathYear, err = asIntPtr(row[5]); err != nil {
			return nil, fmt.Errorf("architect row %d death_year: %w", i, err)
		}

		architects = append(architects, a)
	}
	return architects, nil
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func asInt(v any) (int64, error) {
	switch val := v.(type) {
	case int64:
		return val, nil
	case float64:
		return int64(val), nil
	default:
		return 0, fmt.Errorf("want integer, got %T", v)
	}
}

func asIntPtr(v any) (*int64, error) {
	if v == nil {
		return nil, nil
	}
	n, err := asInt(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func asFloatPtr(v any) (*float64, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case float64:
		return &val, nil
	case int64:
		f := float64(val)
		return &f, nil
	default:
		return nil, fmt.Errorf("want float, got %T", v)
	}
}
