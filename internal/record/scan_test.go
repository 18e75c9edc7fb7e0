package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/machiya/archidb/internal/executor"
)

func TestBuildingsFromResult(t *testing.T) {
	rs := &executor.ResultSet{
		Columns: []string{"id", "title", "architect", "year", "prefecture", "category", "address", "tag", "lat", "lng"},
		Rows: [][]any{
			{int64(1), "Sea Museum", "K. Tanaka", int64(1992), "Mie", "museum", "Toba, Mie", "AwardX2014", 34.48, 136.84},
			{int64(2), "Glass Chapel", "", nil, "Hyogo", "church", "", "", nil, nil},
		},
	}

	buildings, err := BuildingsFromResult(rs)
	require.NoError(t, err)
	require.Len(t, buildings, 2)

	first := buildings[0]
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "Sea Museum", first.Title)
	require.NotNil(t, first.Year)
	assert.Equal(t, int64(1992), *first.Year)
	require.NotNil(t, first.Lat)
	assert.InDelta(t, 34.48, *first.Lat, 1e-9)

	second := buildings[1]
	assert.Nil(t, second.Year)
	assert.Nil(t, second.Lat)
	assert.Nil(t, second.Lng)
	assert.Equal(t, "", second.Architect)
}

func TestBuildingsFromResult_EmptyIsNotNil(t *testing.T) {
	buildings, err := BuildingsFromResult(&executor.ResultSet{Rows: [][]any{}})
	require.NoError(t, err)
	assert.NotNil(t, buildings)
	assert.Len(t, buildings, 0)
}

func TestBuildingsFromResult_ColumnCountMismatch(t *testing.T) {
	_, err := BuildingsFromResult(&executor.ResultSet{Rows: [][]any{{int64(1), "only two"}}})
	assert.Error(t, err)
}

func TestArchitectsFromResult(t *testing.T) {
	rs := &executor.ResultSet{
		Columns: []string{"id", "name", "nationality", "school", "birth_year", "death_year"},
		Rows: [][]any{
			{int64(5), "Togo Murano", "Japan", "Waseda", int64(1891), int64(1984)},
			{int64(6), "Living Person", "Japan", "", int64(1960), nil},
		},
	}

	architects, err := ArchitectsFromResult(rs)
	require.NoError(t, err)
	require.Len(t, architects, 2)

	assert.Equal(t, "Togo Murano", architects[0].Name)
	require.NotNil(t, architects[0].DeathYear)
	assert.Equal(t, int64(1984), *architects[0].DeathYear)
	assert.Nil(t, architects[1].DeathYear)
}
