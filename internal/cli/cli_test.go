package cli

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serveSeeded builds a dataset on disk and serves it over HTTP with range
// support, returning the database URL.
func serveSeeded(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "data.db")

	seed, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = seed.Exec(`
		CREATE TABLE architecture (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			architect TEXT NOT NULL DEFAULT '',
			year INTEGER,
			prefecture TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			tag TEXT NOT NULL DEFAULT '',
			lat REAL,
			lng REAL
		);
		CREATE TABLE architect (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			nationality TEXT NOT NULL DEFAULT '',
			school TEXT NOT NULL DEFAULT '',
			birth_year INTEGER,
			death_year INTEGER
		);
		CREATE INDEX idx_architecture_prefecture_category ON architecture(prefecture, category);
		CREATE INDEX idx_architecture_year ON architecture(year);
		CREATE INDEX idx_architecture_geo ON architecture(lat, lng);
		CREATE INDEX idx_architecture_tag ON architecture(tag);
		CREATE INDEX idx_architect_name ON architect(name);

		INSERT INTO architecture (id, title, architect, year, prefecture, category, address, tag, lat, lng) VALUES
			(1, 'Sea Museum', 'Kenji Tanaka', 1992, 'Mie', 'museum', 'Toba, Mie', 'AwardX2014/Concrete', 34.481, 136.843),
			(2, 'Forest Library', 'Aya Sato', 2004, 'Nagano', 'library', 'Ina, Nagano', 'AwardX2015/Wood', 35.827, 137.953);

		INSERT INTO architect (id, name, nationality, school, birth_year, death_year) VALUES
			(1, 'Kenji Tanaka', 'Japan', 'Tokyo University', 1950, NULL);
	`)
	require.NoError(t, err)
	require.NoError(t, seed.Close())

	srv := httptest.NewServer(http.FileServer(http.Dir(dir)))
	t.Cleanup(srv.Close)
	return srv.URL + "/data.db"
}

// execute runs the CLI with args and returns stdout, stderr, and the error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestSearchCommand_JSON(t *testing.T) {
	url := serveSeeded(t)

	out, _, err := execute(t, "search", "--url", url, "--category", "museum", "--format", "json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), data["total"])
	items, ok := data["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	first := items[0].(map[string]any)
	assert.Equal(t, "Sea Museum", first["title"])
}

func TestSearchCommand_Text(t *testing.T) {
	url := serveSeeded(t)

	out, _, err := execute(t, "search", "--url", url, "--tag", "AwardX2015")
	require.NoError(t, err)

	assert.Contains(t, out, "1 result(s), page 1/1")
	assert.Contains(t, out, "Forest Library")
	assert.NotContains(t, out, "Sea Museum")
}

func TestSearchCommand_InvalidBounds(t *testing.T) {
	url := serveSeeded(t)

	_, _, err := execute(t, "search", "--url", url, "--bounds", "1,2,3")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestArchitectsCommand(t *testing.T) {
	url := serveSeeded(t)

	out, _, err := execute(t, "architects", "--url", url, "--query", "Tanaka")
	require.NoError(t, err)
	assert.Contains(t, out, "Kenji Tanaka")
}

func TestDistinctCommand(t *testing.T) {
	url := serveSeeded(t)

	out, _, err := execute(t, "distinct", "prefecture", "--url", url)
	require.NoError(t, err)
	assert.Equal(t, "Mie\nNagano\n", out)

	_, _, err = execute(t, "distinct", "altitude", "--url", url)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInfoCommand(t *testing.T) {
	url := serveSeeded(t)

	out, _, err := execute(t, "info", "--url", url, "--format", "json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(2), data["buildings"])
	assert.Equal(t, float64(1), data["architects"])
	assert.Greater(t, data["size_bytes"], float64(0))
	assert.Equal(t, false, data["fallback"])
}

func TestRootCommand_FlagValidation(t *testing.T) {
	_, _, err := execute(t, "search", "--url", "https://x/d.db", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")

	_, _, err = execute(t, "search")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute(t, "search", "--url", "https://x/d.db", "--config", "c.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestParseBounds(t *testing.T) {
	b, err := parseBounds("34.0, 35.0, 135.0, 137.0")
	require.NoError(t, err)
	assert.Equal(t, 34.0, b.MinLat)
	assert.Equal(t, 137.0, b.MaxLng)

	_, err = parseBounds("34.0,35.0,135.0,east")
	assert.Error(t, err)
}
