// Package executor runs read-only relational queries against pages supplied
// by the paged remote store. It knows nothing about caching or optimization;
// those are applied before it is invoked.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/psanford/sqlite3vfs"

	"github.com/machiya/archidb/internal/pager"
)

// DB wraps a read-only SQLite connection backed by a remote file.
type DB struct {
	db    *sql.DB
	store *pager.Store
}

// OpenRemote registers store under vfsName and opens the remote database
// through it. vfsName must be unique per process; opening two stores under
// one name is a caller bug.
//
// The connection is read-only and immutable: the source file never changes
// for the session, which lets SQLite skip all locking and change detection.
func OpenRemote(store *pager.Store, vfsName string) (*DB, error) {
	if err := sqlite3vfs.RegisterVFS(vfsName, pager.NewVFS(store)); err != nil {
		return nil, fmt.Errorf("register vfs %q: %w", vfsName, err)
	}

	dsn := fmt.Sprintf("file:remote.db?vfs=%s&mode=ro&immutable=1", vfsName)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open remote database: %w", err)
	}

	// A single connection keeps page access serialized through one logical
	// reader, matching the one-tab-one-worker model.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &DB{db: db, store: store}, nil
}

// Close closes the database connection.
func (e *DB) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

// ResultSet is the executor-to-caller row shape. Scalars are limited to
// string, int64, float64, and nil.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Execute runs a single SELECT with positional parameters. Results are
// deterministic given an unchanged remote file and identical sql/params.
//
// Any statement other than SELECT is rejected with an EngineError before
// touching the engine. Transport failures inside the page layer are
// recovered from the store and propagated as their original typed error,
// never as partial rows.
func (e *DB) Execute(ctx context.Context, query string, params []any) (*ResultSet, error) {
	if !isSelect(query) {
		return nil, &EngineError{
			Code:    ErrCodeNonSelect,
			Message: "only SELECT statements are supported",
		}
	}

	rows, err := e.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, e.wrapQueryError(err)
	}
	defer rows.Close()

	rs, err := scanResultSet(rows)
	if err != nil {
		return nil, e.wrapQueryError(err)
	}
	return rs, nil
}

// wrapQueryError restores a typed transport error swallowed by the driver,
// or wraps the driver error as an EngineError.
func (e *DB) wrapQueryError(err error) error {
	if e.store != nil {
		if ferr := e.store.TakeError(); ferr != nil {
			return ferr
		}
	}
	if IsEngineError(err) {
		return err
	}
	return &EngineError{
		Code:    ErrCodeQueryFailed,
		Message: "query failed",
		Err:     err,
	}
}

// isSelect accepts a single SELECT statement, optionally with a trailing
// semicolon. Compound scripts are rejected.
func isSelect(query string) bool {
	trimmed := strings.TrimSpace(query)
	trimmed = strings.TrimSuffix(trimmed, ";")
	if strings.ContainsRune(trimmed, ';') {
		return false
	}
	return strings.HasPrefix(strings.ToUpper(trimmed), "SELECT")
}
