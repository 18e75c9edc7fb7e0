package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/machiya/archidb/internal/config"
	"github.com/machiya/archidb/internal/executor"
	"github.com/machiya/archidb/internal/facet"
	"github.com/machiya/archidb/internal/pager"
	"github.com/machiya/archidb/internal/resultcache"
)

// vfsSeq keeps VFS registration names unique when several commands run in
// one process (tests).
var vfsSeq atomic.Int64

// env is one fully wired query pipeline for a single command invocation.
type env struct {
	cfg   config.Config
	store *pager.Store
	db    *executor.DB
	svc   *facet.Service
}

// openEnv builds the pipeline from the global flags: config, pager,
// executor, result cache, facet service.
func openEnv(opts *RootOptions, cmd *cobra.Command) (*env, error) {
	logLevel := slog.LevelWarn
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))

	var cfg config.Config
	switch {
	case opts.Config != "":
		c, err := config.Load(opts.Config)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load config", err)
		}
		cfg = c
	case opts.URL != "":
		cfg = config.Default()
		cfg.URL = opts.URL
		if err := cfg.Validate(); err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
		}
	default:
		return nil, NewExitError(ExitCommandError, "either --config or --url is required")
	}

	pc := cfg.PagerConfig()
	pc.Logger = logger
	store, err := pager.New(pc)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create page store", err)
	}

	db, err := executor.OpenRemote(store, fmt.Sprintf("archidb-%d", vfsSeq.Add(1)))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open remote database", err)
	}

	return &env{
		cfg:   cfg,
		store: store,
		db:    db,
		svc:   facet.New(db, resultcache.New(nil), logger),
	}, nil
}

func (e *env) Close() error {
	return e.db.Close()
}

// countTable runs a COUNT over one table directly on the executor.
func (e *env) countTable(ctx context.Context, table string) (int64, error) {
	rs, err := e.db.Execute(ctx, "SELECT COUNT(1) FROM "+table, nil)
	if err != nil {
		return 0, err
	}
	if len(rs.Rows) != 1 || len(rs.Rows[0]) != 1 {
		return 0, fmt.Errorf("count over %s returned unexpected shape", table)
	}
	n, ok := rs.Rows[0][0].(int64)
	if !ok {
		return 0, fmt.Errorf("count over %s returned %T", table, rs.Rows[0][0])
	}
	return n, nil
}

// queryExitError classifies a pipeline error for exit-code and error-code
// purposes: network failures and engine failures exit 1, everything else is
// a command error.
func queryExitError(err error) *ExitError {
	switch {
	case pager.IsFetchError(err):
		return WrapExitError(ExitFailure, "remote fetch failed", err)
	case executor.IsEngineError(err):
		return WrapExitError(ExitFailure, "query failed", err)
	default:
		return WrapExitError(ExitCommandError, "query could not be built", err)
	}
}

// errorCode maps a pipeline error to its CLI error code.
func errorCode(err error) string {
	switch {
	case pager.IsFetchError(err):
		return ErrCodeFetch
	case executor.IsEngineError(err):
		return ErrCodeQuery
	default:
		return ErrCodeGeneric
	}
}
