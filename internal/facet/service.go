// Package facet composes user-level filter state into parameterized queries
// and drives them through the normalize→cache→optimize→execute pipeline. It
// is the only component callers talk to.
package facet

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/machiya/archidb/internal/executor"
	"github.com/machiya/archidb/internal/record"
	"github.com/machiya/archidb/internal/resultcache"
	"github.com/machiya/archidb/internal/sqlnorm"
	"github.com/machiya/archidb/internal/sqlopt"
)

// Service owns the query pipeline. The cache is injected, not global, so
// independent lifetimes (one per worker) and isolated tests are possible.
type Service struct {
	exec   *executor.DB
	cache  *resultcache.Cache
	logger *slog.Logger
}

// New creates a Service. logger may be nil.
func New(exec *executor.DB, cache *resultcache.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{exec: exec, cache: cache, logger: logger}
}

// SearchResult is one page of building records plus pagination metadata.
type SearchResult struct {
	Items      []record.Building `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	TotalPages int               `json:"total_pages"`
}

// ArchitectResult is one page of architect records plus pagination metadata.
type ArchitectResult struct {
	Items      []record.Architect `json:"items"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	TotalPages int                `json:"total_pages"`
}

// Search returns one page of buildings matching fs. A page beyond the
// available data returns empty Items with the correct Total and TotalPages,
// not an error.
func (s *Service) Search(ctx context.Context, fs FilterState) (*SearchResult, error) {
	fs = fs.withDefaults()
	pageQ, countQ := buildBuildingSearch(fs)

	countRS, err := s.run(ctx, countQ)
	if err != nil {
		return nil, err
	}
	total, err := countFromResult(countRS)
	if err != nil {
		return nil, err
	}

	pageRS, err := s.run(ctx, pageQ)
	if err != nil {
		return nil, err
	}
	items, err := record.BuildingsFromResult(pageRS)
	if err != nil {
		return nil, err
	}

	return &SearchResult{
		Items:      items,
		Total:      total,
		Page:       fs.Page,
		TotalPages: totalPages(total, fs.PageSize),
	}, nil
}

// SearchArchitects returns one page of architects matching fs.
func (s *Service) SearchArchitects(ctx context.Context, fs ArchitectFilterState) (*ArchitectResult, error) {
	fs = fs.withDefaults()
	pageQ, countQ := buildArchitectSearch(fs)

	countRS, err := s.run(ctx, countQ)
	if err != nil {
		return nil, err
	}
	total, err := countFromResult(countRS)
	if err != nil {
		return nil, err
	}

	pageRS, err := s.run(ctx, pageQ)
	if err != nil {
		return nil, err
	}
	items, err := record.ArchitectsFromResult(pageRS)
	if err != nil {
		return nil, err
	}

	return &ArchitectResult{
		Items:      items,
		Total:      total,
		Page:       fs.Page,
		TotalPages: totalPages(total, fs.PageSize),
	}, nil
}

// DistinctValues enumerates the values of a facet dimension for filter
// option population. Known dimensions: prefecture, category, nationality,
// school, tag.
func (s *Service) DistinctValues(ctx context.Context, dimension string) ([]string, error) {
	if dimension == "tag" {
		return s.tags(ctx)
	}

	q, ok := buildDistinct(dimension)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, dimension)
	}

	rs, err := s.run(ctx, q)
	if err != nil {
		return nil, err
	}

	values := make([]string, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		if v, ok := row[0].(string); ok && v != "" {
			values = append(values, v)
		}
	}
	return values, nil
}

// tags enumerates individual tag tokens, splitting the slash-joined column
// and de-duplicating across rows.
func (s *Service) tags(ctx context.Context) ([]string, error) {
	rs, err := s.run(ctx, buildTagEnum())
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var tokens []string
	for _, row := range rs.Rows {
		raw, _ := row[0].(string)
		for _, token := range strings.Split(raw, "/") {
			if token == "" || seen[token] {
				continue
			}
			seen[token] = true
			tokens = append(tokens, token)
		}
	}
	sort.Strings(tokens)
	return tokens, nil
}

// Building returns the record with the given id, or nil when absent.
func (s *Service) Building(ctx context.Context, id int64) (*record.Building, error) {
	rs, err := s.run(ctx, buildBuildingDetail(id))
	if err != nil {
		return nil, err
	}
	items, err := record.BuildingsFromResult(rs)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// Architect returns the record with the given id, or nil when absent.
func (s *Service) Architect(ctx context.Context, id int64) (*record.Architect, error) {
	rs, err := s.run(ctx, buildArchitectDetail(id))
	if err != nil {
		return nil, err
	}
	items, err := record.ArchitectsFromResult(rs)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// run drives one built query through normalize→cache→optimize→execute and
// writes the result into the cache before returning it.
func (s *Service) run(ctx context.Context, q builtQuery) (*executor.ResultSet, error) {
	norm, err := sqlnorm.Normalize(q.sql, q.named)
	if err != nil {
		return nil, err
	}

	reqID := uuid.NewString()[:8]
	log := s.logger.With(
		"req", reqID,
		"intent", q.intent.String(),
		"key", norm.KeyHash())

	if v, ok := s.cache.Get(norm.CacheKey); ok {
		// A corrupted entry is treated as a miss, never as an error.
		if rs, ok := v.(*executor.ResultSet); ok {
			log.Debug("cache hit", "rows", len(rs.Rows))
			return rs, nil
		}
	}

	optimized := sqlopt.Optimize(norm.SQL)
	rs, err := s.exec.Execute(ctx, optimized, norm.Params)
	if err != nil {
		log.Warn("query failed", "error", err)
		return nil, err
	}

	s.cache.Put(norm.CacheKey, rs, resultcache.TTLFor(q.intent))
	log.Debug("cache miss, executed", "rows", len(rs.Rows))
	return rs, nil
}

func countFromResult(rs *executor.ResultSet) (int, error) {
	if len(rs.Rows) != 1 || len(rs.Rows[0]) != 1 {
		return 0, fmt.Errorf("count query returned unexpected shape: %d rows", len(rs.Rows))
	}
	n, ok := rs.Rows[0][0].(int64)
	if !ok {
		return 0, fmt.Errorf("count query returned %T, want integer", rs.Rows[0][0])
	}
	return int(n), nil
}

func totalPages(total, pageSize int) int {
	if total == 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
