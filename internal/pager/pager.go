// Package pager presents a remote database file as if it were local.
//
// Reads are aligned to fixed-size pages fetched with HTTP range requests and
// kept in a bounded LRU cache, so overlapping logical reads reuse cached
// pages. Concurrent requests for the same uncached page are coalesced into a
// single network fetch. Servers that ignore Range requests trigger a
// one-time fallback to a whole-file download, cached thereafter.
package pager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	// DefaultPageSize is 4 native SQLite pages: large enough to amortize
	// request overhead on cold facet queries, small enough to avoid gross
	// over-fetch on point lookups. Must stay a multiple of 4096.
	DefaultPageSize = 16384

	// DefaultMaxPages bounds the in-memory page cache (4 MiB at the default
	// page size).
	DefaultMaxPages = 256

	defaultAttempts  = 3
	defaultRetryBase = 200 * time.Millisecond
)

// Config configures a Store. Zero values take defaults; URL is required.
type Config struct {
	// URL of the remote database file.
	URL string

	// PageSize is the fetch alignment in bytes. Must be a multiple of 4096.
	PageSize int64

	// MaxPages is the page cache budget.
	MaxPages int

	// MaxAttempts bounds retries for a single range fetch.
	MaxAttempts int

	// RetryBase is the first backoff delay; it doubles per attempt.
	RetryBase time.Duration

	// FetchRate limits outbound requests per second. 0 means unlimited.
	FetchRate rate.Limit

	// Client is the HTTP client; nil means http.DefaultClient.
	Client *http.Client

	// Logger receives fetch diagnostics; nil discards them.
	Logger *slog.Logger
}

// Stats is a snapshot of cache and network activity.
type Stats struct {
	PagesCached int
	Hits        int64
	Misses      int64
	Fetches     int64
	Fallback    bool
}

// Store is the paged remote store. Safe for concurrent use.
type Store struct {
	url       string
	pageSize  int64
	attempts  int
	retryBase time.Duration
	client    *http.Client
	logger    *slog.Logger
	limiter   *rate.Limiter

	// pages maps page number to its immutable bytes. Eviction is safe while
	// an executor call still holds a page: slices are never mutated, so a
	// reader's reference keeps the bytes alive independently of the cache.
	pages *lru.Cache[int64, []byte]
	group singleflight.Group

	mu       sync.Mutex
	size     int64
	sized    bool
	fallback bool
	whole    []byte
	lastErr  error

	hits    atomic.Int64
	misses  atomic.Int64
	fetches atomic.Int64
}

// New creates a Store for the file at cfg.URL. No network activity happens
// until the first read.
func New(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, errors.New("pager: URL is required")
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.PageSize%4096 != 0 {
		return nil, fmt.Errorf("pager: page size %d is not a multiple of 4096", cfg.PageSize)
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultAttempts
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = defaultRetryBase
	}
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	limit := cfg.FetchRate
	if limit <= 0 {
		limit = rate.Inf
	}

	pages, err := lru.New[int64, []byte](cfg.MaxPages)
	if err != nil {
		return nil, fmt.Errorf("pager: page cache: %w", err)
	}

	return &Store{
		url:       cfg.URL,
		pageSize:  cfg.PageSize,
		attempts:  cfg.MaxAttempts,
		retryBase: cfg.RetryBase,
		client:    cfg.Client,
		logger:    cfg.Logger,
		limiter:   rate.NewLimiter(limit, 1),
		pages:     pages,
	}, nil
}

// Size returns the remote file size, probing it on first use.
func (s *Store) Size(ctx context.Context) (int64, error) {
	s.mu.Lock()
	if s.sized {
		size := s.size
		s.mu.Unlock()
		return size, nil
	}
	s.mu.Unlock()

	// Probe with a one-byte ranged GET: a 206 carries the total length in
	// Content-Range, a 200 hands us the whole file and flips fallback mode.
	_, contentRange, err := s.fetchWithRetry(ctx, 0, 0)
	if err != nil && !errors.Is(err, errRangeUnsupported) {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sized {
		return s.size, nil
	}

	total, perr := parseContentRangeTotal(contentRange)
	if perr != nil {
		return 0, &FetchError{URL: s.url, Attempts: 1, Err: perr}
	}
	s.size = total
	s.sized = true
	return s.size, nil
}

// FetchRange returns length bytes starting at offset. Requests are served
// from cached pages where possible.
func (s *Store) FetchRange(ctx context.Context, offset, length int64) ([]byte, error) {
	buf := make([]byte, length)
	if err := s.readAt(ctx, buf, offset); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadAt implements io.ReaderAt for the VFS layer. Reads past EOF zero-fill,
// matching SQLite's short-read expectations. The last failure is retained
// for the executor to recover the typed error lost through the driver
// boundary (see TakeError).
func (s *Store) ReadAt(p []byte, off int64) (int, error) {
	if err := s.readAt(context.Background(), p, off); err != nil {
		s.setLastErr(err)
		return 0, err
	}
	return len(p), nil
}

func (s *Store) readAt(ctx context.Context, p []byte, off int64) error {
	size, err := s.Size(ctx)
	if err != nil {
		return err
	}

	if whole := s.wholeFile(); whole != nil {
		copyZeroFill(p, whole, off)
		return nil
	}

	for filled := int64(0); filled < int64(len(p)); {
		cur := off + filled
		if cur >= size {
			zero(p[filled:])
			return nil
		}

		pageNo := cur / s.pageSize
		page, err := s.page(ctx, pageNo)
		if err != nil {
			return err
		}

		inPage := cur - pageNo*s.pageSize
		n := copy(p[filled:], page[min(inPage, int64(len(page))):])
		if n == 0 {
			// Page shorter than expected (file tail); remainder is zeros.
			zero(p[filled:])
			return nil
		}
		filled += int64(n)
	}
	return nil
}

// page returns the bytes of pageNo, fetching and caching on miss. Concurrent
// callers for the same uncached page share one network fetch.
func (s *Store) page(ctx context.Context, pageNo int64) ([]byte, error) {
	if b, ok := s.pages.Get(pageNo); ok {
		s.hits.Add(1)
		return b, nil
	}
	s.misses.Add(1)

	v, err, _ := s.group.Do(strconv.FormatInt(pageNo, 10), func() (any, error) {
		if b, ok := s.pages.Get(pageNo); ok {
			return b, nil
		}

		size, err := s.Size(ctx)
		if err != nil {
			return nil, err
		}
		start := pageNo * s.pageSize
		end := start + s.pageSize - 1
		if end > size-1 {
			end = size - 1
		}

		b, _, err := s.fetchWithRetry(ctx, start, end)
		if errors.Is(err, errRangeUnsupported) {
			return s.sliceWhole(start), nil
		}
		if err != nil {
			return nil, err
		}

		s.pages.Add(pageNo, b)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// fetchWithRetry performs a ranged GET with bounded exponential backoff.
// Returns the body and the Content-Range header. When the server ignores the
// range (plain 200), the whole body is retained, fallback mode is entered,
// and errRangeUnsupported is returned so callers serve from the retained
// copy.
func (s *Store) fetchWithRetry(ctx context.Context, start, end int64) ([]byte, string, error) {
	var lastErr error
	attempts := 0

	for attempt := 1; attempt <= s.attempts; attempt++ {
		if attempt > 1 {
			delay := s.retryBase << (attempt - 2)
			s.logger.Warn("range fetch failed, backing off",
				"url", s.url,
				"offset", start,
				"attempt", attempt-1,
				"delay", delay,
				"error", lastErr)
			select {
			case <-ctx.Done():
				return nil, "", &FetchError{URL: s.url, Offset: start, Length: end - start + 1, Attempts: attempts, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}

		attempts++
		body, contentRange, err := s.fetchOnce(ctx, start, end)
		if err == nil || errors.Is(err, errRangeUnsupported) {
			return body, contentRange, err
		}

		lastErr = err
		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			break
		}
	}

	return nil, "", &FetchError{
		URL:      s.url,
		Offset:   start,
		Length:   end - start + 1,
		Attempts: attempts,
		Err:      lastErr,
	}
}

func (s *Store) fetchOnce(ctx context.Context, start, end int64) ([]byte, string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPartialContent:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, "", err
		}
		s.fetches.Add(1)
		return body, resp.Header.Get("Content-Range"), nil

	case http.StatusOK:
		// Server ignored the range. Take the whole file once and serve all
		// future reads from it.
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, "", err
		}
		s.fetches.Add(1)
		s.enterFallback(body)
		return nil, "", errRangeUnsupported

	default:
		return nil, "", &statusError{status: resp.StatusCode}
	}
}

func (s *Store) enterFallback(body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fallback {
		return
	}
	s.fallback = true
	s.whole = body
	s.size = int64(len(body))
	s.sized = true
	s.logger.Info("range requests unsupported, switched to whole-file mode",
		"url", s.url,
		"size", s.size)
}

func (s *Store) wholeFile() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.whole
}

func (s *Store) sliceWhole(start int64) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if start >= int64(len(s.whole)) {
		return nil
	}
	end := start + s.pageSize
	if end > int64(len(s.whole)) {
		end = int64(len(s.whole))
	}
	return s.whole[start:end]
}

// TakeError returns and clears the most recent read failure. The SQLite
// driver flattens VFS errors into generic I/O codes; the executor calls this
// to restore the typed error for propagation.
func (s *Store) TakeError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.lastErr
	s.lastErr = nil
	return err
}

func (s *Store) setLastErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

// Stats returns a snapshot of cache and network counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	fallback := s.fallback
	s.mu.Unlock()

	return Stats{
		PagesCached: s.pages.Len(),
		Hits:        s.hits.Load(),
		Misses:      s.misses.Load(),
		Fetches:     s.fetches.Load(),
		Fallback:    fallback,
	}
}

// parseContentRangeTotal extracts the total length from a Content-Range
// header such as "bytes 0-0/12345".
func parseContentRangeTotal(header string) (int64, error) {
	idx := strings.LastIndexByte(header, '/')
	if idx < 0 {
		return 0, fmt.Errorf("malformed Content-Range %q", header)
	}
	total, err := strconv.ParseInt(header[idx+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed Content-Range %q: %w", header, err)
	}
	return total, nil
}

func copyZeroFill(dst, src []byte, off int64) {
	if off >= int64(len(src)) {
		zero(dst)
		return
	}
	n := copy(dst, src[off:])
	zero(dst[n:])
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
