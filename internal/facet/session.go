package facet

import (
	"context"
	"sync/atomic"
)

// Session serializes replies for one caller. Every request gets a strictly
// increasing sequence number from an atomic counter; a reply is delivered
// only if no newer request was issued meanwhile and no newer reply has
// already been delivered. This prevents out-of-order stale updates when the
// caller's filter state changes before a prior call resolves.
//
// In-flight page fetches are not aborted on staleness: their bytes remain
// useful in the page cache. Only the reply is discarded.
//
// Debouncing of rapid successive calls is a caller responsibility.
type Session struct {
	svc       *Service
	issued    atomic.Int64
	delivered atomic.Int64
}

// NewSession wraps svc with per-caller reply ordering.
func NewSession(svc *Service) *Session {
	return &Session{svc: svc}
}

// Reply is a delivered search result tagged with its sequence number.
type Reply struct {
	Seq    int64
	Result *SearchResult
}

// Search runs a search under the next sequence number. Returns ErrStale when
// a newer request superseded this one before its result could be delivered.
func (s *Session) Search(ctx context.Context, fs FilterState) (*Reply, error) {
	seq := s.issued.Add(1)

	result, err := s.svc.Search(ctx, fs)
	if err != nil {
		return nil, err
	}

	if !s.deliver(seq) {
		return nil, ErrStale
	}
	return &Reply{Seq: seq, Result: result}, nil
}

// deliver advances the delivery high-water mark to seq. Returns false when
// seq is stale: already passed by a newer delivery, or superseded by a newer
// issued request.
func (s *Session) deliver(seq int64) bool {
	if seq < s.issued.Load() {
		return false
	}
	for {
		d := s.delivered.Load()
		if seq <= d {
			return false
		}
		if s.delivered.CompareAndSwap(d, seq) {
			return true
		}
	}
}
