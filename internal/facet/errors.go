package facet

import "errors"

// ErrUnknownDimension is returned by DistinctValues for a dimension that is
// not a known facet.
var ErrUnknownDimension = errors.New("unknown facet dimension")

// ErrStale marks a search reply superseded by a newer request in the same
// session. The result is discarded, not delivered.
var ErrStale = errors.New("stale search reply")
