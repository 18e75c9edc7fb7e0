package facet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionDeliverOrdering(t *testing.T) {
	s := NewSession(nil)

	// Normal case: each reply is newer than the last.
	seq1 := s.issued.Add(1)
	assert.True(t, s.deliver(seq1))
	seq2 := s.issued.Add(1)
	assert.True(t, s.deliver(seq2))

	// A reply older than one already delivered is stale.
	assert.False(t, s.deliver(seq1))
}

func TestSessionDeliverSuperseded(t *testing.T) {
	s := NewSession(nil)

	// Request 1 is issued, then request 2 is issued before 1 resolves.
	seq1 := s.issued.Add(1)
	seq2 := s.issued.Add(1)

	// The slow older reply is dropped even though nothing was delivered yet.
	assert.False(t, s.deliver(seq1))
	assert.True(t, s.deliver(seq2))
}

func TestSessionOutOfOrderDelivery(t *testing.T) {
	s := NewSession(nil)

	seq1 := s.issued.Add(1)
	seq2 := s.issued.Add(1)
	seq3 := s.issued.Add(1)

	// The newest reply lands first; everything older is discarded.
	assert.True(t, s.deliver(seq3))
	assert.False(t, s.deliver(seq2))
	assert.False(t, s.deliver(seq1))
}
