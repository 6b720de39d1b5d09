package runtime

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"sync"

	"github.com/kotoba-ml/umekomi/pkg/utils"
)

// MockSession is a deterministic Session for tests and development. The same
// text always yields the same unit-length vector of the configured dimension.
type MockSession struct {
	dimension int
	mu        sync.Mutex
	closed    bool
}

// NewMockSession returns a mock session producing vectors of the given dimension.
func NewMockSession(dimension int) *MockSession {
	if dimension <= 0 {
		dimension = 384
	}
	return &MockSession{dimension: dimension}
}

// Embed returns a deterministic embedding derived from the text hash.
func (s *MockSession) Embed(ctx context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, errors.New("session closed")
	}

	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	emb := make([]float32, s.dimension)
	for i := range emb {
		emb[i] = float32(math.Sin(float64(seed%100003)*float64(i+1))*0.1 + 0.01)
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// Dimension returns the embedding dimension.
func (s *MockSession) Dimension() int {
	return s.dimension
}

// Close marks the session closed. Idempotent.
func (s *MockSession) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
