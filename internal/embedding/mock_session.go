package embedding

import (
	"math"
	"sync"
)

// MockSession is a deterministic Session for tests and the mock backend. Each output row is
// derived from the row's unpadded token ids, so the same text always gets the same vector no
// matter which batch or padding width it arrives in. Rows are not normalized.
type MockSession struct {
	dimensions int

	mu      sync.Mutex
	batches []int
}

// NewMockSession returns a session producing rows of the given width (384 when <= 0).
func NewMockSession(dimensions int) *MockSession {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockSession{dimensions: dimensions}
}

// Run returns one pseudo-embedding per row.
func (m *MockSession) Run(ids, mask []int64, batch, seqLen int) ([][]float32, error) {
	if _, err := NewShape2D(len(ids), batch, seqLen); err != nil {
		return nil, err
	}
	if _, err := NewShape2D(len(mask), batch, seqLen); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.batches = append(m.batches, batch)
	m.mu.Unlock()

	out := make([][]float32, batch)
	for r := 0; r < batch; r++ {
		var h uint32 = 17
		for c := 0; c < seqLen; c++ {
			if mask[r*seqLen+c] == 0 {
				continue
			}
			h = 31*h + uint32(ids[r*seqLen+c])
		}
		row := make([]float32, m.dimensions)
		for i := range row {
			row[i] = float32(math.Sin(float64(h)*float64(i+1))*0.1 + 0.01)
		}
		out[r] = row
	}
	return out, nil
}

// Batches returns the batch size of every Run call so far.
func (m *MockSession) Batches() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.batches...)
}

// Provider reports the mock provider name.
func (m *MockSession) Provider() string { return "MockExecutionProvider" }

// Close is a no-op for MockSession.
func (m *MockSession) Close() error { return nil }
