package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShape2D(t *testing.T) {
	s, err := NewShape2D(6, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, s.Dims())

	_, err = NewShape2D(5, 2, 3)
	assert.ErrorIs(t, err, ErrInternal)
	_, err = NewShape2D(0, 0, 3)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestSplitRows(t *testing.T) {
	rows, err := splitRows([]float32{1, 2, 3, 4, 5, 6}, []int64{2, 3}, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2, 3}, {4, 5, 6}}, rows)

	_, err = splitRows([]float32{1, 2, 3}, []int64{3}, 3)
	assert.ErrorIs(t, err, ErrInternal)

	_, err = splitRows([]float32{1, 2, 3, 4}, []int64{2, 2}, 3)
	assert.ErrorContains(t, err, "batch size mismatch")

	_, err = splitRows([]float32{1, 2}, []int64{2, 2}, 2)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestMockSession_Deterministic(t *testing.T) {
	m := NewMockSession(8)
	// same ids, different padding width
	a, err := m.Run([]int64{101, 5, 102}, []int64{1, 1, 1}, 1, 3)
	require.NoError(t, err)
	b, err := m.Run([]int64{101, 5, 102, 0, 0}, []int64{1, 1, 1, 0, 0}, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a[0], 8)
	assert.Equal(t, []int{1, 1}, m.Batches())

	_, err = m.Run([]int64{1, 2}, []int64{1}, 1, 2)
	assert.Error(t, err)
}

func TestNewMockSession_DefaultDimension(t *testing.T) {
	m := NewMockSession(0)
	rows, err := m.Run([]int64{1}, []int64{1}, 1, 1)
	require.NoError(t, err)
	assert.Len(t, rows[0], 384)
	assert.Equal(t, "MockExecutionProvider", m.Provider())
}
