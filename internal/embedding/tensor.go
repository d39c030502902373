package embedding

// Shape2D is a checked (Rows, Cols) shape for a flat row-major buffer.
type Shape2D struct {
	Rows int
	Cols int
}

// NewShape2D checks that a buffer of n elements reshapes to exactly rows x cols.
func NewShape2D(n, rows, cols int) (Shape2D, error) {
	if rows <= 0 || cols <= 0 {
		return Shape2D{}, errorf(KindInternal, "invalid tensor shape (%d, %d)", rows, cols)
	}
	if n != rows*cols {
		return Shape2D{}, errorf(KindInternal, "buffer of %d elements does not fit shape (%d, %d)", n, rows, cols)
	}
	return Shape2D{Rows: rows, Cols: cols}, nil
}

// Dims returns the shape as int64 dimensions.
func (s Shape2D) Dims() []int64 {
	return []int64{int64(s.Rows), int64(s.Cols)}
}

// splitRows copies a rank-2 output of the given shape into one slice per row, checking that
// the first dimension matches the batch that was submitted.
func splitRows(data []float32, shape []int64, batch int) ([][]float32, error) {
	if len(shape) != 2 {
		return nil, errorf(KindInternal, "expected 2D output, got %dD", len(shape))
	}
	rows, cols := int(shape[0]), int(shape[1])
	if rows != batch {
		return nil, errorf(KindInternal, "batch size mismatch: expected %d, got %d", batch, rows)
	}
	if cols <= 0 || len(data) < rows*cols {
		return nil, errorf(KindInternal, "output holds %d values, shape (%d, %d)", len(data), rows, cols)
	}
	out := make([][]float32, rows)
	for i := range out {
		row := make([]float32, cols)
		copy(row, data[i*cols:(i+1)*cols])
		out[i] = row
	}
	return out, nil
}
