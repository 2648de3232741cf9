// Package matrix provides the dense point container shared by all tree
// builders and search frontends. Points are stored row-major: one row per
// point, one column per dimension. A Dense is immutable once handed to a
// tree builder; builders that reorder points work on their own copy.
package matrix

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrRaggedRow indicates that an input row does not match the width of the
// first row.
type ErrRaggedRow struct {
	Row      int
	Expected int
	Actual   int
}

func (e *ErrRaggedRow) Error() string {
	return fmt.Sprintf("ragged row %d: expected %d columns, got %d", e.Row, e.Expected, e.Actual)
}

// ErrShapeMismatch indicates that a flat data slice does not match the
// requested rows x cols shape.
type ErrShapeMismatch struct {
	Rows int
	Cols int
	Len  int
}

func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("shape mismatch: %dx%d needs %d values, got %d", e.Rows, e.Cols, e.Rows*e.Cols, e.Len)
}

// Dense is a row-major matrix of float64 points.
type Dense struct {
	rows int
	cols int
	data []float64
}

// New returns a zeroed rows x cols matrix. Negative dimensions panic, as
// they indicate a programming error rather than bad input data.
func New(rows, cols int) *Dense {
	if rows < 0 || cols < 0 {
		panic("matrix: negative dimension")
	}

	return &Dense{
		rows: rows,
		cols: cols,
		data: make([]float64, rows*cols),
	}
}

// FromRows builds a matrix from point slices. All rows must have the same
// width as the first.
func FromRows(rows [][]float64) (*Dense, error) {
	if len(rows) == 0 {
		return &Dense{}, nil
	}

	cols := len(rows[0])

	m := New(len(rows), cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, &ErrRaggedRow{Row: i, Expected: cols, Actual: len(r)}
		}

		copy(m.data[i*cols:(i+1)*cols], r)
	}

	return m, nil
}

// FromFlat wraps an existing row-major slice without copying. The caller
// must not modify data afterwards.
func FromFlat(rows, cols int, data []float64) (*Dense, error) {
	if rows < 0 || cols < 0 {
		panic("matrix: negative dimension")
	}

	if len(data) != rows*cols {
		return nil, &ErrShapeMismatch{Rows: rows, Cols: cols, Len: len(data)}
	}

	return &Dense{rows: rows, cols: cols, data: data}, nil
}

// Rows returns the number of points.
func (m *Dense) Rows() int { return m.rows }

// Cols returns the dimensionality.
func (m *Dense) Cols() int { return m.cols }

// Row returns the i-th point as a zero-copy slice.
func (m *Dense) Row(i int) []float64 {
	return m.data[i*m.cols : (i+1)*m.cols : (i+1)*m.cols]
}

// At returns the value at row i, column j.
func (m *Dense) At(i, j int) float64 { return m.data[i*m.cols+j] }

// Set stores v at row i, column j.
func (m *Dense) Set(i, j int, v float64) { m.data[i*m.cols+j] = v }

// Data exposes the backing slice. Callers must treat it as read-only.
func (m *Dense) Data() []float64 { return m.data }

// Clone returns a deep copy.
func (m *Dense) Clone() *Dense {
	c := New(m.rows, m.cols)
	copy(c.data, m.data)

	return c
}

// PermutedCopy returns a copy with row newIdx holding the original row
// oldFromNew[newIdx]. The permutation must cover every row exactly once;
// only its length is validated here.
func (m *Dense) PermutedCopy(oldFromNew []int) (*Dense, error) {
	if len(oldFromNew) != m.rows {
		return nil, &ErrShapeMismatch{Rows: len(oldFromNew), Cols: m.cols, Len: len(m.data)}
	}

	c := New(m.rows, m.cols)
	for newIdx, oldIdx := range oldFromNew {
		copy(c.Row(newIdx), m.Row(oldIdx))
	}

	return c, nil
}

// FromGonum copies a gonum matrix into a Dense.
func FromGonum(src mat.Matrix) *Dense {
	rows, cols := src.Dims()

	m := New(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.data[i*cols+j] = src.At(i, j)
		}
	}

	return m
}

// Gonum returns a gonum view of a fresh copy of the matrix, so callers may
// mutate the result without breaking the immutability of the original.
func (m *Dense) Gonum() *mat.Dense {
	if m.rows == 0 || m.cols == 0 {
		return &mat.Dense{}
	}

	data := make([]float64, len(m.data))
	copy(data, m.data)

	return mat.NewDense(m.rows, m.cols, data)
}
