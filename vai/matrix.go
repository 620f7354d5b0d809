package vai

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// Matrix is a dense row-major matrix of float32 weights.
// A Matrix with R rows and C columns maps a vector of length C to one of length R.
type Matrix struct {
	rows, cols int
	data       []float32
}

// NewMatrix returns a zero-filled rows x cols matrix.
func NewMatrix(rows, cols int) Matrix {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("vai: negative matrix dimension %dx%d", rows, cols))
	}
	return Matrix{rows: rows, cols: cols, data: make([]float32, rows*cols)}
}

// NewMatrixFromRows builds a matrix from a slice of equally long rows.
func NewMatrixFromRows(rows [][]float32) (Matrix, error) {
	if len(rows) == 0 {
		return NewMatrix(0, 0), nil
	}
	m := NewMatrix(len(rows), len(rows[0]))
	for r, row := range rows {
		if len(row) != m.cols {
			return Matrix{}, fmt.Errorf("row %d has %d columns, expected %d", r, len(row), m.cols)
		}
		copy(m.data[r*m.cols:], row)
	}
	return m, nil
}

// Dims returns the number of rows and columns.
func (m Matrix) Dims() (rows, cols int) { return m.rows, m.cols }

// Len is the number of weights held by the matrix.
func (m Matrix) Len() int { return len(m.data) }

// At returns the weight at row r, column c.
func (m Matrix) At(r, c int) float32 { return m.data[r*m.cols+c] }

// Row returns a copy of row r.
func (m Matrix) Row(r int) []float32 {
	out := make([]float32, m.cols)
	copy(out, m.data[r*m.cols:(r+1)*m.cols])
	return out
}

// Clone returns a deep copy.
func (m Matrix) Clone() Matrix {
	data := make([]float32, len(m.data))
	copy(data, m.data)
	return Matrix{rows: m.rows, cols: m.cols, data: data}
}

// Equal reports whether both matrices have the same shape and bit-identical weights.
func (m Matrix) Equal(other Matrix) bool {
	if m.rows != other.rows || m.cols != other.cols {
		return false
	}
	for i, v := range m.data {
		if math.Float32bits(v) != math.Float32bits(other.data[i]) {
			return false
		}
	}
	return true
}

// MulVec computes m * x. The caller guarantees len(x) == cols.
func (m Matrix) MulVec(x []float32) []float32 {
	y := make([]float32, m.rows)
	if m.rows == 0 || m.cols == 0 {
		return y
	}
	a := blas32.General{Rows: m.rows, Cols: m.cols, Stride: m.cols, Data: m.data}
	blas32.Gemv(blas.NoTrans, 1, a,
		blas32.Vector{N: m.cols, Inc: 1, Data: x},
		0, blas32.Vector{N: m.rows, Inc: 1, Data: y})
	return y
}

// perturb returns a copy of m with scale*InfiniteMap(u) added to every weight,
// drawing one uniform sample per weight from next.
func (m Matrix) perturb(next func() float32, scale float32) Matrix {
	out := m.Clone()
	for i := range out.data {
		out.data[i] += scale * InfiniteMap(next())
	}
	return out
}
