package vai

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteMatrixFormat(t *testing.T) {
	m := mustMatrix(t, [][]float32{{1, -0.5}, {0, 2.25}})
	var buf bytes.Buffer
	require.NoError(t, WriteMatrix(&buf, m))
	assert.Equal(t, "1 -0.5\n0 2.25\n\n", buf.String())
}

func TestMatrixRoundTrip(t *testing.T) {
	m := mustMatrix(t, [][]float32{
		{0.1, -3.5e-7, 12345.678},
		{1e10, -0, 1.0 / 3},
	})
	var buf bytes.Buffer
	require.NoError(t, WriteMatrix(&buf, m))

	got, err := NewMatrixReader(&buf).ReadMatrix(2, 3)
	require.NoError(t, err)
	assert.True(t, m.Equal(got), "got %v", got.data)
}

func TestReadMatrixSkipsBlankLines(t *testing.T) {
	in := "\n  \n1 2\n\n\t\n3 4\n"
	m, err := NewMatrixReader(strings.NewReader(in)).ReadMatrix(2, 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, m.Row(0))
	assert.Equal(t, []float32{3, 4}, m.Row(1))
}

func TestReadMatrixSequential(t *testing.T) {
	in := "1 2\n\n3\n4\n\n"
	mr := NewMatrixReader(strings.NewReader(in))
	a, err := mr.ReadMatrix(1, 2)
	require.NoError(t, err)
	b, err := mr.ReadMatrix(2, 1)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, a.Row(0))
	assert.Equal(t, float32(4), b.At(1, 0))
}

func TestReadMatrixErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		line int
	}{
		{"too many columns", "1 2\n3 4 5\n", 2},
		{"too few columns", "\n1\n", 2},
		{"bad number", "1 x\n3 4\n", 1},
		{"not finite", "1 NaN\n3 4\n", 1},
		{"too few rows", "1 2\n\n", 0},
		{"empty input", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMatrixReader(strings.NewReader(tt.in)).ReadMatrix(2, 2)
			var fe *FormatError
			require.True(t, errors.As(err, &fe), "expected FormatError, got %v", err)
			assert.Equal(t, tt.line, fe.Line)
		})
	}
}

func TestReadCount(t *testing.T) {
	n, err := NewMatrixReader(strings.NewReader("\n 3 \n")).ReadCount()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, in := range []string{"", "-1\n", "two\n", "1 2\n", "1.5\n"} {
		_, err := NewMatrixReader(strings.NewReader(in)).ReadCount()
		var fe *FormatError
		assert.True(t, errors.As(err, &fe), "input %q: expected FormatError, got %v", in, err)
	}
}

func TestReadMatrixZeroColumns(t *testing.T) {
	mr := NewMatrixReader(strings.NewReader("7\n"))
	m, err := mr.ReadMatrix(3, 0)
	require.NoError(t, err)
	rows, cols := m.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 0, cols)

	n, err := mr.ReadCount()
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}
