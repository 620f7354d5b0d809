package vai

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// WriteMatrix writes m with space-delimited columns and newline-delimited rows,
// followed by one blank line terminating the matrix.
func WriteMatrix(w io.Writer, m Matrix) error {
	bw := bufio.NewWriter(w)
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			if c > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.FormatFloat(float64(m.At(r, c)), 'g', -1, 32))
		}
		bw.WriteByte('\n')
	}
	bw.WriteByte('\n')
	return bw.Flush()
}

// writeCount writes a framing line holding a single non-negative integer.
func writeCount(w io.Writer, n int) error {
	_, err := fmt.Fprintf(w, "%d\n", n)
	return err
}

const (
	// MaxCount bounds every count line: matrix counts and row counts.
	MaxCount = 1 << 24
	// MaxLineBytes bounds a single text line.
	MaxLineBytes = 1 << 30
)

// MatrixReader reads matrices written by WriteMatrix from a line oriented stream.
// Several networks may be read back to back from one MatrixReader.
type MatrixReader struct {
	scanner *bufio.Scanner
	line    int
}

// NewMatrixReader wraps r for matrix reading.
func NewMatrixReader(r io.Reader) *MatrixReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	return &MatrixReader{scanner: scanner}
}

// nextFields returns the tokens of the next non-blank line.
// ok is false once the input is exhausted.
func (mr *MatrixReader) nextFields() (fields []string, ok bool, err error) {
	for mr.scanner.Scan() {
		mr.line++
		fields = strings.Fields(mr.scanner.Text())
		if len(fields) == 0 {
			continue // Blank lines never count as data
		}
		return fields, true, nil
	}
	if err := mr.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, false, &FormatError{Line: mr.line + 1, Reason: fmt.Sprintf("line exceeds %d bytes", MaxLineBytes)}
		}
		return nil, false, fmt.Errorf("reading line %d: %w", mr.line+1, err)
	}
	return nil, false, nil
}

// ReadCount reads a framing line holding one non-negative integer.
func (mr *MatrixReader) ReadCount() (int, error) {
	fields, ok, err := mr.nextFields()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, &FormatError{Reason: "missing count line"}
	}
	if len(fields) != 1 {
		return 0, &FormatError{Line: mr.line, Reason: fmt.Sprintf("count line has %d tokens, expected 1", len(fields))}
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return 0, &FormatError{Line: mr.line, Reason: fmt.Sprintf("invalid count %q", fields[0])}
	}
	if n > MaxCount {
		return 0, &FormatError{Line: mr.line, Reason: fmt.Sprintf("count %d exceeds %d", n, MaxCount)}
	}
	return n, nil
}

// ReadMatrix reads a rows x cols matrix. Blank lines are skipped.
// A matrix with zero columns consumes no input since its rows are blank.
// Storage grows with the rows actually read, so a row count larger than the
// input yields a FormatError rather than a large allocation.
func (mr *MatrixReader) ReadMatrix(rows, cols int) (Matrix, error) {
	if rows < 0 || cols < 0 {
		return Matrix{}, &FormatError{Line: mr.line, Reason: fmt.Sprintf("negative matrix dimension %dx%d", rows, cols)}
	}
	if cols == 0 {
		return Matrix{rows: rows, data: []float32{}}, nil
	}
	return mr.readRows(rows, cols, nil)
}

// readRows appends rows of cols values each to data.
func (mr *MatrixReader) readRows(rows, cols int, data []float32) (Matrix, error) {
	if data == nil {
		data = []float32{}
	}
	for r := len(data) / cols; r < rows; r++ {
		fields, ok, err := mr.nextFields()
		if err != nil {
			return Matrix{}, err
		}
		if !ok {
			return Matrix{}, &FormatError{Reason: fmt.Sprintf("expected %d rows, found %d", rows, r)}
		}
		if data, err = mr.appendRow(data, fields, cols); err != nil {
			return Matrix{}, err
		}
	}
	return Matrix{rows: rows, cols: cols, data: data}, nil
}

// readMatrixInferCols reads a matrix whose column count is taken from its first row.
func (mr *MatrixReader) readMatrixInferCols(rows int) (Matrix, error) {
	if rows == 0 {
		return NewMatrix(0, 0), nil
	}
	fields, ok, err := mr.nextFields()
	if err != nil {
		return Matrix{}, err
	}
	if !ok {
		return Matrix{}, &FormatError{Reason: fmt.Sprintf("expected %d rows, found 0", rows)}
	}
	first, err := mr.appendRow(nil, fields, len(fields))
	if err != nil {
		return Matrix{}, err
	}
	return mr.readRows(rows, len(fields), first)
}

// appendRow parses fields into dst. The column count is checked before
// anything is allocated.
func (mr *MatrixReader) appendRow(dst []float32, fields []string, cols int) ([]float32, error) {
	if len(fields) != cols {
		return nil, &FormatError{Line: mr.line, Reason: fmt.Sprintf("row has %d columns, expected %d", len(fields), cols)}
	}
	for _, tok := range fields {
		v, err := strconv.ParseFloat(tok, 32)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &FormatError{Line: mr.line, Reason: fmt.Sprintf("invalid number %q", tok)}
		}
		dst = append(dst, float32(v))
	}
	return dst, nil
}

// countingWriter tracks bytes written for io.WriterTo implementations.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
