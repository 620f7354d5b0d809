package vai

import "fmt"

// FormatError reports malformed persisted network text.
type FormatError struct {
	Line   int    // 1-based line number where the problem was found, 0 if at end of input
	Reason string // Human readable description
}

func (e *FormatError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("format error at end of input: %s", e.Reason)
	}
	return fmt.Sprintf("format error on line %d: %s", e.Line, e.Reason)
}

// DimensionError reports an input vector whose length does not match the
// network's input width.
type DimensionError struct {
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("dimension mismatch: network expects %d inputs, got %d", e.Want, e.Got)
}
