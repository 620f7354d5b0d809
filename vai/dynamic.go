package vai

import (
	"fmt"
	"io"
	"math/rand/v2"
)

// Dynamic is a network whose layer widths are chosen at runtime.
// Serialized dynamic networks describe their own shape.
type Dynamic struct {
	core
	// passthrough is the input width of a network without matrices, or -1 if unknown.
	passthrough int
}

// NewDynamic creates a zero-weight network with a randomly seeded generator.
//
// widths lists the neurons in each layer, starting with the inputs and ending
// with the outputs. With fewer than two widths the network has no matrices and
// maps inputs directly to outputs.
func NewDynamic(widths ...int) *Dynamic {
	return NewDynamicDeterministic(rand.Uint64(), widths...)
}

// NewDynamicDeterministic is NewDynamic with the generator seeded by seed.
func NewDynamicDeterministic(seed uint64, widths ...int) *Dynamic {
	var layers []Matrix
	for i := 0; i+1 < len(widths); i++ {
		layers = append(layers, NewMatrix(widths[i+1], widths[i]))
	}
	d := &Dynamic{core: newCore(seed, layers), passthrough: -1}
	if len(widths) == 1 {
		d.passthrough = widths[0]
	}
	return d
}

// Widths returns the layer widths, inputs first. A network without matrices
// reports its passthrough width, if known.
func (d *Dynamic) Widths() []int {
	if len(d.layers) == 0 {
		if d.passthrough < 0 {
			return nil
		}
		return []int{d.passthrough}
	}
	widths := []int{d.inputWidth()}
	for _, m := range d.layers {
		rows, _ := m.Dims()
		widths = append(widths, rows)
	}
	return widths
}

func (d *Dynamic) expectedInputs() int {
	if len(d.layers) == 0 {
		return d.passthrough
	}
	return d.inputWidth()
}

// Process runs input through the network.
// It returns a *DimensionError if len(input) does not match the input width.
func (d *Dynamic) Process(input []float32) ([]float32, error) {
	if err := d.checkInput(input, d.expectedInputs()); err != nil {
		return nil, err
	}
	return d.process(input), nil
}

// ProcessTransparent runs input through the network and returns the value of
// every node, with hidden values reported before ReLU.
func (d *Dynamic) ProcessTransparent(input []float32) ([][]float32, error) {
	if err := d.checkInput(input, d.expectedInputs()); err != nil {
		return nil, err
	}
	return d.processTransparent(input), nil
}

// CreateVariant returns a randomly perturbed copy of d. See Fixed.CreateVariant.
func (d *Dynamic) CreateVariant(intensity float32) *Dynamic {
	return &Dynamic{core: d.variant(intensity), passthrough: d.passthrough}
}

// CreateLayerVariant returns a copy of d with one randomly chosen matrix
// perturbed. See Fixed.CreateLayerVariant.
func (d *Dynamic) CreateLayerVariant(intensity float32) *Dynamic {
	return &Dynamic{core: d.layerVariant(intensity), passthrough: d.passthrough}
}

// WriteTo writes the matrix count, then every matrix prefixed by its row count.
func (d *Dynamic) WriteTo(w io.Writer) (int64, error) {
	if len(d.layers) > 0 {
		// The input width is inferred from the first row on read.
		if rows, cols := d.layers[0].Dims(); (rows == 0) != (cols == 0) {
			return 0, fmt.Errorf("cannot write widths %v: a zero input or first layer width does not survive reading", d.Widths())
		}
	}
	cw := &countingWriter{w: w}
	if err := writeCount(cw, len(d.layers)); err != nil {
		return cw.n, err
	}
	for i, m := range d.layers {
		rows, _ := m.Dims()
		if err := writeCount(cw, rows); err != nil {
			return cw.n, err
		}
		if err := WriteMatrix(cw, m); err != nil {
			return cw.n, fmt.Errorf("failed to write matrix %d: %w", i, err)
		}
	}
	return cw.n, nil
}

func (d *Dynamic) String() string { return text(d) }

// ReadDynamic reads a network written by Dynamic.WriteTo. The returned network
// has a randomly seeded generator.
func ReadDynamic(r io.Reader) (*Dynamic, error) {
	return ReadDynamicFrom(NewMatrixReader(r))
}

// ReadDynamicFrom reads the next dynamic network from mr.
//
// The first matrix's column count comes from its first row; every later
// matrix must have as many columns as the previous one has rows.
func ReadDynamicFrom(mr *MatrixReader) (*Dynamic, error) {
	count, err := mr.ReadCount()
	if err != nil {
		return nil, fmt.Errorf("matrix count: %w", err)
	}
	var layers []Matrix
	for i := 0; i < count; i++ {
		rows, err := mr.ReadCount()
		if err != nil {
			return nil, fmt.Errorf("matrix %d row count: %w", i, err)
		}
		var m Matrix
		if i == 0 {
			m, err = mr.readMatrixInferCols(rows)
		} else {
			prevRows, _ := layers[i-1].Dims()
			m, err = mr.ReadMatrix(rows, prevRows)
		}
		if err != nil {
			return nil, fmt.Errorf("matrix %d: %w", i, err)
		}
		layers = append(layers, m)
	}
	return &Dynamic{core: newCore(rand.Uint64(), layers), passthrough: -1}, nil
}

var _ Network[*Dynamic] = (*Dynamic)(nil)
