package vai

import (
	"fmt"
	"io"
	"math/rand/v2"
)

// Shape describes the dimensions of a fixed-shape network. Implementations are
// zero-size types whose methods return constants, which makes the shape part
// of the network's Go type:
//
//	type Linear struct{}
//
//	func (Linear) Inputs() int      { return 2 }
//	func (Linear) Outputs() int     { return 1 }
//	func (Linear) Hidden() int      { return 4 }
//	func (Linear) ExtraLayers() int { return 0 }
//
//	net := vai.NewFixedDeterministic[Linear](0)
type Shape interface {
	Inputs() int      // Number of inputs. One of them should be a constant for a bias.
	Outputs() int     // Number of outputs
	Hidden() int      // Neurons in every hidden layer
	ExtraLayers() int // Hidden layers beyond the first, which always exists
}

// Fixed is a network whose layout is given by the Shape S: an input matrix
// (Hidden x Inputs), ExtraLayers hidden matrices (Hidden x Hidden) and an
// output matrix (Outputs x Hidden). Serialized fixed networks carry no shape
// information; the reader's S must match the writer's.
type Fixed[S Shape] struct {
	core
}

// NewFixed creates a zero-weight network with a randomly seeded generator.
func NewFixed[S Shape]() *Fixed[S] {
	return NewFixedDeterministic[S](rand.Uint64())
}

// NewFixedDeterministic creates a zero-weight network whose generator is seeded
// with seed, so mutation sequences are reproducible.
func NewFixedDeterministic[S Shape](seed uint64) *Fixed[S] {
	return &Fixed[S]{core: newCore(seed, fixedLayout[S]())}
}

func fixedLayout[S Shape]() []Matrix {
	var s S
	layers := make([]Matrix, 0, s.ExtraLayers()+2)
	layers = append(layers, NewMatrix(s.Hidden(), s.Inputs()))
	for i := 0; i < s.ExtraLayers(); i++ {
		layers = append(layers, NewMatrix(s.Hidden(), s.Hidden()))
	}
	return append(layers, NewMatrix(s.Outputs(), s.Hidden()))
}

// Process runs input through the network. input must hold S.Inputs() values.
func (f *Fixed[S]) Process(input []float32) ([]float32, error) {
	var s S
	if err := f.checkInput(input, s.Inputs()); err != nil {
		return nil, err
	}
	return f.process(input), nil
}

// ProcessTransparent runs input through the network and returns the value of
// every node: input, hidden and output. Hidden values are reported before ReLU
// so no information is lost.
func (f *Fixed[S]) ProcessTransparent(input []float32) ([][]float32, error) {
	var s S
	if err := f.checkInput(input, s.Inputs()); err != nil {
		return nil, err
	}
	return f.processTransparent(input), nil
}

// CreateVariant returns a randomly perturbed copy of f.
//
// Intensity favors low magnitude changes, but any single weight can still move
// by an arbitrary amount. The intensity is divided by the number of weights in
// the network plus one, so larger networks are not destabilized more per call.
// f's generator advances; f's weights are untouched.
func (f *Fixed[S]) CreateVariant(intensity float32) *Fixed[S] {
	return &Fixed[S]{core: f.variant(intensity)}
}

// CreateLayerVariant returns a copy of f with one randomly chosen matrix
// perturbed. The intensity is divided by that matrix's weight count plus one.
func (f *Fixed[S]) CreateLayerVariant(intensity float32) *Fixed[S] {
	return &Fixed[S]{core: f.layerVariant(intensity)}
}

// WriteTo writes the input, hidden and output matrices in order, each as
// written by WriteMatrix.
func (f *Fixed[S]) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	for i, m := range f.layers {
		if err := WriteMatrix(cw, m); err != nil {
			return cw.n, fmt.Errorf("failed to write matrix %d: %w", i, err)
		}
	}
	return cw.n, nil
}

func (f *Fixed[S]) String() string { return text(f) }

// ReadFixed reads a network written by Fixed.WriteTo. The returned network has
// a randomly seeded generator.
func ReadFixed[S Shape](r io.Reader) (*Fixed[S], error) {
	return ReadFixedFrom[S](NewMatrixReader(r))
}

// ReadFixedFrom reads the next fixed network from mr.
func ReadFixedFrom[S Shape](mr *MatrixReader) (*Fixed[S], error) {
	layers := fixedLayout[S]()
	for i, m := range layers {
		rows, cols := m.Dims()
		read, err := mr.ReadMatrix(rows, cols)
		if err != nil {
			return nil, fmt.Errorf("matrix %d: %w", i, err)
		}
		layers[i] = read
	}
	return &Fixed[S]{core: newCore(rand.Uint64(), layers)}, nil
}
