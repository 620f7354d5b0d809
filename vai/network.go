package vai

import (
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
)

// Network is the capability shared by every network representation:
// construct, mutate, evaluate and serialize. N is the concrete network type
// returned by the mutation operators, so callers written against Network[N]
// can swap representations without touching evaluation or mutation code.
type Network[N any] interface {
	// Process runs input through the network and returns the output layer.
	Process(input []float32) ([]float32, error)
	// ProcessTransparent returns every layer vector: the input, each hidden
	// layer before ReLU, then the output.
	ProcessTransparent(input []float32) ([][]float32, error)
	// CreateVariant perturbs every weight matrix.
	CreateVariant(intensity float32) N
	// CreateLayerVariant perturbs exactly one weight matrix.
	CreateLayerVariant(intensity float32) N
	// Layers returns copies of the weight matrices, input-facing first.
	Layers() []Matrix
	// ParamCount is the total number of weights.
	ParamCount() int
	// GeneratorState and RestoreGenerator expose the owned generator so a
	// network can be checkpointed and resumed deterministically.
	GeneratorState() ([]byte, error)
	RestoreGenerator(state []byte) error

	io.WriterTo
}

// seedStream derives the second PCG word from the seed.
const seedStream = 0x9e3779b97f4a7c15

// core holds the state shared by Fixed and Dynamic: the weight matrices and the
// generator that drives mutation. The generator is held by value, so copying a
// core copies the generator state exactly.
type core struct {
	layers []Matrix
	src    rand.PCG
}

func newCore(seed uint64, layers []Matrix) core {
	return core{layers: layers, src: *rand.NewPCG(seed, seed^seedStream)}
}

// rng wraps the owned generator. Draws advance c.src.
func (c *core) rng() *rand.Rand {
	return rand.New(&c.src)
}

// clone deep-copies the weights and duplicates the generator state.
func (c *core) clone() core {
	layers := make([]Matrix, len(c.layers))
	for i, m := range c.layers {
		layers[i] = m.Clone()
	}
	return core{layers: layers, src: c.src}
}

// Layers returns copies of the weight matrices, input-facing first.
func (c *core) Layers() []Matrix {
	return c.clone().layers
}

// ParamCount is the total number of weights across all matrices.
func (c *core) ParamCount() int {
	total := 0
	for _, m := range c.layers {
		total += m.Len()
	}
	return total
}

// GeneratorState returns the binary form of the owned generator.
func (c *core) GeneratorState() ([]byte, error) {
	return c.src.MarshalBinary()
}

// RestoreGenerator replaces the generator state with one produced by GeneratorState.
func (c *core) RestoreGenerator(state []byte) error {
	var src rand.PCG
	if err := src.UnmarshalBinary(state); err != nil {
		return fmt.Errorf("failed to restore generator state: %w", err)
	}
	c.src = src
	return nil
}

// Reseed restarts the owned generator from seed. Weights are untouched.
func (c *core) Reseed(seed uint64) {
	c.src.Seed(seed, seed^seedStream)
}

// inputWidth is the expected input length, or -1 when any length is accepted.
func (c *core) inputWidth() int {
	if len(c.layers) == 0 {
		return -1
	}
	_, cols := c.layers[0].Dims()
	return cols
}

func (c *core) checkInput(input []float32, want int) error {
	if want >= 0 && len(input) != want {
		return &DimensionError{Want: want, Got: len(input)}
	}
	return nil
}

// text renders a network through its WriteTo method.
func text(w io.WriterTo) string {
	var sb strings.Builder
	if _, err := w.WriteTo(&sb); err != nil {
		return fmt.Sprintf("<unprintable network: %v>", err)
	}
	return sb.String()
}
