package vai

// process evaluates the network. Hidden layers apply ReLU, the output layer
// does not. With no matrices the input is returned unchanged.
// The caller has already validated the input width.
func (c *core) process(input []float32) []float32 {
	n := len(c.layers)
	if n == 0 {
		out := make([]float32, len(input))
		copy(out, input)
		return out
	}
	h := input
	for _, m := range c.layers[:n-1] {
		h = m.MulVec(h)
		relu(h)
	}
	return c.layers[n-1].MulVec(h)
}

// processTransparent is process but records the input, every hidden layer
// before ReLU and the output.
func (c *core) processTransparent(input []float32) [][]float32 {
	in := make([]float32, len(input))
	copy(in, input)
	trace := [][]float32{in}

	n := len(c.layers)
	if n == 0 {
		return trace
	}
	h := in
	for _, m := range c.layers[:n-1] {
		pre := m.MulVec(h)
		trace = append(trace, pre)
		h = make([]float32, len(pre))
		copy(h, pre)
		relu(h)
	}
	return append(trace, c.layers[n-1].MulVec(h))
}
