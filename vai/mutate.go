package vai

// variant returns a clone with every matrix perturbed.
//
// The input-facing matrix moves at the full intensity. Every later matrix
// uses intensity / (1 + total weights), so the perturbation of the deeper
// layers per call stays roughly constant as the network grows. The returned
// clone carries the generator state from before the draw; only c's
// generator advances.
func (c *core) variant(intensity float32) core {
	out := c.clone()
	scale := intensity / float32(1+c.ParamCount())
	rng := c.rng()
	for i, m := range c.layers {
		if i == 0 {
			out.layers[i] = m.perturb(rng.Float32, intensity)
			continue
		}
		out.layers[i] = m.perturb(rng.Float32, scale)
	}
	return out
}

// layerVariant returns a clone with exactly one matrix perturbed.
// The matrix is picked uniformly among all matrices and intensity is scaled
// by that matrix's own weight count plus one.
func (c *core) layerVariant(intensity float32) core {
	out := c.clone()
	if len(c.layers) == 0 {
		return out
	}
	rng := c.rng()
	idx := randIndex(rng, len(c.layers))
	m := c.layers[idx]
	out.layers[idx] = m.perturb(rng.Float32, intensity/float32(1+m.Len()))
	return out
}
