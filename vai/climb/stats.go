package climb

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the best-score history of a run.
type Summary struct {
	Iterations int
	Best       float64
	Worst      float64
	Mean       float64
	Stdev      float64 // Sample standard deviation, 0 with fewer than two points
}

// Summary computes statistics over the best score after each iteration.
func (c *Climber[N]) Summary() Summary {
	return summarize(c.History)
}

func summarize(history []float64) Summary {
	if len(history) == 0 {
		return Summary{}
	}
	s := Summary{
		Iterations: len(history),
		Best:       floats.Min(history),
		Worst:      floats.Max(history),
	}
	if len(history) < 2 {
		s.Mean = history[0]
		return s
	}
	s.Mean, s.Stdev = stat.MeanStdDev(history, nil)
	return s
}
