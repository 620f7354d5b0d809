package climb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/baldhumanity/vai-go/vai"
)

// ScoreFunc is the function provided by the user to evaluate a network.
// Lower scores are better. It is called concurrently on distinct candidates
// and must not mutate the network.
type ScoreFunc[N any] func(net N) (float64, error)

// Climber holds the state of a perturb-and-select run: a single best network
// that is repeatedly mutated and replaced whenever a candidate scores lower.
type Climber[N vai.Network[N]] struct {
	Config    *Config
	Best      N       // Best network found so far
	BestScore float64 // Score of Best
	Iteration int
	History   []float64 // Best score after each iteration

	// Out receives progress lines. Nil keeps the climber quiet.
	Out io.Writer
	// OnImprove, if set, is called every time Best is replaced.
	OnImprove func(iteration int, score float64, net N) error

	score ScoreFunc[N]
	src   *rand.PCG // Chooses the strategy for mixed mutation
	rng   *rand.Rand
}

// New creates a Climber starting from start. start is scored immediately.
func New[N vai.Network[N]](config *Config, start N, score ScoreFunc[N]) (*Climber[N], error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if score == nil {
		return nil, errors.New("score function is required")
	}
	initial, err := score(start)
	if err != nil {
		return nil, fmt.Errorf("failed to score starting network: %w", err)
	}

	src := rand.NewPCG(config.Network.Seed, 0)
	return &Climber[N]{
		Config:    config,
		Best:      start,
		BestScore: initial,
		score:     score,
		src:       src,
		rng:       rand.New(src),
	}, nil
}

func (c *Climber[N]) logf(format string, args ...any) {
	if c.Out != nil {
		fmt.Fprintf(c.Out, format, args...)
	}
}

// mutate produces one candidate from Best, advancing Best's generator.
func (c *Climber[N]) mutate() N {
	intensity := float32(c.Config.Mutation.Intensity)
	switch c.Config.Mutation.Strategy {
	case StrategyLayer:
		return c.Best.CreateLayerVariant(intensity)
	case StrategyMixed:
		if c.rng.Float64() < c.Config.Mutation.LayerVariantRate {
			return c.Best.CreateLayerVariant(intensity)
		}
	}
	return c.Best.CreateVariant(intensity)
}

// Step runs one iteration: it draws Config.Climb.Candidates variants of Best,
// scores them concurrently and keeps the lowest scoring one if it beats Best.
// It reports whether Best was replaced.
func (c *Climber[N]) Step(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.Iteration++

	// Mutation is serialized: every candidate advances Best's generator.
	candidates := make([]N, c.Config.Climb.Candidates)
	for i := range candidates {
		candidates[i] = c.mutate()
	}

	scores := make([]float64, len(candidates))
	errs := make([]error, len(candidates))
	var wg sync.WaitGroup
	for i, candidate := range candidates {
		wg.Add(1)
		go func(i int, candidate N) {
			defer wg.Done()
			scores[i], errs[i] = c.score(candidate)
		}(i, candidate)
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return false, fmt.Errorf("scoring failed in iteration %d: %w", c.Iteration, err)
	}

	bestIdx := 0
	for i, s := range scores {
		if s < scores[bestIdx] {
			bestIdx = i
		}
	}

	improved := scores[bestIdx] < c.BestScore
	if improved {
		c.Best = candidates[bestIdx]
		c.BestScore = scores[bestIdx]
		c.logf(" New best score at iteration %d: %.6f\n", c.Iteration, c.BestScore)
		if c.OnImprove != nil {
			if err := c.OnImprove(c.Iteration, c.BestScore, c.Best); err != nil {
				return true, fmt.Errorf("improvement hook failed in iteration %d: %w", c.Iteration, err)
			}
		}
	}
	c.History = append(c.History, c.BestScore)
	return improved, nil
}

// ReachedTarget reports whether the best score is at or below the target score.
func (c *Climber[N]) ReachedTarget() bool {
	return c.BestScore <= c.Config.Climb.TargetScore
}

// Run steps until Config.Climb.Iterations iterations have run in total or the
// target score is reached, saving checkpoints every Config.Climb.CheckpointEvery
// iterations. It returns the best network.
func (c *Climber[N]) Run(ctx context.Context) (N, error) {
	start := time.Now()
	c.logf("****** Climbing from score %.6f ******\n", c.BestScore)

	for c.Iteration < c.Config.Climb.Iterations && !c.ReachedTarget() {
		if _, err := c.Step(ctx); err != nil {
			return c.Best, err
		}
		every := c.Config.Climb.CheckpointEvery
		if every > 0 && c.Iteration%every == 0 {
			path := fmt.Sprintf("%s_iter%d.gz", c.Config.Climb.CheckpointPrefix, c.Iteration)
			if err := c.SaveCheckpoint(path); err != nil {
				return c.Best, fmt.Errorf("failed to save checkpoint for iteration %d: %w", c.Iteration, err)
			}
		}
	}

	if c.ReachedTarget() {
		c.logf("Target score %.6f reached at iteration %d\n", c.Config.Climb.TargetScore, c.Iteration)
	}
	c.logf("Climb finished after %d iterations in %s, best score %.6f\n", c.Iteration, time.Since(start), c.BestScore)
	return c.Best, nil
}
