package climb

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"github.com/baldhumanity/vai-go/vai"
)

// checkpointData holds the parts of a Climber needed to resume it.
// The config is not saved; it is reloaded by the caller.
type checkpointData struct {
	Iteration int
	BestScore float64
	History   []float64
	Network   []byte // Best, in its own text format
	Generator []byte // Best's generator state
	Strategy  []byte // The climber's strategy generator state
}

// SaveCheckpoint saves the climber state to a gzip compressed file.
func (c *Climber[N]) SaveCheckpoint(filePath string) error {
	var network bytes.Buffer
	if _, err := c.Best.WriteTo(&network); err != nil {
		return fmt.Errorf("failed to serialize best network: %w", err)
	}
	generator, err := c.Best.GeneratorState()
	if err != nil {
		return fmt.Errorf("failed to marshal network generator: %w", err)
	}
	strategy, err := c.src.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to marshal strategy generator: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file '%s': %w", filePath, err)
	}
	defer file.Close()

	gzWriter := gzip.NewWriter(file)
	saveData := checkpointData{
		Iteration: c.Iteration,
		BestScore: c.BestScore,
		History:   c.History,
		Network:   network.Bytes(),
		Generator: generator,
		Strategy:  strategy,
	}
	if err := gob.NewEncoder(gzWriter).Encode(saveData); err != nil {
		return fmt.Errorf("failed to encode climber state: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush checkpoint '%s': %w", filePath, err)
	}

	c.logf("Checkpoint saved to %s\n", filePath)
	return nil
}

// LoadCheckpoint restores a Climber from a checkpoint file.
// read parses the network text, e.g. vai.ReadDynamic or vai.ReadFixed[S].
// The restored network is not rescored; its saved score is trusted.
func LoadCheckpoint[N vai.Network[N]](checkpointPath string, config *Config, read func(io.Reader) (N, error), score ScoreFunc[N]) (*Climber[N], error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if score == nil {
		return nil, errors.New("score function is required")
	}

	file, err := os.Open(checkpointPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file '%s': %w", checkpointPath, err)
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for checkpoint: %w", err)
	}
	defer gzReader.Close()

	saveData := checkpointData{}
	if err := gob.NewDecoder(gzReader).Decode(&saveData); err != nil {
		return nil, fmt.Errorf("failed to decode climber state from checkpoint: %w", err)
	}

	best, err := read(bytes.NewReader(saveData.Network))
	if err != nil {
		return nil, fmt.Errorf("failed to read best network from checkpoint: %w", err)
	}
	if err := best.RestoreGenerator(saveData.Generator); err != nil {
		return nil, err
	}
	src := &rand.PCG{}
	if err := src.UnmarshalBinary(saveData.Strategy); err != nil {
		return nil, fmt.Errorf("failed to restore strategy generator: %w", err)
	}

	return &Climber[N]{
		Config:    config,
		Best:      best,
		BestScore: saveData.BestScore,
		Iteration: saveData.Iteration,
		History:   saveData.History,
		score:     score,
		src:       src,
		rng:       rand.New(src),
	}, nil
}
