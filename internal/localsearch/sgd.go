package localsearch

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/ealione/turingforge/internal/dataset"
)

// SGDConfig configures mini-batch stochastic gradient descent.
type SGDConfig struct {
	MaxIterations int
	BatchSize     int
	LearningRate  float64
}

// DefaultSGDConfig returns a conservative learning rate and a small
// batch size suitable for the typical small training windows used
// during search.
func DefaultSGDConfig() SGDConfig {
	return SGDConfig{MaxIterations: 200, BatchSize: 32, LearningRate: 0.01}
}

// Validate checks the configuration is usable.
func (c SGDConfig) Validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("localsearch: sgd maxIterations must be >= 1 (got %d)", c.MaxIterations)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("localsearch: sgd batchSize must be >= 1 (got %d)", c.BatchSize)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("localsearch: sgd learningRate must be > 0 (got %f)", c.LearningRate)
	}
	return nil
}

// SGD is the mini-batch gradient-descent alternative to LM: each step
// draws a random sub-range of the training window and descends the
// gradient of the squared-error cost restricted to that sub-range.
type SGD struct {
	Cfg SGDConfig
}

// NewSGD validates cfg and returns an SGD optimizer.
func NewSGD(cfg SGDConfig) (*SGD, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &SGD{Cfg: cfg}, nil
}

// Optimize runs mini-batch SGD starting from the individual's current
// coefficients.
func (s *SGD) Optimize(rng *rand.Rand, p Problem) (Summary, error) {
	coeff := p.Individual.GetCoefficients()
	n := len(coeff)

	initialCost, _, err := cost(p, coeff)
	if err != nil {
		return Summary{}, err
	}
	if math.IsNaN(initialCost) {
		return Summary{InitialCost: initialCost, FinalCost: initialCost, Parameters: coeff}, nil
	}

	windowSize := p.Range.Size()
	best := append([]float64(nil), coeff...)
	bestCost := initialCost
	iterations := 0

	for iterations < s.Cfg.MaxIterations {
		batch := s.Cfg.BatchSize
		if batch > windowSize {
			batch = windowSize
		}
		start := p.Range.Start
		if windowSize > batch {
			start = p.Range.Start + rng.Intn(windowSize-batch+1)
		}
		subRange, err := dataset.NewRange(start, start+batch)
		if err != nil {
			return Summary{}, err
		}

		sub := Problem{
			Individual: p.Individual,
			Dataset:    p.Dataset,
			Range:      subRange,
			Target:     p.Target[start-p.Range.Start : start-p.Range.Start+batch],
			Interp:     p.Interp,
		}

		jac, err := p.Interp.JacRev(p.Individual, p.Dataset, subRange, coeff)
		if err != nil {
			return Summary{}, err
		}
		_, residual, err := cost(sub, coeff)
		if err != nil {
			return Summary{}, err
		}

		grad := make([]float64, n)
		rows, cols := jac.Dims()
		for c := 0; c < cols; c++ {
			var g float64
			for r := 0; r < rows; r++ {
				g += 2 * residual[r] * jac.At(r, c)
			}
			grad[c] = g / float64(rows)
		}

		for i := range coeff {
			coeff[i] -= s.Cfg.LearningRate * grad[i]
		}

		candidateCost, _, err := cost(p, coeff)
		if err != nil {
			return Summary{}, err
		}
		iterations++
		if !math.IsNaN(candidateCost) && candidateCost < bestCost {
			bestCost = candidateCost
			best = append([]float64(nil), coeff...)
		}
	}

	return Summary{
		InitialCost: initialCost,
		FinalCost:   bestCost,
		Iterations:  iterations,
		Success:     bestCost < initialCost,
		Parameters:  best,
	}, nil
}
