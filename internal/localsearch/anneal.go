package localsearch

import (
	"fmt"
	"math"
	"math/rand"
)

// AnnealConfig configures the simulated-annealing coefficient search,
// adapted from a permutation-neighborhood cooling schedule to a
// Gaussian-jitter neighborhood over the continuous coefficient
// vector.
type AnnealConfig struct {
	Iterations  int
	InitialTemp float64
	FinalTemp   float64
	Alpha       float64
	// JitterScale sets the standard deviation of the Gaussian step
	// proposed at each iteration, scaled by the current temperature.
	JitterScale float64
}

// DefaultAnnealConfig returns a geometric cooling schedule scaled for
// coefficient magnitudes.
func DefaultAnnealConfig() AnnealConfig {
	return AnnealConfig{
		Iterations:  2000,
		InitialTemp: 10.0,
		FinalTemp:   1e-3,
		Alpha:       0.995,
		JitterScale: 1.0,
	}
}

// Validate checks the configuration is usable.
func (c AnnealConfig) Validate() error {
	if c.Iterations <= 0 {
		return fmt.Errorf("localsearch: anneal iterations must be > 0 (got %d)", c.Iterations)
	}
	if c.InitialTemp <= 0 {
		return fmt.Errorf("localsearch: anneal initialTemp must be > 0 (got %f)", c.InitialTemp)
	}
	if c.FinalTemp <= 0 {
		return fmt.Errorf("localsearch: anneal finalTemp must be > 0 (got %f)", c.FinalTemp)
	}
	if c.FinalTemp >= c.InitialTemp {
		return fmt.Errorf("localsearch: anneal finalTemp must be < initialTemp (got %f >= %f)", c.FinalTemp, c.InitialTemp)
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return fmt.Errorf("localsearch: anneal alpha must be in (0,1) (got %f)", c.Alpha)
	}
	if c.JitterScale <= 0 {
		return fmt.Errorf("localsearch: anneal jitterScale must be > 0 (got %f)", c.JitterScale)
	}
	return nil
}

// Anneal refines coefficients by simulated annealing: at each step it
// proposes a Gaussian-jittered neighbor, always accepts an
// improvement, and accepts a worsening move with Metropolis
// probability exp(-delta/T) before geometrically cooling T.
type Anneal struct {
	Cfg AnnealConfig
}

// NewAnneal validates cfg and returns an Anneal optimizer.
func NewAnneal(cfg AnnealConfig) (*Anneal, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Anneal{Cfg: cfg}, nil
}

// Optimize runs the cooling schedule starting from the individual's
// current coefficients.
func (a *Anneal) Optimize(rng *rand.Rand, p Problem) (Summary, error) {
	curr := p.Individual.GetCoefficients()
	n := len(curr)

	currCost, _, err := cost(p, curr)
	if err != nil {
		return Summary{}, err
	}
	initialCost := currCost

	best := append([]float64(nil), curr...)
	bestCost := currCost

	cand := make([]float64, n)
	temp := a.Cfg.InitialTemp
	iterations := 0

	for iterations < a.Cfg.Iterations && temp > a.Cfg.FinalTemp {
		copy(cand, curr)
		idx := rng.Intn(n)
		cand[idx] += rng.NormFloat64() * a.Cfg.JitterScale * temp

		candCost, _, err := cost(p, cand)
		iterations++
		if err != nil {
			return Summary{}, err
		}

		delta := candCost - currCost
		accept := false
		switch {
		case math.IsNaN(candCost):
			accept = false
		case delta <= 0:
			accept = true
		default:
			accept = rng.Float64() < math.Exp(-delta/temp)
		}

		if accept {
			curr, cand = cand, curr
			currCost = candCost
			if currCost < bestCost {
				bestCost = currCost
				copy(best, curr)
			}
		}

		temp *= a.Cfg.Alpha
	}

	return Summary{
		InitialCost: initialCost,
		FinalCost:   bestCost,
		Iterations:  iterations,
		Success:     bestCost < initialCost,
		Parameters:  best,
	}, nil
}
