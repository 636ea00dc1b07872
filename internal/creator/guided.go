package creator

import (
	"fmt"
	"math/rand"

	"github.com/ealione/turingforge/internal/function"
	"github.com/ealione/turingforge/internal/individual"
)

// GuidedConfig configures a GuidedCreator's pheromone trail.
type GuidedConfig struct {
	Config
	// MaxPositions bounds the number of term positions the trail
	// tracks independently; positions beyond this reuse the last row.
	MaxPositions int
	// Rho is the pheromone evaporation rate applied before each
	// reinforcement, in (0, 1].
	Rho float64
	// Tau0 is the initial pheromone level for every (position, kind) cell.
	Tau0 float64
	// Q scales the amount of pheromone a reinforcement deposits.
	Q float64
}

// DefaultGuidedConfig returns sensible ACO-style defaults.
func DefaultGuidedConfig(numVariables, maxPositions int) GuidedConfig {
	return GuidedConfig{
		Config:       DefaultConfig(numVariables),
		MaxPositions: maxPositions,
		Rho:          0.1,
		Tau0:         1.0,
		Q:            1.0,
	}
}

// Validate checks the guided configuration.
func (c GuidedConfig) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if c.MaxPositions < 1 {
		return fmt.Errorf("creator: maxPositions must be >= 1 (got %d)", c.MaxPositions)
	}
	if c.Rho <= 0 || c.Rho > 1 {
		return fmt.Errorf("creator: rho must be in (0,1] (got %f)", c.Rho)
	}
	if c.Tau0 <= 0 {
		return fmt.Errorf("creator: tau0 must be > 0 (got %f)", c.Tau0)
	}
	return nil
}

// GuidedCreator samples a term's function kind from a pheromone trail
// keyed by (term position, kind) instead of uniformly from the
// catalog, reinforcing cells that belonged to individuals that scored
// well. The trail is the same device the originating heuristic used
// to bias job placement by position; here it biases function-kind
// choice by term position.
type GuidedCreator struct {
	Cfg     GuidedConfig
	Catalog *function.Catalog
	kinds   []function.Kind
	tau     []float64 // row-major [position][kind]
}

// NewGuidedCreator validates cfg and catalog and seeds a uniform
// pheromone trail over every admissible unary kind.
func NewGuidedCreator(cfg GuidedConfig, catalog *function.Catalog) (*GuidedCreator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if catalog == nil {
		return nil, fmt.Errorf("creator: catalog must not be nil")
	}
	var kinds []function.Kind
	for _, k := range function.All {
		if k.IsUnary() && catalog.IsEnabled(k) {
			kinds = append(kinds, k)
		}
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("creator: no admissible unary kind enabled in catalog")
	}
	tau := make([]float64, cfg.MaxPositions*len(kinds))
	for i := range tau {
		tau[i] = cfg.Tau0
	}
	return &GuidedCreator{Cfg: cfg, Catalog: catalog, kinds: kinds, tau: tau}, nil
}

func (g *GuidedCreator) row(position int) []float64 {
	if position >= g.Cfg.MaxPositions {
		position = g.Cfg.MaxPositions - 1
	}
	return g.tau[position*len(g.kinds) : (position+1)*len(g.kinds)]
}

// sampleKind draws a kind for the given term position proportional to
// its pheromone level.
func (g *GuidedCreator) sampleKind(rng *rand.Rand, position int) function.Kind {
	row := g.row(position)
	var total float64
	for _, v := range row {
		total += v
	}
	r := rng.Float64() * total
	acc := 0.0
	for i, v := range row {
		acc += v
		if r <= acc {
			return g.kinds[i]
		}
	}
	return g.kinds[len(g.kinds)-1]
}

// Create draws a fresh individual using the pheromone trail to choose
// each term's function kind in place of uniform catalog sampling.
func (g *GuidedCreator) Create(rng *rand.Rand, termCount int, birth uint64) (*individual.Individual, error) {
	if termCount < 1 {
		return nil, fmt.Errorf("creator: termCount must be >= 1 (got %d)", termCount)
	}
	coeff := make([]float64, termCount)
	fn := make([]function.Kind, termCount)
	exponent := make([][]float64, termCount)
	lo, hi := -g.Cfg.ExponentBound-1, g.Cfg.ExponentBound+1

	for i := 0; i < termCount; i++ {
		coeff[i] = 1
		fn[i] = g.sampleKind(rng, i)

		row := make([]float64, g.Cfg.NumVariables)
		for j := range row {
			row[j] = lo + rng.Float64()*(hi-lo)
		}
		exponent[i] = row
	}

	return individual.New(coeff, fn, exponent, birth)
}

// Reinforce evaporates the trail and deposits pheromone proportional
// to quality (higher is better, e.g. 1/(1+fitness)) along the kind
// choices recorded in fn, one cell per term position.
func (g *GuidedCreator) Reinforce(fn []function.Kind, quality float64) {
	for i := range g.tau {
		g.tau[i] *= 1 - g.Cfg.Rho
		if g.tau[i] < 1e-6 {
			g.tau[i] = 1e-6
		}
	}
	deposit := g.Cfg.Q * quality
	for pos, k := range fn {
		row := g.row(pos)
		for i, kind := range g.kinds {
			if kind == k {
				row[i] += deposit
				break
			}
		}
	}
}
