// Package creator builds initial individuals for population seeding.
package creator

import (
	"fmt"
	"math/rand"

	"github.com/ealione/turingforge/internal/function"
	"github.com/ealione/turingforge/internal/individual"
)

// Config configures a BalancedCreator run.
type Config struct {
	// ExponentBound bounds the magnitude of sampled exponents: each
	// exponent is drawn uniformly from [-B-1, B+1].
	ExponentBound float64
	// IrregularityBias nudges the exponent distribution away from
	// uniform: each exponent entry is, with this probability, set to 0
	// or 1 instead of drawn from the bound; 0 disables the bias.
	IrregularityBias float64
	// NumVariables is the width of every exponent row.
	NumVariables int
}

// DefaultConfig returns a Config with no irregularity bias and a
// modest exponent bound.
func DefaultConfig(numVariables int) Config {
	return Config{ExponentBound: 2, IrregularityBias: 0, NumVariables: numVariables}
}

// Validate checks the configuration is usable by BalancedCreator.
func (c Config) Validate() error {
	if c.NumVariables < 1 {
		return fmt.Errorf("creator: numVariables must be >= 1 (got %d)", c.NumVariables)
	}
	if c.ExponentBound < 0 {
		return fmt.Errorf("creator: exponentBound must be >= 0 (got %f)", c.ExponentBound)
	}
	if c.IrregularityBias < 0 || c.IrregularityBias > 1 {
		return fmt.Errorf("creator: irregularityBias must be in [0,1] (got %f)", c.IrregularityBias)
	}
	return nil
}

// BalancedCreator draws individuals with L = T unary-wrapped terms,
// unit coefficients, and exponents uniform over [-B-1, B+1].
type BalancedCreator struct {
	Cfg     Config
	Catalog *function.Catalog
}

// NewBalancedCreator validates cfg and catalog before returning a
// creator.
func NewBalancedCreator(cfg Config, catalog *function.Catalog) (*BalancedCreator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if catalog == nil {
		return nil, fmt.Errorf("creator: catalog must not be nil")
	}
	return &BalancedCreator{Cfg: cfg, Catalog: catalog}, nil
}

// Create draws a fresh individual with termCount terms.
func (c *BalancedCreator) Create(rng *rand.Rand, termCount int, birth uint64) (*individual.Individual, error) {
	if termCount < 1 {
		return nil, fmt.Errorf("creator: termCount must be >= 1 (got %d)", termCount)
	}
	coeff := make([]float64, termCount)
	fn := make([]function.Kind, termCount)
	exponent := make([][]float64, termCount)
	lo, hi := -c.Cfg.ExponentBound-1, c.Cfg.ExponentBound+1

	for i := 0; i < termCount; i++ {
		coeff[i] = 1
		kind, err := c.Catalog.Sample(rng, 1, 1)
		if err != nil {
			return nil, err
		}
		fn[i] = kind

		row := make([]float64, c.Cfg.NumVariables)
		for j := range row {
			if c.Cfg.IrregularityBias > 0 && rng.Float64() < c.Cfg.IrregularityBias {
				row[j] = float64(rng.Intn(2))
				continue
			}
			row[j] = lo + rng.Float64()*(hi-lo)
		}
		exponent[i] = row
	}

	return individual.New(coeff, fn, exponent, birth)
}
