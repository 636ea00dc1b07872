// Package generator produces offspring from a population using two
// selectors, crossover, mutation, and the evaluator, behind a common
// OffspringGenerator interface so the evolutionary driver can swap
// acceptance policy without touching its main loop.
package generator

import (
	"fmt"
	"math/rand"

	"github.com/ealione/turingforge/internal/crossover"
	"github.com/ealione/turingforge/internal/dataset"
	"github.com/ealione/turingforge/internal/evaluator"
	"github.com/ealione/turingforge/internal/individual"
	"github.com/ealione/turingforge/internal/mutation"
	"github.com/ealione/turingforge/internal/selector"
)

// Config bundles the operators and probabilities shared by every
// generator variant.
type Config struct {
	Female selector.Selector
	Male   selector.Selector

	Crossover crossover.Crossover
	Mutation  mutation.Mutation
	Evaluator *evaluator.Evaluator

	PCrossover   float64
	PMutation    float64
	PLocalSearch float64

	Dataset    *dataset.Dataset
	TrainRange dataset.Range
	Target     []float64
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.Female == nil || c.Male == nil {
		return fmt.Errorf("generator: female and male selectors must not be nil")
	}
	if c.Crossover == nil {
		return fmt.Errorf("generator: crossover must not be nil")
	}
	if c.Evaluator == nil {
		return fmt.Errorf("generator: evaluator must not be nil")
	}
	if c.PCrossover < 0 || c.PCrossover > 1 || c.PMutation < 0 || c.PMutation > 1 {
		return fmt.Errorf("generator: probabilities must be in [0,1]")
	}
	return nil
}

// OffspringGenerator produces one child per call. Basic, Brood and
// Polygenic always return a child (or an error), even when its fitness
// is the evaluator's ErrMax or the budget is exhausted; only
// OffspringSelection returns nil, when the budget runs out before a
// child is accepted.
type OffspringGenerator interface {
	Prepare(population []*individual.Individual)
	Generate(rng *rand.Rand, nextBirth func() uint64) (*individual.Individual, error)
	Terminate() bool
}

type base struct {
	Cfg        Config
	population []*individual.Individual
}

func (b *base) Prepare(population []*individual.Individual) {
	b.population = population
	b.Cfg.Female.Prepare(population)
	b.Cfg.Male.Prepare(population)
}

func (b *base) Terminate() bool { return b.Cfg.Evaluator.BudgetExhausted() }

// candidate draws parents and produces one evaluated child, without
// applying any acceptance policy.
func (b *base) candidate(rng *rand.Rand, nextBirth func() uint64) (child *individual.Individual, female, male *individual.Individual, err error) {
	fi := b.Cfg.Female.Select(rng)
	mi := b.Cfg.Male.Select(rng)
	female, male = b.population[fi], b.population[mi]

	if rng.Float64() < b.Cfg.PCrossover {
		child, err = b.Cfg.Crossover(rng, female, male)
		if err != nil {
			return nil, nil, nil, err
		}
	} else {
		child = female.Clone()
	}

	if rng.Float64() < b.Cfg.PMutation && b.Cfg.Mutation != nil {
		child = b.Cfg.Mutation(rng, child)
	}

	fitness, err := b.Cfg.Evaluator.Evaluate(rng, child, b.Cfg.Dataset, b.Cfg.TrainRange, b.Cfg.Target)
	if err != nil {
		return nil, nil, nil, err
	}
	child.Fitness = fitness
	return child, female, male, nil
}

// Basic accepts the first candidate unconditionally.
type Basic struct{ base }

// NewBasic validates cfg and returns a Basic generator.
func NewBasic(cfg Config) (*Basic, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Basic{base{Cfg: cfg}}, nil
}

// Generate produces and unconditionally accepts one child.
func (g *Basic) Generate(rng *rand.Rand, nextBirth func() uint64) (*individual.Individual, error) {
	child, _, _, err := g.candidate(rng, nextBirth)
	return child, err
}

// OffspringSelection accepts a child only if it dominates a linear
// combination of its parents' fitnesses, at a configurable comparison
// factor (0.5 is the midpoint).
type OffspringSelection struct {
	base
	ComparisonFactor float64
}

// NewOffspringSelection validates cfg and factor before returning an
// OffspringSelection generator.
func NewOffspringSelection(cfg Config, factor float64) (*OffspringSelection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if factor < 0 || factor > 1 {
		return nil, fmt.Errorf("generator: comparisonFactor must be in [0,1] (got %f)", factor)
	}
	return &OffspringSelection{base: base{Cfg: cfg}, ComparisonFactor: factor}, nil
}

// Generate retries until a child beats the parent blend or the
// evaluator's budget is exhausted, whichever comes first.
func (g *OffspringSelection) Generate(rng *rand.Rand, nextBirth func() uint64) (*individual.Individual, error) {
	for !g.Terminate() {
		child, female, male, err := g.candidate(rng, nextBirth)
		if err != nil {
			return nil, err
		}
		threshold := blend(female.Fitness, male.Fitness, g.ComparisonFactor)
		if dominatesOrEqual(child.Fitness, threshold) {
			return child, nil
		}
	}
	return nil, nil
}

func blend(a, b []float64, factor float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = factor*a[i] + (1-factor)*b[i]
	}
	return out
}

func dominatesOrEqual(a, b []float64) bool {
	for i := range a {
		if a[i] > b[i] {
			return false
		}
	}
	return true
}

// Brood produces N children from the same parents and keeps the best
// by the configured comparator, falling back to the first child when
// multi-objective dominance is ambiguous across the brood.
type Brood struct {
	base
	Size       int
	Comparator selector.Comparator
}

// NewBrood validates cfg, size, and comparator before returning a
// Brood generator.
func NewBrood(cfg Config, size int, cmp selector.Comparator) (*Brood, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if size < 1 {
		return nil, fmt.Errorf("generator: brood size must be >= 1 (got %d)", size)
	}
	if cmp == nil {
		return nil, fmt.Errorf("generator: comparator must not be nil")
	}
	return &Brood{base: base{Cfg: cfg}, Size: size, Comparator: cmp}, nil
}

// Generate produces Size children from one parent draw and returns
// the best by Comparator.
func (g *Brood) Generate(rng *rand.Rand, nextBirth func() uint64) (*individual.Individual, error) {
	fi := g.Cfg.Female.Select(rng)
	mi := g.Cfg.Male.Select(rng)
	female, male := g.population[fi], g.population[mi]

	var best *individual.Individual
	for i := 0; i < g.Size; i++ {
		var child *individual.Individual
		var err error
		if rng.Float64() < g.Cfg.PCrossover {
			child, err = g.Cfg.Crossover(rng, female, male)
		} else {
			child = female.Clone()
		}
		if err != nil {
			return nil, err
		}
		if rng.Float64() < g.Cfg.PMutation && g.Cfg.Mutation != nil {
			child = g.Cfg.Mutation(rng, child)
		}
		fitness, err := g.Cfg.Evaluator.Evaluate(rng, child, g.Cfg.Dataset, g.Cfg.TrainRange, g.Cfg.Target)
		if err != nil {
			return nil, err
		}
		child.Fitness = fitness
		if best == nil || g.Comparator(child, best) {
			best = child
		}
	}
	return best, nil
}

// Polygenic is Brood but reselects parents for every child instead of
// fixing one parent pair for the whole brood.
type Polygenic struct {
	base
	Size       int
	Comparator selector.Comparator
}

// NewPolygenic validates cfg, size, and comparator before returning a
// Polygenic generator.
func NewPolygenic(cfg Config, size int, cmp selector.Comparator) (*Polygenic, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if size < 1 {
		return nil, fmt.Errorf("generator: polygenic size must be >= 1 (got %d)", size)
	}
	if cmp == nil {
		return nil, fmt.Errorf("generator: comparator must not be nil")
	}
	return &Polygenic{base: base{Cfg: cfg}, Size: size, Comparator: cmp}, nil
}

// Generate produces Size children, each from an independently
// reselected parent pair, and returns the best by Comparator.
func (g *Polygenic) Generate(rng *rand.Rand, nextBirth func() uint64) (*individual.Individual, error) {
	var best *individual.Individual
	for i := 0; i < g.Size; i++ {
		child, _, _, err := g.candidate(rng, nextBirth)
		if err != nil {
			return nil, err
		}
		if best == nil || g.Comparator(child, best) {
			best = child
		}
	}
	return best, nil
}
