package engine

import (
	"context"
	"math/rand"
	"time"

	"github.com/ealione/turingforge/internal/individual"
)

// GeneticProgrammingAlgorithm is the single-objective driver: each
// generation's offspring are reinserted directly against the
// configured comparator, with no Pareto bookkeeping.
type GeneticProgrammingAlgorithm struct{ base }

// New validates cfg and rng and returns a GeneticProgrammingAlgorithm.
func New(cfg Config, rng *rand.Rand) (*GeneticProgrammingAlgorithm, error) {
	b, err := newBase(cfg, rng)
	if err != nil {
		return nil, err
	}
	return &GeneticProgrammingAlgorithm{base: *b}, nil
}

// Run initializes and evaluates the population, then iterates
// generations until a termination condition fires, invoking report
// after initial evaluation and after every generation's offspring are
// produced. It returns the best individual found by Cfg.Comparator.
func (a *GeneticProgrammingAlgorithm) Run(ctx context.Context, report Report) (*individual.Individual, error) {
	if err := a.initializePopulation(ctx); err != nil {
		return nil, err
	}
	if report != nil {
		report(0, "initialized", a.population)
	}

	var deadline time.Time
	if a.Cfg.MaxDuration > 0 {
		deadline = time.Now().Add(a.Cfg.MaxDuration)
	}

	birth := &birthCounter{}
	a.Cfg.Generator.Prepare(a.population)

	for !a.terminated(deadline) {
		if err := ctx.Err(); err != nil {
			return a.best(), err
		}

		pool, err := a.produceOffspring(ctx, birth)
		if err != nil {
			return nil, err
		}
		a.Cfg.Reinserter(a.Rng, a.population, pool)
		a.generation++

		a.Cfg.Generator.Prepare(a.population)
		if report != nil {
			report(a.generation, "generation", a.population)
		}

		a.Cfg.Logger.Debug().Int("generation", a.generation).Int("offspring", len(pool)).Msg("generation complete")
	}

	a.Cfg.Logger.Info().Int("generations", a.generation).Msg("search terminated")
	return a.best(), nil
}

// Best returns the current best individual by Cfg.Comparator.
func (a *GeneticProgrammingAlgorithm) Best() *individual.Individual { return a.best() }
