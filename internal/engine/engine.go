// Package engine drives the evolutionary search loop: initialize a
// population, evaluate it, then repeatedly prepare a generator,
// produce a pool of offspring across a worker pool, and reinsert the
// pool into the population until a termination condition fires. Two
// concrete drivers, GeneticProgrammingAlgorithm and NSGA2, share this
// base and differ only in the reinsertion and reporting pass.
package engine

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ealione/turingforge/internal/dataset"
	"github.com/ealione/turingforge/internal/evaluator"
	"github.com/ealione/turingforge/internal/generator"
	"github.com/ealione/turingforge/internal/individual"
	"github.com/ealione/turingforge/internal/reinserter"
	"github.com/ealione/turingforge/internal/selector"
)

// Creator builds one fresh individual for population seeding; both
// creator.BalancedCreator and creator.GuidedCreator satisfy it.
type Creator interface {
	Create(rng *rand.Rand, termCount int, birth uint64) (*individual.Individual, error)
}

// Report is invoked once after initial evaluation and once after
// every generation's offspring are produced and reinserted.
type Report func(generation int, stage string, population []*individual.Individual)

// Config bundles everything a driver needs to run a search.
type Config struct {
	PopulationSize int
	PoolSize       int
	TermCount      int
	MaxGenerations int
	MaxDuration    time.Duration // 0 disables the wall-clock limit
	Workers        int           // 0 defaults to runtime.GOMAXPROCS(0)

	Creator    Creator
	Generator  generator.OffspringGenerator
	Reinserter reinserter.Reinserter
	Comparator selector.Comparator

	Evaluator  *evaluator.Evaluator
	Dataset    *dataset.Dataset
	TrainRange dataset.Range
	Target     []float64

	Logger zerolog.Logger
}

// Validate checks the configuration is usable by either driver.
func (c Config) Validate() error {
	if c.PopulationSize < 1 {
		return fmt.Errorf("engine: populationSize must be >= 1 (got %d)", c.PopulationSize)
	}
	if c.PoolSize < 1 {
		return fmt.Errorf("engine: poolSize must be >= 1 (got %d)", c.PoolSize)
	}
	if c.TermCount < 1 {
		return fmt.Errorf("engine: termCount must be >= 1 (got %d)", c.TermCount)
	}
	if c.MaxGenerations < 1 {
		return fmt.Errorf("engine: maxGenerations must be >= 1 (got %d)", c.MaxGenerations)
	}
	if c.Creator == nil || c.Generator == nil || c.Reinserter == nil || c.Comparator == nil {
		return fmt.Errorf("engine: creator, generator, reinserter, and comparator must not be nil")
	}
	if c.Evaluator == nil || c.Dataset == nil {
		return fmt.Errorf("engine: evaluator and dataset must not be nil")
	}
	return nil
}

// base holds the state and machinery shared by every driver.
type base struct {
	Cfg        Config
	Rng        *rand.Rand
	population []*individual.Individual
	generation int
}

func newBase(cfg Config, rng *rand.Rand) (*base, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("engine: rng must not be nil")
	}
	return &base{Cfg: cfg, Rng: rng}, nil
}

func (b *base) workers() int {
	if b.Cfg.Workers > 0 {
		return b.Cfg.Workers
	}
	return runtime.GOMAXPROCS(0) // never 0: errgroup.SetLimit(0) would deadlock every Go call
}

// seedWorker derives an independent RNG stream for one worker-pool
// goroutine from the driver's master RNG, since *rand.Rand is not
// safe for concurrent use.
func seedWorker(master *rand.Rand) *rand.Rand {
	return rand.New(rand.NewSource(master.Int63()))
}

// birthCounter hands out strictly increasing birth generation numbers;
// next is called concurrently from every worker-pool goroutine, so it
// must be lock-free rather than a plain increment.
type birthCounter struct{ n atomic.Uint64 }

func (b *birthCounter) next() uint64 {
	return b.n.Add(1)
}

// initializePopulation seeds PopulationSize individuals, evaluates
// each, and stores the result on b.population. Creation and
// evaluation both run across the worker pool since each individual is
// independent.
func (b *base) initializePopulation(ctx context.Context) error {
	n := b.Cfg.PopulationSize
	population := make([]*individual.Individual, n)
	birth := &birthCounter{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers())
	for i := 0; i < n; i++ {
		i := i
		seed := seedWorker(b.Rng)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ind, err := b.Cfg.Creator.Create(seed, b.Cfg.TermCount, birth.next())
			if err != nil {
				return err
			}
			fitness, err := b.Cfg.Evaluator.Evaluate(seed, ind, b.Cfg.Dataset, b.Cfg.TrainRange, b.Cfg.Target)
			if err != nil {
				return err
			}
			ind.Fitness = fitness
			population[i] = ind
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("engine: initialization: %w", err)
	}
	b.population = population
	return nil
}

// produceOffspring runs PoolSize generator calls across the worker
// pool and returns the non-nil results (a generator may legitimately
// return nil, nil when it cannot find an acceptable child before
// Terminate() trips).
func (b *base) produceOffspring(ctx context.Context, birth *birthCounter) ([]*individual.Individual, error) {
	n := b.Cfg.PoolSize
	pool := make([]*individual.Individual, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers())
	for i := 0; i < n; i++ {
		i := i
		seed := seedWorker(b.Rng)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if b.Cfg.Generator.Terminate() {
				return nil
			}
			child, err := b.Cfg.Generator.Generate(seed, birth.next)
			if err != nil {
				return err
			}
			pool[i] = child
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("engine: offspring generation: %w", err)
	}

	out := pool[:0]
	for _, ind := range pool {
		if ind != nil {
			out = append(out, ind)
		}
	}
	return out, nil
}

// terminated reports whether the driver should stop before starting
// another generation.
func (b *base) terminated(deadline time.Time) bool {
	if b.generation >= b.Cfg.MaxGenerations {
		return true
	}
	if b.Cfg.Evaluator.BudgetExhausted() {
		return true
	}
	if !deadline.IsZero() && time.Now().After(deadline) {
		return true
	}
	if b.Cfg.Generator.Terminate() {
		return true
	}
	return false
}

func (b *base) best() *individual.Individual {
	best := b.population[0]
	for _, ind := range b.population[1:] {
		if b.Cfg.Comparator(ind, best) {
			best = ind
		}
	}
	return best
}
