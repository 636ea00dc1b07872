package engine

import (
	"context"
	"math/rand"
	"time"

	"github.com/ealione/turingforge/internal/individual"
	"github.com/ealione/turingforge/internal/pareto"
	"github.com/ealione/turingforge/internal/selector"
)

// NSGA2 is the multi-objective driver: after each generation it
// non-dominated-sorts the combined parent+offspring pool, assigns
// rank and crowding distance, and reinserts front-by-front until the
// population is full, splitting the boundary front by crowding
// distance exactly as the reference algorithm does.
type NSGA2 struct {
	base

	Sorter  pareto.Sorter
	Epsilon float64

	distance map[*individual.Individual]float64
	fronts   [][]*individual.Individual
}

// NewNSGA2 validates cfg and rng and returns an NSGA2 driver; Sorter
// defaults to pareto.DeductiveSorter when nil. Build cfg.Generator's
// selectors with this driver's Comparator() so crowded comparison
// sees every generation's updated distances: Comparator() closes over
// the driver's distance map by reference, and Run refills that same
// map in place rather than replacing it.
func NewNSGA2(cfg Config, rng *rand.Rand, sorter pareto.Sorter) (*NSGA2, error) {
	b, err := newBase(cfg, rng)
	if err != nil {
		return nil, err
	}
	if sorter == nil {
		sorter = pareto.DeductiveSorter
	}
	return &NSGA2{base: *b, Sorter: sorter, distance: map[*individual.Individual]float64{}}, nil
}

// Comparator returns a crowded comparator reading this driver's live
// distance map, for wiring into cfg.Generator's selectors.
func (a *NSGA2) Comparator() selector.Comparator { return selector.CrowdedComparison(a.distance) }

// sortAndAssign runs the configured sorter over population, stores
// the fronts, and refills the crowding-distance map in place so
// comparators built from Comparator() observe the update.
func (a *NSGA2) sortAndAssign(population []*individual.Individual) {
	a.fronts = a.Sorter(population, a.Epsilon)
	for k := range a.distance {
		delete(a.distance, k)
	}
	for _, front := range a.fronts {
		for ind, v := range pareto.CrowdingDistance(front) {
			a.distance[ind] = v
		}
	}
}

// trim reduces combined down to exactly size individuals, keeping
// whole fronts while they fit and splitting the first front that
// doesn't by descending crowding distance.
func trim(fronts [][]*individual.Individual, distance map[*individual.Individual]float64, size int) []*individual.Individual {
	out := make([]*individual.Individual, 0, size)
	for _, front := range fronts {
		if len(out)+len(front) <= size {
			out = append(out, front...)
			continue
		}
		remaining := size - len(out)
		if remaining <= 0 {
			break
		}
		ordered := append([]*individual.Individual(nil), front...)
		sortByCrowdingDesc(ordered, distance)
		out = append(out, ordered[:remaining]...)
		break
	}
	return out
}

func sortByCrowdingDesc(front []*individual.Individual, distance map[*individual.Individual]float64) {
	for i := 1; i < len(front); i++ {
		for j := i; j > 0 && distance[front[j]] > distance[front[j-1]]; j-- {
			front[j], front[j-1] = front[j-1], front[j]
		}
	}
}

// Run initializes and evaluates the population, assigns initial
// fronts, then iterates generations: produce a pool of offspring,
// combine with the current population, re-sort, and reinsert via
// trim so the population size never changes.
func (a *NSGA2) Run(ctx context.Context, report Report) (*individual.Individual, error) {
	if err := a.initializePopulation(ctx); err != nil {
		return nil, err
	}
	a.sortAndAssign(a.population)
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
			return a.Best(), err
		}

		pool, err := a.produceOffspring(ctx, birth)
		if err != nil {
			return nil, err
		}

		combined := make([]*individual.Individual, 0, len(a.population)+len(pool))
		combined = append(combined, a.population...)
		combined = append(combined, pool...)

		a.sortAndAssign(combined)
		a.population = trim(a.fronts, a.distance, a.Cfg.PopulationSize)
		a.sortAndAssign(a.population)
		a.generation++

		a.Cfg.Generator.Prepare(a.population)
		if report != nil {
			report(a.generation, "generation", a.population)
		}

		a.Cfg.Logger.Debug().Int("generation", a.generation).Int("fronts", len(a.fronts)).Msg("generation complete")
	}

	a.Cfg.Logger.Info().Int("generations", a.generation).Msg("search terminated")
	return a.Best(), nil
}

// Best returns the first individual of front 0.
func (a *NSGA2) Best() *individual.Individual {
	if len(a.fronts) == 0 || len(a.fronts[0]) == 0 {
		return nil
	}
	return a.fronts[0][0]
}

// FirstFront returns every individual in the current non-dominated
// front.
func (a *NSGA2) FirstFront() []*individual.Individual {
	if len(a.fronts) == 0 {
		return nil
	}
	return append([]*individual.Individual(nil), a.fronts[0]...)
}
