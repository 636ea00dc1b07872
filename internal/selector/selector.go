// Package selector picks parent indices from a population for
// variation, behind a common Selector interface so the offspring
// generator can swap selection pressure without touching its pipeline.
package selector

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/ealione/turingforge/internal/individual"
)

// Comparator orders two individuals; it reports true when a should be
// preferred over b (lower is better, matching the evaluator's
// minimize convention).
type Comparator func(a, b *individual.Individual) bool

// SingleObjectiveComparison compares individuals by one fitness index.
func SingleObjectiveComparison(index int) Comparator {
	return func(a, b *individual.Individual) bool {
		return a.Fitness[index] < b.Fitness[index]
	}
}

// CrowdedComparison compares individuals by NSGA-II rank, then by a
// crowding-distance field looked up externally (rank alone
// discriminates correctly whenever two individuals differ in front;
// ties within a front fall back to the distance map).
func CrowdedComparison(distance map[*individual.Individual]float64) Comparator {
	return func(a, b *individual.Individual) bool {
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		return distance[a] > distance[b]
	}
}

// Selector exposes a two-phase contract: Prepare caches whatever
// per-generation state the strategy needs (a sort order, a CDF), then
// repeated calls to Select draw an index.
type Selector interface {
	Prepare(population []*individual.Individual)
	Select(rng *rand.Rand) int
}

// Tournament draws k uniform-random indices and returns the one the
// comparator prefers.
type Tournament struct {
	Size       int
	Comparator Comparator

	population []*individual.Individual
}

// NewTournament validates size and comparator before returning a
// Tournament selector.
func NewTournament(size int, cmp Comparator) (*Tournament, error) {
	if size < 1 {
		return nil, fmt.Errorf("selector: tournament size must be >= 1 (got %d)", size)
	}
	if cmp == nil {
		return nil, fmt.Errorf("selector: comparator must not be nil")
	}
	return &Tournament{Size: size, Comparator: cmp}, nil
}

// Prepare stores the population reference for subsequent draws.
func (t *Tournament) Prepare(population []*individual.Individual) { t.population = population }

// Select draws Size random indices and returns the argmin.
func (t *Tournament) Select(rng *rand.Rand) int {
	best := rng.Intn(len(t.population))
	for i := 1; i < t.Size; i++ {
		cand := rng.Intn(len(t.population))
		if t.Comparator(t.population[cand], t.population[best]) {
			best = cand
		}
	}
	return best
}

// RankTournament stable-sorts the population by the comparator during
// Prepare (best first), then draws k uniform indices and returns the
// best rank (i.e. the minimum post-sort index among the draws).
type RankTournament struct {
	Size       int
	Comparator Comparator

	order []int
}

// NewRankTournament validates size and comparator before returning a
// RankTournament selector.
func NewRankTournament(size int, cmp Comparator) (*RankTournament, error) {
	if size < 1 {
		return nil, fmt.Errorf("selector: rankTournament size must be >= 1 (got %d)", size)
	}
	if cmp == nil {
		return nil, fmt.Errorf("selector: comparator must not be nil")
	}
	return &RankTournament{Size: size, Comparator: cmp}, nil
}

// Prepare stable-sorts population indices best-first by the comparator.
func (rt *RankTournament) Prepare(population []*individual.Individual) {
	rt.order = make([]int, len(population))
	for i := range rt.order {
		rt.order[i] = i
	}
	sort.SliceStable(rt.order, func(i, j int) bool {
		return rt.Comparator(population[rt.order[i]], population[rt.order[j]])
	})
}

// Select draws Size random post-sort positions and returns the
// original index of the best (lowest) rank among them.
func (rt *RankTournament) Select(rng *rand.Rand) int {
	bestRank := rng.Intn(len(rt.order))
	for i := 1; i < rt.Size; i++ {
		cand := rng.Intn(len(rt.order))
		if cand < bestRank {
			bestRank = cand
		}
	}
	return rt.order[bestRank]
}

// Proportional computes a CDF over (maxFitness - fitness[objective])
// during Prepare, then draws uniformly over the total and binary
// searches the CDF.
type Proportional struct {
	Objective int

	cdf []float64
}

// NewProportional validates objective before returning a Proportional
// selector.
func NewProportional(objective int) (*Proportional, error) {
	if objective < 0 {
		return nil, fmt.Errorf("selector: objective index must be >= 0 (got %d)", objective)
	}
	return &Proportional{Objective: objective}, nil
}

// Prepare computes the proportional-selection CDF.
func (p *Proportional) Prepare(population []*individual.Individual) {
	maxFitness := population[0].Fitness[p.Objective]
	for _, ind := range population {
		if ind.Fitness[p.Objective] > maxFitness {
			maxFitness = ind.Fitness[p.Objective]
		}
	}
	p.cdf = make([]float64, len(population))
	var acc float64
	for i, ind := range population {
		acc += maxFitness - ind.Fitness[p.Objective]
		p.cdf[i] = acc
	}
}

// Select draws uniformly in [0, total) and binary-searches the CDF.
func (p *Proportional) Select(rng *rand.Rand) int {
	total := p.cdf[len(p.cdf)-1]
	if total <= 0 {
		return rng.Intn(len(p.cdf))
	}
	r := rng.Float64() * total
	i := sort.Search(len(p.cdf), func(i int) bool { return p.cdf[i] >= r })
	if i >= len(p.cdf) {
		i = len(p.cdf) - 1
	}
	return i
}

// Random draws uniformly over the population, ignoring fitness.
type Random struct {
	n int
}

// NewRandom returns a Random selector.
func NewRandom() *Random { return &Random{} }

// Prepare records the population size.
func (r *Random) Prepare(population []*individual.Individual) { r.n = len(population) }

// Select draws one uniform index.
func (r *Random) Select(rng *rand.Rand) int { return rng.Intn(r.n) }
