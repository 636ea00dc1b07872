// Package reinserter merges offspring back into a parent population,
// in place and size-preserving, behind a common Reinserter signature.
package reinserter

import (
	"math/rand"
	"sort"

	"github.com/ealione/turingforge/internal/individual"
	"github.com/ealione/turingforge/internal/selector"
)

// Reinserter merges pool (offspring) into population (parents),
// in place, leaving len(population) unchanged.
type Reinserter func(rng *rand.Rand, population, pool []*individual.Individual)

// KeepBest sorts both slices best-first by cmp, then walks population
// from its worst end and pool from its best end, swapping in any pool
// individual that beats the current population slot. Ties keep the
// incumbent.
func KeepBest(cmp selector.Comparator) Reinserter {
	return func(rng *rand.Rand, population, pool []*individual.Individual) {
		if len(pool) == 0 {
			return
		}
		sort.SliceStable(population, func(i, j int) bool { return cmp(population[i], population[j]) })
		sort.SliceStable(pool, func(i, j int) bool { return cmp(pool[i], pool[j]) })

		p := 0
		for i := len(population) - 1; i >= 0 && p < len(pool); i-- {
			if cmp(pool[p], population[i]) {
				population[i] = pool[p]
				p++
			}
		}
	}
}

// ReplaceWorst overwrites the worst len(pool) slots of population with
// pool, unconditionally. When len(pool) > len(population) only the
// best len(population) of pool survive; the excess is dropped.
func ReplaceWorst(cmp selector.Comparator) Reinserter {
	return func(rng *rand.Rand, population, pool []*individual.Individual) {
		if len(pool) == 0 {
			return
		}
		sort.SliceStable(population, func(i, j int) bool { return cmp(population[i], population[j]) })
		sort.SliceStable(pool, func(i, j int) bool { return cmp(pool[i], pool[j]) })

		n := len(pool)
		if n > len(population) {
			n = len(population)
		}
		for i := 0; i < n; i++ {
			population[len(population)-1-i] = pool[i]
		}
	}
}
