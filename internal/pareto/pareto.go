// Package pareto partitions a population into non-dominated fronts and
// assigns crowding distances, behind a common Sorter signature so the
// NSGA-II driver can swap algorithms without touching its reinsertion
// logic.
package pareto

import (
	"math"
	"sort"

	"github.com/ealione/turingforge/internal/individual"
)

// Sorter partitions population into fronts; front 0 is the
// non-dominated set. Every individual appears in exactly one front.
type Sorter func(population []*individual.Individual, epsilon float64) [][]*individual.Individual

// dominates reports whether a dominates b: no worse in every
// objective and strictly better in at least one, both compared with
// an epsilon tolerance so near-equal fitnesses count as ties rather
// than domination (this is what collapses duplicates into one front).
func dominates(a, b *individual.Individual, epsilon float64) bool {
	better := false
	for i := range a.Fitness {
		if a.Fitness[i] > b.Fitness[i]+epsilon {
			return false
		}
		if a.Fitness[i] < b.Fitness[i]-epsilon {
			better = true
		}
	}
	return better
}

// DeductiveSorter is the classical Deb et al. fast non-dominated
// sort: for every pair compute domination once, then peel fronts by
// repeatedly removing individuals whose domination count has reached
// zero.
func DeductiveSorter(population []*individual.Individual, epsilon float64) [][]*individual.Individual {
	n := len(population)
	if n == 0 {
		return nil
	}
	dominatedBy := make([][]int, n)
	domCount := make([]int, n)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if dominates(population[i], population[j], epsilon) {
				dominatedBy[i] = append(dominatedBy[i], j)
			} else if dominates(population[j], population[i], epsilon) {
				domCount[i]++
			}
		}
	}

	var fronts [][]int
	current := []int{}
	for i := 0; i < n; i++ {
		if domCount[i] == 0 {
			current = append(current, i)
		}
	}
	for len(current) > 0 {
		fronts = append(fronts, current)
		var next []int
		for _, i := range current {
			for _, j := range dominatedBy[i] {
				domCount[j]--
				if domCount[j] == 0 {
					next = append(next, j)
				}
			}
		}
		current = next
	}
	return toIndividuals(population, fronts)
}

// RankIntersectSorter assigns each individual to the lowest-numbered
// front none of whose current members dominate it, processing
// individuals in lexicographic fitness order so that no individual is
// placed before one that dominates it. It differs from DeductiveSorter
// in mechanism (incremental front-membership tests instead of
// domination-count peeling) and exists as a cross-check: with epsilon
// 0 both produce identical partitions up to within-front order. With
// a positive epsilon the tolerance lets a lexicographically later
// individual dominate an earlier one, and the partitions can differ.
func RankIntersectSorter(population []*individual.Individual, epsilon float64) [][]*individual.Individual {
	n := len(population)
	if n == 0 {
		return nil
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		fx, fy := population[order[x]].Fitness, population[order[y]].Fitness
		for k := range fx {
			if fx[k] != fy[k] {
				return fx[k] < fy[k]
			}
		}
		return false
	})
	var fronts [][]int
	for _, i := range order {
		placed := false
		for f := range fronts {
			dominatedByFront := false
			for _, j := range fronts[f] {
				if dominates(population[j], population[i], epsilon) {
					dominatedByFront = true
					break
				}
			}
			if !dominatedByFront {
				fronts[f] = append(fronts[f], i)
				placed = true
				break
			}
		}
		if !placed {
			fronts = append(fronts, []int{i})
		}
	}
	return toIndividuals(population, fronts)
}

func toIndividuals(population []*individual.Individual, fronts [][]int) [][]*individual.Individual {
	out := make([][]*individual.Individual, len(fronts))
	for f, idxs := range fronts {
		row := make([]*individual.Individual, len(idxs))
		for k, i := range idxs {
			population[i].Rank = f
			row[k] = population[i]
		}
		out[f] = row
	}
	return out
}

// CrowdingDistance computes the NSGA-II crowding distance for every
// individual in front and returns it keyed by pointer identity;
// boundary individuals in each objective get +Inf so they are never
// squeezed out by a reinserter that prefers larger distances.
func CrowdingDistance(front []*individual.Individual) map[*individual.Individual]float64 {
	distance := make(map[*individual.Individual]float64, len(front))
	if len(front) == 0 {
		return distance
	}
	if len(front) <= 2 {
		for _, ind := range front {
			distance[ind] = math.Inf(1)
		}
		return distance
	}
	numObjectives := len(front[0].Fitness)
	ordered := append([]*individual.Individual(nil), front...)

	for m := 0; m < numObjectives; m++ {
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Fitness[m] < ordered[j].Fitness[m] })
		distance[ordered[0]] = math.Inf(1)
		distance[ordered[len(ordered)-1]] = math.Inf(1)

		span := ordered[len(ordered)-1].Fitness[m] - ordered[0].Fitness[m]
		if span == 0 {
			continue
		}
		for i := 1; i < len(ordered)-1; i++ {
			if math.IsInf(distance[ordered[i]], 1) {
				continue
			}
			distance[ordered[i]] += (ordered[i+1].Fitness[m] - ordered[i-1].Fitness[m]) / span
		}
	}
	return distance
}
