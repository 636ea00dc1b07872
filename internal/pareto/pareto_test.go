package pareto_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ealione/turingforge/internal/individual"
	"github.com/ealione/turingforge/internal/pareto"
)

type ParetoSuite struct {
	suite.Suite
}

func withFitness(points [][]float64) []*individual.Individual {
	out := make([]*individual.Individual, len(points))
	for i, p := range points {
		out[i] = &individual.Individual{Fitness: append([]float64(nil), p...)}
	}
	return out
}

func frontKeys(fronts [][]*individual.Individual) [][]float64 {
	var out [][]float64
	for _, front := range fronts {
		for _, ind := range front {
			out = append(out, ind.Fitness)
		}
	}
	return out
}

func (s *ParetoSuite) TestDeductiveAndRankIntersectAgreeOnPartitionSizes() {
	points := [][]float64{
		{1, 5}, {2, 4}, {3, 3}, {4, 2}, {5, 1}, // front 0: mutually non-dominated
		{2, 6}, {3, 5}, // front 1
		{10, 10}, // front 2, dominated by everything
	}

	a := withFitness(points)
	b := withFitness(points)

	frontsA := pareto.DeductiveSorter(a, 0)
	frontsB := pareto.RankIntersectSorter(b, 0)

	require.Equal(s.T(), len(frontsA), len(frontsB))
	for i := range frontsA {
		require.Equal(s.T(), len(frontsA[i]), len(frontsB[i]), "front %d size must match between sorters", i)
	}
}

func (s *ParetoSuite) TestFirstFrontIsNonDominated() {
	points := [][]float64{{1, 5}, {2, 4}, {3, 3}, {10, 10}, {20, 20}}
	pop := withFitness(points)
	fronts := pareto.DeductiveSorter(pop, 0)
	require.GreaterOrEqual(s.T(), len(fronts), 2)
	require.Len(s.T(), fronts[0], 3)
}

func (s *ParetoSuite) TestDuplicatesCollapseIntoOneFront() {
	points := [][]float64{{1, 1}, {1, 1}, {1, 1}}
	pop := withFitness(points)
	fronts := pareto.DeductiveSorter(pop, 1e-9)
	require.Len(s.T(), fronts, 1)
	require.Len(s.T(), fronts[0], 3)
}

func (s *ParetoSuite) TestEveryIndividualAssignedExactlyOnce() {
	points := [][]float64{{1, 5}, {2, 4}, {3, 3}, {4, 2}, {5, 1}, {2, 6}, {3, 5}, {10, 10}}
	pop := withFitness(points)
	fronts := pareto.DeductiveSorter(pop, 0)
	require.Len(s.T(), frontKeys(fronts), len(points))
}

func (s *ParetoSuite) TestCrowdingDistanceGivesBoundaryPointsInfinity() {
	pop := withFitness([][]float64{{1, 5}, {2, 4}, {3, 3}, {4, 2}, {5, 1}})
	d := pareto.CrowdingDistance(pop)
	require.True(s.T(), math.IsInf(d[pop[0]], 1))
	require.True(s.T(), math.IsInf(d[pop[len(pop)-1]], 1))
	require.Less(s.T(), d[pop[2]], math.Inf(1))
}

func (s *ParetoSuite) TestCrowdingDistanceSmallFrontIsAllInfinity() {
	pop := withFitness([][]float64{{1, 1}, {2, 2}})
	d := pareto.CrowdingDistance(pop)
	for _, ind := range pop {
		require.True(s.T(), math.IsInf(d[ind], 1))
	}
}

func TestParetoSuite(t *testing.T) {
	suite.Run(t, new(ParetoSuite))
}
