package reinserter_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ealione/turingforge/internal/individual"
	"github.com/ealione/turingforge/internal/reinserter"
	"github.com/ealione/turingforge/internal/selector"
)

type ReinserterSuite struct {
	suite.Suite
	rng *rand.Rand
}

func (s *ReinserterSuite) SetupTest() {
	s.rng = rand.New(rand.NewSource(11))
}

func withFitness(vs ...float64) []*individual.Individual {
	out := make([]*individual.Individual, len(vs))
	for i, v := range vs {
		out[i] = &individual.Individual{Fitness: []float64{v}}
	}
	return out
}

func fitnesses(pop []*individual.Individual) []float64 {
	out := make([]float64, len(pop))
	for i, ind := range pop {
		out[i] = ind.Fitness[0]
	}
	return out
}

func (s *ReinserterSuite) TestKeepBestReplacesOnlyWhenPoolBeatsPopulation() {
	population := withFitness(1, 2, 3, 4, 5)
	pool := withFitness(0, 100, 2.5)
	cmp := selector.SingleObjectiveComparison(0)

	r := reinserter.KeepBest(cmp)
	r(s.rng, population, pool)

	require.Len(s.T(), population, 5)
	require.Contains(s.T(), fitnesses(population), 0.0)
	require.NotContains(s.T(), fitnesses(population), 100.0, "worse offspring must never displace a better parent")
}

func (s *ReinserterSuite) TestReplaceWorstOverwritesWorstSlots() {
	population := withFitness(1, 2, 3, 4, 5)
	pool := withFitness(10, 11)
	cmp := selector.SingleObjectiveComparison(0)

	r := reinserter.ReplaceWorst(cmp)
	r(s.rng, population, pool)

	require.Len(s.T(), population, 5)
	fs := fitnesses(population)
	require.Contains(s.T(), fs, 10.0)
	require.Contains(s.T(), fs, 11.0)
	require.NotContains(s.T(), fs, 5.0, "the single worst parent must be overwritten")
}

func (s *ReinserterSuite) TestReplaceWorstTruncatesOversizedPool() {
	population := withFitness(1, 2, 3)
	pool := withFitness(-1, -2, -3, -4, -5)
	cmp := selector.SingleObjectiveComparison(0)

	r := reinserter.ReplaceWorst(cmp)
	r(s.rng, population, pool)

	require.Len(s.T(), population, 3)
	for _, v := range fitnesses(population) {
		require.LessOrEqual(s.T(), v, -3.0, "only the best of an oversized pool should survive")
	}
}

func (s *ReinserterSuite) TestEmptyPoolIsNoop() {
	population := withFitness(1, 2, 3)
	cmp := selector.SingleObjectiveComparison(0)

	reinserter.KeepBest(cmp)(s.rng, population, nil)
	require.Equal(s.T(), []float64{1, 2, 3}, fitnesses(population))
}

func TestReinserterSuite(t *testing.T) {
	suite.Run(t, new(ReinserterSuite))
}
