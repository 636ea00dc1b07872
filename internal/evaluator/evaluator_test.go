package evaluator_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ealione/turingforge/internal/dataset"
	"github.com/ealione/turingforge/internal/dispatch"
	"github.com/ealione/turingforge/internal/evaluator"
	"github.com/ealione/turingforge/internal/function"
	"github.com/ealione/turingforge/internal/individual"
	"github.com/ealione/turingforge/internal/interp"
	"github.com/ealione/turingforge/internal/localsearch"
	"github.com/ealione/turingforge/internal/metrics"
)

type EvaluatorSuite struct {
	suite.Suite
	it    *interp.Interpreter
	ds    *dataset.Dataset
	ind   *individual.Individual
	rng   *rand.Rand
	rang3 dataset.Range
	y     []float64
}

func (s *EvaluatorSuite) SetupTest() {
	x := make([]float64, 20)
	y := make([]float64, 20)
	for i := range x {
		x[i] = float64(i)
		y[i] = 2*x[i] + 5
	}
	ds, err := dataset.NewDataset([]string{"x"}, [][]float64{x})
	require.NoError(s.T(), err)
	s.ds = ds
	s.y = y

	// x is non-negative here, so Abs(x^1) == x: pred is exactly
	// affine in x, letting linear scaling recover the linear target
	// (2x+5) exactly.
	ind, err := individual.New([]float64{1}, []function.Kind{function.Abs}, [][]float64{{1}}, 0)
	require.NoError(s.T(), err)
	s.ind = ind

	r, err := dataset.NewRange(0, 20)
	require.NoError(s.T(), err)
	s.rang3 = r

	s.it = interp.New(dispatch.NewTable(), interp.DefaultBatchSize)
	s.rng = rand.New(rand.NewSource(5))
}

func (s *EvaluatorSuite) TestEvaluateReturnsSingleObjectiveFitness() {
	cfg := evaluator.DefaultConfig(metrics.MSE)
	ev, err := evaluator.New(cfg, s.it)
	require.NoError(s.T(), err)

	fitness, err := ev.Evaluate(s.rng, s.ind, s.ds, s.rang3, s.y)
	require.NoError(s.T(), err)
	require.Len(s.T(), fitness, 1)
	require.GreaterOrEqual(s.T(), fitness[0], 0.0)

	residuals, _, calls, _ := ev.Counters()
	require.Equal(s.T(), int64(1), calls)
	require.GreaterOrEqual(s.T(), residuals, int64(1))
}

func (s *EvaluatorSuite) TestLinearScalingRecoversPerfectFitOnLinearTarget() {
	cfg := evaluator.DefaultConfig(metrics.MSE)
	cfg.LinearScaling = true
	ev, err := evaluator.New(cfg, s.it)
	require.NoError(s.T(), err)

	fitness, err := ev.Evaluate(s.rng, s.ind, s.ds, s.rang3, s.y)
	require.NoError(s.T(), err)
	require.InDelta(s.T(), 0, fitness[0], 1e-6)
}

func (s *EvaluatorSuite) TestBudgetExhaustionReturnsErrMax() {
	cfg := evaluator.DefaultConfig(metrics.MSE)
	cfg.Budget = 1
	ev, err := evaluator.New(cfg, s.it)
	require.NoError(s.T(), err)

	_, err = ev.Evaluate(s.rng, s.ind, s.ds, s.rang3, s.y)
	require.NoError(s.T(), err)

	fitness, err := ev.Evaluate(s.rng, s.ind, s.ds, s.rang3, s.y)
	require.NoError(s.T(), err)
	require.Equal(s.T(), evaluator.ErrMax, fitness[0])
}

func (s *EvaluatorSuite) TestLamarckianInheritanceWritesBackCoefficients() {
	lm, err := localsearch.NewLM(localsearch.DefaultLMConfig())
	require.NoError(s.T(), err)

	cfg := evaluator.DefaultConfig(metrics.MSE)
	cfg.LocalSearch = lm
	cfg.LamarckianProbability = 1.0
	ev, err := evaluator.New(cfg, s.it)
	require.NoError(s.T(), err)

	before := s.ind.GetCoefficients()[0]
	_, err = ev.Evaluate(s.rng, s.ind, s.ds, s.rang3, s.y)
	require.NoError(s.T(), err)
	require.NotEqual(s.T(), before, s.ind.Coefficient[0])
}

func (s *EvaluatorSuite) TestConfigRejectsNilMetric() {
	cfg := evaluator.Config{}
	require.Error(s.T(), cfg.Validate())
}

func TestEvaluatorSuite(t *testing.T) {
	suite.Run(t, new(EvaluatorSuite))
}
