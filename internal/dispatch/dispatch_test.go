package dispatch_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ealione/turingforge/internal/dispatch"
	"github.com/ealione/turingforge/internal/function"
)

type DispatchSuite struct {
	suite.Suite
	table *dispatch.Table
}

func (s *DispatchSuite) SetupTest() {
	s.table = dispatch.NewTable()
}

func (s *DispatchSuite) TestEveryBuiltinUnaryHasPrimalAndDerivative() {
	unary := []function.Kind{
		function.Abs, function.Acos, function.Asin, function.Atan, function.Cbrt, function.Ceil,
		function.Cos, function.Cosh, function.Exp, function.Floor, function.Log, function.Logabs,
		function.Log1p, function.Sin, function.Sinh, function.Sqrt, function.Sqrtabs, function.Tan,
		function.Tanh, function.Square,
	}
	for _, k := range unary {
		_, err := s.table.TryGetFunction(k)
		require.NoErrorf(s.T(), err, "primal kernel missing for %v", k)
		_, err = s.table.TryGetDerivative(k)
		require.NoErrorf(s.T(), err, "derivative kernel missing for %v", k)
	}
}

func (s *DispatchSuite) TestCosPrimal() {
	f, err := s.table.TryGetFunction(function.Cos)
	require.NoError(s.T(), err)
	out := make([]float64, 3)
	f([][]float64{{0, math.Pi, math.Pi / 2}}, out)
	require.InDelta(s.T(), 1, out[0], 1e-9)
	require.InDelta(s.T(), -1, out[1], 1e-9)
	require.InDelta(s.T(), 0, out[2], 1e-9)
}

func (s *DispatchSuite) TestAqNeverDividesByZero() {
	f, err := s.table.TryGetFunction(function.Aq)
	require.NoError(s.T(), err)
	out := make([]float64, 1)
	f([][]float64{{5}, {0}}, out)
	require.InDelta(s.T(), 5, out[0], 1e-12)
}

func (s *DispatchSuite) TestPowNonPositiveBaseIsNaN() {
	f, err := s.table.TryGetFunction(function.Pow)
	require.NoError(s.T(), err)
	out := make([]float64, 2)
	f([][]float64{{-2, 0}, {0.5, 2}}, out)
	require.True(s.T(), math.IsNaN(out[0]))
	require.True(s.T(), math.IsNaN(out[1]))
}

func (s *DispatchSuite) TestPowPositiveBase() {
	f, err := s.table.TryGetFunction(function.Pow)
	require.NoError(s.T(), err)
	out := make([]float64, 1)
	f([][]float64{{2}, {3}}, out)
	require.InDelta(s.T(), 8, out[0], 1e-9)
}

func (s *DispatchSuite) TestLogabsHandlesNegativeInput() {
	f, err := s.table.TryGetFunction(function.Logabs)
	require.NoError(s.T(), err)
	out := make([]float64, 1)
	f([][]float64{{-math.E}}, out)
	require.InDelta(s.T(), 1, out[0], 1e-9)
}

func (s *DispatchSuite) TestSqrtabsHandlesNegativeInput() {
	f, err := s.table.TryGetFunction(function.Sqrtabs)
	require.NoError(s.T(), err)
	out := make([]float64, 1)
	f([][]float64{{-4}}, out)
	require.InDelta(s.T(), 2, out[0], 1e-9)
}

func (s *DispatchSuite) TestUnknownKindFails() {
	_, err := s.table.TryGetFunction(function.Dynamic)
	require.ErrorIs(s.T(), err, dispatch.ErrNoKernel)
}

func (s *DispatchSuite) TestNaryAddAndMul() {
	add, err := s.table.TryGetFunction(function.Add)
	require.NoError(s.T(), err)
	out := make([]float64, 1)
	add([][]float64{{1}, {2}, {3}}, out)
	require.InDelta(s.T(), 6, out[0], 1e-12)

	mul, err := s.table.TryGetFunction(function.Mul)
	require.NoError(s.T(), err)
	mul([][]float64{{2}, {3}, {4}}, out)
	require.InDelta(s.T(), 24, out[0], 1e-12)
}

func TestDispatchSuite(t *testing.T) {
	suite.Run(t, new(DispatchSuite))
}
