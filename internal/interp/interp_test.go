package interp_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ealione/turingforge/internal/dataset"
	"github.com/ealione/turingforge/internal/dispatch"
	"github.com/ealione/turingforge/internal/function"
	"github.com/ealione/turingforge/internal/individual"
	"github.com/ealione/turingforge/internal/interp"
)

type InterpSuite struct {
	suite.Suite
	ds    *dataset.Dataset
	table *dispatch.Table
}

func (s *InterpSuite) SetupTest() {
	ds, err := dataset.NewDataset([]string{"x"}, [][]float64{{0, 1, 2, 3}})
	require.NoError(s.T(), err)
	s.ds = ds
	s.table = dispatch.NewTable()
}

func (s *InterpSuite) TestEvaluateSmallBatchMatchesLargeBatch() {
	ind, err := individual.New(
		[]float64{2, -1},
		[]function.Kind{function.Square, function.Cos},
		[][]float64{{1}, {1}},
		0,
	)
	require.NoError(s.T(), err)
	r, err := dataset.NewRange(0, 4)
	require.NoError(s.T(), err)

	small := interp.New(s.table, 1)
	big := interp.New(s.table, interp.DefaultBatchSize)

	outSmall, err := small.Evaluate(ind, s.ds, r, ind.GetCoefficients())
	require.NoError(s.T(), err)
	outBig, err := big.Evaluate(ind, s.ds, r, ind.GetCoefficients())
	require.NoError(s.T(), err)
	require.Equal(s.T(), outBig, outSmall)

	for i, x := range []float64{0, 1, 2, 3} {
		want := 2*x*x - math.Cos(x)
		require.InDelta(s.T(), want, outSmall[i], 1e-9)
	}
}

func (s *InterpSuite) TestExponentZeroIsConstantOne() {
	ind, err := individual.New(
		[]float64{5},
		[]function.Kind{function.Square},
		[][]float64{{0}},
		0,
	)
	require.NoError(s.T(), err)
	r, err := dataset.NewRange(0, 4)
	require.NoError(s.T(), err)

	it := interp.New(s.table, interp.DefaultBatchSize)
	out, err := it.Evaluate(ind, s.ds, r, ind.GetCoefficients())
	require.NoError(s.T(), err)
	for _, v := range out {
		require.InDelta(s.T(), 5, v, 1e-12)
	}
}

func (s *InterpSuite) TestShapeErrorOnCoefficientMismatch() {
	ind, err := individual.New([]float64{1}, []function.Kind{function.Cos}, [][]float64{{1}}, 0)
	require.NoError(s.T(), err)
	r, err := dataset.NewRange(0, 4)
	require.NoError(s.T(), err)

	it := interp.New(s.table, interp.DefaultBatchSize)
	_, err = it.Evaluate(ind, s.ds, r, []float64{1, 2})
	require.ErrorIs(s.T(), err, interp.ErrShape)
}

func (s *InterpSuite) TestRangeExceedsDatasetFails() {
	ind, err := individual.New([]float64{1}, []function.Kind{function.Cos}, [][]float64{{1}}, 0)
	require.NoError(s.T(), err)
	r := dataset.Range{Start: 0, End: 100}

	it := interp.New(s.table, interp.DefaultBatchSize)
	_, err = it.Evaluate(ind, s.ds, r, ind.GetCoefficients())
	require.Error(s.T(), err)
}

func (s *InterpSuite) TestJacRevAndJacFwdAgree() {
	ind, err := individual.New(
		[]float64{2, -1, 0.5},
		[]function.Kind{function.Square, function.Cos, function.Sin},
		[][]float64{{1}, {1}, {2}},
		0,
	)
	require.NoError(s.T(), err)
	r, err := dataset.NewRange(0, 4)
	require.NoError(s.T(), err)

	it := interp.New(s.table, interp.DefaultBatchSize)
	rev, err := it.JacRev(ind, s.ds, r, ind.GetCoefficients())
	require.NoError(s.T(), err)
	fwd, err := it.JacFwd(ind, s.ds, r, ind.GetCoefficients())
	require.NoError(s.T(), err)

	rr, rc := rev.Dims()
	require.Equal(s.T(), 4, rr)
	require.Equal(s.T(), 3, rc)
	for i := 0; i < rr; i++ {
		for j := 0; j < rc; j++ {
			require.InDelta(s.T(), rev.At(i, j), fwd.At(i, j), 1e-12)
		}
	}
}

func (s *InterpSuite) TestJacobianColumnMatchesFiniteDifference() {
	ind, err := individual.New(
		[]float64{1, 1},
		[]function.Kind{function.Square, function.Cos},
		[][]float64{{1}, {1}},
		0,
	)
	require.NoError(s.T(), err)
	r, err := dataset.NewRange(0, 4)
	require.NoError(s.T(), err)
	it := interp.New(s.table, interp.DefaultBatchSize)

	base := ind.GetCoefficients()
	jac, err := it.JacRev(ind, s.ds, r, base)
	require.NoError(s.T(), err)

	const h = 1e-6
	for col := 0; col < ind.Length(); col++ {
		plus := append([]float64(nil), base...)
		minus := append([]float64(nil), base...)
		plus[col] += h
		minus[col] -= h
		yPlus, err := it.Evaluate(ind, s.ds, r, plus)
		require.NoError(s.T(), err)
		yMinus, err := it.Evaluate(ind, s.ds, r, minus)
		require.NoError(s.T(), err)
		for row := 0; row < r.Size(); row++ {
			fd := (yPlus[row] - yMinus[row]) / (2 * h)
			require.InDelta(s.T(), fd, jac.At(row, col), 1e-4)
		}
	}
}

func TestInterpSuite(t *testing.T) {
	suite.Run(t, new(InterpSuite))
}
