package metrics_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ealione/turingforge/internal/metrics"
)

type MetricsSuite struct {
	suite.Suite
}

func (s *MetricsSuite) TestPerfectFitScoresZero() {
	y := []float64{1, 2, 3, 4}
	mse, err := metrics.MSE(y, y)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 0.0, mse)

	r2, err := metrics.R2(y, y)
	require.NoError(s.T(), err)
	require.InDelta(s.T(), 0, r2, 1e-12)

	cc, err := metrics.CorrelationCoefficient(y, y)
	require.NoError(s.T(), err)
	require.InDelta(s.T(), 0, cc, 1e-9)
}

func (s *MetricsSuite) TestLengthMismatchErrors() {
	_, err := metrics.MSE([]float64{1, 2}, []float64{1})
	require.ErrorIs(s.T(), err, metrics.ErrLengthMismatch)
}

func (s *MetricsSuite) TestRMSEIsSqrtOfMSE() {
	yPred := []float64{0, 0, 0}
	yTrue := []float64{3, 4, 0}
	mse, err := metrics.MSE(yPred, yTrue)
	require.NoError(s.T(), err)
	rmse, err := metrics.RMSE(yPred, yTrue)
	require.NoError(s.T(), err)
	require.InDelta(s.T(), math.Sqrt(mse), rmse, 1e-12)
}

func (s *MetricsSuite) TestNMSEConstantTargetIsNaN() {
	yPred := []float64{1, 1, 1}
	yTrue := []float64{5, 5, 5}
	v, err := metrics.NMSE(yPred, yTrue)
	require.NoError(s.T(), err)
	require.True(s.T(), math.IsNaN(v))
}

func (s *MetricsSuite) TestWeightedMSEZeroTotalWeightIsNaN() {
	v, err := metrics.WeightedMSE([]float64{1, 2}, []float64{1, 2}, []float64{0, 0})
	require.NoError(s.T(), err)
	require.True(s.T(), math.IsNaN(v))
}

func (s *MetricsSuite) TestWeightedMSERejectsNegativeWeight() {
	_, err := metrics.WeightedMSE([]float64{1}, []float64{2}, []float64{-1})
	require.Error(s.T(), err)
}

func (s *MetricsSuite) TestStreamAccumulatorMatchesClosedForm() {
	yPred := []float64{1, 2, 3, 4}
	yTrue := []float64{1.5, 1.5, 3.5, 3.0}

	var acc metrics.StreamAccumulator
	for i := range yPred {
		acc.Add(yPred[i], yTrue[i])
	}
	closed, err := metrics.MSE(yPred, yTrue)
	require.NoError(s.T(), err)
	require.InDelta(s.T(), closed, acc.MSE(), 1e-12)
	require.Equal(s.T(), len(yPred), acc.N())
}

func (s *MetricsSuite) TestMAENonNegative() {
	mae, err := metrics.MAE([]float64{1, -2, 3}, []float64{0, 0, 0})
	require.NoError(s.T(), err)
	require.InDelta(s.T(), 2.0, mae, 1e-12)
}

func TestMetricsSuite(t *testing.T) {
	suite.Run(t, new(MetricsSuite))
}
