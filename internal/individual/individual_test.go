package individual_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ealione/turingforge/internal/function"
	"github.com/ealione/turingforge/internal/individual"
)

type IndividualSuite struct {
	suite.Suite
}

func (s *IndividualSuite) buildSimple() *individual.Individual {
	ind, err := individual.New(
		[]float64{2, 3},
		[]function.Kind{function.Cos, function.Sin},
		[][]float64{{1, 0}, {0, 1}},
		1,
	)
	require.NoError(s.T(), err)
	return ind
}

func (s *IndividualSuite) TestNewRejectsLengthMismatch() {
	_, err := individual.New(
		[]float64{1, 2},
		[]function.Kind{function.Cos},
		[][]float64{{1, 0}, {0, 1}},
		0,
	)
	require.Error(s.T(), err)
}

func (s *IndividualSuite) TestNewRejectsRaggedExponents() {
	_, err := individual.New(
		[]float64{1, 2},
		[]function.Kind{function.Cos, function.Sin},
		[][]float64{{1, 0}, {0}},
		0,
	)
	require.Error(s.T(), err)
}

func (s *IndividualSuite) TestLengthAndSize() {
	ind := s.buildSimple()
	require.Equal(s.T(), 2, ind.Length())
	require.Equal(s.T(), 2*(3+2), ind.Size(2))
}

func (s *IndividualSuite) TestGetSetCoefficients() {
	ind := s.buildSimple()
	require.Equal(s.T(), []float64{2, 3}, ind.GetCoefficients())

	require.NoError(s.T(), ind.SetCoefficients([]float64{5, 7}))
	require.Equal(s.T(), []float64{5, 7}, ind.Coefficient)

	require.Error(s.T(), ind.SetCoefficients([]float64{1}))
}

func (s *IndividualSuite) TestCloneIsIndependent() {
	ind := s.buildSimple()
	clone := ind.Clone()
	clone.Coefficient[0] = 999
	require.NotEqual(s.T(), ind.Coefficient[0], clone.Coefficient[0])

	clone.Exponent[0][0] = 42
	require.NotEqual(s.T(), ind.Exponent[0][0], clone.Exponent[0][0])
}

func (s *IndividualSuite) TestValidateRejectsOverMaxLength() {
	ind := s.buildSimple()
	require.Error(s.T(), ind.Validate(1))
	require.NoError(s.T(), ind.Validate(2))
	require.NoError(s.T(), ind.Validate(0))
}

func (s *IndividualSuite) TestValidateRejectsNaNFitness() {
	ind := s.buildSimple()
	ind.Fitness = []float64{math.NaN()}
	require.Error(s.T(), ind.Validate(0))
}

func (s *IndividualSuite) TestEvaluateAt() {
	ind := s.buildSimple()
	got, err := ind.EvaluateAt([]float64{1, 0}, func(k function.Kind, v float64) float64 {
		switch k {
		case function.Cos:
			return math.Cos(v)
		case function.Sin:
			return math.Sin(v)
		}
		return v
	})
	require.NoError(s.T(), err)
	want := 2*math.Cos(1) + 3*math.Sin(0)
	require.InDelta(s.T(), want, got, 1e-12)
}

func (s *IndividualSuite) TestEvaluateAtRejectsWidthMismatch() {
	ind := s.buildSimple()
	_, err := ind.EvaluateAt([]float64{1, 0, 0}, func(function.Kind, float64) float64 { return 0 })
	require.Error(s.T(), err)
}

func TestIndividualSuite(t *testing.T) {
	suite.Run(t, new(IndividualSuite))
}
