package function_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ealione/turingforge/internal/function"
)

type CatalogSuite struct {
	suite.Suite
}

func (s *CatalogSuite) TestArityBounds() {
	require.Equal(s.T(), 2, function.Pow.MinArity())
	require.Equal(s.T(), 2, function.Pow.MaxArity())
	require.True(s.T(), function.Cos.IsUnary())
	require.False(s.T(), function.Add.IsUnary())
	require.Equal(s.T(), 0, function.Variable.MinArity())
	require.Equal(s.T(), 0, function.Variable.MaxArity())
}

func (s *CatalogSuite) TestSampleRespectsEnabledSet() {
	cat := function.NewCatalog(function.Cos | function.Sin)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		k, err := cat.Sample(rng, 1, 1)
		require.NoError(s.T(), err)
		require.True(s.T(), k == function.Cos || k == function.Sin)
	}
}

func (s *CatalogSuite) TestSampleNoAdmissibleKind() {
	cat := function.NewCatalog(function.Cos)
	rng := rand.New(rand.NewSource(1))
	_, err := cat.Sample(rng, 2, 2)
	require.ErrorIs(s.T(), err, function.ErrNoAdmissibleKind)
}

func (s *CatalogSuite) TestDisableRemovesFromSampling() {
	cat := function.NewCatalog(function.Cos | function.Sin)
	require.NoError(s.T(), cat.Disable(function.Sin))
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 20; i++ {
		k, err := cat.Sample(rng, 1, 1)
		require.NoError(s.T(), err)
		require.Equal(s.T(), function.Cos, k)
	}
}

func (s *CatalogSuite) TestSetFrequencyRejectsNegative() {
	cat := function.NewCatalog(function.Cos)
	err := cat.SetFrequency(function.Cos, -1)
	require.Error(s.T(), err)
}

func (s *CatalogSuite) TestUnknownKindErrors() {
	cat := function.NewCatalog(function.Cos)
	const bogus = function.Kind(0)
	require.ErrorIs(s.T(), cat.Enable(bogus), function.ErrUnknownKind)
}

func TestCatalogSuite(t *testing.T) {
	suite.Run(t, new(CatalogSuite))
}
