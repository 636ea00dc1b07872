package dataset_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ealione/turingforge/internal/dataset"
)

type DatasetSuite struct {
	suite.Suite
}

func (s *DatasetSuite) buildDataset() *dataset.Dataset {
	ds, err := dataset.NewDataset(
		[]string{"x", "y"},
		[][]float64{
			{1, 2, 3, 4},
			{10, 20, 30, 40},
		},
	)
	require.NoError(s.T(), err)
	return ds
}

func (s *DatasetSuite) TestNewDatasetRejectsMismatchedColumns() {
	_, err := dataset.NewDataset([]string{"x", "y"}, [][]float64{{1, 2}})
	require.Error(s.T(), err)
}

func (s *DatasetSuite) TestNewDatasetRejectsRaggedRows() {
	_, err := dataset.NewDataset([]string{"x", "y"}, [][]float64{{1, 2}, {1}})
	require.Error(s.T(), err)
}

func (s *DatasetSuite) TestColumnLookup() {
	ds := s.buildDataset()
	col, err := ds.Column("y")
	require.NoError(s.T(), err)
	require.Equal(s.T(), []float64{10, 20, 30, 40}, col)

	_, err = ds.Column("z")
	require.Error(s.T(), err)
}

func (s *DatasetSuite) TestRangeValidation() {
	_, err := dataset.NewRange(5, 2)
	require.ErrorIs(s.T(), err, dataset.ErrInvalidRange)

	r, err := dataset.NewRange(1, 3)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 2, r.Size())
}

func (s *DatasetSuite) TestSliceSharesBackingArray() {
	ds := s.buildDataset()
	r, err := dataset.NewRange(1, 3)
	require.NoError(s.T(), err)

	sub, err := ds.Slice(r)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 2, sub.Rows())

	col, err := sub.Column("x")
	require.NoError(s.T(), err)
	col[0] = 999

	full, err := ds.Column("x")
	require.NoError(s.T(), err)
	require.Equal(s.T(), 999.0, full[1], "slice must share backing storage")
}

func (s *DatasetSuite) TestSliceRejectsOutOfBounds() {
	ds := s.buildDataset()
	r := dataset.Range{Start: 0, End: 10}
	_, err := ds.Slice(r)
	require.Error(s.T(), err)
}

func (s *DatasetSuite) TestStandardizeZeroMeanUnitVariance() {
	ds := s.buildDataset()
	mean, std, err := ds.Standardize("y")
	require.NoError(s.T(), err)
	require.InDelta(s.T(), 25, mean, 1e-9)
	require.Greater(s.T(), std, 0.0)

	col, err := ds.Column("y")
	require.NoError(s.T(), err)
	var sum float64
	for _, v := range col {
		sum += v
	}
	require.InDelta(s.T(), 0, sum/float64(len(col)), 1e-9)
}

func (s *DatasetSuite) TestStandardizeConstantColumnLeavesStdOne() {
	ds, err := dataset.NewDataset([]string{"c"}, [][]float64{{5, 5, 5}})
	require.NoError(s.T(), err)
	_, std, err := ds.Standardize("c")
	require.NoError(s.T(), err)
	require.Equal(s.T(), 1.0, std)
}

func (s *DatasetSuite) TestShufflePreservesRowAlignment() {
	ds := s.buildDataset()
	ds.Shuffle(rand.New(rand.NewSource(7)))

	x, err := ds.Column("x")
	require.NoError(s.T(), err)
	y, err := ds.Column("y")
	require.NoError(s.T(), err)
	for i := range x {
		require.Equal(s.T(), x[i]*10, y[i], "shuffle must move paired columns together")
	}
}

func TestDatasetSuite(t *testing.T) {
	suite.Run(t, new(DatasetSuite))
}
