// Package dataset holds the tabular input a search run is evaluated
// against: named variables, the row ranges used to partition a table
// into training/test windows, and a column-major Dataset that backs
// the interpreter's batched evaluation.
package dataset

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Variable names one input column and records a stable hash used to
// key dispatch-table caches and format output deterministically
// across runs built from the same columns.
type Variable struct {
	Name  string
	Index int
	Hash  uint64
}

// hashName derives a stable FNV-1a hash of the variable's name so two
// datasets built from the same CSV header produce identical hashes
// regardless of process or platform.
func hashName(name string) uint64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211
	h := uint64(offset64)
	for i := 0; i < len(name); i++ {
		h ^= uint64(name[i])
		h *= prime64
	}
	return h
}

// NewVariable builds a Variable with its hash derived from name.
func NewVariable(name string, index int) Variable {
	return Variable{Name: name, Index: index, Hash: hashName(name)}
}

// ErrInvalidRange is returned when a Range's bounds are inverted or
// fall outside the backing dataset.
var ErrInvalidRange = fmt.Errorf("dataset: invalid range")

// Range is a half-open row window [Start, End) into a Dataset.
type Range struct {
	Start int
	End   int
}

// NewRange validates start <= end before returning the window.
func NewRange(start, end int) (Range, error) {
	r := Range{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// Validate reports whether the range's bounds are non-negative and
// non-inverted.
func (r Range) Validate() error {
	if r.Start < 0 || r.End < 0 {
		return fmt.Errorf("%w: negative bound [%d, %d)", ErrInvalidRange, r.Start, r.End)
	}
	if r.Start > r.End {
		return fmt.Errorf("%w: start %d after end %d", ErrInvalidRange, r.Start, r.End)
	}
	return nil
}

// Size reports the number of rows the range covers.
func (r Range) Size() int { return r.End - r.Start }

// Dataset is a column-major table: Values[c] is the contiguous slice
// of every row's value for variable c. Column-major layout lets the
// interpreter stream a variable's values without a row-stride gather.
type Dataset struct {
	Variables []Variable
	Values    [][]float64
	rows      int
}

// NewDataset builds a dataset from column-major values, deriving
// variable metadata from header names. Every column must have the
// same length.
func NewDataset(header []string, columns [][]float64) (*Dataset, error) {
	if len(header) != len(columns) {
		return nil, fmt.Errorf("dataset: %d header names for %d columns", len(header), len(columns))
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("dataset: no columns")
	}
	rows := len(columns[0])
	for i, col := range columns {
		if len(col) != rows {
			return nil, fmt.Errorf("dataset: column %q has %d rows, want %d", header[i], len(col), rows)
		}
	}
	vars := make([]Variable, len(header))
	for i, name := range header {
		vars[i] = NewVariable(name, i)
	}
	return &Dataset{Variables: vars, Values: columns, rows: rows}, nil
}

// Rows reports the number of rows in the dataset.
func (d *Dataset) Rows() int { return d.rows }

// Cols reports the number of variables (columns) in the dataset.
func (d *Dataset) Cols() int { return len(d.Variables) }

// Column returns the backing slice for the named variable, or an
// error if no variable with that name exists.
func (d *Dataset) Column(name string) ([]float64, error) {
	for i, v := range d.Variables {
		if v.Name == name {
			return d.Values[i], nil
		}
	}
	return nil, fmt.Errorf("dataset: unknown variable %q", name)
}

// Slice returns the sub-dataset covering r's row window, sharing the
// underlying backing arrays (no copy).
func (d *Dataset) Slice(r Range) (*Dataset, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if r.End > d.rows {
		return nil, fmt.Errorf("%w: end %d exceeds %d rows", ErrInvalidRange, r.End, d.rows)
	}
	cols := make([][]float64, len(d.Values))
	for i, col := range d.Values {
		cols[i] = col[r.Start:r.End]
	}
	return &Dataset{Variables: d.Variables, Values: cols, rows: r.Size()}, nil
}

// Shuffle permutes rows in place across every column using a single
// Fisher-Yates pass so paired columns (e.g. a target alongside its
// predictors) stay aligned.
func (d *Dataset) Shuffle(rng interface{ Intn(int) int }) {
	for i := d.rows - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		for _, col := range d.Values {
			col[i], col[j] = col[j], col[i]
		}
	}
}

// Standardize rewrites the named column in place to zero mean and
// unit variance, returning the (mean, std) used so callers can invert
// the transform later. A column with zero variance is left untouched
// and std is reported as 1.
func (d *Dataset) Standardize(name string) (mean, std float64, err error) {
	col, err := d.Column(name)
	if err != nil {
		return 0, 0, err
	}
	mean, variance := stat.MeanVariance(col, nil)
	std = 1
	if variance > 0 {
		std = math.Sqrt(variance)
	}
	for i := range col {
		col[i] = (col[i] - mean) / std
	}
	return mean, std, nil
}
