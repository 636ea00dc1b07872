// Package individual defines the candidate-solution representation
// shared by every operator: a fixed-shape sum of coefficient-scaled,
// function-wrapped monomials.
package individual

import (
	"fmt"
	"math"

	"github.com/ealione/turingforge/internal/function"
)

// ErrMax is the fitness sentinel written when an individual cannot be
// evaluated (budget exhaustion, non-finite score); it equals
// evaluator.ErrMax.
var ErrMax = math.MaxFloat64

// Individual is the candidate solution: three equal-length sequences
// describing L terms, `y(x) = sum_i coefficient[i] * function[i](prod_j x_j^exponent[i][j])`.
type Individual struct {
	Coefficient []float64
	Function    []function.Kind
	Exponent    [][]float64

	Fitness []float64
	Rank    int
	Birth   uint64
}

// New builds an individual of length L from parallel slices; exponent
// rows are copied so callers may reuse their source buffers.
func New(coefficient []float64, fn []function.Kind, exponent [][]float64, birth uint64) (*Individual, error) {
	ind := &Individual{
		Coefficient: append([]float64(nil), coefficient...),
		Function:    append([]function.Kind(nil), fn...),
		Exponent:    make([][]float64, len(exponent)),
		Birth:       birth,
	}
	for i, row := range exponent {
		ind.Exponent[i] = append([]float64(nil), row...)
	}
	if err := ind.Validate(0); err != nil {
		return nil, err
	}
	return ind, nil
}

// Length returns L, the number of terms.
func (ind *Individual) Length() int { return len(ind.Coefficient) }

// Size reports the memory-accounting unit used for reporting: three
// scalars per term plus one exponent slot per input variable.
func (ind *Individual) Size(numVariables int) int {
	return ind.Length() * (3 + numVariables)
}

// Validate checks every invariant in §3 of the representation,
// rejecting a length above maxLength when maxLength > 0.
func (ind *Individual) Validate(maxLength int) error {
	l := len(ind.Coefficient)
	if l != len(ind.Function) || l != len(ind.Exponent) {
		return fmt.Errorf("individual: component length mismatch: coefficient=%d function=%d exponent=%d",
			l, len(ind.Function), len(ind.Exponent))
	}
	if l < 1 {
		return fmt.Errorf("individual: length must be >= 1 (got %d)", l)
	}
	if maxLength > 0 && l > maxLength {
		return fmt.Errorf("individual: length %d exceeds max %d", l, maxLength)
	}
	width := -1
	for i, row := range ind.Exponent {
		if width == -1 {
			width = len(row)
		}
		if len(row) != width {
			return fmt.Errorf("individual: exponent[%d] has width %d, want %d", i, len(row), width)
		}
	}
	for i, f := range ind.Fitness {
		if math.IsNaN(f) {
			return fmt.Errorf("individual: fitness[%d] is NaN", i)
		}
	}
	return nil
}

// GetCoefficients returns a copy of the coefficient vector.
func (ind *Individual) GetCoefficients() []float64 {
	return append([]float64(nil), ind.Coefficient...)
}

// SetCoefficients overwrites the coefficient vector; v must have
// length Length().
func (ind *Individual) SetCoefficients(v []float64) error {
	if len(v) != ind.Length() {
		return fmt.Errorf("individual: setCoefficients expects %d values, got %d", ind.Length(), len(v))
	}
	copy(ind.Coefficient, v)
	return nil
}

// Clone deep-copies the individual, including its fitness vector.
func (ind *Individual) Clone() *Individual {
	out := &Individual{
		Coefficient: append([]float64(nil), ind.Coefficient...),
		Function:    append([]function.Kind(nil), ind.Function...),
		Exponent:    make([][]float64, len(ind.Exponent)),
		Fitness:     append([]float64(nil), ind.Fitness...),
		Rank:        ind.Rank,
		Birth:       ind.Birth,
	}
	for i, row := range ind.Exponent {
		out.Exponent[i] = append([]float64(nil), row...)
	}
	return out
}

// EvaluateAt computes y(x) for a single point, for use by tests and
// small diagnostic tools; the interpreter's batched path is the
// production evaluation surface.
func (ind *Individual) EvaluateAt(x []float64, apply func(k function.Kind, v float64) float64) (float64, error) {
	var total float64
	for i := range ind.Coefficient {
		row := ind.Exponent[i]
		if len(row) != len(x) {
			return 0, fmt.Errorf("individual: exponent[%d] width %d does not match input width %d", i, len(row), len(x))
		}
		monomial := 1.0
		for j, e := range row {
			monomial *= math.Pow(x[j], e)
		}
		total += ind.Coefficient[i] * apply(ind.Function[i], monomial)
	}
	return total, nil
}
