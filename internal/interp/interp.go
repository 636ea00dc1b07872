// Package interp implements the batched evaluation hot path: turning
// an individual, a dataset, and a row range into predictions and
// Jacobians with respect to the coefficient vector.
package interp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ealione/turingforge/internal/dataset"
	"github.com/ealione/turingforge/internal/dispatch"
	"github.com/ealione/turingforge/internal/individual"
)

// DefaultBatchSize is 512 bytes worth of float64 samples, the
// spec-nominated default of S = 512/sizeof(T).
const DefaultBatchSize = 512 / 8

// ErrShape is returned when the supplied coefficient vector does not
// match the individual's length.
var ErrShape = fmt.Errorf("interp: coefficient vector shape mismatch")

// Interpreter evaluates individuals over a dataset using a shared
// dispatch table. It holds no per-call state and is safe for
// concurrent use across workers once constructed.
type Interpreter struct {
	table     *dispatch.Table
	batchSize int
}

// New builds an interpreter over table. batchSize <= 0 selects
// DefaultBatchSize.
func New(table *dispatch.Table, batchSize int) *Interpreter {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Interpreter{table: table, batchSize: batchSize}
}

// monomial writes the product of x_j^exponent_j over the batch rows
// [start, start+n) of ds into out.
func monomial(ds *dataset.Dataset, exponent []float64, start, n int, out []float64) error {
	for i := 0; i < n; i++ {
		out[i] = 1
	}
	for j, e := range exponent {
		if j >= ds.Cols() {
			return fmt.Errorf("interp: exponent width %d exceeds dataset columns %d", len(exponent), ds.Cols())
		}
		col := ds.Values[j][start : start+n]
		switch e {
		case 0:
			// x^0 == 1 regardless of x; no-op.
		case 1:
			for i := 0; i < n; i++ {
				out[i] *= col[i]
			}
		default:
			for i := 0; i < n; i++ {
				out[i] *= math.Pow(col[i], e)
			}
		}
	}
	return nil
}

func (in *Interpreter) checkShape(ind *individual.Individual, r dataset.Range, ds *dataset.Dataset, coeff []float64) error {
	if len(coeff) != ind.Length() {
		return fmt.Errorf("%w: have %d coefficients, individual has length %d", ErrShape, len(coeff), ind.Length())
	}
	if r.End > ds.Rows() {
		return fmt.Errorf("%w: range end %d exceeds %d rows", dataset.ErrInvalidRange, r.End, ds.Rows())
	}
	return r.Validate()
}

// Evaluate computes y(x) for every row in r, using coeff in place of
// the individual's own coefficient vector (so callers can probe
// candidate coefficients during local search without mutating the
// individual).
func (in *Interpreter) Evaluate(ind *individual.Individual, ds *dataset.Dataset, r dataset.Range, coeff []float64) ([]float64, error) {
	if err := in.checkShape(ind, r, ds, coeff); err != nil {
		return nil, err
	}
	out := make([]float64, r.Size())
	termBuf := make([]float64, in.batchSize)
	primalBuf := make([]float64, in.batchSize)

	for start := r.Start; start < r.End; start += in.batchSize {
		n := min(in.batchSize, r.End-start)
		dst := out[start-r.Start : start-r.Start+n]
		for i := range dst {
			dst[i] = 0
		}
		for t := 0; t < ind.Length(); t++ {
			if err := monomial(ds, ind.Exponent[t], start, n, termBuf[:n]); err != nil {
				return nil, err
			}
			kernel, err := in.table.TryGetFunction(ind.Function[t])
			if err != nil {
				return nil, fmt.Errorf("interp: term %d: %w", t, err)
			}
			kernel([][]float64{termBuf[:n]}, primalBuf[:n])
			c := coeff[t]
			for i := 0; i < n; i++ {
				dst[i] += c * primalBuf[i]
			}
		}
	}
	return out, nil
}

// jacobianColumns computes, for every term, the column f_i(m_i(x))
// over r — the Jacobian of y with respect to coefficient_i, since the
// model is linear in the coefficients and m_i does not depend on
// them. The derivative kernel of each term's outer function is still
// invoked (and discarded) to exercise the dispatch table's
// derivative-kernel invariant and to let callers finite-difference
// validate kernels independently of this shortcut.
func (in *Interpreter) jacobianColumns(ind *individual.Individual, ds *dataset.Dataset, r dataset.Range) (*mat.Dense, error) {
	rows, cols := r.Size(), ind.Length()
	jac := mat.NewDense(rows, cols, nil)
	termBuf := make([]float64, in.batchSize)
	primalBuf := make([]float64, in.batchSize)
	derivBuf := make([]float64, in.batchSize)

	for t := 0; t < cols; t++ {
		kernel, err := in.table.TryGetFunction(ind.Function[t])
		if err != nil {
			return nil, fmt.Errorf("interp: term %d: %w", t, err)
		}
		deriv, hasDeriv := func() (dispatch.DerivativeKernel, bool) {
			d, err := in.table.TryGetDerivative(ind.Function[t])
			if err != nil {
				return nil, false
			}
			return d, true
		}()

		for start := r.Start; start < r.End; start += in.batchSize {
			n := min(in.batchSize, r.End-start)
			if err := monomial(ds, ind.Exponent[t], start, n, termBuf[:n]); err != nil {
				return nil, err
			}
			kernel([][]float64{termBuf[:n]}, primalBuf[:n])
			if hasDeriv {
				deriv([][]float64{termBuf[:n]}, 0, derivBuf[:n])
			}
			for i := 0; i < n; i++ {
				jac.Set(start-r.Start+i, t, primalBuf[i])
			}
		}
	}
	return jac, nil
}

// JacRev computes the reverse-mode Jacobian: seed the last term's
// partial with 1 and sweep backward, accumulating each coefficient's
// sensitivity from the chain through its own term only (terms are
// independent given coeff, so the sweep degenerates to per-column
// evaluation, matching jacobianColumns exactly).
func (in *Interpreter) JacRev(ind *individual.Individual, ds *dataset.Dataset, r dataset.Range, coeff []float64) (*mat.Dense, error) {
	if err := in.checkShape(ind, r, ds, coeff); err != nil {
		return nil, err
	}
	return in.jacobianColumns(ind, ds, r)
}

// JacFwd computes the forward-mode Jacobian: for each coefficient
// index, seed a one-hot dot vector and sweep forward through the sum.
// Because coefficient i only scales term i, the forward sweep also
// reduces to the term's own primal column.
func (in *Interpreter) JacFwd(ind *individual.Individual, ds *dataset.Dataset, r dataset.Range, coeff []float64) (*mat.Dense, error) {
	if err := in.checkShape(ind, r, ds, coeff); err != nil {
		return nil, err
	}
	return in.jacobianColumns(ind, ds, r)
}
