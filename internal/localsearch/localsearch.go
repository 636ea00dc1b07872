// Package localsearch refines a single individual's coefficient
// vector, pluggable behind a common Optimizer interface so the
// evaluator can swap Levenberg-Marquardt, stochastic gradient
// descent, or a metaheuristic backend without changing its pipeline.
package localsearch

import (
	"math/rand"

	"github.com/ealione/turingforge/internal/dataset"
	"github.com/ealione/turingforge/internal/individual"
	"github.com/ealione/turingforge/internal/interp"
)

// Problem bundles the inputs an Optimizer needs to refine one
// individual's coefficients against one training window.
type Problem struct {
	Individual *individual.Individual
	Dataset    *dataset.Dataset
	Range      dataset.Range
	Target     []float64
	Interp     *interp.Interpreter
}

// Summary reports the outcome of one optimization run.
type Summary struct {
	InitialCost float64
	FinalCost   float64
	Iterations  int
	Success     bool
	Parameters  []float64
}

// Optimizer refines a problem's coefficient vector and reports a
// Summary. Success is defined as FinalCost < InitialCost; a run that
// produces NaN must report Success == false.
type Optimizer interface {
	Optimize(rng *rand.Rand, p Problem) (Summary, error)
}

// cost computes the sum of squared residuals of coeff against target
// over p's range.
func cost(p Problem, coeff []float64) (float64, []float64, error) {
	pred, err := p.Interp.Evaluate(p.Individual, p.Dataset, p.Range, coeff)
	if err != nil {
		return 0, nil, err
	}
	residual := make([]float64, len(pred))
	var sse float64
	for i := range pred {
		residual[i] = pred[i] - p.Target[i]
		sse += residual[i] * residual[i]
	}
	return sse, residual, nil
}
