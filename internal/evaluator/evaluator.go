// Package evaluator turns an individual into a fitness vector: it
// optionally refines coefficients via local search, predicts over the
// training range, optionally applies linear scaling, and scores the
// result with a configured error metric.
package evaluator

import (
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ealione/turingforge/internal/dataset"
	"github.com/ealione/turingforge/internal/individual"
	"github.com/ealione/turingforge/internal/interp"
	"github.com/ealione/turingforge/internal/localsearch"
)

// ErrMax is substituted for a non-finite metric result.
const ErrMax = math.MaxFloat64

// Metric scores predictions against targets, lower is better.
type Metric func(yPred, yTrue []float64) (float64, error)

// Config configures one Evaluator.
type Config struct {
	Metric Metric

	// LocalSearch refines coefficients before scoring, when non-nil.
	LocalSearch localsearch.Optimizer
	// LamarckianProbability is the chance that a successful local
	// search's optimized coefficients are written back into the
	// individual (vs. used only to score this evaluation).
	LamarckianProbability float64

	// StructuralSearch, when non-nil, additionally perturbs the
	// individual's integer exponents; it always writes back since it
	// has no non-Lamarckian mode (see internal/localsearch.Structural).
	StructuralSearch localsearch.Optimizer

	LinearScaling bool

	// Budget caps the sum of residual and Jacobian evaluations; 0
	// disables budget enforcement.
	Budget int
}

// DefaultEvaluationBudget matches the default used by the originating
// engine's evaluator.
const DefaultEvaluationBudget = 100000

// DefaultConfig returns an evaluator config scoring with metric, with
// linear scaling enabled, no local search, and the default budget.
func DefaultConfig(metric Metric) Config {
	return Config{
		Metric:        metric,
		LinearScaling: true,
		Budget:        DefaultEvaluationBudget,
	}
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.Metric == nil {
		return fmt.Errorf("evaluator: metric must not be nil")
	}
	if c.LamarckianProbability < 0 || c.LamarckianProbability > 1 {
		return fmt.Errorf("evaluator: lamarckianProbability must be in [0,1] (got %f)", c.LamarckianProbability)
	}
	if c.Budget < 0 {
		return fmt.Errorf("evaluator: budget must be >= 0 (got %d)", c.Budget)
	}
	return nil
}

// Evaluator scores individuals and tracks four monotonic counters for
// budget accounting: residual evaluations, Jacobian evaluations, call
// count, and accumulated cost-function time.
type Evaluator struct {
	Cfg    Config
	Interp *interp.Interpreter

	residualEvals atomic.Int64
	jacobianEvals atomic.Int64
	calls         atomic.Int64
	costNanos     atomic.Int64
}

// New validates cfg and returns an Evaluator bound to it.
func New(cfg Config, it *interp.Interpreter) (*Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if it == nil {
		return nil, fmt.Errorf("evaluator: interpreter must not be nil")
	}
	return &Evaluator{Cfg: cfg, Interp: it}, nil
}

// BudgetExhausted reports whether the residual+Jacobian evaluation
// count has reached the configured budget.
func (e *Evaluator) BudgetExhausted() bool {
	if e.Cfg.Budget <= 0 {
		return false
	}
	return e.residualEvals.Load()+e.jacobianEvals.Load() >= int64(e.Cfg.Budget)
}

// Counters reports the evaluator's four monotonic counters.
func (e *Evaluator) Counters() (residualEvals, jacobianEvals, calls int64, costTime time.Duration) {
	return e.residualEvals.Load(), e.jacobianEvals.Load(), e.calls.Load(), time.Duration(e.costNanos.Load())
}

// Evaluate runs the full evaluation pipeline for ind over ds's
// training range against target, returning a one-element fitness
// vector.
func (e *Evaluator) Evaluate(rng *rand.Rand, ind *individual.Individual, ds *dataset.Dataset, trainRange dataset.Range, target []float64) ([]float64, error) {
	start := time.Now()
	defer func() { e.costNanos.Add(int64(time.Since(start))) }()
	e.calls.Add(1)

	if e.BudgetExhausted() {
		return []float64{ErrMax}, nil
	}

	coeff := ind.GetCoefficients()

	if e.Cfg.LocalSearch != nil {
		problem := localsearch.Problem{Individual: ind, Dataset: ds, Range: trainRange, Target: target, Interp: e.Interp}
		summary, err := e.Cfg.LocalSearch.Optimize(rng, problem)
		if err != nil {
			return nil, err
		}
		e.residualEvals.Add(int64(summary.Iterations))
		e.jacobianEvals.Add(int64(summary.Iterations))
		if summary.Success {
			coeff = summary.Parameters
			if rng.Float64() < e.Cfg.LamarckianProbability {
				if err := ind.SetCoefficients(coeff); err != nil {
					return nil, err
				}
			}
		}
	}

	if e.Cfg.StructuralSearch != nil {
		problem := localsearch.Problem{Individual: ind, Dataset: ds, Range: trainRange, Target: target, Interp: e.Interp}
		summary, err := e.Cfg.StructuralSearch.Optimize(rng, problem)
		if err != nil {
			return nil, err
		}
		e.residualEvals.Add(int64(summary.Iterations))
	}

	pred, err := e.Interp.Evaluate(ind, ds, trainRange, coeff)
	if err != nil {
		return nil, err
	}
	e.residualEvals.Add(1)

	if e.Cfg.LinearScaling {
		a, b, err := linearScale(pred, target)
		if err != nil {
			return nil, err
		}
		for i := range pred {
			pred[i] = a*pred[i] + b
		}
	}

	score, err := e.Cfg.Metric(pred, target)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		score = ErrMax
	}
	return []float64{score}, nil
}

// linearScale fits y ~= a*pred + b by ordinary least squares.
func linearScale(pred, target []float64) (a, b float64, err error) {
	n := len(pred)
	if n != len(target) {
		return 0, 0, fmt.Errorf("evaluator: linear scaling length mismatch %d vs %d", n, len(target))
	}
	design := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, pred[i])
		design.Set(i, 1, 1)
	}
	targetVec := mat.NewVecDense(n, target)

	var qr mat.QR
	qr.Factorize(design)
	var result mat.VecDense
	if err := qr.SolveVecTo(&result, false, targetVec); err != nil {
		return 1, 0, nil
	}
	return result.AtVec(0), result.AtVec(1), nil
}
