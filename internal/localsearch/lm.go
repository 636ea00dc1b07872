package localsearch

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// LMConfig configures the Levenberg-Marquardt optimizer.
type LMConfig struct {
	MaxIterations int
	DampingInit   float64
	DampingUp     float64
	DampingDown   float64
	Tolerance     float64
}

// DefaultLMConfig returns the standard damping schedule.
func DefaultLMConfig() LMConfig {
	return LMConfig{
		MaxIterations: 50,
		DampingInit:   1e-3,
		DampingUp:     10,
		DampingDown:   10,
		Tolerance:     1e-9,
	}
}

// Validate checks the configuration is usable.
func (c LMConfig) Validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("localsearch: lm maxIterations must be >= 1 (got %d)", c.MaxIterations)
	}
	if c.DampingInit <= 0 || c.DampingUp <= 1 || c.DampingDown <= 1 {
		return fmt.Errorf("localsearch: lm damping parameters out of range")
	}
	return nil
}

// LM is the default coefficient optimizer, driven by the
// interpreter's reverse-mode Jacobian and a classic trust-region
// damping schedule on the Gauss-Newton normal equations.
type LM struct {
	Cfg LMConfig
}

// NewLM validates cfg and returns an LM optimizer.
func NewLM(cfg LMConfig) (*LM, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &LM{Cfg: cfg}, nil
}

// Optimize runs Levenberg-Marquardt starting from the individual's
// current coefficients.
func (lm *LM) Optimize(rng *rand.Rand, p Problem) (Summary, error) {
	coeff := p.Individual.GetCoefficients()
	n := len(coeff)

	initialCost, residual, err := cost(p, coeff)
	if err != nil {
		return Summary{}, err
	}
	if math.IsNaN(initialCost) {
		return Summary{InitialCost: initialCost, FinalCost: initialCost, Parameters: coeff}, nil
	}

	lambda := lm.Cfg.DampingInit
	currentCost := initialCost
	iterations := 0

	for iterations < lm.Cfg.MaxIterations {
		jac, err := p.Interp.JacRev(p.Individual, p.Dataset, p.Range, coeff)
		if err != nil {
			return Summary{}, err
		}
		rows, _ := jac.Dims()
		r := mat.NewVecDense(rows, residual)

		var jtj mat.Dense
		jtj.Mul(jac.T(), jac)
		var jtr mat.VecDense
		jtr.MulVec(jac.T(), r)

		for i := 0; i < n; i++ {
			jtj.Set(i, i, jtj.At(i, i)*(1+lambda))
		}

		var delta mat.VecDense
		if err := delta.SolveVec(&jtj, &jtr); err != nil {
			lambda *= lm.Cfg.DampingUp
			iterations++
			continue
		}

		candidate := make([]float64, n)
		for i := range candidate {
			candidate[i] = coeff[i] - delta.AtVec(i)
		}

		candidateCost, candidateResidual, err := cost(p, candidate)
		if err != nil {
			return Summary{}, err
		}

		iterations++
		if !math.IsNaN(candidateCost) && candidateCost < currentCost {
			improvement := currentCost - candidateCost
			coeff = candidate
			residual = candidateResidual
			currentCost = candidateCost
			lambda /= lm.Cfg.DampingDown
			if improvement < lm.Cfg.Tolerance {
				break
			}
		} else {
			lambda *= lm.Cfg.DampingUp
		}
	}

	return Summary{
		InitialCost: initialCost,
		FinalCost:   currentCost,
		Iterations:  iterations,
		Success:     !math.IsNaN(currentCost) && currentCost < initialCost,
		Parameters:  coeff,
	}, nil
}
