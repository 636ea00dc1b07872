// Package dispatch maps function-kind tags to the primal and
// derivative kernels the interpreter applies during batched
// evaluation. The table is built once at startup and looked up by
// map access, which is constant time for the fixed, small kind set.
package dispatch

import (
	"fmt"
	"math"

	"github.com/ealione/turingforge/internal/function"
)

// PrimalKernel writes S output samples for a term into out, given the
// term's children columns (len(children) == 1 for unary kinds, 2 for
// binary kinds). It must not allocate per call on the hot path.
type PrimalKernel func(children [][]float64, out []float64)

// DerivativeKernel writes the partial derivative of a term with
// respect to its childIndex-th child into out, given the same
// children columns passed to the primal kernel.
type DerivativeKernel func(children [][]float64, childIndex int, out []float64)

// ErrNoKernel is returned by lookups against a kind with no
// registered kernel of the requested class.
var ErrNoKernel = fmt.Errorf("dispatch: no kernel registered")

// Table holds the primal and derivative kernel registries.
type Table struct {
	primal     map[function.Kind]PrimalKernel
	derivative map[function.Kind]DerivativeKernel
}

// NewTable builds the default dispatch table covering every built-in
// function kind (the fixed outer sum itself is realized outside this
// table; Add here covers the n-ary reduction used by ChangeFunction
// and mutation candidates, not the individual's top-level sum).
func NewTable() *Table {
	t := &Table{
		primal:     make(map[function.Kind]PrimalKernel),
		derivative: make(map[function.Kind]DerivativeKernel),
	}
	t.registerUnary()
	t.registerBinary()
	t.registerNary()
	return t
}

// TryGetFunction returns the primal kernel for kind, or ErrNoKernel.
func (t *Table) TryGetFunction(kind function.Kind) (PrimalKernel, error) {
	k, ok := t.primal[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNoKernel, kind)
	}
	return k, nil
}

// TryGetDerivative returns the derivative kernel for kind, or
// ErrNoKernel.
func (t *Table) TryGetDerivative(kind function.Kind) (DerivativeKernel, error) {
	k, ok := t.derivative[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNoKernel, kind)
	}
	return k, nil
}

func unaryPrimal(kind function.Kind, f func(float64) float64) PrimalKernel {
	return func(children [][]float64, out []float64) {
		x := children[0]
		for i := range out {
			out[i] = f(x[i])
		}
	}
}

func unaryDerivative(kind function.Kind, df func(float64) float64) DerivativeKernel {
	return func(children [][]float64, childIndex int, out []float64) {
		x := children[0]
		for i := range out {
			out[i] = df(x[i])
		}
	}
}

func (t *Table) registerUnary() {
	type unaryDef struct {
		kind function.Kind
		f    func(float64) float64
		df   func(float64) float64
	}
	defs := []unaryDef{
		{function.Abs, math.Abs, func(x float64) float64 {
			if x < 0 {
				return -1
			}
			return 1
		}},
		{function.Acos, math.Acos, func(x float64) float64 { return -1 / math.Sqrt(1-x*x) }},
		{function.Asin, math.Asin, func(x float64) float64 { return 1 / math.Sqrt(1-x*x) }},
		{function.Atan, math.Atan, func(x float64) float64 { return 1 / (1 + x*x) }},
		{function.Cbrt, math.Cbrt, func(x float64) float64 { return 1 / (3 * math.Pow(math.Cbrt(x), 2)) }},
		{function.Ceil, math.Ceil, func(x float64) float64 { return 0 }},
		{function.Cos, math.Cos, func(x float64) float64 { return -math.Sin(x) }},
		{function.Cosh, math.Cosh, math.Sinh},
		{function.Exp, math.Exp, math.Exp},
		{function.Floor, math.Floor, func(x float64) float64 { return 0 }},
		{function.Log, math.Log, func(x float64) float64 { return 1 / x }},
		{function.Logabs, func(x float64) float64 { return math.Log(math.Abs(x)) }, func(x float64) float64 { return 1 / x }},
		{function.Log1p, math.Log1p, func(x float64) float64 { return 1 / (1 + x) }},
		{function.Sin, math.Sin, math.Cos},
		{function.Sinh, math.Sinh, math.Cosh},
		{function.Sqrt, math.Sqrt, func(x float64) float64 { return 0.5 / math.Sqrt(x) }},
		{function.Sqrtabs, func(x float64) float64 { return math.Sqrt(math.Abs(x)) }, func(x float64) float64 {
			if x == 0 {
				return math.NaN()
			}
			sign := 1.0
			if x < 0 {
				sign = -1
			}
			return sign * 0.5 / math.Sqrt(math.Abs(x))
		}},
		{function.Tan, math.Tan, func(x float64) float64 { c := math.Cos(x); return 1 / (c * c) }},
		{function.Tanh, math.Tanh, func(x float64) float64 { th := math.Tanh(x); return 1 - th*th }},
		{function.Square, func(x float64) float64 { return x * x }, func(x float64) float64 { return 2 * x }},
	}
	for _, d := range defs {
		t.primal[d.kind] = unaryPrimal(d.kind, d.f)
		t.derivative[d.kind] = unaryDerivative(d.kind, d.df)
	}
}

// registerBinary wires the two fixed-arity-2 kinds: Aq (analytic
// quotient, a division-by-zero-safe x/y) and Pow.
func (t *Table) registerBinary() {
	t.primal[function.Aq] = func(children [][]float64, out []float64) {
		x, y := children[0], children[1]
		for i := range out {
			out[i] = x[i] / math.Sqrt(1+y[i]*y[i])
		}
	}
	t.derivative[function.Aq] = func(children [][]float64, childIndex int, out []float64) {
		x, y := children[0], children[1]
		for i := range out {
			denom := math.Sqrt(1 + y[i]*y[i])
			if childIndex == 0 {
				out[i] = 1 / denom
			} else {
				out[i] = -x[i] * y[i] / (denom * denom * denom)
			}
		}
	}

	t.primal[function.Pow] = func(children [][]float64, out []float64) {
		x, y := children[0], children[1]
		for i := range out {
			if x[i] <= 0 {
				out[i] = math.NaN()
				continue
			}
			out[i] = math.Exp(y[i] * math.Log(x[i]))
		}
	}
	t.derivative[function.Pow] = func(children [][]float64, childIndex int, out []float64) {
		x, y := children[0], children[1]
		for i := range out {
			if x[i] <= 0 {
				out[i] = math.NaN()
				continue
			}
			p := math.Exp(y[i] * math.Log(x[i]))
			if childIndex == 0 {
				out[i] = y[i] * p / x[i]
			} else {
				out[i] = p * math.Log(x[i])
			}
		}
	}
}

// registerNary wires the variable-arity reduction kinds. Only the
// primal kernel is registered: these kinds appear as outer wrappers
// of a monomial term only through ChangeFunction candidate sampling,
// never as the differentiated path (the fixed model sum already
// realizes Add at the top level).
func (t *Table) registerNary() {
	t.primal[function.Add] = func(children [][]float64, out []float64) {
		for i := range out {
			var sum float64
			for _, c := range children {
				sum += c[i]
			}
			out[i] = sum
		}
	}
	t.primal[function.Mul] = func(children [][]float64, out []float64) {
		for i := range out {
			prod := 1.0
			for _, c := range children {
				prod *= c[i]
			}
			out[i] = prod
		}
	}
	t.primal[function.Sub] = func(children [][]float64, out []float64) {
		for i := range out {
			v := children[0][i]
			for _, c := range children[1:] {
				v -= c[i]
			}
			out[i] = v
		}
	}
	t.primal[function.Div] = func(children [][]float64, out []float64) {
		for i := range out {
			v := children[0][i]
			for _, c := range children[1:] {
				v /= c[i]
			}
			out[i] = v
		}
	}
	t.primal[function.Fmin] = func(children [][]float64, out []float64) {
		for i := range out {
			m := children[0][i]
			for _, c := range children[1:] {
				if c[i] < m {
					m = c[i]
				}
			}
			out[i] = m
		}
	}
	t.primal[function.Fmax] = func(children [][]float64, out []float64) {
		for i := range out {
			m := children[0][i]
			for _, c := range children[1:] {
				if c[i] > m {
					m = c[i]
				}
			}
			out[i] = m
		}
	}
}
