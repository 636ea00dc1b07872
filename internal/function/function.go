// Package function enumerates the function-kind tags available to an
// individual's terms, together with the per-kind arity class and a
// weighted-sampling catalog used by the creator and mutation operators.
package function

import (
	"fmt"
	"math"
)

// Kind tags a function symbol. The values mirror the bitmask layout of
// the original engine's FunctionType enum, one bit per kind, so a group
// of kinds can be addressed as a bitmask at configuration time.
type Kind uint32

const (
	Add Kind = 1 << iota
	Mul
	Sub
	Div
	Fmin
	Fmax

	Aq
	Pow

	Abs
	Acos
	Asin
	Atan
	Cbrt
	Ceil
	Cos
	Cosh
	Exp
	Floor
	Log
	Logabs
	Log1p
	Sin
	Sinh
	Sqrt
	Sqrtabs
	Tan
	Tanh
	Square

	Dynamic
	Constant
	Variable
)

// All lists every built-in kind in tag order.
var All = []Kind{
	Add, Mul, Sub, Div, Fmin, Fmax,
	Aq, Pow,
	Abs, Acos, Asin, Atan, Cbrt, Ceil, Cos, Cosh, Exp, Floor, Log, Logabs, Log1p,
	Sin, Sinh, Sqrt, Sqrtabs, Tan, Tanh, Square,
	Dynamic, Constant, Variable,
}

var names = map[Kind]string{
	Add: "add", Mul: "mul", Sub: "sub", Div: "div", Fmin: "fmin", Fmax: "fmax",
	Aq: "aq", Pow: "pow",
	Abs: "abs", Acos: "acos", Asin: "asin", Atan: "atan", Cbrt: "cbrt", Ceil: "ceil",
	Cos: "cos", Cosh: "cosh", Exp: "exp", Floor: "floor", Log: "ln", Logabs: "logabs",
	Log1p: "log1p", Sin: "sin", Sinh: "sinh", Sqrt: "sqrt", Sqrtabs: "sqrtabs",
	Tan: "tan", Tanh: "tanh", Square: "square",
	Dynamic: "dynamic", Constant: "constant", Variable: "variable",
}

// String returns the stable, lower-case name of the kind, or "unknown"
// for an unrecognized tag.
func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "unknown"
}

// unbounded is the maximum arity reported by arityBounds for n-ary kinds.
const unbounded = math.MaxInt32

func (k Kind) arityBounds() (minArity, maxArity int) {
	switch k {
	case Add, Mul, Sub, Div, Fmin, Fmax:
		return 1, unbounded
	case Aq, Pow:
		return 2, 2
	case Dynamic, Constant, Variable:
		return 0, 0
	default:
		// every remaining tag is one of the unary kinds
		return 1, 1
	}
}

// MinArity and MaxArity report the inclusive arity window for the kind.
func (k Kind) MinArity() int { lo, _ := k.arityBounds(); return lo }
func (k Kind) MaxArity() int { _, hi := k.arityBounds(); return hi }

// IsUnary reports whether the kind is used as a term's outer wrapper
// (the only role a function kind plays in an individual's term, per
// the fixed sum-of-monomials shape).
func (k Kind) IsUnary() bool {
	lo, hi := k.arityBounds()
	return lo == 1 && hi == 1
}

// ErrNoAdmissibleKind is returned by Sample when no enabled kind's
// arity window intersects the requested one.
var ErrNoAdmissibleKind = fmt.Errorf("function: no admissible kind for requested arity window")

// ErrUnknownKind is returned by configuration edits that name a kind
// the catalog has no entry for.
var ErrUnknownKind = fmt.Errorf("function: unknown kind")

// entry holds per-kind catalog state.
type entry struct {
	enabled   bool
	frequency float64
	minArity  int
	maxArity  int
}

// Catalog is the mutable mapping of kind -> sampling metadata. It is
// configured once from a feature-set mask and thereafter only edited
// through its setter methods (§4.A of the design).
type Catalog struct {
	entries map[Kind]*entry
}

// NewCatalog builds a catalog over every kind whose bit is set in
// mask, each with a default uniform frequency of 1.
func NewCatalog(mask Kind) *Catalog {
	c := &Catalog{entries: make(map[Kind]*entry, len(All))}
	for _, k := range All {
		lo, hi := k.arityBounds()
		c.entries[k] = &entry{
			enabled:   mask&k != 0,
			frequency: 1,
			minArity:  lo,
			maxArity:  hi,
		}
	}
	return c
}

// Configure resets the enabled subset to exactly the bits set in mask.
func (c *Catalog) Configure(mask Kind) {
	for k, e := range c.entries {
		e.enabled = mask&k != 0
	}
}

// Enable turns on sampling for kind.
func (c *Catalog) Enable(kind Kind) error { return c.setEnabled(kind, true) }

// Disable turns off sampling for kind.
func (c *Catalog) Disable(kind Kind) error { return c.setEnabled(kind, false) }

func (c *Catalog) setEnabled(kind Kind, enabled bool) error {
	e, ok := c.entries[kind]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}
	e.enabled = enabled
	return nil
}

// IsEnabled reports whether kind currently participates in sampling.
func (c *Catalog) IsEnabled(kind Kind) bool {
	e, ok := c.entries[kind]
	return ok && e.enabled
}

// SetFrequency assigns the relative sampling weight of kind. f must be
// non-negative.
func (c *Catalog) SetFrequency(kind Kind, f float64) error {
	e, ok := c.entries[kind]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}
	if f < 0 {
		return fmt.Errorf("function: frequency must be >= 0 (got %f)", f)
	}
	e.frequency = f
	return nil
}

// SetMinMaxArity overrides the arity window used when matching kind
// against a sampling request.
func (c *Catalog) SetMinMaxArity(kind Kind, minArity, maxArity int) error {
	e, ok := c.entries[kind]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}
	if minArity > maxArity {
		return fmt.Errorf("function: inverted arity bounds [%d, %d]", minArity, maxArity)
	}
	e.minArity, e.maxArity = minArity, maxArity
	return nil
}

// randSource is the minimal RNG surface the catalog needs; satisfied
// by *math/rand.Rand.
type randSource interface {
	Float64() float64
}

// Sample draws a random enabled kind whose arity window intersects
// [minArity, maxArity], with probability proportional to its
// configured frequency.
func (c *Catalog) Sample(rng randSource, minArity, maxArity int) (Kind, error) {
	var admissible []Kind
	var total float64
	for _, k := range All {
		e := c.entries[k]
		if !e.enabled || e.frequency <= 0 {
			continue
		}
		if e.maxArity < minArity || e.minArity > maxArity {
			continue
		}
		admissible = append(admissible, k)
		total += e.frequency
	}
	if len(admissible) == 0 || total <= 0 {
		return 0, ErrNoAdmissibleKind
	}
	r := rng.Float64() * total
	acc := 0.0
	for _, k := range admissible {
		acc += c.entries[k].frequency
		if r <= acc {
			return k, nil
		}
	}
	return admissible[len(admissible)-1], nil
}
