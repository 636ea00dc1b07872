package localsearch

import (
	"fmt"
	"math"
	"math/rand"
)

// tabuList is a capacity-bounded ring buffer paired with a map, so
// membership and expiry checks are O(1) while the buffer reclaims the
// oldest entry once it wraps, avoiding unbounded growth.
type tabuList struct {
	m   map[uint64]int
	key []uint64
	exp []int
	i   int
}

func newTabuList(capacity int) *tabuList {
	if capacity < 8 {
		capacity = 8
	}
	return &tabuList{
		m:   make(map[uint64]int, capacity*2),
		key: make([]uint64, capacity),
		exp: make([]int, capacity),
	}
}

func (t *tabuList) IsTabu(k uint64, iter int) bool {
	if exp, ok := t.m[k]; ok && exp > iter {
		return true
	}
	return false
}

func (t *tabuList) Add(k uint64, expiry int) {
	oldKey := t.key[t.i]
	oldExp := t.exp[t.i]
	if curExp, ok := t.m[oldKey]; ok && curExp == oldExp {
		delete(t.m, oldKey)
	}
	t.key[t.i] = k
	t.exp[t.i] = expiry
	t.m[k] = expiry
	t.i = (t.i + 1) % len(t.key)
}

// moveKey packs a (term, variable, delta-sign) move into a single key
// so the tabu list can forbid immediately reversing a recent step.
func moveKey(term, variable int, delta float64) uint64 {
	sign := uint64(0)
	if delta < 0 {
		sign = 1
	}
	return uint64(term)<<32 | uint64(variable)<<1 | sign
}

// StructuralConfig configures the integer-exponent tabu search that
// perturbs an individual's exponent matrix in place of its
// coefficients.
type StructuralConfig struct {
	Iterations       int
	TabuTenure       int
	NeighborsPerIter int
	// Step is the integer exponent delta each neighbor move applies.
	Step float64
}

// DefaultStructuralConfig returns a tenure and neighbor count
// proportional to a typical small term count.
func DefaultStructuralConfig() StructuralConfig {
	return StructuralConfig{
		Iterations:       200,
		TabuTenure:       7,
		NeighborsPerIter: 20,
		Step:             1,
	}
}

// Validate checks the configuration is usable.
func (c StructuralConfig) Validate() error {
	if c.Iterations <= 0 {
		return fmt.Errorf("localsearch: structural iterations must be > 0 (got %d)", c.Iterations)
	}
	if c.TabuTenure <= 0 {
		return fmt.Errorf("localsearch: structural tabuTenure must be > 0 (got %d)", c.TabuTenure)
	}
	if c.NeighborsPerIter <= 0 {
		return fmt.Errorf("localsearch: structural neighborsPerIter must be > 0 (got %d)", c.NeighborsPerIter)
	}
	if c.Step <= 0 {
		return fmt.Errorf("localsearch: structural step must be > 0 (got %f)", c.Step)
	}
	return nil
}

// Structural is a tabu search over integer exponent perturbations: at
// each iteration it samples NeighborsPerIter (term, variable, sign)
// moves, skips tabu moves unless they'd beat the current cost
// (aspiration), and commits the best admissible move found.
//
// It optimizes exponents, not coefficients, so it satisfies the
// Optimizer interface by returning the input coefficients unchanged as
// Parameters, reporting the cost after its exponent moves as FinalCost,
// and mutating p.Individual.Exponent directly;
// callers that want Lamarckian inheritance of exponent edits should
// treat a Structural pass as always-write, unlike the other backends.
type Structural struct {
	Cfg StructuralConfig
}

// NewStructural validates cfg and returns a Structural optimizer.
func NewStructural(cfg StructuralConfig) (*Structural, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Structural{Cfg: cfg}, nil
}

// Optimize runs the tabu search over p.Individual's exponent matrix.
func (st *Structural) Optimize(rng *rand.Rand, p Problem) (Summary, error) {
	coeff := p.Individual.GetCoefficients()
	initialCost, _, err := cost(p, coeff)
	if err != nil {
		return Summary{}, err
	}

	numVars := len(p.Individual.Exponent[0])
	tabu := newTabuList(max(32, st.Cfg.TabuTenure*4))
	currentCost := initialCost
	iterations := 0

	for iter := 0; iter < st.Cfg.Iterations; iter++ {
		bestDelta := math.Inf(1)
		bestTerm, bestVar := -1, -1
		bestSign := 1.0
		var bestCost float64 = math.Inf(1)

		for n := 0; n < st.Cfg.NeighborsPerIter; n++ {
			term := rng.Intn(p.Individual.Length())
			varIdx := rng.Intn(numVars)
			sign := 1.0
			if rng.Float64() < 0.5 {
				sign = -1
			}
			delta := sign * st.Cfg.Step

			k := moveKey(term, varIdx, delta)
			tabuHit := tabu.IsTabu(k, iter)

			p.Individual.Exponent[term][varIdx] += delta
			candCost, _, err := cost(p, coeff)
			p.Individual.Exponent[term][varIdx] -= delta
			iterations++
			if err != nil {
				return Summary{}, err
			}
			if math.IsNaN(candCost) {
				continue
			}
			if tabuHit && candCost >= currentCost {
				continue
			}
			if candCost < bestCost {
				bestCost = candCost
				bestTerm, bestVar, bestSign = term, varIdx, sign
				bestDelta = delta
			}
		}

		if bestTerm < 0 {
			continue
		}
		p.Individual.Exponent[bestTerm][bestVar] += bestDelta
		currentCost = bestCost
		tabu.Add(moveKey(bestTerm, bestVar, -bestDelta), iter+st.Cfg.TabuTenure)
		_ = bestSign
	}

	return Summary{
		InitialCost: initialCost,
		FinalCost:   currentCost,
		Iterations:  iterations,
		Success:     currentCost < initialCost,
		Parameters:  coeff,
	}, nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
