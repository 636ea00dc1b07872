// Package mutation implements the local-edit operators applied to
// individuals during variation. Every mutation takes (rng,
// individual) and returns an individual satisfying every
// representation invariant; one that cannot do so returns its input
// unchanged rather than failing.
package mutation

import (
	"math"
	"math/rand"

	"github.com/ealione/turingforge/internal/creator"
	"github.com/ealione/turingforge/internal/function"
	"github.com/ealione/turingforge/internal/individual"
)

// Mutation edits an individual in place and returns it (the same
// pointer, for chaining convenience; callers that need to preserve
// the original must Clone first).
type Mutation func(rng *rand.Rand, ind *individual.Individual) *individual.Individual

// OnePoint perturbs one randomly chosen coefficient by a sample from
// a normal distribution with the given standard deviation.
func OnePoint(stddev float64) Mutation {
	return func(rng *rand.Rand, ind *individual.Individual) *individual.Individual {
		i := rng.Intn(ind.Length())
		ind.Coefficient[i] = clampFinite(ind.Coefficient[i] + rng.NormFloat64()*stddev)
		return ind
	}
}

// MultiPoint independently perturbs every coefficient by a sample
// from a normal distribution with the given standard deviation.
func MultiPoint(stddev float64) Mutation {
	return func(rng *rand.Rand, ind *individual.Individual) *individual.Individual {
		for i := range ind.Coefficient {
			ind.Coefficient[i] = clampFinite(ind.Coefficient[i] + rng.NormFloat64()*stddev)
		}
		return ind
	}
}

// Discrete replaces one coefficient with a value drawn from a
// weighted finite set, used to inject mathematical constants such as
// pi or e into the search.
func Discrete(values []float64, weights []float64) Mutation {
	return func(rng *rand.Rand, ind *individual.Individual) *individual.Individual {
		if len(values) == 0 {
			return ind
		}
		i := rng.Intn(ind.Length())
		ind.Coefficient[i] = weightedChoice(rng, values, weights)
		return ind
	}
}

func weightedChoice(rng *rand.Rand, values, weights []float64) float64 {
	if len(weights) != len(values) {
		return values[rng.Intn(len(values))]
	}
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return values[rng.Intn(len(values))]
	}
	r := rng.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r <= acc {
			return values[i]
		}
	}
	return values[len(values)-1]
}

// ChangeFunction replaces one term's function kind with a freshly
// sampled kind whose arity window contains the current arity.
func ChangeFunction(catalog *function.Catalog) Mutation {
	return func(rng *rand.Rand, ind *individual.Individual) *individual.Individual {
		i := rng.Intn(ind.Length())
		cur := ind.Function[i]
		kind, err := catalog.Sample(rng, cur.MinArity(), cur.MaxArity())
		if err != nil {
			return ind
		}
		ind.Function[i] = kind
		return ind
	}
}

// InsertInteraction prepends a freshly created block of up to
// maxInsert new terms, using c to generate them. It is a no-op if the
// individual is already at maxLength.
func InsertInteraction(c *creator.BalancedCreator, maxInsert, maxLength int) Mutation {
	return func(rng *rand.Rand, ind *individual.Individual) *individual.Individual {
		room := maxLength - ind.Length()
		if room <= 0 {
			return ind
		}
		k := maxInsert
		if k > room {
			k = room
		}
		if k < 1 {
			return ind
		}
		block, err := c.Create(rng, k, ind.Birth)
		if err != nil {
			return ind
		}
		ind.Coefficient = append(block.Coefficient, ind.Coefficient...)
		ind.Function = append(block.Function, ind.Function...)
		ind.Exponent = append(block.Exponent, ind.Exponent...)
		return ind
	}
}

// RemoveInteraction deletes one term other than term 0; a no-op when
// the individual has only one term.
func RemoveInteraction() Mutation {
	return func(rng *rand.Rand, ind *individual.Individual) *individual.Individual {
		if ind.Length() <= 1 {
			return ind
		}
		i := 1 + rng.Intn(ind.Length()-1)
		ind.Coefficient = append(ind.Coefficient[:i], ind.Coefficient[i+1:]...)
		ind.Function = append(ind.Function[:i], ind.Function[i+1:]...)
		ind.Exponent = append(ind.Exponent[:i], ind.Exponent[i+1:]...)
		return ind
	}
}

// ReplaceInteraction regenerates a suffix of terms from c, keeping
// Length unchanged.
func ReplaceInteraction(c *creator.BalancedCreator) Mutation {
	return func(rng *rand.Rand, ind *individual.Individual) *individual.Individual {
		l := ind.Length()
		if l < 1 {
			return ind
		}
		cut := rng.Intn(l)
		suffixLen := l - cut
		block, err := c.Create(rng, suffixLen, ind.Birth)
		if err != nil {
			return ind
		}
		for k := 0; k < suffixLen; k++ {
			ind.Coefficient[cut+k] = block.Coefficient[k]
			ind.Function[cut+k] = block.Function[k]
			ind.Exponent[cut+k] = block.Exponent[k]
		}
		return ind
	}
}

// ShuffleInteractions randomly permutes the exponent vectors across
// existing terms, leaving coefficients and functions in place.
func ShuffleInteractions() Mutation {
	return func(rng *rand.Rand, ind *individual.Individual) *individual.Individual {
		rng.Shuffle(len(ind.Exponent), func(i, j int) {
			ind.Exponent[i], ind.Exponent[j] = ind.Exponent[j], ind.Exponent[i]
		})
		return ind
	}
}

// weightedMutation pairs a mutation with its selection weight for
// MultiMutation.
type weightedMutation struct {
	op     Mutation
	weight float64
}

// MultiMutation draws one child operator per invocation with
// probability proportional to its assigned weight.
func MultiMutation(ops ...Mutation) Mutation {
	weighted := make([]weightedMutation, len(ops))
	for i, op := range ops {
		weighted[i] = weightedMutation{op: op, weight: 1}
	}
	return multiMutationWeighted(weighted)
}

// MultiMutationWeighted is MultiMutation with explicit per-operator
// weights; len(weights) must equal len(ops).
func MultiMutationWeighted(ops []Mutation, weights []float64) Mutation {
	weighted := make([]weightedMutation, len(ops))
	for i, op := range ops {
		w := 1.0
		if i < len(weights) {
			w = weights[i]
		}
		weighted[i] = weightedMutation{op: op, weight: w}
	}
	return multiMutationWeighted(weighted)
}

func multiMutationWeighted(weighted []weightedMutation) Mutation {
	return func(rng *rand.Rand, ind *individual.Individual) *individual.Individual {
		if len(weighted) == 0 {
			return ind
		}
		var total float64
		for _, w := range weighted {
			total += w.weight
		}
		if total <= 0 {
			return ind
		}
		r := rng.Float64() * total
		acc := 0.0
		for _, w := range weighted {
			acc += w.weight
			if r <= acc {
				return w.op(rng, ind)
			}
		}
		return weighted[len(weighted)-1].op(rng, ind)
	}
}

// clampFinite replaces a non-finite coefficient with zero, guarding
// against mutation operators that could otherwise inject Inf/NaN
// through an unbounded normal draw.
func clampFinite(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}
