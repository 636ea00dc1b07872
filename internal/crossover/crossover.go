// Package crossover recombines two parent individuals into a child,
// all variants sharing the post-condition 1 <= |child| <= max(M, |a|).
package crossover

import (
	"math/rand"
	"sort"

	"github.com/ealione/turingforge/internal/function"
	"github.com/ealione/turingforge/internal/individual"
)

// Crossover produces a child from two parents.
type Crossover func(rng *rand.Rand, a, b *individual.Individual) (*individual.Individual, error)

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// concat builds a child a[0:i) ++ b[j:len(b)), truncated to maxLength,
// with a fresh birth index.
func concat(a, b *individual.Individual, i, j, maxLength int, birth uint64) (*individual.Individual, error) {
	i = max(0, min(i, a.Length()))
	j = max(0, min(j, b.Length()))

	l := i + (b.Length() - j)
	if l > maxLength {
		l = maxLength
	}
	if l < 1 {
		l = 1
	}

	coeff := make([]float64, 0, l)
	fn := make([]function.Kind, 0, l)
	exponent := make([][]float64, 0, l)

	headLen := min(i, l)
	coeff = append(coeff, a.Coefficient[:headLen]...)
	fn = append(fn, a.Function[:headLen]...)
	exponent = append(exponent, a.Exponent[:headLen]...)

	remaining := l - len(coeff)
	if remaining > 0 {
		start := j
		end := min(b.Length(), start+remaining)
		coeff = append(coeff, b.Coefficient[start:end]...)
		fn = append(fn, b.Function[start:end]...)
		exponent = append(exponent, b.Exponent[start:end]...)
	}

	// concat falls short of l only when i and b.Length()-j are both 0;
	// the l<1 floor adds no terms, so that case yields an empty child
	// that individual.New rejects. IndividualCrossover always passes
	// i >= 1, so its head contributes at least one term.
	return individual.New(coeff, fn, exponent, birth)
}

// IndividualCrossover implements the spec's default crossover: choose
// cut points (i, j) biased toward the second half of each parent with
// probability internalProbability, then concatenate a[0:i) ++ b[j:).
func IndividualCrossover(internalProbability float64, maxLength int, birth func() uint64) Crossover {
	return func(rng *rand.Rand, a, b *individual.Individual) (*individual.Individual, error) {
		lo := max(1, a.Length()-maxLength+1)
		hi := a.Length()
		i := lo
		if hi > lo {
			i = lo + rng.Intn(hi-lo+1)
		}

		jHi := max(1, maxLength-a.Length()+i+1)
		j := 1 + rng.Intn(jHi)

		if rng.Float64() < internalProbability {
			i = biasTowardSecondHalf(rng, i, a.Length())
			j = biasTowardSecondHalf(rng, j, b.Length())
		}

		return concat(a, b, i, j, maxLength, birth())
	}
}

func biasTowardSecondHalf(rng *rand.Rand, cut, length int) int {
	half := length / 2
	if cut < half {
		cut = half + rng.Intn(max(1, length-half))
	}
	if cut > length {
		cut = length
	}
	return cut
}

// UniformCrossover swaps each term independently between parents with
// probability 0.5, truncated/padded to the shorter parent's length.
func UniformCrossover(birth func() uint64) Crossover {
	return func(rng *rand.Rand, a, b *individual.Individual) (*individual.Individual, error) {
		l := min(a.Length(), b.Length())
		coeff := make([]float64, l)
		fn := make([]function.Kind, l)
		exponent := make([][]float64, l)
		for i := 0; i < l; i++ {
			src := a
			if rng.Float64() < 0.5 {
				src = b
			}
			coeff[i] = src.Coefficient[i]
			fn[i] = src.Function[i]
			exponent[i] = src.Exponent[i]
		}
		return individual.New(coeff, fn, exponent, birth())
	}
}

// MultiPointCrossover picks k random cut points in [1, min(|a|,|b|))
// and alternates parent source between cuts.
func MultiPointCrossover(k int, birth func() uint64) Crossover {
	return func(rng *rand.Rand, a, b *individual.Individual) (*individual.Individual, error) {
		l := min(a.Length(), b.Length())
		if l < 1 {
			l = 1
		}
		cuts := make([]int, 0, k)
		for i := 0; i < k && l > 1; i++ {
			cuts = append(cuts, 1+rng.Intn(l-1))
		}
		sort.Ints(cuts)

		coeff := make([]float64, l)
		fn := make([]function.Kind, l)
		exponent := make([][]float64, l)
		useA := true
		nextCut := 0
		for i := 0; i < l; i++ {
			for nextCut < len(cuts) && cuts[nextCut] == i {
				useA = !useA
				nextCut++
			}
			src := a
			if !useA {
				src = b
			}
			coeff[i] = src.Coefficient[i]
			fn[i] = src.Function[i]
			exponent[i] = src.Exponent[i]
		}
		return individual.New(coeff, fn, exponent, birth())
	}
}

// FixedPointCrossover swaps at a single fixed fractional point (0,1)
// of the shorter parent's length.
func FixedPointCrossover(fraction float64, birth func() uint64) Crossover {
	return func(rng *rand.Rand, a, b *individual.Individual) (*individual.Individual, error) {
		l := min(a.Length(), b.Length())
		if l < 1 {
			l = 1
		}
		cut := int(fraction * float64(l))
		cut = max(0, min(cut, l))

		coeff := make([]float64, l)
		fn := make([]function.Kind, l)
		exponent := make([][]float64, l)
		for i := 0; i < l; i++ {
			src := a
			if i >= cut {
				src = b
			}
			coeff[i] = src.Coefficient[i]
			fn[i] = src.Function[i]
			exponent[i] = src.Exponent[i]
		}
		return individual.New(coeff, fn, exponent, birth())
	}
}
