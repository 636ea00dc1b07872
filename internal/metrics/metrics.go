// Package metrics computes the error scores used to rate an
// individual's fit against observed targets, as closed-form span
// reductions and as streaming accumulators usable for
// short-circuiting and weighted variants.
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrLengthMismatch is returned when predictions, targets, or weights
// disagree in length.
var ErrLengthMismatch = fmt.Errorf("metrics: length mismatch")

func checkLengths(yPred, yTrue []float64) error {
	if len(yPred) != len(yTrue) {
		return fmt.Errorf("%w: predictions=%d targets=%d", ErrLengthMismatch, len(yPred), len(yTrue))
	}
	return nil
}

// SSE returns the sum of squared errors, using a pairwise reduction
// for bounded error accumulation.
func SSE(yPred, yTrue []float64) (float64, error) {
	if err := checkLengths(yPred, yTrue); err != nil {
		return 0, err
	}
	sq := make([]float64, len(yPred))
	for i := range yPred {
		d := yPred[i] - yTrue[i]
		sq[i] = d * d
	}
	return pairwiseSum(sq), nil
}

// MSE returns the mean squared error.
func MSE(yPred, yTrue []float64) (float64, error) {
	sse, err := SSE(yPred, yTrue)
	if err != nil {
		return 0, err
	}
	return sse / float64(len(yPred)), nil
}

// RMSE returns the root mean squared error.
func RMSE(yPred, yTrue []float64) (float64, error) {
	mse, err := MSE(yPred, yTrue)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE returns the mean absolute error.
func MAE(yPred, yTrue []float64) (float64, error) {
	if err := checkLengths(yPred, yTrue); err != nil {
		return 0, err
	}
	abs := make([]float64, len(yPred))
	for i := range yPred {
		abs[i] = math.Abs(yPred[i] - yTrue[i])
	}
	return pairwiseSum(abs) / float64(len(yPred)), nil
}

// NMSE returns the mean squared error normalized by the sample
// variance (n-1 denominator) of the targets, so a constant predictor at
// the mean scores (n-1)/n.
func NMSE(yPred, yTrue []float64) (float64, error) {
	mse, err := MSE(yPred, yTrue)
	if err != nil {
		return 0, err
	}
	_, variance := stat.MeanVariance(yTrue, nil)
	if variance == 0 {
		return math.NaN(), nil
	}
	return mse / variance, nil
}

// R2 returns the coefficient of determination, inverted in sign
// (1 - R2) so the evaluator's uniform "lower is better" convention
// holds across every metric.
func R2(yPred, yTrue []float64) (float64, error) {
	if err := checkLengths(yPred, yTrue); err != nil {
		return 0, err
	}
	sse, err := SSE(yPred, yTrue)
	if err != nil {
		return 0, err
	}
	mean := stat.Mean(yTrue, nil)
	sst := 0.0
	for _, v := range yTrue {
		d := v - mean
		sst += d * d
	}
	if sst == 0 {
		return math.NaN(), nil
	}
	// R2 = 1 - sse/sst; inverted here to sse/sst so minimizing matches
	// every other metric's convention.
	return sse / sst, nil
}

// CorrelationCoefficient returns 1 - Pearson correlation, so a perfect
// positive linear fit scores 0 and the evaluator can still minimize.
func CorrelationCoefficient(yPred, yTrue []float64) (float64, error) {
	if err := checkLengths(yPred, yTrue); err != nil {
		return 0, err
	}
	if len(yPred) < 2 {
		return math.NaN(), nil
	}
	r := stat.Correlation(yPred, yTrue, nil)
	return 1 - r, nil
}

// SquaredCorrelation returns 1 - R^2 computed from Pearson's r, a
// scale-invariant companion to R2's sum-of-squares definition.
func SquaredCorrelation(yPred, yTrue []float64) (float64, error) {
	cc, err := CorrelationCoefficient(yPred, yTrue)
	if err != nil {
		return 0, err
	}
	r := 1 - cc
	return 1 - r*r, nil
}

// WeightedMSE returns the weighted mean squared error. Weights must
// be non-negative; a zero total weight yields NaN.
func WeightedMSE(yPred, yTrue, weights []float64) (float64, error) {
	if err := checkLengths(yPred, yTrue); err != nil {
		return 0, err
	}
	if len(weights) != len(yPred) {
		return 0, fmt.Errorf("%w: weights=%d predictions=%d", ErrLengthMismatch, len(weights), len(yPred))
	}
	var totalWeight float64
	sq := make([]float64, len(yPred))
	for i := range yPred {
		if weights[i] < 0 {
			return 0, fmt.Errorf("metrics: negative weight at index %d", i)
		}
		d := yPred[i] - yTrue[i]
		sq[i] = weights[i] * d * d
		totalWeight += weights[i]
	}
	if totalWeight == 0 {
		return math.NaN(), nil
	}
	return pairwiseSum(sq) / totalWeight, nil
}

// pairwiseSum reduces v using a pairwise (divide-and-conquer) scheme
// instead of a naive left-to-right accumulation, bounding
// floating-point error growth to O(log n) instead of O(n).
func pairwiseSum(v []float64) float64 {
	switch len(v) {
	case 0:
		return 0
	case 1:
		return v[0]
	}
	if len(v) <= 8 {
		return floats.Sum(v)
	}
	mid := len(v) / 2
	return pairwiseSum(v[:mid]) + pairwiseSum(v[mid:])
}

// StreamAccumulator computes a running sum-of-squared-errors online,
// one paired sample at a time, so a caller can short-circuit once a
// partial score already exceeds a rejection threshold.
type StreamAccumulator struct {
	sumSq   float64
	weightS float64
	n       int
}

// Add folds one (prediction, target) pair, with weight 1, into the
// running sum of squared errors.
func (a *StreamAccumulator) Add(yPred, yTrue float64) {
	a.AddWeighted(yPred, yTrue, 1)
}

// AddWeighted folds one weighted pair into the running sum of squared
// errors.
func (a *StreamAccumulator) AddWeighted(yPred, yTrue, weight float64) {
	d := yPred - yTrue
	a.sumSq += weight * d * d
	a.weightS += weight
	a.n++
}

// MSE returns the mean squared error accumulated so far.
func (a *StreamAccumulator) MSE() float64 {
	if a.weightS == 0 {
		return math.NaN()
	}
	return a.sumSq / a.weightS
}

// N reports how many pairs have been folded in.
func (a *StreamAccumulator) N() int { return a.n }
