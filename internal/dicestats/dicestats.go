// Package dicestats tallies categorical outcomes such as die faces or
// roll-off winners and tests them against a uniform distribution.
package dicestats

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Faces is the number of sides on a die.
const Faces = 6

// Tally counts outcomes over a fixed number of categories.
// Outcomes are 1-based, matching die faces.
type Tally struct {
	counts []float64
}

// NewTally creates a tally with k categories.
func NewTally(k int) *Tally {
	if k < 1 {
		k = 1
	}
	return &Tally{counts: make([]float64, k)}
}

// NewDieTally creates a tally for a six-sided die.
func NewDieTally() *Tally {
	return NewTally(Faces)
}

// Add records one outcome in 1..k.
func (t *Tally) Add(outcome int) error {
	if outcome < 1 || outcome > len(t.counts) {
		return fmt.Errorf("outcome %d outside 1..%d", outcome, len(t.counts))
	}
	t.counts[outcome-1]++
	return nil
}

// Reset clears all counts.
func (t *Tally) Reset() {
	for i := range t.counts {
		t.counts[i] = 0
	}
}

// Total returns the number of recorded outcomes.
func (t *Tally) Total() int {
	return int(floats.Sum(t.counts))
}

// Counts returns a copy of the per-category counts.
func (t *Tally) Counts() []int {
	out := make([]int, len(t.counts))
	for i, c := range t.counts {
		out[i] = int(c)
	}
	return out
}

// Summary is a goodness-of-fit report against the uniform distribution.
type Summary struct {
	Counts           []int   `json:"counts"`
	Total            int     `json:"total"`
	ChiSquare        float64 `json:"chi_square"`
	DegreesOfFreedom int     `json:"degrees_of_freedom"`
	PValue           float64 `json:"p_value"` // 1 when there is no data
}

// Summary computes the chi-square statistic of the tally.
func (t *Tally) Summary() Summary {
	s := Summary{
		Counts:           t.Counts(),
		Total:            t.Total(),
		DegreesOfFreedom: len(t.counts) - 1,
		PValue:           1,
	}
	if s.Total == 0 || s.DegreesOfFreedom == 0 {
		return s
	}
	s.ChiSquare, s.PValue = ChiSquareUniform(t.counts)
	return s
}

// ChiSquareUniform returns the chi-square statistic of observed against a
// uniform expectation and its upper-tail p-value.
func ChiSquareUniform(observed []float64) (chi, p float64) {
	total := floats.Sum(observed)
	if len(observed) < 2 || total == 0 {
		return 0, 1
	}
	expected := make([]float64, len(observed))
	for i := range expected {
		expected[i] = total / float64(len(observed))
	}
	chi = stat.ChiSquare(observed, expected)
	dist := distuv.ChiSquared{K: float64(len(observed) - 1)}
	return chi, dist.Survival(chi)
}
