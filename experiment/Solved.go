package experiment

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// SolvedDetector detects when a control task is solved: the task
// counts as solved once the running mean of the last window evaluation
// returns exceeds a threshold. No detection happens before window
// returns have been observed.
type SolvedDetector struct {
	window    int
	threshold float64
	returns   []float64
	solved    bool
	solvedAt  int // Index of the return that first solved the task
}

// NewSolvedDetector returns a new SolvedDetector which considers the
// task solved once the mean of the last window returns exceeds
// threshold
func NewSolvedDetector(window int, threshold float64) (*SolvedDetector,
	error) {
	if window <= 0 {
		return nil, fmt.Errorf("newSolvedDetector: window must be > 0")
	}

	return &SolvedDetector{
		window:    window,
		threshold: threshold,
		solvedAt:  -1,
	}, nil
}

// Observe records an evaluation return and reports whether this return
// solved the task. Once solved, a detector stays solved.
func (s *SolvedDetector) Observe(ret float64) bool {
	s.returns = append(s.returns, ret)

	if !s.solved && len(s.returns) >= s.window && s.Mean() > s.threshold {
		s.solved = true
		s.solvedAt = len(s.returns) - 1
		return true
	}
	return false
}

// Mean returns the running mean of the last window returns observed.
// If fewer than window returns have been observed, the mean of all
// observed returns is returned.
func (s *SolvedDetector) Mean() float64 {
	if len(s.returns) == 0 {
		return 0.0
	}

	start := len(s.returns) - s.window
	if start < 0 {
		start = 0
	}
	return stat.Mean(s.returns[start:], nil)
}

// Solved returns whether the task has been solved
func (s *SolvedDetector) Solved() bool {
	return s.solved
}

// SolvedAt returns the index of the evaluation return which first
// solved the task, or -1 if the task is unsolved
func (s *SolvedDetector) SolvedAt() int {
	return s.solvedAt
}
