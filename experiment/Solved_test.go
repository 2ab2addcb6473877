package experiment

import (
	"math"
	"testing"
)

// TestSolvedDetectorWindow ensures that no detection happens before a
// full window of returns has been observed, even when every observed
// return exceeds the threshold
func TestSolvedDetectorWindow(t *testing.T) {
	detector, err := NewSolvedDetector(3, 90.0)
	if err != nil {
		t.Fatal(err)
	}

	if detector.Observe(100.0) || detector.Observe(100.0) {
		t.Fatal("task solved before a full window of returns was observed")
	}
	if detector.Solved() {
		t.Fatal("detector reports solved before a full window")
	}

	if !detector.Observe(100.0) {
		t.Fatal("task not solved with a full window of returns above " +
			"the threshold")
	}
	if got := detector.SolvedAt(); got != 2 {
		t.Errorf("incorrect solving return index \n\twant(%v)\n\thave(%v)",
			2, got)
	}
}

// TestSolvedDetectorMean ensures that the running mean covers only the
// last window returns
func TestSolvedDetectorMean(t *testing.T) {
	detector, err := NewSolvedDetector(2, 1000.0)
	if err != nil {
		t.Fatal(err)
	}

	detector.Observe(0.0)
	detector.Observe(10.0)
	detector.Observe(20.0)

	// Mean of the last two returns only
	if mean := detector.Mean(); math.Abs(mean-15.0) > 1e-12 {
		t.Errorf("incorrect running mean \n\twant(%v)\n\thave(%v)", 15.0,
			mean)
	}
}

// TestSolvedDetectorStaysSolved ensures that a detector stays solved
// after later returns drop below the threshold
func TestSolvedDetectorStaysSolved(t *testing.T) {
	detector, err := NewSolvedDetector(1, 90.0)
	if err != nil {
		t.Fatal(err)
	}

	if !detector.Observe(95.0) {
		t.Fatal("task not solved by a return above the threshold")
	}

	if detector.Observe(-100.0) {
		t.Error("already solved task reported as newly solved")
	}
	if !detector.Solved() {
		t.Error("detector no longer reports solved")
	}
	if got := detector.SolvedAt(); got != 0 {
		t.Errorf("incorrect solving return index \n\twant(%v)\n\thave(%v)",
			0, got)
	}
}

// TestSolvedDetectorInvalidConstruction ensures that illegal windows
// are rejected
func TestSolvedDetectorInvalidConstruction(t *testing.T) {
	if _, err := NewSolvedDetector(0, 90.0); err == nil {
		t.Error("non-positive window should be rejected")
	}
}
