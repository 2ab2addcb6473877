package floatutils

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r1"
)

const tolerance float64 = 1e-12

// TestScale ensures that values in [-1, 1] are mapped onto the target
// interval with the endpoints mapping to the endpoints exactly.
func TestScale(t *testing.T) {
	low, high := []float64{-1.0, -2.5, 0.0}, []float64{1.0, 3.5, 10.0}
	values := []float64{-1.0, -0.5, 0.0, 0.317, 1.0}

	for i := range low {
		for _, value := range values {
			scaled := Scale(value, low[i], high[i])

			if scaled < low[i] || scaled > high[i] {
				t.Errorf("scaled value out of bounds \n\twant: [%v, %v]"+
					"\n\thave: %v", low[i], high[i], scaled)
			}

			expected := low[i] + (value+1.0)*(high[i]-low[i])/2.0
			if math.Abs(scaled-expected) > tolerance {
				t.Errorf("incorrect scaled value \n\twant: %v \n\thave: %v",
					expected, scaled)
			}
		}

		if Scale(-1.0, low[i], high[i]) != low[i] {
			t.Error("scaling -1.0 should return the interval minimum")
		}
		if Scale(1.0, low[i], high[i]) != high[i] {
			t.Error("scaling 1.0 should return the interval maximum")
		}
	}
}

// TestNormalizeInvertsScale ensures Normalize is the inverse of Scale
func TestNormalizeInvertsScale(t *testing.T) {
	low, high := -1.2, 0.6

	for _, value := range []float64{-1.0, -0.25, 0.0, 0.9, 1.0} {
		back := Normalize(Scale(value, low, high), low, high)
		if math.Abs(back-value) > tolerance {
			t.Errorf("normalize did not invert scale \n\twant: %v "+
				"\n\thave: %v", value, back)
		}
	}
}

func TestClip(t *testing.T) {
	if Clip(2.0, -1.0, 1.0) != 1.0 {
		t.Error("clip should return max when value exceeds max")
	}
	if Clip(-2.0, -1.0, 1.0) != -1.0 {
		t.Error("clip should return min when min exceeds value")
	}
	if Clip(0.5, -1.0, 1.0) != 0.5 {
		t.Error("clip should not change values within bounds")
	}
}

func TestClipInterval(t *testing.T) {
	interval := r1.Interval{Min: -0.07, Max: 0.07}

	if ClipInterval(1.0, interval) != interval.Max {
		t.Error("clip should return the interval maximum when exceeded")
	}
	if ClipInterval(-1.0, interval) != interval.Min {
		t.Error("clip should return the interval minimum when exceeded")
	}
	if ClipInterval(0.01, interval) != 0.01 {
		t.Error("clip should not change values within the interval")
	}
}
