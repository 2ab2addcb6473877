package analysis

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

// quadraticValuer is an ActionValuer with a known maximizing action:
// Q(s, a) = -(a - s[0])^2, maximized at a = s[0]
type quadraticValuer struct{}

func (q quadraticValuer) ActionValue(state, action []float64) (float64,
	error) {
	diff := action[0] - state[0]
	return -diff * diff, nil
}

// identityActor is a PolicyActor which returns the first state feature
// as its action
type identityActor struct{}

func (i identityActor) PolicyAction(state []float64) ([]float64, error) {
	return []float64{state[0]}, nil
}

// TestSweepQ ensures that the maximum value and maximizing action of a
// known function are recovered on the grid
func TestSweepQ(t *testing.T) {
	const resolution, actionSamples = 5, 21

	surfaces, err := SweepQ(quadraticValuer{}, []float64{-1.0, -1.0},
		[]float64{1.0, 1.0}, resolution, actionSamples, -1.0, 1.0)
	if err != nil {
		t.Fatal(err)
	}

	cols, rows := surfaces.MaxQ.Dims()
	if cols != resolution || rows != resolution {
		t.Fatalf("incorrect grid dimensions \n\twant(%v x %v)"+
			"\n\thave(%v x %v)", resolution, resolution, cols, rows)
	}

	// The sampled actions include every grid x value, so the sweep
	// should recover the exact maximizer a = x with value 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if q := surfaces.MaxQ.Z(c, r); math.Abs(q) > 1e-12 {
				t.Errorf("incorrect maximum value at (%v, %v) "+
					"\n\twant(%v)\n\thave(%v)", c, r, 0.0, q)
			}

			x := surfaces.MaxQ.X(c)
			if a := surfaces.ArgmaxAction.Z(c, r); math.Abs(a-x) > 1e-12 {
				t.Errorf("incorrect maximizing action at (%v, %v) "+
					"\n\twant(%v)\n\thave(%v)", c, r, x, a)
			}
		}
	}
}

// TestSweepPolicy ensures that the policy's action is recorded at each
// grid state
func TestSweepPolicy(t *testing.T) {
	const resolution = 4

	surface, err := SweepPolicy(identityActor{}, []float64{-1.0, -1.0},
		[]float64{1.0, 1.0}, resolution)
	if err != nil {
		t.Fatal(err)
	}

	cols, rows := surface.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			x := surface.X(c)
			if a := surface.Z(c, r); a != x {
				t.Errorf("incorrect action at (%v, %v) \n\twant(%v)"+
					"\n\thave(%v)", c, r, x, a)
			}
		}
	}

	if surface.Min() != -1.0 || surface.Max() != 1.0 {
		t.Errorf("incorrect surface range \n\twant(%v, %v)\n\thave(%v, %v)",
			-1.0, 1.0, surface.Min(), surface.Max())
	}
}

// TestSweepInvalidArguments ensures that illegal sweep arguments are
// rejected
func TestSweepInvalidArguments(t *testing.T) {
	_, err := SweepQ(quadraticValuer{}, []float64{-1.0}, []float64{1.0},
		5, 5, -1.0, 1.0)
	if err == nil {
		t.Error("non-2-dimensional states should be rejected")
	}

	_, err = SweepPolicy(identityActor{}, []float64{-1.0, -1.0},
		[]float64{1.0, 1.0}, 1)
	if err == nil {
		t.Error("resolution below 2 should be rejected")
	}
}

// TestSaveHeatMap ensures that a surface renders to an image file
func TestSaveHeatMap(t *testing.T) {
	surface, err := SweepPolicy(identityActor{}, []float64{-1.0, -1.0},
		[]float64{1.0, 1.0}, 8)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "policy.png")
	if err := SaveHeatMap(surface, "Policy", "position", "velocity",
		path); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("saved heat map is empty")
	}
}
