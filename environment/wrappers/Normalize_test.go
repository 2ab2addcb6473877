package wrappers

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/environment/classiccontrol/mountaincar"
)

// TestNormalizeObservations ensures that observations of the wrapped
// environment are mapped into [-1, 1] feature-wise
func TestNormalizeObservations(t *testing.T) {
	const position = -0.5

	bounds := []r1.Interval{
		{Min: position, Max: position},
		{Min: 0.0, Max: 0.0},
	}
	starter := environment.NewUniformStarter(bounds, 14)
	task := mountaincar.NewGoal(starter, 1000, mountaincar.GoalPosition)

	env, _, err := mountaincar.NewContinuous(task, 1.0)
	if err != nil {
		t.Fatal(err)
	}

	normalized, firstStep, err := NewNormalize(env)
	if err != nil {
		t.Fatal(err)
	}

	// position maps to ((position - min) / (max - min)) * 2 - 1
	span := mountaincar.MaxPosition - mountaincar.MinPosition
	expected := ((position-mountaincar.MinPosition)/span)*2 - 1
	if p := firstStep.Observation.AtVec(0); math.Abs(p-expected) > 1e-12 {
		t.Errorf("incorrect normalized position \n\twant(%v)\n\thave(%v)",
			expected, p)
	}
	if v := firstStep.Observation.AtVec(1); v != 0.0 {
		t.Errorf("zero velocity should normalize to the interval "+
			"midpoint \n\twant(%v)\n\thave(%v)", 0.0, v)
	}

	// Every observation along a trajectory stays in [-1, 1]
	step := firstStep
	action := mat.NewVecDense(1, []float64{1.0})
	for i := 0; i < 50 && !step.Last(); i++ {
		step, _, err = normalized.Step(action)
		if err != nil {
			t.Fatal(err)
		}
		for j := 0; j < step.Observation.Len(); j++ {
			if value := step.Observation.AtVec(j); value < -1 || value > 1 {
				t.Fatalf("feature %v outside [-1, 1]: %v", j, value)
			}
		}
	}
}

// TestNormalizeObservationSpec ensures that the wrapper reports
// observation bounds of [-1, 1]
func TestNormalizeObservationSpec(t *testing.T) {
	bounds := []r1.Interval{
		{Min: -0.6, Max: -0.4},
		{Min: 0.0, Max: 0.0},
	}
	starter := environment.NewUniformStarter(bounds, 14)
	task := mountaincar.NewGoal(starter, 1000, mountaincar.GoalPosition)

	env, _, err := mountaincar.NewContinuous(task, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	normalized, _, err := NewNormalize(env)
	if err != nil {
		t.Fatal(err)
	}

	spec := normalized.ObservationSpec()
	for i := 0; i < spec.Shape.Len(); i++ {
		if spec.LowerBound.AtVec(i) != -1.0 {
			t.Errorf("incorrect lower bound for feature %v "+
				"\n\twant(%v)\n\thave(%v)", i, -1.0,
				spec.LowerBound.AtVec(i))
		}
		if spec.UpperBound.AtVec(i) != 1.0 {
			t.Errorf("incorrect upper bound for feature %v "+
				"\n\twant(%v)\n\thave(%v)", i, 1.0,
				spec.UpperBound.AtVec(i))
		}
	}
}
