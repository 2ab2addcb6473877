package mountaincar

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/timestep"
)

// fixedStarter returns a Starter which always starts episodes at the
// argument position and velocity
func fixedStarter(position, velocity float64) environment.Starter {
	bounds := []r1.Interval{
		{Min: position, Max: position},
		{Min: velocity, Max: velocity},
	}
	return environment.NewUniformStarter(bounds, 14)
}

// TestContinuousPhysics ensures that a single environmental step
// follows the Mountain Car dynamics exactly
func TestContinuousPhysics(t *testing.T) {
	const position, force = -0.5, 1.0

	task := NewGoal(fixedStarter(position, 0.0), 1000, GoalPosition)
	env, _, err := NewContinuous(task, 1.0)
	if err != nil {
		t.Fatal(err)
	}

	step, _, err := env.Step(mat.NewVecDense(1, []float64{force}))
	if err != nil {
		t.Fatal(err)
	}

	expectedVelocity := force*Power - Gravity*math.Cos(3*position)
	expectedPosition := position + expectedVelocity

	if v := step.Observation.AtVec(1); math.Abs(v-expectedVelocity) > 1e-12 {
		t.Errorf("incorrect velocity \n\twant(%v)\n\thave(%v)",
			expectedVelocity, v)
	}
	if p := step.Observation.AtVec(0); math.Abs(p-expectedPosition) > 1e-12 {
		t.Errorf("incorrect position \n\twant(%v)\n\thave(%v)",
			expectedPosition, p)
	}
}

// TestContinuousActionClip ensures that actions outside [-1, 1] are
// clipped to the legal range before being applied
func TestContinuousActionClip(t *testing.T) {
	task := NewGoal(fixedStarter(-0.5, 0.0), 1000, GoalPosition)
	env, _, err := NewContinuous(task, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	clippedTask := NewGoal(fixedStarter(-0.5, 0.0), 1000, GoalPosition)
	clippedEnv, _, err := NewContinuous(clippedTask, 1.0)
	if err != nil {
		t.Fatal(err)
	}

	step, _, err := env.Step(mat.NewVecDense(1, []float64{10.0}))
	if err != nil {
		t.Fatal(err)
	}
	clippedStep, _, err := clippedEnv.Step(mat.NewVecDense(1,
		[]float64{MaxContinuousAction}))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < step.Observation.Len(); i++ {
		if step.Observation.AtVec(i) != clippedStep.Observation.AtVec(i) {
			t.Errorf("out-of-range action was not clipped: feature %v: "+
				"%v != %v", i, step.Observation.AtVec(i),
				clippedStep.Observation.AtVec(i))
		}
	}
}

// TestSolveGoalReward ensures that reaching the goal ends the episode
// with the goal reward less the action cost
func TestSolveGoalReward(t *testing.T) {
	// One full-force push from just below the goal reaches it
	task := NewSolveGoal(fixedStarter(0.4495, 0.0), 1000, GoalPosition)
	env, _, err := NewContinuous(task, 1.0)
	if err != nil {
		t.Fatal(err)
	}

	step, last, err := env.Step(mat.NewVecDense(1, []float64{1.0}))
	if err != nil {
		t.Fatal(err)
	}

	if !last || !step.Last() {
		t.Fatal("reaching the goal did not end the episode")
	}
	if step.EndType() != timestep.TerminalStateReached {
		t.Errorf("incorrect end type \n\twant(%v)\n\thave(%v)",
			timestep.TerminalStateReached, step.EndType())
	}
	if math.Abs(step.Reward-99.9) > 1e-12 {
		t.Errorf("incorrect goal reward \n\twant(%v)\n\thave(%v)", 99.9,
			step.Reward)
	}
}

// TestSolveGoalStepLimit ensures that episodes time out at the step
// limit
func TestSolveGoalStepLimit(t *testing.T) {
	const episodeSteps = 5

	task := NewSolveGoal(fixedStarter(-0.5, 0.0), episodeSteps,
		GoalPosition)
	env, _, err := NewContinuous(task, 1.0)
	if err != nil {
		t.Fatal(err)
	}

	var step timestep.TimeStep
	var last bool
	action := mat.NewVecDense(1, []float64{0.0})
	for i := 0; i < episodeSteps; i++ {
		if last {
			t.Fatalf("episode ended early at step %v", i)
		}
		step, last, err = env.Step(action)
		if err != nil {
			t.Fatal(err)
		}
	}

	if !last {
		t.Fatal("episode did not end at the step limit")
	}
	if step.EndType() != timestep.Timeout {
		t.Errorf("incorrect end type \n\twant(%v)\n\thave(%v)",
			timestep.Timeout, step.EndType())
	}
}
