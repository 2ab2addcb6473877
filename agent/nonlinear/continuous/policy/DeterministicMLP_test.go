package policy

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r1"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/environment/classiccontrol/mountaincar"
	"github.com/samuelfneumann/goddpg/network"
	"github.com/samuelfneumann/goddpg/noise"
	"github.com/samuelfneumann/goddpg/timestep"
)

// newTestPolicy returns a small DeterministicMLP on Mountain Car with
// the argument exploration noise
func newTestPolicy(t *testing.T,
	exploration *noise.OrnsteinUhlenbeck) (*DeterministicMLP,
	timestep.TimeStep) {
	bounds := []r1.Interval{
		{Min: -0.6, Max: -0.4},
		{Min: 0.0, Max: 0.0},
	}
	starter := environment.NewUniformStarter(bounds, 14)
	task := mountaincar.NewSolveGoal(starter, 100, mountaincar.GoalPosition)

	env, firstStep, err := mountaincar.NewContinuous(task, 0.99)
	if err != nil {
		t.Fatal(err)
	}

	policy, err := NewDeterministicMLP(env, []int{8, 6},
		[]bool{true, true},
		[]*network.Activation{network.ReLU(), network.ReLU()},
		G.GlorotU(1.0), exploration)
	if err != nil {
		t.Fatal(err)
	}
	return policy, firstStep
}

// TestDeterministicMLPEvalLeavesNoiseUntouched ensures that action
// selection in evaluation mode does not advance the exploration noise
// process, so that training episodes after an evaluation episode see
// the same noise sequence as if the evaluation had never happened
func TestDeterministicMLPEvalLeavesNoiseUntouched(t *testing.T) {
	const seed uint64 = 14

	exploration, err := noise.NewDefaultOrnsteinUhlenbeck(
		mountaincar.ActionDims, seed)
	if err != nil {
		t.Fatal(err)
	}
	untouched, err := noise.NewDefaultOrnsteinUhlenbeck(
		mountaincar.ActionDims, seed)
	if err != nil {
		t.Fatal(err)
	}

	policy, firstStep := newTestPolicy(t, exploration)
	defer policy.Close()

	policy.Eval()
	for i := 0; i < 20; i++ {
		policy.SelectAction(firstStep)
	}

	// The policy's noise process must still produce the same samples as
	// an identically seeded process that was never used
	got := exploration.Sample()
	want := untouched.Sample()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("evaluation advanced the noise process "+
				"\n\twant(%v)\n\thave(%v)", want[i], got[i])
		}
	}
}

// TestDeterministicMLPTrainPerturbsActions ensures that training-mode
// actions are the greedy actions perturbed by the noise process
func TestDeterministicMLPTrainPerturbsActions(t *testing.T) {
	exploration, err := noise.NewDefaultOrnsteinUhlenbeck(
		mountaincar.ActionDims, 14)
	if err != nil {
		t.Fatal(err)
	}

	policy, firstStep := newTestPolicy(t, exploration)
	defer policy.Close()

	exploratory, greedy, err := policy.Actions(firstStep)
	if err != nil {
		t.Fatal(err)
	}

	perturbed := false
	for i := 0; i < exploratory.Len(); i++ {
		value := exploratory.AtVec(i)
		if value < mountaincar.MinContinuousAction ||
			value > mountaincar.MaxContinuousAction {
			t.Errorf("exploratory action outside legal range: %v", value)
		}
		if value != greedy.AtVec(i) {
			perturbed = true
		}
	}
	if !perturbed {
		t.Error("training-mode action was not perturbed")
	}
}
