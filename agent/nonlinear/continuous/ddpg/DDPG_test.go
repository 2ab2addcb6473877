package ddpg

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/environment/classiccontrol/mountaincar"
	"github.com/samuelfneumann/goddpg/environment/wrappers"
	"github.com/samuelfneumann/goddpg/expreplay"
	"github.com/samuelfneumann/goddpg/timestep"
)

// newTestEnvironment returns a normalized continuous-action Mountain
// Car environment for testing
func newTestEnvironment(t *testing.T, episodeSteps int) (
	environment.Environment, timestep.TimeStep) {
	bounds := []r1.Interval{
		{Min: -0.6, Max: -0.4},
		{Min: 0.0, Max: 0.0},
	}
	starter := environment.NewUniformStarter(bounds, 14)
	task := mountaincar.NewSolveGoal(starter, episodeSteps,
		mountaincar.GoalPosition)

	env, _, err := mountaincar.NewContinuous(task, 0.99)
	if err != nil {
		t.Fatal(err)
	}

	normalized, firstStep, err := wrappers.NewNormalize(env)
	if err != nil {
		t.Fatal(err)
	}
	return normalized, firstStep
}

// newTestConfig returns a Config small enough for quick tests
func newTestConfig(t *testing.T) Config {
	config, err := Default()
	if err != nil {
		t.Fatal(err)
	}

	config.PolicyLayers = []int{8, 6}
	config.CriticLayers = []int{8, 6}
	config.ExpReplay = expreplay.Config{
		SampleMethod:      expreplay.Uniform,
		SampleSize:        4,
		MaxReplayCapacity: 64,
		MinReplayCapacity: 4,
	}
	return config
}

// TestDDPGInteraction runs a DDPG agent through full episodes of
// Mountain Car, ensuring that actions stay within the legal range and
// that learning steps begin once the replay buffer holds a full batch
func TestDDPGInteraction(t *testing.T) {
	const episodeSteps, episodes = 25, 2

	env, firstStep := newTestEnvironment(t, episodeSteps)

	config := newTestConfig(t)
	agent, err := New(env, config, 14)
	if err != nil {
		t.Fatal(err)
	}
	defer agent.Close()

	step := firstStep
	for episode := 0; episode < episodes; episode++ {
		if err := agent.ObserveFirst(step); err != nil {
			t.Fatal(err)
		}

		for !step.Last() {
			action := agent.SelectAction(step)
			for i := 0; i < action.Len(); i++ {
				value := action.AtVec(i)
				if value < mountaincar.MinContinuousAction ||
					value > mountaincar.MaxContinuousAction {
					t.Fatalf("action outside legal range: %v", value)
				}
			}

			nextStep, _, err := env.Step(action)
			if err != nil {
				t.Fatal(err)
			}

			if err := agent.Observe(action, nextStep); err != nil {
				t.Fatal(err)
			}
			if err := agent.Step(); err != nil {
				t.Fatal(err)
			}
			step = nextStep
		}

		agent.EndEpisode()
		step = env.Reset()
	}

	// Both episodes exceed the minimum replay capacity, so learning
	// steps must have occurred
	if agent.GradientSteps() == 0 {
		t.Error("no learning steps were performed")
	}
}

// TestDDPGWarmUp ensures that learning steps are skipped without error
// until the replay buffer holds enough transitions to fill a batch
func TestDDPGWarmUp(t *testing.T) {
	env, firstStep := newTestEnvironment(t, 100)

	config := newTestConfig(t)
	config.ExpReplay.MinReplayCapacity = 10
	agent, err := New(env, config, 14)
	if err != nil {
		t.Fatal(err)
	}
	defer agent.Close()

	if err := agent.ObserveFirst(firstStep); err != nil {
		t.Fatal(err)
	}

	step := firstStep
	for i := 0; i < config.ExpReplay.MinReplayCapacity-1; i++ {
		action := agent.SelectAction(step)
		nextStep, _, err := env.Step(action)
		if err != nil {
			t.Fatal(err)
		}
		if err := agent.Observe(action, nextStep); err != nil {
			t.Fatal(err)
		}

		if err := agent.Step(); err != nil {
			t.Fatal(err)
		}
		if agent.GradientSteps() != 0 {
			t.Fatalf("learning step performed with only %v transitions "+
				"stored", i+1)
		}
		step = nextStep
	}
}

// TestDDPGReplayOccupancy runs a fixed-seed multi-episode interaction
// and ensures that replay buffer occupancy never decreases and, once
// the buffer saturates, stays at maximum capacity
func TestDDPGReplayOccupancy(t *testing.T) {
	const episodeSteps, episodes, maxCapacity = 25, 2, 16

	env, firstStep := newTestEnvironment(t, episodeSteps)

	config := newTestConfig(t)
	config.ExpReplay.MaxReplayCapacity = maxCapacity
	agent, err := New(env, config, 14)
	if err != nil {
		t.Fatal(err)
	}
	defer agent.Close()

	if agent.MaxStoredTransitions() != maxCapacity {
		t.Fatalf("incorrect maximum buffer capacity \n\twant(%v)"+
			"\n\thave(%v)", maxCapacity, agent.MaxStoredTransitions())
	}

	stored := agent.StoredTransitions()
	step := firstStep
	for episode := 0; episode < episodes; episode++ {
		if err := agent.ObserveFirst(step); err != nil {
			t.Fatal(err)
		}

		for !step.Last() {
			action := agent.SelectAction(step)
			nextStep, _, err := env.Step(action)
			if err != nil {
				t.Fatal(err)
			}
			if err := agent.Observe(action, nextStep); err != nil {
				t.Fatal(err)
			}
			if err := agent.Step(); err != nil {
				t.Fatal(err)
			}
			step = nextStep

			if now := agent.StoredTransitions(); now < stored {
				t.Fatalf("buffer occupancy decreased from %v to %v", stored,
					now)
			} else if now > maxCapacity {
				t.Fatalf("buffer occupancy %v exceeds maximum capacity %v",
					now, maxCapacity)
			} else {
				stored = now
			}
		}

		agent.EndEpisode()
		step = env.Reset()
	}

	// Both episodes together store more transitions than the buffer
	// holds, so the buffer must have saturated
	if stored != maxCapacity {
		t.Errorf("buffer did not saturate \n\twant(%v)\n\thave(%v)",
			maxCapacity, stored)
	}
}

// TestDefaultLearningOnset ensures that the default configuration
// begins learning as soon as the replay buffer can fill one batch
func TestDefaultLearningOnset(t *testing.T) {
	config, err := Default()
	if err != nil {
		t.Fatal(err)
	}

	if config.ExpReplay.MinReplayCapacity != config.ExpReplay.SampleSize {
		t.Errorf("default minimum replay capacity should equal the batch "+
			"size \n\twant(%v)\n\thave(%v)", config.ExpReplay.SampleSize,
			config.ExpReplay.MinReplayCapacity)
	}
}

// TestDDPGEvalDeterministic ensures that action selection in
// evaluation mode is deterministic
func TestDDPGEvalDeterministic(t *testing.T) {
	env, firstStep := newTestEnvironment(t, 100)

	agent, err := New(env, newTestConfig(t), 14)
	if err != nil {
		t.Fatal(err)
	}
	defer agent.Close()

	agent.Eval()
	if !agent.IsEval() {
		t.Fatal("agent not in evaluation mode")
	}

	first := agent.SelectAction(firstStep)
	second := agent.SelectAction(firstStep)
	for i := 0; i < first.Len(); i++ {
		if first.AtVec(i) != second.AtVec(i) {
			t.Errorf("evaluation mode actions differ: %v != %v",
				first.AtVec(i), second.AtVec(i))
		}
	}
}

// TestConfigValidate ensures that invalid configurations are rejected
func TestConfigValidate(t *testing.T) {
	config, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("default configuration rejected: %v", err)
	}

	invalidTau := config
	invalidTau.Tau = 1.5
	if err := invalidTau.Validate(); err == nil {
		t.Error("tau outside [0, 1] should be rejected")
	}

	invalidBiases := config
	invalidBiases.PolicyBiases = []bool{true}
	if err := invalidBiases.Validate(); err == nil {
		t.Error("mismatched policy biases should be rejected")
	}

	invalidCritic := config
	invalidCritic.CriticLayers = nil
	invalidCritic.CriticBiases = nil
	invalidCritic.CriticActivations = nil
	if err := invalidCritic.Validate(); err == nil {
		t.Error("critic without hidden layers should be rejected")
	}
}
