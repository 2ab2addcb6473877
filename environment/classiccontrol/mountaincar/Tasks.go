package mountaincar

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/timestep"
)

const (
	// Commonly used goal position
	GoalPosition float64 = 0.45
)

// Goal implements the classic control task of reaching a goal on
// Mountain Car. In this task, the agent must learn to drive the car
// up the hill and reach the goal state. Since the car is underpowered,
// it must rock back and forth from hill to hill until it reaches the
// goal.
//
// Rewards are -1 on each timestep and 0 for the action which
// transitions the car to the goal.
//
// Episodes end after a step limit or when the car reaches the goal
// state.
type Goal struct {
	environment.Starter
	goalEnder environment.Ender
	stepEnder environment.Ender
	goalX     float64 // x position of goal
}

// NewGoal creates and returns a new Goal struct given a Starter, which
// determines the starting states; the maximum number of episode
// steps; and the goal x position.
func NewGoal(s environment.Starter, episodeSteps int, goalX float64) *Goal {
	stepEnder := environment.NewStepLimit(episodeSteps)
	goalEnder := newGoalEnder(goalX)

	return &Goal{s, goalEnder, stepEnder, goalX}
}

// AtGoal returns a boolean indicating whether or not the argument state
// is the goal state
func (g *Goal) AtGoal(state mat.Matrix) bool {
	return state.At(0, 0) >= g.goalX
}

// GetReward returns the reward for a given state and action, resulting
// in a given next state. Since this is a cost-to-goal Task, rewards are
// -1.0 for all actions, except for an action which leads to the goal
// state, which results in a reward of 0.0
func (g *Goal) GetReward(state, _, nextState mat.Vector) float64 {
	xPosition := nextState.AtVec(0)

	if xPosition >= g.goalX {
		return 0.0
	}
	return -1.0
}

// Min returns the minimum attainable reward over all timesteps
func (g *Goal) Min() float64 { return -1.0 }

// Max returns the maximum attainable reward over all timesteps
func (g *Goal) Max() float64 { return 0.0 }

// RewardSpec returns the reward specification of the Task
func (g *Goal) RewardSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{g.Min()})
	upperBound := mat.NewVecDense(1, []float64{g.Max()})

	return environment.NewSpec(shape, environment.Reward, lowerBound,
		upperBound, environment.Discrete)
}

// End determines if a timestep is the last timestep in the episode.
// If so, it changes the TimeStep's StepType to timestep.Last. This
// function returns true if the argument timestep is the last timestep
// in the episode and false otherwise.
func (g *Goal) End(t *timestep.TimeStep) bool {
	// Check if the goal was reached, modifying t.StepType if appropriate
	if end := g.goalEnder.End(t); end {
		return true
	}

	// Check if the max steps was reached, modifying t.StepType if
	// appropriate
	if end := g.stepEnder.End(t); end {
		return true
	}
	return false
}

// SolveGoal implements the solve variant of the goal-reaching task on
// Mountain Car. Reaching the goal earns a reward of +100, and every
// action is penalized by 0.1 times its squared magnitude, so that a
// policy that reaches the goal with little wasted effort earns returns
// above 90.
//
// Episodes end after a step limit or when the car reaches the goal
// state.
type SolveGoal struct {
	environment.Starter
	goalEnder environment.Ender
	stepEnder environment.Ender
	goalX     float64 // x position of goal
}

// NewSolveGoal creates and returns a new SolveGoal struct given a
// Starter, which determines the starting states; the maximum number of
// episode steps; and the goal x position.
func NewSolveGoal(s environment.Starter, episodeSteps int,
	goalX float64) *SolveGoal {
	stepEnder := environment.NewStepLimit(episodeSteps)
	goalEnder := newGoalEnder(goalX)

	return &SolveGoal{s, goalEnder, stepEnder, goalX}
}

// AtGoal returns a boolean indicating whether or not the argument state
// is the goal state
func (s *SolveGoal) AtGoal(state mat.Matrix) bool {
	return state.At(0, 0) >= s.goalX
}

// GetReward returns the reward for a given state and action, resulting
// in a given next state. Every action costs 0.1 times its squared
// magnitude, and an action which leads to the goal state earns an
// additional reward of +100.
func (s *SolveGoal) GetReward(state, action, nextState mat.Vector) float64 {
	force := action.AtVec(0)
	reward := -0.1 * force * force

	if nextState.AtVec(0) >= s.goalX {
		reward += 100.0
	}
	return reward
}

// Min returns the minimum attainable reward over all timesteps
func (s *SolveGoal) Min() float64 {
	return -0.1 * MaxContinuousAction * MaxContinuousAction
}

// Max returns the maximum attainable reward over all timesteps
func (s *SolveGoal) Max() float64 { return 100.0 }

// RewardSpec returns the reward specification of the Task
func (s *SolveGoal) RewardSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{s.Min()})
	upperBound := mat.NewVecDense(1, []float64{s.Max()})

	return environment.NewSpec(shape, environment.Reward, lowerBound,
		upperBound, environment.Continuous)
}

// End determines if a timestep is the last timestep in the episode.
// If so, it changes the TimeStep's StepType to timestep.Last. This
// function returns true if the argument timestep is the last timestep
// in the episode and false otherwise.
func (s *SolveGoal) End(t *timestep.TimeStep) bool {
	if end := s.goalEnder.End(t); end {
		return true
	}

	if end := s.stepEnder.End(t); end {
		return true
	}
	return false
}

// newGoalEnder returns an Ender which ends episodes once the x
// position exceeds goalX
func newGoalEnder(goalX float64) environment.Ender {
	interval := []r1.Interval{{Min: math.Inf(-1), Max: goalX}}
	positionIndex := []int{0}
	return environment.NewIntervalLimit(interval, positionIndex,
		timestep.TerminalStateReached)
}
