package timestep

import "gonum.org/v1/gonum/mat"

// Transition packages together a single SARSA tuple of the
// agent-environment interaction. The Discount field already accounts
// for episode ends: when NextState finished an episode, Discount is 0
// so that bootstrapped targets drop their next-state term.
type Transition struct {
	State      *mat.VecDense
	Action     *mat.VecDense
	Reward     float64
	Discount   float64
	NextState  *mat.VecDense
	NextAction *mat.VecDense
}

// NewTransition packages the interaction (step, action) -> (nextStep,
// nextAction) into a Transition. The reward and discount are taken
// from nextStep, since those are the values the environment produced
// in response to taking action in step. If nextStep ends its episode,
// the stored discount is 0 regardless of the environment's discount,
// terminating bootstrapping. Step-limit cutoffs and terminal states
// are treated alike.
func NewTransition(step TimeStep, action mat.Vector, nextStep TimeStep,
	nextAction mat.Vector) Transition {
	discount := nextStep.Discount
	if nextStep.Last() {
		discount = 0.0
	}

	return Transition{
		State:      toVecDense(step.Observation),
		Action:     toVecDense(action),
		Reward:     nextStep.Reward,
		Discount:   discount,
		NextState:  toVecDense(nextStep.Observation),
		NextAction: toVecDense(nextAction),
	}
}

// toVecDense copies v into a fresh *mat.VecDense so that transitions
// never alias the vectors they were constructed from.
func toVecDense(v mat.Vector) *mat.VecDense {
	vec := mat.NewVecDense(v.Len(), nil)
	vec.CopyVec(v)
	return vec
}
