// Package policy implements policies for continuous-action agents
// using neural network function approximation
package policy

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/network"
	"github.com/samuelfneumann/goddpg/noise"
	"github.com/samuelfneumann/goddpg/timestep"
	"github.com/samuelfneumann/goddpg/utils/floatutils"
)

// DeterministicMLP implements a deterministic policy parameterized by
// a multi-layered perceptron with a tanh output layer. The network
// predicts actions in [-1, 1] per dimension, which the policy then
// rescales into the environment's legal action range:
//
//	scaled = low + (raw + 1) * (high - low) / 2
//
// The rescaling is plain post-processing of the network output and is
// not part of the computational graph; learners that differentiate
// through the policy account for the rescaling by scaling the
// gradients they feed back (the rescale is affine, so its derivative
// is the constant (high - low) / 2).
//
// In training mode, an Ornstein-Uhlenbeck process perturbs the scaled
// action for exploration, and the perturbed action is clipped to stay
// within the legal range. In evaluation mode the scaled action is
// returned unchanged.
//
// DeterministicMLP implements the agent.NNPolicy interface.
type DeterministicMLP struct {
	net network.NeuralNet
	vm  G.VM

	actionDims int
	lowerBound []float64
	upperBound []float64

	exploration *noise.OrnsteinUhlenbeck
	eval        bool
}

// NewDeterministicMLP returns a new DeterministicMLP for acting in the
// argument environment. The hiddenSizes, biases, activations, and init
// parameters determine the hidden architecture of the policy network
// as in network.NewMultiHeadMLP; a tanh output layer is always
// appended. The exploration parameter is the noise process perturbing
// actions in training mode and may be nil for a purely greedy policy.
func NewDeterministicMLP(env environment.Environment, hiddenSizes []int,
	biases []bool, activations []*network.Activation, init G.InitWFn,
	exploration *noise.OrnsteinUhlenbeck) (*DeterministicMLP, error) {
	features := env.ObservationSpec().Shape.Len()
	actionSpec := env.ActionSpec()
	actionDims := actionSpec.Shape.Len()

	if actionSpec.Cardinality != environment.Continuous {
		return nil, fmt.Errorf("newDeterministicMLP: deterministic MLP " +
			"policies select only continuous actions")
	}
	if exploration != nil && exploration.Dims() != actionDims {
		return nil, fmt.Errorf("newDeterministicMLP: exploration noise "+
			"dims invalid \n\twant(%v)\n\thave(%v)", actionDims,
			exploration.Dims())
	}

	lowerBound := make([]float64, actionDims)
	upperBound := make([]float64, actionDims)
	for i := 0; i < actionDims; i++ {
		lowerBound[i] = actionSpec.LowerBound.AtVec(i)
		upperBound[i] = actionSpec.UpperBound.AtVec(i)
	}

	g := G.NewGraph()
	net, err := network.NewMultiHeadMLP(features, 1, actionDims, g,
		hiddenSizes, biases, init, activations, network.TanH())
	if err != nil {
		return nil, fmt.Errorf("newDeterministicMLP: could not create "+
			"policy network: %v", err)
	}

	vm := G.NewTapeMachine(net.Graph())

	return &DeterministicMLP{
		net:         net,
		vm:          vm,
		actionDims:  actionDims,
		lowerBound:  lowerBound,
		upperBound:  upperBound,
		exploration: exploration,
		eval:        false,
	}, nil
}

// Actions computes both the exploratory and the greedy action of the
// policy at the argument timestep. The greedy action is the network
// prediction rescaled into the legal action range; the exploratory
// action additionally perturbs the greedy action with the policy's
// noise process and clips the result back into the legal range. In
// evaluation mode the noise process is left untouched and both
// returned actions are greedy, so that evaluation episodes do not
// advance the exploration state used by training episodes.
//
// An error is returned if the policy network predicts a NaN or
// infinity, which indicates that training has diverged.
func (d *DeterministicMLP) Actions(t timestep.TimeStep) (exploratory,
	greedy *mat.VecDense, err error) {
	obs := t.Observation.(*mat.VecDense).RawVector().Data
	if err := d.net.SetInput(obs); err != nil {
		return nil, nil, fmt.Errorf("actions: could not set input: %v", err)
	}

	if err := d.vm.RunAll(); err != nil {
		return nil, nil, fmt.Errorf("actions: could not run policy "+
			"network: %v", err)
	}
	d.vm.Reset()

	raw := d.net.Output().Data().([]float64)
	if floats.HasNaN(raw) {
		return nil, nil, fmt.Errorf("actions: policy network predicted " +
			"NaN action")
	}

	greedyAction := make([]float64, d.actionDims)
	for i := 0; i < d.actionDims; i++ {
		greedyAction[i] = floatutils.Scale(raw[i], d.lowerBound[i],
			d.upperBound[i])
	}

	exploratoryAction := make([]float64, d.actionDims)
	copy(exploratoryAction, greedyAction)
	if d.exploration != nil && !d.eval {
		perturbation := d.exploration.Sample()
		for i := 0; i < d.actionDims; i++ {
			exploratoryAction[i] = floatutils.Clip(
				exploratoryAction[i]+perturbation[i],
				d.lowerBound[i],
				d.upperBound[i],
			)
		}
	}

	return mat.NewVecDense(d.actionDims, exploratoryAction),
		mat.NewVecDense(d.actionDims, greedyAction), nil
}

// SelectAction returns the action to take at the argument timestep:
// the exploratory action in training mode, the greedy action in
// evaluation mode
func (d *DeterministicMLP) SelectAction(t timestep.TimeStep) *mat.VecDense {
	exploratory, greedy, err := d.Actions(t)
	if err != nil {
		panic(fmt.Sprintf("selectaction: %v", err))
	}

	if d.eval {
		return greedy
	}
	return exploratory
}

// EndEpisode resets the policy's exploration noise so that drift does
// not carry over between episodes
func (d *DeterministicMLP) EndEpisode() {
	if d.exploration != nil {
		d.exploration.Reset()
	}
}

// Eval sets the policy to evaluation mode
func (d *DeterministicMLP) Eval() {
	d.eval = true
}

// Train sets the policy to training mode
func (d *DeterministicMLP) Train() {
	d.eval = false
}

// IsEval returns whether the policy is in evaluation mode
func (d *DeterministicMLP) IsEval() bool {
	return d.eval
}

// Network returns the network of the policy
func (d *DeterministicMLP) Network() network.NeuralNet {
	return d.net
}

// LowerBound returns the per-dimension lower bound of legal actions
func (d *DeterministicMLP) LowerBound() []float64 {
	return d.lowerBound
}

// UpperBound returns the per-dimension upper bound of legal actions
func (d *DeterministicMLP) UpperBound() []float64 {
	return d.upperBound
}

// Close closes the policy's virtual machine
func (d *DeterministicMLP) Close() error {
	return d.vm.Close()
}
