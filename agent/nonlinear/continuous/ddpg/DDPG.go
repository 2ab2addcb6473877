// Package ddpg implements the Deep Deterministic Policy Gradient
// algorithm
package ddpg

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/goddpg/agent/nonlinear/continuous/policy"
	"github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/expreplay"
	"github.com/samuelfneumann/goddpg/network"
	"github.com/samuelfneumann/goddpg/noise"
	ts "github.com/samuelfneumann/goddpg/timestep"
	"github.com/samuelfneumann/goddpg/utils/floatutils"
)

// DDPG implements the Deep Deterministic Policy Gradient algorithm. The
// agent learns a deterministic policy and a state-action value critic
// off-policy from a replay buffer of past transitions.
//
// Four networks are kept in step. The behaviour policy selects actions
// online with Ornstein-Uhlenbeck exploration. The training policy and
// training critic are batch-sized clones whose weights the solvers
// adapt. The target policy and target critic are slowly tracking
// copies that stabilize the critic's update target:
//
//	y = r + γ * Q'(s', μ'(s'))
//
// Both target networks track their training counterparts by Polyak
// averaging after every learning step.
//
// The policy is adapted by the deterministic policy gradient: the
// critic's exact gradient with respect to its action input is
// evaluated at the training policy's own actions and fed back through
// the policy network. Since the policy's tanh output is rescaled into
// the environment's action range outside the computational graph, the
// action gradients are multiplied by the rescaling derivative
// (high - low) / 2 before the policy's backward pass.
type DDPG struct {
	// Action selection policy with exploration noise
	behaviour *policy.DeterministicMLP

	// Policy whose weights are adapted, and the nodes of its graph
	// that feed in the critic's action gradients
	trainPolicy   network.NeuralNet
	trainPolicyVM G.VM
	policySolver  G.Solver
	actionGrads   *G.Node

	// Slowly tracking policy that computes next actions for the
	// critic's update target
	targetPolicy   network.NeuralNet
	targetPolicyVM G.VM

	// Critic whose weights are adapted, and the node of its graph that
	// feeds in the update targets
	trainValueFn   network.ActionValue
	trainValueFnVM G.VM
	criticSolver   G.Solver
	valueTargets   *G.Node

	// Copy of the training critic on which the exact gradient of the
	// predicted value with respect to the action input is computed
	gradValueFn   network.ActionValue
	gradValueFnVM G.VM
	actionGradVal *G.Value

	// Slowly tracking critic that computes the update target
	targetValueFn   network.ActionValue
	targetValueFnVM G.VM

	// Batch-one copy of the training critic for evaluating single
	// state-action values
	valueFn   network.ActionValue
	valueFnVM G.VM

	replay expreplay.ExperienceReplayer

	tau           float64
	gradientSteps int

	actionDims int
	lowerBound []float64
	upperBound []float64
	gradScale  []float64

	prevStep ts.TimeStep
	nextStep ts.TimeStep

	batchSize int
}

// New creates and returns a new DDPG agent
func New(env environment.Environment, c Config, seed int64) (*DDPG, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("ddpg: %v", err)
	}

	batchSize := c.BatchSize()
	features := env.ObservationSpec().Shape.Len()
	actionDims := env.ActionSpec().Shape.Len()
	init := c.InitWFn.InitWFn()

	var exploration *noise.OrnsteinUhlenbeck
	if c.ExplorationSigma > 0 {
		var err error
		exploration, err = noise.NewOrnsteinUhlenbeck(actionDims,
			c.ExplorationTheta, c.ExplorationSigma, c.ExplorationMu,
			uint64(seed))
		if err != nil {
			return nil, fmt.Errorf("ddpg: could not create exploration "+
				"noise: %v", err)
		}
	}

	// Behaviour policy for acting in the environment
	behaviour, err := policy.NewDeterministicMLP(env, c.PolicyLayers,
		c.PolicyBiases, c.PolicyActivations, init, exploration)
	if err != nil {
		return nil, fmt.Errorf("ddpg: could not create behaviour "+
			"policy: %v", err)
	}

	// Training policy which learns the weights. The critic's action
	// gradients are fed into its graph to form the deterministic
	// policy gradient objective.
	trainPolicy, err := behaviour.Network().CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("ddpg: could not create training "+
			"policy: %v", err)
	}
	gPolicy := trainPolicy.Graph()

	actionGrads := G.NewMatrix(gPolicy, tensor.Float64,
		G.WithShape(batchSize, actionDims), G.WithName("actionGrads"),
		G.WithInit(G.Zeroes()))

	// Maximize Q by following its action gradient: minimize the
	// negated inner product of the gradients with the predicted
	// actions
	policyCost := G.Must(G.Mean(G.Must(G.Neg(G.Must(G.HadamardProd(
		actionGrads, trainPolicy.Prediction()))))))
	if _, err := G.Grad(policyCost, trainPolicy.Learnables()...); err != nil {
		return nil, fmt.Errorf("ddpg: could not compute policy "+
			"gradient: %v", err)
	}
	trainPolicyVM := G.NewTapeMachine(gPolicy,
		G.BindDualValues(trainPolicy.Learnables()...))

	// Target policy for computing next actions in the update target
	targetPolicy, err := behaviour.Network().CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("ddpg: could not create target policy: %v",
			err)
	}
	targetPolicyVM := G.NewTapeMachine(targetPolicy.Graph())

	// Training critic which learns the weights by regressing on the
	// update targets with the MSE loss
	gCritic := G.NewGraph()
	trainValueNet, err := network.NewActionValueMLP(features, actionDims,
		batchSize, gCritic, c.CriticLayers, c.CriticBiases, init,
		c.CriticActivations)
	if err != nil {
		return nil, fmt.Errorf("ddpg: could not create training critic: %v",
			err)
	}
	trainValueFn := trainValueNet.(network.ActionValue)

	valueTargets := G.NewMatrix(gCritic, tensor.Float64,
		G.WithShape(batchSize, 1), G.WithName("valueTargets"),
		G.WithInit(G.Zeroes()))

	criticLosses := G.Must(G.Sub(valueTargets, trainValueFn.Prediction()))
	criticLosses = G.Must(G.Square(criticLosses))
	criticCost := G.Must(G.Mean(criticLosses))
	if _, err := G.Grad(criticCost, trainValueFn.Learnables()...); err != nil {
		return nil, fmt.Errorf("ddpg: could not compute critic "+
			"gradient: %v", err)
	}
	trainValueFnVM := G.NewTapeMachine(gCritic,
		G.BindDualValues(trainValueFn.Learnables()...))

	// Copy of the critic for computing exact action gradients. The
	// predicted values are summed so that the gradient with respect to
	// each row of the action input is exactly the gradient of that
	// row's predicted value.
	gradValueNet, err := trainValueFn.Clone()
	if err != nil {
		return nil, fmt.Errorf("ddpg: could not create action gradient "+
			"critic: %v", err)
	}
	gradValueFn := gradValueNet.(network.ActionValue)

	gradCost := G.Must(G.Sum(gradValueFn.Prediction()))
	actionGradNodes, err := G.Grad(gradCost, gradValueFn.ActionInput())
	if err != nil {
		return nil, fmt.Errorf("ddpg: could not compute action "+
			"gradient: %v", err)
	}

	actionGradVal := new(G.Value)
	G.Read(actionGradNodes[0], actionGradVal)
	gradValueFnVM := G.NewTapeMachine(gradValueFn.Graph())

	// Target critic for computing the update target
	targetValueNet, err := trainValueFn.Clone()
	if err != nil {
		return nil, fmt.Errorf("ddpg: could not create target critic: %v",
			err)
	}
	targetValueFn := targetValueNet.(network.ActionValue)
	targetValueFnVM := G.NewTapeMachine(targetValueFn.Graph())

	// Batch-one critic for evaluating single state-action values
	valueNet, err := trainValueFn.CloneWithBatch(1)
	if err != nil {
		return nil, fmt.Errorf("ddpg: could not create evaluation "+
			"critic: %v", err)
	}
	valueFn := valueNet.(network.ActionValue)
	valueFnVM := G.NewTapeMachine(valueFn.Graph())

	replay, err := c.ExpReplay.Create(features, actionDims, seed)
	if err != nil {
		return nil, fmt.Errorf("ddpg: could not create experience replay "+
			"buffer: %v", err)
	}

	lowerBound := behaviour.LowerBound()
	upperBound := behaviour.UpperBound()
	gradScale := make([]float64, actionDims)
	for i := range gradScale {
		gradScale[i] = (upperBound[i] - lowerBound[i]) / 2.0
	}

	return &DDPG{
		behaviour: behaviour,

		trainPolicy:   trainPolicy,
		trainPolicyVM: trainPolicyVM,
		policySolver:  c.PolicySolver,
		actionGrads:   actionGrads,

		targetPolicy:   targetPolicy,
		targetPolicyVM: targetPolicyVM,

		trainValueFn:   trainValueFn,
		trainValueFnVM: trainValueFnVM,
		criticSolver:   c.CriticSolver,
		valueTargets:   valueTargets,

		gradValueFn:   gradValueFn,
		gradValueFnVM: gradValueFnVM,
		actionGradVal: actionGradVal,

		targetValueFn:   targetValueFn,
		targetValueFnVM: targetValueFnVM,

		valueFn:   valueFn,
		valueFnVM: valueFnVM,

		replay: replay,

		tau: c.Tau,

		actionDims: actionDims,
		lowerBound: lowerBound,
		upperBound: upperBound,
		gradScale:  gradScale,

		batchSize: batchSize,
	}, nil
}

// ObserveFirst observes and records the first episodic timestep
func (d *DDPG) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		return fmt.Errorf("observeFirst: timestep %v is not the first "+
			"timestep of an episode", t.Number)
	}
	d.prevStep = ts.TimeStep{}
	d.nextStep = t
	return nil
}

// Observe observes and records any timestep other than the first
// timestep, adding the completed transition to the replay buffer
func (d *DDPG) Observe(action mat.Vector, nextStep ts.TimeStep) error {
	if action.Len() != d.actionDims {
		return fmt.Errorf("observe: invalid action dimensions "+
			"\n\twant(%v)\n\thave(%v)", d.actionDims, action.Len())
	}
	if nextStep.First() {
		return fmt.Errorf("observe: use ObserveFirst() for the first " +
			"timestep of an episode")
	}
	if d.nextStep.Observation == nil {
		return fmt.Errorf("observe: no first timestep observed")
	}

	// Next actions in the update target are recomputed by the target
	// policy, so the stored next action is never read
	transition := ts.NewTransition(d.nextStep, action, nextStep, action)
	if err := d.replay.Add(transition); err != nil {
		return fmt.Errorf("observe: could not add transition to replay "+
			"buffer: %v", err)
	}

	d.prevStep = d.nextStep
	d.nextStep = nextStep
	return nil
}

// Step updates the weights of the agent's policy and critic from a
// batch of replayed transitions, then moves the target networks toward
// the updated weights by Polyak averaging. Step is a no-op until the
// replay buffer holds enough transitions to fill a batch.
//
// An error is returned if the update produces NaN, which indicates
// that training has diverged.
func (d *DDPG) Step() error {
	S, A, R, discounts, NextS, _, err := d.replay.Sample()
	if expreplay.IsEmptyBuffer(err) || expreplay.IsInsufficientSamples(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("step: could not sample from replay buffer: %v",
			err)
	}

	if err := d.updateCritic(S, A, R, discounts, NextS); err != nil {
		return fmt.Errorf("step: %v", err)
	}
	if err := d.updatePolicy(S); err != nil {
		return fmt.Errorf("step: %v", err)
	}
	d.gradientSteps++

	// Target networks track the training networks
	if err := network.Polyak(d.targetPolicy, d.trainPolicy, d.tau); err != nil {
		return fmt.Errorf("step: could not update target policy: %v", err)
	}
	err = network.Polyak(d.targetValueFn, d.trainValueFn, d.tau)
	if err != nil {
		return fmt.Errorf("step: could not update target critic: %v", err)
	}

	// The acting and evaluation networks follow the training networks
	// exactly
	if err := network.Set(d.behaviour.Network(), d.trainPolicy); err != nil {
		return fmt.Errorf("step: could not update behaviour policy: %v", err)
	}
	if err := network.Set(d.valueFn, d.trainValueFn); err != nil {
		return fmt.Errorf("step: could not update evaluation critic: %v",
			err)
	}

	return nil
}

// updateCritic regresses the training critic toward the update target
//
//	y = r + γ * Q'(s', μ'(s'))
//
// computed by the target networks. Terminal transitions carry a zero
// discount, so their target is the reward alone.
func (d *DDPG) updateCritic(S, A, R, discounts, NextS []float64) error {
	// Next actions from the target policy, rescaled into the legal
	// action range
	if err := d.targetPolicy.SetInput(NextS); err != nil {
		return fmt.Errorf("could not set target policy input: %v", err)
	}
	if err := d.targetPolicyVM.RunAll(); err != nil {
		return fmt.Errorf("could not run target policy: %v", err)
	}
	rawNext := d.targetPolicy.Output().Data().([]float64)
	nextActions := make([]float64, len(rawNext))
	for i := range rawNext {
		dim := i % d.actionDims
		nextActions[i] = floatutils.Scale(rawNext[i], d.lowerBound[dim],
			d.upperBound[dim])
	}
	d.targetPolicyVM.Reset()

	// Next state-action values from the target critic
	if err := d.targetValueFn.SetInput(NextS); err != nil {
		return fmt.Errorf("could not set target critic state input: %v",
			err)
	}
	if err := d.targetValueFn.SetActionInput(nextActions); err != nil {
		return fmt.Errorf("could not set target critic action input: %v",
			err)
	}
	if err := d.targetValueFnVM.RunAll(); err != nil {
		return fmt.Errorf("could not run target critic: %v", err)
	}
	nextValues := d.targetValueFn.Output().Data().([]float64)

	targets := make([]float64, d.batchSize)
	for i := range targets {
		targets[i] = R[i] + discounts[i]*nextValues[i]
	}
	d.targetValueFnVM.Reset()

	if floats.HasNaN(targets) {
		return fmt.Errorf("critic update target contains NaN")
	}

	// Learning step on the training critic
	if err := d.trainValueFn.SetInput(S); err != nil {
		return fmt.Errorf("could not set critic state input: %v", err)
	}
	if err := d.trainValueFn.SetActionInput(A); err != nil {
		return fmt.Errorf("could not set critic action input: %v", err)
	}
	targetsTensor := tensor.New(tensor.WithBacking(targets),
		tensor.WithShape(d.batchSize, 1))
	if err := G.Let(d.valueTargets, targetsTensor); err != nil {
		return fmt.Errorf("could not set critic update targets: %v", err)
	}

	if err := d.trainValueFnVM.RunAll(); err != nil {
		return fmt.Errorf("could not run critic learning step: %v", err)
	}
	if err := d.criticSolver.Step(d.trainValueFn.Model()); err != nil {
		return fmt.Errorf("could not step critic solver: %v", err)
	}
	d.trainValueFnVM.Reset()

	return nil
}

// updatePolicy performs one deterministic policy gradient step on the
// training policy. The critic's gradient with respect to its action
// input is evaluated at the training policy's own actions on the
// sampled states and fed back through the policy network, scaled by
// the derivative of the rescaling from [-1, 1] into the legal action
// range.
func (d *DDPG) updatePolicy(S []float64) error {
	// Forward pass to find the actions the current policy takes at
	// the sampled states
	if err := d.trainPolicy.SetInput(S); err != nil {
		return fmt.Errorf("could not set policy input: %v", err)
	}
	if err := d.trainPolicyVM.RunAll(); err != nil {
		return fmt.Errorf("could not run policy forward pass: %v", err)
	}
	raw := d.trainPolicy.Output().Data().([]float64)
	policyActions := make([]float64, len(raw))
	for i := range raw {
		dim := i % d.actionDims
		policyActions[i] = floatutils.Scale(raw[i], d.lowerBound[dim],
			d.upperBound[dim])
	}
	d.trainPolicyVM.Reset()

	// Exact critic gradients with respect to the policy's actions,
	// computed on a critic copy sharing the training critic's weights
	if err := network.Set(d.gradValueFn, d.trainValueFn); err != nil {
		return fmt.Errorf("could not sync action gradient critic: %v", err)
	}
	if err := d.gradValueFn.SetInput(S); err != nil {
		return fmt.Errorf("could not set action gradient state input: %v",
			err)
	}
	if err := d.gradValueFn.SetActionInput(policyActions); err != nil {
		return fmt.Errorf("could not set action gradient action input: %v",
			err)
	}
	if err := d.gradValueFnVM.RunAll(); err != nil {
		return fmt.Errorf("could not run action gradient critic: %v", err)
	}

	grads := make([]float64, d.batchSize*d.actionDims)
	copy(grads, (*d.actionGradVal).Data().([]float64))
	d.gradValueFnVM.Reset()

	if floats.HasNaN(grads) {
		return fmt.Errorf("critic action gradient contains NaN")
	}

	// Account for the affine rescaling of the tanh output, which
	// happens outside the computational graph
	for i := range grads {
		grads[i] *= d.gradScale[i%d.actionDims]
	}

	gradsTensor := tensor.New(tensor.WithBacking(grads),
		tensor.WithShape(d.batchSize, d.actionDims))
	if err := G.Let(d.actionGrads, gradsTensor); err != nil {
		return fmt.Errorf("could not set action gradients: %v", err)
	}

	// Learning step on the training policy
	if err := d.trainPolicyVM.RunAll(); err != nil {
		return fmt.Errorf("could not run policy learning step: %v", err)
	}
	if err := d.policySolver.Step(d.trainPolicy.Model()); err != nil {
		return fmt.Errorf("could not step policy solver: %v", err)
	}
	d.trainPolicyVM.Reset()

	return nil
}

// SelectAction returns an action selected by the behaviour policy at
// the argument timestep: an exploratory action in training mode, the
// greedy action in evaluation mode
func (d *DDPG) SelectAction(t ts.TimeStep) *mat.VecDense {
	return d.behaviour.SelectAction(t)
}

// ActionValue returns the training critic's predicted value of taking
// the argument action in the argument state
func (d *DDPG) ActionValue(state, action []float64) (float64, error) {
	if err := d.valueFn.SetInput(state); err != nil {
		return 0, fmt.Errorf("actionValue: could not set state input: %v",
			err)
	}
	if err := d.valueFn.SetActionInput(action); err != nil {
		return 0, fmt.Errorf("actionValue: could not set action input: %v",
			err)
	}
	if err := d.valueFnVM.RunAll(); err != nil {
		return 0, fmt.Errorf("actionValue: could not run critic: %v", err)
	}
	defer d.valueFnVM.Reset()

	return d.valueFn.Output().Data().([]float64)[0], nil
}

// PolicyAction returns the greedy action of the learned policy in the
// argument state
func (d *DDPG) PolicyAction(state []float64) ([]float64, error) {
	obs := mat.NewVecDense(len(state), state)
	step := ts.New(ts.Mid, 0, 1.0, obs, 0)

	_, greedy, err := d.behaviour.Actions(step)
	if err != nil {
		return nil, fmt.Errorf("policyAction: %v", err)
	}
	return greedy.RawVector().Data, nil
}

// GradientSteps returns the number of learning steps the agent has
// performed
func (d *DDPG) GradientSteps() int {
	return d.gradientSteps
}

// StoredTransitions returns the number of transitions currently held
// in the agent's replay buffer
func (d *DDPG) StoredTransitions() int {
	return d.replay.Capacity()
}

// MaxStoredTransitions returns the maximum number of transitions the
// agent's replay buffer can hold
func (d *DDPG) MaxStoredTransitions() int {
	return d.replay.MaxCapacity()
}

// Eval sets the agent into evaluation mode
func (d *DDPG) Eval() {
	d.behaviour.Eval()
}

// Train sets the agent into training mode
func (d *DDPG) Train() {
	d.behaviour.Train()
}

// IsEval returns whether the agent is in evaluation mode
func (d *DDPG) IsEval() bool {
	return d.behaviour.IsEval()
}

// EndEpisode resets the behaviour policy's exploration noise between
// episodes
func (d *DDPG) EndEpisode() {
	d.behaviour.EndEpisode()
}

// Close closes the agent's virtual machines
func (d *DDPG) Close() error {
	vms := []G.VM{d.trainPolicyVM, d.targetPolicyVM, d.trainValueFnVM,
		d.gradValueFnVM, d.targetValueFnVM, d.valueFnVM}
	for _, vm := range vms {
		if err := vm.Close(); err != nil {
			return fmt.Errorf("close: %v", err)
		}
	}
	return d.behaviour.Close()
}
