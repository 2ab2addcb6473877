package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// ActionValue implements a NeuralNet that predicts the value of taking
// a continuous action in a state. The network has two input nodes: a
// state input, set with SetInput(), and an action input, set with
// SetActionInput(). The action input node is exported so that callers
// can take symbolic gradients of the prediction with respect to the
// actions.
type ActionValue interface {
	NeuralNet

	// SetActionInput sets the value of the action input node before
	// running the forward pass
	SetActionInput([]float64) error

	// ActionInput returns the action input node of the computational
	// graph
	ActionInput() *G.Node

	// ActionDims returns the number of features in a single action
	// vector that the network takes as input
	ActionDims() int
}

// actionValueMLP implements a state-action value network. The state
// and action each pass through their own affine projection into a
// shared hidden size; the two projections are merged by element-wise
// addition before the first hidden activation:
//
//	State  ─→ affine ─╮
//	                  (+) ─→ activation ─→ hidden layers ─→ Q(s, a)
//	Action ─→ affine ─╯
//
// A final linear layer with a single output unit predicts the scalar
// action value for each row of the input batch.
type actionValueMLP struct {
	g           *G.ExprGraph
	stateInput  *G.Node
	actionInput *G.Node

	stateProj  Layer
	actionProj Layer
	mergeAct   *Activation
	layers     []Layer

	stateDims  int
	actionDims int
	batchSize  int

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// NewActionValueMLP creates and returns a new state-action value MLP
// on graph g. The stateDims and actionDims parameters determine the
// number of state and action features; batch determines the number of
// rows of the input nodes.
//
// The network has len(hiddenSizes) hidden layers followed by a final
// linear layer with a single output. hiddenSizes[0] is the width of
// the merged state-action layer; activations[0] is applied after the
// merge. For i > 0, hiddenSizes[i], biases[i], and activations[i]
// determine hidden layer i as in NewMultiHeadMLP. The parameter init
// determines the weight initialization scheme. The state projection
// carries the merged layer's bias unit, specified by biases[0]; the
// action projection never has its own bias since the merge would make
// it redundant.
func NewActionValueMLP(stateDims, actionDims, batch int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation) (NeuralNet, error) {
	if len(hiddenSizes) == 0 {
		return nil, fmt.Errorf("newactionvaluemlp: at least one hidden " +
			"layer is required to merge states and actions")
	}
	if len(hiddenSizes) != len(activations) {
		msg := "newactionvaluemlp: invalid number of activations" +
			"\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}
	if len(hiddenSizes) != len(biases) {
		msg := "newactionvaluemlp: invalid number of biases\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}
	if stateDims <= 0 || actionDims <= 0 || batch <= 0 {
		msg := "newactionvaluemlp: state dims (%v), action dims (%v), " +
			"and batch (%v) must all be > 0"
		return nil, fmt.Errorf(msg, stateDims, actionDims, batch)
	}

	stateInput := G.NewMatrix(g, tensor.Float64,
		G.WithShape(batch, stateDims), G.WithName("stateInput"),
		G.WithInit(G.Zeroes()))
	actionInput := G.NewMatrix(g, tensor.Float64,
		G.WithShape(batch, actionDims), G.WithName("actionInput"),
		G.WithInit(G.Zeroes()))

	// The merge activation is applied after adding the two
	// projections, so the projections themselves are linear
	stateProj := newFCLayer(g, stateDims, hiddenSizes[0], biases[0],
		Nil(), init, 0, "State", "")
	actionProj := newFCLayer(g, actionDims, hiddenSizes[0], false,
		Nil(), init, 0, "Action", "")

	// Remaining hidden layers plus the final scalar output layer
	mergedSizes := append(append([]int{}, hiddenSizes[1:]...), 1)
	mergedBiases := append(append([]bool{}, biases[1:]...), true)
	mergedActivations := append(append([]*Activation{},
		activations[1:]...), Identity())
	layers := addfcLayers(g, mergedSizes, mergedBiases, mergedActivations,
		init, hiddenSizes[0], "Merged", "")

	network := actionValueMLP{
		g:           g,
		stateInput:  stateInput,
		actionInput: actionInput,
		stateProj:   stateProj,
		actionProj:  actionProj,
		mergeAct:    activations[0],
		layers:      layers,
		stateDims:   stateDims,
		actionDims:  actionDims,
		batchSize:   batch,
	}
	if err := network.fwd(); err != nil {
		return nil, fmt.Errorf("newactionvaluemlp: could not compute "+
			"forward pass: %v", err)
	}

	return &network, nil
}

// Graph returns the computational graph of the actionValueMLP
func (a *actionValueMLP) Graph() *G.ExprGraph {
	return a.g
}

// Clone clones an actionValueMLP. The returned NeuralNet is an
// ActionValue.
func (a *actionValueMLP) Clone() (NeuralNet, error) {
	return a.CloneWithBatch(a.batchSize)
}

// CloneWithBatch clones an actionValueMLP with a new input batch size.
// The returned NeuralNet is an ActionValue.
func (a *actionValueMLP) CloneWithBatch(batchSize int) (NeuralNet, error) {
	graph := G.NewGraph()

	stateInput := G.NewMatrix(graph, tensor.Float64,
		G.WithShape(batchSize, a.stateDims), G.WithName("stateInput"),
		G.WithInit(G.Zeroes()))
	actionInput := G.NewMatrix(graph, tensor.Float64,
		G.WithShape(batchSize, a.actionDims), G.WithName("actionInput"),
		G.WithInit(G.Zeroes()))

	layers := make([]Layer, len(a.layers))
	for i := range a.layers {
		layers[i] = a.layers[i].CloneTo(graph)
	}

	network := actionValueMLP{
		g:           graph,
		stateInput:  stateInput,
		actionInput: actionInput,
		stateProj:   a.stateProj.CloneTo(graph),
		actionProj:  a.actionProj.CloneTo(graph),
		mergeAct:    a.mergeAct,
		layers:      layers,
		stateDims:   a.stateDims,
		actionDims:  a.actionDims,
		batchSize:   batchSize,
	}
	if err := network.fwd(); err != nil {
		return nil, fmt.Errorf("clonewithbatch: could not clone: %v", err)
	}

	return &network, nil
}

// BatchSize returns the batch size of inputs to the network
func (a *actionValueMLP) BatchSize() int {
	return a.batchSize
}

// Features returns the number of state features that the network takes
// as input
func (a *actionValueMLP) Features() int {
	return a.stateDims
}

// ActionDims returns the number of action features that the network
// takes as input
func (a *actionValueMLP) ActionDims() int {
	return a.actionDims
}

// Outputs returns the number of outputs from the network. Action value
// networks always predict a single scalar per input row.
func (a *actionValueMLP) Outputs() int {
	return 1
}

// SetInput sets the value of the state input node before running the
// forward pass.
func (a *actionValueMLP) SetInput(input []float64) error {
	if len(input) != a.stateDims*a.batchSize {
		msg := fmt.Sprintf("setinput: invalid number of state inputs"+
			"\n\twant(%v)\n\thave(%v)", a.stateDims*a.batchSize, len(input))
		panic(msg)
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(a.stateInput.Shape()...),
	)
	return G.Let(a.stateInput, inputTensor)
}

// SetActionInput sets the value of the action input node before
// running the forward pass.
func (a *actionValueMLP) SetActionInput(input []float64) error {
	if len(input) != a.actionDims*a.batchSize {
		msg := fmt.Sprintf("setactioninput: invalid number of action "+
			"inputs\n\twant(%v)\n\thave(%v)", a.actionDims*a.batchSize,
			len(input))
		panic(msg)
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(a.actionInput.Shape()...),
	)
	return G.Let(a.actionInput, inputTensor)
}

// ActionInput returns the action input node of the computational graph
func (a *actionValueMLP) ActionInput() *G.Node {
	return a.actionInput
}

// Learnables returns the learnable nodes in an actionValueMLP
func (a *actionValueMLP) Learnables() G.Nodes {
	// Lazy instantiation
	if a.learnables == nil {
		allLayers := append([]Layer{a.stateProj, a.actionProj},
			a.layers...)
		a.learnables = computeLearnables(allLayers)
	}
	return a.learnables
}

// Model returns the learnables nodes with their gradients.
func (a *actionValueMLP) Model() []G.ValueGrad {
	// Lazy instantiation
	if a.model == nil {
		a.model = computeModel(a.Learnables())
	}
	return a.model
}

// fwd performs the forward pass of the actionValueMLP on the state and
// action input nodes
func (a *actionValueMLP) fwd() error {
	statePre, err := a.stateProj.fwd(a.stateInput)
	if err != nil {
		return fmt.Errorf("fwd: could not project states: %v", err)
	}

	actionPre, err := a.actionProj.fwd(a.actionInput)
	if err != nil {
		return fmt.Errorf("fwd: could not project actions: %v", err)
	}

	// Merge the state and action pathways by addition
	pred := G.Must(G.Add(statePre, actionPre))
	if a.mergeAct != nil && !a.mergeAct.IsNil() {
		if pred, err = a.mergeAct.fwd(pred); err != nil {
			return fmt.Errorf("fwd: could not activate merged layer: %v",
				err)
		}
	}

	for i, l := range a.layers {
		if pred, err = l.fwd(pred); err != nil {
			return fmt.Errorf("fwd: could not compute forward pass of "+
				"layer %v: %v", i, err)
		}
	}

	a.prediction = pred

	G.Read(a.prediction, &a.predVal)

	return nil
}

// Output returns the output of the actionValueMLP.
func (a *actionValueMLP) Output() G.Value {
	return a.predVal
}

// Prediction returns the node of the computational graph that stores
// the output of the actionValueMLP
func (a *actionValueMLP) Prediction() *G.Node {
	return a.prediction
}
