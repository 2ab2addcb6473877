package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Layer implements a single layer of a neural network
type Layer interface {
	fwd(*G.Node) (*G.Node, error)
	CloneTo(*G.ExprGraph) Layer
	Weights() *G.Node
	Bias() *G.Node
	Activation() *Activation
}

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	if f.Weights() != nil {
		x = G.Must(G.Mul(x, f.Weights()))
	}
	if f.Bias() != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		x = G.Must(G.BroadcastAdd(x, f.Bias(), nil, []byte{0}))
	}
	if f.Activation() == nil || f.Activation().IsNil() {
		return x, nil
	}
	return f.Activation().fwd(x)
}

// CloneTo clones an fcLayer to a new computational graph
func (f *fcLayer) CloneTo(g *G.ExprGraph) Layer {
	var newWeights, newBias *G.Node

	if f.Weights() != nil {
		newWeights = f.Weights().CloneTo(g)
	}
	if f.Bias() != nil {
		newBias = f.Bias().CloneTo(g)
	}

	return &fcLayer{
		weights: newWeights,
		bias:    newBias,
		act:     f.act,
	}
}

func (f *fcLayer) Activation() *Activation {
	return f.act
}

func (f *fcLayer) Bias() *G.Node {
	return f.bias
}

func (f *fcLayer) Weights() *G.Node {
	return f.weights
}

// newFCLayer creates a single fully connected layer on graph g with
// the argument dimensions, weight initializer, and activation. The
// prefix and suffix arguments disambiguate node names when a graph
// holds more than one network.
func newFCLayer(g *G.ExprGraph, features, units int, bias bool,
	act *Activation, init G.InitWFn, index int, prefix,
	suffix string) Layer {
	weightName := fmt.Sprintf("%vL%vW%v", prefix, index, suffix)
	weights := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(features, units),
		G.WithName(weightName),
		G.WithInit(init),
	)

	var biasNode *G.Node
	if bias {
		biasName := fmt.Sprintf("%vL%vB%v", prefix, index, suffix)
		biasNode = G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(1, units),
			G.WithName(biasName),
			G.WithInit(init),
		)
	}

	return &fcLayer{
		weights: weights,
		bias:    biasNode,
		act:     act,
	}
}

// addfcLayers creates a stack of fully connected layers on graph g.
// For index i, hiddenSizes[i] is the number of units in layer i,
// biases[i] determines whether layer i has a bias unit, and
// activations[i] is the activation function of layer i. The features
// argument is the number of input features to the first layer.
func addfcLayers(g *G.ExprGraph, hiddenSizes []int, biases []bool,
	activations []*Activation, init G.InitWFn, features int, prefix,
	suffix string) []Layer {
	layers := make([]Layer, 0, len(hiddenSizes))

	for i := range hiddenSizes {
		layers = append(layers, newFCLayer(g, features, hiddenSizes[i],
			biases[i], activations[i], init, i, prefix, suffix))
		features = hiddenSizes[i]
	}

	return layers
}
