// Package network implements Gorgonia-backed neural networks
package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// NeuralNet implements a neural network on a Gorgonia computational
// graph. Networks are built once, at construction time, and thereafter
// the same graph is evaluated by an external virtual machine: callers
// set the input values with SetInput(), run their virtual machine on
// Graph(), and read the results from Output().
type NeuralNet interface {
	// Graph returns the computational graph the network is built on
	Graph() *G.ExprGraph

	// Clone clones the network onto a fresh computational graph,
	// copying current weight values
	Clone() (NeuralNet, error)

	// CloneWithBatch clones the network onto a fresh computational
	// graph with a new input batch size
	CloneWithBatch(int) (NeuralNet, error)

	// BatchSize returns the number of rows of the network's input
	BatchSize() int

	// Features returns the number of features in a single input vector
	Features() int

	// Outputs returns the number of outputs per input vector
	Outputs() int

	// SetInput sets the value of the input node before running the
	// forward pass
	SetInput([]float64) error

	// Learnables returns the learnable nodes of the network
	Learnables() G.Nodes

	// Model returns the learnable nodes with their gradients
	Model() []G.ValueGrad

	// Output returns the value of the prediction node after the last
	// run of a virtual machine on the network's graph
	Output() G.Value

	// Prediction returns the node of the computational graph that
	// stores the network's output
	Prediction() *G.Node
}

// Set sets the weights of dest to be equal to the weights of source.
// The networks must share an architecture so that their learnables
// align.
func Set(dest, source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := dest.Learnables()
	if len(sourceNodes) != len(nodes) {
		return fmt.Errorf("set: networks do not share an architecture "+
			"\n\twant(%v learnables)\n\thave(%v learnables)", len(nodes),
			len(sourceNodes))
	}

	for i, destLearnable := range nodes {
		sourceLearnable := sourceNodes[i].Clone()
		err := G.Let(destLearnable, sourceLearnable.(*G.Node).Value())
		if err != nil {
			return err
		}
	}
	return nil
}

// Polyak sets the weights of dest to be a Polyak average between its
// existing weights and the weights of source:
//
//	dest <- tau * source + (1 - tau) * dest
//
// With tau == 1 this is equivalent to Set; with tau == 0 dest is
// unchanged.
func Polyak(dest, source NeuralNet, tau float64) error {
	sourceNodes := source.Learnables()
	nodes := dest.Learnables()
	if len(sourceNodes) != len(nodes) {
		return fmt.Errorf("polyak: networks do not share an architecture "+
			"\n\twant(%v learnables)\n\thave(%v learnables)", len(nodes),
			len(sourceNodes))
	}

	for i := range nodes {
		weights := nodes[i].Value().(*tensor.Dense)
		sourceWeights := sourceNodes[i].Value().(*tensor.Dense)

		weights, err := weights.MulScalar(1-tau, true)
		if err != nil {
			return err
		}

		sourceWeights, err = sourceWeights.MulScalar(tau, true)
		if err != nil {
			return err
		}

		var newWeights *tensor.Dense
		newWeights, err = weights.Add(sourceWeights)
		if err != nil {
			return err
		}

		if err := G.Let(nodes[i], newWeights); err != nil {
			return err
		}
	}
	return nil
}
