// Package wrappers provides environment wrappers
package wrappers

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/timestep"
	"github.com/samuelfneumann/goddpg/utils/floatutils"
)

// Normalize wraps an environment and normalizes its observations so
// that each feature lies in [-1, 1]. Feature bounds are taken from the
// wrapped environment's observation specification, so the wrapped
// environment must have finite observation bounds.
//
// Function approximators are sensitive to the scale of their inputs.
// Mountain Car, for example, has a position in [-1.2, 0.6] and a
// velocity in [-0.07, 0.07]; normalizing puts both features on the
// same scale before they reach a neural network.
//
// Normalize itself implements the environment.Environment interface,
// and is therefore itself an Environment.
type Normalize struct {
	environment.Environment
	lowerBound []float64
	upperBound []float64
	lastStep   timestep.TimeStep
}

// NewNormalize creates and returns a new Normalize environment wrapper
// along with the first timestep of the wrapped environment, with its
// observation normalized.
func NewNormalize(e environment.Environment) (*Normalize,
	timestep.TimeStep, error) {
	spec := e.ObservationSpec()

	features := spec.Shape.Len()
	lowerBound := make([]float64, features)
	upperBound := make([]float64, features)
	for i := 0; i < features; i++ {
		lowerBound[i] = spec.LowerBound.AtVec(i)
		upperBound[i] = spec.UpperBound.AtVec(i)

		if math.IsInf(lowerBound[i], 0) || math.IsInf(upperBound[i], 0) {
			return nil, timestep.TimeStep{}, fmt.Errorf("newNormalize: "+
				"cannot normalize feature %v with unbounded range "+
				"[%v, %v]", i, lowerBound[i], upperBound[i])
		}
		if lowerBound[i] >= upperBound[i] {
			return nil, timestep.TimeStep{}, fmt.Errorf("newNormalize: "+
				"degenerate bounds [%v, %v] for feature %v", lowerBound[i],
				upperBound[i], i)
		}
	}

	normalize := &Normalize{e, lowerBound, upperBound, timestep.TimeStep{}}

	firstStep := normalize.Reset()
	return normalize, firstStep, nil
}

// normalize maps an observation of the wrapped environment into
// [-1, 1] feature-wise
func (n *Normalize) normalize(obs mat.Vector) *mat.VecDense {
	normalized := mat.NewVecDense(obs.Len(), nil)
	for i := 0; i < obs.Len(); i++ {
		normalized.SetVec(i, floatutils.Normalize(obs.AtVec(i),
			n.lowerBound[i], n.upperBound[i]))
	}
	return normalized
}

// Reset resets the wrapped environment and returns a starting timestep
// with a normalized observation
func (n *Normalize) Reset() timestep.TimeStep {
	step := n.Environment.Reset()
	step.Observation = n.normalize(step.Observation)

	n.lastStep = step
	return step
}

// Step takes one environmental step given action a and returns the
// next timestep, with its observation normalized, and a bool
// indicating whether or not the episode has ended
func (n *Normalize) Step(a *mat.VecDense) (timestep.TimeStep, bool, error) {
	step, last, err := n.Environment.Step(a)
	if err != nil {
		return step, last, err
	}
	step.Observation = n.normalize(step.Observation)

	n.lastStep = step
	return step, last, nil
}

// CurrentTimeStep returns the last timestep of the environment, with
// its observation normalized
func (n *Normalize) CurrentTimeStep() timestep.TimeStep {
	return n.lastStep
}

// ObservationSpec returns the observation specification of the
// wrapped environment. All features lie in [-1, 1].
func (n *Normalize) ObservationSpec() environment.Spec {
	spec := n.Environment.ObservationSpec()

	features := spec.Shape.Len()
	lowerBound := mat.NewVecDense(features, nil)
	upperBound := mat.NewVecDense(features, nil)
	for i := 0; i < features; i++ {
		lowerBound.SetVec(i, -1.0)
		upperBound.SetVec(i, 1.0)
	}

	return environment.NewSpec(spec.Shape, environment.Observation,
		lowerBound, upperBound, spec.Cardinality)
}
