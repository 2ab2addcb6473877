// Package noise implements stochastic processes for action exploration
package noise

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Default Ornstein-Uhlenbeck hyperparameters, commonly used for
// exploration in continuous-action policy gradient methods
const (
	DefaultTheta float64 = 0.15
	DefaultSigma float64 = 0.2
	DefaultMu    float64 = 0.0
)

// OrnsteinUhlenbeck implements a seedable Ornstein-Uhlenbeck process.
// The process produces temporally correlated noise that reverts toward
// a long-run mean mu:
//
//	x <- x + theta * (mu - x) + sigma * N(0, 1)
//
// Successive samples are correlated, which suits exploration in
// physical control problems where momentum matters: uncorrelated
// noise cancels itself out, while correlated noise pushes in a
// consistent direction for many steps.
//
// OrnsteinUhlenbeck is not safe for concurrent use.
type OrnsteinUhlenbeck struct {
	theta float64
	sigma float64
	mu    float64

	state []float64
	norm  distuv.Normal
}

// NewOrnsteinUhlenbeck returns a new Ornstein-Uhlenbeck process over
// dims dimensions. The theta parameter controls the strength of mean
// reversion, sigma scales the Gaussian noise added at each sample, and
// mu is the long-run mean of the process. The process starts at mu in
// every dimension.
func NewOrnsteinUhlenbeck(dims int, theta, sigma, mu float64,
	seed uint64) (*OrnsteinUhlenbeck, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("newOrnsteinUhlenbeck: dims must be > 0")
	}
	if theta < 0 || sigma < 0 {
		return nil, fmt.Errorf("newOrnsteinUhlenbeck: theta (%v) and "+
			"sigma (%v) must be non-negative", theta, sigma)
	}

	source := rand.NewSource(seed)
	norm := distuv.Normal{
		Mu:    0.0,
		Sigma: 1.0,
		Src:   source,
	}

	state := make([]float64, dims)
	for i := range state {
		state[i] = mu
	}

	return &OrnsteinUhlenbeck{
		theta: theta,
		sigma: sigma,
		mu:    mu,
		state: state,
		norm:  norm,
	}, nil
}

// NewDefaultOrnsteinUhlenbeck returns a new Ornstein-Uhlenbeck process
// with the commonly used hyperparameters theta = 0.15, sigma = 0.2,
// and mu = 0
func NewDefaultOrnsteinUhlenbeck(dims int,
	seed uint64) (*OrnsteinUhlenbeck, error) {
	return NewOrnsteinUhlenbeck(dims, DefaultTheta, DefaultSigma,
		DefaultMu, seed)
}

// Sample advances the process one step and returns the new noise
// vector. The returned slice is a copy and may be modified freely.
func (o *OrnsteinUhlenbeck) Sample() []float64 {
	sample := make([]float64, len(o.state))
	for i := range o.state {
		o.state[i] += o.theta*(o.mu-o.state[i]) + o.sigma*o.norm.Rand()
		sample[i] = o.state[i]
	}
	return sample
}

// Reset returns the process to its long-run mean. Call between
// episodes so that exploration in a new episode does not carry over
// the drift of the previous one.
func (o *OrnsteinUhlenbeck) Reset() {
	for i := range o.state {
		o.state[i] = o.mu
	}
}

// Dims returns the dimensionality of the process
func (o *OrnsteinUhlenbeck) Dims() int {
	return len(o.state)
}

// String implements the fmt.Stringer interface
func (o *OrnsteinUhlenbeck) String() string {
	return fmt.Sprintf("OrnsteinUhlenbeck | Theta: %v  |  Sigma: %v  |  "+
		"Mu: %v", o.theta, o.sigma, o.mu)
}
