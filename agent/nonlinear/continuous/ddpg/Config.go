package ddpg

import (
	"fmt"

	"github.com/samuelfneumann/goddpg/agent"
	"github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/expreplay"
	"github.com/samuelfneumann/goddpg/initwfn"
	"github.com/samuelfneumann/goddpg/network"
	"github.com/samuelfneumann/goddpg/solver"
)

// Default hyperparameters for a DDPG agent on low-dimensional control
// problems
const (
	DefaultPolicyStepSize float64 = 0.0001
	DefaultCriticStepSize float64 = 0.001
	DefaultTau            float64 = 0.01
	DefaultBatchSize int = 64

	// Learning begins as soon as the replay buffer holds one full batch
	DefaultMinCapacity int = DefaultBatchSize
	DefaultMaxCapacity int = 100000
)

// Config implements a configuration for a DDPG agent
type Config struct {
	PolicyLayers      []int                 // Hidden layer sizes in policy net
	PolicyBiases      []bool                // Whether each policy layer has a bias
	PolicyActivations []*network.Activation // Activation of each policy layer
	PolicySolver      *solver.Solver        // Solver for the policy weights

	CriticLayers      []int                 // Hidden layer sizes in critic net
	CriticBiases      []bool                // Whether each critic layer has a bias
	CriticActivations []*network.Activation // Activation of each critic layer
	CriticSolver      *solver.Solver        // Solver for the critic weights

	// Initialization algorithm for weights
	InitWFn *initwfn.InitWFn

	// Ornstein-Uhlenbeck exploration noise parameters
	ExplorationTheta float64
	ExplorationSigma float64
	ExplorationMu    float64

	// Experience replay parameters
	ExpReplay expreplay.Config

	// Polyak averaging constant for the target network updates performed
	// after each learning step
	Tau float64
}

// Default returns a Config with commonly used DDPG hyperparameters:
// two hidden layers of 40 and 20 ReLU units in both networks, Adam
// solvers with step sizes of 1e-4 for the policy and 1e-3 for the
// critic, default Ornstein-Uhlenbeck exploration, and uniform replay
// sampling.
func Default() (Config, error) {
	policySolver, err := solver.NewDefaultAdam(DefaultPolicyStepSize,
		DefaultBatchSize)
	if err != nil {
		return Config{}, fmt.Errorf("default: could not create policy "+
			"solver: %v", err)
	}

	criticSolver, err := solver.NewDefaultAdam(DefaultCriticStepSize,
		DefaultBatchSize)
	if err != nil {
		return Config{}, fmt.Errorf("default: could not create critic "+
			"solver: %v", err)
	}

	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		return Config{}, fmt.Errorf("default: could not create weight "+
			"initializer: %v", err)
	}

	return Config{
		PolicyLayers:      []int{40, 20},
		PolicyBiases:      []bool{true, true},
		PolicyActivations: []*network.Activation{network.ReLU(),
			network.ReLU()},
		PolicySolver: policySolver,

		CriticLayers:      []int{40, 20},
		CriticBiases:      []bool{true, true},
		CriticActivations: []*network.Activation{network.ReLU(),
			network.ReLU()},
		CriticSolver: criticSolver,

		InitWFn: init,

		ExplorationTheta: 0.15,
		ExplorationSigma: 0.2,
		ExplorationMu:    0.0,

		ExpReplay: expreplay.Config{
			SampleMethod:      expreplay.Uniform,
			SampleSize:        DefaultBatchSize,
			MaxReplayCapacity: DefaultMaxCapacity,
			MinReplayCapacity: DefaultMinCapacity,
		},

		Tau: DefaultTau,
	}, nil
}

// BatchSize returns the batch size of the agent constructed using this
// Config
func (c Config) BatchSize() int {
	return c.ExpReplay.SampleSize
}

// Validate checks a Config to ensure it is a valid configuration of a
// DDPG agent.
func (c Config) Validate() error {
	if len(c.PolicyLayers) != len(c.PolicyBiases) {
		return fmt.Errorf("validate: invalid number of policy biases"+
			"\n\twant(%v)\n\thave(%v)", len(c.PolicyLayers),
			len(c.PolicyBiases))
	}
	if len(c.PolicyLayers) != len(c.PolicyActivations) {
		return fmt.Errorf("validate: invalid number of policy activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.PolicyLayers),
			len(c.PolicyActivations))
	}

	if len(c.CriticLayers) == 0 {
		return fmt.Errorf("validate: critic needs at least one hidden " +
			"layer to merge states and actions")
	}
	if len(c.CriticLayers) != len(c.CriticBiases) {
		return fmt.Errorf("validate: invalid number of critic biases"+
			"\n\twant(%v)\n\thave(%v)", len(c.CriticLayers),
			len(c.CriticBiases))
	}
	if len(c.CriticLayers) != len(c.CriticActivations) {
		return fmt.Errorf("validate: invalid number of critic activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.CriticLayers),
			len(c.CriticActivations))
	}

	if c.PolicySolver == nil || c.CriticSolver == nil {
		return fmt.Errorf("validate: policy and critic solvers must be " +
			"non-nil")
	}
	if c.InitWFn == nil {
		return fmt.Errorf("validate: weight initializer must be non-nil")
	}

	if c.Tau < 0.0 || c.Tau > 1.0 {
		return fmt.Errorf("validate: tau must be in [0, 1] \n\thave(%v)",
			c.Tau)
	}

	if c.ExplorationTheta < 0 || c.ExplorationSigma < 0 {
		return fmt.Errorf("validate: exploration theta (%v) and sigma "+
			"(%v) must be non-negative", c.ExplorationTheta,
			c.ExplorationSigma)
	}

	if c.BatchSize() < 1 {
		return fmt.Errorf("validate: batch size must be > 0 \n\thave(%v)",
			c.BatchSize())
	}

	return nil
}

// ValidAgent returns whether the agent is valid for the configuration.
// That is, whether Agent a can be constructed with Config c.
func (c Config) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*DDPG)
	return ok
}

// CreateAgent creates a new DDPG agent based on the configuration
func (c Config) CreateAgent(e environment.Environment,
	seed uint64) (agent.Agent, error) {
	return New(e, c, int64(seed))
}
