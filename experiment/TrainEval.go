package experiment

import (
	"fmt"

	"github.com/gosuri/uilive"

	"github.com/samuelfneumann/goddpg/agent"
	env "github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/experiment/trackers"
)

// TrainEval is an Experiment that runs an agent in epochs. Each epoch
// consists of one training episode, during which the agent explores
// and learns, followed by one evaluation episode, during which the
// agent acts greedily and no learning occurs.
//
// Evaluation returns feed a SolvedDetector, and the experiment stops
// early once the detector reports the task solved. Progress is
// reported live on the terminal.
//
// Registered Trackers see the timesteps of training episodes only, so
// that evaluation episodes do not pollute the training returns they
// record. Evaluation returns are available from EvalReturns().
type TrainEval struct {
	env.Environment
	agent.Agent

	epochs   int
	detector *SolvedDetector

	trainReturns []float64
	evalReturns  []float64

	trackers []trackers.Tracker
	writer   *uilive.Writer
}

// NewTrainEval creates and returns a new TrainEval experiment on a
// given environment with a given agent. The epochs parameter
// determines the maximum number of train-then-evaluate epochs to run,
// and detector determines when the task counts as solved. The t
// parameter is a slice of trackers.Tracker which determine what
// training data is saved.
func NewTrainEval(e env.Environment, a agent.Agent, epochs int,
	detector *SolvedDetector, t ...trackers.Tracker) *TrainEval {
	return &TrainEval{
		Environment: e,
		Agent:       a,
		epochs:      epochs,
		detector:    detector,
		trackers:    t,
		writer:      uilive.New(),
	}
}

// Register registers a trackers.Tracker with the experiment so that
// training data generated during the experiment can be tracked and
// saved
func (t *TrainEval) Register(tracker trackers.Tracker) {
	t.trackers = append(t.trackers, tracker)
}

// RunEpisode runs a single epoch of the experiment: one training
// episode followed by one evaluation episode. It returns whether the
// experiment has finished, either because the task was solved or
// because the epoch limit was reached.
func (t *TrainEval) RunEpisode() (bool, error) {
	epoch := len(t.trainReturns)

	trainReturn, trainSteps, err := t.runTrainEpisode()
	if err != nil {
		return false, fmt.Errorf("runEpisode: %v", err)
	}
	t.trainReturns = append(t.trainReturns, trainReturn)

	evalReturn, evalSteps, err := t.runEvalEpisode()
	if err != nil {
		return false, fmt.Errorf("runEpisode: %v", err)
	}
	t.evalReturns = append(t.evalReturns, evalReturn)
	t.detector.Observe(evalReturn)

	fmt.Fprintf(t.writer, "epoch %-4d  train return: %8.2f (%4d steps)"+
		"  eval return: %8.2f (%4d steps)  mean: %8.2f\n", epoch,
		trainReturn, trainSteps, evalReturn, evalSteps, t.detector.Mean())

	return t.detector.Solved() || len(t.trainReturns) >= t.epochs, nil
}

// Run runs the experiment until the task is solved or the epoch limit
// is reached
func (t *TrainEval) Run() error {
	t.writer.Start()
	defer t.writer.Stop()

	ended := false
	for !ended {
		var err error
		if ended, err = t.RunEpisode(); err != nil {
			return err
		}
	}

	if t.detector.Solved() {
		fmt.Fprintf(t.writer.Bypass(), "solved after %v epochs\n",
			t.detector.SolvedAt()+1)
	}
	return nil
}

// Save saves all the data cached by the experiment's Trackers
func (t *TrainEval) Save() error {
	return save(t.trackers)
}

// TrainReturns returns the returns of all completed training episodes
func (t *TrainEval) TrainReturns() []float64 {
	returns := make([]float64, len(t.trainReturns))
	copy(returns, t.trainReturns)
	return returns
}

// EvalReturns returns the returns of all completed evaluation episodes
func (t *TrainEval) EvalReturns() []float64 {
	returns := make([]float64, len(t.evalReturns))
	copy(returns, t.evalReturns)
	return returns
}

// Solved returns whether the task has been solved
func (t *TrainEval) Solved() bool {
	return t.detector.Solved()
}

// SolvedEpoch returns the epoch at which the task was first solved, or
// -1 if the task is unsolved
func (t *TrainEval) SolvedEpoch() int {
	return t.detector.SolvedAt()
}

// runTrainEpisode runs a single training episode, returning its return
// and length
func (t *TrainEval) runTrainEpisode() (float64, int, error) {
	t.Agent.Train()

	step := t.Environment.Reset()
	if err := t.Agent.ObserveFirst(step); err != nil {
		return 0, 0, err
	}
	track(step, t.trackers)

	episodeReturn, steps := 0.0, 0
	for !step.Last() {
		action := t.Agent.SelectAction(step)
		nextStep, _, err := t.Environment.Step(action)
		if err != nil {
			return 0, 0, fmt.Errorf("could not step environment: %v", err)
		}
		step = nextStep
		track(step, t.trackers)

		episodeReturn += step.Reward
		steps++

		if err := t.Agent.Observe(action, step); err != nil {
			return 0, 0, err
		}
		if err := t.Agent.Step(); err != nil {
			return 0, 0, err
		}
	}
	t.Agent.EndEpisode()

	return episodeReturn, steps, nil
}

// runEvalEpisode runs a single evaluation episode with the greedy
// policy and no learning, returning its return and length
func (t *TrainEval) runEvalEpisode() (float64, int, error) {
	t.Agent.Eval()
	defer t.Agent.Train()

	step := t.Environment.Reset()

	episodeReturn, steps := 0.0, 0
	for !step.Last() {
		action := t.Agent.SelectAction(step)
		nextStep, _, err := t.Environment.Step(action)
		if err != nil {
			return 0, 0, fmt.Errorf("could not step environment: %v", err)
		}
		step = nextStep

		episodeReturn += step.Reward
		steps++
	}

	return episodeReturn, steps, nil
}
