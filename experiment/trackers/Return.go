package trackers

import (
	"encoding/gob"
	"fmt"
	"os"

	ts "github.com/samuelfneumann/goddpg/timestep"
)

// Return tracks and saves the episodic return in an experiment. When
// an environment returns a TimeStep, this Tracker will extract the
// reward and accumulate the return for each episode in the experiment.
//
// Note: If an environment is wrapped by some environment wrapper which
// modifies rewards, then this Tracker tracks the modified rewards
// returned by the wrapped environment.
//
// Note: An episode must finish for this Tracker to save its data. If
// the last episode in an experiment does not finish, that episode's
// return will not be saved.
type Return struct {
	episodeReturns
	filename string
}

// NewReturn creates and returns a new *Return Tracker which saves its
// data to the argument file as gob-encoded []float64
func NewReturn(filename string) *Return {
	return &Return{
		episodeReturns: newEpisodeReturns(),
		filename:       filename,
	}
}

// Track tracks the reward seen on a timestep. By calling this method
// on every timestep, the Tracker stores the cumulative reward of each
// episode as that episode's return. New episodes are detected
// automatically from the timestep numbering.
func (r *Return) Track(step ts.TimeStep) {
	r.track(step)
}

// Returns returns the episodic returns of all completed episodes
// tracked so far
func (r *Return) Returns() []float64 {
	returns := make([]float64, len(r.returns))
	copy(returns, r.returns)
	return returns
}

// Save saves the data tracked by the Return Tracker to disk
func (r *Return) Save() error {
	file, err := os.Create(r.filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err := en.Encode(r.returns); err != nil {
		return fmt.Errorf("save: could not encode return data: %v", err)
	}
	return nil
}
