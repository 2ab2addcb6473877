// Package trackers implements Trackers, which track and save data
// generated during an experiment
package trackers

import (
	"encoding/gob"
	"fmt"
	"os"

	ts "github.com/samuelfneumann/goddpg/timestep"
)

// Tracker keeps track of experiment data and saves the data after the
// experiment has finished
type Tracker interface {
	Track(t ts.TimeStep)
	Save() error
}

// LoadData loads and returns the data saved by a gob-encoding Tracker
func LoadData(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadData: could not open data file: %v", err)
	}
	defer file.Close()

	dec := gob.NewDecoder(file)
	var data []float64
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("loadData: could not decode data: %v", err)
	}

	return data, nil
}

// episodeReturns accumulates per-timestep rewards into episodic
// returns. It is the shared bookkeeping of the concrete Trackers in
// this package.
type episodeReturns struct {
	lastTimeStep  int
	currentReturn float64
	returns       []float64
}

func newEpisodeReturns() episodeReturns {
	return episodeReturns{lastTimeStep: -1}
}

// track accumulates the reward of a timestep, caching the episodic
// return when the timestep ends its episode. Panics if called on
// non-sequential timesteps.
func (e *episodeReturns) track(step ts.TimeStep) {
	if e.lastTimeStep+1 != step.Number {
		panic(fmt.Sprintf("track: last two timesteps tracked are not "+
			"sequential: timestep %v --> timestep %v were tracked",
			e.lastTimeStep, step.Number))
	}

	e.currentReturn += step.Reward
	if !step.Last() {
		e.lastTimeStep = step.Number
		return
	}

	// Episode has ended; save the return and begin tracking the return
	// of a new episode
	e.returns = append(e.returns, e.currentReturn)
	e.currentReturn = 0.0
	e.lastTimeStep = -1
}
