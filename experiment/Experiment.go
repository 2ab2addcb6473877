// Package experiment implements functionality for running experiments
package experiment

import (
	ts "github.com/samuelfneumann/goddpg/timestep"

	"github.com/samuelfneumann/goddpg/experiment/trackers"
)

// Experiment outlines structs that can run experiments. Experiments
// track environment TimeSteps, sending each TimeStep to registered
// Trackers which cache the data they care about. Save() then writes
// all cached data to persistent storage, usually after the experiment
// has finished.
//
// Run() runs all episodes until the experiment's ending condition is
// reached. RunEpisode() runs a single episode.
type Experiment interface {
	Run() error
	RunEpisode() (bool, error) // Returns whether the experiment finished

	// Save all tracked data
	Save() error

	// Register adds a new Tracker to the (possibly already running)
	// experiment. Useful to track data only after a specified event.
	Register(t trackers.Tracker)
}

// track sends a timestep to each tracker
func track(t ts.TimeStep, trackerList []trackers.Tracker) {
	for _, tracker := range trackerList {
		tracker.Track(t)
	}
}

// save saves the data cached by each tracker
func save(trackerList []trackers.Tracker) error {
	for _, tracker := range trackerList {
		if err := tracker.Save(); err != nil {
			return err
		}
	}
	return nil
}
