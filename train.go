package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/goddpg/agent/nonlinear/continuous/ddpg"
	"github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/environment/classiccontrol/mountaincar"
	"github.com/samuelfneumann/goddpg/environment/wrappers"
	"github.com/samuelfneumann/goddpg/experiment"
	"github.com/samuelfneumann/goddpg/experiment/trackers"
)

var (
	seed         int64
	epochs       int
	episodeSteps int
	discount     float64

	solvedWindow    int
	solvedThreshold float64

	returnsFile string
	dbFile      string
	runLabel    string
)

// getRootCommand returns the command line argument parser with all
// subcommands attached
func getRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:   "goddpg",
		Short: "Train and inspect DDPG agents on continuous-action Mountain Car",
	}
	rootCommand.PersistentFlags().Int64Var(&seed, "seed", 14,
		"Seed for all stochastic components")
	rootCommand.PersistentFlags().IntVar(&epochs, "epochs", 300,
		"Maximum number of train-then-evaluate epochs")
	rootCommand.PersistentFlags().IntVar(&episodeSteps, "episode-steps",
		1000, "Step limit of each episode")
	rootCommand.PersistentFlags().Float64Var(&discount, "discount", 0.99,
		"Discount factor")
	rootCommand.PersistentFlags().IntVar(&solvedWindow, "solved-window", 10,
		"Number of evaluation returns averaged for solved detection")
	rootCommand.PersistentFlags().Float64Var(&solvedThreshold,
		"solved-threshold", 90.0,
		"Mean evaluation return above which the task counts as solved")

	rootCommand.AddCommand(trainCommand())
	rootCommand.AddCommand(surfaceCommand())
	return rootCommand
}

// newEnvironment returns a normalized continuous-action Mountain Car
// environment with the gym-style solve task: actions cost 0.1 times
// their squared magnitude and reaching the goal earns +100
func newEnvironment() (environment.Environment, error) {
	bounds := []r1.Interval{
		{Min: -0.6, Max: -0.4}, // Position
		{Min: 0.0, Max: 0.0},   // Velocity
	}
	starter := environment.NewUniformStarter(bounds, uint64(seed))
	task := mountaincar.NewSolveGoal(starter, episodeSteps,
		mountaincar.GoalPosition)

	env, _, err := mountaincar.NewContinuous(task, discount)
	if err != nil {
		return nil, fmt.Errorf("could not create environment: %v", err)
	}

	normalized, _, err := wrappers.NewNormalize(env)
	if err != nil {
		return nil, fmt.Errorf("could not normalize environment: %v", err)
	}
	return normalized, nil
}

// newAgent returns a DDPG agent with the default hyperparameters on
// the argument environment
func newAgent(env environment.Environment) (*ddpg.DDPG, error) {
	config, err := ddpg.Default()
	if err != nil {
		return nil, fmt.Errorf("could not create configuration: %v", err)
	}

	agent, err := ddpg.New(env, config, seed)
	if err != nil {
		return nil, fmt.Errorf("could not create agent: %v", err)
	}
	return agent, nil
}

// runTrainEval trains a fresh agent with the flag settings, returning
// the agent and the finished experiment. The caller owns the agent and
// must close it.
func runTrainEval(t ...trackers.Tracker) (*ddpg.DDPG,
	*experiment.TrainEval, error) {
	env, err := newEnvironment()
	if err != nil {
		return nil, nil, err
	}

	agent, err := newAgent(env)
	if err != nil {
		return nil, nil, err
	}

	detector, err := experiment.NewSolvedDetector(solvedWindow,
		solvedThreshold)
	if err != nil {
		agent.Close()
		return nil, nil, err
	}

	exp := experiment.NewTrainEval(env, agent, epochs, detector, t...)
	if err := exp.Run(); err != nil {
		agent.Close()
		return nil, nil, fmt.Errorf("could not run experiment: %v", err)
	}

	return agent, exp, nil
}

func trainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a DDPG agent until the task is solved",
		RunE: func(cmd *cobra.Command, args []string) error {
			trackerList := []trackers.Tracker{trackers.NewReturn(returnsFile)}

			if dbFile != "" {
				sqlite, err := trackers.NewSQLite(context.Background(),
					dbFile, runLabel)
				if err != nil {
					return err
				}
				defer sqlite.Close()
				trackerList = append(trackerList, sqlite)
			}

			agent, exp, err := runTrainEval(trackerList...)
			if err != nil {
				return err
			}
			defer agent.Close()

			if err := exp.Save(); err != nil {
				return fmt.Errorf("could not save tracked data: %v", err)
			}

			if !exp.Solved() {
				fmt.Printf("task unsolved after %v epochs\n",
					len(exp.EvalReturns()))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&returnsFile, "returns", "returns.bin",
		"File to save training episode returns to")
	cmd.Flags().StringVar(&dbFile, "db", "",
		"SQLite database to additionally record training returns in")
	cmd.Flags().StringVar(&runLabel, "run", "ddpg",
		"Run label for returns recorded in the database")
	return cmd
}
