package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/samuelfneumann/goddpg/analysis"
	"github.com/samuelfneumann/goddpg/environment/classiccontrol/mountaincar"
)

var (
	outDir        string
	resolution    int
	actionSamples int
)

func surfaceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "surface",
		Short: "Train a DDPG agent and render its critic and policy as heat maps",
		Long: "Trains a DDPG agent with the flag settings, then sweeps the " +
			"learned critic and policy over the position-velocity state " +
			"grid and renders the maximum action value, the maximizing " +
			"action, and the policy's action as heat maps.",
		RunE: func(cmd *cobra.Command, args []string) error {
			agent, _, err := runTrainEval()
			if err != nil {
				return err
			}
			defer agent.Close()

			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("could not create output directory: %v",
					err)
			}

			// The agent acts on normalized observations, so sweep over
			// the normalized state space
			stateLow := []float64{-1.0, -1.0}
			stateHigh := []float64{1.0, 1.0}

			qSurfaces, err := analysis.SweepQ(agent, stateLow, stateHigh,
				resolution, actionSamples, mountaincar.MinContinuousAction,
				mountaincar.MaxContinuousAction)
			if err != nil {
				return fmt.Errorf("could not sweep critic: %v", err)
			}

			policySurface, err := analysis.SweepPolicy(agent, stateLow,
				stateHigh, resolution)
			if err != nil {
				return fmt.Errorf("could not sweep policy: %v", err)
			}

			plots := []struct {
				surface *analysis.Surface
				title   string
				file    string
			}{
				{qSurfaces.MaxQ, "Maximum action value", "max_q.png"},
				{qSurfaces.ArgmaxAction, "Maximizing action",
					"argmax_action.png"},
				{policySurface, "Policy action", "policy_action.png"},
			}
			for _, p := range plots {
				path := filepath.Join(outDir, p.file)
				err := analysis.SaveHeatMap(p.surface, p.title, "position",
					"velocity", path)
				if err != nil {
					return err
				}
				fmt.Printf("saved %v\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "surfaces",
		"Directory to save the rendered heat maps to")
	cmd.Flags().IntVar(&resolution, "resolution", 64,
		"Number of grid points per state dimension")
	cmd.Flags().IntVar(&actionSamples, "action-samples", 21,
		"Number of evenly spaced actions evaluated per state")
	return cmd
}
