// Package analysis implements tools for inspecting learned value
// functions and policies over low-dimensional state spaces
package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ActionValuer evaluates the learned value of taking an action in a
// state
type ActionValuer interface {
	ActionValue(state, action []float64) (float64, error)
}

// PolicyActor evaluates the learned policy's greedy action in a state
type PolicyActor interface {
	PolicyAction(state []float64) ([]float64, error)
}

// Surface holds the values of a function evaluated over a regular
// two-dimensional state grid. Surface implements plotter.GridXYZ so
// that it can be rendered directly as a heat map.
type Surface struct {
	xs []float64
	ys []float64
	zs [][]float64 // Indexed as zs[row][column]
}

var _ plotter.GridXYZ = &Surface{}

// newSurface returns a Surface over a resolution x resolution grid
// spanning [xLow, xHigh] x [yLow, yHigh]
func newSurface(xLow, xHigh, yLow, yHigh float64, resolution int) *Surface {
	xs := linspace(xLow, xHigh, resolution)
	ys := linspace(yLow, yHigh, resolution)

	zs := make([][]float64, resolution)
	for i := range zs {
		zs[i] = make([]float64, resolution)
	}

	return &Surface{xs: xs, ys: ys, zs: zs}
}

// Dims returns the number of columns and rows of the grid
func (s *Surface) Dims() (int, int) {
	return len(s.xs), len(s.ys)
}

// X returns the state value of column c
func (s *Surface) X(c int) float64 {
	return s.xs[c]
}

// Y returns the state value of row r
func (s *Surface) Y(r int) float64 {
	return s.ys[r]
}

// Z returns the function value at column c and row r
func (s *Surface) Z(c, r int) float64 {
	return s.zs[r][c]
}

// Min returns the minimum function value on the grid
func (s *Surface) Min() float64 {
	min := s.zs[0][0]
	for _, row := range s.zs {
		for _, z := range row {
			if z < min {
				min = z
			}
		}
	}
	return min
}

// Max returns the maximum function value on the grid
func (s *Surface) Max() float64 {
	max := s.zs[0][0]
	for _, row := range s.zs {
		for _, z := range row {
			if z > max {
				max = z
			}
		}
	}
	return max
}

// QSurface holds the result of sweeping a learned state-action value
// function over a two-dimensional state grid: the maximum value over
// sampled actions at each state, and the action attaining it
type QSurface struct {
	MaxQ         *Surface
	ArgmaxAction *Surface
}

// SweepQ evaluates an ActionValuer over a resolution x resolution grid
// of two-dimensional states spanning [stateLow, stateHigh]
// per dimension. At each state, actionSamples actions evenly spaced
// over [actionLow, actionHigh] are evaluated; the maximum value and
// the maximizing action are recorded.
//
// States are evaluated exactly as given, so callers must pass bounds
// in the same space the ActionValuer was trained on, normalized or
// otherwise.
func SweepQ(a ActionValuer, stateLow, stateHigh []float64, resolution,
	actionSamples int, actionLow, actionHigh float64) (*QSurface, error) {
	if len(stateLow) != 2 || len(stateHigh) != 2 {
		return nil, fmt.Errorf("sweepQ: surfaces require 2-dimensional " +
			"states")
	}
	if resolution < 2 || actionSamples < 2 {
		return nil, fmt.Errorf("sweepQ: resolution (%v) and action "+
			"samples (%v) must be >= 2", resolution, actionSamples)
	}

	maxQ := newSurface(stateLow[0], stateHigh[0], stateLow[1], stateHigh[1],
		resolution)
	argmax := newSurface(stateLow[0], stateHigh[0], stateLow[1],
		stateHigh[1], resolution)
	actions := linspace(actionLow, actionHigh, actionSamples)

	for r, y := range maxQ.ys {
		for c, x := range maxQ.xs {
			state := []float64{x, y}

			bestValue, bestAction := 0.0, 0.0
			for i, action := range actions {
				value, err := a.ActionValue(state, []float64{action})
				if err != nil {
					return nil, fmt.Errorf("sweepQ: could not evaluate "+
						"state (%v, %v): %v", x, y, err)
				}
				if i == 0 || value > bestValue {
					bestValue, bestAction = value, action
				}
			}

			maxQ.zs[r][c] = bestValue
			argmax.zs[r][c] = bestAction
		}
	}

	return &QSurface{MaxQ: maxQ, ArgmaxAction: argmax}, nil
}

// SweepPolicy evaluates a PolicyActor's greedy action over a
// resolution x resolution grid of two-dimensional states spanning
// [stateLow, stateHigh] per dimension. Only the first action dimension
// is recorded.
func SweepPolicy(p PolicyActor, stateLow, stateHigh []float64,
	resolution int) (*Surface, error) {
	if len(stateLow) != 2 || len(stateHigh) != 2 {
		return nil, fmt.Errorf("sweepPolicy: surfaces require " +
			"2-dimensional states")
	}
	if resolution < 2 {
		return nil, fmt.Errorf("sweepPolicy: resolution (%v) must be >= 2",
			resolution)
	}

	surface := newSurface(stateLow[0], stateHigh[0], stateLow[1],
		stateHigh[1], resolution)

	for r, y := range surface.ys {
		for c, x := range surface.xs {
			action, err := p.PolicyAction([]float64{x, y})
			if err != nil {
				return nil, fmt.Errorf("sweepPolicy: could not evaluate "+
					"state (%v, %v): %v", x, y, err)
			}
			surface.zs[r][c] = action[0]
		}
	}

	return surface, nil
}

// SaveHeatMap renders a Surface as a heat map and saves it to the
// argument path. The file extension determines the image format.
func SaveHeatMap(s *Surface, title, xLabel, yLabel, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	heatMap := plotter.NewHeatMap(s, palette.Heat(16, 1.0))
	p.Add(heatMap)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("saveHeatMap: could not save plot: %v", err)
	}
	return nil
}

// linspace returns n evenly spaced values covering [low, high]
// inclusive
func linspace(low, high float64, n int) []float64 {
	return floats.Span(make([]float64, n), low, high)
}
