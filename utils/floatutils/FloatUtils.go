// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"

	"gonum.org/v1/gonum/spatial/r1"
)

// Clip clips a floating point to within a minimum and maximum value.
// If the floating point exceeds max, then the function returns the max
// If min exceeds the floating point, then the function returns the min
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// ClipInterval is a wrapper to use Clip with an r1.Interval instead of
// a separate max and min value
func ClipInterval(value float64, interval r1.Interval) float64 {
	return Clip(value, interval.Min, interval.Max)
}

// Scale maps a value in [-1, 1] onto the interval [min, max]:
//
//	scaled = min + (value + 1) * (max - min) / 2
//
// The endpoints map onto the endpoints exactly, so a tanh output stays
// within [min, max] after scaling.
func Scale(value, min, max float64) float64 {
	return min + (value+1.0)*(max-min)/2.0
}

// Normalize maps a value in [min, max] onto [-1, 1]. It is the
// inverse of Scale.
func Normalize(value, min, max float64) float64 {
	return ((value-min)/(max-min))*2.0 - 1.0
}
