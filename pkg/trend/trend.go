// Package trend fits a least-squares line through an evenly spaced series.
package trend

import (
	"errors"

	"gonum.org/v1/gonum/stat"
)

var (
	// ErrTooFewPoints is returned when fewer than two values are supplied
	ErrTooFewPoints = errors.New("trend: at least two points are required")
	// ErrLengthMismatch is returned when x and y differ in length
	ErrLengthMismatch = errors.New("trend: x and y must have the same length")
)

// Line is y = Intercept + Slope*x
type Line struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// At evaluates the line at x
func (l Line) At(x float64) float64 {
	return l.Intercept + l.Slope*x
}

// Values evaluates the line at x = 0..n-1
func (l Line) Values(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = l.At(float64(i))
	}
	return out
}

// FitXY fits a line through the paired samples
func FitXY(xs, ys []float64) (Line, error) {
	if len(xs) != len(ys) {
		return Line{}, ErrLengthMismatch
	}
	if len(xs) < 2 {
		return Line{}, ErrTooFewPoints
	}

	// stat.LinearRegression returns (alpha, beta) for y = alpha + beta*x
	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	return Line{Slope: slope, Intercept: intercept}, nil
}

// Fit fits a line through ys using the sample index as x
func Fit(ys []float64) (Line, error) {
	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i)
	}
	return FitXY(xs, ys)
}
