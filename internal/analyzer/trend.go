package analyzer

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TrendSeries is an ordered, labelled sequence of summed weights.
type TrendSeries struct {
	Labels           []string  `json:"labels"`
	Values           []float64 `json:"values"`
	ChangePercentage float64   `json:"changePercentage"`
	Increasing       bool      `json:"increasing"`
}

// RegressionModel is an ordinary least squares fit of y against x.
type RegressionModel struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
	RSquared  float64 `json:"rSquared"`
}

// At evaluates the model at x.
func (m RegressionModel) At(x float64) float64 {
	return m.Intercept + m.Slope*x
}

// TrendPercentage returns the percent change from the first value to the
// last. Series shorter than two points, or starting at zero, report 0.
func TrendPercentage(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	first, last := values[0], values[len(values)-1]
	if first == 0 {
		return 0
	}
	return (last - first) / first * 100
}

// LinearRegression fits ys against xs. With fewer than two points or no
// spread in x the model is flat at the mean of ys with R² 0.
func LinearRegression(xs, ys []float64) RegressionModel {
	if len(xs) != len(ys) || len(xs) < 2 {
		if len(ys) == 0 || len(xs) != len(ys) {
			return RegressionModel{}
		}
		return RegressionModel{Intercept: stat.Mean(ys, nil)}
	}

	meanX := stat.Mean(xs, nil)
	meanY := stat.Mean(ys, nil)

	var sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx < 1e-9 {
		return RegressionModel{Intercept: meanY}
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	m := RegressionModel{Intercept: intercept, Slope: slope}
	if syy >= 1e-9 {
		m.RSquared = stat.RSquared(xs, ys, nil, intercept, slope)
		if math.IsNaN(m.RSquared) {
			m.RSquared = 0
		}
	}
	return m
}

// FitSeries regresses values against their indexes 0..n-1.
func FitSeries(values []float64) RegressionModel {
	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	return LinearRegression(xs, values)
}

// MovingAverage smooths values with a centred window. The input is returned
// unchanged when the window is not positive or longer than the series.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 || window <= 0 || window > len(values) {
		copy(out, values)
		return out
	}

	half := window / 2
	for i := range values {
		var sum float64
		var n int
		for j := i - half; j <= i+half; j++ {
			if j >= 0 && j < len(values) {
				sum += values[j]
				n++
			}
		}
		out[i] = sum / float64(n)
	}
	return out
}

// newSeries builds a series from labels and values and computes its change.
func newSeries(labels []string, values []float64) TrendSeries {
	change := TrendPercentage(values)
	return TrendSeries{
		Labels:           labels,
		Values:           values,
		ChangePercentage: change,
		Increasing:       change > 0,
	}
}

// lastN keeps the most recent n entries of parallel label/value slices.
func lastN(labels []string, values []float64, n int) ([]string, []float64) {
	if n >= 0 && len(labels) > n {
		labels = labels[len(labels)-n:]
		values = values[len(values)-n:]
	}
	return labels, values
}
