package calculator

import (
	"errors"

	"Crypton/internal/model"
)

// Closes extracts the closing prices from history samples.
func Closes(samples []model.HistorySample) []float64 {
	closes := make([]float64, len(samples))
	for i, s := range samples {
		closes[i] = s.Close
	}
	return closes
}

// Diff applies first differencing d times.
func Diff(values []float64, d int) ([]float64, error) {
	if d < 0 {
		return nil, errors.New("differencing order must be non-negative")
	}
	out := make([]float64, len(values))
	copy(out, values)
	for i := 0; i < d; i++ {
		if len(out) < 2 {
			return nil, errors.New("not enough data for differencing")
		}
		next := make([]float64, len(out)-1)
		for j := 1; j < len(out); j++ {
			next[j-1] = out[j] - out[j-1]
		}
		out = next
	}
	return out, nil
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance returns the population variance around the mean.
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	ss := 0.0
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	return ss / float64(len(values))
}
