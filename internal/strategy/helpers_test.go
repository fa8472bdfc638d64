package strategy

import (
	"math/rand/v2"
	"time"

	"Crypton/internal/model"
)

var baseTime = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// arSeries generates a deterministic AR(1) series around 100.
func arSeries(n int, phi float64) []float64 {
	values := make([]float64, n)
	values[0] = 100
	for i := 1; i < n; i++ {
		innovation := float64(i%7-3) / 3
		values[i] = phi*(values[i-1]-100) + 100 + innovation
	}
	return values
}

func hourlySamples(values []float64) []model.HistorySample {
	samples := make([]model.HistorySample, len(values))
	for i, v := range values {
		samples[i] = model.HistorySample{
			Time:  baseTime.Add(time.Duration(i) * time.Hour).Unix(),
			Close: v,
		}
	}
	return samples
}

// gaussianNoise returns n seeded N(0,1) draws.
func gaussianNoise(n int, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64()
	}
	return out
}

// rescale maps x to level + c*x.
func rescale(x []float64, level, c float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = level + c*v
	}
	return out
}
