package strategy

import (
	"context"
	"fmt"
	"math"
	"time"

	"Crypton/internal/model"
)

// LinearTrend regresses price on the millisecond epoch of each sample.
type LinearTrend struct {
	Slope  float64 // price per millisecond
	xMean  float64
	yMean  float64
	fitted bool
}

// Fit computes the least-squares line. The feature is centred before
// solving so that epoch-scale timestamps do not lose precision.
func (l *LinearTrend) Fit(_ context.Context, samples []model.HistorySample) error {
	n := len(samples)
	if n == 0 {
		return fmt.Errorf("linear regression: %w", ErrDataInsufficient)
	}

	var sx, sy float64
	for _, s := range samples {
		sx += float64(s.Time * 1000)
		sy += s.Close
	}
	l.xMean = sx / float64(n)
	l.yMean = sy / float64(n)

	var sxy, sxx float64
	for _, s := range samples {
		dx := float64(s.Time*1000) - l.xMean
		sxy += dx * (s.Close - l.yMean)
		sxx += dx * dx
	}
	l.Slope = 0
	if sxx > 0 {
		l.Slope = sxy / sxx
	}
	l.fitted = true
	return nil
}

// Intercept returns the line's value at epoch zero.
func (l *LinearTrend) Intercept() float64 {
	return l.yMean - l.Slope*l.xMean
}

// Next evaluates the line at the given time. It has no side effects.
func (l *LinearTrend) Next(at time.Time) (float64, error) {
	if !l.fitted {
		return 0, fmt.Errorf("%w: model is not fitted", ErrForecastStep)
	}
	price := l.yMean + l.Slope*(float64(at.UnixMilli())-l.xMean)
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("%w: non-finite prediction at %s", ErrForecastStep, at.Format(time.RFC3339))
	}
	return price, nil
}
