package forecast

import (
	"errors"
	"fmt"
	"time"

	"Crypton/internal/model"
	"Crypton/internal/strategy"
)

// Schedule queries f once per horizon step, starting one unit after now.
// Any failed step fails the whole sequence.
func Schedule(f strategy.Forecaster, h model.Horizon, now time.Time) ([]model.PredictionEntry, error) {
	entries := make([]model.PredictionEntry, 0, h.Steps)
	for i := 0; i < h.Steps; i++ {
		next := now.Add(time.Duration(i+1) * h.Unit)
		price, err := f.Next(next)
		if err != nil {
			return nil, fmt.Errorf("step %d/%d: %w", i+1, h.Steps, wrapStep(err))
		}

		when := next
		if h.DateOnly {
			y, m, d := next.Date()
			when = time.Date(y, m, d, 0, 0, 0, 0, next.Location())
		}
		entries = append(entries, model.PredictionEntry{When: when, Price: price, DateOnly: h.DateOnly})
	}
	return entries, nil
}

// wrapStep makes sure a step error is reported as ErrForecastStep.
func wrapStep(err error) error {
	if errors.Is(err, strategy.ErrForecastStep) {
		return err
	}
	return fmt.Errorf("%w: %w", strategy.ErrForecastStep, err)
}
