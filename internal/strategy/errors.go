package strategy

import "errors"

var (
	// ErrDataInsufficient means the history is empty or too short for the model order.
	ErrDataInsufficient = errors.New("insufficient price history")
	// ErrNoViableOrder means every candidate order in the search failed to fit.
	ErrNoViableOrder = errors.New("no viable ARIMA order")
	// ErrForecastStep means a fitted model could not produce a forecast step.
	ErrForecastStep = errors.New("forecast step failed")
	// ErrFitFailed is a numerical fit failure for a single model order.
	ErrFitFailed = errors.New("model fit failed")
)
