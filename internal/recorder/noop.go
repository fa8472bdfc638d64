package recorder

import "Crypton/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordForecast(_ *model.Forecast) error           { return nil }
func (n *NoopRecorder) RecentForecasts(_ int) ([]ForecastSummary, error) { return nil, nil }
func (n *NoopRecorder) Close() error                                     { return nil }
