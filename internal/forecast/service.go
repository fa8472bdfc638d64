package forecast

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"Crypton/internal/collector"
	"Crypton/internal/model"
	"Crypton/internal/recorder"
)

// Exporter writes a forecast report and returns where it went.
type Exporter interface {
	Export(f *model.Forecast) (string, error)
}

// Result is a completed prediction action.
type Result struct {
	Forecast   *model.Forecast
	ReportPath string // empty when export is disabled or failed
}

// Service runs a prediction end to end: load history, forecast, record, export.
type Service struct {
	Collector *collector.Collector
	Engine    *Engine
	Recorder  recorder.Recorder
	Exporter  Exporter
}

// NewService wires the pipeline. A nil recorder disables recording and a
// nil exporter disables report files.
func NewService(col *collector.Collector, eng *Engine, rec recorder.Recorder, exp Exporter) *Service {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Service{Collector: col, Engine: eng, Recorder: rec, Exporter: exp}
}

// Run loads history for symbol and forecasts the horizon with the strategy.
// Recording and export failures are logged and do not fail the request.
func (s *Service) Run(ctx context.Context, symbol string, h model.Horizon, st model.Strategy) (*Result, error) {
	series, err := s.Collector.Collect(symbol, h)
	if err != nil {
		return nil, fmt.Errorf("load %s history: %w", symbol, err)
	}

	fc, err := s.Engine.Predict(ctx, Request{
		Symbol:   symbol,
		Horizon:  h,
		Strategy: st,
		Samples:  series.Samples,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Forecast: fc}
	if err := s.Recorder.RecordForecast(fc); err != nil {
		log.Errorf("record forecast %s: %v", fc.ID, err)
	}
	if s.Exporter != nil {
		path, err := s.Exporter.Export(fc)
		if err != nil {
			log.Errorf("export forecast %s: %v", fc.ID, err)
		} else {
			res.ReportPath = path
			log.Infof("saved report: %s", path)
		}
	}
	return res, nil
}

// Symbols lists the symbols offered for prediction.
func (s *Service) Symbols(limit int) ([]string, error) {
	return s.Collector.TopSymbols(limit)
}

// History returns recently recorded forecasts.
func (s *Service) History(limit int) ([]recorder.ForecastSummary, error) {
	return s.Recorder.RecentForecasts(limit)
}
