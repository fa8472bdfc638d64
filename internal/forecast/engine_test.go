package forecast

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Crypton/internal/model"
	"Crypton/internal/strategy"
)

func newTestEngine() *Engine {
	e := NewEngine(strategy.DefaultSearchConfig())
	e.Now = func() time.Time { return now }
	return e
}

// samplesEndingAt returns hourly samples whose last one is an hour before end.
func samplesEndingAt(end time.Time, values []float64) []model.HistorySample {
	samples := make([]model.HistorySample, len(values))
	for i, v := range values {
		samples[i] = model.HistorySample{
			Time:  end.Add(-time.Duration(len(values)-i) * time.Hour).Unix(),
			Close: v,
		}
	}
	return samples
}

func TestPredict_LinearHourlyContinuesTrend(t *testing.T) {
	values := make([]float64, 24)
	for i := range values {
		values[i] = float64(100 + i)
	}

	fc, err := newTestEngine().Predict(context.Background(), Request{
		Symbol:   "BTC",
		Horizon:  model.HorizonHourly,
		Strategy: model.StrategyLinear,
		Samples:  samplesEndingAt(now, values),
	})
	require.NoError(t, err)

	require.Len(t, fc.Entries, 24)
	assert.Equal(t, "BTC", fc.Symbol)
	assert.Equal(t, model.StrategyLinear, fc.Strategy)
	assert.Equal(t, model.HorizonHourly, fc.Horizon)
	assert.Nil(t, fc.Order)
	assert.NotEmpty(t, fc.ID)
	assert.Equal(t, 24, fc.Samples)

	assert.InDelta(t, 125.0, fc.Entries[0].Price, 1e-6)
	for i := 1; i < len(fc.Entries); i++ {
		assert.Greater(t, fc.Entries[i].Price, fc.Entries[i-1].Price)
		assert.InDelta(t, 1.0, fc.Entries[i].Price-fc.Entries[i-1].Price, 1e-6)
	}
}

func TestPredict_ARIMADaily(t *testing.T) {
	values := make([]float64, 169)
	values[0] = 100
	for i := 1; i < len(values); i++ {
		values[i] = 0.6*(values[i-1]-100) + 100 + float64(i%5-2)/2
	}

	fc, err := newTestEngine().Predict(context.Background(), Request{
		Symbol:   "ETH",
		Horizon:  model.HorizonDaily,
		Strategy: model.StrategyARIMA,
		Samples:  samplesEndingAt(now, values),
	})
	require.NoError(t, err)
	require.Len(t, fc.Entries, 7)
	require.NotNil(t, fc.Order)
	assert.LessOrEqual(t, fc.Order.P, 5)
	assert.LessOrEqual(t, fc.Order.D, 1)
	assert.LessOrEqual(t, fc.Order.Q, 1)
	for i, e := range fc.Entries {
		assert.Equal(t, now.Add(time.Duration(i+1)*24*time.Hour), e.When)
	}
}

func TestPredict_ARIMAThreeSamples(t *testing.T) {
	fc, err := newTestEngine().Predict(context.Background(), Request{
		Symbol:   "DOGE",
		Horizon:  model.HorizonDaily,
		Strategy: model.StrategyARIMA,
		Samples:  samplesEndingAt(now, []float64{1, 2, 3}),
	})
	assert.Nil(t, fc)
	assert.ErrorIs(t, err, strategy.ErrDataInsufficient)
}

func TestPredict_NoViableOrderStopsBeforeForecasting(t *testing.T) {
	e := newTestEngine()
	e.Searcher.WithScoreFunc(func(_ context.Context, o model.Order, _ []float64) (float64, error) {
		return 0, fmt.Errorf("%s: %w", o, strategy.ErrFitFailed)
	})
	called := false
	e.Now = func() time.Time { called = true; return now }

	values := make([]float64, 40)
	for i := range values {
		values[i] = float64(i % 4)
	}
	_, err := e.Predict(context.Background(), Request{
		Symbol:   "XRP",
		Horizon:  model.HorizonHourly,
		Strategy: model.StrategyARIMA,
		Samples:  samplesEndingAt(now, values),
	})
	assert.ErrorIs(t, err, strategy.ErrNoViableOrder)
	assert.False(t, called, "horizon scheduling must not start")
}

func TestPredict_InvalidSeries(t *testing.T) {
	e := newTestEngine()

	_, err := e.Predict(context.Background(), Request{Horizon: model.HorizonHourly, Strategy: model.StrategyLinear})
	assert.ErrorIs(t, err, strategy.ErrDataInsufficient)

	_, err = e.Predict(context.Background(), Request{
		Horizon:  model.HorizonHourly,
		Strategy: model.StrategyLinear,
		Samples:  []model.HistorySample{{Time: 10, Close: 1}, {Time: 10, Close: 2}},
	})
	assert.ErrorIs(t, err, ErrUnorderedSeries)
}
