package strategy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Crypton/internal/model"
)

func TestCandidates_EnumerationOrder(t *testing.T) {
	c := Candidates(5, 1, 1)
	require.Len(t, c, 24)
	assert.Equal(t, model.Order{P: 0, D: 0, Q: 0}, c[0])
	assert.Equal(t, model.Order{P: 0, D: 0, Q: 1}, c[1])
	assert.Equal(t, model.Order{P: 0, D: 1, Q: 0}, c[2])
	assert.Equal(t, model.Order{P: 1, D: 0, Q: 0}, c[4])
	assert.Equal(t, model.Order{P: 5, D: 1, Q: 1}, c[23])
}

func TestSearch_TieBreakPrefersEarliest(t *testing.T) {
	tied := map[model.Order]bool{
		{P: 1, D: 0, Q: 1}: true,
		{P: 3, D: 1, Q: 0}: true,
	}
	score := func(_ context.Context, o model.Order, _ []float64) (float64, error) {
		if tied[o] {
			return 1, nil
		}
		return 2, nil
	}

	for _, workers := range []int{1, 4, 24} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			cfg := DefaultSearchConfig()
			cfg.Workers = workers
			res, err := NewSearcher(cfg).WithScoreFunc(score).Search(context.Background(), arSeries(40, 0.5))
			require.NoError(t, err)
			assert.Equal(t, model.Order{P: 1, D: 0, Q: 1}, res.Order)
			assert.Equal(t, 1.0, res.Score)
			assert.Equal(t, 24, res.Evaluated)
		})
	}
}

func TestSearch_SkipsFailedCandidates(t *testing.T) {
	score := func(_ context.Context, o model.Order, _ []float64) (float64, error) {
		if o.P < 4 {
			return 0, fmt.Errorf("%s: %w", o, ErrFitFailed)
		}
		return float64(10 - o.P - o.Q), nil
	}
	res, err := NewSearcher(DefaultSearchConfig()).WithScoreFunc(score).Search(context.Background(), arSeries(40, 0.5))
	require.NoError(t, err)
	assert.Equal(t, model.Order{P: 5, D: 0, Q: 1}, res.Order)
	assert.Equal(t, 16, res.Skipped)
	assert.Equal(t, 8, res.Evaluated)
}

func TestSearch_NoViableOrder(t *testing.T) {
	score := func(_ context.Context, o model.Order, _ []float64) (float64, error) {
		return 0, fmt.Errorf("%s: %w", o, ErrFitFailed)
	}
	_, err := NewSearcher(DefaultSearchConfig()).WithScoreFunc(score).Search(context.Background(), arSeries(40, 0.5))
	assert.ErrorIs(t, err, ErrNoViableOrder)
}

func TestSearch_ShortSeries(t *testing.T) {
	_, err := NewSearcher(DefaultSearchConfig()).Search(context.Background(), []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrDataInsufficient)
}

func TestSearch_UnexpectedErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	score := func(_ context.Context, o model.Order, _ []float64) (float64, error) {
		if o.P == 2 {
			return 0, boom
		}
		return 1, nil
	}
	_, err := NewSearcher(DefaultSearchConfig()).WithScoreFunc(score).Search(context.Background(), arSeries(40, 0.5))
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNoViableOrder)
}

func TestSearch_TimeoutIsSkipped(t *testing.T) {
	score := func(ctx context.Context, o model.Order, _ []float64) (float64, error) {
		if o == (model.Order{}) {
			<-ctx.Done()
			return 0, ctx.Err()
		}
		return 5, nil
	}
	cfg := DefaultSearchConfig()
	cfg.CandidateTimeout = 20 * time.Millisecond
	res, err := NewSearcher(cfg).WithScoreFunc(score).Search(context.Background(), arSeries(40, 0.5))
	require.NoError(t, err)
	assert.Equal(t, model.Order{Q: 1}, res.Order)
	assert.Equal(t, 1, res.Skipped)
}

func TestSearch_ParentCancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	score := func(ctx context.Context, _ model.Order, _ []float64) (float64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	_, err := NewSearcher(DefaultSearchConfig()).WithScoreFunc(score).Search(ctx, arSeries(40, 0.5))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearch_NonFiniteScoreIsSkipped(t *testing.T) {
	score := func(_ context.Context, o model.Order, _ []float64) (float64, error) {
		if o.P == 0 {
			return 1 / zero(), nil
		}
		return 3, nil
	}
	res, err := NewSearcher(DefaultSearchConfig()).WithScoreFunc(score).Search(context.Background(), arSeries(40, 0.5))
	require.NoError(t, err)
	assert.Equal(t, model.Order{P: 1}, res.Order)
	assert.Equal(t, 4, res.Skipped)
}

func TestSearch_RealFitIsDeterministic(t *testing.T) {
	values := arSeries(120, 0.6)

	seq := DefaultSearchConfig()
	seq.Workers = 1
	first, err := NewSearcher(seq).Search(context.Background(), values)
	require.NoError(t, err)

	par := DefaultSearchConfig()
	par.Workers = 8
	for i := 0; i < 3; i++ {
		again, err := NewSearcher(par).Search(context.Background(), values)
		require.NoError(t, err)
		assert.Equal(t, first.Order, again.Order)
		assert.Equal(t, first.Score, again.Score)
	}
}

func TestSearch_OrderDoesNotDependOnPriceScale(t *testing.T) {
	noise := gaussianNoise(169, 7)
	searcher := NewSearcher(DefaultSearchConfig())

	var orders []model.Order
	for _, c := range []float64{1, 100, 10000} {
		res, err := searcher.Search(context.Background(), rescale(noise, 50000, c))
		require.NoError(t, err)
		assert.Equal(t, 24, res.Evaluated)
		orders = append(orders, res.Order)
	}
	t.Logf("selected orders: %v", orders)
	assert.Equal(t, orders[0], orders[1])
	assert.Equal(t, orders[0], orders[2])
	assert.Equal(t, 0, orders[0].D, "white noise must not be differenced")
}

func TestSearch_HourlyPricesNear50k(t *testing.T) {
	steps := gaussianNoise(25, 42)
	walk := make([]float64, len(steps))
	for i := 1; i < len(steps); i++ {
		walk[i] = walk[i-1] + steps[i]
	}

	searcher := NewSearcher(DefaultSearchConfig())
	small, err := searcher.Search(context.Background(), rescale(walk, 50000, 1))
	require.NoError(t, err)
	large, err := searcher.Search(context.Background(), rescale(walk, 50000, 40))
	require.NoError(t, err)

	assert.Equal(t, 24, small.Evaluated+small.Skipped)
	assert.Equal(t, small.Order, large.Order)

	f, err := Fit(context.Background(), model.StrategyARIMA, hourlySamples(rescale(walk, 50000, 40)), searcher)
	require.NoError(t, err)
	assert.Equal(t, large.Order, *f.Order)
	for i := 0; i < 24; i++ {
		p, err := f.Forecaster.Next(baseTime)
		require.NoError(t, err)
		assert.False(t, math.IsNaN(p) || math.IsInf(p, 0))
	}
}

func TestSearch_CandidatesShareScoredSample(t *testing.T) {
	values := arSeries(60, 0.5)
	searcher := NewSearcher(DefaultSearchConfig())

	scored := map[int]bool{}
	for _, o := range Candidates(5, 1, 1) {
		m := searcher.NewModel(o)
		require.NoError(t, m.FitValues(context.Background(), values))
		scored[len(values)-o.D-m.start] = true
	}
	assert.Equal(t, map[int]bool{54: true}, scored)
}

func TestParseCriterion(t *testing.T) {
	c, err := ParseCriterion("")
	require.NoError(t, err)
	assert.Equal(t, CriterionAIC, c)

	c, err = ParseCriterion("bic")
	require.NoError(t, err)
	assert.Equal(t, CriterionBIC, c)

	_, err = ParseCriterion("hqic")
	assert.Error(t, err)
}

func zero() float64 { return 0 }
