package strategy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"Crypton/internal/model"
)

// Criterion names the information criterion used to rank candidate orders.
type Criterion string

const (
	CriterionAIC  Criterion = "aic"
	CriterionAICc Criterion = "aicc"
	CriterionBIC  Criterion = "bic"
)

// ParseCriterion resolves a criterion name, defaulting to AIC when empty.
func ParseCriterion(s string) (Criterion, error) {
	switch Criterion(s) {
	case "", CriterionAIC:
		return CriterionAIC, nil
	case CriterionAICc, CriterionBIC:
		return Criterion(s), nil
	}
	return "", fmt.Errorf("unknown information criterion %q", s)
}

func (c Criterion) of(m *ARIMA) float64 {
	switch c {
	case CriterionAICc:
		return m.AICc
	case CriterionBIC:
		return m.BIC
	default:
		return m.AIC
	}
}

// SearchConfig bounds the exhaustive order search.
type SearchConfig struct {
	MaxP             int
	MaxD             int
	MaxQ             int
	Criterion        Criterion
	Workers          int           // concurrent candidate fits, 1 = sequential
	CandidateTimeout time.Duration // 0 disables the per-candidate timeout
}

// DefaultSearchConfig searches p in [0,5], d in [0,1], q in [0,1] by AIC.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		MaxP:             5,
		MaxD:             1,
		MaxQ:             1,
		Criterion:        CriterionAIC,
		Workers:          4,
		CandidateTimeout: 10 * time.Second,
	}
}

// ScoreFunc fits one candidate order and returns its criterion value.
type ScoreFunc func(ctx context.Context, o model.Order, values []float64) (float64, error)

// SearchResult is the winning order of a search.
type SearchResult struct {
	Order     model.Order
	Score     float64
	Evaluated int // candidates that fitted
	Skipped   int // candidates that failed or timed out
}

// Searcher selects the ARIMA order with the lowest information criterion.
type Searcher struct {
	cfg   SearchConfig
	score ScoreFunc
}

var errCandidateTimeout = errors.New("candidate fit timed out")

// NewSearcher creates a searcher that fits real ARIMA models.
func NewSearcher(cfg SearchConfig) *Searcher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Criterion == "" {
		cfg.Criterion = CriterionAIC
	}
	s := &Searcher{cfg: cfg}
	s.score = s.fitAndScore
	return s
}

// WithScoreFunc replaces how candidates are fitted and scored.
func (s *Searcher) WithScoreFunc(fn ScoreFunc) *Searcher {
	s.score = fn
	return s
}

// Config returns the searcher's configuration.
func (s *Searcher) Config() SearchConfig {
	return s.cfg
}

// Candidates enumerates every order p-major, then d, then q.
func Candidates(maxP, maxD, maxQ int) []model.Order {
	out := make([]model.Order, 0, (maxP+1)*(maxD+1)*(maxQ+1))
	for p := 0; p <= maxP; p++ {
		for d := 0; d <= maxD; d++ {
			for q := 0; q <= maxQ; q++ {
				out = append(out, model.Order{P: p, D: d, Q: q})
			}
		}
	}
	return out
}

type candidateResult struct {
	order model.Order
	score float64
	err   error
}

// Search fits every candidate order on values and returns the best one.
// Candidates that fail to fit are skipped; if none fits, ErrNoViableOrder
// is returned.
func (s *Searcher) Search(ctx context.Context, values []float64) (SearchResult, error) {
	largest := model.Order{P: s.cfg.MaxP, D: s.cfg.MaxD, Q: s.cfg.MaxQ}
	if need := MinObservations(largest); len(values) < need {
		return SearchResult{}, fmt.Errorf("order search up to %s needs %d samples, got %d: %w",
			largest, need, len(values), ErrDataInsufficient)
	}

	candidates := Candidates(s.cfg.MaxP, s.cfg.MaxD, s.cfg.MaxQ)
	results := make([]candidateResult, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, o := range candidates {
		g.Go(func() error {
			score, err := s.evaluate(gctx, o, values)
			results[i] = candidateResult{order: o, score: score, err: err}
			if err != nil && !skippable(err) {
				return fmt.Errorf("evaluate %s: %w", o, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SearchResult{}, err
	}

	return reduce(results)
}

// reduce walks results in enumeration order; only a strictly lower score
// replaces the incumbent, so the earliest candidate wins ties.
func reduce(results []candidateResult) (SearchResult, error) {
	best := SearchResult{Score: math.Inf(1)}
	found := false
	for _, r := range results {
		if r.err != nil {
			best.Skipped++
			log.WithFields(log.Fields{"order": r.order.String(), "reason": r.err}).Debug("candidate skipped")
			continue
		}
		best.Evaluated++
		if r.score < best.Score {
			best.Score = r.score
			best.Order = r.order
			found = true
		}
	}
	if !found {
		return SearchResult{}, fmt.Errorf("%d candidates tried: %w", len(results), ErrNoViableOrder)
	}
	return best, nil
}

// evaluate scores one candidate, bounding it by the per-candidate timeout.
func (s *Searcher) evaluate(ctx context.Context, o model.Order, values []float64) (float64, error) {
	if s.cfg.CandidateTimeout <= 0 {
		return s.checked(ctx, o, values)
	}

	cctx, cancel := context.WithTimeout(ctx, s.cfg.CandidateTimeout)
	defer cancel()

	type outcome struct {
		score float64
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		score, err := s.checked(cctx, o, values)
		done <- outcome{score, err}
	}()

	select {
	case out := <-done:
		if out.err != nil && cctx.Err() != nil && ctx.Err() == nil {
			return 0, fmt.Errorf("%s after %s: %w", o, s.cfg.CandidateTimeout, errCandidateTimeout)
		}
		return out.score, out.err
	case <-cctx.Done():
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("%s after %s: %w", o, s.cfg.CandidateTimeout, errCandidateTimeout)
	}
}

func (s *Searcher) checked(ctx context.Context, o model.Order, values []float64) (float64, error) {
	score, err := s.score(ctx, o, values)
	if err != nil {
		return 0, err
	}
	if !finite(score) {
		return 0, fmt.Errorf("%s: criterion is %v: %w", o, score, ErrFitFailed)
	}
	return score, nil
}

func (s *Searcher) fitAndScore(ctx context.Context, o model.Order, values []float64) (float64, error) {
	m := s.NewModel(o)
	if err := m.FitValues(ctx, values); err != nil {
		return 0, err
	}
	return s.cfg.Criterion.of(m), nil
}

// NewModel returns an unfitted model conditioned like every candidate of
// this search, so its criterion is comparable with the search scores.
func (s *Searcher) NewModel(o model.Order) *ARIMA {
	m := NewARIMA(o)
	m.ConditionOn = s.cfg.MaxD + max(s.cfg.MaxP, s.cfg.MaxQ)
	return m
}

// skippable reports whether a candidate error is a routine fit failure.
func skippable(err error) bool {
	return errors.Is(err, ErrFitFailed) ||
		errors.Is(err, ErrDataInsufficient) ||
		errors.Is(err, errCandidateTimeout)
}
