package strategy

import (
	"context"
	"fmt"
	"math"
	"time"

	"Crypton/internal/calculator"
	"Crypton/internal/model"
)

const (
	maxIterations = 200
	learningRate  = 0.1
	tolerance     = 1e-8
	coeffBound    = 0.99
)

// MinObservations is the shortest history an order can be fitted on.
func MinObservations(o model.Order) int {
	return o.P + o.D + o.Q + 10
}

// ARIMA is an ARIMA(p,d,q) model fitted by conditional sum of squares.
//
// After fitting, the model owns a forecast origin that starts at the end of
// the history. Every call to Next forecasts one step past the origin and
// then moves the origin forward, so n calls yield an n-step path.
type ARIMA struct {
	Order     model.Order
	ARCoeffs  []float64
	MACoeffs  []float64
	Intercept float64 // mean of the differenced series
	Variance  float64 // residual variance
	LogLik    float64
	AIC       float64
	AICc      float64
	BIC       float64

	// ConditionOn is how many leading prices only serve as lag history.
	// Residuals are scored from that index of the original series, so
	// models sharing it are compared on the same observations. Zero means
	// d+max(p,q).
	ConditionOn int

	start  int       // first scored index of the differenced series
	floor  float64   // smallest residual variance
	ext    []float64 // differenced history followed by forecasts
	resid  []float64 // residuals followed by zero future shocks
	tails  []float64 // last value of each lower differencing level
	steps  int
	fitted bool
}

// NewARIMA creates an unfitted model with the given order.
func NewARIMA(o model.Order) *ARIMA {
	return &ARIMA{
		Order:    o,
		ARCoeffs: make([]float64, o.P),
		MACoeffs: make([]float64, o.Q),
	}
}

// Fit fits the model on the closing prices of samples.
func (m *ARIMA) Fit(ctx context.Context, samples []model.HistorySample) error {
	return m.FitValues(ctx, calculator.Closes(samples))
}

// FitValues fits the model on a raw price series.
func (m *ARIMA) FitValues(ctx context.Context, values []float64) error {
	p, d, q := m.Order.P, m.Order.D, m.Order.Q
	if need := MinObservations(m.Order); len(values) < need {
		return fmt.Errorf("%s needs %d samples, got %d: %w", m.Order, need, len(values), ErrDataInsufficient)
	}

	y, err := calculator.Diff(values, d)
	if err != nil {
		return fmt.Errorf("%s: %v: %w", m.Order, err, ErrDataInsufficient)
	}
	m.start = max(p, q, m.ConditionOn-d)
	if len(y)-m.start < 1 {
		return fmt.Errorf("%s conditioned on %d samples, got %d: %w", m.Order, m.ConditionOn, len(values), ErrDataInsufficient)
	}
	// A perfect fit would have an infinite likelihood.
	m.floor = 1e-12 * calculator.Variance(values)
	if m.floor == 0 || !finite(m.floor) {
		m.floor = 1e-12
	}

	m.tails = make([]float64, d)
	for k := 0; k < d; k++ {
		level, _ := calculator.Diff(values, k)
		m.tails[k] = level[len(level)-1]
	}

	// Optimise on the standardised series so that the step size does not
	// depend on the price scale.
	m.Intercept = calculator.Mean(y)
	scale := math.Sqrt(calculator.Variance(y))
	if scale == 0 || !finite(scale) {
		scale = 1
	}
	z := make([]float64, len(y))
	for i, v := range y {
		z[i] = (v - m.Intercept) / scale
	}

	m.ARCoeffs = make([]float64, p)
	if p > 0 {
		if acf := calculator.ACF(z, p); acf != nil {
			for i, phi := range calculator.YuleWalker(acf, p) {
				m.ARCoeffs[i] = clamp(phi)
			}
		}
	}
	m.MACoeffs = make([]float64, q)
	for i := range m.MACoeffs {
		m.MACoeffs[i] = 0.1
	}

	if p+q > 0 {
		if err := m.optimize(ctx, z); err != nil {
			return err
		}
	}

	rz, sse := m.cssResiduals(z)
	if !finite(sse) {
		return fmt.Errorf("%s: non-finite residuals: %w", m.Order, ErrFitFailed)
	}
	m.resid = make([]float64, len(rz))
	for i, r := range rz {
		m.resid[i] = r * scale
	}
	m.computeIC(sse*scale*scale, len(y)-m.start)

	m.ext = append([]float64(nil), y...)
	m.steps = 0
	m.fitted = true
	return nil
}

// optimize refines the coefficients by gradient descent on the CSS.
func (m *ARIMA) optimize(ctx context.Context, z []float64) error {
	p, q := m.Order.P, m.Order.Q
	neff := float64(len(z) - m.start)

	for iter := 0; iter < maxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		r, sse := m.cssResiduals(z)
		if !finite(sse) {
			return fmt.Errorf("%s: diverged at iteration %d: %w", m.Order, iter, ErrFitFailed)
		}

		arGrad := make([]float64, p)
		maGrad := make([]float64, q)
		for t := m.start; t < len(z); t++ {
			for i := 0; i < p; i++ {
				arGrad[i] -= 2 * r[t] * z[t-i-1]
			}
			for i := 0; i < q; i++ {
				maGrad[i] -= 2 * r[t] * r[t-i-1]
			}
		}
		for i := range arGrad {
			m.ARCoeffs[i] = clamp(m.ARCoeffs[i] - learningRate*arGrad[i]/neff)
		}
		for i := range maGrad {
			m.MACoeffs[i] = clamp(m.MACoeffs[i] - learningRate*maGrad[i]/neff)
		}

		_, next := m.cssResiduals(z)
		if math.Abs(sse-next) < tolerance*math.Max(1, sse) {
			break
		}
	}
	return nil
}

// cssResiduals returns the conditional residuals of a zero-mean series and
// their sum of squares from the first scored index. Residuals before the
// first full lag window are zero.
func (m *ARIMA) cssResiduals(z []float64) ([]float64, float64) {
	p, q := m.Order.P, m.Order.Q
	r := make([]float64, len(z))
	sse := 0.0
	for t := max(p, q); t < len(z); t++ {
		pred := 0.0
		for i := 0; i < p; i++ {
			pred += m.ARCoeffs[i] * z[t-i-1]
		}
		for i := 0; i < q; i++ {
			pred += m.MACoeffs[i] * r[t-i-1]
		}
		r[t] = z[t] - pred
		if t >= m.start {
			sse += r[t] * r[t]
		}
	}
	return r, sse
}

// computeIC derives the Gaussian log-likelihood and information criteria.
func (m *ARIMA) computeIC(sse float64, n int) {
	k := float64(m.Order.P + m.Order.Q + 1)
	nf := float64(n)

	m.Variance = math.Max(sse/nf, m.floor)

	m.LogLik = -nf / 2 * (math.Log(2*math.Pi*m.Variance) + 1)
	m.AIC = -2*m.LogLik + 2*k
	if nf-k-1 > 0 {
		m.AICc = m.AIC + 2*k*(k+1)/(nf-k-1)
	} else {
		m.AICc = math.Inf(1)
	}
	m.BIC = -2*m.LogLik + k*math.Log(nf)
}

// Next returns the forecast one step past the current origin and advances
// the origin. The time argument is not used.
func (m *ARIMA) Next(_ time.Time) (float64, error) {
	if !m.fitted {
		return 0, fmt.Errorf("%w: model is not fitted", ErrForecastStep)
	}
	p, q := m.Order.P, m.Order.Q
	t := len(m.ext)

	pred := m.Intercept
	for i := 0; i < p; i++ {
		pred += m.ARCoeffs[i] * (m.ext[t-i-1] - m.Intercept)
	}
	for i := 0; i < q; i++ {
		pred += m.MACoeffs[i] * m.resid[t-i-1]
	}

	// Integrate back through each differencing level.
	levels := make([]float64, len(m.tails))
	price := pred
	for k := len(m.tails) - 1; k >= 0; k-- {
		levels[k] = m.tails[k] + price
		price = levels[k]
	}
	if !finite(price) {
		return 0, fmt.Errorf("%w: %s step %d is not finite", ErrForecastStep, m.Order, m.steps+1)
	}

	copy(m.tails, levels)
	m.ext = append(m.ext, pred)
	m.resid = append(m.resid, 0)
	m.steps++
	return price, nil
}

// Steps reports how far the forecast origin has advanced since fitting.
func (m *ARIMA) Steps() int {
	return m.steps
}

// Residuals returns a copy of the in-sample residuals.
func (m *ARIMA) Residuals() []float64 {
	n := len(m.resid) - m.steps
	if !m.fitted || n < 0 {
		return nil
	}
	out := make([]float64, n)
	copy(out, m.resid[:n])
	return out
}

func clamp(v float64) float64 {
	return math.Max(-coeffBound, math.Min(coeffBound, v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
