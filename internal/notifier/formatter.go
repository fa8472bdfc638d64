package notifier

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"Crypton/internal/export"
	"Crypton/internal/forecast"
	"Crypton/internal/model"
	"Crypton/internal/recorder"
	"Crypton/internal/strategy"
)

// FormatForecast renders a forecast as a Telegram HTML message.
func FormatForecast(fc *model.Forecast) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🔮 <b>Price predictions for: %s</b>\n\n", html.EscapeString(fc.Symbol)))
	b.WriteString(fmt.Sprintf("Algorithm: %s", fc.Strategy))
	if fc.Order != nil {
		b.WriteString(fmt.Sprintf(" %s", fc.Order))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Time period: %s\n", fc.Horizon.Name))
	b.WriteString(fmt.Sprintf("History: %d samples\n\n", fc.Samples))

	b.WriteString("<pre>")
	for _, e := range fc.Entries {
		b.WriteString(fmt.Sprintf("%-16s %14s\n", e.Label(), export.FormatPrice(e.Price)))
	}
	b.WriteString("</pre>")
	return b.String()
}

// FormatError turns a failed prediction into an actionable message.
func FormatError(symbol string, err error) string {
	s := html.EscapeString(symbol)
	switch {
	case errors.Is(err, strategy.ErrDataInsufficient):
		return fmt.Sprintf("📉 Not enough price history for %s to fit the model. Try a longer time period or Linear Regression.", s)
	case errors.Is(err, strategy.ErrNoViableOrder):
		return fmt.Sprintf("🧮 No ARIMA order could be fitted to %s history. The series may be degenerate; try Linear Regression.", s)
	case errors.Is(err, strategy.ErrForecastStep):
		return fmt.Sprintf("⚠️ The model for %s was fitted but produced an invalid forecast. No partial results were kept.", s)
	case errors.Is(err, forecast.ErrUnorderedSeries):
		return fmt.Sprintf("🕒 The price provider returned out-of-order history for %s. Please try again.", s)
	default:
		return fmt.Sprintf("❌ Could not predict %s: %s", s, html.EscapeString(err.Error()))
	}
}

// FormatHistory lists recently recorded forecasts.
func FormatHistory(runs []recorder.ForecastSummary) string {
	if len(runs) == 0 {
		return "No forecasts recorded yet."
	}
	var b strings.Builder
	b.WriteString("📚 <b>Recent forecasts</b>\n\n")
	for _, r := range runs {
		algo := r.Strategy
		if r.Order != "" {
			algo = r.Order
		}
		b.WriteString(fmt.Sprintf("%s | %s | %s | %s → %s\n",
			r.CreatedAt.Format("2006-01-02 15:04"), html.EscapeString(r.Symbol), r.Horizon, algo,
			export.FormatPrice(r.LastPrice)))
	}
	return b.String()
}

// FormatSymbols lists the symbols available for prediction.
func FormatSymbols(symbols []string) string {
	return "🪙 <b>Top symbols</b>\n\n" + html.EscapeString(strings.Join(symbols, ", "))
}
