package scheduler

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"Crypton/internal/config"
	"Crypton/internal/forecast"
	"Crypton/internal/model"
	"Crypton/internal/notifier"
)

// Sender delivers a message to the configured chat.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs configured forecast jobs and answers chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Service  *forecast.Service
	Notifier Sender
	TopLimit int
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler. A nil notifier drops job output.
func NewScheduler(ctx context.Context, svc *forecast.Service, sender Sender, topLimit int) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Service:  svc,
		Notifier: sender,
		TopLimit: topLimit,
		Ctx:      ctx,
	}
}

// RegisterJobs adds one cron entry per configured job.
func (s *Scheduler) RegisterJobs(jobs []config.Job) error {
	for _, j := range jobs {
		h, err := model.ParseHorizon(j.Horizon)
		if err != nil {
			return fmt.Errorf("job %s: %w", j.Symbol, err)
		}
		st, err := model.ParseStrategy(j.Strategy)
		if err != nil {
			return fmt.Errorf("job %s: %w", j.Symbol, err)
		}
		symbol := strings.ToUpper(j.Symbol)
		if _, err := s.Cron.AddFunc(j.Cron, func() { s.runJob(symbol, h, st) }); err != nil {
			return fmt.Errorf("register job %s %q: %w", symbol, j.Cron, err)
		}
		log.Infof("registered %s %s %s at %q", symbol, h.Name, st, j.Cron)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info("scheduler stopped")
}

func (s *Scheduler) runJob(symbol string, h model.Horizon, st model.Strategy) {
	log.Infof("running scheduled forecast %s %s %s", symbol, h.Name, st)
	s.trySend(s.predict(symbol, h, st))
}

func (s *Scheduler) predict(symbol string, h model.Horizon, st model.Strategy) string {
	res, err := s.Service.Run(s.Ctx, symbol, h, st)
	if err != nil {
		log.Errorf("forecast %s: %v", symbol, err)
		return notifier.FormatError(symbol, err)
	}
	return notifier.FormatForecast(res.Forecast)
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	switch strings.ToLower(fields[0]) {
	case "/predict":
		symbol, h, st, err := ParsePredict(fields[1:])
		if err != nil {
			return "⚠️ " + html.EscapeString(err.Error()) + "\n\n" + helpText
		}
		return s.predict(symbol, h, st)
	case "/top":
		symbols, err := s.Service.Symbols(s.TopLimit)
		if err != nil {
			log.Errorf("list symbols: %v", err)
			return "❌ Could not load symbols: " + html.EscapeString(err.Error())
		}
		return notifier.FormatSymbols(symbols)
	case "/history":
		runs, err := s.Service.History(10)
		if err != nil {
			log.Errorf("load history: %v", err)
			return "❌ Could not load history: " + html.EscapeString(err.Error())
		}
		return notifier.FormatHistory(runs)
	default:
		return helpText
	}
}

const helpText = `Available commands:
• /predict SYMBOL [24h|7d|12m] [arima|linear]
• /top
• /history`

// ParsePredict reads "SYMBOL [HORIZON] [STRATEGY]". Horizon defaults to
// 24 hours and strategy to ARIMA.
func ParsePredict(args []string) (string, model.Horizon, model.Strategy, error) {
	if len(args) == 0 || len(args) > 3 {
		return "", model.Horizon{}, "", fmt.Errorf("usage: /predict SYMBOL [HORIZON] [STRATEGY]")
	}
	symbol := strings.ToUpper(args[0])
	h := model.HorizonHourly
	st := model.StrategyARIMA
	var err error
	if len(args) > 1 {
		if h, err = model.ParseHorizon(args[1]); err != nil {
			return "", model.Horizon{}, "", err
		}
	}
	if len(args) > 2 {
		if st, err = model.ParseStrategy(args[2]); err != nil {
			return "", model.Horizon{}, "", err
		}
	}
	return symbol, h, st, nil
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		log.Debug("no notifier configured, dropping message")
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Errorf("send notification: %v", err)
	}
}
