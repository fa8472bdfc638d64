package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"Crypton/internal/api"
	"Crypton/internal/collector"
	"Crypton/internal/config"
	"Crypton/internal/export"
	"Crypton/internal/forecast"
	"Crypton/internal/model"
	"Crypton/internal/notifier"
	"Crypton/internal/recorder"
	"Crypton/internal/scheduler"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "path to the YAML config")
	symbol := flag.String("symbol", "", "run a single prediction for this symbol and exit")
	horizon := flag.String("horizon", "24h", "prediction horizon: 24h, 7d or 12m")
	strat := flag.String("strategy", "arima", "prediction strategy: arima or linear")
	flag.Parse()

	if err := run(*cfgPath, *symbol, *horizon, *strat); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(cfgPath, symbol, horizon, strat string) error {
	if v := os.Getenv("CONFIG_PATH"); v != "" && !isFlagSet("config") {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	setupLogging(cfg)

	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "yahoo":
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	default:
		fetcher = collector.NewCryptoCompareFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.DataSource.Quote, cfg.Proxy)
	}
	log.Infof("data source: %s", fetcher.Name())

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warnf("init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	var exp forecast.Exporter
	if cfg.Reports.Dir != "" {
		ce, err := export.NewXLSXExporter(cfg.Reports.Dir)
		if err != nil {
			log.Warnf("init report exporter failed, reports disabled: %v", err)
		} else {
			exp = ce
		}
	}

	svc := forecast.NewService(collector.NewCollector(fetcher), forecast.NewEngine(cfg.SearchConfig()), rec, exp)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if symbol != "" {
		return runOnce(ctx, svc, symbol, horizon, strat)
	}
	return runDaemon(ctx, cfg, svc)
}

func runOnce(ctx context.Context, svc *forecast.Service, symbol, horizon, strat string) error {
	h, err := model.ParseHorizon(horizon)
	if err != nil {
		return err
	}
	st, err := model.ParseStrategy(strat)
	if err != nil {
		return err
	}
	sym, _, _, err := scheduler.ParsePredict([]string{symbol})
	if err != nil {
		return err
	}

	res, err := svc.Run(ctx, sym, h, st)
	if err != nil {
		return err
	}
	printForecast(res)
	return nil
}

func printForecast(res *forecast.Result) {
	fc := res.Forecast
	fmt.Printf("Price predictions for: %s\n", fc.Symbol)
	fmt.Printf("Algorithm: %s", fc.Strategy)
	if fc.Order != nil {
		fmt.Printf(" %s", fc.Order)
	}
	fmt.Printf("\nTime period: %s\n\n", fc.Horizon.Name)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Date\tPrice\t")
	for _, e := range fc.Entries {
		fmt.Fprintf(w, "%s\t%s\t\n", e.Label(), export.FormatPrice(e.Price))
	}
	w.Flush()

	if res.ReportPath != "" {
		fmt.Printf("\nReport saved: %s\n", res.ReportPath)
	}
}

func runDaemon(ctx context.Context, cfg *config.Config, svc *forecast.Service) error {
	log.Info("Crypton starting...")

	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		var err error
		tn, err = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		if err != nil {
			return fmt.Errorf("init telegram: %w", err)
		}
	}

	var sender scheduler.Sender
	if tn != nil {
		sender = tn
	}
	sched := scheduler.NewScheduler(ctx, svc, sender, cfg.DataSource.TopLimit)
	if err := sched.RegisterJobs(cfg.Schedule.Jobs); err != nil {
		return fmt.Errorf("register cron jobs: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		handler := api.NewHandler(svc, cfg.DataSource.TopLimit, cfg.Forecast.RequestTimeout)
		return api.Serve(gctx, cfg.HTTP.Addr, api.NewRouter(handler))
	})
	if tn != nil {
		g.Go(func() error {
			tn.StartPolling(gctx, sched.HandleCommand)
			return nil
		})
		log.Info("telegram polling started")
	} else {
		log.Info("telegram not configured, polling disabled")
	}

	log.Info("Crypton is running. Press Ctrl+C to stop.")
	err := g.Wait()
	log.Info("Crypton stopped")
	return err
}

func setupLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Warnf("invalid log level %q, using info", cfg.Log.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if level < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Log.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
