package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"Crypton/internal/model"
	"Crypton/internal/strategy"
)

// Job is a recurring forecast pushed to Telegram.
type Job struct {
	Symbol   string `yaml:"symbol"`
	Horizon  string `yaml:"horizon"`
	Strategy string `yaml:"strategy"`
	Cron     string `yaml:"cron"`
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider string `yaml:"provider"` // cryptocompare or yahoo
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
		Quote    string `yaml:"quote"`
		TopLimit int    `yaml:"top_limit"`
	} `yaml:"data_source"`
	Forecast struct {
		Criterion        string        `yaml:"criterion"`
		Workers          int           `yaml:"workers"`
		CandidateTimeout time.Duration `yaml:"candidate_timeout"`
		RequestTimeout   time.Duration `yaml:"request_timeout"`
	} `yaml:"forecast"`
	Schedule struct {
		Jobs []Job `yaml:"jobs"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Reports struct {
		Dir string `yaml:"dir"`
	} `yaml:"reports"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // text or json
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads an optional .env file and the YAML config, then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("CRYPTOCOMPARE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("FORECAST_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Forecast.Workers = n
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REPORTS_DIR"); v != "" {
		cfg.Reports.Dir = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "cryptocompare"
	}
	if cfg.DataSource.Quote == "" {
		cfg.DataSource.Quote = "USD"
	}
	if cfg.DataSource.TopLimit == 0 {
		cfg.DataSource.TopLimit = 50
	}
	if cfg.Forecast.Criterion == "" {
		cfg.Forecast.Criterion = string(strategy.CriterionAIC)
	}
	if cfg.Forecast.Workers == 0 {
		cfg.Forecast.Workers = 4
	}
	if cfg.Forecast.CandidateTimeout == 0 {
		cfg.Forecast.CandidateTimeout = 10 * time.Second
	}
	if cfg.Forecast.RequestTimeout == 0 {
		cfg.Forecast.RequestTimeout = 2 * time.Minute
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/crypton.db"
	}
	if cfg.Reports.Dir == "" {
		cfg.Reports.Dir = "reports"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all settings are usable.
func (c *Config) Validate() error {
	if c.DataSource.Provider != "cryptocompare" && c.DataSource.Provider != "yahoo" {
		return fmt.Errorf("data_source.provider must be cryptocompare or yahoo, got %q", c.DataSource.Provider)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if _, err := strategy.ParseCriterion(c.Forecast.Criterion); err != nil {
		return fmt.Errorf("forecast.criterion: %w", err)
	}
	if c.Forecast.Workers < 1 {
		return fmt.Errorf("forecast.workers must be positive")
	}
	if c.Forecast.CandidateTimeout < 0 {
		return fmt.Errorf("forecast.candidate_timeout must not be negative")
	}
	for i, j := range c.Schedule.Jobs {
		if j.Symbol == "" || j.Cron == "" {
			return fmt.Errorf("schedule.jobs[%d]: symbol and cron are required", i)
		}
		if _, err := model.ParseHorizon(j.Horizon); err != nil {
			return fmt.Errorf("schedule.jobs[%d]: %w", i, err)
		}
		if _, err := model.ParseStrategy(j.Strategy); err != nil {
			return fmt.Errorf("schedule.jobs[%d]: %w", i, err)
		}
	}
	return nil
}

// SearchConfig builds the ARIMA order search settings.
func (c *Config) SearchConfig() strategy.SearchConfig {
	sc := strategy.DefaultSearchConfig()
	if crit, err := strategy.ParseCriterion(c.Forecast.Criterion); err == nil {
		sc.Criterion = crit
	}
	sc.Workers = c.Forecast.Workers
	sc.CandidateTimeout = c.Forecast.CandidateTimeout
	return sc
}
