package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"sigtrader/internal/domain/model"
)

// Config is the bot's TOML configuration. Credentials never live here; they
// come from the environment (see LoadCredentials).
type Config struct {
	App struct {
		LogLevel            string `toml:"log_level"`
		CycleTimeoutSec     int    `toml:"cycle_timeout_sec"`
		ErrorAlertThreshold int    `toml:"error_alert_threshold"`
	} `toml:"app"`

	Trading struct {
		Symbol              string  `toml:"symbol"`
		MarginMode          string  `toml:"margin_mode"`
		Leverage            int     `toml:"leverage"`
		Timeframe           string  `toml:"timeframe"`
		RiskPercent         float64 `toml:"risk_percent"`
		MinOrderSize        float64 `toml:"min_order_size"`
		MaxOrderSize        float64 `toml:"max_order_size"`
		MaxPositionSize     float64 `toml:"max_position_size"`
		MaxLossPercent      float64 `toml:"max_loss_percent"`
		TargetProfitPercent float64 `toml:"target_profit_percent"`
		TrendScorer         string  `toml:"trend_scorer"` // keyword | indicator
	} `toml:"trading"`

	Exchange struct {
		RestURL       string `toml:"rest_url"`
		WsURL         string `toml:"ws_url"`
		UseTickerFeed bool   `toml:"use_ticker_feed"`
	} `toml:"exchange"`

	Oracle struct {
		URL        string `toml:"url"`
		TimeoutSec int    `toml:"timeout_sec"`
	} `toml:"oracle"`

	Storage struct {
		Driver   string `toml:"driver"` // sqlite | redis | postgres
		Path     string `toml:"path"`   // sqlite
		DSN      string `toml:"dsn"`    // postgres
		Addr     string `toml:"addr"`   // redis
		Password string `toml:"password"`
		DB       int    `toml:"db"`
		Prefix   string `toml:"prefix"`
	} `toml:"storage"`

	Metrics struct {
		Enabled bool   `toml:"enabled"`
		Listen  string `toml:"listen"`
	} `toml:"metrics"`

	Telegram struct {
		ChatID int64 `toml:"chat_id"`
	} `toml:"telegram"`
}

// Load reads, defaults and validates the configuration file.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.App.CycleTimeoutSec <= 0 {
		cfg.App.CycleTimeoutSec = 120
	}
	if cfg.App.ErrorAlertThreshold <= 0 {
		cfg.App.ErrorAlertThreshold = 5
	}

	if cfg.Trading.MarginMode == "" {
		cfg.Trading.MarginMode = "cross"
	}
	if cfg.Trading.Leverage <= 0 {
		cfg.Trading.Leverage = 10
	}
	if cfg.Trading.Timeframe == "" {
		cfg.Trading.Timeframe = "15m"
	}
	if cfg.Trading.RiskPercent <= 0 {
		cfg.Trading.RiskPercent = 1
	}
	if cfg.Trading.TrendScorer == "" {
		cfg.Trading.TrendScorer = "keyword"
	}

	if cfg.Exchange.RestURL == "" {
		cfg.Exchange.RestURL = "https://www.okx.com"
	}
	if cfg.Exchange.WsURL == "" {
		cfg.Exchange.WsURL = "wss://ws.okx.com:8443/ws/v5/public"
	}

	if cfg.Oracle.TimeoutSec <= 0 {
		cfg.Oracle.TimeoutSec = 60
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "data/sigtrader.db"
	}
	if cfg.Storage.Prefix == "" {
		cfg.Storage.Prefix = "sigtrader"
	}

	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = ":9100"
	}
}

func validate(cfg *Config) error {
	cfg.Trading.Symbol = strings.ToUpper(strings.TrimSpace(cfg.Trading.Symbol))
	if cfg.Trading.Symbol == "" {
		return errors.New("trading.symbol is required")
	}
	if cfg.Trading.MarginMode != "cross" && cfg.Trading.MarginMode != "isolated" {
		return fmt.Errorf("trading.margin_mode %q must be cross or isolated", cfg.Trading.MarginMode)
	}
	if cfg.Trading.RiskPercent > 100 {
		return errors.New("trading.risk_percent must be at most 100")
	}
	if cfg.Trading.MinOrderSize <= 0 || cfg.Trading.MaxOrderSize <= 0 {
		return errors.New("trading.min_order_size and max_order_size must be positive")
	}
	if cfg.Trading.MinOrderSize > cfg.Trading.MaxOrderSize {
		return errors.New("trading.min_order_size exceeds max_order_size")
	}
	if cfg.Trading.MaxPositionSize < cfg.Trading.MaxOrderSize {
		return errors.New("trading.max_position_size must be at least max_order_size")
	}
	if cfg.Trading.MaxLossPercent <= 0 || cfg.Trading.TargetProfitPercent <= 0 {
		return errors.New("trading.max_loss_percent and target_profit_percent must be positive")
	}
	if cfg.Trading.TrendScorer != "keyword" && cfg.Trading.TrendScorer != "indicator" {
		return fmt.Errorf("trading.trend_scorer %q must be keyword or indicator", cfg.Trading.TrendScorer)
	}

	if strings.TrimSpace(cfg.Oracle.URL) == "" {
		return errors.New("oracle.url is required")
	}

	switch cfg.Storage.Driver {
	case "sqlite", "redis", "postgres":
	default:
		return fmt.Errorf("storage.driver %q must be sqlite, redis or postgres", cfg.Storage.Driver)
	}
	if cfg.Storage.Driver == "redis" && strings.TrimSpace(cfg.Storage.Addr) == "" {
		return errors.New("storage.addr required for redis driver")
	}
	if cfg.Storage.Driver == "postgres" && strings.TrimSpace(cfg.Storage.DSN) == "" {
		return errors.New("storage.dsn required for postgres driver")
	}
	return nil
}

// TradingConfig maps the trading section onto the immutable per-cycle
// snapshot the core consumes.
func (c *Config) TradingConfig() model.TradingConfig {
	return model.TradingConfig{
		Symbol:              c.Trading.Symbol,
		MarginMode:          c.Trading.MarginMode,
		Leverage:            c.Trading.Leverage,
		Timeframe:           c.Trading.Timeframe,
		RiskPercent:         c.Trading.RiskPercent,
		MinOrderSize:        c.Trading.MinOrderSize,
		MaxOrderSize:        c.Trading.MaxOrderSize,
		MaxPositionSize:     c.Trading.MaxPositionSize,
		MaxLossPercent:      c.Trading.MaxLossPercent,
		TargetProfitPercent: c.Trading.TargetProfitPercent,
	}
}

// Credentials are the secrets read from the environment.
type Credentials struct {
	APIKey        string
	APISecret     string
	Passphrase    string
	TelegramToken string
}

// LoadCredentials loads a .env file when present and reads the exchange
// credentials from the environment. The telegram token is optional.
func LoadCredentials() (Credentials, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	creds := Credentials{
		APIKey:        os.Getenv("OKX_API_KEY"),
		APISecret:     os.Getenv("OKX_SECRET"),
		Passphrase:    os.Getenv("OKX_PASSWORD"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
	}

	for name, v := range map[string]string{
		"OKX_API_KEY":  creds.APIKey,
		"OKX_SECRET":   creds.APISecret,
		"OKX_PASSWORD": creds.Passphrase,
	} {
		if strings.TrimSpace(v) == "" {
			return Credentials{}, fmt.Errorf("%s is not set", name)
		}
	}
	return creds, nil
}
