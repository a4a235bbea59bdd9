package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"sigtrader/internal/application/container"
	"sigtrader/internal/application/port"
	"sigtrader/internal/application/service"
	"sigtrader/internal/infrastructure/config"
	"sigtrader/internal/infrastructure/exchange/okx"
	"sigtrader/internal/infrastructure/logger"
	"sigtrader/internal/infrastructure/metrics"
	"sigtrader/internal/infrastructure/notify"
	"sigtrader/internal/infrastructure/oracle"
	"sigtrader/internal/infrastructure/storage"
)

func main() {
	logger.Setup("info")

	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.Setup(cfg.App.LogLevel)

	creds, err := config.LoadCredentials()
	if err != nil {
		log.Fatal().Err(err).Msg("load credentials failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("open storage failed")
	}

	var feed *okx.TickerFeed
	if cfg.Exchange.UseTickerFeed {
		feed = okx.NewTickerFeed(cfg.Exchange.WsURL, cfg.Trading.Symbol)
		go feed.Run(ctx)
	}

	exchange := okx.NewClient(
		cfg.Exchange.RestURL,
		okx.NewCredentials(creds.APIKey, creds.APISecret, creds.Passphrase),
		cfg.Trading.Symbol,
		cfg.Trading.MarginMode,
		feed,
	)
	if err := exchange.SetLeverage(ctx, cfg.Trading.Leverage); err != nil {
		log.Error().Err(err).Msg("set leverage failed")
	}

	var scorer port.TrendScorer = service.KeywordScorer{}
	if cfg.Trading.TrendScorer == "indicator" {
		scorer = service.IndicatorScorer{Fallback: service.KeywordScorer{}}
	}

	var notifier port.Notifier
	if creds.TelegramToken != "" && cfg.Telegram.ChatID != 0 {
		tg, err := notify.NewTelegramNotifier(creds.TelegramToken, cfg.Telegram.ChatID)
		if err != nil {
			log.Error().Err(err).Msg("telegram notifier unavailable")
		} else {
			notifier = tg
		}
	}

	var recorder port.MetricsRecorder
	if cfg.Metrics.Enabled {
		recorder = metrics.NewRecorder()
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.Listen, mux); err != nil {
				log.Error().Err(err).Msg("metrics listener failed")
			}
		}()
	}

	c := container.New(container.Deps{
		Exchange:       exchange,
		Provider:       oracle.NewClient(cfg.Oracle.URL, time.Duration(cfg.Oracle.TimeoutSec)*time.Second),
		Store:          store,
		Notifier:       notifier,
		Metrics:        recorder,
		Scorer:         scorer,
		Config:         cfg.TradingConfig(),
		CycleTimeout:   time.Duration(cfg.App.CycleTimeoutSec) * time.Second,
		ErrorThreshold: cfg.App.ErrorAlertThreshold,
	})
	defer func() {
		if err := c.Close(); err != nil {
			log.Error().Err(err).Msg("close failed")
		}
	}()

	runner := c.Runner(ctx)

	interval, err := cycleInterval(cfg.Trading.Timeframe)
	if err != nil {
		log.Fatal().Err(err).Str("timeframe", cfg.Trading.Timeframe).Msg("bad timeframe")
	}

	log.Info().
		Str("symbol", cfg.Trading.Symbol).
		Str("timeframe", cfg.Trading.Timeframe).
		Int("leverage", cfg.Trading.Leverage).
		Str("storage", cfg.Storage.Driver).
		Msg("sigtrader started")

	run(ctx, runner, interval)

	log.Info().Msg("sigtrader stopped")
}

// run executes one cycle immediately, then one per timeframe boundary until
// the context is cancelled.
func run(ctx context.Context, runner *service.Runner, interval time.Duration) {
	for {
		runner.RunCycle(ctx)

		next := time.Now().Truncate(interval).Add(interval)
		wait := time.Until(next)
		log.Info().Dur("wait", wait).Time("next", next).Msg("waiting for next cycle")

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// cycleInterval converts a unit-suffixed timeframe (15m, 4h, 1d) into a
// duration.
func cycleInterval(timeframe string) (time.Duration, error) {
	if strings.HasSuffix(timeframe, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(timeframe, "d"))
		if err != nil {
			return 0, err
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(timeframe)
}
