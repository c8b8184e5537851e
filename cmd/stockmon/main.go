package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"stockmon/internal/config"
	"stockmon/internal/feed"
	"stockmon/internal/logger"
	"stockmon/internal/monitor"
	"stockmon/internal/netcheck"
	"stockmon/internal/notify"
	"stockmon/internal/schedule"
	"stockmon/internal/storage"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	gate, err := schedule.New(cfg.Trading.Ranges)
	if err != nil {
		logger.Fatal("Failed to build trading schedule: %v", err)
	}

	journal, err := storage.New(cfg.Journal.MaxAlerts, cfg.Journal.Path)
	if err != nil {
		logger.Fatal("Failed to initialize alert journal: %v", err)
	}
	defer func() {
		if err := journal.Close(); err != nil {
			logger.Error("Failed to close alert journal: %v", err)
		}
	}()

	notifier := buildNotifier(cfg)
	dispatcher := notify.NewDispatcher(notifier, cfg.Notify.Cooldown)

	health := netcheck.New(cfg.Network.ProbeHost, cfg.Network.ProbePort, cfg.Network.ProbeTimeout)
	source := feed.NewClient(cfg.Feed.DialTimeout, cfg.Feed.ReadTimeout)

	mon := monitor.New(
		monitor.Config{
			Host:          cfg.Feed.Host,
			Port:          cfg.Feed.Port,
			PollInterval:  cfg.Feed.PollInterval,
			IdleInterval:  cfg.Feed.IdleInterval,
			MaxRetries:    cfg.Feed.MaxRetries,
			RetryDelay:    cfg.Feed.RetryDelay,
			MaxNetRetries: cfg.Network.MaxRetries,
			NetRetryBase:  cfg.Network.RetryBase,
		},
		gate, health, source, dispatcher, notifier, journal, cfg.Symbols,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	if err := mon.Run(ctx); err != nil {
		logger.Fatal("Monitor terminated: %v", err)
	}
}

// buildNotifier assembles the enabled notification backends. With every
// backend disabled the log-only fallback keeps alerts visible.
func buildNotifier(cfg *config.Config) notify.Notifier {
	var backends notify.Multi

	if cfg.Notify.Desktop.Enabled {
		backends = append(backends, notify.NewDesktop(cfg.Notify.Desktop.AppLabel, cfg.Notify.Desktop.Timeout))
	}

	if cfg.Notify.Telegram.Enabled {
		tg, err := notify.NewTelegram(
			cfg.Notify.Telegram.BotToken,
			cfg.Notify.Telegram.ChatID,
			cfg.Notify.Telegram.MaxRetries,
			cfg.Notify.Telegram.RetryDelayBase,
		)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		backends = append(backends, tg)
		logger.Info("Telegram notifications enabled")
	}

	if len(backends) == 0 {
		logger.Warn("no notification backend enabled, alerts will only be logged")
		return notify.LogNotifier{}
	}
	return backends
}
