package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fentz26/cleanops/internal/audit"
	"github.com/fentz26/cleanops/internal/cache"
	"github.com/fentz26/cleanops/internal/config"
	"github.com/fentz26/cleanops/internal/controlplane"
	"github.com/fentz26/cleanops/internal/events"
	"github.com/fentz26/cleanops/internal/logging"
	"github.com/fentz26/cleanops/internal/metrics"
	"github.com/fentz26/cleanops/internal/scheduler"
	"github.com/fentz26/cleanops/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	listenAddr string
	dbPath     string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start the CleanOps daemon",
	Long:  `Starts the CleanOps daemon which serves the HTTP API and runs the alert scheduler.`,
	RunE:  runDaemon,
}

func init() {
	daemonCmd.Flags().StringVar(&configPath, "config", "cleanops.yaml", "Path to the YAML config file")
	daemonCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides config)")
	daemonCmd.Flags().StringVar(&dbPath, "db", "", "Path to SQLite database (overrides config)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}

	logger := logging.New(cfg.LogLevel, os.Stdout)
	logger.WithFields(logrus.Fields{"db": cfg.DBPath, "listen": cfg.Listen}).Info("starting cleanops daemon")

	s, err := store.New(cfg.DBPath)
	if err != nil {
		return err
	}
	pdr := audit.NewPDRWriter(s)

	var publisher events.Publisher = events.Nop{}
	if len(cfg.Events.Brokers) > 0 {
		publisher = events.NewKafka(cfg.Events.Brokers, cfg.Events.Topic)
		logger.WithFields(logrus.Fields{"brokers": cfg.Events.Brokers, "topic": cfg.Events.Topic}).Info("publishing events to kafka")
	}
	defer publisher.Close()

	var statsCache cache.StatsCache = cache.Nop{}
	if cfg.Cache.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       0,
		})
		defer rdb.Close()
		if err := rdb.Ping(cmd.Context()).Err(); err != nil {
			s.Close()
			return fmt.Errorf("failed to connect redis: %w", err)
		}
		statsCache = cache.NewRedis(rdb, cfg.Cache.TTL)
		logger.WithField("addr", cfg.Cache.RedisAddr).Info("stats cache enabled")
	}

	collector := metrics.NewPrometheus(prometheus.DefaultRegisterer, "cleanops")

	service := controlplane.NewService(s, pdr, controlplane.Options{
		Batch:     &cfg.Batch,
		Lifecycle: cfg.Lifecycle,
		Alerts:    &cfg.Alerts,
		Publisher: publisher,
		Metrics:   collector,
		Cache:     statsCache,
		Logger:    logger,
	})
	server := controlplane.NewServer(service, cfg.Listen, prometheus.DefaultGatherer, logger)

	sched := scheduler.New(s, publisher, collector, logger, &scheduler.Config{Interval: cfg.Watcher.Interval}, cfg.Alerts)
	sched.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		err := server.Start()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("initiating graceful shutdown")
	case err := <-serverErr:
		if err != nil {
			logger.WithError(err).Error("server error")
			sched.Stop()
			s.Close()
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Info("shutting down HTTP server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP server shutdown error")
	}

	sched.Stop()

	logger.Info("closing database connection")
	if err := s.Close(); err != nil {
		logger.WithError(err).Warn("database close error")
	}

	logger.Info("shutdown complete")
	return nil
}
