// Package main implements feedbridge-relay, a daemon that streams live
// market data from a WebSocket gateway and republishes every record to
// NATS, with Prometheus metrics on the side.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/c360/feedbridge/errors"
	"github.com/c360/feedbridge/live"
	"github.com/c360/feedbridge/metric"
	"github.com/c360/feedbridge/relay"
	"github.com/c360/feedbridge/wsfeed"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "feedbridge-relay"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("relay failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if cliCfg.ShowVersion {
		fmt.Printf("%s %s\n", appName, Version)
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := loadConfig(cliCfg.ConfigPath)
	if err != nil {
		return err
	}
	if cliCfg.Validate {
		logger.Info("configuration is valid", "path", cliCfg.ConfigPath)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics endpoint
	registry := metric.NewMetricsRegistry()
	var metricsSrv *metric.Server
	if cliCfg.MetricsPort > 0 {
		metricsSrv = metric.NewServer(cliCfg.MetricsPort, "/metrics", registry)
		go func() {
			if err := metricsSrv.Start(); err != nil {
				logger.Error("metrics server", "error", err)
			}
		}()
		logger.Info("metrics listening", "addr", metricsSrv.Address())
	}

	// Upstream feed
	engine, err := wsfeed.New(cfg.Feed, wsfeed.WithLogger(logger))
	if err != nil {
		return err
	}
	client, err := live.New(engine,
		live.WithLogger(logger),
		live.WithMetrics(registry),
		live.WithShutdownGrace(cliCfg.ShutdownTimeout))
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("client close", "error", err)
		}
	}()

	// Downstream publisher
	rly, err := relay.Connect(cfg.NATS.URL, cfg.Relay,
		relay.WithLogger(logger),
		relay.WithSymbolMap(client.SymbolMap()))
	if err != nil {
		return err
	}
	defer rly.Close()

	for _, sub := range cfg.Subscriptions {
		if err := client.Subscribe(sub); err != nil {
			return err
		}
	}
	if err := client.OnRecord(rly.RecordObserver()); err != nil {
		return err
	}
	if err := client.OnError(rly.ErrorObserver()); err != nil {
		return err
	}

	md, err := client.Start(ctx)
	if err != nil {
		return err
	}
	logger.Info("streaming",
		"dataset", md.Dataset,
		"resolved", len(md.Symbols),
		"not_found", len(md.NotFound))

	// Drain the pull stream so backpressure and in-band errors are
	// observed; the relay itself feeds off the push observers.
	stream, err := client.Stream()
	if err != nil {
		return err
	}
	for {
		_, err := stream.Next(ctx)
		switch {
		case err == nil:
			continue
		case errors.Is(err, errors.ErrStreamEnd):
			logger.Info("stream ended",
				"published", rly.Published(),
				"dropped", rly.Dropped())
			return shutdown(client, metricsSrv, logger)
		case errors.Is(err, context.Canceled):
			logger.Info("signal received, stopping")
			if err := client.Stop(); err != nil {
				logger.Warn("stop", "error", err)
			}
			return shutdown(client, metricsSrv, logger)
		case errors.IsFatal(err) || errors.Is(err, errors.ErrConnectionLost):
			logger.Error("stream terminated", "error", err)
			_ = shutdown(client, metricsSrv, logger)
			return err
		default:
			// Transient in-band error; the stream survives.
			logger.Warn("stream error", "error", err)
		}
	}
}

func shutdown(client *live.Client, metricsSrv *metric.Server, logger *slog.Logger) error {
	if err := client.Close(); err != nil {
		logger.Warn("client close", "error", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Stop(); err != nil {
			logger.Warn("metrics server stop", "error", err)
		}
	}
	return nil
}
