package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/habitpred/habitpred/pkg/config"
	"github.com/habitpred/habitpred/pkg/engine"
	"github.com/habitpred/habitpred/pkg/logx"
	"github.com/habitpred/habitpred/pkg/metrics"
	"github.com/habitpred/habitpred/pkg/mqttpub"
	"github.com/habitpred/habitpred/pkg/store"
)

const (
	version = "1.0.0-dev"
	appName = "habitpredd"
)

func main() {
	var (
		envFile     = flag.String("env", "", "Optional .env file path")
		logLevel    = flag.String("log-level", "", "Log level (debug|info|warn|error), overrides config")
		showVersion = flag.Bool("version", false, "Show version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s version %s\n", appName, version)
		os.Exit(0)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	effectiveLogLevel := cfg.LogLevel
	if *logLevel != "" {
		effectiveLogLevel = *logLevel
	}
	logger := logx.New(effectiveLogLevel)

	logger.Info("starting habitpred daemon",
		"version", version,
		"db", cfg.DBPath,
		"log_level", effectiveLogLevel,
		"retrain_interval", cfg.RetrainInterval.String(),
	)

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open store", "error", err, "db", cfg.DBPath)
		os.Exit(1)
	}
	defer st.Close()

	eng := engine.New(engine.Config{
		MinLogsForML:           cfg.MinLogsForML,
		EnsembleLogisticWeight: cfg.EnsembleWeight,
	}, logger)

	var metricsServer *metrics.Server
	if cfg.MetricsEnabled {
		metricsServer = metrics.NewServer(logger)
		if err := metricsServer.Start(cfg.MetricsPort); err != nil {
			logger.Error("failed to start metrics server", "error", err)
			os.Exit(1)
		}
		defer metricsServer.Stop()
	}

	var publisher *mqttpub.Client
	if cfg.MQTTEnabled() {
		publisher = mqttpub.NewClient(&mqttpub.Config{
			Broker:      cfg.MQTTBroker,
			Port:        cfg.MQTTPort,
			ClientID:    cfg.MQTTClientID,
			Username:    cfg.MQTTUsername,
			Password:    cfg.MQTTPassword,
			TopicPrefix: cfg.MQTTTopicPrefix,
			QoS:         1,
			Enabled:     true,
		}, logger)
		if err := publisher.Connect(); err != nil {
			// Telemetry egress is best effort; the daemon keeps running.
			logger.Warn("mqtt connect failed, continuing without egress", "error", err)
			publisher = nil
		} else {
			defer publisher.Disconnect()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	d := &daemon{
		config:    cfg,
		logger:    logger,
		store:     st,
		engine:    eng,
		metrics:   metricsServer,
		publisher: publisher,
	}

	// Train once at startup so predictions are available immediately.
	d.retrain()

	ticker := time.NewTicker(cfg.RetrainInterval)
	defer ticker.Stop()

	logger.Info("habitpred daemon started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("context cancelled, shutting down")
			return
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig.String())
			cancel()
		case <-ticker.C:
			d.retrain()
		}
	}
}

// daemon ties the storage, engine and telemetry pieces together for the
// periodic retrain loop.
type daemon struct {
	config    *config.Config
	logger    *logx.Logger
	store     *store.Store
	engine    *engine.Engine
	metrics   *metrics.Server
	publisher *mqttpub.Client

	lastLogCount int
	trainedOnce  bool
}

// retrain reloads the dataset and retrains unless the log count is unchanged
// since the last attempt.
func (d *daemon) retrain() {
	count, err := d.store.CountLogs()
	if err != nil {
		d.logger.Error("failed to count logs", "error", err)
		return
	}
	if d.trainedOnce && count == d.lastLogCount {
		d.logger.Debug("no new logs since last training, skipping", "logs", count)
		return
	}
	d.lastLogCount = count
	d.trainedOnce = true

	habits, err := d.store.Habits()
	if err != nil {
		d.logger.Error("failed to load habits", "error", err)
		return
	}
	logs, err := d.store.Logs()
	if err != nil {
		d.logger.Error("failed to load logs", "error", err)
		return
	}

	state := d.engine.Train(habits, logs)
	result := "trained"
	if !state.IsTrained {
		result = "insufficient_data"
	}
	if d.metrics != nil {
		d.metrics.RecordTraining(state, d.engine.Report(), result)
	}

	top := d.engine.TopPredictionsFor(habits, logs, time.Now(), d.config.TopCount)
	if d.metrics != nil {
		d.metrics.RecordPredictions(len(top.Today) + len(top.Tomorrow))
	}

	if d.publisher != nil {
		if err := d.publisher.PublishTrainingState(state); err != nil {
			d.logger.Warn("failed to publish training state", "error", err)
		}
		if err := d.publisher.PublishPredictions(top); err != nil {
			d.logger.Warn("failed to publish predictions", "error", err)
		}
	}
}
