// Package metrics exposes Prometheus metrics for the habitpred daemon.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/habitpred/habitpred/pkg/engine"
	"github.com/habitpred/habitpred/pkg/evaluation"
	"github.com/habitpred/habitpred/pkg/logx"
)

// Server provides Prometheus metrics and a health endpoint.
type Server struct {
	logger   *logx.Logger
	registry *prometheus.Registry
	server   *http.Server

	modelTrained    prometheus.Gauge
	trainingSamples prometheus.Gauge
	modelAccuracy   *prometheus.GaugeVec
	modelAUC        *prometheus.GaugeVec
	trainings       *prometheus.CounterVec
	predictions     prometheus.Counter
	lastTrainedAt   prometheus.Gauge
}

// NewServer creates a metrics server with its own registry, so independent
// instances never collide on registration.
func NewServer(logger *logx.Logger) *Server {
	s := &Server{
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
	s.registerMetrics()
	return s
}

func (s *Server) registerMetrics() {
	s.modelTrained = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "habitpred_model_trained",
		Help: "Whether the prediction engine currently holds a trained model (1=trained)",
	})
	s.trainingSamples = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "habitpred_training_samples",
		Help: "Number of engineered samples in the last training attempt",
	})
	s.modelAccuracy = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "habitpred_model_accuracy",
		Help: "Held-out accuracy per model from the last training run",
	}, []string{"model"})
	s.modelAUC = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "habitpred_model_roc_auc",
		Help: "Held-out ROC AUC per model from the last training run",
	}, []string{"model"})
	s.trainings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "habitpred_trainings_total",
		Help: "Total training attempts by result",
	}, []string{"result"})
	s.predictions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "habitpred_predictions_total",
		Help: "Total predictions served",
	})
	s.lastTrainedAt = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "habitpred_last_trained_timestamp_seconds",
		Help: "Unix timestamp of the last successful training",
	})

	s.registry.MustRegister(
		s.modelTrained,
		s.trainingSamples,
		s.modelAccuracy,
		s.modelAUC,
		s.trainings,
		s.predictions,
		s.lastTrainedAt,
	)
}

// Start serves /metrics and /health on the given port.
func (s *Server) Start(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", s.healthHandler)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	s.logger.Info("starting metrics server", "port", port)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("metrics server error", "error", err)
		}
	}()
	return nil
}

// Stop shuts the listener down gracefully.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("stopping metrics server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}

// RecordTraining updates the model gauges after a training attempt and
// counts it under the given result label ("trained", "insufficient_data",
// "failed").
func (s *Server) RecordTraining(state engine.State, report *evaluation.PerformanceReport, result string) {
	s.trainings.With(prometheus.Labels{"result": result}).Inc()
	s.trainingSamples.Set(float64(state.TotalSamples))

	if !state.IsTrained {
		s.modelTrained.Set(0)
		return
	}
	s.modelTrained.Set(1)
	s.lastTrainedAt.Set(float64(state.TrainedAt.Unix()))

	if report == nil {
		return
	}
	for model, m := range map[string]evaluation.Metrics{
		"logistic": report.Logistic,
		"tree":     report.Tree,
		"ensemble": report.Ensemble,
	} {
		s.modelAccuracy.With(prometheus.Labels{"model": model}).Set(m.Accuracy)
		s.modelAUC.With(prometheus.Labels{"model": model}).Set(m.ROCAUC)
	}
}

// RecordPredictions counts served predictions.
func (s *Server) RecordPredictions(n int) {
	s.predictions.Add(float64(n))
}
