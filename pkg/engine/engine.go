// Package engine orchestrates the habit prediction pipeline: it engineers
// training data, trains the two base models, evaluates the ensemble and
// serves ranked per-habit predictions with a heuristic fallback when history
// is too thin for the models.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/habitpred/habitpred/pkg/evaluation"
	"github.com/habitpred/habitpred/pkg/features"
	"github.com/habitpred/habitpred/pkg/habit"
	"github.com/habitpred/habitpred/pkg/logx"
	"github.com/habitpred/habitpred/pkg/models"
)

// Config holds engine hyperparameters. Zero values take the defaults.
type Config struct {
	// MinLogsForML gates both the overall trained state and the per-habit
	// choice between model and heuristic predictions.
	MinLogsForML int

	// EnsembleLogisticWeight blends the two model probabilities on the live
	// prediction path: w*logistic + (1-w)*tree. The evaluation path always
	// uses the plain 50/50 average.
	EnsembleLogisticWeight float64

	LearningRate    float64
	Iterations      int
	MaxDepth        int
	MinSamplesSplit int
	Folds           int
}

// Defaults for Config.
const (
	DefaultMinLogsForML           = 8
	DefaultEnsembleLogisticWeight = 0.6
)

func (c Config) withDefaults() Config {
	if c.MinLogsForML <= 0 {
		c.MinLogsForML = DefaultMinLogsForML
	}
	if c.EnsembleLogisticWeight <= 0 || c.EnsembleLogisticWeight > 1 {
		c.EnsembleLogisticWeight = DefaultEnsembleLogisticWeight
	}
	if c.Folds <= 0 {
		c.Folds = evaluation.DefaultFolds
	}
	return c
}

// State is the externally visible model state after a training attempt.
type State struct {
	IsTrained         bool               `json:"is_trained"`
	TrainedAt         time.Time          `json:"trained_at"`
	TotalSamples      int                `json:"total_samples"`
	Accuracy          float64            `json:"accuracy"`
	FeatureImportance map[string]float64 `json:"feature_importance,omitempty"`
}

// Engine is the prediction orchestrator. Train holds the write lock for the
// whole pipeline, so concurrent train calls serialize and predictions never
// observe half-updated models.
type Engine struct {
	mu     sync.RWMutex
	config Config
	logger *logx.Logger

	logistic *models.Logistic
	tree     *models.Tree
	state    State
	report   *evaluation.PerformanceReport
}

// New creates an untrained engine.
func New(config Config, logger *logx.Logger) *Engine {
	if logger == nil {
		logger = logx.New("info")
	}
	return &Engine{
		config: config.withDefaults(),
		logger: logger,
	}
}

// State returns a copy of the current model state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Report returns the last performance report, or nil when the engine is
// untrained.
func (e *Engine) Report() *evaluation.PerformanceReport {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.report
}

// Train runs the full pipeline over the given dataset. Failures never
// propagate: any error or panic downgrades the engine to untrained (keeping
// the computed sample count) and the returned state says so. Predictions
// keep working through the heuristic either way.
func (e *Engine) Train(habits []habit.Habit, logs []habit.Log) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("training pipeline panicked", "panic", fmt.Sprintf("%v", r))
			e.downgrade(e.state.TotalSamples)
		}
	}()

	td := features.CreateTrainingData(habits, logs)
	samples := len(td.Features)

	if len(logs) < e.config.MinLogsForML || samples == 0 {
		e.logger.Info("not enough data to train",
			"logs", len(logs), "samples", samples, "min_logs", e.config.MinLogsForML)
		e.downgrade(samples)
		return e.state
	}

	// Chronological 80/20 split: training data is date-ordered, so a prefix
	// split never trains on the future.
	split := int(0.8 * float64(samples))
	if split == 0 || split == samples {
		e.downgrade(samples)
		return e.state
	}

	modelCfg := evaluation.ModelConfig{
		Logistic: models.LogisticConfig{LearningRate: e.config.LearningRate, Iterations: e.config.Iterations},
		Tree:     models.TreeConfig{MaxDepth: e.config.MaxDepth, MinSamplesSplit: e.config.MinSamplesSplit},
	}

	logistic, err := models.TrainLogistic(modelCfg.Logistic, td.Features[:split], td.Labels[:split])
	if err != nil {
		e.logger.Error("logistic training failed", "error", err)
		e.downgrade(samples)
		return e.state
	}
	tree, err := models.TrainTree(modelCfg.Tree, td.Features[:split], td.Labels[:split])
	if err != nil {
		e.logger.Error("tree training failed", "error", err)
		e.downgrade(samples)
		return e.state
	}

	report, err := e.evaluate(modelCfg, logistic, tree, td, split, habits, logs)
	if err != nil {
		e.logger.Error("model evaluation failed", "error", err)
		e.downgrade(samples)
		return e.state
	}

	e.logistic = logistic
	e.tree = tree
	e.report = report
	e.state = State{
		IsTrained:         true,
		TrainedAt:         time.Now(),
		TotalSamples:      samples,
		Accuracy:          report.Ensemble.Accuracy,
		FeatureImportance: report.FeatureImportance,
	}

	e.logger.Info("model trained",
		"samples", samples,
		"train", split,
		"test", samples-split,
		"ensemble_accuracy", report.Ensemble.Accuracy,
		"ensemble_auc", report.Ensemble.ROCAUC,
	)
	return e.state
}

// evaluate scores both models and the 50/50 ensemble on the held-out slice
// and runs the full-set diagnostics.
func (e *Engine) evaluate(cfg evaluation.ModelConfig, logistic *models.Logistic, tree *models.Tree,
	td features.TrainingData, split int, habits []habit.Habit, logs []habit.Log,
) (*evaluation.PerformanceReport, error) {
	testX := td.Features[split:]
	testY := td.Labels[split:]

	probsL := make([]float64, len(testX))
	probsT := make([]float64, len(testX))
	probsE := make([]float64, len(testX))
	predsL := make([]float64, len(testX))
	predsT := make([]float64, len(testX))
	predsE := make([]float64, len(testX))
	for i, x := range testX {
		probsL[i] = logistic.Predict(x)
		probsT[i] = tree.Predict(x)
		probsE[i] = (probsL[i] + probsT[i]) / 2
		predsL[i] = threshold(probsL[i])
		predsT[i] = threshold(probsT[i])
		predsE[i] = threshold(probsE[i])
	}

	mL, err := evaluation.CalculateMetrics(predsL, testY, probsL)
	if err != nil {
		return nil, err
	}
	mT, err := evaluation.CalculateMetrics(predsT, testY, probsT)
	if err != nil {
		return nil, err
	}
	mE, err := evaluation.CalculateMetrics(predsE, testY, probsE)
	if err != nil {
		return nil, err
	}

	report := &evaluation.PerformanceReport{
		Logistic:          mL,
		Tree:              mT,
		Ensemble:          mE,
		FeatureImportance: features.Importance(td.Features, td.Labels),
		DataQuality:       evaluation.AssessDataQuality(habits, logs),
		TrainSamples:      split,
		TestSamples:       len(testX),
		GeneratedAt:       time.Now(),
	}

	if cv, err := evaluation.CrossValidate(cfg, td.Features, td.Labels, e.config.Folds); err != nil {
		e.logger.Warn("cross-validation skipped", "error", err)
	} else {
		report.CrossValidation = cv
	}
	report.LearningCurve = evaluation.LearningCurve(cfg, td.Features, td.Labels, nil)

	return report, nil
}

// downgrade resets to the untrained state, discarding any stale models and
// report so state and diagnostics cannot disagree.
func (e *Engine) downgrade(samples int) {
	e.logistic = nil
	e.tree = nil
	e.report = nil
	e.state = State{TotalSamples: samples}
}

func threshold(p float64) float64 {
	if p > 0.5 {
		return 1
	}
	return 0
}
