// Package training builds, evaluates and publishes classifier artifacts.
// It is the pipeline behind the train command.
package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/JaimeStill/soilguardian/internal/agronomy"
	"github.com/JaimeStill/soilguardian/internal/classifier"
	"github.com/JaimeStill/soilguardian/internal/soil"
	"github.com/JaimeStill/soilguardian/internal/tracking"
)

// Data sources.
const (
	SourceSynthetic = "synthetic"
	SourceCSV       = "csv"
)

// ErrInvalidOptions indicates unusable training options.
var ErrInvalidOptions = errors.New("invalid training options")

// Options controls a training run.
type Options struct {
	Source       string
	DataFile     string
	Samples      int
	Algorithm    classifier.Algorithm
	Version      string
	Seed         uint64
	SkipTracking bool
}

// DefaultOptions returns the options used when no flags are given.
func DefaultOptions() Options {
	return Options{
		Source:    SourceSynthetic,
		Samples:   1500,
		Algorithm: classifier.GaussianNB,
		Version:   "1.0.0",
		Seed:      42,
	}
}

func (o Options) validate() error {
	switch o.Source {
	case SourceSynthetic:
		if o.Samples <= 0 {
			return fmt.Errorf("%w: n_samples must be positive", ErrInvalidOptions)
		}
	case SourceCSV:
		if o.DataFile == "" {
			return fmt.Errorf("%w: csv source requires a data file", ErrInvalidOptions)
		}
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidOptions, o.Source)
	}
	if _, err := classifier.ParseAlgorithm(string(o.Algorithm)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	if o.Version == "" {
		return fmt.Errorf("%w: model version required", ErrInvalidOptions)
	}
	return nil
}

// Result describes a completed run.
type Result struct {
	Model   *classifier.Model
	RunID   string
	Tracked bool
}

// Trainer runs the training pipeline against shared infrastructure.
type Trainer struct {
	tables   *agronomy.Tables
	registry *classifier.Registry
	tracker  tracking.Tracker
	logger   *slog.Logger
}

// New creates a Trainer.
func New(
	tables *agronomy.Tables,
	registry *classifier.Registry,
	tracker tracking.Tracker,
	logger *slog.Logger,
) *Trainer {
	return &Trainer{
		tables:   tables,
		registry: registry,
		tracker:  tracker,
		logger:   logger.With("system", "training"),
	}
}

// Run loads data, fits a model, saves it to artifact storage and records the
// run with the tracker. Tracking failures are logged and never fail the run.
func (t *Trainer) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	samples, labels, err := t.data(opts)
	if err != nil {
		return nil, err
	}
	t.logger.Info("dataset loaded", "source", opts.Source, "samples", len(samples))

	ds, err := classifier.NewDataset(samples, labels)
	if err != nil {
		return nil, fmt.Errorf("build dataset: %w", err)
	}

	train := classifier.DefaultTrainOptions()
	train.Algorithm = opts.Algorithm
	train.Version = opts.Version
	train.Seed = opts.Seed

	m, err := classifier.Train(ds, train)
	if err != nil {
		return nil, fmt.Errorf("train model: %w", err)
	}
	t.logger.Info("model trained",
		"algorithm", m.Algorithm,
		"accuracy", m.Metrics.Accuracy,
		"f1", m.Metrics.F1,
	)

	if err := t.registry.Save(ctx, m); err != nil {
		return nil, err
	}

	result := &Result{Model: m}
	if opts.SkipTracking {
		return result, nil
	}

	runID, err := t.tracker.LogRun(ctx, run(m, opts, train.TestFraction))
	if err != nil {
		t.logger.Warn("training run not tracked", "error", err)
		return result, nil
	}
	result.RunID = runID
	result.Tracked = runID != ""
	return result, nil
}

func (t *Trainer) data(opts Options) ([]soil.Sample, []string, error) {
	if opts.Source == SourceSynthetic {
		samples, labels := classifier.Synthesize(t.tables, opts.Samples, opts.Seed)
		return samples, labels, nil
	}

	f, err := os.Open(opts.DataFile)
	if err != nil {
		return nil, nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	return classifier.ReadCSV(f)
}

func run(m *classifier.Model, opts Options, testFraction float64) tracking.Run {
	return tracking.Run{
		Name: "crop-model-" + m.Version,
		Params: map[string]string{
			"algorithm":     string(m.Algorithm),
			"data_source":   opts.Source,
			"n_samples":     strconv.Itoa(m.Samples),
			"random_seed":   strconv.FormatUint(opts.Seed, 10),
			"test_size":     strconv.FormatFloat(testFraction, 'f', -1, 64),
			"model_version": m.Version,
		},
		Metrics: map[string]float64{
			"accuracy":  m.Metrics.Accuracy,
			"precision": m.Metrics.Precision,
			"recall":    m.Metrics.Recall,
			"f1_score":  m.Metrics.F1,
		},
		Tags: map[string]string{
			"model_type": string(m.Algorithm),
			"classes":    strconv.Itoa(len(m.Classes)),
		},
	}
}
