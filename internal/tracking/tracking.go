// Package tracking records training runs in an MLflow tracking server. It
// is best-effort: callers log failures and carry on, and a circuit breaker
// stops calling a server that keeps failing.
package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/JaimeStill/soilguardian/internal/metrics"
)

var (
	// ErrUnavailable indicates the tracking server could not be reached or
	// the circuit breaker is open.
	ErrUnavailable = errors.New("tracking unavailable")

	errNotFound = errors.New("resource does not exist")
)

// Run is one tracked training run.
type Run struct {
	Name    string
	Params  map[string]string
	Metrics map[string]float64
	Tags    map[string]string
	Failed  bool
}

// Tracker records runs.
type Tracker interface {
	// LogRun records a complete run and returns its run ID.
	LogRun(ctx context.Context, run Run) (string, error)
}

// New returns an MLflow-backed tracker, or a no-op tracker when tracking is
// disabled.
func New(cfg *Config, logger *slog.Logger) Tracker {
	logger = logger.With("system", "tracking")
	if !cfg.IsEnabled() {
		return noop{}
	}

	return &client{
		base:       strings.TrimRight(cfg.URI, "/"),
		experiment: cfg.Experiment,
		http:       &http.Client{Timeout: cfg.TimeoutDuration()},
		breaker:    newBreaker(cfg, logger),
		logger:     logger,
	}
}

type noop struct{}

func (noop) LogRun(context.Context, Run) (string, error) {
	return "", nil
}

func newBreaker(cfg *Config, logger *slog.Logger) *gobreaker.CircuitBreaker[any] {
	threshold := cfg.FailureThreshold
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "mlflow",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeoutDuration(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

type client struct {
	base       string
	experiment string
	http       *http.Client
	breaker    *gobreaker.CircuitBreaker[any]
	logger     *slog.Logger

	mu           sync.Mutex
	experimentID string
}

type keyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type metric struct {
	Key       string  `json:"key"`
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"`
	Step      int64   `json:"step"`
}

func (c *client) LogRun(ctx context.Context, run Run) (string, error) {
	expID, err := c.experimentIDFor(ctx)
	if err != nil {
		return "", c.fail("experiment", err)
	}

	now := time.Now().UnixMilli()

	var created struct {
		Run struct {
			Info struct {
				RunID string `json:"run_id"`
			} `json:"info"`
		} `json:"run"`
	}
	err = c.call(ctx, http.MethodPost, "/api/2.0/mlflow/runs/create", map[string]any{
		"experiment_id": expID,
		"run_name":      run.Name,
		"start_time":    now,
		"tags":          pairs(run.Tags),
	}, &created)
	if err != nil {
		return "", c.fail("create_run", err)
	}
	runID := created.Run.Info.RunID

	ms := make([]metric, 0, len(run.Metrics))
	for _, k := range slices.Sorted(maps.Keys(run.Metrics)) {
		ms = append(ms, metric{Key: k, Value: run.Metrics[k], Timestamp: now})
	}
	err = c.call(ctx, http.MethodPost, "/api/2.0/mlflow/runs/log-batch", map[string]any{
		"run_id":  runID,
		"params":  pairs(run.Params),
		"metrics": ms,
	}, nil)
	if err != nil {
		return runID, c.fail("log_batch", err)
	}

	status := "FINISHED"
	if run.Failed {
		status = "FAILED"
	}
	err = c.call(ctx, http.MethodPost, "/api/2.0/mlflow/runs/update", map[string]any{
		"run_id":   runID,
		"status":   status,
		"end_time": time.Now().UnixMilli(),
	}, nil)
	if err != nil {
		return runID, c.fail("update_run", err)
	}

	c.logger.Info("run tracked", "run_id", runID, "experiment_id", expID)
	return runID, nil
}

func (c *client) experimentIDFor(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.experimentID != "" {
		return c.experimentID, nil
	}

	var found struct {
		Experiment struct {
			ExperimentID string `json:"experiment_id"`
		} `json:"experiment"`
	}
	path := "/api/2.0/mlflow/experiments/get-by-name?experiment_name=" + url.QueryEscape(c.experiment)
	err := c.call(ctx, http.MethodGet, path, nil, &found)
	switch {
	case err == nil:
		c.experimentID = found.Experiment.ExperimentID
		return c.experimentID, nil
	case !errors.Is(err, errNotFound):
		return "", err
	}

	var created struct {
		ExperimentID string `json:"experiment_id"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/2.0/mlflow/experiments/create", map[string]any{
		"name": c.experiment,
	}, &created); err != nil {
		return "", err
	}

	c.logger.Info("experiment created", "experiment", c.experiment, "experiment_id", created.ExperimentID)
	c.experimentID = created.ExperimentID
	return c.experimentID, nil
}

func (c *client) call(ctx context.Context, method, path string, body, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.do(ctx, method, path, body, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *client) fail(operation string, err error) error {
	metrics.RecordTrackingFailure(operation)
	return fmt.Errorf("tracking %s: %w", operation, err)
}

func pairs(m map[string]string) []keyValue {
	out := make([]keyValue, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, keyValue{Key: k, Value: m[k]})
	}
	return out
}
