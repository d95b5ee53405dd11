package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/salvir1/covid-undercount/internal/domain"
	"github.com/salvir1/covid-undercount/internal/observability"
)

// Extractor produces the raw cumulative case rows for one batch run.
type Extractor interface {
	Extract(ctx context.Context) ([]domain.RawRecord, error)
}

// Loader persists a finished result table.
type Loader interface {
	Load(ctx context.Context, table domain.ResultTable) error
}

// Run states reported by Status.
const (
	StateIdle      = "idle"
	StateRunning   = "running"
	StateSucceeded = "succeeded"
	StateFailed    = "failed"
)

// RunStatus is a snapshot of the most recent pipeline run.
type RunStatus struct {
	RunID      string         `json:"run_id,omitempty"`
	State      string         `json:"state"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Regions    int            `json:"regions"`
	Variants   []string       `json:"variants,omitempty"`
	Undefined  map[string]int `json:"undefined_ratios,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Options carries the analysis parameters for a pipeline run.
type Options struct {
	Variants        []domain.RuleSet
	Windows         domain.Windows
	SmoothingWindow int
	Workers         int
}

// Pipeline orchestrates one extract-analyze-load pass over the case data.
type Pipeline struct {
	extractor Extractor
	loader    Loader
	variants  []domain.RuleSet
	windows   domain.Windows
	window    int
	workers   int
	logger    *slog.Logger
	metrics   *observability.Metrics

	ready atomic.Bool

	mu     sync.Mutex
	status RunStatus
}

// New creates a Pipeline with the given stages, parameters, and observability.
func New(e Extractor, l Loader, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	window := opts.SmoothingWindow
	if window < 1 {
		window = domain.DefaultSmoothingWindow
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		extractor: e,
		loader:    l,
		variants:  opts.Variants,
		windows:   opts.Windows,
		window:    window,
		workers:   workers,
		logger:    logger,
		metrics:   metrics,
		status:    RunStatus{State: StateIdle},
	}
}

// CheckReadiness returns nil once the pipeline has completed a run,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Status returns a snapshot of the most recent run for the admin endpoint.
func (p *Pipeline) Status() RunStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Run executes one batch pass: validate variants, extract, normalize,
// analyze every region, and load the result table.
func (p *Pipeline) Run(ctx context.Context) error {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	start := time.Now()
	p.setRunning(runID, start)
	logger.Info("pipeline run started",
		"variants", len(p.variants),
		"smoothing_window", p.window,
		"workers", p.workers,
	)

	table, err := p.run(ctx, logger)
	if err != nil {
		p.metrics.PipelineRuns.WithLabelValues("error").Inc()
		p.setFailed(err)
		logger.Error("pipeline run failed", "error", err)
		return err
	}

	p.metrics.PipelineRuns.WithLabelValues("success").Inc()
	p.metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	p.metrics.PipelineReady.Set(1)
	p.ready.Store(true)
	p.setSucceeded(table)

	logger.Info("pipeline run complete",
		"regions", len(table.Rows),
		"variants", len(table.Variants),
		"duration", time.Since(start),
	)
	return nil
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger) (domain.ResultTable, error) {
	if len(p.variants) == 0 {
		return domain.ResultTable{}, errors.New("no undercount variants configured")
	}
	for _, rs := range p.variants {
		if err := rs.Validate(); err != nil {
			return domain.ResultTable{}, fmt.Errorf("validate variants: %w", err)
		}
	}

	rows, err := p.extractor.Extract(ctx)
	if err != nil {
		return domain.ResultTable{}, fmt.Errorf("extract case rows: %w", err)
	}
	p.metrics.RowsIngested.Add(float64(len(rows)))
	logger.Info("case rows extracted", "rows", len(rows))

	series, err := domain.Normalize(rows)
	if err != nil {
		return domain.ResultTable{}, fmt.Errorf("normalize case rows: %w", err)
	}
	logger.Info("regions normalized", "regions", len(series))

	// Each region is analyzed independently; slots are owned by index so
	// the workers never contend on the result slice.
	resultRows := make([]domain.ResultRow, len(series))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, s := range series {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			resultRows[i] = p.analyzeRegion(s)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.ResultTable{}, fmt.Errorf("analyze regions: %w", err)
	}
	p.metrics.RegionsProcessed.Add(float64(len(series)))

	table := domain.NewResultTable(variantNames(p.variants), resultRows)
	if err := p.loader.Load(ctx, table); err != nil {
		return domain.ResultTable{}, fmt.Errorf("load result table: %w", err)
	}
	return table, nil
}

func (p *Pipeline) setRunning(runID string, start time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = RunStatus{RunID: runID, State: StateRunning, StartedAt: start}
}

func (p *Pipeline) setFailed(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.State = StateFailed
	p.status.FinishedAt = time.Now()
	p.status.Error = err.Error()
}

func (p *Pipeline) setSucceeded(table domain.ResultTable) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.State = StateSucceeded
	p.status.FinishedAt = time.Now()
	p.status.Regions = len(table.Rows)
	p.status.Variants = table.Variants
	p.status.Undefined = table.UndefinedCounts()
	p.status.Error = ""
}
