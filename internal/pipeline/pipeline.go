package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/damianti/micro-organisms/internal/dataset"
	"go.uber.org/zap"
)

// State describes the lifecycle of a Pipeline.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StateFailed   State = "failed"
)

// Snapshot is the immutable result of one full pipeline run. Queries read
// from a snapshot; a reload builds a new one and swaps it in atomically.
type Snapshot struct {
	Aggregates *AggregateSet
	Integrity  dataset.IntegrityReport

	SourceDir  string
	MinSamples int
	LoadedAt   time.Time

	// Run diagnostics.
	TotalMetadataRows int
	MetagenomeRows    int
	JoinedRows        int
	RowsLost          int
	Duration          time.Duration
}

// Pipeline owns the loaded dataset lifecycle and the queryable aggregate
// state. Concurrent queries are safe: they read the current snapshot under
// a read lock, and a reload publishes a wholly new snapshot or none at all.
type Pipeline struct {
	logger *zap.Logger

	mu       sync.RWMutex
	state    State
	snapshot *Snapshot
	lastErr  error
}

// New creates an unloaded pipeline.
func New(logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{logger: logger, state: StateUnloaded}
}

// Run executes the full pipeline against the given data directory: load
// both sources, report integrity, filter and join, aggregate. On success
// the new snapshot replaces the previous one atomically. On failure no
// partial state is published; a previously ready snapshot stays queryable.
// Concurrent runs are rejected with ErrLoadInProgress.
func (p *Pipeline) Run(dir string, minSamples int) (*Snapshot, error) {
	p.mu.Lock()
	if p.state == StateLoading {
		p.mu.Unlock()
		return nil, ErrLoadInProgress
	}
	prev := p.state
	p.state = StateLoading
	p.mu.Unlock()

	snap, err := p.build(dir, minSamples)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.lastErr = err
		if p.snapshot != nil {
			// Keep serving the old snapshot after a failed reload.
			p.state = StateReady
		} else {
			p.state = StateFailed
		}
		p.logger.Error("pipeline run failed",
			zap.String("previous_state", string(prev)),
			zap.Error(err))
		return nil, err
	}

	p.snapshot = snap
	p.state = StateReady
	p.lastErr = nil
	return snap, nil
}

// build runs the pipeline stages without touching shared state.
func (p *Pipeline) build(dir string, minSamples int) (*Snapshot, error) {
	start := time.Now()

	loader := dataset.NewLoader(dir, p.logger)
	meta, abundance, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("loading sources: %w", err)
	}

	integrity := abundance.Integrity()
	p.logger.Info("abundance integrity",
		zap.Float64("mean_sum", integrity.MeanSum),
		zap.Float64("std_sum", integrity.StdSum),
		zap.Int("samples_near_100", integrity.SamplesNear100),
		zap.Int("total_samples", integrity.TotalSamples))

	join, err := Join(meta, abundance)
	if err != nil {
		return nil, fmt.Errorf("joining tables: %w", err)
	}
	p.logger.Info("tables joined",
		zap.Int("metadata_rows", join.TotalMetadataRows),
		zap.Int("metagenome_rows", join.MetagenomeRows),
		zap.Int("joined_rows", len(join.Rows)),
		zap.Int("rows_lost", join.RowsLost))

	aggregates, err := ComputeAggregates(join, minSamples)
	if err != nil {
		return nil, fmt.Errorf("computing aggregates: %w", err)
	}
	p.logger.Info("aggregates computed",
		zap.Int("environments", len(aggregates.Environments)),
		zap.Int("min_samples", minSamples))

	return &Snapshot{
		Aggregates:        aggregates,
		Integrity:         integrity,
		SourceDir:         dir,
		MinSamples:        minSamples,
		LoadedAt:          time.Now(),
		TotalMetadataRows: join.TotalMetadataRows,
		MetagenomeRows:    join.MetagenomeRows,
		JoinedRows:        len(join.Rows),
		RowsLost:          join.RowsLost,
		Duration:          time.Since(start),
	}, nil
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// LastError returns the error from the most recent failed run, if any.
func (p *Pipeline) LastError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

// Snapshot returns the current ready snapshot, or ErrNotReady before the
// first successful run.
func (p *Pipeline) Snapshot() (*Snapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.snapshot == nil {
		return nil, ErrNotReady
	}
	return p.snapshot, nil
}

// Composition returns one environment's composition view from the current
// snapshot.
func (p *Pipeline) Composition(environment string, minAbundance float64) (*Composition, error) {
	snap, err := p.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Aggregates.Composition(environment, minAbundance)
}

// Environments lists the aggregate set's environments by sample count.
func (p *Pipeline) Environments() ([]EnvironmentInfo, error) {
	snap, err := p.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Aggregates.EnvironmentList(), nil
}

// Stats computes the aggregate summary from the current snapshot.
func (p *Pipeline) Stats(minAbundance float64, topN int) (*StatsSummary, error) {
	snap, err := p.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Aggregates.Stats(minAbundance, topN), nil
}
