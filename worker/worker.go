package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/assetflow/config"
	"github.com/BaSui01/assetflow/generation/cache"
	"github.com/BaSui01/assetflow/generation/pipeline"
	"github.com/BaSui01/assetflow/internal/pool"
	"github.com/BaSui01/assetflow/types"
)

// Resolver hands out the pipeline for a modality. *pipeline.Registry
// implements it.
type Resolver interface {
	Get(modality pipeline.Modality) (pipeline.Pipeline, error)
}

// Recorder receives job observations. Implemented by the metrics collector.
type Recorder interface {
	RecordJobSubmitted(modality string)
	RecordJobStarted()
	RecordJobFinished(modality, status string, duration time.Duration)
	RecordJobRetry(modality string)
}

type nopRecorder struct{}

func (nopRecorder) RecordJobSubmitted(string)                       {}
func (nopRecorder) RecordJobStarted()                               {}
func (nopRecorder) RecordJobFinished(string, string, time.Duration) {}
func (nopRecorder) RecordJobRetry(string)                           {}

// Option customizes a Worker.
type Option func(*Worker)

func WithLogger(logger *zap.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(w *Worker) {
		if r != nil {
			w.recorder = r
		}
	}
}

// WithClock replaces the time source used for timestamps and retention.
func WithClock(c cache.Clock) Option {
	return func(w *Worker) {
		if c != nil {
			w.clock = c
		}
	}
}

// WithBackoff replaces the delay before retry attempt n (1-based).
func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(w *Worker) {
		if fn != nil {
			w.backoff = fn
		}
	}
}

// Worker runs pipeline requests asynchronously on a bounded pool and keeps
// job records and finished assets in memory for the retention window.
type Worker struct {
	cfg       config.WorkerConfig
	pipelines Resolver
	pool      *pool.GoroutinePool
	recorder  Recorder
	clock     cache.Clock
	backoff   func(attempt int) time.Duration
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	jobs   map[string]*entry
	assets map[string]StoredAsset
}

// New starts a worker with cfg.Concurrency execution slots.
func New(cfg config.WorkerConfig, pipelines Resolver, opts ...Option) (*Worker, error) {
	if pipelines == nil {
		return nil, types.NewConfigurationError("worker: pipeline resolver is required")
	}
	if cfg.Concurrency <= 0 {
		return nil, types.NewConfigurationError("worker: concurrency must be positive, got %d", cfg.Concurrency)
	}
	if cfg.MaxRetries < 0 {
		return nil, types.NewConfigurationError("worker: max retries must not be negative")
	}

	w := &Worker{
		cfg:       cfg,
		pipelines: pipelines,
		recorder:  nopRecorder{},
		clock:     cache.SystemClock{},
		backoff:   defaultBackoff,
		logger:    zap.NewNop(),
		jobs:      make(map[string]*entry),
		assets:    make(map[string]StoredAsset),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(zap.String("component", "worker"))
	w.ctx, w.cancel = context.WithCancel(context.Background())

	queue := cfg.QueueSize
	if queue <= 0 {
		queue = pool.DefaultConfig().QueueSize
	}
	w.pool = pool.NewGoroutinePool(pool.Config{
		Workers:   cfg.Concurrency,
		QueueSize: queue,
		PanicHandler: func(r any) {
			w.logger.Error("job panicked", zap.Any("panic", r))
		},
	}, w.logger)

	return w, nil
}

func defaultBackoff(attempt int) time.Duration {
	d := 100 * time.Millisecond << (attempt - 1)
	if d > 2*time.Second {
		d = 2 * time.Second
	}
	return d
}

// Submit validates req, records a queued job and schedules it. The request is
// rejected up front when the modality is unknown or the queue is full.
func (w *Worker) Submit(ctx context.Context, req Request) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return Job{}, types.NewError(types.ErrInvalidRequest, "prompt is required")
	}
	if _, err := w.pipelines.Get(req.Modality); err != nil {
		return Job{}, err
	}
	if req.Params != nil {
		if err := req.Params.Validate(); err != nil {
			return Job{}, err
		}
	}

	w.purge()

	e := &entry{
		job: Job{
			ID:        uuid.NewString(),
			Modality:  req.Modality,
			Prompt:    req.Prompt,
			UserID:    req.UserID,
			Status:    StatusQueued,
			CreatedAt: w.clock.Now(),
		},
		request: req,
		done:    make(chan struct{}),
	}

	w.mu.Lock()
	w.jobs[e.job.ID] = e
	w.mu.Unlock()

	if err := w.pool.Submit(w.ctx, func(ctx context.Context) error {
		return w.execute(ctx, e)
	}); err != nil {
		w.mu.Lock()
		delete(w.jobs, e.job.ID)
		w.mu.Unlock()

		if errors.Is(err, pool.ErrPoolFull) {
			return Job{}, types.NewError(types.ErrRateLimited, "job queue is full").
				WithRetryable(true).
				WithCause(err)
		}
		return Job{}, types.NewError(types.ErrInternalError, "worker is shutting down").WithCause(err)
	}

	w.recorder.RecordJobSubmitted(string(req.Modality))
	requestID, _ := types.RequestID(ctx)
	w.logger.Info("job submitted",
		zap.String("job_id", e.job.ID),
		zap.String("modality", string(req.Modality)),
		zap.String("request_id", requestID),
	)

	w.mu.RLock()
	defer w.mu.RUnlock()
	return e.snapshot(), nil
}

// Status returns the current snapshot of job id.
func (w *Worker) Status(id string) (Job, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	e, ok := w.jobs[id]
	if !ok {
		return Job{}, notFound("job", id)
	}
	return e.snapshot(), nil
}

// Asset returns a copy of a finished asset.
func (w *Worker) Asset(id string) (types.Asset, error) {
	sa, err := w.StoredAsset(id)
	return sa.Asset, err
}

// StoredAsset returns a copy of a finished asset and its owner.
func (w *Worker) StoredAsset(id string) (StoredAsset, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	sa, ok := w.assets[id]
	if !ok {
		return StoredAsset{}, notFound("asset", id)
	}
	return StoredAsset{Asset: sa.Asset.Clone(), UserID: sa.UserID}, nil
}

// Wait blocks until job id reaches a terminal status or ctx ends.
func (w *Worker) Wait(ctx context.Context, id string) (Job, error) {
	w.mu.RLock()
	e, ok := w.jobs[id]
	w.mu.RUnlock()
	if !ok {
		return Job{}, notFound("job", id)
	}

	select {
	case <-e.done:
		return w.Status(id)
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

// Close stops accepting jobs and waits for queued and running ones. When ctx
// ends first, in-flight runs are canceled.
func (w *Worker) Close(ctx context.Context) error {
	err := w.pool.Close(ctx)
	if err != nil {
		w.cancel()
		return fmt.Errorf("worker close: %w", err)
	}
	w.cancel()
	w.logger.Info("worker stopped", zap.Any("stats", w.pool.Stats()))
	return nil
}

// Stats exposes the pool counters.
func (w *Worker) Stats() pool.Stats {
	return w.pool.Stats()
}

func (w *Worker) execute(ctx context.Context, e *entry) error {
	p, err := w.pipelines.Get(e.request.Modality)
	if err != nil {
		w.finish(e, nil, err)
		return err
	}

	w.mu.Lock()
	now := w.clock.Now()
	e.job.Status = StatusRunning
	e.job.StartedAt = &now
	id := e.job.ID
	w.mu.Unlock()

	w.recorder.RecordJobStarted()
	log := w.logger.With(zap.String("job_id", id), zap.String("modality", string(e.request.Modality)))
	ctx = types.WithJobID(ctx, id)
	if e.request.UserID != "" {
		ctx = types.WithUserID(ctx, e.request.UserID)
	}

	for attempt := 1; ; attempt++ {
		w.mu.Lock()
		e.job.Attempts = attempt
		w.mu.Unlock()

		asset, err := w.attempt(ctx, p, e.request)
		if err == nil {
			w.finish(e, asset, nil)
			log.Info("job succeeded", zap.Int("attempts", attempt))
			return nil
		}

		if !types.IsRetryable(err) || attempt > w.cfg.MaxRetries || ctx.Err() != nil {
			w.finish(e, nil, err)
			log.Warn("job failed", zap.Int("attempts", attempt), zap.Error(err))
			return err
		}

		w.recorder.RecordJobRetry(string(e.request.Modality))
		delay := w.backoff(attempt)
		log.Warn("job attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			w.finish(e, nil, err)
			return err
		}
	}
}

// attempt runs the pipeline once under the per-job deadline.
func (w *Worker) attempt(ctx context.Context, p pipeline.Pipeline, req Request) (types.Asset, error) {
	if w.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.JobTimeout)
		defer cancel()
	}

	asset, err := p.Run(ctx, req.Prompt, req.Params)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, types.NewTimeoutError(fmt.Sprintf("job exceeded %s", w.cfg.JobTimeout)).WithCause(err)
	}
	return asset, err
}

func (w *Worker) finish(e *entry, asset types.Asset, err error) {
	w.mu.Lock()
	now := w.clock.Now()
	e.job.FinishedAt = &now
	if err != nil {
		e.job.Status = StatusFailed
		e.job.Error = err.Error()
		e.job.ErrorCode = types.GetErrorCode(err)
	} else {
		e.job.Status = StatusSucceeded
		e.job.AssetID = uuid.NewString()
		w.assets[e.job.AssetID] = StoredAsset{Asset: asset, UserID: e.request.UserID}
	}
	var started time.Time
	if e.job.StartedAt != nil {
		started = *e.job.StartedAt
	} else {
		started = now
	}
	status := e.job.Status
	w.mu.Unlock()

	close(e.done)
	w.recorder.RecordJobFinished(string(e.request.Modality), string(status), now.Sub(started))
}

// purge drops finished jobs and their assets once past the retention window.
func (w *Worker) purge() {
	if w.cfg.Retention <= 0 {
		return
	}
	cutoff := w.clock.Now().Add(-w.cfg.Retention)

	w.mu.Lock()
	defer w.mu.Unlock()
	for id, e := range w.jobs {
		if e.job.FinishedAt == nil || !e.job.FinishedAt.Before(cutoff) {
			continue
		}
		delete(w.assets, e.job.AssetID)
		delete(w.jobs, id)
	}
}

func notFound(kind, id string) *types.Error {
	return types.NewError(types.ErrNotFound, fmt.Sprintf("%s %q not found", kind, id))
}
