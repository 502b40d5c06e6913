package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/BaSui01/assetflow/generation/cache"
	"github.com/BaSui01/assetflow/logger"
	"github.com/BaSui01/assetflow/types"
)

const instrumentationName = "assetflow/pipeline"

// runner holds the run scaffolding shared by every pipeline: cache lookup,
// in-flight dedup, best-effort store, state tracking, tracing and metrics.
type runner struct {
	modality Modality
	store    cache.Store
	recorder Recorder
	log      *logger.Sink
	tracer   trace.Tracer
	runs     metric.Int64Counter
	state    atomic.Int32
	group    singleflight.Group

	mu      sync.Mutex
	flights map[string]*flight
}

// flight is the context a deduplicated produce call runs under. It outlives
// any single caller and is canceled once the last waiter has gone.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func newRunner(modality Modality, deps Deps) *runner {
	r := &runner{
		modality: modality,
		store:    deps.Cache,
		recorder: deps.Recorder,
		log: logger.NewSink(deps.Logger, "pipeline", deps.Config.Debug).
			With(zap.String("modality", string(modality))),
		tracer:  otel.Tracer(instrumentationName),
		flights: make(map[string]*flight),
	}

	runs, err := otel.Meter(instrumentationName).Int64Counter("assetflow.pipeline.runs",
		metric.WithDescription("Pipeline runs by outcome"),
		metric.WithUnit("{run}"))
	if err != nil {
		r.log.Warn("otel counter unavailable", zap.Error(err))
		runs = noop.Int64Counter{}
	}
	r.runs = runs
	return r
}

func (r *runner) Name() Modality { return r.modality }
func (r *runner) State() State   { return State(r.state.Load()) }

// produceFunc performs the uncached part of a run.
type produceFunc func(ctx context.Context) (types.Asset, error)

func (r *runner) run(ctx context.Context, prompt string, params types.Params, produce produceFunc) (types.Asset, error) {
	ctx, span := r.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.String("pipeline.modality", string(r.modality))))
	defer span.End()

	start := time.Now()
	r.state.Store(int32(StateRunning))

	key := cache.KeyFor(string(r.modality), prompt, params)
	if asset, ok := r.lookup(ctx, key); ok {
		span.SetAttributes(attribute.Bool("pipeline.cache_hit", true))
		r.finish(ctx, StateCompleted, OutcomeCacheHit, start)
		return asset, nil
	}

	v, shared, err := r.shared(ctx, key, produce)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.log.Warn("pipeline run failed",
			zap.String("error_code", string(types.GetErrorCode(err))),
			zap.Error(err),
		)
		r.finish(ctx, StateFailed, OutcomeFailed, start)
		return nil, err
	}

	asset := v.(types.Asset)
	if shared {
		asset = asset.Clone()
	}
	span.SetAttributes(attribute.Bool("pipeline.shared", shared))
	r.finish(ctx, StateCompleted, OutcomeCompleted, start)
	return asset, nil
}

// shared collapses identical in-flight runs. Each caller waits on its own
// ctx; the produce call itself is only canceled when every waiter has left.
func (r *runner) shared(ctx context.Context, key string, produce produceFunc) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	// 加入航班与 DoChan 在同一把锁内完成，保证同一次调用的等待者共享同一个 flight
	r.mu.Lock()
	f, ok := r.flights[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		r.flights[key] = f
	}
	f.waiters++
	ch := r.group.DoChan(key, func() (any, error) {
		defer r.retire(key, f)
		asset, err := produce(f.ctx)
		if err != nil {
			return nil, err
		}
		r.save(f.ctx, key, asset)
		return asset, nil
	})
	r.mu.Unlock()
	defer r.leave(key, f)

	select {
	case res := <-ch:
		return res.Val, res.Shared, res.Err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// leave cancels an abandoned call and forgets it so later callers start fresh.
func (r *runner) leave(key string, f *flight) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if r.flights[key] == f {
		delete(r.flights, key)
		r.group.Forget(key)
	}
}

// retire stops new callers from joining a flight whose call has finished.
func (r *runner) retire(key string, f *flight) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.flights[key] == f {
		delete(r.flights, key)
	}
}

func (r *runner) lookup(ctx context.Context, key string) (types.Asset, bool) {
	asset, ok, err := r.store.Get(ctx, key)
	if err != nil {
		r.log.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
		ok = false
	}
	r.recorder.RecordCacheLookup(string(r.modality), ok)
	if !ok {
		return nil, false
	}
	r.log.Info("cache hit", zap.String("key", key))
	return asset, true
}

// save is best-effort: failures are logged and never reach the caller.
func (r *runner) save(ctx context.Context, key string, asset types.Asset) {
	if err := r.store.Set(ctx, key, asset); err != nil {
		r.log.Warn("cache store failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *runner) finish(ctx context.Context, state State, outcome string, start time.Time) {
	r.state.Store(int32(state))
	d := time.Since(start)
	r.recorder.RecordRun(string(r.modality), outcome, d)
	r.runs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("modality", string(r.modality)),
		attribute.String("outcome", outcome),
	))
	r.log.Debug("pipeline run finished", zap.String("outcome", outcome), zap.Duration("duration", d))
}
