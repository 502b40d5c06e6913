package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/assetflow/config"
	"github.com/BaSui01/assetflow/generation/cache"
	"github.com/BaSui01/assetflow/generation/pipeline"
	"github.com/BaSui01/assetflow/types"
)

type runFunc func(ctx context.Context, prompt string, params types.Params) (types.Asset, error)

type fakePipeline struct {
	run   runFunc
	calls atomic.Int32
}

func (p *fakePipeline) Name() pipeline.Modality { return pipeline.TextTo3D }
func (p *fakePipeline) State() pipeline.State   { return pipeline.StateCreated }

func (p *fakePipeline) Run(ctx context.Context, prompt string, params types.Params) (types.Asset, error) {
	p.calls.Add(1)
	return p.run(ctx, prompt, params)
}

type fakeResolver struct{ p pipeline.Pipeline }

func (r fakeResolver) Get(m pipeline.Modality) (pipeline.Pipeline, error) {
	if m != pipeline.TextTo3D {
		return nil, types.NewUnsupportedModalityError(string(m))
	}
	return r.p, nil
}

type countingRecorder struct {
	mu       sync.Mutex
	retries  int
	finished map[string]int
}

func (r *countingRecorder) RecordJobSubmitted(string) {}
func (r *countingRecorder) RecordJobStarted()         {}

func (r *countingRecorder) RecordJobFinished(_, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished == nil {
		r.finished = make(map[string]int)
	}
	r.finished[status]++
}

func (r *countingRecorder) RecordJobRetry(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retries++
}

func testConfig() config.WorkerConfig {
	return config.WorkerConfig{
		Concurrency: 2,
		JobTimeout:  time.Second,
		MaxRetries:  2,
		Retention:   time.Hour,
		QueueSize:   8,
	}
}

func newTestWorker(t *testing.T, cfg config.WorkerConfig, r Resolver, opts ...Option) *Worker {
	t.Helper()
	opts = append([]Option{
		WithLogger(zaptest.NewLogger(t)),
		WithBackoff(func(int) time.Duration { return 0 }),
	}, opts...)
	w, err := New(cfg, r, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close(context.Background()) })
	return w
}

func submitAndWait(t *testing.T, w *Worker, req Request) Job {
	t.Helper()
	job, err := w.Submit(context.Background(), req)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job, err = w.Wait(ctx, job.ID)
	require.NoError(t, err)
	return job
}

func TestWorker_GeneratesAsset(t *testing.T) {
	w := newTestWorker(t, testConfig(), pipeline.NewRegistry(pipeline.Deps{}))

	job := submitAndWait(t, w, Request{Modality: pipeline.TextTo3D, Prompt: "a castle", UserID: "u1"})
	assert.Equal(t, StatusSucceeded, job.Status)
	assert.Equal(t, 1, job.Attempts)
	assert.Equal(t, "u1", job.UserID)
	require.NotEmpty(t, job.AssetID)
	require.NotNil(t, job.StartedAt)
	require.NotNil(t, job.FinishedAt)

	asset, err := w.Asset(job.AssetID)
	require.NoError(t, err)
	assert.Equal(t, "mesh", asset.Type())
	assert.Contains(t, asset["mesh"], "a castle")

	asset["mesh"] = "tampered"
	again, err := w.Asset(job.AssetID)
	require.NoError(t, err)
	assert.NotEqual(t, "tampered", again["mesh"])

	stored, err := w.StoredAsset(job.AssetID)
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.UserID)
	assert.Equal(t, "mesh", stored.Asset.Type())
}

func TestWorker_SubmitValidation(t *testing.T) {
	w := newTestWorker(t, testConfig(), pipeline.NewRegistry(pipeline.Deps{}))
	ctx := context.Background()

	_, err := w.Submit(ctx, Request{Modality: "audio-to-3d", Prompt: "x"})
	assert.True(t, types.IsErrorCode(err, types.ErrUnsupportedModality))

	_, err = w.Submit(ctx, Request{Modality: pipeline.TextTo3D, Prompt: "  "})
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidRequest))

	_, err = w.Submit(ctx, Request{
		Modality: pipeline.TextTo3D,
		Prompt:   "x",
		Params:   types.InferParams{Resolution: types.Resolution{Width: -1, Height: 1}},
	})
	assert.True(t, types.IsErrorCode(err, types.ErrConfiguration))
}

func TestWorker_Timeout(t *testing.T) {
	p := &fakePipeline{run: func(ctx context.Context, _ string, _ types.Params) (types.Asset, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	cfg := testConfig()
	cfg.JobTimeout = 20 * time.Millisecond
	cfg.MaxRetries = 0
	w := newTestWorker(t, cfg, fakeResolver{p})

	job := submitAndWait(t, w, Request{Modality: pipeline.TextTo3D, Prompt: "slow"})
	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, types.ErrTimeout, job.ErrorCode)
	assert.Equal(t, 1, job.Attempts)
	assert.Empty(t, job.AssetID)
}

func TestWorker_RetriesRetryableErrors(t *testing.T) {
	var failures atomic.Int32
	p := &fakePipeline{run: func(context.Context, string, types.Params) (types.Asset, error) {
		if failures.Add(1) <= 2 {
			return nil, types.NewError(types.ErrInternalError, "backend busy").WithRetryable(true)
		}
		return types.Asset{types.AssetType: "mesh"}, nil
	}}
	rec := &countingRecorder{}
	w := newTestWorker(t, testConfig(), fakeResolver{p}, WithRecorder(rec))

	job := submitAndWait(t, w, Request{Modality: pipeline.TextTo3D, Prompt: "flaky"})
	assert.Equal(t, StatusSucceeded, job.Status)
	assert.Equal(t, 3, job.Attempts)
	assert.Equal(t, 2, rec.retries)
	assert.Equal(t, 1, rec.finished["succeeded"])
}

func TestWorker_RetriesExhausted(t *testing.T) {
	p := &fakePipeline{run: func(context.Context, string, types.Params) (types.Asset, error) {
		return nil, types.NewTimeoutError("upstream timeout")
	}}
	cfg := testConfig()
	cfg.MaxRetries = 1
	w := newTestWorker(t, cfg, fakeResolver{p})

	job := submitAndWait(t, w, Request{Modality: pipeline.TextTo3D, Prompt: "x"})
	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, 2, job.Attempts)
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestWorker_NonRetryableFailsOnce(t *testing.T) {
	p := &fakePipeline{run: func(context.Context, string, types.Params) (types.Asset, error) {
		return nil, types.NewConfigurationError("bad dataset")
	}}
	w := newTestWorker(t, testConfig(), fakeResolver{p})

	job := submitAndWait(t, w, Request{Modality: pipeline.TextTo3D, Prompt: "x"})
	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, types.ErrConfiguration, job.ErrorCode)
	assert.Contains(t, job.Error, "bad dataset")
	assert.Equal(t, 1, job.Attempts)
}

func TestWorker_QueueFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	p := &fakePipeline{run: func(context.Context, string, types.Params) (types.Asset, error) {
		started <- struct{}{}
		<-release
		return types.Asset{}, nil
	}}
	cfg := testConfig()
	cfg.Concurrency = 1
	cfg.QueueSize = 1
	w := newTestWorker(t, cfg, fakeResolver{p})
	ctx := context.Background()

	_, err := w.Submit(ctx, Request{Modality: pipeline.TextTo3D, Prompt: "one"})
	require.NoError(t, err)
	<-started
	queued, err := w.Submit(ctx, Request{Modality: pipeline.TextTo3D, Prompt: "two"})
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, queued.Status)

	_, err = w.Submit(ctx, Request{Modality: pipeline.TextTo3D, Prompt: "three"})
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrRateLimited))
	assert.True(t, types.IsRetryable(err))

	close(release)
}

func TestWorker_NotFound(t *testing.T) {
	w := newTestWorker(t, testConfig(), pipeline.NewRegistry(pipeline.Deps{}))

	_, err := w.Status("missing")
	assert.True(t, types.IsErrorCode(err, types.ErrNotFound))
	_, err = w.Asset("missing")
	assert.True(t, types.IsErrorCode(err, types.ErrNotFound))
	_, err = w.Wait(context.Background(), "missing")
	assert.True(t, types.IsErrorCode(err, types.ErrNotFound))
}

func TestWorker_RetentionPurgesFinishedJobs(t *testing.T) {
	clock := cache.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	w := newTestWorker(t, testConfig(), pipeline.NewRegistry(pipeline.Deps{}), WithClock(clock))

	old := submitAndWait(t, w, Request{Modality: pipeline.TextTo3D, Prompt: "old"})
	clock.Advance(2 * time.Hour)
	fresh := submitAndWait(t, w, Request{Modality: pipeline.TextTo3D, Prompt: "fresh"})

	_, err := w.Status(old.ID)
	assert.True(t, types.IsErrorCode(err, types.ErrNotFound))
	_, err = w.Asset(old.AssetID)
	assert.True(t, types.IsErrorCode(err, types.ErrNotFound))

	_, err = w.Status(fresh.ID)
	assert.NoError(t, err)
}

func TestWorker_WaitHonorsContext(t *testing.T) {
	release := make(chan struct{})
	p := &fakePipeline{run: func(context.Context, string, types.Params) (types.Asset, error) {
		<-release
		return types.Asset{}, nil
	}}
	w := newTestWorker(t, testConfig(), fakeResolver{p})
	defer close(release)

	job, err := w.Submit(context.Background(), Request{Modality: pipeline.TextTo3D, Prompt: "x"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = w.Wait(ctx, job.ID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWorker_CloseRejectsNewJobs(t *testing.T) {
	w, err := New(testConfig(), pipeline.NewRegistry(pipeline.Deps{}))
	require.NoError(t, err)
	require.NoError(t, w.Close(context.Background()))

	_, err = w.Submit(context.Background(), Request{Modality: pipeline.TextTo3D, Prompt: "x"})
	assert.True(t, types.IsErrorCode(err, types.ErrInternalError))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(testConfig(), nil)
	assert.True(t, types.IsErrorCode(err, types.ErrConfiguration))

	cfg := testConfig()
	cfg.Concurrency = 0
	_, err = New(cfg, fakeResolver{})
	assert.True(t, types.IsErrorCode(err, types.ErrConfiguration))
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusQueued.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.True(t, StatusSucceeded.Terminal())
	assert.True(t, StatusFailed.Terminal())
}

func TestDefaultBackoff(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, defaultBackoff(1))
	assert.Equal(t, 200*time.Millisecond, defaultBackoff(2))
	assert.Equal(t, 2*time.Second, defaultBackoff(10))
}
