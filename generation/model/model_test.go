package model

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/BaSui01/assetflow/types"
)

func allModels(opts Options) []Model {
	return []Model{NewDiffusion(0, opts), NewNeRF(opts), NewTransformer(opts)}
}

func TestInfer_RequiresTraining(t *testing.T) {
	for _, m := range allModels(Options{}) {
		t.Run(m.Name(), func(t *testing.T) {
			_, err := m.Infer(context.Background(), "a castle", types.DefaultResolution)
			require.Error(t, err)
			assert.True(t, types.IsErrorCode(err, types.ErrInvalidState))
			assert.False(t, m.IsTrained())
		})
	}
}

func TestTrain_SetsFlagOnce(t *testing.T) {
	m := NewDiffusion(0, Options{})
	ctx := context.Background()

	require.NoError(t, m.Train(ctx, "dataset_stub"))
	assert.True(t, m.IsTrained())

	require.NoError(t, m.Train(ctx, "dataset_stub"))
	assert.True(t, m.IsTrained())

	// invalid input after training leaves the flag set
	require.NoError(t, m.Train(ctx, ""))
	assert.True(t, m.IsTrained())
}

func TestTrain_RejectsInvalidDataset(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		check func(string) error
	}{
		{name: "empty", path: ""},
		{name: "whitespace", path: "   "},
		{name: "unreachable", path: "s3://missing", check: func(string) error { return errors.New("no such bucket") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewNeRF(Options{DatasetCheck: tt.check})
			err := m.Train(context.Background(), tt.path)
			require.Error(t, err)
			assert.True(t, types.IsErrorCode(err, types.ErrConfiguration))
			assert.False(t, m.IsTrained())
		})
	}
}

func TestTrain_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewTransformer(Options{})
	assert.ErrorIs(t, m.Train(ctx, "dataset_stub"), context.Canceled)
	assert.False(t, m.IsTrained())
}

func TestTrain_ConcurrentCallers(t *testing.T) {
	m := NewDiffusion(0, Options{})
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.Train(context.Background(), "dataset_stub"))
		}()
	}
	wg.Wait()
	assert.True(t, m.IsTrained())
}

func TestInfer_Content(t *testing.T) {
	tests := []struct {
		model   Model
		content string
		extra   string
	}{
		{NewDiffusion(0, Options{}), "Generated 3D model from 'a castle'", "steps"},
		{NewNeRF(Options{}), "NeRF 3D model from 'a castle'", "samples_per_ray"},
		{NewTransformer(Options{}), "Transformer 3D model from 'a castle'", "layers"},
	}

	for _, tt := range tests {
		t.Run(tt.model.Name(), func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, tt.model.Train(ctx, "dataset_stub"))

			a, err := tt.model.Infer(ctx, "a castle", types.DefaultResolution)
			require.NoError(t, err)

			content, ok := a.Content()
			require.True(t, ok)
			assert.Equal(t, tt.content, content)
			assert.Equal(t, tt.model.Name(), a[FieldModel])
			assert.Equal(t, "a castle", a[FieldPrompt])
			assert.Equal(t, types.DefaultResolution, a[FieldResolution])
			assert.Equal(t, "cpu", a[FieldDevice])
			assert.Len(t, a[FieldFingerprint], 64)
			assert.Contains(t, a, tt.extra)
		})
	}
}

func TestInfer_RejectsBadInput(t *testing.T) {
	m := NewDiffusion(0, Options{UseGPU: true})
	require.NoError(t, m.Train(context.Background(), "dataset_stub"))

	_, err := m.Infer(context.Background(), " ", types.DefaultResolution)
	assert.True(t, types.IsErrorCode(err, types.ErrConfiguration))

	_, err = m.Infer(context.Background(), "a castle", types.Resolution{Width: 0, Height: 256})
	assert.True(t, types.IsErrorCode(err, types.ErrConfiguration))
}

func TestInfer_DeviceFollowsOptions(t *testing.T) {
	m := NewNeRF(Options{UseGPU: true})
	require.NoError(t, m.Train(context.Background(), "dataset_stub"))

	a, err := m.Infer(context.Background(), "a chair", types.DefaultResolution)
	require.NoError(t, err)
	assert.Equal(t, "gpu", a[FieldDevice])
}

func TestDiffusion_Steps(t *testing.T) {
	assert.Equal(t, DefaultDiffusionSteps, NewDiffusion(0, Options{}).Steps())
	assert.Equal(t, DefaultDiffusionSteps, NewDiffusion(-3, Options{}).Steps())
	assert.Equal(t, 20, NewDiffusion(20, Options{}).Steps())
}

func TestDebugLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	quiet := NewDiffusion(0, Options{Logger: zap.New(core)})
	require.NoError(t, quiet.Train(context.Background(), "dataset_stub"))
	assert.Zero(t, logs.Len())

	loud := NewDiffusion(0, Options{Logger: zap.New(core), Debug: true})
	require.NoError(t, loud.Train(context.Background(), "dataset_stub"))
	_, err := loud.Infer(context.Background(), "a castle", types.DefaultResolution)
	require.NoError(t, err)

	entries := logs.FilterMessage("training model").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "DiffusionModel", entries[0].ContextMap()["model"])
	assert.Equal(t, 1, logs.FilterMessage("running inference").Len())
}

func TestNew(t *testing.T) {
	for _, kind := range Kinds() {
		m, err := New(kind, Config{})
		require.NoError(t, err)
		assert.Equal(t, kind, m.Kind())
	}

	m, err := New(KindDiffusion, Config{DiffusionSteps: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, m.(*Diffusion).Steps())

	_, err = New("gan", Config{})
	assert.True(t, types.IsErrorCode(err, types.ErrUnsupportedModality))
}

func TestInfer_DeterministicProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		kind := rapid.SampledFrom(Kinds()).Draw(t, "kind")
		prompt := rapid.StringMatching(`[a-zA-Z ]{0,8}[a-zA-Z][a-zA-Z ]{0,8}`).Draw(t, "prompt")
		res := types.Resolution{
			Width:  rapid.IntRange(1, 4096).Draw(t, "width"),
			Height: rapid.IntRange(1, 4096).Draw(t, "height"),
		}

		first, _ := New(kind, Config{})
		second, _ := New(kind, Config{})
		ctx := context.Background()
		if err := first.Train(ctx, "dataset_stub"); err != nil {
			t.Fatal(err)
		}
		if err := second.Train(ctx, "dataset_stub"); err != nil {
			t.Fatal(err)
		}

		a, err := first.Infer(ctx, prompt, res)
		if err != nil {
			t.Fatal(err)
		}
		b, err := second.Infer(ctx, prompt, res)
		if err != nil {
			t.Fatal(err)
		}
		again, err := first.Infer(ctx, prompt, res)
		if err != nil {
			t.Fatal(err)
		}
		if !assert.ObjectsAreEqual(a, b) || !assert.ObjectsAreEqual(a, again) {
			t.Fatalf("non-deterministic artifact for %q: %v vs %v", prompt, a, b)
		}
	})
}
