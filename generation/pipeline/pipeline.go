package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/assetflow/config"
	"github.com/BaSui01/assetflow/generation/cache"
	"github.com/BaSui01/assetflow/types"
)

// Modality identifies a pipeline.
type Modality string

const (
	TextTo3D      Modality = "text-to-3d"
	ImageTo3D     Modality = "image-to-3d"
	TextToVoxel   Modality = "text-to-voxel"
	TextToTexture Modality = "text-to-texture"
)

// Modalities lists every registered pipeline.
func Modalities() []Modality {
	return []Modality{TextTo3D, ImageTo3D, TextToVoxel, TextToTexture}
}

// ParseModality resolves a modality name.
func ParseModality(s string) (Modality, error) {
	m := Modality(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modalities() {
		if m == known {
			return m, nil
		}
	}
	return "", types.NewUnsupportedModalityError(s)
}

// Pipeline composes generation stages behind a single synchronous run.
type Pipeline interface {
	Name() Modality
	// Run returns a finished asset owned by the caller. Errors from the
	// model or builder are returned unchanged.
	Run(ctx context.Context, prompt string, params types.Params) (types.Asset, error)
	// State reports the state of the most recent run.
	State() State
}

// State is the run state machine: Created -> Running -> Completed | Failed.
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Run outcomes reported to a Recorder.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeCacheHit  = "cache_hit"
)

// Recorder receives run and cache observations. Implemented by the metrics
// collector.
type Recorder interface {
	RecordRun(modality, outcome string, duration time.Duration)
	RecordCacheLookup(modality string, hit bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordRun(string, string, time.Duration) {}
func (nopRecorder) RecordCacheLookup(string, bool)          {}

// Deps are the collaborators every pipeline is constructed with.
type Deps struct {
	Config   config.PipelineConfig
	Cache    cache.Store
	Recorder Recorder
	Logger   *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Cache == nil {
		d.Cache = cache.NopStore{}
	}
	if d.Recorder == nil {
		d.Recorder = nopRecorder{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Config.DatasetPath == "" {
		d.Config.DatasetPath = DefaultDatasetPath
	}
	return d
}

// DefaultDatasetPath is the fixed dataset reference used to train models.
const DefaultDatasetPath = "dataset_stub"

// Asset fields stamped by pipelines after the build step.
const (
	FieldModality = "modality"
	FieldPrompt   = "prompt"
)
