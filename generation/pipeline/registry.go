package pipeline

import (
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/assetflow/types"
)

// New constructs the pipeline registered for modality.
func New(modality Modality, deps Deps) (Pipeline, error) {
	switch modality {
	case TextTo3D:
		return NewTextTo3D(deps)
	case ImageTo3D:
		return NewImageTo3D(deps)
	case TextToVoxel:
		return NewTextToVoxel(deps)
	case TextToTexture:
		return NewTextToTexture(deps)
	default:
		return nil, types.NewUnsupportedModalityError(string(modality))
	}
}

// Registry hands out one long-lived pipeline per modality, so trained models
// and in-flight dedup are shared across callers.
type Registry struct {
	deps      Deps
	mu        sync.Mutex
	pipelines map[Modality]Pipeline
	logger    *zap.Logger
}

func NewRegistry(deps Deps) *Registry {
	deps = deps.withDefaults()
	return &Registry{
		deps:      deps,
		pipelines: make(map[Modality]Pipeline),
		logger:    deps.Logger.With(zap.String("component", "pipeline_registry")),
	}
}

// Get returns the pipeline for modality, constructing it on first use.
func (r *Registry) Get(modality Modality) (Pipeline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pipelines[modality]; ok {
		return p, nil
	}
	p, err := New(modality, r.deps)
	if err != nil {
		return nil, err
	}
	r.pipelines[modality] = p
	r.logger.Info("pipeline created", zap.String("modality", string(modality)))
	return p, nil
}

// States snapshots the last-run state of every constructed pipeline.
func (r *Registry) States() map[Modality]State {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[Modality]State, len(r.pipelines))
	for m, p := range r.pipelines {
		out[m] = p.State()
	}
	return out
}
