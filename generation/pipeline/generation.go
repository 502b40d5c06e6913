package pipeline

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/BaSui01/assetflow/generation/builder"
	"github.com/BaSui01/assetflow/generation/model"
	"github.com/BaSui01/assetflow/types"
)

// ModelPipeline pairs exactly one Model with one Builder. The pair is fixed
// for the pipeline's lifetime and owned exclusively by it.
type ModelPipeline struct {
	*runner
	model   model.Model
	builder builder.Builder
	dataset string
}

// NewModelPipeline composes m and b under modality.
func NewModelPipeline(modality Modality, m model.Model, b builder.Builder, deps Deps) (*ModelPipeline, error) {
	if m == nil || b == nil {
		return nil, types.NewConfigurationError("pipeline %s: model and builder are required", modality)
	}
	deps = deps.withDefaults()
	return &ModelPipeline{
		runner:  newRunner(modality, deps),
		model:   m,
		builder: b,
		dataset: deps.Config.DatasetPath,
	}, nil
}

// Model exposes the owned model for diagnostics.
func (p *ModelPipeline) Model() model.Model { return p.model }

// Run accepts types.InferParams; a nil params uses the default resolution
// and glb.
func (p *ModelPipeline) Run(ctx context.Context, prompt string, params types.Params) (types.Asset, error) {
	ip, err := inferParams(params)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, prompt, ip, func(ctx context.Context) (types.Asset, error) {
		return p.produce(ctx, prompt, ip)
	})
}

func (p *ModelPipeline) produce(ctx context.Context, prompt string, params types.InferParams) (types.Asset, error) {
	if !p.model.IsTrained() {
		if err := p.train(ctx); err != nil {
			return nil, err
		}
	}

	artifact, err := p.model.Infer(ctx, prompt, params.Resolution)
	if err != nil {
		return nil, err
	}
	artifact[builder.FieldFormat] = string(params.OutputFormat)

	_, span := p.tracer.Start(ctx, "pipeline.build",
		trace.WithAttributes(attribute.String("builder.kind", string(p.builder.Kind()))))
	asset, err := p.builder.Build(ctx, artifact)
	span.End()
	if err != nil {
		return nil, err
	}

	asset[FieldModality] = string(p.modality)
	asset[FieldPrompt] = prompt
	asset[model.FieldModel] = p.model.Name()
	return asset, nil
}

func (p *ModelPipeline) train(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "pipeline.train",
		trace.WithAttributes(attribute.String("model.name", p.model.Name())))
	defer span.End()
	return p.model.Train(ctx, p.dataset)
}

func inferParams(params types.Params) (types.InferParams, error) {
	var ip types.InferParams
	switch v := params.(type) {
	case nil:
		ip = types.InferParams{Resolution: types.DefaultResolution, OutputFormat: types.FormatGLB}
	case types.InferParams:
		ip = v
	case *types.InferParams:
		if v == nil {
			return inferParams(nil)
		}
		ip = *v
	default:
		return ip, types.NewConfigurationError("expected infer params, got %T", params)
	}
	if ip.OutputFormat == "" {
		ip.OutputFormat = types.FormatGLB
	}
	return ip, ip.Validate()
}

// NewTextTo3D composes a diffusion model with a mesh builder.
func NewTextTo3D(deps Deps) (*ModelPipeline, error) {
	return compose(TextTo3D, model.KindDiffusion, builder.KindMesh, deps)
}

// NewImageTo3D composes a NeRF model with a NeRF builder. The prompt is an
// image reference.
func NewImageTo3D(deps Deps) (*ModelPipeline, error) {
	return compose(ImageTo3D, model.KindNeRF, builder.KindNeRF, deps)
}

// NewTextToVoxel composes a transformer model with a voxel builder.
func NewTextToVoxel(deps Deps) (*ModelPipeline, error) {
	return compose(TextToVoxel, model.KindTransformer, builder.KindVoxel, deps)
}

func compose(modality Modality, mk model.Kind, bk builder.Kind, deps Deps) (*ModelPipeline, error) {
	cfg := deps.Config
	m, err := model.New(mk, model.Config{
		Options: model.Options{
			UseGPU: cfg.UseGPU,
			Debug:  cfg.Debug,
			Logger: deps.Logger,
		},
		DiffusionSteps: cfg.DiffusionSteps,
	})
	if err != nil {
		return nil, err
	}
	b, err := builder.New(bk, builder.Options{
		Optimize:   cfg.Optimize,
		Resolution: cfg.VoxelResolution,
		Debug:      cfg.Debug,
		Logger:     deps.Logger,
	})
	if err != nil {
		return nil, err
	}
	return NewModelPipeline(modality, m, b, deps)
}
