package pipeline

import (
	"context"

	"github.com/BaSui01/assetflow/generation/texture"
	"github.com/BaSui01/assetflow/types"
)

// FieldMaps holds the per-channel texture maps of a PBR texture asset.
const FieldMaps = "maps"

// TexturePipeline generates a base texture and, when PBR is enabled, one map
// per requested channel.
type TexturePipeline struct {
	*runner
	deps Deps
}

func NewTextToTexture(deps Deps) (*TexturePipeline, error) {
	deps = deps.withDefaults()
	return &TexturePipeline{runner: newRunner(TextToTexture, deps), deps: deps}, nil
}

// Run accepts types.TextureParams; a nil params uses the configured texture
// resolution and every PBR channel.
func (p *TexturePipeline) Run(ctx context.Context, prompt string, params types.Params) (types.Asset, error) {
	tp, err := p.textureParams(params)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, prompt, tp, func(ctx context.Context) (types.Asset, error) {
		return p.produce(ctx, prompt, tp)
	})
}

func (p *TexturePipeline) produce(ctx context.Context, prompt string, params types.TextureParams) (types.Asset, error) {
	gen, err := texture.NewGenerator(texture.Options{
		Resolution: params.Resolution,
		PBREnabled: p.deps.Config.PBREnabled,
		Debug:      p.deps.Config.Debug,
		Logger:     p.deps.Logger,
	})
	if err != nil {
		return nil, err
	}

	asset, err := gen.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	asset[types.AssetType] = "texture"
	asset[FieldModality] = string(p.modality)
	asset[FieldPrompt] = prompt

	if gen.PBREnabled() {
		maps, err := texture.GenerateMaps(ctx, gen, prompt, params.RequestedChannels())
		if err != nil {
			return nil, err
		}
		asset[FieldMaps] = maps
	}
	return asset, nil
}

func (p *TexturePipeline) textureParams(params types.Params) (types.TextureParams, error) {
	var tp types.TextureParams
	switch v := params.(type) {
	case nil:
	case types.TextureParams:
		tp = v
	case *types.TextureParams:
		if v != nil {
			tp = *v
		}
	default:
		return tp, types.NewConfigurationError("expected texture params, got %T", params)
	}
	if tp.Resolution == (types.Resolution{}) {
		tp.Resolution = p.defaultResolution()
	}
	return tp, tp.Validate()
}

func (p *TexturePipeline) defaultResolution() types.Resolution {
	if n := p.deps.Config.TextureResolution; n > 0 {
		return types.Resolution{Width: n, Height: n}
	}
	return texture.DefaultResolution
}
