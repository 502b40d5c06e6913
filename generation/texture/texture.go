package texture

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/assetflow/logger"
	"github.com/BaSui01/assetflow/types"
)

// Asset fields written by texture generators.
const (
	FieldTexture    = "texture"
	FieldResolution = "resolution"
	FieldPBR        = "pbr"
)

// DefaultResolution is the texture size when none is configured.
var DefaultResolution = types.Resolution{Width: 1024, Height: 1024}

// Texturer is the uniform generate contract shared by the base generator and
// its channel variants.
type Texturer interface {
	Generate(ctx context.Context, prompt string) (types.Asset, error)
}

// Options configures a Generator.
type Options struct {
	Resolution types.Resolution
	PBREnabled bool
	Debug      bool
	Logger     *zap.Logger
}

// Generator is the base texture capability. Its output carries no channel.
type Generator struct {
	resolution types.Resolution
	pbr        bool
	log        *logger.Sink
}

// NewGenerator creates a base generator. A zero resolution uses DefaultResolution.
func NewGenerator(opts Options) (*Generator, error) {
	res := opts.Resolution
	if res == (types.Resolution{}) {
		res = DefaultResolution
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return &Generator{
		resolution: res,
		pbr:        opts.PBREnabled,
		log:        logger.NewSink(opts.Logger, "texture", opts.Debug),
	}, nil
}

func (g *Generator) Resolution() types.Resolution { return g.resolution }
func (g *Generator) PBREnabled() bool             { return g.pbr }

func (g *Generator) Generate(ctx context.Context, prompt string) (types.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, types.NewConfigurationError("texture: prompt is required").WithComponent("texture")
	}
	g.log.Debug("generating texture", zap.String("prompt", prompt), zap.Stringer("resolution", g.resolution))
	return types.Asset{
		FieldTexture:    fmt.Sprintf("Texture generated from '%s'", prompt),
		FieldResolution: g.resolution.String(),
		FieldPBR:        g.pbr,
	}, nil
}
