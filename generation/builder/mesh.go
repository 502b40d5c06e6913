package builder

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/assetflow/logger"
	"github.com/BaSui01/assetflow/types"
)

// Mesh builds polygon meshes.
type Mesh struct {
	optimize bool
	format   types.OutputFormat
	log      *logger.Sink
}

// NewMesh creates a mesh builder. An empty format defaults to glb.
func NewMesh(opts Options) *Mesh {
	format := opts.Format
	if format == "" {
		format = types.FormatGLB
	}
	return &Mesh{optimize: opts.Optimize, format: format, log: newSink(KindMesh, opts)}
}

func (b *Mesh) Kind() Kind { return KindMesh }

func (b *Mesh) Build(ctx context.Context, a types.Artifact) (types.Asset, error) {
	c, err := content(ctx, KindMesh, a)
	if err != nil {
		return nil, err
	}

	format := b.format
	if v, ok := a[FieldFormat]; ok {
		f, err := types.ParseOutputFormat(fmt.Sprint(v))
		if err != nil {
			return nil, err
		}
		format = f
	}

	quality := "raw"
	if b.optimize {
		quality = "optimized"
	}
	b.log.Debug("building mesh", zap.String("format", string(format)), zap.Bool("optimized", b.optimize))

	return types.Asset{
		types.AssetType: string(KindMesh),
		FieldFormat:     string(format),
		FieldOptimized:  b.optimize,
		FieldContent:    c,
		FieldMesh:       fmt.Sprintf("%s 3D mesh: %s", quality, c),
	}, nil
}
