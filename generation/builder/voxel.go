package builder

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/assetflow/logger"
	"github.com/BaSui01/assetflow/types"
)

// DefaultVoxelResolution is the grid edge length when none is configured.
const DefaultVoxelResolution = 64

// Voxel builds voxel grids.
type Voxel struct {
	resolution int
	optimize   bool
	log        *logger.Sink
}

// NewVoxel creates a voxel builder. Zero resolution uses the default; a
// negative one is rejected.
func NewVoxel(opts Options) (*Voxel, error) {
	res := opts.Resolution
	if res == 0 {
		res = DefaultVoxelResolution
	}
	if res < 0 {
		return nil, types.NewConfigurationError("voxel resolution must be positive, got %d", res).
			WithComponent(string(KindVoxel))
	}
	return &Voxel{resolution: res, optimize: opts.Optimize, log: newSink(KindVoxel, opts)}, nil
}

func (b *Voxel) Kind() Kind { return KindVoxel }

// Resolution returns the grid edge length.
func (b *Voxel) Resolution() int { return b.resolution }

func (b *Voxel) Build(ctx context.Context, a types.Artifact) (types.Asset, error) {
	c, err := content(ctx, KindVoxel, a)
	if err != nil {
		return nil, err
	}
	b.log.Debug("building voxel grid", zap.Int("resolution", b.resolution))
	return types.Asset{
		types.AssetType:  string(KindVoxel),
		FieldResolution: b.resolution,
		FieldOptimized:  b.optimize,
		FieldContent:    c,
	}, nil
}
