package builder

import (
	"context"

	"github.com/BaSui01/assetflow/logger"
	"github.com/BaSui01/assetflow/types"
)

// NeRF packages a neural radiance field as an asset.
type NeRF struct {
	optimize bool
	log      *logger.Sink
}

func NewNeRF(opts Options) *NeRF {
	return &NeRF{optimize: opts.Optimize, log: newSink(KindNeRF, opts)}
}

func (b *NeRF) Kind() Kind { return KindNeRF }

func (b *NeRF) Build(ctx context.Context, a types.Artifact) (types.Asset, error) {
	c, err := content(ctx, KindNeRF, a)
	if err != nil {
		return nil, err
	}
	b.log.Debug("building neural field")
	return types.Asset{
		types.AssetType: string(KindNeRF),
		FieldOptimized:  b.optimize,
		FieldContent:    c,
	}, nil
}
