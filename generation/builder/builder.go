package builder

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/assetflow/logger"
	"github.com/BaSui01/assetflow/types"
)

// Kind identifies a builder variant.
type Kind string

const (
	KindMesh  Kind = "mesh"
	KindNeRF  Kind = "nerf"
	KindVoxel Kind = "voxel"
)

// Builder turns a model artifact into a finished asset. Implementations are
// pure: they never mutate the artifact and equal inputs give equal outputs.
type Builder interface {
	Kind() Kind
	Build(ctx context.Context, artifact types.Artifact) (types.Asset, error)
}

// Asset fields written by builders.
const (
	FieldFormat     = "format"
	FieldOptimized  = "optimized"
	FieldContent    = "content"
	FieldMesh       = "mesh"
	FieldResolution = "resolution"
)

// Options configures a builder.
type Options struct {
	Optimize bool
	// Format is the default mesh format; an artifact "format" field overrides it.
	Format types.OutputFormat
	// Resolution is the voxel grid edge length.
	Resolution int
	Debug      bool
	Logger     *zap.Logger
}

// New is the dispatch table from Kind to constructor.
func New(kind Kind, opts Options) (Builder, error) {
	switch kind {
	case KindMesh:
		return NewMesh(opts), nil
	case KindNeRF:
		return NewNeRF(opts), nil
	case KindVoxel:
		return NewVoxel(opts)
	default:
		return nil, types.NewUnsupportedModalityError(string(kind))
	}
}

// Kinds lists the registered variants.
func Kinds() []Kind {
	return []Kind{KindMesh, KindNeRF, KindVoxel}
}

func newSink(kind Kind, opts Options) *logger.Sink {
	return logger.NewSink(opts.Logger, "builder", opts.Debug).Named(string(kind))
}

// content extracts the required content field.
func content(ctx context.Context, kind Kind, a types.Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c, ok := a.Content()
	if !ok {
		return "", types.NewConfigurationError("%s builder: artifact has no %q field", kind, types.ArtifactContent).
			WithComponent(string(kind))
	}
	return c, nil
}
