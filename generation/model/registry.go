package model

import "github.com/BaSui01/assetflow/types"

// Config selects and configures a variant through New.
type Config struct {
	Options
	// DiffusionSteps only applies to KindDiffusion.
	DiffusionSteps int
}

// New is the dispatch table from Kind to constructor.
func New(kind Kind, cfg Config) (Model, error) {
	switch kind {
	case KindDiffusion:
		return NewDiffusion(cfg.DiffusionSteps, cfg.Options), nil
	case KindNeRF:
		return NewNeRF(cfg.Options), nil
	case KindTransformer:
		return NewTransformer(cfg.Options), nil
	default:
		return nil, types.NewUnsupportedModalityError(string(kind))
	}
}

// Kinds lists the registered variants.
func Kinds() []Kind {
	return []Kind{KindDiffusion, KindNeRF, KindTransformer}
}
