package model

import (
	"fmt"

	"github.com/BaSui01/assetflow/types"
)

// TransformerLayers is the fixed depth reported by the transformer backend.
const TransformerLayers = 12

// Transformer is a transformer-based generative backend.
type Transformer struct {
	*base
}

// NewTransformer creates a transformer model.
func NewTransformer(opts Options) *Transformer {
	return &Transformer{base: newBase(variant{
		kind: KindTransformer,
		name: "TransformerModel",
		describe: func(prompt string) string {
			return fmt.Sprintf("Transformer 3D model from '%s'", prompt)
		},
		decorate: func(a types.Artifact) {
			a["layers"] = TransformerLayers
		},
	}, opts)}
}
