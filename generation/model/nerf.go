package model

import (
	"fmt"

	"github.com/BaSui01/assetflow/types"
)

// SamplesPerRay is the fixed ray-marching sample count of the NeRF backend.
const SamplesPerRay = 64

// NeRF is a neural radiance field backend, used for image prompts.
type NeRF struct {
	*base
}

// NewNeRF creates a NeRF model.
func NewNeRF(opts Options) *NeRF {
	return &NeRF{base: newBase(variant{
		kind: KindNeRF,
		name: "NerfModel",
		describe: func(prompt string) string {
			return fmt.Sprintf("NeRF 3D model from '%s'", prompt)
		},
		decorate: func(a types.Artifact) {
			a["samples_per_ray"] = SamplesPerRay
		},
	}, opts)}
}
