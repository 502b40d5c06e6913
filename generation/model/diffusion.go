package model

import (
	"fmt"

	"github.com/BaSui01/assetflow/types"
)

// DefaultDiffusionSteps is the number of denoising steps when none is given.
const DefaultDiffusionSteps = 50

// Diffusion is a diffusion-based text-to-3D backend.
type Diffusion struct {
	*base
	steps int
}

// NewDiffusion creates a diffusion model. steps <= 0 uses DefaultDiffusionSteps.
func NewDiffusion(steps int, opts Options) *Diffusion {
	if steps <= 0 {
		steps = DefaultDiffusionSteps
	}
	d := &Diffusion{steps: steps}
	d.base = newBase(variant{
		kind: KindDiffusion,
		name: "DiffusionModel",
		describe: func(prompt string) string {
			return fmt.Sprintf("Generated 3D model from '%s'", prompt)
		},
		decorate: func(a types.Artifact) {
			a["steps"] = d.steps
		},
	}, opts)
	return d
}

// Steps returns the configured step count.
func (d *Diffusion) Steps() int { return d.steps }
