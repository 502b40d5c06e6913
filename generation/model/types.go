package model

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/assetflow/types"
)

// Kind identifies a model variant.
type Kind string

const (
	KindDiffusion   Kind = "diffusion"
	KindNeRF        Kind = "nerf"
	KindTransformer Kind = "transformer"
)

// Model defines the train -> infer lifecycle shared by all backends.
type Model interface {
	Name() string
	Kind() Kind
	// Train marks the model trained. Repeat calls leave the state unchanged.
	Train(ctx context.Context, datasetPath string) error
	// Infer fails with INVALID_STATE until Train has succeeded once.
	Infer(ctx context.Context, prompt string, res types.Resolution) (types.Artifact, error)
	IsTrained() bool
}

// Options is the explicit per-instance configuration. There are no package
// level debug or device switches.
type Options struct {
	UseGPU bool
	Debug  bool
	Logger *zap.Logger
	// DatasetCheck, when set, rejects unreachable dataset references.
	DatasetCheck func(path string) error
}

// Artifact fields written by every model.
const (
	FieldModel       = "model"
	FieldPrompt      = "prompt"
	FieldResolution  = "resolution"
	FieldDevice      = "device"
	FieldFingerprint = "fingerprint"
)
