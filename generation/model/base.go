package model

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/BaSui01/assetflow/logger"
	"github.com/BaSui01/assetflow/types"
)

// variant is what distinguishes one backend from another: identity, the
// content text it renders for a prompt, and extra artifact fields.
type variant struct {
	kind     Kind
	name     string
	describe func(prompt string) string
	decorate func(a types.Artifact)
}

// base implements the lifecycle once for all variants.
type base struct {
	variant
	useGPU  bool
	check   func(string) error
	trained atomic.Bool
	log     *logger.Sink
}

func newBase(v variant, opts Options) *base {
	return &base{
		variant: v,
		useGPU:  opts.UseGPU,
		check:   opts.DatasetCheck,
		log:     logger.NewSink(opts.Logger, "model", opts.Debug).With(zap.String("model", v.name)),
	}
}

func (m *base) Name() string    { return m.name }
func (m *base) Kind() Kind      { return m.kind }
func (m *base) IsTrained() bool { return m.trained.Load() }
func (m *base) UseGPU() bool    { return m.useGPU }

// Train validates the dataset reference before touching state. The trained
// flag is write-once: the first successful call flips it and every later call
// is a no-op on state, including one with an invalid dataset.
func (m *base) Train(ctx context.Context, datasetPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.validateDataset(datasetPath); err != nil {
		if m.trained.Load() {
			m.log.Debug("ignoring retrain with invalid dataset", zap.Error(err))
			return nil
		}
		return err
	}

	first := m.trained.CompareAndSwap(false, true)
	m.log.Debug("training model",
		zap.String("dataset", datasetPath),
		zap.Bool("first_training", first),
	)
	return nil
}

// Infer renders an artifact whose content depends only on the variant and the
// prompt, so identical requests produce identical artifacts.
func (m *base) Infer(ctx context.Context, prompt string, res types.Resolution) (types.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !m.trained.Load() {
		return nil, types.NewInvalidStateError("%s: infer called before train", m.name).WithComponent(m.name)
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, types.NewConfigurationError("%s: prompt is required", m.name).WithComponent(m.name)
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}

	m.log.Debug("running inference",
		zap.String("prompt", prompt),
		zap.Stringer("resolution", res),
	)

	a := types.Artifact{
		types.ArtifactContent: m.describe(prompt),
		FieldModel:            m.name,
		FieldPrompt:           prompt,
		FieldResolution:       res,
		FieldDevice:           m.device(),
		FieldFingerprint:      fingerprint(m.name, prompt, res),
	}
	if m.decorate != nil {
		m.decorate(a)
	}
	return a, nil
}

func (m *base) validateDataset(path string) error {
	if strings.TrimSpace(path) == "" {
		return types.NewConfigurationError("%s: dataset path is empty", m.name).WithComponent(m.name)
	}
	if m.check != nil {
		if err := m.check(path); err != nil {
			return types.NewConfigurationError("%s: dataset %q is unreachable", m.name, path).
				WithComponent(m.name).
				WithCause(err)
		}
	}
	return nil
}

func (m *base) device() string {
	if m.useGPU {
		return "gpu"
	}
	return "cpu"
}

func fingerprint(name, prompt string, res types.Resolution) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%s", name, prompt, res)))
	return hex.EncodeToString(sum[:])
}
