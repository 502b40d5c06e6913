package types

import (
	"fmt"
	"strings"
)

// Resolution is the output raster size requested from a model.
type Resolution struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// DefaultResolution matches the models' default inference size.
var DefaultResolution = Resolution{Width: 256, Height: 256}

// Validate rejects non-positive dimensions.
func (r Resolution) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return NewConfigurationError("resolution must be positive, got %dx%d", r.Width, r.Height)
	}
	return nil
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// OutputFormat is a mesh file format.
type OutputFormat string

const (
	FormatGLB  OutputFormat = "glb"
	FormatGLTF OutputFormat = "gltf"
	FormatOBJ  OutputFormat = "obj"
	FormatFBX  OutputFormat = "fbx"
	FormatUSDZ OutputFormat = "usdz"
	FormatPLY  OutputFormat = "ply"
)

// ParseOutputFormat normalizes s; an empty string yields glb.
func ParseOutputFormat(s string) (OutputFormat, error) {
	f := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatGLB, nil
	}
	switch f {
	case FormatGLB, FormatGLTF, FormatOBJ, FormatFBX, FormatUSDZ, FormatPLY:
		return f, nil
	}
	return "", NewConfigurationError("unsupported output format %q", s)
}

// Channel is a PBR texture map channel.
type Channel string

const (
	ChannelAlbedo    Channel = "albedo"
	ChannelNormal    Channel = "normal"
	ChannelRoughness Channel = "roughness"
	ChannelMetallic  Channel = "metallic"
)

// PBRChannels is the full channel set, in generation order.
var PBRChannels = []Channel{ChannelAlbedo, ChannelNormal, ChannelRoughness, ChannelMetallic}

// Params is implemented by InferParams and TextureParams.
type Params interface {
	Validate() error
	CacheKey() string
}

// InferParams carries the inference parameters of a 3D pipeline run.
// It is a value type; pipelines never mutate it.
type InferParams struct {
	Resolution   Resolution   `json:"resolution"`
	OutputFormat OutputFormat `json:"output_format"`
}

// NewInferParams returns params with a validated format.
func NewInferParams(width, height int, format string) (InferParams, error) {
	f, err := ParseOutputFormat(format)
	if err != nil {
		return InferParams{}, err
	}
	p := InferParams{Resolution: Resolution{Width: width, Height: height}, OutputFormat: f}
	return p, p.Validate()
}

// Validate checks resolution and format.
func (p InferParams) Validate() error {
	if err := p.Resolution.Validate(); err != nil {
		return err
	}
	if _, err := ParseOutputFormat(string(p.OutputFormat)); err != nil {
		return err
	}
	return nil
}

// CacheKey is a canonical encoding used in cache key derivation.
func (p InferParams) CacheKey() string {
	format := p.OutputFormat
	if format == "" {
		format = FormatGLB
	}
	return fmt.Sprintf("infer|%s|%s", p.Resolution, format)
}

// TextureParams carries the parameters of a texture pipeline run.
type TextureParams struct {
	Resolution Resolution `json:"resolution"`
	Channels   []Channel  `json:"channels,omitempty"`
}

// Validate checks resolution and the requested channels. A zero resolution
// is accepted and means the pipeline's configured default.
func (p TextureParams) Validate() error {
	if p.Resolution != (Resolution{}) {
		if err := p.Resolution.Validate(); err != nil {
			return err
		}
	}
	for _, ch := range p.Channels {
		switch ch {
		case ChannelAlbedo, ChannelNormal, ChannelRoughness, ChannelMetallic:
		default:
			return NewConfigurationError("unknown texture channel %q", ch)
		}
	}
	return nil
}

// RequestedChannels returns the channel set, defaulting to all PBR channels.
// The returned slice is a copy.
func (p TextureParams) RequestedChannels() []Channel {
	src := p.Channels
	if len(src) == 0 {
		src = PBRChannels
	}
	out := make([]Channel, len(src))
	copy(out, src)
	return out
}

// CacheKey is a canonical encoding used in cache key derivation.
func (p TextureParams) CacheKey() string {
	chs := p.RequestedChannels()
	parts := make([]string, len(chs))
	for i, ch := range chs {
		parts[i] = string(ch)
	}
	return fmt.Sprintf("texture|%s|%s", p.Resolution, strings.Join(parts, ","))
}

// Artifact is the raw output of a model inference step.
type Artifact map[string]any

// ArtifactContent is the field every artifact carries.
const ArtifactContent = "content"

// Content returns the content field, if present and a string.
func (a Artifact) Content() (string, bool) {
	v, ok := a[ArtifactContent].(string)
	return v, ok
}

// Clone returns a shallow copy.
func (a Artifact) Clone() Artifact {
	out := make(Artifact, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Asset is the terminal output of a pipeline run.
type Asset map[string]any

// Asset discriminator fields.
const (
	AssetType    = "type"
	AssetChannel = "channel"
)

// Type returns the type discriminator, if any.
func (a Asset) Type() string {
	v, _ := a[AssetType].(string)
	return v
}

// Clone returns a deep copy of nested assets and maps so callers can own the result.
func (a Asset) Clone() Asset {
	if a == nil {
		return nil
	}
	out := make(Asset, len(a))
	for k, v := range a {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Asset:
		return t.Clone()
	case map[string]any:
		return map[string]any(Asset(t).Clone())
	case []Asset:
		out := make([]Asset, len(t))
		for i := range t {
			out[i] = t[i].Clone()
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}
