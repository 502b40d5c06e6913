package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferParams_Validate(t *testing.T) {
	p, err := NewInferParams(256, 256, "GLB")
	require.NoError(t, err)
	assert.Equal(t, FormatGLB, p.OutputFormat)

	_, err = NewInferParams(0, 256, "glb")
	assert.True(t, IsErrorCode(err, ErrConfiguration))

	_, err = NewInferParams(64, 64, "stl")
	assert.True(t, IsErrorCode(err, ErrConfiguration))
}

func TestInferParams_CacheKeyDefaultsFormat(t *testing.T) {
	a := InferParams{Resolution: Resolution{128, 128}}
	b := InferParams{Resolution: Resolution{128, 128}, OutputFormat: FormatGLB}
	assert.Equal(t, a.CacheKey(), b.CacheKey())

	c := InferParams{Resolution: Resolution{128, 128}, OutputFormat: FormatOBJ}
	assert.NotEqual(t, a.CacheKey(), c.CacheKey())
}

func TestTextureParams_Channels(t *testing.T) {
	p := TextureParams{Resolution: Resolution{1024, 1024}}
	require.NoError(t, p.Validate())
	assert.Equal(t, PBRChannels, p.RequestedChannels())

	chs := p.RequestedChannels()
	chs[0] = "mutated"
	assert.Equal(t, ChannelAlbedo, PBRChannels[0])

	bad := TextureParams{Resolution: Resolution{8, 8}, Channels: []Channel{"emissive"}}
	assert.True(t, IsErrorCode(bad.Validate(), ErrConfiguration))

	assert.NoError(t, TextureParams{}.Validate(), "zero resolution defers to the pipeline default")
	half := TextureParams{Resolution: Resolution{Width: 64}}
	assert.True(t, IsErrorCode(half.Validate(), ErrConfiguration))
}

func TestAsset_CloneIsDeep(t *testing.T) {
	orig := Asset{
		"type": "texture_set",
		"maps": []Asset{{"channel": "albedo"}},
		"meta": map[string]any{"k": "v"},
	}
	cp := orig.Clone()
	cp["maps"].([]Asset)[0]["channel"] = "normal"
	cp["meta"].(map[string]any)["k"] = "changed"

	assert.Equal(t, "albedo", orig["maps"].([]Asset)[0]["channel"])
	assert.Equal(t, "v", orig["meta"].(map[string]any)["k"])
	assert.Equal(t, "texture_set", cp.Type())
}

func TestArtifact_Content(t *testing.T) {
	a := Artifact{"content": "x"}
	c, ok := a.Content()
	assert.True(t, ok)
	assert.Equal(t, "x", c)

	_, ok = Artifact{}.Content()
	assert.False(t, ok)
}
