package texture

import (
	"context"

	"github.com/BaSui01/assetflow/types"
)

// ChannelGenerator decorates a Texturer with a PBR channel tag.
type ChannelGenerator struct {
	channel types.Channel
	base    Texturer
}

// ForChannel wraps base so that every generated asset is attributed to ch.
func ForChannel(ch types.Channel, base Texturer) (*ChannelGenerator, error) {
	switch ch {
	case types.ChannelAlbedo, types.ChannelNormal, types.ChannelRoughness, types.ChannelMetallic:
	default:
		return nil, types.NewConfigurationError("unknown texture channel %q", ch).WithComponent("texture")
	}
	if base == nil {
		return nil, types.NewConfigurationError("texture: base generator is nil").WithComponent("texture")
	}
	return &ChannelGenerator{channel: ch, base: base}, nil
}

func Albedo(base Texturer) (*ChannelGenerator, error)    { return ForChannel(types.ChannelAlbedo, base) }
func Normal(base Texturer) (*ChannelGenerator, error)    { return ForChannel(types.ChannelNormal, base) }
func Roughness(base Texturer) (*ChannelGenerator, error) { return ForChannel(types.ChannelRoughness, base) }
func Metallic(base Texturer) (*ChannelGenerator, error)  { return ForChannel(types.ChannelMetallic, base) }

// variants maps each PBR channel to its named constructor.
var variants = map[types.Channel]func(Texturer) (*ChannelGenerator, error){
	types.ChannelAlbedo:    Albedo,
	types.ChannelNormal:    Normal,
	types.ChannelRoughness: Roughness,
	types.ChannelMetallic:  Metallic,
}

func (g *ChannelGenerator) Channel() types.Channel { return g.channel }

// Generate delegates to the base first and stamps the channel afterwards, so
// the variant's attribution always wins over anything the base wrote.
func (g *ChannelGenerator) Generate(ctx context.Context, prompt string) (types.Asset, error) {
	asset, err := g.base.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	asset[types.AssetChannel] = string(g.channel)
	return asset, nil
}

// GenerateMaps runs one channel variant per requested channel over base, in order.
func GenerateMaps(ctx context.Context, base Texturer, prompt string, channels []types.Channel) ([]types.Asset, error) {
	maps := make([]types.Asset, 0, len(channels))
	for _, ch := range channels {
		variant, ok := variants[ch]
		if !ok {
			return nil, types.NewConfigurationError("unknown texture channel %q", ch).WithComponent("texture")
		}
		g, err := variant(base)
		if err != nil {
			return nil, err
		}
		m, err := g.Generate(ctx, prompt)
		if err != nil {
			return nil, err
		}
		maps = append(maps, m)
	}
	return maps, nil
}
