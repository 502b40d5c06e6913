package animation

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/assetflow/logger"
	"github.com/BaSui01/assetflow/types"
)

// Clip fields.
const (
	FieldAction      = "action"
	FieldLoop        = "loop"
	FieldDescription = "description"
)

// Options configures a Player.
type Options struct {
	Loop   bool
	Debug  bool
	Logger *zap.Logger
}

// Player is the base animation capability.
type Player struct {
	loop bool
	log  *logger.Sink
}

func NewPlayer(opts Options) *Player {
	return &Player{loop: opts.Loop, log: logger.NewSink(opts.Logger, "animation", opts.Debug)}
}

func (p *Player) Loop() bool { return p.loop }

// Play returns the playback description for action.
func (p *Player) Play(action string) (string, error) {
	if strings.TrimSpace(action) == "" {
		return "", types.NewConfigurationError("animation: action is required").WithComponent("animation")
	}
	p.log.Debug("playing animation", zap.String("action", action))
	return fmt.Sprintf("Animation '%s' played", action), nil
}

// Clip plays action and describes the result as an asset. The action tag is
// left to the caller.
func (p *Player) Clip(action string) (types.Asset, error) {
	desc, err := p.Play(action)
	if err != nil {
		return nil, err
	}
	return types.Asset{FieldLoop: p.loop, FieldDescription: desc}, nil
}

// Action is a named animation bound to a Player.
type Action struct {
	name   string
	player *Player
}

func Walk(p *Player) *Action   { return &Action{name: "walk", player: p} }
func Idle(p *Player) *Action   { return &Action{name: "idle", player: p} }
func Attack(p *Player) *Action { return &Action{name: "attack", player: p} }

// Named binds an arbitrary action name, normalized to lower case.
func Named(p *Player, name string) *Action {
	return &Action{name: strings.ToLower(strings.TrimSpace(name)), player: p}
}

func (a *Action) Name() string { return a.name }

// Play delegates to the player with this action's name.
func (a *Action) Play() (string, error) {
	return a.player.Play(a.name)
}

// Clip delegates first, then stamps the action tag.
func (a *Action) Clip() (types.Asset, error) {
	clip, err := a.player.Clip(a.name)
	if err != nil {
		return nil, err
	}
	clip[FieldAction] = a.name
	return clip, nil
}
