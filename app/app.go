package app

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"

	"gemshell/pluginhost"
)

// Logical screen dimensions of the device panel, passed to plugin init.
const (
	LogicalWidth  = 640
	LogicalHeight = 480
)

// maxFrameDelta caps dt after a stall (window drag, suspend) so a plugin
// never sees a multi-second step.
const maxFrameDelta = 0.25

// Game is the ebiten shell around the plugin host core. Update polls input
// and steps the core; Draw renders the menu or defers to the active plugin.
type Game struct {
	host      *pluginhost.Host
	log       zerolog.Logger
	lastFrame time.Time
}

func NewGame(host *pluginhost.Host, log zerolog.Logger) *Game {
	return &Game{host: host, log: log}
}

func (g *Game) Update() error {
	now := time.Now()
	dt := 1.0 / float64(ebiten.TPS())
	if !g.lastFrame.IsZero() {
		dt = now.Sub(g.lastFrame).Seconds()
		if dt > maxFrameDelta {
			dt = maxFrameDelta
		}
	}
	g.lastFrame = now

	in := ReadInput()

	// Escape on the top-level menu quits the shell.
	if g.host.Mode() == pluginhost.ModeMenu {
		if _, inFolder := g.host.InsideFolder(); !inFolder && in.Escape {
			return ebiten.Termination
		}
	}

	g.host.Step(in, dt)
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.host.Mode() == pluginhost.ModeMenu {
		drawMenu(screen, g.host)
		return
	}
	g.host.DrawActive()
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return LogicalWidth, LogicalHeight
}
