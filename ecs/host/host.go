// Package host runs an ecs.World inside an Ebiten game loop.
//
// Game implements ebiten.Game: every Update advances the world by one tick
// of 1/TPS seconds, every Draw hands the screen to the registered drawers in
// order. Plugins such as the ImGui overlay hook into the frame through the
// FrameHook, Drawer and LayoutHook interfaces.
package host

import (
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/hearth/ecs"
	"go.uber.org/zap"
)

// Script is the entry point of a scene. Start runs once before the first
// tick; Update runs once per frame before the world ticks.
type Script interface {
	Start(w *ecs.World)
	Update(dt float64)
}

// Drawer renders part of the scene. Drawers run in registration order.
type Drawer interface {
	Draw(screen *ebiten.Image)
}

// FrameHook brackets every tick.
type FrameHook interface {
	BeginFrame()
	EndFrame()
}

// LayoutHook is told about every outside size change.
type LayoutHook interface {
	Layout(outsideWidth, outsideHeight int)
}

// PanicPolicy decides what happens when a frame panics.
type PanicPolicy uint8

const (
	// PanicAbort stops the game loop with an error.
	PanicAbort PanicPolicy = iota
	// PanicSkipFrame logs the panic and carries on with the next frame.
	PanicSkipFrame
)

func (p PanicPolicy) String() string {
	switch p {
	case PanicAbort:
		return "abort"
	case PanicSkipFrame:
		return "skip"
	}
	return fmt.Sprintf("PanicPolicy(%d)", uint8(p))
}

// ParsePanicPolicy maps "abort" and "skip" to their policies.
func ParsePanicPolicy(s string) (PanicPolicy, error) {
	switch s {
	case "", "abort":
		return PanicAbort, nil
	case "skip":
		return PanicSkipFrame, nil
	}
	return 0, fmt.Errorf("host: unknown panic policy %q", s)
}

// ErrFramePanicked wraps the panic value of an aborted frame.
var ErrFramePanicked = errors.New("host: frame panicked")

type Options struct {
	Title       string
	Width       int
	Height      int
	TPS         int
	PanicPolicy PanicPolicy
}

// DefaultOptions returns a 1280x720 window ticking at 60 TPS.
func DefaultOptions() Options {
	return Options{
		Title:  "hearth",
		Width:  1280,
		Height: 720,
		TPS:    60,
	}
}

// Game drives a world from Ebiten callbacks.
type Game struct {
	world *ecs.World
	opts  Options
	log   *zap.Logger

	script  Script
	started bool

	frameHooks  []FrameHook
	drawers     []Drawer
	layoutHooks []LayoutHook

	screenWidth  int
	screenHeight int
	skipped      int
}

// NewGame creates a game for w. Zero Width, Height and TPS fall back to
// DefaultOptions; a nil logger logs nowhere.
func NewGame(w *ecs.World, opts Options, log *zap.Logger) *Game {
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.TPS <= 0 {
		opts.TPS = def.TPS
	}
	if opts.Title == "" {
		opts.Title = def.Title
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Game{
		world:        w,
		opts:         opts,
		log:          log,
		screenWidth:  opts.Width,
		screenHeight: opts.Height,
	}
}

func (g *Game) World() *ecs.World { return g.world }
func (g *Game) Options() Options  { return g.opts }

// Skipped returns the number of frames dropped under PanicSkipFrame.
func (g *Game) Skipped() int { return g.skipped }

// SetScript installs the scene entry point. It must be called before Run.
func (g *Game) SetScript(s Script) {
	g.script = s
	g.started = false
}

// Use registers plugin with every hook interface it implements. A plugin
// implementing none of them panics.
func (g *Game) Use(plugin any) {
	used := false
	if h, ok := plugin.(FrameHook); ok {
		g.frameHooks = append(g.frameHooks, h)
		used = true
	}
	if d, ok := plugin.(Drawer); ok {
		g.drawers = append(g.drawers, d)
		used = true
	}
	if l, ok := plugin.(LayoutHook); ok {
		g.layoutHooks = append(g.layoutHooks, l)
		used = true
	}
	if !used {
		panic(fmt.Sprintf("host: %T implements no hook", plugin))
	}
}

// DeltaTime is the fixed wall time of one Update.
func (g *Game) DeltaTime() float64 {
	return 1.0 / float64(g.opts.TPS)
}

// Update runs one frame: frame hooks, the script, then a world tick.
func (g *Game) Update() (err error) {
	frame := g.world.Frame()
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		g.log.Error("frame panicked",
			zap.Uint64("frame", frame),
			zap.Stringer("policy", g.opts.PanicPolicy),
			zap.Any("panic", r),
			zap.Stack("stack"))
		if g.opts.PanicPolicy == PanicSkipFrame {
			g.skipped++
			return
		}
		err = fmt.Errorf("%w at frame %d: %v", ErrFramePanicked, frame, r)
	}()

	for _, h := range g.frameHooks {
		h.BeginFrame()
	}
	defer func() {
		for i := len(g.frameHooks) - 1; i >= 0; i-- {
			g.frameHooks[i].EndFrame()
		}
	}()

	dt := g.DeltaTime()
	if g.script != nil {
		if !g.started {
			g.started = true
			g.script.Start(g.world)
		}
		g.script.Update(dt)
	}
	g.world.Tick(dt)
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	for _, d := range g.drawers {
		d.Draw(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	for _, l := range g.layoutHooks {
		l.Layout(outsideWidth, outsideHeight)
	}
	return g.screenWidth, g.screenHeight
}

// Run opens the window and blocks until the game loop ends.
func (g *Game) Run() error {
	ebiten.SetWindowTitle(g.opts.Title)
	ebiten.SetWindowSize(g.opts.Width, g.opts.Height)
	ebiten.SetTPS(g.opts.TPS)

	g.log.Info("starting game loop",
		zap.String("title", g.opts.Title),
		zap.Int("width", g.opts.Width),
		zap.Int("height", g.opts.Height),
		zap.Int("tps", g.opts.TPS))

	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("host: run game: %w", err)
	}
	return nil
}
