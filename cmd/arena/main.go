// Command arena is a small interactive demo: a flock of wanderers that flee
// the mouse pointer, plus a Lua-scripted spinner. Space pauses the world and
// -debugui overlays the Dear ImGui inspector.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/plus3/hearth/config"
	"github.com/plus3/hearth/ecs"
	"github.com/plus3/hearth/ecs/debugui"
	debugui_ebiten "github.com/plus3/hearth/ecs/debugui/ebiten"
	"github.com/plus3/hearth/ecs/host"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "Path to a .toml or .yaml config file.")
	debugUI := flag.Bool("debugui", false, "Show the debug overlay. Overrides host.debug_ui.")
	wanderers := flag.Int("wanderers", 120, "Number of wanderers to spawn.")
	seed := flag.Uint64("seed", 7, "Seed for spawn positions and wandering.")
	flag.Parse()

	cfg := config.Defaults()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *debugUI {
		cfg.Host.DebugUI = true
	}

	log, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	policy, err := host.ParsePanicPolicy(cfg.Host.PanicPolicy)
	if err != nil {
		log.Fatal("invalid host config", zap.Error(err))
	}

	w := ecs.NewWorld(append(cfg.World.Options(), ecs.WithLogger(log.Named("world")))...)
	game := host.NewGame(w, host.Options{
		Title:       cfg.Host.Title,
		Width:       cfg.Host.Width,
		Height:      cfg.Host.Height,
		TPS:         cfg.Host.TPS,
		PanicPolicy: policy,
	}, log.Named("host"))

	opts := game.Options()
	renderer := &RenderSystem{Width: float32(opts.Width), Height: float32(opts.Height)}
	w.Register(renderer)
	game.Use(renderer)

	if cfg.Host.DebugUI {
		backend := debugui_ebiten.NewImguiBackend(opts.Title, opts.Width, opts.Height)
		game.Use(backend)
		game.Use(debugui.NewImguiLayer(w))
		debugui.RegisterDebugUIComponents(w.Registry())
		debugui.SpawnDebugUI(w)
	}

	game.SetScript(&Scene{
		Wanderers: *wanderers,
		Width:     float64(opts.Width),
		Height:    float64(opts.Height),
		Seed:      *seed,
	})

	if err := game.Run(); err != nil {
		log.Fatal("arena stopped", zap.Error(err))
	}
}
