package ebiten_test

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/hearth/ecs"
	"github.com/plus3/hearth/ecs/debugui"
	debugui_ebiten "github.com/plus3/hearth/ecs/debugui/ebiten"
	"github.com/plus3/hearth/ecs/host"
)

func Example() {
	// Create Ebiten window and ImGui backend
	backend := debugui_ebiten.NewImguiBackend("ECS ImGui Example", 1280, 720)

	// Create the world
	w := ecs.NewWorld()
	debugui.RegisterDebugUIComponents(w.Registry())

	// Spawn the built-in debug windows
	debugui.SpawnDebugUI(w)

	// Spawn entities with ImGui render functions
	w.NewEntity("hello").AddComponent(&debugui.ImguiItem{
		Render: func() {
			imgui.Begin("Debug Window")
			imgui.Text("Hello from ECS!")
			imgui.End()
		},
	})

	// The backend brackets every tick with an ImGui frame and draws on top
	game := host.NewGame(w, host.Options{Title: "ECS ImGui Example"}, nil)
	game.Use(backend)
	game.Use(debugui.NewImguiLayer(w))

	// Run the game
	if err := game.Run(); err != nil {
		panic(err)
	}
}
