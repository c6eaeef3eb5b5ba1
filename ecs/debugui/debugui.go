// Package debugui provides immediate-mode GUI integration for ECS applications using Dear ImGui.
// It renders hierarchy, inspector and statistics windows as components of a
// debug entity and reports ImGui's input capture state through a world resource.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/hearth/ecs"
)

// ImguiItem is a component that holds a Dear ImGui render function.
// Attach this to entities that should render ImGui widgets each frame.
type ImguiItem struct {
	ecs.BaseComponent
	Render func()
}

// ImguiInputState tracks Dear ImGui's input capture state as a world resource.
// Use this to determine if ImGui is consuming mouse or keyboard input.
type ImguiInputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// ImguiLayer renders every visible ImguiItem once per host frame. It is a
// host frame hook rather than a system so the overlay keeps drawing while the
// world is paused. Pass it to Game.Use after the ImGui backend: BeginFrame then
// runs inside the backend's ImGui frame and EndFrame renders after the tick
// has finished its destruction phase.
type ImguiLayer struct {
	items *ecs.Query[struct{ *ImguiItem }]
	input *ecs.Resource[ImguiInputState]
}

// NewImguiLayer creates a layer over w's ImguiItem components.
func NewImguiLayer(w *ecs.World) *ImguiLayer {
	return &ImguiLayer{
		items: ecs.NewQuery[struct{ *ImguiItem }](w),
		input: ecs.NewResource[ImguiInputState](w),
	}
}

// BeginFrame publishes ImGui's input capture state to the world.
func (l *ImguiLayer) BeginFrame() {
	state := l.input.Get()
	if state == nil {
		return
	}
	io := imgui.CurrentIO()
	state.WantCaptureMouse = io.WantCaptureMouse()
	state.WantCaptureKeyboard = io.WantCaptureKeyboard()
}

// EndFrame runs the render funcs of every visible item.
func (l *ImguiLayer) EndFrame() {
	for e, item := range l.items.Iter() {
		if visible(e, item.ImguiItem) {
			item.ImguiItem.Render()
		}
	}
}

func visible(e *ecs.Entity, item *ImguiItem) bool {
	return item.Render != nil && item.Enabled() && e.Active() && !e.Destroyed()
}
