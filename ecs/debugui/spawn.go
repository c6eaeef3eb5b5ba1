package debugui

import "github.com/plus3/hearth/ecs"

// SpawnDebugUI creates the "debugui" entity with one child per window and
// the resources the windows share. The windows render through an
// ImguiLayer installed on the host.
func SpawnDebugUI(w *ecs.World) *ecs.Entity {
	ecs.NewResource[ImguiInputState](w)
	selection(w)

	root := w.NewEntity("debugui")

	browser := NewEntityBrowserComponent(100)
	spawnWindow(root, "entity browser", browser, browser.Render)

	inspector := NewComponentInspectorComponent()
	spawnWindow(root, "component inspector", inspector, inspector.Render)

	types := NewTypeViewerComponent()
	spawnWindow(root, "component types", types, func() { types.Render() })

	perf := NewPerformanceStatsComponent(120)
	spawnWindow(root, "performance stats", perf, perf.Render)

	queries := NewQueryDebuggerComponent()
	spawnWindow(root, "query debugger", queries, queries.Render)

	return root
}

func spawnWindow(root *ecs.Entity, name string, window ecs.Component, render func()) {
	e := root.World().NewEntity(name)
	e.SetParent(root)
	e.AddComponent(window)
	e.AddComponent(&ImguiItem{Render: render})
}

// RegisterDebugUIComponents assigns query bits to the debug UI component
// types ahead of first use.
func RegisterDebugUIComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[ImguiItem](registry)
	ecs.RegisterComponent[EntityBrowserComponent](registry)
	ecs.RegisterComponent[ComponentInspectorComponent](registry)
	ecs.RegisterComponent[TypeViewerComponent](registry)
	ecs.RegisterComponent[PerformanceStatsComponent](registry)
	ecs.RegisterComponent[QueryDebuggerComponent](registry)
}
