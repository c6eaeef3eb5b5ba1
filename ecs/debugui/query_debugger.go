package debugui

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/AllenDang/cimgui-go/imgui"
)

func NewQueryDebuggerComponent() *QueryDebuggerComponent {
	return &QueryDebuggerComponent{
		selectedComponentTypes: make(map[string]bool),
	}
}

func (qd *QueryDebuggerComponent) Render() {
	w := qd.World()
	if w == nil {
		return
	}

	if !imgui.BeginV("Query Debugger", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	registry := w.Registry()
	types := registry.Types()
	sort.Slice(types, func(i, j int) bool { return types[i].String() < types[j].String() })

	imgui.Text("Select Component Types:")
	imgui.Separator()

	if imgui.Button("Clear All") {
		clear(qd.selectedComponentTypes)
	}

	for _, t := range types {
		name := t.String()
		selected := qd.selectedComponentTypes[name]
		if imgui.Checkbox(name, &selected) {
			if selected {
				qd.selectedComponentTypes[name] = true
			} else {
				delete(qd.selectedComponentTypes, name)
			}
		}
	}

	imgui.Separator()

	selectedTypes := qd.selectedTypes(types)
	if len(selectedTypes) == 0 {
		imgui.Text("No component types selected")
		imgui.End()
		return
	}

	matching := registry.EntitiesWith(selectedTypes...)
	imgui.Text(fmt.Sprintf("Matching Entities: %d", len(matching)))
	imgui.Text(fmt.Sprintf("Cached Queries: %d", registry.CachedQueries()))

	if imgui.TreeNodeStr("Entity Details") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("QueryEntityTable", 3, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("Entity")
			imgui.TableSetupColumn("ID")
			imgui.TableSetupColumn("Components")
			imgui.TableHeadersRow()

			for _, e := range matching {
				imgui.TableNextRow()

				imgui.TableSetColumnIndex(0)
				if imgui.SelectableBoolV(fmt.Sprintf("%s##q%d", e.Name, e.Id()), false, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
					Select(w, e)
				}

				imgui.TableSetColumnIndex(1)
				imgui.Text(fmt.Sprintf("%d", e.Id()))

				imgui.TableSetColumnIndex(2)
				imgui.Text(fmt.Sprintf("%v", e.ComponentTypes()))
			}

			imgui.EndTable()
		}
		imgui.TreePop()
	}

	imgui.End()
}

// selectedTypes resolves the ticked type names against the registry. Names
// of types that no longer exist are ignored.
func (qd *QueryDebuggerComponent) selectedTypes(types []reflect.Type) []reflect.Type {
	var out []reflect.Type
	for _, t := range types {
		if qd.selectedComponentTypes[t.String()] {
			out = append(out, t)
		}
	}
	return out
}
