package debugui

import (
	"fmt"
	"sort"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/hearth/ecs"
)

type TypeInfo struct {
	Bit         int
	Name        string
	Instances   int
	EntityCount int
}

type TypeViewerCache struct {
	types         []TypeInfo
	lastTypeCount int
}

func NewTypeViewerComponent() *TypeViewerComponent {
	return &TypeViewerComponent{
		cache:         &TypeViewerCache{},
		selectedBit:   -1,
		sortColumn:    2,
		sortAscending: false,
	}
}

// Render draws one row per registered component type and returns the bit of
// the row clicked this frame, or -1.
func (tv *TypeViewerComponent) Render() int {
	w := tv.World()
	if w == nil {
		return -1
	}

	if !imgui.BeginV("Component Types", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return -1
	}

	tv.refresh(w.Registry())

	maxInstances := 0
	for _, info := range tv.cache.types {
		maxInstances = max(maxInstances, info.Instances)
	}

	clicked := -1
	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("TypeTable", 4, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Bit")
		imgui.TableSetupColumn("Type")
		imgui.TableSetupColumn("Instances")
		imgui.TableSetupColumn("Entities")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			tv.sortColumn = int(spec.ColumnIndex())
			tv.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			sortTypes(tv.cache.types, tv.sortColumn, tv.sortAscending)
			sortSpecs.SetSpecsDirty(false)
		}

		for _, info := range tv.cache.types {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			if imgui.SelectableBoolV(fmt.Sprintf("%d", info.Bit), tv.selectedBit == info.Bit, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				tv.selectedBit = info.Bit
				clicked = info.Bit
			}

			imgui.TableNextColumn()
			imgui.Text(info.Name)

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", info.Instances))

			if maxInstances > 0 {
				barWidth := float32(info.Instances) / float32(maxInstances) * 80.0
				imgui.SameLine()
				drawList := imgui.WindowDrawList()
				pos := imgui.CursorScreenPos()
				color := imgui.ColorU32Vec4(imgui.NewVec4(0.2, 0.6, 0.8, 0.6))
				drawList.AddRectFilled(pos, imgui.NewVec2(pos.X+barWidth, pos.Y+10), color)
			}

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", info.EntityCount))
		}

		imgui.EndTable()
	}

	imgui.End()
	return clicked
}

// refresh rebuilds the rows when a new type gets a bit and recounts
// instances otherwise.
func (tv *TypeViewerComponent) refresh(r *ecs.ComponentRegistry) {
	types := r.Types()
	if len(types) != tv.cache.lastTypeCount {
		tv.cache.types = collectTypes(r)
		tv.cache.lastTypeCount = len(types)
	} else {
		for i := range tv.cache.types {
			info := &tv.cache.types[i]
			t := types[info.Bit]
			info.Instances = len(r.Pool(t))
			info.EntityCount = len(r.EntitiesWith(t))
		}
	}
	sortTypes(tv.cache.types, tv.sortColumn, tv.sortAscending)
}

func collectTypes(r *ecs.ComponentRegistry) []TypeInfo {
	types := r.Types()
	out := make([]TypeInfo, 0, len(types))
	for _, t := range types {
		bit, _ := r.LookupBit(t)
		out = append(out, TypeInfo{
			Bit:         bit,
			Name:        t.String(),
			Instances:   len(r.Pool(t)),
			EntityCount: len(r.EntitiesWith(t)),
		})
	}
	return out
}

func sortTypes(types []TypeInfo, column int, ascending bool) {
	sort.SliceStable(types, func(i, j int) bool {
		a, b := types[i], types[j]
		if !ascending {
			a, b = b, a
		}

		switch column {
		case 0:
			return a.Bit < b.Bit
		case 1:
			return a.Name < b.Name
		case 3:
			return a.EntityCount < b.EntityCount
		default:
			return a.Instances < b.Instances
		}
	})
}
