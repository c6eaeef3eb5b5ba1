package debugui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/hearth/ecs"
)

type EntityInfo struct {
	Entity         *ecs.Entity
	Depth          int
	ComponentCount int
}

func NewEntityBrowserComponent(maxEntitiesPerPage int) *EntityBrowserComponent {
	return &EntityBrowserComponent{maxEntitiesPerPage: maxEntitiesPerPage}
}

func (eb *EntityBrowserComponent) Render() {
	w := eb.World()
	if w == nil {
		return
	}

	if !imgui.BeginV("Entity Browser", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	imgui.InputTextWithHint("##search", "Search...", &eb.filterText, imgui.InputTextFlagsNone, nil)
	imgui.SameLine()
	if imgui.Button("Clear Filter") {
		eb.filterText = ""
		eb.currentPage = 0
	}

	selected := Selected(w)
	if selected != nil {
		imgui.Text(fmt.Sprintf("Selected: %s", selected))
		imgui.SameLine()
		if imgui.Button("Toggle Active") {
			selected.SetActive(!selected.Active())
		}
		imgui.SameLine()
		if imgui.Button("Destroy") {
			selected.Destroy()
		}
	}

	rows := flattenHierarchy(w.Roots(), eb.filterText)

	startIdx, endIdx := pageBounds(len(rows), eb.currentPage, eb.maxEntitiesPerPage)

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsScrollY
	if imgui.BeginTableV("EntityTable", 4, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Entity")
		imgui.TableSetupColumn("ID")
		imgui.TableSetupColumn("Components")
		imgui.TableSetupColumn("Active")
		imgui.TableHeadersRow()

		for _, row := range rows[startIdx:endIdx] {
			e := row.Entity
			imgui.TableNextRow()

			imgui.TableNextColumn()
			label := fmt.Sprintf("%s%s##%d", strings.Repeat("  ", row.Depth), e.Name, e.Id())
			if imgui.SelectableBoolV(label, selected == e, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				Select(w, e)
			}

			imgui.TableNextColumn()
			imgui.Text(strconv.FormatUint(uint64(e.Id()), 10))

			imgui.TableNextColumn()
			imgui.Text(strconv.Itoa(row.ComponentCount))

			imgui.TableNextColumn()
			imgui.Text(strconv.FormatBool(e.Active()))
		}

		imgui.EndTable()
	}

	if len(rows) > eb.maxEntitiesPerPage {
		totalPages := (len(rows) + eb.maxEntitiesPerPage - 1) / eb.maxEntitiesPerPage
		imgui.Text(fmt.Sprintf("Page %d / %d (%d entities)", eb.currentPage+1, totalPages, len(rows)))
		imgui.SameLine()
		if imgui.Button("Prev") && eb.currentPage > 0 {
			eb.currentPage--
		}
		imgui.SameLine()
		if imgui.Button("Next") && eb.currentPage < totalPages-1 {
			eb.currentPage++
		}
	} else {
		imgui.Text(fmt.Sprintf("Total: %d entities", len(rows)))
	}

	imgui.End()
}

// flattenHierarchy walks roots depth-first. With a filter, only entities
// whose name or id contains it are kept, at depth 0.
func flattenHierarchy(roots []*ecs.Entity, filter string) []EntityInfo {
	filter = strings.ToLower(filter)
	var rows []EntityInfo

	var walk func(e *ecs.Entity, depth int)
	walk = func(e *ecs.Entity, depth int) {
		if e.Destroyed() {
			return
		}
		if filter == "" {
			rows = append(rows, EntityInfo{Entity: e, Depth: depth, ComponentCount: len(e.Components())})
		} else if matchesFilter(e, filter) {
			rows = append(rows, EntityInfo{Entity: e, ComponentCount: len(e.Components())})
		}
		for _, child := range e.Children() {
			walk(child, depth+1)
		}
	}

	for _, root := range roots {
		if root.Parent() == nil {
			walk(root, 0)
		}
	}
	return rows
}

func matchesFilter(e *ecs.Entity, filter string) bool {
	if strings.Contains(strings.ToLower(e.Name), filter) {
		return true
	}
	return strings.Contains(strconv.FormatUint(uint64(e.Id()), 10), filter)
}

// pageBounds clamps a page to [0, n).
func pageBounds(n, page, perPage int) (int, int) {
	if perPage <= 0 {
		return 0, n
	}
	start := page * perPage
	if start > n {
		start = n
	}
	end := start + perPage
	if end > n {
		end = n
	}
	return start, end
}
