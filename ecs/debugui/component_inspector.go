package debugui

import (
	"fmt"
	"reflect"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/hearth/ecs"
	"go.uber.org/zap"
)

// toggler is satisfied by every component through its embedded BaseComponent.
type toggler interface {
	Enabled() bool
	SetEnabled(bool)
	Destroy()
}

func NewComponentInspectorComponent() *ComponentInspectorComponent {
	return &ComponentInspectorComponent{}
}

func (ci *ComponentInspectorComponent) Render() {
	w := ci.World()
	if w == nil {
		return
	}

	if !imgui.BeginV("Component Inspector", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	e := Selected(w)
	if e == nil {
		imgui.Text("No entity selected")
		imgui.End()
		return
	}

	imgui.Text(fmt.Sprintf("Entity: %s", e.Name))
	imgui.Text(fmt.Sprintf("ID: %d", e.Id()))
	imgui.Text(fmt.Sprintf("GUID: %s", e.GUID()))
	if p := e.Parent(); p != nil {
		imgui.Text(fmt.Sprintf("Parent: %s", p))
	}
	imgui.Separator()

	for i, c := range e.Components() {
		compType := reflect.TypeOf(c)
		if imgui.TreeNodeStr(fmt.Sprintf("%s##%d", compType, i)) {
			ci.renderComponent(w, c, i)
			imgui.TreePop()
		}
	}

	imgui.End()
}

func (ci *ComponentInspectorComponent) renderComponent(w *ecs.World, c ecs.Component, idx int) {
	if t, ok := c.(toggler); ok {
		enabled := t.Enabled()
		if imgui.Checkbox(fmt.Sprintf("Enabled##%d", idx), &enabled) {
			t.SetEnabled(enabled)
		}
		imgui.SameLine()
		if imgui.Button(fmt.Sprintf("Remove##%d", idx)) {
			t.Destroy()
		}
	}

	schema := w.Schemas().For(c)
	if schema == nil {
		imgui.Text("(no schema)")
		return
	}

	for _, field := range schema.Fields {
		ci.renderField(c, field, idx)
	}
}

func (ci *ComponentInspectorComponent) renderField(c ecs.Component, field ecs.Field, idx int) {
	id := fmt.Sprintf("##%d.%s", idx, field.Name)
	val := field.Get(c)

	if field.Set == nil {
		imgui.Text(fmt.Sprintf("%s: %v", field.Name, val))
		return
	}

	switch field.Kind {
	case ecs.FieldInt:
		v := int32(val.(int))
		imgui.Text(fmt.Sprintf("%s:", field.Name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(id, &v) {
			ci.apply(c, field, int(v))
		}

	case ecs.FieldFloat:
		v := float32(val.(float64))
		imgui.Text(fmt.Sprintf("%s:", field.Name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputFloat(id, &v) {
			ci.apply(c, field, float64(v))
		}

	case ecs.FieldBool:
		v := val.(bool)
		if imgui.Checkbox(field.Name+id, &v) {
			ci.apply(c, field, v)
		}

	case ecs.FieldString:
		v := val.(string)
		imgui.Text(fmt.Sprintf("%s:", field.Name))
		imgui.SameLine()
		imgui.SetNextItemWidth(200)
		if imgui.InputTextWithHint(id, "", &v, imgui.InputTextFlagsNone, nil) {
			ci.apply(c, field, v)
		}

	default:
		imgui.Text(fmt.Sprintf("%s: %v", field.Name, val))
	}
}

func (ci *ComponentInspectorComponent) apply(c ecs.Component, field ecs.Field, v any) {
	if err := field.Set(c, v); err != nil {
		ci.World().Logger().Warn("inspector edit rejected",
			zap.String("field", field.Name),
			zap.Stringer("component", reflect.TypeOf(c)),
			zap.Error(err))
	}
}
