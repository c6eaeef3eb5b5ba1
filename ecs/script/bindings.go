package script

import (
	"reflect"
	"strings"

	"github.com/plus3/hearth/ecs"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func (l *Lua) bind() {
	vm := l.vm

	entity := vm.NewTable()
	vm.SetFuncs(entity, map[string]lua.LGFunction{
		"id":           l.entityId,
		"name":         l.entityName,
		"active":       l.entityActive,
		"set_active":   l.entitySetActive,
		"position":     l.entityPosition,
		"set_position": l.entitySetPosition,
		"translate":    l.entityTranslate,
		"rotation":     l.entityRotation,
		"rotate":       l.entityRotate,
		"get":          l.entityGet,
		"set":          l.entitySet,
		"destroy":      l.entityDestroy,
	})
	vm.SetGlobal("entity", entity)

	world := vm.NewTable()
	vm.SetFuncs(world, map[string]lua.LGFunction{
		"elapsed":      l.worldElapsed,
		"frame":        l.worldFrame,
		"entity_count": l.worldEntityCount,
		"time_scale":   l.worldTimeScale,
	})
	vm.SetGlobal("world", world)

	logger := vm.NewTable()
	vm.SetFuncs(logger, map[string]lua.LGFunction{
		"debug": l.logAt(zap.DebugLevel),
		"info":  l.logAt(zap.InfoLevel),
		"warn":  l.logAt(zap.WarnLevel),
		"error": l.logAt(zap.ErrorLevel),
	})
	vm.SetGlobal("log", logger)
}

func (l *Lua) owner(L *lua.LState) *ecs.Entity {
	e := l.Entity()
	if e == nil || e.Destroyed() {
		L.RaiseError("entity is gone")
	}
	return e
}

func (l *Lua) transform(L *lua.LState) *ecs.Transform {
	t := l.owner(L).Transform()
	if t == nil {
		L.RaiseError("entity %s has no transform", l.owner(L).Name)
	}
	return t
}

func (l *Lua) entityId(L *lua.LState) int {
	L.Push(lua.LNumber(l.owner(L).Id()))
	return 1
}

func (l *Lua) entityName(L *lua.LState) int {
	L.Push(lua.LString(l.owner(L).Name))
	return 1
}

func (l *Lua) entityActive(L *lua.LState) int {
	L.Push(lua.LBool(l.owner(L).Active()))
	return 1
}

func (l *Lua) entitySetActive(L *lua.LState) int {
	l.owner(L).SetActive(L.CheckBool(1))
	return 0
}

func (l *Lua) entityPosition(L *lua.LState) int {
	t := l.transform(L)
	L.Push(lua.LNumber(t.X))
	L.Push(lua.LNumber(t.Y))
	return 2
}

func (l *Lua) entitySetPosition(L *lua.LState) int {
	l.transform(L).SetPosition(float64(L.CheckNumber(1)), float64(L.CheckNumber(2)))
	return 0
}

func (l *Lua) entityTranslate(L *lua.LState) int {
	l.transform(L).Translate(float64(L.CheckNumber(1)), float64(L.CheckNumber(2)))
	return 0
}

func (l *Lua) entityRotation(L *lua.LState) int {
	L.Push(lua.LNumber(l.transform(L).Rotation))
	return 1
}

func (l *Lua) entityRotate(L *lua.LState) int {
	l.transform(L).Rotate(float64(L.CheckNumber(1)))
	return 0
}

// entityGet reads a schema field: entity.get("Transform", "x").
func (l *Lua) entityGet(L *lua.LState) int {
	c, schema := l.component(L, L.CheckString(1))
	v, err := schema.Get(c, L.CheckString(2))
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	L.Push(toLua(v))
	return 1
}

// entitySet writes a schema field: entity.set("Health", "current", 3).
func (l *Lua) entitySet(L *lua.LState) int {
	c, schema := l.component(L, L.CheckString(1))
	if err := schema.Set(c, L.CheckString(2), fromLua(L.CheckAny(3))); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

func (l *Lua) entityDestroy(L *lua.LState) int {
	l.owner(L).Destroy()
	return 0
}

// component finds the first component on the owner whose type name matches
// and has a schema. Both "Health" and "game.Health" match *game.Health.
func (l *Lua) component(L *lua.LState, typeName string) (ecs.Component, *ecs.Schema) {
	e := l.owner(L)
	schemas := e.World().Schemas()
	for _, c := range e.Components() {
		if !typeNameMatches(reflect.TypeOf(c), typeName) {
			continue
		}
		if s := schemas.For(c); s != nil {
			return c, s
		}
	}
	L.RaiseError("entity %s has no scriptable component %q", e.Name, typeName)
	return nil, nil
}

func typeNameMatches(t reflect.Type, name string) bool {
	full := strings.TrimPrefix(t.String(), "*")
	if full == name {
		return true
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name() == name
}

func (l *Lua) worldElapsed(L *lua.LState) int {
	L.Push(lua.LNumber(l.owner(L).World().Elapsed()))
	return 1
}

func (l *Lua) worldFrame(L *lua.LState) int {
	L.Push(lua.LNumber(l.owner(L).World().Frame()))
	return 1
}

func (l *Lua) worldEntityCount(L *lua.LState) int {
	L.Push(lua.LNumber(l.owner(L).World().EntityCount()))
	return 1
}

func (l *Lua) worldTimeScale(L *lua.LState) int {
	L.Push(lua.LNumber(l.owner(L).World().TimeScale()))
	return 1
}

func (l *Lua) logAt(level zapcore.Level) lua.LGFunction {
	return func(L *lua.LState) int {
		if ce := l.log.Check(level, L.CheckString(1)); ce != nil {
			ce.Write(zap.Uint64("frame", l.World().Frame()))
		}
		return 0
	}
}

func toLua(v any) lua.LValue {
	switch v := v.(type) {
	case float64:
		return lua.LNumber(v)
	case int:
		return lua.LNumber(v)
	case bool:
		return lua.LBool(v)
	case string:
		return lua.LString(v)
	}
	return lua.LNil
}

// fromLua converts a Lua value to the Go type schema setters accept. Lua
// numbers come back as float64; integral values are accepted by int fields.
func fromLua(v lua.LValue) any {
	switch v := v.(type) {
	case lua.LNumber:
		return float64(v)
	case lua.LBool:
		return bool(v)
	case lua.LString:
		return string(v)
	}
	return nil
}
