package script_test

import (
	"testing"

	"github.com/plus3/hearth/ecs"
	"github.com/plus3/hearth/ecs/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func spawn(t *testing.T, w *ecs.World, source string) (*ecs.Entity, *script.Lua) {
	t.Helper()
	e := w.NewEntity("scripted")
	e.AddComponent(ecs.NewTransform(0, 0))
	l := script.New(t.Name(), source)
	e.AddComponent(l)
	return e, l
}

func TestLuaHooks(t *testing.T) {
	w := ecs.NewWorld(ecs.WithFixedStep(0.25), ecs.WithMaxAccumulated(1))
	e, l := spawn(t, w, `
		started = 0
		fixed = 0
		function start() started = started + 1 end
		function update(dt) entity.rotate(2 * dt) end
		function fixed_update(dt) fixed = fixed + 1 end
	`)
	require.NoError(t, l.Err())

	w.Tick(0)
	assert.Equal(t, lua.LNumber(1), l.State().GetGlobal("started"))
	assert.Zero(t, e.Transform().Rotation, "the first frame only starts")

	w.Tick(0.5)
	w.Tick(0.25)
	assert.Equal(t, lua.LNumber(1), l.State().GetGlobal("started"))
	assert.Equal(t, lua.LNumber(3), l.State().GetGlobal("fixed"))
	assert.InDelta(t, 1.5, e.Transform().Rotation, 1e-9)
}

func TestLuaLoadErrorDisablesScript(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	w := ecs.NewWorld(ecs.WithLogger(zap.New(core)))
	_, l := spawn(t, w, `function update(dt`)

	require.Error(t, l.Err())
	assert.False(t, l.Enabled())
	require.Equal(t, 1, logs.FilterMessage("lua script disabled").Len())

	assert.NotPanics(t, func() {
		w.Tick(0)
		w.Tick(0.1)
	})
}

func TestLuaRuntimeErrorDisablesScript(t *testing.T) {
	w := ecs.NewWorld(ecs.WithFixedStep(1))
	_, l := spawn(t, w, `
		calls = 0
		function update(dt)
			calls = calls + 1
			error("boom")
		end
	`)

	w.Tick(0)
	w.Tick(0.1)
	w.Tick(0.1)

	require.Error(t, l.Err())
	assert.Contains(t, l.Err().Error(), "boom")
	assert.False(t, l.Enabled())
	assert.Equal(t, lua.LNumber(1), l.State().GetGlobal("calls"), "disabled after the first failure")
}

func TestLuaSandbox(t *testing.T) {
	w := ecs.NewWorld()
	_, l := spawn(t, w, `
		assert(os == nil, "os is exposed")
		assert(io == nil, "io is exposed")
		assert(debug == nil, "debug is exposed")
		assert(dofile == nil and loadfile == nil, "file loaders are exposed")
		assert(require == nil and module == nil, "require is exposed")
		assert(load ~= nil, "load stays for in-memory chunks")
		assert(math.floor(1.5) == 1)
		assert(string.upper("a") == "A")
		assert(API_VERSION == 1)
	`)
	assert.NoError(t, l.Err())
}

func TestLuaSchemaAccess(t *testing.T) {
	w := ecs.NewWorld()
	e, l := spawn(t, w, `
		function move()
			entity.set("Transform", "x", 5)
			entity.translate(1, 2)
			return entity.get("ecs.Transform", "x")
		end
		function bad_field() entity.set("Transform", "z", 1) end
		function bad_type() entity.set("Transform", "x", "far") end
		function bad_component() entity.get("Health", "current") end
	`)

	ret, err := l.Call("move")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(6), ret)
	assert.Equal(t, 6.0, e.Transform().X)
	assert.Equal(t, 2.0, e.Transform().Y)

	_, err = l.Call("bad_field")
	assert.ErrorContains(t, err, "unknown field")
	_, err = l.Call("bad_type")
	assert.ErrorContains(t, err, "type mismatch")
	_, err = l.Call("bad_component")
	assert.ErrorContains(t, err, "no scriptable component")

	ret, err = l.Call("missing")
	assert.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestLuaDestroyClosesState(t *testing.T) {
	w := ecs.NewWorld(ecs.WithFixedStep(1))
	e, l := spawn(t, w, `
		function update(dt)
			if world.frame() >= 2 then entity.destroy() end
		end
	`)

	w.Tick(0)
	w.Tick(0.1)
	assert.False(t, e.Destroyed())
	w.Tick(0.1)
	assert.True(t, e.Destroyed())
	assert.Nil(t, l.State())
	assert.NoError(t, l.Err())
}

func TestLuaLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	w := ecs.NewWorld(ecs.WithLogger(zap.New(core)))
	_, l := spawn(t, w, `
		function start()
			log.info("hello from " .. entity.name())
		end
	`)
	require.NoError(t, l.Err())

	w.Tick(0)
	entries := logs.FilterMessage("hello from scripted")
	require.Equal(t, 1, entries.Len())
	fields := entries.All()[0].ContextMap()
	assert.Equal(t, t.Name(), fields["script"])
}
