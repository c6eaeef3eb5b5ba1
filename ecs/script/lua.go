// Package script attaches Lua behavior to entities.
//
// A Lua component runs its source once when it is awoken and then calls the
// optional global functions start(), update(dt) and fixed_update(dt) from
// the matching lifecycle hooks. Scripts talk to the engine through the
// entity, world and log tables.
//
//	local speed = 2
//	function update(dt)
//		entity.rotate(speed * dt)
//	end
//
// A script that fails to load or raises an error is logged and disabled,
// and keeps its error available through Err. Its VM stays open for
// inspection until the component is destroyed.
package script

import (
	"fmt"

	"github.com/plus3/hearth/ecs"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// APIVersion is exposed to scripts as the API_VERSION global.
const APIVersion = 1

// Lua is a component running one Lua chunk in its own VM.
type Lua struct {
	ecs.BaseComponent

	// ChunkName identifies the script in errors and logs.
	ChunkName string
	Source    string

	vm  *lua.LState
	log *zap.Logger
	err error
}

// New creates a script component from source.
func New(chunkName, source string) *Lua {
	return &Lua{ChunkName: chunkName, Source: source}
}

// Err returns the error that disabled the script, if any.
func (l *Lua) Err() error { return l.err }

// State exposes the VM, or nil before the component is awoken.
func (l *Lua) State() *lua.LState { return l.vm }

func (l *Lua) OnAwake() {
	l.log = l.World().Logger().With(zap.String("script", l.ChunkName))

	vm := lua.NewState(lua.Options{SkipOpenLibs: true})
	if err := openLibs(vm); err != nil {
		vm.Close()
		l.fail(fmt.Errorf("open libs: %w", err))
		return
	}
	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))
	l.vm = vm
	l.bind()

	if err := vm.DoString(l.Source); err != nil {
		l.fail(fmt.Errorf("load %s: %w", l.ChunkName, err))
		return
	}
	l.log.Debug("loaded lua script")
}

func (l *Lua) OnStart() {
	l.call("start")
}

func (l *Lua) Update(dt float64) {
	l.call("update", lua.LNumber(dt))
}

func (l *Lua) FixedUpdate(dt float64) {
	l.call("fixed_update", lua.LNumber(dt))
}

func (l *Lua) OnDestroy() {
	l.Close()
}

// Close releases the VM. Further hook calls are no-ops.
func (l *Lua) Close() {
	if l.vm != nil {
		l.vm.Close()
		l.vm = nil
	}
}

// Call invokes the global function name with args and returns its single
// result. A missing function returns lua.LNil and no error.
func (l *Lua) Call(name string, args ...lua.LValue) (lua.LValue, error) {
	if l.vm == nil {
		return lua.LNil, fmt.Errorf("script %s: not loaded", l.ChunkName)
	}
	fn := l.vm.GetGlobal(name)
	if fn == lua.LNil {
		return lua.LNil, nil
	}
	if err := l.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		return lua.LNil, fmt.Errorf("call %s.%s: %w", l.ChunkName, name, err)
	}
	ret := l.vm.Get(-1)
	l.vm.Pop(1)
	return ret, nil
}

func (l *Lua) call(name string, args ...lua.LValue) {
	if l.vm == nil || l.err != nil {
		return
	}
	if _, err := l.Call(name, args...); err != nil {
		l.fail(err)
	}
}

func (l *Lua) fail(err error) {
	l.err = err
	l.log.Error("lua script disabled", zap.Error(err))
	l.SetEnabled(false)
}

// fileLoaders are the base and package globals that read Lua from disk.
var fileLoaders = []string{"dofile", "loadfile", "require", "module"}

// openLibs loads the sandboxed subset of the standard library. Scripts get
// no io, os or debug library and cannot load other chunks from files.
func openLibs(vm *lua.LState) error {
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := vm.CallByParam(lua.P{
			Fn:      vm.NewFunction(lib.open),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			return fmt.Errorf("open %s: %w", lib.name, err)
		}
	}
	for _, name := range fileLoaders {
		vm.SetGlobal(name, lua.LNil)
	}
	return nil
}
