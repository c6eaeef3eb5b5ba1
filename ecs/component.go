package ecs

import "reflect"

// Component is a unit of per-entity data or behavior. Implementations embed
// BaseComponent and are always used through a pointer:
//
//	type Health struct {
//		ecs.BaseComponent
//		Current, Max int
//	}
//
// Lifecycle callbacks are opt-in through the Awaker, Starter, Enabler,
// Disabler, Destroyer, Updater and FixedUpdater interfaces.
type Component interface {
	base() *BaseComponent
}

// Awaker is called once, when the component is bound to an entity.
type Awaker interface{ OnAwake() }

// Starter is called once, after OnAwake and before the first Update.
type Starter interface{ OnStart() }

// Enabler is called when the component becomes enabled, including right
// after OnAwake when it starts enabled.
type Enabler interface{ OnEnable() }

// Disabler is called when an enabled component is disabled or destroyed.
type Disabler interface{ OnDisable() }

// Destroyer is called once during hard destruction.
type Destroyer interface{ OnDestroy() }

// Updater runs once per variable step while enabled.
type Updater interface{ Update(dt float64) }

// FixedUpdater runs once per fixed step while enabled.
type FixedUpdater interface{ FixedUpdate(dt float64) }

var componentType = reflect.TypeFor[Component]()

// BaseComponent carries the lifecycle state shared by all components.
// The zero value is an enabled, unbound component.
type BaseComponent struct {
	// Name distinguishes instances for GetNamed lookups.
	Name string

	entity    *Entity
	self      Component
	transform *Transform

	disabled  bool
	awakened  bool
	started   bool
	destroyed bool
	queued    bool
}

func (b *BaseComponent) base() *BaseComponent { return b }

func (b *BaseComponent) bind(e *Entity, self Component) {
	b.entity = e
	b.self = self
	b.transform = nil
}

// Entity returns the owning entity, or nil when unbound or destroyed.
func (b *BaseComponent) Entity() *Entity { return b.entity }

// World returns the owning entity's world, or nil when unbound.
func (b *BaseComponent) World() *World {
	if b.entity == nil {
		return nil
	}
	return b.entity.world
}

func (b *BaseComponent) Enabled() bool   { return !b.disabled }
func (b *BaseComponent) Awakened() bool  { return b.awakened }
func (b *BaseComponent) Started() bool   { return b.started }
func (b *BaseComponent) Destroyed() bool { return b.destroyed }

// Awake registers the component with the query index and runs OnAwake,
// followed by OnEnable when the component is enabled. It is called by
// Entity.AddComponent and is idempotent.
func (b *BaseComponent) Awake() {
	if b.awakened || b.destroyed || b.entity == nil {
		return
	}
	b.awakened = true

	w := b.entity.world
	w.registry.Register(b.entity, reflect.TypeOf(b.self), b.self)

	if a, ok := b.self.(Awaker); ok {
		a.OnAwake()
	}
	if !b.disabled && !b.destroyed {
		if en, ok := b.self.(Enabler); ok {
			en.OnEnable()
		}
	}
	w.unstarted = append(w.unstarted, b.self)
}

func (b *BaseComponent) start() {
	if b.started || !b.awakened || b.destroyed || b.entity == nil {
		return
	}
	b.started = true
	if s, ok := b.self.(Starter); ok {
		s.OnStart()
	}
}

// SetEnabled toggles the component. OnEnable and OnDisable only run on an
// actual state change of an awakened component.
func (b *BaseComponent) SetEnabled(enabled bool) {
	if b.destroyed || enabled != b.disabled {
		return
	}
	b.disabled = !enabled
	if !b.awakened {
		return
	}
	if enabled {
		if en, ok := b.self.(Enabler); ok {
			en.OnEnable()
		}
	} else if d, ok := b.self.(Disabler); ok {
		d.OnDisable()
	}
}

// Destroy queues the component for destruction at the end of the current
// frame. Queueing twice is a no-op.
func (b *BaseComponent) Destroy() {
	if b.destroyed || b.queued || b.entity == nil {
		return
	}
	b.queued = true
	b.entity.world.commands.destroyComponent(b.self)
}

// DestroyImmediate runs OnDisable (when enabled) and OnDestroy, detaches the
// component from its entity, unregisters it from the query index and clears
// its back references.
func (b *BaseComponent) DestroyImmediate() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	self, e := b.self, b.entity
	if self == nil {
		return
	}

	if b.awakened {
		if !b.disabled {
			if d, ok := self.(Disabler); ok {
				d.OnDisable()
			}
		}
		if d, ok := self.(Destroyer); ok {
			d.OnDestroy()
		}
	}

	if e != nil {
		e.detach(self)
	}
	b.entity = nil
	b.transform = nil
}

// Transform returns the entity's Transform, cached after the first lookup.
func (b *BaseComponent) Transform() *Transform {
	if b.transform == nil && b.entity != nil {
		b.transform = Get[*Transform](b.entity)
	}
	return b.transform
}

// GetComponent delegates to the owning entity.
func (b *BaseComponent) GetComponent(t reflect.Type) Component {
	if b.entity == nil {
		return nil
	}
	return b.entity.GetComponent(t)
}

// Sibling returns the first component of type T on c's entity.
func Sibling[T any](c Component) T {
	return Get[T](c.base().entity)
}

// Siblings returns every component of type T on c's entity.
func Siblings[T any](c Component) []T {
	return GetAll[T](c.base().entity)
}
