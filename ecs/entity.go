package ecs

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/google/uuid"
)

// EntityId is a per-world monotonic identifier. Ids are never reused.
type EntityId uint64

type rootOp uint8

const (
	rootOpNone rootOp = iota
	rootOpAdd
	rootOpRemove
)

// Entity is a node of the scene graph. It owns its components and its
// children; the parent link is a back reference only.
//
// An entity is either a root, driven directly by its World, or a child,
// driven through its parent's Update. Operations on a destroyed entity are
// silently ignored.
type Entity struct {
	Name string
	Tag  string

	world *World
	id    EntityId
	guid  uuid.UUID

	active    bool
	destroyed bool
	queued    bool

	inRoots bool
	rootOp  rootOp

	parent   *Entity
	children []*Entity

	components map[reflect.Type][]Component
	order      []reflect.Type
}

func (e *Entity) Id() EntityId     { return e.id }
func (e *Entity) GUID() uuid.UUID  { return e.guid }
func (e *Entity) World() *World    { return e.world }
func (e *Entity) Active() bool     { return e.active }
func (e *Entity) Destroyed() bool  { return e.destroyed }
func (e *Entity) Parent() *Entity  { return e.parent }
func (e *Entity) IsRoot() bool     { return e.parent == nil && !e.destroyed }
func (e *Entity) ChildCount() int  { return len(e.children) }
func (e *Entity) String() string   { return fmt.Sprintf("Entity(%d %q)", e.id, e.Name) }
func (e *Entity) SetActive(a bool) { e.active = a }

// SetGUID replaces the persistent identity, for scene loaders restoring a
// saved entity.
func (e *Entity) SetGUID(id uuid.UUID) {
	if e.destroyed {
		return
	}
	delete(e.world.guids, e.guid)
	e.guid = id
	e.world.guids[id] = e
}

// Children returns a copy of the child list.
func (e *Entity) Children() []*Entity {
	return slices.Clone(e.children)
}

// Child returns the child at index i, or nil.
func (e *Entity) Child(i int) *Entity {
	if i < 0 || i >= len(e.children) {
		return nil
	}
	return e.children[i]
}

// Find returns the first direct child with the given name.
func (e *Entity) Find(name string) *Entity {
	for _, c := range e.children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// AddComponent binds c to this entity and awakes it. Adding an instance
// already bound to this entity returns it unchanged.
func (e *Entity) AddComponent(c Component) Component {
	if c == nil || e.destroyed {
		return c
	}
	b := c.base()
	if b.entity == e {
		return c
	}
	if b.entity != nil {
		panic("ecs: component " + reflect.TypeOf(c).String() + " is already bound to " + b.entity.String())
	}
	if b.destroyed {
		panic("ecs: cannot add destroyed component " + reflect.TypeOf(c).String())
	}

	t := reflect.TypeOf(c)
	if _, ok := e.components[t]; !ok {
		e.order = append(e.order, t)
	}
	e.components[t] = append(e.components[t], c)
	b.bind(e, c)

	if b.awakened {
		// Previously removed from another owner: re-index without a second awake.
		e.world.registry.Register(e, t, c)
		if !b.started {
			e.world.unstarted = append(e.world.unstarted, c)
		}
		return c
	}
	b.Awake()
	return c
}

// Add constructs a new *T, adds it to the entity and returns it.
func Add[T any, PT interface {
	*T
	Component
}](e *Entity) PT {
	c := PT(new(T))
	e.AddComponent(c)
	return c
}

// RemoveComponent detaches c from the entity and unregisters it from the
// query index. It runs no lifecycle callbacks.
func (e *Entity) RemoveComponent(c Component) {
	if c == nil || e.destroyed {
		return
	}
	b := c.base()
	if b.entity != e || !e.detach(c) {
		return
	}
	b.entity = nil
	b.transform = nil
}

func (e *Entity) detach(c Component) bool {
	t := reflect.TypeOf(c)
	list := e.components[t]
	i := slices.Index(list, c)
	if i < 0 {
		return false
	}
	list = slices.Delete(list, i, i+1)
	if len(list) == 0 {
		delete(e.components, t)
		if j := slices.Index(e.order, t); j >= 0 {
			e.order = slices.Delete(e.order, j, j+1)
		}
	} else {
		e.components[t] = list
	}

	if c.base().awakened {
		e.world.registry.Unregister(e, t, c)
	}
	if _, ok := c.(*Transform); ok {
		e.resetTransformCaches()
	}
	return true
}

func (e *Entity) resetTransformCaches() {
	for _, list := range e.components {
		for _, c := range list {
			c.base().transform = nil
		}
	}
}

// GetComponent returns the first component of exactly type t, falling back to
// the first component assignable to t (t may be an interface type).
func (e *Entity) GetComponent(t reflect.Type) Component {
	if e == nil || e.destroyed {
		return nil
	}
	if list := e.components[t]; len(list) > 0 {
		return list[0]
	}
	for _, ct := range e.order {
		if ct.AssignableTo(t) {
			return e.components[ct][0]
		}
	}
	return nil
}

// Get returns the first component of type T. T may be a concrete component
// pointer type or any interface the component implements.
func Get[T any](e *Entity) T {
	var zero T
	if e == nil || e.destroyed {
		return zero
	}
	if list := e.components[reflect.TypeFor[T]()]; len(list) > 0 {
		return list[0].(T)
	}
	for _, t := range e.order {
		for _, c := range e.components[t] {
			if v, ok := c.(T); ok {
				return v
			}
		}
	}
	return zero
}

// GetNamed returns the first component of type T whose Name matches.
func GetNamed[T any](e *Entity, name string) T {
	var zero T
	if e == nil || e.destroyed {
		return zero
	}
	for _, t := range e.order {
		for _, c := range e.components[t] {
			if v, ok := c.(T); ok && c.base().Name == name {
				return v
			}
		}
	}
	return zero
}

// GetAt returns the index-th component of type T, in insertion order.
func GetAt[T any](e *Entity, index int) T {
	var zero T
	if e == nil || e.destroyed || index < 0 {
		return zero
	}
	for _, t := range e.order {
		for _, c := range e.components[t] {
			if v, ok := c.(T); ok {
				if index == 0 {
					return v
				}
				index--
			}
		}
	}
	return zero
}

// GetAll returns every component of type T, in insertion order.
func GetAll[T any](e *Entity) []T {
	if e == nil || e.destroyed {
		return nil
	}
	var out []T
	for _, t := range e.order {
		for _, c := range e.components[t] {
			if v, ok := c.(T); ok {
				out = append(out, v)
			}
		}
	}
	return out
}

// Has reports whether the entity owns a component of type T.
func Has[T any](e *Entity) bool {
	if e == nil || e.destroyed {
		return false
	}
	if len(e.components[reflect.TypeFor[T]()]) > 0 {
		return true
	}
	for _, t := range e.order {
		if _, ok := e.components[t][0].(T); ok {
			return true
		}
	}
	return false
}

// Transform returns the entity's Transform component, or nil.
func (e *Entity) Transform() *Transform {
	return Get[*Transform](e)
}

// Components returns all components in insertion order.
func (e *Entity) Components() []Component {
	out := make([]Component, 0, len(e.order))
	for _, t := range e.order {
		out = append(out, e.components[t]...)
	}
	return out
}

// ComponentTypes returns the owned component types in first-insertion order.
func (e *Entity) ComponentTypes() []reflect.Type {
	return slices.Clone(e.order)
}

// ComponentsMap returns a copy of the type to instances mapping.
func (e *Entity) ComponentsMap() map[reflect.Type][]Component {
	out := make(map[reflect.Type][]Component, len(e.components))
	for t, list := range e.components {
		out[t] = slices.Clone(list)
	}
	return out
}

// SetParent moves the entity under p. A nil parent makes it a root again.
// Parenting an entity under itself or one of its descendants panics.
func (e *Entity) SetParent(p *Entity) {
	if e.destroyed || p == e.parent {
		return
	}
	if p != nil {
		if p.destroyed {
			return
		}
		if p.world != e.world {
			panic("ecs: cannot parent " + e.String() + " across worlds")
		}
		for a := p; a != nil; a = a.parent {
			if a == e {
				panic("ecs: cannot parent " + e.String() + " under itself or a descendant")
			}
		}
	}

	if e.parent != nil {
		e.parent.removeChild(e)
	} else {
		e.world.commands.removeRoot(e)
	}

	e.parent = p
	if p != nil {
		p.children = append(p.children, e)
	} else {
		e.world.commands.addRoot(e)
	}
}

func (e *Entity) removeChild(c *Entity) {
	if i := slices.Index(e.children, c); i >= 0 {
		e.children = slices.Delete(e.children, i, i+1)
	}
}

// Update runs Update on every enabled component, then on every child.
func (e *Entity) Update(dt float64) {
	e.step(dt, false)
}

// FixedUpdate runs FixedUpdate on every enabled component, then on every
// child.
func (e *Entity) FixedUpdate(dt float64) {
	e.step(dt, true)
}

func (e *Entity) step(dt float64, fixed bool) {
	if !e.active || e.destroyed {
		return
	}
	w := e.world

	// Snapshots live on shared scratch stacks; nested calls push above them.
	start := len(w.compScratch)
	for _, t := range e.order {
		w.compScratch = append(w.compScratch, e.components[t]...)
	}
	end := len(w.compScratch)

	for i := start; i < end; i++ {
		c := w.compScratch[i]
		b := c.base()
		if b.destroyed || b.disabled || b.entity != e {
			continue
		}
		if !b.started {
			b.start()
		}
		if fixed {
			if u, ok := c.(FixedUpdater); ok {
				u.FixedUpdate(dt)
			}
		} else if u, ok := c.(Updater); ok {
			u.Update(dt)
		}
		if e.destroyed {
			break
		}
	}
	clear(w.compScratch[start:end])
	w.compScratch = w.compScratch[:start]

	if e.destroyed || len(e.children) == 0 {
		return
	}

	start = len(w.entScratch)
	w.entScratch = append(w.entScratch, e.children...)
	end = len(w.entScratch)
	for i := start; i < end; i++ {
		child := w.entScratch[i]
		if child.parent == e {
			child.step(dt, fixed)
		}
	}
	clear(w.entScratch[start:end])
	w.entScratch = w.entScratch[:start]
}

// Destroy queues the entity for destruction at the end of the current frame.
func (e *Entity) Destroy() {
	if e.destroyed || e.queued {
		return
	}
	e.queued = true
	e.world.commands.destroyEntity(e)
}

// DestroyImmediate tears the entity down now: children first (last to
// first), then each component, then the parent or root registration.
func (e *Entity) DestroyImmediate() {
	if e.destroyed {
		return
	}
	e.destroyed = true

	for i := len(e.children) - 1; i >= 0; i-- {
		if i < len(e.children) {
			e.children[i].DestroyImmediate()
		}
	}

	for _, c := range e.Components() {
		c.base().DestroyImmediate()
	}
	e.children = nil

	if e.parent != nil {
		e.parent.removeChild(e)
		e.parent = nil
	} else {
		e.world.commands.removeRoot(e)
	}
	e.world.forget(e)
}
