package ecs

import "slices"

// Commands buffers structural operations that are applied at fixed points of
// the frame. Root registrations are drained at the start and end of every
// tick, destroy requests during the destruction phase, and deferred funcs
// just after it.
type Commands struct {
	world *World

	pendingAdd    []*Entity
	pendingRemove []*Entity

	entityDestroys    []*Entity
	componentDestroys []Component

	defers []func()
}

func newCommands(w *World) *Commands {
	return &Commands{world: w}
}

// Defer queues fn to run at the end of the current frame, after the
// destruction phase.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Destroy queues a soft destroy of e.
func (c *Commands) Destroy(e *Entity) {
	if e != nil {
		e.Destroy()
	}
}

// DestroyComponent queues a soft destroy of comp.
func (c *Commands) DestroyComponent(comp Component) {
	if comp != nil {
		comp.base().Destroy()
	}
}

// Pending returns the number of queued destroys and deferred funcs.
func (c *Commands) Pending() int {
	return len(c.entityDestroys) + len(c.componentDestroys) + len(c.defers)
}

func (c *Commands) destroyEntity(e *Entity) {
	c.entityDestroys = append(c.entityDestroys, e)
}

func (c *Commands) destroyComponent(comp Component) {
	c.componentDestroys = append(c.componentDestroys, comp)
}

// addRoot requests that e joins the root list at the next flush. A pending
// removal of the same entity is cancelled instead.
func (c *Commands) addRoot(e *Entity) {
	switch e.rootOp {
	case rootOpAdd:
		return
	case rootOpRemove:
		c.pendingRemove = deleteEntity(c.pendingRemove, e)
		e.rootOp = rootOpNone
		if e.inRoots {
			return
		}
	}
	if e.inRoots {
		return
	}
	e.rootOp = rootOpAdd
	c.pendingAdd = append(c.pendingAdd, e)
}

// removeRoot requests that e leaves the root list at the next flush. A
// pending add of the same entity is cancelled instead.
func (c *Commands) removeRoot(e *Entity) {
	switch e.rootOp {
	case rootOpRemove:
		return
	case rootOpAdd:
		c.pendingAdd = deleteEntity(c.pendingAdd, e)
		e.rootOp = rootOpNone
		if !e.inRoots {
			return
		}
	}
	if !e.inRoots {
		return
	}
	e.rootOp = rootOpRemove
	c.pendingRemove = append(c.pendingRemove, e)
}

func deleteEntity(list []*Entity, e *Entity) []*Entity {
	if i := slices.Index(list, e); i >= 0 {
		list = slices.Delete(list, i, i+1)
	}
	return list
}

// flushRoots applies pending removals, then pending additions, to the
// world's root list.
func (c *Commands) flushRoots() {
	w := c.world
	if len(c.pendingRemove) > 0 {
		for _, e := range c.pendingRemove {
			e.rootOp = rootOpNone
			e.inRoots = false
		}
		w.roots = slices.DeleteFunc(w.roots, func(e *Entity) bool {
			return !e.inRoots
		})
		clear(c.pendingRemove)
		c.pendingRemove = c.pendingRemove[:0]
	}

	if len(c.pendingAdd) > 0 {
		for _, e := range c.pendingAdd {
			e.rootOp = rootOpNone
			e.inRoots = true
			w.roots = append(w.roots, e)
		}
		clear(c.pendingAdd)
		c.pendingAdd = c.pendingAdd[:0]
	}
}

// flushDestroys resolves every queued soft destroy through the hard path.
// Destroys requested by OnDestroy callbacks are resolved in the same pass.
func (c *Commands) flushDestroys() int {
	n := 0
	for len(c.entityDestroys) > 0 || len(c.componentDestroys) > 0 {
		entities := c.entityDestroys
		comps := c.componentDestroys
		c.entityDestroys = nil
		c.componentDestroys = nil

		for _, e := range entities {
			e.DestroyImmediate()
			n++
		}
		for _, comp := range comps {
			comp.base().DestroyImmediate()
			n++
		}
	}
	return n
}

func (c *Commands) runDefers() {
	for len(c.defers) > 0 {
		defers := c.defers
		c.defers = nil
		for _, fn := range defers {
			fn()
		}
	}
}

func (c *Commands) reset() {
	c.pendingAdd = nil
	c.pendingRemove = nil
	c.entityDestroys = nil
	c.componentDestroys = nil
	c.defers = nil
}
