package ecs

// Ref is a stable handle to an entity that resolves to nil once the entity
// has been destroyed. Holding a Ref does not keep a torn-down entity
// reachable from the world.
type Ref struct {
	world *World
	Id    EntityId
}

// Ref returns a handle to e.
func (w *World) Ref(e *Entity) Ref {
	if e == nil || e.world != w {
		return Ref{world: w}
	}
	return Ref{world: w, Id: e.id}
}

// Get resolves the handle.
func (r Ref) Get() *Entity {
	if r.world == nil || r.Id == 0 {
		return nil
	}
	e := r.world.EntityById(r.Id)
	if e == nil || e.destroyed {
		return nil
	}
	return e
}

// Valid reports whether the entity is still alive.
func (r Ref) Valid() bool {
	return r.Get() != nil
}
