package ecs

import "reflect"

// AddResource stores v as the world's single instance of T and returns a
// pointer to the stored copy. Each type may only be added once per world;
// a second AddResource for the same type panics.
func AddResource[T any](w *World, v T) *T {
	t := reflect.TypeFor[T]()
	if _, ok := w.resources[t]; ok {
		panic("ecs: resource " + t.String() + " already exists")
	}
	ptr := new(T)
	*ptr = v
	w.resources[t] = ptr
	return ptr
}

// GetResource returns the world's instance of T, or nil.
func GetResource[T any](w *World) *T {
	if v, ok := w.resources[reflect.TypeFor[T]()]; ok {
		return v.(*T)
	}
	return nil
}

// RemoveResource drops the world's instance of T. Pointers handed out
// earlier remain valid but detached.
func RemoveResource[T any](w *World) {
	delete(w.resources, reflect.TypeFor[T]())
}

// Resource provides cached access to a per-world singleton of type T. A
// Resource field on a system is bound by the scheduler at registration.
type Resource[T any] struct {
	world *World
	ptr   *T
}

// NewResource returns an accessor for T, creating the resource from init (or
// the zero value) if w has none yet.
func NewResource[T any](w *World, init ...T) *Resource[T] {
	if GetResource[T](w) == nil {
		var v T
		if len(init) > 0 {
			v = init[0]
		}
		AddResource(w, v)
	}
	r := &Resource[T]{}
	r.attach(w)
	return r
}

func (r *Resource[T]) attach(w *World) {
	r.world = w
	r.ptr = GetResource[T](w)
}

// Get returns the resource, or nil when it has not been added.
func (r *Resource[T]) Get() *T {
	if r.world == nil {
		return nil
	}
	if p := GetResource[T](r.world); p != r.ptr {
		r.ptr = p
	}
	return r.ptr
}

// Exists reports whether the resource has been added.
func (r *Resource[T]) Exists() bool {
	return r.Get() != nil
}
