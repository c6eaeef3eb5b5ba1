package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

// Query is a typed view over the query index. T must be a struct whose
// fields are component pointers:
//
//	type movers struct {
//		*ecs.Transform
//		Vel  *Velocity
//		Tint *Tint `ecs:"optional"`
//	}
//
// Embedded fields are always required. Named fields can be marked optional
// with the `ecs:"optional"` struct tag; a missing optional component leaves
// the field nil.
//
// Query fields declared on a system are initialized by the scheduler at
// registration. Results come straight from the registry cache, so repeated
// iteration within a frame costs no rescan.
type Query[T any] struct {
	world       *World
	types       []reflect.Type
	optional    []bool
	fieldOffset []uintptr
	mask        Mask
}

// ifaceWords mirrors the runtime layout of an interface value. Fill uses it
// to copy the data word of a Component straight into a struct field.
type ifaceWords struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

// NewQuery creates a query bound to w.
func NewQuery[T any](w *World) *Query[T] {
	q := &Query[T]{}
	q.attach(w)
	return q
}

func (q *Query[T]) attach(w *World) {
	structType := reflect.TypeFor[T]()
	if structType.Kind() != reflect.Struct {
		panic("ecs: Query type parameter must be a struct, got " + structType.String())
	}

	q.world = w
	q.types = q.types[:0]
	q.optional = q.optional[:0]
	q.fieldOffset = q.fieldOffset[:0]
	q.mask = nil

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if field.Type.Kind() != reflect.Ptr || !field.Type.Implements(componentType) {
			panic("ecs: Query field " + field.Name + " must be a component pointer, got " + field.Type.String())
		}

		isOptional := false
		if !field.Anonymous {
			switch tag := field.Tag.Get("ecs"); tag {
			case "":
			case "optional":
				isOptional = true
			default:
				panic("ecs: invalid ecs tag value: \"" + tag + "\" (only \"optional\" is supported)")
			}
		}

		q.types = append(q.types, field.Type)
		q.optional = append(q.optional, isOptional)
		q.fieldOffset = append(q.fieldOffset, field.Offset)
		if !isOptional {
			q.mask.Set(w.registry.Bit(field.Type))
		}
	}
}

// Entities returns the matching entities in id order. The slice is shared
// with the registry cache and must not be modified.
func (q *Query[T]) Entities() []*Entity {
	return q.world.registry.EntitiesWithMask(q.mask)
}

// Len returns the number of matching entities.
func (q *Query[T]) Len() int {
	return len(q.Entities())
}

// Fill populates ptr with e's components. It returns false if e is destroyed
// or missing a required component.
func (q *Query[T]) Fill(e *Entity, ptr *T) bool {
	if e == nil || e.destroyed {
		return false
	}
	structPtr := unsafe.Pointer(ptr)

	for i, t := range q.types {
		fieldPtr := unsafe.Pointer(uintptr(structPtr) + q.fieldOffset[i])

		list := e.components[t]
		if len(list) == 0 {
			if !q.optional[i] {
				return false
			}
			*(*unsafe.Pointer)(fieldPtr) = nil
			continue
		}

		// The interface holds the component pointer in its data word.
		component := list[0]
		*(*unsafe.Pointer)(fieldPtr) = (*ifaceWords)(unsafe.Pointer(&component)).data
	}
	return true
}

// Get returns a populated T for e, or nil when it does not match.
func (q *Query[T]) Get(e *Entity) *T {
	var result T
	if !q.Fill(e, &result) {
		return nil
	}
	return &result
}

// Iter yields every matching, live entity together with its components.
func (q *Query[T]) Iter() iter.Seq2[*Entity, T] {
	return func(yield func(*Entity, T) bool) {
		var result T
		for _, e := range q.Entities() {
			if !q.Fill(e, &result) {
				continue
			}
			if !yield(e, result) {
				return
			}
		}
	}
}

// Values yields the component structs only.
func (q *Query[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range q.Iter() {
			if !yield(v) {
				return
			}
		}
	}
}
