package ecs

import (
	"cmp"
	"reflect"
	"slices"

	"github.com/kamstrup/intmap"
)

// maskEntry tracks which component types an entity currently owns.
// counts holds the number of live instances per bit so that a bit is only
// cleared once the last instance of that type is unregistered.
type maskEntry struct {
	entity *Entity
	mask   Mask
	counts map[int]int
	index  int
}

type queryResult struct {
	mask     Mask
	entities []*Entity
}

// ComponentRegistry is the query index of a World. It assigns a dense bit to
// every component type on first use, keeps a bit mask per entity and caches
// the result of every distinct query mask until the next registration change.
type ComponentRegistry struct {
	nextBit int
	bits    map[reflect.Type]int
	types   []reflect.Type
	pools   map[reflect.Type][]Component

	masks *intmap.Map[EntityId, *maskEntry]
	known []*maskEntry

	cache  *intmap.Map[uint64, []*queryResult]
	cached int
}

// NewComponentRegistry creates an empty registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		bits:  make(map[reflect.Type]int),
		pools: make(map[reflect.Type][]Component),
		masks: intmap.New[EntityId, *maskEntry](256),
		cache: intmap.New[uint64, []*queryResult](64),
	}
}

// RegisterComponent assigns a bit to the component type *T ahead of its first
// use and returns it. Registration is optional; bits are otherwise assigned
// lazily.
func RegisterComponent[T any, PT interface {
	*T
	Component
}](r *ComponentRegistry) int {
	return r.Bit(reflect.TypeFor[PT]())
}

// Bit returns the bit assigned to t, assigning the next free one on first
// request. Bits are never reused.
func (r *ComponentRegistry) Bit(t reflect.Type) int {
	if bit, ok := r.bits[t]; ok {
		return bit
	}
	bit := r.nextBit
	r.nextBit++
	r.bits[t] = bit
	r.types = append(r.types, t)
	return bit
}

// Register adds c to the pool of its type and sets the type's bit in the
// entity's mask. The query cache is invalidated.
func (r *ComponentRegistry) Register(e *Entity, t reflect.Type, c Component) {
	r.pools[t] = append(r.pools[t], c)

	bit := r.Bit(t)
	entry, ok := r.masks.Get(e.id)
	if !ok {
		entry = &maskEntry{
			entity: e,
			counts: make(map[int]int, 4),
			index:  len(r.known),
		}
		r.masks.Put(e.id, entry)
		r.known = append(r.known, entry)
	}
	entry.counts[bit]++
	entry.mask.Set(bit)

	r.invalidate()
}

// Unregister removes c from the pool of its type and clears the type's bit
// once the entity owns no other instance of it. An entity whose mask becomes
// empty is forgotten. The query cache is invalidated.
func (r *ComponentRegistry) Unregister(e *Entity, t reflect.Type, c Component) {
	if pool := r.pools[t]; len(pool) > 0 {
		if i := slices.Index(pool, c); i >= 0 {
			pool = slices.Delete(pool, i, i+1)
			if len(pool) == 0 {
				delete(r.pools, t)
			} else {
				r.pools[t] = pool
			}
		}
	}

	bit, ok := r.bits[t]
	if !ok {
		return
	}
	entry, ok := r.masks.Get(e.id)
	if !ok || entry.counts[bit] == 0 {
		return
	}

	entry.counts[bit]--
	if entry.counts[bit] == 0 {
		delete(entry.counts, bit)
		entry.mask.Unset(bit)
	}
	if entry.mask.IsZero() {
		r.forget(entry)
	}

	r.invalidate()
}

func (r *ComponentRegistry) forget(entry *maskEntry) {
	last := len(r.known) - 1
	moved := r.known[last]
	r.known[entry.index] = moved
	moved.index = entry.index
	r.known[last] = nil
	r.known = r.known[:last]
	r.masks.Del(entry.entity.id)
}

func (r *ComponentRegistry) invalidate() {
	if r.cached == 0 {
		return
	}
	r.cache.Clear()
	r.cached = 0
}

// EntitiesWith returns every entity whose mask contains the bits of all the
// given types, ordered by entity id. With no types it returns every entity
// that owns at least one registered component.
//
// The returned slice is shared with the cache and must not be modified. It
// stays valid (as a snapshot) after later registration changes.
func (r *ComponentRegistry) EntitiesWith(types ...reflect.Type) []*Entity {
	var query Mask
	for _, t := range types {
		query.Set(r.Bit(t))
	}
	return r.EntitiesWithMask(query)
}

// EntitiesWithMask is EntitiesWith for a prebuilt mask.
func (r *ComponentRegistry) EntitiesWithMask(query Mask) []*Entity {
	h := query.hash()
	bucket, _ := r.cache.Get(h)
	for _, res := range bucket {
		if res.mask.Equal(query) {
			return res.entities
		}
	}

	result := make([]*Entity, 0, len(r.known))
	for _, entry := range r.known {
		if entry.mask.Contains(query) {
			result = append(result, entry.entity)
		}
	}
	slices.SortFunc(result, func(a, b *Entity) int {
		return cmp.Compare(a.id, b.id)
	})

	r.cache.Put(h, append(bucket, &queryResult{mask: query.Clone(), entities: result}))
	r.cached++
	return result
}

// MaskOf returns a copy of the entity's current mask.
func (r *ComponentRegistry) MaskOf(e *Entity) Mask {
	entry, ok := r.masks.Get(e.id)
	if !ok {
		return nil
	}
	return entry.mask.Clone()
}

// MaskFor builds a query mask for the given types.
func (r *ComponentRegistry) MaskFor(types ...reflect.Type) Mask {
	var m Mask
	for _, t := range types {
		m.Set(r.Bit(t))
	}
	return m
}

// Pool returns every registered instance of type t. The slice must not be
// modified.
func (r *ComponentRegistry) Pool(t reflect.Type) []Component {
	return r.pools[t]
}

// Types returns the component types in bit order.
func (r *ComponentRegistry) Types() []reflect.Type {
	return slices.Clone(r.types)
}

// LookupBit returns the bit of t without assigning one.
func (r *ComponentRegistry) LookupBit(t reflect.Type) (int, bool) {
	bit, ok := r.bits[t]
	return bit, ok
}

// EntityCount returns the number of entities with a non-empty mask.
func (r *ComponentRegistry) EntityCount() int {
	return len(r.known)
}

// ComponentCount returns the number of registered component instances.
func (r *ComponentRegistry) ComponentCount() int {
	n := 0
	for _, pool := range r.pools {
		n += len(pool)
	}
	return n
}

// CachedQueries returns the number of query results currently cached.
func (r *ComponentRegistry) CachedQueries() int {
	return r.cached
}
