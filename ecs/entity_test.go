package ecs_test

import (
	"reflect"
	"slices"
	"testing"

	"github.com/google/uuid"
	"github.com/plus3/hearth/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertPlacement checks that every live entity is either a root or listed
// by its parent, never both and never neither.
func assertPlacement(t *testing.T, w *ecs.World, entities ...*ecs.Entity) {
	t.Helper()
	roots := w.Roots()
	for _, e := range entities {
		if e.Destroyed() {
			assert.NotContains(t, roots, e, "%s destroyed but still a root", e)
			continue
		}
		isRoot := slices.Contains(roots, e)
		isChild := e.Parent() != nil && slices.Contains(e.Parent().Children(), e)
		assert.True(t, isRoot != isChild, "%s: root=%v child=%v", e, isRoot, isChild)
	}
}

func TestEntityAutoRegistersAsRoot(t *testing.T) {
	w := newAwakeWorld()
	e := w.NewEntity("e")

	assert.Empty(t, w.Roots(), "roots change only at flush points")
	w.Tick(0)
	assert.Equal(t, []*ecs.Entity{e}, w.Roots())
	assert.True(t, e.IsRoot())
	assert.Same(t, e, w.EntityById(e.Id()))
	assert.Same(t, e, w.EntityByGUID(e.GUID()))
}

func TestEntityIdsAreMonotonic(t *testing.T) {
	w := ecs.NewWorld()
	a := w.NewEntity("a")
	b := w.NewEntity("b")
	a.DestroyImmediate()
	c := w.NewEntity("c")

	assert.Less(t, a.Id(), b.Id())
	assert.Less(t, b.Id(), c.Id())
	assert.Nil(t, w.EntityById(a.Id()))
}

func TestEntitySetParent(t *testing.T) {
	w := newAwakeWorld()
	parent := w.NewEntity("parent")
	child := w.NewEntity("child")
	w.Tick(0)
	assertPlacement(t, w, parent, child)

	child.SetParent(parent)
	assert.Same(t, parent, child.Parent())
	assert.Equal(t, []*ecs.Entity{child}, parent.Children())
	assert.Same(t, child, parent.Find("child"))

	w.Tick(0)
	assert.Equal(t, []*ecs.Entity{parent}, w.Roots())
	assertPlacement(t, w, parent, child)

	child.SetParent(nil)
	assert.Empty(t, parent.Children())
	w.Tick(0)
	assert.ElementsMatch(t, []*ecs.Entity{parent, child}, w.Roots())
	assertPlacement(t, w, parent, child)
}

func TestEntityReparentingKeepsPlacementInvariant(t *testing.T) {
	w := newAwakeWorld()
	a := w.NewEntity("a")
	b := w.NewEntity("b")
	c := w.NewEntity("c")
	all := []*ecs.Entity{a, b, c}
	w.Tick(0)

	moves := []struct{ child, parent *ecs.Entity }{
		{b, a}, {c, b}, {c, a}, {b, nil}, {c, nil}, {a, c}, {a, nil}, {b, c}, {b, a},
	}
	for _, m := range moves {
		m.child.SetParent(m.parent)
		w.Tick(0)
		assertPlacement(t, w, all...)
	}

	// Round trips inside a single frame cancel out.
	b.SetParent(nil)
	b.SetParent(a)
	c.SetParent(a)
	c.SetParent(nil)
	w.Tick(0)
	assertPlacement(t, w, all...)
	assert.ElementsMatch(t, []*ecs.Entity{a, c}, w.Roots())
}

func TestEntitySetParentCyclePanics(t *testing.T) {
	w := newAwakeWorld()
	a := w.NewEntity("a")
	b := w.NewEntity("b")
	b.SetParent(a)

	assert.Panics(t, func() { a.SetParent(a) })
	assert.Panics(t, func() { a.SetParent(b) })

	other := ecs.NewWorld()
	assert.Panics(t, func() { other.NewEntity("x").SetParent(a) })
}

func TestEntityUpdateRecursesIntoChildren(t *testing.T) {
	w := newAwakeWorld(ecs.WithFixedStep(1))
	log := &eventLog{}

	root := w.NewEntity("root")
	child := w.NewEntity("child")
	grandchild := w.NewEntity("grandchild")
	child.SetParent(root)
	grandchild.SetParent(child)

	root.AddComponent(newRecorder("root", log))
	child.AddComponent(newRecorder("child", log))
	grandchild.AddComponent(newRecorder("grandchild", log))
	w.Tick(0.01)

	log.reset()
	w.Tick(0.01)
	assert.Equal(t, []string{"root.update", "child.update", "grandchild.update"}, log.events)

	log.reset()
	child.SetActive(false)
	w.Tick(0.01)
	assert.Equal(t, []string{"root.update"}, log.events, "inactive entities skip their subtree")
}

func TestEntitySoftDestroyDuringIteration(t *testing.T) {
	w := newAwakeWorld(ecs.WithFixedStep(1))
	log := &eventLog{}

	a := w.NewEntity("a")
	b := w.NewEntity("b")
	c := w.NewEntity("c")
	ra := newRecorder("a", log)
	a.AddComponent(ra)
	b.AddComponent(newRecorder("b", log))
	c.AddComponent(newRecorder("c", log))
	w.Tick(0.01)

	// a destroys b mid-iteration; b still updates this frame.
	ra.OnUpdateFn = func(r *Recorder) { b.Destroy() }

	log.reset()
	require.NotPanics(t, func() { w.Tick(0.01) })
	assert.Equal(t, []string{"a.update", "b.update", "c.update", "b.disable", "b.destroy"}, log.events)
	assert.True(t, b.Destroyed())
	assert.Equal(t, []*ecs.Entity{a, c}, w.Roots())
	assertPlacement(t, w, a, b, c)
}

func TestEntityDestroyImmediateOrder(t *testing.T) {
	w := newAwakeWorld()
	log := &eventLog{}

	root := w.NewEntity("root")
	first := w.NewEntity("first")
	second := w.NewEntity("second")
	first.SetParent(root)
	second.SetParent(root)

	root.AddComponent(newRecorder("root", log))
	first.AddComponent(newRecorder("first", log))
	second.AddComponent(newRecorder("second", log))
	w.Tick(0)

	log.reset()
	root.DestroyImmediate()
	assert.Equal(t, []string{
		"second.disable", "second.destroy",
		"first.disable", "first.destroy",
		"root.disable", "root.destroy",
	}, log.events)
	assert.Empty(t, root.Children())
	assert.Nil(t, first.Parent())
	assert.Zero(t, w.EntityCount())

	w.Tick(0)
	assert.Empty(t, w.Roots())
	assert.Empty(t, w.EntitiesWith(recorderType))
}

func TestEntityDestroyedIsNoop(t *testing.T) {
	w := newAwakeWorld()
	e := w.NewEntity("e")
	parent := w.NewEntity("parent")
	e.DestroyImmediate()

	assert.NotPanics(t, func() {
		e.AddComponent(&Position{})
		e.RemoveComponent(&Position{})
		e.SetParent(parent)
		e.Destroy()
		e.DestroyImmediate()
		e.Update(1)
		e.FixedUpdate(1)
	})
	assert.Nil(t, e.Parent())
	assert.Nil(t, ecs.Get[*Position](e))
	assert.Empty(t, parent.Children())
}

func TestEntityDestroyIsDeduplicated(t *testing.T) {
	w := newAwakeWorld()
	e := w.NewEntity("e")
	e.Destroy()
	e.Destroy()
	assert.Equal(t, 1, w.Stats().PendingDestroys)

	w.Tick(0)
	assert.True(t, e.Destroyed())
	assert.Zero(t, w.Stats().PendingDestroys)
}

func TestEntityComponentLookups(t *testing.T) {
	w := newAwakeWorld()
	e := w.NewEntity("e")

	pos := &Position{X: 1}
	left := &Sword{Power: 1}
	left.Name = "left"
	right := &Sword{Power: 2}
	right.Name = "right"
	hp := ecs.Add[Health](e)
	e.AddComponent(pos)
	e.AddComponent(left)
	e.AddComponent(right)

	assert.Same(t, pos, ecs.Get[*Position](e))
	assert.Same(t, left, ecs.Get[*Sword](e))
	assert.Same(t, right, ecs.GetNamed[*Sword](e, "right"))
	assert.Nil(t, ecs.GetNamed[*Sword](e, "missing"))
	assert.Same(t, right, ecs.GetAt[*Sword](e, 1))
	assert.Nil(t, ecs.GetAt[*Sword](e, 2))
	assert.Equal(t, []*Sword{left, right}, ecs.GetAll[*Sword](e))
	assert.Len(t, ecs.GetAll[Damager](e), 2)
	assert.True(t, ecs.Has[Damager](e))
	assert.False(t, ecs.Has[*Velocity](e))
	assert.Same(t, pos, e.GetComponent(reflect.TypeFor[*Position]()))

	assert.Equal(t, []ecs.Component{hp, pos, left, right}, e.Components())
	assert.Equal(t, []reflect.Type{
		reflect.TypeFor[*Health](),
		reflect.TypeFor[*Position](),
		reflect.TypeFor[*Sword](),
	}, e.ComponentTypes())

	m := e.ComponentsMap()
	assert.Len(t, m, 3)
	assert.Len(t, m[reflect.TypeFor[*Sword]()], 2)
}

func TestEntitySetGUID(t *testing.T) {
	w := newAwakeWorld()
	e := w.NewEntity("e")
	old := e.GUID()

	id := uuid.MustParse("6f1e0a52-4f59-4b36-9d0b-0a3f7c1b2d11")
	e.SetGUID(id)
	assert.Equal(t, id, e.GUID())
	assert.Same(t, e, w.EntityByGUID(id))
	assert.Nil(t, w.EntityByGUID(old))
}

func TestEntityRef(t *testing.T) {
	w := newAwakeWorld()
	e := w.NewEntity("e")
	ref := w.Ref(e)

	assert.True(t, ref.Valid())
	assert.Same(t, e, ref.Get())

	e.Destroy()
	assert.Same(t, e, ref.Get(), "soft destroy keeps the entity alive until end of frame")

	w.Tick(0)
	assert.False(t, ref.Valid())
	assert.Nil(t, ref.Get())
	assert.False(t, ecs.Ref{}.Valid())
}
