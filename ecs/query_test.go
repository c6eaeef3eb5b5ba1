package ecs_test

import (
	"testing"

	"github.com/plus3/hearth/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type movers struct {
	*Position
	Vel   *Velocity
	Label *Label `ecs:"optional"`
}

func TestQueryIter(t *testing.T) {
	w := newAwakeWorld()

	a := w.NewEntity("a")
	posA := &Position{X: 1}
	velA := &Velocity{DX: 2}
	a.AddComponent(posA)
	a.AddComponent(velA)

	b := w.NewEntity("b")
	labelB := &Label{Text: "b"}
	b.AddComponent(&Position{})
	b.AddComponent(&Velocity{})
	b.AddComponent(labelB)

	w.NewEntity("c").AddComponent(&Position{})

	q := ecs.NewQuery[movers](w)
	assert.Equal(t, 2, q.Len())

	var seen []*ecs.Entity
	for e, m := range q.Iter() {
		seen = append(seen, e)
		if e == a {
			assert.Same(t, posA, m.Position)
			assert.Same(t, velA, m.Vel)
			assert.Nil(t, m.Label, "missing optional components are nil")
		} else {
			assert.Same(t, labelB, m.Label)
		}
	}
	assert.Equal(t, []*ecs.Entity{a, b}, seen)
}

func TestQueryGetAndFill(t *testing.T) {
	w := newAwakeWorld()
	e := w.NewEntity("e")
	pos := &Position{}
	e.AddComponent(pos)

	q := ecs.NewQuery[movers](w)
	assert.Nil(t, q.Get(e))

	e.AddComponent(&Velocity{})
	m := q.Get(e)
	require.NotNil(t, m)
	assert.Same(t, pos, m.Position)

	e.DestroyImmediate()
	var out movers
	assert.False(t, q.Fill(e, &out))
}

func TestQueryTracksStructuralChanges(t *testing.T) {
	w := newAwakeWorld()
	q := ecs.NewQuery[struct{ *Health }](w)

	e := w.NewEntity("e")
	hp := &Health{Current: 5}
	e.AddComponent(hp)
	assert.Equal(t, 1, q.Len())

	e.RemoveComponent(hp)
	assert.Zero(t, q.Len())

	total := 0
	for v := range q.Values() {
		total += v.Current
	}
	assert.Zero(t, total)
}

func TestQueryInvalidShapesPanic(t *testing.T) {
	w := newAwakeWorld()
	assert.Panics(t, func() { ecs.NewQuery[int](w) })
	assert.Panics(t, func() { ecs.NewQuery[struct{ X float64 }](w) })
	assert.Panics(t, func() { ecs.NewQuery[struct{ *eventLog }](w) })
	assert.Panics(t, func() {
		ecs.NewQuery[struct {
			P *Position `ecs:"maybe"`
		}](w)
	})
}

type healthSystem struct {
	Entities ecs.Query[struct{ *Health }]
	Clock    ecs.Resource[GameClock]
	Total    int
}

func (s *healthSystem) Execute(frame *ecs.UpdateFrame) {
	s.Total = 0
	for _, item := range s.Entities.Iter() {
		s.Total += item.Health.Current
	}
	s.Clock.Get().Ticks++
}

func TestSchedulerInitializesSystemFields(t *testing.T) {
	w := newAwakeWorld()
	ecs.AddResource(w, GameClock{})

	sys := &healthSystem{}
	w.Register(sys)

	w.NewEntity("a").AddComponent(&Health{Current: 10})
	w.NewEntity("b").AddComponent(&Health{Current: 5})
	w.Tick(0.01)
	w.Tick(0.01)

	assert.Equal(t, 15, sys.Total)
	assert.Equal(t, 2, ecs.GetResource[GameClock](w).Ticks)
}
