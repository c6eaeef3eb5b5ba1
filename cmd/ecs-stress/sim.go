package main

import (
	"math"
	"math/rand/v2"
	"reflect"
	"slices"

	"github.com/plus3/hearth/ecs"
	"github.com/plus3/hearth/ecs/script"
)

const arenaSize = 1000.0

type Velocity struct {
	ecs.BaseComponent
	DX, DY float64
}

var velocityType = reflect.TypeFor[*Velocity]()

func (v *Velocity) set(dx, dy float64) { v.DX, v.DY = dx, dy }

type Lifetime struct {
	ecs.BaseComponent
	Remaining float64
}

func (l *Lifetime) Update(dt float64) {
	l.Remaining -= dt
	if l.Remaining <= 0 {
		l.Entity().Destroy()
	}
}

type Energy struct {
	ecs.BaseComponent
	Level float64
}

// Roam moves at the entity's cruise velocity and drains energy.
type Roam struct {
	ecs.StateBase
	energy *Energy
	dx, dy float64
}

func (s *Roam) Enter() {
	s.Entity().GetComponent(velocityType).(*Velocity).set(s.dx, s.dy)
}

func (s *Roam) Update(dt float64) {
	s.energy.Level -= dt * 0.25
}

// Exhausted preempts Roam once energy runs out and stops the entity for a
// moment before it rests.
type Exhausted struct {
	ecs.StateBase
	energy *Energy
}

func (s *Exhausted) CanEnter() bool { return s.energy.Level <= 0 }

func (s *Exhausted) Enter() {
	s.Entity().GetComponent(velocityType).(*Velocity).set(0, 0)
}

func (s *Exhausted) Update(dt float64) {
	if s.Machine().TimeInState() >= 0.5 {
		ecs.ChangeState[*Rest](s.Machine())
	}
}

// Rest outranks both other states so only a full recovery ends it.
type Rest struct {
	ecs.StateBase
	energy *Energy
}

func (s *Rest) Update(dt float64) {
	s.energy.Level = min(1, s.energy.Level+dt*0.5)
	if s.energy.Level >= 1 {
		ecs.ChangeState[*Roam](s.Machine())
	}
}

type MovementSystem struct {
	Entities ecs.Query[struct {
		*ecs.Transform
		*Velocity
	}]
}

func (s *MovementSystem) Schedule() ecs.Schedule { return ecs.ScheduleFixed }

func (s *MovementSystem) Execute(frame *ecs.UpdateFrame) {
	for _, e := range s.Entities.Iter() {
		e.Transform.Translate(e.Velocity.DX*frame.DeltaTime, e.Velocity.DY*frame.DeltaTime)
	}
}

// BoundsSystem wraps positions into the arena.
type BoundsSystem struct {
	Entities ecs.Query[struct{ *ecs.Transform }]
}

func (s *BoundsSystem) Execute(frame *ecs.UpdateFrame) {
	for t := range s.Entities.Values() {
		t.Transform.X = wrap(t.Transform.X)
		t.Transform.Y = wrap(t.Transform.Y)
	}
}

func wrap(v float64) float64 {
	v = math.Mod(v, arenaSize)
	if v < 0 {
		v += arenaSize
	}
	if v >= arenaSize {
		return 0
	}
	return v
}

// ChurnSystem destroys a random fraction of the population every second and
// respawns the same number of entities.
type ChurnSystem struct {
	Entities ecs.Query[struct{ *Energy }]
	Spawner  *Spawner
	Rate     float64

	debt float64
}

func (s *ChurnSystem) Execute(frame *ecs.UpdateFrame) {
	population := s.Entities.Entities()
	s.debt += s.Rate * float64(len(population)) * frame.DeltaTime
	n := min(int(s.debt), len(population))
	if n == 0 {
		return
	}
	s.debt -= float64(n)

	// Partial shuffle of a copy; the query result is shared.
	victims := slices.Clone(population)
	for i := 0; i < n; i++ {
		j := i + s.Spawner.rng.IntN(len(victims)-i)
		victims[i], victims[j] = victims[j], victims[i]
		frame.Commands.Destroy(victims[i])
	}
	frame.Commands.Defer(func() {
		for i := 0; i < n; i++ {
			s.Spawner.Spawn()
		}
	})
}

const spinnerSource = `
local speed = 1.5
function update(dt)
	entity.rotate(speed * dt)
end
`

// Spawner creates the stress population: movers with an FSM brain, every
// fourth with a short-lived child, and every scriptEvery-th with a Lua
// spinner.
type Spawner struct {
	World       *ecs.World
	ScriptEvery int

	rng     *rand.Rand
	spawned int
}

func NewSpawner(w *ecs.World, seed uint64, scriptEvery int) *Spawner {
	return &Spawner{
		World:       w,
		ScriptEvery: scriptEvery,
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (s *Spawner) Spawned() int { return s.spawned }

func (s *Spawner) Spawn() *ecs.Entity {
	s.spawned++
	e := s.World.NewEntity("mover")
	e.AddComponent(ecs.NewTransform(s.rng.Float64()*arenaSize, s.rng.Float64()*arenaSize))
	e.AddComponent(&Velocity{})

	energy := e.AddComponent(&Energy{Level: s.rng.Float64()}).(*Energy)
	brain := ecs.NewStateMachine()
	e.AddComponent(brain)
	brain.AddState(&Roam{energy: energy, dx: s.rng.Float64()*20 - 10, dy: s.rng.Float64()*20 - 10}, 1)
	brain.AddState(&Exhausted{energy: energy}, 2)
	brain.AddState(&Rest{energy: energy}, 5)

	if s.spawned%4 == 0 {
		trail := s.World.NewEntity("trail")
		trail.SetParent(e)
		trail.AddComponent(&Lifetime{Remaining: 0.5 + s.rng.Float64()})
	}
	if s.ScriptEvery > 0 && s.spawned%s.ScriptEvery == 0 {
		e.AddComponent(script.New("spinner", spinnerSource))
	}
	return e
}

// RegisterSchemas exposes the stress components to scripts and inspectors.
func RegisterSchemas(r *ecs.SchemaRegistry) {
	ecs.RegisterSchema[*Velocity](r,
		ecs.FloatField("dx", func(v *Velocity) *float64 { return &v.DX }),
		ecs.FloatField("dy", func(v *Velocity) *float64 { return &v.DY }),
	)
	ecs.RegisterSchema[*Energy](r,
		ecs.FloatField("level", func(e *Energy) *float64 { return &e.Level }),
	)
}

// NewSimulation builds a world with the stress systems and population.
func NewSimulation(w *ecs.World, entities int, churn float64, seed uint64, scriptEvery int) *Spawner {
	RegisterSchemas(w.Schemas())
	spawner := NewSpawner(w, seed, scriptEvery)
	w.Register(&MovementSystem{})
	w.Register(&BoundsSystem{})
	w.Register(&ChurnSystem{Spawner: spawner, Rate: churn})
	for i := 0; i < entities; i++ {
		spawner.Spawn()
	}
	return spawner
}
