package main

import (
	"math"
	"math/rand/v2"

	"github.com/plus3/hearth/ecs"
)

// Pointer is the cursor position in screen space, refreshed every frame.
type Pointer struct {
	X, Y float64
	// Captured is set while the debug overlay owns the mouse.
	Captured bool
}

type Wanderer struct {
	ecs.BaseComponent
	Speed     float64
	FearRange float64
	Heading   float64
}

func (w *Wanderer) step(dt float64) {
	w.Transform().Translate(math.Cos(w.Heading)*w.Speed*dt, math.Sin(w.Heading)*w.Speed*dt)
}

// Wander drifts and turns at random.
type Wander struct {
	ecs.StateBase
	wanderer *Wanderer
	rng      *rand.Rand
	turnIn   float64
}

func (s *Wander) Enter() { s.turnIn = 0 }

func (s *Wander) Update(dt float64) {
	s.turnIn -= dt
	if s.turnIn <= 0 {
		s.wanderer.Heading += (s.rng.Float64() - 0.5) * math.Pi
		s.turnIn = 0.5 + s.rng.Float64()*1.5
	}
	s.wanderer.step(dt)
}

// Flee runs straight away from the pointer while it is close.
type Flee struct {
	ecs.StateBase
	wanderer *Wanderer
	pointer  *ecs.Resource[Pointer]
}

func (s *Flee) threat() (dx, dy float64, near bool) {
	p := s.pointer.Get()
	t := s.wanderer.Transform()
	if p == nil || p.Captured || t == nil {
		return 0, 0, false
	}
	dx, dy = t.X-p.X, t.Y-p.Y
	return dx, dy, math.Hypot(dx, dy) < s.wanderer.FearRange
}

func (s *Flee) CanEnter() bool {
	_, _, near := s.threat()
	return near
}

func (s *Flee) Update(dt float64) {
	dx, dy, near := s.threat()
	if !near {
		ecs.ChangeState[*Wander](s.Machine())
		return
	}
	s.wanderer.Heading = math.Atan2(dy, dx)
	s.wanderer.step(dt * 2)
}

// SpawnWanderer creates a wanderer at (x, y) with a Wander/Flee brain.
func SpawnWanderer(w *ecs.World, rng *rand.Rand, pointer *ecs.Resource[Pointer], x, y float64) *ecs.Entity {
	e := w.NewEntity("wanderer")
	e.AddComponent(ecs.NewTransform(x, y))
	e.AddComponent(&Sprite{Width: 12, Height: 12, Color: wanderColor})
	wanderer := e.AddComponent(&Wanderer{Speed: 40 + rng.Float64()*40, FearRange: 90, Heading: rng.Float64() * 2 * math.Pi}).(*Wanderer)

	brain := ecs.NewStateMachine()
	e.AddComponent(brain)
	brain.AddState(&Wander{wanderer: wanderer, rng: rng}, 0)
	brain.AddState(&Flee{wanderer: wanderer, pointer: pointer}, 10)
	return e
}
