package ecs_test

import (
	"fmt"

	"github.com/plus3/hearth/ecs"
)

// Common test component types
type Position struct {
	ecs.BaseComponent
	X, Y float64
}

type Velocity struct {
	ecs.BaseComponent
	DX, DY float64
}

type Health struct {
	ecs.BaseComponent
	Current int
	Max     int
}

type Label struct {
	ecs.BaseComponent
	Text string
}

// Damager is implemented by components that deal damage.
type Damager interface {
	ecs.Component
	Damage() int
}

type Sword struct {
	ecs.BaseComponent
	Power int
}

func (s *Sword) Damage() int { return s.Power }

// Mover applies Velocity to Position on every fixed step.
type Mover struct {
	ecs.BaseComponent
	Steps int
}

func (m *Mover) FixedUpdate(dt float64) {
	m.Steps++
	pos := ecs.Sibling[*Position](m)
	vel := ecs.Sibling[*Velocity](m)
	if pos != nil && vel != nil {
		pos.X += vel.DX * dt
		pos.Y += vel.DY * dt
	}
}

// eventLog collects lifecycle calls across components.
type eventLog struct {
	events []string
}

func (l *eventLog) add(format string, args ...any) {
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

func (l *eventLog) reset() {
	l.events = nil
}

// Recorder logs every lifecycle callback it receives.
type Recorder struct {
	ecs.BaseComponent
	log *eventLog

	OnUpdateFn func(r *Recorder)
}

func newRecorder(name string, log *eventLog) *Recorder {
	r := &Recorder{log: log}
	r.Name = name
	return r
}

func (r *Recorder) OnAwake()   { r.log.add("%s.awake", r.Name) }
func (r *Recorder) OnStart()   { r.log.add("%s.start", r.Name) }
func (r *Recorder) OnEnable()  { r.log.add("%s.enable", r.Name) }
func (r *Recorder) OnDisable() { r.log.add("%s.disable", r.Name) }
func (r *Recorder) OnDestroy() { r.log.add("%s.destroy", r.Name) }

func (r *Recorder) Update(dt float64) {
	r.log.add("%s.update", r.Name)
	if r.OnUpdateFn != nil {
		r.OnUpdateFn(r)
	}
}

func (r *Recorder) FixedUpdate(dt float64) {
	r.log.add("%s.fixed", r.Name)
}

// countingSystem counts executions per phase.
type countingSystem struct {
	schedule ecs.Schedule
	Fixed    int
	Variable int
	Awakened int
	LastDt   float64
}

func (s *countingSystem) Schedule() ecs.Schedule { return s.schedule }

func (s *countingSystem) Awake(w *ecs.World) { s.Awakened++ }

func (s *countingSystem) Execute(frame *ecs.UpdateFrame) {
	if frame.Fixed {
		s.Fixed++
	} else {
		s.Variable++
	}
	s.LastDt = frame.DeltaTime
}

// newAwakeWorld returns a world that has already passed its first frame.
func newAwakeWorld(opts ...ecs.Option) *ecs.World {
	w := ecs.NewWorld(opts...)
	w.Tick(0)
	return w
}
