package ecs_test

import (
	"testing"

	"github.com/plus3/hearth/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trackedState records Enter and Exit calls and exposes its guard.
type trackedState struct {
	ecs.StateBase
	name    string
	log     *eventLog
	Allowed bool
	updates int
}

func (s *trackedState) Enter()         { s.log.add("%s.enter", s.name) }
func (s *trackedState) Exit()          { s.log.add("%s.exit", s.name) }
func (s *trackedState) Update(float64) { s.updates++ }
func (s *trackedState) CanEnter() bool { return s.Allowed }

type Idle struct{ trackedState }
type Move struct{ trackedState }
type Attack struct{ trackedState }

func newBrain(log *eventLog) (*ecs.StateMachine, *Idle, *Move, *Attack) {
	idle := &Idle{trackedState{name: "idle", log: log}}
	move := &Move{trackedState{name: "move", log: log}}
	attack := &Attack{trackedState{name: "attack", log: log}}

	m := ecs.NewStateMachine()
	m.AddState(idle, 0)
	m.AddState(move, 1)
	m.AddState(attack, 2)
	return m, idle, move, attack
}

func TestStateMachineFirstStateIsEnteredUnguarded(t *testing.T) {
	log := &eventLog{}
	m, idle, _, _ := newBrain(log)

	assert.Same(t, idle, m.Current())
	assert.True(t, ecs.InState[*Idle](m))
	assert.Equal(t, []string{"idle.enter"}, log.events)
	assert.Equal(t, 3, m.Len())
}

func TestStateMachinePriorityArbitration(t *testing.T) {
	log := &eventLog{}
	m, idle, move, attack := newBrain(log)

	m.Update(0.1)
	assert.Same(t, idle, m.Current(), "no guard allows a transition")
	assert.Equal(t, 1, idle.updates)

	log.reset()
	move.Allowed = true
	attack.Allowed = true
	m.Update(0.1)
	assert.Same(t, attack, m.Current(), "the higher priority wins")
	assert.Equal(t, []string{"idle.exit", "attack.enter"}, log.events)

	log.reset()
	attack.Allowed = false
	m.Update(0.1)
	assert.Same(t, attack, m.Current(), "a lower priority cannot preempt")
	assert.Empty(t, log.events)
	assert.Equal(t, 1, attack.updates)

	require.True(t, ecs.SetPriority[*Attack](m, 0))
	m.Update(0.1)
	assert.Same(t, move, m.Current(), "lowering the current priority lets others in")
	assert.Equal(t, []string{"attack.exit", "move.enter"}, log.events)
}

func TestStateMachineEqualPriorityFirstRegisteredWins(t *testing.T) {
	log := &eventLog{}
	idle := &Idle{trackedState{name: "idle", log: log}}
	move := &Move{trackedState{name: "move", log: log, Allowed: true}}
	attack := &Attack{trackedState{name: "attack", log: log, Allowed: true}}

	m := ecs.NewStateMachine()
	m.AddState(idle, 0)
	m.AddState(move, 5)
	m.AddState(attack, 5)

	m.Update(0)
	assert.Same(t, move, m.Current())

	// Equal priority to the current state is still eligible.
	m.Update(0)
	assert.Same(t, attack, m.Current())
	m.Update(0)
	assert.Same(t, move, m.Current())
}

func TestStateMachineChangeState(t *testing.T) {
	log := &eventLog{}
	m, _, move, _ := newBrain(log)

	log.reset()
	require.True(t, ecs.ChangeState[*Move](m))
	assert.Same(t, move, m.Current())
	assert.Equal(t, []string{"idle.exit", "move.enter"}, log.events)
	assert.Equal(t, int64(1), m.Transitions())

	log.reset()
	ecs.ChangeState[*Move](m)
	assert.Empty(t, log.events, "changing to the current state is a no-op")

	assert.False(t, ecs.ChangeState[*unknownState](m))
	assert.Same(t, move, ecs.StateOf[*Move](m))
	assert.Nil(t, ecs.StateOf[*unknownState](m))
}

type unknownState struct{ ecs.StateBase }

func TestStateMachineTimeInState(t *testing.T) {
	log := &eventLog{}
	m, _, move, _ := newBrain(log)

	m.Update(0.25)
	m.Update(0.25)
	assert.InDelta(t, 0.5, m.TimeInState(), 1e-12)

	move.Allowed = true
	m.Update(0.25)
	assert.Zero(t, m.TimeInState())
}

func TestStateMachineAsComponent(t *testing.T) {
	w := newAwakeWorld(ecs.WithFixedStep(1))
	log := &eventLog{}
	m, _, move, _ := newBrain(log)

	e := w.NewEntity("npc")
	e.AddComponent(m)
	assert.Same(t, e, move.Entity())
	assert.Same(t, m, move.Machine())

	move.Allowed = true
	w.Tick(0.1)
	assert.True(t, ecs.InState[*Move](m))

	log.reset()
	e.DestroyImmediate()
	assert.Equal(t, []string{"move.exit"}, log.events)
	assert.Nil(t, m.Current())
}
