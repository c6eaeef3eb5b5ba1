package ecs

import (
	"math"
	"reflect"

	"go.uber.org/zap"
)

// State is one behavior of a StateMachine. Embed StateBase to get no-op
// defaults.
type State interface {
	Enter()
	Exit()
	Update(dt float64)
	// CanEnter is the entry guard used during arbitration.
	CanEnter() bool
}

type machineBinder interface {
	setMachine(m *StateMachine)
}

// StateBase provides no-op State methods and access to the owning machine.
// Its CanEnter reports false, so a state only competes for activation once
// it overrides the guard.
type StateBase struct {
	machine *StateMachine
}

func (s *StateBase) setMachine(m *StateMachine) { s.machine = m }

func (s *StateBase) Enter()         {}
func (s *StateBase) Exit()          {}
func (s *StateBase) Update(float64) {}
func (s *StateBase) CanEnter() bool { return false }

func (s *StateBase) Machine() *StateMachine { return s.machine }

// Entity returns the entity owning the machine, or nil.
func (s *StateBase) Entity() *Entity {
	if s.machine == nil {
		return nil
	}
	return s.machine.Entity()
}

type stateSlot struct {
	state    State
	priority int
	typ      reflect.Type
}

// StateMachine is a priority-arbitrated finite state machine component.
//
// Each Update runs the current state, then switches to the highest-priority
// state whose CanEnter reports true, provided its priority is at least the
// current state's. Equal priorities are resolved in favor of the state that
// was added first. The machine has no terminal state.
type StateMachine struct {
	BaseComponent

	states      []*stateSlot
	current     *stateSlot
	timeInState float64
	transitions int64
}

// NewStateMachine returns an empty machine.
func NewStateMachine() *StateMachine {
	return &StateMachine{}
}

// AddState registers s with the given priority. The first state added
// becomes current immediately, bypassing its guard, and is entered. Adding
// a second state of the same type replaces the first in place.
func (m *StateMachine) AddState(s State, priority int) {
	t := reflect.TypeOf(s)
	if b, ok := s.(machineBinder); ok {
		b.setMachine(m)
	}
	for _, slot := range m.states {
		if slot.typ == t {
			slot.state = s
			slot.priority = priority
			return
		}
	}
	slot := &stateSlot{state: s, priority: priority, typ: t}
	m.states = append(m.states, slot)
	if m.current == nil {
		m.current = slot
		m.timeInState = 0
		s.Enter()
	}
}

// Update runs the current state and arbitrates.
func (m *StateMachine) Update(dt float64) {
	if m.current != nil {
		m.timeInState += dt
		m.current.state.Update(dt)
	}
	m.arbitrate()
}

func (m *StateMachine) arbitrate() {
	baseline := math.MinInt
	if m.current != nil {
		baseline = m.current.priority
	}

	var next *stateSlot
	for _, slot := range m.states {
		if slot == m.current || slot.priority < baseline {
			continue
		}
		if next != nil && slot.priority <= next.priority {
			continue
		}
		if slot.state.CanEnter() {
			next = slot
		}
	}
	if next != nil {
		m.transition(next)
	}
}

func (m *StateMachine) transition(next *stateSlot) {
	prev := m.current
	if prev == next {
		return
	}
	if prev != nil {
		prev.state.Exit()
	}
	m.current = next
	m.timeInState = 0
	m.transitions++
	next.state.Enter()

	if w := m.World(); w != nil && w.log.Core().Enabled(zap.DebugLevel) {
		from := "<none>"
		if prev != nil {
			from = prev.typ.String()
		}
		w.log.Debug("state transition",
			zap.Stringer("entity", m.Entity()),
			zap.String("from", from),
			zap.String("to", next.typ.String()),
			zap.Int("priority", next.priority))
	}
}

// OnDestroy exits the current state.
func (m *StateMachine) OnDestroy() {
	if m.current != nil {
		m.current.state.Exit()
		m.current = nil
	}
}

// Current returns the active state, or nil.
func (m *StateMachine) Current() State {
	if m.current == nil {
		return nil
	}
	return m.current.state
}

// TimeInState returns the seconds spent in the current state.
func (m *StateMachine) TimeInState() float64 { return m.timeInState }

// Transitions returns the number of transitions since creation.
func (m *StateMachine) Transitions() int64 { return m.transitions }

// Len returns the number of registered states.
func (m *StateMachine) Len() int { return len(m.states) }

func (m *StateMachine) slotOf(t reflect.Type) *stateSlot {
	for _, slot := range m.states {
		if slot.typ == t {
			return slot
		}
	}
	return nil
}

// StateOf returns the registered state of type T.
func StateOf[T State](m *StateMachine) T {
	var zero T
	slot := m.slotOf(reflect.TypeFor[T]())
	if slot == nil {
		return zero
	}
	return slot.state.(T)
}

// InState reports whether the current state is of type T.
func InState[T State](m *StateMachine) bool {
	return m.current != nil && m.current.typ == reflect.TypeFor[T]()
}

// ChangeState forces a transition to the registered state of type T,
// ignoring its guard and priority. It reports whether T is registered.
func ChangeState[T State](m *StateMachine) bool {
	slot := m.slotOf(reflect.TypeFor[T]())
	if slot == nil {
		return false
	}
	m.transition(slot)
	return true
}

// SetPriority changes the priority of the registered state of type T. It
// reports whether T is registered.
func SetPriority[T State](m *StateMachine, priority int) bool {
	slot := m.slotOf(reflect.TypeFor[T]())
	if slot == nil {
		return false
	}
	slot.priority = priority
	return true
}
