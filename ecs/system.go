package ecs

// System represents a behavior that operates on entities with specific components.
// User-defined systems should implement this interface and can include Query and
// Resource fields, which the scheduler initializes at registration, as well as
// custom state fields that persist between frames.
type System interface {
	Execute(frame *UpdateFrame)
}

// Schedule selects the phases a system runs in. A system may run in both.
type Schedule uint8

const (
	ScheduleVariable Schedule = 1 << iota
	ScheduleFixed
)

// Scheduled lets a system declare its phases. Systems that don't implement
// it run once per variable step.
type Scheduled interface {
	Schedule() Schedule
}

// SystemAwaker receives a single call on the world's first frame, or at
// registration when the world is already past it.
type SystemAwaker interface {
	Awake(w *World)
}

// entityDriver walks the root list, driving FixedUpdate on fixed steps and
// Update on variable steps.
type entityDriver struct{}

func (entityDriver) Schedule() Schedule { return ScheduleVariable | ScheduleFixed }

func (entityDriver) Execute(frame *UpdateFrame) {
	w := frame.World
	for _, root := range w.roots {
		if root.parent != nil || root.destroyed {
			continue
		}
		if frame.Fixed {
			root.FixedUpdate(frame.DeltaTime)
		} else {
			root.Update(frame.DeltaTime)
		}
	}
}
