package ecs

// UpdateFrame is passed to every system execution.
type UpdateFrame struct {
	DeltaTime float64
	// Fixed is true while the fixed-step bucket is running.
	Fixed bool
	// Frame counts completed ticks, starting at zero for the first frame.
	Frame    uint64
	World    *World
	Commands *Commands
}
