package ecs

import (
	"context"
	"reflect"
	"slices"
	"time"

	"go.uber.org/zap"
)

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	Schedule       Schedule
	Enabled        bool
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

type systemEntry struct {
	name     string
	system   System
	schedule Schedule
	enabled  bool
	stats    systemStatsInternal
}

// worldBinder is implemented by system fields the scheduler binds to its
// world at registration (Query and Resource).
type worldBinder interface {
	attach(w *World)
}

// Scheduler owns a world's systems, partitioned at registration into the
// variable-step and fixed-step buckets.
type Scheduler struct {
	world    *World
	systems  []*systemEntry
	variable []*systemEntry
	fixed    []*systemEntry
}

func newScheduler(w *World) *Scheduler {
	return &Scheduler{world: w}
}

// Register adds a system to the scheduler and initializes its Query and
// Resource fields. Registering the same system twice panics.
func (s *Scheduler) Register(system System) {
	if s.find(system) != nil {
		panic("ecs: system " + systemName(system) + " registered twice")
	}
	s.initializeFields(system)

	schedule := ScheduleVariable
	if sc, ok := system.(Scheduled); ok {
		schedule = sc.Schedule()
	}

	entry := &systemEntry{
		name:     systemName(system),
		system:   system,
		schedule: schedule,
		enabled:  true,
		stats:    systemStatsInternal{minDuration: time.Duration(1<<63 - 1)},
	}
	s.systems = append(s.systems, entry)
	if schedule&ScheduleVariable != 0 {
		s.variable = append(s.variable, entry)
	}
	if schedule&ScheduleFixed != 0 {
		s.fixed = append(s.fixed, entry)
	}

	s.world.log.Debug("system registered",
		zap.String("system", entry.name),
		zap.Bool("variable", schedule&ScheduleVariable != 0),
		zap.Bool("fixed", schedule&ScheduleFixed != 0))

	if s.world.awake {
		if a, ok := system.(SystemAwaker); ok {
			a.Awake(s.world)
		}
	}
}

func systemName(system System) string {
	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}
	return systemType.Name()
}

func (s *Scheduler) initializeFields(system System) {
	systemValue := reflect.ValueOf(system)
	if systemValue.Kind() != reflect.Ptr {
		return
	}
	systemValue = systemValue.Elem()
	if systemValue.Kind() != reflect.Struct {
		return
	}

	for i := 0; i < systemValue.NumField(); i++ {
		field := systemValue.Field(i)
		if !field.CanSet() || field.Kind() != reflect.Struct {
			continue
		}
		if b, ok := field.Addr().Interface().(worldBinder); ok {
			b.attach(s.world)
		}
	}
}

func (s *Scheduler) find(system System) *systemEntry {
	for _, e := range s.systems {
		if e.system == system {
			return e
		}
	}
	return nil
}

// SetEnabled toggles a registered system. Disabled systems are skipped in
// both buckets. It reports whether the system was found.
func (s *Scheduler) SetEnabled(system System, enabled bool) bool {
	e := s.find(system)
	if e == nil {
		return false
	}
	e.enabled = enabled
	return true
}

// Enabled reports whether system is registered and enabled.
func (s *Scheduler) Enabled(system System) bool {
	e := s.find(system)
	return e != nil && e.enabled
}

// Systems returns the registered systems in registration order.
func (s *Scheduler) Systems() []System {
	out := make([]System, len(s.systems))
	for i, e := range s.systems {
		out[i] = e.system
	}
	return out
}

func (s *Scheduler) awakeAll() {
	// Awake may register further systems, which are awoken at registration.
	for _, e := range slices.Clone(s.systems) {
		if a, ok := e.system.(SystemAwaker); ok {
			a.Awake(s.world)
		}
	}
}

func (s *Scheduler) runFixed(frame *UpdateFrame) {
	s.run(s.fixed, frame)
}

func (s *Scheduler) runVariable(frame *UpdateFrame) {
	s.run(s.variable, frame)
}

func (s *Scheduler) run(bucket []*systemEntry, frame *UpdateFrame) {
	// Systems registered mid-phase join on the next phase.
	for _, entry := range bucket {
		if !entry.enabled {
			continue
		}
		start := time.Now()
		entry.system.Execute(frame)
		duration := time.Since(start)

		stats := &entry.stats
		stats.executionCount++
		stats.lastDuration = duration
		stats.totalDuration += duration

		if duration < stats.minDuration {
			stats.minDuration = duration
		}
		if duration > stats.maxDuration {
			stats.maxDuration = duration
		}
	}
}

// Run ticks the world repeatedly at the given interval until the context is
// cancelled.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			s.world.Tick(dt)
		}
	}
}

// GetStats returns statistics about system execution.
func (s *Scheduler) GetStats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount: len(s.systems),
		Systems:     make([]SystemStats, len(s.systems)),
	}

	var totalExecs int64
	for i, entry := range s.systems {
		internal := entry.stats
		avgDuration := time.Duration(0)
		minDuration := internal.minDuration
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
		} else {
			minDuration = 0
		}

		stats.Systems[i] = SystemStats{
			Name:           entry.name,
			Schedule:       entry.schedule,
			Enabled:        entry.enabled,
			ExecutionCount: internal.executionCount,
			MinDuration:    minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		totalExecs += internal.executionCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}
