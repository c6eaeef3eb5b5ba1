package ecs_test

import (
	"testing"
	"time"

	"github.com/plus3/hearth/ecs"
)

type slowSystem struct {
	Delay        time.Duration
	ExecuteCount int
}

func (s *slowSystem) Execute(frame *ecs.UpdateFrame) {
	s.ExecuteCount++
	time.Sleep(s.Delay)
}

func TestSchedulerStats(t *testing.T) {
	w := newAwakeWorld()
	slow := &slowSystem{Delay: time.Millisecond}
	fixed := &countingSystem{schedule: ecs.ScheduleFixed}
	w.Register(slow)
	w.Register(fixed)

	for i := 0; i < 3; i++ {
		w.Tick(0.01)
	}

	stats := w.Scheduler().GetStats()
	if stats.SystemCount != 3 {
		t.Fatalf("expected 3 systems, got %d", stats.SystemCount)
	}

	slowStats := stats.Systems[1]
	if slowStats.Name != "slowSystem" {
		t.Errorf("expected slowSystem, got %q", slowStats.Name)
	}
	if slowStats.ExecutionCount != 3 {
		t.Errorf("expected 3 executions, got %d", slowStats.ExecutionCount)
	}
	if slowStats.MinDuration < time.Millisecond {
		t.Errorf("expected min duration of at least 1ms, got %v", slowStats.MinDuration)
	}
	if slowStats.AvgDuration < slowStats.MinDuration || slowStats.AvgDuration > slowStats.MaxDuration {
		t.Errorf("average %v outside [%v, %v]", slowStats.AvgDuration, slowStats.MinDuration, slowStats.MaxDuration)
	}
	if slowStats.TotalDuration < 3*time.Millisecond {
		t.Errorf("expected total duration of at least 3ms, got %v", slowStats.TotalDuration)
	}

	fixedStats := stats.Systems[2]
	if fixedStats.Schedule != ecs.ScheduleFixed {
		t.Errorf("expected fixed schedule, got %v", fixedStats.Schedule)
	}
	if fixedStats.ExecutionCount != 1 {
		t.Errorf("expected one fixed step from 0.03s of frames, got %d", fixedStats.ExecutionCount)
	}

	// Driver: three variable passes plus one fixed step.
	if stats.TotalExecutions != 3+3+1+1 {
		t.Errorf("expected 8 total executions, got %d", stats.TotalExecutions)
	}
}

func TestSchedulerSystemsNeverRunHaveZeroMin(t *testing.T) {
	w := ecs.NewWorld()
	w.Register(&slowSystem{})

	stats := w.Scheduler().GetStats()
	for _, s := range stats.Systems {
		if s.MinDuration != 0 || s.ExecutionCount != 0 {
			t.Errorf("%s: expected empty stats, got %+v", s.Name, s)
		}
	}
}

func TestSchedulerSystemsInRegistrationOrder(t *testing.T) {
	w := ecs.NewWorld()
	a := &countingSystem{}
	b := &slowSystem{}
	w.Register(a)
	w.Register(b)

	systems := w.Scheduler().Systems()
	if len(systems) != 3 || systems[1] != a || systems[2] != b {
		t.Fatalf("unexpected system order: %v", systems)
	}
	if !w.Scheduler().Enabled(a) {
		t.Error("systems start enabled")
	}
}
