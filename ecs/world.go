package ecs

import (
	"context"
	"reflect"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/kamstrup/intmap"
	"go.uber.org/zap"
)

const (
	DefaultFixedStep      = 1.0 / 50.0
	DefaultMaxAccumulated = 0.25
)

// Option configures a World.
type Option func(*World)

// WithLogger sets the world's logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(w *World) {
		if log != nil {
			w.log = log
		}
	}
}

// WithFixedStep sets the fixed-step duration in seconds.
func WithFixedStep(step float64) Option {
	return func(w *World) {
		if step <= 0 {
			panic("ecs: fixed step must be positive")
		}
		w.fixedStep = step
	}
}

// WithMaxAccumulated sets the accumulator ceiling in seconds. Backlog above
// it is dropped. The ceiling must be at least one fixed step; without this
// option it is DefaultMaxAccumulated, raised to the fixed step if needed.
func WithMaxAccumulated(limit float64) Option {
	return func(w *World) {
		if limit <= 0 {
			panic("ecs: max accumulated time must be positive")
		}
		w.maxAccumulated = limit
		w.maxAccumulatedSet = true
	}
}

// WithTimeScale sets the initial time scale.
func WithTimeScale(scale float64) Option {
	return func(w *World) {
		w.SetTimeScale(scale)
	}
}

// WorldStats is a snapshot of the world's counters.
type WorldStats struct {
	Frames          uint64
	FixedSteps      uint64
	Elapsed         float64
	DroppedTime     float64
	Roots           int
	Entities        int
	IndexedEntities int
	Components      int
	ComponentTypes  int
	CachedQueries   int
	PendingDestroys int
	Systems         int
}

// World owns every live entity, the query index, the systems and the
// per-world resources, and drives them one frame per Tick.
//
// A World is not safe for concurrent use.
type World struct {
	log *zap.Logger

	registry  *ComponentRegistry
	scheduler *Scheduler
	schemas   *SchemaRegistry
	commands  *Commands

	nextId    EntityId
	live      int
	entities  *intmap.Map[EntityId, *Entity]
	guids     map[uuid.UUID]*Entity
	resources map[reflect.Type]any

	roots     []*Entity
	unstarted []Component

	compScratch []Component
	entScratch  []*Entity

	awake   bool
	paused  bool
	ticking bool

	timeScale         float64
	fixedStep         float64
	maxAccumulated    float64
	maxAccumulatedSet bool
	accumulator       float64
	elapsed           float64
	dropped           float64

	frame      uint64
	fixedSteps uint64
}

// NewWorld creates an empty world with the built-in entity driver
// registered as its first system.
func NewWorld(opts ...Option) *World {
	w := &World{
		log:            zap.NewNop(),
		registry:       NewComponentRegistry(),
		schemas:        NewSchemaRegistry(),
		entities:       intmap.New[EntityId, *Entity](256),
		guids:          make(map[uuid.UUID]*Entity),
		resources:      make(map[reflect.Type]any),
		timeScale:      1,
		fixedStep:      DefaultFixedStep,
		maxAccumulated: DefaultMaxAccumulated,
	}
	w.scheduler = newScheduler(w)
	w.commands = newCommands(w)
	w.schemas.Register(transformSchema)

	for _, opt := range opts {
		opt(w)
	}
	if w.maxAccumulated < w.fixedStep {
		if w.maxAccumulatedSet {
			panic("ecs: max accumulated time must be at least one fixed step")
		}
		w.maxAccumulated = w.fixedStep
	}

	w.scheduler.Register(entityDriver{})
	return w
}

// NewEntity creates an active entity. It joins the root list at the next
// flush.
func (w *World) NewEntity(name string) *Entity {
	w.nextId++
	e := &Entity{
		Name:       name,
		world:      w,
		id:         w.nextId,
		guid:       uuid.New(),
		active:     true,
		components: make(map[reflect.Type][]Component, 4),
	}
	w.entities.Put(e.id, e)
	w.guids[e.guid] = e
	w.live++
	w.commands.addRoot(e)
	return e
}

func (w *World) forget(e *Entity) {
	if _, ok := w.entities.Get(e.id); ok {
		w.entities.Del(e.id)
		w.live--
	}
	if w.guids[e.guid] == e {
		delete(w.guids, e.guid)
	}
}

// EntityById returns the live entity with the given id, or nil.
func (w *World) EntityById(id EntityId) *Entity {
	e, _ := w.entities.Get(id)
	return e
}

// EntityByGUID returns the live entity with the given GUID, or nil.
func (w *World) EntityByGUID(id uuid.UUID) *Entity {
	return w.guids[id]
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.live
}

// Roots returns a copy of the root list as of the last flush.
func (w *World) Roots() []*Entity {
	return slices.Clone(w.roots)
}

// EntitiesWith returns every entity owning components of all the given
// types. See ComponentRegistry.EntitiesWith.
func (w *World) EntitiesWith(types ...reflect.Type) []*Entity {
	return w.registry.EntitiesWith(types...)
}

func (w *World) Registry() *ComponentRegistry { return w.registry }
func (w *World) Scheduler() *Scheduler         { return w.scheduler }
func (w *World) Schemas() *SchemaRegistry      { return w.schemas }
func (w *World) Commands() *Commands           { return w.commands }
func (w *World) Logger() *zap.Logger           { return w.log }

// Register adds a system. See Scheduler.Register.
func (w *World) Register(system System) {
	w.scheduler.Register(system)
}

// SetSystemEnabled toggles a registered system.
func (w *World) SetSystemEnabled(system System, enabled bool) bool {
	return w.scheduler.SetEnabled(system, enabled)
}

// Defer queues fn to run at the end of the current frame.
func (w *World) Defer(fn func()) {
	w.commands.Defer(fn)
}

func (w *World) Paused() bool { return w.paused }

// SetPaused stops (or resumes) every system. Time keeps advancing while
// paused, but the accumulator does not.
func (w *World) SetPaused(paused bool) {
	if w.paused == paused {
		return
	}
	w.paused = paused
	w.log.Debug("world paused", zap.Bool("paused", paused))
}

func (w *World) TimeScale() float64 { return w.timeScale }

// SetTimeScale multiplies every raw delta. Zero freezes time; negative
// scales panic.
func (w *World) SetTimeScale(scale float64) {
	if scale < 0 {
		panic("ecs: time scale must not be negative")
	}
	w.timeScale = scale
}

func (w *World) Elapsed() float64   { return w.elapsed }
func (w *World) Frame() uint64      { return w.frame }
func (w *World) FixedStep() float64 { return w.fixedStep }
func (w *World) Awake() bool        { return w.awake }

// Alpha returns how far the accumulator is into the next fixed step, in
// [0, 1), for interpolating presentation between fixed states.
func (w *World) Alpha() float64 {
	return w.accumulator / w.fixedStep
}

// Tick advances the world by rawDelta seconds.
func (w *World) Tick(rawDelta float64) {
	// Reset in case a panicking system unwound the previous tick.
	w.ticking = false
	if rawDelta < 0 {
		rawDelta = 0
	}
	dt := rawDelta * w.timeScale
	w.elapsed += dt

	w.commands.flushRoots()

	if !w.awake {
		w.awake = true
		w.scheduler.awakeAll()
		w.startPending()
		w.log.Debug("first frame",
			zap.Int("systems", len(w.scheduler.systems)),
			zap.Int("roots", len(w.roots)))
		w.frame++
		return
	}

	if w.paused {
		w.frame++
		return
	}

	w.startPending()

	frame := &UpdateFrame{
		DeltaTime: w.fixedStep,
		Fixed:     true,
		Frame:     w.frame,
		World:     w,
		Commands:  w.commands,
	}

	w.accumulator += dt
	if w.accumulator > w.maxAccumulated {
		drop := w.accumulator - w.maxAccumulated
		w.dropped += drop
		w.accumulator = w.maxAccumulated
		w.log.Debug("fixed step backlog dropped",
			zap.Float64("dropped", drop),
			zap.Uint64("frame", w.frame))
	}
	w.ticking = true
	epsilon := w.fixedStep * 1e-9
	for w.accumulator+epsilon >= w.fixedStep {
		w.scheduler.runFixed(frame)
		w.accumulator -= w.fixedStep
		w.fixedSteps++
	}
	if w.accumulator < 0 {
		w.accumulator = 0
	}

	frame.DeltaTime = dt
	frame.Fixed = false
	w.scheduler.runVariable(frame)
	w.ticking = false

	w.commands.flushDestroys()
	w.commands.runDefers()
	w.commands.flushRoots()
	w.frame++
}

func (w *World) startPending() {
	for len(w.unstarted) > 0 {
		batch := w.unstarted
		w.unstarted = nil
		for _, c := range batch {
			c.base().start()
		}
	}
}

// Run ticks the world at the given interval until ctx is cancelled.
func (w *World) Run(ctx context.Context, interval time.Duration) {
	w.scheduler.Run(ctx, interval)
}

// Stats returns a snapshot of the world's counters.
func (w *World) Stats() WorldStats {
	return WorldStats{
		Frames:          w.frame,
		FixedSteps:      w.fixedSteps,
		Elapsed:         w.elapsed,
		DroppedTime:     w.dropped,
		Roots:           len(w.roots),
		Entities:        w.live,
		IndexedEntities: w.registry.EntityCount(),
		Components:      w.registry.ComponentCount(),
		ComponentTypes:  len(w.registry.types),
		CachedQueries:   w.registry.CachedQueries(),
		PendingDestroys: len(w.commands.entityDestroys) + len(w.commands.componentDestroys),
		Systems:         len(w.scheduler.systems),
	}
}

// Clear hard-destroys every entity and drops all queued work. Systems,
// resources and schemas are kept, so a scene can be rebuilt on the same
// world.
//
// Called from a system or component during a tick, Clear instead queues a
// destroy of every entity alive at the call and drops the deferred funcs
// queued so far; the teardown happens in that frame's destruction phase.
// Entities created after the call survive it.
func (w *World) Clear() {
	if w.ticking {
		w.clearDeferred()
		return
	}
	w.commands.flushRoots()
	for i := len(w.roots) - 1; i >= 0; i-- {
		w.roots[i].DestroyImmediate()
	}
	w.commands.flushRoots()
	w.entities.Clear()
	clear(w.guids)
	w.live = 0
	w.commands.reset()
	w.unstarted = nil
	w.accumulator = 0
	w.log.Debug("world cleared")
}

func (w *World) clearDeferred() {
	for _, list := range [][]*Entity{w.roots, w.commands.pendingAdd} {
		for _, e := range list {
			if e.parent == nil {
				e.Destroy()
			}
		}
	}
	w.commands.defers = nil
	w.log.Debug("world clear queued", zap.Uint64("frame", w.frame))
}
