package main

import (
	"math/rand/v2"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/plus3/hearth/ecs"
	"github.com/plus3/hearth/ecs/debugui"
	"github.com/plus3/hearth/ecs/script"
)

// PointerSystem copies the cursor into the Pointer resource. The pointer is
// marked captured while the debug overlay wants the mouse.
type PointerSystem struct {
	Pointer ecs.Resource[Pointer]
	Imgui   ecs.Resource[debugui.ImguiInputState]
}

func (s *PointerSystem) Execute(frame *ecs.UpdateFrame) {
	p := s.Pointer.Get()
	if p == nil {
		return
	}
	x, y := ebiten.CursorPosition()
	p.X, p.Y = float64(x), float64(y)
	p.Captured = false
	if in := s.Imgui.Get(); in != nil {
		p.Captured = in.WantCaptureMouse
	}
}

const spinnerSource = `
local speed = 0.8
function start()
	log.info("spinner ready")
end
function update(dt)
	entity.rotate(speed * dt)
end
`

// Scene populates the arena on start and handles the pause key.
type Scene struct {
	Wanderers     int
	Width, Height float64
	Seed          uint64

	world   *ecs.World
	rng     *rand.Rand
	pointer *ecs.Resource[Pointer]
}

func (s *Scene) Start(w *ecs.World) {
	s.world = w
	s.rng = rand.New(rand.NewPCG(s.Seed, s.Seed^0x5851f42d4c957f2d))
	s.pointer = ecs.NewResource(w, Pointer{X: -1e6, Y: -1e6})
	RegisterSchemas(w.Schemas())

	w.Register(&PointerSystem{})
	w.Register(&WrapSystem{Width: s.Width, Height: s.Height})

	flock := w.NewEntity("flock")
	for range s.Wanderers {
		e := SpawnWanderer(w, s.rng, s.pointer, s.rng.Float64()*s.Width, s.rng.Float64()*s.Height)
		e.SetParent(flock)
	}

	spinner := w.NewEntity("spinner")
	spinner.AddComponent(ecs.NewTransform(s.Width/2, s.Height/2))
	spinner.AddComponent(&Sprite{Width: 48, Height: 48, Color: spinnerColor})
	spinner.AddComponent(script.New("spinner", spinnerSource))
}

func (s *Scene) Update(dt float64) {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		s.world.SetPaused(!s.world.Paused())
	}
}

// WrapSystem keeps wanderers inside the arena by wrapping at the edges.
type WrapSystem struct {
	Entities      ecs.Query[struct{ *Wanderer }]
	Width, Height float64
}

func (s *WrapSystem) Execute(frame *ecs.UpdateFrame) {
	for item := range s.Entities.Values() {
		t := item.Wanderer.Transform()
		t.X = wrap(t.X, s.Width)
		t.Y = wrap(t.Y, s.Height)
	}
}

func wrap(v, size float64) float64 {
	switch {
	case v < 0:
		return v + size
	case v >= size:
		return v - size
	}
	return v
}

// RegisterSchemas exposes the arena components to scripts and the inspector.
func RegisterSchemas(r *ecs.SchemaRegistry) {
	ecs.RegisterSchema[*Sprite](r,
		ecs.FloatField("width", func(s *Sprite) *float64 { return &s.Width }),
		ecs.FloatField("height", func(s *Sprite) *float64 { return &s.Height }),
		ecs.BoolField("hidden", func(s *Sprite) *bool { return &s.Hidden }),
	)
	ecs.RegisterSchema[*Wanderer](r,
		ecs.FloatField("speed", func(w *Wanderer) *float64 { return &w.Speed }),
		ecs.FloatField("fear_range", func(w *Wanderer) *float64 { return &w.FearRange }),
		ecs.FloatField("heading", func(w *Wanderer) *float64 { return &w.Heading }),
	)
}
