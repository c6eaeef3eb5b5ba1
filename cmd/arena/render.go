package main

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/plus3/hearth/ecs"
)

var (
	backgroundColor = color.RGBA{0x1b, 0x1d, 0x24, 0xff}
	borderColor     = color.RGBA{0x3a, 0x3f, 0x4b, 0xff}
	wanderColor     = color.RGBA{0x8f, 0xd6, 0x9b, 0xff}
	fleeColor       = color.RGBA{0xf2, 0x8c, 0x6b, 0xff}
	spinnerColor    = color.RGBA{0x6b, 0xa8, 0xf2, 0xff}
)

// Sprite is a solid rectangle centered on the entity's transform.
type Sprite struct {
	ecs.BaseComponent
	Width, Height float64
	Color         color.RGBA
	Hidden        bool
}

// RenderSystem draws every visible sprite. It does no work during the tick;
// the host calls Draw after the world has updated positions.
type RenderSystem struct {
	Sprites ecs.Query[struct {
		*ecs.Transform
		*Sprite
		Brain *ecs.StateMachine `ecs:"optional"`
	}]
	Width, Height float32

	pixel *ebiten.Image
}

func (r *RenderSystem) Execute(frame *ecs.UpdateFrame) {}

func (r *RenderSystem) Draw(screen *ebiten.Image) {
	if r.pixel == nil {
		r.pixel = ebiten.NewImage(1, 1)
		r.pixel.Fill(color.White)
	}

	screen.Fill(backgroundColor)
	vector.StrokeRect(screen, 1, 1, r.Width-2, r.Height-2, 2, borderColor, false)

	for e, s := range r.Sprites.Iter() {
		if s.Sprite.Hidden || !e.Active() {
			continue
		}
		c := s.Sprite.Color
		if s.Brain != nil && ecs.InState[*Flee](s.Brain) {
			c = fleeColor
		}

		t := s.Transform
		w, h := s.Sprite.Width*t.ScaleX, s.Sprite.Height*t.ScaleY
		if t.Rotation == 0 {
			vector.DrawFilledRect(screen, float32(t.X-w/2), float32(t.Y-h/2), float32(w), float32(h), c, false)
			continue
		}

		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(w, h)
		op.GeoM.Translate(-w/2, -h/2)
		op.GeoM.Rotate(t.Rotation)
		op.GeoM.Translate(t.X, t.Y)
		op.ColorScale.ScaleWithColor(c)
		screen.DrawImage(r.pixel, op)
	}
}
