package ecs

import "math"

// Transform is the built-in spatial component. Components reach it through
// BaseComponent.Transform, which caches the lookup.
type Transform struct {
	BaseComponent
	X, Y     float64
	Rotation float64
	ScaleX   float64
	ScaleY   float64
}

// NewTransform returns a unit-scale transform at (x, y).
func NewTransform(x, y float64) *Transform {
	return &Transform{X: x, Y: y, ScaleX: 1, ScaleY: 1}
}

func (t *Transform) Translate(dx, dy float64) {
	t.X += dx
	t.Y += dy
}

func (t *Transform) SetPosition(x, y float64) {
	t.X, t.Y = x, y
}

// Rotate adds radians to the rotation, keeping it within [0, 2π).
func (t *Transform) Rotate(radians float64) {
	t.Rotation = math.Mod(t.Rotation+radians, 2*math.Pi)
	if t.Rotation < 0 {
		t.Rotation += 2 * math.Pi
	}
}

// DistanceTo returns the euclidean distance between two transforms.
func (t *Transform) DistanceTo(o *Transform) float64 {
	return math.Hypot(o.X-t.X, o.Y-t.Y)
}

var transformSchema = NewSchema[*Transform](
	FloatField("x", func(t *Transform) *float64 { return &t.X }),
	FloatField("y", func(t *Transform) *float64 { return &t.Y }),
	FloatField("rotation", func(t *Transform) *float64 { return &t.Rotation }),
	FloatField("scale_x", func(t *Transform) *float64 { return &t.ScaleX }),
	FloatField("scale_y", func(t *Transform) *float64 { return &t.ScaleY }),
)
