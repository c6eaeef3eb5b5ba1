package main

import (
	"math/rand/v2"
	"testing"

	"github.com/plus3/hearth/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWandererFleesPointer(t *testing.T) {
	w := ecs.NewWorld()
	pointer := ecs.NewResource(w, Pointer{X: -1e6, Y: -1e6})
	rng := rand.New(rand.NewPCG(1, 2))
	e := SpawnWanderer(w, rng, pointer, 100, 100)
	brain := ecs.Get[*ecs.StateMachine](e)
	require.NotNil(t, brain)

	w.Tick(0)
	w.Tick(0.1)
	assert.True(t, ecs.InState[*Wander](brain))

	tr := e.Transform()
	tr.SetPosition(100, 100)
	pointer.Get().X, pointer.Get().Y = 110, 100
	w.Tick(0.1)
	require.True(t, ecs.InState[*Flee](brain))

	tr.SetPosition(100, 100)
	w.Tick(0.1)
	assert.Less(t, tr.X, 100.0, "flees away from a pointer on its right")

	pointer.Get().Captured = true
	w.Tick(0.1)
	assert.True(t, ecs.InState[*Wander](brain), "a captured pointer is not a threat")
}

func TestWrap(t *testing.T) {
	assert.Equal(t, 99.0, wrap(-1, 100))
	assert.Equal(t, 0.0, wrap(100, 100))
	assert.Equal(t, 50.0, wrap(50, 100))
}

func TestRegisterSchemas(t *testing.T) {
	w := ecs.NewWorld()
	RegisterSchemas(w.Schemas())

	s := &Sprite{Width: 4}
	require.NoError(t, w.Schemas().For(s).Set(s, "hidden", true))
	assert.True(t, s.Hidden)

	wd := &Wanderer{}
	require.NoError(t, w.Schemas().For(wd).Set(wd, "fear_range", 30))
	assert.Equal(t, 30.0, wd.FearRange)
}
