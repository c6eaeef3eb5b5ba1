package ecs_test

import (
	"testing"

	"github.com/plus3/hearth/ecs"
	"github.com/stretchr/testify/assert"
)

func TestMask(t *testing.T) {
	var m ecs.Mask
	assert.True(t, m.IsZero())

	m.Set(3)
	m.Set(70)
	assert.Len(t, m, 2, "mask grows to hold bit 70")
	assert.True(t, m.Has(3))
	assert.True(t, m.Has(70))
	assert.False(t, m.Has(4))
	assert.False(t, m.Has(500))
	assert.Equal(t, 2, m.Count())
	assert.Equal(t, []int{3, 70}, m.Bits())

	m.Unset(70)
	assert.Len(t, m, 1, "trailing empty words are trimmed")
	m.Unset(500)
	assert.Equal(t, []int{3}, m.Bits())
}

func TestMaskContains(t *testing.T) {
	var entity, query ecs.Mask
	entity.Set(1)
	entity.Set(2)
	entity.Set(65)

	query.Set(1)
	query.Set(65)
	assert.True(t, entity.Contains(query))
	assert.True(t, entity.Contains(nil), "every mask contains the empty query")

	query.Set(130)
	assert.False(t, entity.Contains(query))
	assert.False(t, ecs.Mask(nil).Contains(query))
}

func TestMaskEqualIgnoresTrailingWords(t *testing.T) {
	a := ecs.Mask{5}
	b := ecs.Mask{5, 0, 0}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(ecs.Mask{5, 1}))

	c := b.Clone()
	assert.Equal(t, ecs.Mask{5}, c)
	c.Set(1)
	assert.Equal(t, ecs.Mask{5, 0, 0}, b, "clones do not share storage")
}
