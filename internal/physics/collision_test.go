package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/annel0/pixelsim/internal/vec"
)

func TestHitboxBounds(t *testing.T) {
	h := NewHitbox(vec.Vec2Float{X: 10, Y: 10}, 4, 6)
	assert.Equal(t, vec.Vec2Float{X: 8, Y: 7}, h.Min())
	assert.Equal(t, vec.Vec2Float{X: 12, Y: 13}, h.Max())
}

func TestCheckBoxCollision(t *testing.T) {
	a := NewHitbox(vec.Vec2Float{}, 2, 2)
	assert.True(t, CheckBoxCollision(a, NewHitbox(vec.Vec2Float{X: 1.5}, 2, 2)))
	assert.False(t, CheckBoxCollision(a, NewHitbox(vec.Vec2Float{X: 2}, 2, 2)))
	// Касание по границе не считается пересечением
	assert.False(t, CheckBoxCollision(a, NewHitbox(vec.Vec2Float{Y: -2}, 2, 2)))
}
