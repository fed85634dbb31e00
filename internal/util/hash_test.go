package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashIsStable(t *testing.T) {
	assert.Equal(t, Hash2(7, -3, 12), Hash2(7, -3, 12))
	assert.NotEqual(t, Hash2(7, -3, 12), Hash2(7, 12, -3))
	assert.NotEqual(t, CellSeed(1, 0, 1, 2), CellSeed(1, 1, 1, 2))
	assert.NotEqual(t, CellSeed(1, 0, 1, 2), CellSeed(1, 0, 2, 1))
}

func TestNewRandIsDeterministic(t *testing.T) {
	a := NewRand(42, 5, -1, 3)
	b := NewRand(42, 5, -1, 3)
	for i := 0; i < 16; i++ {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}
}

func TestNoiseRange(t *testing.T) {
	n := NewNoise(1337, 0.01)
	for x := -500; x < 500; x += 37 {
		v := n.At1D(x)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		assert.Equal(t, v, NewNoise(1337, 0.01).At1D(x))
		w := n.At2D(x, -x)
		assert.GreaterOrEqual(t, w, 0.0)
		assert.LessOrEqual(t, w, 1.0)
	}
}
