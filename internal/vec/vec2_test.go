package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloorDivEuclidRemRoundTrip(t *testing.T) {
	for _, size := range []int{1, 7, 16, 100} {
		for a := -1000; a <= 1000; a++ {
			q := FloorDiv(a, size)
			r := EuclidRem(a, size)
			assert.True(t, r >= 0 && r < size, "остаток %d вне диапазона для %d/%d", r, a, size)
			if q*size+r != a {
				t.Fatalf("q*size+r != a: %d*%d+%d != %d", q, size, r, a)
			}
		}
	}
}

func TestFloorDivNegative(t *testing.T) {
	assert.Equal(t, -1, FloorDiv(-1, 100))
	assert.Equal(t, 99, EuclidRem(-1, 100))
	assert.Equal(t, -2, FloorDiv(-101, 100))
	assert.Equal(t, 0, FloorDiv(99, 100))
}

func TestVec2FloatFloorAndClamp(t *testing.T) {
	assert.Equal(t, Vec2{X: -1, Y: 2}, Vec2Float{X: -0.5, Y: 2.9}.Floor())

	v := Vec2Float{X: 30, Y: 40}.ClampLength(5)
	assert.InDelta(t, 5.0, v.Length(), 1e-9)
	assert.InDelta(t, 3.0, v.X, 1e-9)
}
