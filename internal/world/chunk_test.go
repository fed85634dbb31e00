package world

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/pixelsim/internal/world/material"
)

func TestChunkAtRoundTrip(t *testing.T) {
	for _, x := range []int{-1001, -200, -101, -100, -99, -1, 0, 1, 99, 100, 101, 250, 1000} {
		for _, y := range []int{-150, -100, -1, 0, 42, 100, 999} {
			key, lx, ly := ChunkAt(x, y)
			assert.True(t, InChunk(lx, ly), "локальные координаты (%d,%d) вне чанка", lx, ly)

			wx, wy := WorldPos(key, lx, ly)
			assert.Equal(t, x, wx)
			assert.Equal(t, y, wy)
		}
	}

	key, lx, ly := ChunkAt(-1, -1)
	assert.Equal(t, ChunkKey{X: -1, Y: -1}, key)
	assert.Equal(t, ChunkSize-1, lx)
	assert.Equal(t, ChunkSize-1, ly)
}

func TestKeysInRect(t *testing.T) {
	keys := KeysInRect(Rect{MinX: -50, MinY: 0, MaxX: 150, MaxY: 100})
	assert.Equal(t, []ChunkKey{{X: -1, Y: 0}, {X: 0, Y: 0}, {X: 1, Y: 0}}, keys)
	assert.Empty(t, KeysInRect(Rect{}))
}

func TestRectOperations(t *testing.T) {
	a := RectXYWH(0, 0, 10, 10)
	b := RectXYWH(5, 5, 10, 10)

	assert.Equal(t, Rect{MinX: 0, MinY: 0, MaxX: 15, MaxY: 15}, a.Union(b))
	assert.Equal(t, Rect{MinX: 5, MinY: 5, MaxX: 10, MaxY: 10}, a.Intersect(b))
	assert.True(t, a.Intersects(b))
	assert.False(t, a.Intersects(RectXYWH(10, 0, 5, 5)), "правая граница не включается")
	assert.True(t, a.Contains(9, 9))
	assert.False(t, a.Contains(10, 9))
	assert.Equal(t, a, Rect{}.Union(a))
	assert.Equal(t, Rect{MinX: 3, MinY: 4, MaxX: 4, MaxY: 5}, Rect{}.Include(3, 4))
}

func TestChunkAccessBeforeGeneration(t *testing.T) {
	c := NewChunk(ChunkKey{X: 2, Y: -3})
	assert.Equal(t, NotGenerated, c.State())
	assert.Nil(t, c.Pixels())

	_, err := c.Pixel(1, 1)
	assert.True(t, errors.Is(err, ErrNotLoaded))

	c.SetState(Generating(1))
	err = c.SetPixel(1, 1, material.Air)
	assert.True(t, errors.Is(err, ErrNotLoaded))
	assert.Nil(t, c.Colors())
}

func TestChunkInvalidCoordinate(t *testing.T) {
	c := NewChunk(ChunkKey{})
	c.SetState(Cached)

	_, err := c.Pixel(-1, 0)
	assert.True(t, errors.Is(err, ErrInvalidCoordinate))
	err = c.SetPixel(0, ChunkSize, material.Air)
	assert.True(t, errors.Is(err, ErrInvalidCoordinate))
}

func TestChunkSetPixelKeepsColorsAndDirty(t *testing.T) {
	reg := material.DefaultRegistry()
	sand := instanceOf(t, reg, material.NameSand)

	c := NewChunk(ChunkKey{})
	c.SetState(Active)
	require.NoError(t, c.SetPixel(4, 7, sand))

	got, err := c.Pixel(4, 7)
	require.NoError(t, err)
	assert.Equal(t, sand, got)

	o := (7*ChunkSize + 4) * 4
	assert.Equal(t, []byte{sand.Color.R, sand.Color.G, sand.Color.B, sand.Color.A}, c.Colors()[o:o+4])
	assert.Equal(t, Rect{MinX: 4, MinY: 7, MaxX: 5, MaxY: 8}, c.Dirty())

	taken := c.TakeDirty()
	assert.False(t, taken.Empty())
	assert.True(t, c.Dirty().Empty())
}

func TestChunkDirtyStaysInsideChunk(t *testing.T) {
	c := NewChunk(ChunkKey{})
	c.MarkDirtyRect(Rect{MinX: -10, MinY: -10, MaxX: 5, MaxY: 500})
	assert.Equal(t, Rect{MinX: 0, MinY: 0, MaxX: 5, MaxY: ChunkSize}, c.Dirty())

	c.MarkDirty(-1, 3)
	assert.Equal(t, Rect{MinX: 0, MinY: 0, MaxX: 5, MaxY: ChunkSize}, c.Dirty())
}

func TestChunkMeshSquare(t *testing.T) {
	reg := material.DefaultRegistry()
	stone := instanceOf(t, reg, material.NameStone)

	c := NewChunk(ChunkKey{})
	c.SetState(Cached)
	assert.Empty(t, c.Mesh())

	for y := 10; y < 20; y++ {
		for x := 10; x < 20; x++ {
			require.NoError(t, c.SetPixel(x, y, stone))
		}
	}

	mesh := c.Mesh()
	require.Len(t, mesh, 1)
	assert.Len(t, mesh[0], 4)
	assert.Contains(t, mesh[0], vecF(10, 10))
	assert.Contains(t, mesh[0], vecF(20, 20))

	// Запись твёрдого пикселя инвалидирует меш
	require.NoError(t, c.SetPixel(50, 50, stone))
	assert.Len(t, c.Mesh(), 2)
}

func TestChunkMeshSimplifiesStaircase(t *testing.T) {
	reg := material.DefaultRegistry()
	stone := instanceOf(t, reg, material.NameStone)

	c := NewChunk(ChunkKey{})
	c.SetState(Cached)
	for y := 10; y < 30; y++ {
		for x := 10; x <= y; x++ {
			require.NoError(t, c.SetPixel(x, y, stone))
		}
	}

	// Ступенчатая диагональ укладывается в допуск и сворачивается в один отрезок
	mesh := c.Mesh()
	require.Len(t, mesh, 1)
	assert.Len(t, mesh[0], 3)
	assert.Contains(t, mesh[0], vecF(10, 10))
	assert.Contains(t, mesh[0], vecF(30, 30))
	assert.Contains(t, mesh[0], vecF(10, 30))
}

func TestChunkMeshIgnoresLooseMaterials(t *testing.T) {
	reg := material.DefaultRegistry()
	c := NewChunk(ChunkKey{})
	c.SetState(Cached)
	require.NoError(t, c.SetPixel(5, 5, instanceOf(t, reg, material.NameSand)))
	require.NoError(t, c.SetPixel(6, 5, instanceOf(t, reg, material.NameWater)))
	assert.Empty(t, c.Mesh())
}
