package particle

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/pixelsim/internal/config"
	"github.com/annel0/pixelsim/internal/logging"
	"github.com/annel0/pixelsim/internal/vec"
	"github.com/annel0/pixelsim/internal/world"
	"github.com/annel0/pixelsim/internal/world/material"
)

// Пол мира: камень с y = floorY
const floorY = 2 * world.ChunkSize

type floorGenerator struct{}

func (floorGenerator) MaxGenStage() uint8 { return 0 }

func (floorGenerator) Populators() []world.Populator { return nil }

func (floorGenerator) Generate(key world.ChunkKey, _ int64, pixels, _ []material.Instance, _ *material.Registry) error {
	fill := material.Air
	if int(key.Y)*world.ChunkSize >= floorY {
		fill = inst(material.NameStone)
	}
	for i := range pixels {
		pixels[i] = fill
	}
	return nil
}

// newFloorManager загружает и активирует чанки x -1..12, y -1..2
func newFloorManager(t *testing.T) *world.Manager {
	t.Helper()
	cfg := config.Default().World
	cfg.Zones = config.ZoneConfig{
		ScreenWidth:  1400,
		ScreenHeight: 400,
		ActiveMargin: 0,
		LoadMargin:   100,
		UnloadMargin: 200,
	}
	quiet := logging.NewWriterLogger("test", io.Discard, logging.ERROR)
	m, err := world.NewManager(cfg, floorGenerator{}, reg, world.WithLogger(quiet))
	require.NoError(t, err)
	m.AddLoader(vec.Vec2{X: 600, Y: 100}, 1)

	ready := func() bool {
		for cy := int32(-1); cy <= 2; cy++ {
			for cx := int32(-1); cx <= 12; cx++ {
				if !m.IsActive(world.ChunkKey{X: cx, Y: cy}) {
					return false
				}
			}
		}
		return true
	}
	for i := 0; i < 50 && !ready(); i++ {
		require.NoError(t, m.Tick(context.Background()))
	}
	require.True(t, ready())
	return m
}

// sandCells собирает координаты песка над полом
func sandCells(t *testing.T, m *world.Manager) map[vec.Vec2]struct{} {
	t.Helper()
	cells := make(map[vec.Vec2]struct{})
	for y := -world.ChunkSize; y < floorY; y++ {
		for x := -world.ChunkSize; x < 13*world.ChunkSize; x++ {
			px, err := m.Pixel(x, y)
			require.NoError(t, err)
			if px.Physics == material.PhysicsSand {
				cells[vec.Vec2{X: x, Y: y}] = struct{}{}
			}
		}
	}
	return cells
}

// Корзины (0,0) и (2,0) одной фазы: частицы у их обращённых друг к другу краёв
// падают в чанки промежуточной корзины. Запускать с -race.
func TestSameParityBucketsWriteRealChunks(t *testing.T) {
	edge := BucketChunks * world.ChunkSize

	run := func(workers int) (map[vec.Vec2]struct{}, int) {
		m := newFloorManager(t)
		cfg := config.Default().Particles
		cfg.Workers = workers
		s, err := NewSystem(cfg, 1337)
		require.NoError(t, err)

		sand := inst(material.NameSand)
		for i := 0; i < 120; i++ {
			y := float64(floorY - 50 + i%45)
			off := float64(i % 7)
			left := New(sand, vec.Vec2Float{X: float64(edge) - 0.5 - off, Y: y}, vec.Vec2Float{X: 8, Y: 20})
			right := New(sand, vec.Vec2Float{X: float64(2*edge) + 0.5 + off, Y: y}, vec.Vec2Float{X: -8, Y: 20})
			require.Equal(t, BucketKey{X: 0, Y: 0}, BucketOf(left.Chunk()))
			require.Equal(t, BucketKey{X: 2, Y: 0}, BucketOf(right.Chunk()))
			s.Spawn(left)
			s.Spawn(right)
		}
		require.Equal(t, 240, s.Len())

		placed := 0
		for i := 0; i < 200 && s.Len() > 0; i++ {
			stats, err := s.Tick(context.Background(), m, nil)
			require.NoError(t, err)
			placed += stats.Placed
		}

		cells := sandCells(t, m)
		// Каждая частица либо легла в сетку, либо ещё летит
		assert.Equal(t, 240, len(cells)+s.Len())
		return cells, placed
	}

	parallel, placed := run(8)
	assert.Positive(t, placed)
	for c := range parallel {
		assert.True(t, c.X >= edge-world.ChunkSize && c.X < 2*edge+world.ChunkSize, "песок вне соседних корзин: %v", c)
	}

	sequential, _ := run(1)
	assert.Equal(t, sequential, parallel)
}
