package simulation

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/pixelsim/internal/config"
	"github.com/annel0/pixelsim/internal/world"
	"github.com/annel0/pixelsim/internal/world/material"
)

var reg = material.DefaultRegistry()

func inst(name string) material.Instance {
	id, _ := reg.Lookup(name)
	return reg.Instance(id)
}

func addChunk(store *world.ChunkStore, key world.ChunkKey, state world.ChunkState) *world.Chunk {
	c := world.NewChunk(key)
	c.SetState(state)
	store.Insert(c)
	return c
}

func put(t *testing.T, c *world.Chunk, x, y int, name string) {
	t.Helper()
	require.NoError(t, c.SetPixel(x, y, inst(name)))
}

func at(t *testing.T, c *world.Chunk, x, y int) material.Instance {
	t.Helper()
	p, err := c.Pixel(x, y)
	require.NoError(t, err)
	return p
}

func noJitter() config.SimulationConfig {
	return config.SimulationConfig{Workers: 2, Jitter: 0}
}

func step(t *testing.T, s *Simulator, store *world.ChunkStore, tick uint64) StepStats {
	t.Helper()
	stats, err := s.Step(context.Background(), store, tick)
	require.NoError(t, err)
	return stats
}

func TestSandFallsOneCell(t *testing.T) {
	store := world.NewChunkStore()
	c := addChunk(store, world.ChunkKey{}, world.Active)
	put(t, c, 5, 5, material.NameSand)
	c.TakeDirty()
	c.MarkDirtyRect(world.RectXYWH(0, 0, 10, 10))

	stats := step(t, New(noJitter(), 1), store, 1)

	assert.True(t, at(t, c, 5, 5).IsAir())
	assert.Equal(t, inst(material.NameSand), at(t, c, 5, 6))
	assert.Equal(t, 1, stats.Moved)
	assert.Equal(t, world.Rect{MinX: 4, MinY: 4, MaxX: 7, MaxY: 7}, c.Dirty())
}

func TestSandJitterStaysInRowBelow(t *testing.T) {
	cfg := config.Default().Simulation
	for seed := int64(1); seed <= 30; seed++ {
		store := world.NewChunkStore()
		c := addChunk(store, world.ChunkKey{}, world.Active)
		put(t, c, 5, 5, material.NameSand)

		step(t, New(cfg, seed), store, 1)

		assert.True(t, at(t, c, 5, 5).IsAir())
		landed := 0
		for x := 4; x <= 6; x++ {
			if at(t, c, x, 6).Physics == material.PhysicsSand {
				landed++
			}
		}
		assert.Equal(t, 1, landed, "сид %d", seed)
	}
}

func TestBlockedSandDoesNotMove(t *testing.T) {
	store := world.NewChunkStore()
	c := addChunk(store, world.ChunkKey{}, world.Active)
	put(t, c, 5, 5, material.NameSand)
	for x := 4; x <= 6; x++ {
		put(t, c, x, 6, material.NameStone)
	}

	stats := step(t, New(config.Default().Simulation, 7), store, 1)

	assert.Zero(t, stats.Moved)
	assert.Equal(t, inst(material.NameSand), at(t, c, 5, 5))
	assert.True(t, c.Dirty().Empty())
}

func TestSandSlidesToFreeDiagonal(t *testing.T) {
	store := world.NewChunkStore()
	c := addChunk(store, world.ChunkKey{}, world.Active)
	put(t, c, 5, 5, material.NameSand)
	put(t, c, 5, 6, material.NameStone)
	put(t, c, 4, 6, material.NameStone)

	step(t, New(noJitter(), 1), store, 1)
	assert.Equal(t, inst(material.NameSand), at(t, c, 6, 6))
}

func TestMissingNeighborBlocks(t *testing.T) {
	store := world.NewChunkStore()
	c := addChunk(store, world.ChunkKey{}, world.Active)
	put(t, c, 5, world.ChunkSize-1, material.NameSand)

	stats := step(t, New(noJitter(), 1), store, 1)
	assert.Zero(t, stats.Moved)
	assert.Equal(t, inst(material.NameSand), at(t, c, 5, world.ChunkSize-1))
}

func TestGeneratingNeighborBlocks(t *testing.T) {
	store := world.NewChunkStore()
	c := addChunk(store, world.ChunkKey{}, world.Active)
	addChunk(store, world.ChunkKey{Y: 1}, world.Generating(1))
	put(t, c, 5, world.ChunkSize-1, material.NameSand)

	stats := step(t, New(noJitter(), 1), store, 1)
	assert.Zero(t, stats.Moved)
}

func TestSandCrossesIntoCachedNeighbor(t *testing.T) {
	store := world.NewChunkStore()
	c := addChunk(store, world.ChunkKey{}, world.Active)
	below := addChunk(store, world.ChunkKey{Y: 1}, world.Cached)
	put(t, c, 5, world.ChunkSize-1, material.NameSand)

	step(t, New(noJitter(), 1), store, 1)

	assert.True(t, at(t, c, 5, world.ChunkSize-1).IsAir())
	assert.Equal(t, inst(material.NameSand), at(t, below, 5, 0))
	// Неактивный чанк не симулируется, но помнит грязную область
	assert.True(t, below.Dirty().Contains(5, 0))
}

func TestSandCrossesIntoActiveNeighbor(t *testing.T) {
	store := world.NewChunkStore()
	c := addChunk(store, world.ChunkKey{}, world.Active)
	below := addChunk(store, world.ChunkKey{Y: 1}, world.Active)
	put(t, c, 5, world.ChunkSize-1, material.NameSand)
	below.TakeDirty()

	step(t, New(noJitter(), 1), store, 1)

	// Песок, перенесённый в соседа, в этом проходе больше не двигается
	assert.True(t, at(t, c, 5, world.ChunkSize-1).IsAir())
	assert.Equal(t, inst(material.NameSand), at(t, below, 5, 0))
	assert.True(t, at(t, below, 5, 1).IsAir())

	step(t, New(noJitter(), 1), store, 2)
	assert.Equal(t, inst(material.NameSand), at(t, below, 5, 1))
}

func TestCrossChunkMoveOneCellPerTick(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		cfg := noJitter()
		cfg.Parallel = parallel
		s := New(cfg, 7)

		store := world.NewChunkStore()
		top := addChunk(store, world.ChunkKey{}, world.Active)
		below := addChunk(store, world.ChunkKey{Y: 1}, world.Active)
		above := addChunk(store, world.ChunkKey{Y: -1}, world.Active)
		put(t, top, 5, world.ChunkSize-1, material.NameSand)
		put(t, top, 20, 0, material.NameSteam)

		for tick := uint64(1); tick <= 3; tick++ {
			step(t, s, store, tick)
			assert.Equal(t, inst(material.NameSand), at(t, below, 5, int(tick)-1), "parallel=%v тик %d", parallel, tick)
			assert.Equal(t, inst(material.NameSteam), at(t, above, 20, world.ChunkSize-int(tick)), "parallel=%v тик %d", parallel, tick)
		}
	}
}

func TestGasRises(t *testing.T) {
	store := world.NewChunkStore()
	c := addChunk(store, world.ChunkKey{}, world.Active)
	put(t, c, 5, 50, material.NameSteam)

	step(t, New(noJitter(), 1), store, 1)
	assert.True(t, at(t, c, 5, 50).IsAir())
	assert.Equal(t, inst(material.NameSteam), at(t, c, 5, 49))
}

func TestLiquidSpreadsWhenBlockedBelow(t *testing.T) {
	store := world.NewChunkStore()
	c := addChunk(store, world.ChunkKey{}, world.Active)
	for x := 0; x < world.ChunkSize; x++ {
		put(t, c, x, 60, material.NameStone)
	}
	put(t, c, 5, 59, material.NameWater)

	step(t, New(noJitter(), 3), store, 1)

	assert.True(t, at(t, c, 5, 59).IsAir())
	left := at(t, c, 4, 59).Physics == material.PhysicsLiquid
	right := at(t, c, 6, 59).Physics == material.PhysicsLiquid
	assert.True(t, left != right)
}

func TestDirtyShrinksToEmpty(t *testing.T) {
	store := world.NewChunkStore()
	c := addChunk(store, world.ChunkKey{}, world.Active)
	for x := 0; x < world.ChunkSize; x++ {
		put(t, c, x, world.ChunkSize-1, material.NameStone)
		for y := 10; y < 20; y++ {
			put(t, c, x, y, material.NameSand)
		}
	}

	s := New(config.Default().Simulation, 11)
	settled := false
	for tick := uint64(1); tick < 500; tick++ {
		if step(t, s, store, tick).Moved == 0 {
			settled = true
			break
		}
	}
	require.True(t, settled)
	assert.True(t, c.Dirty().Empty())

	sand := 0
	for _, p := range c.Pixels() {
		if p.Physics == material.PhysicsSand {
			sand++
		}
	}
	assert.Equal(t, 10*world.ChunkSize, sand, "песок не теряется и не размножается")
}

// randomWorld строит 3x3 активных чанка со случайной смесью материалов
func randomWorld(seed uint64) *world.ChunkStore {
	store := world.NewChunkStore()
	rng := rand.New(rand.NewPCG(seed, seed))
	names := []string{material.NameSand, material.NameWater, material.NameSteam, material.NameStone}
	for cy := int32(-1); cy <= 1; cy++ {
		for cx := int32(-1); cx <= 1; cx++ {
			c := addChunk(store, world.ChunkKey{X: cx, Y: cy}, world.Active)
			for i := 0; i < 1500; i++ {
				_ = c.SetPixel(rng.IntN(world.ChunkSize), rng.IntN(world.ChunkSize), inst(names[rng.IntN(len(names))]))
			}
			c.MarkAllDirty()
		}
	}
	return store
}

func snapshot(store *world.ChunkStore) map[world.ChunkKey][]material.Instance {
	out := make(map[world.ChunkKey][]material.Instance)
	for _, key := range store.Keys() {
		c, _ := store.Get(key)
		out[key] = append([]material.Instance(nil), c.Pixels()...)
	}
	return out
}

func TestDeterminism(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		cfg := config.Default().Simulation
		cfg.Parallel = parallel
		cfg.Workers = 4

		a, b := randomWorld(5), randomWorld(5)
		sa, sb := New(cfg, 42), New(cfg, 42)
		for tick := uint64(1); tick <= 25; tick++ {
			step(t, sa, a, tick)
			step(t, sb, b, tick)
		}
		assert.Equal(t, snapshot(a), snapshot(b), "parallel=%v", parallel)
	}
}

func TestPhasesSeparateNeighborhoods(t *testing.T) {
	var keys []world.ChunkKey
	for y := int32(-5); y <= 5; y++ {
		for x := int32(-5); x <= 5; x++ {
			keys = append(keys, world.ChunkKey{X: x, Y: y})
		}
	}
	for _, a := range keys {
		for _, b := range keys {
			if a == b || phaseOf(a) != phaseOf(b) {
				continue
			}
			dx, dy := a.X-b.X, a.Y-b.Y
			assert.True(t, dx >= 3 || dx <= -3 || dy >= 3 || dy <= -3, "%s и %s", a, b)
		}
	}
}

func TestParallelMovesAcrossChunks(t *testing.T) {
	cfg := noJitter()
	cfg.Parallel = true
	store := world.NewChunkStore()
	c := addChunk(store, world.ChunkKey{}, world.Active)
	below := addChunk(store, world.ChunkKey{Y: 1}, world.Cached)
	put(t, c, 0, world.ChunkSize-1, material.NameSand)

	step(t, New(cfg, 1), store, 1)
	assert.Equal(t, inst(material.NameSand), at(t, below, 0, 0))
}

func BenchmarkStep(b *testing.B) {
	cfg := config.Default().Simulation
	for _, parallel := range []bool{false, true} {
		cfg.Parallel = parallel
		name := "sequential"
		if parallel {
			name = "parallel"
		}
		b.Run(name, func(b *testing.B) {
			store := randomWorld(1)
			s := New(cfg, 1)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _ = s.Step(context.Background(), store, uint64(i))
				for _, key := range store.Keys() {
					c, _ := store.Get(key)
					c.MarkAllDirty()
				}
			}
		})
	}
}
