package world

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/annel0/pixelsim/internal/config"
	"github.com/annel0/pixelsim/internal/logging"
	"github.com/annel0/pixelsim/internal/world/material"
)

var errBoom = errors.New("boom")

// flatGenerator заполняет чанки функцией fill и опционально падает на заданных ключах
type flatGenerator struct {
	fill     func(key ChunkKey, pixels []material.Instance, reg *material.Registry)
	failures map[ChunkKey]int
	pops     []Populator
}

func (g *flatGenerator) MaxGenStage() uint8 { return uint8(len(g.pops)) }

func (g *flatGenerator) Populators() []Populator { return g.pops }

func (g *flatGenerator) Generate(key ChunkKey, _ int64, pixels, _ []material.Instance, reg *material.Registry) error {
	if g.failures[key] > 0 {
		g.failures[key]--
		return errBoom
	}
	if g.fill != nil {
		g.fill(key, pixels, reg)
	}
	return nil
}

func fillWith(name string) func(ChunkKey, []material.Instance, *material.Registry) {
	return func(_ ChunkKey, pixels []material.Instance, reg *material.Registry) {
		id, _ := reg.Lookup(name)
		inst := reg.Instance(id)
		for i := range pixels {
			pixels[i] = inst
		}
	}
}

// memoryPersister хранит снимки в карте
type memoryPersister struct {
	chunks map[ChunkKey]ChunkSnapshot
	saves  int
}

func newMemoryPersister() *memoryPersister {
	return &memoryPersister{chunks: make(map[ChunkKey]ChunkSnapshot)}
}

func (p *memoryPersister) SaveChunk(_ context.Context, snap ChunkSnapshot) error {
	p.saves++
	p.chunks[snap.Key] = ChunkSnapshot{
		Key:        snap.Key,
		Pixels:     append([]material.Instance(nil), snap.Pixels...),
		Background: append([]material.Instance(nil), snap.Background...),
	}
	return nil
}

func (p *memoryPersister) LoadChunk(_ context.Context, key ChunkKey) (ChunkSnapshot, bool, error) {
	snap, ok := p.chunks[key]
	return snap, ok, nil
}

func testWorldConfig() config.WorldConfig {
	cfg := config.Default().World
	cfg.Zones = config.ZoneConfig{
		ScreenWidth:  200,
		ScreenHeight: 200,
		ActiveMargin: 50,
		LoadMargin:   50,
		UnloadMargin: 200,
	}
	return cfg
}

func newTestManager(t *testing.T, gen Generator, opts ...Option) *Manager {
	t.Helper()
	opts = append([]Option{WithLogger(logging.NewWriterLogger("world", io.Discard, logging.ERROR))}, opts...)
	m, err := NewManager(testWorldConfig(), gen, material.DefaultRegistry(), opts...)
	require.NoError(t, err)
	return m
}

// tickUntilIdle тикает, пока очередь не опустеет
func tickUntilIdle(t *testing.T, m *Manager) {
	t.Helper()
	for i := 0; i < 200; i++ {
		require.NoError(t, m.Tick(context.Background()))
		if m.queue.Len() == 0 {
			return
		}
	}
	t.Fatalf("очередь загрузки не опустела: %d ключей", m.queue.Len())
}

func instanceOf(t *testing.T, reg *material.Registry, name string) material.Instance {
	t.Helper()
	id, ok := reg.Lookup(name)
	require.True(t, ok, name)
	return reg.Instance(id)
}
