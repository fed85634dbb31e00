// Package simulation обновляет пиксели активных чанков по правилам клеточного автомата.
package simulation

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/annel0/pixelsim/internal/config"
	"github.com/annel0/pixelsim/internal/logging"
	"github.com/annel0/pixelsim/internal/util"
	"github.com/annel0/pixelsim/internal/vec"
	"github.com/annel0/pixelsim/internal/world"
)

// StepStats результат одного прохода
type StepStats struct {
	Chunks int // Обработано чанков с непустой грязной областью
	Moved  int // Перемещено пикселей
}

// Simulator клеточный автомат поверх ChunkStore
type Simulator struct {
	cfg    config.SimulationConfig
	seed   int64
	logger *logging.Logger
}

// New создаёт симулятор
func New(cfg config.SimulationConfig, seed int64) *Simulator {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Simulator{
		cfg:    cfg,
		seed:   seed,
		logger: logging.GetSimulationLogger(),
	}
}

// Step выполняет один проход по всем активным чанкам с грязной областью.
// tick входит в сид генераторов случайности, поэтому одинаковая последовательность
// тиков даёт одинаковый результат.
func (s *Simulator) Step(ctx context.Context, store *world.ChunkStore, tick uint64) (StepStats, error) {
	var (
		stats StepStats
		err   error
	)
	if s.cfg.Parallel {
		stats, err = s.stepParallel(ctx, store, tick)
	} else {
		stats, err = s.stepSequential(ctx, store, tick)
	}
	if err == nil && stats.Chunks > 0 {
		s.logger.Debug("Тик %d: обновлено чанков %d, перемещено пикселей %d", tick, stats.Chunks, stats.Moved)
	}
	return stats, err
}

func needsUpdate(c *world.Chunk) bool {
	return c != nil && c.State().Kind == world.StateActive && !c.Dirty().Empty()
}

func (s *Simulator) stepSequential(ctx context.Context, store *world.ChunkStore, tick uint64) (StepStats, error) {
	var stats StepStats
	for _, key := range store.SortedKeys() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		store.WithChunkAndNeighbors(key, func(center *world.Chunk, n *world.Neighbors) {
			if !needsUpdate(center) {
				return
			}
			stats.Chunks++
			stats.Moved += s.updateChunk(world.Region{Center: center, N: n}, tick)
		})
	}
	return stats, nil
}

// phaseOf класс координат чанка по модулю 3. Чанки одного класса отстоят друг от
// друга минимум на 3, поэтому их окрестности 3x3 не пересекаются.
func phaseOf(key world.ChunkKey) int {
	return vec.EuclidRem(int(key.Y), 3)*3 + vec.EuclidRem(int(key.X), 3)
}

func (s *Simulator) stepParallel(ctx context.Context, store *world.ChunkStore, tick uint64) (StepStats, error) {
	var phases [9][]world.ChunkKey
	for _, key := range store.SortedKeys() {
		if c, _ := store.Get(key); needsUpdate(c) {
			p := phaseOf(key)
			phases[p] = append(phases[p], key)
		}
	}

	var stats StepStats
	for _, keys := range phases {
		if len(keys) == 0 {
			continue
		}
		moved := make([]int, len(keys))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.cfg.Workers)
		for i, key := range keys {
			center, n, ok := store.Neighborhood(key)
			if !ok {
				continue
			}
			g.Go(func() (err error) {
				defer world.RecoverTickPanic("simulation", "чанк "+key.String(), &err)
				if err := gctx.Err(); err != nil {
					return err
				}
				moved[i] = s.updateChunk(world.Region{Center: center, N: &n}, tick)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return stats, err
		}

		stats.Chunks += len(keys)
		for _, m := range moved {
			stats.Moved += m
		}
	}
	return stats, nil
}

// updateChunk обрабатывает рабочую грязную область чанка снизу вверх.
// Область забирается целиком, новая складывается из затронутых за проход пикселей.
func (s *Simulator) updateChunk(r world.Region, tick uint64) int {
	rect := r.Center.TakeDirty()
	settled := r.Center.TakeSettled(tick)
	if rect.Empty() {
		return 0
	}

	u := updater{
		r:      r,
		rng:    util.NewRand(s.seed, tick, r.Center.Key.X, r.Center.Key.Y),
		jitter: s.cfg.Jitter,
		tick:   tick,
	}
	for _, i := range settled {
		u.visited[i] = true
	}
	for y := rect.MaxY - 1; y >= rect.MinY; y-- {
		// Направление обхода строки чередуется, чтобы не было перекоса в одну сторону
		if (y+int(tick))%2 == 0 {
			for x := rect.MinX; x < rect.MaxX; x++ {
				u.update(x, y)
			}
		} else {
			for x := rect.MaxX - 1; x >= rect.MinX; x-- {
				u.update(x, y)
			}
		}
	}
	return u.moved
}
