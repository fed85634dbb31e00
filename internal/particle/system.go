package particle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/annel0/pixelsim/internal/config"
	"github.com/annel0/pixelsim/internal/logging"
	"github.com/annel0/pixelsim/internal/physics"
	"github.com/annel0/pixelsim/internal/util"
	"github.com/annel0/pixelsim/internal/vec"
	"github.com/annel0/pixelsim/internal/world"
	"github.com/annel0/pixelsim/internal/world/material"
)

// Параметры взаимодействия с сущностями
const (
	entityBlend  = 0.5 // Доля разницы скоростей, передаваемая частице
	entityRepel  = 0.5 // Скорость отталкивания от центра сущности
	entityJitter = 0.2 // Амплитуда случайного разброса
)

// TickStats итоги тика системы частиц
type TickStats struct {
	Active    int
	Sleeping  int
	Placed    int
	Displaced int
	Bounced   int
	Woken     int
	Slept     int
	// Причина первого отскока за тик, оборачивает world.ErrDisplaceFailed
	BounceErr error
}

// System хранит активные и спящие частицы и продвигает их каждый тик
type System struct {
	cfg      config.ParticleConfig
	seed     int64
	tick     uint64
	active   []Particle
	sleeping []Particle
	logger   *logging.Logger
}

// NewSystem создаёт систему частиц
func NewSystem(cfg config.ParticleConfig, seed int64) (*System, error) {
	if cfg.MaxSpeed <= 0 || cfg.MaxSpeed > MaxSafeSpeed {
		return nil, fmt.Errorf("max speed %.1f вне диапазона (0, %d]", cfg.MaxSpeed, MaxSafeSpeed)
	}
	if cfg.SleepInterval == 0 {
		return nil, errors.New("sleep interval must be positive")
	}
	if cfg.SleepOffset%cfg.SleepInterval == cfg.WakeOffset%cfg.SleepInterval {
		return nil, errors.New("sleep and wake offsets must differ")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &System{cfg: cfg, seed: seed, logger: logging.GetParticleLogger()}, nil
}

// Spawn добавляет частицу в активный список
func (s *System) Spawn(p Particle) {
	s.active = append(s.active, p)
}

// Lift превращает пиксель сетки в частицу с заданной скоростью.
// Пиксель в сетке становится воздухом.
func (s *System) Lift(grid Grid, x, y int, vel vec.Vec2Float) (bool, error) {
	var taken material.Instance
	ok, err := grid.ReplacePixel(x, y, func(cur material.Instance) (material.Instance, bool) {
		taken = cur
		return material.Air, !cur.IsAir()
	})
	if err != nil || !ok {
		return false, err
	}
	pos := vec.Vec2Float{X: float64(x) + 0.5, Y: float64(y) + 0.5}
	s.Spawn(New(taken, pos, vel))
	return true, nil
}

// Active возвращает копию активного списка
func (s *System) Active() []Particle { return slices.Clone(s.active) }

// Sleeping возвращает копию списка спящих
func (s *System) Sleeping() []Particle { return slices.Clone(s.sleeping) }

// Len возвращает общее число частиц
func (s *System) Len() int { return len(s.active) + len(s.sleeping) }

// TickCount возвращает номер последнего тика
func (s *System) TickCount() uint64 { return s.tick }

// Tick выполняет один шаг: сон/пробуждение, движение по фазам корзин, реакцию на сущности
func (s *System) Tick(ctx context.Context, grid Grid, entities []Entity) (TickStats, error) {
	s.tick++
	var stats TickStats

	phase := s.tick % s.cfg.SleepInterval
	if phase == s.cfg.SleepOffset%s.cfg.SleepInterval {
		stats.Slept = s.sleep(grid)
	}
	if phase == s.cfg.WakeOffset%s.cfg.SleepInterval {
		stats.Woken = s.wake(grid)
	}

	var phases [4]map[BucketKey][]int
	for i := range s.active {
		p := &s.active[i]
		p.bucket = BucketOf(p.Chunk())
		p.phase = p.bucket.Phase()
		if phases[p.phase] == nil {
			phases[p.phase] = make(map[BucketKey][]int)
		}
		phases[p.phase][p.bucket] = append(phases[p.phase][p.bucket], i)
	}

	results := make([]result, len(s.active))
	for ph := range phases {
		if err := s.runPhase(ctx, ph, phases[ph], grid, entities, results); err != nil {
			return stats, err
		}
	}

	// Сборка в исходном порядке, размещённые частицы покидают список
	kept := s.active[:0]
	for i, p := range s.active {
		switch results[i].outcome {
		case placed:
			stats.Placed++
		case displaced:
			stats.Placed++
			stats.Displaced++
		default:
			if r := results[i]; r.outcome == bounced {
				stats.Bounced++
				if stats.BounceErr == nil {
					stats.BounceErr = fmt.Errorf("частица %s у клетки (%d,%d): %w",
						p.Material.Physics, r.blocked.X, r.blocked.Y, world.ErrDisplaceFailed)
				}
			}
			kept = append(kept, p)
		}
	}
	clear(s.active[len(kept):])
	s.active = kept

	stats.Active = len(s.active)
	stats.Sleeping = len(s.sleeping)
	if stats.Bounced > 0 {
		s.logger.Debug("Тик %d: отскочило частиц %d, первая: %v", s.tick, stats.Bounced, stats.BounceErr)
	}
	if stats.Slept > 0 || stats.Woken > 0 {
		s.logger.Trace("Тик %d: уснуло %d, проснулось %d, спит %d", s.tick, stats.Slept, stats.Woken, stats.Sleeping)
	}
	return stats, nil
}

func (s *System) runPhase(ctx context.Context, ph int, buckets map[BucketKey][]int, grid Grid, entities []Entity, results []result) error {
	if len(buckets) == 0 {
		return nil
	}
	keys := make([]BucketKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareBuckets)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for _, bk := range keys {
		indices := buckets[bk]
		g.Go(func() (err error) {
			defer world.RecoverTickPanic("particle", fmt.Sprintf("корзина (%d,%d)", bk.X, bk.Y), &err)
			if err := gctx.Err(); err != nil {
				return err
			}
			salt := s.tick<<2 | uint64(ph)
			rng := util.NewRand(s.seed, salt, int32(bk.X), int32(bk.Y))
			for _, i := range indices {
				results[i] = s.advance(&s.active[i], grid, entities, rng)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *System) sleep(grid Grid) int {
	kept := s.active[:0]
	moved := 0
	for _, p := range s.active {
		if grid.IsActive(p.Chunk()) {
			kept = append(kept, p)
			continue
		}
		s.sleeping = append(s.sleeping, p)
		moved++
	}
	clear(s.active[len(kept):])
	s.active = kept
	return moved
}

func (s *System) wake(grid Grid) int {
	kept := s.sleeping[:0]
	moved := 0
	for _, p := range s.sleeping {
		if !grid.IsActive(p.Chunk()) {
			kept = append(kept, p)
			continue
		}
		s.active = append(s.active, p)
		moved++
	}
	clear(s.sleeping[len(kept):])
	s.sleeping = kept
	return moved
}

type outcome uint8

// result исход движения частицы. blocked клетка последнего отскока.
type result struct {
	outcome outcome
	blocked vec.Vec2
}

const (
	moving outcome = iota
	bounced
	placed
	displaced
)

// advance двигает частицу подшагами и обрабатывает столкновение с сеткой
func (s *System) advance(p *Particle, grid Grid, entities []Entity, rng *rand.Rand) result {
	res := result{outcome: moving}

	p.Vel.Y += s.cfg.Gravity
	p.Vel = p.Vel.ClampLength(s.cfg.MaxSpeed)

	steps := substeps(p.Vel)
	step := p.Vel.Mul(1 / float64(steps))

	lastAir := p.Cell()
	haveAir := sample(grid, lastAir).IsAir()

	for i := 0; i < steps; i++ {
		next := p.Pos.Add(step)
		cell := next.Floor()
		px := sample(grid, cell)

		switch {
		case px.IsAir():
			p.State = Outside
			p.Pos = next
			lastAir, haveAir = cell, true
			continue
		case s.passable(p, px):
			p.State = Inside
			p.Pos = next
			continue
		}

		// Подшаг может перескочить клетки, уточняем точку удара
		blocked, air, ok := s.refine(grid, p, step, lastAir, haveAir)
		if ok && s.place(grid, air, p.Material) {
			return result{outcome: placed}
		}
		if grid.DisplacePixel(blocked.X, blocked.Y, p.Material) {
			return result{outcome: displaced}
		}
		p.Vel.Y = -1
		p.Pos.Y -= BounceLift
		step = p.Vel.Mul(1 / float64(steps))
		haveAir = false
		res = result{outcome: bounced, blocked: blocked}
	}

	s.nudge(p, entities, rng)
	return res
}

// sample читает пиксель, незагруженная область считается воздухом
func sample(grid Grid, c vec.Vec2) material.Instance {
	px, err := grid.Pixel(c.X, c.Y)
	if err != nil {
		return material.Air
	}
	return px
}

// passable Object пиксели проницаемы для частиц, созданных внутри объекта
func (s *System) passable(p *Particle, px material.Instance) bool {
	return px.Physics == material.PhysicsObject && (p.State == FirstFrame || p.State == Inside)
}

// refine проходит подшаг с шагом в полпикселя и возвращает первую блокирующую клетку
// и последнюю клетку воздуха перед ней
func (s *System) refine(grid Grid, p *Particle, step vec.Vec2Float, lastAir vec.Vec2, haveAir bool) (vec.Vec2, vec.Vec2, bool) {
	n := max(int(math.Ceil(step.Length()/0.5)), 1)
	for k := 1; k <= n; k++ {
		c := p.Pos.Add(step.Mul(float64(k) / float64(n))).Floor()
		px := sample(grid, c)
		if px.IsAir() {
			lastAir, haveAir = c, true
			continue
		}
		if s.passable(p, px) {
			continue
		}
		return c, lastAir, haveAir
	}
	return p.Pos.Add(step).Floor(), lastAir, haveAir
}

func (s *System) place(grid Grid, at vec.Vec2, m material.Instance) bool {
	ok, err := grid.ReplacePixel(at.X, at.Y, func(cur material.Instance) (material.Instance, bool) {
		return m, cur.IsAir()
	})
	return err == nil && ok
}

// substeps число подшагов: ceil(sqrt(|dx|+|dy|)), минимум один
func substeps(vel vec.Vec2Float) int {
	n := int(math.Ceil(math.Sqrt(math.Abs(vel.X) + math.Abs(vel.Y))))
	return min(max(n, 1), maxSubsteps)
}

// nudge мягко расталкивает частицы, попавшие в хитбокс сущности
func (s *System) nudge(p *Particle, entities []Entity, rng *rand.Rand) {
	box := physics.NewHitbox(p.Pos, 1, 1)
	for _, e := range entities {
		if !physics.CheckBoxCollision(e.Hitbox, box) {
			continue
		}
		away := p.Pos.Sub(e.Hitbox.Center).Normalized()
		jitter := vec.Vec2Float{X: rng.Float64() - 0.5, Y: rng.Float64() - 0.5}.Mul(entityJitter)
		p.Vel = p.Vel.
			Add(e.Vel.Sub(p.Vel).Mul(entityBlend)).
			Add(away.Mul(entityRepel)).
			Add(jitter)
	}
	p.Vel = p.Vel.ClampLength(s.cfg.MaxSpeed)
}
