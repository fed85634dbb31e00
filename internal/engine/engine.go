// Package engine связывает менеджер чанков, клеточный автомат и систему частиц
// в один тик симуляции.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/pixelsim/internal/logging"
	"github.com/annel0/pixelsim/internal/observability"
	"github.com/annel0/pixelsim/internal/particle"
	"github.com/annel0/pixelsim/internal/simulation"
	"github.com/annel0/pixelsim/internal/world"
)

// EntitySource возвращает хитбоксы внешних сущностей на текущий тик
type EntitySource func() []particle.Entity

// TickReport итог одного тика
type TickReport struct {
	Tick      uint64
	Duration  time.Duration
	Chunks    world.ManagerStats
	Step      simulation.StepStats
	Particles particle.TickStats
}

// Engine выполняет тики в фиксированном порядке:
// жизненный цикл чанков, клеточный автомат, частицы.
type Engine struct {
	manager   *world.Manager
	sim       *simulation.Simulator
	particles *particle.System

	entities EntitySource
	metrics  *observability.Metrics
	tracer   trace.Tracer
	logger   *logging.Logger
}

// Option настраивает Engine
type Option func(*Engine)

// WithEntities задаёт источник хитбоксов сущностей
func WithEntities(src EntitySource) Option {
	return func(e *Engine) { e.entities = src }
}

// WithMetrics включает экспорт метрик тика
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger заменяет логгер движка
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New создаёт движок поверх готовых подсистем
func New(manager *world.Manager, sim *simulation.Simulator, particles *particle.System, opts ...Option) *Engine {
	e := &Engine{
		manager:   manager,
		sim:       sim,
		particles: particles,
		tracer:    otel.Tracer("github.com/annel0/pixelsim/internal/engine"),
		logger:    logging.GetEngineLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Manager возвращает менеджер чанков
func (e *Engine) Manager() *world.Manager { return e.manager }

// Particles возвращает систему частиц
func (e *Engine) Particles() *particle.System { return e.particles }

// Tick выполняет один тик симуляции.
// Паника в любой подсистеме возвращается как *world.TickPanicError.
func (e *Engine) Tick(ctx context.Context) (rep TickReport, err error) {
	ctx, span := e.tracer.Start(ctx, "pixelsim.tick")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if e.metrics != nil {
				e.metrics.ObserveError()
			}
		}
	}()
	defer world.RecoverTickPanic("engine", "tick", &err)

	start := time.Now()

	if err = e.manager.Tick(ctx); err != nil {
		return rep, fmt.Errorf("жизненный цикл чанков: %w", err)
	}
	rep.Tick = e.manager.TickCount()

	rep.Step, err = e.sim.Step(ctx, e.manager.Store(), rep.Tick)
	if err != nil {
		return rep, fmt.Errorf("клеточный автомат, тик %d: %w", rep.Tick, err)
	}

	var entities []particle.Entity
	if e.entities != nil {
		entities = e.entities()
	}
	rep.Particles, err = e.particles.Tick(ctx, e.manager, entities)
	if err != nil {
		return rep, fmt.Errorf("частицы, тик %d: %w", rep.Tick, err)
	}

	rep.Chunks = e.manager.Stats()
	rep.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int64("pixelsim.tick", int64(rep.Tick)),
		attribute.Int("pixelsim.chunks.active", rep.Chunks.Active),
		attribute.Int("pixelsim.pixels.moved", rep.Step.Moved),
		attribute.Int("pixelsim.particles.active", rep.Particles.Active),
	)
	if e.metrics != nil {
		e.metrics.Observe(sample(rep))
	}
	return rep, nil
}

func sample(rep TickReport) observability.TickSample {
	return observability.TickSample{
		Duration:           rep.Duration,
		NotGenerated:       rep.Chunks.NotGenerated,
		Generating:         rep.Chunks.Generating,
		Cached:             rep.Chunks.Cached,
		Active:             rep.Chunks.Active,
		Queued:             rep.Chunks.Queued,
		Generated:          rep.Chunks.Generated,
		Restored:           rep.Chunks.Restored,
		Unloaded:           rep.Chunks.Unloaded,
		GenerationFailures: rep.Chunks.GenerationFailures,
		PersistFailures:    rep.Chunks.PersistFailures,
		SimulatedChunks:    rep.Step.Chunks,
		PixelsMoved:        rep.Step.Moved,
		ParticlesActive:    rep.Particles.Active,
		ParticlesSleeping:  rep.Particles.Sleeping,
		ParticlesPlaced:    rep.Particles.Placed,
	}
}

// Run запускает цикл тиков с частотой tps до отмены ctx,
// исчерпания maxTicks (0 без ограничения) или первой ошибки тика.
func (e *Engine) Run(ctx context.Context, tps int, maxTicks uint64) error {
	if tps <= 0 {
		return fmt.Errorf("tps должен быть > 0, получено %d", tps)
	}
	ticker := time.NewTicker(time.Second / time.Duration(tps))
	defer ticker.Stop()

	var done uint64
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rep, err := e.Tick(ctx)
			if err != nil {
				var panicErr *world.TickPanicError
				if errors.As(err, &panicErr) {
					e.logger.Error("Паника в %s (%s): %v\n%s", panicErr.Component, panicErr.Where, panicErr.Value, panicErr.Stack)
				}
				return err
			}
			if rep.Tick%uint64(tps*10) == 0 {
				e.logger.Info("Тик %d: активных чанков %d, в очереди %d, частиц %d (спят %d), тик занял %v",
					rep.Tick, rep.Chunks.Active, rep.Chunks.Queued, rep.Particles.Active, rep.Particles.Sleeping, rep.Duration)
			}

			done++
			if maxTicks > 0 && done >= maxTicks {
				return nil
			}
		}
	}
}
