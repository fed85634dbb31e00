package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/annel0/pixelsim/internal/config"
	"github.com/annel0/pixelsim/internal/engine"
	"github.com/annel0/pixelsim/internal/logging"
	"github.com/annel0/pixelsim/internal/observability"
	"github.com/annel0/pixelsim/internal/particle"
	"github.com/annel0/pixelsim/internal/simulation"
	"github.com/annel0/pixelsim/internal/storage"
	"github.com/annel0/pixelsim/internal/vec"
	"github.com/annel0/pixelsim/internal/world"
	"github.com/annel0/pixelsim/internal/world/material"
	"github.com/annel0/pixelsim/internal/worldgen"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию $PIXELSIM_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Logging.Dir != "" {
		logging.SetLogDir(cfg.Logging.Dir)
	}
	if err := logging.InitDefaultLogger("pixelsim"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.SetDefaultLevel(logging.ParseLevel(cfg.Logging.Level))
	if err := logging.GetLoggerManager().ApplyLevels(cfg.Logging.Level, cfg.Logging.Components); err != nil {
		log.Fatalf("❌ Ошибка настройки логирования: %v", err)
	}
	defer logging.GetLoggerManager().CloseAll()

	if err := run(cfg); err != nil {
		var panicErr *world.TickPanicError
		if errors.As(err, &panicErr) {
			logging.Error("💥 Тик аварийно завершён в %s (%s): %v", panicErr.Component, panicErr.Where, panicErr.Value)
		} else {
			logging.Error("❌ %v", err)
		}
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
	logging.Info("👋 Симуляция остановлена")
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info("🎮 Запуск pixelsim: seed=%d, tps=%d, parallel=%v", cfg.World.Seed, cfg.Server.TPS, cfg.Simulation.Parallel)

	registry, err := loadMaterials(cfg.Materials)
	if err != nil {
		return err
	}

	var opts []world.Option
	if cfg.Storage.Enabled {
		store, err := storage.NewChunkStorage(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("хранилище чанков: %w", err)
		}
		defer store.Close()
		if err := store.BindSeed(cfg.World.Seed); err != nil {
			return fmt.Errorf("хранилище чанков %s: %w", cfg.Storage.Path, err)
		}
		opts = append(opts, world.WithPersister(store))
		logging.Info("💾 Чанки сохраняются в %s", cfg.Storage.Path)
	} else {
		opts = append(opts, world.WithPersister(storage.NewMemoryChunkStorage()))
	}

	events := make(chan world.ChunkEvent, 256)
	opts = append(opts, world.WithEventSink(events))
	go logEvents(ctx, events)

	manager, err := world.NewManager(cfg.World, worldgen.New(cfg.World.Seed), registry, opts...)
	if err != nil {
		return fmt.Errorf("менеджер чанков: %w", err)
	}
	manager.AddLoader(vec.Vec2{}, 1)

	particles, err := particle.NewSystem(cfg.Particles, cfg.World.Seed)
	if err != nil {
		return fmt.Errorf("система частиц: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)
	srv := observability.StartHTTP(fmt.Sprintf(":%d", cfg.Server.GetMetricsPort()), reg)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, cfg.Telemetry, cfg.World.Seed)
		if err != nil {
			logging.Warn("OpenTelemetry недоступен: %v", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	eng := engine.New(manager, simulation.New(cfg.Simulation, cfg.World.Seed), particles, engine.WithMetrics(metrics))
	logging.Info("✅ Симуляция запущена")
	return eng.Run(ctx, cfg.Server.TPS, cfg.Server.MaxTicks)
}

func loadMaterials(cfg config.MaterialsConfig) (*material.Registry, error) {
	if cfg.Path == "" {
		return material.DefaultRegistry(), nil
	}
	registry, err := material.LoadYAML(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("каталог материалов: %w", err)
	}
	logging.Info("🧱 Загружено материалов: %d из %s", registry.Len(), cfg.Path)
	return registry, nil
}

func logEvents(ctx context.Context, events <-chan world.ChunkEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if ev.Type == world.EventGenerationFailed {
				logging.Debug("Чанк %s: %s (%v)", ev.Key, ev.Type, ev.Err)
				continue
			}
			logging.Trace("Чанк %s: %s, тик %d", ev.Key, ev.Type, ev.Tick)
		}
	}
}
