package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации симуляции.
// Передаётся при старте и дальше не меняется.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Simulation SimulationConfig `yaml:"simulation"`
	Particles  ParticleConfig   `yaml:"particles"`
	Storage    StorageConfig    `yaml:"storage"`
	Server     ServerConfig     `yaml:"server"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Materials  MaterialsConfig  `yaml:"materials"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// WorldConfig параметры потоковой загрузки чанков
type WorldConfig struct {
	Seed      int64      `yaml:"seed"`
	LoadBatch int        `yaml:"load_batch"`
	Zones     ZoneConfig `yaml:"zones"`
	// Количество подряд неудачных стадий генерации, после которого пишем ERROR вместо WARN
	GenerationRetryWarn int `yaml:"generation_retry_warn"`
}

// ZoneConfig описывает размеры зон загрузчика в пикселях.
// Экран задаётся полной шириной/высотой, остальные зоны отступами от предыдущей.
type ZoneConfig struct {
	ScreenWidth  int `yaml:"screen_width"`
	ScreenHeight int `yaml:"screen_height"`
	ActiveMargin int `yaml:"active_margin"`
	LoadMargin   int `yaml:"load_margin"`
	UnloadMargin int `yaml:"unload_margin"`
}

// SimulationConfig параметры клеточного автомата
type SimulationConfig struct {
	Parallel bool `yaml:"parallel"`
	Workers  int  `yaml:"workers"`
	// Вероятность диагонального шага песка, когда снизу и по диагоналям пусто
	Jitter float64 `yaml:"jitter"`
}

// ParticleConfig параметры системы частиц
type ParticleConfig struct {
	Gravity       float64 `yaml:"gravity"`
	MaxSpeed      float64 `yaml:"max_speed"`
	SleepInterval uint64  `yaml:"sleep_interval"`
	SleepOffset   uint64  `yaml:"sleep_offset"`
	WakeOffset    uint64  `yaml:"wake_offset"`
	Workers       int     `yaml:"workers"`
}

// StorageConfig параметры хранилища чанков
type StorageConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ServerConfig параметры процесса-симулятора
type ServerConfig struct {
	TPS         int `yaml:"tps"`
	MetricsPort int `yaml:"metrics_port"`
	// Ограничение количества тиков (0 без ограничения)
	MaxTicks uint64 `yaml:"max_ticks"`
}

// TelemetryConfig параметры OpenTelemetry
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	// host:port OTLP HTTP коллектора; пусто означает localhost:4318
	Endpoint string `yaml:"endpoint"`
	// Доля тиков, чьи спаны отправляются в коллектор
	SampleRatio float64 `yaml:"sample_ratio"`
}

// MaterialsConfig путь к каталогу материалов (YAML)
type MaterialsConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig параметры логирования
type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
	// Переопределения уровня по компонентам: world, simulation, particle, storage, engine
	Components map[string]string `yaml:"components"`
}

// Default возвращает конфигурацию по умолчанию
func Default() Config {
	return Config{
		World: WorldConfig{
			Seed:      1337,
			LoadBatch: 32,
			Zones: ZoneConfig{
				ScreenWidth:  640,
				ScreenHeight: 480,
				ActiveMargin: 100,
				LoadMargin:   100,
				UnloadMargin: 200,
			},
			GenerationRetryWarn: 3,
		},
		Simulation: SimulationConfig{
			Parallel: false,
			Workers:  runtime.NumCPU(),
			Jitter:   0.1,
		},
		Particles: ParticleConfig{
			Gravity:       0.1,
			MaxSpeed:      32,
			SleepInterval: 10,
			SleepOffset:   0,
			WakeOffset:    5,
			Workers:       runtime.NumCPU(),
		},
		Storage: StorageConfig{
			Enabled: false,
			Path:    "data",
		},
		Server: ServerConfig{
			TPS:         30,
			MetricsPort: 0,
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "pixelsim",
			SampleRatio: 1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// GetMetricsPort возвращает порт Prometheus метрик с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "PIXELSIM_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Validate проверяет согласованность параметров
func (c *Config) Validate() error {
	var errs []error

	if c.World.LoadBatch <= 0 {
		errs = append(errs, fmt.Errorf("world.load_batch должен быть > 0, получено %d", c.World.LoadBatch))
	}
	z := c.World.Zones
	if z.ScreenWidth <= 0 || z.ScreenHeight <= 0 {
		errs = append(errs, fmt.Errorf("world.zones: размер экрана должен быть > 0"))
	}
	if z.ActiveMargin < 0 || z.LoadMargin < 0 || z.UnloadMargin < 0 {
		errs = append(errs, fmt.Errorf("world.zones: отступы не могут быть отрицательными"))
	}
	if c.Simulation.Jitter < 0 || c.Simulation.Jitter > 1 {
		errs = append(errs, fmt.Errorf("simulation.jitter должен быть в диапазоне [0, 1]"))
	}
	if c.Particles.SleepInterval == 0 {
		errs = append(errs, fmt.Errorf("particles.sleep_interval должен быть > 0"))
	} else if c.Particles.SleepOffset%c.Particles.SleepInterval == c.Particles.WakeOffset%c.Particles.SleepInterval {
		errs = append(errs, fmt.Errorf("particles: sleep_offset и wake_offset не могут совпадать по модулю интервала"))
	}
	if c.Particles.MaxSpeed <= 0 {
		errs = append(errs, fmt.Errorf("particles.max_speed должен быть > 0"))
	}
	if c.Server.TPS <= 0 {
		errs = append(errs, fmt.Errorf("server.tps должен быть > 0"))
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sample_ratio должен быть в диапазоне [0, 1]"))
	}
	if c.Storage.Enabled && c.Storage.Path == "" {
		errs = append(errs, fmt.Errorf("storage.path обязателен при storage.enabled"))
	}

	return errors.Join(errs...)
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV PIXELSIM_CONFIG, иначе возвращает Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("PIXELSIM_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	return Parse(data)
}

// Parse разбирает YAML поверх значений по умолчанию
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("разбор конфигурации: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
