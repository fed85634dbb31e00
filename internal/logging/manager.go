package logging

import (
	"fmt"
	"sync"
)

// LoggerManager управляет множественными логгерами для разных компонентов
type LoggerManager struct {
	mu      sync.RWMutex
	loggers map[string]*Logger
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = newLoggerManager()
	})
	return globalManager
}

func newLoggerManager() *LoggerManager {
	return &LoggerManager{loggers: make(map[string]*Logger)}
}

// GetLogger возвращает логгер для компонента, создавая его при необходимости
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.RLock()
	if logger, exists := lm.loggers[component]; exists {
		lm.mu.RUnlock()
		return logger, nil
	}
	lm.mu.RUnlock()

	// Создаем новый логгер под write lock
	lm.mu.Lock()
	defer lm.mu.Unlock()

	// Проверяем еще раз на случай race condition
	if logger, exists := lm.loggers[component]; exists {
		return logger, nil
	}

	logger, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger for %s: %w", component, err)
	}

	lm.loggers[component] = logger
	return logger, nil
}

// MustGetLogger возвращает логгер или создает fallback при ошибке
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	logger, err := lm.GetLogger(component)
	if err != nil {
		// Fallback: создаем простой логгер в stdout
		return &Logger{
			component:       component,
			consoleLogger:   defaultLogger.consoleLogger,
			minConsoleLevel: INFO,
			minFileLevel:    ERROR,
		}
	}
	return logger
}

// CloseAll закрывает все логгеры
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var lastErr error
	for component, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close logger for %s: %w", component, err)
		}
	}

	// Очищаем карту
	lm.loggers = make(map[string]*Logger)
	return lastErr
}

// SetLogLevel устанавливает уровень логирования для компонента
func (lm *LoggerManager) SetLogLevel(component string, consoleLevel, fileLevel LogLevel) error {
	lm.mu.RLock()
	logger, exists := lm.loggers[component]
	lm.mu.RUnlock()

	if !exists {
		return fmt.Errorf("logger for component %s not found", component)
	}

	logger.mu.Lock()
	logger.minConsoleLevel = consoleLevel
	logger.minFileLevel = fileLevel
	logger.mu.Unlock()
	return nil
}

// SetAllLevels задаёт уровень логирования для всех уже созданных компонентов
func (lm *LoggerManager) SetAllLevels(consoleLevel, fileLevel LogLevel) {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	for _, logger := range lm.loggers {
		logger.mu.Lock()
		logger.minConsoleLevel = consoleLevel
		logger.minFileLevel = fileLevel
		logger.mu.Unlock()
	}
}

// ApplyLevels создаёт логгеры всех компонентов симулятора и задаёт им консольный уровень:
// общий level и точечные переопределения из overrides (компонент -> уровень).
// В файл компоненты пишут начиная с DEBUG.
func (lm *LoggerManager) ApplyLevels(level string, overrides map[string]string) error {
	for component := range overrides {
		if !isComponent(component) {
			return fmt.Errorf("неизвестный компонент логирования %q (доступны: %v)", component, Components)
		}
	}

	for _, component := range Components {
		if _, err := lm.GetLogger(component); err != nil {
			return err
		}
	}
	lm.SetAllLevels(ParseLevel(level), DEBUG)

	for component, name := range overrides {
		if err := lm.SetLogLevel(component, ParseLevel(name), DEBUG); err != nil {
			return err
		}
	}
	return nil
}

// Level возвращает текущий консольный уровень компонента
func (lm *LoggerManager) Level(component string) (LogLevel, bool) {
	lm.mu.RLock()
	logger, exists := lm.loggers[component]
	lm.mu.RUnlock()
	if !exists {
		return INFO, false
	}

	logger.mu.Lock()
	defer logger.mu.Unlock()
	return logger.minConsoleLevel, true
}

// Компоненты симулятора
const (
	ComponentWorld      = "world"
	ComponentSimulation = "simulation"
	ComponentParticle   = "particle"
	ComponentStorage    = "storage"
	ComponentEngine     = "engine"
)

// Components перечисляет компоненты, для которых ApplyLevels заводит логгеры
var Components = []string{
	ComponentWorld,
	ComponentSimulation,
	ComponentParticle,
	ComponentStorage,
	ComponentEngine,
}

func isComponent(name string) bool {
	for _, c := range Components {
		if c == name {
			return true
		}
	}
	return false
}

// GetComponentLogger возвращает логгер компонента из глобального менеджера
func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

func GetWorldLogger() *Logger {
	return GetComponentLogger(ComponentWorld)
}

func GetSimulationLogger() *Logger {
	return GetComponentLogger(ComponentSimulation)
}

func GetParticleLogger() *Logger {
	return GetComponentLogger(ComponentParticle)
}

func GetStorageLogger() *Logger {
	return GetComponentLogger(ComponentStorage)
}

func GetEngineLogger() *Logger {
	return GetComponentLogger(ComponentEngine)
}
