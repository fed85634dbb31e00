package world

import "fmt"

// StateKind вид состояния жизненного цикла чанка
type StateKind uint8

const (
	StateNotGenerated StateKind = iota
	StateGenerating
	StateCached
	StateActive
)

// ChunkState состояние чанка. Stage имеет смысл только для StateGenerating:
// номер следующей стадии генерации (число уже выполненных стадий).
type ChunkState struct {
	Kind  StateKind
	Stage uint8
}

var (
	NotGenerated = ChunkState{Kind: StateNotGenerated}
	Cached       = ChunkState{Kind: StateCached}
	Active       = ChunkState{Kind: StateActive}
)

// Generating возвращает состояние генерации на стадии stage
func Generating(stage uint8) ChunkState {
	return ChunkState{Kind: StateGenerating, Stage: stage}
}

// Ready возвращает true, если пиксели чанка доступны для чтения и записи
func (s ChunkState) Ready() bool {
	return s.Kind == StateCached || s.Kind == StateActive
}

// CompletedStages возвращает число выполненных стадий генерации.
// Готовый чанк считается прошедшим все стадии.
func (s ChunkState) CompletedStages() int {
	switch s.Kind {
	case StateNotGenerated:
		return 0
	case StateGenerating:
		return int(s.Stage)
	default:
		return 1 << 16
	}
}

// String форматирует состояние для логов
func (s ChunkState) String() string {
	switch s.Kind {
	case StateNotGenerated:
		return "NotGenerated"
	case StateGenerating:
		return fmt.Sprintf("Generating(%d)", s.Stage)
	case StateCached:
		return "Cached"
	case StateActive:
		return "Active"
	default:
		return "Unknown"
	}
}
