package world

// EventType определяет тип события жизненного цикла чанка
type EventType uint8

const (
	EventChunkGenerated    EventType = iota // Генерация завершена, чанк в Cached
	EventChunkRestored                      // Чанк восстановлен из хранилища
	EventChunkActivated                     // Cached -> Active
	EventChunkDeactivated                   // Active -> Cached
	EventChunkUnloaded                      // Чанк удалён из памяти
	EventGenerationFailed                   // Стадия генерации завершилась ошибкой
)

// String возвращает имя типа события
func (t EventType) String() string {
	switch t {
	case EventChunkGenerated:
		return "generated"
	case EventChunkRestored:
		return "restored"
	case EventChunkActivated:
		return "activated"
	case EventChunkDeactivated:
		return "deactivated"
	case EventChunkUnloaded:
		return "unloaded"
	case EventGenerationFailed:
		return "generation_failed"
	default:
		return "unknown"
	}
}

// ChunkEvent событие жизненного цикла чанка для внешних слоёв (рендер, сеть)
type ChunkEvent struct {
	Type  EventType
	Key   ChunkKey
	State ChunkState
	Tick  uint64
	Err   error
}

// EventSink канал, в который менеджер публикует события.
// Отправка неблокирующая: при переполненном канале событие теряется.
type EventSink chan<- ChunkEvent

func (s EventSink) publish(ev ChunkEvent) bool {
	if s == nil {
		return false
	}
	select {
	case s <- ev:
		return true
	default:
		return false
	}
}
