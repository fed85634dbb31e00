package world

// LoadQueue FIFO очередь ключей на загрузку с множеством принадлежности.
// Для каждого ключа хранится целевое число стадий генерации.
type LoadQueue struct {
	order   []ChunkKey
	targets map[ChunkKey]int
}

// NewLoadQueue создаёт пустую очередь
func NewLoadQueue() *LoadQueue {
	return &LoadQueue{targets: make(map[ChunkKey]int)}
}

// Push добавляет ключ. Если ключ уже в очереди, повышает цель и возвращает false.
func (q *LoadQueue) Push(key ChunkKey, target int) bool {
	if cur, ok := q.targets[key]; ok {
		if target > cur {
			q.targets[key] = target
		}
		return false
	}
	q.targets[key] = target
	q.order = append(q.order, key)
	return true
}

// Pop извлекает первый ключ очереди
func (q *LoadQueue) Pop() (ChunkKey, int, bool) {
	for len(q.order) > 0 {
		key := q.order[0]
		q.order[0] = ChunkKey{}
		q.order = q.order[1:]
		// Ключи, удалённые через Remove, пропускаются
		if target, ok := q.targets[key]; ok {
			delete(q.targets, key)
			return key, target, true
		}
	}
	return ChunkKey{}, 0, false
}

// Contains проверяет наличие ключа в очереди
func (q *LoadQueue) Contains(key ChunkKey) bool {
	_, ok := q.targets[key]
	return ok
}

// Target возвращает целевую стадию ключа
func (q *LoadQueue) Target(key ChunkKey) (int, bool) {
	t, ok := q.targets[key]
	return t, ok
}

// Remove удаляет ключ из очереди
func (q *LoadQueue) Remove(key ChunkKey) {
	delete(q.targets, key)
}

// Len возвращает количество ключей в очереди
func (q *LoadQueue) Len() int {
	return len(q.targets)
}
