package world

import (
	"slices"
)

// neighborOffsets порядок соседей в Neighbors: построчно, без центра
var neighborOffsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// NeighborIndex возвращает индекс соседа со смещением (dx, dy) или -1 для центра и
// смещений вне окрестности 3x3
func NeighborIndex(dx, dy int) int {
	if dx < -1 || dx > 1 || dy < -1 || dy > 1 || (dx == 0 && dy == 0) {
		return -1
	}
	i := (dy+1)*3 + (dx + 1)
	if i > 4 {
		i--
	}
	return i
}

// NeighborOffset возвращает смещение соседа по индексу
func NeighborOffset(i int) (int, int) {
	return neighborOffsets[i][0], neighborOffsets[i][1]
}

// Neighbors восемь соседей центрального чанка. Отсутствующие соседи равны nil.
type Neighbors [8]*Chunk

// At возвращает соседа по смещению или nil
func (n *Neighbors) At(dx, dy int) *Chunk {
	i := NeighborIndex(dx, dy)
	if i < 0 {
		return nil
	}
	return n[i]
}

// ChunkStore хранит резидентные чанки по ключу.
// Не потокобезопасен: владеет им поток тика, параллельные проходы
// пользуются Neighborhood только для непересекающихся окрестностей.
type ChunkStore struct {
	chunks map[ChunkKey]*Chunk
}

// NewChunkStore создаёт пустое хранилище
func NewChunkStore() *ChunkStore {
	return &ChunkStore{chunks: make(map[ChunkKey]*Chunk)}
}

// Insert добавляет чанк, заменяя существующий с тем же ключом
func (s *ChunkStore) Insert(c *Chunk) {
	s.chunks[c.Key] = c
}

// Get возвращает чанк по ключу
func (s *ChunkStore) Get(key ChunkKey) (*Chunk, bool) {
	c, ok := s.chunks[key]
	return c, ok
}

// Remove удаляет чанк и возвращает его
func (s *ChunkStore) Remove(key ChunkKey) (*Chunk, bool) {
	c, ok := s.chunks[key]
	if ok {
		delete(s.chunks, key)
	}
	return c, ok
}

// Len возвращает количество резидентных чанков
func (s *ChunkStore) Len() int {
	return len(s.chunks)
}

// Keys возвращает ключи в произвольном порядке
func (s *ChunkStore) Keys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.chunks))
	for k := range s.chunks {
		keys = append(keys, k)
	}
	return keys
}

// SortedKeys возвращает ключи, отсортированные по (Y, X)
func (s *ChunkStore) SortedKeys() []ChunkKey {
	keys := s.Keys()
	slices.SortFunc(keys, CompareKeys)
	return keys
}

// CompareKeys упорядочивает ключи по Y, затем по X
func CompareKeys(a, b ChunkKey) int {
	if a.Y != b.Y {
		if a.Y < b.Y {
			return -1
		}
		return 1
	}
	if a.X != b.X {
		if a.X < b.X {
			return -1
		}
		return 1
	}
	return 0
}

// WithChunkAndNeighbors извлекает центральный чанк из хранилища на время вызова fn
// и возвращает его обратно. Соседи берутся из хранилища как есть, поэтому центр
// никогда не встречается среди них. Возвращает false, если центра нет.
func (s *ChunkStore) WithChunkAndNeighbors(key ChunkKey, fn func(center *Chunk, n *Neighbors)) bool {
	center, ok := s.Remove(key)
	if !ok {
		return false
	}
	defer s.Insert(center)

	n := s.gather(key)
	fn(center, &n)
	return true
}

// ForEachWithNeighbors вызывает WithChunkAndNeighbors для каждого чанка в порядке SortedKeys.
// Соседи разрешаются заново на каждом шаге.
func (s *ChunkStore) ForEachWithNeighbors(fn func(center *Chunk, n *Neighbors)) {
	for _, key := range s.SortedKeys() {
		s.WithChunkAndNeighbors(key, fn)
	}
}

// Neighborhood собирает центр и соседей без извлечения из карты.
// Годится для параллельных проходов, в которых окрестности не пересекаются.
func (s *ChunkStore) Neighborhood(key ChunkKey) (*Chunk, Neighbors, bool) {
	center, ok := s.chunks[key]
	if !ok {
		return nil, Neighbors{}, false
	}
	return center, s.gather(key), true
}

func (s *ChunkStore) gather(key ChunkKey) Neighbors {
	var n Neighbors
	for i, off := range neighborOffsets {
		n[i] = s.chunks[key.Offset(off[0], off[1])]
	}
	return n
}
