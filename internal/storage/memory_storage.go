package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/annel0/pixelsim/internal/world"
)

// MemoryChunkStorage реализует world.ChunkPersister в памяти.
// Используется, когда storage.enabled выключен, чтобы выгруженные чанки
// переживали уход загрузчика в пределах одного запуска.
// ВНИМАНИЕ: Данные теряются при перезапуске!
type MemoryChunkStorage struct {
	mu   sync.RWMutex
	data map[world.ChunkKey]world.ChunkSnapshot
}

// NewMemoryChunkStorage создаёт хранилище чанков в памяти
func NewMemoryChunkStorage() *MemoryChunkStorage {
	return &MemoryChunkStorage{
		data: make(map[world.ChunkKey]world.ChunkSnapshot),
	}
}

// SaveChunk копирует снимок чанка в память
func (r *MemoryChunkStorage) SaveChunk(ctx context.Context, snap world.ChunkSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[snap.Key] = world.ChunkSnapshot{
		Key:        snap.Key,
		Pixels:     slices.Clone(snap.Pixels),
		Background: slices.Clone(snap.Background),
	}
	return nil
}

// LoadChunk возвращает копию сохранённого снимка
func (r *MemoryChunkStorage) LoadChunk(ctx context.Context, key world.ChunkKey) (world.ChunkSnapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return world.ChunkSnapshot{}, false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	snap, ok := r.data[key]
	if !ok {
		return world.ChunkSnapshot{}, false, nil
	}
	return world.ChunkSnapshot{
		Key:        key,
		Pixels:     slices.Clone(snap.Pixels),
		Background: slices.Clone(snap.Background),
	}, true, nil
}

// Len возвращает количество сохранённых чанков
func (r *MemoryChunkStorage) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

var (
	_ world.ChunkPersister = (*ChunkStorage)(nil)
	_ world.ChunkPersister = (*MemoryChunkStorage)(nil)
)
