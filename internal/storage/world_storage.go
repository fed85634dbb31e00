package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"

	"github.com/annel0/pixelsim/internal/logging"
	"github.com/annel0/pixelsim/internal/world"
)

// ErrStorageClosed хранилище закрыто
var ErrStorageClosed = errors.New("хранилище не готово")

// ErrSeedMismatch сохранённый мир создан с другим сидом
var ErrSeedMismatch = errors.New("seed сохранённого мира не совпадает")

const seedKey = "world:seed"

// ChunkStorage хранит снимки выгруженных чанков в BadgerDB.
// Реализует world.ChunkPersister.
type ChunkStorage struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool
	logger  *logging.Logger
}

// NewChunkStorage открывает хранилище в каталоге dataPath/world
func NewChunkStorage(dataPath string) (*ChunkStorage, error) {
	dbPath := filepath.Join(dataPath, "world")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB
	return open(opts, dbPath)
}

// NewInMemoryChunkStorage создаёт хранилище BadgerDB без диска (тесты, эфемерные миры)
func NewInMemoryChunkStorage() (*ChunkStorage, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, "")
}

func open(opts badger.Options, dbPath string) (*ChunkStorage, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}
	return &ChunkStorage{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
		logger:  logging.GetStorageLogger(),
	}, nil
}

// Close закрывает хранилище данных
func (cs *ChunkStorage) Close() error {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	if !cs.isReady {
		return nil
	}

	cs.isReady = false
	return cs.db.Close()
}

func chunkKey(key world.ChunkKey) []byte {
	return []byte(fmt.Sprintf("chunk:%d:%d", key.X, key.Y))
}

// SaveChunk сохраняет снимок чанка
func (cs *ChunkStorage) SaveChunk(ctx context.Context, snap world.ChunkSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	if !cs.isReady {
		return ErrStorageClosed
	}

	data, err := EncodeChunk(snap)
	if err != nil {
		return fmt.Errorf("ошибка сериализации чанка: %w", err)
	}

	err = cs.db.Update(func(txn *badger.Txn) error {
		return txn.Set(chunkKey(snap.Key), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}

	cs.logger.Debug("Чанк %s сохранён (%d байт)", snap.Key, len(data))
	return nil
}

// LoadChunk загружает снимок чанка. ok == false, если чанк не сохранялся.
func (cs *ChunkStorage) LoadChunk(ctx context.Context, key world.ChunkKey) (world.ChunkSnapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return world.ChunkSnapshot{}, false, err
	}
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	if !cs.isReady {
		return world.ChunkSnapshot{}, false, ErrStorageClosed
	}

	var data []byte
	err := cs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(chunkKey(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return world.ChunkSnapshot{}, false, nil
	}
	if err != nil {
		return world.ChunkSnapshot{}, false, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	snap, err := DecodeChunk(data)
	if err != nil {
		return world.ChunkSnapshot{}, false, fmt.Errorf("чанк %s: %w", key, err)
	}
	if snap.Key != key {
		return world.ChunkSnapshot{}, false, fmt.Errorf("чанк %s: в записи ключ %s: %w", key, snap.Key, ErrCorruptChunk)
	}
	return snap, true, nil
}

// DeleteChunk удаляет снимок чанка
func (cs *ChunkStorage) DeleteChunk(key world.ChunkKey) error {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	if !cs.isReady {
		return ErrStorageClosed
	}
	return cs.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(chunkKey(key))
	})
}

// CountChunks возвращает количество сохранённых чанков
func (cs *ChunkStorage) CountChunks() (int, error) {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	if !cs.isReady {
		return 0, ErrStorageClosed
	}

	count := 0
	err := cs.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte("chunk:")
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// BindSeed связывает хранилище с сидом мира. Первый вызов записывает сид,
// последующие проверяют совпадение: чанки другого мира не должны подмешиваться.
func (cs *ChunkStorage) BindSeed(seed int64) error {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	if !cs.isReady {
		return ErrStorageClosed
	}

	return cs.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(seedKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return txn.Set([]byte(seedKey), binary.LittleEndian.AppendUint64(nil, uint64(seed)))
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("%w: повреждённая запись сида", ErrSeedMismatch)
			}
			if stored := int64(binary.LittleEndian.Uint64(val)); stored != seed {
				return fmt.Errorf("%w: сохранён %d, запрошен %d", ErrSeedMismatch, stored, seed)
			}
			return nil
		})
	})
}
