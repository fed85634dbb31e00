package world

import (
	"context"

	"github.com/annel0/pixelsim/internal/world/material"
)

// Generator внешний генератор мира. Стадия 0 заполняет чанк целиком через Generate,
// стадии 1..MaxGenStage выполняются популяторами с доступом к соседям.
type Generator interface {
	MaxGenStage() uint8
	Generate(key ChunkKey, seed int64, pixels, background []material.Instance, registry *material.Registry) error
	// Populators возвращает ровно MaxGenStage популяторов, i-й выполняет стадию i+1
	Populators() []Populator
}

// Populator стадия генерации, которая может писать в соседние чанки.
// Соседи к моменту вызова прошли не меньше стадий, чем центр.
type Populator interface {
	Populate(region Region, seed int64, registry *material.Registry) error
}

// PopulatorFunc адаптер функции к Populator
type PopulatorFunc func(region Region, seed int64, registry *material.Registry) error

// Populate вызывает f
func (f PopulatorFunc) Populate(region Region, seed int64, registry *material.Registry) error {
	return f(region, seed, registry)
}

// ChunkSnapshot содержимое полностью сгенерированного чанка для хранилища
type ChunkSnapshot struct {
	Key        ChunkKey
	Pixels     []material.Instance
	Background []material.Instance
}

// ChunkPersister сохраняет выгружаемые чанки и восстанавливает их до генерации
type ChunkPersister interface {
	SaveChunk(ctx context.Context, snap ChunkSnapshot) error
	// LoadChunk возвращает ok == false, если чанк ранее не сохранялся
	LoadChunk(ctx context.Context, key ChunkKey) (snap ChunkSnapshot, ok bool, err error)
}
