package world

import (
	"fmt"

	"github.com/annel0/pixelsim/internal/vec"
)

// ChunkSize сторона чанка в пикселях
const ChunkSize = 100

// ChunkArea количество пикселей в чанке
const ChunkArea = ChunkSize * ChunkSize

// ChunkKey координаты чанка в сетке чанков
type ChunkKey struct {
	X, Y int32
}

// String форматирует ключ для логов
func (k ChunkKey) String() string {
	return fmt.Sprintf("(%d,%d)", k.X, k.Y)
}

// Offset возвращает ключ соседнего чанка
func (k ChunkKey) Offset(dx, dy int) ChunkKey {
	return ChunkKey{X: k.X + int32(dx), Y: k.Y + int32(dy)}
}

// Origin возвращает мировые координаты локального пикселя (0,0)
func (k ChunkKey) Origin() vec.Vec2 {
	return vec.Vec2{X: int(k.X) * ChunkSize, Y: int(k.Y) * ChunkSize}
}

// Bounds возвращает прямоугольник чанка в мировых пикселях
func (k ChunkKey) Bounds() Rect {
	o := k.Origin()
	return Rect{MinX: o.X, MinY: o.Y, MaxX: o.X + ChunkSize, MaxY: o.Y + ChunkSize}
}

// ChunkAt раскладывает мировую координату на ключ чанка и локальное смещение
func ChunkAt(x, y int) (ChunkKey, int, int) {
	key := ChunkKey{X: int32(vec.FloorDiv(x, ChunkSize)), Y: int32(vec.FloorDiv(y, ChunkSize))}
	return key, vec.EuclidRem(x, ChunkSize), vec.EuclidRem(y, ChunkSize)
}

// WorldPos обратное преобразование: ключ + локальное смещение -> мировая координата
func WorldPos(key ChunkKey, lx, ly int) (int, int) {
	o := key.Origin()
	return o.X + lx, o.Y + ly
}

// InChunk проверяет, что локальные координаты лежат внутри чанка
func InChunk(lx, ly int) bool {
	return lx >= 0 && lx < ChunkSize && ly >= 0 && ly < ChunkSize
}

// KeysInRect возвращает ключи всех чанков, пересекающих прямоугольник (в мировых пикселях)
func KeysInRect(r Rect) []ChunkKey {
	if r.Empty() {
		return nil
	}
	minKey, _, _ := ChunkAt(r.MinX, r.MinY)
	maxKey, _, _ := ChunkAt(r.MaxX-1, r.MaxY-1)

	keys := make([]ChunkKey, 0, int(maxKey.X-minKey.X+1)*int(maxKey.Y-minKey.Y+1))
	for y := minKey.Y; y <= maxKey.Y; y++ {
		for x := minKey.X; x <= maxKey.X; x++ {
			keys = append(keys, ChunkKey{X: x, Y: y})
		}
	}
	return keys
}
