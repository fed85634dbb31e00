package world

import (
	"fmt"

	"github.com/annel0/pixelsim/internal/vec"
	"github.com/annel0/pixelsim/internal/world/material"
)

// Chunk представляет участок мира размером ChunkSize x ChunkSize пикселей.
// Пока чанк находится в хранилище, им владеет ChunkStore; доступ к нему
// возможен только из потока тика.
type Chunk struct {
	Key ChunkKey

	state ChunkState

	pixels     []material.Instance
	background []material.Instance
	// RGBA буфер для рендерера, синхронизирован с pixels
	colors []byte

	// Грязная область в локальных координатах, пустая если чанк чист
	dirty Rect

	mesh      [][]vec.Vec2Float
	meshValid bool

	// Подряд неудачные попытки текущей стадии генерации
	genFailures int

	// Пиксели, в которые сосед переместил материал на проходе settledTick
	settledTick uint64
	settled     []int32
}

// NewChunk создаёт новый несгенерированный чанк
func NewChunk(key ChunkKey) *Chunk {
	return &Chunk{Key: key, state: NotGenerated}
}

// State возвращает текущее состояние жизненного цикла
func (c *Chunk) State() ChunkState {
	return c.state
}

// SetState переводит чанк в новое состояние. При первом переходе в Generating
// выделяются буферы пикселей.
func (c *Chunk) SetState(s ChunkState) {
	if s.Kind != StateNotGenerated {
		c.allocate()
	}
	c.state = s
}

func (c *Chunk) allocate() {
	if c.pixels != nil {
		return
	}
	c.pixels = make([]material.Instance, ChunkArea)
	c.background = make([]material.Instance, ChunkArea)
	c.colors = make([]byte, ChunkArea*4)
}

// Ready возвращает true, если пиксели чанка можно читать и писать
func (c *Chunk) Ready() bool {
	return c.state.Ready()
}

// Pixels возвращает пиксельный массив (строки по Y). До окончания генерации возвращает nil.
func (c *Chunk) Pixels() []material.Instance {
	if !c.Ready() {
		return nil
	}
	return c.pixels
}

// Background возвращает фоновый слой. До окончания генерации возвращает nil.
func (c *Chunk) Background() []material.Instance {
	if !c.Ready() {
		return nil
	}
	return c.background
}

// Colors возвращает RGBA буфер. До окончания генерации возвращает nil.
func (c *Chunk) Colors() []byte {
	if !c.Ready() {
		return nil
	}
	return c.colors
}

// Buffers возвращает буферы пикселей и фона независимо от состояния.
// Используется генератором и хранилищем.
func (c *Chunk) Buffers() (pixels, background []material.Instance) {
	c.allocate()
	return c.pixels, c.background
}

func index(lx, ly int) int {
	return ly*ChunkSize + lx
}

// Pixel возвращает пиксель по локальным координатам
func (c *Chunk) Pixel(lx, ly int) (material.Instance, error) {
	if !InChunk(lx, ly) {
		return material.Air, fmt.Errorf("чанк %s, пиксель (%d,%d): %w", c.Key, lx, ly, ErrInvalidCoordinate)
	}
	if !c.Ready() {
		return material.Air, fmt.Errorf("чанк %s в состоянии %s: %w", c.Key, c.state, ErrNotLoaded)
	}
	return c.pixels[index(lx, ly)], nil
}

// SetPixel записывает пиксель по локальным координатам и помечает окрестность грязной
func (c *Chunk) SetPixel(lx, ly int, inst material.Instance) error {
	if !InChunk(lx, ly) {
		return fmt.Errorf("чанк %s, пиксель (%d,%d): %w", c.Key, lx, ly, ErrInvalidCoordinate)
	}
	if !c.Ready() {
		return fmt.Errorf("чанк %s в состоянии %s: %w", c.Key, c.state, ErrNotLoaded)
	}
	c.SetPixelUnchecked(lx, ly, inst)
	c.MarkDirty(lx, ly)
	return nil
}

// PixelUnchecked быстрый доступ для горячих циклов. Вызывающий отвечает за
// корректность координат и готовность чанка.
func (c *Chunk) PixelUnchecked(lx, ly int) material.Instance {
	return c.pixels[index(lx, ly)]
}

// SetPixelUnchecked записывает пиксель без проверок и без пометки грязной области
func (c *Chunk) SetPixelUnchecked(lx, ly int, inst material.Instance) {
	i := index(lx, ly)
	old := c.pixels[i]
	c.pixels[i] = inst
	c.writeColor(i)
	if affectsMesh(old.Physics) || affectsMesh(inst.Physics) {
		c.meshValid = false
	}
}

// SetBackground записывает пиксель фонового слоя
func (c *Chunk) SetBackground(lx, ly int, inst material.Instance) error {
	if !InChunk(lx, ly) {
		return fmt.Errorf("чанк %s, фон (%d,%d): %w", c.Key, lx, ly, ErrInvalidCoordinate)
	}
	c.allocate()
	i := index(lx, ly)
	c.background[i] = inst
	c.writeColor(i)
	return nil
}

func (c *Chunk) writeColor(i int) {
	col := c.pixels[i].Color
	if c.pixels[i].IsAir() {
		col = c.background[i].Color
	}
	o := i * 4
	c.colors[o] = col.R
	c.colors[o+1] = col.G
	c.colors[o+2] = col.B
	c.colors[o+3] = col.A
}

// RefreshColors перестраивает RGBA буфер целиком (после генерации или загрузки)
func (c *Chunk) RefreshColors() {
	c.allocate()
	for i := range c.pixels {
		c.writeColor(i)
	}
	c.meshValid = false
}

// Dirty возвращает грязную область в локальных координатах
func (c *Chunk) Dirty() Rect {
	return c.dirty
}

// MarkDirty добавляет пиксель в грязную область
func (c *Chunk) MarkDirty(lx, ly int) {
	if !InChunk(lx, ly) {
		return
	}
	c.dirty = c.dirty.Include(lx, ly)
}

// MarkDirtyRect добавляет прямоугольник (обрезанный по чанку) в грязную область
func (c *Chunk) MarkDirtyRect(r Rect) {
	c.dirty = c.dirty.Union(r.Intersect(chunkRect))
}

// MarkAllDirty помечает весь чанк грязным
func (c *Chunk) MarkAllDirty() {
	c.dirty = chunkRect
}

// TakeDirty возвращает текущую грязную область и очищает её
func (c *Chunk) TakeDirty() Rect {
	r := c.dirty
	c.dirty = Rect{}
	return r
}

// MarkSettled отмечает пиксель, в который соседний чанк переместил материал
// на проходе tick. До конца прохода такой пиксель не обновляется повторно.
func (c *Chunk) MarkSettled(tick uint64, lx, ly int) {
	if c.settledTick != tick {
		c.settled = c.settled[:0]
		c.settledTick = tick
	}
	c.settled = append(c.settled, int32(index(lx, ly)))
}

// TakeSettled возвращает и сбрасывает отметки прохода tick.
// Отметки других проходов отбрасываются.
func (c *Chunk) TakeSettled(tick uint64) []int32 {
	if c.settledTick != tick {
		c.settled = c.settled[:0]
		return nil
	}
	out := c.settled
	c.settled = nil
	return out
}

func affectsMesh(p material.PhysicsType) bool {
	return p == material.PhysicsSolid || p == material.PhysicsObject
}
