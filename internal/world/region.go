package world

import "github.com/annel0/pixelsim/internal/world/material"

// Region центральный чанк вместе с соседями. Локальные координаты центра
// могут выходить за его границы не более чем на один чанк в каждую сторону.
type Region struct {
	Center *Chunk
	N      *Neighbors
	// Generation разрешает доступ к чанкам, генерация которых не завершена.
	// Используется только популяторами.
	Generation bool
}

// Resolve переводит координаты относительно центра в чанк и его локальные координаты.
// Возвращает nil, если чанк отсутствует или координата дальше соседей.
func (r Region) Resolve(lx, ly int) (*Chunk, int, int) {
	dx, dy := 0, 0
	switch {
	case lx < -ChunkSize || lx >= 2*ChunkSize:
		return nil, 0, 0
	case lx < 0:
		dx, lx = -1, lx+ChunkSize
	case lx >= ChunkSize:
		dx, lx = 1, lx-ChunkSize
	}
	switch {
	case ly < -ChunkSize || ly >= 2*ChunkSize:
		return nil, 0, 0
	case ly < 0:
		dy, ly = -1, ly+ChunkSize
	case ly >= ChunkSize:
		dy, ly = 1, ly-ChunkSize
	}
	if dx == 0 && dy == 0 {
		return r.Center, lx, ly
	}
	if r.N == nil {
		return nil, 0, 0
	}
	return r.N.At(dx, dy), lx, ly
}

func (r Region) usable(c *Chunk) bool {
	if c == nil || c.pixels == nil {
		return false
	}
	return r.Generation || c.Ready()
}

// Pixel читает пиксель. ok == false для отсутствующих или неготовых чанков.
func (r Region) Pixel(lx, ly int) (material.Instance, bool) {
	c, cx, cy := r.Resolve(lx, ly)
	if !r.usable(c) {
		return material.Air, false
	}
	return c.PixelUnchecked(cx, cy), true
}

// SetPixel записывает пиксель и помечает его грязным. Возвращает false,
// если целевой чанк недоступен.
func (r Region) SetPixel(lx, ly int, inst material.Instance) bool {
	c, cx, cy := r.Resolve(lx, ly)
	if !r.usable(c) {
		return false
	}
	c.SetPixelUnchecked(cx, cy, inst)
	c.MarkDirty(cx, cy)
	return true
}

// SetBackground записывает пиксель фона
func (r Region) SetBackground(lx, ly int, inst material.Instance) bool {
	c, cx, cy := r.Resolve(lx, ly)
	if !r.usable(c) {
		return false
	}
	c.background[index(cx, cy)] = inst
	c.writeColor(index(cx, cy))
	return true
}

// MarkDirty помечает пиксель грязным в том чанке, которому он принадлежит
func (r Region) MarkDirty(lx, ly int) {
	c, cx, cy := r.Resolve(lx, ly)
	if c != nil {
		c.MarkDirty(cx, cy)
	}
}

// MarkWake помечает грязной окрестность 3x3 вокруг пикселя
func (r Region) MarkWake(lx, ly int) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			r.MarkDirty(lx+dx, ly+dy)
		}
	}
}
