package world

import (
	"fmt"

	"github.com/annel0/pixelsim/internal/world/material"
)

func (m *Manager) resolve(x, y int) (*Chunk, int, int, error) {
	key, lx, ly := ChunkAt(x, y)
	c, ok := m.store.Get(key)
	if !ok {
		return nil, 0, 0, fmt.Errorf("пиксель (%d,%d), чанк %s: %w", x, y, key, ErrNotLoaded)
	}
	return c, lx, ly, nil
}

// Pixel возвращает пиксель по мировым координатам
func (m *Manager) Pixel(x, y int) (material.Instance, error) {
	c, lx, ly, err := m.resolve(x, y)
	if err != nil {
		return material.Air, err
	}
	return c.Pixel(lx, ly)
}

// SetPixel записывает пиксель по мировым координатам и будит окрестность 3x3,
// включая пиксели соседних чанков
func (m *Manager) SetPixel(x, y int, inst material.Instance) error {
	c, lx, ly, err := m.resolve(x, y)
	if err != nil {
		return err
	}
	if err := c.SetPixel(lx, ly, inst); err != nil {
		return err
	}
	m.markWake(x, y)
	return nil
}

// ReplacePixel читает пиксель, передаёт его в fn и записывает результат,
// если fn вернула true. Возвращает факт записи.
func (m *Manager) ReplacePixel(x, y int, fn func(material.Instance) (material.Instance, bool)) (bool, error) {
	c, lx, ly, err := m.resolve(x, y)
	if err != nil {
		return false, err
	}
	cur, err := c.Pixel(lx, ly)
	if err != nil {
		return false, err
	}
	next, ok := fn(cur)
	if !ok {
		return false, nil
	}
	c.SetPixelUnchecked(lx, ly, next)
	c.MarkDirty(lx, ly)
	m.markWake(x, y)
	return true, nil
}

func (m *Manager) markWake(x, y int) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			key, lx, ly := ChunkAt(x+dx, y+dy)
			if c, ok := m.store.Get(key); ok && c.Ready() {
				c.MarkDirty(lx, ly)
			}
		}
	}
}
