package simulation

import (
	"math/rand/v2"

	"github.com/annel0/pixelsim/internal/world"
	"github.com/annel0/pixelsim/internal/world/material"
)

// updater состояние прохода по одному чанку
type updater struct {
	r      world.Region
	rng    *rand.Rand
	jitter float64
	tick   uint64

	// Пиксели центра, в которые уже переместились в этом проходе,
	// в том числе из соседних чанков
	visited [world.ChunkArea]bool
	moved   int
}

func (u *updater) free(x, y int) bool {
	p, ok := u.r.Pixel(x, y)
	return ok && p.IsAir()
}

func (u *updater) update(x, y int) {
	if u.visited[y*world.ChunkSize+x] {
		return
	}
	p := u.r.Center.PixelUnchecked(x, y)

	switch p.Physics {
	case material.PhysicsAir, material.PhysicsSolid, material.PhysicsObject:
		return
	case material.PhysicsSand:
		if tx, ty, ok := u.fall(x, y, 1); ok {
			u.move(x, y, tx, ty, p)
		}
	case material.PhysicsLiquid:
		if tx, ty, ok := u.fall(x, y, 1); ok {
			u.move(x, y, tx, ty, p)
		} else if tx, ok := u.spread(x, y); ok {
			u.move(x, y, tx, y, p)
		}
	case material.PhysicsGas:
		if tx, ty, ok := u.fall(x, y, -1); ok {
			u.move(x, y, tx, ty, p)
		}
	}
}

// fall правило песка. dy = 1 падение вниз, dy = -1 всплытие газа.
func (u *updater) fall(x, y, dy int) (int, int, bool) {
	ny := y + dy
	below := u.free(x, ny)
	left := u.free(x-1, ny)
	right := u.free(x+1, ny)

	switch {
	case below && left && right:
		if u.rng.Float64() < u.jitter {
			return x + u.side(), ny, true
		}
		return x, ny, true
	case below:
		return x, ny, true
	case left && right:
		return x + u.side(), ny, true
	case left:
		return x - 1, ny, true
	case right:
		return x + 1, ny, true
	}
	return 0, 0, false
}

// spread горизонтальное растекание жидкости
func (u *updater) spread(x, y int) (int, bool) {
	left := u.free(x-1, y)
	right := u.free(x+1, y)
	switch {
	case left && right:
		return x + u.side(), true
	case left:
		return x - 1, true
	case right:
		return x + 1, true
	}
	return 0, false
}

func (u *updater) side() int {
	if u.rng.IntN(2) == 0 {
		return -1
	}
	return 1
}

// move переносит пиксель, будит окрестность источника и помечает приёмник
func (u *updater) move(sx, sy, tx, ty int, p material.Instance) {
	u.r.SetPixel(tx, ty, p)
	u.r.SetPixel(sx, sy, material.Air)
	u.r.MarkWake(sx, sy)
	if world.InChunk(tx, ty) {
		u.visited[ty*world.ChunkSize+tx] = true
	} else if c, cx, cy := u.r.Resolve(tx, ty); c != nil {
		c.MarkSettled(u.tick, cx, cy)
	}
	u.moved++
}
