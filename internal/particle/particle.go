// Package particle двигает свободные пиксели вне сетки и возвращает их в неё при столкновении.
package particle

import (
	"github.com/annel0/pixelsim/internal/physics"
	"github.com/annel0/pixelsim/internal/vec"
	"github.com/annel0/pixelsim/internal/world"
	"github.com/annel0/pixelsim/internal/world/material"
)

// State положение частицы относительно объектов сетки
type State uint8

const (
	// FirstFrame частица только что создана и может находиться внутри объекта
	FirstFrame State = iota
	// Inside частица проходит сквозь Object пиксели
	Inside
	// Outside частица в воздухе, любой непустой пиксель останавливает её
	Outside
)

func (s State) String() string {
	switch s {
	case FirstFrame:
		return "FirstFrame"
	case Inside:
		return "Inside"
	case Outside:
		return "Outside"
	default:
		return "Unknown"
	}
}

// Particle свободный пиксель
type Particle struct {
	Material material.Instance
	Pos      vec.Vec2Float
	Vel      vec.Vec2Float
	State    State

	bucket BucketKey
	phase  int
}

// New создаёт частицу в состоянии FirstFrame
func New(m material.Instance, pos, vel vec.Vec2Float) Particle {
	return Particle{Material: m, Pos: pos, Vel: vel, State: FirstFrame}
}

// Cell возвращает пиксель сетки, в котором находится частица
func (p *Particle) Cell() vec.Vec2 {
	return p.Pos.Floor()
}

// Chunk возвращает ключ чанка частицы
func (p *Particle) Chunk() world.ChunkKey {
	c := p.Cell()
	key, _, _ := world.ChunkAt(c.X, c.Y)
	return key
}

// Entity внешняя сущность, мягко расталкивающая частицы
type Entity struct {
	Hitbox physics.Hitbox
	Vel    vec.Vec2Float
}

// Grid пиксельная сетка, с которой взаимодействуют частицы. Реализуется world.Manager.
type Grid interface {
	Pixel(x, y int) (material.Instance, error)
	ReplacePixel(x, y int, fn func(material.Instance) (material.Instance, bool)) (bool, error)
	DisplacePixel(x, y int, inst material.Instance) bool
	IsActive(key world.ChunkKey) bool
}
