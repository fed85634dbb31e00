// Package worldgen содержит эталонный поэтапный генератор мира:
// рельеф на шуме Перлина и популяторы поверхности и руды.
package worldgen

import (
	"fmt"
	"math"

	"github.com/annel0/pixelsim/internal/util"
	"github.com/annel0/pixelsim/internal/world"
	"github.com/annel0/pixelsim/internal/world/material"
)

// Константы рельефа в мировых пикселях (ось Y направлена вниз)
const (
	BaseHeight     = 50   // Средняя высота поверхности
	Amplitude      = 160  // Размах холмов
	WaterLevel     = 90   // Ниже этой отметки впадины заполняются водой
	DirtDepth      = 12   // Толщина слоя земли
	CaveDepth      = 30   // Пещеры начинаются глубже поверхности на столько пикселей
	CaveThreshold  = 0.68 // Порог шума пещер
	SurfaceScale   = 0.004
	CaveNoiseScale = 0.02
)

// salt для независимых потоков случайности стадий
const (
	saltTerrain uint64 = iota + 1
	saltSurface
	saltOre
)

// Generator эталонный генератор: стадия 0 рельеф, стадии 1-2 поверхность и руда
type Generator struct {
	seed    int64
	surface *util.Noise
	caves   *util.Noise
	pops    []world.Populator
}

// New создаёт генератор для сида мира
func New(seed int64) *Generator {
	g := &Generator{}
	g.reseed(seed)
	g.pops = []world.Populator{
		world.PopulatorFunc(populateSurface),
		world.PopulatorFunc(populateOre),
	}
	return g
}

func (g *Generator) reseed(seed int64) {
	g.seed = seed
	g.surface = util.NewNoise(seed, SurfaceScale)
	g.caves = util.NewNoise(seed^0x5eed, CaveNoiseScale)
}

// MaxGenStage возвращает номер последней стадии
func (g *Generator) MaxGenStage() uint8 {
	return uint8(len(g.pops))
}

// Populators возвращает популяторы стадий 1..MaxGenStage
func (g *Generator) Populators() []world.Populator {
	return g.pops
}

// SurfaceAt возвращает мировую Y координату поверхности в столбце x
func (g *Generator) SurfaceAt(x int) int {
	return BaseHeight + int(math.Round((g.surface.At1D(x)-0.5)*Amplitude))
}

// Generate заполняет чанк рельефом
func (g *Generator) Generate(key world.ChunkKey, seed int64, pixels, background []material.Instance, reg *material.Registry) error {
	if len(pixels) != world.ChunkArea || len(background) != world.ChunkArea {
		return fmt.Errorf("буферы чанка %s неверного размера", key)
	}
	if seed != g.seed {
		g.reseed(seed)
	}

	ids, err := lookup(reg, material.NameStone, material.NameDirt, material.NameWater)
	if err != nil {
		return err
	}
	stone, dirt, water := ids[0], ids[1], ids[2]

	rng := util.NewRand(seed, saltTerrain, key.X, key.Y)
	origin := key.Origin()
	for lx := 0; lx < world.ChunkSize; lx++ {
		wx := origin.X + lx
		surface := g.SurfaceAt(wx)
		for ly := 0; ly < world.ChunkSize; ly++ {
			wy := origin.Y + ly
			i := ly*world.ChunkSize + lx

			switch {
			case wy < surface:
				if wy >= WaterLevel {
					pixels[i] = reg.Instance(water)
				}
				continue
			case wy < surface+DirtDepth:
				pixels[i] = reg.InstanceVaried(dirt, rng)
			default:
				pixels[i] = reg.InstanceVaried(stone, rng)
			}

			background[i] = darken(reg.Instance(stone))
			if wy > surface+CaveDepth && g.caves.At2D(wx, wy) > CaveThreshold {
				pixels[i] = material.Air
			}
		}
	}
	return nil
}

func lookup(reg *material.Registry, names ...string) ([]material.ID, error) {
	ids := make([]material.ID, len(names))
	for i, name := range names {
		id, ok := reg.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("материал %q не зарегистрирован", name)
		}
		ids[i] = id
	}
	return ids, nil
}

func darken(inst material.Instance) material.Instance {
	inst.Color.R /= 2
	inst.Color.G /= 2
	inst.Color.B /= 2
	return inst
}
