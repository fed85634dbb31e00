package worldgen

import (
	"github.com/annel0/pixelsim/internal/util"
	"github.com/annel0/pixelsim/internal/world"
	"github.com/annel0/pixelsim/internal/world/material"
)

const (
	// Вероятность песчаного пляжа в столбце у воды
	beachChance   = 0.6
	veinsPerChunk = 3
	veinLength    = 24
)

// populateSurface покрывает землю травой, а берега у воды песком
func populateSurface(r world.Region, seed int64, reg *material.Registry) error {
	ids, err := lookup(reg, material.NameDirt, material.NameGrass, material.NameSand)
	if err != nil {
		return err
	}
	dirt, grass, sand := ids[0], ids[1], ids[2]
	rng := util.NewRand(seed, saltSurface, r.Center.Key.X, r.Center.Key.Y)

	for lx := 0; lx < world.ChunkSize; lx++ {
		for ly := 0; ly < world.ChunkSize; ly++ {
			cur, _ := r.Pixel(lx, ly)
			if cur.ID != dirt {
				continue
			}
			above, ok := r.Pixel(lx, ly-1)
			if !ok {
				continue
			}
			switch {
			case above.IsAir():
				r.SetPixel(lx, ly, reg.InstanceVaried(grass, rng))
			case above.Physics == material.PhysicsLiquid && rng.Float64() < beachChance:
				r.SetPixel(lx, ly, reg.InstanceVaried(sand, rng))
			}
		}
	}
	return nil
}

// populateOre прокладывает рудные жилы случайным блужданием.
// Жилы могут заходить в соседние чанки.
func populateOre(r world.Region, seed int64, reg *material.Registry) error {
	ids, err := lookup(reg, material.NameStone, material.NameOre)
	if err != nil {
		return err
	}
	stone, ore := ids[0], ids[1]
	rng := util.NewRand(seed, saltOre, r.Center.Key.X, r.Center.Key.Y)

	for v := 0; v < veinsPerChunk; v++ {
		x, y := rng.IntN(world.ChunkSize), rng.IntN(world.ChunkSize)
		for step := 0; step < veinLength; step++ {
			if cur, ok := r.Pixel(x, y); ok && cur.ID == stone {
				r.SetPixel(x, y, reg.InstanceVaried(ore, rng))
			}
			x += rng.IntN(3) - 1
			y += rng.IntN(3) - 1
		}
	}
	return nil
}
