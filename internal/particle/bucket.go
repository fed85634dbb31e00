package particle

import (
	"github.com/annel0/pixelsim/internal/vec"
	"github.com/annel0/pixelsim/internal/world"
)

// BucketChunks сторона корзины в чанках
const BucketChunks = 4

// Ограничения перемещения частицы за тик, в пикселях
const (
	// MaxSafeSpeed предел скорости, при котором корзины одной фазы не пересекаются по чанкам
	MaxSafeSpeed = 32
	// BounceLift подъём частицы при отскоке
	BounceLift = 16
	// maxSubsteps число подшагов при максимальной скорости
	maxSubsteps = 8
)

// MaxReach максимальное удаление пикселя, которого частица может коснуться за тик,
// от её позиции в начале тика
func MaxReach() int {
	return MaxSafeSpeed + maxSubsteps*BounceLift + world.DisplaceWindow/2 + 1
}

// BucketKey координаты корзины
type BucketKey struct {
	X, Y int
}

// BucketOf возвращает корзину чанка
func BucketOf(key world.ChunkKey) BucketKey {
	return BucketKey{
		X: vec.FloorDiv(int(key.X), BucketChunks),
		Y: vec.FloorDiv(int(key.Y), BucketChunks),
	}
}

// Phase шахматная фаза корзины 0..3. Корзины одной фазы разделены хотя бы одной
// корзиной по каждой оси, где они различаются.
func (b BucketKey) Phase() int {
	return (b.X & 1) | (b.Y&1)<<1
}

func compareBuckets(a, b BucketKey) int {
	if a.Y != b.Y {
		return a.Y - b.Y
	}
	return a.X - b.X
}
