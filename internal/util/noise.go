package util

import (
	"github.com/aquilax/go-perlin"
)

// Noise генератор шума Перлина с нормализованным выходом [0, 1].
// Каждый экземпляр привязан к своему сиду, глобального состояния нет.
type Noise struct {
	perlin *perlin.Perlin
	scale  float64
}

// NewNoise создаёт генератор шума. scale задаёт частоту: чем меньше, тем глаже рельеф.
func NewNoise(seed int64, scale float64) *Noise {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав
	return &Noise{
		perlin: perlin.NewPerlin(alpha, beta, n, seed),
		scale:  scale,
	}
}

// At2D возвращает значение шума для мировых координат (от 0 до 1)
func (n *Noise) At2D(x, y int) float64 {
	v := n.perlin.Noise2D(float64(x)*n.scale, float64(y)*n.scale)
	return clamp01((v + 1.0) / 2.0)
}

// At1D возвращает одномерный шум (от 0 до 1), используется для профиля поверхности
func (n *Noise) At1D(x int) float64 {
	v := n.perlin.Noise1D(float64(x) * n.scale)
	return clamp01((v + 1.0) / 2.0)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
