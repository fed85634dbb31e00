package physics

import (
	"github.com/annel0/pixelsim/internal/vec"
)

// Hitbox прямоугольный коллайдер внешней сущности в мировых пикселях
type Hitbox struct {
	Center   vec.Vec2Float
	HalfSize vec.Vec2Float
}

// NewHitbox создаёт коллайдер по центру и полной ширине/высоте
func NewHitbox(center vec.Vec2Float, width, height float64) Hitbox {
	return Hitbox{Center: center, HalfSize: vec.Vec2Float{X: width / 2, Y: height / 2}}
}

// Min возвращает левый верхний угол
func (h Hitbox) Min() vec.Vec2Float {
	return h.Center.Sub(h.HalfSize)
}

// Max возвращает правый нижний угол (не включается)
func (h Hitbox) Max() vec.Vec2Float {
	return h.Center.Add(h.HalfSize)
}

// CheckBoxCollision проверяет пересечение двух коллайдеров
func CheckBoxCollision(a, b Hitbox) bool {
	aLo, aHi := a.Min(), a.Max()
	bLo, bHi := b.Min(), b.Max()
	return aHi.X > bLo.X && aLo.X < bHi.X && aHi.Y > bLo.Y && aLo.Y < bHi.Y
}
