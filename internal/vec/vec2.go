package vec

// Vec2 представляет 2D целочисленные координаты пикселя или чанка
type Vec2 struct {
	X, Y int
}

// Add складывает два вектора
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// FloorDiv делит с округлением к минус бесконечности.
// Для отрицательных мировых координат обычное деление Go дало бы неверный чанк.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// EuclidRem возвращает неотрицательный остаток от деления (0 <= r < |b|)
func EuclidRem(a, b int) int {
	r := a % b
	if r < 0 {
		if b < 0 {
			r -= b
		} else {
			r += b
		}
	}
	return r
}
