package world

import "github.com/annel0/pixelsim/internal/world/material"

// DisplaceWindow сторона квадратного окна поиска свободного пикселя
const DisplaceWindow = 32

// spiral направления обхода: вправо, вниз, влево, вверх
var spiral = [4][2]int{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

// DisplacePixel ищет ближайший пиксель воздуха по раскручивающейся спирали вокруг (x, y)
// и записывает туда inst. Длина шага растёт после каждых двух отрезков. Поиск
// ограничен окном DisplaceWindow x DisplaceWindow; незагруженные пиксели пропускаются.
func (m *Manager) DisplacePixel(x, y int, inst material.Instance) bool {
	if m.tryDisplace(x, y, inst) {
		return true
	}

	const half = DisplaceWindow / 2
	cx, cy := x, y
	dir := 0
	for stepLen := 1; stepLen <= DisplaceWindow; {
		for seg := 0; seg < 2; seg++ {
			d := spiral[dir]
			for i := 0; i < stepLen; i++ {
				cx += d[0]
				cy += d[1]
				if cx-x < -half || cx-x >= half || cy-y < -half || cy-y >= half {
					continue
				}
				if m.tryDisplace(cx, cy, inst) {
					return true
				}
			}
			dir = (dir + 1) % 4
		}
		stepLen++
	}
	return false
}

func (m *Manager) tryDisplace(x, y int, inst material.Instance) bool {
	c, lx, ly, err := m.resolve(x, y)
	if err != nil || !c.Ready() {
		return false
	}
	if !c.PixelUnchecked(lx, ly).IsAir() {
		return false
	}
	c.SetPixelUnchecked(lx, ly, inst)
	c.MarkDirty(lx, ly)
	m.markWake(x, y)
	return true
}
