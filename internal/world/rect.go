package world

// Rect полуоткрытый прямоугольник [Min, Max). Пустой, если ширина или высота <= 0.
type Rect struct {
	MinX, MinY int
	MaxX, MaxY int
}

// RectXYWH создаёт прямоугольник по углу и размеру
func RectXYWH(x, y, w, h int) Rect {
	return Rect{MinX: x, MinY: y, MaxX: x + w, MaxY: y + h}
}

// Empty возвращает true для пустого прямоугольника
func (r Rect) Empty() bool {
	return r.MinX >= r.MaxX || r.MinY >= r.MaxY
}

func (r Rect) Width() int  { return r.MaxX - r.MinX }
func (r Rect) Height() int { return r.MaxY - r.MinY }

// Contains проверяет попадание точки
func (r Rect) Contains(x, y int) bool {
	return x >= r.MinX && x < r.MaxX && y >= r.MinY && y < r.MaxY
}

// ContainsRect проверяет, что o целиком лежит внутри r. Пустой o содержится в любом.
func (r Rect) ContainsRect(o Rect) bool {
	if o.Empty() {
		return true
	}
	return o.MinX >= r.MinX && o.MaxX <= r.MaxX && o.MinY >= r.MinY && o.MaxY <= r.MaxY
}

// Intersects проверяет пересечение двух прямоугольников
func (r Rect) Intersects(o Rect) bool {
	return !r.Intersect(o).Empty()
}

// Intersect возвращает пересечение
func (r Rect) Intersect(o Rect) Rect {
	res := Rect{
		MinX: max(r.MinX, o.MinX),
		MinY: max(r.MinY, o.MinY),
		MaxX: min(r.MaxX, o.MaxX),
		MaxY: min(r.MaxY, o.MaxY),
	}
	if res.Empty() {
		return Rect{}
	}
	return res
}

// Union возвращает наименьший прямоугольник, содержащий оба
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	return Rect{
		MinX: min(r.MinX, o.MinX),
		MinY: min(r.MinY, o.MinY),
		MaxX: max(r.MaxX, o.MaxX),
		MaxY: max(r.MaxY, o.MaxY),
	}
}

// Include расширяет прямоугольник до точки
func (r Rect) Include(x, y int) Rect {
	return r.Union(Rect{MinX: x, MinY: y, MaxX: x + 1, MaxY: y + 1})
}

// Inflate расширяет прямоугольник на n во все стороны
func (r Rect) Inflate(n int) Rect {
	if r.Empty() {
		return r
	}
	return Rect{MinX: r.MinX - n, MinY: r.MinY - n, MaxX: r.MaxX + n, MaxY: r.MaxY + n}
}

// chunkRect прямоугольник всего чанка в локальных координатах
var chunkRect = Rect{MaxX: ChunkSize, MaxY: ChunkSize}

// FullChunkRect возвращает локальный прямоугольник всего чанка
func FullChunkRect() Rect {
	return chunkRect
}
