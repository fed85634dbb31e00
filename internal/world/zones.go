package world

import (
	"math"

	"github.com/annel0/pixelsim/internal/config"
	"github.com/annel0/pixelsim/internal/vec"
)

// Zones набор вложенных зон одного загрузчика: Screen ⊆ Active ⊆ Load ⊆ Unload
type Zones struct {
	Screen Rect
	Active Rect
	Load   Rect
	Unload Rect
}

// ScreenZone прямоугольник видимой области загрузчика. Масштаб растягивает экран.
func ScreenZone(center vec.Vec2, scale float64, cfg config.ZoneConfig) Rect {
	if scale <= 0 {
		scale = 1
	}
	hw := int(math.Ceil(float64(cfg.ScreenWidth) * scale / 2))
	hh := int(math.Ceil(float64(cfg.ScreenHeight) * scale / 2))
	return Rect{MinX: center.X - hw, MinY: center.Y - hh, MaxX: center.X + hw, MaxY: center.Y + hh}
}

// ActiveZone область, в которой чанки симулируются
func ActiveZone(center vec.Vec2, scale float64, cfg config.ZoneConfig) Rect {
	return ScreenZone(center, scale, cfg).Inflate(cfg.ActiveMargin)
}

// LoadZone область, чанки которой ставятся в очередь загрузки
func LoadZone(center vec.Vec2, scale float64, cfg config.ZoneConfig) Rect {
	return ActiveZone(center, scale, cfg).Inflate(cfg.LoadMargin)
}

// UnloadZone область, за пределами которой чанки выгружаются
func UnloadZone(center vec.Vec2, scale float64, cfg config.ZoneConfig) Rect {
	return LoadZone(center, scale, cfg).Inflate(cfg.UnloadMargin)
}

// ComputeZones вычисляет все зоны загрузчика
func ComputeZones(center vec.Vec2, scale float64, cfg config.ZoneConfig) Zones {
	screen := ScreenZone(center, scale, cfg)
	active := screen.Inflate(cfg.ActiveMargin)
	load := active.Inflate(cfg.LoadMargin)
	return Zones{
		Screen: screen,
		Active: active,
		Load:   load,
		Unload: load.Inflate(cfg.UnloadMargin),
	}
}

func anyIntersects(rects []Rect, r Rect) bool {
	for _, z := range rects {
		if z.Intersects(r) {
			return true
		}
	}
	return false
}
