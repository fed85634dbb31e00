package material

import (
	"fmt"
	"math/rand/v2"
)

// Material описание материала в реестре
type Material struct {
	ID      ID
	Name    string
	Physics PhysicsType
	Color   Color
	// Разброс яркости при создании экземпляра (0 без разброса)
	ColorVariance uint8
	Light         Light
}

// Registry реестр материалов: плотный массив описаний + индекс по имени.
// Заполняется при загрузке, дальше только читается; горячий код работает с ID.
type Registry struct {
	materials []Material
	byName    map[string]ID
}

// NewRegistry создаёт реестр, в котором уже зарегистрирован воздух
func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]ID),
	}
	r.materials = append(r.materials, Material{ID: AirID, Name: "air", Physics: PhysicsAir})
	r.byName["air"] = AirID
	return r
}

// Register добавляет материал и возвращает его ID
func (r *Registry) Register(m Material) (ID, error) {
	if m.Name == "" {
		return 0, fmt.Errorf("материал без имени")
	}
	if _, exists := r.byName[m.Name]; exists {
		return 0, fmt.Errorf("материал %q уже зарегистрирован", m.Name)
	}
	if len(r.materials) > int(^ID(0)) {
		return 0, fmt.Errorf("реестр материалов переполнен")
	}

	m.ID = ID(len(r.materials))
	r.materials = append(r.materials, m)
	r.byName[m.Name] = m.ID
	return m.ID, nil
}

// MustRegister как Register, но паникует при ошибке (для встроенных материалов)
func (r *Registry) MustRegister(m Material) ID {
	id, err := r.Register(m)
	if err != nil {
		panic(err)
	}
	return id
}

// Get возвращает описание материала по ID
func (r *Registry) Get(id ID) (Material, bool) {
	if int(id) >= len(r.materials) {
		return Material{}, false
	}
	return r.materials[id], true
}

// Lookup ищет ID материала по имени
func (r *Registry) Lookup(name string) (ID, bool) {
	id, ok := r.byName[name]
	return id, ok
}

// Len возвращает количество материалов (включая воздух)
func (r *Registry) Len() int {
	return len(r.materials)
}

// Instance создаёт экземпляр материала с базовым цветом.
// Неизвестный ID даёт воздух.
func (r *Registry) Instance(id ID) Instance {
	m, ok := r.Get(id)
	if !ok {
		return Air
	}
	return Instance{ID: m.ID, Physics: m.Physics, Color: m.Color, Light: m.Light}
}

// InstanceVaried создаёт экземпляр с разбросом яркости из детерминированного rng
func (r *Registry) InstanceVaried(id ID, rng *rand.Rand) Instance {
	inst := r.Instance(id)
	m, ok := r.Get(id)
	if !ok || m.ColorVariance == 0 || rng == nil {
		return inst
	}

	delta := rng.IntN(int(m.ColorVariance)*2+1) - int(m.ColorVariance)
	inst.Color.R = shade(inst.Color.R, delta)
	inst.Color.G = shade(inst.Color.G, delta)
	inst.Color.B = shade(inst.Color.B, delta)
	return inst
}

func shade(c uint8, delta int) uint8 {
	v := int(c) + delta
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Имена встроенных материалов
const (
	NameStone = "stone"
	NameDirt  = "dirt"
	NameGrass = "grass"
	NameSand  = "sand"
	NameWater = "water"
	NameSteam = "steam"
	NameWood  = "wood"
	NameOre   = "ore"
)

// DefaultRegistry возвращает реестр со встроенными материалами
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(Material{Name: NameStone, Physics: PhysicsSolid, Color: Color{R: 110, G: 110, B: 115, A: 255}, ColorVariance: 12})
	r.MustRegister(Material{Name: NameDirt, Physics: PhysicsSolid, Color: Color{R: 120, G: 85, B: 50, A: 255}, ColorVariance: 10})
	r.MustRegister(Material{Name: NameGrass, Physics: PhysicsSolid, Color: Color{R: 70, G: 150, B: 60, A: 255}, ColorVariance: 15})
	r.MustRegister(Material{Name: NameSand, Physics: PhysicsSand, Color: Color{R: 220, G: 195, B: 120, A: 255}, ColorVariance: 14})
	r.MustRegister(Material{Name: NameWater, Physics: PhysicsLiquid, Color: Color{R: 40, G: 90, B: 200, A: 180}})
	r.MustRegister(Material{Name: NameSteam, Physics: PhysicsGas, Color: Color{R: 200, G: 200, B: 210, A: 120}, ColorVariance: 6})
	r.MustRegister(Material{Name: NameWood, Physics: PhysicsObject, Color: Color{R: 140, G: 95, B: 55, A: 255}, ColorVariance: 8})
	r.MustRegister(Material{Name: NameOre, Physics: PhysicsSolid, Color: Color{R: 190, G: 140, B: 60, A: 255}, ColorVariance: 20, Light: Light{R: 30, G: 20}})
	return r
}
