package material

// ID идентификатор материала. Плотный индекс в Registry.
type ID uint16

// PhysicsType определяет поведение пикселя в симуляции
type PhysicsType uint8

const (
	PhysicsAir PhysicsType = iota
	PhysicsSolid
	PhysicsSand
	PhysicsLiquid
	PhysicsGas
	PhysicsObject
)

// String возвращает имя типа физики
func (p PhysicsType) String() string {
	switch p {
	case PhysicsAir:
		return "air"
	case PhysicsSolid:
		return "solid"
	case PhysicsSand:
		return "sand"
	case PhysicsLiquid:
		return "liquid"
	case PhysicsGas:
		return "gas"
	case PhysicsObject:
		return "object"
	default:
		return "unknown"
	}
}

// ParsePhysicsType разбирает имя типа физики из каталога материалов
func ParsePhysicsType(name string) (PhysicsType, bool) {
	switch name {
	case "air":
		return PhysicsAir, true
	case "solid":
		return PhysicsSolid, true
	case "sand":
		return PhysicsSand, true
	case "liquid":
		return PhysicsLiquid, true
	case "gas":
		return PhysicsGas, true
	case "object":
		return PhysicsObject, true
	}
	return PhysicsAir, false
}

// Color цвет пикселя RGBA8
type Color struct {
	R, G, B, A uint8
}

// Light излучаемый пикселем свет. Нулевое значение не светится.
type Light struct {
	R, G, B uint8
}

// Emits возвращает true, если пиксель излучает свет
func (l Light) Emits() bool {
	return l.R != 0 || l.G != 0 || l.B != 0
}

// Instance содержимое одного пикселя. Дешёвый тип-значение, копируется свободно.
type Instance struct {
	ID      ID
	Physics PhysicsType
	Color   Color
	Light   Light
}

// IsAir возвращает true для пустого пикселя
func (i Instance) IsAir() bool {
	return i.Physics == PhysicsAir
}

// Air пустой пиксель. Всегда имеет ID 0.
var Air = Instance{ID: AirID, Physics: PhysicsAir}

// AirID зарезервированный ID воздуха
const AirID ID = 0
