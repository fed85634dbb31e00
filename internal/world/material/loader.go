package material

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile формат YAML-каталога материалов
type catalogFile struct {
	Materials []catalogEntry `yaml:"materials"`
}

type catalogEntry struct {
	Name     string   `yaml:"name"`
	Physics  string   `yaml:"physics"`
	Color    [4]uint8 `yaml:"color"`
	Variance uint8    `yaml:"variance"`
	Light    [3]uint8 `yaml:"light"`
}

// LoadYAML загружает каталог материалов из файла поверх встроенных материалов
func LoadYAML(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение каталога материалов %s: %w", path, err)
	}
	return ParseYAML(data, DefaultRegistry())
}

// ParseYAML регистрирует материалы из YAML в переданном реестре.
// Материалы с уже существующими именами считаются ошибкой.
func ParseYAML(data []byte, r *Registry) (*Registry, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("разбор каталога материалов: %w", err)
	}

	for i, e := range file.Materials {
		physics, ok := ParsePhysicsType(e.Physics)
		if !ok {
			return nil, fmt.Errorf("материал #%d %q: неизвестный тип физики %q", i, e.Name, e.Physics)
		}
		if physics == PhysicsAir {
			return nil, fmt.Errorf("материал #%d %q: тип air зарезервирован", i, e.Name)
		}

		_, err := r.Register(Material{
			Name:          e.Name,
			Physics:       physics,
			Color:         Color{R: e.Color[0], G: e.Color[1], B: e.Color[2], A: e.Color[3]},
			ColorVariance: e.Variance,
			Light:         Light{R: e.Light[0], G: e.Light[1], B: e.Light[2]},
		})
		if err != nil {
			return nil, fmt.Errorf("материал #%d: %w", i, err)
		}
	}

	return r, nil
}
