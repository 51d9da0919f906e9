package prefab

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/kiln3d/kiln/common"
	"github.com/kiln3d/kiln/engine"
)

// EntitySpec is a declarative spawn template for one entity.
type EntitySpec struct {
	Name      string         `yaml:"name"`
	Shape     string         `yaml:"shape"`
	Shader    string         `yaml:"shader"`
	Color     *HexColor      `yaml:"color"`
	Dynamic   bool           `yaml:"dynamic"`
	Script    string         `yaml:"script"`
	Transform TransformSpec  `yaml:"transform"`
	Colliders []ColliderSpec `yaml:"colliders"`
}

type TransformSpec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`

	ScaleX float64 `yaml:"scale_x"`
	ScaleY float64 `yaml:"scale_y"`
	ScaleZ float64 `yaml:"scale_z"`

	RotationX float64 `yaml:"rotation_x"`
	RotationY float64 `yaml:"rotation_y"`
	RotationZ float64 `yaml:"rotation_z"`
}

type ColliderSpec struct {
	Type string `yaml:"type"`

	SizeX float64 `yaml:"size_x"`
	SizeY float64 `yaml:"size_y"`
	SizeZ float64 `yaml:"size_z"`

	OffsetX float64 `yaml:"offset_x"`
	OffsetY float64 `yaml:"offset_y"`
	OffsetZ float64 `yaml:"offset_z"`

	RotationX float64 `yaml:"rotation_x"`
	RotationY float64 `yaml:"rotation_y"`
	RotationZ float64 `yaml:"rotation_z"`
}

// LoadSpec reads and unmarshals a yaml spec file.
func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := os.ReadFile(filename)
	if err != nil {
		return zero, fmt.Errorf("prefab: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefab: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// ParseSpec unmarshals a yaml spec from memory.
func ParseSpec[T any](data []byte) (T, error) {
	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		var zero T
		return zero, fmt.Errorf("prefab: unmarshal: %w", err)
	}
	return spec, nil
}

// Spawn instantiates the spec through the entity system and returns the
// new entity ID, -1 on failure.
func Spawn(es *engine.EntitySystem, spec EntitySpec) int {
	if es == nil {
		return -1
	}

	proto := engine.Entity{
		Name:      spec.Name,
		Shape:     parseShape(spec.Shape),
		Shader:    spec.Shader,
		IsDynamic: spec.Dynamic,
		Color:     mgl32.Vec3{1, 1, 1},
		Transform: engine.Transform{
			Position: mgl32.Vec3{float32(spec.Transform.X), float32(spec.Transform.Y), float32(spec.Transform.Z)},
			Rotation: mgl32.Vec3{float32(spec.Transform.RotationX), float32(spec.Transform.RotationY), float32(spec.Transform.RotationZ)},
			Scale:    scaleOrUnit(spec.Transform),
		},
	}
	if spec.Color != nil {
		proto.Color = mgl32.Vec3(*spec.Color)
	}
	for _, c := range spec.Colliders {
		proto.Colliders = append(proto.Colliders, colliderFromSpec(c))
	}

	return es.SpawnEntity(proto)
}

func parseShape(s string) engine.Shape {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sphere":
		return engine.ShapeSphere
	case "plane":
		return engine.ShapePlane
	default:
		return engine.ShapeCube
	}
}

// scaleOrUnit defaults each unspecified axis to 1, so a spec declaring
// only scale_x keeps unit scale on the other axes.
func scaleOrUnit(t TransformSpec) mgl32.Vec3 {
	s := mgl32.Vec3{float32(t.ScaleX), float32(t.ScaleY), float32(t.ScaleZ)}
	for i := 0; i < 3; i++ {
		if s[i] == 0 {
			s[i] = 1
		}
	}
	return s
}

func colliderFromSpec(c ColliderSpec) engine.ColliderDesc {
	var typ engine.ColliderType
	switch strings.ToLower(strings.TrimSpace(c.Type)) {
	case "sphere":
		typ = engine.ColliderSphere
	case "capsule":
		typ = engine.ColliderCapsule
	default:
		typ = engine.ColliderBox
	}
	size := mgl32.Vec3{float32(c.SizeX), float32(c.SizeY), float32(c.SizeZ)}
	if size == (mgl32.Vec3{}) {
		size = mgl32.Vec3{1, 1, 1}
	}
	return engine.ColliderDesc{
		Type:         typ,
		CenterOffset: mgl32.Vec3{float32(c.OffsetX), float32(c.OffsetY), float32(c.OffsetZ)},
		LocalRotation: common.EulerToQuat(mgl32.Vec3{
			float32(c.RotationX), float32(c.RotationY), float32(c.RotationZ),
		}),
		Size: size,
	}
}

// HexColor parses "#rrggbb" or "#rrggbbaa" into normalized RGB.
type HexColor mgl32.Vec3

func (c *HexColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}

	s := strings.TrimPrefix(value.Value, "#")
	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	parse := func(start int) (float32, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return float32(v) / 255.0, err
	}

	r, err := parse(0)
	if err != nil {
		return err
	}
	g, err := parse(2)
	if err != nil {
		return err
	}
	b, err := parse(4)
	if err != nil {
		return err
	}

	*c = HexColor{r, g, b}
	return nil
}
