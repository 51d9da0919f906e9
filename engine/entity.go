package engine

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/kiln3d/kiln/rigid"
)

// Shape selects an entity's visual primitive. It also picks the default
// collider when the entity declares none.
type Shape int

const (
	ShapeCube Shape = iota
	ShapeSphere
	ShapePlane
)

func (s Shape) String() string {
	switch s {
	case ShapeSphere:
		return "sphere"
	case ShapePlane:
		return "plane"
	default:
		return "cube"
	}
}

// Transform is the authoritative visual pose. Rotation is Euler degrees;
// physics overwrites position/rotation each frame for dynamic bodies.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3
}

// Entity is stored by value in the entity system's dense array; its ID
// equals its array index for the entity's whole lifetime.
type Entity struct {
	ID   int
	Name string

	Transform Transform
	Shape     Shape
	Shader    string
	Color     mgl32.Vec3

	// Active is a soft-delete flag; the slot is never reclaimed.
	Active bool

	HasPhysics bool
	IsDynamic  bool
	Body       rigid.BodyID
	Colliders  []ColliderDesc

	OnSpawn   func(e *Entity)
	OnUpdate  func(e *Entity, dt float32)
	OnDestroy func(e *Entity)
}
