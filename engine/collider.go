package engine

import "github.com/go-gl/mathgl/mgl32"

// ColliderType selects the primitive a collider compiles to.
type ColliderType int

const (
	ColliderBox ColliderType = iota
	ColliderSphere
	ColliderCapsule
)

func (t ColliderType) String() string {
	switch t {
	case ColliderSphere:
		return "sphere"
	case ColliderCapsule:
		return "capsule"
	default:
		return "box"
	}
}

// ColliderDesc is a plain-data shape declaration attached to an entity.
// It is immutable once baked into a physics shape; changing one means
// rebuilding the owning body.
type ColliderDesc struct {
	Type          ColliderType
	CenterOffset  mgl32.Vec3
	LocalRotation mgl32.Quat
	Size          mgl32.Vec3
}

// DefaultBoxCollider is a unit box centered on the entity.
func DefaultBoxCollider() ColliderDesc {
	return ColliderDesc{
		Type:          ColliderBox,
		LocalRotation: mgl32.QuatIdent(),
		Size:          mgl32.Vec3{1, 1, 1},
	}
}

// DefaultSphereCollider is a unit-diameter sphere centered on the entity.
func DefaultSphereCollider() ColliderDesc {
	return ColliderDesc{
		Type:          ColliderSphere,
		LocalRotation: mgl32.QuatIdent(),
		Size:          mgl32.Vec3{1, 1, 1},
	}
}

// DefaultPlaneCollider is a wide box with a thin but non-zero vertical
// extent; the solver rejects half extents below its convex radius.
func DefaultPlaneCollider() ColliderDesc {
	return ColliderDesc{
		Type:          ColliderBox,
		LocalRotation: mgl32.QuatIdent(),
		Size:          mgl32.Vec3{1, 0.2, 1},
	}
}
