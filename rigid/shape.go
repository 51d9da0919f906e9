package rigid

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ConvexRadius is the rounding margin applied to box edges. Half extents
// below it are not representable, so box construction shrinks the margin
// instead of rejecting thin shapes outright.
const ConvexRadius float32 = 0.05

// AABB is an axis-aligned box in the shape's local space.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func (b AABB) translated(p mgl32.Vec3) AABB {
	return AABB{Min: b.Min.Add(p), Max: b.Max.Add(p)}
}

func (b AABB) overlaps(o AABB) bool {
	for i := 0; i < 3; i++ {
		if b.Max[i] < o.Min[i] || o.Max[i] < b.Min[i] {
			return false
		}
	}
	return true
}

// Shape is collision geometry shared between bodies. Shapes are immutable
// after construction; rescaling goes through ScaledShape rather than
// mutating the base geometry.
type Shape interface {
	// LocalBounds is the shape's conservative AABB around its local origin,
	// ignoring body rotation.
	LocalBounds() AABB
}

type BoxShape struct {
	HalfExtents mgl32.Vec3
	convex      float32
}

// NewBoxShape builds a box from half extents. Each half extent must be
// positive; the convex radius shrinks to fit thin boxes.
func NewBoxShape(halfExtents mgl32.Vec3) (*BoxShape, error) {
	convex := ConvexRadius
	for i := 0; i < 3; i++ {
		if halfExtents[i] <= 0 {
			return nil, fmt.Errorf("rigid: box half extent %d is %v, must be > 0", i, halfExtents[i])
		}
		if halfExtents[i] < convex {
			convex = halfExtents[i]
		}
	}
	return &BoxShape{HalfExtents: halfExtents, convex: convex}, nil
}

func (s *BoxShape) LocalBounds() AABB {
	return AABB{Min: s.HalfExtents.Mul(-1), Max: s.HalfExtents}
}

type SphereShape struct {
	Radius float32
}

func NewSphereShape(radius float32) (*SphereShape, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("rigid: sphere radius is %v, must be > 0", radius)
	}
	return &SphereShape{Radius: radius}, nil
}

func (s *SphereShape) LocalBounds() AABB {
	r := mgl32.Vec3{s.Radius, s.Radius, s.Radius}
	return AABB{Min: r.Mul(-1), Max: r}
}

// CapsuleShape is a sphere-capped cylinder along the local Y axis.
// HalfHeight measures the cylindrical section only.
type CapsuleShape struct {
	HalfHeight float32
	Radius     float32
}

func NewCapsuleShape(halfHeight, radius float32) (*CapsuleShape, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("rigid: capsule radius is %v, must be > 0", radius)
	}
	if halfHeight < 0 {
		return nil, fmt.Errorf("rigid: capsule half height is %v, must be >= 0", halfHeight)
	}
	return &CapsuleShape{HalfHeight: halfHeight, Radius: radius}, nil
}

func (s *CapsuleShape) LocalBounds() AABB {
	return AABB{
		Min: mgl32.Vec3{-s.Radius, -s.HalfHeight - s.Radius, -s.Radius},
		Max: mgl32.Vec3{s.Radius, s.HalfHeight + s.Radius, s.Radius},
	}
}

// CompoundChild positions a sub-shape inside a CompoundShape.
type CompoundChild struct {
	Offset   mgl32.Vec3
	Rotation mgl32.Quat
	Shape    Shape
}

type CompoundShape struct {
	children []CompoundChild
}

// NewCompoundShape builds a compound from at least one positioned child.
func NewCompoundShape(children []CompoundChild) (*CompoundShape, error) {
	if len(children) == 0 {
		return nil, fmt.Errorf("rigid: compound shape needs at least one child")
	}
	for i, c := range children {
		if c.Shape == nil {
			return nil, fmt.Errorf("rigid: compound child %d has nil shape", i)
		}
	}
	return &CompoundShape{children: append([]CompoundChild(nil), children...)}, nil
}

// Children returns the positioned sub-shapes.
func (s *CompoundShape) Children() []CompoundChild {
	out := make([]CompoundChild, 0, len(s.children))
	return append(out, s.children...)
}

func (s *CompoundShape) LocalBounds() AABB {
	bounds := AABB{}
	for i, c := range s.children {
		// Child rotation is folded into a conservative bound: take the
		// child's bounding-sphere extent so any rotation fits.
		cb := c.Shape.LocalBounds()
		r := cb.Max.Len()
		if cb.Min.Len() > r {
			r = cb.Min.Len()
		}
		ext := mgl32.Vec3{r, r, r}
		b := AABB{Min: ext.Mul(-1), Max: ext}.translated(c.Offset)
		if i == 0 {
			bounds = b
			continue
		}
		for j := 0; j < 3; j++ {
			if b.Min[j] < bounds.Min[j] {
				bounds.Min[j] = b.Min[j]
			}
			if b.Max[j] > bounds.Max[j] {
				bounds.Max[j] = b.Max[j]
			}
		}
	}
	return bounds
}

// ScaledShape reapplies a scale factor to an inner base shape without
// rebuilding the base geometry.
type ScaledShape struct {
	inner Shape
	scale mgl32.Vec3
}

// NewScaledShape wraps inner with a scale vector. Wrapping an already
// scaled shape is rejected so scale is never applied twice; callers must
// unwrap to the base shape first. A sphere inner collapses the scale to a
// uniform factor of the largest component, since a non-uniform sphere is
// not representable and must not silently become an ellipsoid.
func NewScaledShape(inner Shape, scale mgl32.Vec3) (*ScaledShape, error) {
	if inner == nil {
		return nil, fmt.Errorf("rigid: scaled shape needs an inner shape")
	}
	if _, ok := inner.(*ScaledShape); ok {
		return nil, fmt.Errorf("rigid: refusing to wrap an already scaled shape")
	}
	for i := 0; i < 3; i++ {
		if scale[i] <= 0 {
			return nil, fmt.Errorf("rigid: scale component %d is %v, must be > 0", i, scale[i])
		}
	}
	if _, ok := inner.(*SphereShape); ok {
		m := scale.X()
		if scale.Y() > m {
			m = scale.Y()
		}
		if scale.Z() > m {
			m = scale.Z()
		}
		scale = mgl32.Vec3{m, m, m}
	}
	return &ScaledShape{inner: inner, scale: scale}, nil
}

// Inner returns the unscaled base shape.
func (s *ScaledShape) Inner() Shape {
	return s.inner
}

// Scale returns the applied scale vector (uniform for sphere inners).
func (s *ScaledShape) Scale() mgl32.Vec3 {
	return s.scale
}

func (s *ScaledShape) LocalBounds() AABB {
	b := s.inner.LocalBounds()
	for i := 0; i < 3; i++ {
		b.Min[i] *= s.scale[i]
		b.Max[i] *= s.scale[i]
	}
	return b
}
