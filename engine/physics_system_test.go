package engine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiln3d/kiln/rigid"
)

func newTestPhysics(t *testing.T) *PhysicsSystem {
	t.Helper()
	ps := NewPhysicsSystem()
	require.True(t, ps.Initialize())
	t.Cleanup(func() {
		if ps.initialized {
			ps.Shutdown()
		}
	})
	return ps
}

func TestInitializeGuards(t *testing.T) {
	ps := NewPhysicsSystem()

	t.Run("shutdown_before_init_rejected", func(t *testing.T) {
		assert.False(t, ps.Shutdown())
	})

	t.Run("init_succeeds_once", func(t *testing.T) {
		assert.True(t, ps.Initialize())
		assert.False(t, ps.Initialize(), "double init must be rejected")
	})

	t.Run("shutdown_then_reinit", func(t *testing.T) {
		assert.True(t, ps.Shutdown())
		assert.False(t, ps.Shutdown())
		assert.True(t, ps.Initialize())
		require.True(t, ps.Shutdown())
	})
}

func TestUninitializedOperationsNoOp(t *testing.T) {
	ps := NewPhysicsSystem()
	e := &Entity{ID: 0, Shape: ShapeCube, Transform: Transform{Scale: mgl32.Vec3{1, 1, 1}}}

	assert.False(t, ps.CreatePhysicsBody(e).Valid())
	assert.False(t, e.HasPhysics)
	assert.Equal(t, mgl32.Vec3{}, ps.GetBodyPosition(rigid.InvalidBodyID))
	ps.AddForce(rigid.InvalidBodyID, mgl32.Vec3{1, 0, 0})
	ps.MakeBodyStatic(rigid.InvalidBodyID)
	assert.False(t, ps.RecreateBodyWithScale(rigid.InvalidBodyID, mgl32.Vec3{1, 1, 1}))
}

func TestDefaultColliderSynthesis(t *testing.T) {
	cases := []struct {
		name      string
		shape     Shape
		wantType  ColliderType
		wantSizeY float32
	}{
		{"cube_gets_box", ShapeCube, ColliderBox, 1},
		{"sphere_gets_sphere", ShapeSphere, ColliderSphere, 1},
		{"plane_gets_thin_box", ShapePlane, ColliderBox, 0.2},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ps := newTestPhysics(t)
			e := &Entity{ID: 0, Shape: c.shape, Transform: Transform{Scale: mgl32.Vec3{1, 1, 1}}}
			id := ps.CreatePhysicsBody(e)
			require.True(t, id.Valid())

			require.Len(t, e.Colliders, 1, "exactly one default collider")
			assert.Equal(t, c.wantType, e.Colliders[0].Type)
			assert.InDelta(t, c.wantSizeY, e.Colliders[0].Size.Y(), 1e-6)
		})
	}
}

func TestMappingConsistency(t *testing.T) {
	ps := newTestPhysics(t)
	e := &Entity{ID: 7, Shape: ShapeCube, IsDynamic: true, Transform: Transform{Scale: mgl32.Vec3{1, 1, 1}}}

	requireMapped := func(t *testing.T) {
		t.Helper()
		mapped, ok := ps.BodyFor(e.ID)
		require.True(t, ok)
		require.True(t, e.HasPhysics)
		require.Equal(t, e.Body, mapped)
		require.True(t, mapped.Valid())
	}

	id := ps.CreatePhysicsBody(e)
	require.True(t, id.Valid())
	requireMapped(t)

	ps.MakeBodyStatic(e.Body)
	requireMapped(t)
	ps.MakeBodyDynamic(e.Body)
	requireMapped(t)

	require.True(t, ps.UpdatePhysicsBody(e))
	requireMapped(t)

	ps.RemovePhysicsBody(e)
	_, ok := ps.BodyFor(e.ID)
	assert.False(t, ok)
	assert.False(t, e.HasPhysics)
	assert.False(t, e.Body.Valid())

	// Removing again is a safe no-op.
	ps.RemovePhysicsBody(e)
}

func TestShapeCompilationScaling(t *testing.T) {
	t.Run("box_wrapped_with_entity_scale", func(t *testing.T) {
		ps := newTestPhysics(t)
		e := &Entity{ID: 0, Shape: ShapeCube, Transform: Transform{Scale: mgl32.Vec3{2, 1, 4}}}
		require.True(t, ps.CreatePhysicsBody(e).Valid())

		scaled, ok := ps.BodyShape(e.Body).(*rigid.ScaledShape)
		require.True(t, ok)
		assert.Equal(t, mgl32.Vec3{2, 1, 4}, scaled.Scale())
		box, ok := scaled.Inner().(*rigid.BoxShape)
		require.True(t, ok)
		assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, box.HalfExtents)
	})

	t.Run("sphere_collapses_to_largest_axis", func(t *testing.T) {
		ps := newTestPhysics(t)
		e := &Entity{ID: 0, Shape: ShapeSphere, Transform: Transform{Scale: mgl32.Vec3{2, 1, 4}}}
		require.True(t, ps.CreatePhysicsBody(e).Valid())

		scaled, ok := ps.BodyShape(e.Body).(*rigid.ScaledShape)
		require.True(t, ok)
		assert.Equal(t, mgl32.Vec3{4, 4, 4}, scaled.Scale(), "non-uniform sphere scale must collapse, never an ellipsoid")
		sphere, ok := scaled.Inner().(*rigid.SphereShape)
		require.True(t, ok)
		assert.InDelta(t, 0.5, sphere.Radius, 1e-6)
	})

	t.Run("degenerate_scale_clamped", func(t *testing.T) {
		ps := newTestPhysics(t)
		e := &Entity{ID: 0, Shape: ShapeCube, Transform: Transform{Scale: mgl32.Vec3{0, 1, 1}}}
		require.True(t, ps.CreatePhysicsBody(e).Valid())

		scaled := ps.BodyShape(e.Body).(*rigid.ScaledShape)
		assert.InDelta(t, minShapeScale, scaled.Scale().X(), 1e-6)
	})

	t.Run("multiple_colliders_become_compound", func(t *testing.T) {
		ps := newTestPhysics(t)
		e := &Entity{
			ID:        0,
			Shape:     ShapeCube,
			Transform: Transform{Scale: mgl32.Vec3{1, 1, 1}},
			Colliders: []ColliderDesc{
				DefaultBoxCollider(),
				{Type: ColliderSphere, CenterOffset: mgl32.Vec3{0, 1, 0}, LocalRotation: mgl32.QuatIdent(), Size: mgl32.Vec3{1, 1, 1}},
				{Type: ColliderCapsule, CenterOffset: mgl32.Vec3{0, -1, 0}, LocalRotation: mgl32.QuatIdent(), Size: mgl32.Vec3{0.5, 2, 0.5}},
			},
		}
		require.True(t, ps.CreatePhysicsBody(e).Valid())

		scaled, ok := ps.BodyShape(e.Body).(*rigid.ScaledShape)
		require.True(t, ok)
		compound, ok := scaled.Inner().(*rigid.CompoundShape)
		require.True(t, ok)
		assert.Len(t, compound.Children(), 3)
	})
}

func TestMotionAndLayerStayPaired(t *testing.T) {
	ps := newTestPhysics(t)
	e := &Entity{ID: 0, Shape: ShapeCube, IsDynamic: true, Transform: Transform{Scale: mgl32.Vec3{1, 1, 1}}}
	require.True(t, ps.CreatePhysicsBody(e).Valid())

	check := func(t *testing.T, motion rigid.MotionType, layer rigid.Layer) {
		t.Helper()
		require.Equal(t, motion, ps.BodyMotionType(e.Body))
		require.Equal(t, layer, ps.BodyLayer(e.Body))
	}

	check(t, rigid.MotionDynamic, rigid.LayerMoving)

	// Idempotent and always paired, in any alternation.
	ps.MakeBodyStatic(e.Body)
	check(t, rigid.MotionStatic, rigid.LayerNonMoving)
	ps.MakeBodyStatic(e.Body)
	check(t, rigid.MotionStatic, rigid.LayerNonMoving)
	ps.MakeBodyDynamic(e.Body)
	check(t, rigid.MotionDynamic, rigid.LayerMoving)
	ps.MakeBodyDynamic(e.Body)
	check(t, rigid.MotionDynamic, rigid.LayerMoving)
	ps.MakeBodyStatic(e.Body)
	check(t, rigid.MotionStatic, rigid.LayerNonMoving)
}

func TestRecreateBodyWithScale(t *testing.T) {
	ps := newTestPhysics(t)
	e := &Entity{ID: 0, Shape: ShapeCube, IsDynamic: true, Transform: Transform{Scale: mgl32.Vec3{1, 1, 1}}}
	require.True(t, ps.CreatePhysicsBody(e).Valid())

	before := ps.BodyShape(e.Body).(*rigid.ScaledShape)
	baseBefore := before.Inner()
	body := e.Body
	ps.SetLinearVelocity(body, mgl32.Vec3{3, 0, 0})

	require.True(t, ps.RecreateBodyWithScale(body, mgl32.Vec3{2, 1, 4}))

	after, ok := ps.BodyShape(body).(*rigid.ScaledShape)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{2, 1, 4}, after.Scale())
	assert.Same(t, baseBefore, after.Inner(), "rescale must rewrap the base, not stack wrappers")
	assert.Equal(t, body, e.Body, "rescale must not recreate the body")
	assert.Equal(t, mgl32.Vec3{3, 0, 0}, ps.GetLinearVelocity(body), "velocity survives the swap")

	// Half extents reflect scale * base size, floored per axis.
	b := after.LocalBounds()
	assert.Equal(t, mgl32.Vec3{1, 0.5, 2}, b.Max)
}

func TestEulerRotationBoundary(t *testing.T) {
	ps := newTestPhysics(t)
	e := &Entity{ID: 0, Shape: ShapeCube, IsDynamic: true, Transform: Transform{Scale: mgl32.Vec3{1, 1, 1}}}
	require.True(t, ps.CreatePhysicsBody(e).Valid())

	want := mgl32.Vec3{10, 20, 30}
	ps.SetBodyRotation(e.Body, want)
	got := ps.GetBodyRotation(e.Body)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want[i], got[i], 1e-3)
	}
}
