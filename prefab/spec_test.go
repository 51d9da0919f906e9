package prefab

import (
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiln3d/kiln/engine"
	"github.com/kiln3d/kiln/rigid"
)

func TestLoadEntitySpec(t *testing.T) {
	spec, err := LoadSpec[EntitySpec](filepath.Join("testdata", "crate.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "crate", spec.Name)
	assert.Equal(t, "cube", spec.Shape)
	assert.True(t, spec.Dynamic)
	require.NotNil(t, spec.Color)
	assert.InDelta(t, 0.8, spec.Color[0], 0.01)
	require.Len(t, spec.Colliders, 2)
	assert.Equal(t, "sphere", spec.Colliders[1].Type)
	assert.InDelta(t, 1.25, spec.Colliders[1].OffsetY, 1e-6)
}

func TestLoadSpecMissingFile(t *testing.T) {
	_, err := LoadSpec[EntitySpec](filepath.Join("testdata", "nope.yaml"))
	require.Error(t, err)
}

func TestParseSpecBadColor(t *testing.T) {
	_, err := ParseSpec[EntitySpec]([]byte("color: \"#xyz\"\n"))
	require.Error(t, err)
}

func TestSpawnFromSpec(t *testing.T) {
	ps := engine.NewPhysicsSystem()
	require.True(t, ps.Initialize())
	defer ps.Shutdown()
	es := engine.NewEntitySystem(ps)

	spec, err := LoadSpec[EntitySpec](filepath.Join("testdata", "crate.yaml"))
	require.NoError(t, err)

	id := Spawn(es, spec)
	require.GreaterOrEqual(t, id, 0)

	e := es.GetEntityPtr(id)
	require.NotNil(t, e)
	assert.Equal(t, "crate", e.Name)
	assert.Equal(t, engine.ShapeCube, e.Shape)
	assert.Equal(t, mgl32.Vec3{0, 5, 0}, e.Transform.Position)
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, e.Transform.Scale)
	assert.True(t, e.HasPhysics)

	// Two declared colliders compile straight into a compound body.
	scaled, ok := ps.BodyShape(e.Body).(*rigid.ScaledShape)
	require.True(t, ok)
	compound, ok := scaled.Inner().(*rigid.CompoundShape)
	require.True(t, ok)
	assert.Len(t, compound.Children(), 2)
}

func TestSpawnPartialScaleDefaultsPerAxis(t *testing.T) {
	ps := engine.NewPhysicsSystem()
	require.True(t, ps.Initialize())
	defer ps.Shutdown()
	es := engine.NewEntitySystem(ps)

	spec, err := ParseSpec[EntitySpec]([]byte("name: wide\ntransform:\n  scale_x: 2\n"))
	require.NoError(t, err)

	id := Spawn(es, spec)
	require.GreaterOrEqual(t, id, 0)
	e := es.GetEntityPtr(id)
	assert.Equal(t, mgl32.Vec3{2, 1, 1}, e.Transform.Scale,
		"unspecified scale axes default to one")
}

func TestSpawnDefaults(t *testing.T) {
	ps := engine.NewPhysicsSystem()
	require.True(t, ps.Initialize())
	defer ps.Shutdown()
	es := engine.NewEntitySystem(ps)

	spec, err := ParseSpec[EntitySpec]([]byte("name: blank\nshape: sphere\n"))
	require.NoError(t, err)

	id := Spawn(es, spec)
	require.GreaterOrEqual(t, id, 0)
	e := es.GetEntityPtr(id)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, e.Transform.Scale, "missing scale defaults to unit")
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, e.Color)
	require.Len(t, e.Colliders, 1, "no declared colliders synthesizes the shape default")
	assert.Equal(t, engine.ColliderSphere, e.Colliders[0].Type)
}
