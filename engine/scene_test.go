package engine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScene(t *testing.T) *Scene {
	t.Helper()
	s := NewScene("test")
	require.True(t, s.Init())
	t.Cleanup(s.Shutdown)
	return s
}

type recordingRenderer struct {
	cubes   int
	spheres int
	planes  int
	last    Transform
}

func (r *recordingRenderer) DrawCube(t Transform, shader string, color mgl32.Vec3) {
	r.cubes++
	r.last = t
}

func (r *recordingRenderer) DrawSphere(t Transform, shader string, color mgl32.Vec3) {
	r.spheres++
	r.last = t
}

func (r *recordingRenderer) DrawPlane(t Transform, shader string, color mgl32.Vec3) {
	r.planes++
	r.last = t
}

func TestSceneInitGuards(t *testing.T) {
	s := NewScene("guards")
	require.True(t, s.Init())
	defer s.Shutdown()
	assert.False(t, s.Init(), "double init rejected")
}

func TestSceneGravityScenario(t *testing.T) {
	s := newTestScene(t)
	id := s.Entities().SpawnCube("faller", mgl32.Vec3{0, 5, 0}, mgl32.Vec3{1, 1, 1}, true)
	require.GreaterOrEqual(t, id, 0)
	h := s.Handle(id)

	for i := 0; i < 120; i++ {
		s.Update(1.0 / 60.0)
	}
	fallen := h.GetPosition()
	assert.Less(t, fallen.Y(), float32(5), "gravity pulls the cube down")

	h.MakeStatic()
	for i := 0; i < 60; i++ {
		s.Update(1.0 / 60.0)
	}
	assert.InDelta(t, fallen.Y(), h.GetPosition().Y(), 1e-4, "static body stays put")
}

func TestSceneSyncsPhysicsToGraphics(t *testing.T) {
	s := newTestScene(t)
	id := s.Entities().SpawnSphere("ball", mgl32.Vec3{0, 10, 0}, mgl32.Vec3{1, 1, 1}, true)
	e := s.Entities().GetEntityPtr(id)

	s.Update(1.0 / 60.0)
	assert.Equal(t, s.Physics().GetBodyPosition(e.Body), e.Transform.Position,
		"transform pulled from physics after the step")
	assert.Less(t, e.Transform.Position.Y(), float32(10))
}

func TestSceneUpdateOrder(t *testing.T) {
	s := newTestScene(t)

	var order []string
	id := s.Entities().SpawnEntity(Entity{
		Name:      "hooked",
		Shape:     ShapeCube,
		IsDynamic: true,
		Transform: Transform{Position: mgl32.Vec3{0, 5, 0}, Scale: mgl32.Vec3{1, 1, 1}},
		OnUpdate:  func(e *Entity, dt float32) { order = append(order, "hook") },
	})
	require.GreaterOrEqual(t, id, 0)
	s.SetOnUpdate(func(s *Scene, dt float32) { order = append(order, "user") })

	s.Update(1.0 / 60.0)
	require.Equal(t, []string{"hook", "user"}, order, "entity hooks run before the user callback")
}

func TestSceneInactiveIsNoOp(t *testing.T) {
	s := newTestScene(t)
	id := s.Entities().SpawnCube("idle", mgl32.Vec3{0, 5, 0}, mgl32.Vec3{1, 1, 1}, true)
	e := s.Entities().GetEntityPtr(id)

	s.SetActive(false)
	for i := 0; i < 30; i++ {
		s.Update(1.0 / 60.0)
	}
	assert.Equal(t, mgl32.Vec3{0, 5, 0}, e.Transform.Position, "inactive scene performs no sync")

	r := &recordingRenderer{}
	s.Render(r)
	assert.Zero(t, r.cubes, "inactive scene renders nothing")
}

func TestSceneRenderDispatch(t *testing.T) {
	s := newTestScene(t)
	s.Entities().SpawnCube("c", mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}, false)
	s.Entities().SpawnSphere("s", mgl32.Vec3{3, 0, 0}, mgl32.Vec3{1, 1, 1}, false)
	s.Entities().SpawnPlane("p", mgl32.Vec3{0, -1, 0}, mgl32.Vec3{10, 1, 10}, false)
	removed := s.Entities().SpawnCube("gone", mgl32.Vec3{9, 0, 0}, mgl32.Vec3{1, 1, 1}, false)
	require.True(t, s.Entities().RemoveEntity(removed))

	r := &recordingRenderer{}
	s.Render(r)
	assert.Equal(t, 1, r.cubes, "inactive entities are skipped")
	assert.Equal(t, 1, r.spheres)
	assert.Equal(t, 1, r.planes)
}
