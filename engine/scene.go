package engine

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Renderer is the external draw surface the scene renders through. The
// scene only reads entity transform, shader and color; everything about
// meshes and GL state is the renderer's problem.
type Renderer interface {
	DrawCube(t Transform, shader string, color mgl32.Vec3)
	DrawSphere(t Transform, shader string, color mgl32.Vec3)
	DrawPlane(t Transform, shader string, color mgl32.Vec3)
}

// Scene owns one entity system and drives the per-frame protocol: step
// physics, run entity update hooks, pull physics transforms back onto
// entities, then render. Physics is authoritative for dynamic bodies;
// the sync is a one-way pull.
type Scene struct {
	name     string
	physics  *PhysicsSystem
	entities *EntitySystem

	active      bool
	initialized bool
	onUpdate    func(s *Scene, dt float32)

	logger zerolog.Logger
}

// NewScene creates an uninitialized scene.
func NewScene(name string) *Scene {
	return &Scene{
		name:    name,
		physics: NewPhysicsSystem(),
		logger:  log.With().Str("system", "scene").Str("scene", name).Logger(),
	}
}

// Name returns the scene name.
func (s *Scene) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// Init brings up the physics system and entity store. Double init is
// rejected by the physics system and reported here.
func (s *Scene) Init() bool {
	if s == nil {
		return false
	}
	if s.initialized {
		s.logger.Error().Msg("Init called twice")
		return false
	}
	if !s.physics.Initialize() {
		s.logger.Error().Msg("physics initialization failed")
		return false
	}
	s.entities = NewEntitySystem(s.physics)
	s.initialized = true
	s.active = true
	return true
}

// Shutdown tears the scene down.
func (s *Scene) Shutdown() {
	if s == nil || !s.initialized {
		return
	}
	s.physics.Shutdown()
	s.initialized = false
	s.active = false
}

// SetActive toggles per-frame work; inactive scenes are a cheap early
// return in Update and Render.
func (s *Scene) SetActive(active bool) {
	if s == nil {
		return
	}
	s.active = active
}

// SetOnUpdate installs the user callback run after physics sync.
func (s *Scene) SetOnUpdate(fn func(s *Scene, dt float32)) {
	if s == nil {
		return
	}
	s.onUpdate = fn
}

// Entities returns the scene's entity system.
func (s *Scene) Entities() *EntitySystem {
	if s == nil {
		return nil
	}
	return s.entities
}

// Physics returns the scene's physics system.
func (s *Scene) Physics() *PhysicsSystem {
	if s == nil {
		return nil
	}
	return s.physics
}

// Handle returns a fluent handle for an entity in this scene.
func (s *Scene) Handle(id int) Handle {
	if s == nil || s.entities == nil {
		return Handle{id: -1}
	}
	return s.entities.Handle(id)
}

// Update advances one frame: physics step, entity hooks, transform sync,
// user callback. Strictly sequential; nothing here runs concurrently
// with the step.
func (s *Scene) Update(dt float32) {
	if s == nil || !s.active || !s.initialized {
		return
	}

	s.physics.Update(dt)

	ents := s.entities.Entities()
	for i := range ents {
		e := &ents[i]
		if e.Active && e.OnUpdate != nil {
			e.OnUpdate(e, dt)
		}
	}

	s.syncPhysicsToGraphics()

	if s.onUpdate != nil {
		s.onUpdate(s, dt)
	}
}

// syncPhysicsToGraphics overwrites the transform of every active physics
// entity with the body's current position and rotation.
func (s *Scene) syncPhysicsToGraphics() {
	ents := s.entities.Entities()
	for i := range ents {
		e := &ents[i]
		if !e.Active || !e.HasPhysics {
			continue
		}
		e.Transform.Position = s.physics.GetBodyPosition(e.Body)
		e.Transform.Rotation = s.physics.GetBodyRotation(e.Body)
	}
}

// Render issues one draw call per active entity through the renderer.
func (s *Scene) Render(r Renderer) {
	if s == nil || !s.active || !s.initialized || r == nil {
		return
	}
	ents := s.entities.Entities()
	for i := range ents {
		e := &ents[i]
		if !e.Active {
			continue
		}
		switch e.Shape {
		case ShapeSphere:
			r.DrawSphere(e.Transform, e.Shader, e.Color)
		case ShapePlane:
			r.DrawPlane(e.Transform, e.Shader, e.Color)
		default:
			r.DrawCube(e.Transform, e.Shader, e.Color)
		}
	}
}
