package engine

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog/log"
)

// Handle is a copyable reference to one entity that fans a logical
// mutation out to both the entity store and the physics system. It never
// caches an entity pointer: the backing array may grow between calls, so
// every mutator re-resolves the ID and degrades to a logged no-op when
// resolution fails.
type Handle struct {
	entities *EntitySystem
	physics  *PhysicsSystem
	id       int
}

// ID returns the referenced entity ID.
func (h Handle) ID() int {
	return h.id
}

// Valid reports whether the handle can attempt resolution. A valid handle
// does not imply the entity is still active.
func (h Handle) Valid() bool {
	return h.id >= 0 && h.entities != nil && h.physics != nil
}

// Entity resolves the live entity, or nil.
func (h Handle) Entity() *Entity {
	if !h.Valid() {
		return nil
	}
	e := h.entities.GetEntityPtr(h.id)
	if e == nil || !e.Active {
		return nil
	}
	return e
}

func (h Handle) resolve(op string) *Entity {
	e := h.Entity()
	if e == nil {
		log.Warn().Str("op", op).Int("entity", h.id).Msg("handle resolution failed")
	}
	return e
}

// At moves the entity, pushing the position into the physics body (and
// waking it) when one exists.
func (h Handle) At(pos mgl32.Vec3) Handle {
	e := h.resolve("At")
	if e == nil {
		return h
	}
	e.Transform.Position = pos
	if e.HasPhysics {
		h.physics.SetBodyPosition(e.Body, pos)
	}
	return h
}

// Rotate writes the visual rotation only; the physics body keeps its
// orientation. Use RotateBody to rotate both.
func (h Handle) Rotate(eulerDeg mgl32.Vec3) Handle {
	e := h.resolve("Rotate")
	if e == nil {
		return h
	}
	e.Transform.Rotation = eulerDeg
	return h
}

// RotateBody writes the visual rotation and syncs it to the physics body.
func (h Handle) RotateBody(eulerDeg mgl32.Vec3) Handle {
	e := h.resolve("RotateBody")
	if e == nil {
		return h
	}
	e.Transform.Rotation = eulerDeg
	if e.HasPhysics {
		h.physics.SetBodyRotation(e.Body, eulerDeg)
	}
	return h
}

// Scale writes the visual scale and, when it actually changed on a
// physics-backed entity, swaps the body's scale wrapper so collision
// geometry follows. Collider-list changes rebuild the body instead.
func (h Handle) Scale(scale mgl32.Vec3) Handle {
	e := h.resolve("Scale")
	if e == nil {
		return h
	}
	changed := e.Transform.Scale != scale
	e.Transform.Scale = scale
	if changed && e.HasPhysics {
		h.physics.RecreateBodyWithScale(e.Body, scale)
	}
	return h
}

// Push accumulates a force on the entity's body.
func (h Handle) Push(force mgl32.Vec3) Handle {
	if e := h.requirePhysics("Push"); e != nil {
		h.physics.AddForce(e.Body, force)
	}
	return h
}

// Impulse applies an instantaneous velocity change to the entity's body.
func (h Handle) Impulse(impulse mgl32.Vec3) Handle {
	if e := h.requirePhysics("Impulse"); e != nil {
		h.physics.AddImpulse(e.Body, impulse)
	}
	return h
}

// SetVelocity overwrites the body's linear velocity.
func (h Handle) SetVelocity(v mgl32.Vec3) Handle {
	if e := h.requirePhysics("SetVelocity"); e != nil {
		h.physics.SetLinearVelocity(e.Body, v)
	}
	return h
}

// SetAngularVelocity overwrites the body's angular velocity.
func (h Handle) SetAngularVelocity(v mgl32.Vec3) Handle {
	if e := h.requirePhysics("SetAngularVelocity"); e != nil {
		h.physics.SetAngularVelocity(e.Body, v)
	}
	return h
}

// MakeStatic switches the body to static motion and the non-moving layer.
func (h Handle) MakeStatic() Handle {
	if e := h.requirePhysics("MakeStatic"); e != nil {
		h.physics.MakeBodyStatic(e.Body)
		e.IsDynamic = false
	}
	return h
}

// MakeDynamic switches the body to dynamic motion and the moving layer.
func (h Handle) MakeDynamic() Handle {
	if e := h.requirePhysics("MakeDynamic"); e != nil {
		h.physics.MakeBodyDynamic(e.Body)
		e.IsDynamic = true
	}
	return h
}

func (h Handle) requirePhysics(op string) *Entity {
	e := h.resolve(op)
	if e == nil {
		return nil
	}
	if !e.HasPhysics {
		log.Warn().Str("op", op).Int("entity", h.id).Msg("entity has no physics body")
		return nil
	}
	return e
}

// Color writes the render color.
func (h Handle) Color(c mgl32.Vec3) Handle {
	if e := h.resolve("Color"); e != nil {
		e.Color = c
	}
	return h
}

// Shader writes the render shader name.
func (h Handle) Shader(shader string) Handle {
	if e := h.resolve("Shader"); e != nil {
		e.Shader = shader
	}
	return h
}

// Name renames the entity.
func (h Handle) Name(name string) Handle {
	if e := h.resolve("Name"); e != nil {
		e.Name = name
	}
	return h
}

// SetActive soft-toggles the entity without touching the physics body.
func (h Handle) SetActive(active bool) Handle {
	if !h.Valid() {
		log.Warn().Int("entity", h.id).Msg("SetActive on invalid handle")
		return h
	}
	e := h.entities.GetEntityPtr(h.id)
	if e == nil {
		log.Warn().Int("entity", h.id).Msg("SetActive on missing entity")
		return h
	}
	e.Active = active
	return h
}

// Destroy removes the entity: destroy hook, physics teardown, then
// deactivation.
func (h Handle) Destroy() {
	if !h.Valid() {
		log.Warn().Int("entity", h.id).Msg("Destroy on invalid handle")
		return
	}
	h.entities.RemoveEntity(h.id)
}

// GetPosition returns the body position for physics entities, otherwise
// the visual position.
func (h Handle) GetPosition() mgl32.Vec3 {
	e := h.resolve("GetPosition")
	if e == nil {
		return mgl32.Vec3{}
	}
	if e.HasPhysics {
		return h.physics.GetBodyPosition(e.Body)
	}
	return e.Transform.Position
}

// GetRotation returns Euler degrees, from the body for physics entities.
func (h Handle) GetRotation() mgl32.Vec3 {
	e := h.resolve("GetRotation")
	if e == nil {
		return mgl32.Vec3{}
	}
	if e.HasPhysics {
		return h.physics.GetBodyRotation(e.Body)
	}
	return e.Transform.Rotation
}

// GetVelocity returns the body's linear velocity, zero for entities
// without physics.
func (h Handle) GetVelocity() mgl32.Vec3 {
	e := h.resolve("GetVelocity")
	if e == nil || !e.HasPhysics {
		return mgl32.Vec3{}
	}
	return h.physics.GetLinearVelocity(e.Body)
}

// GetScale returns the visual scale.
func (h Handle) GetScale() mgl32.Vec3 {
	e := h.resolve("GetScale")
	if e == nil {
		return mgl32.Vec3{}
	}
	return e.Transform.Scale
}
