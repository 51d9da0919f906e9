package engine

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kiln3d/kiln/rigid"
)

// EntitySystem owns entity storage and the ID allocation policy. IDs are
// array indices, monotonically increasing and never reused; removal only
// soft-deletes. Spawning requests a physics body from the attached
// physics system.
type EntitySystem struct {
	entities []Entity
	physics  *PhysicsSystem
	logger   zerolog.Logger
}

// NewEntitySystem creates an entity system bound to a physics system.
func NewEntitySystem(physics *PhysicsSystem) *EntitySystem {
	return &EntitySystem{
		physics: physics,
		logger:  log.With().Str("system", "entity").Logger(),
	}
}

// Physics returns the attached physics system, if any.
func (es *EntitySystem) Physics() *PhysicsSystem {
	if es == nil {
		return nil
	}
	return es.physics
}

// Entities returns the live entity slice, inactive slots included.
func (es *EntitySystem) Entities() []Entity {
	if es == nil {
		return nil
	}
	return es.entities
}

// SpawnEntity appends a new entity built from the prototype, creates its
// physics body, runs the spawn hook, and returns the new ID. Fails with
// -1 when no physics system is attached. A body-compilation failure is
// not fatal: the entity spawns without physics.
func (es *EntitySystem) SpawnEntity(proto Entity) int {
	if es == nil {
		return -1
	}
	if es.physics == nil {
		es.logger.Error().Str("name", proto.Name).Msg("spawn failed, no physics system attached")
		return -1
	}

	id := len(es.entities)
	proto.ID = id
	proto.Active = true
	proto.HasPhysics = false
	proto.Body = rigid.InvalidBodyID
	if proto.Transform.Scale == (mgl32.Vec3{}) {
		proto.Transform.Scale = mgl32.Vec3{1, 1, 1}
	}
	if proto.Shader == "" {
		proto.Shader = "default"
	}
	es.entities = append(es.entities, proto)

	e := &es.entities[id]
	es.physics.CreatePhysicsBody(e)
	if e.OnSpawn != nil {
		e.OnSpawn(e)
	}
	return id
}

// SpawnCube spawns a cube-shaped entity.
func (es *EntitySystem) SpawnCube(name string, pos, scale mgl32.Vec3, dynamic bool) int {
	return es.spawnShape(name, ShapeCube, pos, scale, dynamic)
}

// SpawnSphere spawns a sphere-shaped entity.
func (es *EntitySystem) SpawnSphere(name string, pos, scale mgl32.Vec3, dynamic bool) int {
	return es.spawnShape(name, ShapeSphere, pos, scale, dynamic)
}

// SpawnPlane spawns a plane-shaped entity.
func (es *EntitySystem) SpawnPlane(name string, pos, scale mgl32.Vec3, dynamic bool) int {
	return es.spawnShape(name, ShapePlane, pos, scale, dynamic)
}

func (es *EntitySystem) spawnShape(name string, shape Shape, pos, scale mgl32.Vec3, dynamic bool) int {
	return es.SpawnEntity(Entity{
		Name:      name,
		Shape:     shape,
		IsDynamic: dynamic,
		Color:     mgl32.Vec3{1, 1, 1},
		Transform: Transform{Position: pos, Scale: scale},
	})
}

// GetEntityPtr returns a pointer into the entity array, or nil when the
// ID is out of bounds. There is no implicit creation.
func (es *EntitySystem) GetEntityPtr(id int) *Entity {
	if es == nil || id < 0 || id >= len(es.entities) {
		return nil
	}
	return &es.entities[id]
}

// IsValidEntity reports whether the ID resolves to an active entity.
func (es *EntitySystem) IsValidEntity(id int) bool {
	e := es.GetEntityPtr(id)
	return e != nil && e.Active
}

// SetEntityShader writes the shader field. Render attribute only; the
// physics body is untouched.
func (es *EntitySystem) SetEntityShader(id int, shader string) bool {
	e := es.GetEntityPtr(id)
	if e == nil || !e.Active {
		es.warnInvalid("SetEntityShader", id)
		return false
	}
	e.Shader = shader
	return true
}

// SetEntityColor writes the color field.
func (es *EntitySystem) SetEntityColor(id int, color mgl32.Vec3) bool {
	e := es.GetEntityPtr(id)
	if e == nil || !e.Active {
		es.warnInvalid("SetEntityColor", id)
		return false
	}
	e.Color = color
	return true
}

// SetEntityName writes the name field.
func (es *EntitySystem) SetEntityName(id int, name string) bool {
	e := es.GetEntityPtr(id)
	if e == nil || !e.Active {
		es.warnInvalid("SetEntityName", id)
		return false
	}
	e.Name = name
	return true
}

// AddColliderToEntity appends a collider and rebuilds the body, turning a
// single shape into a compound.
func (es *EntitySystem) AddColliderToEntity(id int, desc ColliderDesc) bool {
	e := es.GetEntityPtr(id)
	if e == nil || !e.Active {
		es.warnInvalid("AddColliderToEntity", id)
		return false
	}
	e.Colliders = append(e.Colliders, desc)
	if es.physics == nil {
		return true
	}
	return es.physics.UpdatePhysicsBody(e)
}

// RemoveColliderFromEntity removes the collider at index and rebuilds the
// body; an emptied list gets the shape default resynthesized.
func (es *EntitySystem) RemoveColliderFromEntity(id, index int) bool {
	e := es.GetEntityPtr(id)
	if e == nil || !e.Active {
		es.warnInvalid("RemoveColliderFromEntity", id)
		return false
	}
	if index < 0 || index >= len(e.Colliders) {
		es.logger.Warn().Int("entity", id).Int("collider", index).Msg("collider index out of range")
		return false
	}
	e.Colliders = append(e.Colliders[:index], e.Colliders[index+1:]...)
	if es.physics == nil {
		return true
	}
	return es.physics.UpdatePhysicsBody(e)
}

// RemoveEntity runs the destroy hook, tears down the physics body, and
// deactivates the slot. The slot and ID are never reused.
func (es *EntitySystem) RemoveEntity(id int) bool {
	e := es.GetEntityPtr(id)
	if e == nil || !e.Active {
		es.warnInvalid("RemoveEntity", id)
		return false
	}
	if e.OnDestroy != nil {
		e.OnDestroy(e)
	}
	if es.physics != nil {
		es.physics.RemovePhysicsBody(e)
	}
	e.Active = false
	return true
}

// DuplicateEntity spawns a copy of the source offset one unit along X,
// carrying shape, shader, color, scale and dynamics but not collider
// customizations.
func (es *EntitySystem) DuplicateEntity(srcID int) int {
	src := es.GetEntityPtr(srcID)
	if src == nil || !src.Active {
		es.warnInvalid("DuplicateEntity", srcID)
		return -1
	}
	id := es.SpawnEntity(Entity{
		Name:      src.Name,
		Shape:     src.Shape,
		Shader:    src.Shader,
		Color:     src.Color,
		IsDynamic: src.IsDynamic,
		Transform: Transform{
			Position: src.Transform.Position.Add(mgl32.Vec3{1, 0, 0}),
			Rotation: src.Transform.Rotation,
			Scale:    src.Transform.Scale,
		},
	})
	es.logger.Info().Int("source", srcID).Int("duplicate", id).Msg("entity duplicated")
	return id
}

// Handle returns a fluent handle for the entity ID. The handle stays
// cheap to copy and re-resolves the entity on every call.
func (es *EntitySystem) Handle(id int) Handle {
	return Handle{entities: es, physics: es.Physics(), id: id}
}

func (es *EntitySystem) warnInvalid(op string, id int) {
	if es == nil {
		return
	}
	es.logger.Warn().Str("op", op).Int("entity", id).Msg("invalid or inactive entity")
}
