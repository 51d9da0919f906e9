package engine

import (
	"fmt"
	"runtime"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kiln3d/kiln/common"
	"github.com/kiln3d/kiln/rigid"
)

// Fixed simulation capacities; exceeding one is an error, not growth.
const (
	maxBodies             = 1024
	maxBodyPairs          = 1024
	maxContactConstraints = 1024

	// minShapeScale keeps collision geometry non-degenerate on any axis.
	minShapeScale = 0.01

	collisionSteps = 1
)

// PhysicsSystem owns the rigid-body world, its scratch allocator and the
// worker pool used during stepping, and keeps the entity-to-body mapping.
// Every operation on an uninitialized system logs an error and no-ops.
type PhysicsSystem struct {
	world   *rigid.World
	scratch *rigid.TempAllocator
	jobs    *rigid.JobSystem

	// bodies maps entity IDs to body handles, one to one. An entry exists
	// exactly while the entity's HasPhysics flag is set.
	bodies map[int]rigid.BodyID

	initialized bool
	logger      zerolog.Logger
}

// NewPhysicsSystem creates an uninitialized physics system.
func NewPhysicsSystem() *PhysicsSystem {
	return &PhysicsSystem{
		logger: log.With().Str("system", "physics").Logger(),
	}
}

// Initialize creates the world, the scratch arena and the worker pool.
// Double initialization is rejected.
func (ps *PhysicsSystem) Initialize() bool {
	if ps == nil {
		return false
	}
	if ps.initialized {
		ps.logger.Error().Msg("Initialize called twice")
		return false
	}

	workers := runtime.NumCPU() - 1
	if workers < 1 {
		workers = 1
	}

	ps.world = rigid.NewWorld(rigid.Settings{
		MaxBodies:             maxBodies,
		MaxBodyPairs:          maxBodyPairs,
		MaxContactConstraints: maxContactConstraints,
		Gravity:               mgl32.Vec3{0, -9.81, 0},
		PairFilter:            layerPairFilter,
	})
	ps.scratch = rigid.NewTempAllocator(maxBodyPairs)
	ps.jobs = rigid.NewJobSystem(workers)
	ps.bodies = make(map[int]rigid.BodyID)
	ps.initialized = true

	ps.logger.Info().Int("workers", workers).Msg("physics initialized")
	return true
}

// layerPairFilter is the two-layer policy: non-moving bodies only check
// against moving bodies; moving bodies check against everything.
func layerPairFilter(a, b rigid.Layer) bool {
	if a == rigid.LayerNonMoving {
		return b == rigid.LayerMoving
	}
	return true
}

// Shutdown tears the system down. Shutdown before Initialize is rejected.
func (ps *PhysicsSystem) Shutdown() bool {
	if ps == nil {
		return false
	}
	if !ps.initialized {
		ps.logger.Error().Msg("Shutdown called before Initialize")
		return false
	}
	ps.jobs.Shutdown()
	ps.world = nil
	ps.scratch = nil
	ps.jobs = nil
	ps.bodies = nil
	ps.initialized = false
	return true
}

// Update steps the simulation; it blocks until the step and all of its
// internal jobs complete.
func (ps *PhysicsSystem) Update(dt float32) {
	if !ps.ready("Update") {
		return
	}
	if err := ps.world.Step(dt, collisionSteps, ps.scratch, ps.jobs); err != nil {
		ps.logger.Error().Err(err).Msg("step failed")
	}
}

func (ps *PhysicsSystem) ready(op string) bool {
	if ps == nil {
		return false
	}
	if !ps.initialized {
		ps.logger.Error().Str("op", op).Msg("physics system not initialized")
		return false
	}
	return true
}

// BodyFor returns the body handle mapped to an entity ID.
func (ps *PhysicsSystem) BodyFor(entityID int) (rigid.BodyID, bool) {
	if ps == nil || ps.bodies == nil {
		return rigid.InvalidBodyID, false
	}
	id, ok := ps.bodies[entityID]
	return id, ok
}

// NumBodies returns the live body count.
func (ps *PhysicsSystem) NumBodies() int {
	if ps == nil || ps.world == nil {
		return 0
	}
	return ps.world.NumBodies()
}

// CreatePhysicsBody compiles the entity's colliders into a shape, creates
// a body at the entity's current transform, and records the mapping. On
// any failure the entity is left with HasPhysics false and no map entry.
func (ps *PhysicsSystem) CreatePhysicsBody(e *Entity) rigid.BodyID {
	if !ps.ready("CreatePhysicsBody") || e == nil {
		return rigid.InvalidBodyID
	}
	if old, ok := ps.bodies[e.ID]; ok {
		ps.logger.Warn().Int("entity", e.ID).Str("body", old.String()).
			Msg("entity already has a body, replacing")
		ps.RemovePhysicsBody(e)
	}

	if len(e.Colliders) == 0 {
		e.Colliders = append(e.Colliders, defaultColliderFor(e.Shape))
	}

	shape, err := ps.compileShape(e)
	if err != nil {
		ps.logger.Error().Err(err).Int("entity", e.ID).Msg("shape compilation failed")
		return rigid.InvalidBodyID
	}

	motion := rigid.MotionStatic
	layer := rigid.LayerNonMoving
	activation := rigid.DontActivate
	if e.IsDynamic {
		motion = rigid.MotionDynamic
		layer = rigid.LayerMoving
		activation = rigid.Activate
	}

	id, err := ps.world.CreateBody(rigid.BodyCreationSettings{
		Shape:    shape,
		Position: e.Transform.Position,
		Rotation: common.EulerToQuat(e.Transform.Rotation),
		Motion:   motion,
		Layer:    layer,
	})
	if err != nil {
		ps.logger.Error().Err(err).Int("entity", e.ID).Msg("body creation failed")
		return rigid.InvalidBodyID
	}
	if err := ps.world.AddBody(id, activation); err != nil {
		ps.logger.Error().Err(err).Int("entity", e.ID).Msg("body add failed")
		if derr := ps.world.DestroyBody(id); derr != nil {
			ps.logger.Error().Err(derr).Int("entity", e.ID).Msg("body cleanup failed")
		}
		return rigid.InvalidBodyID
	}

	ps.bodies[e.ID] = id
	e.Body = id
	e.HasPhysics = true
	return id
}

func defaultColliderFor(shape Shape) ColliderDesc {
	switch shape {
	case ShapeSphere:
		return DefaultSphereCollider()
	case ShapePlane:
		return DefaultPlaneCollider()
	default:
		return DefaultBoxCollider()
	}
}

// compileShape builds the body's shape from the entity's collider list:
// one collider becomes a single shape, several become a compound. The
// result is always wrapped in a scale shape carrying the entity scale, so
// later rescales can swap the wrapper without rebuilding the base.
func (ps *PhysicsSystem) compileShape(e *Entity) (rigid.Shape, error) {
	var base rigid.Shape
	if len(e.Colliders) == 1 {
		s, err := compileCollider(e.Colliders[0])
		if err != nil {
			return nil, err
		}
		base = s
	} else {
		children := make([]rigid.CompoundChild, 0, len(e.Colliders))
		for i, desc := range e.Colliders {
			s, err := compileCollider(desc)
			if err != nil {
				return nil, fmt.Errorf("collider %d: %w", i, err)
			}
			rot := desc.LocalRotation
			if rot.Len() == 0 {
				rot = mgl32.QuatIdent()
			}
			children = append(children, rigid.CompoundChild{
				Offset:   desc.CenterOffset,
				Rotation: rot,
				Shape:    s,
			})
		}
		compound, err := rigid.NewCompoundShape(children)
		if err != nil {
			return nil, err
		}
		base = compound
	}

	scale := common.ClampVecMin(e.Transform.Scale, minShapeScale)
	return rigid.NewScaledShape(base, scale)
}

func compileCollider(desc ColliderDesc) (rigid.Shape, error) {
	size := common.ClampVecMin(desc.Size, minShapeScale*2)
	switch desc.Type {
	case ColliderSphere:
		// Largest axis wins; a sphere cannot be non-uniform.
		return rigid.NewSphereShape(common.MaxComponent(size) / 2)
	case ColliderCapsule:
		radius := size.X()
		if size.Z() > radius {
			radius = size.Z()
		}
		radius /= 2
		halfHeight := size.Y()/2 - radius
		if halfHeight < 0 {
			halfHeight = 0
		}
		return rigid.NewCapsuleShape(halfHeight, radius)
	default:
		return rigid.NewBoxShape(size.Mul(0.5))
	}
}

// UpdatePhysicsBody destroys and recreates the entity's body from its
// current collider list and transform. Used when colliders change; pure
// scale changes go through RecreateBodyWithScale instead.
func (ps *PhysicsSystem) UpdatePhysicsBody(e *Entity) bool {
	if !ps.ready("UpdatePhysicsBody") || e == nil {
		return false
	}
	ps.RemovePhysicsBody(e)
	return ps.CreatePhysicsBody(e).Valid()
}

// RemovePhysicsBody removes and destroys the entity's body and erases the
// mapping. Calling it on an entity with no body is a no-op.
func (ps *PhysicsSystem) RemovePhysicsBody(e *Entity) {
	if !ps.ready("RemovePhysicsBody") || e == nil {
		return
	}
	id, ok := ps.bodies[e.ID]
	if !ok {
		e.HasPhysics = false
		e.Body = rigid.InvalidBodyID
		return
	}
	if err := ps.world.RemoveBody(id); err != nil {
		ps.logger.Error().Err(err).Int("entity", e.ID).Msg("body remove failed")
	}
	if err := ps.world.DestroyBody(id); err != nil {
		ps.logger.Error().Err(err).Int("entity", e.ID).Msg("body destroy failed")
	}
	delete(ps.bodies, e.ID)
	e.HasPhysics = false
	e.Body = rigid.InvalidBodyID
}

// RecreateBodyWithScale swaps the body's scale wrapper under the body
// lock, keeping velocity and contacts, instead of rebuilding the body. An
// already scaled shape is unwrapped to its base first so scale is never
// applied twice.
func (ps *PhysicsSystem) RecreateBodyWithScale(id rigid.BodyID, scale mgl32.Vec3) bool {
	if !ps.ready("RecreateBodyWithScale") {
		return false
	}
	lock, ok := ps.world.LockBodyWrite(id)
	if !ok {
		ps.logger.Error().Str("body", id.String()).Msg("body lock failed for rescale")
		return false
	}

	base := lock.Shape()
	if scaled, ok := base.(*rigid.ScaledShape); ok {
		base = scaled.Inner()
	}
	next, err := rigid.NewScaledShape(base, common.ClampVecMin(scale, minShapeScale))
	if err != nil {
		lock.Release()
		ps.logger.Error().Err(err).Str("body", id.String()).Msg("rescale failed, keeping old shape")
		return false
	}
	lock.SetShape(next, rigid.Activate)
	lock.Release()
	return true
}

// GetBodyPosition returns the body's position, zero for a dead handle.
func (ps *PhysicsSystem) GetBodyPosition(id rigid.BodyID) mgl32.Vec3 {
	if !ps.ready("GetBodyPosition") {
		return mgl32.Vec3{}
	}
	return ps.world.Position(id)
}

// SetBodyPosition teleports the body, waking it.
func (ps *PhysicsSystem) SetBodyPosition(id rigid.BodyID, pos mgl32.Vec3) {
	if !ps.ready("SetBodyPosition") {
		return
	}
	if err := ps.world.SetPosition(id, pos, rigid.Activate); err != nil {
		ps.logger.Error().Err(err).Msg("set position failed")
	}
}

// GetBodyRotation returns the body's orientation as Euler degrees. The
// conversion is lossy near gimbal; callers should not round-trip it for
// animation.
func (ps *PhysicsSystem) GetBodyRotation(id rigid.BodyID) mgl32.Vec3 {
	if !ps.ready("GetBodyRotation") {
		return mgl32.Vec3{}
	}
	return common.QuatToEuler(ps.world.Rotation(id))
}

// SetBodyRotation reorients the body from Euler degrees.
func (ps *PhysicsSystem) SetBodyRotation(id rigid.BodyID, eulerDeg mgl32.Vec3) {
	if !ps.ready("SetBodyRotation") {
		return
	}
	if err := ps.world.SetRotation(id, common.EulerToQuat(eulerDeg), rigid.Activate); err != nil {
		ps.logger.Error().Err(err).Msg("set rotation failed")
	}
}

// AddForce accumulates a force on the body for the next step.
func (ps *PhysicsSystem) AddForce(id rigid.BodyID, force mgl32.Vec3) {
	if !ps.ready("AddForce") {
		return
	}
	if err := ps.world.AddForce(id, force); err != nil {
		ps.logger.Error().Err(err).Msg("add force failed")
	}
}

// AddImpulse applies an instantaneous velocity change to the body.
func (ps *PhysicsSystem) AddImpulse(id rigid.BodyID, impulse mgl32.Vec3) {
	if !ps.ready("AddImpulse") {
		return
	}
	if err := ps.world.AddImpulse(id, impulse); err != nil {
		ps.logger.Error().Err(err).Msg("add impulse failed")
	}
}

// GetLinearVelocity returns the body's linear velocity.
func (ps *PhysicsSystem) GetLinearVelocity(id rigid.BodyID) mgl32.Vec3 {
	if !ps.ready("GetLinearVelocity") {
		return mgl32.Vec3{}
	}
	return ps.world.LinearVelocity(id)
}

// SetLinearVelocity overwrites the body's linear velocity.
func (ps *PhysicsSystem) SetLinearVelocity(id rigid.BodyID, v mgl32.Vec3) {
	if !ps.ready("SetLinearVelocity") {
		return
	}
	if err := ps.world.SetLinearVelocity(id, v); err != nil {
		ps.logger.Error().Err(err).Msg("set linear velocity failed")
	}
}

// GetAngularVelocity returns the body's angular velocity.
func (ps *PhysicsSystem) GetAngularVelocity(id rigid.BodyID) mgl32.Vec3 {
	if !ps.ready("GetAngularVelocity") {
		return mgl32.Vec3{}
	}
	return ps.world.AngularVelocity(id)
}

// SetAngularVelocity overwrites the body's angular velocity.
func (ps *PhysicsSystem) SetAngularVelocity(id rigid.BodyID, v mgl32.Vec3) {
	if !ps.ready("SetAngularVelocity") {
		return
	}
	if err := ps.world.SetAngularVelocity(id, v); err != nil {
		ps.logger.Error().Err(err).Msg("set angular velocity failed")
	}
}

// MakeBodyStatic switches motion type and broad-phase layer together.
// The layer encodes the motion category, so changing one without the
// other is never allowed.
func (ps *PhysicsSystem) MakeBodyStatic(id rigid.BodyID) {
	ps.setBodyMotion(id, rigid.MotionStatic, rigid.LayerNonMoving, rigid.DontActivate)
}

// MakeBodyDynamic switches motion type and broad-phase layer together.
func (ps *PhysicsSystem) MakeBodyDynamic(id rigid.BodyID) {
	ps.setBodyMotion(id, rigid.MotionDynamic, rigid.LayerMoving, rigid.Activate)
}

func (ps *PhysicsSystem) setBodyMotion(id rigid.BodyID, motion rigid.MotionType, layer rigid.Layer, activation rigid.Activation) {
	if !ps.ready("SetBodyMotion") {
		return
	}
	if err := ps.world.SetMotionType(id, motion, activation); err != nil {
		ps.logger.Error().Err(err).Str("motion", motion.String()).Msg("set motion type failed")
		return
	}
	if err := ps.world.SetObjectLayer(id, layer); err != nil {
		ps.logger.Error().Err(err).Str("motion", motion.String()).Msg("set object layer failed")
	}
}

// BodyMotionType returns the body's motion type.
func (ps *PhysicsSystem) BodyMotionType(id rigid.BodyID) rigid.MotionType {
	if !ps.ready("BodyMotionType") {
		return rigid.MotionStatic
	}
	return ps.world.MotionType(id)
}

// BodyLayer returns the body's broad-phase layer.
func (ps *PhysicsSystem) BodyLayer(id rigid.BodyID) rigid.Layer {
	if !ps.ready("BodyLayer") {
		return rigid.LayerNonMoving
	}
	return ps.world.ObjectLayer(id)
}

// BodyShape returns the body's current shape.
func (ps *PhysicsSystem) BodyShape(id rigid.BodyID) rigid.Shape {
	if !ps.ready("BodyShape") {
		return nil
	}
	return ps.world.BodyShape(id)
}
