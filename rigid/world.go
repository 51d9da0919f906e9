package rigid

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Settings fixes the world's capacities at construction. Exceeding a
// capacity is an error, not a growth case.
type Settings struct {
	MaxBodies             int
	MaxBodyPairs          int
	MaxContactConstraints int
	Gravity               mgl32.Vec3
	PairFilter            PairFilter
}

// World owns every body and steps the simulation. External code drives it
// from a single goroutine; the only concurrent access the world tolerates
// is the per-body write lock used for shape replacement.
type World struct {
	settings Settings
	bodies   []*body
	free     []bodyIndex
	count    int
}

// NewWorld creates an empty world with the given capacities.
func NewWorld(settings Settings) *World {
	if settings.MaxBodies < 1 {
		settings.MaxBodies = 1
	}
	if settings.PairFilter == nil {
		settings.PairFilter = func(a, b Layer) bool { return true }
	}
	return &World{settings: settings}
}

// NumBodies returns the count of live bodies.
func (w *World) NumBodies() int {
	if w == nil {
		return 0
	}
	return w.count
}

// Gravity returns the configured gravity vector.
func (w *World) Gravity() mgl32.Vec3 {
	return w.settings.Gravity
}

func (w *World) resolve(id BodyID) *body {
	if w == nil || !id.Valid() {
		return nil
	}
	idx := int(id.index())
	if idx >= len(w.bodies) {
		return nil
	}
	b := w.bodies[idx]
	if b == nil || !b.alive || b.id != id {
		return nil
	}
	return b
}

// IsValidBody reports whether the handle still refers to a live body.
func (w *World) IsValidBody(id BodyID) bool {
	return w.resolve(id) != nil
}

// CreateBody allocates a body from the settings but does not add it to the
// simulation. Returns the invalid handle and an error at capacity or on a
// nil shape.
func (w *World) CreateBody(cs BodyCreationSettings) (BodyID, error) {
	if w == nil {
		return InvalidBodyID, fmt.Errorf("rigid: nil world")
	}
	if cs.Shape == nil {
		return InvalidBodyID, fmt.Errorf("rigid: body creation needs a shape")
	}
	if w.count >= w.settings.MaxBodies {
		return InvalidBodyID, fmt.Errorf("rigid: body capacity %d reached", w.settings.MaxBodies)
	}

	var idx bodyIndex
	var gen generation
	if n := len(w.free); n > 0 {
		idx = w.free[n-1]
		w.free = w.free[:n-1]
		gen = w.bodies[idx].id.generation() + 1
	} else {
		idx = bodyIndex(len(w.bodies))
		w.bodies = append(w.bodies, nil)
		// Generations start at 1 so a packed handle is never the zero
		// sentinel.
		gen = 1
	}

	mass := cs.Mass
	if mass <= 0 {
		mass = 1
	}
	invMass := float32(0)
	if cs.Motion == MotionDynamic {
		invMass = 1 / mass
	}

	rot := cs.Rotation
	if rot.Len() == 0 {
		rot = mgl32.QuatIdent()
	}

	b := &body{
		id:       makeBodyID(idx, gen),
		alive:    true,
		shape:    cs.Shape,
		motion:   cs.Motion,
		layer:    cs.Layer,
		position: cs.Position,
		rotation: rot.Normalize(),
		mass:     mass,
		invMass:  invMass,
	}
	w.bodies[idx] = b
	w.count++
	return b.id, nil
}

// AddBody inserts a created body into the simulation.
func (w *World) AddBody(id BodyID, activation Activation) error {
	b := w.resolve(id)
	if b == nil {
		return fmt.Errorf("rigid: add body %v: stale or invalid handle", id)
	}
	b.added = true
	if activation == Activate {
		b.wake()
	}
	return nil
}

// RemoveBody takes a body out of the simulation without destroying it.
func (w *World) RemoveBody(id BodyID) error {
	b := w.resolve(id)
	if b == nil {
		return fmt.Errorf("rigid: remove body %v: stale or invalid handle", id)
	}
	b.added = false
	b.awake = false
	return nil
}

// DestroyBody frees the body's slot. The handle is dead afterwards; the
// slot may be reused under a new generation.
func (w *World) DestroyBody(id BodyID) error {
	b := w.resolve(id)
	if b == nil {
		return fmt.Errorf("rigid: destroy body %v: stale or invalid handle", id)
	}
	b.alive = false
	b.added = false
	b.shape = nil
	w.free = append(w.free, id.index())
	w.count--
	return nil
}

// LockBodyWrite acquires the exclusive per-body lock. The second return is
// false when the handle no longer resolves.
func (w *World) LockBodyWrite(id BodyID) (BodyWriteLock, bool) {
	b := w.resolve(id)
	if b == nil {
		return BodyWriteLock{}, false
	}
	b.mu.Lock()
	return BodyWriteLock{body: b}, true
}

// BodyShape returns the body's current shape, or nil for a dead handle.
func (w *World) BodyShape(id BodyID) Shape {
	b := w.resolve(id)
	if b == nil {
		return nil
	}
	return b.shape
}

// Position returns the body's position, or the zero vector for a dead
// handle.
func (w *World) Position(id BodyID) mgl32.Vec3 {
	b := w.resolve(id)
	if b == nil {
		return mgl32.Vec3{}
	}
	return b.position
}

// SetPosition teleports the body.
func (w *World) SetPosition(id BodyID, pos mgl32.Vec3, activation Activation) error {
	b := w.resolve(id)
	if b == nil {
		return fmt.Errorf("rigid: set position on body %v: stale or invalid handle", id)
	}
	b.position = pos
	if activation == Activate {
		b.wake()
	}
	return nil
}

// Rotation returns the body's orientation, identity for a dead handle.
func (w *World) Rotation(id BodyID) mgl32.Quat {
	b := w.resolve(id)
	if b == nil {
		return mgl32.QuatIdent()
	}
	return b.rotation
}

// SetRotation reorients the body.
func (w *World) SetRotation(id BodyID, rot mgl32.Quat, activation Activation) error {
	b := w.resolve(id)
	if b == nil {
		return fmt.Errorf("rigid: set rotation on body %v: stale or invalid handle", id)
	}
	if rot.Len() == 0 {
		rot = mgl32.QuatIdent()
	}
	b.rotation = rot.Normalize()
	if activation == Activate {
		b.wake()
	}
	return nil
}

// LinearVelocity returns the body's linear velocity.
func (w *World) LinearVelocity(id BodyID) mgl32.Vec3 {
	b := w.resolve(id)
	if b == nil {
		return mgl32.Vec3{}
	}
	return b.linearVelocity
}

// SetLinearVelocity overwrites the body's linear velocity and wakes it.
func (w *World) SetLinearVelocity(id BodyID, v mgl32.Vec3) error {
	b := w.resolve(id)
	if b == nil {
		return fmt.Errorf("rigid: set linear velocity on body %v: stale or invalid handle", id)
	}
	if b.motion != MotionDynamic {
		return nil
	}
	b.linearVelocity = v
	b.wake()
	return nil
}

// AngularVelocity returns the body's angular velocity.
func (w *World) AngularVelocity(id BodyID) mgl32.Vec3 {
	b := w.resolve(id)
	if b == nil {
		return mgl32.Vec3{}
	}
	return b.angularVelocity
}

// SetAngularVelocity overwrites the body's angular velocity and wakes it.
func (w *World) SetAngularVelocity(id BodyID, v mgl32.Vec3) error {
	b := w.resolve(id)
	if b == nil {
		return fmt.Errorf("rigid: set angular velocity on body %v: stale or invalid handle", id)
	}
	if b.motion != MotionDynamic {
		return nil
	}
	b.angularVelocity = v
	b.wake()
	return nil
}

// AddForce accumulates a force applied over the next step. Static bodies
// ignore forces.
func (w *World) AddForce(id BodyID, f mgl32.Vec3) error {
	b := w.resolve(id)
	if b == nil {
		return fmt.Errorf("rigid: add force on body %v: stale or invalid handle", id)
	}
	if b.motion != MotionDynamic {
		return nil
	}
	b.force = b.force.Add(f)
	b.wake()
	return nil
}

// AddImpulse applies an instantaneous velocity change.
func (w *World) AddImpulse(id BodyID, imp mgl32.Vec3) error {
	b := w.resolve(id)
	if b == nil {
		return fmt.Errorf("rigid: add impulse on body %v: stale or invalid handle", id)
	}
	if b.motion != MotionDynamic {
		return nil
	}
	b.linearVelocity = b.linearVelocity.Add(imp.Mul(b.invMass))
	b.wake()
	return nil
}

// MotionType returns the body's motion type, static for a dead handle.
func (w *World) MotionType(id BodyID) MotionType {
	b := w.resolve(id)
	if b == nil {
		return MotionStatic
	}
	return b.motion
}

// SetMotionType switches the body between static and dynamic.
func (w *World) SetMotionType(id BodyID, motion MotionType, activation Activation) error {
	b := w.resolve(id)
	if b == nil {
		return fmt.Errorf("rigid: set motion type on body %v: stale or invalid handle", id)
	}
	if b.motion == motion {
		return nil
	}
	b.motion = motion
	if motion == MotionStatic {
		b.linearVelocity = mgl32.Vec3{}
		b.angularVelocity = mgl32.Vec3{}
		b.force = mgl32.Vec3{}
		b.invMass = 0
		b.awake = false
	} else {
		b.invMass = 1 / b.mass
		if activation == Activate {
			b.wake()
		}
	}
	return nil
}

// ObjectLayer returns the body's broad-phase layer.
func (w *World) ObjectLayer(id BodyID) Layer {
	b := w.resolve(id)
	if b == nil {
		return LayerNonMoving
	}
	return b.layer
}

// SetObjectLayer moves the body to another broad-phase layer.
func (w *World) SetObjectLayer(id BodyID, layer Layer) error {
	b := w.resolve(id)
	if b == nil {
		return fmt.Errorf("rigid: set object layer on body %v: stale or invalid handle", id)
	}
	b.layer = layer
	return nil
}

// IsActive reports whether the body is awake.
func (w *World) IsActive(id BodyID) bool {
	b := w.resolve(id)
	return b != nil && b.awake
}

// Step advances the simulation. Velocity integration fans out over the job
// system; broad-phase pair collection runs on the calling goroutine against
// the temp allocator. The call blocks until all internal jobs complete.
func (w *World) Step(dt float32, collisionSteps int, ta *TempAllocator, js *JobSystem) error {
	if w == nil {
		return fmt.Errorf("rigid: nil world")
	}
	if dt <= 0 {
		return nil
	}
	if collisionSteps < 1 {
		collisionSteps = 1
	}

	stepped := make([]*body, 0, w.count)
	for _, b := range w.bodies {
		if b != nil && b.alive && b.added {
			stepped = append(stepped, b)
		}
	}

	h := dt / float32(collisionSteps)
	for step := 0; step < collisionSteps; step++ {
		w.integrate(stepped, h, js)
		if err := w.collectPairs(stepped, ta); err != nil {
			return err
		}
	}
	return nil
}

func (w *World) integrate(bodies []*body, h float32, js *JobSystem) {
	integrateChunk := func(start, end int) {
		for _, b := range bodies[start:end] {
			if b.motion != MotionDynamic || !b.awake {
				continue
			}
			b.mu.Lock()
			accel := w.settings.Gravity.Add(b.force.Mul(b.invMass))
			b.linearVelocity = b.linearVelocity.Add(accel.Mul(h))
			b.position = b.position.Add(b.linearVelocity.Mul(h))
			if av := b.angularVelocity; av.Len() > 0 {
				// dq/dt = 0.5 * (0, w) * q
				wq := mgl32.Quat{W: 0, V: av}
				dq := wq.Mul(b.rotation)
				b.rotation = mgl32.Quat{
					W: b.rotation.W + 0.5*h*dq.W,
					V: b.rotation.V.Add(dq.V.Mul(0.5 * h)),
				}.Normalize()
			}
			b.force = mgl32.Vec3{}
			b.mu.Unlock()
		}
	}
	if js != nil {
		js.ParallelRange(len(bodies), integrateChunk)
	} else {
		integrateChunk(0, len(bodies))
	}
}

func (w *World) collectPairs(bodies []*body, ta *TempAllocator) error {
	if ta == nil {
		return nil
	}
	ta.reset()
	for i := 0; i < len(bodies); i++ {
		a := bodies[i]
		ba := a.shape.LocalBounds().translated(a.position)
		for j := i + 1; j < len(bodies); j++ {
			b := bodies[j]
			if a.motion == MotionStatic && b.motion == MotionStatic {
				continue
			}
			if !w.settings.PairFilter(a.layer, b.layer) && !w.settings.PairFilter(b.layer, a.layer) {
				continue
			}
			if !ba.overlaps(b.shape.LocalBounds().translated(b.position)) {
				continue
			}
			if !ta.push(bodyPair{a: a.id.index(), b: b.id.index()}) {
				return fmt.Errorf("rigid: body pair capacity %d reached", w.settings.MaxBodyPairs)
			}
		}
	}
	return nil
}

// ActivePairs returns how many broad-phase pairs the last step collected.
func (w *World) ActivePairs(ta *TempAllocator) int {
	if ta == nil {
		return 0
	}
	return len(ta.pairs())
}
