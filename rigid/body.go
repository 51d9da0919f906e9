package rigid

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// MotionType selects whether a body is simulated or immovable.
type MotionType int

const (
	MotionStatic MotionType = iota
	MotionDynamic
)

func (m MotionType) String() string {
	if m == MotionDynamic {
		return "dynamic"
	}
	return "static"
}

// Layer is a broad-phase collision filtering bucket.
type Layer int

const (
	LayerNonMoving Layer = iota
	LayerMoving
)

// PairFilter decides whether two object layers should be collision checked.
type PairFilter func(a, b Layer) bool

// Activation controls whether a body starts awake when added or moved.
type Activation int

const (
	Activate Activation = iota
	DontActivate
)

// BodyCreationSettings describes a body before it exists in the world.
type BodyCreationSettings struct {
	Shape    Shape
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Motion   MotionType
	Layer    Layer
	Mass     float32
}

type body struct {
	id    BodyID
	alive bool
	added bool

	shape  Shape
	motion MotionType
	layer  Layer

	position mgl32.Vec3
	rotation mgl32.Quat

	linearVelocity  mgl32.Vec3
	angularVelocity mgl32.Vec3
	force           mgl32.Vec3

	// mass is fixed at creation; invMass is zero while static and restored
	// from mass on the switch back to dynamic.
	mass    float32
	invMass float32

	awake bool

	// mu guards shape replacement against an in-progress step. It is the
	// only per-body lock; all other mutation happens between steps.
	mu sync.Mutex
}

func (b *body) wake() {
	if b.motion == MotionDynamic {
		b.awake = true
	}
}

// BodyWriteLock is an exclusive lock on a single body. Operations on the
// lock never re-lock; callers must Release exactly once.
type BodyWriteLock struct {
	body *body
}

// Shape returns the locked body's current shape.
func (l BodyWriteLock) Shape() Shape {
	return l.body.shape
}

// SetShape swaps the locked body's shape in place, optionally waking it.
// The body is not destroyed or recreated, so velocity and motion state
// survive the swap.
func (l BodyWriteLock) SetShape(s Shape, activation Activation) {
	if s == nil {
		return
	}
	l.body.shape = s
	if activation == Activate {
		l.body.wake()
	}
}

// Release unlocks the body.
func (l BodyWriteLock) Release() {
	l.body.mu.Unlock()
}
