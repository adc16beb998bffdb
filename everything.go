package gdbox2d

import (
	"fmt"
	"math"

	"github.com/setanarut/vec"
)

const (
	// Half size of the box used to look up a single point.
	pointSize = 1e-9
	// Candidates the hit from inside fallback of a ray cast looks at.
	maxInsideCandidates = 10
	// Candidates a motion cast examines.
	maxCastCandidates = 2048
	magicEpsilon      = 1e-6
)

// Layers used by every new collision object.
const (
	DefaultCollisionLayer uint32 = 1
	DefaultCollisionMask  uint32 = 1
)

// DebugInfo returns info of space
func DebugInfo(space *Space) string {
	var bodies, areas, fixtures, sleeping int
	var ke float64
	space.EachObject(func(o *CollisionObject) {
		if o.Area() != nil {
			areas++
		} else {
			bodies++
		}
		fixtures += o.FixtureCount()
		b := o.Body()
		if b == nil {
			return
		}
		if b.IsSleeping() {
			sleeping++
		}
		if b.mode == BodyStatic || b.mode == BodyKinematic {
			return
		}
		lv := toB2Vec(b.LinearVelocity())
		ke += b.mass*(lv.X*lv.X+lv.Y*lv.Y) + b.Inertia()/(UnitsPerMeter*UnitsPerMeter)*b.angularVelocity*b.angularVelocity
	})

	return fmt.Sprintf(`Bodies: %d (%d sleeping) - Areas: %d - Fixtures: %d
Joints: %d, Contacts: %d, Active: %d
Iterations: %d (velocity %d, position %d)
KE: %e`, bodies, sleeping, areas, fixtures,
		space.JointCount(), space.ContactCount(), space.ActiveBodyCount(),
		space.solverIterations, space.solverIterations+2, space.solverIterations, ke*0.5)
}

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= magicEpsilon*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(f, 1))
}

// unitOr normalizes a, or returns fallback for a zero vector.
func unitOr(a, fallback vec.Vec2) vec.Vec2 {
	l := a.Mag()
	if l < magicEpsilon || math.IsNaN(l) {
		return fallback
	}
	return a.Scale(1 / l)
}
