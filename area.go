package gdbox2d

import (
	"fmt"

	"github.com/ByteArena/box2d"
	"github.com/setanarut/vec"
)

// AreaOverrideMode selects how an area's gravity or damping combines with
// what was computed so far (the space default or areas of higher priority).
type AreaOverrideMode uint8

const (
	// Disabled leaves the value alone.
	AreaOverrideDisabled AreaOverrideMode = iota
	// Combine adds to the value and keeps evaluating lower priority areas.
	AreaOverrideCombine
	// CombineReplace adds to the value and stops.
	AreaOverrideCombineReplace
	// Replace replaces the value and stops.
	AreaOverrideReplace
	// ReplaceCombine replaces the value and keeps evaluating.
	AreaOverrideReplaceCombine
)

func (m AreaOverrideMode) String() string {
	switch m {
	case AreaOverrideDisabled:
		return "disabled"
	case AreaOverrideCombine:
		return "combine"
	case AreaOverrideCombineReplace:
		return "combine_replace"
	case AreaOverrideReplace:
		return "replace"
	case AreaOverrideReplaceCombine:
		return "replace_combine"
	}
	return fmt.Sprintf("AreaOverrideMode(%d)", int(m))
}

// ops reports whether the mode adds to or replaces the current value, and
// whether evaluation stops after it.
func (m AreaOverrideMode) ops() (combine, replace, stop bool) {
	switch m {
	case AreaOverrideCombine:
		return true, false, false
	case AreaOverrideCombineReplace:
		return true, false, true
	case AreaOverrideReplace:
		return false, true, true
	case AreaOverrideReplaceCombine:
		return false, true, false
	}
	return false, false, false
}

// ApplyOverride combines value into current according to mode. stop
// reports whether lower priority areas should be skipped.
func ApplyOverride(mode AreaOverrideMode, current, value float64) (result float64, stop bool) {
	combine, replace, stop := mode.ops()
	switch {
	case combine:
		return current + value, stop
	case replace:
		return value, stop
	}
	return current, stop
}

// ApplyGravityOverride is ApplyOverride for gravity vectors.
func ApplyGravityOverride(mode AreaOverrideMode, current, value vec.Vec2) (result vec.Vec2, stop bool) {
	combine, replace, stop := mode.ops()
	switch {
	case combine:
		return current.Add(value), stop
	case replace:
		return value, stop
	}
	return current, stop
}

// AreaEventType tells an enter from an exit.
type AreaEventType uint8

const (
	AreaEnter AreaEventType = iota
	AreaExit
)

// AreaEvent is delivered to the monitor callbacks from Space.CallQueries.
type AreaEvent struct {
	Type AreaEventType
	// Area is the monitoring area.
	Area *Area
	// Object is the body (or area) entering or leaving.
	Object         *CollisionObject
	RID            RID
	InstanceID     uint64
	ShapeIndex     int
	AreaShapeIndex int
}

// shapePair identifies one (other object slot, area slot) overlap.
type shapePair struct {
	object   *CollisionObject
	slot     *shapeSlot
	areaSlot *shapeSlot
}

// slotIndices are the shape indices of a pair when it was last seen.
type slotIndices struct {
	shape, area int
}

func pairOf(areaTag, otherTag *fixtureTag) (shapePair, slotIndices) {
	return shapePair{object: otherTag.object, slot: otherTag.owner, areaSlot: areaTag.owner},
		slotIndices{shape: otherTag.slot, area: areaTag.slot}
}

type Area struct {
	*CollisionObject

	gravityMode     AreaOverrideMode
	linearDampMode  AreaOverrideMode
	angularDampMode AreaOverrideMode
	gravity         float64
	gravityVector   vec.Vec2
	gravityIsPoint  bool
	gravityUnitDist float64
	linearDamp      float64
	angularDamp     float64
	priority        int
	monitorable     bool

	bodies      *List[*Body]
	overlaps    map[shapePair]int
	scanned     map[shapePair]slotIndices
	monitor     func(AreaEvent)
	areaMonitor func(AreaEvent)
}

// NewArea returns a monitorable area with the default gravity direction.
func NewArea() *Area {
	a := &Area{
		gravity:       980,
		gravityVector: vec.Vec2{0, 1},
		linearDamp:    0.1,
		angularDamp:   1,
		monitorable:   true,
		bodies:        NewList[*Body](),
		overlaps:      map[shapePair]int{},
		scanned:       map[shapePair]slotIndices{},
	}
	a.CollisionObject = newCollisionObject(a)
	return a
}

func (a *Area) GravityOverrideMode() AreaOverrideMode         { return a.gravityMode }
func (a *Area) SetGravityOverrideMode(m AreaOverrideMode)     { a.gravityMode = m }
func (a *Area) LinearDampOverrideMode() AreaOverrideMode      { return a.linearDampMode }
func (a *Area) SetLinearDampOverrideMode(m AreaOverrideMode)  { a.linearDampMode = m }
func (a *Area) AngularDampOverrideMode() AreaOverrideMode     { return a.angularDampMode }
func (a *Area) SetAngularDampOverrideMode(m AreaOverrideMode) { a.angularDampMode = m }

func (a *Area) Gravity() float64        { return a.gravity }
func (a *Area) SetGravity(g float64)    { a.gravity = g }
func (a *Area) GravityVector() vec.Vec2 { return a.gravityVector }

func (a *Area) SetGravityVector(v vec.Vec2) { a.gravityVector = v }

func (a *Area) GravityIsPoint() bool              { return a.gravityIsPoint }
func (a *Area) SetGravityIsPoint(p bool)          { a.gravityIsPoint = p }
func (a *Area) GravityPointUnitDistance() float64 { return a.gravityUnitDist }

// SetGravityPointUnitDistance sets the distance at which point gravity has
// its nominal strength. 0 makes point gravity constant with distance.
func (a *Area) SetGravityPointUnitDistance(d float64) { a.gravityUnitDist = d }

func (a *Area) LinearDamp() float64      { return a.linearDamp }
func (a *Area) SetLinearDamp(d float64)  { a.linearDamp = d }
func (a *Area) AngularDamp() float64     { return a.angularDamp }
func (a *Area) SetAngularDamp(d float64) { a.angularDamp = d }
func (a *Area) Priority() int            { return a.priority }
func (a *Area) SetPriority(p int)        { a.priority = p }
func (a *Area) Monitorable() bool        { return a.monitorable }

// SetMonitorable with false drops every pending and future enter and exit
// report of the area.
func (a *Area) SetMonitorable(m bool) {
	a.monitorable = m
}

// ComputeGravity returns the gravity the area applies at position. Point
// gravity pulls toward the gravity vector taken as a point in the area's
// local space, falling off with the square of the distance past the unit
// distance.
func (a *Area) ComputeGravity(position vec.Vec2) vec.Vec2 {
	if !a.gravityIsPoint {
		return a.gravityVector.Scale(a.gravity)
	}
	center := a.transform.Apply(a.gravityVector)
	toCenter := center.Sub(position)
	distSq := toCenter.LengthSq()
	if distSq < magicEpsilon {
		return vec.Vec2{}
	}
	dir := toCenter.Unit()
	if a.gravityUnitDist > 0 {
		return dir.Scale(a.gravity * a.gravityUnitDist * a.gravityUnitDist / distSq)
	}
	return dir.Scale(a.gravity)
}

// AddBody adds b to the member list. Returns false if it is a member.
func (a *Area) AddBody(b *Body) bool {
	return a.bodies.Add(b)
}

// RemoveBody removes b from the member list. Returns false if it was not
// a member.
func (a *Area) RemoveBody(b *Body) bool {
	return a.bodies.Remove(b)
}

func (a *Area) HasBody(b *Body) bool {
	return a.bodies.Contains(b)
}

// Bodies returns the members in the order they entered.
func (a *Area) Bodies() []*Body {
	return a.bodies.Values()
}

// SetMonitorCallback registers f for bodies entering and leaving the area.
func (a *Area) SetMonitorCallback(f func(AreaEvent)) {
	a.monitor = f
}

// SetAreaMonitorCallback registers f for other areas entering and leaving
// the area.
func (a *Area) SetAreaMonitorCallback(f func(AreaEvent)) {
	a.areaMonitor = f
}

// bodyContact counts the fixture contacts of one shape pair, queueing an
// event when the first one begins or the last one ends.
func (a *Area) bodyContact(areaTag, otherTag *fixtureTag, delta int) {
	body := otherTag.object.Body()
	if body == nil {
		return
	}
	key, at := pairOf(areaTag, otherTag)
	before := a.overlaps[key]
	after := before + delta
	if after <= 0 {
		delete(a.overlaps, key)
	} else {
		a.overlaps[key] = after
	}

	switch {
	case before == 0 && after > 0:
		a.AddBody(body)
		a.queueEvent(AreaEnter, key.object, at)
	case before > 0 && after <= 0:
		if !a.touches(body.CollisionObject) {
			a.RemoveBody(body)
		}
		a.queueEvent(AreaExit, key.object, at)
	}
}

// touches reports whether any shape of o still overlaps the area.
func (a *Area) touches(o *CollisionObject) bool {
	for key := range a.overlaps {
		if key.object == o {
			return true
		}
	}
	for key := range a.scanned {
		if key.object == o {
			return true
		}
	}
	return false
}

func (a *Area) queueEvent(t AreaEventType, o *CollisionObject, at slotIndices) {
	if !a.monitorable || a.space == nil {
		return
	}
	a.space.areaEvents = append(a.space.areaEvents, AreaEvent{
		Type:           t,
		Area:           a,
		Object:         o,
		RID:            o.rid,
		InstanceID:     o.instanceID,
		ShapeIndex:     at.shape,
		AreaShapeIndex: at.area,
	})
}

// scanOverlaps finds the areas and the static or kinematic bodies
// overlapping this one. Areas sit on static native bodies, and the native
// world only makes contacts when one side is dynamic, so these pairs are
// found with a broad phase query and an exact overlap test after each step.
func (a *Area) scanOverlaps() {
	nb := a.NativeBody()
	if nb == nil {
		return
	}
	current := map[shapePair]slotIndices{}
	for _, slot := range a.slots {
		for _, f := range slot.fixtures {
			areaTag := tagOf(f)
			shape := f.GetShape()
			for child := 0; child < shape.GetChildCount(); child++ {
				a.space.world.QueryAABB(func(other *box2d.B2Fixture) bool {
					tag := tagOf(other)
					if tag == nil || tag.object == a.CollisionObject || !a.scans(tag.object) {
						return true
					}
					key, at := pairOf(areaTag, tag)
					if _, ok := current[key]; ok {
						return true
					}
					otherShape := other.GetShape()
					for oc := 0; oc < otherShape.GetChildCount(); oc++ {
						if box2d.B2TestOverlapShapes(shape, child, otherShape, oc, nb.GetTransform(), other.GetBody().GetTransform()) {
							current[key] = at
							break
						}
					}
					return true
				}, f.GetAABB(child))
			}
		}
	}

	previous := a.scanned
	a.scanned = current
	for key, at := range current {
		if _, ok := previous[key]; !ok {
			if b := key.object.Body(); b != nil {
				a.AddBody(b)
			}
			a.queueEvent(AreaEnter, key.object, at)
		}
	}
	for key, at := range previous {
		if _, ok := current[key]; !ok {
			if b := key.object.Body(); b != nil && !a.touches(b.CollisionObject) {
				a.RemoveBody(b)
			}
			a.queueEvent(AreaExit, key.object, at)
		}
	}
}

// scans reports whether o is detected by scanOverlaps rather than by
// native contacts.
func (a *Area) scans(o *CollisionObject) bool {
	if a.mask&o.layer == 0 {
		return false
	}
	if b := o.Body(); b != nil {
		return !b.isRigid()
	}
	return true
}

// dispatch delivers one queued event.
func (a *Area) dispatch(ev AreaEvent) {
	if !a.monitorable {
		return
	}
	if ev.Object.Area() != nil {
		if a.areaMonitor != nil {
			a.areaMonitor(ev)
		}
		return
	}
	if a.monitor != nil {
		a.monitor(ev)
	}
}

func (a *Area) fillBodyDef(def *box2d.B2BodyDef) {
	def.Type = box2d.B2BodyType.B2_staticBody
}

func (a *Area) fillFixtureDef(def *box2d.B2FixtureDef) {
	def.IsSensor = true
	def.Density = 0
}

func (a *Area) isStaticBody() bool {
	return true
}

func (a *Area) bodyCreated(nb *box2d.B2Body) {}

// bodyDestroying forgets every overlap. Exits for bodies are reported by
// the native contacts ending with the body.
func (a *Area) bodyDestroying() {
	for key, at := range a.scanned {
		if b := key.object.Body(); b != nil {
			a.RemoveBody(b)
		}
		a.queueEvent(AreaExit, key.object, at)
	}
	clear(a.scanned)
}

func (a *Area) fixturesChanged() {}

// Destroy takes the area out of its space and releases its shapes.
func (a *Area) Destroy() {
	a.CollisionObject.Destroy()
	a.bodies.Clear()
	clear(a.overlaps)
}
