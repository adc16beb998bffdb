package gdbox2d

import (
	"github.com/ByteArena/box2d"
	"github.com/setanarut/vec"
)

// contactListener is the contact filter, contact listener and destruction
// listener of a space's native world.
type contactListener struct {
	space *Space
}

// ShouldCollide applies collision layers and masks, collision exceptions and
// area masks. Two fixtures of the same object never collide.
func (l *contactListener) ShouldCollide(fixtureA, fixtureB *box2d.B2Fixture) bool {
	tagA, tagB := tagOf(fixtureA), tagOf(fixtureB)
	if tagA == nil || tagB == nil {
		return true
	}
	a, b := tagA.object, tagB.object
	if a == b {
		return false
	}

	areaA, areaB := a.Area(), b.Area()
	switch {
	case areaA != nil && areaB != nil:
		return false
	case areaA != nil:
		return a.mask&b.layer != 0
	case areaB != nil:
		return b.mask&a.layer != 0
	}

	bodyA, bodyB := a.Body(), b.Body()
	if bodyA.HasCollisionException(bodyB) || bodyB.HasCollisionException(bodyA) {
		return false
	}
	return a.mask&b.layer != 0 || b.mask&a.layer != 0
}

func (l *contactListener) BeginContact(contact box2d.B2ContactInterface) {
	l.areaContact(contact, 1)
}

func (l *contactListener) EndContact(contact box2d.B2ContactInterface) {
	l.areaContact(contact, -1)
}

// areaContact feeds a sensor contact to the area it belongs to.
func (l *contactListener) areaContact(contact box2d.B2ContactInterface, delta int) {
	tagA, tagB := tagOf(contact.GetFixtureA()), tagOf(contact.GetFixtureB())
	if tagA == nil || tagB == nil {
		return
	}
	if area := tagA.object.Area(); area != nil {
		area.bodyContact(tagA, tagB, delta)
		return
	}
	if area := tagB.object.Area(); area != nil {
		area.bodyContact(tagB, tagA, delta)
	}
}

// PreSolve disables contacts with one way shapes that are approached from
// the wrong side or penetrated deeper than their margin.
func (l *contactListener) PreSolve(contact box2d.B2ContactInterface, oldManifold box2d.B2Manifold) {
	if contact.GetManifold().PointCount == 0 {
		return
	}
	var wm box2d.B2WorldManifold
	contact.GetWorldManifold(&wm)
	normal := vec.Vec2{wm.Normal.X, wm.Normal.Y}
	count := contact.GetManifold().PointCount

	if oneWayRejects(contact.GetFixtureA(), normal, wm.Separations[:count]) ||
		oneWayRejects(contact.GetFixtureB(), normal.Neg(), wm.Separations[:count]) {
		contact.SetEnabled(false)
	}
}

// oneWayRejects reports whether fixture belongs to a one way slot that does
// not accept a contact whose normal points from fixture to the other shape.
func oneWayRejects(fixture *box2d.B2Fixture, normal vec.Vec2, separations []float64) bool {
	tag := tagOf(fixture)
	if tag == nil || tag.slot >= len(tag.object.slots) {
		return false
	}
	slot := tag.object.slots[tag.slot]
	if !slot.oneWay {
		return false
	}
	dir := unitOr(tag.object.transform.Mult(slot.transform).YAxis(), vec.Vec2{0, 1})
	if normal.Dot(dir) > -magicEpsilon {
		return true
	}
	limit := toB2Length(slot.oneWayMargin) + 2*box2d.B2_linearSlop
	for _, sep := range separations {
		if -sep > limit {
			return true
		}
	}
	return false
}

func (l *contactListener) PostSolve(contact box2d.B2ContactInterface, impulse *box2d.B2ContactImpulse) {
}

// SayGoodbyeToFixture is called for the fixtures of a destroyed native body.
// The collision object already dropped them.
func (l *contactListener) SayGoodbyeToFixture(fixture *box2d.B2Fixture) {}

// SayGoodbyeToJoint clears the handle of a joint that a destroyed native
// body took down with it.
func (l *contactListener) SayGoodbyeToJoint(joint box2d.B2JointInterface) {
	if j, ok := joint.GetUserData().(*Joint); ok && j.native == joint {
		j.native = nil
	}
}
