package gdbox2d

import (
	"fmt"
	"slices"

	"github.com/ByteArena/box2d"
)

// objectClass is implemented by the concrete kinds of collision object
// (*Body and *Area). The CollisionObject calls back into it whenever the
// native body is built, torn down or loses and regains fixtures.
type objectClass interface {
	fillBodyDef(def *box2d.B2BodyDef)
	fillFixtureDef(def *box2d.B2FixtureDef)
	isStaticBody() bool
	bodyCreated(nb *box2d.B2Body)
	bodyDestroying()
	fixturesChanged()
}

// nativeBody is the native side of a collision object: a pendingBody while
// the object has no space, a liveBody once it has one.
type nativeBody interface {
	isNativeBody()
}

type pendingBody struct {
	def box2d.B2BodyDef
}

type liveBody struct {
	body *box2d.B2Body
}

func (*pendingBody) isNativeBody() {}
func (*liveBody) isNativeBody()    {}

type shapeSlot struct {
	transform    Transform
	shape        *Shape
	fixtures     []*box2d.B2Fixture
	disabled     bool
	oneWay       bool
	oneWayMargin float64
}

// fixtureTag is the user data of every fixture. slot is kept current when
// slots before it are removed; owner stays the same.
type fixtureTag struct {
	object   *CollisionObject
	owner    *shapeSlot
	slot     int
	subIndex int
}

func tagOf(f *box2d.B2Fixture) *fixtureTag {
	if f == nil {
		return nil
	}
	tag, _ := f.GetUserData().(*fixtureTag)
	return tag
}

// CollisionObject is the part shared by bodies and areas: identity, shape
// slots, transform, collision layers and the native body.
type CollisionObject struct {
	// UserData is an object that this collision object is associated with.
	UserData any
	// Class is the concrete object, *Body or *Area.
	Class objectClass

	rid              RID
	instanceID       uint64
	canvasInstanceID uint64
	transform        Transform
	layer            uint32
	mask             uint32
	pickable         bool
	slots            []*shapeSlot
	space            *Space
	native           nativeBody
}

func newCollisionObject(class objectClass) *CollisionObject {
	o := &CollisionObject{
		Class:     class,
		rid:       NewRID(),
		transform: NewTransformIdentity(),
		layer:     DefaultCollisionLayer,
		mask:      DefaultCollisionMask,
		pickable:  true,
	}
	o.native = &pendingBody{def: box2d.MakeB2BodyDef()}
	return o
}

func (o *CollisionObject) String() string {
	kind := "Body"
	if o.Area() != nil {
		kind = "Area"
	}
	return fmt.Sprint(kind, " ", o.rid, ", Shapes ", len(o.slots))
}

func (o *CollisionObject) RID() RID { return o.rid }

func (o *CollisionObject) InstanceID() uint64      { return o.instanceID }
func (o *CollisionObject) SetInstanceID(id uint64) { o.instanceID = id }

func (o *CollisionObject) CanvasInstanceID() uint64      { return o.canvasInstanceID }
func (o *CollisionObject) SetCanvasInstanceID(id uint64) { o.canvasInstanceID = id }

func (o *CollisionObject) Pickable() bool     { return o.pickable }
func (o *CollisionObject) SetPickable(p bool) { o.pickable = p }

// Body returns the object as a body, or nil for an area.
func (o *CollisionObject) Body() *Body {
	b, _ := o.Class.(*Body)
	return b
}

// Area returns the object as an area, or nil for a body.
func (o *CollisionObject) Area() *Area {
	a, _ := o.Class.(*Area)
	return a
}

func (o *CollisionObject) Space() *Space {
	return o.space
}

// SetSpace moves the object to space, or out of its space with nil.
func (o *CollisionObject) SetSpace(space *Space) {
	if o.space == space {
		return
	}
	if o.space != nil {
		o.space.RemoveObject(o)
	}
	if space != nil {
		space.AddObject(o)
	}
}

// NativeBody returns the native body, or nil while the object has no space.
func (o *CollisionObject) NativeBody() *box2d.B2Body {
	if live, ok := o.native.(*liveBody); ok {
		return live.body
	}
	return nil
}

func (o *CollisionObject) CollisionLayer() uint32 { return o.layer }

func (o *CollisionObject) SetCollisionLayer(layer uint32) {
	o.layer = layer
	o.refilter()
}

func (o *CollisionObject) CollisionMask() uint32 { return o.mask }

func (o *CollisionObject) SetCollisionMask(mask uint32) {
	o.mask = mask
	o.refilter()
}

func (o *CollisionObject) refilter() {
	for _, slot := range o.slots {
		for _, f := range slot.fixtures {
			f.Refilter()
		}
	}
}

func (o *CollisionObject) Transform() Transform {
	return o.transform
}

// SetTransform moves the object. Before the object has a space only the
// pending body definition changes. Afterwards the native body is moved and
// the fixtures are rebuilt only when the scale or skew of t differs from the
// current one.
func (o *CollisionObject) SetTransform(t Transform) {
	oldLocal := o.fixtureTransform()
	o.transform = t
	switch n := o.native.(type) {
	case *pendingBody:
		n.def.Position = toB2Vec(t.Origin())
		n.def.Angle = t.Rotation()
	case *liveBody:
		n.body.SetTransform(toB2Vec(t.Origin()), t.Rotation())
		if !oldLocal.IsEqualApprox(o.fixtureTransform()) {
			o.rebuildAll()
		}
	}
}

// fixtureTransform is the part of the object transform the native body
// cannot carry (scale and skew). It is baked into every fixture.
func (o *CollisionObject) fixtureTransform() Transform {
	return o.transform.Orthonormalized().Inverse().Mult(o.transform)
}

// syncTransform copies the native pose back, keeping scale.
func (o *CollisionObject) syncTransform(nb *box2d.B2Body) {
	local := o.fixtureTransform()
	o.transform = fromB2Transform(nb.GetTransform()).Mult(local)
}

func (o *CollisionObject) checkIndex(index int) {
	if index < 0 || index >= len(o.slots) {
		panic(fmt.Sprintf("shape index %d out of range [0, %d)", index, len(o.slots)))
	}
}

func (o *CollisionObject) ShapeCount() int {
	return len(o.slots)
}

func (o *CollisionObject) Shape(index int) *Shape {
	o.checkIndex(index)
	return o.slots[index].shape
}

func (o *CollisionObject) ShapeTransform(index int) Transform {
	o.checkIndex(index)
	return o.slots[index].transform
}

func (o *CollisionObject) IsShapeDisabled(index int) bool {
	o.checkIndex(index)
	return o.slots[index].disabled
}

// ShapeOneWay reports whether the slot is one way and its margin.
func (o *CollisionObject) ShapeOneWay(index int) (bool, float64) {
	o.checkIndex(index)
	return o.slots[index].oneWay, o.slots[index].oneWayMargin
}

// ShapeFixtures returns the native fixtures currently built for the slot.
func (o *CollisionObject) ShapeFixtures(index int) []*box2d.B2Fixture {
	o.checkIndex(index)
	return slices.Clone(o.slots[index].fixtures)
}

// FixtureCount is the number of native fixtures over all slots.
func (o *CollisionObject) FixtureCount() int {
	n := 0
	for _, slot := range o.slots {
		n += len(slot.fixtures)
	}
	return n
}

// AddShape appends a slot referencing shape.
func (o *CollisionObject) AddShape(shape *Shape, t Transform, disabled bool) {
	if shape == nil {
		panic("nil shape")
	}
	o.slots = append(o.slots, &shapeSlot{transform: t, shape: shape, disabled: disabled})
	shape.addOwner(o)
	o.rebuildSlot(len(o.slots) - 1)
	o.Class.fixturesChanged()
}

// SetShape swaps the shape referenced by a slot.
func (o *CollisionObject) SetShape(index int, shape *Shape) {
	o.checkIndex(index)
	if shape == nil {
		panic("nil shape")
	}
	slot := o.slots[index]
	slot.shape.removeOwner(o)
	slot.shape = shape
	shape.addOwner(o)
	o.updateSlot(index)
}

func (o *CollisionObject) SetShapeTransform(index int, t Transform) {
	o.checkIndex(index)
	o.slots[index].transform = t
	o.updateSlot(index)
}

func (o *CollisionObject) SetShapeDisabled(index int, disabled bool) {
	o.checkIndex(index)
	o.slots[index].disabled = disabled
	o.updateSlot(index)
}

// SetShapeAsOneWayCollision makes the slot collide only with objects
// approaching against its local +Y axis, and not deeper than margin.
func (o *CollisionObject) SetShapeAsOneWayCollision(index int, enable bool, margin float64) {
	o.checkIndex(index)
	o.slots[index].oneWay = enable
	o.slots[index].oneWayMargin = margin
	o.updateSlot(index)
}

// RemoveShape removes the first slot referencing shape. Returns false if no
// slot does.
func (o *CollisionObject) RemoveShape(shape *Shape) bool {
	for i, slot := range o.slots {
		if slot.shape == shape {
			o.RemoveShapeAt(i)
			return true
		}
	}
	return false
}

func (o *CollisionObject) RemoveShapeAt(index int) {
	o.checkIndex(index)
	slot := o.slots[index]
	o.destroyFixtures(slot)
	slot.shape.removeOwner(o)
	o.slots = slices.Delete(o.slots, index, index+1)
	o.retag(index)
	o.Class.fixturesChanged()
}

func (o *CollisionObject) ClearShapes() {
	for len(o.slots) > 0 {
		o.RemoveShapeAt(len(o.slots) - 1)
	}
}

func (o *CollisionObject) updateSlot(index int) {
	o.rebuildSlot(index)
	o.Class.fixturesChanged()
}

// shapeChanged rebuilds every slot referencing s.
func (o *CollisionObject) shapeChanged(s *Shape) {
	changed := false
	for i, slot := range o.slots {
		if slot.shape == s {
			o.rebuildSlot(i)
			changed = true
		}
	}
	if changed {
		o.Class.fixturesChanged()
	}
}

func (o *CollisionObject) retag(from int) {
	for i := from; i < len(o.slots); i++ {
		for _, f := range o.slots[i].fixtures {
			if tag := tagOf(f); tag != nil {
				tag.slot = i
			}
		}
	}
}

func (o *CollisionObject) rebuildAll() {
	for i := range o.slots {
		o.rebuildSlot(i)
	}
	o.Class.fixturesChanged()
}

// rebuildSlot destroys the fixtures of a slot and, unless the slot is
// disabled or its shape unconfigured, creates one fixture per primitive.
func (o *CollisionObject) rebuildSlot(index int) {
	slot := o.slots[index]
	o.destroyFixtures(slot)

	nb := o.NativeBody()
	if nb == nil || slot.disabled || !slot.shape.IsConfigured() {
		return
	}

	local := o.fixtureTransform().Mult(slot.transform)
	isStatic := o.Class.isStaticBody()
	count := slot.shape.PrimitiveCount(isStatic)
	for i := 0; i < count; i++ {
		prim, err := slot.shape.CreateTransformedShape(i, local, isStatic, slot.oneWay, slot.oneWayMargin)
		if err != nil {
			logger.Warn("skipping primitive", "object", o.rid, "slot", index, "index", i, "err", err)
			continue
		}
		def := box2d.MakeB2FixtureDef()
		def.Filter = box2d.MakeB2Filter()
		def.Shape = prim
		def.Density = 1
		def.UserData = &fixtureTag{object: o, owner: slot, slot: index, subIndex: i}
		o.Class.fillFixtureDef(&def)
		slot.fixtures = append(slot.fixtures, nb.CreateFixtureFromDef(&def))
	}
}

func (o *CollisionObject) destroyFixtures(slot *shapeSlot) {
	if nb := o.NativeBody(); nb != nil {
		for _, f := range slot.fixtures {
			nb.DestroyFixture(f)
		}
	}
	slot.fixtures = nil
}

// attach builds the native body in space from the pending definition and
// creates every slot's fixtures.
func (o *CollisionObject) attach(space *Space) {
	pending, ok := o.native.(*pendingBody)
	if !ok {
		panic("collision object already has a native body")
	}
	o.space = space

	def := pending.def
	def.Position = toB2Vec(o.transform.Origin())
	def.Angle = o.transform.Rotation()
	def.UserData = o
	o.Class.fillBodyDef(&def)

	nb := space.world.CreateBody(&def)
	o.native = &liveBody{body: nb}
	for i := range o.slots {
		o.rebuildSlot(i)
	}
	o.Class.bodyCreated(nb)
}

// detach destroys the native body. Its fixtures and joints go with it.
func (o *CollisionObject) detach() {
	nb := o.NativeBody()
	if nb == nil {
		return
	}
	o.Class.bodyDestroying()
	for _, slot := range o.slots {
		slot.fixtures = nil
	}
	o.space.world.DestroyBody(nb)

	def := box2d.MakeB2BodyDef()
	def.Position = toB2Vec(o.transform.Origin())
	def.Angle = o.transform.Rotation()
	o.native = &pendingBody{def: def}
	o.space = nil
}

// Destroy takes the object out of its space and releases every shape.
func (o *CollisionObject) Destroy() {
	if o.space != nil {
		o.space.RemoveObject(o)
	}
	o.ClearShapes()
}
