package gdbox2d

import (
	"fmt"
	"slices"

	"github.com/ByteArena/box2d"
	"github.com/setanarut/vec"
)

// BodyMode for bodies; Static, Kinematic, Rigid or RigidLinear
type BodyMode uint8

const (
	BodyStatic BodyMode = iota
	BodyKinematic
	BodyRigid
	// BodyRigidLinear is a rigid body that never rotates.
	BodyRigidLinear
)

func (m BodyMode) String() string {
	switch m {
	case BodyStatic:
		return "static"
	case BodyKinematic:
		return "kinematic"
	case BodyRigid:
		return "rigid"
	case BodyRigidLinear:
		return "rigid_linear"
	}
	return fmt.Sprintf("BodyMode(%d)", int(m))
}

func (m BodyMode) nativeType() uint8 {
	switch m {
	case BodyStatic:
		return box2d.B2BodyType.B2_staticBody
	case BodyKinematic:
		return box2d.B2BodyType.B2_kinematicBody
	}
	return box2d.B2BodyType.B2_dynamicBody
}

// DampMode selects how a body's damping combines with the space default.
type DampMode uint8

const (
	DampCombine DampMode = iota
	DampReplace
)

// BodyState is the snapshot handed to the state sync callback.
type BodyState struct {
	Transform       Transform
	LinearVelocity  vec.Vec2
	AngularVelocity float64
	Sleeping        bool
	ContactCount    int
}

type Body struct {
	*CollisionObject

	mode            BodyMode
	linearVelocity  vec.Vec2
	angularVelocity float64
	sleeping        bool
	canSleep        bool
	mass            float64
	inertia         float64 // 0 computes it from the shapes
	gravityScale    float64
	linearDamp      float64
	angularDamp     float64
	dampMode        DampMode
	continuousCD    bool
	friction        float64
	bounce          float64
	constantForce   vec.Vec2
	constantTorque  float64

	exceptions map[*Body]struct{}
	joints     []*Joint

	stateSync    func(BodyState)
	stepCallback func(*Body)
}

// NewBody returns a rigid body with unit mass, outside of any space.
func NewBody() *Body {
	b := &Body{
		mode:         BodyRigid,
		canSleep:     true,
		mass:         1,
		gravityScale: 1,
		friction:     1,
		exceptions:   map[*Body]struct{}{},
	}
	b.CollisionObject = newCollisionObject(b)
	return b
}

// NewStaticBody returns a body in BodyStatic mode.
func NewStaticBody() *Body {
	b := NewBody()
	b.SetMode(BodyStatic)
	return b
}

// NewKinematicBody returns a body in BodyKinematic mode.
func NewKinematicBody() *Body {
	b := NewBody()
	b.SetMode(BodyKinematic)
	return b
}

func (b *Body) Mode() BodyMode { return b.mode }

// SetMode changes the body mode. Fixtures are rebuilt since segment
// geometry depends on whether the body is static.
func (b *Body) SetMode(mode BodyMode) {
	if b.mode == mode {
		return
	}
	b.mode = mode
	if mode == BodyStatic || mode == BodyKinematic {
		b.angularVelocity = 0
		if mode == BodyStatic {
			b.linearVelocity = vec.Vec2{}
		}
	}
	nb := b.NativeBody()
	if nb == nil {
		return
	}
	nb.SetType(mode.nativeType())
	nb.SetFixedRotation(mode == BodyRigidLinear)
	b.rebuildAll()
	if mode == BodyStatic {
		b.space.activeBodies.Remove(b)
	} else {
		b.wakeUp()
	}
}

func (b *Body) LinearVelocity() vec.Vec2 { return b.linearVelocity }

func (b *Body) SetLinearVelocity(v vec.Vec2) {
	if b.mode == BodyStatic {
		return
	}
	b.linearVelocity = v
	if nb := b.NativeBody(); nb != nil {
		nb.SetLinearVelocity(toB2Vec(v))
	}
	b.wakeUp()
}

func (b *Body) AngularVelocity() float64 { return b.angularVelocity }

func (b *Body) SetAngularVelocity(w float64) {
	if b.mode == BodyStatic || b.mode == BodyRigidLinear {
		return
	}
	b.angularVelocity = w
	if nb := b.NativeBody(); nb != nil {
		nb.SetAngularVelocity(w)
	}
	b.wakeUp()
}

// ApplyCentralImpulse changes the velocity by impulse / mass.
func (b *Body) ApplyCentralImpulse(impulse vec.Vec2) {
	if !b.isRigid() {
		return
	}
	if nb := b.NativeBody(); nb != nil {
		nb.ApplyLinearImpulseToCenter(toB2Vec(impulse), true)
		b.linearVelocity = fromB2Vec(nb.GetLinearVelocity())
	} else {
		b.linearVelocity = b.linearVelocity.Add(impulse.Scale(1 / b.mass))
	}
	b.wakeUp()
}

// ApplyImpulse applies impulse at position, an offset from the body origin
// in global orientation.
func (b *Body) ApplyImpulse(impulse, position vec.Vec2) {
	if !b.isRigid() {
		return
	}
	nb := b.NativeBody()
	if nb == nil {
		b.ApplyCentralImpulse(impulse)
		return
	}
	point := b.transform.Origin().Add(position)
	nb.ApplyLinearImpulse(toB2Vec(impulse), toB2Vec(point), true)
	b.linearVelocity = fromB2Vec(nb.GetLinearVelocity())
	b.angularVelocity = nb.GetAngularVelocity()
	b.wakeUp()
}

// ApplyTorqueImpulse changes the angular velocity by impulse / inertia.
func (b *Body) ApplyTorqueImpulse(impulse float64) {
	if !b.isRigid() {
		return
	}
	if nb := b.NativeBody(); nb != nil {
		nb.ApplyAngularImpulse(impulse/(UnitsPerMeter*UnitsPerMeter), true)
		b.angularVelocity = nb.GetAngularVelocity()
	}
	b.wakeUp()
}

// ApplyForce applies force at position for the next step only.
func (b *Body) ApplyForce(force, position vec.Vec2) {
	nb := b.NativeBody()
	if nb == nil || !b.isRigid() {
		return
	}
	point := b.transform.Origin().Add(position)
	nb.ApplyForce(toB2Vec(force), toB2Vec(point), true)
	b.wakeUp()
}

// ApplyCentralForce applies force at the center of mass for the next step only.
func (b *Body) ApplyCentralForce(force vec.Vec2) {
	nb := b.NativeBody()
	if nb == nil || !b.isRigid() {
		return
	}
	nb.ApplyForceToCenter(toB2Vec(force), true)
	b.wakeUp()
}

// ApplyTorque applies torque for the next step only.
func (b *Body) ApplyTorque(torque float64) {
	nb := b.NativeBody()
	if nb == nil || !b.isRigid() {
		return
	}
	nb.ApplyTorque(torque/(UnitsPerMeter*UnitsPerMeter), true)
	b.wakeUp()
}

// AddConstantCentralForce adds to the force applied on every step.
func (b *Body) AddConstantCentralForce(force vec.Vec2) {
	b.constantForce = b.constantForce.Add(force)
	b.wakeUp()
}

// AddConstantTorque adds to the torque applied on every step.
func (b *Body) AddConstantTorque(torque float64) {
	b.constantTorque += torque
	b.wakeUp()
}

func (b *Body) ConstantForce() vec.Vec2 { return b.constantForce }
func (b *Body) ConstantTorque() float64 { return b.constantTorque }

// SetConstantForce replaces the force applied on every step.
func (b *Body) SetConstantForce(force vec.Vec2) {
	b.constantForce = force
	b.wakeUp()
}

// SetConstantTorque replaces the torque applied on every step.
func (b *Body) SetConstantTorque(torque float64) {
	b.constantTorque = torque
	b.wakeUp()
}

func (b *Body) applyConstantForces() {
	nb := b.NativeBody()
	if nb == nil || !b.isRigid() {
		return
	}
	if b.constantForce != (vec.Vec2{}) {
		nb.ApplyForceToCenter(toB2Vec(b.constantForce), false)
	}
	if b.constantTorque != 0 {
		nb.ApplyTorque(b.constantTorque/(UnitsPerMeter*UnitsPerMeter), false)
	}
}

func (b *Body) isRigid() bool {
	return b.mode == BodyRigid || b.mode == BodyRigidLinear
}

func (b *Body) IsSleeping() bool { return b.sleeping }

// SetSleeping puts the body to sleep or wakes it up.
func (b *Body) SetSleeping(sleeping bool) {
	if !sleeping {
		b.wakeUp()
		return
	}
	b.sleeping = true
	if nb := b.NativeBody(); nb != nil {
		nb.SetAwake(false)
		b.space.activeBodies.Remove(b)
	}
}

// wakeUp marks the body awake and puts it on its space's active list.
func (b *Body) wakeUp() {
	if b.mode == BodyStatic {
		return
	}
	b.sleeping = false
	if nb := b.NativeBody(); nb != nil {
		nb.SetAwake(true)
		b.space.activeBodies.Add(b)
	}
}

func (b *Body) CanSleep() bool { return b.canSleep }

func (b *Body) SetCanSleep(canSleep bool) {
	b.canSleep = canSleep
	if nb := b.NativeBody(); nb != nil {
		nb.SetSleepingAllowed(canSleep)
	}
	if !canSleep {
		b.wakeUp()
	}
}

func (b *Body) Mass() float64 { return b.mass }

// SetMass sets the mass of a rigid body. Non positive masses are ignored.
func (b *Body) SetMass(mass float64) {
	if mass <= 0 {
		logger.Warn("body mass must be positive, ignoring", "body", b.rid, "mass", mass)
		return
	}
	b.mass = mass
	b.applyMass()
}

// Inertia returns the moment of inertia in caller units. With no explicit
// inertia it is derived from the fixtures and the mass.
func (b *Body) Inertia() float64 {
	if b.inertia > 0 {
		return b.inertia
	}
	if nb := b.NativeBody(); nb != nil && nb.GetType() == box2d.B2BodyType.B2_dynamicBody {
		lc := nb.GetLocalCenter()
		return (nb.GetInertia() - nb.GetMass()*box2d.B2Vec2Dot(lc, lc)) * UnitsPerMeter * UnitsPerMeter
	}
	return 0
}

// SetInertia sets the moment of inertia. 0 derives it from the shapes.
func (b *Body) SetInertia(inertia float64) {
	if inertia < 0 {
		logger.Warn("body inertia must not be negative, ignoring", "body", b.rid, "inertia", inertia)
		return
	}
	b.inertia = inertia
	b.applyMass()
}

// CenterOfMass returns the center of mass in body local coordinates.
func (b *Body) CenterOfMass() vec.Vec2 {
	if nb := b.NativeBody(); nb != nil {
		return fromB2Vec(nb.GetLocalCenter())
	}
	return vec.Vec2{}
}

// applyMass overrides the mass the native body derives from its fixtures
// with the body mass, scaling the derived inertia to match.
func (b *Body) applyMass() {
	nb := b.NativeBody()
	if nb == nil || nb.GetType() != box2d.B2BodyType.B2_dynamicBody {
		return
	}
	nb.ResetMassData()
	var md box2d.B2MassData
	nb.GetMassData(&md)
	centerInertia := md.I - md.Mass*box2d.B2Vec2Dot(md.Center, md.Center)

	var inertia float64
	switch {
	case b.mode == BodyRigidLinear:
	case b.inertia > 0:
		inertia = b.inertia / (UnitsPerMeter * UnitsPerMeter)
	case md.Mass > 0 && centerInertia > 0:
		inertia = centerInertia * b.mass / md.Mass
	}

	out := box2d.B2MassData{Mass: b.mass, Center: md.Center}
	if inertia > 0 {
		out.I = inertia + b.mass*box2d.B2Vec2Dot(md.Center, md.Center)
	}
	nb.SetMassData(&out)
}

func (b *Body) GravityScale() float64 { return b.gravityScale }

func (b *Body) SetGravityScale(scale float64) {
	b.gravityScale = scale
	if nb := b.NativeBody(); nb != nil {
		nb.SetGravityScale(scale)
	}
}

func (b *Body) LinearDamp() float64  { return b.linearDamp }
func (b *Body) AngularDamp() float64 { return b.angularDamp }
func (b *Body) DampMode() DampMode   { return b.dampMode }

func (b *Body) SetLinearDamp(damp float64) {
	b.linearDamp = damp
	b.applyDamping()
}

func (b *Body) SetAngularDamp(damp float64) {
	b.angularDamp = damp
	b.applyDamping()
}

func (b *Body) SetDampMode(mode DampMode) {
	b.dampMode = mode
	b.applyDamping()
}

// effectiveDamping combines the body damping with the space default.
func (b *Body) effectiveDamping() (linear, angular float64) {
	linear, angular = b.linearDamp, b.angularDamp
	if b.dampMode == DampCombine && b.space != nil {
		linear += b.space.config.LinearDamp
		angular += b.space.config.AngularDamp
	}
	return linear, angular
}

func (b *Body) applyDamping() {
	if nb := b.NativeBody(); nb != nil {
		linear, angular := b.effectiveDamping()
		nb.SetLinearDamping(linear)
		nb.SetAngularDamping(angular)
	}
}

func (b *Body) ContinuousCollisionDetection() bool { return b.continuousCD }

// SetContinuousCollisionDetection makes the solver treat the body as a bullet.
func (b *Body) SetContinuousCollisionDetection(enabled bool) {
	b.continuousCD = enabled
	if nb := b.NativeBody(); nb != nil {
		nb.SetBullet(enabled)
	}
}

func (b *Body) Friction() float64 { return b.friction }
func (b *Body) Bounce() float64   { return b.bounce }

func (b *Body) SetFriction(friction float64) {
	b.friction = friction
	for _, slot := range b.slots {
		for _, f := range slot.fixtures {
			f.SetFriction(friction)
		}
	}
}

func (b *Body) SetBounce(bounce float64) {
	b.bounce = bounce
	for _, slot := range b.slots {
		for _, f := range slot.fixtures {
			f.SetRestitution(bounce)
		}
	}
}

// AddCollisionException stops the body from colliding with other.
func (b *Body) AddCollisionException(other *Body) {
	b.exceptions[other] = struct{}{}
	b.refilter()
}

func (b *Body) RemoveCollisionException(other *Body) {
	delete(b.exceptions, other)
	b.refilter()
}

func (b *Body) HasCollisionException(other *Body) bool {
	_, ok := b.exceptions[other]
	return ok
}

func (b *Body) CollisionExceptions() []*Body {
	out := make([]*Body, 0, len(b.exceptions))
	for other := range b.exceptions {
		out = append(out, other)
	}
	return out
}

// Joints returns the joints that reference the body.
func (b *Body) Joints() []*Joint {
	return slices.Clone(b.joints)
}

func (b *Body) addJoint(j *Joint) {
	if !slices.Contains(b.joints, j) {
		b.joints = append(b.joints, j)
	}
}

func (b *Body) removeJoint(j *Joint) {
	b.joints = slices.DeleteFunc(b.joints, func(other *Joint) bool { return other == j })
}

// SetStateSyncCallback registers f to receive the body state from
// Space.CallQueries after every step the body moved in. nil unregisters.
func (b *Body) SetStateSyncCallback(f func(BodyState)) {
	b.stateSync = f
	if f == nil && b.space != nil {
		b.space.stateQueries.Remove(b)
	}
}

// SetStepCallback registers f to run inside Space.Step for every step the
// body is active. nil unregisters.
func (b *Body) SetStepCallback(f func(*Body)) {
	b.stepCallback = f
}

// State returns a snapshot of the body state.
func (b *Body) State() BodyState {
	return BodyState{
		Transform:       b.transform,
		LinearVelocity:  b.linearVelocity,
		AngularVelocity: b.angularVelocity,
		Sleeping:        b.sleeping,
		ContactCount:    b.ContactCount(),
	}
}

// ContactCount is the number of touching, enabled native contacts.
func (b *Body) ContactCount() int {
	nb := b.NativeBody()
	if nb == nil {
		return 0
	}
	n := 0
	for edge := nb.GetContactList(); edge != nil; edge = edge.Next {
		if edge.Contact.IsTouching() && edge.Contact.IsEnabled() {
			n++
		}
	}
	return n
}

// afterStep pulls the native state back, runs the step callback and
// leaves the active list once the native body fell asleep.
func (b *Body) afterStep() {
	space := b.space
	nb := b.NativeBody()
	if nb == nil {
		return
	}
	b.syncTransform(nb)
	b.linearVelocity = fromB2Vec(nb.GetLinearVelocity())
	b.angularVelocity = nb.GetAngularVelocity()
	b.sleeping = !nb.IsAwake()

	if b.stepCallback != nil {
		b.stepCallback(b)
		if b.space != space {
			return
		}
	}
	if b.stateSync != nil {
		space.stateQueries.Add(b)
	}
	if !nb.IsAwake() {
		space.activeBodies.Remove(b)
	}
}

func (b *Body) fillBodyDef(def *box2d.B2BodyDef) {
	def.Type = b.mode.nativeType()
	def.LinearVelocity = toB2Vec(b.linearVelocity)
	def.AngularVelocity = b.angularVelocity
	def.LinearDamping, def.AngularDamping = b.effectiveDamping()
	def.AllowSleep = b.canSleep
	def.Awake = !b.sleeping
	def.FixedRotation = b.mode == BodyRigidLinear
	def.Bullet = b.continuousCD
	def.GravityScale = b.gravityScale
}

func (b *Body) fillFixtureDef(def *box2d.B2FixtureDef) {
	def.Friction = b.friction
	def.Restitution = b.bounce
}

func (b *Body) isStaticBody() bool {
	return b.mode == BodyStatic
}

func (b *Body) bodyCreated(nb *box2d.B2Body) {
	b.applyMass()
	if b.mode != BodyStatic && !b.sleeping {
		b.space.activeBodies.Add(b)
	}
	for _, j := range b.joints {
		if j.configured {
			b.space.CreateJoint(j)
		}
	}
}

func (b *Body) bodyDestroying() {
	b.space.activeBodies.Remove(b)
	b.space.stateQueries.Remove(b)
	for _, j := range b.joints {
		j.native = nil
	}
}

func (b *Body) fixturesChanged() {
	b.applyMass()
}

// Destroy takes the body out of its space, releases its shapes and drops
// it from every joint and collision exception list.
func (b *Body) Destroy() {
	b.CollisionObject.Destroy()
	for _, j := range slices.Clone(b.joints) {
		j.Clear()
	}
	for other := range b.exceptions {
		delete(other.exceptions, b)
	}
	clear(b.exceptions)
}
