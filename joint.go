package gdbox2d

import (
	"fmt"
	"math"

	"github.com/ByteArena/box2d"
	"github.com/setanarut/vec"
)

type JointType uint8

const (
	JointNone JointType = iota
	JointPin
	JointGroove
	JointDampedSpring
)

func (t JointType) String() string {
	switch t {
	case JointNone:
		return "none"
	case JointPin:
		return "pin"
	case JointGroove:
		return "groove"
	case JointDampedSpring:
		return "damped_spring"
	}
	return fmt.Sprintf("JointType(%d)", int(t))
}

// pinMotorTorque bounds the pin motor when no max force is set.
const pinMotorTorque = 1e9

// Joint constrains two bodies. Its native counterpart exists only while the
// joint is configured and both bodies have native bodies in the same space,
// and it is rebuilt from scratch whenever a parameter changes.
type Joint struct {
	UserData any

	rid        RID
	typ        JointType
	configured bool
	bodyA      *Body
	bodyB      *Body
	space      *Space
	native     box2d.B2JointInterface

	bias              float64
	maxBias           float64
	maxForce          float64
	disableCollisions bool

	// Anchors and groove ends are global positions captured by the Make
	// functions.
	anchorA vec.Vec2
	anchorB vec.Vec2
	groove1 vec.Vec2
	groove2 vec.Vec2

	pinSoftness      float64
	pinLimitEnabled  bool
	pinLowerAngle    float64
	pinUpperAngle    float64
	pinMotorEnabled  bool
	pinMotorVelocity float64

	restLength float64
	stiffness  float64
	damping    float64
}

// NewJoint returns an unconfigured joint.
func NewJoint() *Joint {
	return &Joint{
		rid:       NewRID(),
		maxBias:   math.MaxFloat32,
		maxForce:  math.MaxFloat32,
		stiffness: 20,
		damping:   1.5,
	}
}

func (j *Joint) String() string {
	return fmt.Sprint("Joint ", j.rid, " (", j.typ, ")")
}

func (j *Joint) RID() RID         { return j.rid }
func (j *Joint) Type() JointType  { return j.typ }
func (j *Joint) Configured() bool { return j.configured }
func (j *Joint) BodyA() *Body     { return j.bodyA }
func (j *Joint) BodyB() *Body     { return j.bodyB }
func (j *Joint) Space() *Space    { return j.space }

// Native returns the native joint, or nil while the joint is not
// materialized.
func (j *Joint) Native() box2d.B2JointInterface {
	return j.native
}

// MakePin configures a revolute joint around the global point anchor.
func (j *Joint) MakePin(anchor vec.Vec2, a, b *Body) {
	j.anchorA = anchor
	j.anchorB = anchor
	j.configure(JointPin, a, b)
}

// MakeGroove configures a prismatic joint: the global point anchorB of b
// slides along the groove from groove1 to groove2 fixed to a.
func (j *Joint) MakeGroove(groove1, groove2, anchorB vec.Vec2, a, b *Body) {
	j.groove1 = groove1
	j.groove2 = groove2
	j.anchorB = anchorB
	j.configure(JointGroove, a, b)
}

// MakeDampedSpring configures a spring between the global points anchorA
// of a and anchorB of b. The rest length starts as their distance.
func (j *Joint) MakeDampedSpring(anchorA, anchorB vec.Vec2, a, b *Body) {
	j.anchorA = anchorA
	j.anchorB = anchorB
	j.restLength = anchorA.Distance(anchorB)
	j.configure(JointDampedSpring, a, b)
}

func (j *Joint) configure(typ JointType, a, b *Body) {
	if j.space != nil {
		j.space.RemoveJoint(j)
	}
	j.unlinkBodies()
	j.typ = typ
	j.bodyA = a
	j.bodyB = b
	if a != nil {
		a.addJoint(j)
	}
	if b != nil {
		b.addJoint(j)
	}
	j.configured = true
	switch {
	case a != nil && a.space != nil:
		j.space = a.space
	case b != nil && b.space != nil:
		j.space = b.space
	}
	j.recreate()
}

func (j *Joint) unlinkBodies() {
	if j.bodyA != nil {
		j.bodyA.removeJoint(j)
	}
	if j.bodyB != nil {
		j.bodyB.removeJoint(j)
	}
	j.bodyA = nil
	j.bodyB = nil
}

// recreate rebuilds the native joint through the owning space.
func (j *Joint) recreate() {
	if j.space != nil {
		j.space.CreateJoint(j)
	}
}

// Bias and max bias have no native counterpart. Setting them still
// recreates the native joint, like every other parameter.
func (j *Joint) Bias() float64 { return j.bias }

func (j *Joint) SetBias(bias float64) {
	j.bias = bias
	j.recreate()
}

func (j *Joint) MaxBias() float64 { return j.maxBias }

func (j *Joint) SetMaxBias(bias float64) {
	j.maxBias = bias
	j.recreate()
}

func (j *Joint) MaxForce() float64 { return j.maxForce }

// SetMaxForce bounds the pin motor.
func (j *Joint) SetMaxForce(force float64) {
	j.maxForce = force
	j.recreate()
}

func (j *Joint) DisableCollisions() bool { return j.disableCollisions }

// SetDisableCollisions stops the two bodies from colliding with each other.
func (j *Joint) SetDisableCollisions(disable bool) {
	j.disableCollisions = disable
	j.recreate()
}

func (j *Joint) PinSoftness() float64 { return j.pinSoftness }

func (j *Joint) SetPinSoftness(softness float64) {
	j.pinSoftness = softness
	j.recreate()
}

// PinLimit returns whether the angular limit is enabled and its bounds in
// radians.
func (j *Joint) PinLimit() (enabled bool, lower, upper float64) {
	return j.pinLimitEnabled, j.pinLowerAngle, j.pinUpperAngle
}

// SetPinLimit limits the relative angle of the bodies. Bounds are swapped
// when given in the wrong order.
func (j *Joint) SetPinLimit(enabled bool, lower, upper float64) {
	j.pinLimitEnabled = enabled
	j.pinLowerAngle = math.Min(lower, upper)
	j.pinUpperAngle = math.Max(lower, upper)
	j.recreate()
}

// PinMotor returns whether the motor is enabled and its target angular
// velocity.
func (j *Joint) PinMotor() (enabled bool, velocity float64) {
	return j.pinMotorEnabled, j.pinMotorVelocity
}

func (j *Joint) SetPinMotor(enabled bool, velocity float64) {
	j.pinMotorEnabled = enabled
	j.pinMotorVelocity = velocity
	j.recreate()
}

func (j *Joint) DampedSpringRestLength() float64 { return j.restLength }
func (j *Joint) DampedSpringStiffness() float64  { return j.stiffness }
func (j *Joint) DampedSpringDamping() float64    { return j.damping }

func (j *Joint) SetDampedSpringRestLength(length float64) {
	j.restLength = length
	j.recreate()
}

func (j *Joint) SetDampedSpringStiffness(stiffness float64) {
	j.stiffness = stiffness
	j.recreate()
}

func (j *Joint) SetDampedSpringDamping(damping float64) {
	j.damping = damping
	j.recreate()
}

// ready reports whether both bodies have native bodies in space.
func (j *Joint) ready(space *Space) bool {
	if !j.configured || j.bodyA == nil || j.bodyB == nil || j.bodyA == j.bodyB {
		return false
	}
	if j.bodyA.space != space || j.bodyB.space != space {
		return false
	}
	return j.bodyA.NativeBody() != nil && j.bodyB.NativeBody() != nil
}

// jointDef builds a native definition from the current parameters and the
// current state of both native bodies.
func (j *Joint) jointDef() box2d.B2JointDefInterface {
	nbA := j.bodyA.NativeBody()
	nbB := j.bodyB.NativeBody()

	switch j.typ {
	case JointPin:
		def := box2d.MakeB2RevoluteJointDef()
		def.Initialize(nbA, nbB, toB2Vec(j.anchorA))
		def.EnableLimit = j.pinLimitEnabled
		def.LowerAngle = j.pinLowerAngle
		def.UpperAngle = j.pinUpperAngle
		def.EnableMotor = j.pinMotorEnabled
		def.MotorSpeed = j.pinMotorVelocity
		def.MaxMotorTorque = pinMotorTorque
		if j.maxForce > 0 && j.maxForce < math.MaxFloat32 {
			def.MaxMotorTorque = j.maxForce / (UnitsPerMeter * UnitsPerMeter)
		}
		def.CollideConnected = !j.disableCollisions
		def.UserData = j
		return &def

	case JointGroove:
		axis := unitOr(j.groove2.Sub(j.groove1), vec.Vec2{1, 0})
		lower := j.groove1.Sub(j.anchorB).Dot(axis)
		upper := j.groove2.Sub(j.anchorB).Dot(axis)
		anchor := toB2Vec(j.anchorB)

		def := box2d.MakeB2PrismaticJointDef()
		def.BodyA = nbA
		def.BodyB = nbB
		def.LocalAnchorA = nbA.GetLocalPoint(anchor)
		def.LocalAnchorB = nbB.GetLocalPoint(anchor)
		def.LocalAxisA = nbA.GetLocalVector(box2d.MakeB2Vec2(axis.X, axis.Y))
		def.ReferenceAngle = nbB.GetAngle() - nbA.GetAngle()
		def.EnableLimit = true
		def.LowerTranslation = toB2Length(math.Min(lower, upper))
		def.UpperTranslation = toB2Length(math.Max(lower, upper))
		def.CollideConnected = !j.disableCollisions
		def.UserData = j
		return &def

	case JointDampedSpring:
		def := box2d.MakeB2DistanceJointDef()
		def.BodyA = nbA
		def.BodyB = nbB
		def.LocalAnchorA = nbA.GetLocalPoint(toB2Vec(j.anchorA))
		def.LocalAnchorB = nbB.GetLocalPoint(toB2Vec(j.anchorB))
		def.Length = math.Max(toB2Length(j.restLength), box2d.B2_linearSlop)
		def.FrequencyHz, def.DampingRatio = springParams(j.stiffness, j.damping, nbA, nbB)
		def.CollideConnected = !j.disableCollisions
		def.UserData = j
		return &def
	}
	warnOnce("unsupported joint type", "type", j.typ)
	return nil
}

// springParams converts a stiffness and damping coefficient into the
// frequency and damping ratio of the native distance joint, using the
// effective mass of the pair. A non positive stiffness gives a rigid joint.
func springParams(stiffness, damping float64, a, b *box2d.B2Body) (frequencyHz, dampingRatio float64) {
	mA, mB := a.GetMass(), b.GetMass()
	var mass float64
	switch {
	case mA > 0 && mB > 0:
		mass = mA * mB / (mA + mB)
	case mA > 0:
		mass = mA
	default:
		mass = mB
	}
	if stiffness <= 0 || mass <= 0 {
		return 0, 0
	}
	omega := math.Sqrt(stiffness / mass)
	frequencyHz = omega / (2 * math.Pi)
	dampingRatio = damping / (2 * math.Sqrt(stiffness*mass))
	return frequencyHz, dampingRatio
}

// Clear drops the configuration and both bodies. The joint can be
// configured again.
func (j *Joint) Clear() {
	if j.space != nil {
		j.space.RemoveJoint(j)
	}
	j.configured = false
	j.typ = JointNone
	j.unlinkBodies()
}

// Destroy clears the joint and forgets its space.
func (j *Joint) Destroy() {
	j.Clear()
	if j.space != nil {
		j.space.joints.Remove(j)
	}
	j.space = nil
}
