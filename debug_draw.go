package gdbox2d

import (
	"github.com/ByteArena/box2d"
	"github.com/setanarut/vec"
)

// Draw flags
const (
	DrawShapes          = 1 << 0
	DrawJoints          = 1 << 1
	DrawCollisionPoints = 1 << 2
)

// 16 bytes
type FColor struct {
	R, G, B, A float32
}

// Drawer renders a space for debugging. Positions are in caller units.
type Drawer interface {
	DrawCircle(pos vec.Vec2, angle, radius float64, outline, fill FColor, data any)
	DrawSegment(a, b vec.Vec2, fill FColor, data any)
	DrawPolygon(count int, verts []vec.Vec2, radius float64, outline, fill FColor, data any)
	DrawDot(size float64, pos vec.Vec2, fill FColor, data any)

	Flags() uint
	OutlineColor() FColor
	ObjectColor(object *CollisionObject, data any) FColor
	JointColor() FColor
	CollisionPointColor() FColor
	Data() any
}

// DrawFixture draws one native fixture of object.
func DrawFixture(object *CollisionObject, fixture *box2d.B2Fixture, drawer Drawer) {
	data := drawer.Data()
	outline := drawer.OutlineColor()
	fill := drawer.ObjectColor(object, data)
	xf := fixture.GetBody().GetTransform()

	switch shape := fixture.GetShape().(type) {
	case *box2d.B2CircleShape:
		center := fromB2Vec(box2d.B2TransformVec2Mul(xf, shape.M_p))
		drawer.DrawCircle(center, xf.Q.GetAngle(), fromB2Length(shape.M_radius), outline, fill, data)
	case *box2d.B2PolygonShape:
		verts := make([]vec.Vec2, shape.M_count)
		for i := range verts {
			verts[i] = fromB2Vec(box2d.B2TransformVec2Mul(xf, shape.M_vertices[i]))
		}
		drawer.DrawPolygon(len(verts), verts, fromB2Length(shape.M_radius), outline, fill, data)
	case *box2d.B2EdgeShape:
		a := fromB2Vec(box2d.B2TransformVec2Mul(xf, shape.M_vertex1))
		b := fromB2Vec(box2d.B2TransformVec2Mul(xf, shape.M_vertex2))
		drawer.DrawSegment(a, b, fill, data)
	case *box2d.B2ChainShape:
		for i := 0; i < shape.GetChildCount(); i++ {
			edge := box2d.MakeB2EdgeShape()
			shape.GetChildEdge(&edge, i)
			a := fromB2Vec(box2d.B2TransformVec2Mul(xf, edge.M_vertex1))
			b := fromB2Vec(box2d.B2TransformVec2Mul(xf, edge.M_vertex2))
			drawer.DrawSegment(a, b, fill, data)
		}
	}
}

var springVerts = []vec.Vec2{
	{0.00, 0.0},
	{0.20, 0.0},
	{0.25, 3.0},
	{0.30, -6.0},
	{0.35, 6.0},
	{0.40, -6.0},
	{0.45, 6.0},
	{0.50, -6.0},
	{0.55, 6.0},
	{0.60, -6.0},
	{0.65, 6.0},
	{0.70, -3.0},
	{0.75, 6.0},
	{0.80, 0.0},
	{1.00, 0.0},
}

// anchored is implemented by every native joint kind the package creates.
type anchored interface {
	GetAnchorA() box2d.B2Vec2
	GetAnchorB() box2d.B2Vec2
}

// DrawJoint draws a materialized joint. Joints without a native joint are
// skipped.
func DrawJoint(joint *Joint, drawer Drawer) {
	native, ok := joint.native.(anchored)
	if !ok {
		return
	}
	data := drawer.Data()
	color := drawer.JointColor()

	a := fromB2Vec(native.GetAnchorA())
	b := fromB2Vec(native.GetAnchorB())

	switch joint.typ {
	case JointPin:
		drawer.DrawDot(5, a, color, data)
	case JointGroove:
		drawer.DrawDot(5, b, color, data)
		drawer.DrawSegment(a, b, color, data)
	case JointDampedSpring:
		drawer.DrawDot(5, a, color, data)
		drawer.DrawDot(5, b, color, data)

		delta := b.Sub(a)
		length := delta.Mag()
		if length == 0 {
			return
		}
		cos := delta.X
		sin := delta.Y
		s := 1.0 / length

		r1 := vec.Vec2{cos, -sin * s}
		r2 := vec.Vec2{sin, cos * s}

		verts := make([]vec.Vec2, len(springVerts))
		for i, vt := range springVerts {
			verts[i] = vec.Vec2{vt.Dot(r1) + a.X, vt.Dot(r2) + a.Y}
		}
		for i := 0; i < len(verts)-1; i++ {
			drawer.DrawSegment(verts[i], verts[i+1], color, data)
		}
	}
}

// DrawSpace draws the fixtures, joints and contact points of space selected
// by the drawer flags.
func DrawSpace(space *Space, drawer Drawer) {
	flags := drawer.Flags()
	if flags&DrawShapes != 0 {
		space.EachObject(func(o *CollisionObject) {
			for _, slot := range o.slots {
				for _, fixture := range slot.fixtures {
					DrawFixture(o, fixture, drawer)
				}
			}
		})
	}
	if flags&DrawJoints != 0 {
		space.EachJoint(func(j *Joint) {
			DrawJoint(j, drawer)
		})
	}
	if flags&DrawCollisionPoints != 0 {
		data := drawer.Data()
		color := drawer.CollisionPointColor()
		for _, p := range space.Contacts() {
			drawer.DrawDot(3, p, color, data)
		}
	}
}
