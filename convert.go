package gdbox2d

import (
	"github.com/ByteArena/box2d"
	"github.com/setanarut/vec"
)

// UnitsPerMeter is how many caller units (pixels) make one solver meter.
const UnitsPerMeter = 100.0

// ShapeMinExtent is the smallest linear shape dimension, in caller units.
const ShapeMinExtent = 2 * box2d.B2_linearSlop * UnitsPerMeter

func toB2Vec(v vec.Vec2) box2d.B2Vec2 {
	return box2d.MakeB2Vec2(v.X/UnitsPerMeter, v.Y/UnitsPerMeter)
}

func fromB2Vec(v box2d.B2Vec2) vec.Vec2 {
	return vec.Vec2{v.X * UnitsPerMeter, v.Y * UnitsPerMeter}
}

func toB2Length(l float64) float64 {
	return l / UnitsPerMeter
}

func fromB2Length(l float64) float64 {
	return l * UnitsPerMeter
}

// toB2Transform keeps origin and rotation only; scale is baked into
// fixture vertices by the shape factory.
func toB2Transform(t Transform) box2d.B2Transform {
	var xf box2d.B2Transform
	xf.P = toB2Vec(t.Origin())
	xf.Q = box2d.MakeB2RotFromAngle(t.Rotation())
	return xf
}

func fromB2Transform(xf box2d.B2Transform) Transform {
	return NewTransformRigid(fromB2Vec(xf.P), xf.Q.GetAngle())
}

func toB2AABB(bb BB) box2d.B2AABB {
	var aabb box2d.B2AABB
	aabb.LowerBound = box2d.MakeB2Vec2(bb.L/UnitsPerMeter, bb.B/UnitsPerMeter)
	aabb.UpperBound = box2d.MakeB2Vec2(bb.R/UnitsPerMeter, bb.T/UnitsPerMeter)
	return aabb
}

func fromB2AABB(aabb box2d.B2AABB) BB {
	lo := fromB2Vec(aabb.LowerBound)
	hi := fromB2Vec(aabb.UpperBound)
	return NewBB(lo.X, lo.Y, hi.X, hi.Y)
}
