package gdbox2d

import (
	"math"

	"github.com/setanarut/vec"
)

// Transform represents a 2D affine transformation using a 2x3 matrix.
//
// The transformation matrix is represented as follows:
//
//	| a  c  tx |   -> X' = a * X + c * Y + tx
//	| b  d  ty |   -> Y' = b * X + d * Y + ty
//
// Where (a, b) is the x axis, (c, d) is the y axis and (tx, ty) is the origin.
// This is the same layout as Godot's Transform2D, which is what callers
// hand to collision objects and queries.
type Transform struct {
	a, b, c, d, tx, ty float64
}

// NewTransformIdentity creates and returns an identity transformation.
func NewTransformIdentity() Transform {
	return Transform{1, 0, 0, 1, 0, 0}
}

// NewTransformTranslate returns a new transformation matrix with translation
func NewTransformTranslate(translate vec.Vec2) Transform {
	return Transform{1, 0, 0, 1, translate.X, translate.Y}
}

// NewTransformRigid creates a new rigid transformation that combines
// translation and rotation.
//
// Parameters:
//   - translate: A 2D vector specifying the translation component.
//   - rotation: The angle of rotation in radians.
func NewTransformRigid(translate vec.Vec2, rotation float64) Transform {
	rot := vec.ForAngle(rotation)
	return Transform{rot.X, rot.Y, -rot.Y, rot.X, translate.X, translate.Y}
}

// NewTransformTRS returns translation * rotation * scale.
func NewTransformTRS(translate vec.Vec2, rotation float64, scale vec.Vec2) Transform {
	rot := vec.ForAngle(rotation)
	return Transform{
		rot.X * scale.X, rot.Y * scale.X,
		-rot.Y * scale.Y, rot.X * scale.Y,
		translate.X, translate.Y,
	}
}

// Inverse returns the inverse of this matrix t.
func (t Transform) Inverse() Transform {
	invDet := 1.0 / (t.a*t.d - t.c*t.b)
	return Transform{
		t.d * invDet, -t.b * invDet,
		-t.c * invDet, t.a * invDet,
		(t.c*t.ty - t.tx*t.d) * invDet, (t.tx*t.b - t.a*t.ty) * invDet,
	}
}

// Mult multiplies this and t2. The result applies t2 first, then t.
func (t Transform) Mult(t2 Transform) Transform {
	return Transform{
		t.a*t2.a + t.c*t2.b, t.b*t2.a + t.d*t2.b,
		t.a*t2.c + t.c*t2.d, t.b*t2.c + t.d*t2.d,
		t.a*t2.tx + t.c*t2.ty + t.tx, t.b*t2.tx + t.d*t2.ty + t.ty,
	}
}

// Apply applies the transformation to a given abs point `p` and returns the transformed point.
func (t Transform) Apply(p vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: t.a*p.X + t.c*p.Y + t.tx,
		Y: t.b*p.X + t.d*p.Y + t.ty,
	}
}

// Origin returns the translation part.
func (t Transform) Origin() vec.Vec2 {
	return vec.Vec2{t.tx, t.ty}
}

// YAxis returns the y basis vector.
func (t Transform) YAxis() vec.Vec2 { return vec.Vec2{t.c, t.d} }

// Rotation returns the angle of the x axis.
func (t Transform) Rotation() float64 {
	return math.Atan2(t.b, t.a)
}

// Scale returns the length of each basis vector. The y scale is negative
// when the basis is mirrored.
func (t Transform) Scale() vec.Vec2 {
	det := t.a*t.d - t.c*t.b
	sy := math.Hypot(t.c, t.d)
	if det < 0 {
		sy = -sy
	}
	return vec.Vec2{math.Hypot(t.a, t.b), sy}
}

// Orthonormalized strips the scale, keeping rotation and origin.
func (t Transform) Orthonormalized() Transform {
	return NewTransformRigid(t.Origin(), t.Rotation())
}

// IsEqualApprox compares all six components with a small tolerance.
func (t Transform) IsEqualApprox(o Transform) bool {
	return nearlyEqual(t.a, o.a) && nearlyEqual(t.b, o.b) &&
		nearlyEqual(t.c, o.c) && nearlyEqual(t.d, o.d) &&
		nearlyEqual(t.tx, o.tx) && nearlyEqual(t.ty, o.ty)
}
