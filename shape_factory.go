package gdbox2d

import (
	"fmt"
	"math"

	"github.com/ByteArena/box2d"
	"github.com/setanarut/vec"
)

const (
	// half width of the box standing in for a segment on a moving body
	segmentHalfWidth = ShapeMinExtent
	// half length of the edge standing in for an infinite world boundary
	worldBoundaryHalfLength = 100000.0
)

// CreateTransformedShape builds a new native primitive for the index-th
// piece of the shape, with t baked into its geometry. The result is in
// solver units and belongs to the caller.
//
// isStatic selects edge geometry for segments (the solver has no edge
// collisions between moving bodies); oneWay adds the ghost vertices of a
// one-sided edge to line-like shapes. margin is the one-way margin; it is
// enforced at contact time, not baked into the geometry.
func (s *Shape) CreateTransformedShape(index int, t Transform, isStatic, oneWay bool, margin float64) (box2d.B2ShapeInterface, error) {
	if !s.configured {
		return nil, fmt.Errorf("create %v primitive: %w", s.kind, ErrShapeNotConfigured)
	}
	if count := s.PrimitiveCount(isStatic); index < 0 || index >= count {
		return nil, fmt.Errorf("create %v primitive %d of %d: %w", s.kind, index, count, ErrIndexOutOfRange)
	}

	switch s.kind {
	case ShapeCircle:
		return s.transformedCircle(t.Origin(), s.radius, t), nil
	case ShapeRectangle:
		he := s.halfExtents
		return newPolygonShape([]vec.Vec2{
			t.Apply(vec.Vec2{-he.X, -he.Y}),
			t.Apply(vec.Vec2{-he.X, he.Y}),
			t.Apply(vec.Vec2{he.X, he.Y}),
			t.Apply(vec.Vec2{he.X, -he.Y}),
		}), nil
	case ShapeCapsule:
		offset := s.height*0.5 - s.radius
		switch index {
		case 0:
			return s.transformedCircle(t.Apply(vec.Vec2{0, offset}), s.radius, t), nil
		case 1:
			return s.transformedCircle(t.Apply(vec.Vec2{0, -offset}), s.radius, t), nil
		default:
			return newPolygonShape([]vec.Vec2{
				t.Apply(vec.Vec2{-s.radius, -offset}),
				t.Apply(vec.Vec2{-s.radius, offset}),
				t.Apply(vec.Vec2{s.radius, offset}),
				t.Apply(vec.Vec2{s.radius, -offset}),
			}), nil
		}
	case ShapeConvexPolygon:
		points := applyAll(t, s.points)
		if len(points) >= box2d.B2_maxPolygonVertices {
			return newChainShape(points, true), nil
		}
		return newPolygonShape(points), nil
	case ShapeConcavePolygon:
		return newChainShape(applyAll(t, s.points), true), nil
	case ShapeSegment:
		if isStatic {
			return newEdgeShape(t.Apply(s.a), t.Apply(s.b), oneWay), nil
		}
		dir := s.a.Sub(s.b).Unit()
		right := dir.ReversePerp().Scale(segmentHalfWidth)
		return newPolygonShape([]vec.Vec2{
			t.Apply(s.a.Sub(right)),
			t.Apply(s.a.Add(right)),
			t.Apply(s.b.Sub(right)),
			t.Apply(s.b.Add(right)),
		}), nil
	case ShapeWorldBoundary:
		right := s.normal.ReversePerp().Scale(worldBoundaryHalfLength)
		base := s.normal.Scale(s.distance)
		return newEdgeShape(t.Apply(base.Sub(right)), t.Apply(base.Add(right)), oneWay), nil
	case ShapeSeparationRay:
		return newEdgeShape(t.Apply(s.a), t.Apply(s.b), oneWay), nil
	}
	warnOnce("unsupported shape type", "type", s.kind)
	return nil, fmt.Errorf("create %v primitive: %w", s.kind, ErrInvalidShapeData)
}

// transformedCircle honors only the x scale of t.
func (s *Shape) transformedCircle(center vec.Vec2, radius float64, t Transform) *box2d.B2CircleShape {
	scale := t.Scale()
	if !nearlyEqual(scale.X, math.Abs(scale.Y)) {
		warnOnce("circles don't support non uniform scale, using the x scale", "shape", s.rid)
	}
	shape := box2d.NewB2CircleShape()
	shape.M_p = toB2Vec(center)
	shape.M_radius = toB2Length(math.Max(radius*scale.X, ShapeMinExtent))
	return shape
}

func applyAll(t Transform, points []vec.Vec2) []vec.Vec2 {
	out := make([]vec.Vec2, len(points))
	for i, p := range points {
		out[i] = t.Apply(p)
	}
	return out
}

// weld converts to solver units and drops points closer than the solver's
// linear slop to the previously kept one.
func weld(points []vec.Vec2, loop bool) []box2d.B2Vec2 {
	out := make([]box2d.B2Vec2, 0, len(points))
	for _, p := range points {
		v := toB2Vec(p)
		if n := len(out); n > 0 && box2d.B2Vec2DistanceSquared(v, out[n-1]) <= box2d.B2_linearSlop*box2d.B2_linearSlop {
			continue
		}
		out = append(out, v)
	}
	if loop {
		for len(out) > 1 && box2d.B2Vec2DistanceSquared(out[0], out[len(out)-1]) <= box2d.B2_linearSlop*box2d.B2_linearSlop {
			out = out[:len(out)-1]
		}
	}
	return out
}

// hullArea is twice the largest triangle area spanned by the points, enough
// to tell a flat point set from one with a usable convex hull.
func hullArea(vs []box2d.B2Vec2) float64 {
	best := 0.0
	for i := range vs {
		for j := i + 1; j < len(vs); j++ {
			for k := j + 1; k < len(vs); k++ {
				e1 := box2d.B2Vec2Sub(vs[j], vs[i])
				e2 := box2d.B2Vec2Sub(vs[k], vs[i])
				best = math.Max(best, math.Abs(box2d.B2Vec2Cross(e1, e2)))
			}
		}
	}
	return best
}

// newPolygonShape builds a convex polygon from at most
// B2_maxPolygonVertices points, falling back to a floor sized box around
// degenerate input instead of tripping the solver's assertions.
func newPolygonShape(points []vec.Vec2) box2d.B2ShapeInterface {
	vs := weld(points, true)
	if len(vs) >= 3 && len(vs) <= box2d.B2_maxPolygonVertices && hullArea(vs) > box2d.B2_linearSlop*box2d.B2_linearSlop {
		shape := box2d.NewB2PolygonShape()
		shape.Set(vs, len(vs))
		return shape
	}
	logger.Warn("degenerate polygon, using a minimal box", "points", len(points))
	return degenerateBox(points)
}

func degenerateBox(points []vec.Vec2) box2d.B2ShapeInterface {
	bb := NewBBForCircle(vec.Vec2{}, 0)
	if len(points) > 0 {
		bb = NewBBForCircle(points[0], 0)
		for _, p := range points[1:] {
			bb = bb.Expand(p)
		}
	}
	hw := math.Max((bb.R-bb.L)*0.5, ShapeMinExtent)
	hh := math.Max((bb.T-bb.B)*0.5, ShapeMinExtent)
	shape := box2d.NewB2PolygonShape()
	shape.SetAsBoxFromCenterAndAngle(toB2Length(hw), toB2Length(hh), toB2Vec(bb.Center()), 0)
	return shape
}

// newChainShape builds a closed loop (or an open chain for two points).
func newChainShape(points []vec.Vec2, loop bool) box2d.B2ShapeInterface {
	vs := weld(points, loop)
	switch {
	case loop && len(vs) >= 3:
		shape := box2d.MakeB2ChainShape()
		shape.CreateLoop(vs, len(vs))
		return &shape
	case len(vs) >= 2:
		shape := box2d.MakeB2ChainShape()
		shape.CreateChain(vs, len(vs))
		return &shape
	}
	logger.Warn("degenerate chain, using a minimal box", "points", len(points))
	return degenerateBox(points)
}

// newEdgeShape builds a two sided edge, or with oneWay an edge whose ghost
// vertices extend it along its own direction on both ends.
func newEdgeShape(a, b vec.Vec2, oneWay bool) *box2d.B2EdgeShape {
	v1, v2 := toB2Vec(a), toB2Vec(b)
	shape := box2d.NewB2EdgeShape()
	shape.Set(v1, v2)
	if oneWay {
		dir := box2d.B2Vec2Sub(v1, v2)
		shape.M_vertex0 = box2d.B2Vec2Add(v1, dir)
		shape.M_vertex3 = box2d.B2Vec2Sub(v2, dir)
		shape.M_hasVertex0 = true
		shape.M_hasVertex3 = true
	}
	return shape
}
