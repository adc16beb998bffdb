package gdbox2d

import (
	"math"
	"slices"

	"github.com/ByteArena/box2d"
	"github.com/setanarut/vec"
)

// queryShape is a shape placed in the world for a direct space query. Its
// primitives are in solver units and local to xf.
type queryShape struct {
	prims  []box2d.B2ShapeInterface
	xf     box2d.B2Transform
	margin float64
	bb     BB
}

// newQueryShape builds the primitives of shape at t. Scale and skew of t
// are baked into the primitives, margin (caller units) inflates them.
func newQueryShape(shape *Shape, t Transform, margin float64) (*queryShape, error) {
	local := t.Orthonormalized().Inverse().Mult(t)
	q := &queryShape{
		xf:     toB2Transform(t),
		margin: toB2Length(math.Max(margin, 0)),
	}
	first := true
	for i := 0; i < shape.PrimitiveCount(false); i++ {
		prim, err := shape.CreateTransformedShape(i, local, false, false, 0)
		if err != nil {
			return nil, err
		}
		q.prims = append(q.prims, prim)
		for child := 0; child < prim.GetChildCount(); child++ {
			var aabb box2d.B2AABB
			prim.ComputeAABB(&aabb, q.xf, child)
			if first {
				q.bb = fromB2AABB(aabb)
				first = false
			} else {
				q.bb = q.bb.Merge(fromB2AABB(aabb))
			}
		}
	}
	q.bb = q.bb.Grow(math.Max(margin, 0))
	return q, nil
}

// sweepHit is the first contact of a query shape moving against one fixture.
type sweepHit struct {
	fixture *box2d.B2Fixture
	tag     *fixtureTag
	// fraction of the motion at which contact begins
	toi float64
	// point on the collider, in caller units
	point vec.Vec2
	// from the collider toward the query shape
	normal vec.Vec2
}

// sweep gathers up to max candidates overlapping the swept bounds of q and
// tests each against q moving by motion. Hits are sorted by fraction, ties
// in discovery order.
func (s *Space) sweep(q *queryShape, motion vec.Vec2, params QueryParameters, max int) []sweepHit {
	ctx := newFixtureQueryContext(params, max)
	s.world.QueryAABB(ctx.bbQuery, toB2AABB(q.bb.Swept(motion)))

	var hits []sweepHit
	for _, fixture := range ctx.fixtures {
		if hit, ok := q.sweepFixture(fixture, toB2Vec(motion)); ok {
			hits = append(hits, hit)
		}
	}
	slices.SortStableFunc(hits, func(a, b sweepHit) int {
		switch {
		case a.toi < b.toi:
			return -1
		case a.toi > b.toi:
			return 1
		}
		return 0
	})
	return hits
}

// sweepFixture runs the narrow phase of every primitive child against every
// child of fixture and keeps the earliest contact.
func (q *queryShape) sweepFixture(fixture *box2d.B2Fixture, motion box2d.B2Vec2) (sweepHit, bool) {
	best := sweepHit{toi: math.Inf(1)}
	found := false
	other := fixture.GetShape()
	xfB := fixture.GetBody().GetTransform()
	swept := q.bb.Swept(fromB2Vec(motion))

	for _, prim := range q.prims {
		for ca := 0; ca < prim.GetChildCount(); ca++ {
			for cb := 0; cb < other.GetChildCount(); cb++ {
				if !swept.Intersects(fromB2AABB(fixture.GetAABB(cb))) {
					continue
				}
				toi, ok := q.timeOfImpact(prim, ca, other, cb, xfB, motion)
				if !ok || toi >= best.toi {
					continue
				}
				xfA := q.xf
				xfA.P = box2d.B2Vec2Add(q.xf.P, box2d.B2Vec2MulScalar(toi, motion))
				point, normal := q.contactAt(prim, ca, xfA, other, cb, xfB)
				best = sweepHit{
					fixture: fixture,
					tag:     tagOf(fixture),
					toi:     toi,
					point:   point,
					normal:  normal,
				}
				found = true
			}
		}
	}
	return best, found
}

// timeOfImpact sweeps child ca of prim along motion against the resting
// child cb of other.
func (q *queryShape) timeOfImpact(prim box2d.B2ShapeInterface, ca int, other box2d.B2ShapeInterface, cb int, xfB box2d.B2Transform, motion box2d.B2Vec2) (float64, bool) {
	var input box2d.B2TOIInput
	input.ProxyA.Set(prim, ca)
	input.ProxyA.M_radius += q.margin
	input.ProxyB.Set(other, cb)

	angleA := q.xf.Q.GetAngle()
	input.SweepA.C0 = q.xf.P
	input.SweepA.C = box2d.B2Vec2Add(q.xf.P, motion)
	input.SweepA.A0 = angleA
	input.SweepA.A = angleA

	angleB := xfB.Q.GetAngle()
	input.SweepB.C0 = xfB.P
	input.SweepB.C = xfB.P
	input.SweepB.A0 = angleB
	input.SweepB.A = angleB
	input.TMax = 1

	var output box2d.B2TOIOutput
	box2d.B2TimeOfImpact(&output, &input)
	switch output.State {
	case box2d.B2TOIOutput_State.E_overlapped:
		return 0, true
	case box2d.B2TOIOutput_State.E_touching:
		return clamp01(output.T), true
	}
	return 1, false
}

// contactAt finds the contact point on the collider and the normal toward
// the query shape, with the query shape at xfA.
func (q *queryShape) contactAt(prim box2d.B2ShapeInterface, ca int, xfA box2d.B2Transform, other box2d.B2ShapeInterface, cb int, xfB box2d.B2Transform) (point, normal vec.Vec2) {
	input := box2d.MakeB2DistanceInput()
	input.ProxyA.Set(prim, ca)
	input.ProxyA.M_radius += q.margin
	input.ProxyB.Set(other, cb)
	input.TransformA = xfA
	input.TransformB = xfB
	input.UseRadii = true

	cache := box2d.MakeB2SimplexCache()
	var output box2d.B2DistanceOutput
	box2d.B2Distance(&output, &cache, &input)

	point = fromB2Vec(output.PointB)
	if output.Distance > 0 {
		d := box2d.B2Vec2Sub(output.PointA, output.PointB)
		return point, unitOr(vec.Vec2{d.X, d.Y}, vec.Vec2{})
	}

	// Overlapping: the manifold knows the separating direction.
	if n, p, ok := collideChildren(other, cb, xfB, prim, ca, xfA); ok {
		return fromB2Vec(p), n
	}
	return point, unitOr(fromB2Vec(xfA.P).Sub(point), vec.Vec2{})
}

// childShape returns child i of a chain as an edge, any other shape as is.
func childShape(shape box2d.B2ShapeInterface, i int) box2d.B2ShapeInterface {
	chain, ok := shape.(*box2d.B2ChainShape)
	if !ok {
		return shape
	}
	edge := box2d.MakeB2EdgeShape()
	chain.GetChildEdge(&edge, i)
	return &edge
}

// collideChildren computes the contact manifold between two primitive
// children. normal points from a to b; point is the first manifold point.
// Pairs the solver has no manifold for (edge against edge) report false.
func collideChildren(a box2d.B2ShapeInterface, ia int, xfA box2d.B2Transform, b box2d.B2ShapeInterface, ib int, xfB box2d.B2Transform) (normal vec.Vec2, point box2d.B2Vec2, ok bool) {
	a, b = childShape(a, ia), childShape(b, ib)
	flip := false
	var m box2d.B2Manifold

	switch sa := a.(type) {
	case *box2d.B2CircleShape:
		switch sb := b.(type) {
		case *box2d.B2CircleShape:
			box2d.B2CollideCircles(&m, sa, xfA, sb, xfB)
		case *box2d.B2PolygonShape:
			box2d.B2CollidePolygonAndCircle(&m, sb, xfB, sa, xfA)
			flip = true
		case *box2d.B2EdgeShape:
			box2d.B2CollideEdgeAndCircle(&m, sb, xfB, sa, xfA)
			flip = true
		}
	case *box2d.B2PolygonShape:
		switch sb := b.(type) {
		case *box2d.B2CircleShape:
			box2d.B2CollidePolygonAndCircle(&m, sa, xfA, sb, xfB)
		case *box2d.B2PolygonShape:
			box2d.B2CollidePolygons(&m, sa, xfA, sb, xfB)
		case *box2d.B2EdgeShape:
			box2d.B2CollideEdgeAndPolygon(&m, sb, xfB, sa, xfA)
			flip = true
		}
	case *box2d.B2EdgeShape:
		switch sb := b.(type) {
		case *box2d.B2CircleShape:
			box2d.B2CollideEdgeAndCircle(&m, sa, xfA, sb, xfB)
		case *box2d.B2PolygonShape:
			box2d.B2CollideEdgeAndPolygon(&m, sa, xfA, sb, xfB)
		}
	}
	if m.PointCount == 0 {
		return vec.Vec2{}, box2d.B2Vec2{}, false
	}

	var wm box2d.B2WorldManifold
	if flip {
		wm.Initialize(&m, xfB, b.GetRadius(), xfA, a.GetRadius())
		return vec.Vec2{-wm.Normal.X, -wm.Normal.Y}, wm.Points[0], true
	}
	wm.Initialize(&m, xfA, a.GetRadius(), xfB, b.GetRadius())
	return vec.Vec2{wm.Normal.X, wm.Normal.Y}, wm.Points[0], true
}
