package gdbox2d

import (
	"math"

	"github.com/ByteArena/box2d"
	"github.com/setanarut/vec"
)

// DirectSpaceState answers geometric queries against the current state of a
// space. Every query refuses to run while the space is stepping.
type DirectSpaceState struct {
	space *Space
}

func (d *DirectSpaceState) Space() *Space {
	return d.space
}

func (d *DirectSpaceState) locked(query string) bool {
	if d.space.locked {
		warnOnce("direct space queries are not allowed while the space is locked", "query", query, "err", ErrSpaceLocked)
		return true
	}
	return false
}

// IntersectRay returns the closest object hit by the ray from `from` to
// `to`. With hitFromInside, a ray starting inside a shape is cast backwards
// from `to`; when that misses as well the shape containing `from` is
// reported as hit at `from`, with a normal pointing from the shape's object
// origin toward `from`.
func (d *DirectSpaceState) IntersectRay(from, to vec.Vec2, params QueryParameters, hitFromInside bool) (RayResult, bool) {
	if d.locked("intersect_ray") {
		return RayResult{}, false
	}
	world := d.space.world

	ctx := newRayQueryContext(params)
	if !from.Equal(to) {
		world.RayCast(ctx.queryFirst, toB2Vec(from), toB2Vec(to))
	}
	if ctx.fixture != nil {
		return ctx.result(), true
	}
	if !hitFromInside {
		return RayResult{}, false
	}

	if !from.Equal(to) {
		ctx = newRayQueryContext(params)
		world.RayCast(ctx.queryFirst, toB2Vec(to), toB2Vec(from))
		if ctx.fixture != nil {
			return ctx.result(), true
		}
	}

	inside := newFixtureQueryContext(params, maxInsideCandidates)
	inside.test = containsPoint(toB2Vec(from))
	world.QueryAABB(inside.bbQuery, pointBox(from))
	if len(inside.fixtures) == 0 {
		return RayResult{}, false
	}
	tag := tagOf(inside.fixtures[0])
	return RayResult{
		Position:   from,
		Normal:     unitOr(from.Sub(tag.object.transform.Origin()), vec.Vec2{}),
		RID:        tag.object.rid,
		InstanceID: tag.object.instanceID,
		Object:     tag.object,
		ShapeIndex: tag.slot,
	}, true
}

// IntersectPoint returns the shapes containing point, at most maxResults.
// A non zero canvasInstanceID only reports objects with that canvas
// instance.
func (d *DirectSpaceState) IntersectPoint(point vec.Vec2, canvasInstanceID uint64, params QueryParameters, maxResults int) []ShapeResult {
	if maxResults <= 0 || d.locked("intersect_point") {
		return nil
	}
	ctx := newFixtureQueryContext(params, math.MaxInt)
	contains := containsPoint(toB2Vec(point))
	ctx.test = func(fixture *box2d.B2Fixture) bool {
		tag := tagOf(fixture)
		if canvasInstanceID != 0 && tag.object.canvasInstanceID != canvasInstanceID {
			return false
		}
		return contains(fixture)
	}
	d.space.world.QueryAABB(ctx.bbQuery, pointBox(point))
	return uniqueShapeResults(ctx.fixtures, maxResults)
}

// uniqueShapeResults converts fixtures to results, once per object slot.
func uniqueShapeResults(fixtures []*box2d.B2Fixture, maxResults int) []ShapeResult {
	type key struct {
		object *CollisionObject
		slot   int
	}
	seen := map[key]bool{}
	var out []ShapeResult
	for _, fixture := range fixtures {
		if len(out) >= maxResults {
			break
		}
		tag := tagOf(fixture)
		k := key{tag.object, tag.slot}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, shapeResultOf(tag))
	}
	return out
}

// IntersectShape returns the shapes touched by shape placed at transform
// and moved by motion, closest first, at most maxResults.
func (d *DirectSpaceState) IntersectShape(shape *Shape, transform Transform, motion vec.Vec2, margin float64, params QueryParameters, maxResults int) []ShapeResult {
	if maxResults <= 0 || d.locked("intersect_shape") {
		return nil
	}
	hits, ok := d.sweep(shape, transform, motion, margin, params)
	if !ok {
		return nil
	}
	fixtures := make([]*box2d.B2Fixture, len(hits))
	for i, hit := range hits {
		fixtures[i] = hit.fixture
	}
	return uniqueShapeResults(fixtures, maxResults)
}

// CastMotion returns how far along motion shape can move from transform.
// safe is the largest fraction known to be free of contact and unsafe the
// fraction where contact begins. Both are 1 when nothing is hit.
func (d *DirectSpaceState) CastMotion(shape *Shape, transform Transform, motion vec.Vec2, margin float64, params QueryParameters) (safe, unsafe float64) {
	if d.locked("cast_motion") {
		return 1, 1
	}
	hits, ok := d.sweep(shape, transform, motion, margin, params)
	if !ok || len(hits) == 0 {
		return 1, 1
	}
	unsafe = hits[0].toi
	length := toB2Length(motion.Mag())
	if length <= 0 {
		return 0, unsafe
	}
	safe = math.Max(0, unsafe-box2d.B2_linearSlop/length)
	return safe, unsafe
}

// CollideShape returns, for each object touched by shape placed at
// transform and moved by motion, a pair of contact points. Both points of a
// pair are the point on the touched object.
func (d *DirectSpaceState) CollideShape(shape *Shape, transform Transform, motion vec.Vec2, margin float64, params QueryParameters, maxResults int) []vec.Vec2 {
	if maxResults <= 0 || d.locked("collide_shape") {
		return nil
	}
	hits, ok := d.sweep(shape, transform, motion, margin, params)
	if !ok {
		return nil
	}
	var out []vec.Vec2
	for i, hit := range hits {
		if i >= maxResults {
			break
		}
		out = append(out, hit.point, hit.point)
	}
	return out
}

// RestInfo reports the closest contact of shape resting at transform: the
// point on the other object, the normal pointing away from it, and its
// linear velocity.
func (d *DirectSpaceState) RestInfo(shape *Shape, transform Transform, margin float64, params QueryParameters) (RestInfo, bool) {
	if d.locked("rest_info") {
		return RestInfo{}, false
	}
	hits, ok := d.sweep(shape, transform, vec.Vec2{}, margin, params)
	if !ok || len(hits) == 0 {
		return RestInfo{}, false
	}
	hit := hits[0]
	info := RestInfo{
		Point:      hit.point,
		Normal:     hit.normal,
		RID:        hit.tag.object.rid,
		InstanceID: hit.tag.object.instanceID,
		Object:     hit.tag.object,
		ShapeIndex: hit.tag.slot,
	}
	// Velocity of the collider at the contact point, rotation included.
	if nb := hit.tag.object.NativeBody(); nb != nil && hit.tag.object.Body() != nil {
		info.LinearVelocity = fromB2Vec(nb.GetLinearVelocityFromWorldPoint(toB2Vec(hit.point)))
	}
	return info, true
}

func (d *DirectSpaceState) sweep(shape *Shape, transform Transform, motion vec.Vec2, margin float64, params QueryParameters) ([]sweepHit, bool) {
	if shape == nil {
		panic("nil shape")
	}
	q, err := newQueryShape(shape, transform, margin)
	if err != nil {
		logger.Warn("cannot query with shape", "shape", shape.rid, "err", err)
		return nil, false
	}
	return d.space.sweep(q, motion, params, maxCastCandidates), true
}
