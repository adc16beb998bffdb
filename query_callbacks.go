package gdbox2d

import (
	"slices"

	"github.com/ByteArena/box2d"
	"github.com/setanarut/vec"
)

// QueryParameters filters the objects a direct space query reports.
type QueryParameters struct {
	CollisionMask     uint32
	CollideWithBodies bool
	CollideWithAreas  bool
	// Exclude lists objects that are never reported.
	Exclude []RID
}

// DefaultQueryParameters reports bodies on every layer.
func DefaultQueryParameters() QueryParameters {
	return QueryParameters{
		CollisionMask:     ^uint32(0),
		CollideWithBodies: true,
	}
}

// Reject returns true if o is filtered out.
func (p QueryParameters) Reject(o *CollisionObject) bool {
	if o == nil || o.layer&p.CollisionMask == 0 {
		return true
	}
	if o.Area() != nil {
		if !p.CollideWithAreas {
			return true
		}
	} else if !p.CollideWithBodies {
		return true
	}
	return slices.Contains(p.Exclude, o.rid)
}

// RayResult is the closest hit of a ray cast.
type RayResult struct {
	Position   vec.Vec2
	Normal     vec.Vec2
	RID        RID
	InstanceID uint64
	Object     *CollisionObject
	ShapeIndex int
}

// ShapeResult is one object found by a point or shape query.
type ShapeResult struct {
	RID        RID
	InstanceID uint64
	Object     *CollisionObject
	ShapeIndex int
}

func shapeResultOf(tag *fixtureTag) ShapeResult {
	return ShapeResult{
		RID:        tag.object.rid,
		InstanceID: tag.object.instanceID,
		Object:     tag.object,
		ShapeIndex: tag.slot,
	}
}

// RestInfo describes the contact of a shape resting against a collider.
type RestInfo struct {
	Point          vec.Vec2
	Normal         vec.Vec2
	LinearVelocity vec.Vec2
	RID            RID
	InstanceID     uint64
	Object         *CollisionObject
	ShapeIndex     int
}

// RayQueryContext keeps the closest accepted hit of a native ray cast.
type RayQueryContext struct {
	params   QueryParameters
	fixture  *box2d.B2Fixture
	point    box2d.B2Vec2
	normal   box2d.B2Vec2
	fraction float64
}

func newRayQueryContext(params QueryParameters) *RayQueryContext {
	return &RayQueryContext{params: params, fraction: 1}
}

// queryFirst clips the ray at every accepted hit so the last one reported
// is the closest.
func (c *RayQueryContext) queryFirst(fixture *box2d.B2Fixture, point, normal box2d.B2Vec2, fraction float64) float64 {
	tag := tagOf(fixture)
	if tag == nil || c.params.Reject(tag.object) {
		return -1
	}
	if c.fixture == nil || fraction <= c.fraction {
		c.fixture = fixture
		c.point = point
		c.normal = normal
		c.fraction = fraction
	}
	return fraction
}

func (c *RayQueryContext) result() RayResult {
	tag := tagOf(c.fixture)
	return RayResult{
		Position:   fromB2Vec(c.point),
		Normal:     vec.Vec2{c.normal.X, c.normal.Y},
		RID:        tag.object.rid,
		InstanceID: tag.object.instanceID,
		Object:     tag.object,
		ShapeIndex: tag.slot,
	}
}

// FixtureQueryContext collects the accepted fixtures found by a broad phase
// query, once per fixture and in discovery order, up to max.
type FixtureQueryContext struct {
	params   QueryParameters
	max      int
	seen     map[*box2d.B2Fixture]bool
	fixtures []*box2d.B2Fixture
	// test, when set, must accept a fixture for it to be collected.
	test func(*box2d.B2Fixture) bool
}

func newFixtureQueryContext(params QueryParameters, max int) *FixtureQueryContext {
	return &FixtureQueryContext{params: params, max: max, seen: map[*box2d.B2Fixture]bool{}}
}

func (c *FixtureQueryContext) bbQuery(fixture *box2d.B2Fixture) bool {
	if len(c.fixtures) >= c.max {
		return false
	}
	if c.seen[fixture] {
		return true
	}
	c.seen[fixture] = true
	tag := tagOf(fixture)
	if tag == nil || c.params.Reject(tag.object) {
		return true
	}
	if c.test != nil && !c.test(fixture) {
		return true
	}
	c.fixtures = append(c.fixtures, fixture)
	return len(c.fixtures) < c.max
}

// containsPoint returns a test accepting fixtures that contain p, given in
// solver units.
func containsPoint(p box2d.B2Vec2) func(*box2d.B2Fixture) bool {
	at := fromB2Vec(p)
	return func(fixture *box2d.B2Fixture) bool {
		for child := 0; child < fixture.GetShape().GetChildCount(); child++ {
			if fromB2AABB(fixture.GetAABB(child)).ContainsVect(at) {
				return fixture.TestPoint(p)
			}
		}
		return false
	}
}

// pointBox is the epsilon box around a point in caller units.
func pointBox(p vec.Vec2) box2d.B2AABB {
	return toB2AABB(NewBBForCircle(p, pointSize))
}
