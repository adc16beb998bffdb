package gdbox2d_test

import (
	"testing"

	"github.com/ByteArena/box2d"
	"github.com/setanarut/gdbox2d"
	"github.com/setanarut/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func polygonVertices(t *testing.T, f *box2d.B2Fixture) []box2d.B2Vec2 {
	t.Helper()
	poly, ok := f.GetShape().(*box2d.B2PolygonShape)
	require.True(t, ok)
	return append([]box2d.B2Vec2(nil), poly.M_vertices[:poly.M_count]...)
}

func TestSetShapeTransformIdempotent(t *testing.T) {
	space := gdbox2d.NewSpace(gdbox2d.DefaultConfig())
	body := gdbox2d.NewBody()
	body.AddShape(newShape(t, gdbox2d.ShapeRectangle, vec.Vec2{20, 10}), gdbox2d.NewTransformIdentity(), false)
	space.AddObject(body.CollisionObject)

	xf := gdbox2d.NewTransformRigid(vec.Vec2{5, 7}, 0.5)
	body.SetShapeTransform(0, xf)
	once := polygonVertices(t, body.ShapeFixtures(0)[0])

	body.SetShapeTransform(0, xf)
	fixtures := body.ShapeFixtures(0)
	require.Len(t, fixtures, 1)
	assert.Equal(t, once, polygonVertices(t, fixtures[0]))
	assert.Equal(t, 1, body.FixtureCount())
}

func TestPendingTransformAppliedOnAttach(t *testing.T) {
	body := gdbox2d.NewBody()
	body.SetTransform(gdbox2d.NewTransformRigid(vec.Vec2{300, -200}, 1))
	assert.Nil(t, body.NativeBody())

	space := gdbox2d.NewSpace(gdbox2d.DefaultConfig())
	body.SetSpace(space)

	nb := body.NativeBody()
	require.NotNil(t, nb)
	assert.InDelta(t, 3.0, nb.GetPosition().X, 1e-12)
	assert.InDelta(t, -2.0, nb.GetPosition().Y, 1e-12)
	assert.InDelta(t, 1.0, nb.GetAngle(), 1e-12)
	assert.Same(t, space, body.Space())
}

func TestScaledTransformRebuildsFixtures(t *testing.T) {
	space := gdbox2d.NewSpace(gdbox2d.DefaultConfig())
	body := gdbox2d.NewStaticBody()
	body.AddShape(newShape(t, gdbox2d.ShapeCircle, 10.0), gdbox2d.NewTransformIdentity(), false)
	space.AddObject(body.CollisionObject)

	body.SetTransform(gdbox2d.NewTransformTRS(vec.Vec2{}, 0, vec.Vec2{3, 3}))
	fixtures := body.ShapeFixtures(0)
	require.Len(t, fixtures, 1)
	assert.InDelta(t, 0.3, fixtures[0].GetShape().GetRadius(), 1e-12)
}

func TestDisabledShapeHasNoFixtures(t *testing.T) {
	space := gdbox2d.NewSpace(gdbox2d.DefaultConfig())
	body := gdbox2d.NewBody()
	body.AddShape(newShape(t, gdbox2d.ShapeCircle, 10.0), gdbox2d.NewTransformIdentity(), true)
	body.AddShape(newShape(t, gdbox2d.ShapeCapsule, gdbox2d.CapsuleData{Radius: 5, Height: 30}), gdbox2d.NewTransformIdentity(), false)
	space.AddObject(body.CollisionObject)

	assert.Empty(t, body.ShapeFixtures(0))
	assert.Len(t, body.ShapeFixtures(1), 3)
	assert.Equal(t, 3, body.FixtureCount())

	body.SetShapeDisabled(0, false)
	assert.Len(t, body.ShapeFixtures(0), 1)
	assert.Equal(t, 4, body.FixtureCount())
}

func TestRemoveShapeKeepsIndicesCurrent(t *testing.T) {
	space := gdbox2d.NewSpace(gdbox2d.DefaultConfig())
	first := newShape(t, gdbox2d.ShapeCircle, 10.0)
	second := newShape(t, gdbox2d.ShapeCircle, 10.0)

	body := gdbox2d.NewStaticBody()
	body.AddShape(first, gdbox2d.NewTransformTranslate(vec.Vec2{-100, 0}), false)
	body.AddShape(second, gdbox2d.NewTransformTranslate(vec.Vec2{100, 0}), false)
	space.AddObject(body.CollisionObject)

	require.True(t, body.RemoveShape(first))
	assert.False(t, body.RemoveShape(first))
	assert.Equal(t, 1, body.ShapeCount())
	assert.Same(t, second, body.Shape(0))

	results := space.DirectState().IntersectPoint(vec.Vec2{100, 0}, 0, gdbox2d.DefaultQueryParameters(), 4)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].ShapeIndex)
}

func TestShapeIndexOutOfRangePanics(t *testing.T) {
	body := gdbox2d.NewBody()
	assert.Panics(t, func() { body.Shape(0) })
	assert.Panics(t, func() { body.AddShape(nil, gdbox2d.NewTransformIdentity(), false) })
}

func TestCollisionLayerFiltersContacts(t *testing.T) {
	space := gdbox2d.NewSpace(gdbox2d.DefaultConfig())
	newGround(t, space)

	box := gdbox2d.NewBody()
	box.AddShape(newShape(t, gdbox2d.ShapeRectangle, vec.Vec2{10, 10}), gdbox2d.NewTransformIdentity(), false)
	box.SetTransform(gdbox2d.NewTransformTranslate(vec.Vec2{0, -5}))
	box.SetCollisionLayer(2)
	box.SetCollisionMask(2)
	space.AddObject(box.CollisionObject)

	for range 60 {
		space.Step(1.0 / 60)
	}
	assert.Greater(t, box.Transform().Origin().Y, 100.0, "box should fall through the ground")
	assert.Equal(t, 0, space.ContactCount())
}

// newGround adds a static box whose top edge lies on y = 0.
func newGround(t *testing.T, space *gdbox2d.Space) *gdbox2d.Body {
	t.Helper()
	ground := gdbox2d.NewStaticBody()
	ground.AddShape(newShape(t, gdbox2d.ShapeRectangle, vec.Vec2{500, 50}), gdbox2d.NewTransformIdentity(), false)
	ground.SetTransform(gdbox2d.NewTransformTranslate(vec.Vec2{0, 50}))
	space.AddObject(ground.CollisionObject)
	return ground
}
