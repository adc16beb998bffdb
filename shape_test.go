package gdbox2d_test

import (
	"testing"

	"github.com/ByteArena/box2d"
	"github.com/setanarut/gdbox2d"
	"github.com/setanarut/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeCircleRadiusFloor(t *testing.T) {
	shape := gdbox2d.NewShape(gdbox2d.ShapeCircle)
	require.NoError(t, shape.SetData(0.0001))

	assert.True(t, shape.IsConfigured())
	assert.Equal(t, gdbox2d.ShapeMinExtent, shape.Data())
}

func TestShapeDataRoundTrip(t *testing.T) {
	rect := gdbox2d.NewShape(gdbox2d.ShapeRectangle)
	require.NoError(t, rect.SetData(vec.Vec2{10, 20}))
	assert.Equal(t, vec.Vec2{10, 20}, rect.Data())

	thin := gdbox2d.NewShape(gdbox2d.ShapeRectangle)
	require.NoError(t, thin.SetData(vec.Vec2{10, 0}))
	assert.Equal(t, vec.Vec2{10, gdbox2d.ShapeMinExtent}, thin.Data())

	seg := gdbox2d.NewShape(gdbox2d.ShapeSegment)
	data := gdbox2d.SegmentData{A: vec.Vec2{0, 0}, B: vec.Vec2{30, 40}}
	require.NoError(t, seg.SetData(data))
	assert.Equal(t, data, seg.Data())

	poly := gdbox2d.NewShape(gdbox2d.ShapeConvexPolygon)
	points := []vec.Vec2{{0, 0}, {10, 0}, {0, 10}}
	require.NoError(t, poly.SetData(points))
	assert.Equal(t, points, poly.Data())

	ray := gdbox2d.NewShape(gdbox2d.ShapeSeparationRay)
	require.NoError(t, ray.SetData(gdbox2d.SeparationRayData{Length: 20, SlideOnSlope: true}))
	assert.Equal(t, gdbox2d.SeparationRayData{Length: 20, SlideOnSlope: true}, ray.Data())
}

func TestShapeWorldBoundaryNormalized(t *testing.T) {
	shape := gdbox2d.NewShape(gdbox2d.ShapeWorldBoundary)
	require.NoError(t, shape.SetData(gdbox2d.WorldBoundaryData{Normal: vec.Vec2{0, -5}, Distance: 3}))

	data := shape.Data().(gdbox2d.WorldBoundaryData)
	assert.Equal(t, vec.Vec2{0, -1}, data.Normal)
	assert.Equal(t, 3.0, data.Distance)
}

func TestShapeCapsuleInvariant(t *testing.T) {
	cases := []gdbox2d.CapsuleData{
		{Radius: 10, Height: 60},
		{Radius: 50, Height: 40},
		{Radius: 0, Height: 0},
	}
	for _, c := range cases {
		shape := gdbox2d.NewShape(gdbox2d.ShapeCapsule)
		require.NoError(t, shape.SetData(c))

		got := shape.Data().(gdbox2d.CapsuleData)
		assert.GreaterOrEqual(t, got.Radius, gdbox2d.ShapeMinExtent)
		assert.LessOrEqual(t, got.Radius, got.Height/2-gdbox2d.ShapeMinExtent)
		assert.Equal(t, 3, shape.PrimitiveCount(false))
		assert.Equal(t, 3, shape.PrimitiveCount(true))
	}
}

func TestShapeRejectsWrongPayload(t *testing.T) {
	shape := gdbox2d.NewShape(gdbox2d.ShapeCircle)
	err := shape.SetData("big")

	assert.ErrorIs(t, err, gdbox2d.ErrInvalidShapeData)
	assert.False(t, shape.IsConfigured())
	assert.Nil(t, shape.Data())

	require.NoError(t, shape.SetData(5.0))
	assert.ErrorIs(t, shape.SetData(vec.Vec2{1, 1}), gdbox2d.ErrInvalidShapeData)
	assert.Equal(t, 5.0, shape.Data())
}

func TestShapePolygonNeedsPoints(t *testing.T) {
	shape := gdbox2d.NewShape(gdbox2d.ShapeConvexPolygon)
	err := shape.SetData([]vec.Vec2{{0, 0}, {1, 1}})
	assert.ErrorIs(t, err, gdbox2d.ErrInvalidShapeData)
}

func TestShapeChangeRebuildsEveryOwner(t *testing.T) {
	space := gdbox2d.NewSpace(gdbox2d.DefaultConfig())
	shape := gdbox2d.NewShape(gdbox2d.ShapeCircle)
	require.NoError(t, shape.SetData(10.0))

	a, b := gdbox2d.NewBody(), gdbox2d.NewStaticBody()
	a.AddShape(shape, gdbox2d.NewTransformIdentity(), false)
	b.AddShape(shape, gdbox2d.NewTransformIdentity(), false)
	space.AddObject(a.CollisionObject)
	space.AddObject(b.CollisionObject)
	assert.Equal(t, 2, shape.OwnerCount())

	require.NoError(t, shape.SetData(20.0))
	for _, body := range []*gdbox2d.Body{a, b} {
		fixtures := body.ShapeFixtures(0)
		require.Len(t, fixtures, 1)
		assert.InDelta(t, 0.2, fixtures[0].GetShape().GetRadius(), 1e-12)
	}

	a.RemoveShape(shape)
	assert.Equal(t, 1, shape.OwnerCount())
}

func TestShapeUnconfiguredMakesNoFixtures(t *testing.T) {
	space := gdbox2d.NewSpace(gdbox2d.DefaultConfig())
	shape := gdbox2d.NewShape(gdbox2d.ShapeRectangle)
	body := gdbox2d.NewBody()
	body.AddShape(shape, gdbox2d.NewTransformIdentity(), false)
	space.AddObject(body.CollisionObject)
	assert.Empty(t, body.ShapeFixtures(0))

	require.NoError(t, shape.SetData(vec.Vec2{5, 5}))
	fixtures := body.ShapeFixtures(0)
	require.Len(t, fixtures, 1)
	_, ok := fixtures[0].GetShape().(*box2d.B2PolygonShape)
	assert.True(t, ok)
}
