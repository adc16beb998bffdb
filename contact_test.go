package gdbox2d_test

import (
	"testing"

	"github.com/setanarut/gdbox2d"
	"github.com/setanarut/vec"
	"github.com/stretchr/testify/assert"
)

func newPlatform(t *testing.T, space *gdbox2d.Space, oneWay bool) *gdbox2d.Body {
	t.Helper()
	platform := newStaticBox(t, space, vec.Vec2{}, vec.Vec2{100, 10})
	platform.SetShapeAsOneWayCollision(0, oneWay, 10)
	return platform
}

func TestOneWayPlatformCarriesBodyFromAbove(t *testing.T) {
	space := gdbox2d.NewSpace(gdbox2d.DefaultConfig())
	newPlatform(t, space, true)
	ball := newBall(t, space, vec.Vec2{0, -50}, 10)

	for range 120 {
		space.Step(1.0 / 60)
	}
	assert.InDelta(t, -20, ball.Transform().Origin().Y, 2)
}

func TestOneWayPlatformLetsBodyThroughFromBelow(t *testing.T) {
	space := gdbox2d.NewSpace(zeroGravity())
	newPlatform(t, space, true)
	ball := newBall(t, space, vec.Vec2{0, 60}, 10)
	ball.SetLinearVelocity(vec.Vec2{0, -600})

	for range 20 {
		space.Step(1.0 / 60)
	}
	assert.Less(t, ball.Transform().Origin().Y, -30.0)
	assert.Negative(t, ball.LinearVelocity().Y)
}

func TestSolidPlatformBlocksBodyFromBelow(t *testing.T) {
	space := gdbox2d.NewSpace(zeroGravity())
	newPlatform(t, space, false)
	ball := newBall(t, space, vec.Vec2{0, 60}, 10)
	ball.SetLinearVelocity(vec.Vec2{0, -600})

	for range 20 {
		space.Step(1.0 / 60)
	}
	assert.Greater(t, ball.Transform().Origin().Y, 10.0)
}

func TestOneWayFollowsShapeRotation(t *testing.T) {
	space := gdbox2d.NewSpace(zeroGravity())
	wall := newStaticBox(t, space, vec.Vec2{}, vec.Vec2{100, 10})
	// Rotated a quarter turn the slot's Y axis points to -X: bodies coming
	// from +X collide, bodies coming from -X pass.
	wall.SetShapeTransform(0, gdbox2d.NewTransformRigid(vec.Vec2{}, 1.5707963267948966))
	wall.SetShapeAsOneWayCollision(0, true, 10)

	left := newBall(t, space, vec.Vec2{-60, -50}, 10)
	left.SetLinearVelocity(vec.Vec2{600, 0})
	right := newBall(t, space, vec.Vec2{60, 50}, 10)
	right.SetLinearVelocity(vec.Vec2{-600, 0})

	for range 20 {
		space.Step(1.0 / 60)
	}
	assert.Greater(t, left.Transform().Origin().X, 30.0)
	assert.Greater(t, right.Transform().Origin().X, 0.0)
}
