package gdbox2d_test

import (
	"testing"

	"github.com/setanarut/gdbox2d"
	"github.com/setanarut/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zeroGravity() gdbox2d.Config {
	cfg := gdbox2d.DefaultConfig()
	cfg.Gravity = 0
	return cfg
}

func newBall(t *testing.T, space *gdbox2d.Space, pos vec.Vec2, radius float64) *gdbox2d.Body {
	t.Helper()
	ball := gdbox2d.NewBody()
	ball.AddShape(newShape(t, gdbox2d.ShapeCircle, radius), gdbox2d.NewTransformIdentity(), false)
	ball.SetTransform(gdbox2d.NewTransformTranslate(pos))
	space.AddObject(ball.CollisionObject)
	return ball
}

func TestBodyFallsUnderGravity(t *testing.T) {
	space := gdbox2d.NewSpace(gdbox2d.DefaultConfig())
	ball := newBall(t, space, vec.Vec2{}, 10)

	for range 30 {
		space.Step(1.0 / 60)
	}
	assert.Greater(t, ball.Transform().Origin().Y, 0.0)
	assert.Greater(t, ball.LinearVelocity().Y, 0.0)
	assert.Equal(t, 1, space.ActiveBodyCount())
}

func TestBodyRestsOnGround(t *testing.T) {
	space := gdbox2d.NewSpace(gdbox2d.DefaultConfig())
	newGround(t, space)
	ball := newBall(t, space, vec.Vec2{0, -30}, 10)

	for range 120 {
		space.Step(1.0 / 60)
	}
	assert.InDelta(t, -10, ball.Transform().Origin().Y, 2)
	assert.Positive(t, ball.ContactCount())
	assert.Positive(t, space.ContactCount())
	assert.Len(t, space.Contacts(), space.ContactCount())
}

func TestBodyWokenByContactKeepsSyncing(t *testing.T) {
	space := gdbox2d.NewSpace(zeroGravity())
	target := newBall(t, space, vec.Vec2{}, 10)
	target.SetSleeping(true)
	require.True(t, target.IsSleeping())

	synced := 0
	target.SetStateSyncCallback(func(gdbox2d.BodyState) { synced++ })

	bullet := newBall(t, space, vec.Vec2{-100, 0}, 10)
	bullet.SetLinearVelocity(vec.Vec2{1000, 0})

	for range 60 {
		space.Step(1.0 / 60)
		space.CallQueries()
	}
	assert.False(t, target.IsSleeping())
	assert.Greater(t, target.Transform().Origin().X, 20.0)
	assert.Positive(t, target.LinearVelocity().X)
	assert.Positive(t, synced)

	native := target.NativeBody().GetPosition()
	assert.InDelta(t, native.X*gdbox2d.UnitsPerMeter, target.Transform().Origin().X, 1e-6)
}

func TestStaticBodyIsNotActive(t *testing.T) {
	space := gdbox2d.NewSpace(gdbox2d.DefaultConfig())
	newGround(t, space)

	space.Step(1.0 / 60)
	assert.Equal(t, 0, space.ActiveBodyCount())
}

func TestBodyVelocityBeforeSpace(t *testing.T) {
	space := gdbox2d.NewSpace(zeroGravity())
	body := gdbox2d.NewBody()
	body.SetLinearVelocity(vec.Vec2{60, 0})
	body.SetLinearDamp(0)
	body.SetDampMode(gdbox2d.DampReplace)
	space.AddObject(body.CollisionObject)

	space.Step(1)
	assert.InDelta(t, 60, body.Transform().Origin().X, 1e-6)
	assert.InDelta(t, 60, body.LinearVelocity().X, 1e-6)
}

func TestBodyCentralImpulse(t *testing.T) {
	space := gdbox2d.NewSpace(zeroGravity())
	body := gdbox2d.NewBody()
	body.SetMass(2)
	space.AddObject(body.CollisionObject)

	body.ApplyCentralImpulse(vec.Vec2{0, 100})
	assert.InDelta(t, 50, body.LinearVelocity().Y, 1e-9)
	assert.InDelta(t, 2, body.NativeBody().GetMass(), 1e-12)
}

func TestStaticBodyIgnoresVelocity(t *testing.T) {
	body := gdbox2d.NewStaticBody()
	body.SetLinearVelocity(vec.Vec2{10, 0})
	assert.Equal(t, vec.Vec2{}, body.LinearVelocity())
	assert.Equal(t, gdbox2d.BodyStatic, body.Mode())
}

func TestBodyCollisionException(t *testing.T) {
	space := gdbox2d.NewSpace(zeroGravity())
	a := newBall(t, space, vec.Vec2{}, 10)
	b := newBall(t, space, vec.Vec2{5, 0}, 10)

	a.AddCollisionException(b)
	space.Step(1.0 / 60)
	assert.Equal(t, 0, a.ContactCount())
	assert.True(t, a.HasCollisionException(b))
	assert.False(t, b.HasCollisionException(a))

	// The new pair is found at the end of one step and touches in the next.
	a.RemoveCollisionException(b)
	space.Step(1.0 / 60)
	space.Step(1.0 / 60)
	assert.Positive(t, a.ContactCount())
}

func TestBodyStateSyncCallback(t *testing.T) {
	space := gdbox2d.NewSpace(gdbox2d.DefaultConfig())
	ball := newBall(t, space, vec.Vec2{}, 10)

	var states []gdbox2d.BodyState
	ball.SetStateSyncCallback(func(s gdbox2d.BodyState) {
		states = append(states, s)
	})

	space.Step(1.0 / 60)
	assert.Empty(t, states, "state is delivered by CallQueries")

	space.CallQueries()
	require.Len(t, states, 1)
	assert.Equal(t, ball.Transform(), states[0].Transform)

	space.CallQueries()
	assert.Len(t, states, 1)
}

func TestBodyDestroyClearsJoints(t *testing.T) {
	space := gdbox2d.NewSpace(zeroGravity())
	a := newBall(t, space, vec.Vec2{}, 10)
	b := newBall(t, space, vec.Vec2{100, 0}, 10)

	j := gdbox2d.NewJoint()
	j.MakePin(vec.Vec2{50, 0}, a, b)
	require.NotNil(t, j.Native())

	a.Destroy()
	assert.False(t, j.Configured())
	assert.Nil(t, j.Native())
	assert.Empty(t, b.Joints())
	assert.Equal(t, 1, space.ObjectCount())
	assert.Equal(t, 0, space.JointCount())
}

func TestBodyModeStaticLeavesActiveList(t *testing.T) {
	space := gdbox2d.NewSpace(gdbox2d.DefaultConfig())
	body := newBall(t, space, vec.Vec2{}, 10)
	space.Step(1.0 / 60)
	require.Equal(t, 1, space.ActiveBodyCount())

	body.SetMode(gdbox2d.BodyStatic)
	at := body.Transform().Origin()
	space.Step(1.0 / 60)
	assert.Equal(t, 0, space.ActiveBodyCount())
	assert.Equal(t, at, body.Transform().Origin())
	assert.Equal(t, vec.Vec2{}, body.LinearVelocity())
}
