package gdbox2d_test

import (
	"testing"

	"github.com/setanarut/gdbox2d"
	"github.com/setanarut/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPair(t *testing.T, space *gdbox2d.Space, distance float64) (*gdbox2d.Body, *gdbox2d.Body) {
	t.Helper()
	a := gdbox2d.NewBody()
	b := gdbox2d.NewBody()
	b.SetTransform(gdbox2d.NewTransformTranslate(vec.Vec2{distance, 0}))
	space.AddObject(a.CollisionObject)
	space.AddObject(b.CollisionObject)
	return a, b
}

func TestDampedSpringAtRestLength(t *testing.T) {
	space := gdbox2d.NewSpace(zeroGravity())
	a, b := newPair(t, space, 5)

	j := gdbox2d.NewJoint()
	j.MakeDampedSpring(vec.Vec2{0, 0}, vec.Vec2{5, 0}, a, b)
	j.SetDampedSpringRestLength(5)
	require.NotNil(t, j.Native())

	space.Step(1.0 / 60)

	assert.InDelta(t, 5, a.Transform().Origin().Distance(b.Transform().Origin()), 1e-9)
	assert.InDelta(t, 0, a.LinearVelocity().Mag(), 1e-9)
	assert.InDelta(t, 0, b.LinearVelocity().Mag(), 1e-9)
}

func TestDampedSpringPullsTowardRestLength(t *testing.T) {
	space := gdbox2d.NewSpace(zeroGravity())
	a, b := newPair(t, space, 200)

	j := gdbox2d.NewJoint()
	j.MakeDampedSpring(vec.Vec2{0, 0}, vec.Vec2{200, 0}, a, b)
	assert.Equal(t, 200.0, j.DampedSpringRestLength())
	j.SetDampedSpringRestLength(100)

	space.Step(1.0 / 60)
	assert.Positive(t, a.LinearVelocity().X)
	assert.Negative(t, b.LinearVelocity().X)
}

func TestJointSettersRecreateNativeJoint(t *testing.T) {
	space := gdbox2d.NewSpace(zeroGravity())

	cases := map[string]struct {
		make    func(j *gdbox2d.Joint, a, b *gdbox2d.Body)
		setters []func(j *gdbox2d.Joint)
	}{
		"pin": {
			make: func(j *gdbox2d.Joint, a, b *gdbox2d.Body) { j.MakePin(vec.Vec2{50, 0}, a, b) },
			setters: []func(j *gdbox2d.Joint){
				func(j *gdbox2d.Joint) { j.SetMaxForce(5) },
				func(j *gdbox2d.Joint) { j.SetBias(0.5) },
				func(j *gdbox2d.Joint) { j.SetMaxBias(5) },
				func(j *gdbox2d.Joint) { j.SetPinSoftness(0.5) },
				func(j *gdbox2d.Joint) { j.SetPinLimit(true, -1, 1) },
				func(j *gdbox2d.Joint) { j.SetPinMotor(true, 2) },
				func(j *gdbox2d.Joint) { j.SetMaxForce(1000) },
				func(j *gdbox2d.Joint) { j.SetDisableCollisions(true) },
			},
		},
		"groove": {
			make: func(j *gdbox2d.Joint, a, b *gdbox2d.Body) {
				j.MakeGroove(vec.Vec2{0, 0}, vec.Vec2{200, 0}, vec.Vec2{100, 0}, a, b)
			},
			setters: []func(j *gdbox2d.Joint){
				func(j *gdbox2d.Joint) { j.SetDisableCollisions(true) },
				func(j *gdbox2d.Joint) { j.SetDisableCollisions(false) },
				func(j *gdbox2d.Joint) { j.SetBias(0.2) },
			},
		},
		"damped_spring": {
			make: func(j *gdbox2d.Joint, a, b *gdbox2d.Body) {
				j.MakeDampedSpring(vec.Vec2{0, 0}, vec.Vec2{100, 0}, a, b)
			},
			setters: []func(j *gdbox2d.Joint){
				func(j *gdbox2d.Joint) { j.SetDampedSpringRestLength(80) },
				func(j *gdbox2d.Joint) { j.SetDampedSpringStiffness(40) },
				func(j *gdbox2d.Joint) { j.SetDampedSpringDamping(0.5) },
				func(j *gdbox2d.Joint) { j.SetMaxBias(3) },
			},
		},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			a, b := newPair(t, space, 100)
			j := gdbox2d.NewJoint()
			c.make(j, a, b)

			prev := j.Native()
			require.NotNil(t, prev)
			for _, set := range c.setters {
				set(j)
				next := j.Native()
				require.NotNil(t, next)
				assert.NotSame(t, prev, next)
				prev = next
			}
		})
	}
}

func TestPinLimitOrder(t *testing.T) {
	j := gdbox2d.NewJoint()
	j.SetPinLimit(true, 1, -1)

	enabled, lower, upper := j.PinLimit()
	assert.True(t, enabled)
	assert.Equal(t, -1.0, lower)
	assert.Equal(t, 1.0, upper)
}

func TestDisableCollisionsReachesNativeJoint(t *testing.T) {
	space := gdbox2d.NewSpace(zeroGravity())
	a, b := newPair(t, space, 100)

	j := gdbox2d.NewJoint()
	j.MakePin(vec.Vec2{50, 0}, a, b)
	assert.True(t, j.Native().IsCollideConnected())

	j.SetDisableCollisions(true)
	assert.False(t, j.Native().IsCollideConnected())
}

func TestUnconfiguredJointHasNoNative(t *testing.T) {
	space := gdbox2d.NewSpace(zeroGravity())
	j := gdbox2d.NewJoint()
	space.CreateJoint(j)

	assert.Nil(t, j.Native())
	assert.Equal(t, gdbox2d.JointNone, j.Type())
	assert.Equal(t, 0, space.JointCount())
}

func TestJointWaitsForBothBodies(t *testing.T) {
	space := gdbox2d.NewSpace(zeroGravity())
	a, b := gdbox2d.NewBody(), gdbox2d.NewBody()

	j := gdbox2d.NewJoint()
	j.MakePin(vec.Vec2{}, a, b)
	assert.Nil(t, j.Native())
	assert.Nil(t, j.Space())

	space.AddObject(a.CollisionObject)
	assert.Nil(t, j.Native())

	space.AddObject(b.CollisionObject)
	assert.NotNil(t, j.Native())
	assert.Same(t, space, j.Space())
	assert.Equal(t, 1, space.JointCount())
}

func TestRemovingBodyDetachesItsJoints(t *testing.T) {
	space := gdbox2d.NewSpace(zeroGravity())
	hub := gdbox2d.NewBody()
	space.AddObject(hub.CollisionObject)

	var joints []*gdbox2d.Joint
	for i := range 3 {
		other := gdbox2d.NewBody()
		other.SetTransform(gdbox2d.NewTransformTranslate(vec.Vec2{float64(i+1) * 100, 0}))
		space.AddObject(other.CollisionObject)

		j := gdbox2d.NewJoint()
		j.MakeDampedSpring(vec.Vec2{}, other.Transform().Origin(), hub, other)
		require.NotNil(t, j.Native())
		joints = append(joints, j)
	}
	require.Equal(t, 3, space.JointCount())

	space.RemoveObject(hub.CollisionObject)
	assert.Equal(t, 0, space.JointCount())
	for _, j := range joints {
		assert.Nil(t, j.Native())
		assert.True(t, j.Configured())
	}

	space.AddObject(hub.CollisionObject)
	assert.Equal(t, 3, space.JointCount())
	for _, j := range joints {
		assert.NotNil(t, j.Native())
	}
}

func TestJointClearAndDestroy(t *testing.T) {
	space := gdbox2d.NewSpace(zeroGravity())
	a, b := newPair(t, space, 100)

	j := gdbox2d.NewJoint()
	j.MakeGroove(vec.Vec2{0, -50}, vec.Vec2{0, 50}, vec.Vec2{100, 0}, a, b)
	require.NotNil(t, j.Native())
	assert.Equal(t, gdbox2d.JointGroove, j.Type())

	j.Clear()
	assert.Nil(t, j.Native())
	assert.False(t, j.Configured())
	assert.Empty(t, a.Joints())

	j.MakePin(vec.Vec2{50, 0}, a, b)
	assert.NotNil(t, j.Native())

	j.Destroy()
	assert.Nil(t, j.Space())
	assert.Equal(t, 0, space.JointCount())
}
