package gdbox2d

import (
	"testing"

	"github.com/setanarut/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallQueriesDeliversOncePerDrain(t *testing.T) {
	space := NewSpace(DefaultConfig())
	body := NewBody()
	space.AddObject(body.CollisionObject)

	calls := 0
	body.SetStateSyncCallback(func(BodyState) {
		calls++
		space.stateQueries.Add(body)
	})
	space.stateQueries.Add(body)

	space.CallQueries()
	assert.Equal(t, 1, calls)
	assert.True(t, space.stateQueries.Contains(body), "requeued for the next drain")

	space.CallQueries()
	assert.Equal(t, 2, calls)
}

func TestCallQueriesSurvivesRemoval(t *testing.T) {
	space := NewSpace(DefaultConfig())
	a, b := NewBody(), NewBody()
	space.AddObject(a.CollisionObject)
	space.AddObject(b.CollisionObject)

	var delivered []*Body
	a.SetStateSyncCallback(func(BodyState) {
		delivered = append(delivered, a)
		b.SetStateSyncCallback(nil)
	})
	b.SetStateSyncCallback(func(BodyState) {
		delivered = append(delivered, b)
	})
	space.stateQueries.Add(a)
	space.stateQueries.Add(b)

	space.CallQueries()
	assert.Equal(t, []*Body{a}, delivered)
	assert.Equal(t, 0, space.stateQueries.Len())
}

func TestActiveListWalkToleratesRemoval(t *testing.T) {
	space := NewSpace(Config{
		GravityVector:    vec.Vec2{0, 1},
		SolverIterations: 8,
	})
	a, b, c := NewBody(), NewBody(), NewBody()
	for _, body := range []*Body{a, b, c} {
		space.AddObject(body.CollisionObject)
	}

	var visited []*Body
	for _, body := range []*Body{a, b, c} {
		body.SetStepCallback(func(self *Body) {
			visited = append(visited, self)
			if self == a {
				space.activeBodies.Remove(b)
			}
		})
	}

	space.Step(1.0 / 60)
	assert.Equal(t, []*Body{a, c}, visited)
	assert.Equal(t, 2, space.ActiveBodyCount())
}

func TestCreateJointWhileLockedIsDeferred(t *testing.T) {
	space := NewSpace(DefaultConfig())
	a, b := NewBody(), NewBody()
	space.AddObject(a.CollisionObject)
	space.AddObject(b.CollisionObject)

	j := NewJoint()
	j.typ = JointPin
	j.configured = true
	j.bodyA, j.bodyB = a, b
	a.addJoint(j)
	b.addJoint(j)

	space.Lock()
	space.CreateJoint(j)
	assert.Nil(t, j.native)
	require.NotNil(t, space.PostStepCallback(postStepKey{"joint", j}))
	space.Unlock(true)

	assert.NotNil(t, j.native)
	assert.Equal(t, 1, space.JointCount())
}

func TestQueriesRefuseLockedSpace(t *testing.T) {
	space := NewSpace(DefaultConfig())
	ground := NewStaticBody()
	shape := NewShape(ShapeRectangle)
	require.NoError(t, shape.SetData(vec.Vec2{100, 100}))
	ground.AddShape(shape, NewTransformIdentity(), false)
	space.AddObject(ground.CollisionObject)

	d := space.DirectState()
	params := DefaultQueryParameters()
	require.Len(t, d.IntersectPoint(vec.Vec2{}, 0, params, 1), 1)

	space.Lock()
	assert.Empty(t, d.IntersectPoint(vec.Vec2{}, 0, params, 1))
	_, hit := d.IntersectRay(vec.Vec2{-200, 0}, vec.Vec2{200, 0}, params, false)
	assert.False(t, hit)
	safe, unsafe := d.CastMotion(shape, NewTransformIdentity(), vec.Vec2{10, 0}, 0, params)
	assert.Equal(t, 1.0, safe)
	assert.Equal(t, 1.0, unsafe)
	_, ok := d.RestInfo(shape, NewTransformIdentity(), 0, params)
	assert.False(t, ok)
	space.Unlock(true)

	assert.Len(t, d.IntersectPoint(vec.Vec2{}, 0, params, 1), 1)
}
