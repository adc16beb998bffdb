package gdbox2d

import "github.com/ByteArena/box2d"

// createNativeJoint builds a joint from a typed definition and links it
// into the world the way B2World.CreateJoint does for the base definition.
func createNativeJoint(world *box2d.B2World, def box2d.B2JointDefInterface) box2d.B2JointInterface {
	if world.IsLocked() {
		return nil
	}
	j := box2d.B2JointCreate(def)

	// World list.
	j.SetPrev(nil)
	j.SetNext(world.M_jointList)
	if world.M_jointList != nil {
		world.M_jointList.SetPrev(j)
	}
	world.M_jointList = j
	world.M_jointCount++

	// Joint edges of both bodies.
	bodyA, bodyB := j.GetBodyA(), j.GetBodyB()
	linkJointEdge(j.GetEdgeA(), j, bodyA, bodyB)
	linkJointEdge(j.GetEdgeB(), j, bodyB, bodyA)

	if !def.IsCollideConnected() {
		for edge := bodyB.GetContactList(); edge != nil; edge = edge.Next {
			if edge.Other == bodyA {
				edge.Contact.FlagForFiltering()
			}
		}
	}
	return j
}

func linkJointEdge(edge *box2d.B2JointEdge, j box2d.B2JointInterface, body, other *box2d.B2Body) {
	edge.Joint = j
	edge.Other = other
	edge.Prev = nil
	edge.Next = body.M_jointList
	if body.M_jointList != nil {
		body.M_jointList.Prev = edge
	}
	body.M_jointList = edge
}
