package gdbox2d

import (
	"fmt"

	"github.com/ByteArena/box2d"
	"github.com/setanarut/vec"
)

// Space owns a native world and the objects and joints living in it.
type Space struct {
	UserData any

	// PostStepCallbacks are the mutations deferred while the space is locked.
	// They run in order when Step unlocks the space.
	PostStepCallbacks []*PostStepCallback

	rid              RID
	world            *box2d.B2World
	config           Config
	solverIterations int
	locked           bool
	skipPostStep     bool
	activeCount      int
	activeBodies     *List[*Body]
	stateQueries     *List[*Body]
	objects          *List[*CollisionObject]
	joints           *List[*Joint]
	areaEvents       []AreaEvent
	listener         *contactListener
	directState      *DirectSpaceState
}

// NewSpace allocates a space configured by cfg. An invalid config is logged
// and replaced by DefaultConfig.
func NewSpace(cfg Config) *Space {
	world := box2d.MakeB2World(box2d.MakeB2Vec2(0, 0))
	s := &Space{
		rid:          NewRID(),
		world:        &world,
		activeBodies: NewList[*Body](),
		stateQueries: NewList[*Body](),
		objects:      NewList[*CollisionObject](),
		joints:       NewList[*Joint](),
	}
	s.listener = &contactListener{space: s}
	s.world.SetContactFilter(s.listener)
	s.world.SetContactListener(s.listener)
	s.world.SetDestructionListener(s.listener)
	s.directState = &DirectSpaceState{space: s}

	if err := s.ApplyConfig(cfg); err != nil {
		logger.Warn("invalid space config, using defaults", "space", s.rid, "err", err)
		s.ApplyConfig(DefaultConfig())
	}
	return s
}

func (s *Space) String() string {
	return fmt.Sprint("Space ", s.rid, ", Objects ", s.objects.Len())
}

func (s *Space) RID() RID { return s.rid }

// World returns the native world. It must not be mutated directly.
func (s *Space) World() *box2d.B2World {
	return s.world
}

func (s *Space) Config() Config {
	return s.config
}

// ApplyConfig validates cfg and applies gravity, sleeping, solver
// iterations, default damping and the log level.
func (s *Space) ApplyConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, _ := cfg.Level()
	UserLevel.Set(level)

	s.config = cfg
	s.solverIterations = cfg.SolverIterations
	s.world.SetGravity(toB2Vec(cfg.GravityForce()))
	s.world.SetAllowSleeping(cfg.AllowSleep)
	s.objects.Each(func(o *CollisionObject) {
		if b := o.Body(); b != nil {
			b.applyDamping()
		}
	})
	return nil
}

// SetGravity sets the gravity acceleration in caller units.
func (s *Space) SetGravity(gravity vec.Vec2) {
	s.config.Gravity = gravity.Mag()
	s.config.GravityVector = unitOr(gravity, s.config.GravityVector)
	s.world.SetGravity(toB2Vec(gravity))
}

func (s *Space) Gravity() vec.Vec2 {
	return fromB2Vec(s.world.GetGravity())
}

func (s *Space) SolverIterations() int { return s.solverIterations }

// SetSolverIterations sets the position iterations of a step. The velocity
// solver runs two more.
func (s *Space) SetSolverIterations(iterations int) {
	if iterations < 1 {
		logger.Warn("solver iterations must be at least 1", "space", s.rid, "iterations", iterations)
		iterations = 1
	}
	s.solverIterations = iterations
}

// IsLocked returns true while Step runs. Structural changes made meanwhile
// are deferred until the step ends.
func (s *Space) IsLocked() bool {
	return s.locked
}

func (s *Space) Lock() {
	s.locked = true
}

// Unlock clears the lock and, with runPostStep, runs the deferred
// callbacks.
func (s *Space) Unlock(runPostStep bool) {
	s.locked = false
	if !runPostStep || s.skipPostStep {
		return
	}
	s.skipPostStep = true
	for i := 0; i < len(s.PostStepCallbacks); i++ {
		callback := s.PostStepCallbacks[i]
		f := callback.callback
		callback.callback = nil
		if f != nil {
			f(s, callback.key, callback.data)
		}
	}
	s.PostStepCallbacks = s.PostStepCallbacks[:0]
	s.skipPostStep = false
}

// PostStepCallback returns the pending callback registered with key.
func (s *Space) PostStepCallback(key any) *PostStepCallback {
	for _, callback := range s.PostStepCallbacks {
		if callback != nil && callback.callback != nil && callback.key == key {
			return callback
		}
	}
	return nil
}

// deferStructural queues f for after the step. A change already queued for
// the same target is dropped, so the last request made during the step
// decides the outcome.
func (s *Space) deferStructural(key postStepKey, f PostStepCallbackFunc) {
	if pending := s.PostStepCallback(key); pending != nil {
		pending.callback = nil
	}
	s.PostStepCallbacks = append(s.PostStepCallbacks, &PostStepCallback{callback: f, key: key})
}

// AddPostStepCallback schedules f to run when the current step finishes,
// or immediately when the space is not locked. Only one callback per non
// nil key is kept; a second registration returns false.
func (s *Space) AddPostStepCallback(f PostStepCallbackFunc, key, data any) bool {
	if f == nil {
		f = PostStepDoNothing
	}
	if !s.locked {
		f(s, key, data)
		return true
	}
	if key != nil && s.PostStepCallback(key) != nil {
		return false
	}
	s.PostStepCallbacks = append(s.PostStepCallbacks, &PostStepCallback{callback: f, key: key, data: data})
	return true
}

// Step advances the world by dt seconds. Bodies on the active list are
// synchronized afterwards and areas rescan their overlaps.
func (s *Space) Step(dt float64) {
	if dt <= 0 {
		return
	}
	s.Lock()
	{
		s.activeBodies.Each(func(b *Body) {
			b.applyConstantForces()
		})

		s.world.Step(dt, s.solverIterations+2, s.solverIterations)
		s.rejoinAwakeBodies()

		s.activeCount = 0
		s.activeBodies.Each(func(b *Body) {
			s.activeCount++
			b.afterStep()
		})
		s.objects.Each(func(o *CollisionObject) {
			if a := o.Area(); a != nil {
				a.scanOverlaps()
			}
		})
	}
	s.Unlock(true)
}

// rejoinAwakeBodies puts bodies the solver woke through a contact or a
// joint back on the active list.
func (s *Space) rejoinAwakeBodies() {
	for nb := s.world.GetBodyList(); nb != nil; nb = nb.GetNext() {
		if nb.GetType() == box2d.B2BodyType.B2_staticBody || !nb.IsAwake() {
			continue
		}
		if o, ok := nb.GetUserData().(*CollisionObject); ok {
			if b := o.Body(); b != nil {
				s.activeBodies.Add(b)
			}
		}
	}
}

// CallQueries delivers queued area events, then drains the state query
// list. A body that queues itself again from its own callback is delivered
// on the next call.
func (s *Space) CallQueries() {
	events := s.areaEvents
	s.areaEvents = nil
	for _, ev := range events {
		ev.Area.dispatch(ev)
	}

	seen := map[*Body]bool{}
	var requeued []*Body
	for {
		b, ok := s.stateQueries.PopFront()
		if !ok {
			break
		}
		if seen[b] {
			requeued = append(requeued, b)
			continue
		}
		seen[b] = true
		if b.stateSync != nil {
			b.stateSync(b.State())
		}
	}
	for _, b := range requeued {
		s.stateQueries.Add(b)
	}
}

// ActiveBodyCount is the number of bodies walked by the last step.
func (s *Space) ActiveBodyCount() int {
	return s.activeCount
}

func (s *Space) ObjectCount() int {
	return s.objects.Len()
}

// EachObject calls f for every object in the space, in insertion order.
func (s *Space) EachObject(f func(*CollisionObject)) {
	s.objects.Each(f)
}

func (s *Space) ContainsObject(o *CollisionObject) bool {
	return s.objects.Contains(o)
}

// AddObject builds the native body of o in the space, moving it out of its
// previous space first.
func (s *Space) AddObject(o *CollisionObject) {
	if o == nil {
		panic("nil collision object")
	}
	if s.locked {
		s.deferStructural(postStepKey{"object", o}, func(s *Space, _, _ any) { s.AddObject(o) })
		return
	}
	if o.space == s {
		return
	}
	if from := o.space; from != nil {
		if from.locked {
			// The move waits for the step of the space it leaves.
			from.deferStructural(postStepKey{"object", o}, func(*Space, any, any) { s.AddObject(o) })
			return
		}
		from.RemoveObject(o)
	}
	s.objects.Add(o)
	o.attach(s)
}

// RemoveObject destroys the native body of o. The native joints attached to
// it go with it; the Joint values keep their configuration.
func (s *Space) RemoveObject(o *CollisionObject) {
	if o == nil {
		panic("nil collision object")
	}
	if s.locked {
		s.deferStructural(postStepKey{"object", o}, func(s *Space, _, _ any) { s.RemoveObject(o) })
		return
	}
	if o.space != s {
		return
	}
	o.detach()
	s.objects.Remove(o)
	if b := o.Body(); b != nil {
		for _, j := range b.joints {
			j.native = nil
		}
	}
}

// CreateJoint destroys the native joint of j, if any, and builds a new one
// when j is configured and both of its bodies are in the space.
func (s *Space) CreateJoint(j *Joint) {
	if j == nil {
		panic("nil joint")
	}
	if s.locked {
		s.deferStructural(postStepKey{"joint", j}, func(s *Space, _, _ any) { s.CreateJoint(j) })
		return
	}
	if j.space != nil && j.space != s {
		j.space.RemoveJoint(j)
		j.space.joints.Remove(j)
	}
	j.space = s
	s.joints.Add(j)
	s.RemoveJoint(j)
	if !j.ready(s) {
		return
	}
	def := j.jointDef()
	if def == nil {
		return
	}
	j.native = createNativeJoint(s.world, def)
}

// RemoveJoint destroys the native joint of j. It does nothing when there
// is none.
func (s *Space) RemoveJoint(j *Joint) {
	if j == nil {
		panic("nil joint")
	}
	if s.locked {
		s.deferStructural(postStepKey{"joint", j}, func(s *Space, _, _ any) { s.RemoveJoint(j) })
		return
	}
	if j.native == nil || j.space != s {
		return
	}
	s.world.DestroyJoint(j.native)
	j.native = nil
}

// EachJoint calls f for every joint registered with the space.
func (s *Space) EachJoint(f func(*Joint)) {
	s.joints.Each(f)
}

// JointCount is the number of native joints in the world.
func (s *Space) JointCount() int {
	return s.world.GetJointCount()
}

// ContactCount is the number of manifold points over all touching contacts.
func (s *Space) ContactCount() int {
	n := 0
	for c := s.world.GetContactList(); c != nil; c = c.GetNext() {
		if c.IsTouching() {
			n += c.GetManifold().PointCount
		}
	}
	return n
}

// Contacts returns the global position of every manifold point of every
// touching contact.
func (s *Space) Contacts() []vec.Vec2 {
	var out []vec.Vec2
	for c := s.world.GetContactList(); c != nil; c = c.GetNext() {
		if !c.IsTouching() {
			continue
		}
		var wm box2d.B2WorldManifold
		c.GetWorldManifold(&wm)
		for i := 0; i < c.GetManifold().PointCount; i++ {
			out = append(out, fromB2Vec(wm.Points[i]))
		}
	}
	return out
}

// DirectState returns the query interface of the space.
func (s *Space) DirectState() *DirectSpaceState {
	return s.directState
}

// Destroy removes every object and joint. The space must not be used
// afterwards.
func (s *Space) Destroy() {
	s.joints.Each(func(j *Joint) {
		s.RemoveJoint(j)
		j.space = nil
	})
	s.joints.Clear()
	s.objects.Each(func(o *CollisionObject) {
		s.RemoveObject(o)
	})
	s.activeBodies.Clear()
	s.stateQueries.Clear()
	s.areaEvents = nil
}

type PostStepCallbackFunc func(space *Space, key any, data any)

type PostStepCallback struct {
	callback PostStepCallbackFunc
	key      any
	data     any
}

func PostStepDoNothing(space *Space, key, data any) {}

// postStepKey identifies the pending structural change of one object or
// joint.
type postStepKey struct {
	kind   string
	target any
}
