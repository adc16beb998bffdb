package gdbox2d

import (
	"fmt"
	"math"
	"slices"

	"github.com/setanarut/vec"
)

type ShapeType int

const (
	ShapeWorldBoundary ShapeType = iota
	ShapeSeparationRay
	ShapeSegment
	ShapeCircle
	ShapeRectangle
	ShapeCapsule
	ShapeConvexPolygon
	ShapeConcavePolygon
)

func (t ShapeType) String() string {
	switch t {
	case ShapeWorldBoundary:
		return "world_boundary"
	case ShapeSeparationRay:
		return "separation_ray"
	case ShapeSegment:
		return "segment"
	case ShapeCircle:
		return "circle"
	case ShapeRectangle:
		return "rectangle"
	case ShapeCapsule:
		return "capsule"
	case ShapeConvexPolygon:
		return "convex_polygon"
	case ShapeConcavePolygon:
		return "concave_polygon"
	}
	return fmt.Sprintf("ShapeType(%d)", int(t))
}

// CapsuleData is the payload of a capsule shape. Height includes both caps.
type CapsuleData struct {
	Radius, Height float64
}

// SegmentData is the payload of a segment shape.
type SegmentData struct {
	A, B vec.Vec2
}

// WorldBoundaryData is the payload of a world boundary: the line of points
// p with p·Normal == Distance.
type WorldBoundaryData struct {
	Normal   vec.Vec2
	Distance float64
}

// SeparationRayData is the payload of a separation ray. The ray runs from
// the local origin along +Y.
type SeparationRayData struct {
	Length       float64
	SlideOnSlope bool
}

// Shape holds the parameters of one collision shape. It has no transform
// and owns no fixtures; any number of collision objects may reference it.
type Shape struct {
	rid        RID
	kind       ShapeType
	configured bool

	// circle, capsule
	radius float64
	// capsule
	height float64
	// rectangle
	halfExtents vec.Vec2
	// segment, separation ray
	a, b         vec.Vec2
	slideOnSlope bool
	// world boundary
	normal   vec.Vec2
	distance float64
	// convex and concave polygons
	points []vec.Vec2

	// owners counts, per collision object, the slots referencing this shape.
	owners map[*CollisionObject]int
}

func NewShape(kind ShapeType) *Shape {
	return &Shape{
		rid:    NewRID(),
		kind:   kind,
		owners: map[*CollisionObject]int{},
	}
}

func (s *Shape) String() string {
	return fmt.Sprintf("Shape(%v %v)", s.kind, s.rid)
}

func (s *Shape) RID() RID { return s.rid }

func (s *Shape) Type() ShapeType { return s.kind }

func (s *Shape) IsConfigured() bool { return s.configured }

// OwnerCount is the number of collision objects referencing the shape.
func (s *Shape) OwnerCount() int { return len(s.owners) }

// PrimitiveCount is the number of native primitives (and fixtures) one slot
// holding this shape produces.
func (s *Shape) PrimitiveCount(isStatic bool) int {
	if s.kind == ShapeCapsule {
		return 3
	}
	return 1
}

// SetData validates and stores a shape description. Dimensions below
// ShapeMinExtent are raised to it with a warning. A payload of the wrong
// type is rejected and leaves the shape as it was. Every collision object
// using the shape rebuilds its fixtures.
func (s *Shape) SetData(data any) error {
	var err error
	switch s.kind {
	case ShapeCircle:
		err = s.setCircle(data)
	case ShapeRectangle:
		err = s.setRectangle(data)
	case ShapeCapsule:
		err = s.setCapsule(data)
	case ShapeConvexPolygon:
		err = s.setPolygon(data, 3)
	case ShapeConcavePolygon:
		err = s.setPolygon(data, 2)
	case ShapeSegment:
		err = s.setSegment(data)
	case ShapeWorldBoundary:
		err = s.setWorldBoundary(data)
	case ShapeSeparationRay:
		err = s.setSeparationRay(data)
	default:
		err = fmt.Errorf("%w: unknown shape type %v", ErrInvalidShapeData, s.kind)
	}
	if err != nil {
		logger.Warn("shape data rejected", "shape", s.rid, "type", s.kind, "err", err)
		return err
	}
	s.configured = true
	s.notifyOwners()
	return nil
}

// Data returns the stored (clamped) description in the payload type
// accepted by SetData, or nil while unconfigured.
func (s *Shape) Data() any {
	if !s.configured {
		return nil
	}
	switch s.kind {
	case ShapeCircle:
		return s.radius
	case ShapeRectangle:
		return s.halfExtents
	case ShapeCapsule:
		return CapsuleData{Radius: s.radius, Height: s.height}
	case ShapeConvexPolygon, ShapeConcavePolygon:
		return slices.Clone(s.points)
	case ShapeSegment:
		return SegmentData{A: s.a, B: s.b}
	case ShapeWorldBoundary:
		return WorldBoundaryData{Normal: s.normal, Distance: s.distance}
	case ShapeSeparationRay:
		return SeparationRayData{Length: s.b.Y, SlideOnSlope: s.slideOnSlope}
	}
	return nil
}

func (s *Shape) floor(field string, value float64) float64 {
	return s.atLeast(field, value, ShapeMinExtent)
}

func (s *Shape) atLeast(field string, value, min float64) float64 {
	if value < min || math.IsNaN(value) {
		logger.Warn("shape dimension too small, clamping",
			"shape", s.rid, "type", s.kind, "field", field, "value", value, "using", min)
		return min
	}
	return value
}

func toFloat(data any) (float64, bool) {
	switch v := data.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	}
	return 0, false
}

func (s *Shape) setCircle(data any) error {
	r, ok := toFloat(data)
	if !ok {
		return fmt.Errorf("%w: circle wants a number, got %T", ErrInvalidShapeData, data)
	}
	s.radius = s.floor("radius", r)
	return nil
}

func (s *Shape) setRectangle(data any) error {
	he, ok := data.(vec.Vec2)
	if !ok {
		return fmt.Errorf("%w: rectangle wants vec.Vec2 half extents, got %T", ErrInvalidShapeData, data)
	}
	s.halfExtents = vec.Vec2{s.floor("half_extents.x", he.X), s.floor("half_extents.y", he.Y)}
	return nil
}

func (s *Shape) setCapsule(data any) error {
	var c CapsuleData
	switch v := data.(type) {
	case CapsuleData:
		c = v
	case vec.Vec2:
		c = CapsuleData{Radius: v.X, Height: v.Y}
	default:
		return fmt.Errorf("%w: capsule wants CapsuleData, got %T", ErrInvalidShapeData, data)
	}
	radius := s.floor("radius", c.Radius)
	// Leaves room for a radius of at least the floor.
	height := s.atLeast("height", c.Height, 4*ShapeMinExtent)
	if max := height*0.5 - ShapeMinExtent; radius > max {
		logger.Warn("capsule radius bigger than half the height, clamping",
			"shape", s.rid, "radius", radius, "using", max)
		radius = max
	}
	s.radius = radius
	s.height = height
	return nil
}

func (s *Shape) setPolygon(data any, minPoints int) error {
	points, ok := data.([]vec.Vec2)
	if !ok {
		return fmt.Errorf("%w: %v wants []vec.Vec2, got %T", ErrInvalidShapeData, s.kind, data)
	}
	if len(points) < minPoints {
		return fmt.Errorf("%w: %v needs at least %d points, got %d", ErrInvalidShapeData, s.kind, minPoints, len(points))
	}
	s.points = slices.Clone(points)
	return nil
}

func (s *Shape) setSegment(data any) error {
	seg, ok := data.(SegmentData)
	if !ok {
		return fmt.Errorf("%w: segment wants SegmentData, got %T", ErrInvalidShapeData, data)
	}
	d := seg.B.Sub(seg.A)
	if l := d.Mag(); l < ShapeMinExtent {
		dir := vec.Vec2{1, 0}
		if l > 0 {
			dir = d.Scale(1 / l)
		}
		logger.Warn("segment too short, extending",
			"shape", s.rid, "length", l, "using", ShapeMinExtent)
		seg.B = seg.A.Add(dir.Scale(ShapeMinExtent))
	}
	s.a, s.b = seg.A, seg.B
	return nil
}

func (s *Shape) setWorldBoundary(data any) error {
	wb, ok := data.(WorldBoundaryData)
	if !ok {
		return fmt.Errorf("%w: world boundary wants WorldBoundaryData, got %T", ErrInvalidShapeData, data)
	}
	if l := wb.Normal.Mag(); l == 0 || math.IsNaN(l) {
		logger.Warn("world boundary normal is zero, using (0,-1)", "shape", s.rid)
		wb.Normal = vec.Vec2{0, -1}
	} else {
		wb.Normal = wb.Normal.Scale(1 / l)
	}
	s.normal, s.distance = wb.Normal, wb.Distance
	return nil
}

func (s *Shape) setSeparationRay(data any) error {
	ray, ok := data.(SeparationRayData)
	if !ok {
		return fmt.Errorf("%w: separation ray wants SeparationRayData, got %T", ErrInvalidShapeData, data)
	}
	s.a = vec.Vec2{}
	s.b = vec.Vec2{0, s.floor("length", ray.Length)}
	s.slideOnSlope = ray.SlideOnSlope
	return nil
}

func (s *Shape) addOwner(o *CollisionObject) {
	s.owners[o]++
}

func (s *Shape) removeOwner(o *CollisionObject) {
	if n := s.owners[o]; n > 1 {
		s.owners[o] = n - 1
	} else {
		delete(s.owners, o)
	}
}

func (s *Shape) notifyOwners() {
	for o := range s.owners {
		o.shapeChanged(s)
	}
}

// Destroy detaches the shape from every collision object still using it.
func (s *Shape) Destroy() {
	for o := range s.owners {
		for o.RemoveShape(s) {
		}
	}
}
