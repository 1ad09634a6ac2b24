package pdm

import (
	"math"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MinLandmarks is the smallest landmark count the alignment engine accepts
const MinLandmarks = 3

// Shape is an ordered sequence of 2D landmarks describing one contour (e.g. a tooth outline).
// Landmark i of one shape corresponds to landmark i of every other shape with the same length.
//
// Geometric operations mutate the shape in place. Use Clone when the original has to be kept.
// Shape is not safe for concurrent mutation.
type Shape struct {
	id        uuid.UUID
	landmarks []Point
}

// NewShape creates shape from a copy of given landmarks
func NewShape(landmarks []Point) *Shape {
	points := make([]Point, len(landmarks))
	copy(points, landmarks)
	return &Shape{
		id:        uuid.New(),
		landmarks: points,
	}
}

// NewShapeFromFlat creates shape from interleaved vector [x0, y0, x1, y1, ...]
func NewShapeFromFlat(vec []float64) (*Shape, error) {
	if len(vec)%2 != 0 {
		return nil, errors.Errorf("flat landmark vector must have even length, got %d", len(vec))
	}
	points := make([]Point, len(vec)/2)
	for i := range points {
		points[i] = Point{X: vec[2*i], Y: vec[2*i+1]}
	}
	return &Shape{
		id:        uuid.New(),
		landmarks: points,
	}, nil
}

// GetID returns shape's identifier
func (shape *Shape) GetID() uuid.UUID {
	return shape.id
}

// SetID sets shape's identifier
func (shape *Shape) SetID(newID uuid.UUID) {
	shape.id = newID
}

// Len returns number of landmarks
func (shape *Shape) Len() int {
	return len(shape.landmarks)
}

// GetLandmarks returns copy of shape's landmarks
func (shape *Shape) GetLandmarks() []Point {
	points := make([]Point, len(shape.landmarks))
	copy(points, shape.landmarks)
	return points
}

// GetCenter returns arithmetic mean of all landmarks
func (shape *Shape) GetCenter() Point {
	if len(shape.landmarks) == 0 {
		return Point{}
	}
	var sx, sy float64
	for _, p := range shape.landmarks {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(shape.landmarks))
	return Point{X: sx / n, Y: sy / n}
}

// GetBBox returns axis-aligned bounding box of the landmarks
func (shape *Shape) GetBBox() Rectangle {
	if len(shape.landmarks) == 0 {
		return Rectangle{}
	}
	minX, minY := shape.landmarks[0].X, shape.landmarks[0].Y
	maxX, maxY := minX, minY
	for _, p := range shape.landmarks[1:] {
		minX = minFloat64(minX, p.X)
		minY = minFloat64(minY, p.Y)
		maxX = maxFloat64(maxX, p.X)
		maxY = maxFloat64(maxY, p.Y)
	}
	return NewRect(minX, minY, maxX-minX, maxY-minY)
}

// Norm returns Euclidean norm of the flattened landmark vector
func (shape *Shape) Norm() float64 {
	return math.Sqrt(shape.squaredNorm())
}

func (shape *Shape) squaredNorm() float64 {
	sum := 0.0
	for _, p := range shape.landmarks {
		sum += p.X*p.X + p.Y*p.Y
	}
	return sum
}

// centeredNorm returns the norm the shape would have after MoveToOrigin, without mutating it
func (shape *Shape) centeredNorm() float64 {
	c := shape.GetCenter()
	sum := 0.0
	for _, p := range shape.landmarks {
		dx, dy := p.X-c.X, p.Y-c.Y
		sum += dx*dx + dy*dy
	}
	return math.Sqrt(sum)
}

// Flatten returns interleaved landmark vector [x0, y0, x1, y1, ...] of length 2*Len()
func (shape *Shape) Flatten() []float64 {
	vec := make([]float64, 0, 2*len(shape.landmarks))
	for _, p := range shape.landmarks {
		vec = append(vec, p.X, p.Y)
	}
	return vec
}

// Clone returns deep copy of the shape. Identifier is preserved
func (shape *Shape) Clone() *Shape {
	points := make([]Point, len(shape.landmarks))
	copy(points, shape.landmarks)
	return &Shape{
		id:        shape.id,
		landmarks: points,
	}
}

// Translate adds delta to every landmark
func (shape *Shape) Translate(delta Point) {
	for i := range shape.landmarks {
		shape.landmarks[i].X += delta.X
		shape.landmarks[i].Y += delta.Y
	}
}

// MoveToOrigin translates the shape so its center is (0, 0) and returns the removed center
func (shape *Shape) MoveToOrigin() Point {
	center := shape.GetCenter()
	shape.Translate(center.Neg())
	return center
}

// Scale multiplies every landmark coordinate by factor.
// Negative factors are accepted and mirror the shape through the origin
func (shape *Shape) Scale(factor float64) error {
	if factor == 0 {
		return ErrZeroScale
	}
	for i := range shape.landmarks {
		shape.landmarks[i].X *= factor
		shape.landmarks[i].Y *= factor
	}
	return nil
}

// Rotate rotates every landmark by theta radians (counter-clockwise) around the origin, not the center
func (shape *Shape) Rotate(theta float64) {
	sin, cos := math.Sincos(theta)
	for i, p := range shape.landmarks {
		shape.landmarks[i] = Point{
			X: cos*p.X - sin*p.Y,
			Y: sin*p.X + cos*p.Y,
		}
	}
}

// Normalize rescales the landmark vector to unit norm
func (shape *Shape) Normalize() error {
	norm := shape.Norm()
	if norm == 0 {
		return errors.Wrapf(ErrDegenerateShape, "can't normalize shape %s", shape.id)
	}
	for i := range shape.landmarks {
		shape.landmarks[i].X /= norm
		shape.landmarks[i].Y /= norm
	}
	return nil
}
