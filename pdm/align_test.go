package pdm

import (
	"math"
	"testing"

	"github.com/pkg/errors"
)

func unitSquare() *Shape {
	return NewShape([]Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}})
}

func TestAlignBatchUnitSquare(t *testing.T) {
	reference := unitSquare()
	subject := unitSquare()
	subject.Translate(Point{X: 5, Y: 5})
	if err := subject.Scale(2); err != nil {
		t.Fatal(err)
	}
	subject.Rotate(math.Pi / 2)

	aligned, err := AlignBatch([]*Shape{reference, subject})
	if err != nil {
		t.Fatal(err)
	}
	if aligned[0] != reference || aligned[1] != subject {
		t.Error("AlignBatch must return the same shapes it was given")
	}

	half := 0.5 / math.Sqrt2
	correctAnswer := NewShape([]Point{{-half, -half}, {half, -half}, {half, half}, {-half, half}})
	assertShapesClose(t, reference, correctAnswer, 1e-6)
	assertShapesClose(t, subject, correctAnswer, 1e-6)
	if math.Abs(reference.Norm()-1) > 1e-12 {
		t.Errorf("Reference is not unit norm: %v", reference.Norm())
	}
}

// Single-argument arctangent loses the quadrant (and divides by zero) once relative rotation reaches ±90°
func TestAlignBatchRotationBoundaries(t *testing.T) {
	base := NewShape(toothContour(40, 1.2, 2.1, 0.25))
	angles := []float64{
		math.Pi / 2,
		-math.Pi / 2,
		math.Pi/2 - 1e-9,
		math.Pi/2 + 1e-9,
		2.5,
		-2.5,
		math.Pi,
		3 * math.Pi / 4,
	}
	for _, angle := range angles {
		reference := base.Clone()
		subject := posed(base, 3.7, angle, Point{X: -20, Y: 14})
		if _, err := AlignBatch([]*Shape{reference, subject}); err != nil {
			t.Fatalf("Angle %v: %v", angle, err)
		}
		assertShapesClose(t, subject, reference, 1e-9)
	}
}

func TestEstimateSimilarityRecoversTransform(t *testing.T) {
	reference := NewShape(toothContour(30, 2, 3, 0.4))
	tests := []struct {
		scale float64
		theta float64
	}{
		{2, 0.3},
		{0.5, -1.2},
		{10, math.Pi / 2},
		{1, -math.Pi / 2},
		{4, 2.9},
	}
	for _, test := range tests {
		subject := posed(reference, test.scale, test.theta, Point{X: 7, Y: -3})
		before := subject.GetLandmarks()

		sim, err := EstimateSimilarity(subject, reference)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(sim.Scale-1/test.scale) > 1e-9 {
			t.Errorf("Wrong scale: %v, correct answer: %v", sim.Scale, 1/test.scale)
		}
		if math.Abs(sim.Theta+test.theta) > 1e-9 {
			t.Errorf("Wrong angle: %v, correct answer: %v", sim.Theta, -test.theta)
		}
		if math.Abs(math.Hypot(sim.A, sim.B)-sim.Scale) > 1e-12 {
			t.Errorf("Inconsistent similarity: %+v", sim)
		}
		if subject.GetLandmarks()[0] != before[0] {
			t.Error("EstimateSimilarity mutated subject")
		}
	}
}

func TestAlignShapeToReference(t *testing.T) {
	reference := NewShape(toothContour(40, 2, 3, 0.4))
	reference.Translate(Point{X: 100, Y: 50})
	untouched := reference.Clone()
	subject := posed(reference, 0.25, -0.8, Point{X: -30, Y: 12})

	alignedSubject, alignedReference, err := AlignShapeToReference(subject, reference)
	if err != nil {
		t.Fatal(err)
	}
	if alignedSubject != subject || alignedReference != reference {
		t.Error("AlignShapeToReference must return the shapes it was given")
	}
	// Reference keeps its scale, rotation and position
	assertShapesClose(t, reference, untouched, 1e-9)
	assertShapesClose(t, subject, untouched, 1e-9)
}

func TestAlignShapeToReferenceFixedPoint(t *testing.T) {
	reference := NewShape(toothContour(40, 1.5, 2.5, 0.3))
	reference.Translate(Point{X: 10, Y: 10})
	subject := posed(NewShape(toothContour(40, 1.7, 2.2, 0.1)), 3, 1.1, Point{X: 5, Y: 0})

	if _, _, err := AlignShapeToReference(subject, reference); err != nil {
		t.Fatal(err)
	}
	sim, err := EstimateSimilarity(subject, reference)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(sim.Scale-1) > 1e-9 || math.Abs(sim.Theta) > 1e-9 {
		t.Errorf("Aligned shape is not a fixed point: %+v", sim)
	}
}

func TestAlignReferenceToShapeMatchesBatch(t *testing.T) {
	shapes := trainingSet(2, 24, 7)
	batch := []*Shape{shapes[0].Clone(), shapes[1].Clone()}
	if _, err := AlignBatch(batch); err != nil {
		t.Fatal(err)
	}
	aligned, err := AlignReferenceToShape(shapes[1], shapes[0])
	if err != nil {
		t.Fatal(err)
	}
	if aligned != shapes[1] {
		t.Error("AlignReferenceToShape must return subject")
	}
	assertShapesClose(t, aligned, batch[1], 1e-12)
	assertShapesClose(t, shapes[0], batch[0], 1e-12)
}

func TestAlignBatchOrderIndependence(t *testing.T) {
	shapes := trainingSet(6, 32, 11)
	forward := make([]*Shape, len(shapes))
	for i := range shapes {
		forward[i] = shapes[i].Clone()
	}
	// Same reference, remaining shapes reversed
	shuffled := []*Shape{shapes[0].Clone()}
	for i := len(shapes) - 1; i >= 1; i-- {
		shuffled = append(shuffled, shapes[i].Clone())
	}
	if _, err := AlignBatch(forward); err != nil {
		t.Fatal(err)
	}
	if _, err := AlignBatch(shuffled); err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(shapes); i++ {
		assertShapesClose(t, forward[i], shuffled[len(shapes)-i], 1e-12)
	}
}

func TestAlignBatchReferenceInvariance(t *testing.T) {
	shapes := trainingSet(5, 20, 3)
	expected := shapes[0].Clone()
	expected.MoveToOrigin()
	if err := expected.Normalize(); err != nil {
		t.Fatal(err)
	}
	if _, err := AlignBatch(shapes); err != nil {
		t.Fatal(err)
	}
	assertShapesClose(t, shapes[0], expected, 1e-12)
	for i, shape := range shapes {
		center := shape.GetCenter()
		if math.Abs(center.X) > 1e-9 || math.Abs(center.Y) > 1e-9 {
			t.Errorf("Shape %d is not centered: %v", i, center)
		}
	}
}

func TestAlignBatchDoesNotMutateOnError(t *testing.T) {
	a := NewShape([]Point{{1, 1}, {3, 1}, {2, 4}})
	b := NewShape([]Point{{10, 10}, {30, 10}, {20, 40}, {0, 5}})
	beforeA := a.Clone()
	beforeB := b.Clone()

	_, err := AlignBatch([]*Shape{a, b})
	if !errors.Is(err, ErrShapeCardinalityMismatch) {
		t.Errorf("Expected ErrShapeCardinalityMismatch, got %v", err)
	}
	assertShapesClose(t, a, beforeA, 0)
	assertShapesClose(t, b, beforeB, 0)

	collapsed := NewShape([]Point{{5, 5}, {5, 5}, {5, 5}})
	beforeA = a.Clone()
	_, err = AlignBatch([]*Shape{a, collapsed})
	if !errors.Is(err, ErrDegenerateShape) {
		t.Errorf("Expected ErrDegenerateShape, got %v", err)
	}
	assertShapesClose(t, a, beforeA, 0)
	if p := collapsed.GetLandmarks()[0]; p != (Point{5, 5}) {
		t.Errorf("Degenerate shape was mutated: %v", p)
	}
}

func TestAlignBatchErrors(t *testing.T) {
	valid := func() *Shape { return NewShape([]Point{{0, 0}, {2, 0}, {1, 3}}) }
	tests := []struct {
		name   string
		shapes []*Shape
		err    error
	}{
		{"nil batch", nil, ErrEmptyBatch},
		{"empty batch", []*Shape{}, ErrEmptyBatch},
		{"nil shape", []*Shape{valid(), nil}, ErrEmptyBatch},
		{"too few landmarks", []*Shape{NewShape([]Point{{0, 0}, {1, 1}}), NewShape([]Point{{0, 0}, {2, 2}})}, ErrTooFewLandmarks},
		{"degenerate reference", []*Shape{NewShape([]Point{{1, 1}, {1, 1}, {1, 1}}), valid()}, ErrDegenerateShape},
		{"cardinality", []*Shape{valid(), NewShape([]Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}})}, ErrShapeCardinalityMismatch},
	}
	for _, test := range tests {
		if _, err := AlignBatch(test.shapes); !errors.Is(err, test.err) {
			t.Errorf("%s: expected %v, got %v", test.name, test.err, err)
		}
	}
	if _, _, err := AlignShapeToReference(valid(), nil); !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("Expected ErrEmptyBatch, got %v", err)
	}
	if _, err := EstimateSimilarity(valid(), NewShape([]Point{{0, 0}, {0, 0}, {0, 0}})); !errors.Is(err, ErrDegenerateShape) {
		t.Errorf("Expected ErrDegenerateShape, got %v", err)
	}
}

func TestAlignBatchSingleShape(t *testing.T) {
	shape := NewShape([]Point{{2, 2}, {6, 2}, {4, 8}})
	if _, err := AlignBatch([]*Shape{shape}); err != nil {
		t.Fatal(err)
	}
	if math.Abs(shape.Norm()-1) > 1e-12 {
		t.Errorf("Wrong norm: %v, correct answer: 1", shape.Norm())
	}
}
