package pdm

import (
	"math"
	"math/rand"
	"testing"
)

// toothContour samples a closed, slightly asymmetric outline: an ellipse with a lobe on one side
func toothContour(landmarks int, width, height, lobe float64) []Point {
	points := make([]Point, landmarks)
	for i := range points {
		t := 2 * math.Pi * float64(i) / float64(landmarks)
		points[i] = Point{
			X: width*math.Cos(t) + lobe*math.Cos(2*t),
			Y: height*math.Sin(t) + 0.5*lobe*math.Sin(3*t),
		}
	}
	return points
}

// posed returns copy of shape scaled, then rotated around the origin, then translated
func posed(shape *Shape, scale, theta float64, shift Point) *Shape {
	out := shape.Clone()
	if err := out.Scale(scale); err != nil {
		panic(err)
	}
	out.Rotate(theta)
	out.Translate(shift)
	return out
}

// trainingSet generates n tooth-like contours with random shape variation and random pose
func trainingSet(n, landmarks int, seed int64) []*Shape {
	rng := rand.New(rand.NewSource(seed))
	shapes := make([]*Shape, n)
	for i := range shapes {
		width := 1.0 + 0.2*rng.Float64()
		height := 2.0 + 0.3*rng.Float64()
		lobe := 0.3 * rng.Float64()
		base := NewShape(toothContour(landmarks, width, height, lobe))
		shapes[i] = posed(base,
			50+100*rng.Float64(),
			0.6*(rng.Float64()-0.5),
			Point{X: 1000 * rng.Float64(), Y: 800 * rng.Float64()},
		)
	}
	return shapes
}

func maxLandmarkDistance(a, b *Shape) float64 {
	worst := 0.0
	for i := range a.landmarks {
		worst = maxFloat64(worst, euclideanDistance(a.landmarks[i], b.landmarks[i]))
	}
	return worst
}

func assertShapesClose(t *testing.T, got, want *Shape, tolerance float64) {
	t.Helper()
	if got.Len() != want.Len() {
		t.Fatalf("Wrong number of landmarks: %d, expected: %d", got.Len(), want.Len())
	}
	if d := maxLandmarkDistance(got, want); d > tolerance {
		t.Errorf("Shapes differ by %v (tolerance %v)\ngot:  %v\nwant: %v", d, tolerance, got.landmarks, want.landmarks)
	}
}
