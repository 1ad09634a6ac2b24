package pdm

import "github.com/pkg/errors"

var (
	// ErrShapeCardinalityMismatch is returned when shapes of one alignment call have different landmark counts
	ErrShapeCardinalityMismatch = errors.New("shapes have different number of landmarks")
	// ErrDegenerateShape is returned when a shape's landmark vector has zero norm where a division by it is needed
	ErrDegenerateShape = errors.New("degenerate shape: landmark vector has zero norm")
	// ErrEmptyBatch is returned for an empty batch or a nil shape inside it
	ErrEmptyBatch = errors.New("empty batch")
	// ErrTooFewLandmarks is returned for shapes with less than MinLandmarks points
	ErrTooFewLandmarks = errors.New("too few landmarks")
	// ErrZeroScale is returned when scaling a shape by zero
	ErrZeroScale = errors.New("scale factor must not be zero")
	// ErrTooFewShapes is returned when a model is built from less than two shapes
	ErrTooFewShapes = errors.New("at least two shapes are needed to build a model")
)
