package pdm

import (
	"math"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// BuilderOptions configures how a Model is learned from training shapes
type BuilderOptions struct {
	// Smallest fraction of total variance the kept modes must explain. Default 0.98
	RetainedVariance float64
	// Upper bound for number of modes. Zero means no bound
	MaxModes int
	// Extra passes re-aligning shapes onto their current mean. Zero means single-pass alignment onto the first shape
	RefineIterations int
	// Refinement stops when the mean moves less than this (Euclidean norm of landmark differences)
	RefineTolerance float64
	// Number of worst-fitting training shapes to log after building. Zero disables the report
	ReportOutliers int
}

// DefaultBuilderOptions returns single-pass alignment keeping 98% of variance
func DefaultBuilderOptions() BuilderOptions {
	return BuilderOptions{
		RetainedVariance: 0.98,
		MaxModes:         0,
		RefineIterations: 0,
		RefineTolerance:  1e-9,
		ReportOutliers:   0,
	}
}

// Builder learns a Point Distribution Model from landmark-labelled shapes
type Builder struct {
	opts BuilderOptions
}

// NewBuilder creates new instance of Builder
func NewBuilder(opts BuilderOptions) *Builder {
	return &Builder{opts: opts}
}

// Model is a Point Distribution Model: mean shape plus principal modes of variation.
// Orientation of the model is the orientation the first training shape had; no canonical frame is assumed.
// Model is immutable and safe for concurrent use.
type Model struct {
	id            uuid.UUID
	landmarks     int
	mean          []float64
	eigenvectors  *mat.Dense
	eigenvalues   []float64
	totalVariance float64
	trainingIDs   []uuid.UUID
}

// Build aligns shapes (in place, shapes[0] is the reference) and learns the model from them.
// Shapes are not retained by the model
func (b *Builder) Build(shapes []*Shape) (*Model, error) {
	if len(shapes) < 2 {
		return nil, errors.Wrapf(ErrTooFewShapes, "got %d", len(shapes))
	}
	if _, err := AlignBatch(shapes); err != nil {
		return nil, errors.Wrap(err, "can't align training shapes")
	}
	if b.opts.RefineIterations > 0 {
		if err := b.refine(shapes); err != nil {
			return nil, errors.Wrap(err, "can't refine alignment")
		}
	}

	n := len(shapes)
	dims := 2 * shapes[0].Len()
	data := mat.NewDense(n, dims, nil)
	ids := make([]uuid.UUID, n)
	for i, shape := range shapes {
		data.SetRow(i, shape.Flatten())
		ids[i] = shape.GetID()
	}
	mean := make([]float64, dims)
	for j := range mean {
		mean[j] = stat.Mean(mat.Col(nil, j, data), nil)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(data, nil); !ok {
		return nil, errors.New("principal component analysis failed")
	}
	vars := pc.VarsTo(nil)
	var vectors mat.Dense
	pc.VectorsTo(&vectors)

	modes := selectModes(vars, b.opts.RetainedVariance, b.opts.MaxModes)
	model := &Model{
		id:            uuid.New(),
		landmarks:     shapes[0].Len(),
		mean:          mean,
		eigenvectors:  mat.DenseCopyOf(vectors.Slice(0, dims, 0, modes)),
		eigenvalues:   append([]float64(nil), vars[:modes]...),
		totalVariance: floats.Sum(vars),
		trainingIDs:   ids,
	}
	pkgLogger().Info("built point distribution model",
		"model", model.id,
		"shapes", n,
		"landmarks", model.landmarks,
		"modes", modes,
		"explained_variance", model.ExplainedVariance(),
	)

	if b.opts.ReportOutliers > 0 {
		b.reportOutliers(model, shapes)
	}
	return model, nil
}

// refine re-aligns shapes onto their mean until the mean settles
func (b *Builder) refine(shapes []*Shape) error {
	previous, err := meanShape(shapes)
	if err != nil {
		return err
	}
	for iter := 1; iter <= b.opts.RefineIterations; iter++ {
		batch := make([]*Shape, 0, len(shapes)+1)
		batch = append(batch, previous.Clone())
		batch = append(batch, shapes...)
		if _, err := AlignBatch(batch); err != nil {
			return errors.Wrapf(err, "iteration %d", iter)
		}
		current, err := meanShape(shapes)
		if err != nil {
			return err
		}
		delta := math.Sqrt(squaredDistance(current, previous))
		previous = current
		pkgLogger().Debug("refined alignment onto mean", "iteration", iter, "mean_delta", delta)
		if delta < b.opts.RefineTolerance {
			break
		}
	}
	return nil
}

func (b *Builder) reportOutliers(model *Model, shapes []*Shape) {
	ranked, err := RankByResidual(shapes, model.MeanShape())
	if err != nil {
		pkgLogger().Warn("can't rank training shapes", "model", model.id, "error", err)
		return
	}
	for i := len(ranked) - 1; i >= 0 && i >= len(ranked)-b.opts.ReportOutliers; i-- {
		pkgLogger().Info("training shape residual",
			"model", model.id,
			"index", ranked[i].Index,
			"shape", ranked[i].ID,
			"distance", ranked[i].Distance,
		)
	}
}

// selectModes returns the smallest number of leading modes reaching retained share of total variance.
// At least one mode is always kept
func selectModes(vars []float64, retained float64, maxModes int) int {
	modes := len(vars)
	total := floats.Sum(vars)
	if total > 0 {
		cumulative := 0.0
		for i, v := range vars {
			cumulative += v
			if cumulative/total >= retained {
				modes = i + 1
				break
			}
		}
	} else {
		modes = 1
	}
	if maxModes > 0 && modes > maxModes {
		modes = maxModes
	}
	if modes < 1 {
		modes = 1
	}
	return modes
}

// meanShape averages landmarks of equally sized shapes
func meanShape(shapes []*Shape) (*Shape, error) {
	sum := make([]float64, 2*shapes[0].Len())
	for _, shape := range shapes {
		floats.Add(sum, shape.Flatten())
	}
	floats.Scale(1/float64(len(shapes)), sum)
	return NewShapeFromFlat(sum)
}

// GetID returns model's identifier
func (model *Model) GetID() uuid.UUID {
	return model.id
}

// Landmarks returns number of landmarks per shape
func (model *Model) Landmarks() int {
	return model.landmarks
}

// NumModes returns number of kept modes of variation
func (model *Model) NumModes() int {
	return len(model.eigenvalues)
}

// Eigenvalues returns copy of kept eigenvalues (variance along each mode), largest first
func (model *Model) Eigenvalues() []float64 {
	return append([]float64(nil), model.eigenvalues...)
}

// Eigenvectors returns copy of the 2L x NumModes() matrix of modes
func (model *Model) Eigenvectors() mat.Matrix {
	return mat.DenseCopyOf(model.eigenvectors)
}

// Mean returns copy of the flattened mean shape
func (model *Model) Mean() []float64 {
	return append([]float64(nil), model.mean...)
}

// MeanShape returns the mean as a Shape carrying the model's identifier
func (model *Model) MeanShape() *Shape {
	shape, _ := NewShapeFromFlat(model.mean)
	shape.SetID(model.id)
	return shape
}

// TrainingIDs returns identifiers of the shapes the model was learned from, in training order
func (model *Model) TrainingIDs() []uuid.UUID {
	return append([]uuid.UUID(nil), model.trainingIDs...)
}

// ExplainedVariance returns the share of total training variance covered by kept modes
func (model *Model) ExplainedVariance() float64 {
	if model.totalVariance == 0 {
		return 1
	}
	return floats.Sum(model.eigenvalues) / model.totalVariance
}

// Reconstruct builds shape from mode weights (model frame)
func (model *Model) Reconstruct(weights []float64) (*Shape, error) {
	vec, err := Reconstruct(weights, model.eigenvectors, model.mean)
	if err != nil {
		return nil, err
	}
	return NewShapeFromFlat(vec)
}

// Project returns mode weights best describing shape. Shape must already be aligned into model frame
func (model *Model) Project(shape *Shape) ([]float64, error) {
	if shape.Len() != model.landmarks {
		return nil, errors.Wrapf(ErrShapeCardinalityMismatch, "shape has %d landmarks, model has %d", shape.Len(), model.landmarks)
	}
	return project(shape.Flatten(), model.eigenvectors, model.mean)
}

// ClampWeights limits every weight to ±limit*sqrt(eigenvalue) in place and returns weights.
// Non-positive limit leaves weights untouched
func (model *Model) ClampWeights(weights []float64, limit float64) []float64 {
	if limit <= 0 {
		return weights
	}
	for i := range weights {
		if i >= len(model.eigenvalues) {
			break
		}
		bound := limit * math.Sqrt(model.eigenvalues[i])
		weights[i] = math.Max(-bound, math.Min(bound, weights[i]))
	}
	return weights
}

// ModeShape reconstructs the mean deformed along a single mode by k standard deviations
func (model *Model) ModeShape(mode int, k float64) (*Shape, error) {
	if mode < 0 || mode >= model.NumModes() {
		return nil, errors.Errorf("mode %d out of range [0, %d)", mode, model.NumModes())
	}
	weights := make([]float64, model.NumModes())
	weights[mode] = k * math.Sqrt(model.eigenvalues[mode])
	return model.Reconstruct(weights)
}

// Placement puts a model instance into an image frame
type Placement struct {
	// Where the instance's center goes
	Center Point
	// Multiplier for the (roughly unit-norm) model-frame shape
	Scale float64
	// Radians, counter-clockwise
	Rotation float64
}

// Place reconstructs an instance from weights (nil means the mean shape), then rotates, scales and translates it
func (model *Model) Place(weights []float64, placement Placement) (*Shape, error) {
	var shape *Shape
	if weights == nil {
		shape = model.MeanShape()
	} else {
		var err error
		if shape, err = model.Reconstruct(weights); err != nil {
			return nil, err
		}
	}
	shape.MoveToOrigin()
	shape.Rotate(placement.Rotation)
	if err := shape.Scale(placement.Scale); err != nil {
		return nil, errors.Wrap(err, "invalid placement")
	}
	shape.Translate(placement.Center)
	return shape, nil
}
