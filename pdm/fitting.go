package pdm

import (
	"context"

	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/pkg/errors"
)

// Proposer suggests landmark positions from image evidence around the current instance.
// Returned shape must have the same number of landmarks as instance
type Proposer interface {
	Propose(ctx context.Context, instance *Shape) (*Shape, error)
}

// ProposerFunc is an adapter to use ordinary functions as Proposer
type ProposerFunc func(ctx context.Context, instance *Shape) (*Shape, error)

// Propose calls f(ctx, instance)
func (f ProposerFunc) Propose(ctx context.Context, instance *Shape) (*Shape, error) {
	return f(ctx, instance)
}

// FitterOptions configures the fitting loop
type FitterOptions struct {
	// Max number of propose-align-project rounds. Default 50
	MaxIterations int
	// Fitting stops once mean landmark displacement between rounds is not greater than this. Default 1e-3
	Tolerance float64
	// Mode weights are clamped to ±ModeLimit standard deviations. Default 3
	ModeLimit float64
	// Smooth instance center across rounds via Kalman filter
	Smooth bool
	// Kalman filter props: time step, acceleration std. dev. and measurement std. dev.
	Dt      float64
	StdDevA float64
	StdDevM float64
}

// DefaultFitterOptions returns default fitting options (no smoothing)
func DefaultFitterOptions() FitterOptions {
	return FitterOptions{
		MaxIterations: 50,
		Tolerance:     1e-3,
		ModeLimit:     3.0,
		Smooth:        false,
		Dt:            1.0,
		StdDevA:       2.0,
		StdDevM:       0.1,
	}
}

// FitResult is the outcome of a single Fit call
type FitResult struct {
	// Fitted instance in image frame
	Shape *Shape
	// Mode weights of the fitted instance
	Weights []float64
	// Number of rounds performed
	Iterations int
	// Whether displacement dropped to tolerance before MaxIterations
	Converged bool
	// Mean landmark displacement of the last round
	Displacement float64
}

// Fitter matches a Model to image evidence supplied by a Proposer.
// Fitter has no mutable state, so it is safe for concurrent use as long as its Proposer is
type Fitter struct {
	model    *Model
	proposer Proposer
	opts     FitterOptions
}

// NewFitter creates new instance of Fitter
func NewFitter(model *Model, proposer Proposer, opts FitterOptions) (*Fitter, error) {
	if model == nil {
		return nil, errors.New("model must not be nil")
	}
	if proposer == nil {
		return nil, errors.New("proposer must not be nil")
	}
	if opts.MaxIterations <= 0 {
		return nil, errors.Errorf("max iterations must be positive, got %d", opts.MaxIterations)
	}
	if opts.Tolerance < 0 {
		return nil, errors.Errorf("tolerance must not be negative, got %f", opts.Tolerance)
	}
	if opts.Smooth && opts.Dt <= 0 {
		return nil, errors.Errorf("time step must be positive, got %f", opts.Dt)
	}
	return &Fitter{
		model:    model,
		proposer: proposer,
		opts:     opts,
	}, nil
}

// Fit starts from the mean shape at placement and iterates:
// propose landmarks -> align them into model frame -> project and clamp -> reconstruct -> pose back onto proposal
func (f *Fitter) Fit(ctx context.Context, placement Placement) (*FitResult, error) {
	instance, err := f.model.Place(nil, placement)
	if err != nil {
		return nil, err
	}

	var kf *kalman_filter.Kalman2D
	if f.opts.Smooth {
		center := instance.GetCenter()
		// No control input: a proposal has no expected acceleration
		kf = kalman_filter.NewKalman2D(f.opts.Dt, 0.0, 0.0, f.opts.StdDevA, f.opts.StdDevM, f.opts.StdDevM, kalman_filter.WithState2D(center.X, center.Y))
	}

	result := &FitResult{}
	for iter := 1; iter <= f.opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		candidate, err := f.proposer.Propose(ctx, instance.Clone())
		if err != nil {
			return nil, errors.Wrapf(err, "can't propose landmarks on iteration %d", iter)
		}
		if candidate == nil || candidate.Len() != instance.Len() {
			got := 0
			if candidate != nil {
				got = candidate.Len()
			}
			return nil, errors.Wrapf(ErrShapeCardinalityMismatch, "proposer returned %d landmarks, model has %d", got, instance.Len())
		}

		local, _, err := AlignShapeToReference(candidate.Clone(), f.model.MeanShape())
		if err != nil {
			return nil, errors.Wrapf(err, "can't align proposal into model frame on iteration %d", iter)
		}
		weights, err := f.model.Project(local)
		if err != nil {
			return nil, err
		}
		f.model.ClampWeights(weights, f.opts.ModeLimit)
		next, err := f.model.Reconstruct(weights)
		if err != nil {
			return nil, err
		}
		if _, _, err := AlignShapeToReference(next, candidate.Clone()); err != nil {
			return nil, errors.Wrapf(err, "can't pose model instance on iteration %d", iter)
		}

		if kf != nil {
			if err := smoothCenter(kf, next); err != nil {
				return nil, errors.Wrapf(err, "can't smooth instance center on iteration %d", iter)
			}
		}

		displacement, err := MeanLandmarkDistance(next, instance)
		if err != nil {
			return nil, err
		}
		instance = next
		result.Shape = instance
		result.Weights = weights
		result.Iterations = iter
		result.Displacement = displacement
		pkgLogger().Debug("fitting iteration", "model", f.model.id, "iteration", iter, "displacement", displacement)
		if displacement <= f.opts.Tolerance {
			result.Converged = true
			break
		}
	}
	return result, nil
}

// smoothCenter executes both Kalman filter steps for shape's center and moves shape to the filtered center
func smoothCenter(kf *kalman_filter.Kalman2D, shape *Shape) error {
	kf.Predict()
	center := shape.GetCenter()
	if err := kf.Update(center.X, center.Y); err != nil {
		return err
	}
	stateX, stateY := kf.GetState()
	shape.Translate(Point{X: stateX - center.X, Y: stateY - center.Y})
	return nil
}
