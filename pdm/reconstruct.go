package pdm

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Reconstruct returns mean + eigenvectors*weights.
// eigenvectors is a 2L x t matrix (one mode per column), mean has length 2L and weights has length t.
// The result is an interleaved landmark vector; see NewShapeFromFlat
func Reconstruct(weights []float64, eigenvectors mat.Matrix, mean []float64) ([]float64, error) {
	if eigenvectors == nil {
		return nil, errors.New("eigenvectors must not be nil")
	}
	rows, cols := eigenvectors.Dims()
	if len(mean) != rows {
		return nil, errors.Errorf("mean has length %d, eigenvectors have %d rows", len(mean), rows)
	}
	if len(weights) != cols {
		return nil, errors.Errorf("got %d weights for %d modes", len(weights), cols)
	}
	out := make([]float64, rows)
	copy(out, mean)
	if cols == 0 {
		return out, nil
	}
	var deviation mat.VecDense
	deviation.MulVec(eigenvectors, mat.NewVecDense(cols, weights))
	for i := range out {
		out[i] += deviation.AtVec(i)
	}
	return out, nil
}

// project returns eigenvectorsᵀ*(vec - mean)
func project(vec []float64, eigenvectors mat.Matrix, mean []float64) ([]float64, error) {
	rows, cols := eigenvectors.Dims()
	if len(vec) != rows || len(mean) != rows {
		return nil, errors.Errorf("vector has length %d, mean %d, eigenvectors have %d rows", len(vec), len(mean), rows)
	}
	diff := make([]float64, rows)
	for i := range diff {
		diff[i] = vec[i] - mean[i]
	}
	var weights mat.VecDense
	weights.MulVec(eigenvectors.T(), mat.NewVecDense(rows, diff))
	out := make([]float64, cols)
	for i := range out {
		out[i] = weights.AtVec(i)
	}
	return out, nil
}
