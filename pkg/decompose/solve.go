package decompose

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Solver solves data rows against one compiled matrix and weight vector.
// The weighted matrix is factorized once; Solve does not modify the Solver.
type Solver struct {
	matrix  *mat.Dense
	weights []float64
	svd     *mat.SVD
	rank    int
}

// NewSolver factorizes the weighted form of matrix.
func NewSolver(matrix *mat.Dense, weights []float64) (*Solver, error) {
	rows, _ := matrix.Dims()
	if len(weights) != rows {
		return nil, fmt.Errorf("%w: %d weights for %d peaks", ErrDimensionMismatch, len(weights), rows)
	}

	svd, rank, err := factorize(weightRows(matrix, weights))
	if err != nil {
		return nil, err
	}

	return &Solver{
		matrix:  matrix,
		weights: append([]float64(nil), weights...),
		svd:     svd,
		rank:    rank,
	}, nil
}

// Solve returns the weighted least-squares abundances for observed and the
// residuals observed - matrix*abundances, computed with the unweighted
// matrix. NaN inputs propagate to NaN outputs.
func (s *Solver) Solve(observed []float64) (abundances, residuals []float64, err error) {
	rows, cols := s.matrix.Dims()
	if len(observed) != rows {
		return nil, nil, fmt.Errorf("%w: %d values for %d peaks", ErrDimensionMismatch, len(observed), rows)
	}

	wb := mat.NewVecDense(rows, nil)
	for i, v := range observed {
		wb.SetVec(i, v*s.weights[i])
	}

	// All-zero weights leave nothing to fit.
	x := mat.NewVecDense(cols, nil)
	if s.rank > 0 {
		s.svd.SolveVecTo(x, wb, s.rank)
	}

	var fitted mat.VecDense
	fitted.MulVec(s.matrix, x)

	abundances = make([]float64, cols)
	for j := range abundances {
		abundances[j] = x.AtVec(j)
	}
	residuals = make([]float64, rows)
	for i, v := range observed {
		residuals[i] = v - fitted.AtVec(i)
	}

	return abundances, residuals, nil
}

// Solve is a one-shot NewSolver(matrix, weights).Solve(observed).
func Solve(matrix *mat.Dense, weights, observed []float64) (abundances, residuals []float64, err error) {
	s, err := NewSolver(matrix, weights)
	if err != nil {
		return nil, nil, err
	}
	return s.Solve(observed)
}
