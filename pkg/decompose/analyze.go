package decompose

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Analysis holds diagnostics of a weighted contribution matrix.
type Analysis struct {
	// PseudoInverse solves weighted*X = diag(weights); molecules x peaks.
	PseudoInverse  *mat.Dense
	Condition      float64
	SingularValues []float64
	Rank           int
}

// Analyze reports the condition number of the weighted matrix and its
// least-squares pseudo-inverse. The result is diagnostic only.
func Analyze(a mat.Matrix, weights []float64) (*Analysis, error) {
	rows, cols := a.Dims()
	if len(weights) != rows {
		return nil, fmt.Errorf("%w: %d weights for %d peaks", ErrDimensionMismatch, len(weights), rows)
	}

	wa := weightRows(a, weights)
	svd, rank, err := factorize(wa)
	if err != nil {
		return nil, err
	}

	inv := mat.NewDense(cols, rows, nil)
	if rank > 0 {
		wIdent := mat.NewDiagDense(rows, append([]float64(nil), weights...))
		svd.SolveTo(inv, wIdent, rank)
	}

	values := svd.Values(nil)
	cond := math.Inf(1)
	if last := values[len(values)-1]; last != 0 {
		cond = values[0] / last
	}

	return &Analysis{
		PseudoInverse:  inv,
		Condition:      cond,
		SingularValues: values,
		Rank:           rank,
	}, nil
}
