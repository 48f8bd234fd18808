package decompose

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// rcond returns the relative singular value cutoff for an r x c matrix,
// eps * max(r, c).
func rcond(a mat.Matrix) float64 {
	r, c := a.Dims()
	eps := math.Nextafter(1, 2) - 1
	return eps * float64(max(r, c))
}

func factorize(a mat.Matrix) (*mat.SVD, int, error) {
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil, 0, ErrFactorization
	}
	return &svd, svd.Rank(rcond(a)), nil
}

func matrixRank(a mat.Matrix) (int, error) {
	_, rank, err := factorize(a)
	return rank, err
}

// weightRows returns a copy of a with row i scaled by w[i].
func weightRows(a mat.Matrix, w []float64) *mat.Dense {
	var wa mat.Dense
	wa.Apply(func(i, _ int, v float64) float64 {
		return v * w[i]
	}, a)
	return &wa
}
