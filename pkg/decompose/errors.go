package decompose

import "errors"

var (
	// ErrEmptyModel is returned when a model defines no molecules.
	ErrEmptyModel = errors.New("model has no molecules")
	// ErrEmptyHeader is returned when the header has no peak columns.
	ErrEmptyHeader = errors.New("header has no peak columns")
	// ErrUnknownPeak is returned when a molecule references a peak missing from the header.
	ErrUnknownPeak = errors.New("peak not found in header")
	// ErrAmbiguousModel is returned when the contribution matrix rank is below the molecule count.
	ErrAmbiguousModel = errors.New("rank of matrix is less than the number of molecules, model is ambiguous")
	// ErrDimensionMismatch is returned when vector lengths disagree with the matrix.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrFactorization is returned when the SVD fails to converge.
	ErrFactorization = errors.New("singular value decomposition failed")
)
