// Package decompose maps tabulated peak intensities onto molecule abundances
// through a linear contribution model.
//
// A model is compiled once per detected header into a peaks x molecules
// contribution matrix (Compile). Per-peak weights scale the equations before
// solving (MakeWeights). Analyze reports the condition number and a
// pseudo-inverse of the weighted matrix for diagnostics, and Solver solves
// each data row by SVD-based weighted least squares, reporting residuals
// against the unweighted model.
package decompose
