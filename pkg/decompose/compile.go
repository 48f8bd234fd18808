package decompose

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/ChrisMcGann/MassDecomposer/pkg/core"
)

// Compiled is a molecule model bound to one file header.
//
//	m29       ## ## ##        NO
//	m30   =   ## ## ##   *    CO
//	m31       ## ## ##        N2O
//	...
type Compiled struct {
	Matrix        *mat.Dense     // rows = header peaks, cols = molecules
	Peaks         []string       // header order
	Molecules     []string       // model order
	PeakIndex     map[string]int // first occurrence wins
	MoleculeIndex map[string]int
	Used          []bool // peak row has at least one nonzero contribution
	Rank          int
	Duplicates    []string // header names that occur more than once
}

// Compile builds the contribution matrix of model against header. It fails
// with ErrUnknownPeak when a molecule references a peak that the header lacks
// and with ErrAmbiguousModel when the matrix rank is below the molecule count.
func Compile(model *core.Model, header []string) (*Compiled, error) {
	if model == nil || len(model.Molecules) == 0 {
		return nil, ErrEmptyModel
	}
	if len(header) == 0 {
		return nil, ErrEmptyHeader
	}

	c := &Compiled{
		Matrix:        mat.NewDense(len(header), len(model.Molecules), nil),
		Peaks:         append([]string(nil), header...),
		Molecules:     model.MoleculeNames(),
		PeakIndex:     make(map[string]int, len(header)),
		MoleculeIndex: make(map[string]int, len(model.Molecules)),
		Used:          make([]bool, len(header)),
	}

	for i, peak := range header {
		if _, ok := c.PeakIndex[peak]; ok {
			c.Duplicates = append(c.Duplicates, peak)
			continue
		}
		c.PeakIndex[peak] = i
	}
	for j, name := range c.Molecules {
		c.MoleculeIndex[name] = j
	}

	var missing []string
	for _, molec := range model.Molecules {
		j := c.MoleculeIndex[molec.Name]
		for _, peak := range molec.PeakNames() {
			i, ok := c.PeakIndex[peak]
			if !ok {
				missing = append(missing, fmt.Sprintf("%s (molecule %s)", peak, molec.Name))
				continue
			}
			frac := molec.Peaks[peak]
			c.Matrix.Set(i, j, frac)
			if frac != 0 {
				c.Used[i] = true
			}
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPeak, strings.Join(missing, ", "))
	}

	rank, err := matrixRank(c.Matrix)
	if err != nil {
		return nil, err
	}
	c.Rank = rank
	if rank < len(c.Molecules) {
		return nil, fmt.Errorf("%w (rank %d, %d molecules)", ErrAmbiguousModel, rank, len(c.Molecules))
	}

	return c, nil
}

// UsedCount returns the number of peaks with a nonzero contribution.
func (c *Compiled) UsedCount() int {
	n := 0
	for _, used := range c.Used {
		if used {
			n++
		}
	}
	return n
}

// UsedPeaks returns the names of used peaks in header order.
func (c *Compiled) UsedPeaks() []string {
	peaks := make([]string, 0, len(c.Peaks))
	for i, peak := range c.Peaks {
		if c.Used[i] {
			peaks = append(peaks, peak)
		}
	}
	return peaks
}

// UsedValues filters a per-peak vector down to the used peaks.
func (c *Compiled) UsedValues(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for i, v := range vals {
		if i < len(c.Used) && c.Used[i] {
			out = append(out, v)
		}
	}
	return out
}
