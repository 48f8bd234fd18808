// Package diag writes the human-readable matrix diagnostics that accompany
// each processed file.
package diag

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/ChrisMcGann/MassDecomposer/pkg/core"
)

// WriteReport writes the model, weight vector, condition number, contribution
// matrix and pseudo-inverse of run. The format is meant for reading, not
// parsing.
func WriteReport(w io.Writer, run *core.Run, matrix, inverse mat.Matrix) error {
	bw := bufio.NewWriter(w)

	model, err := yaml.Marshal(run.Model)
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}

	fmt.Fprintf(bw, "source = %s\n", run.SourceFile)
	fmt.Fprintln(bw, "model")
	bw.Write(model)
	fmt.Fprintln(bw, "weights")
	fmt.Fprintln(bw, strings.Join(run.Peaks, "\t"))
	writeFloats(bw, run.Weights)
	fmt.Fprintf(bw, "rank = %d\n", run.Rank)
	fmt.Fprintf(bw, "condition value = %g\n", run.Condition)
	fmt.Fprintln(bw, "matrix")
	writeMatrix(bw, matrix)
	fmt.Fprintln(bw, "inverse matrix")
	writeMatrix(bw, inverse)

	return bw.Flush()
}

func writeMatrix(w *bufio.Writer, m mat.Matrix) {
	rows, cols := m.Dims()
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		for j := range row {
			row[j] = m.At(i, j)
		}
		writeFloats(w, row)
	}
}

func writeFloats(w *bufio.Writer, vals []float64) {
	for j, v := range vals {
		if j > 0 {
			w.WriteByte('\t')
		}
		w.WriteString(strconv.FormatFloat(v, 'e', 18, 64))
	}
	w.WriteByte('\n')
}
