// Package tsv writes decomposition results as tab-separated text.
package tsv

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"
)

// Writer writes tab-separated lines with a configurable decimal separator.
type Writer struct {
	w   *bufio.Writer
	sep byte
}

// NewWriter creates a writer using sep ('.' or ',') in written numbers.
func NewWriter(w io.Writer, sep byte) *Writer {
	if sep == 0 {
		sep = '.'
	}
	return &Writer{w: bufio.NewWriter(w), sep: sep}
}

// WriteHeader writes one line holding all column groups in order.
func (w *Writer) WriteHeader(groups ...[]string) error {
	var cols []string
	for _, g := range groups {
		cols = append(cols, g...)
	}
	return w.writeLine(cols)
}

// WriteRow writes one line holding all value groups in order.
func (w *Writer) WriteRow(groups ...[]float64) error {
	var cols []string
	for _, g := range groups {
		for _, v := range g {
			cols = append(cols, FormatValue(v, w.sep))
		}
	}
	return w.writeLine(cols)
}

func (w *Writer) writeLine(cols []string) error {
	if _, err := w.w.WriteString(strings.Join(cols, "\t")); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// FormatValue formats v with the shortest representation that parses back
// to the same float64, switching to exponent notation for very small or
// very large magnitudes.
func FormatValue(v float64, sep byte) string {
	format := byte('f')
	if abs := math.Abs(v); abs != 0 && !math.IsInf(v, 0) && (abs < 1e-4 || abs >= 1e16) {
		format = 'e'
	}
	s := strconv.FormatFloat(v, format, -1, 64)
	if sep != '.' {
		s = strings.Replace(s, ".", string(sep), 1)
	}
	return s
}
