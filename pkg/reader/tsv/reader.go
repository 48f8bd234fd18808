// Package tsv provides a streaming reader for tab-separated peak intensity
// tables.
//
// Lines with fewer than MinFields tokens are treated as blank or comment lines
// and never surface as records. The first remaining line whose first token is
// not a number is the header; every later line is a data row.
package tsv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// MinFields is the smallest token count of a header or data line.
const MinFields = 4

const maxLineSize = 16 * 1024 * 1024

// Kind classifies a record.
type Kind int

const (
	// KindHeader is the peak header line.
	KindHeader Kind = iota
	// KindData is a data row with at least as many tokens as the header.
	KindData
	// KindShort is a data row with fewer tokens than the header.
	KindShort
)

func (k Kind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindData:
		return "data"
	case KindShort:
		return "short"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Record is one qualifying line of the input.
type Record struct {
	Line   int // 1-based line number
	Kind   Kind
	Fields []string

	// Data rows only: values aligned to the header, NaN where a token did not
	// parse, and the indexes of those tokens.
	Values  []float64
	Missing []int
}

// Reader provides streaming access to tab-separated peak tables.
type Reader struct {
	scanner *bufio.Scanner
	lineNum int
	header  []string
	current *Record
	err     error
}

// NewReader creates a new tab-separated reader.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return &Reader{scanner: scanner}
}

// Next advances to the next record. Returns false when no more records or error.
func (r *Reader) Next() bool {
	r.current = nil

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimRight(r.scanner.Text(), "\r")
		fields := strings.Split(line, "\t")
		if len(fields) < MinFields {
			continue
		}

		if r.header == nil {
			if _, ok := ParseValue(fields[0]); ok {
				// data before the header
				continue
			}
			r.header = fields
			r.current = &Record{Line: r.lineNum, Kind: KindHeader, Fields: fields}
			return true
		}

		if len(fields) < len(r.header) {
			r.current = &Record{Line: r.lineNum, Kind: KindShort, Fields: fields}
			return true
		}

		r.current = r.parseRow(fields)
		return true
	}

	if err := r.scanner.Err(); err != nil {
		r.err = fmt.Errorf("line %d: %w", r.lineNum+1, err)
	}
	return false
}

// parseRow converts the first len(header) tokens of a data line.
func (r *Reader) parseRow(fields []string) *Record {
	rec := &Record{
		Line:   r.lineNum,
		Kind:   KindData,
		Fields: fields,
		Values: make([]float64, len(r.header)),
	}
	for i := range r.header {
		v, ok := ParseValue(fields[i])
		if !ok {
			v = math.NaN()
			rec.Missing = append(rec.Missing, i)
		}
		rec.Values[i] = v
	}
	return rec
}

// Record returns the current record.
func (r *Reader) Record() *Record {
	return r.current
}

// Header returns the detected header, or nil before it has been read.
func (r *Reader) Header() []string {
	return r.header
}

// Err returns any error encountered during reading.
func (r *Reader) Err() error {
	return r.err
}

// ParseValue parses a number written with either '.' or ',' as decimal
// separator. ok is false when tok is not a number.
func ParseValue(tok string) (float64, bool) {
	tok = strings.ReplaceAll(strings.TrimSpace(tok), ",", ".")
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		// overflow still yields a usable ±Inf
		if errors.Is(err, strconv.ErrRange) {
			return v, true
		}
		return 0, false
	}
	return v, true
}

// ReadHeader scans r up to and including the header line.
func ReadHeader(r io.Reader) ([]string, int, error) {
	reader := NewReader(r)
	for reader.Next() {
		if rec := reader.Record(); rec.Kind == KindHeader {
			return rec.Fields, rec.Line, nil
		}
	}
	if err := reader.Err(); err != nil {
		return nil, 0, err
	}
	return nil, 0, ErrNoHeader
}
