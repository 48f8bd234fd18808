// Package process streams peak tables through the decomposition engine.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ChrisMcGann/MassDecomposer/pkg/core"
	"github.com/ChrisMcGann/MassDecomposer/pkg/decompose"
	"github.com/ChrisMcGann/MassDecomposer/pkg/reader/tsv"
	"github.com/ChrisMcGann/MassDecomposer/pkg/writer/diag"
	tsvwriter "github.com/ChrisMcGann/MassDecomposer/pkg/writer/tsv"
)

// DefaultConditionWarn is the condition number above which a warning is logged.
const DefaultConditionWarn = 1e4

// ResidualPrefix prefixes residual column names in the output header.
const ResidualPrefix = "rd"

// ResultStore receives every processed run, e.g. a SQLite database.
type ResultStore interface {
	BeginRun(run *core.Run) error
	WriteResult(res *core.Result) error
	EndRun(runErr error) error
}

// Options holds processing configuration
type Options struct {
	ConditionWarn float64     // warn when the condition number exceeds this (0 = DefaultConditionWarn)
	Diagnostics   bool        // write the <out>_matrix diagnostics file
	Store         ResultStore // optional
}

// ConfigError marks a model that cannot be applied to a file. Processing of
// that file is aborted.
type ConfigError struct {
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: model configuration error: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Summary reports what happened to one input.
type Summary struct {
	Source        string
	HeaderLine    int
	Rows          int // rows solved and written
	Skipped       int // rows with fewer tokens than the header
	InvalidValues int // tokens that did not parse
	Rank          int
	WeightedRank  int
	Condition     float64
	Unmatched     []string // weight overrides naming no header column
}

// Processor decomposes peak tables with one model.
type Processor struct {
	model *core.Model
	opts  Options
	log   zerolog.Logger
	now   func() time.Time
}

// New creates a processor. The model must already be validated.
func New(model *core.Model, logger zerolog.Logger, opts Options) *Processor {
	if opts.ConditionWarn <= 0 {
		opts.ConditionWarn = DefaultConditionWarn
	}
	return &Processor{
		model: model,
		opts:  opts,
		log:   logger,
		now:   time.Now,
	}
}

// setup is the per-file state built when the header is found.
type setup struct {
	run      *core.Run
	compiled *decompose.Compiled
	analysis *decompose.Analysis
	solver   *decompose.Solver
}

// prepare compiles the model against header and analyzes the matrix.
func (p *Processor) prepare(source string, header []string, sum *Summary) (*setup, error) {
	compiled, err := decompose.Compile(p.model, header)
	if err != nil {
		return nil, &ConfigError{Source: source, Err: err}
	}

	logger := p.log.With().Str("file", source).Logger()
	logger.Info().
		Int("molecules", len(compiled.Molecules)).
		Int("used_peaks", compiled.UsedCount()).
		Int("rank", compiled.Rank).
		Msgf("computing %d values from %d values with a matrix of rank %d",
			len(compiled.Molecules), compiled.UsedCount(), compiled.Rank)
	for _, dup := range compiled.Duplicates {
		logger.Warn().Str("peak", dup).Msg("duplicate header column, first occurrence is used")
	}

	weights, unmatched := decompose.MakeWeights(header, p.model.Weights)
	for _, peak := range unmatched {
		logger.Warn().Str("peak", peak).Msg("weight override does not match any header column")
	}
	sum.Unmatched = unmatched

	analysis, err := decompose.Analyze(compiled.Matrix, weights)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to analyze matrix: %w", source, err)
	}
	ev := logger.Info()
	if analysis.Condition > p.opts.ConditionWarn {
		ev = logger.Warn()
	}
	ev.Float64("condition", analysis.Condition).Msg("matrix condition value (more is worse)")
	if analysis.Rank < len(compiled.Molecules) {
		logger.Warn().
			Int("weighted_rank", analysis.Rank).
			Int("molecules", len(compiled.Molecules)).
			Msg("weights make the matrix rank-deficient, abundances are a minimum-norm guess, not unique")
	}
	sum.WeightedRank = analysis.Rank

	solver, err := decompose.NewSolver(compiled.Matrix, weights)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	sum.Rank = compiled.Rank
	sum.Condition = analysis.Condition

	return &setup{
		run: &core.Run{
			SourceFile: source,
			Created:    p.now(),
			Model:      p.model,
			Peaks:      compiled.Peaks,
			Weights:    weights,
			UsedPeaks:  compiled.UsedPeaks(),
			Rank:       compiled.Rank,
			Condition:  analysis.Condition,
		},
		compiled: compiled,
		analysis: analysis,
		solver:   solver,
	}, nil
}

// Process reads a peak table from in and writes the decomposed table to out.
// When diagOut is non-nil the matrix diagnostics are written to it once the
// header has been compiled. Configuration errors are returned as *ConfigError.
func (p *Processor) Process(ctx context.Context, source string, in io.Reader, out, diagOut io.Writer) (*Summary, error) {
	return p.process(ctx, source, in, out, diagOut, nil)
}

// process is Process with a hook run after the output is complete and before
// the store commits the run; an error from commit rolls the run back.
func (p *Processor) process(ctx context.Context, source string, in io.Reader, out, diagOut io.Writer,
	commit func(*Summary) error) (sum *Summary, err error) {
	sum = &Summary{Source: source}
	logger := p.log.With().Str("file", source).Logger()

	reader := tsv.NewReader(in)
	writer := tsvwriter.NewWriter(out, p.model.Separator())

	var st *setup
	defer func() {
		if st != nil && p.opts.Store != nil {
			if endErr := p.opts.Store.EndRun(err); endErr != nil && err == nil {
				err = endErr
			}
		}
	}()

	for reader.Next() {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("%s: %w", source, err)
		}

		rec := reader.Record()
		switch rec.Kind {
		case tsv.KindHeader:
			logger.Info().Int("line", rec.Line).Msg("header found")
			sum.HeaderLine = rec.Line

			st, err = p.prepare(source, rec.Fields, sum)
			if err != nil {
				return sum, err
			}
			if diagOut != nil {
				if err := diag.WriteReport(diagOut, st.run, st.compiled.Matrix, st.analysis.PseudoInverse); err != nil {
					return sum, fmt.Errorf("%s: failed to write diagnostics: %w", source, err)
				}
			}
			if p.opts.Store != nil {
				if err := p.opts.Store.BeginRun(st.run); err != nil {
					// nothing to end
					st = nil
					return sum, fmt.Errorf("%s: %w", source, err)
				}
			}
			residualCols := make([]string, len(st.run.UsedPeaks))
			for i, peak := range st.run.UsedPeaks {
				residualCols[i] = ResidualPrefix + peak
			}
			if err := writer.WriteHeader(rec.Fields, st.compiled.Molecules, residualCols); err != nil {
				return sum, fmt.Errorf("%s: failed to write output: %w", source, err)
			}

		case tsv.KindShort:
			logger.Warn().Int("line", rec.Line).Int("values", len(rec.Fields)).
				Int("expected", len(st.run.Peaks)).Msg("line has too few values, skipped")
			sum.Skipped++

		case tsv.KindData:
			res, err := p.solveRow(st, rec)
			if err != nil {
				return sum, fmt.Errorf("%s: line %d: %w", source, rec.Line, err)
			}
			if len(res.Missing) > 0 {
				logger.Warn().Int("line", rec.Line).Strs("peaks", res.Missing).
					Msg("unparseable values, results for this line are NaN")
				sum.InvalidValues += len(res.Missing)
			}
			if err := writer.WriteRow(res.Observed, res.Abundances, res.Residuals); err != nil {
				return sum, fmt.Errorf("%s: failed to write output: %w", source, err)
			}
			if p.opts.Store != nil {
				if err := p.opts.Store.WriteResult(res); err != nil {
					return sum, fmt.Errorf("%s: %w", source, err)
				}
			}
			sum.Rows++
		}
	}

	if err := reader.Err(); err != nil {
		return sum, fmt.Errorf("%s: error reading input: %w", source, err)
	}
	if st == nil {
		return sum, fmt.Errorf("%s: %w", source, tsv.ErrNoHeader)
	}
	if err := writer.Flush(); err != nil {
		return sum, fmt.Errorf("%s: failed to write output: %w", source, err)
	}
	if commit != nil {
		if err := commit(sum); err != nil {
			return sum, err
		}
	}

	return sum, nil
}

func (p *Processor) solveRow(st *setup, rec *tsv.Record) (*core.Result, error) {
	abundances, residuals, err := st.solver.Solve(rec.Values)
	if err != nil {
		return nil, err
	}

	res := &core.Result{
		Line:       rec.Line,
		Observed:   rec.Values,
		Abundances: abundances,
		Residuals:  st.compiled.UsedValues(residuals),
	}
	for _, i := range rec.Missing {
		res.Missing = append(res.Missing, st.run.Peaks[i])
	}
	return res, nil
}

// Check compiles and analyzes the model against the header of in without
// solving any rows.
func (p *Processor) Check(source string, in io.Reader) (*Summary, error) {
	sum := &Summary{Source: source}

	header, line, err := tsv.ReadHeader(in)
	if err != nil {
		return sum, fmt.Errorf("%s: %w", source, err)
	}
	sum.HeaderLine = line
	p.log.Info().Str("file", source).Int("line", line).Msg("header found")

	if _, err := p.prepare(source, header, sum); err != nil {
		return sum, err
	}
	return sum, nil
}

// ProcessFile processes inPath into outPath. Output files are only written
// when the whole input was processed; the diagnostics file goes next to
// outPath with a "_matrix" suffix. The store run is committed only after
// both files were written.
func (p *Processor) ProcessFile(ctx context.Context, inPath, outPath string) (*Summary, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer in.Close()

	p.log.Info().Str("file", inPath).Msg("reading")

	var out, diagBuf bytes.Buffer
	var diagOut io.Writer
	if p.opts.Diagnostics {
		diagOut = &diagBuf
	}

	return p.process(ctx, inPath, in, &out, diagOut, func(sum *Summary) error {
		p.log.Info().Str("file", outPath).Int("rows", sum.Rows).Msg("writing")
		if err := os.WriteFile(outPath, out.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if p.opts.Diagnostics {
			diagPath := core.AppendToFileName(outPath, "_matrix")
			if err := os.WriteFile(diagPath, diagBuf.Bytes(), 0644); err != nil {
				return fmt.Errorf("failed to write diagnostics file: %w", err)
			}
		}
		return nil
	})
}

// IsConfigError reports whether err is a model configuration error.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}
