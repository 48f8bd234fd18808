package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/MassDecomposer/pkg/core"
	"github.com/ChrisMcGann/MassDecomposer/pkg/process"
	"github.com/ChrisMcGann/MassDecomposer/pkg/writer/sqlite"
)

var decomposeCmd = &cobra.Command{
	Use:   "decompose [files...]",
	Short: "Decompose peak tables into molecule abundances",
	Long: `Decompose tab-separated peak intensity tables into molecule abundances.

Each input produces <input>_proc<ext> holding the observed columns, one column
per molecule and one rd<peak> residual column per peak used by the model, plus
a <output>_matrix<ext> diagnostics file.

Examples:
  # Decompose with massdecomp.yaml from the data directory
  massdecomp decompose data/run1.txt data/run2.txt

  # Explicit model, down-weighted peaks and comma decimal separator
  massdecomp decompose --model co2.yaml --weights weights.csv --decimal-separator , run1.txt

  # Also collect every result in a SQLite database
  massdecomp decompose --db results.db data/*.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecompose,
}

func runDecompose(cmd *cobra.Command, args []string) error {
	if outputFile != "" && len(args) > 1 {
		return fmt.Errorf("--out can only be used with a single input file")
	}

	// Validate input files exist
	for _, in := range args {
		if _, err := os.Stat(in); os.IsNotExist(err) {
			return fmt.Errorf("input file does not exist: %s", in)
		}
	}

	model, err := loadModel(args[0])
	if err != nil {
		return err
	}

	opts := process.Options{
		ConditionWarn: condWarn,
		Diagnostics:   !noDiagnostics,
	}

	if dbFile != "" {
		writer, err := sqlite.NewWriter(dbFile)
		if err != nil {
			return fmt.Errorf("failed to create results database: %w", err)
		}
		defer writer.Close()
		opts.Store = writer
	}

	ctx := cmd.Context()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	p := process.New(model, log.Logger, opts)

	failed := 0
	rows := 0
	for _, in := range args {
		out := outputFile
		if out == "" {
			out = core.AppendToFileName(in, "_proc")
		}

		sum, err := p.ProcessFile(ctx, in, out)
		if err != nil {
			if !keepGoing || ctx.Err() != nil {
				return err
			}
			if process.IsConfigError(err) {
				log.Error().Err(err).Str("file", in).Msg("model configuration error, file skipped")
			} else {
				log.Error().Err(err).Str("file", in).Msg("file failed")
			}
			failed++
			continue
		}

		rows += sum.Rows
		fmt.Printf("%s -> %s: %d rows", in, out, sum.Rows)
		if sum.Skipped > 0 {
			fmt.Printf(", %d skipped", sum.Skipped)
		}
		fmt.Println()
	}

	fmt.Printf("\nDecomposition complete!\n")
	fmt.Printf("Processed: %d files, %d rows\n", len(args)-failed, rows)
	if dbFile != "" {
		fmt.Printf("Database: %s\n", dbFile)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}

	return nil
}
