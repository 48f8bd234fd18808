// Package cmd provides CLI command implementations
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/MassDecomposer/pkg/process"
)

var (
	// Global flags
	logLevel string
	logJSON  bool

	// Flags shared by decompose and validate
	modelFile   string
	weightsFile string
	condWarn    float64

	// Flags for decompose command
	outputFile       string
	decimalSeparator string
	noDiagnostics    bool
	dbFile           string
	timeout          time.Duration
	keepGoing        bool
)

var rootCmd = &cobra.Command{
	Use:   "massdecomp",
	Short: "massdecomp - isotopologue mass spectrum decomposition tool",
	Long: `massdecomp decomposes tabulated mass spectrometry peak intensities into
abundances of a known set of molecules using a user-defined linear model.

Each input is a tab-separated table whose header names the peak columns.
Every data row is solved by weighted least squares and written back with the
molecule abundances and the residual of every peak the model uses.

The model is read from --model, from massdecomp.yaml next to the first input
file, or falls back to the built-in NO/CO/N2O/N2/CO2 model.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(decomposeCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(initCmd)

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON instead of console text")

	for _, c := range []*cobra.Command{decomposeCmd, validateCmd} {
		c.Flags().StringVarP(&modelFile, "model", "m", "", "Model definition YAML (default: massdecomp.yaml in the data directory, else built-in)")
		c.Flags().StringVarP(&weightsFile, "weights", "w", "", "CSV file of peak weight overrides (peak,weight)")
		c.Flags().Float64Var(&condWarn, "cond-warn", process.DefaultConditionWarn, "Warn when the matrix condition number exceeds this value")
	}

	// Decompose command flags
	decomposeCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output file (single input only; default <input>_proc<ext>)")
	decomposeCmd.Flags().StringVar(&decimalSeparator, "decimal-separator", "", "Decimal separator for written numbers: '.' or ',' (default from model)")
	decomposeCmd.Flags().BoolVar(&noDiagnostics, "no-diagnostics", false, "Do not write the <output>_matrix diagnostics file")
	decomposeCmd.Flags().StringVar(&dbFile, "db", "", "Also store results in this SQLite database")
	decomposeCmd.Flags().DurationVar(&timeout, "timeout", 0, "Overall processing time budget (0 = no limit)")
	decomposeCmd.Flags().BoolVar(&keepGoing, "keep-going", false, "Continue with the next file after a failed file")
}

func setupLogging(cmd *cobra.Command, args []string) error {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level '%s': %w", logLevel, err)
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if logJSON {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return nil
}
