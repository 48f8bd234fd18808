package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/MassDecomposer/pkg/process"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a model against the header of a peak table",
	Long: `Detect the header of a peak table, compile the model against it and report
the matrix rank and condition number. Nothing is written.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	in := args[0]

	model, err := loadModel(in)
	if err != nil {
		return err
	}

	f, err := os.Open(in)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	p := process.New(model, log.Logger, process.Options{ConditionWarn: condWarn})
	sum, err := p.Check(in, f)
	if err != nil {
		return err
	}

	fmt.Printf("Header: line %d\n", sum.HeaderLine)
	fmt.Printf("Molecules: %d\n", len(model.Molecules))
	fmt.Printf("Rank: %d\n", sum.Rank)
	fmt.Printf("Condition value: %g\n", sum.Condition)
	if len(sum.Unmatched) > 0 {
		fmt.Printf("Unmatched weights: %v\n", sum.Unmatched)
	}
	fmt.Println("Model OK")

	return nil
}
