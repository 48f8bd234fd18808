package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/MassDecomposer/pkg/core"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write the default model to a data directory for editing",
	Long: `Write the built-in model as massdecomp.yaml into dir (default: current
directory). decompose picks it up automatically for data files in that
directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing model file")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	path := filepath.Join(dir, core.ModelFileName)

	if _, err := os.Stat(path); err == nil && !forceInit {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	if err := core.SaveModel(core.DefaultModel(), path); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}
