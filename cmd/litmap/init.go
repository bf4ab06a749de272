package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/litmap/internal/config"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Initialize a new litmap project",
	Long: `Initialize a new litmap project in the given directory (default: current).

Creates:
  litmap.yml                            # Starter config with one example query
  RIS_source_files/                     # Put one RIS export per query here
  RIS_source_files/manual_groupings/    # most_cited*.txt / most_relevant*.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving directory: %w", err)
	}

	if config.IsProject(root) {
		return fmt.Errorf("directory already contains %s", config.ConfigFile)
	}

	cfg := config.Default()
	cfg.SetRoot(root)
	for _, dir := range []string{cfg.RISSourcePath(), cfg.ManualGroupingsPath()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	path := config.ConfigPath(root)
	if err := cfg.Save(path); err != nil {
		return err
	}

	if humanOutput {
		outputHuman("Initialized litmap project in %s\n", root)
		outputHuman("Add RIS exports to %s and edit %s\n", cfg.RISSourcePath(), path)
		return nil
	}
	return outputJSON(StatusResponse{Status: "initialized", Path: path})
}
