package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/litmap/internal/viz"
)

var vizOutput string
var vizLayout string

func init() {
	vizCmd.Flags().StringVarP(&vizOutput, "output", "o", "", "Output file path (default: stdout)")
	vizCmd.Flags().StringVar(&vizLayout, "layout", "breadthfirst", "Layout algorithm: breadthfirst, force, circle, or grid")
	rootCmd.AddCommand(vizCmd)
}

var vizCmd = &cobra.Command{
	Use:   "viz",
	Short: "Generate the review map visualization",
	Long: `Generate an interactive HTML map of the review.

Databases (gray) contain queries (yellow), which branch into their terms
(blue). Papers sharing several terms form overlap groups (purple); groups
shared between queries are pink diamonds. Curated highlights are green,
papers found outside the branch terms gray, and the per-database most
cited and most relevant aggregates orange and red.

Examples:
  # Generate HTML to stdout
  litmap viz > map.html

  # Generate to file with a force-directed layout
  litmap viz --layout force --output map.html`,
	Args: cobra.NoArgs,
	RunE: runViz,
}

func runViz(cmd *cobra.Command, args []string) error {
	// Fail on a bad layout before loading anything
	if err := viz.ValidateLayout(vizLayout); err != nil {
		return err
	}

	_, snap, err := loadProject(cmd.Context())
	if err != nil {
		return err
	}

	graph, err := viz.BuildGraph(snap)
	if err != nil {
		return fmt.Errorf("building graph data: %w", err)
	}

	html, err := viz.GenerateHTML(graph, viz.HTMLOptions{Layout: vizLayout})
	if err != nil {
		return fmt.Errorf("generating HTML: %w", err)
	}

	if vizOutput == "" {
		fmt.Fprint(stdout, html)
		return nil
	}
	if err := os.WriteFile(vizOutput, []byte(html), 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	if humanOutput {
		outputHuman("Visualization written to %s\n", vizOutput)
		return nil
	}
	return outputJSON(StatusResponse{Status: "written", Path: vizOutput})
}
