package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/gatekit/graph"
	"github.com/kbukum/gatekit/manifest"
	"github.com/kbukum/gatekit/stage"
)

var checkCmd = &cobra.Command{
	Use:   "check [manifest]",
	Short: "Validate a manifest and show the execution plan",
	Long: `Validate the manifest and its dependency graph without executing
anything, then print the plan: which stages run in which wave, and
which tools would be provisioned.

Examples:
  # Check the default manifest
  gatekit check

  # Show the built-in example pipeline
  gatekit check --example`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	m, err := loadManifest(args)
	if err != nil {
		return err
	}
	levels, err := planLevels(m)
	if err != nil {
		return err
	}
	return writePlan(os.Stdout, m, levels)
}

// planLevels validates the dependency structure and returns the
// execution waves. Sealed env values stay sealed here; checking a
// manifest must not require the seal key.
func planLevels(m *manifest.Manifest) ([][]string, error) {
	skeleton := make([]stage.Stage, len(m.Stages))
	for i, def := range m.Stages {
		skeleton[i] = stage.Stage{Name: def.Name, Argv: def.Run, DependsOn: def.DependsOn}
	}
	g, err := graph.New(skeleton)
	if err != nil {
		return nil, err
	}
	return g.Levels(), nil
}

func writePlan(w io.Writer, m *manifest.Manifest, levels [][]string) error {
	if _, err := fmt.Fprintf(w, "%s: %d stages, %d tools\n\n",
		m.Name, len(m.Stages), len(m.Tools)); err != nil {
		return err
	}

	byName := make(map[string]manifest.StageDef, len(m.Stages))
	for _, def := range m.Stages {
		byName[def.Name] = def
	}

	for i, level := range levels {
		names := make([]string, len(level))
		for j, name := range level {
			names[j] = annotateStage(byName[name])
		}
		if _, err := fmt.Fprintf(w, "  %d. %s\n", i+1, strings.Join(names, ", ")); err != nil {
			return err
		}
	}

	if len(m.Tools) > 0 {
		names := make([]string, len(m.Tools))
		for i, tool := range m.Tools {
			names[i] = tool.Name
		}
		if _, err := fmt.Fprintf(w, "\ntools: %s\n", strings.Join(names, ", ")); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w, "\nmanifest is valid")
	return err
}

func annotateStage(def manifest.StageDef) string {
	s := def.Name
	if def.AllowFailure {
		s += " (tolerated)"
	}
	if len(def.Requires) > 0 {
		s += fmt.Sprintf(" [%s]", strings.Join(def.Requires, ", "))
	}
	return s
}
