// Package main implements the gatekit CLI. It loads a pipeline
// manifest, validates it, and either executes the stages (run), prints
// the execution plan (check), probes the required tools (doctor), or
// emits the pipeline as a static Dockerfile or CI workflow (render).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/gatekit/config"
	goerrors "github.com/kbukum/gatekit/errors"
	"github.com/kbukum/gatekit/manifest"
	"github.com/kbukum/gatekit/version"
)

// defaultManifest is where the pipeline definition is looked for when
// no path argument is given.
const defaultManifest = "pipeline.yml"

var (
	cfgFile    string
	useExample bool
)

var rootCmd = &cobra.Command{
	Use:   "gatekit",
	Short: "Run quality gates in dependency order",
	Long: `gatekit executes a pipeline of verification stages (build, lint,
test, coverage and friends) in dependency order: independent stages run
concurrently, the first blocking failure halts the run, and every stage
lands in a consolidated report.

Pipelines are YAML manifests; required tools are provisioned before the
stages that need them. The same manifest can also be rendered as a
Dockerfile or a CI workflow instead of being executed.`,
	Version:       version.GetShortVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(goerrors.ExitCodeFor(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: gatekit.yml discovery)")
	rootCmd.PersistentFlags().BoolVar(&useExample, "example", false, "use the built-in example pipeline instead of a manifest file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig() (*config.Config, error) {
	var opts []config.LoaderOption
	if cfgFile != "" {
		opts = append(opts, config.WithConfigFile(cfgFile))
	}
	return config.Load(opts...)
}

// loadManifest resolves the manifest for a subcommand: the built-in
// example when --example is set, the positional path when given,
// otherwise the default file.
func loadManifest(args []string) (*manifest.Manifest, error) {
	if useExample {
		return manifest.Example(), nil
	}
	path := defaultManifest
	if len(args) > 0 {
		path = args[0]
	}
	return manifest.Load(path)
}
