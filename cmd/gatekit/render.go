package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/gatekit/manifest"
	"github.com/kbukum/gatekit/render"
	"github.com/kbukum/gatekit/util"
)

var (
	renderOutput string
	renderImage  string
	renderRunsOn string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Emit the pipeline as a static definition",
	Long: `Render the pipeline into a form another system executes: a
Dockerfile whose RUN sequence reproduces the gates inside an image
build, or a CI workflow with one job per stage.`,
}

var renderDockerfileCmd = &cobra.Command{
	Use:   "dockerfile [manifest]",
	Short: "Render the pipeline as a Dockerfile",
	Long: `Render the pipeline as a Dockerfile: tool installs first, then one
RUN line per stage in dependency order. Stages marked allow_failure
cannot be expressed in an image build and are rejected.

Examples:
  gatekit render dockerfile
  gatekit render dockerfile ci/gates.yml --image rust:1.80 -o Dockerfile.gates`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRenderDockerfile,
}

var renderWorkflowCmd = &cobra.Command{
	Use:   "workflow [manifest]",
	Short: "Render the pipeline as a CI workflow",
	Long: `Render the pipeline as a CI workflow document: one job per stage,
dependency edges as needs, allow_failure as continue-on-error, stage
timeouts as timeout-minutes.

Examples:
  gatekit render workflow
  gatekit render workflow --runs-on macos-14 -o .github/workflows/gates.yml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRenderWorkflow,
}

func init() {
	renderCmd.PersistentFlags().StringVarP(&renderOutput, "output", "o", "", "write to this file instead of stdout")
	renderDockerfileCmd.Flags().StringVar(&renderImage, "image", "", "base image for the Dockerfile")
	renderWorkflowCmd.Flags().StringVar(&renderRunsOn, "runs-on", "", "runner label for workflow jobs")

	renderCmd.AddCommand(renderDockerfileCmd)
	renderCmd.AddCommand(renderWorkflowCmd)
}

func runRenderDockerfile(cmd *cobra.Command, args []string) error {
	m, opts, err := renderInputs(args)
	if err != nil {
		return err
	}
	out, err := render.Dockerfile(m, opts)
	if err != nil {
		return err
	}
	return writeOut(renderOutput, out)
}

func runRenderWorkflow(cmd *cobra.Command, args []string) error {
	m, opts, err := renderInputs(args)
	if err != nil {
		return err
	}
	out, err := render.Workflow(m, opts)
	if err != nil {
		return err
	}
	return writeOut(renderOutput, out)
}

// renderInputs loads the manifest and merges flag overrides over the
// configured render defaults.
func renderInputs(args []string) (*manifest.Manifest, render.Options, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, render.Options{}, err
	}
	m, err := loadManifest(args)
	if err != nil {
		return nil, render.Options{}, err
	}
	opts := render.Options{
		Image:  util.Coalesce(renderImage, cfg.Render.Image),
		RunsOn: util.Coalesce(renderRunsOn, cfg.Render.RunsOn),
	}
	return m, opts, nil
}

func writeOut(path, content string) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.WriteString(content)
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
