package render

import (
	"bytes"
	"fmt"
	"time"

	"go.yaml.in/yaml/v3"

	goerrors "github.com/kbukum/gatekit/errors"
	"github.com/kbukum/gatekit/manifest"
	"github.com/kbukum/gatekit/util"
	"github.com/kbukum/gatekit/validation"
)

type workflowDoc struct {
	Name string                 `yaml:"name"`
	On   []string               `yaml:"on,flow"`
	Jobs map[string]workflowJob `yaml:"jobs"`
}

type workflowJob struct {
	RunsOn          string         `yaml:"runs-on"`
	Needs           []string       `yaml:"needs,omitempty,flow"`
	ContinueOnError bool           `yaml:"continue-on-error,omitempty"`
	TimeoutMinutes  int            `yaml:"timeout-minutes,omitempty"`
	Steps           []workflowStep `yaml:"steps"`
}

type workflowStep struct {
	Name             string            `yaml:"name,omitempty"`
	Uses             string            `yaml:"uses,omitempty"`
	Run              string            `yaml:"run,omitempty"`
	WorkingDirectory string            `yaml:"working-directory,omitempty"`
	Env              map[string]string `yaml:"env,omitempty"`
}

// Workflow renders the pipeline as a hosted-CI workflow: one job per
// stage, each with its own checkout and tool installs, dependency
// edges carried as needs. With no edges (the isolated topology) the
// jobs run as independent parallel tracks. allow_failure maps to
// continue-on-error, so this mode keeps partial-failure tolerance.
func Workflow(m *manifest.Manifest, opts Options) (string, error) {
	v := validation.New()
	checkSealed(v, m)
	if err := validationError(v); err != nil {
		return "", err
	}
	if _, err := stageOrder(m); err != nil {
		return "", err
	}

	toolByName := make(map[string]manifest.Tool, len(m.Tools))
	for _, tool := range m.Tools {
		toolByName[tool.Name] = tool
	}

	runsOn := util.Coalesce(opts.RunsOn, defaultRunsOn)
	jobs := make(map[string]workflowJob, len(m.Stages))
	for _, def := range m.Stages {
		steps := []workflowStep{{Uses: "actions/checkout@v4"}}
		for _, req := range util.Unique(def.Requires) {
			tool := toolByName[req]
			steps = append(steps, workflowStep{
				Name: "install " + tool.Name,
				Run:  util.ShellJoin(tool.Check) + " || " + util.ShellJoin(tool.Install),
				Env:  tool.Env,
			})
		}

		step := workflowStep{
			Name: def.Name,
			Run:  util.ShellJoin(def.Run),
			Env:  def.Env,
		}
		if dir := util.Coalesce(def.Dir, m.Defaults.Dir); dir != "" && dir != "." {
			step.WorkingDirectory = dir
		}
		steps = append(steps, step)

		job := workflowJob{
			RunsOn:          runsOn,
			Needs:           util.Unique(def.DependsOn),
			ContinueOnError: def.AllowFailure,
			Steps:           steps,
		}
		timeout := util.Coalesce(def.Timeout, m.Defaults.Timeout)
		if timeout != "" {
			d, err := time.ParseDuration(timeout)
			if err != nil {
				return "", goerrors.Validation(fmt.Sprintf("stage %s: invalid duration %q", def.Name, timeout))
			}
			job.TimeoutMinutes = int((d + time.Minute - 1) / time.Minute)
		}
		jobs[def.Name] = job
	}

	doc := workflowDoc{
		Name: m.Name,
		On:   []string{"push", "pull_request"},
		Jobs: jobs,
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("render: encoding workflow: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("render: encoding workflow: %w", err)
	}
	return buf.String(), nil
}
