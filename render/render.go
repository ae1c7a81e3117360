// Package render emits a pipeline in the two static formats: a
// Dockerfile whose RUN sequence reproduces the gates inside an image
// build, and a CI workflow whose jobs reproduce them as independent
// hosted runners. Both are projections of the same manifest; neither
// executes anything.
package render

import (
	"fmt"

	"github.com/kbukum/gatekit/graph"
	"github.com/kbukum/gatekit/manifest"
	"github.com/kbukum/gatekit/secret"
	"github.com/kbukum/gatekit/stage"
	"github.com/kbukum/gatekit/util"
	"github.com/kbukum/gatekit/validation"
)

// Options configure rendering.
type Options struct {
	// Image is the Dockerfile base image.
	Image string
	// RunsOn is the workflow job's runner label.
	RunsOn string
}

const (
	defaultImage  = "debian:bookworm-slim"
	defaultRunsOn = "ubuntu-latest"
)

// stageOrder validates the manifest's dependency edges and returns the
// stage names in dependency order, declaration order within ties.
func stageOrder(m *manifest.Manifest) ([]string, error) {
	skeleton := make([]stage.Stage, len(m.Stages))
	for i, def := range m.Stages {
		skeleton[i] = stage.Stage{Name: def.Name, Argv: def.Run, DependsOn: def.DependsOn}
	}
	g, err := graph.New(skeleton)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, level := range g.Levels() {
		names = append(names, level...)
	}
	return names, nil
}

// checkSealed rejects sealed env values: a rendered definition runs
// the stage commands directly, without the opener, so a sealed value
// would reach the tool as ciphertext.
func checkSealed(v *validation.Validator, m *manifest.Manifest) {
	for i, tool := range m.Tools {
		for _, k := range util.SortedKeys(tool.Env) {
			if secret.IsSealed(tool.Env[k]) {
				v.AddError(fmt.Sprintf("tools[%d].env.%s", i, k), "sealed values cannot be rendered")
			}
		}
	}
	for i, def := range m.Stages {
		for _, k := range util.SortedKeys(def.Env) {
			if secret.IsSealed(def.Env[k]) {
				v.AddError(fmt.Sprintf("stages[%d].env.%s", i, k), "sealed values cannot be rendered")
			}
		}
	}
}

func validationError(v *validation.Validator) error {
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// envPrefix renders sorted KEY=value assignments for a shell command
// line, trailing space included, empty for an empty map.
func envPrefix(env map[string]string) string {
	var out string
	for _, k := range util.SortedKeys(env) {
		out += k + "=" + util.ShellQuote(env[k]) + " "
	}
	return out
}
