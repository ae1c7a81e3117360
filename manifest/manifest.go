// Package manifest defines the YAML pipeline definition: stages, tool
// requirements, defaults, and the topology presets that reshape one
// graph into script-style sequential runs or isolated CI jobs. A
// manifest is declaration only; Runtime lowers it into the executable
// stage and requirement types.
package manifest

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/gatekit/validation"
)

// Topology values. The topology reshapes the dependency graph before
// execution: "graph" keeps the declared edges, "sequential" chains
// every stage after its predecessor, "isolated" removes every edge.
const (
	TopologyGraph      = "graph"
	TopologySequential = "sequential"
	TopologyIsolated   = "isolated"
)

// Manifest is a YAML pipeline definition.
type Manifest struct {
	// Name identifies the pipeline.
	Name string `yaml:"name" validate:"required"`
	// Topology selects how dependency edges are derived. Empty means
	// "graph": the edges as declared.
	Topology string `yaml:"topology,omitempty" validate:"omitempty,oneof=graph sequential isolated"`
	// Defaults fill stage fields left empty.
	Defaults Defaults `yaml:"defaults,omitempty"`
	// Tools declares the provisionable requirements stages may name in
	// requires.
	Tools []Tool `yaml:"tools,omitempty" validate:"omitempty,dive"`
	// Stages lists the pipeline's stages in declaration order.
	Stages []StageDef `yaml:"stages" validate:"omitempty,dive"`
}

// Defaults apply to stages that leave the matching field empty.
type Defaults struct {
	// Timeout is a duration string, e.g. "15m".
	Timeout string `yaml:"timeout,omitempty"`
	// Dir is the working directory.
	Dir string `yaml:"dir,omitempty"`
}

// Tool declares a provisionable requirement.
type Tool struct {
	// Name is the handle stages use in requires.
	Name string `yaml:"name" validate:"required"`
	// Check probes for the tool; exit zero means present.
	Check []string `yaml:"check" validate:"required,min=1"`
	// Install makes the tool available when the check fails.
	Install []string `yaml:"install" validate:"required,min=1"`
	// Dir is the working directory for check and install.
	Dir string `yaml:"dir,omitempty"`
	// Env is extra environment for check and install.
	Env map[string]string `yaml:"env,omitempty"`
}

// StageDef defines one stage.
type StageDef struct {
	// Name uniquely identifies the stage within the pipeline.
	Name string `yaml:"name" validate:"required"`
	// Run is the command, executable first. No shell expansion.
	Run []string `yaml:"run" validate:"required,min=1"`
	// Dir is the working directory.
	Dir string `yaml:"dir,omitempty"`
	// Env is extra environment, passed through opaquely. Values with
	// the "sealed:" prefix are opened at lowering time.
	Env map[string]string `yaml:"env,omitempty"`
	// DependsOn names stages that must be satisfied first.
	DependsOn []string `yaml:"depends_on,omitempty"`
	// AllowFailure marks the stage's failure tolerated: recorded, but
	// neither blocking dependents nor failing the run on its own.
	AllowFailure bool `yaml:"allow_failure,omitempty"`
	// Timeout is a duration string bounding the command, e.g. "5m".
	Timeout string `yaml:"timeout,omitempty"`
	// Requires names tools from the tools section.
	Requires []string `yaml:"requires,omitempty"`
	// Retry re-runs the stage on failure.
	Retry RetryDef `yaml:"retry,omitempty"`
}

// RetryDef is a stage's retry policy.
type RetryDef struct {
	// Attempts counts total runs; below 2 means a single run.
	Attempts int `yaml:"attempts,omitempty" validate:"omitempty,min=1,max=10"`
	// Backoff is a duration string for the fixed delay between runs.
	Backoff string `yaml:"backoff,omitempty"`
}

// Validate checks the manifest structurally and semantically: tag
// constraints, duplicate tool names, unknown requires references,
// unparseable durations, empty executables. Dependency edges are
// validated later, when the graph is built.
func (m *Manifest) Validate() error {
	if err := validation.Validate(m); err != nil {
		return err
	}

	v := validation.New()
	checkDuration(v, "defaults.timeout", m.Defaults.Timeout)

	tools := make(map[string]bool, len(m.Tools))
	for i, tool := range m.Tools {
		field := fmt.Sprintf("tools[%d]", i)
		if tools[tool.Name] {
			v.AddError(field+".name", fmt.Sprintf("duplicate tool %q", tool.Name))
		}
		tools[tool.Name] = true
		checkArgv(v, field+".check", tool.Check)
		checkArgv(v, field+".install", tool.Install)
	}

	for i, def := range m.Stages {
		field := fmt.Sprintf("stages[%d]", i)
		checkArgv(v, field+".run", def.Run)
		checkDuration(v, field+".timeout", def.Timeout)
		checkDuration(v, field+".retry.backoff", def.Retry.Backoff)
		for _, req := range def.Requires {
			if !tools[req] {
				v.AddError(field+".requires", fmt.Sprintf("unknown tool %q", req))
			}
		}
	}

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

func checkArgv(v *validation.Validator, field string, argv []string) {
	if len(argv) > 0 && strings.TrimSpace(argv[0]) == "" {
		v.AddError(field, "executable must not be empty")
	}
}

func checkDuration(v *validation.Validator, field, s string) {
	if s == "" {
		return
	}
	if _, err := time.ParseDuration(s); err != nil {
		v.AddError(field, fmt.Sprintf("invalid duration %q", s))
	}
}

// Sequential returns a copy in which every stage depends on its
// predecessor, so the stages run one at a time in declaration order.
// The chain is the transitive reduction of "depends on all prior
// stages"; the resulting order is the same.
func (m *Manifest) Sequential() *Manifest {
	out := *m
	out.Stages = make([]StageDef, len(m.Stages))
	copy(out.Stages, m.Stages)
	for i := range out.Stages {
		if i == 0 {
			out.Stages[i].DependsOn = nil
			continue
		}
		out.Stages[i].DependsOn = []string{out.Stages[i-1].Name}
	}
	out.Topology = TopologySequential
	return &out
}

// Isolated returns a copy with every dependency edge removed, the
// shape hosted-CI jobs run in: independent, concurrently, each failing
// on its own.
func (m *Manifest) Isolated() *Manifest {
	out := *m
	out.Stages = make([]StageDef, len(m.Stages))
	copy(out.Stages, m.Stages)
	for i := range out.Stages {
		out.Stages[i].DependsOn = nil
	}
	out.Topology = TopologyIsolated
	return &out
}
