package manifest

import (
	"fmt"
	"time"

	goerrors "github.com/kbukum/gatekit/errors"
	"github.com/kbukum/gatekit/provision"
	"github.com/kbukum/gatekit/secret"
	"github.com/kbukum/gatekit/stage"
	"github.com/kbukum/gatekit/util"
)

// Runtime lowers the manifest into executable stages and provisionable
// requirements: defaults applied, duration strings parsed, duplicate
// references dropped, sealed env values opened. Opening sealed values
// needs the sealing key in the environment; a sealed value without a
// key is an error, never a ciphertext passed through to a command.
func (m *Manifest) Runtime() ([]stage.Stage, []provision.Requirement, error) {
	sealer, err := secret.FromEnv()
	if err != nil {
		return nil, nil, err
	}

	defTimeout, err := parseDuration(m.Defaults.Timeout, "defaults.timeout")
	if err != nil {
		return nil, nil, err
	}

	stages := make([]stage.Stage, 0, len(m.Stages))
	for i, def := range m.Stages {
		field := fmt.Sprintf("stages[%d]", i)

		timeout := defTimeout
		if def.Timeout != "" {
			timeout, err = parseDuration(def.Timeout, field+".timeout")
			if err != nil {
				return nil, nil, err
			}
		}
		backoff, err := parseDuration(def.Retry.Backoff, field+".retry.backoff")
		if err != nil {
			return nil, nil, err
		}
		env, err := resolveEnv(def.Env, sealer, field)
		if err != nil {
			return nil, nil, err
		}

		stages = append(stages, stage.Stage{
			Name:         def.Name,
			Argv:         def.Run,
			Dir:          util.Coalesce(def.Dir, m.Defaults.Dir),
			Env:          env,
			DependsOn:    util.Unique(def.DependsOn),
			AllowFailure: def.AllowFailure,
			Timeout:      timeout,
			Requires:     util.Unique(def.Requires),
			Retry:        stage.Retry{Attempts: def.Retry.Attempts, Backoff: backoff},
		})
	}

	reqs := make([]provision.Requirement, 0, len(m.Tools))
	for i, tool := range m.Tools {
		field := fmt.Sprintf("tools[%d]", i)
		env, err := resolveEnv(tool.Env, sealer, field)
		if err != nil {
			return nil, nil, err
		}
		reqs = append(reqs, provision.Requirement{
			Name:    tool.Name,
			Check:   tool.Check,
			Install: tool.Install,
			Dir:     util.Coalesce(tool.Dir, m.Defaults.Dir),
			Env:     env,
		})
	}

	return stages, reqs, nil
}

func parseDuration(s, field string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, goerrors.Validation(fmt.Sprintf("%s: invalid duration %q", field, s))
	}
	return d, nil
}

func resolveEnv(env map[string]string, sealer *secret.Sealer, field string) (map[string]string, error) {
	if len(env) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(env))
	for k, v := range env {
		if !secret.IsSealed(v) {
			out[k] = v
			continue
		}
		if sealer == nil {
			return nil, goerrors.Validation(fmt.Sprintf("%s.env.%s is sealed but %s is not set", field, k, secret.EnvKey))
		}
		opened, err := sealer.Open(v)
		if err != nil {
			return nil, goerrors.Validation(fmt.Sprintf("%s.env.%s: %v", field, k, err))
		}
		out[k] = opened
	}
	return out, nil
}
