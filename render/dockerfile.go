package render

import (
	"fmt"
	"strings"

	"github.com/kbukum/gatekit/manifest"
	"github.com/kbukum/gatekit/util"
	"github.com/kbukum/gatekit/validation"
)

// Dockerfile renders the pipeline as a container image build: tool
// installs first, then one RUN line per stage in dependency order. An
// image build aborts on the first non-zero command, so stages marked
// allow_failure cannot be expressed in this mode and are rejected.
func Dockerfile(m *manifest.Manifest, opts Options) (string, error) {
	v := validation.New()
	checkSealed(v, m)
	for i, def := range m.Stages {
		if def.AllowFailure {
			v.AddError(fmt.Sprintf("stages[%d].allow_failure", i), "cannot be expressed in an image build")
		}
	}
	if err := validationError(v); err != nil {
		return "", err
	}

	names, err := stageOrder(m)
	if err != nil {
		return "", err
	}
	byName := make(map[string]manifest.StageDef, len(m.Stages))
	for _, def := range m.Stages {
		byName[def.Name] = def
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s: generated by gatekit render dockerfile\n", m.Name)
	fmt.Fprintf(&b, "FROM %s\n", util.Coalesce(opts.Image, defaultImage))
	b.WriteString("WORKDIR /src\n")
	b.WriteString("COPY . .\n")

	for _, tool := range m.Tools {
		prefix := envPrefix(tool.Env)
		fmt.Fprintf(&b, "RUN %s%s || %s%s\n",
			prefix, util.ShellJoin(tool.Check), prefix, util.ShellJoin(tool.Install))
	}

	for _, name := range names {
		def := byName[name]
		line := envPrefix(def.Env) + util.ShellJoin(def.Run)
		if dir := util.Coalesce(def.Dir, m.Defaults.Dir); dir != "" && dir != "." {
			line = "cd " + util.ShellQuote(dir) + " && " + line
		}
		fmt.Fprintf(&b, "RUN %s\n", line)
	}

	return b.String(), nil
}
