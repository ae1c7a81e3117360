package manifest

// Example returns the canonical quality-gate pipeline: toolchain gates
// for a cargo project, fanned out behind build, with the slow
// measurement gates behind test. It doubles as living documentation of
// the manifest schema.
func Example() *Manifest {
	return &Manifest{
		Name:     "quality-gate",
		Defaults: Defaults{Timeout: "15m", Dir: "."},
		Tools: []Tool{
			{
				Name:    "tarpaulin",
				Check:   []string{"cargo", "tarpaulin", "--version"},
				Install: []string{"cargo", "install", "cargo-tarpaulin"},
			},
			{
				Name:    "mutants",
				Check:   []string{"cargo", "mutants", "--version"},
				Install: []string{"cargo", "install", "cargo-mutants"},
			},
		},
		Stages: []StageDef{
			{
				Name: "build",
				Run:  []string{"cargo", "build", "--all-targets"},
				Env:  map[string]string{"CARGO_TERM_COLOR": "always"},
			},
			{
				Name:      "format",
				Run:       []string{"cargo", "fmt", "--check"},
				DependsOn: []string{"build"},
			},
			{
				Name:      "lint",
				Run:       []string{"cargo", "clippy", "--all-targets", "--", "-D", "warnings"},
				DependsOn: []string{"build"},
			},
			{
				Name:         "docs",
				Run:          []string{"cargo", "doc", "--no-deps"},
				Env:          map[string]string{"RUSTDOCFLAGS": "-D warnings"},
				DependsOn:    []string{"build"},
				AllowFailure: true,
			},
			{
				Name:      "test",
				Run:       []string{"cargo", "test", "--all-targets"},
				DependsOn: []string{"build"},
			},
			{
				Name:      "doctest",
				Run:       []string{"cargo", "test", "--doc"},
				DependsOn: []string{"test"},
			},
			{
				Name:      "coverage",
				Run:       []string{"cargo", "tarpaulin", "--out", "Xml"},
				DependsOn: []string{"test"},
				Requires:  []string{"tarpaulin"},
				Timeout:   "30m",
			},
			{
				Name:      "mutation",
				Run:       []string{"cargo", "mutants"},
				DependsOn: []string{"test"},
				Requires:  []string{"mutants"},
				Timeout:   "45m",
				Retry:     RetryDef{Attempts: 2, Backoff: "10s"},
			},
		},
	}
}
