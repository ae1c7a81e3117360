package manifest

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	goerrors "github.com/kbukum/gatekit/errors"
)

// Load reads, parses, and validates a manifest file. The topology
// preset, if any, is already applied to the returned manifest.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: reading %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest: %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes and validates a manifest from YAML bytes and applies
// its topology preset.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, goerrors.Validation(fmt.Sprintf("invalid YAML: %v", err))
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	switch m.Topology {
	case "", TopologyGraph:
		return &m, nil
	case TopologySequential:
		return m.Sequential(), nil
	case TopologyIsolated:
		return m.Isolated(), nil
	default:
		return nil, goerrors.Validation(fmt.Sprintf("unknown topology %q", m.Topology))
	}
}
