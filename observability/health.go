package observability

// HealthStatus represents the readiness of a tool or of the whole
// toolchain.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// Health describes the probed state of a single tool.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// PipelineHealth aggregates per-tool probes into one readiness verdict
// for a pipeline.
type PipelineHealth struct {
	Pipeline string       `json:"pipeline"`
	Status   HealthStatus `json:"status"`
	Version  string       `json:"version,omitempty"`
	Tools    []Health     `json:"tools,omitempty"`
}

// NewPipelineHealth creates a PipelineHealth with status up.
func NewPipelineHealth(pipeline, version string) *PipelineHealth {
	return &PipelineHealth{
		Pipeline: pipeline,
		Status:   HealthStatusUp,
		Version:  version,
	}
}

// AddTool records one tool probe and degrades the overall status if needed.
// A single down tool takes the pipeline down; degraded tools leave it
// degraded unless something worse already happened.
func (ph *PipelineHealth) AddTool(h Health) {
	ph.Tools = append(ph.Tools, h)

	switch h.Status {
	case HealthStatusDown:
		ph.Status = HealthStatusDown
	case HealthStatusDegraded:
		if ph.Status != HealthStatusDown {
			ph.Status = HealthStatusDegraded
		}
	}
}
