package provision

import (
	"context"
	"sort"
	"strings"

	goerrors "github.com/kbukum/gatekit/errors"
	"github.com/kbukum/gatekit/observability"
)

// Doctor probes every known requirement and reports per-tool health.
// Unlike Ensure it never installs anything: a failing check is a down
// tool, not a repair trigger. Results are sorted by tool name.
func (p *Provisioner) Doctor(ctx context.Context) ([]observability.Health, error) {
	p.mu.Lock()
	reqs := make([]Requirement, 0, len(p.reqs))
	for _, r := range p.reqs {
		reqs = append(reqs, r)
	}
	p.mu.Unlock()
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].Name < reqs[j].Name })

	var out []observability.Health
	for _, req := range reqs {
		h, err := p.probe(ctx, req)
		if err != nil {
			return out, err
		}
		out = append(out, h)
	}
	return out, nil
}

// probe maps one check run onto a health entry. Only cancellation is an
// error; everything else is a finding.
func (p *Provisioner) probe(ctx context.Context, req Requirement) (observability.Health, error) {
	h := observability.Health{Name: req.Name}

	if len(req.Check) == 0 {
		h.Status = observability.HealthStatusDegraded
		h.Message = "no check command defined"
		return h, nil
	}
	h.Details = map[string]string{"check": strings.Join(req.Check, " ")}

	ok, err := p.runCheck(ctx, req)
	switch {
	case err == nil && ok:
		h.Status = observability.HealthStatusUp
	case err == nil:
		h.Status = observability.HealthStatusDown
		h.Message = "check command failed"
	case goerrors.HasCode(err, goerrors.ErrCodeCancelled):
		return h, err
	default:
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
	}
	return h, nil
}
