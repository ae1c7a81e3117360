// Package provision makes sure the tools a pipeline needs are present
// before its stages run. Each requirement carries a check command and
// an install command; a passing check means the install never runs.
package provision

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	goerrors "github.com/kbukum/gatekit/errors"
	"github.com/kbukum/gatekit/logger"
	"github.com/kbukum/gatekit/observability"
	"github.com/kbukum/gatekit/process"
	"github.com/kbukum/gatekit/util"
)

// Requirement names a tool and how to obtain it. Check decides whether
// the tool is present (exit 0 means satisfied); Install is invoked only
// when the check fails and is re-verified afterwards.
type Requirement struct {
	Name    string
	Check   []string
	Install []string
	Dir     string
	Env     map[string]string
}

// Executor runs a single command. *process.Runner satisfies this.
type Executor interface {
	Run(ctx context.Context, cmd process.Command) (*process.Result, error)
}

// Config configures a Provisioner.
type Config struct {
	// Executor runs check and install commands. Defaults to a
	// process.Runner with standard policy.
	Executor Executor
	// Requirements is the known tool set, usually from the manifest.
	Requirements []Requirement
	// Timeout bounds each check or install command. Zero leaves the
	// executor's default in place.
	Timeout time.Duration
	// Logger for provisioning progress. Defaults to the standard logger.
	Logger *logger.Logger
	// Metrics records provision outcomes. Optional.
	Metrics *observability.Metrics
}

// Provisioner ensures requirements idempotently and de-duplicates
// concurrent ensures of the same requirement. It is the only mutable
// state shared between concurrently running stages, so everything it
// shares lives behind one mutex.
type Provisioner struct {
	exec    Executor
	timeout time.Duration
	log     *logger.Logger
	metrics *observability.Metrics

	mu        sync.Mutex
	reqs      map[string]Requirement
	inflight  map[string]*attempt
	satisfied map[string]bool
}

// attempt is one in-flight ensure. Waiters block on done; err is set
// before done is closed.
type attempt struct {
	done chan struct{}
	err  error
}

// New creates a Provisioner.
func New(cfg Config) *Provisioner {
	if cfg.Executor == nil {
		cfg.Executor = process.NewRunner()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Get("provision")
	}

	reqs := make(map[string]Requirement, len(cfg.Requirements))
	for _, r := range cfg.Requirements {
		reqs[r.Name] = r
	}

	return &Provisioner{
		exec:      cfg.Executor,
		timeout:   cfg.Timeout,
		log:       cfg.Logger,
		metrics:   cfg.Metrics,
		reqs:      reqs,
		inflight:  make(map[string]*attempt),
		satisfied: make(map[string]bool),
	}
}

// Ensure makes the named requirement available. A requirement that has
// already been ensured is free; concurrent ensures of the same
// requirement join the one in-flight attempt, so exactly one install
// runs no matter how many stages demand the tool at once.
func (p *Provisioner) Ensure(ctx context.Context, name string) error {
	p.mu.Lock()

	if p.satisfied[name] {
		p.mu.Unlock()
		return nil
	}

	if a, ok := p.inflight[name]; ok {
		p.mu.Unlock()
		select {
		case <-a.done:
			return a.err
		case <-ctx.Done():
			return goerrors.Cancelled("provision " + name)
		}
	}

	req, ok := p.reqs[name]
	if !ok {
		p.mu.Unlock()
		return goerrors.Provisioning(name, "unknown requirement")
	}

	a := &attempt{done: make(chan struct{})}
	p.inflight[name] = a
	p.mu.Unlock()

	err := p.ensure(ctx, req)

	p.mu.Lock()
	delete(p.inflight, name)
	if err == nil {
		p.satisfied[name] = true
	}
	p.mu.Unlock()

	a.err = err
	close(a.done)
	return err
}

// ensure runs the check/install/re-check sequence for one requirement.
func (p *Provisioner) ensure(ctx context.Context, req Requirement) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanProvision+"."+req.Name)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrRequirement, req.Name)

	ok, err := p.runCheck(ctx, req)
	if err != nil {
		p.record(ctx, req.Name, "failed")
		return err
	}
	if ok {
		p.log.Debug("requirement already satisfied",
			logger.Fields(logger.FieldRequirement, req.Name))
		p.record(ctx, req.Name, "satisfied")
		return nil
	}

	if len(req.Install) == 0 {
		p.record(ctx, req.Name, "failed")
		return goerrors.Provisioning(req.Name, "check failed and no install command is defined")
	}

	p.log.Info("installing requirement",
		logger.Fields(logger.FieldRequirement, req.Name, "command", strings.Join(req.Install, " ")))

	if err := p.runInstall(ctx, req); err != nil {
		p.record(ctx, req.Name, "failed")
		return err
	}

	ok, err = p.runCheck(ctx, req)
	if err != nil {
		p.record(ctx, req.Name, "failed")
		return err
	}
	if !ok {
		p.record(ctx, req.Name, "failed")
		return goerrors.Provisioning(req.Name, "check still failing after install")
	}

	p.log.Info("requirement installed",
		logger.Fields(logger.FieldRequirement, req.Name))
	p.record(ctx, req.Name, "installed")
	return nil
}

// runCheck reports whether the requirement is satisfied. A check whose
// executable is missing counts as unsatisfied: an absent tool is
// exactly the condition the install is there to fix.
func (p *Provisioner) runCheck(ctx context.Context, req Requirement) (bool, error) {
	if len(req.Check) == 0 {
		return false, nil
	}

	res, err := p.exec.Run(ctx, p.command(req, req.Check))
	switch {
	case err == nil:
		return res.Success(), nil
	case goerrors.HasCode(err, goerrors.ErrCodeLaunch):
		return false, nil
	case goerrors.HasCode(err, goerrors.ErrCodeCancelled):
		return false, err
	case goerrors.HasCode(err, goerrors.ErrCodeTimeout):
		return false, goerrors.Provisioning(req.Name, "check command timed out")
	default:
		return false, goerrors.Provisioning(req.Name, err.Error())
	}
}

func (p *Provisioner) runInstall(ctx context.Context, req Requirement) error {
	res, err := p.exec.Run(ctx, p.command(req, req.Install))
	switch {
	case err == nil && res.Success():
		return nil
	case err == nil:
		reason := fmt.Sprintf("install exited with code %d", res.ExitCode)
		if tail := util.TailLines(string(res.Stderr), 3); tail != "" {
			reason += ": " + tail
		}
		return goerrors.Provisioning(req.Name, reason)
	case goerrors.HasCode(err, goerrors.ErrCodeCancelled):
		return err
	case goerrors.HasCode(err, goerrors.ErrCodeTimeout):
		return goerrors.Provisioning(req.Name, "install command timed out")
	default:
		return goerrors.Provisioning(req.Name, err.Error())
	}
}

func (p *Provisioner) command(req Requirement, argv []string) process.Command {
	return process.Command{
		Argv:    argv,
		Dir:     req.Dir,
		Env:     req.Env,
		Timeout: p.timeout,
	}
}

func (p *Provisioner) record(ctx context.Context, name, outcome string) {
	observability.SetSpanAttribute(ctx, observability.AttrStatus, outcome)
	if p.metrics != nil {
		p.metrics.RecordProvision(ctx, name, outcome)
	}
}
