package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/gatekit/config"
	goerrors "github.com/kbukum/gatekit/errors"
	"github.com/kbukum/gatekit/logger"
	"github.com/kbukum/gatekit/observability"
	"github.com/kbukum/gatekit/process"
	"github.com/kbukum/gatekit/provision"
	"github.com/kbukum/gatekit/report"
	"github.com/kbukum/gatekit/runner"
	"github.com/kbukum/gatekit/version"
)

var (
	runMaxParallel   int
	runFormat        string
	runSkipProvision bool
)

var runCmd = &cobra.Command{
	Use:   "run [manifest]",
	Short: "Execute the pipeline and report the verdict",
	Long: `Execute every stage of the pipeline in dependency order and print
the consolidated report. The process exits 0 only when every stage
succeeded, 1 when a stage failed, and 2 when the manifest itself is
invalid.

Examples:
  # Run the pipeline defined in pipeline.yml
  gatekit run

  # Run a specific manifest with at most two stages in flight
  gatekit run ci/gates.yml --max-parallel 2

  # Machine-readable report
  gatekit run --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runMaxParallel, "max-parallel", 0, "cap on concurrently running stages (0 uses the config value)")
	runCmd.Flags().StringVar(&runFormat, "format", "text", "report format: text or json")
	runCmd.Flags().BoolVar(&runSkipProvision, "skip-provision", false, "run stages without ensuring required tools first")
}

func runRun(cmd *cobra.Command, args []string) error {
	if runFormat != "text" && runFormat != "json" {
		return goerrors.Validation(fmt.Sprintf("unknown report format %q", runFormat))
	}
	return executeRun(args)
}

func executeRun(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return failBeforeReport(err)
	}
	logger.Init(cfg.Logging)

	m, err := loadManifest(args)
	if err != nil {
		return failBeforeReport(err)
	}
	stages, reqs, err := m.Runtime()
	if err != nil {
		return failBeforeReport(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		metrics    *observability.Metrics
		middleware []runner.Middleware
	)
	if cfg.Observability.Enabled {
		shutdown, obsErr := initObservability(ctx, cfg)
		if obsErr != nil {
			return failBeforeReport(obsErr)
		}
		defer shutdown()

		metrics, err = observability.NewMetrics(observability.Meter(cfg.Name))
		if err != nil {
			return failBeforeReport(err)
		}
		middleware = append(middleware,
			runner.WithTracing(observability.SpanStage),
			runner.WithMetrics(m.Name, metrics),
		)
	}
	middleware = append(middleware, runner.WithLogging(logger.WithComponent("stage")))

	exec := &process.Runner{
		DefaultTimeout:     cfg.Execution.DefaultTimeout,
		DefaultGracePeriod: cfg.Execution.GracePeriod,
		MaxOutputBytes:     cfg.Execution.MaxOutputBytes(),
	}

	var prov *provision.Provisioner
	if !runSkipProvision && !cfg.Provision.Skip {
		prov = provision.New(provision.Config{
			Executor:     exec,
			Requirements: reqs,
			Timeout:      cfg.Provision.Timeout,
			Metrics:      metrics,
		})
	}

	maxParallel := cfg.Execution.MaxParallel
	if runMaxParallel > 0 {
		maxParallel = runMaxParallel
	}

	r := runner.New(runner.Config{
		Pipeline:    m.Name,
		Executor:    exec,
		Provisioner: prov,
		MaxParallel: maxParallel,
		Middleware:  middleware,
		Metrics:     metrics,
	})

	rep, runErr := r.RunStages(ctx, stages)
	if rep == nil {
		return failBeforeReport(runErr)
	}
	if werr := writeReport(rep, runFormat); werr != nil {
		return werr
	}
	if runErr != nil {
		// Interrupted from outside; the partial report is already out.
		return runErr
	}

	if rep.Verdict != report.VerdictSuccess {
		if rep.FailedStage != "" {
			res, _ := rep.Result(rep.FailedStage)
			return goerrors.StageFailed(rep.FailedStage, res.ExitCode)
		}
		return goerrors.New(goerrors.ErrCodeStageFailed, "pipeline finished with tolerated failures", goerrors.ExitFailure)
	}
	return nil
}

func writeReport(rep *report.Report, format string) error {
	if format == "json" {
		return rep.WriteJSON(os.Stdout)
	}
	return rep.WriteText(os.Stdout)
}

// failBeforeReport handles errors raised before any report exists. In
// JSON mode machine consumers still get a document on stdout.
func failBeforeReport(err error) error {
	if runFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(goerrors.Wrap(err).ToResponse())
	}
	return err
}

// initObservability starts the OTLP tracer and meter providers and
// returns a shutdown function that flushes both.
func initObservability(ctx context.Context, cfg *config.Config) (func(), error) {
	info := version.GetVersionInfo()

	tp, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName:    cfg.Name,
		ServiceVersion: info.Version,
		Environment:    cfg.Environment,
		Endpoint:       cfg.Observability.Endpoint,
		Insecure:       cfg.Observability.Insecure,
		SampleRate:     cfg.Observability.SampleRate,
	})
	if err != nil {
		return nil, err
	}

	mp, err := observability.InitMeter(ctx, &observability.MeterConfig{
		ServiceName:    cfg.Name,
		ServiceVersion: info.Version,
		Environment:    cfg.Environment,
		Endpoint:       cfg.Observability.Endpoint,
		Insecure:       cfg.Observability.Insecure,
		Interval:       cfg.Observability.Interval,
	})
	if err != nil {
		_ = tp.Shutdown(context.Background())
		return nil, err
	}

	return func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mp.Shutdown(shCtx)
		_ = tp.Shutdown(shCtx)
	}, nil
}
