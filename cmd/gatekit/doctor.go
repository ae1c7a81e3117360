package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	goerrors "github.com/kbukum/gatekit/errors"
	"github.com/kbukum/gatekit/logger"
	"github.com/kbukum/gatekit/observability"
	"github.com/kbukum/gatekit/provision"
	"github.com/kbukum/gatekit/version"
)

var doctorJSON bool

var doctorCmd = &cobra.Command{
	Use:   "doctor [manifest]",
	Short: "Probe the tools a pipeline needs",
	Long: `Doctor runs every tool's check command without installing anything and
reports which requirements are satisfied. A down tool is one whose
check failed; a degraded one declares no check command at all.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "emit the probe results as JSON")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger.Init(cfg.Logging)

	m, err := loadManifest(args)
	if err != nil {
		return err
	}
	_, reqs, err := m.Runtime()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prov := provision.New(provision.Config{
		Requirements: reqs,
		Timeout:      cfg.Provision.Timeout,
	})
	tools, err := prov.Doctor(ctx)
	if err != nil {
		return err
	}

	health := observability.NewPipelineHealth(m.Name, version.GetShortVersion())
	for _, h := range tools {
		health.AddTool(h)
	}

	if doctorJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(health); err != nil {
			return err
		}
	} else if err := writeDoctor(os.Stdout, health); err != nil {
		return err
	}

	if health.Status == observability.HealthStatusDown {
		return goerrors.New(goerrors.ErrCodeProvisioning, "one or more required tools are missing", goerrors.ExitFailure)
	}
	return nil
}

func writeDoctor(w io.Writer, health *observability.PipelineHealth) error {
	if _, err := fmt.Fprintf(w, "%s toolchain: %s\n", health.Pipeline, health.Status); err != nil {
		return err
	}
	if len(health.Tools) == 0 {
		_, err := fmt.Fprintln(w, "\nno tools declared")
		return err
	}

	nameWidth := 0
	for _, h := range health.Tools {
		if len(h.Name) > nameWidth {
			nameWidth = len(h.Name)
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	for _, h := range health.Tools {
		line := fmt.Sprintf("  %s %-*s  %s  %s", healthGlyph(h.Status), nameWidth, h.Name, h.Status, h.Message)
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

func healthGlyph(s observability.HealthStatus) string {
	switch s {
	case observability.HealthStatusUp:
		return "✔"
	case observability.HealthStatusDown:
		return "✖"
	default:
		return "?"
	}
}
