package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kbukum/gatekit/util"
)

// failureExcerptLines is how much of a failed stage's output the text
// report quotes.
const failureExcerptLines = 5

// WriteText renders the report for a terminal: a per-stage status
// table followed by an excerpt of each failure's output.
func (r *Report) WriteText(w io.Writer) error {
	results := r.Results()

	runID := r.RunID.String()
	if len(runID) >= 8 {
		runID = runID[:8]
	}
	if _, err := fmt.Fprintf(w, "%s: %s (run %s, %s)\n\n",
		r.Pipeline, strings.ToUpper(string(r.Verdict)), runID,
		util.FormatDuration(r.Duration())); err != nil {
		return err
	}

	nameWidth := 0
	for _, res := range results {
		if len(res.Stage) > nameWidth {
			nameWidth = len(res.Stage)
		}
	}

	for _, res := range results {
		line := fmt.Sprintf("  %s %-*s  %8s%s",
			statusGlyph(res.Status), nameWidth, res.Stage,
			durationCell(res), detailCell(res))
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}

	for _, res := range results {
		if res.Status != StatusFailed {
			continue
		}
		if err := writeFailure(w, res); err != nil {
			return err
		}
	}

	return nil
}

func statusGlyph(s Status) string {
	switch s {
	case StatusSucceeded:
		return "✔"
	case StatusFailed:
		return "✖"
	case StatusSkipped:
		return "-"
	case StatusRunning:
		return "…"
	default:
		return "?"
	}
}

func durationCell(res Result) string {
	if res.Status == StatusSkipped {
		return ""
	}
	return util.FormatDuration(res.Duration)
}

func detailCell(res Result) string {
	switch {
	case res.Status == StatusSkipped:
		return "  skipped"
	case res.Status == StatusFailed && res.Err != "":
		return "  " + res.Err
	case res.Status == StatusFailed && res.AllowedFailure:
		return fmt.Sprintf("  exit %d (allowed)", res.ExitCode)
	case res.Status == StatusFailed:
		return fmt.Sprintf("  exit %d", res.ExitCode)
	case res.Attempts > 1:
		return fmt.Sprintf("  after %d attempts", res.Attempts)
	default:
		return ""
	}
}

func writeFailure(w io.Writer, res Result) error {
	excerpt := util.TailLines(res.Stderr, failureExcerptLines)
	if excerpt == "" {
		excerpt = util.TailLines(res.Stdout, failureExcerptLines)
	}

	header := fmt.Sprintf("\n%s: exit code %d", res.Stage, res.ExitCode)
	if res.Err != "" {
		header = fmt.Sprintf("\n%s: %s", res.Stage, res.Err)
	}
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}

	if excerpt == "" {
		_, err := fmt.Fprintln(w, "    (no output)")
		return err
	}
	for _, line := range strings.Split(excerpt, "\n") {
		if _, err := fmt.Fprintf(w, "    %s\n", line); err != nil {
			return err
		}
	}
	if res.Truncated {
		if _, err := fmt.Fprintln(w, "    (output truncated)"); err != nil {
			return err
		}
	}
	return nil
}

// jsonReport is the machine-readable shape of a report.
type jsonReport struct {
	RunID       string       `json:"run_id"`
	Pipeline    string       `json:"pipeline"`
	Verdict     Verdict      `json:"verdict"`
	FailedStage string       `json:"failed_stage,omitempty"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
	DurationMS  int64        `json:"duration_ms"`
	Stages      []jsonResult `json:"stages"`
}

type jsonResult struct {
	Stage          string `json:"stage"`
	Status         Status `json:"status"`
	ExitCode       int    `json:"exit_code"`
	DurationMS     int64  `json:"duration_ms"`
	Attempts       int    `json:"attempts,omitempty"`
	AllowedFailure bool   `json:"allowed_failure,omitempty"`
	Truncated      bool   `json:"truncated,omitempty"`
	Error          string `json:"error,omitempty"`
	Stdout         string `json:"stdout,omitempty"`
	Stderr         string `json:"stderr,omitempty"`
}

// WriteJSON renders the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	out := jsonReport{
		RunID:       r.RunID.String(),
		Pipeline:    r.Pipeline,
		Verdict:     r.Verdict,
		FailedStage: r.FailedStage,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		DurationMS:  r.Duration().Milliseconds(),
	}
	for _, res := range r.Results() {
		out.Stages = append(out.Stages, jsonResult{
			Stage:          res.Stage,
			Status:         res.Status,
			ExitCode:       res.ExitCode,
			DurationMS:     res.Duration.Milliseconds(),
			Attempts:       res.Attempts,
			AllowedFailure: res.AllowedFailure,
			Truncated:      res.Truncated,
			Error:          res.Err,
			Stdout:         res.Stdout,
			Stderr:         res.Stderr,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
