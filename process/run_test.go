package process_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/gatekit/errors"
	"github.com/kbukum/gatekit/process"
)

func TestRunEcho(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Argv: []string{"echo", "hello", "world"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", result.ExitCode)
	}
	out := strings.TrimSpace(string(result.Stdout))
	if out != "hello world" {
		t.Fatalf("expected 'hello world', got %q", out)
	}
}

func TestRunStdin(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Argv:  []string{"cat"},
		Stdin: strings.NewReader("from stdin"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(result.Stdout)
	if out != "from stdin" {
		t.Fatalf("expected 'from stdin', got %q", out)
	}
}

func TestRunNonZeroExitIsNotAnError(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Argv: []string{"sh", "-c", "exit 42"},
	})
	if err != nil {
		t.Fatalf("non-zero exit must not be an error, got %v", err)
	}
	if result.ExitCode != 42 {
		t.Fatalf("expected exit code 42, got %d", result.ExitCode)
	}
	if result.Success() {
		t.Fatal("Success() should be false for exit 42")
	}
}

func TestRunStderr(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Argv: []string{"sh", "-c", "echo oops >&2"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stderr := strings.TrimSpace(string(result.Stderr))
	if stderr != "oops" {
		t.Fatalf("expected 'oops' on stderr, got %q", stderr)
	}
}

func TestRunTimeout(t *testing.T) {
	start := time.Now()
	result, err := process.Run(context.Background(), process.Command{
		Argv:        []string{"sleep", "10"},
		Timeout:     100 * time.Millisecond,
		GracePeriod: 500 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.HasCode(err, errors.ErrCodeTimeout) {
		t.Fatalf("expected TIMEOUT code, got %v", err)
	}
	if result == nil {
		t.Fatal("expected partial result on timeout")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("process took too long to kill: %v", elapsed)
	}
}

func TestRunCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	result, err := process.Run(ctx, process.Command{
		Argv:        []string{"sleep", "10"},
		GracePeriod: 500 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if !errors.HasCode(err, errors.ErrCodeCancelled) {
		t.Fatalf("expected CANCELLED code, got %v", err)
	}
	if result == nil {
		t.Fatal("expected partial result on cancellation")
	}
}

func TestRunLaunchFailure(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Argv: []string{"definitely-not-a-real-binary-xyz"},
	})
	if err == nil {
		t.Fatal("expected launch error")
	}
	if !errors.HasCode(err, errors.ErrCodeLaunch) {
		t.Fatalf("expected LAUNCH_FAILED code, got %v", err)
	}
	if result != nil {
		t.Fatalf("expected nil result on launch failure, got %+v", result)
	}
}

func TestRunBadWorkingDirectory(t *testing.T) {
	_, err := process.Run(context.Background(), process.Command{
		Argv: []string{"echo", "hi"},
		Dir:  "/nonexistent-dir-xyz",
	})
	if err == nil {
		t.Fatal("expected launch error for bad working directory")
	}
	if !errors.HasCode(err, errors.ErrCodeLaunch) {
		t.Fatalf("expected LAUNCH_FAILED code, got %v", err)
	}
}

func TestRunEmptyArgv(t *testing.T) {
	_, err := process.Run(context.Background(), process.Command{})
	if err == nil {
		t.Fatal("expected error for empty argv")
	}
	if !errors.HasCode(err, errors.ErrCodeValidation) {
		t.Fatalf("expected VALIDATION code, got %v", err)
	}
}

func TestRunDuration(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Argv: []string{"sleep", "0.1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Duration < 50*time.Millisecond {
		t.Fatalf("duration too short: %v", result.Duration)
	}
}

func TestRunEnv(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Argv: []string{"sh", "-c", "echo $MY_TEST_VAR"},
		Env:  map[string]string{"MY_TEST_VAR": "hello123"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := strings.TrimSpace(string(result.Stdout))
	if out != "hello123" {
		t.Fatalf("expected 'hello123', got %q", out)
	}
}

func TestRunEnvInheritsParent(t *testing.T) {
	t.Setenv("GATEKIT_PARENT_VAR", "inherited")

	result, err := process.Run(context.Background(), process.Command{
		Argv: []string{"sh", "-c", "echo $GATEKIT_PARENT_VAR"},
		Env:  map[string]string{"OTHER": "x"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := strings.TrimSpace(string(result.Stdout))
	if out != "inherited" {
		t.Fatalf("expected inherited parent env, got %q", out)
	}
}

func TestRunOutputCap(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Argv:      []string{"sh", "-c", "yes x | head -c 100000"},
		MaxOutput: 1024,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Stdout) != 1024 {
		t.Fatalf("expected capped stdout of 1024 bytes, got %d", len(result.Stdout))
	}
	if !result.Truncated {
		t.Fatal("expected Truncated to be set")
	}
}

func TestRunOutputUnderCap(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Argv:      []string{"echo", "short"},
		MaxOutput: 1024,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Truncated {
		t.Fatal("short output must not be marked truncated")
	}
}

func TestRunKillsProcessGroup(t *testing.T) {
	// The sleep is a child of sh; killing only sh would leave it running
	// and Wait would block on the inherited stdout pipe until WaitDelay.
	start := time.Now()
	_, err := process.Run(context.Background(), process.Command{
		Argv:        []string{"sh", "-c", "sleep 30"},
		Timeout:     100 * time.Millisecond,
		GracePeriod: time.Second,
	})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("process group not killed promptly: %v", elapsed)
	}
}

func TestRunnerAppliesDefaults(t *testing.T) {
	r := process.NewRunner()
	r.DefaultTimeout = 100 * time.Millisecond
	r.DefaultGracePeriod = 500 * time.Millisecond

	_, err := r.Run(context.Background(), process.Command{
		Argv: []string{"sleep", "10"},
	})
	if !errors.HasCode(err, errors.ErrCodeTimeout) {
		t.Fatalf("runner default timeout not applied: %v", err)
	}
}

func TestRunnerKeepsExplicitTimeout(t *testing.T) {
	r := process.NewRunner()
	r.DefaultTimeout = 10 * time.Millisecond

	result, err := r.Run(context.Background(), process.Command{
		Argv:    []string{"sleep", "0.1"},
		Timeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("explicit timeout should win over default: %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("expected success, got exit %d", result.ExitCode)
	}
}

func TestRunnerAppliesOutputCap(t *testing.T) {
	r := process.NewRunner()
	r.MaxOutputBytes = 16

	result, err := r.Run(context.Background(), process.Command{
		Argv: []string{"echo", "a long enough line of output"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Stdout) != 16 || !result.Truncated {
		t.Fatalf("expected 16 capped bytes with truncation, got %d truncated=%v",
			len(result.Stdout), result.Truncated)
	}
}
