package sandbox_test

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/profile"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/result"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/sandbox"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/spec"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/verdict"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/workspace"
	appErr "github.com/DGSSZ-PLIELab/SSL-OJ-sub000/pkg/errors"
)

func requirePOSIX(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires POSIX tools")
	}
}

func newExecutor(t *testing.T, opts ...sandbox.Option) *sandbox.Executor {
	t.Helper()
	return sandbox.NewExecutor(verdict.NewEngine(verdict.DefaultPEScoreFactor), sandbox.NewTracker(), opts...)
}

func newRequest(t *testing.T, runTpl, input, expected string) sandbox.RunRequest {
	t.Helper()
	mgr, err := workspace.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	ws, err := mgr.Create("run-test")
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	return sandbox.RunRequest{
		TaskID:    "run-test",
		TestID:    "1",
		Language:  profile.LanguageProfile{ID: "shim", RunCmdTpl: runTpl, TimeMultiplier: 1, MemoryMultiplier: 1},
		Workspace: ws,
		Input:     input,
		Expected:  expected,
		Score:     10,
		Limits:    spec.ResourceLimit{TimeLimitMs: 5000, MemoryLimitMB: 512},
	}
}

func TestRunAccepted(t *testing.T) {
	requirePOSIX(t)
	exec := newExecutor(t)
	res, err := exec.Run(context.Background(), newRequest(t, "cat", "hello\n", "hello\n"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Verdict != result.VerdictAC {
		t.Fatalf("verdict %s, want AC (output %q)", res.Verdict, res.Output)
	}
	if res.Score != 10 {
		t.Fatalf("score %d, want full 10", res.Score)
	}
	if res.ExitCode != 0 {
		t.Fatalf("exit code %d", res.ExitCode)
	}
}

func TestRunPresentationError(t *testing.T) {
	requirePOSIX(t)
	exec := newExecutor(t)
	res, err := exec.Run(context.Background(), newRequest(t, "cat", "a  b\n", "a b\n"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Verdict != result.VerdictPE {
		t.Fatalf("verdict %s, want PE", res.Verdict)
	}
	if res.Score != 8 {
		t.Fatalf("score %d, want 8 (factor 0.8 of 10)", res.Score)
	}
}

func TestRunWrongAnswer(t *testing.T) {
	requirePOSIX(t)
	exec := newExecutor(t)
	res, err := exec.Run(context.Background(), newRequest(t, "cat", "3\n", "4\n"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Verdict != result.VerdictWA {
		t.Fatalf("verdict %s, want WA", res.Verdict)
	}
	if res.Score != 0 {
		t.Fatalf("score %d, want 0", res.Score)
	}
}

func TestRunTimeLimitExceeded(t *testing.T) {
	requirePOSIX(t)
	exec := newExecutor(t)
	req := newRequest(t, "sleep 5", "", "")
	req.Limits.TimeLimitMs = 100

	start := time.Now()
	res, err := exec.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Verdict != result.VerdictTLE {
		t.Fatalf("verdict %s, want TLE", res.Verdict)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("process not killed promptly, took %s", elapsed)
	}
}

func TestRunRuntimeError(t *testing.T) {
	requirePOSIX(t)
	exec := newExecutor(t)
	res, err := exec.Run(context.Background(), newRequest(t, `sh -c "exit 3"`, "", ""))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Verdict != result.VerdictRE {
		t.Fatalf("verdict %s, want RE", res.Verdict)
	}
	if res.ExitCode != 3 {
		t.Fatalf("exit code %d, want 3", res.ExitCode)
	}
}

func TestRunMemoryLimitExceeded(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("needs process RSS sampling")
	}
	exec := newExecutor(t, sandbox.WithSampleInterval(10*time.Millisecond))
	req := newRequest(t, `sh -c "x=1; while :; do x=$x$x; done"`, "", "")
	req.Limits = spec.ResourceLimit{TimeLimitMs: 10000, MemoryLimitMB: 16}

	res, err := exec.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Verdict != result.VerdictMLE {
		t.Fatalf("verdict %s, want MLE (memory %d KB)", res.Verdict, res.MemoryKB)
	}
}

func TestRunMemoryLimitExceededDespiteCleanExit(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("needs rusage peak-RSS accounting")
	}
	// The sampler never fires: the breach is caught purely from the kernel's
	// peak-RSS reading after the child has already freed the memory and
	// exited zero.
	exec := newExecutor(t, sandbox.WithSampleInterval(time.Hour))
	req := newRequest(t, `sh -c "x=x; i=0; while [ $i -lt 25 ]; do x=$x$x; i=$((i+1)); done; unset x; exit 0"`, "", "")
	req.Limits = spec.ResourceLimit{TimeLimitMs: 10000, MemoryLimitMB: 16}

	res, err := exec.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("exit code %d, want clean exit", res.ExitCode)
	}
	if res.Verdict != result.VerdictMLE {
		t.Fatalf("verdict %s, want MLE (peak %d KB over a %d MB limit)",
			res.Verdict, res.MemoryKB, req.Limits.MemoryLimitMB)
	}
	if res.MemoryKB <= req.Limits.MemoryLimitMB*1024 {
		t.Fatalf("recorded peak %d KB does not exceed the limit", res.MemoryKB)
	}
}

func TestRunSpawnFailureIsInBandSE(t *testing.T) {
	exec := newExecutor(t)
	res, err := exec.Run(context.Background(), newRequest(t, "no-such-binary-zz", "", ""))
	if err != nil {
		t.Fatalf("spawn failure must not surface as an error: %v", err)
	}
	if res.Verdict != result.VerdictSE {
		t.Fatalf("verdict %s, want SE", res.Verdict)
	}
}

func TestRunCanceledContext(t *testing.T) {
	requirePOSIX(t)
	exec := newExecutor(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := exec.Run(ctx, newRequest(t, "sleep 5", "", ""))
	if !appErr.Is(err, appErr.JudgeCanceled) {
		t.Fatalf("expected JudgeCanceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("cancellation did not kill the process, took %s", elapsed)
	}
}

func TestRunExternalKill(t *testing.T) {
	requirePOSIX(t)
	exec := newExecutor(t)
	req := newRequest(t, "sleep 5", "", "")

	go func() {
		time.Sleep(100 * time.Millisecond)
		exec.Tracker().Kill(req.TaskID)
	}()

	start := time.Now()
	_, err := exec.Run(context.Background(), req)
	if !appErr.Is(err, appErr.JudgeCanceled) {
		t.Fatalf("expected JudgeCanceled after external kill, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("kill did not terminate the process, took %s", elapsed)
	}
}

func TestRunValidatesRequest(t *testing.T) {
	exec := newExecutor(t)
	req := newRequest(t, "cat", "", "")
	req.TestID = ""
	if _, err := exec.Run(context.Background(), req); !appErr.Is(err, appErr.InvalidParams) {
		t.Fatalf("expected InvalidParams, got %v", err)
	}
}
