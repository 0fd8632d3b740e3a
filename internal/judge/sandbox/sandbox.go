// Package sandbox runs one test case against a compiled or interpreted
// submission, enforcing effective time and memory limits.
package sandbox

import (
	"context"
	"errors"
	"math"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/capture"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/observer"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/proc"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/profile"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/result"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/spec"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/verdict"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/workspace"
	appErr "github.com/DGSSZ-PLIELab/SSL-OJ-sub000/pkg/errors"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/pkg/utils/logger"
)

// DefaultOutputMaxBytes bounds captured stdout per test case.
const DefaultOutputMaxBytes int64 = 64 * 1024

// RunRequest describes one test-case execution.
type RunRequest struct {
	TaskID    string
	TestID    string
	Language  profile.LanguageProfile
	Workspace workspace.Workspace
	// Input is written to the child's stdin, which is then closed.
	Input string
	// Expected is the reference output handed to the comparer.
	Expected string
	// Score is the case's full point value.
	Score int
	// Limits are the problem's base limits; multipliers are applied here.
	Limits spec.ResourceLimit
}

// Executor spawns and supervises submission processes.
type Executor struct {
	cmp            verdict.Comparer
	tracker        *Tracker
	sampleInterval time.Duration
	outputMaxBytes int64
	metrics        observer.MetricsRecorder
}

// Option configures an Executor.
type Option func(*Executor)

// WithSampleInterval overrides the memory sampling interval.
func WithSampleInterval(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.sampleInterval = d
		}
	}
}

// WithOutputMaxBytes overrides the captured-output bound.
func WithOutputMaxBytes(n int64) Option {
	return func(e *Executor) {
		if n > 0 {
			e.outputMaxBytes = n
		}
	}
}

// WithMetrics injects a metrics recorder.
func WithMetrics(m observer.MetricsRecorder) Option {
	return func(e *Executor) {
		if m != nil {
			e.metrics = m
		}
	}
}

// NewExecutor creates an executor using the given output comparer.
func NewExecutor(cmp verdict.Comparer, tracker *Tracker, opts ...Option) *Executor {
	e := &Executor{
		cmp:            cmp,
		tracker:        tracker,
		sampleInterval: DefaultSampleInterval,
		outputMaxBytes: DefaultOutputMaxBytes,
		metrics:        observer.NoopMetricsRecorder{},
	}
	if e.tracker == nil {
		e.tracker = NewTracker()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tracker exposes the process registry for external kill requests.
func (e *Executor) Tracker() *Tracker {
	return e.tracker
}

// Run executes one test case. Verdicts are returned in-band; the error
// return is reserved for invalid requests and external cancellation.
// A spawn failure is a per-case SE and never aborts the remaining cases.
func (e *Executor) Run(ctx context.Context, req RunRequest) (result.TestCaseResult, error) {
	if err := validateRunRequest(req); err != nil {
		return result.TestCaseResult{}, err
	}

	limits := req.Limits.Scale(req.Language.TimeMultiplier, req.Language.MemoryMultiplier)

	argv, err := profile.BuildCommand(req.Language.RunCmdTpl, req.Language)
	if err != nil {
		return e.systemError(ctx, req, "build run command failed", err), nil
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = req.Workspace.Root
	cmd.Env = append(os.Environ(), req.Language.Env...)
	cmd.Stdin = strings.NewReader(req.Input)
	stdout := capture.NewBuffer(e.outputMaxBytes)
	stderr := capture.NewBuffer(e.outputMaxBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	proc.SetProcessGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return e.systemError(ctx, req, "spawn failed", err), nil
	}
	pid := cmd.Process.Pid
	e.tracker.Register(req.TaskID, pid)
	defer e.tracker.Unregister(req.TaskID, pid)

	var timedOut atomic.Bool
	var memKilled atomic.Bool
	var peakKB atomic.Int64
	done := make(chan struct{})

	go func() {
		timer := time.NewTimer(time.Duration(limits.TimeLimitMs) * time.Millisecond)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			proc.KillGroup(pid)
		case <-timer.C:
			timedOut.Store(true)
			proc.KillGroup(pid)
		case <-done:
		}
	}()
	go samplePeak(pid, limits.MemoryLimitMB, e.sampleInterval, &peakKB, &memKilled, done)

	waitErr := cmd.Wait()
	close(done)
	wallMs := time.Since(start).Milliseconds()

	memKB := peakKB.Load()
	if rss := proc.MaxRSSKB(cmd.ProcessState); rss > memKB {
		memKB = rss
	}

	if ctx.Err() != nil {
		return result.TestCaseResult{TestID: req.TestID, Verdict: result.VerdictSE},
			appErr.Wrapf(ctx.Err(), appErr.JudgeCanceled, "test case canceled: %s", req.TestID)
	}
	if e.tracker.Killed(req.TaskID) {
		return result.TestCaseResult{TestID: req.TestID, Verdict: result.VerdictSE},
			appErr.Newf(appErr.JudgeCanceled, "task killed: %s", req.TaskID)
	}

	res := result.TestCaseResult{
		TestID:   req.TestID,
		TimeMs:   wallMs,
		MemoryKB: memKB,
		ExitCode: exitCode(waitErr, cmd),
		Output:   stdout.String(),
	}

	switch {
	case timedOut.Load():
		res.Verdict = result.VerdictTLE
	case memKilled.Load() || (limits.MemoryLimitMB > 0 && memKB > limits.MemoryLimitMB*1024):
		// Memory classification beats a clean exit.
		res.Verdict = result.VerdictMLE
	case waitErr != nil || res.ExitCode != 0:
		res.Verdict = result.VerdictRE
	default:
		outcome := e.cmp.Compare(stdout.String(), req.Expected)
		res.Verdict = outcome.Verdict
		res.Score = int(math.Round(float64(req.Score) * outcome.ScoreFactor))
	}

	logger.Debug(ctx, "test case finished",
		zap.String("test_id", req.TestID),
		zap.String("verdict", string(res.Verdict)),
		zap.Int64("wall_ms", wallMs),
		zap.Int64("cpu_ms", proc.CPUTimeMs(cmd.ProcessState)),
		zap.Int64("memory_kb", memKB),
		zap.Bool("output_truncated", stdout.Truncated()))
	e.metrics.ObserveRun(ctx, req.Language.ID, string(res.Verdict), res.TimeMs, res.MemoryKB)
	return res, nil
}

func (e *Executor) systemError(ctx context.Context, req RunRequest, msg string, err error) result.TestCaseResult {
	logger.Warn(ctx, msg, zap.String("test_id", req.TestID), zap.Error(err))
	e.metrics.ObserveRun(ctx, req.Language.ID, string(result.VerdictSE), 0, 0)
	return result.TestCaseResult{TestID: req.TestID, Verdict: result.VerdictSE}
}

func validateRunRequest(req RunRequest) error {
	if req.TaskID == "" {
		return appErr.ValidationError("task_id", "required")
	}
	if req.TestID == "" {
		return appErr.ValidationError("test_id", "required")
	}
	if req.Workspace.Root == "" {
		return appErr.ValidationError("workspace", "required")
	}
	if req.Limits.TimeLimitMs <= 0 {
		return appErr.ValidationError("time_limit_ms", "must be positive")
	}
	return nil
}

func exitCode(err error, cmd *exec.Cmd) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
