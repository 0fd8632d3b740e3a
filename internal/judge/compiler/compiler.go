// Package compiler invokes language toolchains inside a task workspace.
package compiler

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/capture"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/observer"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/proc"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/profile"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/workspace"
	appErr "github.com/DGSSZ-PLIELab/SSL-OJ-sub000/pkg/errors"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/pkg/utils/logger"
)

const (
	// DefaultTimeout is the fixed compile ceiling, independent of the
	// problem's judging time limit.
	DefaultTimeout = 30 * time.Second

	// DefaultLogMaxBytes bounds captured compiler diagnostics.
	DefaultLogMaxBytes = 64 * 1024
)

// Outcome is the result of one compile attempt. A failed compile is an
// outcome, not an error; errors are reserved for engine-internal faults.
type Outcome struct {
	OK bool
	// ArtifactPath is the file to execute. For interpreted languages this
	// is the source path itself.
	ArtifactPath string
	ExitCode     int
	TimeMs       int64
	TimedOut     bool
	// Diagnostics holds combined stdout+stderr of the toolchain, bounded.
	Diagnostics string
}

// Compiler runs compile commands with a fixed wall-clock ceiling.
type Compiler struct {
	timeout     time.Duration
	logMaxBytes int64
	metrics     observer.MetricsRecorder
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithTimeout overrides the compile ceiling.
func WithTimeout(d time.Duration) Option {
	return func(c *Compiler) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogMaxBytes overrides the diagnostics bound.
func WithLogMaxBytes(n int64) Option {
	return func(c *Compiler) {
		if n > 0 {
			c.logMaxBytes = n
		}
	}
}

// WithMetrics injects a metrics recorder.
func WithMetrics(m observer.MetricsRecorder) Option {
	return func(c *Compiler) {
		if m != nil {
			c.metrics = m
		}
	}
}

// New creates a compiler stage.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		timeout:     DefaultTimeout,
		logMaxBytes: DefaultLogMaxBytes,
		metrics:     observer.NoopMetricsRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile runs the profile's compile command inside the workspace.
// Interpreted languages pass through with the source as the artifact.
// Success requires exit code zero AND the artifact present on disk; some
// toolchains exit zero without producing output.
func (c *Compiler) Compile(ctx context.Context, ws workspace.Workspace, lang profile.LanguageProfile, sourcePath string) (Outcome, error) {
	if ws.Root == "" {
		return Outcome{}, appErr.ValidationError("workspace", "required")
	}
	if sourcePath == "" {
		return Outcome{}, appErr.ValidationError("source_path", "required")
	}

	if !lang.CompileEnabled {
		return Outcome{OK: true, ArtifactPath: sourcePath}, nil
	}

	argv, err := profile.BuildCommand(lang.CompileCmdTpl, lang)
	if err != nil {
		return Outcome{}, err
	}

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, argv[0], argv[1:]...)
	cmd.Dir = ws.Root
	cmd.Env = append(os.Environ(), lang.Env...)
	proc.SetProcessGroup(cmd)
	cmd.Cancel = func() error {
		proc.KillGroup(cmd.Process.Pid)
		return nil
	}

	combined := capture.NewBuffer(c.logMaxBytes)
	cmd.Stdout = combined
	cmd.Stderr = combined

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start).Milliseconds()

	outcome := Outcome{
		ExitCode:    exitCode(runErr, cmd),
		TimeMs:      elapsed,
		TimedOut:    errors.Is(cctx.Err(), context.DeadlineExceeded),
		Diagnostics: combined.String(),
	}

	if runErr != nil && outcome.ExitCode == 0 && !outcome.TimedOut {
		// Spawn failure (missing toolchain, permission): engine fault.
		return Outcome{}, appErr.Wrapf(runErr, appErr.JudgeSystemError, "start compiler failed")
	}

	artifact := filepath.Join(ws.Root, lang.BinaryFile)
	if !outcome.TimedOut && outcome.ExitCode == 0 && artifactExists(artifact) {
		outcome.OK = true
		outcome.ArtifactPath = artifact
	}
	if outcome.TimedOut {
		logger.Warn(ctx, "compile ceiling exceeded",
			zap.String("language", lang.ID), zap.Duration("ceiling", c.timeout))
	}

	c.metrics.ObserveCompile(ctx, lang.ID, outcome.OK, outcome.TimeMs)
	return outcome, nil
}

func artifactExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
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
	return 0
}
