package compiler_test

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/compiler"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/profile"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/workspace"
	appErr "github.com/DGSSZ-PLIELab/SSL-OJ-sub000/pkg/errors"
)

func requirePOSIX(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires POSIX tools")
	}
}

func newWorkspace(t *testing.T, lang profile.LanguageProfile, code string) (*workspace.Manager, workspace.Workspace, string) {
	t.Helper()
	mgr, err := workspace.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	ws, err := mgr.Create("compile-test")
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	srcPath, err := mgr.WriteSource(ws, lang, code)
	if err != nil {
		t.Fatalf("write source: %v", err)
	}
	return mgr, ws, srcPath
}

func TestCompileInterpretedPassThrough(t *testing.T) {
	lang := profile.LanguageProfile{ID: "python", SourceFile: "main.py", CompileEnabled: false}
	_, ws, srcPath := newWorkspace(t, lang, "print(1)")

	outcome, err := compiler.New().Compile(context.Background(), ws, lang, srcPath)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !outcome.OK {
		t.Fatal("interpreted language must pass through")
	}
	if outcome.ArtifactPath != srcPath {
		t.Fatalf("artifact must be the source itself, got %s", outcome.ArtifactPath)
	}
}

func TestCompileProducesArtifact(t *testing.T) {
	requirePOSIX(t)
	lang := profile.LanguageProfile{
		ID:             "copy",
		SourceFile:     "main.txt",
		BinaryFile:     "main",
		CompileEnabled: true,
		CompileCmdTpl:  "cp {src} {bin}",
	}
	_, ws, srcPath := newWorkspace(t, lang, "payload")

	outcome, err := compiler.New().Compile(context.Background(), ws, lang, srcPath)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !outcome.OK {
		t.Fatalf("expected success, outcome: %+v", outcome)
	}
	if outcome.ExitCode != 0 {
		t.Fatalf("exit code %d", outcome.ExitCode)
	}
	if outcome.ArtifactPath == "" {
		t.Fatal("missing artifact path")
	}
}

func TestCompileZeroExitWithoutArtifactFails(t *testing.T) {
	requirePOSIX(t)
	// "true" exits zero but produces nothing; a zero exit alone is not
	// trusted.
	lang := profile.LanguageProfile{
		ID:             "noop",
		SourceFile:     "main.txt",
		BinaryFile:     "main",
		CompileEnabled: true,
		CompileCmdTpl:  "true",
	}
	_, ws, srcPath := newWorkspace(t, lang, "x")

	outcome, err := compiler.New().Compile(context.Background(), ws, lang, srcPath)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if outcome.OK {
		t.Fatal("success requires the artifact on disk")
	}
	if outcome.ExitCode != 0 {
		t.Fatalf("exit code %d", outcome.ExitCode)
	}
}

func TestCompileFailureCapturesDiagnostics(t *testing.T) {
	requirePOSIX(t)
	lang := profile.LanguageProfile{
		ID:             "badcopy",
		SourceFile:     "main.txt",
		BinaryFile:     "main",
		CompileEnabled: true,
		CompileCmdTpl:  "cp {src} /nonexistent-judge-dir/main",
	}
	_, ws, srcPath := newWorkspace(t, lang, "x")

	outcome, err := compiler.New().Compile(context.Background(), ws, lang, srcPath)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if outcome.OK {
		t.Fatal("expected failure")
	}
	if outcome.ExitCode == 0 {
		t.Fatal("expected non-zero exit")
	}
	if strings.TrimSpace(outcome.Diagnostics) == "" {
		t.Fatal("expected captured diagnostics")
	}
}

func TestCompileCeilingKillsSlowToolchain(t *testing.T) {
	requirePOSIX(t)
	lang := profile.LanguageProfile{
		ID:             "slow",
		SourceFile:     "main.txt",
		BinaryFile:     "main",
		CompileEnabled: true,
		CompileCmdTpl:  "sleep 5",
	}
	_, ws, srcPath := newWorkspace(t, lang, "x")

	start := time.Now()
	outcome, err := compiler.New(compiler.WithTimeout(100 * time.Millisecond)).Compile(context.Background(), ws, lang, srcPath)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !outcome.TimedOut {
		t.Fatalf("expected timeout, outcome: %+v", outcome)
	}
	if outcome.OK {
		t.Fatal("timed-out compile must not succeed")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("ceiling not enforced, took %s", elapsed)
	}
}

func TestCompileMissingToolchainIsSystemError(t *testing.T) {
	lang := profile.LanguageProfile{
		ID:             "ghost",
		SourceFile:     "main.txt",
		BinaryFile:     "main",
		CompileEnabled: true,
		CompileCmdTpl:  "no-such-compiler-zz {src}",
	}
	_, ws, srcPath := newWorkspace(t, lang, "x")

	_, err := compiler.New().Compile(context.Background(), ws, lang, srcPath)
	if !appErr.Is(err, appErr.JudgeSystemError) {
		t.Fatalf("expected JudgeSystemError, got %v", err)
	}
}
