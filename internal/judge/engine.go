package judge

import (
	"context"

	"go.uber.org/zap"

	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/compiler"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/profile"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/result"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/sandbox"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/spec"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/workspace"
	appErr "github.com/DGSSZ-PLIELab/SSL-OJ-sub000/pkg/errors"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/pkg/utils/contextkey"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/pkg/utils/logger"
)

// CompilerStage produces a runnable artifact from submitted source.
type CompilerStage interface {
	Compile(ctx context.Context, ws workspace.Workspace, lang profile.LanguageProfile, sourcePath string) (compiler.Outcome, error)
}

// CaseRunner executes one test case inside the workspace.
type CaseRunner interface {
	Run(ctx context.Context, req sandbox.RunRequest) (result.TestCaseResult, error)
}

// Engine is the judging pipeline entry point. It is safe for concurrent use:
// tasks share nothing but the read-only language registry.
type Engine struct {
	registry       *profile.Registry
	workspaces     *workspace.Manager
	compiler       CompilerStage
	runner         CaseRunner
	tracker        *sandbox.Tracker
	reporter       StatusReporter
	maxSourceBytes int64
}

// NewEngine assembles the pipeline from its stages.
func NewEngine(registry *profile.Registry, workspaces *workspace.Manager, compilerStage CompilerStage, runner CaseRunner, tracker *sandbox.Tracker) *Engine {
	if tracker == nil {
		tracker = sandbox.NewTracker()
	}
	return &Engine{
		registry:       registry,
		workspaces:     workspaces,
		compiler:       compilerStage,
		runner:         runner,
		tracker:        tracker,
		maxSourceBytes: DefaultMaxSourceBytes,
	}
}

// SetStatusReporter injects a reporter for intermediate updates.
func (e *Engine) SetStatusReporter(reporter StatusReporter) {
	e.reporter = reporter
}

// SetMaxSourceBytes overrides the accepted source length bound.
func (e *Engine) SetMaxSourceBytes(n int64) {
	if n > 0 {
		e.maxSourceBytes = n
	}
}

// Kill terminates all live child processes of an in-flight task, e.g. when
// a rejudge supersedes a pending judge. The task's Judge call returns a
// JudgeCanceled error.
func (e *Engine) Kill(ctx context.Context, taskID string) error {
	if taskID == "" {
		return appErr.ValidationError("task_id", "required")
	}
	logger.Info(ctx, "killing task", zap.String("task_id", taskID))
	e.tracker.Kill(taskID)
	return nil
}

// Judge runs one task to completion and returns its aggregate result.
//
// Pre-flight failures (unsupported language, workspace allocation) are
// returned as errors before any process is spawned. Everything after that
// surfaces in-band as a verdict; a malfunctioning submission must never take
// down the process hosting the engine.
func (e *Engine) Judge(ctx context.Context, task Task) (res result.JudgeResult, err error) {
	if verr := validateTask(task, e.maxSourceBytes); verr != nil {
		return result.JudgeResult{}, verr
	}
	ctx = contextkey.WithTaskID(ctx, task.TaskID)

	lang, rerr := e.registry.Resolve(task.LanguageID)
	if rerr != nil {
		return result.JudgeResult{}, rerr
	}

	ws, werr := e.workspaces.Create(task.TaskID)
	if werr != nil {
		return result.JudgeResult{}, werr
	}

	res = result.JudgeResult{
		TaskID:   task.TaskID,
		Status:   result.StatusPending,
		Language: lang.ID,
		Tests:    []result.TestCaseResult{},
	}

	// Teardown runs on every exit path, exactly once per task.
	defer e.tracker.Forget(task.TaskID)
	defer e.workspaces.Destroy(ctx, ws)
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "judge stage panicked", zap.Any("panic", r))
			res.Status = result.StatusAggregated
			res.Verdict = result.VerdictSE
			res.Score = 0
			res.Summary.TotalScore = 0
			err = nil
		}
	}()

	srcPath, serr := e.workspaces.WriteSource(ws, lang, task.SourceCode)
	if serr != nil {
		return e.systemFailure(ctx, res, "write source failed", serr), nil
	}

	res.Status = result.StatusCompiling
	e.reportStatus(ctx, task, result.StatusCompiling, len(task.Tests), 0)

	outcome, cerr := e.compiler.Compile(ctx, ws, lang, srcPath)
	if ctx.Err() != nil {
		res.Status = result.StatusFailed
		return res, appErr.Wrapf(ctx.Err(), appErr.JudgeCanceled, "task canceled during compile: %s", task.TaskID)
	}
	if cerr != nil {
		return e.systemFailure(ctx, res, "compile stage failed", cerr), nil
	}
	res.CompileLog = outcome.Diagnostics
	if !outcome.OK {
		res.Status = result.StatusAggregated
		res.Verdict = result.VerdictCE
		res.Score = 0
		e.reportStatus(ctx, task, result.StatusAggregated, len(task.Tests), 0)
		return res, nil
	}

	res.Status = result.StatusRunning
	baseLimits := spec.ResourceLimit{TimeLimitMs: task.TimeLimitMs, MemoryLimitMB: task.MemoryLimitMB}
	overall := result.Verdict("")

	for i, tc := range task.Tests {
		if ctx.Err() != nil {
			res.Status = result.StatusFailed
			return res, appErr.Wrapf(ctx.Err(), appErr.JudgeCanceled, "task canceled: %s", task.TaskID)
		}
		if e.tracker.Killed(task.TaskID) {
			res.Status = result.StatusFailed
			return res, appErr.Newf(appErr.JudgeCanceled, "task killed: %s", task.TaskID)
		}

		e.reportStatus(ctx, task, result.StatusRunning, len(task.Tests), i)

		id := testID(tc, i)
		runReq := sandbox.RunRequest{
			TaskID:    task.TaskID,
			TestID:    id,
			Language:  lang,
			Workspace: ws,
			Input:     tc.Input,
			Expected:  tc.Expected,
			Score:     tc.Score,
			Limits:    baseLimits,
		}

		tcRes, runErr := e.runner.Run(ctx, runReq)
		if runErr != nil {
			if appErr.Is(runErr, appErr.JudgeCanceled) {
				res.Status = result.StatusFailed
				return res, runErr
			}
			// Engine-internal fault: SE for this case, judging continues.
			logger.Warn(ctx, "test case run failed", zap.String("test_id", id), zap.Error(runErr))
			tcRes = result.TestCaseResult{TestID: id, Verdict: result.VerdictSE}
		}

		res.Tests = append(res.Tests, tcRes)
		if tcRes.TimeMs > res.Summary.MaxTimeMs {
			res.Summary.MaxTimeMs = tcRes.TimeMs
		}
		if tcRes.MemoryKB > res.Summary.MaxMemoryKB {
			res.Summary.MaxMemoryKB = tcRes.MemoryKB
		}
		if tcRes.Verdict != result.VerdictAC && overall == "" {
			overall = tcRes.Verdict
			res.Summary.FirstFailedTestID = tcRes.TestID
		}
		if task.Policy == PolicyACM && tcRes.Verdict != result.VerdictAC {
			break
		}
	}

	if overall == "" {
		overall = result.VerdictAC
	}
	res.Verdict = overall
	res.Score = totalScore(task.Policy, overall, res.Tests)
	res.Summary.TotalScore = res.Score
	res.Status = result.StatusAggregated
	e.reportStatus(ctx, task, result.StatusAggregated, len(task.Tests), len(res.Tests))
	return res, nil
}

// totalScore applies the scoring policy: ACM caps at zero on any failure,
// OI sums partial credit across all cases.
func totalScore(policy ScoringPolicy, overall result.Verdict, tests []result.TestCaseResult) int {
	if policy == PolicyACM && overall != result.VerdictAC {
		return 0
	}
	total := 0
	for _, tc := range tests {
		total += tc.Score
	}
	return total
}

func (e *Engine) systemFailure(ctx context.Context, res result.JudgeResult, msg string, err error) result.JudgeResult {
	logger.Error(ctx, msg, zap.Error(err))
	res.Status = result.StatusAggregated
	res.Verdict = result.VerdictSE
	res.Score = 0
	res.Summary.TotalScore = 0
	return res
}
