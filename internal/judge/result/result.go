// Package result defines judge statuses, verdicts and result structures.
package result

// JudgeStatus represents the lifecycle state of one judge task.
type JudgeStatus string

const (
	StatusPending    JudgeStatus = "Pending"
	StatusCompiling  JudgeStatus = "Compiling"
	StatusRunning    JudgeStatus = "Running"
	StatusAggregated JudgeStatus = "Aggregated"
	StatusFailed     JudgeStatus = "Failed"
)

// Verdict represents the outcome of a test case or a whole task.
type Verdict string

const (
	VerdictAC  Verdict = "AC"
	VerdictPE  Verdict = "PE"
	VerdictWA  Verdict = "WA"
	VerdictTLE Verdict = "TLE"
	VerdictMLE Verdict = "MLE"
	VerdictRE  Verdict = "RE"
	VerdictCE  Verdict = "CE"
	VerdictSE  Verdict = "SE"
)

// TestCaseResult contains per-testcase execution outcomes.
// Results are appended in declared test order and never mutated afterward.
type TestCaseResult struct {
	TestID   string  `json:"test_id"`
	Verdict  Verdict `json:"verdict"`
	TimeMs   int64   `json:"time_ms"`
	MemoryKB int64   `json:"memory_kb"`
	ExitCode int     `json:"exit_code"`
	// Output holds the (size-bounded) actual output for diagnostics.
	Output string `json:"output,omitempty"`
	Score  int    `json:"score"`
}

// SummaryStat captures aggregate statistics across executed test cases.
type SummaryStat struct {
	MaxTimeMs         int64  `json:"max_time_ms"`
	MaxMemoryKB       int64  `json:"max_memory_kb"`
	TotalScore        int    `json:"total_score"`
	FirstFailedTestID string `json:"first_failed_test_id,omitempty"`
}

// JudgeResult is the terminal aggregate returned to the calling system.
type JudgeResult struct {
	TaskID     string           `json:"task_id"`
	Status     JudgeStatus      `json:"status"`
	Verdict    Verdict          `json:"verdict"`
	Score      int              `json:"score"`
	Language   string           `json:"language"`
	CompileLog string           `json:"compile_log,omitempty"`
	Tests      []TestCaseResult `json:"tests"`
	Summary    SummaryStat      `json:"summary"`
}
