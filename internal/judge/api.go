// Package judge orchestrates the judging pipeline: workspace setup,
// compilation, per-test-case execution, verdict aggregation and teardown.
package judge

import (
	"strconv"

	appErr "github.com/DGSSZ-PLIELab/SSL-OJ-sub000/pkg/errors"
)

// ScoringPolicy selects how per-case results combine into a total score.
// The calling system chooses the policy per task; the engine never infers it.
type ScoringPolicy string

const (
	// PolicyACM caps the total at zero on any failing case and stops
	// issuing further cases after the first failure.
	PolicyACM ScoringPolicy = "acm"
	// PolicyOI runs every case and awards partial credit per case.
	PolicyOI ScoringPolicy = "oi"
)

// DefaultMaxSourceBytes bounds accepted source code length.
const DefaultMaxSourceBytes = 256 * 1024

// TestCase is one input/expected-output pair with its point value.
type TestCase struct {
	ID       string `yaml:"id"`
	Input    string `yaml:"input"`
	Expected string `yaml:"expected"`
	Score    int    `yaml:"score"`
}

// Task is the immutable input to one judging run.
type Task struct {
	TaskID     string `yaml:"taskId"`
	LanguageID string `yaml:"language"`
	SourceCode string `yaml:"source"`
	// TimeLimitMs and MemoryLimitMB are the problem's base limits, before
	// the per-language multiplier.
	TimeLimitMs   int64         `yaml:"timeLimitMs"`
	MemoryLimitMB int64         `yaml:"memoryLimitMB"`
	Policy        ScoringPolicy `yaml:"policy"`
	Tests         []TestCase    `yaml:"tests"`
}

func validateTask(task Task, maxSourceBytes int64) error {
	if task.TaskID == "" {
		return appErr.ValidationError("task_id", "required")
	}
	if task.LanguageID == "" {
		return appErr.ValidationError("language_id", "required")
	}
	if task.SourceCode == "" {
		return appErr.ValidationError("source", "required")
	}
	if maxSourceBytes > 0 && int64(len(task.SourceCode)) > maxSourceBytes {
		return appErr.Newf(appErr.InvalidParams, "source exceeds %d bytes", maxSourceBytes)
	}
	if task.TimeLimitMs <= 0 {
		return appErr.ValidationError("time_limit_ms", "must be positive")
	}
	if task.MemoryLimitMB < 0 {
		return appErr.ValidationError("memory_limit_mb", "must not be negative")
	}
	if len(task.Tests) == 0 {
		return appErr.ValidationError("tests", "at least one test case is required")
	}
	switch task.Policy {
	case PolicyACM, PolicyOI:
	default:
		return appErr.Newf(appErr.InvalidParams, "unknown scoring policy: %s", task.Policy)
	}
	return nil
}

// testID returns the declared case ID or a 1-based positional fallback.
func testID(tc TestCase, index int) string {
	if tc.ID != "" {
		return tc.ID
	}
	return strconv.Itoa(index + 1)
}
