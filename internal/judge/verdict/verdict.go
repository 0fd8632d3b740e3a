// Package verdict compares submission output against expected output.
package verdict

import (
	"strings"

	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/result"
)

// DefaultPEScoreFactor is the fraction of a case's points awarded on a
// presentation error. The calling system may override it.
const DefaultPEScoreFactor = 0.8

// Outcome is the per-case comparison decision.
type Outcome struct {
	Verdict     result.Verdict
	ScoreFactor float64
}

// Comparer decides the verdict for one pair of outputs.
type Comparer interface {
	Compare(actual, expected string) Outcome
}

// Engine implements the comparison policy:
// exact match (modulo trailing whitespace at the very end) wins, then a
// whitespace-normalized match downgrades to PE, everything else is WA.
type Engine struct {
	peScoreFactor float64
}

// NewEngine creates a comparer. Factors outside (0, 1] fall back to the
// default.
func NewEngine(peScoreFactor float64) *Engine {
	if peScoreFactor <= 0 || peScoreFactor > 1 {
		peScoreFactor = DefaultPEScoreFactor
	}
	return &Engine{peScoreFactor: peScoreFactor}
}

// Compare applies the ordered comparison rules. A normalized-but-not-exact
// match is never promoted to AC.
func (e *Engine) Compare(actual, expected string) Outcome {
	if trimTrailing(actual) == trimTrailing(expected) {
		return Outcome{Verdict: result.VerdictAC, ScoreFactor: 1}
	}
	if normalize(actual) == normalize(expected) {
		return Outcome{Verdict: result.VerdictPE, ScoreFactor: e.peScoreFactor}
	}
	return Outcome{Verdict: result.VerdictWA, ScoreFactor: 0}
}

// trimTrailing strips whitespace only from the very end of the whole output.
// Interior whitespace stays significant.
func trimTrailing(s string) string {
	return strings.TrimRight(s, " \t\r\n")
}

// normalize collapses every run of whitespace to a single space.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
