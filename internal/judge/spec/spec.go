// Package spec defines the resource limits applied to judged processes.
package spec

import "math"

// ResourceLimit describes the base limits declared by the problem author.
type ResourceLimit struct {
	TimeLimitMs   int64 `yaml:"timeLimitMs"`
	MemoryLimitMB int64 `yaml:"memoryLimitMB"`
}

// Scale applies per-language overhead multipliers and returns the effective
// limits. Multipliers below 1 are treated as 1 so a language can never be
// granted less than the declared budget.
func (l ResourceLimit) Scale(timeMultiplier, memoryMultiplier float64) ResourceLimit {
	return ResourceLimit{
		TimeLimitMs:   scale(l.TimeLimitMs, timeMultiplier),
		MemoryLimitMB: scale(l.MemoryLimitMB, memoryMultiplier),
	}
}

func scale(value int64, multiplier float64) int64 {
	if value <= 0 {
		return 0
	}
	if multiplier <= 1 {
		return value
	}
	return int64(math.Ceil(float64(value) * multiplier))
}
