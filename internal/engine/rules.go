package engine

import (
	"math"
	"time"

	"techco/internal/config"
)

// CompletionMinutes is the estimated wall-clock duration for a developer of
// the given seniority to finish a project of the given complexity. Seniority
// discounts the base linearly, floored at the configured minimum.
func CompletionMinutes(r *config.Rules, complexity, seniority int) int {
	base := float64(complexity * r.Projects.BaseMinutesPerComplexity)
	factor := 1 - r.Projects.SeniorityDiscount*float64(seniority-1)
	minutes := int(math.Round(base * factor))
	if minutes < r.Projects.MinMinutes {
		minutes = r.Projects.MinMinutes
	}
	return minutes
}

// GenerationMinutes is how long a salesperson of the given experience needs
// to bring in a new project.
func GenerationMinutes(r *config.Rules, experience int) int {
	minutes := r.Generation.BaseMinutes - (experience-1)*r.Generation.MinutesPerExperience
	if minutes < r.Generation.MinMinutes {
		minutes = r.Generation.MinMinutes
	}
	return minutes
}

// ProjectValue is the default payout for a manually created project.
func ProjectValue(r *config.Rules, complexity int) float64 {
	return r.Projects.ValuePerComplexity[complexity]
}

// CanAccept reports whether a developer may take on a project. Only the
// lowest seniority tier is restricted.
func CanAccept(r *config.Rules, seniority, complexity int) bool {
	if seniority <= 1 {
		return complexity <= r.Projects.JuniorMaxComplexity
	}
	return true
}

// Progress returns completion progress as a percentage in [0, 100] based on
// wall-clock position inside the [started, estimated] window. A degenerate
// or inverted window counts as done.
func Progress(now, started, estimated time.Time) float64 {
	window := estimated.Sub(started)
	if window <= 0 {
		return 100
	}
	pct := 100 * float64(now.Sub(started)) / float64(window)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// SecondsRemaining returns whole seconds until the deadline, negative once
// it has passed.
func SecondsRemaining(now, estimated time.Time) int64 {
	return int64(estimated.Sub(now) / time.Second)
}
