package engine_test

import (
	"testing"
	"time"

	"techco/internal/config"
	"techco/internal/engine"
)

func TestCompletionMinutes(t *testing.T) {
	r := config.Default()
	cases := []struct {
		complexity, seniority, want int
	}{
		{1, 1, 30},
		{2, 3, 42},  // 60 * 0.7
		{5, 1, 150}, // junior gets no discount
		{5, 5, 60},  // 150 * 0.4
		{1, 5, 12},  // 30 * 0.4
	}
	for _, c := range cases {
		got := engine.CompletionMinutes(r, c.complexity, c.seniority)
		if got != c.want {
			t.Errorf("CompletionMinutes(%d, %d) = %d, want %d", c.complexity, c.seniority, got, c.want)
		}
	}
}

func TestCompletionMinutesFloor(t *testing.T) {
	r := config.Default()
	r.Projects.BaseMinutesPerComplexity = 1
	if got := engine.CompletionMinutes(r, 1, 5); got != r.Projects.MinMinutes {
		t.Fatalf("got %d, want floor %d", got, r.Projects.MinMinutes)
	}
}

func TestGenerationMinutes(t *testing.T) {
	r := config.Default()
	cases := []struct{ experience, want int }{
		{1, 60},
		{3, 40},
		{5, 20},
	}
	for _, c := range cases {
		if got := engine.GenerationMinutes(r, c.experience); got != c.want {
			t.Errorf("GenerationMinutes(%d) = %d, want %d", c.experience, got, c.want)
		}
	}
	// never below the floor no matter the experience
	r.Generation.MinutesPerExperience = 30
	if got := engine.GenerationMinutes(r, 5); got != r.Generation.MinMinutes {
		t.Fatalf("got %d, want floor %d", got, r.Generation.MinMinutes)
	}
}

func TestCanAccept(t *testing.T) {
	r := config.Default()
	if !engine.CanAccept(r, 1, 3) {
		t.Error("junior should accept complexity 3")
	}
	if engine.CanAccept(r, 1, 4) {
		t.Error("junior should reject complexity 4")
	}
	if !engine.CanAccept(r, 2, 5) {
		t.Error("seniority 2 should accept anything")
	}
}

func TestProgressClamps(t *testing.T) {
	started := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	estimated := started.Add(time.Hour)

	if got := engine.Progress(started.Add(30*time.Minute), started, estimated); got != 50 {
		t.Errorf("midpoint = %v, want 50", got)
	}
	if got := engine.Progress(started.Add(-time.Minute), started, estimated); got != 0 {
		t.Errorf("before start = %v, want 0", got)
	}
	if got := engine.Progress(started.Add(2*time.Hour), started, estimated); got != 100 {
		t.Errorf("past deadline = %v, want 100", got)
	}
	// degenerate window reads as done
	if got := engine.Progress(started, started, started); got != 100 {
		t.Errorf("zero window = %v, want 100", got)
	}
}

func TestSecondsRemaining(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	if got := engine.SecondsRemaining(now, now.Add(90*time.Second)); got != 90 {
		t.Errorf("got %d, want 90", got)
	}
	if got := engine.SecondsRemaining(now, now.Add(-time.Minute)); got != -60 {
		t.Errorf("got %d, want -60", got)
	}
}
