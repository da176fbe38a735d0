package engine_test

import (
	"context"
	"testing"
	"time"

	"techco/internal/config"
	"techco/internal/db"
	"techco/internal/domain"
	"techco/internal/engine"
	"techco/internal/migrate"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
	Game   domain.Game
	Clock  *time.Time
}

// Advance moves the frozen clock forward.
func (env *testEnv) Advance(d time.Duration) {
	*env.Clock = env.Clock.Add(d)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(conn, config.Default())
	clock := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	eng.Now = func() time.Time { return clock }
	// always draw the bottom of any band so amounts are predictable
	eng.Uniform = func(min, max float64) float64 { return min }
	ctx := context.Background()
	g, err := eng.CreateGame(ctx, engine.CreateGameOptions{OwnerID: "tester", Name: "Test Co"})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	return &testEnv{Engine: eng, Ctx: ctx, Game: g, Clock: &clock}
}

func (env *testEnv) hireDev(t *testing.T, seniority int) domain.Developer {
	t.Helper()
	d, err := env.Engine.HireDeveloper(env.Ctx, env.Game.ID, engine.HireOptions{
		Name: "Dev", Level: seniority, ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("hire developer: %v", err)
	}
	return d
}

func (env *testEnv) hireSales(t *testing.T, experience int) domain.SalesPerson {
	t.Helper()
	s, err := env.Engine.HireSalesPerson(env.Ctx, env.Game.ID, engine.HireOptions{
		Name: "Sales", Level: experience, ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("hire salesperson: %v", err)
	}
	return s
}

func (env *testEnv) createProject(t *testing.T, complexity int) domain.Project {
	t.Helper()
	p, err := env.Engine.CreateProject(env.Ctx, env.Game.ID, engine.CreateProjectOptions{
		Name: "Project", Complexity: complexity, ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p
}

func TestCreateGameSeedsMoney(t *testing.T) {
	env := newTestEnv(t)
	if env.Game.Money != 10000 {
		t.Fatalf("seed money = %v, want 10000", env.Game.Money)
	}
	if env.Game.Status != domain.GameActive {
		t.Fatalf("status = %q, want active", env.Game.Status)
	}
}

func TestHireDrawsMarketSalary(t *testing.T) {
	env := newTestEnv(t)
	d := env.hireDev(t, 2)
	want := config.Default().Salaries.Developer[2].Min
	if d.MonthlySalary != want {
		t.Fatalf("salary = %v, want band minimum %v", d.MonthlySalary, want)
	}
	if d.IsBusy {
		t.Fatal("new hire should not be busy")
	}
	// explicit salary wins over the market draw
	d2, err := env.Engine.HireDeveloper(env.Ctx, env.Game.ID, engine.HireOptions{
		Name: "Dev2", Level: 2, MonthlySalary: 1234, ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("hire with salary: %v", err)
	}
	if d2.MonthlySalary != 1234 {
		t.Fatalf("explicit salary = %v, want 1234", d2.MonthlySalary)
	}
}

func TestHireRejectsBadLevel(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.HireDeveloper(env.Ctx, env.Game.ID, engine.HireOptions{Name: "x", Level: 0}); err == nil {
		t.Fatal("expected error for seniority 0")
	}
	if _, err := env.Engine.HireSalesPerson(env.Ctx, env.Game.ID, engine.HireOptions{Name: "x", Level: 6}); err == nil {
		t.Fatal("expected error for experience 6")
	}
}

func TestCreateProjectDefaultsValue(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProject(t, 3)
	if p.Value != 5000 {
		t.Fatalf("value = %v, want 5000", p.Value)
	}
	if p.Status != domain.ProjectPending {
		t.Fatalf("status = %q, want pending", p.Status)
	}
	if p.DifficultyMultiplier != 1 {
		t.Fatalf("difficulty multiplier = %v, want 1", p.DifficultyMultiplier)
	}
}

func TestAssignSchedulesCompletion(t *testing.T) {
	env := newTestEnv(t)
	d := env.hireDev(t, 3)
	p := env.createProject(t, 2)

	p, err := env.Engine.AssignProject(env.Ctx, env.Game.ID, p.ID, d.ID, "tester")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if p.Status != domain.ProjectInProgress {
		t.Fatalf("status = %q, want in_progress", p.Status)
	}
	// complexity 2 at 30 min/level with a 15% discount per seniority step
	// above junior: round(60 * 0.7) = 42
	if p.EstimatedMinutes == nil || *p.EstimatedMinutes != 42 {
		t.Fatalf("estimated minutes = %v, want 42", p.EstimatedMinutes)
	}
	wantDeadline := env.Clock.Add(42 * time.Minute).Format(time.RFC3339)
	if p.EstimatedCompletionAt == nil || *p.EstimatedCompletionAt != wantDeadline {
		t.Fatalf("deadline = %v, want %s", p.EstimatedCompletionAt, wantDeadline)
	}
	d, err = env.Engine.Repo.GetDeveloper(env.Ctx, d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !d.IsBusy {
		t.Fatal("developer should be busy after assignment")
	}
}

func TestAssignDeclines(t *testing.T) {
	env := newTestEnv(t)
	junior := env.hireDev(t, 1)
	hard := env.createProject(t, 4)

	_, err := env.Engine.AssignProject(env.Ctx, env.Game.ID, hard.ID, junior.ID, "tester")
	if !engine.IsDeclined(err, engine.ReasonInsufficientSeniority) {
		t.Fatalf("want insufficient_seniority decline, got %v", err)
	}

	// junior max complexity is 3, so this one is fine
	easy := env.createProject(t, 3)
	if _, err := env.Engine.AssignProject(env.Ctx, env.Game.ID, easy.ID, junior.ID, "tester"); err != nil {
		t.Fatalf("assign complexity 3 to junior: %v", err)
	}

	// busy developer cannot take a second project
	other := env.createProject(t, 1)
	_, err = env.Engine.AssignProject(env.Ctx, env.Game.ID, other.ID, junior.ID, "tester")
	if !engine.IsDeclined(err, engine.ReasonAlreadyBusy) {
		t.Fatalf("want already_busy decline, got %v", err)
	}

	// an in_progress project cannot be assigned again
	free := env.hireDev(t, 5)
	_, err = env.Engine.AssignProject(env.Ctx, env.Game.ID, easy.ID, free.ID, "tester")
	if !engine.IsDeclined(err, engine.ReasonNotPending) {
		t.Fatalf("want not_pending decline, got %v", err)
	}
}

func TestAssignWrongGame(t *testing.T) {
	env := newTestEnv(t)
	other, err := env.Engine.CreateGame(env.Ctx, engine.CreateGameOptions{OwnerID: "tester", Name: "Other"})
	if err != nil {
		t.Fatal(err)
	}
	d := env.hireDev(t, 3)
	p := env.createProject(t, 1)
	_, err = env.Engine.AssignProject(env.Ctx, other.ID, p.ID, d.ID, "tester")
	if !engine.IsDeclined(err, engine.ReasonWrongGame) {
		t.Fatalf("want wrong_game decline, got %v", err)
	}
}

func TestEvaluateIsReadOnly(t *testing.T) {
	env := newTestEnv(t)
	d := env.hireDev(t, 3)
	p := env.createProject(t, 2)
	p, err := env.Engine.AssignProject(env.Ctx, env.Game.ID, p.ID, d.ID, "tester")
	if err != nil {
		t.Fatal(err)
	}

	env.Advance(21 * time.Minute) // halfway through the 42-minute window
	_, eval, err := env.Engine.EvaluateProject(env.Ctx, env.Game.ID, p.ID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if eval.Ready {
		t.Fatal("should not be ready at the halfway point")
	}
	if eval.Progress < 49 || eval.Progress > 51 {
		t.Fatalf("progress = %v, want ~50", eval.Progress)
	}

	// evaluating twice changes nothing
	before, err := env.Engine.Repo.GetProject(env.Ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := env.Engine.EvaluateProject(env.Ctx, env.Game.ID, p.ID); err != nil {
		t.Fatal(err)
	}
	after, err := env.Engine.Repo.GetProject(env.Ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if after.Status != before.Status || *after.EstimatedCompletionAt != *before.EstimatedCompletionAt || after.ActualMinutes != nil {
		t.Fatalf("evaluate mutated the project: %+v != %+v", before, after)
	}

	env.Advance(25 * time.Minute) // well past the deadline
	_, eval, err = env.Engine.EvaluateProject(env.Ctx, env.Game.ID, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !eval.Ready || eval.Progress != 100 {
		t.Fatalf("past deadline: ready=%v progress=%v", eval.Ready, eval.Progress)
	}
}

func TestCompleteProjectPaysOut(t *testing.T) {
	env := newTestEnv(t)
	d := env.hireDev(t, 3)
	p := env.createProject(t, 2) // worth 2500
	p, err := env.Engine.AssignProject(env.Ctx, env.Game.ID, p.ID, d.ID, "tester")
	if err != nil {
		t.Fatal(err)
	}

	env.Advance(45 * time.Minute)
	p, err = env.Engine.CompleteProject(env.Ctx, env.Game.ID, p.ID, "tester")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if p.Status != domain.ProjectCompleted {
		t.Fatalf("status = %q, want completed", p.Status)
	}
	if p.ActualMinutes == nil || *p.ActualMinutes != 45 {
		t.Fatalf("actual minutes = %v, want 45", p.ActualMinutes)
	}

	g, err := env.Engine.Repo.GetGame(env.Ctx, env.Game.ID)
	if err != nil {
		t.Fatal(err)
	}
	if g.Money != 12500 {
		t.Fatalf("money = %v, want 12500", g.Money)
	}
	d, err = env.Engine.Repo.GetDeveloper(env.Ctx, d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if d.IsBusy {
		t.Fatal("developer should be free after completion")
	}
	if d.ProjectsCompleted != 1 {
		t.Fatalf("projects completed = %d, want 1", d.ProjectsCompleted)
	}

	// a second completion is declined
	_, err = env.Engine.CompleteProject(env.Ctx, env.Game.ID, p.ID, "tester")
	if !engine.IsDeclined(err, engine.ReasonNotInProgress) {
		t.Fatalf("want not_in_progress decline, got %v", err)
	}
}

func TestUnassignRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	d := env.hireDev(t, 3)
	p := env.createProject(t, 2)
	p, err := env.Engine.AssignProject(env.Ctx, env.Game.ID, p.ID, d.ID, "tester")
	if err != nil {
		t.Fatal(err)
	}

	p, err = env.Engine.UnassignProject(env.Ctx, env.Game.ID, p.ID, "tester")
	if err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if p.Status != domain.ProjectPending {
		t.Fatalf("status = %q, want pending", p.Status)
	}
	if p.DeveloperID != nil || p.StartedAt != nil || p.EstimatedCompletionAt != nil {
		t.Fatalf("scheduling fields not cleared: %+v", p)
	}
	d, err = env.Engine.Repo.GetDeveloper(env.Ctx, d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if d.IsBusy {
		t.Fatal("developer should be free after unassign")
	}

	// the project can be picked up again
	if _, err := env.Engine.AssignProject(env.Ctx, env.Game.ID, p.ID, d.ID, "tester"); err != nil {
		t.Fatalf("reassign: %v", err)
	}
}

func TestCancelProject(t *testing.T) {
	env := newTestEnv(t)
	d := env.hireDev(t, 3)
	p := env.createProject(t, 2)
	p, err := env.Engine.AssignProject(env.Ctx, env.Game.ID, p.ID, d.ID, "tester")
	if err != nil {
		t.Fatal(err)
	}

	p, err = env.Engine.CancelProject(env.Ctx, env.Game.ID, p.ID, "client walked", "tester")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if p.Status != domain.ProjectCancelled {
		t.Fatalf("status = %q, want cancelled", p.Status)
	}
	if p.CancelReason != "client walked" {
		t.Fatalf("cancel reason = %q", p.CancelReason)
	}
	// who was working on it stays on record
	if p.DeveloperID == nil || *p.DeveloperID != d.ID {
		t.Fatalf("developer id = %v, want %s", p.DeveloperID, d.ID)
	}
	d, err = env.Engine.Repo.GetDeveloper(env.Ctx, d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if d.IsBusy {
		t.Fatal("developer should be freed by cancellation")
	}

	_, err = env.Engine.CancelProject(env.Ctx, env.Game.ID, p.ID, "", "tester")
	if !engine.IsDeclined(err, engine.ReasonAlreadyTerminal) {
		t.Fatalf("want already_terminal decline, got %v", err)
	}
}

func TestGenerationLifecycle(t *testing.T) {
	env := newTestEnv(t)
	s := env.hireSales(t, 3)

	gen, err := env.Engine.StartGeneration(env.Ctx, env.Game.ID, s.ID, engine.StartGenerationOptions{
		TargetName: "Acme Corp", TargetComplexity: 2, ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("start generation: %v", err)
	}
	// experience 3 shaves 20 minutes off the 60-minute base window
	wantDeadline := env.Clock.Add(40 * time.Minute).Format(time.RFC3339)
	if gen.EstimatedCompletionAt != wantDeadline {
		t.Fatalf("deadline = %q, want %q", gen.EstimatedCompletionAt, wantDeadline)
	}
	// value base 1000 * experience 3 * bottom-of-band jitter 0.8
	if gen.TargetValue != 2400 {
		t.Fatalf("target value = %v, want 2400", gen.TargetValue)
	}

	// the salesperson is out prospecting
	_, err = env.Engine.StartGeneration(env.Ctx, env.Game.ID, s.ID, engine.StartGenerationOptions{ActorID: "tester"})
	if !engine.IsDeclined(err, engine.ReasonAlreadyBusy) {
		t.Fatalf("want already_busy decline, got %v", err)
	}

	// completing early is allowed; readiness is advisory
	env.Advance(40 * time.Minute)
	_, eval, err := env.Engine.EvaluateGeneration(env.Ctx, env.Game.ID, gen.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !eval.Ready {
		t.Fatal("generation should be ready at its deadline")
	}

	gen, p, err := env.Engine.CompleteGeneration(env.Ctx, env.Game.ID, gen.ID, "tester")
	if err != nil {
		t.Fatalf("complete generation: %v", err)
	}
	if gen.Status != domain.GenerationCompleted {
		t.Fatalf("generation status = %q", gen.Status)
	}
	if p.Status != domain.ProjectPending || p.Complexity != 2 || p.Value != 2400 {
		t.Fatalf("delivered project = %+v", p)
	}
	if p.GeneratedBy == nil || *p.GeneratedBy != s.ID {
		t.Fatalf("generated_by = %v, want %s", p.GeneratedBy, s.ID)
	}
	s, err = env.Engine.Repo.GetSalesPerson(env.Ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if s.IsBusy {
		t.Fatal("salesperson should be free after delivery")
	}
	if s.ProjectsGenerated != 1 || s.TotalValueGenerated != 2400 {
		t.Fatalf("sales tallies = %d / %v", s.ProjectsGenerated, s.TotalValueGenerated)
	}
}

func TestCancelGeneration(t *testing.T) {
	env := newTestEnv(t)
	s := env.hireSales(t, 2)
	gen, err := env.Engine.StartGeneration(env.Ctx, env.Game.ID, s.ID, engine.StartGenerationOptions{ActorID: "tester"})
	if err != nil {
		t.Fatal(err)
	}
	gen, err = env.Engine.CancelGeneration(env.Ctx, env.Game.ID, gen.ID, "lead went cold", "tester")
	if err != nil {
		t.Fatalf("cancel generation: %v", err)
	}
	if gen.Status != domain.GenerationCancelled {
		t.Fatalf("status = %q", gen.Status)
	}
	s, err = env.Engine.Repo.GetSalesPerson(env.Ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if s.IsBusy {
		t.Fatal("salesperson should be released")
	}
	// no project was delivered
	if gen.GeneratedProjectID != nil {
		t.Fatalf("generated project id = %v", gen.GeneratedProjectID)
	}
}

func TestPauseResumeShiftsDeadlines(t *testing.T) {
	env := newTestEnv(t)
	d := env.hireDev(t, 3)
	p := env.createProject(t, 2)
	p, err := env.Engine.AssignProject(env.Ctx, env.Game.ID, p.ID, d.ID, "tester")
	if err != nil {
		t.Fatal(err)
	}
	originalDeadline := *p.EstimatedCompletionAt

	env.Advance(10 * time.Minute)
	g, err := env.Engine.Pause(env.Ctx, env.Game.ID, "tester")
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if g.Status != domain.GamePaused {
		t.Fatalf("status = %q, want paused", g.Status)
	}
	_, err = env.Engine.Pause(env.Ctx, env.Game.ID, "tester")
	if !engine.IsDeclined(err, engine.ReasonAlreadyPaused) {
		t.Fatalf("want already_paused decline, got %v", err)
	}

	// time-sensitive operations decline while paused
	p2 := env.createProject(t, 1)
	free := env.hireDev(t, 2)
	_, err = env.Engine.AssignProject(env.Ctx, env.Game.ID, p2.ID, free.ID, "tester")
	if !engine.IsDeclined(err, engine.ReasonGamePaused) {
		t.Fatalf("want game_paused decline, got %v", err)
	}

	env.Advance(200 * time.Second)
	g, err = env.Engine.Resume(env.Ctx, env.Game.ID, "tester")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if g.Status != domain.GameActive {
		t.Fatalf("status = %q, want active", g.Status)
	}
	if g.OfflineDurationSeconds != 200 {
		t.Fatalf("offline seconds = %d, want 200", g.OfflineDurationSeconds)
	}

	p, err = env.Engine.Repo.GetProject(env.Ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	orig, err := time.Parse(time.RFC3339, originalDeadline)
	if err != nil {
		t.Fatal(err)
	}
	want := orig.Add(200 * time.Second).Format(time.RFC3339)
	if p.EstimatedCompletionAt == nil || *p.EstimatedCompletionAt != want {
		t.Fatalf("deadline = %v, want %s", p.EstimatedCompletionAt, want)
	}

	_, err = env.Engine.Resume(env.Ctx, env.Game.ID, "tester")
	if !engine.IsDeclined(err, engine.ReasonNotPaused) {
		t.Fatalf("want not_paused decline, got %v", err)
	}
}

func TestOfflineCatchUp(t *testing.T) {
	env := newTestEnv(t)
	d := env.hireDev(t, 3)
	s := env.hireSales(t, 2)
	p := env.createProject(t, 2)
	p, err := env.Engine.AssignProject(env.Ctx, env.Game.ID, p.ID, d.ID, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.StartGeneration(env.Ctx, env.Game.ID, s.ID, engine.StartGenerationOptions{ActorID: "tester"}); err != nil {
		t.Fatal(err)
	}

	shifted, err := env.Engine.ApplyOfflineCatchUp(env.Ctx, env.Game.ID, 300, "tester")
	if err != nil {
		t.Fatalf("offline catch-up: %v", err)
	}
	if shifted != 2 {
		t.Fatalf("deadlines shifted = %d, want 2", shifted)
	}

	// zero is a no-op
	shifted, err = env.Engine.ApplyOfflineCatchUp(env.Ctx, env.Game.ID, 0, "tester")
	if err != nil || shifted != 0 {
		t.Fatalf("zero catch-up: %d, %v", shifted, err)
	}

	after, err := env.Engine.Repo.GetProject(env.Ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	orig, _ := time.Parse(time.RFC3339, *p.EstimatedCompletionAt)
	want := orig.Add(300 * time.Second).Format(time.RFC3339)
	if *after.EstimatedCompletionAt != want {
		t.Fatalf("deadline = %s, want %s", *after.EstimatedCompletionAt, want)
	}
}

func TestCheckGameOver(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProject(t, 1)

	// negative balance alone is not enough while work remains
	if _, err := env.Engine.DB.ExecContext(env.Ctx, `UPDATE games SET money=-500 WHERE id=?`, env.Game.ID); err != nil {
		t.Fatal(err)
	}
	g, changed, err := env.Engine.CheckGameOver(env.Ctx, env.Game.ID, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if changed || g.Status != domain.GameActive {
		t.Fatalf("changed=%v status=%q, want no change while a project is open", changed, g.Status)
	}

	if _, err := env.Engine.CancelProject(env.Ctx, env.Game.ID, p.ID, "", "tester"); err != nil {
		t.Fatal(err)
	}
	g, changed, err = env.Engine.CheckGameOver(env.Ctx, env.Game.ID, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if !changed || g.Status != domain.GameOver {
		t.Fatalf("changed=%v status=%q, want game_over", changed, g.Status)
	}

	// idempotent on a finished game
	_, changed, err = env.Engine.CheckGameOver(env.Ctx, env.Game.ID, "tester")
	if err != nil || changed {
		t.Fatalf("second check: changed=%v err=%v", changed, err)
	}

	// everything declines once the game is over
	_, err = env.Engine.HireDeveloper(env.Ctx, env.Game.ID, engine.HireOptions{Name: "x", Level: 1, ActorID: "tester"})
	if !engine.IsDeclined(err, engine.ReasonGameOver) {
		t.Fatalf("want game_over decline, got %v", err)
	}
}

func TestStatusSummary(t *testing.T) {
	env := newTestEnv(t)
	d := env.hireDev(t, 3)
	env.hireSales(t, 2)
	p := env.createProject(t, 2)
	if _, err := env.Engine.AssignProject(env.Ctx, env.Game.ID, p.ID, d.ID, "tester"); err != nil {
		t.Fatal(err)
	}
	env.createProject(t, 1)

	st, err := env.Engine.Status(env.Ctx, env.Game.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Developers != 1 || st.SalesPeople != 1 {
		t.Fatalf("headcount = %d/%d", st.Developers, st.SalesPeople)
	}
	if st.Projects[domain.ProjectInProgress] != 1 || st.Projects[domain.ProjectPending] != 1 {
		t.Fatalf("project counts = %v", st.Projects)
	}
	cfg := config.Default()
	wantCosts := cfg.Salaries.Developer[3].Min + cfg.Salaries.Sales[2].Min + cfg.Game.FixedOverhead
	if st.MonthlyCosts != wantCosts {
		t.Fatalf("monthly costs = %v, want %v", st.MonthlyCosts, wantCosts)
	}
}
