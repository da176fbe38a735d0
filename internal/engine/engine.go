package engine

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"techco/internal/config"
	"techco/internal/domain"
	"techco/internal/events"
	"techco/internal/repo"
)

// Engine owns all game state transitions. Every mutating operation runs in a
// single transaction and appends to the event log before committing, so the
// log is never ahead of or behind the tables it describes.
type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Rules  *config.Rules

	// Now and Uniform are injectable so tests can freeze the clock and the dice.
	Now     func() time.Time
	Uniform func(min, max float64) float64
}

func New(db *sql.DB, rules *config.Rules) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Rules:  rules,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

func (e Engine) uniform(min, max float64) float64 {
	if e.Uniform != nil {
		return e.Uniform(min, max)
	}
	return min + rand.Float64()*(max-min)
}

func (e Engine) writer() events.Writer {
	w := e.Events
	if w.Now == nil {
		w.Now = e.now
	}
	return w
}

func ts(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func parseTS(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// requirePlayable gates mutating operations on the game's status. Paused
// games still allow bookkeeping (hiring, cancelling), so callers opt in.
func requirePlayable(g domain.Game, allowPaused bool) error {
	switch g.Status {
	case domain.GameOver:
		return declined(ReasonGameOver, "game %s is over", g.ID)
	case domain.GamePaused:
		if !allowPaused {
			return declined(ReasonGamePaused, "game %s is paused", g.ID)
		}
	}
	return nil
}

type CreateGameOptions struct {
	OwnerID string
	Name    string
	Notes   string
}

func (e Engine) CreateGame(ctx context.Context, opts CreateGameOptions) (domain.Game, error) {
	now := e.now()
	g := domain.Game{
		ID:        uuid.NewString(),
		OwnerID:   opts.OwnerID,
		Name:      opts.Name,
		Money:     e.Rules.Game.SeedMoney,
		Status:    domain.GameActive,
		Notes:     opts.Notes,
		CreatedAt: ts(now),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Game{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertGame(ctx, tx, g); err != nil {
		return domain.Game{}, err
	}
	err = e.writer().Append(ctx, tx, "game.created", g.ID, "game", g.ID, opts.OwnerID, events.EventPayload{
		"name":       g.Name,
		"seed_money": g.Money,
	})
	if err != nil {
		return domain.Game{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Game{}, err
	}
	return g, nil
}

func (e Engine) DeleteGame(ctx context.Context, gameID string) error {
	return e.Repo.DeleteGame(ctx, gameID)
}

type HireOptions struct {
	Name string
	// Level is seniority for developers, experience for salespeople.
	Level int
	// MonthlySalary of 0 means draw from the market band for the level.
	MonthlySalary float64
	ActorID       string
}

func (e Engine) HireDeveloper(ctx context.Context, gameID string, opts HireOptions) (domain.Developer, error) {
	if opts.Level < 1 || opts.Level > 5 {
		return domain.Developer{}, fmt.Errorf("seniority must be 1-5, got %d", opts.Level)
	}
	g, err := e.Repo.GetGame(ctx, gameID)
	if err != nil {
		return domain.Developer{}, err
	}
	if err := requirePlayable(g, true); err != nil {
		return domain.Developer{}, err
	}
	salary := opts.MonthlySalary
	if salary == 0 {
		band := e.Rules.Salaries.Developer[opts.Level]
		salary = roundMoney(e.uniform(band.Min, band.Max))
	}
	now := e.now()
	d := domain.Developer{
		ID:            uuid.NewString(),
		GameID:        gameID,
		Name:          opts.Name,
		Seniority:     opts.Level,
		MonthlySalary: salary,
		HireDate:      ts(now),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Developer{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertDeveloperTx(ctx, tx, d); err != nil {
		return domain.Developer{}, err
	}
	err = e.writer().Append(ctx, tx, "developer.hired", gameID, "developer", d.ID, opts.ActorID, events.EventPayload{
		"name":           d.Name,
		"seniority":      d.Seniority,
		"monthly_salary": d.MonthlySalary,
	})
	if err != nil {
		return domain.Developer{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Developer{}, err
	}
	return d, nil
}

func (e Engine) HireSalesPerson(ctx context.Context, gameID string, opts HireOptions) (domain.SalesPerson, error) {
	if opts.Level < 1 || opts.Level > 5 {
		return domain.SalesPerson{}, fmt.Errorf("experience must be 1-5, got %d", opts.Level)
	}
	g, err := e.Repo.GetGame(ctx, gameID)
	if err != nil {
		return domain.SalesPerson{}, err
	}
	if err := requirePlayable(g, true); err != nil {
		return domain.SalesPerson{}, err
	}
	salary := opts.MonthlySalary
	if salary == 0 {
		band := e.Rules.Salaries.Sales[opts.Level]
		salary = roundMoney(e.uniform(band.Min, band.Max))
	}
	now := e.now()
	s := domain.SalesPerson{
		ID:            uuid.NewString(),
		GameID:        gameID,
		Name:          opts.Name,
		Experience:    opts.Level,
		MonthlySalary: salary,
		HireDate:      ts(now),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.SalesPerson{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertSalesPersonTx(ctx, tx, s); err != nil {
		return domain.SalesPerson{}, err
	}
	err = e.writer().Append(ctx, tx, "sales_person.hired", gameID, "sales_person", s.ID, opts.ActorID, events.EventPayload{
		"name":           s.Name,
		"experience":     s.Experience,
		"monthly_salary": s.MonthlySalary,
	})
	if err != nil {
		return domain.SalesPerson{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.SalesPerson{}, err
	}
	return s, nil
}

type CreateProjectOptions struct {
	Name       string
	Complexity int
	// Value of 0 means use the default payout for the complexity.
	Value   float64
	ActorID string
}

func (e Engine) CreateProject(ctx context.Context, gameID string, opts CreateProjectOptions) (domain.Project, error) {
	if opts.Complexity < 1 || opts.Complexity > 5 {
		return domain.Project{}, fmt.Errorf("complexity must be 1-5, got %d", opts.Complexity)
	}
	g, err := e.Repo.GetGame(ctx, gameID)
	if err != nil {
		return domain.Project{}, err
	}
	if err := requirePlayable(g, true); err != nil {
		return domain.Project{}, err
	}
	value := opts.Value
	if value == 0 {
		value = ProjectValue(e.Rules, opts.Complexity)
	}
	now := e.now()
	p := domain.Project{
		ID:                   uuid.NewString(),
		GameID:               gameID,
		Name:                 opts.Name,
		Complexity:           opts.Complexity,
		Value:                value,
		Status:               domain.ProjectPending,
		DifficultyMultiplier: 1,
		CreatedAt:            ts(now),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Project{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertProjectTx(ctx, tx, p); err != nil {
		return domain.Project{}, err
	}
	err = e.writer().Append(ctx, tx, "project.created", gameID, "project", p.ID, opts.ActorID, events.EventPayload{
		"name":       p.Name,
		"complexity": p.Complexity,
		"value":      p.Value,
	})
	if err != nil {
		return domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// roundMoney keeps money amounts at cent precision.
func roundMoney(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
