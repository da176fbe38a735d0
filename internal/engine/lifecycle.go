package engine

import (
	"context"
	"database/sql"
	"time"

	"techco/internal/domain"
	"techco/internal/events"
	"techco/internal/repo"
)

// Pause freezes a game. While paused, wall-clock deadlines keep slipping, so
// Resume later shifts them forward by the time spent offline.
func (e Engine) Pause(ctx context.Context, gameID, actorID string) (domain.Game, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Game{}, err
	}
	defer tx.Rollback()

	g, err := e.Repo.GetGameTx(ctx, tx, gameID)
	if err != nil {
		return domain.Game{}, err
	}
	if g.Status == domain.GameOver {
		return domain.Game{}, declined(ReasonGameOver, "game %s is over", gameID)
	}
	if g.Status == domain.GamePaused {
		return domain.Game{}, declined(ReasonAlreadyPaused, "game %s is already paused", gameID)
	}

	pausedAt := ts(e.now())
	g.Status = domain.GamePaused
	g.PausedAt = &pausedAt
	if err := e.Repo.UpdateGameTx(ctx, tx, g); err != nil {
		return domain.Game{}, err
	}
	err = e.writer().Append(ctx, tx, "game.paused", gameID, "game", gameID, actorID, events.EventPayload{
		"paused_at": pausedAt,
	})
	if err != nil {
		return domain.Game{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Game{}, err
	}
	return g, nil
}

// Resume reactivates a paused game. The seconds spent paused are measured
// before anything moves, accumulated on the game, and every in-flight
// deadline is pushed forward by the same amount so no work silently
// finished while nobody was playing.
func (e Engine) Resume(ctx context.Context, gameID, actorID string) (domain.Game, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Game{}, err
	}
	defer tx.Rollback()

	g, err := e.Repo.GetGameTx(ctx, tx, gameID)
	if err != nil {
		return domain.Game{}, err
	}
	if g.Status == domain.GameOver {
		return domain.Game{}, declined(ReasonGameOver, "game %s is over", gameID)
	}
	if g.Status != domain.GamePaused {
		return domain.Game{}, declined(ReasonNotPaused, "game %s is not paused", gameID)
	}

	now := e.now()
	var offlineSeconds int64
	if g.PausedAt != nil {
		if pausedAt, err := parseTS(*g.PausedAt); err == nil && now.After(pausedAt) {
			offlineSeconds = int64(now.Sub(pausedAt) / time.Second)
		}
	}

	resumedAt := ts(now)
	g.Status = domain.GameActive
	g.PausedAt = nil
	g.ResumedAt = &resumedAt
	g.OfflineDurationSeconds += offlineSeconds
	if err := e.Repo.UpdateGameTx(ctx, tx, g); err != nil {
		return domain.Game{}, err
	}
	shifted, err := e.shiftDeadlinesTx(ctx, tx, gameID, offlineSeconds)
	if err != nil {
		return domain.Game{}, err
	}
	err = e.writer().Append(ctx, tx, "game.resumed", gameID, "game", gameID, actorID, events.EventPayload{
		"offline_seconds":   offlineSeconds,
		"deadlines_shifted": shifted,
	})
	if err != nil {
		return domain.Game{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Game{}, err
	}
	return g, nil
}

// ApplyOfflineCatchUp shifts in-flight deadlines for a client-reported
// offline window, for frontends that track their own absence.
func (e Engine) ApplyOfflineCatchUp(ctx context.Context, gameID string, offlineSeconds int64, actorID string) (int, error) {
	if offlineSeconds <= 0 {
		return 0, nil
	}
	g, err := e.Repo.GetGame(ctx, gameID)
	if err != nil {
		return 0, err
	}
	if g.Status == domain.GameOver {
		return 0, declined(ReasonGameOver, "game %s is over", gameID)
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	gt, err := e.Repo.GetGameTx(ctx, tx, gameID)
	if err != nil {
		return 0, err
	}
	gt.OfflineDurationSeconds += offlineSeconds
	if err := e.Repo.UpdateGameTx(ctx, tx, gt); err != nil {
		return 0, err
	}
	shifted, err := e.shiftDeadlinesTx(ctx, tx, gameID, offlineSeconds)
	if err != nil {
		return 0, err
	}
	err = e.writer().Append(ctx, tx, "game.offline_catchup", gameID, "game", gameID, actorID, events.EventPayload{
		"offline_seconds":   offlineSeconds,
		"deadlines_shifted": shifted,
	})
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return shifted, nil
}

// shiftDeadlinesTx pushes every in_progress project and generation deadline
// forward by offlineSeconds. Returns how many rows moved.
func (e Engine) shiftDeadlinesTx(ctx context.Context, tx *sql.Tx, gameID string, offlineSeconds int64) (int, error) {
	if offlineSeconds <= 0 {
		return 0, nil
	}
	shift := time.Duration(offlineSeconds) * time.Second
	shifted := 0

	projects, err := e.Repo.ListInProgressProjectsTx(ctx, tx, gameID)
	if err != nil {
		return 0, err
	}
	for _, p := range projects {
		if p.EstimatedCompletionAt == nil {
			continue
		}
		deadline, err := parseTS(*p.EstimatedCompletionAt)
		if err != nil {
			continue
		}
		moved := ts(deadline.Add(shift))
		p.EstimatedCompletionAt = &moved
		if err := e.Repo.UpdateProjectTx(ctx, tx, p); err != nil {
			return 0, err
		}
		shifted++
	}

	generations, err := e.Repo.ListInProgressGenerationsTx(ctx, tx, gameID)
	if err != nil {
		return 0, err
	}
	for _, gen := range generations {
		deadline, err := parseTS(gen.EstimatedCompletionAt)
		if err != nil {
			continue
		}
		gen.EstimatedCompletionAt = ts(deadline.Add(shift))
		if err := e.Repo.UpdateGenerationTx(ctx, tx, gen); err != nil {
			return 0, err
		}
		shifted++
	}
	return shifted, nil
}

// CheckGameOver declares bankruptcy when money is negative and no open
// project is left to earn it back. Calling it on a finished game is a no-op.
func (e Engine) CheckGameOver(ctx context.Context, gameID, actorID string) (domain.Game, bool, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Game{}, false, err
	}
	defer tx.Rollback()

	g, err := e.Repo.GetGameTx(ctx, tx, gameID)
	if err != nil {
		return domain.Game{}, false, err
	}
	if g.Status == domain.GameOver {
		return g, false, nil
	}
	if g.Money >= 0 {
		return g, false, nil
	}
	open, err := e.Repo.CountOpenProjectsTx(ctx, tx, gameID)
	if err != nil {
		return domain.Game{}, false, err
	}
	if open > 0 {
		return g, false, nil
	}

	g.Status = domain.GameOver
	if err := e.Repo.UpdateGameTx(ctx, tx, g); err != nil {
		return domain.Game{}, false, err
	}
	err = e.writer().Append(ctx, tx, "game.over", gameID, "game", gameID, actorID, events.EventPayload{
		"money": g.Money,
	})
	if err != nil {
		return domain.Game{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Game{}, false, err
	}
	return g, true, nil
}

// MonthlyCosts is the display-only burn rate: staff salaries plus the fixed
// office overhead. Nothing is ever deducted automatically.
func (e Engine) MonthlyCosts(ctx context.Context, gameID string) (float64, error) {
	salaries, err := e.Repo.SumMonthlySalaries(ctx, gameID)
	if err != nil {
		return 0, err
	}
	return salaries + e.Rules.Game.FixedOverhead, nil
}

// GameStatus is the dashboard summary for a game.
type GameStatus struct {
	Game           domain.Game    `json:"game"`
	Developers     int            `json:"developers"`
	SalesPeople    int            `json:"sales_people"`
	Projects       map[string]int `json:"projects"`
	MonthlyCosts   float64        `json:"monthly_costs"`
	OpenGeneration int            `json:"open_generations"`
}

func (e Engine) Status(ctx context.Context, gameID string) (GameStatus, error) {
	g, err := e.Repo.GetGame(ctx, gameID)
	if err != nil {
		return GameStatus{}, err
	}
	devs, err := e.Repo.ListDevelopers(ctx, gameID)
	if err != nil {
		return GameStatus{}, err
	}
	sales, err := e.Repo.ListSalesPeople(ctx, gameID)
	if err != nil {
		return GameStatus{}, err
	}
	projects, err := e.Repo.CountProjectsByStatus(ctx, gameID)
	if err != nil {
		return GameStatus{}, err
	}
	costs, err := e.MonthlyCosts(ctx, gameID)
	if err != nil {
		return GameStatus{}, err
	}
	gens, err := e.Repo.ListGenerations(ctx, repo.GenerationFilters{GameID: gameID, Status: domain.GenerationInProgress})
	if err != nil {
		return GameStatus{}, err
	}
	return GameStatus{
		Game:           g,
		Developers:     len(devs),
		SalesPeople:    len(sales),
		Projects:       projects,
		MonthlyCosts:   costs,
		OpenGeneration: len(gens),
	}, nil
}
