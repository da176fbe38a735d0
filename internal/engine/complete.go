package engine

import (
	"context"
	"math"
	"time"

	"techco/internal/domain"
	"techco/internal/events"
)

// CompletionEvaluation is a read-only snapshot of where an in_progress
// project stands against its deadline. Evaluating never mutates state, so
// callers may poll it as often as they like.
type CompletionEvaluation struct {
	Ready            bool    `json:"ready"`
	Progress         float64 `json:"progress"`
	SecondsRemaining int64   `json:"seconds_remaining"`
}

// Evaluate computes readiness for a project at the given instant. A project
// is ready once the clock is within toleranceSeconds of its deadline.
// Non-in_progress projects are never ready.
func Evaluate(p domain.Project, now time.Time, toleranceSeconds int) CompletionEvaluation {
	if p.Status != domain.ProjectInProgress || p.StartedAt == nil || p.EstimatedCompletionAt == nil {
		ev := CompletionEvaluation{}
		if p.Status == domain.ProjectCompleted {
			ev.Progress = 100
		}
		return ev
	}
	started, err1 := parseTS(*p.StartedAt)
	estimated, err2 := parseTS(*p.EstimatedCompletionAt)
	if err1 != nil || err2 != nil {
		return CompletionEvaluation{}
	}
	remaining := SecondsRemaining(now, estimated)
	return CompletionEvaluation{
		Ready:            remaining <= int64(toleranceSeconds),
		Progress:         Progress(now, started, estimated),
		SecondsRemaining: remaining,
	}
}

// EvaluateProject is Evaluate against the stored project and the engine clock.
func (e Engine) EvaluateProject(ctx context.Context, gameID, projectID string) (domain.Project, CompletionEvaluation, error) {
	p, err := e.Repo.GetProject(ctx, projectID)
	if err != nil {
		return domain.Project{}, CompletionEvaluation{}, err
	}
	if p.GameID != gameID {
		return domain.Project{}, CompletionEvaluation{}, declined(ReasonWrongGame, "project %s does not belong to game %s", projectID, gameID)
	}
	return p, Evaluate(p, e.now(), e.Rules.Projects.CompletionToleranceSeconds), nil
}

// CompleteProject settles a finished project: the project goes terminal, the
// game is paid, and the developer is released with updated lifetime stats.
// All three writes land in the same transaction or none do.
func (e Engine) CompleteProject(ctx context.Context, gameID, projectID, actorID string) (domain.Project, error) {
	g, err := e.Repo.GetGame(ctx, gameID)
	if err != nil {
		return domain.Project{}, err
	}
	if err := requirePlayable(g, false); err != nil {
		return domain.Project{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Project{}, err
	}
	defer tx.Rollback()

	p, err := e.Repo.GetProjectTx(ctx, tx, projectID)
	if err != nil {
		return domain.Project{}, err
	}
	if p.GameID != gameID {
		return domain.Project{}, declined(ReasonWrongGame, "project %s does not belong to game %s", projectID, gameID)
	}
	if p.Status != domain.ProjectInProgress {
		return domain.Project{}, declined(ReasonNotInProgress, "project %s is %s, not in_progress", projectID, p.Status)
	}

	now := e.now()
	completed := ts(now)
	p.Status = domain.ProjectCompleted
	p.CompletedAt = &completed
	if p.StartedAt != nil {
		if started, err := parseTS(*p.StartedAt); err == nil {
			actual := int(math.Round(now.Sub(started).Minutes()))
			if actual < 0 {
				actual = 0
			}
			p.ActualMinutes = &actual
		}
	}
	payout := p.Value*p.DifficultyMultiplier + p.RushBonus
	if err := e.Repo.UpdateProjectTx(ctx, tx, p); err != nil {
		return domain.Project{}, err
	}

	gt, err := e.Repo.GetGameTx(ctx, tx, gameID)
	if err != nil {
		return domain.Project{}, err
	}
	gt.Money += payout
	if err := e.Repo.UpdateGameTx(ctx, tx, gt); err != nil {
		return domain.Project{}, err
	}

	if p.DeveloperID != nil {
		if err := e.Repo.ApplyDeveloperCompletionTx(ctx, tx, *p.DeveloperID, payout); err != nil {
			return domain.Project{}, err
		}
	}
	err = e.writer().Append(ctx, tx, "project.completed", gameID, "project", p.ID, actorID, events.EventPayload{
		"value":          payout,
		"actual_minutes": p.ActualMinutes,
	})
	if err != nil {
		return domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// CancelProject abandons a project that has not been delivered. An assigned
// developer is released but the developer_id stays on the record for the
// audit trail.
func (e Engine) CancelProject(ctx context.Context, gameID, projectID, reason, actorID string) (domain.Project, error) {
	g, err := e.Repo.GetGame(ctx, gameID)
	if err != nil {
		return domain.Project{}, err
	}
	if err := requirePlayable(g, true); err != nil {
		return domain.Project{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Project{}, err
	}
	defer tx.Rollback()

	p, err := e.Repo.GetProjectTx(ctx, tx, projectID)
	if err != nil {
		return domain.Project{}, err
	}
	if p.GameID != gameID {
		return domain.Project{}, declined(ReasonWrongGame, "project %s does not belong to game %s", projectID, gameID)
	}
	if p.Status == domain.ProjectCompleted || p.Status == domain.ProjectCancelled {
		return domain.Project{}, declined(ReasonAlreadyTerminal, "project %s is already %s", projectID, p.Status)
	}

	wasInProgress := p.Status == domain.ProjectInProgress
	now := e.now()
	cancelled := ts(now)
	p.Status = domain.ProjectCancelled
	p.CompletedAt = &cancelled
	p.CancelReason = reason
	if err := e.Repo.UpdateProjectTx(ctx, tx, p); err != nil {
		return domain.Project{}, err
	}
	if wasInProgress && p.DeveloperID != nil {
		if err := e.Repo.SetDeveloperBusyTx(ctx, tx, *p.DeveloperID, false); err != nil {
			return domain.Project{}, err
		}
	}
	err = e.writer().Append(ctx, tx, "project.cancelled", gameID, "project", p.ID, actorID, events.EventPayload{
		"reason": reason,
	})
	if err != nil {
		return domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}
