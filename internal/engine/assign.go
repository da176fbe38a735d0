package engine

import (
	"context"
	"fmt"
	"time"

	"techco/internal/domain"
	"techco/internal/events"
)

// AssignProject puts a pending project in the hands of an idle developer.
// The project moves to in_progress with a deadline derived from complexity
// and seniority, and the developer is marked busy, all in one transaction.
func (e Engine) AssignProject(ctx context.Context, gameID, projectID, developerID, actorID string) (domain.Project, error) {
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
	d, err := e.Repo.GetDeveloperTx(ctx, tx, developerID)
	if err != nil {
		return domain.Project{}, err
	}
	if d.GameID != gameID {
		return domain.Project{}, declined(ReasonWrongGame, "developer %s does not belong to game %s", developerID, gameID)
	}

	if p.Status != domain.ProjectPending || p.DeveloperID != nil {
		return domain.Project{}, declined(ReasonNotPending, "project %s is %s, not pending", projectID, p.Status)
	}
	if d.IsBusy {
		return domain.Project{}, declined(ReasonAlreadyBusy, "developer %s is already working on a project", developerID)
	}
	if !CanAccept(e.Rules, d.Seniority, p.Complexity) {
		return domain.Project{}, declined(ReasonInsufficientSeniority,
			"developer %s (seniority %d) cannot take complexity %d", developerID, d.Seniority, p.Complexity)
	}

	now := e.now()
	minutes := CompletionMinutes(e.Rules, p.Complexity, d.Seniority)
	deadline := ts(now.Add(time.Duration(minutes) * time.Minute))
	started := ts(now)

	p.Status = domain.ProjectInProgress
	p.DeveloperID = &d.ID
	p.AssignedAt = &started
	p.StartedAt = &started
	p.EstimatedCompletionAt = &deadline
	p.EstimatedMinutes = &minutes
	if err := e.Repo.UpdateProjectTx(ctx, tx, p); err != nil {
		return domain.Project{}, err
	}
	if err := e.Repo.SetDeveloperBusyTx(ctx, tx, d.ID, true); err != nil {
		return domain.Project{}, err
	}
	err = e.writer().Append(ctx, tx, "project.assigned", gameID, "project", p.ID, actorID, events.EventPayload{
		"developer_id":            d.ID,
		"estimated_minutes":       minutes,
		"estimated_completion_at": deadline,
	})
	if err != nil {
		return domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// UnassignProject returns an in_progress project to the pending pool and
// frees its developer. All scheduling fields are cleared so a later
// assignment starts from a clean slate.
func (e Engine) UnassignProject(ctx context.Context, gameID, projectID, actorID string) (domain.Project, error) {
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
	if p.Status != domain.ProjectInProgress {
		return domain.Project{}, declined(ReasonNotInProgress, "project %s is %s, not in_progress", projectID, p.Status)
	}
	if p.DeveloperID == nil {
		return domain.Project{}, fmt.Errorf("project %s is in_progress without a developer", projectID)
	}
	devID := *p.DeveloperID

	p.Status = domain.ProjectPending
	p.DeveloperID = nil
	p.AssignedAt = nil
	p.StartedAt = nil
	p.EstimatedCompletionAt = nil
	p.EstimatedMinutes = nil
	if err := e.Repo.UpdateProjectTx(ctx, tx, p); err != nil {
		return domain.Project{}, err
	}
	if err := e.Repo.SetDeveloperBusyTx(ctx, tx, devID, false); err != nil {
		return domain.Project{}, err
	}
	err = e.writer().Append(ctx, tx, "project.unassigned", gameID, "project", p.ID, actorID, events.EventPayload{
		"developer_id": devID,
	})
	if err != nil {
		return domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}
