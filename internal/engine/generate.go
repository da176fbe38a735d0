package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"techco/internal/domain"
	"techco/internal/events"
	"techco/internal/repo"
)

type StartGenerationOptions struct {
	// TargetName of "" gets a placeholder derived from the generation id.
	TargetName string
	// TargetComplexity of 0 means draw uniformly from 1-5.
	TargetComplexity int
	ActorID          string
}

// StartGeneration sends a salesperson out prospecting. The future project's
// complexity and value are fixed up front; only the delivery is deferred
// until the generation window elapses.
func (e Engine) StartGeneration(ctx context.Context, gameID, salesPersonID string, opts StartGenerationOptions) (domain.ProjectGeneration, error) {
	g, err := e.Repo.GetGame(ctx, gameID)
	if err != nil {
		return domain.ProjectGeneration{}, err
	}
	if err := requirePlayable(g, false); err != nil {
		return domain.ProjectGeneration{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ProjectGeneration{}, err
	}
	defer tx.Rollback()

	sp, err := e.Repo.GetSalesPersonTx(ctx, tx, salesPersonID)
	if err != nil {
		return domain.ProjectGeneration{}, err
	}
	if sp.GameID != gameID {
		return domain.ProjectGeneration{}, declined(ReasonWrongGame, "salesperson %s does not belong to game %s", salesPersonID, gameID)
	}
	if sp.IsBusy {
		return domain.ProjectGeneration{}, declined(ReasonAlreadyBusy, "salesperson %s is already prospecting", salesPersonID)
	}
	if _, err := e.Repo.ActiveGenerationForSalesPersonTx(ctx, tx, salesPersonID); err == nil {
		return domain.ProjectGeneration{}, declined(ReasonGenerationActive, "salesperson %s already has an active generation", salesPersonID)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return domain.ProjectGeneration{}, err
	}

	complexity := opts.TargetComplexity
	if complexity == 0 {
		complexity = 1 + int(e.uniform(0, 5))
		if complexity > 5 {
			complexity = 5
		}
	}
	if complexity < 1 || complexity > 5 {
		return domain.ProjectGeneration{}, fmt.Errorf("target complexity must be 1-5, got %d", complexity)
	}

	now := e.now()
	minutes := GenerationMinutes(e.Rules, sp.Experience)
	market := e.uniform(e.Rules.Generation.ValueJitter.Min, e.Rules.Generation.ValueJitter.Max)
	value := roundMoney(e.Rules.Generation.ValueBase * float64(sp.Experience) * market)

	gen := domain.ProjectGeneration{
		ID:                    uuid.NewString(),
		GameID:                gameID,
		SalesPersonID:         sp.ID,
		Status:                domain.GenerationInProgress,
		TargetComplexity:      complexity,
		TargetValue:           value,
		TargetName:            opts.TargetName,
		StartedAt:             ts(now),
		EstimatedCompletionAt: ts(now.Add(time.Duration(minutes) * time.Minute)),
		ExperienceMultiplier:  float64(sp.Experience),
		MarketConditions:      market,
	}
	if gen.TargetName == "" {
		gen.TargetName = "Prospect " + gen.ID[:8]
	}
	if err := e.Repo.InsertGenerationTx(ctx, tx, gen); err != nil {
		return domain.ProjectGeneration{}, err
	}
	if err := e.Repo.SetSalesPersonBusyTx(ctx, tx, sp.ID, true); err != nil {
		return domain.ProjectGeneration{}, err
	}
	err = e.writer().Append(ctx, tx, "generation.started", gameID, "generation", gen.ID, opts.ActorID, events.EventPayload{
		"sales_person_id":         sp.ID,
		"target_complexity":       gen.TargetComplexity,
		"target_value":            gen.TargetValue,
		"estimated_completion_at": gen.EstimatedCompletionAt,
	})
	if err != nil {
		return domain.ProjectGeneration{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ProjectGeneration{}, err
	}
	return gen, nil
}

// EvaluateGeneration reports where an in_progress generation stands against
// its window, without mutating anything.
func (e Engine) EvaluateGeneration(ctx context.Context, gameID, generationID string) (domain.ProjectGeneration, CompletionEvaluation, error) {
	gen, err := e.Repo.GetGeneration(ctx, generationID)
	if err != nil {
		return domain.ProjectGeneration{}, CompletionEvaluation{}, err
	}
	if gen.GameID != gameID {
		return domain.ProjectGeneration{}, CompletionEvaluation{}, declined(ReasonWrongGame, "generation %s does not belong to game %s", generationID, gameID)
	}
	if gen.Status != domain.GenerationInProgress {
		ev := CompletionEvaluation{}
		if gen.Status == domain.GenerationCompleted {
			ev.Progress = 100
		}
		return gen, ev, nil
	}
	started, err1 := parseTS(gen.StartedAt)
	estimated, err2 := parseTS(gen.EstimatedCompletionAt)
	if err1 != nil || err2 != nil {
		return gen, CompletionEvaluation{}, nil
	}
	now := e.now()
	remaining := SecondsRemaining(now, estimated)
	return gen, CompletionEvaluation{
		Ready:            remaining <= int64(e.Rules.Projects.CompletionToleranceSeconds),
		Progress:         Progress(now, started, estimated),
		SecondsRemaining: remaining,
	}, nil
}

// CompleteGeneration materializes the prospect into a real pending project,
// releases the salesperson, and credits their lifetime stats, atomically.
func (e Engine) CompleteGeneration(ctx context.Context, gameID, generationID, actorID string) (domain.ProjectGeneration, domain.Project, error) {
	g, err := e.Repo.GetGame(ctx, gameID)
	if err != nil {
		return domain.ProjectGeneration{}, domain.Project{}, err
	}
	if err := requirePlayable(g, false); err != nil {
		return domain.ProjectGeneration{}, domain.Project{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ProjectGeneration{}, domain.Project{}, err
	}
	defer tx.Rollback()

	gen, err := e.Repo.GetGenerationTx(ctx, tx, generationID)
	if err != nil {
		return domain.ProjectGeneration{}, domain.Project{}, err
	}
	if gen.GameID != gameID {
		return domain.ProjectGeneration{}, domain.Project{}, declined(ReasonWrongGame, "generation %s does not belong to game %s", generationID, gameID)
	}
	if gen.Status != domain.GenerationInProgress {
		return domain.ProjectGeneration{}, domain.Project{}, declined(ReasonAlreadyTerminal, "generation %s is already %s", generationID, gen.Status)
	}

	now := e.now()
	completed := ts(now)
	p := domain.Project{
		ID:                   uuid.NewString(),
		GameID:               gameID,
		Name:                 gen.TargetName,
		Complexity:           gen.TargetComplexity,
		Value:                gen.TargetValue,
		Status:               domain.ProjectPending,
		GeneratedBy:          &gen.SalesPersonID,
		DifficultyMultiplier: 1,
		CreatedAt:            completed,
	}
	if err := e.Repo.InsertProjectTx(ctx, tx, p); err != nil {
		return domain.ProjectGeneration{}, domain.Project{}, err
	}

	gen.Status = domain.GenerationCompleted
	gen.CompletedAt = &completed
	gen.GeneratedProjectID = &p.ID
	if err := e.Repo.UpdateGenerationTx(ctx, tx, gen); err != nil {
		return domain.ProjectGeneration{}, domain.Project{}, err
	}
	if err := e.Repo.ApplySalesCompletionTx(ctx, tx, gen.SalesPersonID, gen.TargetValue); err != nil {
		return domain.ProjectGeneration{}, domain.Project{}, err
	}
	err = e.writer().Append(ctx, tx, "generation.completed", gameID, "generation", gen.ID, actorID, events.EventPayload{
		"project_id":   p.ID,
		"target_value": gen.TargetValue,
	})
	if err != nil {
		return domain.ProjectGeneration{}, domain.Project{}, err
	}
	err = e.writer().Append(ctx, tx, "project.created", gameID, "project", p.ID, actorID, events.EventPayload{
		"name":          p.Name,
		"complexity":    p.Complexity,
		"value":         p.Value,
		"generated_by":  gen.SalesPersonID,
		"generation_id": gen.ID,
	})
	if err != nil {
		return domain.ProjectGeneration{}, domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ProjectGeneration{}, domain.Project{}, err
	}
	return gen, p, nil
}

// CancelGeneration abandons a prospect. No project is created and the
// salesperson is released.
func (e Engine) CancelGeneration(ctx context.Context, gameID, generationID, reason, actorID string) (domain.ProjectGeneration, error) {
	g, err := e.Repo.GetGame(ctx, gameID)
	if err != nil {
		return domain.ProjectGeneration{}, err
	}
	if err := requirePlayable(g, true); err != nil {
		return domain.ProjectGeneration{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ProjectGeneration{}, err
	}
	defer tx.Rollback()

	gen, err := e.Repo.GetGenerationTx(ctx, tx, generationID)
	if err != nil {
		return domain.ProjectGeneration{}, err
	}
	if gen.GameID != gameID {
		return domain.ProjectGeneration{}, declined(ReasonWrongGame, "generation %s does not belong to game %s", generationID, gameID)
	}
	if gen.Status != domain.GenerationInProgress {
		return domain.ProjectGeneration{}, declined(ReasonAlreadyTerminal, "generation %s is already %s", generationID, gen.Status)
	}

	cancelled := ts(e.now())
	gen.Status = domain.GenerationCancelled
	gen.CompletedAt = &cancelled
	gen.CancelReason = reason
	if err := e.Repo.UpdateGenerationTx(ctx, tx, gen); err != nil {
		return domain.ProjectGeneration{}, err
	}
	if err := e.Repo.SetSalesPersonBusyTx(ctx, tx, gen.SalesPersonID, false); err != nil {
		return domain.ProjectGeneration{}, err
	}
	err = e.writer().Append(ctx, tx, "generation.cancelled", gameID, "generation", gen.ID, actorID, events.EventPayload{
		"reason": reason,
	})
	if err != nil {
		return domain.ProjectGeneration{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ProjectGeneration{}, err
	}
	return gen, nil
}
