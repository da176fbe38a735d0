package repo

import (
	"context"
	"database/sql"
	"strings"

	"techco/internal/domain"
)

const generationColumns = `id,game_id,sales_person_id,status,target_complexity,target_value,target_name,started_at,estimated_completion_at,completed_at,generated_project_id,experience_multiplier,market_conditions,cancel_reason`

func scanGeneration(row rowScanner) (domain.ProjectGeneration, error) {
	var g domain.ProjectGeneration
	var completedAt, generatedProjectID, cancelReason sql.NullString
	err := row.Scan(&g.ID, &g.GameID, &g.SalesPersonID, &g.Status, &g.TargetComplexity, &g.TargetValue, &g.TargetName,
		&g.StartedAt, &g.EstimatedCompletionAt, &completedAt, &generatedProjectID,
		&g.ExperienceMultiplier, &g.MarketConditions, &cancelReason)
	if err == sql.ErrNoRows {
		return g, ErrNotFound
	}
	if err != nil {
		return g, err
	}
	if completedAt.Valid {
		g.CompletedAt = &completedAt.String
	}
	if generatedProjectID.Valid {
		g.GeneratedProjectID = &generatedProjectID.String
	}
	if cancelReason.Valid {
		g.CancelReason = cancelReason.String
	}
	return g, nil
}

func (r Repo) InsertGenerationTx(ctx context.Context, tx *sql.Tx, g domain.ProjectGeneration) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO project_generations(id,game_id,sales_person_id,status,target_complexity,target_value,target_name,started_at,estimated_completion_at,completed_at,generated_project_id,experience_multiplier,market_conditions,cancel_reason)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		g.ID, g.GameID, g.SalesPersonID, g.Status, g.TargetComplexity, g.TargetValue, g.TargetName,
		g.StartedAt, g.EstimatedCompletionAt, nullableStringPtr(g.CompletedAt), nullableStringPtr(g.GeneratedProjectID),
		g.ExperienceMultiplier, g.MarketConditions, nullable(g.CancelReason))
	return err
}

func (r Repo) UpdateGenerationTx(ctx context.Context, tx *sql.Tx, g domain.ProjectGeneration) error {
	res, err := tx.ExecContext(ctx, `UPDATE project_generations SET status=?, target_complexity=?, target_value=?, target_name=?, started_at=?, estimated_completion_at=?, completed_at=?, generated_project_id=?, experience_multiplier=?, market_conditions=?, cancel_reason=? WHERE id=?`,
		g.Status, g.TargetComplexity, g.TargetValue, g.TargetName, g.StartedAt, g.EstimatedCompletionAt,
		nullableStringPtr(g.CompletedAt), nullableStringPtr(g.GeneratedProjectID),
		g.ExperienceMultiplier, g.MarketConditions, nullable(g.CancelReason), g.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetGeneration(ctx context.Context, id string) (domain.ProjectGeneration, error) {
	return scanGeneration(r.DB.QueryRowContext(ctx, `SELECT `+generationColumns+` FROM project_generations WHERE id=?`, id))
}

func (r Repo) GetGenerationTx(ctx context.Context, tx *sql.Tx, id string) (domain.ProjectGeneration, error) {
	return scanGeneration(tx.QueryRowContext(ctx, `SELECT `+generationColumns+` FROM project_generations WHERE id=?`, id))
}

type GenerationFilters struct {
	GameID        string
	SalesPersonID string
	Status        string
	Limit         int
}

func (r Repo) ListGenerations(ctx context.Context, f GenerationFilters) ([]domain.ProjectGeneration, error) {
	var clauses []string
	var args []any
	if f.GameID != "" {
		clauses = append(clauses, "game_id=?")
		args = append(args, f.GameID)
	}
	if f.SalesPersonID != "" {
		clauses = append(clauses, "sales_person_id=?")
		args = append(args, f.SalesPersonID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + generationColumns + ` FROM project_generations ` + where + ` ORDER BY started_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ProjectGeneration
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, g)
	}
	return res, nil
}

// ActiveGenerationForSalesPersonTx returns the single in_progress generation, if any.
func (r Repo) ActiveGenerationForSalesPersonTx(ctx context.Context, tx *sql.Tx, salesPersonID string) (domain.ProjectGeneration, error) {
	return scanGeneration(tx.QueryRowContext(ctx, `SELECT `+generationColumns+` FROM project_generations WHERE sales_person_id=? AND status='in_progress'`, salesPersonID))
}

// ListInProgressGenerationsTx returns a game's in-flight generations, for the offline shift.
func (r Repo) ListInProgressGenerationsTx(ctx context.Context, tx *sql.Tx, gameID string) ([]domain.ProjectGeneration, error) {
	rows, err := tx.QueryContext(ctx, `SELECT `+generationColumns+` FROM project_generations WHERE game_id=? AND status='in_progress'`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ProjectGeneration
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, g)
	}
	return res, nil
}
