package repo

import (
	"context"
	"database/sql"
	"strings"

	"techco/internal/domain"
)

const projectColumns = `id,game_id,name,complexity,value,status,developer_id,generated_by,assigned_at,started_at,estimated_completion_at,completed_at,estimated_minutes,actual_minutes,difficulty_multiplier,rush_bonus,cancel_reason,created_at`

func scanProject(row rowScanner) (domain.Project, error) {
	var p domain.Project
	var developerID, generatedBy, assignedAt, startedAt, estimatedAt, completedAt, cancelReason sql.NullString
	var estimatedMinutes, actualMinutes sql.NullInt64
	err := row.Scan(&p.ID, &p.GameID, &p.Name, &p.Complexity, &p.Value, &p.Status,
		&developerID, &generatedBy, &assignedAt, &startedAt, &estimatedAt, &completedAt,
		&estimatedMinutes, &actualMinutes, &p.DifficultyMultiplier, &p.RushBonus, &cancelReason, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if developerID.Valid {
		p.DeveloperID = &developerID.String
	}
	if generatedBy.Valid {
		p.GeneratedBy = &generatedBy.String
	}
	if assignedAt.Valid {
		p.AssignedAt = &assignedAt.String
	}
	if startedAt.Valid {
		p.StartedAt = &startedAt.String
	}
	if estimatedAt.Valid {
		p.EstimatedCompletionAt = &estimatedAt.String
	}
	if completedAt.Valid {
		p.CompletedAt = &completedAt.String
	}
	if estimatedMinutes.Valid {
		m := int(estimatedMinutes.Int64)
		p.EstimatedMinutes = &m
	}
	if actualMinutes.Valid {
		m := int(actualMinutes.Int64)
		p.ActualMinutes = &m
	}
	if cancelReason.Valid {
		p.CancelReason = cancelReason.String
	}
	return p, nil
}

func (r Repo) InsertProjectTx(ctx context.Context, tx *sql.Tx, p domain.Project) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO projects(id,game_id,name,complexity,value,status,developer_id,generated_by,assigned_at,started_at,estimated_completion_at,completed_at,estimated_minutes,actual_minutes,difficulty_multiplier,rush_bonus,cancel_reason,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.GameID, p.Name, p.Complexity, p.Value, p.Status,
		nullableStringPtr(p.DeveloperID), nullableStringPtr(p.GeneratedBy),
		nullableStringPtr(p.AssignedAt), nullableStringPtr(p.StartedAt), nullableStringPtr(p.EstimatedCompletionAt), nullableStringPtr(p.CompletedAt),
		nullableIntPtr(p.EstimatedMinutes), nullableIntPtr(p.ActualMinutes),
		p.DifficultyMultiplier, p.RushBonus, nullable(p.CancelReason), p.CreatedAt)
	return err
}

func (r Repo) UpdateProjectTx(ctx context.Context, tx *sql.Tx, p domain.Project) error {
	res, err := tx.ExecContext(ctx, `UPDATE projects SET name=?, complexity=?, value=?, status=?, developer_id=?, generated_by=?, assigned_at=?, started_at=?, estimated_completion_at=?, completed_at=?, estimated_minutes=?, actual_minutes=?, difficulty_multiplier=?, rush_bonus=?, cancel_reason=? WHERE id=?`,
		p.Name, p.Complexity, p.Value, p.Status,
		nullableStringPtr(p.DeveloperID), nullableStringPtr(p.GeneratedBy),
		nullableStringPtr(p.AssignedAt), nullableStringPtr(p.StartedAt), nullableStringPtr(p.EstimatedCompletionAt), nullableStringPtr(p.CompletedAt),
		nullableIntPtr(p.EstimatedMinutes), nullableIntPtr(p.ActualMinutes),
		p.DifficultyMultiplier, p.RushBonus, nullable(p.CancelReason), p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetProject(ctx context.Context, id string) (domain.Project, error) {
	return scanProject(r.DB.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=?`, id))
}

func (r Repo) GetProjectTx(ctx context.Context, tx *sql.Tx, id string) (domain.Project, error) {
	return scanProject(tx.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=?`, id))
}

type ProjectFilters struct {
	GameID          string
	Status          string
	DeveloperID     string
	Limit           int
	CursorCreatedAt string
	CursorID        string
}

func (r Repo) ListProjects(ctx context.Context, f ProjectFilters) ([]domain.Project, error) {
	var clauses []string
	var args []any
	if f.GameID != "" {
		clauses = append(clauses, "game_id=?")
		args = append(args, f.GameID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.DeveloperID != "" {
		clauses = append(clauses, "developer_id=?")
		args = append(args, f.DeveloperID)
	}
	if f.CursorCreatedAt != "" && f.CursorID != "" {
		clauses = append(clauses, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, f.CursorCreatedAt, f.CursorCreatedAt, f.CursorID)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + projectColumns + ` FROM projects ` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, nil
}

// ListInProgressProjectsTx returns a game's in-flight projects, for the offline shift.
func (r Repo) ListInProgressProjectsTx(ctx context.Context, tx *sql.Tx, gameID string) ([]domain.Project, error) {
	rows, err := tx.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE game_id=? AND status='in_progress'`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, nil
}

// CountActiveAssignmentsTx counts in_progress projects referencing a developer.
// The busy-flag invariant holds iff this is 1 for busy developers and 0 otherwise.
func (r Repo) CountActiveAssignmentsTx(ctx context.Context, tx *sql.Tx, developerID string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT count(*) FROM projects WHERE developer_id=? AND status='in_progress'`, developerID).Scan(&n)
	return n, err
}
