package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"techco/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const gameColumns = `id,owner_id,COALESCE(name,'') AS name,money,status,paused_at,resumed_at,offline_duration_seconds,COALESCE(notes,'') AS notes,created_at`

type gameScanner interface {
	Scan(dest ...any) error
}

func scanGame(row gameScanner) (domain.Game, error) {
	var g domain.Game
	var pausedAt, resumedAt sql.NullString
	err := row.Scan(&g.ID, &g.OwnerID, &g.Name, &g.Money, &g.Status, &pausedAt, &resumedAt, &g.OfflineDurationSeconds, &g.Notes, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return g, ErrNotFound
	}
	if err != nil {
		return g, err
	}
	if pausedAt.Valid {
		g.PausedAt = &pausedAt.String
	}
	if resumedAt.Valid {
		g.ResumedAt = &resumedAt.String
	}
	return g, nil
}

func (r Repo) InsertGame(ctx context.Context, tx *sql.Tx, g domain.Game) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO games(id,owner_id,name,money,status,paused_at,resumed_at,offline_duration_seconds,notes,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?)`,
		g.ID, g.OwnerID, nullable(g.Name), g.Money, g.Status, nullableStringPtr(g.PausedAt), nullableStringPtr(g.ResumedAt),
		g.OfflineDurationSeconds, nullable(g.Notes), g.CreatedAt)
	return err
}

func (r Repo) GetGame(ctx context.Context, id string) (domain.Game, error) {
	return scanGame(r.DB.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id=?`, id))
}

func (r Repo) GetGameTx(ctx context.Context, tx *sql.Tx, id string) (domain.Game, error) {
	return scanGame(tx.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id=?`, id))
}

// SingleGame resolves the only game in the workspace, for CLI use without --game.
func (r Repo) SingleGame(ctx context.Context) (domain.Game, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+gameColumns+` FROM games`)
	if err != nil {
		return domain.Game{}, err
	}
	defer rows.Close()
	var games []domain.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return domain.Game{}, err
		}
		games = append(games, g)
	}
	if len(games) == 0 {
		return domain.Game{}, ErrNotFound
	}
	if len(games) > 1 {
		return domain.Game{}, fmt.Errorf("multiple games exist; specify --game")
	}
	return games[0], nil
}

func (r Repo) ListGames(ctx context.Context, ownerID string) ([]domain.Game, error) {
	clauses := []string{"1=1"}
	var args []any
	if ownerID != "" {
		clauses = append(clauses, "owner_id=?")
		args = append(args, ownerID)
	}
	query := `SELECT ` + gameColumns + ` FROM games WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, g)
	}
	return res, nil
}

func (r Repo) UpdateGameTx(ctx context.Context, tx *sql.Tx, g domain.Game) error {
	res, err := tx.ExecContext(ctx, `UPDATE games SET name=?, money=?, status=?, paused_at=?, resumed_at=?, offline_duration_seconds=?, notes=? WHERE id=?`,
		nullable(g.Name), g.Money, g.Status, nullableStringPtr(g.PausedAt), nullableStringPtr(g.ResumedAt),
		g.OfflineDurationSeconds, nullable(g.Notes), g.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteGame(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM games WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountProjectsByStatus groups a game's projects by status.
func (r Repo) CountProjectsByStatus(ctx context.Context, gameID string) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, count(*) FROM projects WHERE game_id=? GROUP BY status`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		res[status] = count
	}
	return res, nil
}

// CountOpenProjects counts a game's projects with status pending or in_progress.
// Used by the game-over check: bankruptcy is terminal only with no recovery path left.
func (r Repo) CountOpenProjectsTx(ctx context.Context, tx *sql.Tx, gameID string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT count(*) FROM projects WHERE game_id=? AND status IN ('pending','in_progress')`, gameID).Scan(&n)
	return n, err
}

func (r Repo) LatestEventsFrom(ctx context.Context, limit int, cursor int64, gameID, evtType, entityKind, entityID string) ([]domain.Event, error) {
	clauses := []string{"1=1"}
	var args []any
	if gameID != "" {
		clauses = append(clauses, "game_id=?")
		args = append(args, gameID)
	}
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	if entityKind != "" {
		clauses = append(clauses, "entity_kind=?")
		args = append(args, entityKind)
	}
	if entityID != "" {
		clauses = append(clauses, "entity_id=?")
		args = append(args, entityID)
	}
	if cursor > 0 {
		clauses = append(clauses, "id<?")
		args = append(args, cursor)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := fmt.Sprintf(`SELECT id,ts,type,game_id,entity_kind,entity_id,actor_id,payload_json FROM events %s ORDER BY id DESC LIMIT ?`, where)
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		var gameID, entityID, payload sql.NullString
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &gameID, &e.EntityKind, &entityID, &e.ActorID, &payload); err != nil {
			return nil, err
		}
		if gameID.Valid {
			e.GameID = gameID.String
		}
		if entityID.Valid {
			e.EntityID = entityID.String
		}
		if payload.Valid {
			e.Payload = payload.String
		}
		res = append(res, e)
	}
	return res, nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	if *v == "" {
		return nil
	}
	return *v
}

func nullableIntPtr(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
