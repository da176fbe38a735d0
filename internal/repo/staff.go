package repo

import (
	"context"
	"database/sql"

	"techco/internal/domain"
)

const developerColumns = `id,game_id,name,seniority,monthly_salary,is_busy,projects_completed,total_value_delivered,hire_date`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeveloper(row rowScanner) (domain.Developer, error) {
	var d domain.Developer
	err := row.Scan(&d.ID, &d.GameID, &d.Name, &d.Seniority, &d.MonthlySalary, &d.IsBusy, &d.ProjectsCompleted, &d.TotalValueDelivered, &d.HireDate)
	if err == sql.ErrNoRows {
		return d, ErrNotFound
	}
	return d, err
}

func (r Repo) InsertDeveloperTx(ctx context.Context, tx *sql.Tx, d domain.Developer) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO developers(id,game_id,name,seniority,monthly_salary,is_busy,projects_completed,total_value_delivered,hire_date)
VALUES (?,?,?,?,?,?,?,?,?)`,
		d.ID, d.GameID, d.Name, d.Seniority, d.MonthlySalary, d.IsBusy, d.ProjectsCompleted, d.TotalValueDelivered, d.HireDate)
	return err
}

func (r Repo) GetDeveloper(ctx context.Context, id string) (domain.Developer, error) {
	return scanDeveloper(r.DB.QueryRowContext(ctx, `SELECT `+developerColumns+` FROM developers WHERE id=?`, id))
}

func (r Repo) GetDeveloperTx(ctx context.Context, tx *sql.Tx, id string) (domain.Developer, error) {
	return scanDeveloper(tx.QueryRowContext(ctx, `SELECT `+developerColumns+` FROM developers WHERE id=?`, id))
}

func (r Repo) ListDevelopers(ctx context.Context, gameID string) ([]domain.Developer, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+developerColumns+` FROM developers WHERE game_id=? ORDER BY hire_date ASC, id ASC`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Developer
	for rows.Next() {
		d, err := scanDeveloper(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, nil
}

// SetDeveloperBusyTx flips the busy flag. Only the engine's assignment and
// completion paths may call this; no other code writes busy state.
func (r Repo) SetDeveloperBusyTx(ctx context.Context, tx *sql.Tx, id string, busy bool) error {
	res, err := tx.ExecContext(ctx, `UPDATE developers SET is_busy=? WHERE id=?`, busy, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyDeveloperCompletionTx records one delivered project and frees the developer.
func (r Repo) ApplyDeveloperCompletionTx(ctx context.Context, tx *sql.Tx, id string, value float64) error {
	res, err := tx.ExecContext(ctx, `UPDATE developers
SET is_busy=0, projects_completed=projects_completed+1, total_value_delivered=total_value_delivered+? WHERE id=?`, value, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SumMonthlySalaries totals salaries for both staff tables of a game.
func (r Repo) SumMonthlySalaries(ctx context.Context, gameID string) (float64, error) {
	var total float64
	err := r.DB.QueryRowContext(ctx, `SELECT
COALESCE((SELECT SUM(monthly_salary) FROM developers WHERE game_id=?),0) +
COALESCE((SELECT SUM(monthly_salary) FROM sales_people WHERE game_id=?),0)`, gameID, gameID).Scan(&total)
	return total, err
}

const salesPersonColumns = `id,game_id,name,experience,monthly_salary,is_busy,projects_generated,total_value_generated,hire_date`

func scanSalesPerson(row rowScanner) (domain.SalesPerson, error) {
	var s domain.SalesPerson
	err := row.Scan(&s.ID, &s.GameID, &s.Name, &s.Experience, &s.MonthlySalary, &s.IsBusy, &s.ProjectsGenerated, &s.TotalValueGenerated, &s.HireDate)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	return s, err
}

func (r Repo) InsertSalesPersonTx(ctx context.Context, tx *sql.Tx, s domain.SalesPerson) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO sales_people(id,game_id,name,experience,monthly_salary,is_busy,projects_generated,total_value_generated,hire_date)
VALUES (?,?,?,?,?,?,?,?,?)`,
		s.ID, s.GameID, s.Name, s.Experience, s.MonthlySalary, s.IsBusy, s.ProjectsGenerated, s.TotalValueGenerated, s.HireDate)
	return err
}

func (r Repo) GetSalesPerson(ctx context.Context, id string) (domain.SalesPerson, error) {
	return scanSalesPerson(r.DB.QueryRowContext(ctx, `SELECT `+salesPersonColumns+` FROM sales_people WHERE id=?`, id))
}

func (r Repo) GetSalesPersonTx(ctx context.Context, tx *sql.Tx, id string) (domain.SalesPerson, error) {
	return scanSalesPerson(tx.QueryRowContext(ctx, `SELECT `+salesPersonColumns+` FROM sales_people WHERE id=?`, id))
}

func (r Repo) ListSalesPeople(ctx context.Context, gameID string) ([]domain.SalesPerson, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+salesPersonColumns+` FROM sales_people WHERE game_id=? ORDER BY hire_date ASC, id ASC`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.SalesPerson
	for rows.Next() {
		s, err := scanSalesPerson(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, nil
}

// SetSalesPersonBusyTx flips the busy flag, engine-only like its developer twin.
func (r Repo) SetSalesPersonBusyTx(ctx context.Context, tx *sql.Tx, id string, busy bool) error {
	res, err := tx.ExecContext(ctx, `UPDATE sales_people SET is_busy=? WHERE id=?`, busy, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplySalesCompletionTx records one generated project and frees the salesperson.
func (r Repo) ApplySalesCompletionTx(ctx context.Context, tx *sql.Tx, id string, value float64) error {
	res, err := tx.ExecContext(ctx, `UPDATE sales_people
SET is_busy=0, projects_generated=projects_generated+1, total_value_generated=total_value_generated+? WHERE id=?`, value, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
