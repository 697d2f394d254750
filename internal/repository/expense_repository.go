package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/expense-tracker/internal/model"
)

// expenseSelect joins the owner so every loaded expense carries its owner
// summary.  Callers append the WHERE clause.
const expenseSelect = `SELECT e.id, e.category, e.sub_category, e.description, e.amount, e.spent_on, u.id, u.name
	FROM expenses e
	JOIN users u ON u.id = e.user_id`

// ExpenseRepo encapsulates all queries related to expenses.  Every read,
// update and delete is filtered by owner in SQL, so a foreign expense is
// indistinguishable from a missing one.
type ExpenseRepo struct {
	db DBTX
}

// NewExpenseRepo returns an ExpenseRepo running its queries on db.
func NewExpenseRepo(db DBTX) *ExpenseRepo {
	return &ExpenseRepo{db: db}
}

// Create inserts e for e.Owner.ID and populates e.ID.
func (r *ExpenseRepo) Create(ctx context.Context, e *model.Expense) error {
	const q = `INSERT INTO expenses (user_id, category, sub_category, description, amount, spent_on)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		e.Owner.ID, e.Category, e.SubCategory, e.Description, e.Amount.StringFixed(2), e.Date)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// GetByIDAndOwner fetches an expense by id but only if it belongs to the
// specified owner.  Otherwise ErrExpenseNotFound is returned.
func (r *ExpenseRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Expense, error) {
	const q = expenseSelect + " WHERE e.id = ? AND e.user_id = ?"
	e, err := scanExpense(r.db.QueryRowContext(ctx, q, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrExpenseNotFound
		}
		return nil, err
	}
	return e, nil
}

// ListByOwner returns all expenses of an owner in creation order.  The result
// is never nil.
func (r *ExpenseRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Expense, error) {
	const q = expenseSelect + " WHERE e.user_id = ? ORDER BY e.id"
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes the mutable fields of e.  The owner is part of the WHERE
// clause and never part of the SET list.
func (r *ExpenseRepo) Update(ctx context.Context, e *model.Expense) error {
	const q = `UPDATE expenses
	           SET category = ?, sub_category = ?, description = ?, amount = ?, spent_on = ?
	           WHERE id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, q,
		e.Category, e.SubCategory, e.Description, e.Amount.StringFixed(2), e.Date, e.ID, e.Owner.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

// DeleteByIDAndOwner removes an expense owned by ownerID.
func (r *ExpenseRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

// DeleteByOwner removes every expense of ownerID and reports how many rows
// went away.
func (r *ExpenseRepo) DeleteByOwner(ctx context.Context, ownerID uint64) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM expenses WHERE user_id = ?", ownerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*model.Expense, error) {
	var e model.Expense
	if err := row.Scan(&e.ID, &e.Category, &e.SubCategory, &e.Description, &e.Amount, &e.Date,
		&e.Owner.ID, &e.Owner.Name); err != nil {
		return nil, err
	}
	return &e, nil
}
