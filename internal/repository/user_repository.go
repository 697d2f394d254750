package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/expense-tracker/internal/model"
)

const userColumns = "id, name, email, password_hash, created_at, updated_at"

// UserRepo stores user accounts.  DB is either the pool or a transaction.
type UserRepo struct{ DB DBTX }

// NewUserRepo returns a UserRepo running its queries on db.
func NewUserRepo(db DBTX) *UserRepo { return &UserRepo{DB: db} }

// txBeginner is implemented by *sql.DB.
type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// NormalizeEmail lower-cases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts the user and populates its ID and timestamps.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash) VALUES (?,?,?)",
		u.Name, u.Email, u.PasswordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*u = *stored
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1",
		NormalizeEmail(email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.getOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1",
		id)
}

// Exists reports whether a user with the given id is stored.
func (r *UserRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id=? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdateProfile writes name and email of an existing user.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, email=?, updated_at=CURRENT_TIMESTAMP WHERE id=?",
		u.Name, u.Email, u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes user id and all of its expenses.  On a pool both deletes run
// in one transaction; a repository already bound to a transaction joins it.
// ErrUserNotFound is returned when id is not stored.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	db, ok := r.DB.(txBeginner)
	if !ok {
		return deleteAccount(ctx, r.DB, id)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // no-op after commit

	if err := deleteAccount(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteAccount(ctx context.Context, db DBTX, id uint64) error {
	ok, err := NewUserRepo(db).Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	if _, err := NewExpenseRepo(db).DeleteByOwner(ctx, id); err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	return err
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
