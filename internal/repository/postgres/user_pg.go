// internal/repository/postgres/user_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"wager-market/internal/domain"
	"wager-market/internal/repository"
	"wager-market/internal/util"
)

const userColumns = `id, email, display_name, username, balance, times_banned, created_at, updated_at`

// UserRepository implements repository.UserRepository for PostgreSQL.
type UserRepository struct{}

// NewUserRepository creates a new UserRepository. Methods receive their DBExecutor per call.
func NewUserRepository() repository.UserRepository {
	return &UserRepository{}
}

// CreateUser inserts a new user into the database using the provided DBExecutor.
func (r *UserRepository) CreateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	query := `INSERT INTO users (id, email, display_name, username, balance, times_banned, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := q.ExecContext(ctx, query,
		user.ID, user.Email, user.DisplayName, user.Username, user.Balance, user.TimesBanned, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return util.Errorf(util.ErrDuplicateEntry, "user %s or email %s already exists", user.ID, user.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their ID using the provided DBExecutor.
func (r *UserRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id string) (*domain.User, error) {
	return r.getOne(ctx, q, `SELECT `+userColumns+` FROM users WHERE id = $1`, "ID", id)
}

// GetUserByIDForUpdate retrieves and row-locks a user for the rest of the transaction.
func (r *UserRepository) GetUserByIDForUpdate(ctx context.Context, q repository.DBExecutor, id string) (*domain.User, error) {
	return r.getOne(ctx, q, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, "ID", id)
}

// GetUserByEmail retrieves a user by email.
func (r *UserRepository) GetUserByEmail(ctx context.Context, q repository.DBExecutor, email string) (*domain.User, error) {
	return r.getOne(ctx, q, `SELECT `+userColumns+` FROM users WHERE email = $1`, "email", email)
}

// GetUserByUsername retrieves a user by their username using the provided DBExecutor.
func (r *UserRepository) GetUserByUsername(ctx context.Context, q repository.DBExecutor, username string) (*domain.User, error) {
	return r.getOne(ctx, q, `SELECT `+userColumns+` FROM users WHERE username = $1`, "username", username)
}

func (r *UserRepository) getOne(ctx context.Context, q repository.DBExecutor, query, field, value string) (*domain.User, error) {
	var user domain.User
	if err := q.GetContext(ctx, &user, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrUserNotFound
		}
		return nil, storageError(err, "failed to get user by %s '%s'", field, value)
	}
	return &user, nil
}

// UpdateUsername sets the user's handle.
func (r *UserRepository) UpdateUsername(ctx context.Context, q repository.DBExecutor, id, username string) (*domain.User, error) {
	var user domain.User
	query := `UPDATE users SET username = $1, updated_at = $2 WHERE id = $3 RETURNING ` + userColumns
	err := q.GetContext(ctx, &user, query, username, time.Now().UTC(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return nil, util.Errorf(util.ErrDuplicateEntry, "username is already taken")
		}
		return nil, storageError(err, "failed to update username for %s", id)
	}
	return &user, nil
}

// AdjustBalance applies a signed delta in a single conditional UPDATE that
// refuses to take the balance below zero.
func (r *UserRepository) AdjustBalance(ctx context.Context, q repository.DBExecutor, id string, delta decimal.Decimal) (*domain.User, error) {
	var user domain.User
	query := `UPDATE users SET balance = balance + $1, updated_at = $2
              WHERE id = $3 AND balance + $1 >= 0
              RETURNING ` + userColumns
	err := q.GetContext(ctx, &user, query, delta, time.Now().UTC(), id)
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, storageError(err, "failed to adjust balance for %s", id)
	}

	// No row matched: either the user is gone or the debit would overdraw.
	if _, getErr := r.GetUserByID(ctx, q, id); getErr != nil {
		return nil, getErr
	}
	return nil, util.Errorf(util.ErrInsufficientFunds, "user %s cannot cover %s", id, delta.Neg())
}
