// internal/repository/user_repo.go
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"wager-market/internal/domain"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	// CreateUser inserts a user. A taken id or email yields util.ErrDuplicateEntry.
	CreateUser(ctx context.Context, q DBExecutor, user *domain.User) error
	// GetUserByID returns util.ErrUserNotFound when absent.
	GetUserByID(ctx context.Context, q DBExecutor, id string) (*domain.User, error)
	// GetUserByIDForUpdate is GetUserByID holding a row lock until the transaction ends.
	GetUserByIDForUpdate(ctx context.Context, q DBExecutor, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, q DBExecutor, email string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, q DBExecutor, username string) (*domain.User, error)
	// UpdateUsername sets the handle. A taken handle yields util.ErrDuplicateEntry.
	UpdateUsername(ctx context.Context, q DBExecutor, id, username string) (*domain.User, error)
	// AdjustBalance adds delta to the balance only if the result stays non-negative,
	// in one conditional statement. It returns util.ErrInsufficientFunds otherwise.
	AdjustBalance(ctx context.Context, q DBExecutor, id string, delta decimal.Decimal) (*domain.User, error)
}
