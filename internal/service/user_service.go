// internal/service/user_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"wager-market/internal/domain"
	"wager-market/internal/repository"
	"wager-market/internal/util"
)

const maxUsernameLength = 32

// ProfileUpdate carries the optional fields of a profile patch.
type ProfileUpdate struct {
	Username *string
	Balance  *decimal.Decimal
}

// UserService manages user provisioning and profiles.
type UserService interface {
	// EnsureUser returns the user for a verified identity, creating it with a
	// zero balance and no username on first sight.
	EnsureUser(ctx context.Context, id, email, displayName string) (*domain.User, bool, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*domain.User, error)
	GetLedger(ctx context.Context, id string, limit, offset int) ([]domain.LedgerEntry, int64, error)
}

type userService struct {
	tx         txRunner
	dbExecutor repository.DBExecutor
	repos      repository.Repositories
	ledger     *Ledger
	logger     *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(txFuncs TxFuncs, dbExecutor repository.DBExecutor, repos repository.Repositories, logger *slog.Logger) UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &userService{
		tx:         newTxRunner(txFuncs),
		dbExecutor: dbExecutor,
		repos:      repos,
		ledger:     NewLedger(repos.Users, repos.Ledger),
		logger:     logger,
	}
}

func (s *userService) EnsureUser(ctx context.Context, id, email, displayName string) (*domain.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if id == "" || email == "" {
		return nil, false, util.Errorf(util.ErrInvalidInput, "identity must carry a subject and an email")
	}

	if u, err := s.repos.Users.GetUserByID(ctx, s.dbExecutor, id); err == nil {
		return u, false, nil
	} else if !util.IsError(err, util.ErrUserNotFound) {
		return nil, false, fmt.Errorf("ensure user: %w", err)
	}

	// One account per email; it stays bound to the subject that created it.
	if _, err := s.repos.Users.GetUserByEmail(ctx, s.dbExecutor, email); err == nil {
		s.logger.Warn("Session rejected: email bound to another subject", "user_id", id)
		return nil, false, util.Errorf(util.ErrConflict, "email %s is already registered to another account", email)
	} else if !util.IsError(err, util.ErrUserNotFound) {
		return nil, false, fmt.Errorf("ensure user: %w", err)
	}

	user := domain.NewUser(id, email, strings.TrimSpace(displayName))
	if err := s.repos.Users.CreateUser(ctx, s.dbExecutor, user); err != nil {
		if util.IsError(err, util.ErrDuplicateEntry) {
			// A concurrent first login won; return what it created.
			existing, getErr := s.repos.Users.GetUserByID(ctx, s.dbExecutor, id)
			if getErr == nil {
				return existing, false, nil
			}
			return nil, false, util.Errorf(util.ErrConflict, "email %s is already registered", email)
		}
		return nil, false, fmt.Errorf("ensure user: %w", err)
	}
	s.logger.Info("User provisioned", "user_id", user.ID)
	return user, true, nil
}

func (s *userService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, util.Errorf(util.ErrInvalidInput, "missing userId")
	}
	u, err := s.repos.Users.GetUserByID(ctx, s.dbExecutor, id)
	if err != nil {
		return nil, userLookupError(err)
	}
	return u, nil
}

func (s *userService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, util.Errorf(util.ErrInvalidInput, "email query param is required")
	}
	u, err := s.repos.Users.GetUserByEmail(ctx, s.dbExecutor, email)
	if err != nil {
		return nil, userLookupError(err)
	}
	return u, nil
}

// UpdateProfile applies a username claim and/or a balance set. A balance set
// is journaled as an adjustment of the difference.
func (s *userService) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*domain.User, error) {
	if id == "" {
		return nil, util.Errorf(util.ErrInvalidInput, "missing userId")
	}
	if update.Username == nil && update.Balance == nil {
		return nil, util.Errorf(util.ErrInvalidInput, "username or balance is required")
	}

	var username string
	if update.Username != nil {
		username = strings.TrimSpace(*update.Username)
		if username == "" {
			return nil, util.Errorf(util.ErrInvalidInput, "username cannot be empty")
		}
		if utf8.RuneCountInString(username) > maxUsernameLength {
			return nil, util.Errorf(util.ErrInvalidInput, "username must be at most %d characters", maxUsernameLength)
		}
	}
	if update.Balance != nil {
		if update.Balance.IsNegative() {
			return nil, util.Errorf(util.ErrInvalidInput, "balance cannot be negative")
		}
		if err := domain.CheckMoney("balance", *update.Balance); err != nil {
			return nil, err
		}
	}

	var out *domain.User
	err := s.tx.run(ctx, "update profile", func(q repository.DBExecutor) error {
		current, err := s.repos.Users.GetUserByIDForUpdate(ctx, q, id)
		if err != nil {
			return userLookupError(err)
		}
		out = current

		if update.Username != nil {
			existing, err := s.repos.Users.GetUserByUsername(ctx, q, username)
			switch {
			case err == nil && existing.ID != id:
				return util.Errorf(util.ErrDuplicateEntry, "username is already taken")
			case err != nil && !util.IsError(err, util.ErrUserNotFound):
				return fmt.Errorf("update profile: %w", err)
			}
			out, err = s.repos.Users.UpdateUsername(ctx, q, id, username)
			if err != nil {
				if util.IsError(err, util.ErrDuplicateEntry) {
					return util.Errorf(util.ErrDuplicateEntry, "username is already taken")
				}
				return fmt.Errorf("update profile: %w", err)
			}
		}

		if update.Balance != nil {
			delta := update.Balance.Sub(current.Balance)
			users, err := s.ledger.Apply(ctx, q, "", Credit(id, delta, domain.EntryKindAdjustment))
			if err != nil {
				return err
			}
			out = users[id]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *userService) GetLedger(ctx context.Context, id string, limit, offset int) ([]domain.LedgerEntry, int64, error) {
	if limit < 1 || limit > MaxFeedLimit {
		return nil, 0, util.Errorf(util.ErrInvalidInput, "limit must be between 1 and %d", MaxFeedLimit)
	}
	if offset < 0 {
		return nil, 0, util.Errorf(util.ErrInvalidInput, "offset must be >= 0")
	}
	if _, err := s.GetUser(ctx, id); err != nil {
		return nil, 0, err
	}
	entries, total, err := s.repos.Ledger.ListEntriesByUser(ctx, s.dbExecutor, id, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("get ledger: %w", err)
	}
	return entries, total, nil
}

func userLookupError(err error) error {
	if util.IsError(err, util.ErrUserNotFound) {
		return util.Errorf(util.ErrUserNotFound, "user not found")
	}
	return fmt.Errorf("get user: %w", err)
}
