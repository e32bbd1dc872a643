// internal/service/ledger.go
package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"wager-market/internal/domain"
	"wager-market/internal/repository"
	"wager-market/internal/util"
)

// Movement is one signed balance change. Negative deltas are debits.
type Movement struct {
	UserID string
	Delta  decimal.Decimal
	Kind   domain.EntryKind
}

// Debit returns a movement taking amount from userID.
func Debit(userID string, amount decimal.Decimal, kind domain.EntryKind) Movement {
	return Movement{UserID: userID, Delta: amount.Neg(), Kind: kind}
}

// Credit returns a movement giving amount to userID.
func Credit(userID string, amount decimal.Decimal, kind domain.EntryKind) Movement {
	return Movement{UserID: userID, Delta: amount, Kind: kind}
}

// Ledger owns user balances. It must be used with a transactional DBExecutor.
type Ledger struct {
	users   repository.UserRepository
	entries repository.LedgerRepository
}

// NewLedger creates a Ledger over the given repositories.
func NewLedger(users repository.UserRepository, entries repository.LedgerRepository) *Ledger {
	return &Ledger{users: users, entries: entries}
}

// Apply performs every movement or none. All touched users are row-locked in
// id order and checked for sufficiency before the first balance changes; each
// change is then a conditional update that cannot overdraw, and each is
// journaled. It returns the post-movement state of every touched user.
func (l *Ledger) Apply(ctx context.Context, q repository.DBExecutor, contractID string, moves ...Movement) (map[string]*domain.User, error) {
	net := make(map[string]decimal.Decimal)
	for _, m := range moves {
		if m.UserID == "" {
			return nil, util.Errorf(util.ErrInvalidInput, "ledger movement without a user")
		}
		net[m.UserID] = net[m.UserID].Add(m.Delta)
	}

	ids := make([]string, 0, len(net))
	for id := range net {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		user, err := l.users.GetUserByIDForUpdate(ctx, q, id)
		if err != nil {
			if util.IsError(err, util.ErrUserNotFound) {
				return nil, util.Errorf(util.ErrUserNotFound, "user %s not found", id)
			}
			return nil, fmt.Errorf("ledger: failed to lock user %s: %w", id, err)
		}
		if user.Balance.Add(net[id]).IsNegative() {
			return nil, util.Errorf(util.ErrInsufficientFunds,
				"insufficient balance: user %s has %s but needs %s", id, user.Balance.String(), net[id].Neg().String())
		}
		result[id] = user
	}

	requestID := middleware.GetReqID(ctx)
	for _, m := range moves {
		if m.Delta.IsZero() {
			continue
		}
		user, err := l.users.AdjustBalance(ctx, q, m.UserID, m.Delta)
		if err != nil {
			if util.IsError(err, util.ErrInsufficientFunds) || util.IsNotFound(err) {
				return nil, err
			}
			return nil, fmt.Errorf("ledger: failed to move %s for user %s: %w", m.Delta, m.UserID, err)
		}
		entry := domain.NewLedgerEntry(m.UserID, contractID, m.Kind, m.Delta, user.Balance, requestID)
		if err := l.entries.CreateEntry(ctx, q, entry); err != nil {
			return nil, fmt.Errorf("ledger: failed to journal movement for user %s: %w", m.UserID, err)
		}
		result[m.UserID] = user
	}
	return result, nil
}
