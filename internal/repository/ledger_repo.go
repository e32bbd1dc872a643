// internal/repository/ledger_repo.go
package repository

import (
	"context"

	"wager-market/internal/domain"
)

// LedgerRepository defines the interface for the balance journal.
type LedgerRepository interface {
	// CreateEntry appends a journal row using the provided DBExecutor.
	CreateEntry(ctx context.Context, q DBExecutor, entry *domain.LedgerEntry) error
	// ListEntriesByUser returns a newest-first page of a user's journal and the total count.
	ListEntriesByUser(ctx context.Context, q DBExecutor, userID string, limit, offset int) ([]domain.LedgerEntry, int64, error)
}
