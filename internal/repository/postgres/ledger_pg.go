// internal/repository/postgres/ledger_pg.go
package postgres

import (
	"context"
	"fmt"

	"wager-market/internal/domain"
	"wager-market/internal/repository"
)

// LedgerRepository implements repository.LedgerRepository for PostgreSQL.
type LedgerRepository struct{}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository() repository.LedgerRepository {
	return &LedgerRepository{}
}

// CreateEntry inserts a new journal row using the provided DBExecutor.
func (r *LedgerRepository) CreateEntry(ctx context.Context, q repository.DBExecutor, e *domain.LedgerEntry) error {
	query := `INSERT INTO ledger_entries (id, user_id, contract_id, kind, amount, balance_after, request_id, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := q.ExecContext(ctx, query, e.ID, e.UserID, e.ContractID, e.Kind, e.Amount, e.BalanceAfter, e.RequestID, e.CreatedAt)
	if err != nil {
		return storageError(err, "failed to create ledger entry")
	}
	return nil
}

// ListEntriesByUser retrieves a paginated list of journal rows for a user.
// It performs two queries: one for the data and one for the total count.
func (r *LedgerRepository) ListEntriesByUser(ctx context.Context, q repository.DBExecutor, userID string, limit, offset int) ([]domain.LedgerEntry, int64, error) {
	entries := []domain.LedgerEntry{}

	query := `
		SELECT id, user_id, contract_id, kind, amount, balance_after, request_id, created_at
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`
	if err := q.SelectContext(ctx, &entries, query, userID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch ledger entries for user %s: %w", userID, err)
	}

	var totalCount int64
	countQuery := `SELECT COUNT(*) FROM ledger_entries WHERE user_id = $1`
	if err := q.GetContext(ctx, &totalCount, countQuery, userID); err != nil {
		return nil, 0, fmt.Errorf("failed to get total ledger entry count for user %s: %w", userID, err)
	}

	return entries, totalCount, nil
}
