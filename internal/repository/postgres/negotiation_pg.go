// internal/repository/postgres/negotiation_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"wager-market/internal/domain"
	"wager-market/internal/repository"
	"wager-market/internal/util"
)

const negotiationColumns = `id, from_uid, to_uid, contract_id, amount, kind, status, created_at, updated_at`

// NegotiationRepository implements repository.NegotiationRepository for PostgreSQL.
type NegotiationRepository struct{}

// NewNegotiationRepository creates a new NegotiationRepository.
func NewNegotiationRepository() repository.NegotiationRepository {
	return &NegotiationRepository{}
}

// CreateNegotiation inserts a proposal.
func (r *NegotiationRepository) CreateNegotiation(ctx context.Context, q repository.DBExecutor, n *domain.Negotiation) error {
	query := `INSERT INTO negotiations (` + negotiationColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := q.ExecContext(ctx, query, n.ID, n.FromUID, n.ToUID, n.ContractID, n.Amount, n.Kind, n.Status, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create negotiation: %w", err)
	}
	return nil
}

// GetNegotiationByID retrieves a proposal by id.
func (r *NegotiationRepository) GetNegotiationByID(ctx context.Context, q repository.DBExecutor, id string) (*domain.Negotiation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, util.ErrNegotiationNotFound
	}
	var n domain.Negotiation
	err := q.GetContext(ctx, &n, `SELECT `+negotiationColumns+` FROM negotiations WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNegotiationNotFound
		}
		return nil, fmt.Errorf("failed to get negotiation %s: %w", id, err)
	}
	return &n, nil
}

// SetStatusIfPending finalises a pending proposal.
func (r *NegotiationRepository) SetStatusIfPending(ctx context.Context, q repository.DBExecutor, id string, status domain.NegotiationStatus) (*domain.Negotiation, error) {
	var n domain.Negotiation
	query := `UPDATE negotiations SET status = $1, updated_at = $2
              WHERE id = $3 AND status = 'pending'
              RETURNING ` + negotiationColumns
	err := q.GetContext(ctx, &n, query, status, time.Now().UTC(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.Errorf(util.ErrConflict, "notification %s is no longer pending", id)
		}
		return nil, storageError(err, "failed to update negotiation %s", id)
	}
	return &n, nil
}

// ListNegotiations retrieves proposals matching filter, newest first.
func (r *NegotiationRepository) ListNegotiations(ctx context.Context, q repository.DBExecutor, filter repository.NegotiationFilter) ([]domain.Negotiation, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(column string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.ToUID != "" {
		add("to_uid", filter.ToUID)
	}
	if filter.FromUID != "" {
		add("from_uid", filter.FromUID)
	}
	if filter.ContractID != "" {
		if _, err := uuid.Parse(filter.ContractID); err != nil {
			return []domain.Negotiation{}, nil
		}
		add("contract_id", filter.ContractID)
	}
	if filter.Status != "" {
		add("status", filter.Status)
	}

	query := `SELECT ` + negotiationColumns + ` FROM negotiations`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d", len(args))

	negotiations := []domain.Negotiation{}
	if err := q.SelectContext(ctx, &negotiations, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list negotiations: %w", err)
	}
	return negotiations, nil
}
