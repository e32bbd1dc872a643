// internal/repository/postgres/contract_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"wager-market/internal/domain"
	"wager-market/internal/repository"
	"wager-market/internal/util"
)

const contractColumns = `id, maker, taker, title, description, amount, status, winner,
	maker_claim, taker_claim, disputed, created_at, updated_at`

// ContractRepository implements repository.ContractRepository for PostgreSQL.
// Transitions are single UPDATE ... WHERE <expected state> RETURNING statements,
// so a concurrent writer that got there first makes the statement match nothing.
type ContractRepository struct{}

// NewContractRepository creates a new ContractRepository.
func NewContractRepository() repository.ContractRepository {
	return &ContractRepository{}
}

// CreateContract inserts a new contract.
func (r *ContractRepository) CreateContract(ctx context.Context, q repository.DBExecutor, c *domain.Contract) error {
	query := `INSERT INTO contracts (id, maker, taker, title, description, amount, status, winner,
                  maker_claim, taker_claim, disputed, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := q.ExecContext(ctx, query,
		c.ID, c.Maker, c.Taker, c.Title, c.Description, c.Amount, c.Status, c.Winner,
		c.MakerClaim, c.TakerClaim, c.Disputed, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create contract: %w", err)
	}
	return nil
}

// GetContractByID retrieves a contract by id.
func (r *ContractRepository) GetContractByID(ctx context.Context, q repository.DBExecutor, id string) (*domain.Contract, error) {
	return r.getOne(ctx, q, `SELECT `+contractColumns+` FROM contracts WHERE id = $1`, id)
}

// GetContractByIDForUpdate retrieves and row-locks a contract for the rest of the transaction.
func (r *ContractRepository) GetContractByIDForUpdate(ctx context.Context, q repository.DBExecutor, id string) (*domain.Contract, error) {
	return r.getOne(ctx, q, `SELECT `+contractColumns+` FROM contracts WHERE id = $1 FOR UPDATE`, id)
}

func (r *ContractRepository) getOne(ctx context.Context, q repository.DBExecutor, query, id string) (*domain.Contract, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, util.ErrContractNotFound
	}
	var c domain.Contract
	if err := q.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrContractNotFound
		}
		return nil, storageError(err, "failed to get contract %s", id)
	}
	return &c, nil
}

// ClaimIfOpen implements the claim-if-open compare-and-swap.
func (r *ContractRepository) ClaimIfOpen(ctx context.Context, q repository.DBExecutor, id, takerID string, expectedAmount, newAmount decimal.Decimal) (*domain.Contract, error) {
	query := `UPDATE contracts
              SET taker = $1, amount = $2, status = 'active', updated_at = $3
              WHERE id = $4 AND status = 'open' AND taker IS NULL AND amount = $5 AND maker <> $1
              RETURNING ` + contractColumns
	return r.transition(ctx, q, "claim", id, query, takerID, newAmount, time.Now().UTC(), id, expectedAmount)
}

// CancelIfOpen implements the cancel-if-open compare-and-swap.
func (r *ContractRepository) CancelIfOpen(ctx context.Context, q repository.DBExecutor, id, makerID string) (*domain.Contract, error) {
	query := `UPDATE contracts
              SET status = 'cancelled', updated_at = $1
              WHERE id = $2 AND maker = $3 AND status = 'open' AND taker IS NULL
              RETURNING ` + contractColumns
	return r.transition(ctx, q, "cancel", id, query, time.Now().UTC(), id, makerID)
}

// RestakeIfActive changes the stake of an active contract.
func (r *ContractRepository) RestakeIfActive(ctx context.Context, q repository.DBExecutor, id string, expectedAmount, newAmount decimal.Decimal) (*domain.Contract, error) {
	query := `UPDATE contracts
              SET amount = $1, updated_at = $2
              WHERE id = $3 AND status = 'active' AND amount = $4
                AND maker_claim IS NULL AND taker_claim IS NULL
              RETURNING ` + contractColumns
	return r.transition(ctx, q, "restake", id, query, newAmount, time.Now().UTC(), id, expectedAmount)
}

// SubmitClaimIfActive stores one side's self-reported outcome.
func (r *ContractRepository) SubmitClaimIfActive(ctx context.Context, q repository.DBExecutor, id string, party domain.Party, claim bool) (*domain.Contract, error) {
	column, other := "maker_claim", "taker_claim"
	if party == domain.PartyTaker {
		column, other = "taker_claim", "maker_claim"
	}
	query := `UPDATE contracts
              SET ` + column + ` = $1,
                  disputed = (` + other + ` IS NOT NULL AND ` + other + ` = $1),
                  updated_at = $2
              WHERE id = $3 AND status = 'active'
              RETURNING ` + contractColumns
	return r.transition(ctx, q, "submit claim", id, query, claim, time.Now().UTC(), id)
}

// ResolveIfActive implements the resolve-if-active compare-and-swap.
func (r *ContractRepository) ResolveIfActive(ctx context.Context, q repository.DBExecutor, id, winnerID string, makerClaim, takerClaim bool) (*domain.Contract, error) {
	query := `UPDATE contracts
              SET status = 'resolved', winner = $1, disputed = FALSE, updated_at = $2
              WHERE id = $3 AND status = 'active' AND maker_claim = $4 AND taker_claim = $5
                AND ($1 = maker OR $1 = taker)
              RETURNING ` + contractColumns
	return r.transition(ctx, q, "resolve", id, query, winnerID, time.Now().UTC(), id, makerClaim, takerClaim)
}

func (r *ContractRepository) transition(ctx context.Context, q repository.DBExecutor, op, id, query string, args ...interface{}) (*domain.Contract, error) {
	var c domain.Contract
	err := q.GetContext(ctx, &c, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.Errorf(util.ErrConflict, "%s of contract %s matched no row in the expected state", op, id)
		}
		return nil, storageError(err, "failed to %s contract %s", op, id)
	}
	return &c, nil
}

// ListContracts retrieves a page of the public feed and the total match count.
func (r *ContractRepository) ListContracts(ctx context.Context, q repository.DBExecutor, filter repository.ContractFilter) ([]domain.Contract, int64, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.MakerID != "" {
		conds = append(conds, "maker = "+arg(filter.MakerID))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		p := arg(containsPattern(s))
		or := []string{"title ILIKE " + p, "description ILIKE " + p}
		if amount, err := decimal.NewFromString(s); err == nil {
			or = append(or, "amount = "+arg(amount))
		}
		conds = append(conds, "("+strings.Join(or, " OR ")+")")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := q.GetContext(ctx, &total, `SELECT COUNT(*) FROM contracts`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count contracts: %w", err)
	}

	contracts := []domain.Contract{}
	query := `SELECT ` + contractColumns + ` FROM contracts` + where +
		` ORDER BY created_at DESC, id LIMIT ` + arg(filter.Limit) + ` OFFSET ` + arg(filter.Offset)
	if err := q.SelectContext(ctx, &contracts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list contracts: %w", err)
	}
	return contracts, total, nil
}

// ListContractsByUser retrieves every contract the user made or took.
func (r *ContractRepository) ListContractsByUser(ctx context.Context, q repository.DBExecutor, userID string) ([]domain.Contract, error) {
	contracts := []domain.Contract{}
	query := `SELECT ` + contractColumns + ` FROM contracts
              WHERE maker = $1 OR taker = $1
              ORDER BY created_at DESC, id`
	if err := q.SelectContext(ctx, &contracts, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list contracts for user %s: %w", userID, err)
	}
	return contracts, nil
}
