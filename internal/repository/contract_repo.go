// internal/repository/contract_repo.go
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"wager-market/internal/domain"
)

// ContractFilter selects contracts for the public feed.
type ContractFilter struct {
	Search  string // matches title/description (case-insensitive) or the exact amount
	MakerID string
	Limit   int
	Offset  int
}

// ContractRepository stores contracts. Every state change is a single
// conditional write keyed on the expected prior state; when the row no longer
// matches, the method returns util.ErrConflict and changes nothing.
type ContractRepository interface {
	CreateContract(ctx context.Context, q DBExecutor, contract *domain.Contract) error
	// GetContractByID returns util.ErrContractNotFound when absent.
	GetContractByID(ctx context.Context, q DBExecutor, id string) (*domain.Contract, error)
	// GetContractByIDForUpdate also row-locks the contract until the transaction ends.
	GetContractByIDForUpdate(ctx context.Context, q DBExecutor, id string) (*domain.Contract, error)

	// ClaimIfOpen moves an open, untaken contract whose stake is still
	// expectedAmount to active with takerID and newAmount.
	ClaimIfOpen(ctx context.Context, q DBExecutor, id, takerID string, expectedAmount, newAmount decimal.Decimal) (*domain.Contract, error)
	// CancelIfOpen moves an open, untaken contract owned by makerID to cancelled.
	CancelIfOpen(ctx context.Context, q DBExecutor, id, makerID string) (*domain.Contract, error)
	// RestakeIfActive changes the stake of an active contract with no submitted
	// claims from expectedAmount to newAmount.
	RestakeIfActive(ctx context.Context, q DBExecutor, id string, expectedAmount, newAmount decimal.Decimal) (*domain.Contract, error)
	// SubmitClaimIfActive records party's self-reported outcome on an active
	// contract. In the same write, disputed becomes true when the other side
	// has already reported the same outcome, and false otherwise.
	SubmitClaimIfActive(ctx context.Context, q DBExecutor, id string, party domain.Party, claim bool) (*domain.Contract, error)
	// ResolveIfActive moves an active contract whose claims still equal the
	// given pair to resolved with winnerID.
	ResolveIfActive(ctx context.Context, q DBExecutor, id, winnerID string, makerClaim, takerClaim bool) (*domain.Contract, error)

	// ListContracts returns a newest-first page and the total match count.
	ListContracts(ctx context.Context, q DBExecutor, filter ContractFilter) ([]domain.Contract, int64, error)
	// ListContractsByUser returns every contract where userID is maker or taker, newest first.
	ListContractsByUser(ctx context.Context, q DBExecutor, userID string) ([]domain.Contract, error)
}
