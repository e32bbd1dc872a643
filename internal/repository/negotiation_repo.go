// internal/repository/negotiation_repo.go
package repository

import (
	"context"

	"wager-market/internal/domain"
)

// NegotiationFilter narrows a negotiation listing. Empty fields match all.
type NegotiationFilter struct {
	ToUID      string
	FromUID    string
	ContractID string
	Status     domain.NegotiationStatus
	Limit      int
}

// NegotiationRepository stores raise proposals.
type NegotiationRepository interface {
	CreateNegotiation(ctx context.Context, q DBExecutor, n *domain.Negotiation) error
	// GetNegotiationByID returns util.ErrNegotiationNotFound when absent.
	GetNegotiationByID(ctx context.Context, q DBExecutor, id string) (*domain.Negotiation, error)
	// SetStatusIfPending moves a pending proposal to a terminal status, or
	// returns util.ErrConflict if it is no longer pending.
	SetStatusIfPending(ctx context.Context, q DBExecutor, id string, status domain.NegotiationStatus) (*domain.Negotiation, error)
	ListNegotiations(ctx context.Context, q DBExecutor, filter NegotiationFilter) ([]domain.Negotiation, error)
}
