// internal/service/query_service.go
package service

import (
	"context"
	"fmt"
	"strings"

	"wager-market/internal/domain"
	"wager-market/internal/repository"
	"wager-market/internal/util"
)

// Feed pagination bounds.
const (
	DefaultFeedLimit        = 20
	MaxFeedLimit            = 100
	DefaultNegotiationLimit = 50
	MaxNegotiationLimit     = 200
)

// FeedParams selects a page of the public feed.
type FeedParams struct {
	Page     int
	Limit    int
	Search   string
	Username string
}

// FeedPage is one page of the public feed.
type FeedPage struct {
	Contracts []domain.Contract
	Total     int64
	Page      int
	Limit     int
}

// NegotiationQuery narrows a negotiation listing.
type NegotiationQuery struct {
	ToUID      string
	FromUID    string
	ContractID string
	Status     string
	Limit      int
}

// QueryService exposes read-only projections. It never mutates state.
type QueryService interface {
	ListPublicContracts(ctx context.Context, params FeedParams) (*FeedPage, error)
	GetContract(ctx context.Context, id string) (*domain.Contract, error)
	ListContractsByUser(ctx context.Context, userID string) ([]domain.Contract, error)
	ListNegotiations(ctx context.Context, query NegotiationQuery) ([]domain.Negotiation, error)
	GetNegotiation(ctx context.Context, id string) (*domain.Negotiation, error)
}

type queryService struct {
	dbExecutor repository.DBExecutor
	repos      repository.Repositories
}

// NewQueryService creates a new QueryService reading through dbExecutor.
func NewQueryService(dbExecutor repository.DBExecutor, repos repository.Repositories) QueryService {
	return &queryService{dbExecutor: dbExecutor, repos: repos}
}

// ListPublicContracts returns a newest-first page of every contract,
// optionally narrowed by free-text search and maker username.
func (s *queryService) ListPublicContracts(ctx context.Context, params FeedParams) (*FeedPage, error) {
	if params.Page < 1 {
		return nil, util.Errorf(util.ErrInvalidInput, "page must be >= 1")
	}
	if params.Limit < 1 || params.Limit > MaxFeedLimit {
		return nil, util.Errorf(util.ErrInvalidInput, "limit must be between 1 and %d", MaxFeedLimit)
	}

	page := &FeedPage{Contracts: []domain.Contract{}, Page: params.Page, Limit: params.Limit}
	filter := repository.ContractFilter{
		Search: strings.TrimSpace(params.Search),
		Limit:  params.Limit,
		Offset: (params.Page - 1) * params.Limit,
	}

	if username := strings.TrimSpace(params.Username); username != "" {
		maker, err := s.repos.Users.GetUserByUsername(ctx, s.dbExecutor, username)
		if err != nil {
			if util.IsError(err, util.ErrUserNotFound) {
				return page, nil
			}
			return nil, fmt.Errorf("list contracts: %w", err)
		}
		filter.MakerID = maker.ID
	}

	contracts, total, err := s.repos.Contracts.ListContracts(ctx, s.dbExecutor, filter)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	page.Contracts = contracts
	page.Total = total
	return page, nil
}

func (s *queryService) GetContract(ctx context.Context, id string) (*domain.Contract, error) {
	if id == "" {
		return nil, util.Errorf(util.ErrInvalidInput, "missing contractId")
	}
	c, err := s.repos.Contracts.GetContractByID(ctx, s.dbExecutor, id)
	if err != nil {
		if util.IsError(err, util.ErrContractNotFound) {
			return nil, util.Errorf(util.ErrContractNotFound, "contract not found")
		}
		return nil, fmt.Errorf("get contract: %w", err)
	}
	return c, nil
}

func (s *queryService) ListContractsByUser(ctx context.Context, userID string) ([]domain.Contract, error) {
	if userID == "" {
		return nil, util.Errorf(util.ErrInvalidInput, "missing userId")
	}
	contracts, err := s.repos.Contracts.ListContractsByUser(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("list user contracts: %w", err)
	}
	return contracts, nil
}

func (s *queryService) ListNegotiations(ctx context.Context, query NegotiationQuery) ([]domain.Negotiation, error) {
	filter := repository.NegotiationFilter{
		ToUID:      strings.TrimSpace(query.ToUID),
		FromUID:    strings.TrimSpace(query.FromUID),
		ContractID: strings.TrimSpace(query.ContractID),
		Limit:      query.Limit,
	}
	if query.Status != "" {
		st, err := domain.ParseNegotiationStatus(query.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = st
	}
	switch {
	case filter.Limit == 0:
		filter.Limit = DefaultNegotiationLimit
	case filter.Limit < 0 || filter.Limit > MaxNegotiationLimit:
		return nil, util.Errorf(util.ErrInvalidInput, "limit must be between 1 and %d", MaxNegotiationLimit)
	}

	negotiations, err := s.repos.Negotiations.ListNegotiations(ctx, s.dbExecutor, filter)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return negotiations, nil
}

func (s *queryService) GetNegotiation(ctx context.Context, id string) (*domain.Negotiation, error) {
	if id == "" {
		return nil, util.Errorf(util.ErrInvalidInput, "missing notificationId")
	}
	n, err := s.repos.Negotiations.GetNegotiationByID(ctx, s.dbExecutor, id)
	if err != nil {
		if util.IsError(err, util.ErrNegotiationNotFound) {
			return nil, util.Errorf(util.ErrNegotiationNotFound, "notification not found")
		}
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}
