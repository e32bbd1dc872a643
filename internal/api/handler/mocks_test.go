package handler_test

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"wager-market/internal/auth"
	"wager-market/internal/domain"
	"wager-market/internal/service"
)

type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) outcome(args mock.Arguments) (*service.Outcome, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Outcome), args.Error(1)
}

func (m *MockSettlementService) CreateContract(ctx context.Context, makerID, title, description string, amount decimal.Decimal) (*service.Outcome, error) {
	return m.outcome(m.Called(ctx, makerID, title, description, amount))
}

func (m *MockSettlementService) ClaimContract(ctx context.Context, contractID, claimantID string) (*service.Outcome, error) {
	return m.outcome(m.Called(ctx, contractID, claimantID))
}

func (m *MockSettlementService) CancelContract(ctx context.Context, contractID, makerID string) (*service.Outcome, error) {
	return m.outcome(m.Called(ctx, contractID, makerID))
}

func (m *MockSettlementService) SubmitResolution(ctx context.Context, contractID, userID string, claim bool) (*service.Outcome, error) {
	return m.outcome(m.Called(ctx, contractID, userID, claim))
}

func (m *MockSettlementService) ProposeRaise(ctx context.Context, fromUID, toUID, contractID string, amount decimal.Decimal) (*domain.Negotiation, error) {
	args := m.Called(ctx, fromUID, toUID, contractID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Negotiation), args.Error(1)
}

func (m *MockSettlementService) RespondToRaise(ctx context.Context, negotiationID, actorID string, status domain.NegotiationStatus) (*service.Outcome, error) {
	return m.outcome(m.Called(ctx, negotiationID, actorID, status))
}

type MockQueryService struct {
	mock.Mock
}

func (m *MockQueryService) ListPublicContracts(ctx context.Context, params service.FeedParams) (*service.FeedPage, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FeedPage), args.Error(1)
}

func (m *MockQueryService) GetContract(ctx context.Context, id string) (*domain.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contract), args.Error(1)
}

func (m *MockQueryService) ListContractsByUser(ctx context.Context, userID string) ([]domain.Contract, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Contract), args.Error(1)
}

func (m *MockQueryService) ListNegotiations(ctx context.Context, query service.NegotiationQuery) ([]domain.Negotiation, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Negotiation), args.Error(1)
}

func (m *MockQueryService) GetNegotiation(ctx context.Context, id string) (*domain.Negotiation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Negotiation), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) EnsureUser(ctx context.Context, id, email, displayName string) (*domain.User, bool, error) {
	args := m.Called(ctx, id, email, displayName)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*domain.User), args.Bool(1), args.Error(2)
}

func (m *MockUserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id string, update service.ProfileUpdate) (*domain.User, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) GetLedger(ctx context.Context, id string, limit, offset int) ([]domain.LedgerEntry, int64, error) {
	args := m.Called(ctx, id, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Get(1).(int64), args.Error(2)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, token string) (auth.Identity, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(auth.Identity), args.Error(1)
}
