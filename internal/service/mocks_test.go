package service

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"wager-market/internal/domain"
	"wager-market/internal/repository"
	"wager-market/pkg/db"
)

// MockDBExecutor is a mock implementation of repository.DBExecutor.
type MockDBExecutor struct {
	mock.Mock
}

func (m *MockDBExecutor) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	argsCalled := m.Called(ctx, query, args)
	return argsCalled.Get(0).(sql.Result), argsCalled.Error(1)
}

func (m *MockDBExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	m.Called(ctx, query, args)
	return &sql.Row{}
}

// MockTxController is a mock implementation of db.TxController.
// It embeds MockDBExecutor to satisfy repository.DBExecutor.
type MockTxController struct {
	mock.Mock
	MockDBExecutor
}

func (m *MockTxController) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTxController) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// mockTxFuncs routes the injected transaction functions through tx.
func mockTxFuncs(tx *MockTxController, beginErr error) TxFuncs {
	return TxFuncs{
		Begin: func(ctx context.Context, dbConn db.DBTxBeginner) (db.TxController, error) {
			if beginErr != nil {
				return nil, beginErr
			}
			return tx, nil
		},
		Commit: func(c db.TxController) error {
			return c.Commit()
		},
		Rollback: func(c db.TxController) {
			_ = c.Rollback()
		},
	}
}

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	args := m.Called(ctx, q, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id string) (*domain.User, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByIDForUpdate(ctx context.Context, q repository.DBExecutor, id string) (*domain.User, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, q repository.DBExecutor, email string) (*domain.User, error) {
	args := m.Called(ctx, q, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, q repository.DBExecutor, username string) (*domain.User, error) {
	args := m.Called(ctx, q, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdateUsername(ctx context.Context, q repository.DBExecutor, id, username string) (*domain.User, error) {
	args := m.Called(ctx, q, id, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) AdjustBalance(ctx context.Context, q repository.DBExecutor, id string, delta decimal.Decimal) (*domain.User, error) {
	args := m.Called(ctx, q, id, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockContractRepository is a mock implementation of repository.ContractRepository.
type MockContractRepository struct {
	mock.Mock
}

func (m *MockContractRepository) contract(args mock.Arguments) (*domain.Contract, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contract), args.Error(1)
}

func (m *MockContractRepository) CreateContract(ctx context.Context, q repository.DBExecutor, c *domain.Contract) error {
	args := m.Called(ctx, q, c)
	return args.Error(0)
}

func (m *MockContractRepository) GetContractByID(ctx context.Context, q repository.DBExecutor, id string) (*domain.Contract, error) {
	return m.contract(m.Called(ctx, q, id))
}

func (m *MockContractRepository) GetContractByIDForUpdate(ctx context.Context, q repository.DBExecutor, id string) (*domain.Contract, error) {
	return m.contract(m.Called(ctx, q, id))
}

func (m *MockContractRepository) ClaimIfOpen(ctx context.Context, q repository.DBExecutor, id, takerID string, expectedAmount, newAmount decimal.Decimal) (*domain.Contract, error) {
	return m.contract(m.Called(ctx, q, id, takerID, expectedAmount, newAmount))
}

func (m *MockContractRepository) CancelIfOpen(ctx context.Context, q repository.DBExecutor, id, makerID string) (*domain.Contract, error) {
	return m.contract(m.Called(ctx, q, id, makerID))
}

func (m *MockContractRepository) RestakeIfActive(ctx context.Context, q repository.DBExecutor, id string, expectedAmount, newAmount decimal.Decimal) (*domain.Contract, error) {
	return m.contract(m.Called(ctx, q, id, expectedAmount, newAmount))
}

func (m *MockContractRepository) SubmitClaimIfActive(ctx context.Context, q repository.DBExecutor, id string, party domain.Party, claim bool) (*domain.Contract, error) {
	return m.contract(m.Called(ctx, q, id, party, claim))
}

func (m *MockContractRepository) ResolveIfActive(ctx context.Context, q repository.DBExecutor, id, winnerID string, makerClaim, takerClaim bool) (*domain.Contract, error) {
	return m.contract(m.Called(ctx, q, id, winnerID, makerClaim, takerClaim))
}

func (m *MockContractRepository) ListContracts(ctx context.Context, q repository.DBExecutor, filter repository.ContractFilter) ([]domain.Contract, int64, error) {
	args := m.Called(ctx, q, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Contract), args.Get(1).(int64), args.Error(2)
}

func (m *MockContractRepository) ListContractsByUser(ctx context.Context, q repository.DBExecutor, userID string) ([]domain.Contract, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Contract), args.Error(1)
}

// MockLedgerRepository is a mock implementation of repository.LedgerRepository.
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) CreateEntry(ctx context.Context, q repository.DBExecutor, entry *domain.LedgerEntry) error {
	args := m.Called(ctx, q, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) ListEntriesByUser(ctx context.Context, q repository.DBExecutor, userID string, limit, offset int) ([]domain.LedgerEntry, int64, error) {
	args := m.Called(ctx, q, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Get(1).(int64), args.Error(2)
}
