package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"wager-market/internal/domain"
	"wager-market/internal/repository"
	"wager-market/internal/util"
	"wager-market/pkg/db"
)

// memStore is a transactional in-memory stand-in for PostgreSQL. Transactions
// are serialized by txMu and roll back by restoring a snapshot taken at begin.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users        map[string]domain.User
	contracts    map[string]domain.Contract
	negotiations map[string]domain.Negotiation
	entries      []domain.LedgerEntry

	// beforeClaimWrite runs at the start of ClaimIfOpen, outside the data lock.
	beforeClaimWrite func(s *memStore, contractID string)
}

func newMemStore() *memStore {
	return &memStore{
		users:        map[string]domain.User{},
		contracts:    map[string]domain.Contract{},
		negotiations: map[string]domain.Negotiation{},
	}
}

type memSnapshot struct {
	users        map[string]domain.User
	contracts    map[string]domain.Contract
	negotiations map[string]domain.Negotiation
	entries      []domain.LedgerEntry
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		users:        make(map[string]domain.User, len(s.users)),
		contracts:    make(map[string]domain.Contract, len(s.contracts)),
		negotiations: make(map[string]domain.Negotiation, len(s.negotiations)),
		entries:      append([]domain.LedgerEntry(nil), s.entries...),
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.contracts {
		snap.contracts[k] = v
	}
	for k, v := range s.negotiations {
		snap.negotiations[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.contracts = snap.contracts
	s.negotiations = snap.negotiations
	s.entries = snap.entries
}

// memExec satisfies repository.DBExecutor; the fake repositories never issue SQL.
type memExec struct{}

var errNoSQL = errors.New("memstore: raw SQL is not supported")

func (memExec) GetContext(context.Context, interface{}, string, ...interface{}) error { return errNoSQL }
func (memExec) SelectContext(context.Context, interface{}, string, ...interface{}) error {
	return errNoSQL
}
func (memExec) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errNoSQL
}
func (memExec) QueryRowContext(context.Context, string, ...interface{}) *sql.Row { return nil }

type memTx struct {
	memExec
	store *memStore
	snap  memSnapshot
	done  bool
}

func (t *memTx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	t.store.restore(t.snap)
	t.store.txMu.Unlock()
	return nil
}

func (s *memStore) txFuncs() TxFuncs {
	return TxFuncs{
		Begin: func(_ context.Context, _ db.DBTxBeginner) (db.TxController, error) {
			s.txMu.Lock()
			return &memTx{store: s, snap: s.snapshot()}, nil
		},
		Commit:   db.CommitTx,
		Rollback: db.RollbackTx,
	}
}

func (s *memStore) repos() repository.Repositories {
	return repository.Repositories{
		Users:        &memUsers{s},
		Contracts:    &memContracts{s},
		Negotiations: &memNegotiations{s},
		Ledger:       &memLedger{s},
	}
}

// seedUser stores a user with the given balance.
func (s *memStore) seedUser(id string, balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := domain.NewUser(id, id+"@example.com", strings.ToUpper(id))
	u.Balance = decimal.NewFromInt(balance)
	s.users[id] = *u
}

func (s *memStore) balance(id string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id].Balance
}

func (s *memStore) contract(id string) *domain.Contract {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.contracts[id]
	return &c
}

func (s *memStore) entriesFor(userID string) []domain.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.LedgerEntry
	for _, e := range s.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

type memUsers struct{ s *memStore }

func (r *memUsers) CreateUser(_ context.Context, _ repository.DBExecutor, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.ID == user.ID || u.Email == user.Email {
			return util.ErrDuplicateEntry
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *memUsers) GetUserByID(_ context.Context, _ repository.DBExecutor, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, util.ErrUserNotFound
	}
	return &u, nil
}

func (r *memUsers) GetUserByIDForUpdate(ctx context.Context, q repository.DBExecutor, id string) (*domain.User, error) {
	return r.GetUserByID(ctx, q, id)
}

func (r *memUsers) GetUserByEmail(_ context.Context, _ repository.DBExecutor, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, util.ErrUserNotFound
}

func (r *memUsers) GetUserByUsername(_ context.Context, _ repository.DBExecutor, username string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username != nil && *u.Username == username {
			return &u, nil
		}
	}
	return nil, util.ErrUserNotFound
}

func (r *memUsers) UpdateUsername(_ context.Context, _ repository.DBExecutor, id, username string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, util.ErrUserNotFound
	}
	for _, other := range r.s.users {
		if other.ID != id && other.Username != nil && *other.Username == username {
			return nil, util.ErrDuplicateEntry
		}
	}
	name := username
	u.Username = &name
	u.UpdatedAt = time.Now().UTC()
	r.s.users[id] = u
	return &u, nil
}

func (r *memUsers) AdjustBalance(_ context.Context, _ repository.DBExecutor, id string, delta decimal.Decimal) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, util.ErrUserNotFound
	}
	next := u.Balance.Add(delta)
	if next.IsNegative() {
		return nil, util.ErrInsufficientFunds
	}
	u.Balance = next
	u.UpdatedAt = time.Now().UTC()
	r.s.users[id] = u
	return &u, nil
}

type memContracts struct{ s *memStore }

func (r *memContracts) CreateContract(_ context.Context, _ repository.DBExecutor, c *domain.Contract) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.contracts[c.ID]; ok {
		return util.ErrDuplicateEntry
	}
	r.s.contracts[c.ID] = *c
	return nil
}

func (r *memContracts) GetContractByID(_ context.Context, _ repository.DBExecutor, id string) (*domain.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contracts[id]
	if !ok {
		return nil, util.ErrContractNotFound
	}
	return &c, nil
}

func (r *memContracts) GetContractByIDForUpdate(ctx context.Context, q repository.DBExecutor, id string) (*domain.Contract, error) {
	return r.GetContractByID(ctx, q, id)
}

// transition applies mutate to contract id when cond holds, else ErrConflict.
func (r *memContracts) transition(id string, cond func(c domain.Contract) bool, mutate func(c *domain.Contract)) (*domain.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contracts[id]
	if !ok || !cond(c) {
		return nil, util.ErrConflict
	}
	mutate(&c)
	c.UpdatedAt = time.Now().UTC()
	r.s.contracts[id] = c
	return &c, nil
}

func (r *memContracts) ClaimIfOpen(_ context.Context, _ repository.DBExecutor, id, takerID string, expectedAmount, newAmount decimal.Decimal) (*domain.Contract, error) {
	if hook := r.s.beforeClaimWrite; hook != nil {
		hook(r.s, id)
	}
	return r.transition(id,
		func(c domain.Contract) bool {
			return c.Status == domain.ContractStatusOpen && !c.HasTaker() && c.Maker != takerID && c.Amount.Equal(expectedAmount)
		},
		func(c *domain.Contract) {
			taker := takerID
			c.Taker = &taker
			c.Amount = newAmount
			c.Status = domain.ContractStatusActive
		})
}

func (r *memContracts) CancelIfOpen(_ context.Context, _ repository.DBExecutor, id, makerID string) (*domain.Contract, error) {
	return r.transition(id,
		func(c domain.Contract) bool {
			return c.Status == domain.ContractStatusOpen && !c.HasTaker() && c.Maker == makerID
		},
		func(c *domain.Contract) { c.Status = domain.ContractStatusCancelled })
}

func (r *memContracts) RestakeIfActive(_ context.Context, _ repository.DBExecutor, id string, expectedAmount, newAmount decimal.Decimal) (*domain.Contract, error) {
	return r.transition(id,
		func(c domain.Contract) bool {
			return c.Status == domain.ContractStatusActive && !c.ClaimsSubmitted() && c.Amount.Equal(expectedAmount)
		},
		func(c *domain.Contract) { c.Amount = newAmount })
}

func (r *memContracts) SubmitClaimIfActive(_ context.Context, _ repository.DBExecutor, id string, party domain.Party, claim bool) (*domain.Contract, error) {
	return r.transition(id,
		func(c domain.Contract) bool { return c.Status == domain.ContractStatusActive },
		func(c *domain.Contract) {
			v := claim
			other := c.TakerClaim
			if party == domain.PartyMaker {
				c.MakerClaim = &v
			} else {
				c.TakerClaim = &v
				other = c.MakerClaim
			}
			c.Disputed = other != nil && *other == claim
		})
}

func (r *memContracts) ResolveIfActive(_ context.Context, _ repository.DBExecutor, id, winnerID string, makerClaim, takerClaim bool) (*domain.Contract, error) {
	return r.transition(id,
		func(c domain.Contract) bool {
			return c.Status == domain.ContractStatusActive &&
				c.MakerClaim != nil && *c.MakerClaim == makerClaim &&
				c.TakerClaim != nil && *c.TakerClaim == takerClaim
		},
		func(c *domain.Contract) {
			w := winnerID
			c.Winner = &w
			c.Status = domain.ContractStatusResolved
			c.Disputed = false
		})
}

func (r *memContracts) ListContracts(_ context.Context, _ repository.DBExecutor, filter repository.ContractFilter) ([]domain.Contract, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	search := strings.ToLower(filter.Search)
	amount, amountErr := decimal.NewFromString(filter.Search)
	var matched []domain.Contract
	for _, c := range r.s.contracts {
		if filter.MakerID != "" && c.Maker != filter.MakerID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Title), search) &&
			!strings.Contains(strings.ToLower(c.Description), search) &&
			!(amountErr == nil && c.Amount.Equal(amount)) {
			continue
		}
		matched = append(matched, c)
	}
	sortContracts(matched)
	total := int64(len(matched))
	return paginate(matched, filter.Offset, filter.Limit), total, nil
}

func (r *memContracts) ListContractsByUser(_ context.Context, _ repository.DBExecutor, userID string) ([]domain.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.Contract{}
	for _, c := range r.s.contracts {
		if c.Maker == userID || c.TakerID() == userID {
			out = append(out, c)
		}
	}
	sortContracts(out)
	return out, nil
}

func sortContracts(cs []domain.Contract) {
	sort.Slice(cs, func(i, j int) bool {
		if !cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].CreatedAt.After(cs[j].CreatedAt)
		}
		return cs[i].ID < cs[j].ID
	})
}

func paginate[T any](items []T, offset, limit int) []T {
	out := []T{}
	if offset >= len(items) {
		return out
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return append(out, items[offset:end]...)
}

type memNegotiations struct{ s *memStore }

func (r *memNegotiations) CreateNegotiation(_ context.Context, _ repository.DBExecutor, n *domain.Negotiation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.negotiations[n.ID] = *n
	return nil
}

func (r *memNegotiations) GetNegotiationByID(_ context.Context, _ repository.DBExecutor, id string) (*domain.Negotiation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.negotiations[id]
	if !ok {
		return nil, util.ErrNegotiationNotFound
	}
	return &n, nil
}

func (r *memNegotiations) SetStatusIfPending(_ context.Context, _ repository.DBExecutor, id string, status domain.NegotiationStatus) (*domain.Negotiation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.negotiations[id]
	if !ok || n.Status != domain.NegotiationStatusPending {
		return nil, util.ErrConflict
	}
	n.Status = status
	n.UpdatedAt = time.Now().UTC()
	r.s.negotiations[id] = n
	return &n, nil
}

func (r *memNegotiations) ListNegotiations(_ context.Context, _ repository.DBExecutor, filter repository.NegotiationFilter) ([]domain.Negotiation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Negotiation
	for _, n := range r.s.negotiations {
		switch {
		case filter.ToUID != "" && n.ToUID != filter.ToUID,
			filter.FromUID != "" && n.FromUID != filter.FromUID,
			filter.ContractID != "" && n.ContractID != filter.ContractID,
			filter.Status != "" && n.Status != filter.Status:
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, 0, filter.Limit), nil
}

type memLedger struct{ s *memStore }

func (r *memLedger) CreateEntry(_ context.Context, _ repository.DBExecutor, e *domain.LedgerEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.entries = append(r.s.entries, *e)
	return nil
}

func (r *memLedger) ListEntriesByUser(_ context.Context, _ repository.DBExecutor, userID string, limit, offset int) ([]domain.LedgerEntry, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var mine []domain.LedgerEntry
	for i := len(r.s.entries) - 1; i >= 0; i-- {
		if r.s.entries[i].UserID == userID {
			mine = append(mine, r.s.entries[i])
		}
	}
	return paginate(mine, offset, limit), int64(len(mine)), nil
}
