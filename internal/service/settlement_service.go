// internal/service/settlement_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"wager-market/internal/domain"
	"wager-market/internal/repository"
	"wager-market/internal/util"
)

// Outcome is the authoritative state after a settlement action.
type Outcome struct {
	Contract    *domain.Contract           `json:"contract,omitempty"`
	Negotiation *domain.Negotiation        `json:"notification,omitempty"`
	Balances    map[string]decimal.Decimal `json:"balances,omitempty"`
}

// SettlementService drives the contract lifecycle: open → active →
// resolved | cancelled, plus negotiated stake changes. Each action runs in a
// single transaction; the conditional contract write decides races and any
// ledger movement made before it is rolled back with the transaction.
type SettlementService interface {
	CreateContract(ctx context.Context, makerID, title, description string, amount decimal.Decimal) (*Outcome, error)
	ClaimContract(ctx context.Context, contractID, claimantID string) (*Outcome, error)
	CancelContract(ctx context.Context, contractID, makerID string) (*Outcome, error)
	SubmitResolution(ctx context.Context, contractID, userID string, claim bool) (*Outcome, error)
	ProposeRaise(ctx context.Context, fromUID, toUID, contractID string, amount decimal.Decimal) (*domain.Negotiation, error)
	RespondToRaise(ctx context.Context, negotiationID, actorID string, status domain.NegotiationStatus) (*Outcome, error)
}

type settlementService struct {
	tx         txRunner
	dbExecutor repository.DBExecutor
	repos      repository.Repositories
	ledger     *Ledger
	logger     *slog.Logger
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(txFuncs TxFuncs, dbExecutor repository.DBExecutor, repos repository.Repositories, logger *slog.Logger) SettlementService {
	if logger == nil {
		logger = slog.Default()
	}
	return &settlementService{
		tx:         newTxRunner(txFuncs),
		dbExecutor: dbExecutor,
		repos:      repos,
		ledger:     NewLedger(repos.Users, repos.Ledger),
		logger:     logger,
	}
}

// CreateContract opens a contract and escrows the maker's stake.
func (s *settlementService) CreateContract(ctx context.Context, makerID, title, description string, amount decimal.Decimal) (*Outcome, error) {
	title, description = strings.TrimSpace(title), strings.TrimSpace(description)
	switch {
	case makerID == "":
		return nil, util.Errorf(util.ErrInvalidInput, "missing userId")
	case title == "":
		return nil, util.Errorf(util.ErrInvalidInput, "title is required")
	case description == "":
		return nil, util.Errorf(util.ErrInvalidInput, "description is required")
	case !amount.IsPositive():
		return nil, util.Errorf(util.ErrInvalidInput, "amount must be greater than 0")
	}
	if err := domain.CheckMoney("amount", amount); err != nil {
		return nil, err
	}

	contract := domain.NewContract(makerID, title, description, amount)
	var out *Outcome
	err := s.tx.run(ctx, "create contract", func(q repository.DBExecutor) error {
		if _, err := s.repos.Users.GetUserByID(ctx, q, makerID); err != nil {
			if util.IsError(err, util.ErrUserNotFound) {
				return util.Errorf(util.ErrUserNotFound, "user %s not found", makerID)
			}
			return fmt.Errorf("create contract: %w", err)
		}
		// The contract row goes first so the escrow journal row can reference it.
		if err := s.repos.Contracts.CreateContract(ctx, q, contract); err != nil {
			return fmt.Errorf("create contract: %w", err)
		}
		users, err := s.ledger.Apply(ctx, q, contract.ID, Debit(makerID, amount, domain.EntryKindEscrow))
		if err != nil {
			return err
		}
		out = &Outcome{Contract: contract, Balances: balances(users)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logTransition(contract, makerID, "", domain.ContractStatusOpen)
	return out, nil
}

// ClaimContract lets a non-maker take an open contract by escrowing a
// matching stake. Only one concurrent claimant can win the conditional write.
func (s *settlementService) ClaimContract(ctx context.Context, contractID, claimantID string) (*Outcome, error) {
	if contractID == "" {
		return nil, util.Errorf(util.ErrInvalidInput, "missing contractId")
	}
	if claimantID == "" {
		return nil, util.Errorf(util.ErrInvalidInput, "claimingUserId is required")
	}

	var out *Outcome
	err := s.tx.run(ctx, "claim contract", func(q repository.DBExecutor) error {
		contract, err := s.lockContract(ctx, q, contractID)
		if err != nil {
			return err
		}
		if err := contract.CheckClaimable(claimantID); err != nil {
			return err
		}

		users, err := s.ledger.Apply(ctx, q, contract.ID, Debit(claimantID, contract.Amount, domain.EntryKindEscrow))
		if err != nil {
			return err
		}
		updated, err := s.repos.Contracts.ClaimIfOpen(ctx, q, contract.ID, claimantID, contract.Amount, contract.Amount)
		if err != nil {
			if util.IsError(err, util.ErrConflict) {
				s.logger.Warn("Claim lost race, escrow rolled back", "contract_id", contract.ID, "claimant", claimantID)
				return util.Errorf(util.ErrConflict, "contract cannot be claimed (not open, or already claimed)")
			}
			return fmt.Errorf("claim contract: %w", err)
		}
		out = &Outcome{Contract: updated, Balances: balances(users)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logTransition(out.Contract, claimantID, domain.ContractStatusOpen, domain.ContractStatusActive)
	return out, nil
}

// CancelContract withdraws an untaken open contract and refunds the maker.
func (s *settlementService) CancelContract(ctx context.Context, contractID, makerID string) (*Outcome, error) {
	if contractID == "" {
		return nil, util.Errorf(util.ErrInvalidInput, "missing contractId")
	}
	if makerID == "" {
		return nil, util.Errorf(util.ErrInvalidInput, "userId is required")
	}

	var out *Outcome
	err := s.tx.run(ctx, "cancel contract", func(q repository.DBExecutor) error {
		contract, err := s.lockContract(ctx, q, contractID)
		if err != nil {
			return err
		}
		if err := contract.CheckCancellable(makerID); err != nil {
			return err
		}

		updated, err := s.repos.Contracts.CancelIfOpen(ctx, q, contract.ID, makerID)
		if err != nil {
			if util.IsError(err, util.ErrConflict) {
				return util.Errorf(util.ErrConflict, "contract cannot be cancelled (claimed or changed concurrently)")
			}
			return fmt.Errorf("cancel contract: %w", err)
		}
		users, err := s.ledger.Apply(ctx, q, updated.ID, Credit(makerID, updated.Amount, domain.EntryKindRefund))
		if err != nil {
			return err
		}
		out = &Outcome{Contract: updated, Balances: balances(users)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logTransition(out.Contract, makerID, domain.ContractStatusOpen, domain.ContractStatusCancelled)
	return out, nil
}

// SubmitResolution records a party's win/loss self-report. When both reports
// agree the contract resolves and the winner receives both stakes; when they
// conflict the contract stays active and is flagged disputed.
func (s *settlementService) SubmitResolution(ctx context.Context, contractID, userID string, claim bool) (*Outcome, error) {
	if contractID == "" {
		return nil, util.Errorf(util.ErrInvalidInput, "missing contractId")
	}
	if userID == "" {
		return nil, util.Errorf(util.ErrInvalidInput, "userId is required")
	}

	var (
		out      *Outcome
		resolved bool
	)
	err := s.tx.run(ctx, "resolve contract", func(q repository.DBExecutor) error {
		contract, err := s.lockContract(ctx, q, contractID)
		if err != nil {
			return err
		}
		if contract.Status != domain.ContractStatusActive {
			return util.Errorf(util.ErrConflict, "contract cannot be resolved (status %s)", contract.Status)
		}
		party, ok := contract.PartyOf(userID)
		if !ok {
			return util.Errorf(util.ErrForbidden, "only the maker or taker can report an outcome")
		}

		updated, err := s.repos.Contracts.SubmitClaimIfActive(ctx, q, contract.ID, party, claim)
		if err != nil {
			if util.IsError(err, util.ErrConflict) {
				return util.Errorf(util.ErrConflict, "contract is no longer active")
			}
			return fmt.Errorf("resolve contract: %w", err)
		}

		outcome, winnerSide := domain.EvaluateClaims(updated.MakerClaim, updated.TakerClaim)
		switch outcome {
		case domain.OutcomeAwaiting:
			out = &Outcome{Contract: updated}
			return nil
		case domain.OutcomeDisputed:
			s.logger.Warn("Contract disputed: both parties reported the same outcome",
				"contract_id", updated.ID, "maker_claim", *updated.MakerClaim, "taker_claim", *updated.TakerClaim)
			out = &Outcome{Contract: updated}
			return nil
		}

		winnerID := updated.PartyID(winnerSide)
		final, err := s.repos.Contracts.ResolveIfActive(ctx, q, updated.ID, winnerID, *updated.MakerClaim, *updated.TakerClaim)
		if err != nil {
			if util.IsError(err, util.ErrConflict) {
				return util.Errorf(util.ErrConflict, "contract changed while resolving; re-fetch and retry")
			}
			return fmt.Errorf("resolve contract: %w", err)
		}
		users, err := s.ledger.Apply(ctx, q, final.ID, Credit(winnerID, final.Pot(), domain.EntryKindPayout))
		if err != nil {
			return err
		}
		out = &Outcome{Contract: final, Balances: balances(users)}
		resolved = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if resolved {
		s.logTransition(out.Contract, userID, domain.ContractStatusActive, domain.ContractStatusResolved)
	}
	return out, nil
}

// ProposeRaise records a pending proposal to set the contract's stake.
// Feasibility against balances is checked when the proposal is accepted.
func (s *settlementService) ProposeRaise(ctx context.Context, fromUID, toUID, contractID string, amount decimal.Decimal) (*domain.Negotiation, error) {
	if fromUID == "" || toUID == "" || contractID == "" {
		return nil, util.Errorf(util.ErrInvalidInput, "from_uid, to_uid, and contract_id are required")
	}
	if !amount.IsPositive() {
		return nil, util.Errorf(util.ErrInvalidInput, "amount must be greater than 0")
	}
	if err := domain.CheckMoney("amount", amount); err != nil {
		return nil, err
	}

	contract, err := s.getContract(ctx, s.dbExecutor, contractID)
	if err != nil {
		return nil, err
	}
	kind, err := contract.ProposalKind(fromUID, toUID)
	if err != nil {
		return nil, err
	}
	if kind == domain.KindRaise && contract.ClaimsSubmitted() {
		return nil, util.Errorf(util.ErrConflict, "stake cannot change once an outcome has been reported")
	}
	for _, id := range []string{fromUID, toUID} {
		if _, err := s.repos.Users.GetUserByID(ctx, s.dbExecutor, id); err != nil {
			if util.IsError(err, util.ErrUserNotFound) {
				return nil, util.Errorf(util.ErrUserNotFound, "user %s not found", id)
			}
			return nil, fmt.Errorf("propose raise: %w", err)
		}
	}

	n := domain.NewNegotiation(fromUID, toUID, contract.ID, kind, amount)
	if err := s.repos.Negotiations.CreateNegotiation(ctx, s.dbExecutor, n); err != nil {
		return nil, fmt.Errorf("propose raise: %w", err)
	}
	s.logger.Info("Negotiation proposed", "notification_id", n.ID, "contract_id", contract.ID,
		"kind", kind, "from", fromUID, "to", toUID, "amount", amount)
	return n, nil
}

// RespondToRaise accepts or declines a pending proposal. Acceptance is
// re-validated against the contract's current state and settles the stake
// change; declining has no ledger effect.
func (s *settlementService) RespondToRaise(ctx context.Context, negotiationID, actorID string, status domain.NegotiationStatus) (*Outcome, error) {
	if negotiationID == "" {
		return nil, util.Errorf(util.ErrInvalidInput, "missing notificationId")
	}
	if actorID == "" {
		return nil, util.Errorf(util.ErrInvalidInput, "userId is required")
	}
	if status != domain.NegotiationStatusAccepted && status != domain.NegotiationStatusDeclined {
		return nil, util.Errorf(util.ErrInvalidInput, "status must be accepted or declined")
	}

	var (
		out  *Outcome
		from domain.ContractStatus
	)
	err := s.tx.run(ctx, "respond to negotiation", func(q repository.DBExecutor) error {
		n, err := s.repos.Negotiations.GetNegotiationByID(ctx, q, negotiationID)
		if err != nil {
			return err
		}
		if n.IsTerminal() {
			return util.Errorf(util.ErrConflict, "notification already %s", n.Status)
		}
		if actorID != n.ToUID {
			return util.Errorf(util.ErrForbidden, "only the recipient can respond to this notification")
		}

		if status == domain.NegotiationStatusDeclined {
			declined, err := s.finalize(ctx, q, n.ID, status)
			if err != nil {
				return err
			}
			out = &Outcome{Negotiation: declined}
			return nil
		}

		contract, err := s.lockContract(ctx, q, n.ContractID)
		if err != nil {
			return err
		}
		from = contract.Status
		kind, err := contract.ProposalKind(n.FromUID, n.ToUID)
		if err != nil {
			if util.IsError(err, util.ErrForbidden) {
				return util.Errorf(util.ErrConflict, "contract is no longer in the state this proposal assumed")
			}
			return err
		}
		if kind != n.Kind {
			return util.Errorf(util.ErrConflict, "contract is no longer in the state this proposal assumed")
		}

		var (
			updated *domain.Contract
			users   map[string]*domain.User
		)
		switch kind {
		case domain.KindEntryBid:
			updated, users, err = s.acceptEntryBid(ctx, q, contract, n)
		case domain.KindRaise:
			updated, users, err = s.acceptRaise(ctx, q, contract, n)
		}
		if err != nil {
			return err
		}

		accepted, err := s.finalize(ctx, q, n.ID, status)
		if err != nil {
			return err
		}
		out = &Outcome{Contract: updated, Negotiation: accepted, Balances: balances(users)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out.Contract != nil {
		s.logTransition(out.Contract, actorID, from, out.Contract.Status)
	}
	return out, nil
}

// acceptEntryBid seats the bidder as taker at the proposed stake. The bidder
// escrows the full new amount; the maker's escrow moves by the difference.
func (s *settlementService) acceptEntryBid(ctx context.Context, q repository.DBExecutor, c *domain.Contract, n *domain.Negotiation) (*domain.Contract, map[string]*domain.User, error) {
	diff := n.Amount.Sub(c.Amount)
	users, err := s.ledger.Apply(ctx, q, c.ID,
		Debit(n.FromUID, n.Amount, domain.EntryKindEscrow),
		Debit(c.Maker, diff, domain.EntryKindRestake),
	)
	if err != nil {
		return nil, nil, err
	}
	updated, err := s.repos.Contracts.ClaimIfOpen(ctx, q, c.ID, n.FromUID, c.Amount, n.Amount)
	if err != nil {
		if util.IsError(err, util.ErrConflict) {
			s.logger.Warn("Entry bid lost race, escrow rolled back", "contract_id", c.ID, "notification_id", n.ID)
			return nil, nil, util.Errorf(util.ErrConflict, "contract is no longer open")
		}
		return nil, nil, fmt.Errorf("accept entry bid: %w", err)
	}
	return updated, users, nil
}

// acceptRaise moves both escrows by the signed difference and updates the stake.
func (s *settlementService) acceptRaise(ctx context.Context, q repository.DBExecutor, c *domain.Contract, n *domain.Negotiation) (*domain.Contract, map[string]*domain.User, error) {
	if c.ClaimsSubmitted() {
		return nil, nil, util.Errorf(util.ErrConflict, "stake cannot change once an outcome has been reported")
	}
	diff := n.Amount.Sub(c.Amount)
	users, err := s.ledger.Apply(ctx, q, c.ID,
		Debit(c.Maker, diff, domain.EntryKindRestake),
		Debit(c.TakerID(), diff, domain.EntryKindRestake),
	)
	if err != nil {
		return nil, nil, err
	}
	updated, err := s.repos.Contracts.RestakeIfActive(ctx, q, c.ID, c.Amount, n.Amount)
	if err != nil {
		if util.IsError(err, util.ErrConflict) {
			return nil, nil, util.Errorf(util.ErrConflict, "contract stake changed concurrently")
		}
		return nil, nil, fmt.Errorf("accept raise: %w", err)
	}
	return updated, users, nil
}

func (s *settlementService) finalize(ctx context.Context, q repository.DBExecutor, id string, status domain.NegotiationStatus) (*domain.Negotiation, error) {
	n, err := s.repos.Negotiations.SetStatusIfPending(ctx, q, id, status)
	if err != nil {
		if util.IsError(err, util.ErrConflict) {
			return nil, util.Errorf(util.ErrConflict, "notification was answered concurrently")
		}
		return nil, fmt.Errorf("update notification: %w", err)
	}
	return n, nil
}

func (s *settlementService) getContract(ctx context.Context, q repository.DBExecutor, id string) (*domain.Contract, error) {
	c, err := s.repos.Contracts.GetContractByID(ctx, q, id)
	if err != nil {
		return nil, contractLookupError(id, err)
	}
	return c, nil
}

// lockContract reads and row-locks the contract. Every mutating transaction
// takes this lock before any user row, so lock order is contract then users.
func (s *settlementService) lockContract(ctx context.Context, q repository.DBExecutor, id string) (*domain.Contract, error) {
	c, err := s.repos.Contracts.GetContractByIDForUpdate(ctx, q, id)
	if err != nil {
		return nil, contractLookupError(id, err)
	}
	return c, nil
}

func contractLookupError(id string, err error) error {
	if util.IsError(err, util.ErrContractNotFound) {
		return util.Errorf(util.ErrContractNotFound, "contract not found")
	}
	if util.IsError(err, util.ErrConflict) {
		return err
	}
	return fmt.Errorf("get contract %s: %w", id, err)
}

func (s *settlementService) logTransition(c *domain.Contract, actor string, from, to domain.ContractStatus) {
	if err := c.CheckInvariants(); err != nil {
		s.logger.Error("Contract invariant violated after transition", "contract_id", c.ID, "error", err)
	}
	s.logger.Info("Contract transition", "contract_id", c.ID, "actor", actor,
		"from", string(from), "to", string(to), "amount", c.Amount.String())
}

func balances(users map[string]*domain.User) map[string]decimal.Decimal {
	if len(users) == 0 {
		return nil
	}
	out := make(map[string]decimal.Decimal, len(users))
	for id, u := range users {
		out[id] = u.Balance
	}
	return out
}
