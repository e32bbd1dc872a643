// internal/domain/contract.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"wager-market/internal/util"
)

// ContractStatus is a state of the wager lifecycle.
type ContractStatus string

const (
	ContractStatusOpen      ContractStatus = "open"
	ContractStatusActive    ContractStatus = "active"
	ContractStatusResolved  ContractStatus = "resolved"
	ContractStatusCancelled ContractStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed.
func (s ContractStatus) IsTerminal() bool {
	return s == ContractStatusResolved || s == ContractStatusCancelled
}

// Valid reports whether s is a known status.
func (s ContractStatus) Valid() bool {
	switch s {
	case ContractStatusOpen, ContractStatusActive, ContractStatusResolved, ContractStatusCancelled:
		return true
	}
	return false
}

// Party identifies a side of a contract.
type Party string

const (
	PartyMaker Party = "maker"
	PartyTaker Party = "taker"
)

// Contract is a peer-to-peer wager. Amount is the per-side stake: the maker
// escrows it at creation and the taker escrows the same amount on entry.
type Contract struct {
	ID          string          `db:"id" json:"id"`
	Maker       string          `db:"maker" json:"maker"`
	Taker       *string         `db:"taker" json:"taker"`
	Title       string          `db:"title" json:"title"`
	Description string          `db:"description" json:"description"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Status      ContractStatus  `db:"status" json:"status"`
	Winner      *string         `db:"winner" json:"winner"`
	MakerClaim  *bool           `db:"maker_claim" json:"maker_claim"` // nil = not yet submitted, true = "I win"
	TakerClaim  *bool           `db:"taker_claim" json:"taker_claim"`
	Disputed    bool            `db:"disputed" json:"disputed"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// NewContract creates an open contract owned by makerID.
func NewContract(makerID, title, description string, amount decimal.Decimal) *Contract {
	now := time.Now().UTC()
	return &Contract{
		ID:          uuid.NewString(),
		Maker:       makerID,
		Title:       title,
		Description: description,
		Amount:      amount,
		Status:      ContractStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// HasTaker reports whether a taker is recorded.
func (c *Contract) HasTaker() bool {
	return c.Taker != nil && *c.Taker != ""
}

// TakerID returns the taker or "".
func (c *Contract) TakerID() string {
	if c.Taker == nil {
		return ""
	}
	return *c.Taker
}

// PartyOf returns which side userID is on.
func (c *Contract) PartyOf(userID string) (Party, bool) {
	switch {
	case userID == "":
		return "", false
	case userID == c.Maker:
		return PartyMaker, true
	case c.HasTaker() && userID == *c.Taker:
		return PartyTaker, true
	}
	return "", false
}

// PartyID returns the user id on side p.
func (c *Contract) PartyID(p Party) string {
	if p == PartyMaker {
		return c.Maker
	}
	return c.TakerID()
}

// CheckClaimable validates a direct claim by claimantID against the
// current snapshot. The conditional write remains the authority.
func (c *Contract) CheckClaimable(claimantID string) error {
	if c.Status != ContractStatusOpen {
		return util.Errorf(util.ErrConflict, "contract cannot be claimed (not open)")
	}
	if c.HasTaker() {
		return util.Errorf(util.ErrConflict, "contract cannot be claimed (already claimed)")
	}
	if claimantID == c.Maker {
		return util.Errorf(util.ErrInvalidInput, "you cannot claim your own contract")
	}
	return nil
}

// CheckCancellable validates a cancel request by actorID.
func (c *Contract) CheckCancellable(actorID string) error {
	if actorID != c.Maker {
		return util.Errorf(util.ErrForbidden, "only the maker can cancel")
	}
	if c.Status != ContractStatusOpen {
		return util.Errorf(util.ErrConflict, "contract cannot be cancelled (status %s)", c.Status)
	}
	if c.HasTaker() {
		return util.Errorf(util.ErrConflict, "claimed contract cannot be cancelled")
	}
	return nil
}

// ClaimsSubmitted reports whether either party has self-reported an outcome.
func (c *Contract) ClaimsSubmitted() bool {
	return c.MakerClaim != nil || c.TakerClaim != nil
}

// ClaimOutcome is the result of comparing the two self-reported claims.
type ClaimOutcome int

const (
	// OutcomeAwaiting means at least one party has not reported.
	OutcomeAwaiting ClaimOutcome = iota
	// OutcomeAgreed means exactly one party claims the win.
	OutcomeAgreed
	// OutcomeDisputed means both claim the win or both claim the loss.
	OutcomeDisputed
)

// EvaluateClaims compares the maker's and taker's claims. When they agree it
// also returns the winning side.
func EvaluateClaims(makerClaim, takerClaim *bool) (ClaimOutcome, Party) {
	if makerClaim == nil || takerClaim == nil {
		return OutcomeAwaiting, ""
	}
	if *makerClaim == *takerClaim {
		return OutcomeDisputed, ""
	}
	if *makerClaim {
		return OutcomeAgreed, PartyMaker
	}
	return OutcomeAgreed, PartyTaker
}

// Pot is what the winner receives at resolution: both escrowed stakes.
func (c *Contract) Pot() decimal.Decimal {
	return c.Amount.Mul(decimal.NewFromInt(2))
}

// CheckInvariants verifies the structural rules every stored contract obeys.
func (c *Contract) CheckInvariants() error {
	if !c.Amount.IsPositive() {
		return fmt.Errorf("contract %s: amount %s must be positive", c.ID, c.Amount)
	}
	if !c.Status.Valid() {
		return fmt.Errorf("contract %s: unknown status %q", c.ID, c.Status)
	}
	wantTaker := c.Status == ContractStatusActive || c.Status == ContractStatusResolved
	if c.HasTaker() != wantTaker {
		return fmt.Errorf("contract %s: taker presence %t does not match status %s", c.ID, c.HasTaker(), c.Status)
	}
	if c.HasTaker() && c.TakerID() == c.Maker {
		return fmt.Errorf("contract %s: maker cannot be taker", c.ID)
	}
	hasWinner := c.Winner != nil && *c.Winner != ""
	if hasWinner != (c.Status == ContractStatusResolved) {
		return fmt.Errorf("contract %s: winner presence %t does not match status %s", c.ID, hasWinner, c.Status)
	}
	if hasWinner && *c.Winner != c.Maker && *c.Winner != c.TakerID() {
		return fmt.Errorf("contract %s: winner %s is not a party", c.ID, *c.Winner)
	}
	return nil
}
