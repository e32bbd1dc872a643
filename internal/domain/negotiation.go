// internal/domain/negotiation.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"wager-market/internal/util"
)

// NegotiationStatus is the state of a raise proposal.
type NegotiationStatus string

const (
	NegotiationStatusPending  NegotiationStatus = "pending"
	NegotiationStatusAccepted NegotiationStatus = "accepted"
	NegotiationStatusDeclined NegotiationStatus = "declined"
)

// ParseNegotiationStatus validates a textual status.
func ParseNegotiationStatus(s string) (NegotiationStatus, error) {
	switch st := NegotiationStatus(s); st {
	case NegotiationStatusPending, NegotiationStatusAccepted, NegotiationStatusDeclined:
		return st, nil
	}
	return "", util.Errorf(util.ErrInvalidInput, "status must be one of: pending, accepted, declined")
}

// NegotiationKind tells how an accepted proposal settles.
type NegotiationKind string

const (
	// KindEntryBid is a bid by a prospective taker for an open contract.
	KindEntryBid NegotiationKind = "entry_bid"
	// KindRaise changes the stake of an active contract.
	KindRaise NegotiationKind = "raise"
)

// Negotiation is a proposal to set a contract's stake to Amount.
type Negotiation struct {
	ID         string            `db:"id" json:"id"`
	FromUID    string            `db:"from_uid" json:"from_uid"`
	ToUID      string            `db:"to_uid" json:"to_uid"`
	ContractID string            `db:"contract_id" json:"contract_id"`
	Amount     decimal.Decimal   `db:"amount" json:"amount"`
	Kind       NegotiationKind   `db:"kind" json:"kind"`
	Status     NegotiationStatus `db:"status" json:"status"`
	CreatedAt  time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time         `db:"updated_at" json:"updated_at"`
}

// NewNegotiation creates a pending proposal. kind records the contract state
// the proposal was made against.
func NewNegotiation(fromUID, toUID, contractID string, kind NegotiationKind, amount decimal.Decimal) *Negotiation {
	now := time.Now().UTC()
	return &Negotiation{
		ID:         uuid.NewString(),
		FromUID:    fromUID,
		ToUID:      toUID,
		ContractID: contractID,
		Amount:     amount,
		Kind:       kind,
		Status:     NegotiationStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsTerminal reports whether the proposal can no longer change.
func (n *Negotiation) IsTerminal() bool {
	return n.Status != NegotiationStatusPending
}

// ProposalKind classifies a from→to proposal against the contract's current
// state. Open contracts accept entry bids addressed to the maker; active
// contracts accept raises between maker and taker.
func (c *Contract) ProposalKind(fromUID, toUID string) (NegotiationKind, error) {
	if fromUID == "" || toUID == "" {
		return "", util.Errorf(util.ErrInvalidInput, "from_uid and to_uid are required")
	}
	if fromUID == toUID {
		return "", util.Errorf(util.ErrInvalidInput, "cannot propose to yourself")
	}
	switch c.Status {
	case ContractStatusOpen:
		if toUID != c.Maker {
			return "", util.Errorf(util.ErrForbidden, "bids on an open contract must target its maker")
		}
		return KindEntryBid, nil
	case ContractStatusActive:
		_, fromOK := c.PartyOf(fromUID)
		_, toOK := c.PartyOf(toUID)
		if !fromOK || !toOK {
			return "", util.Errorf(util.ErrForbidden, "only the maker and taker can negotiate an active contract")
		}
		return KindRaise, nil
	default:
		return "", util.Errorf(util.ErrConflict, "contract is %s", c.Status)
	}
}
