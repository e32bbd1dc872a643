// internal/domain/ledger_entry.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryKind classifies a balance movement.
type EntryKind string

const (
	EntryKindEscrow     EntryKind = "ESCROW"     // stake moved from balance into a contract
	EntryKindRefund     EntryKind = "REFUND"     // stake returned on cancel
	EntryKindPayout     EntryKind = "PAYOUT"     // pot paid to the winner
	EntryKindRestake    EntryKind = "RESTAKE"    // delta from an accepted negotiation
	EntryKindAdjustment EntryKind = "ADJUSTMENT" // direct balance set
)

// LedgerEntry is one row of the append-only balance journal. Amount is the
// signed delta applied to the user's balance.
type LedgerEntry struct {
	ID           string          `db:"id" json:"id"`
	UserID       string          `db:"user_id" json:"user_id"`
	ContractID   *string         `db:"contract_id" json:"contract_id"`
	Kind         EntryKind       `db:"kind" json:"kind"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	BalanceAfter decimal.Decimal `db:"balance_after" json:"balance_after"`
	RequestID    string          `db:"request_id" json:"request_id"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// NewLedgerEntry creates a journal row. contractID may be empty.
func NewLedgerEntry(userID, contractID string, kind EntryKind, amount, balanceAfter decimal.Decimal, requestID string) *LedgerEntry {
	e := &LedgerEntry{
		ID:           uuid.NewString(),
		UserID:       userID,
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		RequestID:    requestID,
		CreatedAt:    time.Now().UTC(),
	}
	if contractID != "" {
		e.ContractID = &contractID
	}
	return e
}
