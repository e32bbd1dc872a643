package service

import (
	"context"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wager-market/internal/domain"
	"wager-market/internal/util"
)

func TestLedgerApply(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")

	t.Run("MovesAndJournals", func(t *testing.T) {
		store := newMemStore()
		store.seedUser("a", 50)
		store.seedUser("b", 10)
		ledger := NewLedger(store.repos().Users, store.repos().Ledger)

		users, err := ledger.Apply(ctx, memExec{}, "c1",
			Debit("a", dec(20), domain.EntryKindRestake),
			Credit("b", dec(5), domain.EntryKindRestake),
		)
		require.NoError(t, err)
		assert.True(t, users["a"].Balance.Equal(dec(30)))
		assert.True(t, users["b"].Balance.Equal(dec(15)))

		entries := store.entriesFor("a")
		require.Len(t, entries, 1)
		assert.Equal(t, "req-42", entries[0].RequestID)
		require.NotNil(t, entries[0].ContractID)
		assert.Equal(t, "c1", *entries[0].ContractID)
	})

	t.Run("NoPartialDebit", func(t *testing.T) {
		store := newMemStore()
		store.seedUser("a", 50)
		store.seedUser("b", 10)
		ledger := NewLedger(store.repos().Users, store.repos().Ledger)

		// "a" sorts first and could pay; "b" cannot, so nothing moves.
		_, err := ledger.Apply(ctx, memExec{}, "c1",
			Debit("a", dec(20), domain.EntryKindRestake),
			Debit("b", dec(20), domain.EntryKindRestake),
		)
		assert.ErrorIs(t, err, util.ErrInsufficientFunds)
		assertBalance(t, store, "a", 50)
		assertBalance(t, store, "b", 10)
		assert.Empty(t, store.entries)
	})

	t.Run("NetsMovementsPerUser", func(t *testing.T) {
		store := newMemStore()
		store.seedUser("a", 10)
		ledger := NewLedger(store.repos().Users, store.repos().Ledger)

		// Credit first so the net change stays affordable.
		_, err := ledger.Apply(ctx, memExec{}, "",
			Credit("a", dec(30), domain.EntryKindRefund),
			Debit("a", dec(35), domain.EntryKindEscrow),
		)
		require.NoError(t, err)
		assertBalance(t, store, "a", 5)
		assert.Len(t, store.entriesFor("a"), 2)
	})

	t.Run("ZeroDeltaSkipped", func(t *testing.T) {
		store := newMemStore()
		store.seedUser("a", 10)
		ledger := NewLedger(store.repos().Users, store.repos().Ledger)

		users, err := ledger.Apply(ctx, memExec{}, "c1", Debit("a", dec(0), domain.EntryKindRestake))
		require.NoError(t, err)
		assert.True(t, users["a"].Balance.Equal(dec(10)))
		assert.Empty(t, store.entries)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		store := newMemStore()
		ledger := NewLedger(store.repos().Users, store.repos().Ledger)

		_, err := ledger.Apply(ctx, memExec{}, "c1", Credit("ghost", dec(1), domain.EntryKindPayout))
		assert.ErrorIs(t, err, util.ErrUserNotFound)
	})
}
