package state

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "farmercore/core/errors"
	"farmercore/crypto"
	"farmercore/storage"
	"farmercore/storage/trie"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	tr, err := trie.NewTrie(db, nil)
	require.NoError(t, err)
	return NewManager(tr)
}

func TestCreditDebit(t *testing.T) {
	mgr := newTestManager(t)
	wallet := crypto.Pubkey{0xaa}

	bal, err := mgr.Balance(wallet)
	require.NoError(t, err)
	require.Zero(t, bal)

	require.NoError(t, mgr.Credit(wallet, 1_000))
	require.NoError(t, mgr.Debit(wallet, 400))
	bal, err = mgr.Balance(wallet)
	require.NoError(t, err)
	require.Equal(t, uint64(600), bal)

	err = mgr.Debit(wallet, 601)
	require.ErrorIs(t, err, ferrors.ErrInsufficientFunds)

	err = mgr.Debit(crypto.Pubkey{0xbb}, 1)
	require.ErrorIs(t, err, ferrors.ErrInsufficientFunds)

	require.NoError(t, mgr.Credit(wallet, math.MaxUint64-600))
	require.Error(t, mgr.Credit(wallet, 1))
}

func TestAllocateIsExclusive(t *testing.T) {
	mgr := newTestManager(t)
	addr := crypto.Pubkey{0x01}
	owner := crypto.Pubkey{0x02}

	exists, err := mgr.AccountExists(addr)
	require.NoError(t, err)
	require.False(t, exists)

	acct, err := mgr.Allocate(addr, owner, 64)
	require.NoError(t, err)
	require.Len(t, acct.Data, 64)
	require.Equal(t, owner, acct.Owner)

	exists, err = mgr.AccountExists(addr)
	require.NoError(t, err)
	require.True(t, exists)

	_, err = mgr.Allocate(addr, owner, 64)
	if !errors.Is(err, ferrors.ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestAllocateKeepsPrefundedLamports(t *testing.T) {
	mgr := newTestManager(t)
	addr := crypto.Pubkey{0x03}
	require.NoError(t, mgr.Credit(addr, 5))

	exists, err := mgr.AccountExists(addr)
	require.NoError(t, err)
	require.False(t, exists, "a funded wallet is not an allocated account")

	acct, err := mgr.Allocate(addr, crypto.Pubkey{0x04}, 8)
	require.NoError(t, err)
	require.Equal(t, uint64(5), acct.Lamports)
}

func TestKVRoundTrip(t *testing.T) {
	mgr := newTestManager(t)

	var slot uint64
	ok, err := mgr.KVGet([]byte("runtime/slot"), &slot)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, mgr.KVPut([]byte("runtime/slot"), uint64(42)))
	ok, err = mgr.KVGet([]byte("runtime/slot"), &slot)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(42), slot)
}
