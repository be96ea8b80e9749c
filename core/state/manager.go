package state

import (
	"fmt"
	"math"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	ferrors "farmercore/core/errors"
	"farmercore/core/types"
	"farmercore/crypto"
	"farmercore/storage/trie"
)

// Manager reads and writes accounts in the state trie. It performs no
// authorization of its own; the runtime decides who may call what.
type Manager struct {
	trie *trie.Trie
}

// NewManager creates a state manager operating on the provided trie.
func NewManager(tr *trie.Trie) *Manager {
	return &Manager{trie: tr}
}

var (
	accountPrefix = []byte("account:")
	kvPrefix      = []byte("kv:")
)

func accountKey(addr crypto.Pubkey) []byte {
	buf := make([]byte, len(accountPrefix)+len(addr))
	copy(buf, accountPrefix)
	copy(buf[len(accountPrefix):], addr[:])
	return ethcrypto.Keccak256(buf)
}

func kvKey(key []byte) []byte {
	buf := make([]byte, len(kvPrefix)+len(key))
	copy(buf, kvPrefix)
	copy(buf[len(kvPrefix):], key)
	return ethcrypto.Keccak256(buf)
}

// Trie exposes the underlying trie so the runtime can commit or roll back.
func (m *Manager) Trie() *trie.Trie {
	return m.trie
}

// Account loads the envelope stored at addr. ok is false when nothing has
// ever been written there.
func (m *Manager) Account(addr crypto.Pubkey) (*types.Account, bool, error) {
	data, err := m.trie.Get(accountKey(addr))
	if err != nil {
		return nil, false, err
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	acct := new(types.Account)
	if err := rlp.DecodeBytes(data, acct); err != nil {
		return nil, false, fmt.Errorf("state: decode account %s: %w", addr, err)
	}
	return acct, true, nil
}

// PutAccount overwrites the envelope stored at addr.
func (m *Manager) PutAccount(addr crypto.Pubkey, acct *types.Account) error {
	if acct == nil {
		return fmt.Errorf("state: nil account for %s", addr)
	}
	encoded, err := rlp.EncodeToBytes(acct)
	if err != nil {
		return err
	}
	return m.trie.Update(accountKey(addr), encoded)
}

// AccountExists reports whether storage has been allocated at addr.
func (m *Manager) AccountExists(addr crypto.Pubkey) (bool, error) {
	acct, ok, err := m.Account(addr)
	if err != nil || !ok {
		return false, err
	}
	return acct.Allocated(), nil
}

// Balance returns the lamports held by addr; unknown addresses hold zero.
func (m *Manager) Balance(addr crypto.Pubkey) (uint64, error) {
	acct, ok, err := m.Account(addr)
	if err != nil || !ok {
		return 0, err
	}
	return acct.Lamports, nil
}

// Credit adds lamports to addr, creating an unallocated wallet entry if needed.
func (m *Manager) Credit(addr crypto.Pubkey, amount uint64) error {
	acct, ok, err := m.Account(addr)
	if err != nil {
		return err
	}
	if !ok {
		acct = &types.Account{Owner: crypto.SystemProgramID}
	}
	if acct.Lamports > math.MaxUint64-amount {
		return fmt.Errorf("state: balance overflow for %s", addr)
	}
	acct.Lamports += amount
	return m.PutAccount(addr, acct)
}

// Debit removes lamports from addr.
func (m *Manager) Debit(addr crypto.Pubkey, amount uint64) error {
	acct, ok, err := m.Account(addr)
	if err != nil {
		return err
	}
	if !ok || acct.Lamports < amount {
		var have uint64
		if ok {
			have = acct.Lamports
		}
		return fmt.Errorf("%w: %s has %d, needs %d", ferrors.ErrInsufficientFunds, addr, have, amount)
	}
	acct.Lamports -= amount
	return m.PutAccount(addr, acct)
}

// Allocate reserves space zeroed bytes at addr owned by owner. Any lamports
// already sent to the address are kept. Allocating an address that already
// carries data fails with ErrAlreadyInitialized.
func (m *Manager) Allocate(addr, owner crypto.Pubkey, space uint64) (*types.Account, error) {
	if space == 0 {
		return nil, fmt.Errorf("state: refusing zero-length allocation at %s", addr)
	}
	acct, ok, err := m.Account(addr)
	if err != nil {
		return nil, err
	}
	if ok && acct.Allocated() {
		return nil, fmt.Errorf("%w: %s", ferrors.ErrAlreadyInitialized, addr)
	}
	if !ok {
		acct = &types.Account{}
	}
	acct.Owner = owner
	acct.Space = space
	acct.Data = make([]byte, space)
	if err := m.PutAccount(addr, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// KVPut stores an arbitrary RLP-encodable value under key in the state.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.trie.Update(kvKey(key), encoded)
}

// KVGet decodes the value stored under key into out. ok is false when unset.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	data, err := m.trie.Get(kvKey(key))
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}
