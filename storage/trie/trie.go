package trie

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	gethtrie "github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/trie/trienode"
	"github.com/ethereum/go-ethereum/triedb"

	"farmercore/storage"
)

// Trie is the Merkle state trie accounts live in. Mutations stay in memory
// until Commit; Rollback drops them and reopens the last committed root, which
// is how the runtime discards a failed transaction.
//
// Keys are expected to be hashed by the caller before insertion.
//
// Trie is not safe for concurrent use.
type Trie struct {
	store  storage.Database
	trieDB *triedb.Database
	trie   *gethtrie.Trie
	root   common.Hash
}

var headRootKey = []byte("trie/head-root")

// HeadRoot returns the root recorded by the most recent Commit against store,
// or nil when nothing was ever committed.
func HeadRoot(store storage.Database) ([]byte, error) {
	root, err := store.Get(headRootKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return root, err
}

// NewTrie opens the trie at root. A nil or empty root denotes the empty trie.
func NewTrie(store storage.Database, root []byte) (*Trie, error) {
	rootHash := gethtypes.EmptyRootHash
	if len(root) > 0 {
		rootHash = common.BytesToHash(root)
	}
	t := &Trie{store: store, trieDB: store.TrieDB()}
	if err := t.open(rootHash); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Trie) open(root common.Hash) error {
	underlying, err := gethtrie.New(gethtrie.TrieID(root), t.trieDB)
	if err != nil {
		return err
	}
	t.trie = underlying
	t.root = root
	return nil
}

// Get returns the value stored at key, or nil when the key is absent.
func (t *Trie) Get(key []byte) ([]byte, error) {
	return t.trie.Get(key)
}

func (t *Trie) Update(key, value []byte) error {
	return t.trie.Update(key, value)
}

// Hash returns the root hash including uncommitted mutations.
func (t *Trie) Hash() common.Hash {
	return t.trie.Hash()
}

// Root returns the last committed root hash.
func (t *Trie) Root() common.Hash {
	return t.root
}

// Rollback discards every mutation since the last commit.
func (t *Trie) Rollback() error {
	return t.open(t.root)
}

// Commit flushes pending mutations to the backing store and returns the new
// root. slot is recorded by the node database as the state's block number.
func (t *Trie) Commit(slot uint64) (common.Hash, error) {
	parent := t.root
	newRoot, nodes := t.trie.Commit(false)
	if nodes != nil {
		merged := trienode.NewMergedNodeSet()
		if err := merged.Merge(nodes); err != nil {
			return common.Hash{}, err
		}
		if err := t.trieDB.Update(newRoot, parent, slot, merged, nil); err != nil {
			return common.Hash{}, err
		}
		if err := t.trieDB.Commit(newRoot, false); err != nil {
			return common.Hash{}, err
		}
	}
	if err := t.store.Put(headRootKey, newRoot.Bytes()); err != nil {
		return common.Hash{}, err
	}
	if err := t.open(newRoot); err != nil {
		return common.Hash{}, err
	}
	return newRoot, nil
}
