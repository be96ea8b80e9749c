package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	ethleveldb "github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("storage: key not found")

// Database is the key-value store backing the state trie. Both backends share
// the same trie node database so state written through one handle is visible
// to every trie opened on it.
type Database interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Delete(key []byte) error
	TrieDB() *triedb.Database
	Close()
}

type backend struct {
	disk ethdb.Database

	once   sync.Once
	trieDB *triedb.Database
}

func (b *backend) Put(key []byte, value []byte) error {
	return b.disk.Put(key, value)
}

func (b *backend) Get(key []byte) ([]byte, error) {
	ok, err := b.disk.Has(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	value, err := b.disk.Get(key)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return value, err
}

func (b *backend) Has(key []byte) (bool, error) {
	return b.disk.Has(key)
}

func (b *backend) Delete(key []byte) error {
	return b.disk.Delete(key)
}

// TrieDB lazily creates the hash-based trie node database shared by all tries
// opened on this store.
func (b *backend) TrieDB() *triedb.Database {
	b.once.Do(func() {
		b.trieDB = triedb.NewDatabase(b.disk, triedb.HashDefaults)
	})
	return b.trieDB
}

func (b *backend) close() {
	if b.trieDB != nil {
		_ = b.trieDB.Close()
	}
	_ = b.disk.Close()
}

// --- In-Memory DB (for testing) ---

type MemDB struct {
	backend
}

func NewMemDB() *MemDB {
	return &MemDB{backend: backend{disk: rawdb.NewMemoryDatabase()}}
}

// Close releases the in-memory tables.
func (db *MemDB) Close() {
	db.close()
}

// --- Persistent DB ---

// LevelDB is a persistent key-value store using LevelDB.
type LevelDB struct {
	backend
	path string
}

// NewLevelDB creates or opens a LevelDB database at the specified path.
func NewLevelDB(path string) (*LevelDB, error) {
	kv, err := ethleveldb.NewCustom(path, "farmercore/db/", func(o *opt.Options) {
		o.ErrorIfMissing = false
		o.NoSync = false
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open leveldb %s: %w", path, err)
	}
	return &LevelDB{backend: backend{disk: rawdb.NewDatabase(kv)}, path: path}, nil
}

// Path returns the directory the database was opened from.
func (ldb *LevelDB) Path() string {
	return ldb.path
}

// Close closes the database connection.
func (ldb *LevelDB) Close() {
	ldb.close()
}
