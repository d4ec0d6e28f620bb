package storage

import (
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// fastWrites trades durability for throughput on bulk import writes: a crash
// can lose the tail of an import, and the node re-fetches it from upstream.
var fastWrites = &opt.WriteOptions{Sync: false}

// PersistenceStore wraps LevelDB for raw key-value persistence.
// This is the foundational persistence layer - no domain logic here.
// Thread-safe: LevelDB handles its own synchronization.
type PersistenceStore struct {
	db *leveldb.DB
}

// NewPersistenceStore opens or creates a LevelDB database at the given path.
// If path is empty, uses in-memory storage.
func NewPersistenceStore(path string) (*PersistenceStore, error) {
	var db *leveldb.DB
	var err error

	if path == "" {
		memStorage := leveldbstorage.NewMemStorage()
		db, err = leveldb.Open(memStorage, nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}

	return &PersistenceStore{db: db}, nil
}

// NewMemoryPersistenceStore creates an in-memory PersistenceStore for testing.
func NewMemoryPersistenceStore() (*PersistenceStore, error) {
	return NewPersistenceStore("")
}

// Get retrieves a value by key. Returns (nil, false, nil) if not found.
func (ps *PersistenceStore) Get(key []byte) ([]byte, bool, error) {
	data, err := ps.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("Get %x: %w", key, err)
	}
	return data, true, nil
}

func (ps *PersistenceStore) Has(key []byte) (bool, error) {
	return ps.db.Has(key, nil)
}

func (ps *PersistenceStore) Put(key []byte, value []byte) error {
	return ps.db.Put(key, value, fastWrites)
}

func (ps *PersistenceStore) Delete(key []byte) error {
	return ps.db.Delete(key, fastWrites)
}

// WriteBatch applies a batch of writes in one engine call.
func (ps *PersistenceStore) WriteBatch(batch *leveldb.Batch) error {
	return ps.db.Write(batch, fastWrites)
}

// DeletePrefix removes every key under the given prefix atomically.
func (ps *PersistenceStore) DeletePrefix(prefix []byte) error {
	iter := ps.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()

	batch := new(leveldb.Batch)
	for iter.Next() {
		key := make([]byte, len(iter.Key()))
		copy(key, iter.Key())
		batch.Delete(key)
	}
	if err := iter.Error(); err != nil {
		return fmt.Errorf("DeletePrefix %x: %w", prefix, err)
	}
	return ps.db.Write(batch, fastWrites)
}

func (ps *PersistenceStore) Close() error {
	return ps.db.Close()
}
