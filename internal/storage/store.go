package storage

import (
	"github.com/dgraph-io/badger/v4"
)

// Store is a thin key/value wrapper around a BadgerDB instance, opened at
// the platform data directory. It backs the tablebase probe cache with an
// on-disk, crash-safe LSM-tree instead of a process-lifetime map.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) the BadgerDB database under the
// platform data directory's "db" subfolder.
func Open() (*Store, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return OpenAt(dbDir)
}

// OpenAt opens (creating if necessary) a BadgerDB database at an explicit
// directory, bypassing the platform data directory. Tests use this to keep
// their databases confined to a temp dir instead of touching the real one.
func OpenAt(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get looks up key, returning (nil, false) on a miss.
func (s *Store) Get(key []byte) ([]byte, bool) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil || value == nil {
		return nil, false
	}
	return value, true
}

// Set writes key/value, overwriting any existing entry.
func (s *Store) Set(key, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// DropAll empties the database. Used when a cache needs to be invalidated
// wholesale rather than key by key.
func (s *Store) DropAll() error {
	return s.db.DropAll()
}
