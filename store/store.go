// Package store is the transactional key-value store behind the registry and
// the oracles. Every Update either commits all of its writes or none.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

var (
	ErrNotFound = errors.New("key not found")
	// ErrConflict reports that a concurrent transaction committed first.
	ErrConflict = errors.New("transaction conflict")
)

// Store wraps a badger database.
type Store struct {
	db  *badger.DB
	log *slog.Logger
}

// Open opens (or creates) a database in dir. An empty dir keeps everything in memory.
func Open(dir string, log *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(&badgerLogger{log: log.With("component", "badger")})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("could not open store: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// OpenInMemory opens a store that is discarded on Close.
func OpenInMemory(log *slog.Logger) (*Store, error) {
	return Open("", log)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Update runs fn in a read-write transaction. The transaction commits only
// when fn returns nil.
func (s *Store) Update(fn func(txn *Txn) error) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return fn(&Txn{txn: txn})
	})
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

// View runs fn in a read-only transaction.
func (s *Store) View(fn func(txn *Txn) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&Txn{txn: txn})
	})
}

// Txn is a single store transaction.
type Txn struct {
	txn *badger.Txn
}

// Get returns a copy of the value stored at key, or ErrNotFound.
func (t *Txn) Get(key []byte) ([]byte, error) {
	item, err := t.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s fail: %w", string(key), err)
	}
	return item.ValueCopy(nil)
}

func (t *Txn) Has(key []byte) (bool, error) {
	_, err := t.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s fail: %w", string(key), err)
	}
	return true, nil
}

func (t *Txn) Put(key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	return t.txn.Set(key, value)
}

// PutWithTTL stores value at key until ttl elapses. Expiry has one-second
// resolution.
func (t *Txn) PutWithTTL(key, value []byte, ttl time.Duration) error {
	if value == nil {
		value = []byte{}
	}
	return t.txn.SetEntry(badger.NewEntry(key, value).WithTTL(ttl))
}

func (t *Txn) Delete(key []byte) error {
	return t.txn.Delete(key)
}

// GetUint32 reads a big-endian counter. A missing key reads as zero.
func (t *Txn) GetUint32(key []byte) (uint32, error) {
	value, err := t.Get(key)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(value) != 4 {
		return 0, fmt.Errorf("corrupted counter %s: %d bytes", string(key), len(value))
	}
	return binary.BigEndian.Uint32(value), nil
}

func (t *Txn) PutUint32(key []byte, v uint32) error {
	return t.Put(key, binary.BigEndian.AppendUint32(nil, v))
}

// Keys returns every key starting with prefix, in order.
func (t *Txn) Keys(prefix []byte) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix

	it := t.txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys, nil
}

// badgerLogger routes badger's internal logging to slog.
type badgerLogger struct {
	log *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...))
}
