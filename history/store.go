package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates no entry exists for the requested ID.
	ErrNotFound = errors.New("history entry not found")

	// ErrNilEntry indicates Append was called without an entry.
	ErrNilEntry = errors.New("history entry is nil")

	// ErrInvalidLimit indicates a non-positive limit was passed to Recent.
	ErrInvalidLimit = errors.New("limit must be positive")
)

// Entry is one completed analysis as recorded in the ledger.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Drug        string    `json:"drug"`
	Question    string    `json:"question"`
	Audience    string    `json:"audience"`
	Concept     string    `json:"concept"`
	Filters     []string  `json:"filters"`
	Fallback    bool      `json:"fallback"`
	Degraded    bool      `json:"degraded"`
	Records     int       `json:"records"`
	Evidence    int       `json:"evidence"`
	Fingerprint string    `json:"fingerprint"`
	Summary     string    `json:"summary"`
}

// Store is an append-only analysis ledger backed by BadgerDB.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets the logger used by the store and the underlying database.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}

// Open opens or creates a ledger in the directory at path.
func Open(path string, opts ...Option) (*Store, error) {
	return open(path, false, opts...)
}

// OpenInMemory opens a ledger that lives only as long as the process.
// Intended for tests and one-shot runs.
func OpenInMemory(opts ...Option) (*Store, error) {
	return open("", true, opts...)
}

func open(path string, inMemory bool, opts ...Option) (*Store, error) {
	s := &Store{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "history")

	db, err := openDB(path, inMemory, s.logger)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	s.db = db
	return s, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append records entry. A zero ID or CreatedAt is filled in before writing,
// so the caller sees the stored values.
func (s *Store) Append(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return ErrNilEntry
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	value := marshalEntry(entry)
	key := makeEntryKey(entry.CreatedAt, entry.ID)
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, value); err != nil {
			return err
		}
		return txn.Set(makeEntryIDKey(entry.ID), key)
	})
	if err != nil {
		return fmt.Errorf("writing history entry: %w", err)
	}

	s.logger.Debug("recorded analysis", "id", entry.ID, "drug", entry.Drug)
	return nil
}

// Get returns the entry with the given ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entry *Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(makeEntryIDKey(id))
		if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err = txn.Get(key)
		if err != nil {
			return err
		}
		entry, err = decodeEntry(item)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	entries := make([]*Entry, 0, limit)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(entryPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(entryPrefixEnd()); it.Valid() && len(entries) < limit; it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			entry, err := decodeEntry(it.Item())
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func decodeEntry(item *badger.Item) (*Entry, error) {
	var entry *Entry
	err := item.Value(func(val []byte) error {
		var err error
		entry, err = unmarshalEntry(val)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("decoding history entry %x: %w", item.Key(), err)
	}
	return entry, nil
}
