package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/dgraph-io/badger/v4"
)

const (
	contactPrefix = "contact:"
	sequenceKey   = "seq:contact"
	// Ids leased from badger per round trip.
	sequenceBandwidth = 100
)

// BadgerStore persists records in BadgerDB.
//
// Keys are formatted as "contact:{id_padded}" with 19-digit zero padding so
// a prefix scan walks records in id order, which is insertion order. Ids
// come from a badger Sequence; a restart skips the unused part of the last
// lease, so ids stay unique and increasing but may have gaps.
type BadgerStore struct {
	mu  sync.Mutex
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger
}

// NewBadgerStore opens the database directory at path.
func NewBadgerStore(path string, log *slog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(badgerLogger{log: log})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, wrap("open", fmt.Errorf("open badger %q: %w", path, err))
	}
	seq, err := db.GetSequence([]byte(sequenceKey), sequenceBandwidth)
	if err != nil {
		db.Close()
		return nil, wrap("open", fmt.Errorf("acquire id sequence: %w", err))
	}
	return &BadgerStore{db: db, seq: seq, log: log}, nil
}

func contactKey(id int64) []byte {
	return fmt.Appendf(nil, "%s%019d", contactPrefix, id)
}

func (s *BadgerStore) Create(ctx context.Context, d contact.Draft) (contact.Record, error) {
	if err := d.Check(); err != nil {
		return contact.Record{}, err
	}
	if err := ctx.Err(); err != nil {
		return contact.Record{}, wrap("create", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.seq.Next()
	if err != nil {
		return contact.Record{}, wrap("create", fmt.Errorf("next contact id: %w", err))
	}
	rec := contact.NewRecord(int64(n)+1, d, now())
	bytes, err := json.Marshal(rec)
	if err != nil {
		return contact.Record{}, wrap("create", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(contactKey(rec.ID), bytes)
	})
	if err != nil {
		return contact.Record{}, wrap("create", fmt.Errorf("write contact %d: %w", rec.ID, err))
	}
	return rec, nil
}

func (s *BadgerStore) List(ctx context.Context) ([]contact.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("list", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records := []contact.Record{}
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(contactPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(value []byte) error {
				var rec contact.Record
				if err := json.Unmarshal(value, &rec); err != nil {
					return fmt.Errorf("decode %s: %w", item.Key(), err)
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrap("list", err)
	}
	return records, nil
}

func (s *BadgerStore) Close() error {
	if err := s.seq.Release(); err != nil {
		s.log.Warn("Failed to release contact id sequence", "error", err)
	}
	return s.db.Close()
}

// badgerLogger routes badger's internal logging to slog. Badger is chatty at
// info level, so that goes to debug.
type badgerLogger struct {
	log *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.log.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.log.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
