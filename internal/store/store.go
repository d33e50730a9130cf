// Package store retains accepted contact submissions.
//
// Store is the contract the HTTP layer and the CLI depend on. Three
// backends implement it: MemoryStore for development and tests, SQLiteStore
// (pure-Go SQLite, modernc.org/sqlite) and BadgerStore (dgraph-io/badger).
// Every backend hands out strictly increasing ids that are never reused and
// lists records in insertion order.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Zachkp/portfolio/internal/contact"
)

// Store is the authoritative collection of contact records.
type Store interface {
	// Create assigns an id and a creation time to the draft and retains it.
	// A draft that fails contact.Draft.Check is refused with the
	// *contact.ValidationError and nothing is stored.
	Create(ctx context.Context, d contact.Draft) (contact.Record, error)

	// List returns every record in insertion order. It never returns nil
	// on success.
	List(ctx context.Context) ([]contact.Record, error)

	// Close releases the backend.
	Close() error
}

// Supported drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
)

// ErrStorage matches every *Error via errors.Is.
var ErrStorage = errors.New("storage failure")

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown store driver")

// Error reports a backend failure. The cause is kept for operator logs and
// must not be shown to visitors.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrStorage }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// Config selects and locates a backend.
type Config struct {
	Driver     string
	SQLitePath string
	BadgerPath string
}

// Open builds the backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case DriverMemory, "":
		log.Info("Using in-memory contact store")
		return NewMemoryStore(), nil
	case DriverSQLite:
		log.Info("Opening sqlite contact store", "path", cfg.SQLitePath)
		return NewSQLiteStore(ctx, cfg.SQLitePath)
	case DriverBadger:
		log.Info("Opening badger contact store", "path", cfg.BadgerPath)
		return NewBadgerStore(cfg.BadgerPath, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

func now() time.Time {
	return time.Now().UTC()
}
