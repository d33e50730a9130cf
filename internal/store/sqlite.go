package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/Zachkp/portfolio/internal/contact"

	_ "modernc.org/sqlite"
)

const contactsSchema = `
CREATE TABLE IF NOT EXISTS contacts (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	company    TEXT,
	message    TEXT NOT NULL,
	created_at TEXT NOT NULL
)`

// SQLiteStore persists records in a SQLite database. AUTOINCREMENT keeps
// ids from being reused even if rows are removed out of band.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path. Use ":memory:"
// for a throwaway database.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrap("open", fmt.Errorf("open sqlite %q: %w", path, err))
	}
	// One connection serializes writers and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, wrap("open", fmt.Errorf("set WAL mode: %w", err))
	}
	if _, err := db.ExecContext(ctx, contactsSchema); err != nil {
		db.Close()
		return nil, wrap("open", fmt.Errorf("create contacts table: %w", err))
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, d contact.Draft) (contact.Record, error) {
	if err := d.Check(); err != nil {
		return contact.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	at := now()
	var company sql.NullString
	if d.Company != "" {
		company = sql.NullString{String: d.Company, Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO contacts (name, email, company, message, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		d.Name, d.Email, company, d.Message, at.Format(time.RFC3339Nano),
	)
	if err != nil {
		return contact.Record{}, wrap("create", fmt.Errorf("insert contact: %w", err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return contact.Record{}, wrap("create", fmt.Errorf("read contact id: %w", err))
	}
	return contact.NewRecord(id, d, at), nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]contact.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, company, message, created_at
		FROM contacts
		ORDER BY id ASC`)
	if err != nil {
		return nil, wrap("list", fmt.Errorf("query contacts: %w", err))
	}
	defer rows.Close()

	records := []contact.Record{}
	for rows.Next() {
		var (
			rec       contact.Record
			company   sql.NullString
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Email, &company, &rec.Message, &createdAt); err != nil {
			return nil, wrap("list", fmt.Errorf("scan contact: %w", err))
		}
		rec.Company = company.String
		rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, wrap("list", fmt.Errorf("parse created_at of contact %d: %w", rec.ID, err))
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list", err)
	}
	return records, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
