// Package sqlite persists the share ledger in a single SQLite database using
// the pure Go modernc.org/sqlite driver.
//
// The database is opened with one connection, so every transaction is
// serialized. Writes that must agree with each other (property row, its four
// shares and the derived aggregate status; assignment check and insert) run
// inside one transaction.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/domain/services"
)

const timeLayout = time.RFC3339Nano

const schema = `
CREATE TABLE IF NOT EXISTS agents (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	phone      TEXT NOT NULL DEFAULT '',
	license    TEXT NOT NULL DEFAULT '',
	bio        TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS properties (
	id                    TEXT PRIMARY KEY,
	name                  TEXT NOT NULL,
	category              TEXT NOT NULL DEFAULT '',
	street                TEXT NOT NULL DEFAULT '',
	city                  TEXT NOT NULL DEFAULT '',
	state                 TEXT NOT NULL DEFAULT '',
	zip_code              TEXT NOT NULL DEFAULT '',
	country               TEXT NOT NULL DEFAULT '',
	details               TEXT NOT NULL DEFAULT '{}',
	total_price           INTEGER NOT NULL CHECK (total_price >= 0),
	agent_id              TEXT REFERENCES agents(id),
	commission_percentage TEXT NOT NULL,
	commission_status     TEXT NOT NULL,
	status                TEXT NOT NULL,
	created_at            TEXT NOT NULL,
	updated_at            TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_properties_status ON properties(status);
CREATE INDEX IF NOT EXISTS idx_properties_agent ON properties(agent_id);

CREATE TABLE IF NOT EXISTS property_shares (
	property_id  TEXT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
	share_number INTEGER NOT NULL CHECK (share_number BETWEEN 1 AND 4),
	status       TEXT NOT NULL CHECK (status IN ('available', 'reserved', 'sold')),
	price        INTEGER NOT NULL CHECK (price >= 0),
	PRIMARY KEY (property_id, share_number)
);

CREATE TABLE IF NOT EXISTS owners (
	id          TEXT PRIMARY KEY,
	first_name  TEXT NOT NULL,
	last_names  TEXT NOT NULL,
	email       TEXT NOT NULL,
	phone       TEXT NOT NULL DEFAULT '',
	national_id TEXT NOT NULL DEFAULT '',
	street      TEXT NOT NULL DEFAULT '',
	city        TEXT NOT NULL DEFAULT '',
	state       TEXT NOT NULL DEFAULT '',
	zip_code    TEXT NOT NULL DEFAULT '',
	country     TEXT NOT NULL DEFAULT '',
	birth_date  TEXT NOT NULL DEFAULT '',
	occupation  TEXT NOT NULL DEFAULT '',
	notes       TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS share_assignments (
	owner_id       TEXT NOT NULL REFERENCES owners(id) ON DELETE CASCADE,
	property_id    TEXT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
	share_number   INTEGER NOT NULL CHECK (share_number BETWEEN 1 AND 4),
	purchase_price INTEGER NOT NULL DEFAULT 0,
	assigned_at    TEXT NOT NULL,
	UNIQUE (property_id, share_number)
);

CREATE INDEX IF NOT EXISTS idx_assignments_owner ON share_assignments(owner_id);

CREATE TABLE IF NOT EXISTS invoices (
	id             TEXT PRIMARY KEY,
	invoice_number TEXT NOT NULL UNIQUE,
	owner_id       TEXT NOT NULL,
	property_id    TEXT NOT NULL,
	invoice_date   TEXT NOT NULL,
	invoice_year   INTEGER NOT NULL,
	invoice_month  INTEGER NOT NULL CHECK (invoice_month BETWEEN 1 AND 12),
	amount         INTEGER NOT NULL CHECK (amount > 0),
	invoice_type   TEXT NOT NULL CHECK (invoice_type IN ('common_expenses', 'management_expenses')),
	bank_status    TEXT NOT NULL CHECK (bank_status IN ('pending', 'sent', 'returned')),
	payment_status TEXT NOT NULL CHECK (payment_status IN ('paid', 'pending', 'returned')),
	notes          TEXT NOT NULL DEFAULT '',
	created_at     TEXT NOT NULL,
	updated_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_invoices_owner ON invoices(owner_id);
CREATE INDEX IF NOT EXISTS idx_invoices_period ON invoices(invoice_year, invoice_month);

CREATE TABLE IF NOT EXISTS events (
	position   INTEGER PRIMARY KEY AUTOINCREMENT,
	stream_id  TEXT NOT NULL,
	version    INTEGER NOT NULL,
	type       TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at TEXT NOT NULL,
	UNIQUE (stream_id, version)
);
`

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store owns the database handle shared by the SQLite repositories
type Store struct {
	db     *sql.DB
	path   string
	ledger *services.ShareLedger
}

// Open opens (creating if needed) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string, ledger *services.ShareLedger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}

	// pragmas in the DSN are applied to every connection the pool opens
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, path: path, ledger: ledger}, nil
}

// Path returns the database location
func (s *Store) Path() string {
	return s.path
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Properties returns the property repository backed by this store
func (s *Store) Properties() *PropertyRepository {
	return &PropertyRepository{store: s}
}

// Owners returns the owner repository backed by this store
func (s *Store) Owners() *OwnerRepository {
	return &OwnerRepository{store: s}
}

// Agents returns the agent repository backed by this store
func (s *Store) Agents() *AgentRepository {
	return &AgentRepository{store: s}
}

// Assignments returns the assignment repository backed by this store
func (s *Store) Assignments() *AssignmentRepository {
	return &AssignmentRepository{store: s}
}

// Invoices returns the invoice repository backed by this store
func (s *Store) Invoices() *InvoiceRepository {
	return &InvoiceRepository{store: s}
}

// withTx runs fn inside a transaction, committing when fn returns nil.
// Errors from fn are returned unchanged; driver errors are wrapped as
// persistence errors.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return entities.NewPersistenceError(op, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return entities.NewPersistenceError(op, errors.Join(err, rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return entities.NewPersistenceError(op, err)
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite unique or primary key
// constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlitedrv.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
