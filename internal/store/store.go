// Package store persists the assistant's durable state in SQLite: cached
// form data and placeholder maps keyed by demand type, the record of
// generated cases, and the usage/credit ledger behind LLM metering.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS form_data (
	tipo       TEXT PRIMARY KEY,
	data       TEXT NOT NULL DEFAULT '{}',
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS placeholder_maps (
	tipo       TEXT PRIMARY KEY,
	data       TEXT NOT NULL DEFAULT '{}',
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS casos (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	tipo       TEXT NOT NULL DEFAULT '',
	resultado  TEXT NOT NULL DEFAULT '',
	cliente    TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS usage_ledger (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	tokens_in  INTEGER NOT NULL DEFAULT 0,
	tokens_out INTEGER NOT NULL DEFAULT 0,
	cost       REAL NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS credits (
	id      INTEGER PRIMARY KEY CHECK (id = 1),
	balance REAL NOT NULL DEFAULT 0
);
`

// Store wraps the SQLite database. A single connection with WAL keeps
// writes serialized without a separate mutex.
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func now() string { return time.Now().UTC().Format(time.RFC3339Nano) }

// --- form data and placeholder caches ---

func (s *Store) saveJSON(table, tipo string, data map[string]string) error {
	blob, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO `+table+` (tipo, data, updated_at) VALUES (?, ?, ?)`,
		tipo, string(blob), now(),
	)
	return err
}

func (s *Store) loadJSON(table, tipo string) (map[string]string, error) {
	var blob string
	err := s.db.Get(&blob, `SELECT data FROM `+table+` WHERE tipo = ?`, tipo)
	if err == sql.ErrNoRows {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	data := map[string]string{}
	if err := json.Unmarshal([]byte(blob), &data); err != nil {
		return nil, fmt.Errorf("decode cached data for %q: %w", tipo, err)
	}
	return data, nil
}

// SaveFormData caches form field values for a demand type.
func (s *Store) SaveFormData(tipo string, data map[string]string) error {
	return s.saveJSON("form_data", tipo, data)
}

// LoadFormData returns the cached form data for a demand type, empty map
// when none was cached.
func (s *Store) LoadFormData(tipo string) (map[string]string, error) {
	return s.loadJSON("form_data", tipo)
}

// SavePlaceholderMap caches a template's placeholder-to-value mapping.
func (s *Store) SavePlaceholderMap(tipo string, data map[string]string) error {
	return s.saveJSON("placeholder_maps", tipo, data)
}

// LoadPlaceholderMap returns the cached placeholder mapping for a demand
// type, empty map when none was cached.
func (s *Store) LoadPlaceholderMap(tipo string) (map[string]string, error) {
	return s.loadJSON("placeholder_maps", tipo)
}

// --- generated case records ---

// RegisterCase records one generated demand.
func (s *Store) RegisterCase(tipo, resultado, cliente string) error {
	_, err := s.db.Exec(
		`INSERT INTO casos (tipo, resultado, cliente, created_at) VALUES (?, ?, ?, ?)`,
		tipo, resultado, cliente, now(),
	)
	return err
}

// CaseCounts returns how many demands were generated per type.
func (s *Store) CaseCounts() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT tipo, COUNT(*) FROM casos GROUP BY tipo`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[string]int{}
	for rows.Next() {
		var tipo string
		var n int
		if err := rows.Scan(&tipo, &n); err != nil {
			return nil, err
		}
		counts[tipo] = n
	}
	return counts, rows.Err()
}

// --- usage and credit ledger (meter.Ledger) ---

// AddUsage appends one model call's token counts and cost to the ledger.
func (s *Store) AddUsage(tokensIn, tokensOut int64, cost float64) error {
	_, err := s.db.Exec(
		`INSERT INTO usage_ledger (tokens_in, tokens_out, cost, created_at) VALUES (?, ?, ?, ?)`,
		tokensIn, tokensOut, cost, now(),
	)
	return err
}

// Balance returns the current credit balance, zero when never funded.
func (s *Store) Balance() (float64, error) {
	var balance float64
	err := s.db.Get(&balance, `SELECT balance FROM credits WHERE id = 1`)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return balance, err
}

// Debit subtracts amount from the balance.
func (s *Store) Debit(amount float64) error {
	_, err := s.db.Exec(
		`INSERT INTO credits (id, balance) VALUES (1, ?) ON CONFLICT(id) DO UPDATE SET balance = balance - ?`,
		-amount, amount,
	)
	return err
}

// AddCredit adds amount to the balance.
func (s *Store) AddCredit(amount float64) error {
	_, err := s.db.Exec(
		`INSERT INTO credits (id, balance) VALUES (1, ?) ON CONFLICT(id) DO UPDATE SET balance = balance + ?`,
		amount, amount,
	)
	return err
}
