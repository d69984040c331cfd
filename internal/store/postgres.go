package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bartab/backend/internal/models"
)

const customersSchema = `
CREATE TABLE IF NOT EXISTS customers (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	ledger     JSONB NOT NULL,
	version    INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

// PostgresStore keeps each customer as one row: the ledger is a JSONB document
// and the version column guards against lost updates.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// Migrate creates the customers table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, customersSchema); err != nil {
		return unavailable("migrate", err)
	}
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, rec *models.CustomerRecord) error {
	next := rec.Clone()
	next.Version = rec.Version + 1
	next.UpdatedAt = s.now().UTC()
	if next.CreatedAt.IsZero() {
		next.CreatedAt = next.UpdatedAt
	}

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode customer %s: %w", rec.ID, err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, ledger, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, ledger = EXCLUDED.ledger, version = EXCLUDED.version, updated_at = EXCLUDED.updated_at
		WHERE customers.version = $7`,
		next.ID, next.Name, data, next.Version, next.CreatedAt, next.UpdatedAt, rec.Version)
	if err != nil {
		return unavailable("put", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return unavailable("put", err)
	}
	if rowsAffected == 0 {
		return ErrVersionConflict
	}

	rec.Version = next.Version
	rec.UpdatedAt = next.UpdatedAt
	rec.CreatedAt = next.CreatedAt
	return nil
}

func (s *PostgresStore) GetAll(ctx context.Context) ([]models.CustomerRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ledger, version FROM customers`)
	if err != nil {
		return nil, unavailable("get all", err)
	}
	defer rows.Close()

	var customers []models.CustomerRecord
	for rows.Next() {
		var data []byte
		var version int
		if err := rows.Scan(&data, &version); err != nil {
			return nil, unavailable("get all", err)
		}
		rec, err := decodeRecord(data, version)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("get all", err)
	}
	return customers, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*models.CustomerRecord, error) {
	var data []byte
	var version int
	err := s.db.QueryRowContext(ctx, `SELECT ledger, version FROM customers WHERE id = $1`, id).Scan(&data, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get", err)
	}
	return decodeRecord(data, version)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id); err != nil {
		return unavailable("delete", err)
	}
	return nil
}

func (s *PostgresStore) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM customers`); err != nil {
		return unavailable("clear", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// decodeRecord parses a stored document. The version stored alongside the
// document wins over the one inside it.
func decodeRecord(data []byte, version int) (*models.CustomerRecord, error) {
	var rec models.CustomerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode customer: %w", err)
	}
	rec.Version = version
	return &rec, nil
}
