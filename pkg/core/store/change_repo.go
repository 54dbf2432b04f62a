package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"risk_analyzer/pkg/models"
)

// ChangeRepo persists ChangeRecords keyed by (ticker, prior year, current
// year). Records are stored as JSON blobs; reruns upsert.
type ChangeRepo struct {
	pool *pgxpool.Pool
}

// NewChangeRepo uses the shared pool initialized by InitDB.
func NewChangeRepo() *ChangeRepo {
	return &ChangeRepo{pool: GetPool()}
}

const createChangeTableSQL = `
CREATE TABLE IF NOT EXISTS risk_change_records (
    ticker        TEXT NOT NULL,
    prior_year    INT  NOT NULL,
    current_year  INT  NOT NULL,
    severity      DOUBLE PRECISION NOT NULL,
    partial       BOOLEAN NOT NULL,
    record        JSONB NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (ticker, prior_year, current_year)
)`

// EnsureSchema creates the backing table when missing.
func (r *ChangeRepo) EnsureSchema(ctx context.Context) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not initialized")
	}
	_, err := r.pool.Exec(ctx, createChangeTableSQL)
	return err
}

// Save upserts one ChangeRecord.
func (r *ChangeRepo) Save(ctx context.Context, record *models.ChangeRecord) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	blob, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal change record: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
        INSERT INTO risk_change_records (ticker, prior_year, current_year, severity, partial, record, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, now())
        ON CONFLICT (ticker, prior_year, current_year)
        DO UPDATE SET severity = $4, partial = $5, record = $6, updated_at = now()`,
		record.Ticker, record.PriorYear, record.CurrentYear,
		record.SeverityDelta, record.Partial, blob)
	if err != nil {
		return fmt.Errorf("failed to save change record: %w", err)
	}
	return nil
}

// Load returns the stored record for one company/year pair, or nil when
// none exists.
func (r *ChangeRepo) Load(ctx context.Context, ticker string, priorYear, currentYear int) (*models.ChangeRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	var blob []byte
	err := r.pool.QueryRow(ctx, `
        SELECT record FROM risk_change_records
        WHERE ticker = $1 AND prior_year = $2 AND current_year = $3`,
		ticker, priorYear, currentYear).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load change record: %w", err)
	}

	var record models.ChangeRecord
	if err := json.Unmarshal(blob, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal change record: %w", err)
	}
	return &record, nil
}
