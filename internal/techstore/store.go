// Package techstore persists technician tech-enforcement overrides
// (Job.Tech.Enforced / Job.Tech.Code) so operators can pin a job to a
// specific technician ahead of a run without editing the job feed itself.
// It is the concrete Postgres-backed realization of the "persistence of
// tech enforcement flags" collaborator implied by spec §3/§4.8.
package techstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Enforcement is one persisted tech pin for a job id.
type Enforcement struct {
	ID        uuid.UUID `db:"id"`
	JobID     string    `db:"job_id"`
	TechCode  string    `db:"tech_code"`
	Preferred time.Time `db:"preferred"`
	CreatedAt time.Time `db:"created_at"`
}

// Store persists Enforcement rows in Postgres via sqlx.
type Store struct {
	db *sqlx.DB
}

// Open connects to databaseURL and verifies connectivity, following the
// teacher's NewDatabase connect-then-ping pattern.
func Open(databaseURL string, maxConns, maxIdle int, connMaxLifetime time.Duration) (*Store, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("techstore: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("techstore: failed to ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an already-open *sqlx.DB, for callers that manage their own
// connection pool (and for tests against go-sqlmock).
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert creates or replaces the enforcement pin for jobID.
func (s *Store) Upsert(ctx context.Context, jobID, techCode string, preferred time.Time) error {
	query := `
		INSERT INTO tech_enforcements (id, job_id, tech_code, preferred, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (job_id) DO UPDATE SET
			tech_code = EXCLUDED.tech_code,
			preferred = EXCLUDED.preferred`

	_, err := s.db.ExecContext(ctx, query, uuid.New(), jobID, techCode, preferred, time.Now())
	if err != nil {
		return fmt.Errorf("techstore: failed to upsert enforcement for job %s: %w", jobID, err)
	}
	return nil
}

// Get retrieves the enforcement pin for jobID, or (nil, nil) if none exists.
func (s *Store) Get(ctx context.Context, jobID string) (*Enforcement, error) {
	var e Enforcement
	query := `SELECT id, job_id, tech_code, preferred, created_at FROM tech_enforcements WHERE job_id = $1`
	err := s.db.GetContext(ctx, &e, query, jobID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("techstore: failed to get enforcement for job %s: %w", jobID, err)
	}
	return &e, nil
}

// ListAll loads every enforcement pin, for bulk-applying to a job feed
// before it reaches the Orchestrator.
func (s *Store) ListAll(ctx context.Context) ([]Enforcement, error) {
	var rows []Enforcement
	query := `SELECT id, job_id, tech_code, preferred, created_at FROM tech_enforcements ORDER BY created_at`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("techstore: failed to list enforcements: %w", err)
	}
	return rows, nil
}

// Delete removes a job's enforcement pin, if any.
func (s *Store) Delete(ctx context.Context, jobID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tech_enforcements WHERE job_id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("techstore: failed to delete enforcement for job %s: %w", jobID, err)
	}
	return nil
}
