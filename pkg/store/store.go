// Package store is the append-only persistence layer over the
// evaluation_runs, feedback, and tenants tables (spec.md §4.10),
// hand-written against database/sql + pgx/v5 on top of pkg/database's
// already-migrated connection (see SPEC_FULL.md's note on why ent was
// dropped).
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/nextgen10/evalctl/pkg/database"
	"github.com/nextgen10/evalctl/pkg/evalmodel"
)

// ErrNotFound is returned by by-id lookups with no matching row (or a
// tenant mismatch, which must look identical to "doesn't exist").
var ErrNotFound = errors.New("store: not found")

// Store wraps a *database.Client with the hand-written queries this
// system needs.
type Store struct {
	client *database.Client
}

func New(client *database.Client) *Store {
	return &Store{client: client}
}

// SanitizeFloat coerces NaN/Inf to 0.0, applied immediately before any
// float is persisted to a JSON column (spec.md §4.10).
func SanitizeFloat(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0.0
	}
	return f
}

// InsertRun appends a new evaluation run record. Runs are immutable once
// written; there is no update operation.
func (s *Store) InsertRun(ctx context.Context, run evalmodel.EvaluationRun) error {
	_, err := s.client.DB().ExecContext(ctx, `
		INSERT INTO evaluation_runs (run_id, tenant_id, created_at, result_json, event_log_json, source_descriptor)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, run.RunID, run.TenantID, run.CreatedAt, run.ResultJSON, run.EventLogJSON, run.SourceDescriptor)
	if err != nil {
		return fmt.Errorf("store: insert run: %w", err)
	}
	return nil
}

// GetLatestRun returns the most recently created run for tenant.
func (s *Store) GetLatestRun(ctx context.Context, tenantID string) (evalmodel.EvaluationRun, error) {
	row := s.client.DB().QueryRowContext(ctx, `
		SELECT id, run_id, tenant_id, created_at, result_json, event_log_json, source_descriptor
		FROM evaluation_runs WHERE tenant_id = $1
		ORDER BY created_at DESC LIMIT 1
	`, tenantID)
	return scanRun(row)
}

// ListRunsByTenant returns every run owned by tenant, newest first.
func (s *Store) ListRunsByTenant(ctx context.Context, tenantID string) ([]evalmodel.EvaluationRun, error) {
	rows, err := s.client.DB().QueryContext(ctx, `
		SELECT id, run_id, tenant_id, created_at, result_json, event_log_json, source_descriptor
		FROM evaluation_runs WHERE tenant_id = $1
		ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []evalmodel.EvaluationRun
	for rows.Next() {
		r, err := scanRunRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRunByID returns the run with runID, scoped to tenantID. A tenant
// mismatch must look identical to a missing row — both return
// ErrNotFound (spec.md invariant: cross-tenant reads are forbidden).
func (s *Store) GetRunByID(ctx context.Context, runID, tenantID string) (evalmodel.EvaluationRun, error) {
	row := s.client.DB().QueryRowContext(ctx, `
		SELECT id, run_id, tenant_id, created_at, result_json, event_log_json, source_descriptor
		FROM evaluation_runs WHERE run_id = $1 AND tenant_id = $2
	`, runID, tenantID)
	return scanRun(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (evalmodel.EvaluationRun, error) {
	var r evalmodel.EvaluationRun
	err := row.Scan(&r.ID, &r.RunID, &r.TenantID, &r.CreatedAt, &r.ResultJSON, &r.EventLogJSON, &r.SourceDescriptor)
	if errors.Is(err, sql.ErrNoRows) {
		return evalmodel.EvaluationRun{}, ErrNotFound
	}
	if err != nil {
		return evalmodel.EvaluationRun{}, fmt.Errorf("store: scan run: %w", err)
	}
	return r, nil
}

func scanRunRows(rows *sql.Rows) (evalmodel.EvaluationRun, error) {
	var r evalmodel.EvaluationRun
	if err := rows.Scan(&r.ID, &r.RunID, &r.TenantID, &r.CreatedAt, &r.ResultJSON, &r.EventLogJSON, &r.SourceDescriptor); err != nil {
		return evalmodel.EvaluationRun{}, fmt.Errorf("store: scan run row: %w", err)
	}
	return r, nil
}

// InsertFeedback appends a new feedback record.
func (s *Store) InsertFeedback(ctx context.Context, fb evalmodel.Feedback) error {
	_, err := s.client.DB().ExecContext(ctx, `
		INSERT INTO feedback (feedback_id, tenant_id, created_at, rating, suggestion, admin_response, admin_responded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, fb.FeedbackID, fb.TenantID, fb.CreatedAt, fb.Rating, fb.Suggestion, fb.AdminResponse, fb.AdminRespondedAt)
	if err != nil {
		return fmt.Errorf("store: insert feedback: %w", err)
	}
	return nil
}

// RespondToFeedback records an admin response against an existing
// feedback row, scoped by tenant.
func (s *Store) RespondToFeedback(ctx context.Context, feedbackID, tenantID, response string, at time.Time) error {
	res, err := s.client.DB().ExecContext(ctx, `
		UPDATE feedback SET admin_response = $1, admin_responded_at = $2
		WHERE feedback_id = $3 AND tenant_id = $4
	`, response, at, feedbackID, tenantID)
	if err != nil {
		return fmt.Errorf("store: respond to feedback: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: respond to feedback: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFeedbackByTenant returns every feedback row for tenant, newest first.
func (s *Store) ListFeedbackByTenant(ctx context.Context, tenantID string) ([]evalmodel.Feedback, error) {
	rows, err := s.client.DB().QueryContext(ctx, `
		SELECT id, feedback_id, tenant_id, created_at, rating, suggestion, admin_response, admin_responded_at
		FROM feedback WHERE tenant_id = $1
		ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("store: list feedback: %w", err)
	}
	defer rows.Close()

	var out []evalmodel.Feedback
	for rows.Next() {
		var f evalmodel.Feedback
		if err := rows.Scan(&f.ID, &f.FeedbackID, &f.TenantID, &f.CreatedAt, &f.Rating, &f.Suggestion, &f.AdminResponse, &f.AdminRespondedAt); err != nil {
			return nil, fmt.Errorf("store: scan feedback row: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
