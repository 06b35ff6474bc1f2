package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nextgen10/evalctl/pkg/evalmodel"
)

// GetTenantByID implements tenant.Store.
func (s *Store) GetTenantByID(ctx context.Context, tenantID string) (evalmodel.Tenant, bool, error) {
	row := s.client.DB().QueryRowContext(ctx, `
		SELECT tenant_id, display_name, email, api_key_hash, is_active, created_at
		FROM tenants WHERE tenant_id = $1
	`, tenantID)
	t, err := scanTenant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return evalmodel.Tenant{}, false, nil
	}
	if err != nil {
		return evalmodel.Tenant{}, false, err
	}
	return t, true, nil
}

// ListActiveTenants implements tenant.Store.
func (s *Store) ListActiveTenants(ctx context.Context) ([]evalmodel.Tenant, error) {
	rows, err := s.client.DB().QueryContext(ctx, `
		SELECT tenant_id, display_name, email, api_key_hash, is_active, created_at
		FROM tenants WHERE is_active = true
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list active tenants: %w", err)
	}
	defer rows.Close()

	var out []evalmodel.Tenant
	for rows.Next() {
		var t evalmodel.Tenant
		if err := rows.Scan(&t.TenantID, &t.DisplayName, &t.Email, &t.APIKeyHash, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan tenant row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// InsertTenant implements tenant.Store.
func (s *Store) InsertTenant(ctx context.Context, t evalmodel.Tenant) error {
	_, err := s.client.DB().ExecContext(ctx, `
		INSERT INTO tenants (tenant_id, display_name, email, api_key_hash, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, t.TenantID, t.DisplayName, t.Email, t.APIKeyHash, t.IsActive)
	if err != nil {
		return fmt.Errorf("store: insert tenant: %w", err)
	}
	return nil
}

// UpdateTenantKeyHash implements tenant.Store.
func (s *Store) UpdateTenantKeyHash(ctx context.Context, tenantID, keyHash string) error {
	res, err := s.client.DB().ExecContext(ctx, `
		UPDATE tenants SET api_key_hash = $1 WHERE tenant_id = $2 AND is_active = true
	`, keyHash, tenantID)
	if err != nil {
		return fmt.Errorf("store: update tenant key hash: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update tenant key hash: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetTenantActive implements tenant.Store.
func (s *Store) SetTenantActive(ctx context.Context, tenantID string, active bool) error {
	_, err := s.client.DB().ExecContext(ctx, `
		UPDATE tenants SET is_active = $1 WHERE tenant_id = $2
	`, active, tenantID)
	if err != nil {
		return fmt.Errorf("store: set tenant active: %w", err)
	}
	return nil
}

// EarliestActiveTenant implements tenant.Store: the first active tenant
// by creation time is the admin.
func (s *Store) EarliestActiveTenant(ctx context.Context) (evalmodel.Tenant, bool, error) {
	row := s.client.DB().QueryRowContext(ctx, `
		SELECT tenant_id, display_name, email, api_key_hash, is_active, created_at
		FROM tenants WHERE is_active = true
		ORDER BY created_at ASC LIMIT 1
	`)
	t, err := scanTenant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return evalmodel.Tenant{}, false, nil
	}
	if err != nil {
		return evalmodel.Tenant{}, false, err
	}
	return t, true, nil
}

func scanTenant(row rowScanner) (evalmodel.Tenant, error) {
	var t evalmodel.Tenant
	err := row.Scan(&t.TenantID, &t.DisplayName, &t.Email, &t.APIKeyHash, &t.IsActive, &t.CreatedAt)
	if err != nil {
		return evalmodel.Tenant{}, err
	}
	return t, nil
}
