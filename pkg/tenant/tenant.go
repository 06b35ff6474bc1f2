// Package tenant implements the Tenant Gate: opaque-key registration,
// validation, rotation, soft deactivation, and admin detection (spec.md
// §4.11, grounded on original_source/backend/auth.py with bcrypt
// replacing the original's bare sha256 per the salted-hash requirement).
package tenant

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/nextgen10/evalctl/pkg/evalmodel"
)

var (
	ErrDisplayNameInvalid = errors.New("tenant: display name must be 2-128 characters")
	ErrIDCollision        = errors.New("tenant: derived identifier already registered")
	ErrNotFound           = errors.New("tenant: not found or inactive")
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*[a-z0-9]$|^[a-z0-9]$`)

const keyPrefix = "evk_"

// Store is the narrow persistence dependency tenant registration needs.
type Store interface {
	GetTenantByID(ctx context.Context, tenantID string) (evalmodel.Tenant, bool, error)
	ListActiveTenants(ctx context.Context) ([]evalmodel.Tenant, error)
	InsertTenant(ctx context.Context, t evalmodel.Tenant) error
	UpdateTenantKeyHash(ctx context.Context, tenantID, keyHash string) error
	SetTenantActive(ctx context.Context, tenantID string, active bool) error
	EarliestActiveTenant(ctx context.Context) (evalmodel.Tenant, bool, error)
}

// Gate implements the Tenant Gate operations.
type Gate struct {
	store Store
}

func New(store Store) *Gate {
	return &Gate{store: store}
}

// DeriveID lowercases display name, replaces spaces and underscores with
// hyphens, collapses repeated hyphens, and trims leading/trailing
// hyphens — matching auth.py's register_application normalization.
func DeriveID(displayName string) string {
	s := strings.ToLower(strings.TrimSpace(displayName))
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}

// RegisterResult carries the newly minted tenant and its one-time plain
// opaque key (never persisted or retrievable again).
type RegisterResult struct {
	Tenant   evalmodel.Tenant
	PlainKey string
}

// Register validates displayName (2-128 chars), derives a kebab tenant
// id, rejects on collision, mints a 32-byte random opaque key, and
// stores only its bcrypt hash.
func (g *Gate) Register(ctx context.Context, displayName, email string) (RegisterResult, error) {
	if l := len(strings.TrimSpace(displayName)); l < 2 || l > 128 {
		return RegisterResult{}, ErrDisplayNameInvalid
	}

	id := DeriveID(displayName)
	if !idPattern.MatchString(id) {
		return RegisterResult{}, fmt.Errorf("%w: derived id %q is invalid", ErrDisplayNameInvalid, id)
	}

	if _, exists, err := g.store.GetTenantByID(ctx, id); err != nil {
		return RegisterResult{}, fmt.Errorf("tenant: checking collision: %w", err)
	} else if exists {
		return RegisterResult{}, ErrIDCollision
	}

	plainKey, err := generateKey()
	if err != nil {
		return RegisterResult{}, fmt.Errorf("tenant: generating key: %w", err)
	}
	hash, err := hashKey(plainKey)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("tenant: hashing key: %w", err)
	}

	t := evalmodel.Tenant{
		TenantID:    id,
		DisplayName: strings.TrimSpace(displayName),
		Email:       email,
		APIKeyHash:  hash,
		IsActive:    true,
	}
	if err := g.store.InsertTenant(ctx, t); err != nil {
		return RegisterResult{}, fmt.Errorf("tenant: persisting: %w", err)
	}
	return RegisterResult{Tenant: t, PlainKey: plainKey}, nil
}

// Validate resolves a presented bearer key to its tenant identity,
// returning ErrNotFound if the key is unknown or the tenant is inactive.
//
// bcrypt hashes are not directly look-up-able by value (each has a
// random salt), so validation scans active tenants and compares each
// hash; this mirrors the narrow, infrequent-auth-check cost profile the
// spec assumes rather than a high-QPS token store.
func (g *Gate) Validate(ctx context.Context, presentedKey string) (evalmodel.Tenant, error) {
	if !strings.HasPrefix(presentedKey, keyPrefix) {
		return evalmodel.Tenant{}, ErrNotFound
	}
	candidates, err := g.store.ListActiveTenants(ctx)
	if err != nil {
		return evalmodel.Tenant{}, fmt.Errorf("tenant: listing active tenants: %w", err)
	}
	for _, t := range candidates {
		if CompareKey(t.APIKeyHash, presentedKey) {
			return t, nil
		}
	}
	return evalmodel.Tenant{}, ErrNotFound
}

// Rotate replaces the stored hash for tenantID with a freshly minted
// key, invalidating the old one.
func (g *Gate) Rotate(ctx context.Context, tenantID string) (string, error) {
	t, ok, err := g.store.GetTenantByID(ctx, tenantID)
	if err != nil {
		return "", fmt.Errorf("tenant: lookup: %w", err)
	}
	if !ok {
		return "", ErrNotFound
	}
	plainKey, err := generateKey()
	if err != nil {
		return "", fmt.Errorf("tenant: generating key: %w", err)
	}
	hash, err := hashKey(plainKey)
	if err != nil {
		return "", fmt.Errorf("tenant: hashing key: %w", err)
	}
	if err := g.store.UpdateTenantKeyHash(ctx, t.TenantID, hash); err != nil {
		return "", fmt.Errorf("tenant: persisting rotation: %w", err)
	}
	return plainKey, nil
}

// Deactivate soft-deletes a tenant by flipping its active flag.
func (g *Gate) Deactivate(ctx context.Context, tenantID string) error {
	return g.store.SetTenantActive(ctx, tenantID, false)
}

// Admin returns the earliest-created active tenant.
func (g *Gate) Admin(ctx context.Context) (evalmodel.Tenant, bool, error) {
	return g.store.EarliestActiveTenant(ctx)
}

func generateKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return keyPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashKey(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CompareKey reports whether plain matches the bcrypt hash.
func CompareKey(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
