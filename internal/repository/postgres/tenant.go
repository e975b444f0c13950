package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lalith-99/notevault/internal/models"
)

type TenantStore struct {
	db DBTX
}

func NewTenantStore(db DBTX) *TenantStore {
	return &TenantStore{db: db}
}

const tenantColumns = `id, name, description, created_at, updated_at`

func (s *TenantStore) Create(ctx context.Context, name string, description *string) (*models.Tenant, error) {
	query := `
		INSERT INTO tenants (name, description, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		RETURNING ` + tenantColumns

	t, err := scanTenant(s.db.QueryRow(ctx, query, name, description))
	if err != nil {
		return nil, fmt.Errorf("insert tenant: %w", err)
	}
	return t, nil
}

func (s *TenantStore) GetByID(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`

	t, err := scanTenant(s.db.QueryRow(ctx, query, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return t, nil
}

// Delete removes the tenant row. The users and notes foreign keys cascade,
// which matters for the bootstrap rollback: a half-created admin row (if
// the insert failed after a partial write) goes with it.
func (s *TenantStore) Delete(ctx context.Context, tenantID uuid.UUID) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, tenantID)
	if err != nil {
		return false, fmt.Errorf("delete tenant: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	var t models.Tenant
	if err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Description,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}
