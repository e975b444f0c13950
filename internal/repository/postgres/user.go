package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lalith-99/notevault/internal/models"
	"github.com/lalith-99/notevault/internal/repository"
)

type UserStore struct {
	db DBTX
}

func NewUserStore(db DBTX) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, tenant_id, email, display_name, password_hash, role, is_active, created_at, updated_at`

// Create inserts a new user row. Postgres generates the UUID and timestamps.
//
// Two concurrent signups with the same (tenant_id, email) both pass any
// application-level pre-check; the UNIQUE constraint picks the winner and
// the loser gets repository.ErrDuplicate.
func (s *UserStore) Create(ctx context.Context, p repository.CreateUserParams) (*models.User, error) {
	query := `
		INSERT INTO users (tenant_id, email, display_name, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, true, now(), now())
		RETURNING ` + userColumns

	u, err := scanUser(s.db.QueryRow(ctx, query, p.TenantID, p.Email, p.DisplayName, p.PasswordHash, string(p.Role)))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByID(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND tenant_id = $2`

	u, err := scanUser(s.db.QueryRow(ctx, query, userID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByEmail looks a user up by email INSIDE one tenant. Login always
// names the organization, so there is no global email lookup.
func (s *UserStore) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 AND lower(email) = lower($2)`

	u, err := scanUser(s.db.QueryRow(ctx, query, tenantID, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := s.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

func (s *UserStore) FindAdmin(ctx context.Context, tenantID uuid.UUID) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE tenant_id = $1 AND role = $2
		ORDER BY created_at ASC, id ASC
		LIMIT 1`

	u, err := scanUser(s.db.QueryRow(ctx, query, tenantID, string(models.RoleAdmin)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find admin: %w", err)
	}
	return u, nil
}

func (s *UserStore) UpdateRole(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID, role models.Role) (bool, error) {
	query := `
		UPDATE users SET role = $1, updated_at = now()
		WHERE id = $2 AND tenant_id = $3`

	tag, err := s.db.Exec(ctx, query, string(role), userID, tenantID)
	if err != nil {
		return false, fmt.Errorf("update user role: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *UserStore) UpdatePasswordHash(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID, hash string) (bool, error) {
	query := `
		UPDATE users SET password_hash = $1, updated_at = now()
		WHERE id = $2 AND tenant_id = $3`

	tag, err := s.db.Exec(ctx, query, hash, userID, tenantID)
	if err != nil {
		return false, fmt.Errorf("update password hash: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *UserStore) Delete(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1 AND tenant_id = $2`, userID, tenantID)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// scanUser reads one row in userColumns order. pgx.Rows satisfies pgx.Row,
// so list and single-row queries share it.
func scanUser(row pgx.Row) (*models.User, error) {
	var (
		u    models.User
		role string
	)
	if err := row.Scan(
		&u.ID,
		&u.TenantID,
		&u.Email,
		&u.DisplayName,
		&u.PasswordHash,
		&role,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}
