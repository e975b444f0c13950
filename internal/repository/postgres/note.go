package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lalith-99/notevault/internal/models"
)

type NoteStore struct {
	db DBTX
}

func NewNoteStore(db DBTX) *NoteStore {
	return &NoteStore{db: db}
}

const noteColumns = `id, tenant_id, owner_id, title, content, created_at, updated_at`

func (s *NoteStore) Create(ctx context.Context, tenantID uuid.UUID, ownerID uuid.UUID, title, content string) (*models.Note, error) {
	query := `
		INSERT INTO notes (tenant_id, owner_id, title, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING ` + noteColumns

	n, err := scanNote(s.db.QueryRow(ctx, query, tenantID, ownerID, title, content))
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return n, nil
}

// GetByID filters on BOTH id and tenant_id. A note from another tenant
// comes back as nil, nil, the same as a note that never existed.
func (s *NoteStore) GetByID(ctx context.Context, tenantID uuid.UUID, noteID uuid.UUID) (*models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1 AND tenant_id = $2`

	n, err := scanNote(s.db.QueryRow(ctx, query, noteID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

func (s *NoteStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE tenant_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := s.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]models.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}

	return notes, nil
}

// Update applies a partial update in one statement.
//
// COALESCE($n, column) keeps the stored value when the patch field is nil,
// so "title only" and "content only" updates share one query instead of
// building SQL strings per combination.
func (s *NoteStore) Update(ctx context.Context, tenantID uuid.UUID, noteID uuid.UUID, patch models.NotePatch) (*models.Note, error) {
	query := `
		UPDATE notes
		SET title = COALESCE($1, title),
		    content = COALESCE($2, content),
		    updated_at = now()
		WHERE id = $3 AND tenant_id = $4
		RETURNING ` + noteColumns

	n, err := scanNote(s.db.QueryRow(ctx, query, patch.Title, patch.Content, noteID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update note: %w", err)
	}
	return n, nil
}

func (s *NoteStore) Delete(ctx context.Context, tenantID uuid.UUID, noteID uuid.UUID) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM notes WHERE id = $1 AND tenant_id = $2`, noteID, tenantID)
	if err != nil {
		return false, fmt.Errorf("delete note: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanNote(row pgx.Row) (*models.Note, error) {
	var n models.Note
	if err := row.Scan(
		&n.ID,
		&n.TenantID,
		&n.OwnerID,
		&n.Title,
		&n.Content,
		&n.CreatedAt,
		&n.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &n, nil
}
