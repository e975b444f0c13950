// Package memory is an in-process implementation of the repository
// interfaces. It backs STORE=memory for local runs and is the store used by
// tests that exercise the auth core end to end.
//
// It enforces the same invariants as Postgres: tenant-scoped lookups and a
// unique (tenant_id, email) pair for users.
package memory

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/notevault/internal/models"
	"github.com/lalith-99/notevault/internal/repository"
)

// Store holds all three collections behind one lock.
type Store struct {
	mu      sync.RWMutex
	tenants map[uuid.UUID]models.Tenant
	users   map[uuid.UUID]models.User
	notes   map[uuid.UUID]models.Note
	now     func() time.Time
}

func New() *Store {
	return &Store{
		tenants: make(map[uuid.UUID]models.Tenant),
		users:   make(map[uuid.UUID]models.User),
		notes:   make(map[uuid.UUID]models.Note),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Tenants, Users and Notes expose the store through the repository
// interfaces so callers only see one collection at a time.
func (s *Store) Tenants() repository.TenantRepository { return tenantRepo{s} }
func (s *Store) Users() repository.UserRepository     { return userRepo{s} }
func (s *Store) Notes() repository.NoteRepository     { return noteRepo{s} }

type tenantRepo struct{ s *Store }

func (r tenantRepo) Create(_ context.Context, name string, description *string) (*models.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	t := models.Tenant{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.s.tenants[t.ID] = t
	return &t, nil
}

func (r tenantRepo) GetByID(_ context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tenants[tenantID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r tenantRepo) Delete(_ context.Context, tenantID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tenants[tenantID]; !ok {
		return false, nil
	}
	delete(r.s.tenants, tenantID)
	return true, nil
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, p repository.CreateUserParams) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.TenantID == p.TenantID && strings.EqualFold(u.Email, p.Email) {
			return nil, repository.ErrDuplicate
		}
	}

	now := r.s.now()
	u := models.User{
		ID:           uuid.New(),
		TenantID:     p.TenantID,
		Email:        p.Email,
		DisplayName:  p.DisplayName,
		PasswordHash: p.PasswordHash,
		Role:         p.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.s.users[u.ID] = u
	return &u, nil
}

func (r userRepo) GetByID(_ context.Context, tenantID uuid.UUID, userID uuid.UUID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[userID]
	if !ok || u.TenantID != tenantID {
		return nil, nil
	}
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, tenantID uuid.UUID, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.TenantID == tenantID && strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r userRepo) ListByTenant(_ context.Context, tenantID uuid.UUID) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]models.User, 0)
	for _, u := range r.s.users {
		if u.TenantID == tenantID {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		return createdBefore(users[i].CreatedAt, users[i].ID, users[j].CreatedAt, users[j].ID)
	})
	return users, nil
}

func (r userRepo) FindAdmin(ctx context.Context, tenantID uuid.UUID) (*models.User, error) {
	users, err := r.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Role == models.RoleAdmin {
			return &u, nil
		}
	}
	return nil, nil
}

func (r userRepo) UpdateRole(_ context.Context, tenantID uuid.UUID, userID uuid.UUID, role models.Role) (bool, error) {
	return r.mutate(tenantID, userID, func(u *models.User) { u.Role = role })
}

func (r userRepo) UpdatePasswordHash(_ context.Context, tenantID uuid.UUID, userID uuid.UUID, hash string) (bool, error) {
	return r.mutate(tenantID, userID, func(u *models.User) { u.PasswordHash = hash })
}

func (r userRepo) mutate(tenantID, userID uuid.UUID, fn func(*models.User)) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok || u.TenantID != tenantID {
		return false, nil
	}
	fn(&u)
	u.UpdatedAt = r.s.now()
	r.s.users[userID] = u
	return true, nil
}

func (r userRepo) Delete(_ context.Context, tenantID uuid.UUID, userID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok || u.TenantID != tenantID {
		return false, nil
	}
	delete(r.s.users, userID)
	return true, nil
}

// SetActive flips the active flag. There is no HTTP surface for
// deactivation; tests and operators use this directly.
func (s *Store) SetActive(userID uuid.UUID, active bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return false
	}
	u.IsActive = active
	s.users[userID] = u
	return true
}

type noteRepo struct{ s *Store }

func (r noteRepo) Create(_ context.Context, tenantID uuid.UUID, ownerID uuid.UUID, title, content string) (*models.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	n := models.Note{
		ID:        uuid.New(),
		TenantID:  tenantID,
		OwnerID:   ownerID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.notes[n.ID] = n
	return &n, nil
}

func (r noteRepo) GetByID(_ context.Context, tenantID uuid.UUID, noteID uuid.UUID) (*models.Note, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n, ok := r.s.notes[noteID]
	if !ok || n.TenantID != tenantID {
		return nil, nil
	}
	return &n, nil
}

func (r noteRepo) ListByTenant(_ context.Context, tenantID uuid.UUID) ([]models.Note, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	notes := make([]models.Note, 0)
	for _, n := range r.s.notes {
		if n.TenantID == tenantID {
			notes = append(notes, n)
		}
	}
	sort.Slice(notes, func(i, j int) bool {
		return createdBefore(notes[j].CreatedAt, notes[j].ID, notes[i].CreatedAt, notes[i].ID)
	})
	return notes, nil
}

// createdBefore orders by creation time, then by id, matching the
// "created_at, id" ORDER BY the Postgres store uses.
func createdBefore(at time.Time, id uuid.UUID, otherAt time.Time, otherID uuid.UUID) bool {
	if !at.Equal(otherAt) {
		return at.Before(otherAt)
	}
	return bytes.Compare(id[:], otherID[:]) < 0
}

func (r noteRepo) Update(_ context.Context, tenantID uuid.UUID, noteID uuid.UUID, patch models.NotePatch) (*models.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notes[noteID]
	if !ok || n.TenantID != tenantID {
		return nil, nil
	}
	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Content != nil {
		n.Content = *patch.Content
	}
	n.UpdatedAt = r.s.now()
	r.s.notes[noteID] = n
	return &n, nil
}

func (r noteRepo) Delete(_ context.Context, tenantID uuid.UUID, noteID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notes[noteID]
	if !ok || n.TenantID != tenantID {
		return false, nil
	}
	delete(r.s.notes, noteID)
	return true, nil
}

// TenantCount reports how many tenants exist. Used to assert that a failed
// organization bootstrap left nothing behind.
func (s *Store) TenantCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tenants)
}
