// Package memory provides process-local repositories used when no Postgres DSN is
// configured. Data does not survive a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/offset-service/internal/domain"
	"github.com/spec-kit/offset-service/internal/repository"
)

var roleIDs = map[string]int64{
	domain.RoleAdmin: 1,
	domain.RoleUser:  2,
}

// UserRepository is an in-memory repository.UserRepository.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewUserRepository returns an empty store.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: map[string]domain.User{}}
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	for i := range user.Roles {
		user.Roles[i].ID = roleIDs[user.Roles[i].Name]
	}
	user.CreatedAt = time.Now().UTC()
	r.users[user.ID] = cloneUser(*user)
	return nil
}

func (r *UserRepository) UpdateLastLogin(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if user.LastLogin != nil {
		at := *user.LastLogin
		stored.LastLogin = &at
	}
	r.users[user.ID] = stored
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.ID == id })
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == username })
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Email == email })
}

func (r *UserRepository) find(match func(domain.User) bool) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func cloneUser(u domain.User) domain.User {
	u.Roles = append([]domain.Role(nil), u.Roles...)
	if u.LastLogin != nil {
		at := *u.LastLogin
		u.LastLogin = &at
	}
	return u
}

// OffsetRepository is an in-memory repository.OffsetRepository. Records keep
// insertion order so label lookups resolve to the oldest match.
type OffsetRepository struct {
	mu      sync.RWMutex
	seq     int64
	records map[string]storedOffset
}

type storedOffset struct {
	domain.NamedOffset
	seq int64
}

// NewOffsetRepository returns an empty store.
func NewOffsetRepository() *OffsetRepository {
	return &OffsetRepository{records: map[string]storedOffset{}}
}

var _ repository.OffsetRepository = (*OffsetRepository)(nil)

func (r *OffsetRepository) Create(_ context.Context, offset *domain.NamedOffset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if offset.ID == "" {
		offset.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	offset.CreatedAt, offset.UpdatedAt = now, now
	r.seq++
	r.records[offset.ID] = storedOffset{NamedOffset: *offset, seq: r.seq}
	return nil
}

func (r *OffsetRepository) Update(_ context.Context, offset *domain.NamedOffset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.records[offset.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Label, stored.City, stored.Offset = offset.Label, offset.City, offset.Offset
	stored.UpdatedAt = time.Now().UTC()
	offset.UpdatedAt = stored.UpdatedAt
	r.records[offset.ID] = stored
	return nil
}

func (r *OffsetRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.records, id)
	return nil
}

func (r *OffsetRepository) GetByID(_ context.Context, id string) (*domain.NamedOffset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.records[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := stored.NamedOffset
	return &out, nil
}

func (r *OffsetRepository) FindByLabelAndOwner(_ context.Context, label, ownerID string) (*domain.NamedOffset, error) {
	for _, rec := range r.ordered(ownerID) {
		if rec.Label == label {
			rec := rec
			return &rec, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *OffsetRepository) ListByOwner(_ context.Context, ownerID string) ([]domain.NamedOffset, error) {
	return r.ordered(ownerID), nil
}

func (r *OffsetRepository) ordered(ownerID string) []domain.NamedOffset {
	r.mu.RLock()
	matches := make([]storedOffset, 0)
	for _, rec := range r.records {
		if rec.OwnerID == ownerID {
			matches = append(matches, rec)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool { return matches[i].seq < matches[j].seq })
	out := make([]domain.NamedOffset, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.NamedOffset)
	}
	return out
}
