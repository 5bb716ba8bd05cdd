package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/spec-kit/offset-service/internal/domain"
	"github.com/spec-kit/offset-service/internal/repository/memory"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return userResult(m.Called(ctx, id))
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return userResult(m.Called(ctx, username))
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return userResult(m.Called(ctx, email))
}

func userResult(args mock.Arguments) (*domain.User, error) {
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func newMemOffsetRepo(records ...domain.NamedOffset) *memory.OffsetRepository {
	r := memory.NewOffsetRepository()
	for _, rec := range records {
		rec := rec
		_ = r.Create(context.Background(), &rec)
	}
	return r
}

var (
	alice = &domain.User{ID: "u-alice", Username: "alice", Roles: []domain.Role{{Name: domain.RoleUser}}}
	bob   = &domain.User{ID: "u-bob", Username: "bob", Roles: []domain.Role{{Name: domain.RoleUser}}}
)
