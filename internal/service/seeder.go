package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/offset-service/internal/auth"
	"github.com/spec-kit/offset-service/internal/domain"
	"github.com/spec-kit/offset-service/internal/repository"
)

type seedOffset struct {
	label, city, offset string
}

type seedUser struct {
	username, email, password string
	roles                     []string
	offsets                   []seedOffset
}

func demoUsers() []seedUser {
	users := []seedUser{
		{"admin", "admin@example.com", "admin", []string{domain.RoleAdmin}, []seedOffset{
			{"UTC", "London", "+00:00"},
		}},
		{"user", "user@example.com", "user", []string{domain.RoleUser}, []seedOffset{
			{"Eastern Time", "New York", "-05:00"},
			{"Central European Time", "Paris", "+01:00"},
		}},
		{"john_doe", "john.doe@example.com", "password123", []string{domain.RoleUser}, []seedOffset{
			{"Pacific Time", "Los Angeles", "-08:00"},
			{"Mountain Time", "Denver", "-07:00"},
			{"Eastern Time", "New York", "-05:00"},
		}},
		{"jane_doe", "jane.doe@example.com", "password456", []string{domain.RoleAdmin, domain.RoleUser}, []seedOffset{
			{"Greenwich Mean Time", "London", "+00:00"},
			{"Central Standard Time", "Chicago", "-06:00"},
			{"China Standard Time", "Beijing", "+08:00"},
		}},
	}
	for i := 5; i <= 10; i++ {
		users = append(users, seedUser{
			username: fmt.Sprintf("user%d", i),
			email:    fmt.Sprintf("user%d@example.com", i),
			password: fmt.Sprintf("password%d", i),
			roles:    []string{domain.RoleUser},
			offsets: []seedOffset{
				{"UTC", "London", "+00:00"},
				{"Central European Time", "Berlin", "+01:00"},
				{"Eastern Time", "New York", "-05:00"},
			},
		})
	}
	return users
}

// Seeder populates demo users and offsets. Users that already exist are skipped.
type Seeder struct {
	users      repository.UserRepository
	offsets    repository.OffsetRepository
	bcryptCost int
	logger     *zap.Logger
}

// NewSeeder builds a seeder.
func NewSeeder(users repository.UserRepository, offsets repository.OffsetRepository, bcryptCost int, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{users: users, offsets: offsets, bcryptCost: bcryptCost, logger: logger}
}

// Seed inserts the demo data and returns how many users were created.
func (s *Seeder) Seed(ctx context.Context) (int, error) {
	created := 0
	for _, su := range demoUsers() {
		_, err := s.users.GetByUsername(ctx, su.username)
		if err == nil {
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return created, err
		}

		hash, err := auth.HashPassword(su.password, s.bcryptCost)
		if err != nil {
			return created, err
		}
		user := &domain.User{Username: su.username, Email: su.email, PasswordHash: hash}
		for _, r := range su.roles {
			user.Roles = append(user.Roles, domain.Role{Name: r})
		}
		if err := s.users.Create(ctx, user); err != nil {
			return created, fmt.Errorf("seed user %s: %w", su.username, err)
		}
		for _, so := range su.offsets {
			record := &domain.NamedOffset{Label: so.label, City: so.city, Offset: so.offset, OwnerID: user.ID}
			if err := s.offsets.Create(ctx, record); err != nil {
				return created, fmt.Errorf("seed offset %s for %s: %w", so.label, su.username, err)
			}
		}
		created++
	}
	s.logger.Info("demo data seeded", zap.Int("users_created", created))
	return created, nil
}
