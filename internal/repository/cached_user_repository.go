package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/offset-service/internal/domain"
)

const identityKeyPrefix = "identity:username:"

// CachedUserRepository serves GetByUsername from Redis when possible. Any Redis
// failure falls back to the wrapped repository, so the cache is never authoritative.
type CachedUserRepository struct {
	UserRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedUserRepository wraps next. A nil client disables caching.
func NewCachedUserRepository(next UserRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedUserRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedUserRepository{UserRepository: next, client: client, ttl: ttl, logger: logger}
}

func identityKey(username string) string {
	return identityKeyPrefix + username
}

func (r *CachedUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if r.client == nil {
		return r.UserRepository.GetByUsername(ctx, username)
	}

	raw, err := r.client.Get(ctx, identityKey(username)).Bytes()
	switch {
	case err == nil:
		var user domain.User
		if err := json.Unmarshal(raw, &user); err == nil {
			return &user, nil
		}
		r.logger.Warn("discarding unreadable identity cache entry", zap.String("username", username))
	case !errors.Is(err, redis.Nil):
		r.logger.Debug("identity cache read failed", zap.Error(err))
	}

	user, err := r.UserRepository.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	r.store(ctx, user)
	return user, nil
}

func (r *CachedUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := r.UserRepository.Create(ctx, user); err != nil {
		return err
	}
	r.evict(ctx, user.Username)
	return nil
}

func (r *CachedUserRepository) UpdateLastLogin(ctx context.Context, user *domain.User) error {
	if err := r.UserRepository.UpdateLastLogin(ctx, user); err != nil {
		return err
	}
	r.evict(ctx, user.Username)
	return nil
}

func (r *CachedUserRepository) store(ctx context.Context, user *domain.User) {
	if r.client == nil {
		return
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, identityKey(user.Username), raw, r.ttl).Err(); err != nil {
		r.logger.Debug("identity cache write failed", zap.Error(err))
	}
}

func (r *CachedUserRepository) evict(ctx context.Context, username string) {
	if r.client == nil {
		return
	}
	if err := r.client.Del(ctx, identityKey(username)).Err(); err != nil {
		r.logger.Debug("identity cache evict failed", zap.Error(err))
	}
}
