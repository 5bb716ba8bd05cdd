package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/offset-service/internal/auth"
	"github.com/spec-kit/offset-service/internal/config"
	"github.com/spec-kit/offset-service/internal/domain"
	"github.com/spec-kit/offset-service/internal/events"
	"github.com/spec-kit/offset-service/internal/repository"
	apperrors "github.com/spec-kit/offset-service/pkg/util/errorutil"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Tokens     *auth.TokenService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// AuthResult is returned by successful register and login calls.
type AuthResult struct {
	User  *domain.User
	Token domain.Token
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
		now:        time.Now,
	}
}

// Register creates a USER account. Username is checked before email and nothing is
// written when either is taken.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	if err := s.ensureAbsent(ctx, s.users.GetByUsername, username, "Username"); err != nil {
		return nil, err
	}
	if err := s.ensureAbsent(ctx, s.users.GetByEmail, email, "Email"); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Roles:        []domain.Role{{Name: domain.RoleUser}},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// lost a race with a concurrent registration
			return nil, apperrors.NewDuplicateIdentity("Username or email already exists")
		}
		return nil, err
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventUserRegistered,
		ResourceID: user.ID,
		Actor:      user.Username,
		Payload: events.UserRegisteredPayload{
			Username: user.Username,
			Roles:    user.Authorities(),
		},
	})
	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials, stamps last-login and issues a token. Unknown users
// and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	now := s.now()
	user.LastLogin = &now
	if err := s.users.UpdateLastLogin(ctx, user); err != nil {
		s.logger.Warn("failed to record last login", zap.String("username", username), zap.Error(err))
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Profile reloads the caller from the store.
func (s *AuthService) Profile(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"username": username})
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) ensureAbsent(ctx context.Context, lookup func(context.Context, string) (*domain.User, error), value, field string) error {
	_, err := lookup(ctx, value)
	switch {
	case err == nil:
		return apperrors.NewDuplicateIdentity(fmt.Sprintf("%s %s already exists", field, value))
	case errors.Is(err, pgx.ErrNoRows):
		return nil
	default:
		return err
	}
}

func (s *AuthService) publishEvent(ctx context.Context, event events.Event) {
	publish(ctx, s.dispatcher, s.logger, event)
}

func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
