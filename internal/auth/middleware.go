package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/offset-service/internal/domain"
	"github.com/spec-kit/offset-service/internal/observability"
	apperrors "github.com/spec-kit/offset-service/pkg/util/errorutil"
)

const (
	identityKey  = "auth_identity"
	bearerPrefix = "Bearer "
)

// IdentityLoader resolves a token subject to a full identity.
type IdentityLoader interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// AuthMiddleware validates bearer tokens and installs the caller identity.
// Requests without a bearer token pass through unauthenticated; route guards decide.
type AuthMiddleware struct {
	tokens  *TokenService
	users   IdentityLoader
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenService, users IdentityLoader, logger *zap.Logger, metrics *observability.Metrics) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, users: users, logger: logger, metrics: metrics}
}

// Handle runs once per request before any protected handler.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return c.Next()
	}
	token := strings.TrimPrefix(authHeader, bearerPrefix)

	subject, err := m.tokens.ExtractSubject(token)
	if err != nil {
		m.metrics.RecordAuth(authOutcome(err))
		return tokenError(err)
	}

	if _, ok := IdentityFromContext(c); ok {
		return c.Next()
	}

	user, err := m.users.GetByUsername(c.UserContext(), subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			m.logger.Debug("token subject not found", zap.String("subject", subject))
			m.metrics.RecordAuth("unknown_subject")
			return c.Next()
		}
		return apperrors.NewInternalError(err)
	}

	if m.tokens.Verify(token, user.Username) {
		c.Locals(identityKey, user)
		m.metrics.RecordAuth("authenticated")
	} else {
		m.metrics.RecordAuth("rejected")
	}
	return c.Next()
}

// IdentityFromContext retrieves the authenticated identity, if any.
func IdentityFromContext(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok && user != nil
}

// SetIdentity installs an identity for the current request.
func SetIdentity(c *fiber.Ctx, user *domain.User) {
	c.Locals(identityKey, user)
}

func tokenError(err error) error {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return apperrors.NewTokenExpired()
	case errors.Is(err, ErrTokenSignatureInvalid):
		return apperrors.NewTokenSignatureInvalid()
	case errors.Is(err, ErrTokenMalformed):
		return apperrors.NewTokenMalformed()
	default:
		return apperrors.NewDomainError(apperrors.CodeTokenMalformed, "the JWT token is invalid", fiber.StatusBadRequest, nil)
	}
}

func authOutcome(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenSignatureInvalid):
		return "bad_signature"
	default:
		return "malformed"
	}
}
