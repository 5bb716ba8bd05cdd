package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/offset-service/internal/domain"
)

// DefaultTokenTTL is the validity window of issued tokens.
const DefaultTokenTTL = 10 * time.Hour

// signingKeySize is 256 bits, matching HS256.
const signingKeySize = 32

var (
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenInvalid          = errors.New("token invalid")
)

// SigningKey is the symmetric HMAC key held for the process lifetime. Replacing it
// invalidates every token signed with the previous key.
type SigningKey []byte

// NewRandomSigningKey generates a fresh 256-bit key.
func NewRandomSigningKey() (SigningKey, error) {
	key := make([]byte, signingKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	return key, nil
}

// SigningKeyFromSecret uses a configured secret as the key.
func SigningKeyFromSecret(secret string) SigningKey {
	return SigningKey(secret)
}

// TokenService issues and validates HS256 JWTs carrying sub, iat and exp.
type TokenService struct {
	key SigningKey
	ttl time.Duration
	now func() time.Time
}

// NewTokenService builds a new service.
func NewTokenService(key SigningKey, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{key: key, ttl: ttl, now: time.Now}
}

// TTL returns the validity window applied to issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue builds and signs a token for subject.
func (s *TokenService) Issue(subject string) (domain.Token, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.key))
	if err != nil {
		return domain.Token{}, err
	}
	return domain.Token{
		Value:     signed,
		Subject:   subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// ExtractSubject validates the token and returns its subject.
func (s *TokenService) ExtractSubject(token string) (string, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Verify reports whether token is correctly signed, unexpired and issued to expectedSubject.
func (s *TokenService) Verify(token, expectedSubject string) bool {
	claims, err := s.parse(token)
	if err != nil {
		return false
	}
	return claims.Subject == expectedSubject
}

func (s *TokenService) parse(tokenStr string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	keyFunc := func(*jwt.Token) (interface{}, error) {
		return []byte(s.key), nil
	}
	_, err := jwt.ParseWithClaims(tokenStr, claims, keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, classifyTokenError(err)
	}
	return claims, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrTokenSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}
