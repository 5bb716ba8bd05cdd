package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	key, err := NewRandomSigningKey()
	require.NoError(t, err)
	return NewTokenService(key, 0)
}

func TestIssueAndExtract(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.Issue("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", token.Subject)
	assert.Equal(t, 36000*time.Second, token.ExpiresAt.Sub(token.IssuedAt))

	subject, err := svc.ExtractSubject(token.Value)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
	assert.True(t, svc.Verify(token.Value, "alice"))
	assert.False(t, svc.Verify(token.Value, "bob"))
}

func TestIssue_ClaimsAreStandard(t *testing.T) {
	svc := newTestTokenService(t)
	token, err := svc.Issue("alice")
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	parsed, _, err := jwt.NewParser().ParseUnverified(token.Value, claims)
	require.NoError(t, err)
	assert.Equal(t, "HS256", parsed.Header["alg"])
	assert.Equal(t, "alice", claims["sub"])

	iat, err := claims.GetIssuedAt()
	require.NoError(t, err)
	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Hour, exp.Sub(iat.Time))
}

func TestExtractSubject_Expired(t *testing.T) {
	svc := newTestTokenService(t)
	issued := time.Now().Add(-11 * time.Hour)
	svc.now = func() time.Time { return issued }
	token, err := svc.Issue("alice")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ExtractSubject(token.Value)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.False(t, svc.Verify(token.Value, "alice"))
}

func TestExtractSubject_StillValidJustBeforeExpiry(t *testing.T) {
	svc := newTestTokenService(t)
	issued := time.Now().Add(-9 * time.Hour)
	svc.now = func() time.Time { return issued }
	token, err := svc.Issue("alice")
	require.NoError(t, err)

	svc.now = time.Now
	subject, err := svc.ExtractSubject(token.Value)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestExtractSubject_Malformed(t *testing.T) {
	svc := newTestTokenService(t)
	for _, raw := range []string{"", "abc", "a.b", "not.a.jwt"} {
		_, err := svc.ExtractSubject(raw)
		assert.ErrorIs(t, err, ErrTokenMalformed, raw)
	}
}

func TestExtractSubject_KeyRotation(t *testing.T) {
	first := newTestTokenService(t)
	second := newTestTokenService(t)

	token, err := first.Issue("alice")
	require.NoError(t, err)

	_, err = second.ExtractSubject(token.Value)
	assert.ErrorIs(t, err, ErrTokenSignatureInvalid)
	assert.False(t, second.Verify(token.Value, "alice"))
}

func TestSigningKeyFromSecret(t *testing.T) {
	a := NewTokenService(SigningKeyFromSecret("shared-secret-shared-secret-0001"), time.Hour)
	b := NewTokenService(SigningKeyFromSecret("shared-secret-shared-secret-0001"), time.Hour)

	token, err := a.Issue("bob")
	require.NoError(t, err)
	assert.True(t, b.Verify(token.Value, "bob"))
	assert.Equal(t, time.Hour, a.TTL())
}

func TestNewRandomSigningKey_Unique(t *testing.T) {
	a, err := NewRandomSigningKey()
	require.NoError(t, err)
	b, err := NewRandomSigningKey()
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
