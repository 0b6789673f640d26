package security

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/jwtauth/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordAndCheck(t *testing.T) {
	hash, err := HashPassword("p1")
	require.NoError(t, err)
	assert.NotEqual(t, "p1", hash)
	assert.True(t, CheckPasswordHash("p1", hash))
	assert.False(t, CheckPasswordHash("p2", hash))

	other, err := HashPassword("p1")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "hashes must be salted")
}

// verifyToken runs the same checks as the jwtauth.Verifier middleware.
func verifyToken(issuer *TokenIssuer, tokenString string) (Identity, error) {
	token, err := jwtauth.VerifyToken(issuer.JWTAuth(), tokenString)
	if err != nil {
		return Identity{}, err
	}
	claims, err := token.AsMap(context.Background())
	if err != nil {
		return Identity{}, err
	}
	return IdentityFromClaims(claims)
}

func TestGenerateAndVerifyToken(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"))

	token, err := issuer.GenerateToken(42)
	require.NoError(t, err)

	identity, err := verifyToken(issuer, token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), identity.UserID)
	assert.NotEmpty(t, identity.TokenID)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), identity.ExpiresAt, 5*time.Second)
	assert.Equal(t, 24*time.Hour, TokenTTL, "the validity window is not configurable")
}

func TestTokenValidityWindow(t *testing.T) {
	tests := []struct {
		name     string
		issuedAt time.Duration // how long ago the token was issued
		valid    bool
	}{
		{name: "fresh", issuedAt: 0, valid: true},
		{name: "one_minute_before_expiry", issuedAt: 23*time.Hour + 59*time.Minute, valid: true},
		{name: "one_minute_after_expiry", issuedAt: 24*time.Hour + time.Minute, valid: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issuer := NewTokenIssuer([]byte("test-secret"))
			issuer.now = func() time.Time { return time.Now().Add(-tt.issuedAt) }

			token, err := issuer.GenerateToken(1)
			require.NoError(t, err)

			_, err = verifyToken(issuer, token)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestVerifyRejectsTamperedAndForeignTokens(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"))
	token, err := issuer.GenerateToken(1)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	_, err = verifyToken(issuer, tampered)
	assert.Error(t, err)

	foreign := NewTokenIssuer([]byte("other-secret"))
	foreignToken, err := foreign.GenerateToken(1)
	require.NoError(t, err)
	_, err = verifyToken(issuer, foreignToken)
	assert.Error(t, err)

	_, err = verifyToken(issuer, "not-a-token")
	assert.Error(t, err)
}

func TestIdentityFromClaimsRejectsBadSubjects(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	_, err := IdentityFromClaims(map[string]interface{}{"jti": "x", "exp": exp})
	assert.Error(t, err)

	_, err = IdentityFromClaims(map[string]interface{}{"user_id": "abc", "jti": "x", "exp": exp})
	assert.Error(t, err)

	_, err = IdentityFromClaims(map[string]interface{}{"user_id": "5", "exp": exp})
	assert.Error(t, err)

	identity, err := IdentityFromClaims(map[string]interface{}{"user_id": "5", "jti": "x", "exp": float64(exp.Unix())})
	require.NoError(t, err)
	assert.Equal(t, int64(5), identity.UserID)
}

func TestSharedSecretPolicy(t *testing.T) {
	policy := NewSharedSecretPolicy("simon is king")
	assert.True(t, policy.Permits("simon is king"))
	assert.False(t, policy.Permits("simon is kin"))
	assert.False(t, policy.Permits(""))

	disabled := NewSharedSecretPolicy("")
	assert.False(t, disabled.Permits(""))
	assert.False(t, disabled.Permits("anything"))
}

func TestMemoryTokenRevoker(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryTokenRevoker()
	now := time.Now()
	r.now = func() time.Time { return now }

	require.NoError(t, r.Revoke(ctx, "jti-1", time.Minute))
	require.NoError(t, r.Revoke(ctx, "jti-2", 0))

	revoked, err := r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = r.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked, "non-positive ttl is a no-op")

	now = now.Add(2 * time.Minute)
	revoked, err = r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "entries expire with the token")
}

func TestMemoryTokenRevokerSweep(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryTokenRevoker()
	now := time.Now()
	r.now = func() time.Time { return now }

	require.NoError(t, r.Revoke(ctx, "short", time.Minute))
	require.NoError(t, r.Revoke(ctx, "long", time.Hour))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 0, r.Sweep())

	revoked, err := r.IsRevoked(ctx, "long")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRedisTokenRevoker(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	r := NewRedisTokenRevoker(client)

	require.NoError(t, r.Revoke(ctx, "jti-1", time.Minute))

	revoked, err := r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = r.IsRevoked(ctx, "jti-unknown")
	require.NoError(t, err)
	assert.False(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}
