package security

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	claimUserID  = "user_id"
	claimTokenID = "jti"
	claimExpiry  = "exp"
)

// TokenTTL is the fixed validity window of an access token.
const TokenTTL = 24 * time.Hour

// Identity is what a verified bearer token proves about the caller.
type Identity struct {
	UserID    int64
	TokenID   string
	ExpiresAt time.Time
}

// TokenIssuer signs HS256 access tokens. Verification happens in the
// jwtauth.Verifier middleware built from JWTAuth.
type TokenIssuer struct {
	auth *jwtauth.JWTAuth
	now  func() time.Time
}

func NewTokenIssuer(key []byte) *TokenIssuer {
	return &TokenIssuer{
		auth: jwtauth.New("HS256", key, nil),
		now:  time.Now,
	}
}

// JWTAuth exposes the verifier configuration for jwtauth.Verifier.
func (i *TokenIssuer) JWTAuth() *jwtauth.JWTAuth {
	return i.auth
}

func (i *TokenIssuer) GenerateToken(userID int64) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		claimUserID:  strconv.FormatInt(userID, 10),
		claimTokenID: uuid.NewString(),
	}
	jwtauth.SetIssuedAt(claims, now)
	jwtauth.SetExpiry(claims, now.Add(TokenTTL))
	_, tokenString, err := i.auth.Encode(claims)
	return tokenString, err
}

// IdentityFromClaims extracts the caller identity from verified token claims.
func IdentityFromClaims(claims jwt.MapClaims) (Identity, error) {
	raw, ok := claims[claimUserID].(string)
	if !ok {
		return Identity{}, errors.New("user_id claim is missing or not a string")
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return Identity{}, errors.New("user_id claim is not a valid identifier")
	}
	tokenID, ok := claims[claimTokenID].(string)
	if !ok || tokenID == "" {
		return Identity{}, errors.New("jti claim is missing or not a string")
	}

	var expiresAt time.Time
	switch exp := claims[claimExpiry].(type) {
	case time.Time:
		expiresAt = exp
	case float64:
		expiresAt = time.Unix(int64(exp), 0)
	case int64:
		expiresAt = time.Unix(exp, 0)
	default:
		return Identity{}, errors.New("exp claim is missing")
	}

	return Identity{UserID: userID, TokenID: tokenID, ExpiresAt: expiresAt.UTC()}, nil
}
