package auth

import (
	"errors"
	"fmt"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const issuer = "auction-house"

// Claims are the bearer token contents identifying the caller
type Claims struct {
	jwt.RegisteredClaims
	UserID   string      `json:"user_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// Actor returns the caller the token was issued to
func (c Claims) Actor() models.Actor {
	return models.Actor{UserID: c.UserID, Role: c.Role}
}

// Session returns the token identity used for logout
func (c Claims) Session() models.Session {
	s := models.Session{TokenID: c.ID}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s
}

// TokenIssuer signs and verifies HS256 bearer tokens.
// Revoked token IDs are remembered in process until the token would have expired.
type TokenIssuer struct {
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
	revoked *cache.Cache
}

// NewTokenIssuer creates a TokenIssuer; tokens expire ttl after issue
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("auth: empty signing secret")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("auth: non-positive token ttl %s", ttl)
	}
	return &TokenIssuer{
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
		revoked: cache.New(cache.NoExpiration, ttl),
	}, nil
}

// Generate issues a token for user
func (ti *TokenIssuer) Generate(user models.User) (string, error) {
	now := ti.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   user.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
		UserID:   user.UserID,
		Username: user.Username,
		Role:     user.Role,
	})

	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies tokenString and returns its claims.
// Every failure is reported as ErrUnauthorized.
func (ti *TokenIssuer) Parse(tokenString string) (Claims, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ti.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("auth: %w - %v", auctionerrors.ErrUnauthorized, err)
	}
	if !token.Valid || claims.ID == "" || claims.UserID == "" || !claims.Role.Valid() {
		return Claims{}, fmt.Errorf("auth: %w - invalid token claims", auctionerrors.ErrUnauthorized)
	}
	if _, revoked := ti.revoked.Get(claims.ID); revoked {
		return Claims{}, fmt.Errorf("auth: %w - token revoked", auctionerrors.ErrUnauthorized)
	}
	return claims, nil
}

// Revoke rejects the token with tokenID from now on. The entry is kept
// until expiresAt, after which Parse refuses the token anyway.
func (ti *TokenIssuer) Revoke(tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return fmt.Errorf("auth: %w - missing token id", auctionerrors.ErrUnauthorized)
	}
	ttl := expiresAt.Sub(ti.now())
	if ttl <= 0 {
		return nil
	}
	ti.revoked.Set(tokenID, struct{}{}, ttl)
	return nil
}
