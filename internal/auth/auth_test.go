package auth

import (
	"testing"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("s3cret", time.Hour)
	require.NoError(t, err)

	user := models.User{UserID: "7c1e8a52-5b8e-4bb5-9a55-2d3f4c1f7a10", Username: "alice", Role: models.RoleBidder}
	token, err := issuer.Generate(user)
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, user.UserID, claims.UserID)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, models.Actor{UserID: user.UserID, Role: models.RoleBidder}, claims.Actor())

	session := claims.Session()
	require.NotEmpty(t, session.TokenID)
	require.Equal(t, claims.ExpiresAt.Time, session.ExpiresAt)

	again, err := issuer.Generate(user)
	require.NoError(t, err)
	other, err := issuer.Parse(again)
	require.NoError(t, err)
	require.NotEqual(t, session.TokenID, other.ID)
}

func TestTokenIssuer_Revoke(t *testing.T) {
	issuer, err := NewTokenIssuer("s3cret", time.Hour)
	require.NoError(t, err)

	user := models.User{UserID: "u1", Username: "alice", Role: models.RoleBidder}
	revoked, err := issuer.Generate(user)
	require.NoError(t, err)
	kept, err := issuer.Generate(user)
	require.NoError(t, err)

	claims, err := issuer.Parse(revoked)
	require.NoError(t, err)
	require.NoError(t, issuer.Revoke(claims.ID, claims.ExpiresAt.Time))

	_, err = issuer.Parse(revoked)
	require.ErrorIs(t, err, auctionerrors.ErrUnauthorized)

	_, err = issuer.Parse(kept)
	require.NoError(t, err)

	require.ErrorIs(t, issuer.Revoke("", claims.ExpiresAt.Time), auctionerrors.ErrUnauthorized)
	// already expired tokens need no entry
	require.NoError(t, issuer.Revoke("stale", time.Now().Add(-time.Minute)))
	_, found := issuer.revoked.Get("stale")
	require.False(t, found)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer, err := NewTokenIssuer("s3cret", time.Hour)
	require.NoError(t, err)
	other, err := NewTokenIssuer("different", time.Hour)
	require.NoError(t, err)

	user := models.User{UserID: "u1", Username: "bob", Role: models.RoleStaff}
	foreign, err := other.Generate(user)
	require.NoError(t, err)

	expiredIssuer, err := NewTokenIssuer("s3cret", time.Minute)
	require.NoError(t, err)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, err := expiredIssuer.Generate(user)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1", Role: models.RoleAdministrator})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	anonymous := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "auction-house",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: "u1",
		Role:   models.RoleBidder,
	})
	withoutID, err := anonymous.SignedString([]byte("s3cret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.token"},
		{name: "wrong_secret", token: foreign},
		{name: "expired", token: expired},
		{name: "alg_none", token: unsigned},
		{name: "missing_token_id", token: withoutID},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := issuer.Parse(tc.token)
			require.ErrorIs(t, err, auctionerrors.ErrUnauthorized)
		})
	}
}

func TestNewTokenIssuer_Validation(t *testing.T) {
	_, err := NewTokenIssuer("", time.Hour)
	require.Error(t, err)

	_, err = NewTokenIssuer("secret", 0)
	require.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse", hash)

	require.NoError(t, CheckPassword(hash, "correct horse"))
	require.ErrorIs(t, CheckPassword(hash, "wrong horse"), auctionerrors.ErrInvalidCredentials)
	require.Error(t, CheckPassword("not-a-bcrypt-hash", "correct horse"))
}
