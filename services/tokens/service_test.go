package tokens

import (
	"testing"
	"time"

	"github.com/averix/identity/services/users"
	"github.com/averix/identity/testutils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAccount() *users.Account {
	return &users.Account{
		ID:         "acc-123",
		Email:      "a@example.com",
		Role:       users.RoleUser,
		IsVerified: true,
	}
}

func TestService_IssueAndVerify(t *testing.T) {
	cfg := testutils.GetTestConfig()
	service := NewService(cfg, nil)
	account := testAccount()

	tokenString, err := service.IssueAccess(account)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := service.Verify(tokenString)
	require.NoError(t, err)

	assert.Equal(t, "acc-123", claims.AccountID())
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
	assert.True(t, claims.IsVerified)
	require.NotNil(t, claims.IssuedAt)
	require.NotNil(t, claims.ExpiresAt)
}

func TestService_AccessAndRefreshExpiries(t *testing.T) {
	cfg := testutils.GetTestConfig()
	service := NewService(cfg, nil)
	account := testAccount()

	access, err := service.IssueAccess(account)
	require.NoError(t, err)
	refresh, err := service.IssueRefresh(account)
	require.NoError(t, err)

	accessClaims, err := service.Verify(access)
	require.NoError(t, err)
	refreshClaims, err := service.Verify(refresh)
	require.NoError(t, err)

	// Same claim shape, independently expiring.
	assert.Equal(t, accessClaims.AccountID(), refreshClaims.AccountID())
	assert.True(t, refreshClaims.ExpiresAt.After(accessClaims.ExpiresAt.Time))
}

func TestService_Verify_Failures(t *testing.T) {
	cfg := testutils.GetTestConfig()
	service := NewService(cfg, nil)
	account := testAccount()

	t.Run("expired token", func(t *testing.T) {
		tokenString, err := service.Issue(account, -time.Minute)
		require.NoError(t, err)

		_, err = service.Verify(tokenString)
		require.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := service.Verify("not-a-token")
		require.ErrorIs(t, err, ErrMalformedToken)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := testutils.GetTestConfig()
		other.JWT.SecretKey = "ffeeddccbbaa99887766554433221100"
		foreign, err := NewService(other, nil).IssueAccess(account)
		require.NoError(t, err)

		_, err = service.Verify(foreign)
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("none algorithm rejected", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "acc-123",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = service.Verify(unsigned)
		require.Error(t, err)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := service.Verify("")
		require.Error(t, err)
	})
}

func TestService_ClaimsAreSnapshot(t *testing.T) {
	cfg := testutils.GetTestConfig()
	service := NewService(cfg, nil)

	account := testAccount()
	account.IsVerified = false

	tokenString, err := service.IssueAccess(account)
	require.NoError(t, err)

	// Mutating the account after issuance does not change the claims.
	account.IsVerified = true

	claims, err := service.Verify(tokenString)
	require.NoError(t, err)
	assert.False(t, claims.IsVerified)
}
