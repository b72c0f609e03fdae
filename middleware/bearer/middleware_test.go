package bearer

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/averix/identity/services/tokens"
	"github.com/averix/identity/services/users"
	"github.com/averix/identity/testutils"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEcho(issuer *tokens.Service) *echo.Echo {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		return c.String(http.StatusOK, GetAccountID(c))
	}, RequireToken(issuer))
	return e
}

func doRequest(e *echo.Echo, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireToken(t *testing.T) {
	cfg := testutils.GetTestConfig()
	issuer := tokens.NewService(cfg, nil)
	e := setupEcho(issuer)

	account := &users.Account{ID: "acc-1", Email: "a@x.com", Role: users.RoleUser, IsVerified: true}

	t.Run("valid token passes and exposes claims", func(t *testing.T) {
		token, err := issuer.IssueAccess(account)
		require.NoError(t, err)

		rec := doRequest(e, "Bearer "+token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "acc-1", rec.Body.String())
	})

	t.Run("missing header rejected", func(t *testing.T) {
		rec := doRequest(e, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("non-bearer scheme rejected", func(t *testing.T) {
		rec := doRequest(e, "Basic abc")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		token, err := issuer.Issue(account, -time.Minute)
		require.NoError(t, err)

		rec := doRequest(e, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		rec := doRequest(e, "Bearer garbage")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGetClaims_Unset(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	assert.Nil(t, GetClaims(c))
	assert.Equal(t, "", GetAccountID(c))
}
