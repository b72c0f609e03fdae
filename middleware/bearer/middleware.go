package bearer

import (
	"net/http"
	"strings"

	"github.com/averix/identity/services/tokens"
	"github.com/labstack/echo/v4"
)

const (
	AccountIDKey = "_bearer_account_id"
	ClaimsKey    = "_bearer_claims"
)

// RequireToken guards a route with access-token authentication and attaches
// the verified claims to the echo context.
func RequireToken(issuer *tokens.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header required")
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Bearer token required")
			}

			claims, err := issuer.Verify(tokenString)
			if err != nil {
				switch err {
				case tokens.ErrExpiredToken:
					return echo.NewHTTPError(http.StatusUnauthorized, "Token has expired")
				case tokens.ErrMalformedToken:
					return echo.NewHTTPError(http.StatusUnauthorized, "Malformed token")
				case tokens.ErrInvalidSignature:
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token signature")
				default:
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
				}
			}

			c.Set(AccountIDKey, claims.AccountID())
			c.Set(ClaimsKey, claims)

			return next(c)
		}
	}
}

func GetAccountID(c echo.Context) string {
	if id, ok := c.Get(AccountIDKey).(string); ok {
		return id
	}
	return ""
}

func GetClaims(c echo.Context) *tokens.Claims {
	if claims, ok := c.Get(ClaimsKey).(*tokens.Claims); ok {
		return claims
	}
	return nil
}
