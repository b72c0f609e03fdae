package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/averix/identity/config"
	"github.com/averix/identity/services/logging"
	"github.com/averix/identity/services/users"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
)

// Claims is the wire shape shared by access and refresh tokens. There is no
// type discriminator; which TTL produced a token is tracked by the caller.
type Claims struct {
	Email      string `json:"email"`
	Role       string `json:"role"`
	IsVerified bool   `json:"isVerified"`
	jwt.RegisteredClaims
}

func (c *Claims) AccountID() string {
	return c.Subject
}

type Service struct {
	config *config.Config
	logger *logging.Service
}

func NewService(cfg *config.Config, logger *logging.Service) *Service {
	return &Service{
		config: cfg,
		logger: logger,
	}
}

func (s *Service) AccessExpiry() time.Duration {
	return s.config.JWT.AccessExpiry
}

func (s *Service) RefreshExpiry() time.Duration {
	return s.config.JWT.RefreshExpiry
}

// Issue signs a token whose claims snapshot the account at issuance time.
func (s *Service) Issue(account *users.Account, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:      account.Email,
		Role:       string(account.Role),
		IsVerified: account.IsVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.JWT.SecretKey))
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to sign token", zap.Error(err))
		}
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func (s *Service) IssueAccess(account *users.Account) (string, error) {
	return s.Issue(account, s.config.JWT.AccessExpiry)
}

func (s *Service) IssueRefresh(account *users.Account) (string, error) {
	return s.Issue(account, s.config.JWT.RefreshExpiry)
}

// Verify parses and validates a token, failing closed on any structural or
// signature problem. Expiry is checked by the parser.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() == "none" {
			return nil, errors.New("'none' algorithm is not allowed")
		}
		if token.Method.Alg() != "HS256" {
			return nil, fmt.Errorf("unexpected algorithm: expected HS256, got %s", token.Method.Alg())
		}
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid algorithm family: %v", token.Header["alg"])
		}
		return []byte(s.config.JWT.SecretKey), nil
	})

	if err != nil {
		if s.logger != nil {
			s.logger.Warn("token validation failed", zap.Error(err))
		}

		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrInvalidToken
		}
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
