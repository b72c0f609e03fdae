package authn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/averix/identity/config"
	"github.com/averix/identity/services/codestore"
	"github.com/averix/identity/services/logging"
	"github.com/averix/identity/services/mailer"
	"github.com/averix/identity/services/tokens"
	"github.com/averix/identity/services/users"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrConflict             = errors.New("email already registered")
	ErrUnauthenticated      = errors.New("invalid credentials")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")
	ErrNotFound             = errors.New("account not found")
	ErrWeakPassword         = errors.New("password does not meet requirements")
)

// Non-committal acknowledgements; identical regardless of whether the email
// resolves to an account or the notification was actually delivered.
const (
	AckRegistered    = "registration accepted, check your email for a verification code"
	AckCodeRequested = "if the email is registered, a code has been sent"
)

type AccountStore interface {
	Create(ctx context.Context, account *users.Account) error
	FindByEmail(ctx context.Context, email string) (*users.Account, error)
	FindByID(ctx context.Context, id string) (*users.Account, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	MarkVerified(ctx context.Context, id string, at time.Time) error
}

type TokenIssuer interface {
	IssueAccess(account *users.Account) (string, error)
	IssueRefresh(account *users.Account) (string, error)
	Verify(tokenString string) (*tokens.Claims, error)
}

type Notifier interface {
	Dispatch(to string, kind mailer.TemplateKind, code string)
}

// LoginResult carries the freshly issued token pair and the public account
// projection. Which token is which is only known here; the wire format does
// not distinguish them.
type LoginResult struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	Account      users.Profile `json:"account"`
}

type Service struct {
	config     *config.Config
	bcryptCost int
	accounts   AccountStore
	codes      codestore.Store
	notifier   Notifier
	issuer     TokenIssuer
	logger     *logging.Service
}

func NewService(cfg *config.Config, accounts AccountStore, codes codestore.Store, notifier Notifier, issuer TokenIssuer, logger *logging.Service) *Service {
	// Clamped locally; the shared config stays as the caller set it.
	cost := cfg.Auth.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		config:     cfg,
		bcryptCost: cost,
		accounts:   accounts,
		codes:      codes,
		notifier:   notifier,
		issuer:     issuer,
		logger:     logger,
	}
}

func (s *Service) validatePassword(password string) error {
	if len(password) < s.config.Auth.MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, s.config.Auth.MinPasswordLength)
	}
	return nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// issueCode generates, stores and dispatches a one-time code. Storage is
// last-write-wins: a prior unconsumed code for the same purpose and email is
// silently superseded. Dispatch is fire-and-forget.
func (s *Service) issueCode(ctx context.Context, purpose codestore.Purpose, email string, kind mailer.TemplateKind) error {
	code, err := codestore.GenerateCode()
	if err != nil {
		return err
	}

	if err := s.codes.Set(ctx, codestore.Key(purpose, email), code, s.config.Auth.CodeTTL()); err != nil {
		return err
	}

	s.notifier.Dispatch(email, kind, code)

	if s.logger != nil {
		s.logger.Info("one-time code issued",
			zap.String("purpose", string(purpose)),
			zap.String("email", email))
	}
	return nil
}

// consumeCode checks the supplied code against the stored one and deletes it
// on success, as a single atomic step in the store: concurrent attempts with
// the same valid code see exactly one winner. Missing, expired, mismatched and
// already-consumed codes are deliberately indistinguishable to the caller.
func (s *Service) consumeCode(ctx context.Context, purpose codestore.Purpose, email, code string) error {
	consumed, err := s.codes.CompareAndDelete(ctx, codestore.Key(purpose, email), code)
	if err != nil {
		return err
	}
	if !consumed {
		if s.logger != nil {
			s.logger.Warn("one-time code rejected",
				zap.String("purpose", string(purpose)),
				zap.String("email", email))
		}
		return ErrInvalidOrExpiredCode
	}
	return nil
}

// Register creates an unverified account and kicks off email verification.
// Duplicate emails surface as ErrConflict; under two racing registrations the
// database uniqueness constraint picks exactly one winner.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (string, error) {
	if err := s.validatePassword(password); err != nil {
		return "", err
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return "", err
	}

	account := &users.Account{
		Email:       email,
		Password:    hash,
		DisplayName: displayName,
		Role:        users.RoleUser,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			return "", ErrConflict
		}
		return "", err
	}

	if err := s.issueCode(ctx, codestore.PurposeVerifyEmail, email, mailer.KindVerifyEmail); err != nil {
		return "", err
	}

	if s.logger != nil {
		s.logger.Info("account registered", zap.String("account_id", account.ID), zap.String("email", email))
	}
	return AckRegistered, nil
}

// VerifyEmail consumes an EMAIL_VERIFICATION code and marks the account
// verified. A repeat call after success fails with ErrInvalidOrExpiredCode,
// same as a code that never existed.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	if err := s.consumeCode(ctx, codestore.PurposeVerifyEmail, email, code); err != nil {
		return err
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrAccountNotFound) {
			return ErrInvalidOrExpiredCode
		}
		return err
	}

	if err := s.accounts.MarkVerified(ctx, account.ID, time.Now().UTC()); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("email verified", zap.String("account_id", account.ID), zap.String("email", email))
	}
	return nil
}

// ValidateCredentials looks up the account and checks the password as one
// logical step; callers cannot tell a missing account from a wrong password.
func (s *Service) ValidateCredentials(ctx context.Context, email, password string) (*users.Account, error) {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrAccountNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(password)); err != nil {
		if s.logger != nil {
			s.logger.Warn("credential check failed", zap.String("email", email))
		}
		return nil, ErrUnauthenticated
	}

	return account, nil
}

// Login issues an access/refresh token pair for a verified account. An
// unverified account is denied regardless of password correctness.
func (s *Service) Login(ctx context.Context, account *users.Account) (*LoginResult, error) {
	if !account.IsVerified {
		if s.logger != nil {
			s.logger.Warn("login denied: email not verified", zap.String("account_id", account.ID))
		}
		return nil, fmt.Errorf("%w: email not verified", ErrUnauthenticated)
	}

	access, err := s.issuer.IssueAccess(account)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issuer.IssueRefresh(account)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("login succeeded", zap.String("account_id", account.ID))
	}
	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		Account:      account.Profile(),
	}, nil
}

// ForgotPassword returns the same acknowledgement whether or not the email is
// registered, so the endpoint cannot be used to enumerate accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	if _, err := s.accounts.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, users.ErrAccountNotFound) {
			return AckCodeRequested, nil
		}
		return "", err
	}

	if err := s.issueCode(ctx, codestore.PurposeResetPassword, email, mailer.KindResetPassword); err != nil {
		return "", err
	}

	return AckCodeRequested, nil
}

// ResetPassword consumes a PASSWORD_RESET code and replaces the password hash
// with one computed under a fresh salt. Verification state is untouched.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if err := s.validatePassword(newPassword); err != nil {
		return err
	}

	if err := s.consumeCode(ctx, codestore.PurposeResetPassword, email, code); err != nil {
		return err
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrAccountNotFound) {
			return ErrInvalidOrExpiredCode
		}
		return err
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.accounts.UpdatePassword(ctx, account.ID, hash); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("password reset completed", zap.String("account_id", account.ID))
	}
	return nil
}

// RefreshToken exchanges a valid refresh token for a new pair. The account is
// re-read so tokens for deleted accounts stop working; the old refresh token
// is not revoked and stays usable until its own expiry.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.issuer.Verify(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnauthenticated, err)
	}

	account, err := s.accounts.FindByID(ctx, claims.AccountID())
	if err != nil {
		if errors.Is(err, users.ErrAccountNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return s.Login(ctx, account)
}
