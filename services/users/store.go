package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/averix/identity/services/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrDuplicateEmail  = errors.New("email already registered")
)

type Store struct {
	db     *gorm.DB
	logger *logging.Service
}

func NewStore(db *gorm.DB, logger *logging.Service) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new account, assigning its ID. Uniqueness of the email is
// enforced by the database; a violation surfaces as ErrDuplicateEmail so two
// racing creates resolve with exactly one winner.
func (s *Store) Create(ctx context.Context, account *Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.Role == "" {
		account.Role = RoleUser
	}

	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if s.logger != nil {
				s.logger.Warn("account creation rejected: duplicate email", zap.String("email", account.Email))
			}
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("account created", zap.String("account_id", account.ID), zap.String("email", account.Email))
	}
	return nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*Account, error) {
	var account Account
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to find account by email: %w", err)
	}
	return &account, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*Account, error) {
	var account Account
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to find account by id: %w", err)
	}
	return &account, nil
}

func (s *Store) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	result := s.db.WithContext(ctx).Model(&Account{}).Where("id = ?", id).Update("password", passwordHash)
	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}

	if s.logger != nil {
		s.logger.Info("account password updated", zap.String("account_id", id))
	}
	return nil
}

// MarkVerified flips is_verified and verified_at in one update. The
// transition is monotonic; repeating it leaves the original timestamp alone.
func (s *Store) MarkVerified(ctx context.Context, id string, at time.Time) error {
	result := s.db.WithContext(ctx).Model(&Account{}).
		Where("id = ? AND is_verified = ?", id, false).
		Updates(map[string]any{"is_verified": true, "verified_at": at})
	if result.Error != nil {
		return fmt.Errorf("failed to mark account verified: %w", result.Error)
	}

	if s.logger != nil && result.RowsAffected > 0 {
		s.logger.Info("account marked verified", zap.String("account_id", id), zap.Time("verified_at", at))
	}
	return nil
}
