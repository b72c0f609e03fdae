package users

import (
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type Account struct {
	ID          string     `json:"id" gorm:"primaryKey;size:36"`
	Email       string     `json:"email" gorm:"uniqueIndex;not null"`
	Password    string     `json:"-" gorm:"not null"`
	DisplayName string     `json:"display_name"`
	Role        Role       `json:"role" gorm:"not null;default:user"`
	IsVerified  bool       `json:"is_verified" gorm:"not null;default:false"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

// Profile is the outward projection of an account; it never carries the
// password hash.
type Profile struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
	IsVerified  bool   `json:"is_verified"`
}

func (a *Account) Profile() Profile {
	return Profile{
		ID:          a.ID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		Role:        a.Role,
		IsVerified:  a.IsVerified,
	}
}
