package testutils

import (
	"time"

	"github.com/averix/identity/config"
	"golang.org/x/crypto/bcrypt"
)

func GetTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name: "identity-test",
			URL:  "http://localhost:8080",
		},
		Auth: config.AuthConfig{
			BcryptCost:        bcrypt.MinCost,
			MinPasswordLength: 8,
			CodeTTLSeconds:    600,
			MailQueueSize:     16,
			MailWorkers:       1,
			MailSendTimeout:   time.Second,
		},
		JWT: config.JWTConfig{
			SecretKey:     "0f1e2d3c4b5a69788796a5b4c3d2e1f0",
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
		},
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			DSN:    ":memory:",
		},
	}
}
