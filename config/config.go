package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig      `envPrefix:"IDENTITY_APP_"`
	Server   ServerConfig   `envPrefix:"IDENTITY_SERVER_"`
	Log      LogConfig      `envPrefix:"IDENTITY_LOG_"`
	Database DatabaseConfig `envPrefix:"IDENTITY_DATABASE_"`
	Redis    RedisConfig    `envPrefix:"IDENTITY_REDIS_"`
	Auth     AuthConfig     `envPrefix:"IDENTITY_AUTH_"`
	JWT      JWTConfig      `envPrefix:"IDENTITY_JWT_"`
	Mail     MailConfig     `envPrefix:"IDENTITY_MAIL_"`
}

type AppConfig struct {
	Name string `env:"NAME" envDefault:"identity"`
	URL  string `env:"URL" envDefault:"http://localhost:8080"`
}

type ServerConfig struct {
	Host string `env:"HOST" envDefault:"localhost"`
	Port string `env:"PORT" envDefault:"8080"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN" envDefault:"identity.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

type RedisConfig struct {
	Enabled  bool   `env:"ENABLED" envDefault:"false"`
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB" envDefault:"0"`
}

type AuthConfig struct {
	// BcryptCost is clamped into the range the bcrypt package accepts at
	// service construction rather than surfaced as a load error.
	BcryptCost        int           `env:"BCRYPT_COST" envDefault:"12"`
	MinPasswordLength int           `env:"MIN_PASSWORD_LENGTH" envDefault:"8"`
	CodeTTLSeconds    int           `env:"CODE_TTL_SECONDS" envDefault:"600"`
	MailQueueSize     int           `env:"MAIL_QUEUE_SIZE" envDefault:"64"`
	MailWorkers       int           `env:"MAIL_WORKERS" envDefault:"2"`
	MailSendTimeout   time.Duration `env:"MAIL_SEND_TIMEOUT" envDefault:"15s"`
}

func (c AuthConfig) CodeTTL() time.Duration {
	return time.Duration(c.CodeTTLSeconds) * time.Second
}

type JWTConfig struct {
	SecretKey     string        `env:"SECRET_KEY"`
	AccessExpiry  time.Duration `env:"ACCESS_EXPIRY" envDefault:"15m"`
	RefreshExpiry time.Duration `env:"REFRESH_EXPIRY" envDefault:"168h"`
}

type MailConfig struct {
	Host        string `env:"HOST" envDefault:"localhost"`
	Port        int    `env:"PORT" envDefault:"587"`
	Username    string `env:"USERNAME" envDefault:""`
	Password    string `env:"PASSWORD" envDefault:""`
	Encryption  string `env:"ENCRYPTION" envDefault:"starttls"`
	FromAddress string `env:"FROM_ADDRESS" envDefault:""`
	FromName    string `env:"FROM_NAME" envDefault:""`
}

func LoadConfig(cfg *Config) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	if err := env.Parse(cfg); err != nil {
		return err
	}

	return Validate(cfg)
}

func Validate(cfg *Config) error {
	if err := validateJWTConfig(&cfg.JWT); err != nil {
		return err
	}

	if cfg.Auth.CodeTTLSeconds <= 0 {
		return fmt.Errorf("code TTL must be positive, got %d", cfg.Auth.CodeTTLSeconds)
	}

	if cfg.JWT.AccessExpiry >= cfg.JWT.RefreshExpiry {
		return fmt.Errorf("access token expiry must be shorter than refresh token expiry")
	}

	return nil
}

var weakSecretPatterns = []string{"password", "secret", "test", "example", "default", "change"}

func validateJWTConfig(cfg *JWTConfig) error {
	if len(cfg.SecretKey) < 32 {
		return fmt.Errorf("JWT secret key must be at least 32 characters long")
	}

	lowered := strings.ToLower(cfg.SecretKey)
	for _, pattern := range weakSecretPatterns {
		if strings.Contains(lowered, pattern) {
			return fmt.Errorf("JWT secret key contains weak patterns (%q)", pattern)
		}
	}

	return nil
}
