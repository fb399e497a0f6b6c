// Package config loads the service configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then environment
// variables (which may come from a .env file loaded by LoadEnvFile).
package config

import (
	"fmt"
	"os"
	"strconv"

	"NotesWebService/models"

	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port      string          `yaml:"port" validate:"required,numeric"`
	LogLevel  string          `yaml:"log_level" validate:"oneof=trace debug info warn warning error fatal panic"`
	SecretKey string          `yaml:"secret_key" validate:"required"`
	Database  DatabaseConfig  `yaml:"database"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Accounts  []Account       `yaml:"accounts" validate:"dive"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver" validate:"oneof=mysql sqlite3"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Address  string `yaml:"address"`
	Name     string `yaml:"name"`
	Path     string `yaml:"path" validate:"required_if=Driver sqlite3"`
}

type RateLimitConfig struct {
	Rate          float64 `yaml:"rate" validate:"gt=0"`
	Burst         int     `yaml:"burst" validate:"gt=0"`
	LoginRate     float64 `yaml:"login_rate" validate:"gt=0"`
	LoginCapacity int64   `yaml:"login_capacity" validate:"gt=0"`
}

// Account is a user allowed to sign in.
// AccountId defaults to the username when left empty.
type Account struct {
	Username  string `yaml:"username" validate:"required"`
	Password  string `yaml:"password" validate:"required"`
	Role      string `yaml:"role" validate:"oneof=user admin"`
	AccountId string `yaml:"account_id"`
}

// DefaultConfig returns the configuration used when nothing else is set.
func DefaultConfig() *Config {
	return &Config{
		Port:     "8080",
		LogLevel: "info",
		Database: DatabaseConfig{
			Driver:  "mysql",
			Address: "127.0.0.1:3307",
			Name:    "taskdb",
			Path:    "notes.db",
		},
		RateLimit: RateLimitConfig{
			Rate:          2,
			Burst:         20,
			LoginRate:     1,
			LoginCapacity: 5,
		},
	}
}

// LoadEnvFile loads variables from a .env file into the process environment.
// Variables already set in the environment are kept.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	return godotenv.Load(path)
}

// Load builds the configuration from defaults, the YAML file at path (if not empty)
// and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	for i := range cfg.Accounts {
		if cfg.Accounts[i].AccountId == "" {
			cfg.Accounts[i].AccountId = cfg.Accounts[i].Username
		}
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setString("PORT", &c.Port)
	setString("LOG_LEVEL", &c.LogLevel)
	setString("SECRET_KEY", &c.SecretKey)
	setString("DB_DRIVER", &c.Database.Driver)
	setString("DB_USERNAME", &c.Database.Username)
	setString("DB_PASSWORD", &c.Database.Password)
	setString("DB_ADDRESS", &c.Database.Address)
	setString("DB_NAME", &c.Database.Name)
	setString("DB_PATH", &c.Database.Path)

	if v, ok := os.LookupEnv("RATE_LIMIT"); ok {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("failed to parse RATE_LIMIT: %w", err)
		}
		c.RateLimit.Rate = rate
	}
	if v, ok := os.LookupEnv("RATE_BURST"); ok {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("failed to parse RATE_BURST: %w", err)
		}
		c.RateLimit.Burst = burst
	}

	envAccounts := []struct {
		userKey, passKey, role string
	}{
		{"USER_USERNAME_NORMAL", "USER_PASSWORD_NORMAL", models.RoleUser},
		{"USER_USERNAME_ADMIN", "USER_PASSWORD_ADMIN", models.RoleAdmin},
	}
	for _, ea := range envAccounts {
		username, password := os.Getenv(ea.userKey), os.Getenv(ea.passKey)
		if username == "" || password == "" {
			continue
		}
		c.Accounts = append(c.Accounts, Account{Username: username, Password: password, Role: ea.role})
	}
	return nil
}

// DSN returns the data source name for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite3" {
		return d.Path
	}
	cfg := mysql.Config{
		User:                 d.Username,
		Passwd:               d.Password,
		Net:                  "tcp",
		Addr:                 d.Address,
		DBName:               d.Name,
		AllowNativePasswords: true,
		ParseTime:            true,
		ClientFoundRows:      true,
	}
	return cfg.FormatDSN()
}
