package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/aussiebroadwan/estate/pkg/httpx"
)

const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
)

// Config is read from ESTATE_* variables. Defaults: sqlite storage in
// ./estate.db, 10s request timeout, validated auth, warn level text logs.
type Config struct {
	APIURL         string        `validate:"required,url"`
	Storage        string        `validate:"oneof=memory sqlite redis"`
	DatabaseFile   string        `validate:"required_if=Storage sqlite"`
	RedisAddr      string        `validate:"required_if=Storage redis"`
	RedisDB        int           `validate:"gte=0"`
	RequestTimeout time.Duration `validate:"gt=0"`
	TOTPSecret     string        `validate:"omitempty,min=16"`
	LogLevel       string        `validate:"oneof=debug info warn error"`
	LogFormat      string        `validate:"oneof=json text"`

	RedisPassword  string // Optional
	RedisPrefix    string // Key prefix (default: estate)
	EncryptStorage bool   // Seal stored values with the master key (default: false)
	MasterKeyPath  string // Optional: master key file, falls back to ESTATE_MASTER_KEY
	ValidatedAuth  bool   // Attach only fingerprint-checked, unexpired tokens (default: true)
	CSRFDocument   string // Optional: HTML file carrying <meta name="csrf-token">
	Env            string // Environment (dev, staging, prod) (default: dev)

	RateLimit httpx.RateLimitConfig
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig reads the configuration from the environment. When envFile is
// set its values fill in variables the environment does not define; a
// missing file is only an error if it was named explicitly.
func LoadConfig(envFile string) (Config, error) {
	getenv := os.Getenv

	explicit := envFile != ""
	if !explicit {
		envFile = ".env"
	}

	envMap, err := godotenv.Read(envFile)
	switch {
	case err == nil:
		getenv = overlay(envMap)
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("failed to read env file: %w", err)
	}

	cfg := configFrom(getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func configFrom(getenv func(string) string) Config {
	e := env(getenv)

	cfg := Config{
		APIURL:         strings.TrimSuffix(e.get("ESTATE_API_URL", "http://localhost:8080/api"), "/"),
		Storage:        strings.ToLower(e.get("ESTATE_STORAGE", StorageSQLite)),
		DatabaseFile:   e.get("ESTATE_DATABASE_FILE", "estate.db"),
		RedisAddr:      e.get("ESTATE_REDIS_ADDR", ""),
		RedisPassword:  e.get("ESTATE_REDIS_PASSWORD", ""),
		RedisDB:        e.getInt("ESTATE_REDIS_DB", 0),
		RedisPrefix:    e.get("ESTATE_REDIS_PREFIX", "estate"),
		EncryptStorage: e.getBool("ESTATE_ENCRYPT_STORAGE", false),
		MasterKeyPath:  e.get("ESTATE_MASTER_KEY_PATH", ""),
		RequestTimeout: e.getDuration("ESTATE_REQUEST_TIMEOUT", 10*time.Second),
		ValidatedAuth:  e.getBool("ESTATE_VALIDATED_AUTH", true),
		CSRFDocument:   e.get("ESTATE_CSRF_DOCUMENT", ""),
		TOTPSecret:     e.get("ESTATE_TOTP_SECRET", ""),
		Env:            e.get("ENV", "dev"),
		LogLevel:       strings.ToLower(e.get("LOG_LEVEL", "warn")),
		LogFormat:      strings.ToLower(e.get("LOG_FORMAT", "text")),
	}

	// Rate limit overrides are read from the process environment only
	cfg.RateLimit = httpx.ParseRateLimitFromEnv("API", httpx.APILimit)

	return cfg
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q", fe.Field(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// overlay prefers the process environment over values from a file.
func overlay(envMap map[string]string) func(string) string {
	return func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return envMap[key]
	}
}

type env func(string) string

func (e env) get(key, defaultValue string) string {
	if value := e(key); value != "" {
		return value
	}
	return defaultValue
}

func (e env) getInt(key string, defaultValue int) int {
	value := e(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func (e env) getBool(key string, defaultValue bool) bool {
	value := e(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func (e env) getDuration(key string, defaultValue time.Duration) time.Duration {
	value := e(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "5s", "1m")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are milliseconds
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}

	return defaultValue
}
