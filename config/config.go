package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the service needs. It is built once at startup
// and handed to collaborators by pointer; nothing reads the environment later.
type Config struct {
	AppHost string
	AppPort string

	MongoURL     string
	DatabaseName string

	JWTSecret        string
	JWTTTL           time.Duration
	AdminInviteToken string

	BuildMode string
	ClientURL string

	GCSBucket          string
	GCSCredentialsFile string
	UploadMaxBytes     int64

	PasswordBlacklistFile string

	LogFile  string
	LogLevel string
}

const (
	defaultPort           = "8000"
	defaultDatabase       = "task_manager"
	defaultMongoURL       = "mongodb://localhost:27017"
	defaultJWTTTL         = 7 * 24 * time.Hour
	defaultUploadMaxBytes = 5 * 1024 * 1024
	defaultLogFile        = "logs/task-manager.log"
)

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", f, err)
			}
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary key lookup function.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		AppHost:               get("APP_HOST", ""),
		AppPort:               get("APP_PORT", defaultPort),
		MongoURL:              get("MONGODB_URL", defaultMongoURL),
		DatabaseName:          get("DATABASE_NAME", defaultDatabase),
		JWTSecret:             get("JWT_SECRET", ""),
		JWTTTL:                defaultJWTTTL,
		AdminInviteToken:      get("ADMIN_INVITE_TOKEN", ""),
		BuildMode:             get("BUILD_MODE", "production"),
		ClientURL:             get("CLIENT_URL", "*"),
		GCSBucket:             get("GCS_BUCKET", ""),
		GCSCredentialsFile:    get("GCS_CREDENTIALS_FILE", ""),
		UploadMaxBytes:        defaultUploadMaxBytes,
		PasswordBlacklistFile: get("PASSWORD_BLACKLIST_FILE", ""),
		LogFile:               get("LOG_FILE", defaultLogFile),
		LogLevel:              get("LOG_LEVEL", "info"),
	}

	if raw := get("JWT_TTL", ""); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_TTL %q: %w", raw, err)
		}
		cfg.JWTTTL = ttl
	}
	if raw := get("UPLOAD_MAX_BYTES", ""); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid UPLOAD_MAX_BYTES %q", raw)
		}
		cfg.UploadMaxBytes = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	if c.MongoURL == "" || c.DatabaseName == "" {
		return fmt.Errorf("MONGODB_URL and DATABASE_NAME are required")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	return nil
}

// IsDev reports whether error responses may include stack traces.
func (c *Config) IsDev() bool {
	return c.BuildMode == "dev"
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.AppHost, c.AppPort)
}
