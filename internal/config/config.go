package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultJwtSecret = "change-me"

type Config struct {
	Port       string
	DBAdapter  string
	SQLiteFile string
	JwtSecret  string
	TokenTTL   time.Duration
	LogLevel   string
	LogFormat  string
	Env        string
	// Allowed CORS origins; empty reflects any origin
	AllowedOrigins []string
	// Bootstrap admin, created or promoted at startup when both are set
	AdminName     string
	AdminPassword string
	// PostgreSQL connection settings
	PostgresDSN      string
	PostgresDriver   string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// BuildPostgresDSN constructs a PostgreSQL DSN from individual components or returns the provided DSN
func (c *Config) BuildPostgresDSN() (string, error) {
	if c.PostgresDSN != "" {
		return c.PostgresDSN, nil
	}

	if c.PostgresHost == "" {
		return "", errors.New("POSTGRES_HOST or POSTGRES_DSN must be set")
	}
	if c.PostgresUser == "" {
		return "", errors.New("POSTGRES_USER must be set")
	}
	if c.PostgresDB == "" {
		return "", errors.New("POSTGRES_DB must be set")
	}

	port := c.PostgresPort
	if port == "" {
		port = "5432"
	}

	sslMode := c.PostgresSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s",
		c.PostgresHost, port, c.PostgresUser, c.PostgresDB, sslMode)

	if c.PostgresPassword != "" {
		dsn += " password=" + c.PostgresPassword
	}

	return dsn, nil
}

// IsProduction reports whether ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func New() (*Config, error) {
	c := &Config{
		Port:           getenv("PORT", "8080"),
		DBAdapter:      strings.ToLower(getenv("DB_ADAPTER", "postgres")),
		SQLiteFile:     getenv("SQLITE_FILE", "./data/petauth.db"),
		JwtSecret:      getenv("JWT_SECRET", defaultJwtSecret),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogFormat:      getenv("LOG_FORMAT", "text"),
		Env:            strings.ToLower(getenv("ENV", "")),
		AllowedOrigins: splitList(getenv("ALLOWED_ORIGINS", "")),
		AdminName:      getenv("ADMIN_NAME", ""),
		AdminPassword:  getenv("ADMIN_PASSWORD", ""),
		// PostgreSQL settings
		PostgresDSN:      getenv("POSTGRES_DSN", ""),
		PostgresDriver:   strings.ToLower(getenv("POSTGRES_DRIVER", "postgres")),
		PostgresHost:     getenv("POSTGRES_HOST", getenv("DB_HOST", "localhost")),
		PostgresPort:     getenv("POSTGRES_PORT", getenv("DB_PORT", "5432")),
		PostgresUser:     getenv("POSTGRES_USER", getenv("DB_USER", "petauth")),
		PostgresPassword: getenv("POSTGRES_PASSWORD", getenv("DB_PASSWORD", "petauth")),
		PostgresDB:       getenv("POSTGRES_DB", getenv("DB_NAME", "petauth")),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", getenv("DB_SSLMODE", "disable")),
	}

	switch c.DBAdapter {
	case "postgres":
		if c.PostgresDriver != "postgres" && c.PostgresDriver != "pgx" {
			return nil, fmt.Errorf("invalid POSTGRES_DRIVER: %s (supported: postgres, pgx)", c.PostgresDriver)
		}
		dsn, err := c.BuildPostgresDSN()
		if err != nil {
			return nil, fmt.Errorf("postgres configuration error: %w", err)
		}
		c.PostgresDSN = dsn
	case "sqlite":
		if c.SQLiteFile == "" {
			return nil, errors.New("SQLITE_FILE must be set when DB_ADAPTER=sqlite")
		}
	case "memory":
	default:
		return nil, fmt.Errorf("unsupported DB_ADAPTER: %s (supported: postgres, sqlite, memory)", c.DBAdapter)
	}

	ttl, err := time.ParseDuration(getenv("TOKEN_TTL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %s must be positive", ttl)
	}
	c.TokenTTL = ttl

	if c.IsProduction() && (c.JwtSecret == "" || c.JwtSecret == defaultJwtSecret) {
		return nil, errors.New("JWT_SECRET must be set in production")
	}

	if _, err := strconv.Atoi(c.Port); err != nil {
		return nil, fmt.Errorf("invalid PORT: %s", c.Port)
	}

	return c, nil
}
