package container

import (
	"fmt"
	"time"

	"github.com/tuanbk654123/QLCP-QLKH/internal/email"
	"github.com/tuanbk654123/QLCP-QLKH/internal/infrastructure/external/lark"
	"github.com/tuanbk654123/QLCP-QLKH/internal/infrastructure/messaging/nats"
)

// Storage drivers
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config holds all configuration needed by the container.
type Config struct {
	// Database settings
	Database DatabaseConfig

	// Server settings
	Server ServerConfig

	// Email channel; disabled without sender credentials
	Email email.Config

	// Lark chat channel; disabled without app credentials
	Lark lark.Config

	// NATS event stream; disabled without a URL
	NATS nats.Config

	// Realtime websocket push
	Realtime RealtimeConfig
}

// DatabaseConfig selects and configures the document store.
type DatabaseConfig struct {
	// Driver is "sqlite" or "mongo"
	Driver string

	// Path to the SQLite database file
	Path string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// MigrationsDir overrides the embedded SQLite migrations
	MigrationsDir string

	// Mongo connection settings
	MongoURI            string
	MongoDatabase       string
	MongoConnectTimeout time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Mode is the gin mode
	Mode string

	// Identity header names
	UserIDHeader string
	RoleHeader   string
	NameHeader   string

	// PageSize for claim listings
	PageSize int
}

// RealtimeConfig holds websocket settings.
type RealtimeConfig struct {
	Enabled        bool
	AllowedOrigins []string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:              DriverSQLite,
			Path:                "data/claims.db",
			MaxOpenConns:        25,
			MaxIdleConns:        5,
			ConnMaxLifetime:     5 * time.Minute,
			MongoConnectTimeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			Mode:         "release",
			UserIDHeader: "X-User-ID",
			RoleHeader:   "X-User-Role",
			NameHeader:   "X-User-Name",
			PageSize:     10,
		},
		Email: email.Config{
			SMTPServer: "smtp.gmail.com",
			SMTPPort:   587,
			SenderName: "QLKH System",
			EnableSSL:  true,
		},
		NATS: nats.Config{
			SubjectPrefix: "claims",
		},
		Realtime: RealtimeConfig{
			Enabled: true,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required")
		}
	case DriverMongo:
		if c.Database.MongoURI == "" || c.Database.MongoDatabase == "" {
			return fmt.Errorf("mongo uri and database are required")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Server.PageSize <= 0 {
		return fmt.Errorf("page size must be positive")
	}

	return nil
}
