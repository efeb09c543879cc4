package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Claims   ClaimsConfig   `mapstructure:"claims"`
	Email    EmailConfig    `mapstructure:"email"`
	Lark     LarkConfig     `mapstructure:"lark"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Mode         string        `mapstructure:"mode"` // gin mode: debug, release, test
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	// MigrationsDir overrides the embedded migrations when set
	MigrationsDir string      `mapstructure:"migrations_dir"`
	Mongo         MongoConfig `mapstructure:"mongo"`
}

// MongoConfig holds MongoDB connection settings
type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// AuthConfig names the headers the upstream gateway sets after authentication
type AuthConfig struct {
	UserIDHeader string `mapstructure:"user_id_header"`
	RoleHeader   string `mapstructure:"role_header"`
	NameHeader   string `mapstructure:"name_header"`
}

// ClaimsConfig holds claim listing settings
type ClaimsConfig struct {
	PageSize int `mapstructure:"page_size"`
}

// EmailConfig holds SMTP settings. Email is skipped when sender or password is empty.
type EmailConfig struct {
	SMTPServer  string `mapstructure:"smtp_server"`
	SMTPPort    int    `mapstructure:"smtp_port"`
	SenderName  string `mapstructure:"sender_name"`
	SenderEmail string `mapstructure:"sender_email"`
	Password    string `mapstructure:"password"`
	EnableSSL   bool   `mapstructure:"enable_ssl"`
}

// LarkConfig holds Lark API configuration. The chat channel is off without credentials.
type LarkConfig struct {
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
}

// NATSConfig holds the optional event stream settings
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
	ClientName    string `mapstructure:"client_name"`
}

// RealtimeConfig holds websocket settings
type RealtimeConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load loads configuration from file and environment variables.
// A .env file in the working directory is applied first when present.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars(v)

	return decode(v)
}

// LoadDefaults builds a configuration from defaults and environment only
func LoadDefaults() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	bindEnvVars(v)
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.mode", "release")

	// Database defaults
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "data/claims.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.mongo.database", "qlkh")
	v.SetDefault("database.mongo.connect_timeout", 10*time.Second)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	// Identity headers
	v.SetDefault("auth.user_id_header", "X-User-ID")
	v.SetDefault("auth.role_header", "X-User-Role")
	v.SetDefault("auth.name_header", "X-User-Name")

	v.SetDefault("claims.page_size", 10)

	// Email defaults
	v.SetDefault("email.smtp_server", "smtp.gmail.com")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.sender_name", "QLKH System")
	v.SetDefault("email.enable_ssl", true)

	v.SetDefault("nats.subject_prefix", "claims")
	v.SetDefault("nats.client_name", "qlkh-claims")

	v.SetDefault("realtime.enabled", true)
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	// Sensitive credentials from environment
	_ = v.BindEnv("database.mongo.uri", "MONGO_URI")
	_ = v.BindEnv("email.sender_email", "SMTP_SENDER_EMAIL")
	_ = v.BindEnv("email.password", "SMTP_PASSWORD")
	_ = v.BindEnv("lark.app_id", "LARK_APP_ID")
	_ = v.BindEnv("lark.app_secret", "LARK_APP_SECRET")
	_ = v.BindEnv("nats.url", "NATS_URL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case DriverMongo:
		if c.Database.Mongo.URI == "" {
			return fmt.Errorf("database.mongo.uri is required for the mongo driver")
		}
		if c.Database.Mongo.Database == "" {
			return fmt.Errorf("database.mongo.database is required for the mongo driver")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}

	if c.Auth.UserIDHeader == "" {
		return fmt.Errorf("auth.user_id_header is required")
	}

	if c.Claims.PageSize <= 0 {
		return fmt.Errorf("claims.page_size must be positive")
	}

	// Lark credentials come as a pair
	if (c.Lark.AppID == "") != (c.Lark.AppSecret == "") {
		return fmt.Errorf("lark.app_id and lark.app_secret must be set together")
	}

	return nil
}
