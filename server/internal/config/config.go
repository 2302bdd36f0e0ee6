package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort       = 3000
	DefaultRequestTimeout = 15 * time.Second
	DefaultDriver         = DriverMemory
	DefaultPingInterval   = 30 * time.Second
	DefaultMongoURIEnv    = "MONGO_URI"
	DefaultMongoDatabase  = "resultcard"
	DefaultConnectTimeout = 10 * time.Second
	DefaultSQLitePath     = "resultcard.db"
	DefaultLogLevel       = "info"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// Config is the top-level configuration parsed from config.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig holds the listener settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, WebSocket feed and /metrics listen on.
	HTTPPort int `yaml:"http_port"`

	// GRPCPort is the port of the gRPC health service. Zero disables it.
	GRPCPort int `yaml:"grpc_port"`

	// RequestTimeout bounds every HTTP request, including its store calls.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// CORSOrigins lists the origins allowed to call the API. Defaults to "*".
	CORSOrigins []string `yaml:"cors_origins"`

	// UIDir optionally serves a pre-built single-page client from disk.
	UIDir string `yaml:"ui_dir"`
}

// StoreConfig selects and configures the record store backend.
type StoreConfig struct {
	// Driver is one of: memory | mongo | sqlite.
	Driver string `yaml:"driver"`

	// PingInterval controls how often the health loop checks the store.
	PingInterval time.Duration `yaml:"ping_interval"`

	Mongo  MongoConfig  `yaml:"mongo"`
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// MongoConfig configures the MongoDB backend.
type MongoConfig struct {
	// URIEnv is the name of the environment variable holding the connection URI.
	URIEnv string `yaml:"uri_env"`

	// Database is the database holding the users and resultcards collections.
	Database string `yaml:"database"`

	// ConnectTimeout bounds the initial connect and ping.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// URI returns the connection URI resolved from the environment.
func (m MongoConfig) URI() string {
	if m.URIEnv == "" {
		return ""
	}
	return os.Getenv(m.URIEnv)
}

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	// Path is the database file, or ":memory:".
	Path string `yaml:"path"`
}

// LogConfig controls the default slog logger.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`
}

// SlogLevel converts Level to a slog.Level. Validation guarantees it parses.
func (l LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Load reads and parses the config file at path.
// Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML config data, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	cfg.Store.Driver = strings.ToLower(cfg.Store.Driver)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Defaults returns a Config pre-populated with default values. It is also
// what the server runs with when no config file exists.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:       DefaultHTTPPort,
			RequestTimeout: DefaultRequestTimeout,
			CORSOrigins:    []string{"*"},
		},
		Store: StoreConfig{
			Driver:       DefaultDriver,
			PingInterval: DefaultPingInterval,
			Mongo: MongoConfig{
				URIEnv:         DefaultMongoURIEnv,
				Database:       DefaultMongoDatabase,
				ConnectTimeout: DefaultConnectTimeout,
			},
			SQLite: SQLiteConfig{Path: DefaultSQLitePath},
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.GRPCPort < 0 || cfg.Server.GRPCPort > 65535 {
		return fmt.Errorf("server.grpc_port %d is out of range [0, 65535]", cfg.Server.GRPCPort)
	}
	if cfg.Server.GRPCPort != 0 && cfg.Server.GRPCPort == cfg.Server.HTTPPort {
		return fmt.Errorf("server.grpc_port must differ from server.http_port")
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive")
	}
	switch cfg.Store.Driver {
	case DriverMemory, DriverSQLite:
	case DriverMongo:
		if cfg.Store.Mongo.URIEnv == "" {
			return fmt.Errorf("store.mongo.uri_env is required for the mongo driver")
		}
		if cfg.Store.Mongo.Database == "" {
			return fmt.Errorf("store.mongo.database is required for the mongo driver")
		}
	default:
		return fmt.Errorf("store.driver %q unknown: want memory|mongo|sqlite", cfg.Store.Driver)
	}
	if cfg.Store.Driver == DriverSQLite && cfg.Store.SQLite.Path == "" {
		return fmt.Errorf("store.sqlite.path is required for the sqlite driver")
	}
	if cfg.Store.PingInterval <= 0 {
		return fmt.Errorf("store.ping_interval must be positive")
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}
	return nil
}
