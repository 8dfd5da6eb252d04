package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Transports the MCP server can be started with
const (
	TransportSSE   = "sse"
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`

	// File is the config file that was read, empty when running on defaults and env only.
	File string `mapstructure:"-"`
}

type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Mode      string `mapstructure:"mode"`
	Transport string `mapstructure:"transport"`
	HTTPPort  int    `mapstructure:"http_port"`
	BaseURL   string `mapstructure:"base_url"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Charset         string        `mapstructure:"charset"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

type CacheConfig struct {
	SchemaFile     string        `mapstructure:"schema_file"`
	SchemaTTL      time.Duration `mapstructure:"schema_ttl"`
	QueryTTL       time.Duration `mapstructure:"query_ttl"`
	QueryCacheSize int           `mapstructure:"query_cache_size"`
}

type SecurityConfig struct {
	RateLimitPerMinute int  `mapstructure:"rate_limit_per_minute"`
	RateLimitBurst     int  `mapstructure:"rate_limit_burst"`
	EnableRateLimit    bool `mapstructure:"enable_rate_limit"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
	File   string `mapstructure:"file"`
}

type SnapshotConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Object    string `mapstructure:"object"`
	Region    string `mapstructure:"region"`
	Secure    bool   `mapstructure:"secure"`
}

// envBindings maps config keys onto the MYSQL_* variables used by existing deployments.
var envBindings = map[string]string{
	"database.host":     "MYSQL_HOST",
	"database.port":     "MYSQL_PORT",
	"database.username": "MYSQL_USER",
	"database.password": "MYSQL_PASSWORD",
	"database.database": "MYSQL_DATABASE",
}

// Load reads config.yaml from ./configs or . (or path when set) and overlays
// environment variables. A missing config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Set default values
	setDefaults(v)

	// Enable environment variable support
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", env, err)
		}
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.File = v.ConfigFileUsed()

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.transport", TransportSSE)
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.base_url", "")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "")
	v.SetDefault("database.username", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.connect_timeout", "10s")

	// Cache defaults
	v.SetDefault("cache.schema_file", "resources/database_schema.json")
	v.SetDefault("cache.schema_ttl", "1h")
	v.SetDefault("cache.query_ttl", "5m")
	v.SetDefault("cache.query_cache_size", 100)

	// Security defaults
	v.SetDefault("security.rate_limit_per_minute", 120)
	v.SetDefault("security.rate_limit_burst", 20)
	v.SetDefault("security.enable_rate_limit", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.file", "")

	// Snapshot defaults
	v.SetDefault("snapshot.enabled", false)
	v.SetDefault("snapshot.endpoint", "")
	v.SetDefault("snapshot.access_key", "")
	v.SetDefault("snapshot.secret_key", "")
	v.SetDefault("snapshot.bucket", "")
	v.SetDefault("snapshot.object", "database_schema.json")
	v.SetDefault("snapshot.region", "")
	v.SetDefault("snapshot.secure", true)
}

// Validate refuses configurations the server cannot start with
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Database.Username) == "" {
		missing = append(missing, "MYSQL_USER")
	}
	if strings.TrimSpace(c.Database.Password) == "" {
		missing = append(missing, "MYSQL_PASSWORD")
	}
	if strings.TrimSpace(c.Database.Database) == "" {
		missing = append(missing, "MYSQL_DATABASE")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required MySQL connection parameters: %s", strings.Join(missing, ", "))
	}

	switch c.Server.Transport {
	case TransportSSE, TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("unsupported transport %q", c.Server.Transport)
	}

	if c.Server.Port <= 0 || c.Server.HTTPPort <= 0 {
		return errors.New("server ports must be positive")
	}
	if c.Cache.SchemaFile == "" {
		return errors.New("cache.schema_file must not be empty")
	}
	if c.Cache.QueryCacheSize <= 0 {
		return errors.New("cache.query_cache_size must be positive")
	}
	if c.Snapshot.Enabled && (c.Snapshot.Endpoint == "" || c.Snapshot.Bucket == "") {
		return errors.New("snapshot.endpoint and snapshot.bucket are required when snapshots are enabled")
	}
	return nil
}

// Addr returns the MCP listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// HTTPAddr returns the REST listen address
func (s ServerConfig) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.HTTPPort)
}

// String renders the connection target without credentials
func (d DatabaseConfig) String() string {
	return fmt.Sprintf("%s@%s:%d/%s", d.Username, d.Host, d.Port, d.Database)
}
