package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the metasearch configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
	Live     LiveConfig     `yaml:"live"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Cache    CacheConfig    `yaml:"cache"`
	Search   SearchConfig   `yaml:"search"`
	Auth     AuthConfig     `yaml:"auth"`
}

// AuthConfig holds API key settings. Empty api_keys disables authentication.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// LiveConfig holds the transactional store connection pool settings.
type LiveConfig struct {
	DSN                string `yaml:"dsn"`
	MinConns           int32  `yaml:"min_conns"`
	MaxConns           int32  `yaml:"max_conns"`
	AcquireTimeoutMs   int    `yaml:"acquire_timeout_ms"`
	IdleTimeoutSec     int    `yaml:"idle_timeout_sec"`
	MaxConnLifetimeSec int    `yaml:"max_conn_lifetime_sec"`
	ConnectTimeoutSec  int    `yaml:"connect_timeout_sec"`
}

// SnapshotConfig holds the columnar snapshot engine settings.
type SnapshotConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	URLStyle        string `yaml:"url_style"` // vhost, path
	UseSSL          bool   `yaml:"use_ssl"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
	Threads         int    `yaml:"threads"`
	MemoryLimit     string `yaml:"memory_limit"`
	VerifySchema    bool   `yaml:"verify_schema"`
	// GenerationCheckSec is how long a snapshot file listing keys cached counts.
	GenerationCheckSec int `yaml:"generation_check_sec"`
}

// CacheConfig holds count cache settings. Empty addrs disables the cache.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	TTLSec           int      `yaml:"ttl_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SearchConfig holds query defaults.
type SearchConfig struct {
	Stack        string `yaml:"stack"`
	DefaultLimit int    `yaml:"default_limit"`
	MaxLimit     int    `yaml:"max_limit"`
	StrictFields bool   `yaml:"strict_fields"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse expands env variables, decodes, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Live.MaxConns <= 0 {
		c.Live.MaxConns = 10
	}
	if c.Live.AcquireTimeoutMs <= 0 {
		c.Live.AcquireTimeoutMs = 60000
	}
	if c.Live.IdleTimeoutSec <= 0 {
		c.Live.IdleTimeoutSec = 1
	}
	if c.Live.ConnectTimeoutSec <= 0 {
		c.Live.ConnectTimeoutSec = 60
	}
	if c.Snapshot.URLStyle == "" {
		c.Snapshot.URLStyle = "vhost"
	}
	if c.Snapshot.GenerationCheckSec <= 0 {
		c.Snapshot.GenerationCheckSec = 30
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 300
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "metasearch:count:"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Search.Stack == "" {
		c.Search.Stack = "local"
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 10
	}
	if c.Search.MaxLimit <= 0 {
		c.Search.MaxLimit = 1000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Live.DSN == "" && !c.Snapshot.Enabled {
		return fmt.Errorf("live.dsn or snapshot.enabled is required")
	}
	if c.Live.MinConns < 0 || c.Live.MinConns > c.Live.MaxConns {
		return fmt.Errorf("live.min_conns must be between 0 and live.max_conns (%d), got %d",
			c.Live.MaxConns, c.Live.MinConns)
	}
	if c.Snapshot.Enabled && c.Snapshot.Bucket == "" {
		return fmt.Errorf("snapshot.bucket is required when snapshot.enabled is true")
	}
	switch c.Snapshot.URLStyle {
	case "vhost", "path":
		// ok
	default:
		return fmt.Errorf("snapshot.url_style must be \"vhost\" or \"path\", got %q", c.Snapshot.URLStyle)
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit (%d) exceeds search.max_limit (%d)",
			c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
