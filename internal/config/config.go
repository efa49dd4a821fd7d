package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Provider    ProviderConfig            `json:"provider"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
}

type ProviderConfig struct {
	Name    string `json:"name"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"-"`
}

type BasicConfig struct {
	ServerAddress   string `json:"server_address"`
	UploadDir       string `json:"upload_dir"`
	MaxUploadBytes  int64  `json:"max_upload_bytes"`
	AITimeout       int    `json:"ai_timeout_seconds"`
	UploadTTL       int    `json:"upload_ttl_minutes"`
	SweepInterval   int    `json:"sweep_interval_minutes"`
	Database        string `json:"database"`
	RateLimit       int    `json:"rate_limit_per_minute"`
	LogLevel        string `json:"log_level"`
	LogFormat       string `json:"log_format"`
	HistoryPageSize int    `json:"history_page_size"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// env holds the overrides read from the process environment. Names are
// prefixed with CHARTGEN_; only API_KEY is also accepted bare. AITimeout is
// in seconds, like ai_timeout_seconds.
type env struct {
	APIKey         string `envconfig:"API_KEY"`
	Provider       string `split_words:"true"`
	Model          string `split_words:"true"`
	BaseURL        string `split_words:"true"`
	Addr           string `split_words:"true"`
	UploadDir      string `split_words:"true"`
	MaxUploadBytes int64  `split_words:"true"`
	AITimeout      int    `split_words:"true"`
	DB             string `split_words:"true"`
	SqliteDSN      string `split_words:"true"`
	RedisHost      string `split_words:"true"`
	RedisPort      int    `split_words:"true"`
	RedisPassword  string `split_words:"true"`
	RateLimit      int    `split_words:"true"`
	LogLevel       string `split_words:"true"`
	LogFormat      string `split_words:"true"`
}

const (
	DefaultAddress        = ":3000"
	DefaultUploadDir      = "uploads"
	DefaultMaxUploadBytes = 10 << 20 // 10 MB
	DefaultProvider       = "gemini"
	DefaultGeminiModel    = "gemini-2.0-flash"
	DefaultHistoryPage    = 20
	DefaultUploadTTL      = 30 * time.Minute
	DefaultSweepInterval  = 10 * time.Minute
)

// ErrMissingAPIKey is returned when no model credential is configured.
var ErrMissingAPIKey = errors.New("API_KEY must be set in the environment")

// Load reads configuration from the provided path (defaults to config.json),
// loads .env when present and applies environment overrides. A missing config
// file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}
	_ = godotenv.Load()

	cfg := &Config{}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	if err := loadFile(absPath, cfg); err != nil {
		return nil, err
	}

	var e env
	if err := envconfig.Process("CHARTGEN", &e); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	cfg.apply(e)
	cfg.setDefaults()

	if cfg.Provider.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if dbCfg, ok := cfg.Databases["sqlite3"]; ok && dbCfg.DSN != "" && dbCfg.DSN != ":memory:" && !filepath.IsAbs(dbCfg.DSN) {
		dbCfg.DSN = filepath.Join(filepath.Dir(absPath), dbCfg.DSN)
		cfg.Databases["sqlite3"] = dbCfg
	}
	return cfg, nil
}

func loadFile(absPath string, cfg *Config) error {
	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

func (c *Config) apply(e env) {
	if e.APIKey != "" {
		c.Provider.APIKey = e.APIKey
	}
	if e.Provider != "" {
		c.Provider.Name = e.Provider
	}
	if e.Model != "" {
		c.Provider.Model = e.Model
	}
	if e.BaseURL != "" {
		c.Provider.BaseURL = e.BaseURL
	}
	if e.Addr != "" {
		c.BasicConfig.ServerAddress = e.Addr
	}
	if e.UploadDir != "" {
		c.BasicConfig.UploadDir = e.UploadDir
	}
	if e.MaxUploadBytes > 0 {
		c.BasicConfig.MaxUploadBytes = e.MaxUploadBytes
	}
	if e.AITimeout > 0 {
		c.BasicConfig.AITimeout = e.AITimeout
	}
	if e.DB != "" {
		c.BasicConfig.Database = e.DB
	}
	if e.SqliteDSN != "" {
		if c.Databases == nil {
			c.Databases = make(map[string]DatabaseConfig)
		}
		dbCfg := c.Databases["sqlite3"]
		dbCfg.DSN = e.SqliteDSN
		c.Databases["sqlite3"] = dbCfg
	}
	if e.RedisHost != "" {
		c.Redis.Host = e.RedisHost
	}
	if e.RedisPort > 0 {
		c.Redis.Port = e.RedisPort
	}
	if e.RedisPassword != "" {
		c.Redis.Password = e.RedisPassword
	}
	if e.RateLimit > 0 {
		c.BasicConfig.RateLimit = e.RateLimit
	}
	if e.LogLevel != "" {
		c.BasicConfig.LogLevel = e.LogLevel
	}
	if e.LogFormat != "" {
		c.BasicConfig.LogFormat = e.LogFormat
	}
}

func (c *Config) setDefaults() {
	if c.BasicConfig.ServerAddress == "" {
		c.BasicConfig.ServerAddress = DefaultAddress
	}
	if c.BasicConfig.UploadDir == "" {
		c.BasicConfig.UploadDir = DefaultUploadDir
	}
	if c.BasicConfig.MaxUploadBytes <= 0 {
		c.BasicConfig.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.BasicConfig.HistoryPageSize <= 0 {
		c.BasicConfig.HistoryPageSize = DefaultHistoryPage
	}
	if c.Provider.Name == "" {
		c.Provider.Name = DefaultProvider
	}
	if c.Provider.Model == "" && c.Provider.Name == DefaultProvider {
		c.Provider.Model = DefaultGeminiModel
	}
}

// AITimeout returns the per-call model timeout; zero means no timeout.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.BasicConfig.AITimeout) * time.Second
}

// UploadTTL is the age after which the sweeper removes stray uploads.
func (c *Config) UploadTTL() time.Duration {
	if c.BasicConfig.UploadTTL <= 0 {
		return DefaultUploadTTL
	}
	return time.Duration(c.BasicConfig.UploadTTL) * time.Minute
}

// SweepInterval is how often the upload directory is swept.
func (c *Config) SweepInterval() time.Duration {
	if c.BasicConfig.SweepInterval <= 0 {
		return DefaultSweepInterval
	}
	return time.Duration(c.BasicConfig.SweepInterval) * time.Minute
}

// RedisEnabled reports whether a redis host has been configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}
