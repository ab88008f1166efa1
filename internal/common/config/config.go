// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig               `mapstructure:"app"`
	Server       ServerConfig            `mapstructure:"server"`
	Camunda      CamundaConfig           `mapstructure:"camunda"`
	Database     DatabaseConfig          `mapstructure:"database"`
	Places       PlacesConfig            `mapstructure:"places"`
	Tours        ToursConfig             `mapstructure:"tours"`
	Batch        BatchConfig             `mapstructure:"batch"`
	Invite       InviteConfig            `mapstructure:"invite"`
	Auth         AuthConfig              `mapstructure:"auth"`
	Workers      map[string]WorkerConfig `mapstructure:"workers"`
	Logging      LoggingConfig           `mapstructure:"logging"`
	RegistryPath string                  `mapstructure:"registry_path"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address      string `mapstructure:"address"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int    `mapstructure:"write_timeout"` // milliseconds
	MaxBodyBytes int64  `mapstructure:"max_body_bytes"`
}

// CamundaConfig is optional: an empty broker address runs the HTTP API only.
type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"` // postgres | sqlite
	Postgres PostgresConfig `mapstructure:"postgres"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig is optional: an empty address disables the place detail cache.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	CacheTTL int    `mapstructure:"cache_ttl"` // seconds
}

// WorkerConfig holds the core settings applicable to every job worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
}

// --- Domain Configuration Sections ---

// PlacesConfig points at the external places directory service.
type PlacesConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	Timeout        int    `mapstructure:"timeout"`          // milliseconds
	PageTokenDelay int    `mapstructure:"page_token_delay"` // milliseconds
	PhotoMaxWidth  int    `mapstructure:"photo_max_width"`
}

type ToursConfig struct {
	KeywordLogPath    string `mapstructure:"keyword_log_path"`
	DetailConcurrency int    `mapstructure:"detail_concurrency"` // 0 = unbounded
}

type BatchConfig struct {
	Pacing   string `mapstructure:"pacing"`   // fixed | token_bucket | none
	Interval int    `mapstructure:"interval"` // milliseconds
	Endpoint string `mapstructure:"endpoint"` // aggregation endpoint used by remote runs
}

// InviteConfig holds settings for the SES-backed invite sender.
type InviteConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Region    string `mapstructure:"region"`
	FromEmail string `mapstructure:"from_email"`
	Subject   string `mapstructure:"subject"`
}

// AuthConfig holds the link obfuscation secret for dashboard URLs.
type AuthConfig struct {
	HashSecret string `mapstructure:"hash_secret"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
