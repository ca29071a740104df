package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the AutoDetail backend.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Email       EmailConfig       `mapstructure:"email"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Rates       RatesConfig       `mapstructure:"rates"`
	Contact     ContactConfig     `mapstructure:"contact"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
	FrontendURL string            `mapstructure:"frontend_url"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int           `mapstructure:"port"`
	Environment string        `mapstructure:"environment"`
	LogLevel    string        `mapstructure:"log_level"`
	Log         LogConfig     `mapstructure:"log"`
	Diagnostics bool          `mapstructure:"diagnostics"`
	Uploads     UploadsConfig `mapstructure:"uploads"`
	CORS        CORSConfig    `mapstructure:"cors"`
}

// LogConfig controls log encoding and optional file rotation.
type LogConfig struct {
	JSON       bool   `mapstructure:"json"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// UploadsConfig bounds multipart uploads.
type UploadsConfig struct {
	MaxImageBytes   int64 `mapstructure:"max_image_bytes"`
	MaxImages       int   `mapstructure:"max_images"`
	MaxProfileBytes int64 `mapstructure:"max_profile_bytes"`
}

// CORSConfig lists the origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// IsProduction reports whether the server runs in production mode.
func (c ServerConfig) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	DSN             string        `mapstructure:"dsn"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// CacheConfig describes cache backends.
type CacheConfig struct {
	Redis RedisCacheConfig `mapstructure:"redis"`
}

// RedisCacheConfig holds Redis connection options.
type RedisCacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TLS      bool          `mapstructure:"tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// AuthConfig captures all authentication-related settings.
type AuthConfig struct {
	JWT             JWTSettings          `mapstructure:"jwt"`
	VerificationTTL time.Duration        `mapstructure:"verification_ttl"`
	ResetTTL        time.Duration        `mapstructure:"reset_ttl"`
	BootstrapAdmin  BootstrapAdminConfig `mapstructure:"bootstrap_admin"`
}

// JWTSettings configures JWT access tokens.
type JWTSettings struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"access_token_ttl"`
}

// BootstrapAdminConfig seeds an administrator during migration.
type BootstrapAdminConfig struct {
	Name     string `mapstructure:"name"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// EmailConfig captures outbound email settings.
type EmailConfig struct {
	SMTP SMTPConfig `mapstructure:"smtp"`
}

// SMTPConfig defines SMTP dialer settings for sending email.
type SMTPConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	UseTLS   bool          `mapstructure:"use_tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// StorageConfig selects and configures the image blob store.
type StorageConfig struct {
	Driver       string   `mapstructure:"driver"`
	Dir          string   `mapstructure:"dir"`
	PublicPrefix string   `mapstructure:"public_prefix"`
	S3           S3Config `mapstructure:"s3"`
}

// S3Config holds object storage settings.
type S3Config struct {
	Bucket         string `mapstructure:"bucket"`
	Region         string `mapstructure:"region"`
	Endpoint       string `mapstructure:"endpoint"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	ForcePathStyle bool   `mapstructure:"force_path_style"`
	PublicBaseURL  string `mapstructure:"public_base_url"`
	KeyPrefix      string `mapstructure:"key_prefix"`
}

// RatesConfig configures the currency rate proxy.
type RatesConfig struct {
	ProviderURL       string        `mapstructure:"provider_url"`
	TTL               time.Duration `mapstructure:"ttl"`
	DefaultBase       string        `mapstructure:"default_base"`
	DefaultTarget     string        `mapstructure:"default_target"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// ContactConfig names the recipient of contact form messages.
type ContactConfig struct {
	To string `mapstructure:"to"`
}

// MonitoringConfig enables metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// MaintenanceConfig schedules background cleanup.
type MaintenanceConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	Schedule           string        `mapstructure:"schedule"`
	AuditRetentionDays int           `mapstructure:"audit_retention_days"`
	PendingRetention   time.Duration `mapstructure:"pending_retention"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("AUTODETAIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log.json", false)
	v.SetDefault("server.log.max_size_mb", 100)
	v.SetDefault("server.log.max_backups", 5)
	v.SetDefault("server.log.max_age_days", 28)
	v.SetDefault("server.diagnostics", false)
	v.SetDefault("server.uploads.max_image_bytes", 8<<20)
	v.SetDefault("server.uploads.max_images", 6)
	v.SetDefault("server.uploads.max_profile_bytes", 4<<20)
	v.SetDefault("server.cors.allowed_origins", []string{"*"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/autodetail.sqlite")

	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.address", "127.0.0.1:6379")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.tls", false)
	v.SetDefault("cache.redis.timeout", "5s")

	v.SetDefault("auth.jwt.issuer", "autodetail")
	v.SetDefault("auth.jwt.access_token_ttl", "24h")
	v.SetDefault("auth.verification_ttl", "10m")
	v.SetDefault("auth.reset_ttl", "30m")

	v.SetDefault("email.smtp.enabled", false)
	v.SetDefault("email.smtp.host", "")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.use_tls", true)
	v.SetDefault("email.smtp.timeout", "10s")

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.dir", "./uploads")
	v.SetDefault("storage.public_prefix", "/uploads")
	v.SetDefault("storage.s3.region", "us-east-1")

	v.SetDefault("rates.provider_url", "https://open.er-api.com/v6/latest")
	v.SetDefault("rates.ttl", "1h")
	v.SetDefault("rates.default_base", "USD")
	v.SetDefault("rates.default_target", "AZN")
	v.SetDefault("rates.requests_per_second", 1.0)
	v.SetDefault("rates.timeout", "10s")

	v.SetDefault("contact.to", "")
	v.SetDefault("frontend_url", "http://localhost:3000")

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")

	v.SetDefault("maintenance.enabled", true)
	v.SetDefault("maintenance.schedule", "@hourly")
	v.SetDefault("maintenance.audit_retention_days", 90)
	v.SetDefault("maintenance.pending_retention", "168h")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
