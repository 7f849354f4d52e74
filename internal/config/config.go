package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort             string   `mapstructure:"SERVER_PORT"`
	ReadTimeoutSeconds     int      `mapstructure:"SERVER_READ_TIMEOUT_SECONDS"`
	WriteTimeoutSeconds    int      `mapstructure:"SERVER_WRITE_TIMEOUT_SECONDS"`
	ShutdownTimeoutSeconds int      `mapstructure:"SERVER_SHUTDOWN_TIMEOUT_SECONDS"`
	CORSAllowedOrigins     []string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	DBDriver       string `mapstructure:"DB_DRIVER"`
	Host           string `mapstructure:"DB_HOST"`
	User           string `mapstructure:"DB_USER"`
	Password       string `mapstructure:"DB_PASSWORD"`
	Name           string `mapstructure:"DB_NAME"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	DBMaxOpenConns int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBAutoMigrate  bool   `mapstructure:"DB_AUTO_MIGRATE"`

	StorageDriver     string `mapstructure:"STORAGE_DRIVER"`
	S3BucketName      string `mapstructure:"S3_BUCKET_NAME"`
	S3Region          string `mapstructure:"S3_REGION"`
	S3Endpoint        string `mapstructure:"S3_ENDPOINT"`
	S3AccessKeyID     string `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `mapstructure:"S3_SECRET_ACCESS_KEY"`
	S3UseSSL          bool   `mapstructure:"S3_USE_SSL"`

	StagingDir               string   `mapstructure:"UPLOAD_STAGING_DIR"`
	AllowedExtensions        []string `mapstructure:"UPLOAD_ALLOWED_EXTENSIONS"`
	MaxUploadSizeMB          int64    `mapstructure:"UPLOAD_MAX_SIZE_MB"`
	MaxConcurrentUploads     int64    `mapstructure:"UPLOAD_MAX_CONCURRENT"`
	PresignExpirationSeconds int      `mapstructure:"PRESIGN_EXPIRATION_SECONDS"`

	RedisAddr           string `mapstructure:"REDIS_ADDR"`
	RedisPassword       string `mapstructure:"REDIS_PASSWORD"`
	RedisDB             int    `mapstructure:"REDIS_DB"`
	CacheListTTLSeconds int    `mapstructure:"CACHE_LIST_TTL_SECONDS"`

	LogLevel       string `mapstructure:"LOG_LEVEL"`
	LogFile        string `mapstructure:"LOG_FILE"`
	LogMaxSizeMB   int    `mapstructure:"LOG_MAX_SIZE_MB"`
	LogMaxBackups  int    `mapstructure:"LOG_MAX_BACKUPS"`
	LogMaxAgeDays  int    `mapstructure:"LOG_MAX_AGE_DAYS"`
	LogDevelopment bool   `mapstructure:"LOG_DEVELOPMENT"`
}

var defaults = map[string]any{
	"SERVER_PORT":                     "8080",
	"SERVER_READ_TIMEOUT_SECONDS":     15,
	"SERVER_WRITE_TIMEOUT_SECONDS":    60,
	"SERVER_SHUTDOWN_TIMEOUT_SECONDS": 10,
	"CORS_ALLOWED_ORIGINS":            []string{"*"},

	"DB_DRIVER":         "postgres",
	"DB_HOST":           "",
	"DB_USER":           "",
	"DB_PASSWORD":       "",
	"DB_NAME":           "",
	"DB_PORT":           "5432",
	"DB_SSLMODE":        "disable",
	"DB_MAX_OPEN_CONNS": 25,
	"DB_MAX_IDLE_CONNS": 5,
	"DB_AUTO_MIGRATE":   true,

	"STORAGE_DRIVER":       "s3",
	"S3_BUCKET_NAME":       "",
	"S3_REGION":            "",
	"S3_ENDPOINT":          "",
	"S3_ACCESS_KEY_ID":     "",
	"S3_SECRET_ACCESS_KEY": "",
	"S3_USE_SSL":           true,

	"UPLOAD_STAGING_DIR":         "./data/uploads",
	"UPLOAD_ALLOWED_EXTENSIONS":  []string{"txt", "pdf", "png", "jpg", "jpeg", "gif"},
	"UPLOAD_MAX_SIZE_MB":         32,
	"UPLOAD_MAX_CONCURRENT":      8,
	"PRESIGN_EXPIRATION_SECONDS": 3600,

	"REDIS_ADDR":             "",
	"REDIS_PASSWORD":         "",
	"REDIS_DB":               0,
	"CACHE_LIST_TTL_SECONDS": 30,

	"LOG_LEVEL":        "info",
	"LOG_FILE":         "",
	"LOG_MAX_SIZE_MB":  100,
	"LOG_MAX_BACKUPS":  3,
	"LOG_MAX_AGE_DAYS": 7,
	"LOG_DEVELOPMENT":  false,
}

// Load reads configuration from ./.env (when present) and the environment.
// Environment variables win over the file.
func Load() (*Config, error) {
	return LoadFile(".env")
}

func LoadFile(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.AllowedExtensions = normalizeExtensions(cfg.AllowedExtensions)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or mysql, got %q", c.DBDriver)
	}

	if c.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if c.User == "" {
		return fmt.Errorf("DB_USER is required")
	}

	if c.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}

	if c.DBPort == "" {
		return fmt.Errorf("DB_PORT is required")
	}

	switch c.StorageDriver {
	case "s3":
	case "minio":
		if c.S3Endpoint == "" {
			return fmt.Errorf("S3_ENDPOINT is required for the minio storage driver")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be s3 or minio, got %q", c.StorageDriver)
	}

	if c.S3BucketName == "" {
		return fmt.Errorf("S3_BUCKET_NAME is required")
	}

	if c.S3Region == "" {
		return fmt.Errorf("S3_REGION is required")
	}

	if c.StagingDir == "" {
		return fmt.Errorf("UPLOAD_STAGING_DIR is required")
	}

	if len(c.AllowedExtensions) == 0 {
		return fmt.Errorf("UPLOAD_ALLOWED_EXTENSIONS must not be empty")
	}

	if c.PresignExpirationSeconds <= 0 {
		return fmt.Errorf("PRESIGN_EXPIRATION_SECONDS must be positive")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	return nil
}

// DSN builds the driver specific connection string.
func (c *Config) DSN() string {
	if c.DBDriver == "mysql" {
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.User, c.Password, c.Host, c.DBPort, c.Name)
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.DBPort, c.User, c.Password, c.Name, c.DBSSLMode)
}

func (c *Config) PresignExpiration() time.Duration {
	return time.Duration(c.PresignExpirationSeconds) * time.Second
}

func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadSizeMB << 20
}

func (c *Config) CacheListTTL() time.Duration {
	return time.Duration(c.CacheListTTLSeconds) * time.Second
}

func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// normalizeExtensions lowercases entries, strips a leading dot and drops
// blanks. A single comma separated entry is split as well, since a bare
// env value may reach us unsplit.
func normalizeExtensions(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		for _, part := range strings.Split(raw, ",") {
			ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(part), "."))
			if ext == "" {
				continue
			}
			if _, ok := seen[ext]; ok {
				continue
			}
			seen[ext] = struct{}{}
			out = append(out, ext)
		}
	}
	return out
}
