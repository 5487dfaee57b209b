package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"logLevel"`
	DataDir  string `yaml:"dataDir"`

	CatalogPath string `yaml:"catalogPath"`

	// BlobBackend selects where uploaded documents live: "local" or "s3".
	BlobBackend    string `yaml:"blobBackend"`
	BlobDir        string `yaml:"blobDir"`
	MinioEndpoint  string `yaml:"minioEndpoint"`
	MinioAccessKey string `yaml:"minioAccessKey"`
	MinioSecretKey string `yaml:"minioSecretKey"`
	MinioBucket    string `yaml:"minioBucket"`
	MinioUseSSL    bool   `yaml:"minioUseSSL"`

	BackupDir        string `yaml:"backupDir"`
	BackupRetention  int    `yaml:"backupRetention"`
	PushIntervalMins int    `yaml:"pushIntervalMins"`

	// HostedMode mirrors the catalog file to the MinIO bucket: pull on start,
	// push after writes and on shutdown.
	HostedMode        bool   `yaml:"hostedMode"`
	CatalogSyncObject string `yaml:"catalogSyncObject"`

	// SessionBackend selects "jwt" or "redis".
	SessionBackend  string `yaml:"sessionBackend"`
	SessionSecret   string `yaml:"sessionSecret"`
	SessionTTLHours int    `yaml:"sessionTtlHours"`
	RedisAddr       string `yaml:"redisAddr"`
	RedisPassword   string `yaml:"redisPassword"`

	AdminName     string `yaml:"adminName"`
	AdminEmail    string `yaml:"adminEmail"`
	AdminPassword string `yaml:"adminPassword"`

	MaxUploadBytes int64 `yaml:"maxUploadBytes"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("MEMOBANK_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("MEMOBANK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MEMOBANK_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("MEMOBANK_CATALOG_PATH"); v != "" {
		cfg.CatalogPath = v
	}
	if v := os.Getenv("MEMOBANK_BLOB_BACKEND"); v != "" {
		cfg.BlobBackend = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = v
	}
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.MinioUseSSL = b
		}
	}
	if v := os.Getenv("MEMOBANK_HOSTED_MODE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.HostedMode = b
		}
	}
	if v := os.Getenv("MEMOBANK_SESSION_BACKEND"); v != "" {
		cfg.SessionBackend = v
	}
	if v := os.Getenv("MEMOBANK_SESSION_SECRET"); v != "" {
		cfg.SessionSecret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("MEMOBANK_ADMIN_NAME"); v != "" {
		cfg.AdminName = v
	}
	if v := os.Getenv("MEMOBANK_ADMIN_EMAIL"); v != "" {
		cfg.AdminEmail = v
	}
	if v := os.Getenv("MEMOBANK_ADMIN_PASSWORD"); v != "" {
		cfg.AdminPassword = v
	}
	if v := os.Getenv("MEMOBANK_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxUploadBytes = n
		}
	}
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *FileConfig) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.CatalogPath == "" {
		cfg.CatalogPath = cfg.DataDir + "/catalog.sqlite"
	}
	if cfg.BlobBackend == "" {
		cfg.BlobBackend = "local"
	}
	if cfg.BlobDir == "" {
		cfg.BlobDir = cfg.DataDir + "/memoirs"
	}
	if cfg.BackupDir == "" {
		cfg.BackupDir = cfg.DataDir + "/backups"
	}
	if cfg.BackupRetention == 0 {
		cfg.BackupRetention = 5
	}
	if cfg.PushIntervalMins == 0 {
		cfg.PushIntervalMins = 5
	}
	if cfg.CatalogSyncObject == "" {
		cfg.CatalogSyncObject = "catalog.sqlite"
	}
	if cfg.SessionBackend == "" {
		cfg.SessionBackend = "jwt"
	}
	if cfg.SessionTTLHours == 0 {
		cfg.SessionTTLHours = 24
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 100 << 20
	}
}

// SessionTTL returns the configured session lifetime as a duration.
func (c FileConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// PushInterval returns the hosted-mode minimum delay between catalog pushes.
func (c FileConfig) PushInterval() time.Duration {
	return time.Duration(c.PushIntervalMins) * time.Minute
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	switch cfg.BlobBackend {
	case "local":
	case "s3":
		if cfg.MinioEndpoint == "" || cfg.MinioBucket == "" {
			return errors.New("config: s3 blob backend requires minioEndpoint and minioBucket")
		}
	default:
		return fmt.Errorf("config: unknown blobBackend %q (want local or s3)", cfg.BlobBackend)
	}
	if cfg.HostedMode && (cfg.MinioEndpoint == "" || cfg.MinioBucket == "") {
		return errors.New("config: hostedMode requires minioEndpoint and minioBucket")
	}
	switch cfg.SessionBackend {
	case "jwt":
		if cfg.SessionSecret == "" {
			return errors.New("config: sessionSecret is required (set in config.yaml or MEMOBANK_SESSION_SECRET)")
		}
	case "redis":
		if cfg.RedisAddr == "" {
			return errors.New("config: redisAddr is required (set in config.yaml or REDIS_ADDR)")
		}
	default:
		return fmt.Errorf("config: unknown sessionBackend %q (want jwt or redis)", cfg.SessionBackend)
	}
	if cfg.BackupRetention < 1 {
		return errors.New("config: backupRetention must be >= 1")
	}
	if cfg.PushIntervalMins < 1 {
		return errors.New("config: pushIntervalMins must be >= 1")
	}
	if cfg.MaxUploadBytes < 1 {
		return errors.New("config: maxUploadBytes must be >= 1")
	}
	if cfg.AdminEmail != "" && cfg.AdminPassword == "" {
		return errors.New("config: adminPassword is required when adminEmail is set")
	}
	return nil
}
