package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

const (
	DefaultAPIURL     = "http://127.0.0.1:7448"
	DefaultDBFileName = ".filedrop.db"
	DefaultLogLevel   = "info"

	DefaultMaxFileBytes       int64 = 100 * 1024 * 1024
	DefaultMaxTotalBytes      int64 = 500 * 1024 * 1024
	DefaultMultipartMaxMemory int64 = 8 * 1024 * 1024
	DefaultMaxDownloads             = 10
	DefaultAccessCodeLength         = 6
	DefaultTokenTTLHours            = 12
	DefaultCleanupBatchSize         = 200

	configFileName  = ".filedrop.toml"
	configDirEnvKey = "FILEDROP_CONFIG_DIR"
)

// TransferConfig defines upload and download policy for transfers.
type TransferConfig struct {
	MaxFileBytes       int64 `toml:"max_file_bytes" env:"FILEDROP_MAX_FILE_BYTES"`
	MaxTotalBytes      int64 `toml:"max_total_bytes" env:"FILEDROP_MAX_TOTAL_BYTES"`
	MultipartMaxMemory int64 `toml:"multipart_max_memory" env:"FILEDROP_MULTIPART_MAX_MEMORY"`
	MaxDownloads       int   `toml:"max_downloads" env:"FILEDROP_MAX_DOWNLOADS"`
	AccessCodeLength   int   `toml:"access_code_length" env:"FILEDROP_ACCESS_CODE_LENGTH"`
	CleanupBatchSize   int   `toml:"cleanup_batch_size" env:"FILEDROP_CLEANUP_BATCH_SIZE"`
}

// AuthConfig defines the admin credential and token signing settings.
type AuthConfig struct {
	AdminPasswordHash string `toml:"admin_password_hash" env:"FILEDROP_ADMIN_PASSWORD_HASH"`
	JWTSecret         string `toml:"jwt_secret" env:"FILEDROP_JWT_SECRET"`
	TokenTTLHours     int    `toml:"token_ttl_hours" env:"FILEDROP_TOKEN_TTL_HOURS"`
}

// S3Config defines the optional S3-compatible blob backend. When Bucket is
// empty, blobs are stored on local disk under BlobDir.
type S3Config struct {
	Bucket          string `toml:"bucket" env:"FILEDROP_S3_BUCKET"`
	Region          string `toml:"region" env:"FILEDROP_S3_REGION"`
	AccessKeyID     string `toml:"access_key_id" env:"FILEDROP_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `toml:"secret_access_key" env:"FILEDROP_S3_SECRET_ACCESS_KEY"`
	Endpoint        string `toml:"endpoint" env:"FILEDROP_S3_ENDPOINT"`
	KeyPrefix       string `toml:"key_prefix" env:"FILEDROP_S3_KEY_PREFIX"`
}

// Config defines runtime configuration for filedrop.
type Config struct {
	APIURL             string         `toml:"api_url" env:"FILEDROP_API_URL"`
	DBPath             string         `toml:"db_path" env:"FILEDROP_DB"`
	BlobDir            string         `toml:"blob_dir" env:"FILEDROP_BLOB_DIR"`
	LogLevel           string         `toml:"log_level" env:"FILEDROP_LOG_LEVEL"`
	CORSAllowedOrigins []string       `toml:"cors_allowed_origins" env:"FILEDROP_CORS_ALLOWED_ORIGINS"`
	Transfers          TransferConfig `toml:"transfers"`
	Auth               AuthConfig     `toml:"auth"`
	S3                 S3Config       `toml:"s3"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:   DefaultAPIURL,
		DBPath:   "",
		BlobDir:  "",
		LogLevel: DefaultLogLevel,
		Transfers: TransferConfig{
			MaxFileBytes:       DefaultMaxFileBytes,
			MaxTotalBytes:      DefaultMaxTotalBytes,
			MultipartMaxMemory: DefaultMultipartMaxMemory,
			MaxDownloads:       DefaultMaxDownloads,
			AccessCodeLength:   DefaultAccessCodeLength,
			CleanupBatchSize:   DefaultCleanupBatchSize,
		},
		Auth: AuthConfig{
			TokenTTLHours: DefaultTokenTTLHours,
		},
	}
}

// Load reads config from the config file and applies environment overrides.
func Load() (*Config, error) {
	cfg := Default()

	path, err := Path()
	if err != nil {
		return nil, err
	}
	if _, err := loadFileIfExists(path, &cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.DBPath == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfg.DBPath = filepath.Join(cwd, DefaultDBFileName)
		}
	}
	if cfg.BlobDir == "" && cfg.DBPath != "" {
		cfg.BlobDir = filepath.Join(filepath.Dir(cfg.DBPath), ".filedrop", "blobs")
	}

	cfg.normalizeTransferDefaults()

	return &cfg, nil
}

// Path returns the config file path: the FILEDROP_CONFIG_DIR override, an
// existing project-local file, or the file in the user's home directory.
func Path() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(configDirEnvKey)); dir != "" {
		return filepath.Join(dir, configFileName), nil
	}

	if cwd, err := os.Getwd(); err == nil {
		projectPath := filepath.Join(cwd, configFileName)
		if info, statErr := os.Stat(projectPath); statErr == nil && !info.IsDir() {
			return projectPath, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

func (c *Config) normalizeTransferDefaults() {
	if c.Transfers.MaxFileBytes <= 0 {
		c.Transfers.MaxFileBytes = DefaultMaxFileBytes
	}
	if c.Transfers.MaxTotalBytes <= 0 {
		c.Transfers.MaxTotalBytes = DefaultMaxTotalBytes
	}
	if c.Transfers.MultipartMaxMemory <= 0 {
		c.Transfers.MultipartMaxMemory = DefaultMultipartMaxMemory
	}
	if c.Transfers.MaxDownloads <= 0 {
		c.Transfers.MaxDownloads = DefaultMaxDownloads
	}
	if c.Transfers.AccessCodeLength <= 0 {
		c.Transfers.AccessCodeLength = DefaultAccessCodeLength
	}
	if c.Transfers.CleanupBatchSize <= 0 {
		c.Transfers.CleanupBatchSize = DefaultCleanupBatchSize
	}
	if c.Auth.TokenTTLHours <= 0 {
		c.Auth.TokenTTLHours = DefaultTokenTTLHours
	}
}

var allowedKeys = []string{
	"api_url",
	"db_path",
	"blob_dir",
	"log_level",
	"cors_allowed_origins",
	"transfers.max_file_bytes",
	"transfers.max_total_bytes",
	"transfers.multipart_max_memory",
	"transfers.max_downloads",
	"transfers.access_code_length",
	"transfers.cleanup_batch_size",
	"auth.admin_password_hash",
	"auth.jwt_secret",
	"auth.token_ttl_hours",
	"s3.bucket",
	"s3.region",
	"s3.access_key_id",
	"s3.secret_access_key",
	"s3.endpoint",
	"s3.key_prefix",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "db_path":
		return c.DBPath, nil
	case "blob_dir":
		return c.BlobDir, nil
	case "log_level":
		return c.LogLevel, nil
	case "cors_allowed_origins":
		return strings.Join(c.CORSAllowedOrigins, ","), nil
	case "transfers.max_file_bytes":
		return strconv.FormatInt(c.Transfers.MaxFileBytes, 10), nil
	case "transfers.max_total_bytes":
		return strconv.FormatInt(c.Transfers.MaxTotalBytes, 10), nil
	case "transfers.multipart_max_memory":
		return strconv.FormatInt(c.Transfers.MultipartMaxMemory, 10), nil
	case "transfers.max_downloads":
		return strconv.Itoa(c.Transfers.MaxDownloads), nil
	case "transfers.access_code_length":
		return strconv.Itoa(c.Transfers.AccessCodeLength), nil
	case "transfers.cleanup_batch_size":
		return strconv.Itoa(c.Transfers.CleanupBatchSize), nil
	case "auth.admin_password_hash":
		return c.Auth.AdminPasswordHash, nil
	case "auth.jwt_secret":
		return c.Auth.JWTSecret, nil
	case "auth.token_ttl_hours":
		return strconv.Itoa(c.Auth.TokenTTLHours), nil
	case "s3.bucket":
		return c.S3.Bucket, nil
	case "s3.region":
		return c.S3.Region, nil
	case "s3.access_key_id":
		return c.S3.AccessKeyID, nil
	case "s3.secret_access_key":
		return c.S3.SecretAccessKey, nil
	case "s3.endpoint":
		return c.S3.Endpoint, nil
	case "s3.key_prefix":
		return c.S3.KeyPrefix, nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "transfers.max_file_bytes", "transfers.max_total_bytes", "transfers.multipart_max_memory":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "transfers.max_downloads", "transfers.access_code_length", "transfers.cleanup_batch_size", "auth.token_ttl_hours":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "cors_allowed_origins":
		return splitCSV(value), nil
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, path []string, value any) error {
	if len(path) == 0 {
		return fmt.Errorf("empty key path")
	}
	if len(path) == 1 {
		data[path[0]] = value
		return nil
	}

	child, ok := data[path[0]]
	if !ok {
		childMap := make(map[string]any)
		data[path[0]] = childMap
		return setNestedKey(childMap, path[1:], value)
	}
	childMap, ok := child.(map[string]any)
	if !ok {
		return fmt.Errorf("config key %s conflicts with an existing value", path[0])
	}
	return setNestedKey(childMap, path[1:], value)
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
