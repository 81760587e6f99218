package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.APIURL != "http://127.0.0.1:7448" {
		t.Fatalf("expected default API URL, got %q", cfg.APIURL)
	}
	if cfg.DBPath != "" {
		t.Fatalf("expected empty db path, got %q", cfg.DBPath)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("expected default log level %q, got %q", DefaultLogLevel, cfg.LogLevel)
	}
	if cfg.Transfers.MaxFileBytes != DefaultMaxFileBytes {
		t.Fatalf("expected per-file default %d, got %d", DefaultMaxFileBytes, cfg.Transfers.MaxFileBytes)
	}
	if cfg.Transfers.MaxTotalBytes != DefaultMaxTotalBytes {
		t.Fatalf("expected aggregate default %d, got %d", DefaultMaxTotalBytes, cfg.Transfers.MaxTotalBytes)
	}
	if cfg.Transfers.MaxDownloads != DefaultMaxDownloads {
		t.Fatalf("expected max downloads default %d, got %d", DefaultMaxDownloads, cfg.Transfers.MaxDownloads)
	}
	if cfg.Transfers.AccessCodeLength != DefaultAccessCodeLength {
		t.Fatalf("expected code length default %d, got %d", DefaultAccessCodeLength, cfg.Transfers.AccessCodeLength)
	}
	if cfg.Auth.TokenTTLHours != DefaultTokenTTLHours {
		t.Fatalf("expected token ttl default %d, got %d", DefaultTokenTTLHours, cfg.Auth.TokenTTLHours)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, configFileName)
	if err := os.WriteFile(path, []byte(`api_url = "http://localhost:9999"
log_level = "warn"
cors_allowed_origins = ["http://localhost:5173"]

[transfers]
max_file_bytes = 1048576
max_downloads = 3

[s3]
bucket = "drops"
endpoint = "http://127.0.0.1:9000"
`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := Default()
	loaded, err := loadFileIfExists(path, &cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded {
		t.Fatal("expected config file to be loaded")
	}
	if cfg.APIURL != "http://localhost:9999" {
		t.Fatalf("expected api_url override, got %q", cfg.APIURL)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected log_level 'warn', got %q", cfg.LogLevel)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSAllowedOrigins)
	}
	if cfg.Transfers.MaxFileBytes != 1048576 {
		t.Fatalf("expected per-file override, got %d", cfg.Transfers.MaxFileBytes)
	}
	if cfg.Transfers.MaxDownloads != 3 {
		t.Fatalf("expected max downloads override, got %d", cfg.Transfers.MaxDownloads)
	}
	if cfg.Transfers.MaxTotalBytes != DefaultMaxTotalBytes {
		t.Fatalf("unset keys must keep defaults, got %d", cfg.Transfers.MaxTotalBytes)
	}
	if cfg.S3.Bucket != "drops" || cfg.S3.Endpoint != "http://127.0.0.1:9000" {
		t.Fatalf("unexpected s3 config: %+v", cfg.S3)
	}
}

func TestLoadFileMissing(t *testing.T) {
	cfg := Default()
	loaded, err := loadFileIfExists("/nonexistent/path/.filedrop.toml", &cfg)
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if loaded {
		t.Fatal("missing file should not report loaded")
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Fatal("defaults should be preserved")
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv(configDirEnvKey, t.TempDir())
	t.Setenv("FILEDROP_API_URL", "http://localhost:8111")
	t.Setenv("FILEDROP_MAX_DOWNLOADS", "7")
	t.Setenv("FILEDROP_JWT_SECRET", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://localhost:8111" {
		t.Fatalf("expected env api_url, got %q", cfg.APIURL)
	}
	if cfg.Transfers.MaxDownloads != 7 {
		t.Fatalf("expected env max downloads, got %d", cfg.Transfers.MaxDownloads)
	}
	if cfg.Auth.JWTSecret != "from-env" {
		t.Fatalf("expected env jwt secret, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.DBPath == "" {
		t.Fatal("expected db path to be defaulted")
	}
	if cfg.BlobDir == "" {
		t.Fatal("expected blob dir to be derived from db path")
	}
}

func TestIsAllowedKey(t *testing.T) {
	for _, key := range []string{
		"api_url",
		"db_path",
		"blob_dir",
		"log_level",
		"transfers.max_file_bytes",
		"transfers.max_downloads",
		"auth.jwt_secret",
		"s3.bucket",
	} {
		if !IsAllowedKey(key) {
			t.Fatalf("expected %q to be allowed", key)
		}
	}
	if IsAllowedKey("invalid") {
		t.Fatal("expected 'invalid' to not be allowed")
	}
}

func TestSetKeyRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileName)

	if err := SetKey(path, "transfers.max_downloads", "4"); err != nil {
		t.Fatalf("set nested key: %v", err)
	}
	if err := SetKey(path, "api_url", "http://localhost:7500"); err != nil {
		t.Fatalf("set top-level key: %v", err)
	}
	if err := SetKey(path, "unknown.key", "x"); err == nil {
		t.Fatal("expected error for unknown key")
	}
	if err := SetKey(path, "transfers.max_downloads", "-1"); err == nil {
		t.Fatal("expected error for non-positive integer")
	}

	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		t.Fatalf("decode written config: %v", err)
	}
	if cfg.Transfers.MaxDownloads != 4 {
		t.Fatalf("expected 4, got %d", cfg.Transfers.MaxDownloads)
	}
	if cfg.APIURL != "http://localhost:7500" {
		t.Fatalf("expected written api_url, got %q", cfg.APIURL)
	}
}

func TestGet(t *testing.T) {
	cfg := Default()
	cfg.S3.Bucket = "drops"

	value, err := cfg.Get("s3.bucket")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != "drops" {
		t.Fatalf("expected 'drops', got %q", value)
	}
	if _, err := cfg.Get("nope"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}
