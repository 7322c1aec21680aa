package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cardwatch/internal/config"
)

func TestLoadDefaultConfigExpandsPathsAndAppliesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("CARDWATCH_CONFIG", "")
	t.Setenv("CARDWATCH_API_KEY", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "cardwatch")
	if cfg.Storage.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Storage.DataDir, wantData)
	}
	if cfg.Device.Reader != "/dev/ttyACM0" {
		t.Fatalf("unexpected reader path: %q", cfg.Device.Reader)
	}
	if cfg.Device.ID != "" {
		t.Fatalf("expected empty device id by default, got %q", cfg.Device.ID)
	}
	if cfg.Storage.MaxEventAgeDays != 7 {
		t.Fatalf("unexpected max event age: %d", cfg.Storage.MaxEventAgeDays)
	}
	if cfg.Storage.PruneAfterDays != 30 {
		t.Fatalf("unexpected prune window: %d", cfg.Storage.PruneAfterDays)
	}
	if cfg.Webhook.URL != "" {
		t.Fatalf("expected empty webhook url by default, got %q", cfg.Webhook.URL)
	}
	if cfg.Webhook.TimeoutSeconds != 10 {
		t.Fatalf("unexpected webhook timeout: %d", cfg.Webhook.TimeoutSeconds)
	}
	if cfg.Sync.IntervalSeconds != 30 || cfg.Sync.ErrorIntervalSeconds != 60 {
		t.Fatalf("unexpected sync intervals: %d/%d", cfg.Sync.IntervalSeconds, cfg.Sync.ErrorIntervalSeconds)
	}
	if cfg.Metrics.Bind != "" {
		t.Fatalf("expected metrics disabled by default, got %q", cfg.Metrics.Bind)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	info, err := os.Stat(cfg.Storage.DataDir)
	if err != nil {
		t.Fatalf("expected data dir %q to exist: %v", cfg.Storage.DataDir, err)
	}
	if !info.IsDir() {
		t.Fatalf("expected %q to be directory", cfg.Storage.DataDir)
	}

	if got := cfg.DatabasePath(); got != filepath.Join(wantData, "card_reads.db") {
		t.Fatalf("unexpected database path: %q", got)
	}
	if got := cfg.LockPath(); got != filepath.Join(wantData, "cardwatchd.lock") {
		t.Fatalf("unexpected lock path: %q", got)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "cardwatch.toml")

	type payload struct {
		Device struct {
			ID     string `toml:"id"`
			Reader string `toml:"reader"`
		} `toml:"device"`
		Storage struct {
			DataDir         string `toml:"data_dir"`
			MaxEventAgeDays int    `toml:"max_event_age_days"`
		} `toml:"storage"`
		Webhook struct {
			URL            string `toml:"url"`
			APIKey         string `toml:"api_key"`
			TimeoutSeconds int    `toml:"timeout_seconds"`
		} `toml:"webhook"`
		Sync struct {
			IntervalSeconds int `toml:"interval_seconds"`
		} `toml:"sync"`
	}
	custom := payload{}
	custom.Device.ID = "reader-door-a"
	custom.Device.Reader = "/dev/ttyUSB3"
	custom.Storage.DataDir = filepath.Join(tempDir, "data")
	custom.Storage.MaxEventAgeDays = 14
	custom.Webhook.URL = "https://example.com/hooks/cards"
	custom.Webhook.APIKey = "file-secret"
	custom.Webhook.TimeoutSeconds = 5
	custom.Sync.IntervalSeconds = 15
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Device.ID != "reader-door-a" {
		t.Fatalf("expected device id from file, got %q", cfg.Device.ID)
	}
	if cfg.Device.Reader != "/dev/ttyUSB3" {
		t.Fatalf("expected reader override, got %q", cfg.Device.Reader)
	}
	if cfg.Storage.DataDir != filepath.Join(tempDir, "data") {
		t.Fatalf("expected data dir override, got %q", cfg.Storage.DataDir)
	}
	if cfg.Storage.MaxEventAgeDays != 14 {
		t.Fatalf("expected max event age 14, got %d", cfg.Storage.MaxEventAgeDays)
	}
	if cfg.Storage.PruneAfterDays != 30 {
		t.Fatalf("expected prune default preserved, got %d", cfg.Storage.PruneAfterDays)
	}
	if cfg.Webhook.URL != "https://example.com/hooks/cards" {
		t.Fatalf("expected webhook url from file, got %q", cfg.Webhook.URL)
	}
	if cfg.Webhook.TimeoutSeconds != 5 {
		t.Fatalf("expected webhook timeout 5, got %d", cfg.Webhook.TimeoutSeconds)
	}
	if cfg.Sync.IntervalSeconds != 15 {
		t.Fatalf("expected sync interval 15, got %d", cfg.Sync.IntervalSeconds)
	}
}

func TestLoadHonorsConfigEnvVar(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "env-config.toml")
	contents := "[device]\nid = \"reader-env\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CARDWATCH_CONFIG", configPath)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Device.ID != "reader-env" {
		t.Fatalf("expected device id from env-located file, got %q", cfg.Device.ID)
	}
}

func TestEnvVarSuppliesAPIKeyWhenConfigOmitsIt(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "cardwatch.toml")
	contents := "[webhook]\nurl = \"https://example.com/hooks\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CARDWATCH_API_KEY", "env-secret")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Webhook.APIKey != "env-secret" {
		t.Fatalf("expected api key from env, got %q", cfg.Webhook.APIKey)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	for _, section := range []string{"[device]", "[storage]", "[webhook]", "[sync]", "[logging]"} {
		if !strings.Contains(string(contents), section) {
			t.Fatalf("sample config missing %s section: %s", section, contents)
		}
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Storage.MaxEventAgeDays != 7 {
		t.Fatalf("expected sample to carry default age window, got %d", cfg.Storage.MaxEventAgeDays)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Webhook.TimeoutSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive timeout")
	}

	cfg = config.Default()
	cfg.Sync.IntervalSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive sync interval")
	}

	cfg = config.Default()
	cfg.Storage.MaxEventAgeDays = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative age window")
	}

	cfg = config.Default()
	cfg.Webhook.URL = "ftp://example.com/hooks"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-http webhook scheme")
	}

	cfg = config.Default()
	cfg.Metrics.Bind = "not-a-bind-address"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for malformed metrics bind")
	}
}

func TestValidateAllowsMissingWebhookURL(t *testing.T) {
	cfg := config.Default()
	cfg.Webhook.URL = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected missing webhook url to be allowed, got %v", err)
	}
}
