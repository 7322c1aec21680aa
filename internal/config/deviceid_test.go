package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cardwatch/internal/config"
)

func TestSetDeviceIDReplacesExistingEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := strings.Join([]string{
		"# reader at the workshop door",
		"[device]",
		"id = \"\"",
		"reader = \"/dev/ttyUSB0\"",
		"",
		"[webhook]",
		"url = \"https://example.com/hooks\"",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := config.SetDeviceID(path, "abc123def456"); err != nil {
		t.Fatalf("SetDeviceID failed: %v", err)
	}

	updated, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	text := string(updated)
	if !strings.Contains(text, "id = \"abc123def456\"") {
		t.Fatalf("expected id entry rewritten, got:\n%s", text)
	}
	if !strings.Contains(text, "# reader at the workshop door") {
		t.Fatalf("expected comments preserved, got:\n%s", text)
	}
	if !strings.Contains(text, "reader = \"/dev/ttyUSB0\"") {
		t.Fatalf("expected sibling keys preserved, got:\n%s", text)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load after rewrite failed: %v", err)
	}
	if cfg.Device.ID != "abc123def456" {
		t.Fatalf("expected persisted id, got %q", cfg.Device.ID)
	}
}

func TestSetDeviceIDInsertsIntoExistingSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := "[device]\nreader = \"/dev/ttyACM0\"\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := config.SetDeviceID(path, "reader-11aa22"); err != nil {
		t.Fatalf("SetDeviceID failed: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load after rewrite failed: %v", err)
	}
	if cfg.Device.ID != "reader-11aa22" {
		t.Fatalf("expected inserted id, got %q", cfg.Device.ID)
	}
	if cfg.Device.Reader != "/dev/ttyACM0" {
		t.Fatalf("expected reader preserved, got %q", cfg.Device.Reader)
	}
}

func TestSetDeviceIDAppendsSectionWhenAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := "[webhook]\nurl = \"https://example.com/hooks\"\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := config.SetDeviceID(path, "fresh-id"); err != nil {
		t.Fatalf("SetDeviceID failed: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load after rewrite failed: %v", err)
	}
	if cfg.Device.ID != "fresh-id" {
		t.Fatalf("expected appended id, got %q", cfg.Device.ID)
	}
	if cfg.Webhook.URL != "https://example.com/hooks" {
		t.Fatalf("expected webhook section preserved, got %q", cfg.Webhook.URL)
	}
}

func TestSetDeviceIDCreatesMissingFileFromSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	if err := config.SetDeviceID(path, "firstboot01"); err != nil {
		t.Fatalf("SetDeviceID failed: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load after create failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if cfg.Device.ID != "firstboot01" {
		t.Fatalf("expected id in fresh config, got %q", cfg.Device.ID)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(contents), "[webhook]") {
		t.Fatalf("expected sample sections in fresh config, got:\n%s", contents)
	}
}

func TestSetDeviceIDRejectsEmptyID(t *testing.T) {
	if err := config.SetDeviceID(filepath.Join(t.TempDir(), "config.toml"), "  "); err == nil {
		t.Fatal("expected error for empty id")
	}
}
