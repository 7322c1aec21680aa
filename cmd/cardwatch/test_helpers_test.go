package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cardwatch/internal/config"
	"cardwatch/internal/outbox"
	"cardwatch/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *outbox.Store
	configPath string
	baseDir    string
}

// setupCLIConfig builds a sandboxed config file without opening the outbox
// database, so schema-level commands see whatever layout the test lays down.
func setupCLIConfig(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)

	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("CARDWATCH_CONFIG", "")

	cfg.Device.Reader = filepath.Join(base, "reader")

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
	}
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	env := setupCLIConfig(t, opts...)
	env.store = testsupport.MustOpenStore(t, env.cfg)
	return env
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[device]\nid = %q\nreader = %q\n\n[storage]\ndata_dir = %q\n\n[webhook]\nurl = %q\napi_key = %q\n",
		cfg.Device.ID,
		cfg.Device.Reader,
		cfg.Storage.DataDir,
		cfg.Webhook.URL,
		cfg.Webhook.APIKey,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
