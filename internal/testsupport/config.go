package testsupport

import (
	"path/filepath"
	"testing"

	"cardwatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with a unique temp data directory per
// test. It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Device.ID = "test-device"
	cfgVal.Storage.DataDir = filepath.Join(base, "data")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithWebhook points the test config at the given endpoint and API key.
func WithWebhook(url, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Webhook.URL = url
		b.cfg.Webhook.APIKey = apiKey
	}
}

// WithDeviceID overrides the device identifier on the test config.
func WithDeviceID(id string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Device.ID = id
	}
}

// WithReaderPath overrides the card reader device path on the test config.
func WithReaderPath(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Device.Reader = path
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Storage.DataDir)
}
