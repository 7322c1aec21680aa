package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeDevice()
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeWebhook()
	c.normalizeSync()
	c.normalizeMetrics()
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizeDevice() {
	c.Device.ID = strings.TrimSpace(c.Device.ID)
	c.Device.Reader = strings.TrimSpace(c.Device.Reader)
	if c.Device.Reader == "" {
		c.Device.Reader = defaultReaderPath
	}
}

func (c *Config) normalizeStorage() error {
	var err error
	if strings.TrimSpace(c.Storage.DataDir) == "" {
		c.Storage.DataDir = defaultDataDir
	}
	if c.Storage.DataDir, err = expandPath(c.Storage.DataDir); err != nil {
		return fmt.Errorf("storage.data_dir: %w", err)
	}
	if c.Storage.MaxEventAgeDays <= 0 {
		c.Storage.MaxEventAgeDays = defaultMaxEventAgeDays
	}
	if c.Storage.PruneAfterDays <= 0 {
		c.Storage.PruneAfterDays = defaultPruneAfterDays
	}
	return nil
}

func (c *Config) normalizeWebhook() {
	c.Webhook.URL = strings.TrimSpace(c.Webhook.URL)
	c.Webhook.APIKey = strings.TrimSpace(c.Webhook.APIKey)
	if c.Webhook.APIKey == "" {
		if value, ok := os.LookupEnv("CARDWATCH_API_KEY"); ok {
			c.Webhook.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Webhook.TimeoutSeconds <= 0 {
		c.Webhook.TimeoutSeconds = defaultWebhookTimeout
	}
}

func (c *Config) normalizeSync() {
	if c.Sync.IntervalSeconds <= 0 {
		c.Sync.IntervalSeconds = defaultSyncInterval
	}
	if c.Sync.ErrorIntervalSeconds <= 0 {
		c.Sync.ErrorIntervalSeconds = defaultSyncErrorInterval
	}
}

func (c *Config) normalizeMetrics() {
	c.Metrics.Bind = strings.TrimSpace(c.Metrics.Bind)
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
	if c.Logging.File != "" {
		expanded, err := expandPath(c.Logging.File)
		if err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
		c.Logging.File = expanded
	}
	return nil
}
