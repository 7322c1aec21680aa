package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. A missing webhook URL is not an
// error: capture keeps appending to the outbox and delivery waits until the
// endpoint is configured.
func (c *Config) Validate() error {
	if err := c.validateDevice(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateWebhook(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateMetrics(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDevice() error {
	if strings.TrimSpace(c.Device.Reader) == "" {
		return errors.New("device.reader must be set")
	}
	return nil
}

func (c *Config) validateStorage() error {
	return ensurePositiveMap(map[string]int{
		"storage.max_event_age_days": c.Storage.MaxEventAgeDays,
		"storage.prune_after_days":   c.Storage.PruneAfterDays,
	})
}

func (c *Config) validateWebhook() error {
	if c.Webhook.URL != "" {
		parsed, err := url.Parse(c.Webhook.URL)
		if err != nil {
			return fmt.Errorf("webhook.url is not a valid URL: %w", err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("webhook.url must use http or https, got %q", c.Webhook.URL)
		}
		if parsed.Host == "" {
			return fmt.Errorf("webhook.url is missing a host: %q", c.Webhook.URL)
		}
	}
	return ensurePositiveMap(map[string]int{
		"webhook.timeout_seconds": c.Webhook.TimeoutSeconds,
	})
}

func (c *Config) validateSync() error {
	return ensurePositiveMap(map[string]int{
		"sync.interval_seconds":       c.Sync.IntervalSeconds,
		"sync.error_interval_seconds": c.Sync.ErrorIntervalSeconds,
	})
}

func (c *Config) validateMetrics() error {
	if c.Metrics.Bind == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Metrics.Bind); err != nil {
		return fmt.Errorf("metrics.bind must be a host:port address: %w", err)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
