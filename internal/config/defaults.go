package config

const (
	defaultDataDir           = "~/.local/share/cardwatch"
	defaultReaderPath        = "/dev/ttyACM0"
	defaultMaxEventAgeDays   = 7
	defaultPruneAfterDays    = 30
	defaultWebhookTimeout    = 10
	defaultSyncInterval      = 30
	defaultSyncErrorInterval = 60
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Device: Device{
			Reader: defaultReaderPath,
		},
		Storage: Storage{
			DataDir:         defaultDataDir,
			MaxEventAgeDays: defaultMaxEventAgeDays,
			PruneAfterDays:  defaultPruneAfterDays,
		},
		Webhook: Webhook{
			TimeoutSeconds: defaultWebhookTimeout,
		},
		Sync: Sync{
			IntervalSeconds:      defaultSyncInterval,
			ErrorIntervalSeconds: defaultSyncErrorInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
