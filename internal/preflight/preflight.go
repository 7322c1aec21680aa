package preflight

import (
	"context"

	"cardwatch/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check that applies to the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	return []Result{
		CheckDirectoryAccess("Data directory", cfg.Storage.DataDir),
		CheckDatabase(ctx, "Outbox database", cfg.DatabasePath()),
		CheckReaderDevice("Reader device", cfg.Device.Reader),
		CheckIdentity("Device identity", cfg.Device.ID),
		CheckWebhook(ctx, "Webhook endpoint", cfg.Webhook.URL),
	}
}
