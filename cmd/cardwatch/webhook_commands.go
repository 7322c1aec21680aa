package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cardwatch/internal/logging"
	"cardwatch/internal/outbox"
	"cardwatch/internal/webhook"
)

func newWebhookCommand(ctx *commandContext) *cobra.Command {
	webhookCmd := &cobra.Command{
		Use:   "webhook",
		Short: "Exercise the delivery endpoint",
	}

	webhookCmd.AddCommand(newWebhookTestCommand(ctx))
	webhookCmd.AddCommand(newWebhookServeCommand(ctx))

	return webhookCmd
}

func newWebhookTestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Send a synthetic card read to the configured endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			client := webhook.NewClient(cfg)
			if !client.Configured() {
				return errors.New("no webhook URL configured; set [webhook] url first")
			}

			event := &outbox.Event{
				DeviceID:  cfg.Device.ID,
				CardID:    "TEST-0000",
				CardValue: "connectivity test",
			}
			outcome := client.Send(cmd.Context(), event)
			if !outcome.Success {
				return fmt.Errorf("delivery failed: %s", outcome.Detail)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Delivered test event to %s\n", client.URL())
			if outcome.Detail != "" {
				fmt.Fprintf(out, "Endpoint replied: %s\n", outcome.Detail)
			}
			return nil
		},
	}
}

func newWebhookServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var apiKey string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local receiver for end-to-end delivery tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			key := apiKey
			if key == "" {
				key = cfg.Webhook.APIKey
			}

			logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: "console"})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			receiver := webhook.NewReceiver(bind, key, logger)
			fmt.Fprintf(cmd.OutOrStdout(), "Receiving card reads on %s (Ctrl-C to stop)\n", bind)
			return receiver.Run(signalCtx)
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "127.0.0.1:8400", "Listen address for the test receiver")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Expected x-api-key value (default: webhook.api_key)")
	return cmd
}
