package main

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"cardwatch/internal/logging"
	"cardwatch/internal/outbox"
	"cardwatch/internal/syncer"
	"cardwatch/internal/webhook"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one delivery pass against the webhook endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			// A running daemon already drains the outbox; a concurrent manual
			// pass would double-send, so take the same instance lock.
			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire instance lock: %w", err)
			}
			if !locked {
				return errors.New("cardwatchd is running and already drains the outbox; stop it before syncing manually")
			}
			defer func() { _ = lock.Unlock() }()

			store, err := outbox.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			client := webhook.NewClient(cfg)
			worker := syncer.New(cfg, store, client, logging.NewNop(), nil)
			stats, err := worker.RunOnce(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if stats.Abandoned > 0 {
				fmt.Fprintf(out, "Abandoned %d events past the delivery window\n", stats.Abandoned)
			}
			if stats.Attempted == 0 {
				fmt.Fprintln(out, "Nothing due for delivery")
				return nil
			}
			fmt.Fprintf(out, "Delivered %d of %d due events (%d failed)\n", stats.Delivered, stats.Attempted, stats.Failed)
			if stats.Failed > 0 {
				fmt.Fprintln(out, "Failed events back off and retry later; see 'cardwatch pending'")
			}
			return nil
		},
	}
}
