package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cardwatch/internal/config"
	"cardwatch/internal/outbox"
)

func newRetryCommand(ctx *commandContext) *cobra.Command {
	var includeAbandoned bool

	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Schedule pending events for immediate delivery",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *outbox.Store) error {
				out := cmd.OutOrStdout()
				if includeAbandoned {
					reinstated, err := store.Reinstate(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Reinstated %d abandoned events\n", reinstated)
				}
				updated, err := store.RetryDueNow(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Marked %d pending events due now\n", updated)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&includeAbandoned, "abandoned", false, "Also reinstate abandoned events before scheduling")
	return cmd
}

func newPruneCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete delivered events past the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *outbox.Store) error {
				retention := days
				if retention == 0 {
					retention = cfg.Storage.PruneAfterDays
				}
				if retention < 0 {
					return fmt.Errorf("days must not be negative, got %d", retention)
				}
				cutoff := time.Now().UTC().AddDate(0, 0, -retention)
				removed, err := store.PruneDelivered(cmd.Context(), cutoff)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d delivered events older than %d days\n", removed, retention)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Retention in days (default: storage.prune_after_days)")
	return cmd
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export every event to a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(args[0])
			if target == "" {
				return fmt.Errorf("export path is required")
			}
			expanded, err := config.ExpandPath(target)
			if err != nil {
				return fmt.Errorf("resolve export path: %w", err)
			}

			return ctx.withStore(func(cfg *config.Config, store *outbox.Store) error {
				events, err := store.Export(cmd.Context())
				if err != nil {
					return err
				}
				csv := renderCSV(exportHeaders, buildExportRows(events))
				if err := os.WriteFile(expanded, []byte(csv+"\n"), 0o644); err != nil {
					return fmt.Errorf("write export file: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d events to %s\n", len(events), expanded)
				return nil
			})
		},
	}
}
