package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cardwatch/internal/config"
	"cardwatch/internal/outbox"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show outbox delivery statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *outbox.Store) error {
				summary, err := store.Summarize(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, buildStatsView(summary))
				}

				out := cmd.OutOrStdout()
				if summary.Total == 0 {
					fmt.Fprintln(out, "Outbox is empty")
					return nil
				}
				fmt.Fprintf(out, "Total events: %d\n", summary.Total)
				fmt.Fprintf(out, "Captured last hour: %d\n", summary.LastHour)
				fmt.Fprintf(out, "Failed delivery attempts: %d\n", summary.FailedAttempts)
				table := renderTable(
					[]string{"Status", "Count", "Share"},
					buildStatsRows(summary),
					[]columnAlignment{alignLeft, alignRight, alignRight},
				)
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newRecentCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the most recently captured events",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("limit must be positive, got %d", limit)
			}
			return ctx.withStore(func(cfg *config.Config, store *outbox.Store) error {
				events, err := store.Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, buildEventViews(events))
				}

				out := cmd.OutOrStdout()
				if len(events) == 0 {
					fmt.Fprintln(out, "No events captured yet")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Card", "Value", "Status", "Attempts", "Captured (UTC)"},
					buildRecentRows(events),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of events to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newPendingCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Show undelivered events and their retry state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *outbox.Store) error {
				events, err := store.Pending(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, buildEventViews(events))
				}

				out := cmd.OutOrStdout()
				if len(events) == 0 {
					fmt.Fprintln(out, "No pending events; the outbox is drained")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Card", "Attempts", "Last Attempt (UTC)", "Next Attempt (UTC)", "Last Response"},
					buildPendingRows(events),
					[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}
