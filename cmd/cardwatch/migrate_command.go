package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cardwatch/internal/outbox"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	var checkOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade a legacy outbox database to the current schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dbPath := cfg.DatabasePath()
			out := cmd.OutOrStdout()

			if checkOnly {
				layout, err := outbox.ProbeSchema(cmd.Context(), dbPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Database: %s\n", dbPath)
				switch layout {
				case outbox.LayoutMissing:
					fmt.Fprintln(out, "No database yet; the schema is created on first daemon start")
				case outbox.LayoutCurrent:
					fmt.Fprintln(out, "Schema is current; nothing to migrate")
				case outbox.LayoutLegacy:
					fmt.Fprintln(out, "Legacy schema detected; run 'cardwatch migrate' to upgrade")
				default:
					return fmt.Errorf("unrecognized schema layout in %s; refusing to migrate", dbPath)
				}
				return nil
			}

			layout, err := outbox.MigrateSchema(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			switch layout {
			case outbox.LayoutLegacy:
				fmt.Fprintf(out, "Migrated %s from the legacy schema\n", dbPath)
			case outbox.LayoutMissing:
				fmt.Fprintf(out, "Created %s with the current schema\n", dbPath)
			default:
				fmt.Fprintf(out, "Schema in %s is already current\n", dbPath)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "Probe the schema without changing it")
	return cmd
}
