package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/z-reception/backend/internal/config"
	"github.com/zhouzirui/z-reception/backend/internal/service/record"
)

func newRecordsCmd() *cobra.Command {
	var (
		path  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "records",
		Short: "List intakes stored in the local SQLite sink",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if path == "" {
				path = cfg.Sink.SQLitePath
			}
			if path == "" {
				return fmt.Errorf("no database given (use --db or SQLITE_PATH)")
			}

			store, err := record.NewSQLite(cmd.Context(), path, cfg.Sink.Table)
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No records found.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tWARD\tNAME\tAGE\tCREATED")
			for _, item := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
					item.ID, item.Ward, item.Record.Name, item.Record.Age,
					item.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&path, "db", "", "SQLite database path (defaults to SQLITE_PATH)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of records")
	return cmd
}
