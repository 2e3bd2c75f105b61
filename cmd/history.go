package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"ipinsight/internal/config"

	"github.com/spf13/cobra"
)

func historyCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Lists and manages recorded analyses",
	}

	var (
		asJSON bool
		limit  int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "Lists recorded analyses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			a, closeApp := newApp(ctx, cfg)
			defer closeApp()

			entries := a.history.History(ctx)
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}

			if asJSON {
				return printJSON(os.Stdout, entries)
			}
			printHistory(os.Stdout, entries)

			return nil
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "Print the entries as JSON")
	list.Flags().IntVarP(&limit, "limit", "n", 0, "Print at most this many entries")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Deletes one history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			a, closeApp := newApp(ctx, cfg)
			defer closeApp()

			if !a.history.Delete(ctx, args[0]) {
				return fmt.Errorf("history entry %q not found", args[0])
			}

			return nil
		},
	}

	var days int
	clean := &cobra.Command{
		Use:   "clean",
		Short: "Deletes history entries older than --days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return errors.New("--days must be a positive number")
			}

			ctx := context.Background()

			a, closeApp := newApp(ctx, cfg)
			defer closeApp()

			_, _ = fmt.Fprintf(os.Stdout, "removed %d entries\n", a.history.CleanOlderThan(ctx, days))

			return nil
		},
	}
	clean.Flags().IntVar(&days, "days", 0, "Age in days of the oldest entry kept")

	cmd.AddCommand(list, del, clean)

	return cmd
}

func statsCommand(cfg *config.Config) *cobra.Command {
	var (
		asJSON bool
		days   int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Prints statistics derived from the history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			a, closeApp := newApp(ctx, cfg)
			defer closeApp()

			stats := a.history.Statistics(ctx)
			if days > 0 {
				stats = a.history.StatisticsForPeriod(ctx, days)
			}

			if asJSON {
				return printJSON(os.Stdout, stats)
			}
			printStatistics(os.Stdout, stats)

			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the statistics as JSON")
	cmd.Flags().IntVar(&days, "days", 0, "Only include the last days of history")

	return cmd
}
