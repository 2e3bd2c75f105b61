package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"ipinsight/internal/config"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func cacheCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspects and manages the result cache",
	}

	var asJSON bool
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Lists cached results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			a, closeApp := newApp(ctx, cfg)
			defer closeApp()

			s := a.cache.Stats(ctx)
			if asJSON {
				return printJSON(os.Stdout, s)
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Query", "Type", "Score", "Cached", "Expires", "Size"})
			table.SetFooter([]string{"", "", "", "", strconv.Itoa(s.TotalEntries) + " entries", strconv.Itoa(s.TotalSize) + " B"})
			for _, e := range s.Entries {
				expires := formatMillis(e.ExpiresAt)
				if e.Expired {
					expires += " (expired)"
				}
				table.Append([]string{e.Query, e.Type, strconv.Itoa(e.Score), formatMillis(e.Timestamp), expires, strconv.Itoa(e.Size)})
			}
			table.Render()

			return nil
		},
	}
	stats.Flags().BoolVar(&asJSON, "json", false, "Print the cache content as JSON")

	clearCmd := &cobra.Command{
		Use:   "clear [query]",
		Short: "Removes one cached result, or all of them",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			a, closeApp := newApp(ctx, cfg)
			defer closeApp()

			if len(args) == 1 {
				a.cache.Remove(ctx, args[0])

				return
			}
			a.cache.Clear(ctx)
		},
	}

	clean := &cobra.Command{
		Use:   "clean",
		Short: "Removes expired results",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			a, closeApp := newApp(ctx, cfg)
			defer closeApp()

			_, _ = fmt.Fprintf(os.Stdout, "removed %d expired entries\n", a.cache.CleanExpired(ctx))
		},
	}

	cmd.AddCommand(stats, clearCmd, clean)

	return cmd
}
