package main

import (
	"context"
	"fmt"
	"os"

	"ipinsight/internal/config"

	"github.com/spf13/cobra"
)

func compareCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Saves analyses side by side",
	}

	save := &cobra.Command{
		Use:   "save <ip|domain>...",
		Short: "Analyzes targets and saves the results for comparison",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			a, closeApp := newApp(ctx, cfg)
			defer closeApp()

			for _, query := range args {
				out, err := a.analysis.Analyze(ctx, query)
				if err != nil {
					return fmt.Errorf("%s: %w", query, describeError(err))
				}

				id, err := a.comparisons.Save(ctx, query, out.Result)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(os.Stdout, "%s saved as %s\n", query, id)
			}

			return nil
		},
	}

	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "Lists saved comparisons, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			a, closeApp := newApp(ctx, cfg)
			defer closeApp()

			items := a.comparisons.List(ctx)
			if asJSON {
				return printJSON(os.Stdout, items)
			}
			printComparisons(os.Stdout, items)

			return nil
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "Print the comparisons as JSON")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Prints one saved comparison",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			a, closeApp := newApp(ctx, cfg)
			defer closeApp()

			c, ok := a.comparisons.Get(ctx, args[0])
			if !ok {
				return fmt.Errorf("comparison %q not found", args[0])
			}
			printResult(os.Stdout, c.Query, &c.Result, false)

			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove <id>",
		Short: "Removes one saved comparison",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			a, closeApp := newApp(ctx, cfg)
			defer closeApp()

			a.comparisons.Remove(ctx, args[0])
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Removes every saved comparison",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			a, closeApp := newApp(ctx, cfg)
			defer closeApp()

			a.comparisons.Clear(ctx)
		},
	}

	cmd.AddCommand(save, list, show, remove, clearCmd)

	return cmd
}
