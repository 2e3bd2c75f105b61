package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"ipinsight/internal/config"
	"ipinsight/pkg/serrors"
	"ipinsight/pkg/target"

	"github.com/spf13/cobra"
)

// describeError renders err the way the API reports it: title, code and message.
func describeError(err error) error {
	code := serrors.CodeOf(err)

	msg := err.Error()
	var se *serrors.Error
	if errors.As(err, &se) && se.Message() != "" {
		msg = se.Message()
	}

	return fmt.Errorf("%s [%s]: %s", serrors.Title(code), code, msg)
}

func analyzeCommand(cfg *config.Config) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze <ip|domain>",
		Short: "Analyzes an IP address or a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			a, closeApp := newApp(ctx, cfg)
			defer closeApp()

			out, err := a.analysis.Analyze(ctx, args[0])
			if err != nil {
				return describeError(err)
			}

			if asJSON {
				return printJSON(os.Stdout, out)
			}
			printResult(os.Stdout, args[0], out.Result, out.FromCache)

			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}

func validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <input>",
		Short: "Checks whether an input is an IP address or a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := target.Validate(args[0])
			if !v.Valid {
				return errors.New(v.Message)
			}
			_, _ = fmt.Fprintf(os.Stdout, "%s: %s (%s)\n", args[0], v.Type, v.Display)

			return nil
		},
	}
}
