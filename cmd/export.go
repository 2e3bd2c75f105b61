package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"ipinsight/internal/config"
	"ipinsight/pkg/logger"
	"ipinsight/pkg/report"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func exportCommand(cfg *config.Config) *cobra.Command {
	var (
		pdfTarget string
		outPath   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Exports statistics, history and comparisons as JSON, or one analysis as PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			a, closeApp := newApp(ctx, cfg)
			defer closeApp()

			if pdfTarget != "" {
				out, err := a.analysis.Analyze(ctx, pdfTarget)
				if err != nil {
					return describeError(err)
				}

				data, err := report.Generator{}.Generate(pdfTarget, out.Result)
				if err != nil {
					return fmt.Errorf("could not render report: %w", err)
				}

				if outPath == "" {
					outPath = report.FileName(pdfTarget, out.Result.Time())
				}

				return writeOutput(ctx, outPath, func(w io.Writer) error {
					_, err := w.Write(data)

					return err
				})
			}

			export := a.history.Export(ctx, a.comparisons.List(ctx))
			if outPath == "" {
				outPath = fmt.Sprintf("ipinsight-export-%s.json", time.Now().Format(time.DateOnly))
			}

			return writeOutput(ctx, outPath, func(w io.Writer) error {
				return printJSON(w, export)
			})
		},
	}
	cmd.Flags().StringVar(&pdfTarget, "pdf", "", "Render the analysis of this target as a PDF report")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file, - for stdout")

	return cmd
}

func writeOutput(ctx context.Context, path string, write func(w io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}

	f, err := os.Create(path) //nolint: gosec
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}

	if err := write(f); err != nil {
		_ = f.Close()

		return fmt.Errorf("could not write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("could not close %s: %w", path, err)
	}

	logger.Info(ctx, "export written", zap.String("path", path))

	return nil
}
