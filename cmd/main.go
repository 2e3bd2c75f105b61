// Package main provides the CLI entrypoint for the IP Insight service.
// It wires the subcommands, loads configuration, and initializes logging.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"ipinsight/internal/config"
	"ipinsight/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// main sets up the root Cobra command, loads configuration and logging, and
// registers subcommands before executing the CLI.
func main() {
	rootCmd := &cobra.Command{
		Use:   "ipinsight",
		Short: "Security analysis of IP addresses and domains",
	}

	// there is no way to access flags before command execution in cobra.
	// configPath here is parsed using the standard flags package.
	// following line is just added to prevent errors when Cobra is parsing the flags.
	rootCmd.PersistentFlags().StringP("config", "c", "config.yml", "Config File Path")

	configPath := flag.String("c", "config.yml", "The config file path")
	flag.CommandLine.Init(os.Args[0], flag.ContinueOnError)
	_ = flag.CommandLine.Parse(configArgs(os.Args[1:]))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("could not load config file: ", err)
	}

	if err := logger.Setup(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatal("could not set up logger: ", err)
	}

	ctx := context.Background()

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "captured panic, exiting...", zap.Any("panic", p))
			logger.Sync()

			panic(p)
		}
	}()

	rootCmd.AddCommand(
		migrateCommand(cfg),
		serveCommand(cfg),
		analyzeCommand(cfg),
		validateCommand(),
		historyCommand(cfg),
		statsCommand(cfg),
		compareCommand(cfg),
		cacheCommand(cfg),
		exportCommand(cfg),
	)

	err = rootCmd.Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1) //nolint: gocritic
	}
}

// configArgs extracts the -c/--config flag from args so the standard flag
// package does not stop at the first subcommand name.
func configArgs(args []string) []string {
	for i, arg := range args {
		switch arg {
		case "-c", "--config", "-config":
			if i+1 < len(args) {
				return []string{"-c", args[i+1]}
			}
		}
		for _, prefix := range []string{"-c=", "--config=", "-config="} {
			if len(arg) > len(prefix) && arg[:len(prefix)] == prefix {
				return []string{"-c", arg[len(prefix):]}
			}
		}
	}

	return nil
}
