package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mizan/internal/backend"
	"mizan/internal/cli"
	"mizan/internal/config"
	"mizan/internal/log"
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mizanctl",
		Short: "Administer the mizan ledger",
		Long: `mizanctl inspects financial cycles, checks stored balances against the
transaction log and rolls paid obligations into the current period.

Configuration is read from the environment (and .env) exactly as the
server reads it.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cli.LoadEnvFile()
		},
	}

	cmd.AddCommand(cycleCmd())
	cmd.AddCommand(balanceCmd())
	cmd.AddCommand(rolloverCmd())
	cmd.AddCommand(migrateCmd())
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore loads configuration and opens the configured store.
func openStore(ctx context.Context) (*config.Config, *backend.BackendResult, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger := cli.SetupLogger(log.ComponentApp, cfg.LogLevel)
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentStorage)).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, res, nil
}
