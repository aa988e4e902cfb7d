package cmd

import (
	"context"
	"log/slog"

	"github.com/ordmarket/orderbook-engine/internal/config"
	"github.com/ordmarket/orderbook-engine/pkg/logger"
	"github.com/ordmarket/orderbook-engine/pkg/logger/slogx"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:  "ordmarket",
	Long: `Orderbook resolution engine for on-ledger marketplace listings`,
}

func init() {
	var configFile string

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file, e.g. `./config.yaml`")
	flags.String("network", "mainnet", "network to connect to, e.g. `mainnet` or `testnet`")

	config.BindPFlag("network", flags.Lookup("network"))

	cobra.OnInitialize(func() {
		conf := config.Parse(configFile)

		if err := logger.Init(conf.Logger); err != nil {
			logger.Panic("Failed to initialize logger", slogx.Error(err), slog.Any("config", conf.Logger))
		}
	})
}

func Execute(ctx context.Context) {
	rootCmd.AddCommand(
		NewRunCommand(),
		NewVersionCommand(),
		NewMigrateCommand(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Panic("Failed to execute root command", slogx.Error(err))
	}
}
