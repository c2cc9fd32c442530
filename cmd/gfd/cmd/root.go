package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"cosmossdk.io/log"
	"github.com/cometbft/cometbft/abci/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"goldenflop/apps/chain/internal/app"
)

// EnvPrefix lets every flag be set via environment, e.g. GFD_ADDR.
const EnvPrefix = "GFD"

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gfd",
		Short:         "goldenflop ABCI daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			home := viper.GetString("home")
			addr := viper.GetString("addr")
			transport := viper.GetString("transport")

			logger := log.NewLogger(os.Stderr)

			a, err := app.New(home, logger)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}

			srv, err := server.NewServer(addr, transport, a)
			if err != nil {
				return fmt.Errorf("create abci server: %w", err)
			}
			if err := srv.Start(); err != nil {
				return fmt.Errorf("start abci server: %w", err)
			}
			defer func() { _ = srv.Stop() }()

			logger.Info("abci server listening", "addr", addr, "transport", transport)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			return nil
		},
	}

	rootCmd.Flags().String("home", ".goldenflop", "app home directory (state is stored under <home>/app)")
	rootCmd.Flags().String("addr", "tcp://127.0.0.1:26658", "ABCI listen address")
	rootCmd.Flags().String("transport", "socket", "ABCI transport (socket|grpc)")

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindPFlags(rootCmd.Flags())

	return rootCmd
}

func Execute() error {
	return NewRootCmd().Execute()
}
