package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/schale-tools/baad/internal/cli"
)

var (
	configPath string
	logLevel   string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}

	cancel()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baad",
		Short: "Blue Archive asset downloader",
		Long: `baad downloads and decrypts Blue Archive JP game resources:
- apk: fetch and extract the game package
- catalog: fetch the asset, table and media catalogs
- download: fetch resources with CRC verification
- extract: unpack the encrypted resource containers`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: auto-detect)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cli.ConfigPath = &configPath
	cli.LogLevel = &logLevel

	cmd.AddCommand(
		cli.NewDownloadCmd(),
		cli.NewApkCmd(),
		cli.NewCatalogCmd(),
		cli.NewListCmd(),
		cli.NewExtractCmd(),
		cli.NewCacheCmd(),
		cli.NewConfigCmd(),
		cli.NewVersionCmd(),
	)

	return cmd
}
