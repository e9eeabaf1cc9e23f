package cli

import (
	"github.com/spf13/cobra"

	"github.com/schale-tools/baad/internal/logger"
)

// NewApkCmd creates the apk command.
func NewApkCmd() *cobra.Command {
	var (
		version    string
		packageURL string
		update     bool
	)

	cmd := &cobra.Command{
		Use:   "apk",
		Short: "Download and extract the game package",
		Long: `Download the game package for a client version and extract its data.

The package is cached per version; an existing package is reused unless its
size no longer matches the remote one or --update is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApk(cmd, version, packageURL, update)
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Client version to download (default: latest)")
	cmd.Flags().StringVar(&packageURL, "url", "", "Package URL override (default: auto-resolve)")
	cmd.Flags().BoolVar(&update, "update", false, "Re-download even when a package is cached")

	return cmd
}

func runApk(cmd *cobra.Command, version, packageURL string, update bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := newCatalogService(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	version, err = resolveVersion(ctx, cfg, svc, version)
	if err != nil {
		return err
	}

	dataRoot, err := ensurePackage(ctx, svc, version, packageURL, update)
	if err != nil {
		return err
	}
	logger.Successf("Game data for %s available at %s", version, dataRoot)
	return nil
}
