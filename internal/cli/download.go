package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schale-tools/baad/internal/logger"
	"github.com/schale-tools/baad/pkg/download"
	"github.com/schale-tools/baad/pkg/errors"
)

// NewDownloadCmd creates the download command.
func NewDownloadCmd() *cobra.Command {
	var (
		version    string
		catalogURL string
		outputDir  string
		filter     string
		concurrent int
		retries    int
		update     bool
		cats       categoryFlags
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download game resources",
		Long: `Run the full acquisition pipeline: resolve the client version, ensure the
game package is downloaded and extracted, fetch the resource catalogs, then
download the selected categories with size and CRC verification.

Files already on disk that pass verification are skipped, so an interrupted
run can simply be repeated.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDownload(cmd, downloadOptions{
				version:    version,
				catalogURL: catalogURL,
				outputDir:  outputDir,
				filter:     filter,
				concurrent: concurrent,
				retries:    retries,
				update:     update,
				cats:       cats,
			})
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Client version to download (default: latest)")
	cmd.Flags().StringVar(&catalogURL, "catalog-url", "", "Manifest root override, skips the package step")
	cmd.Flags().StringVar(&outputDir, "output", "", "Destination directory (default: configured output_dir)")
	cmd.Flags().StringVar(&filter, "filter", "", "Only download entries whose name or path contains this string")
	cmd.Flags().IntVar(&concurrent, "concurrent", 0, "Max simultaneous downloads (default: configured value)")
	cmd.Flags().IntVar(&retries, "retries", 0, "Attempts per file (default: configured value)")
	cmd.Flags().BoolVar(&update, "update", false, "Re-download the game package before fetching")
	cmd.Flags().BoolVar(&cats.android, "android", false, "Download Android asset bundles")
	cmd.Flags().BoolVar(&cats.ios, "ios", false, "Download iOS asset bundles")
	cmd.Flags().BoolVar(&cats.tables, "tables", false, "Download table bundles")
	cmd.Flags().BoolVar(&cats.media, "media", false, "Download media resources")

	return cmd
}

type downloadOptions struct {
	version    string
	catalogURL string
	outputDir  string
	filter     string
	concurrent int
	retries    int
	update     bool
	cats       categoryFlags
}

func runDownload(cmd *cobra.Command, opts downloadOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := newCatalogService(cfg)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	catalogURL := opts.catalogURL
	if catalogURL == "" {
		catalogURL = cfg.Settings.CatalogURL
	}

	version := opts.version
	if catalogURL == "" {
		version, err = resolveVersion(ctx, cfg, svc, version)
		if err != nil {
			return err
		}
		if _, err := ensurePackage(ctx, svc, version, "", opts.update); err != nil {
			return err
		}
	}

	idx, err := acquireIndex(ctx, cfg, svc, version, catalogURL, opts.update)
	if err != nil {
		return err
	}

	items := idx.Filter(opts.filter).Items(opts.cats.selected()...)
	if len(items) == 0 {
		logger.Warnf("nothing to download")
		return nil
	}

	outputDir := opts.outputDir
	if outputDir == "" {
		outputDir = cfg.Settings.OutputDir
	}
	concurrent := opts.concurrent
	if concurrent == 0 {
		concurrent = cfg.Settings.MaxConcurrent
	}
	retries := opts.retries
	if retries == 0 {
		retries = cfg.Settings.Retries
	}

	logger.Info("Downloading resources", logger.Fields{
		"files":  len(items),
		"output": outputDir,
	})

	manager := download.NewManager(cfg.Settings.HTTPTimeout, userAgent)
	outcomes := manager.FetchAll(ctx, items, download.Options{
		Dir:         outputDir,
		Concurrency: concurrent,
		Retries:     retries,
	})

	summary := summarizeOutcomes(outcomes)
	logger.Successf("Downloaded %d files (%d skipped, %d failed)",
		summary.Succeeded, summary.Skipped, summary.Failed)
	if summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d files failed", errors.ErrDownloadFailed, summary.Failed, len(items))
	}
	return nil
}
