package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/schale-tools/baad/internal/logger"
	"github.com/schale-tools/baad/pkg/cache"
)

// NewCacheCmd creates the cache command with subcommands.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the download cache",
		Long:  "Show information about and clean the cached packages and manifests",
	}

	cmd.AddCommand(
		newCacheCleanCmd(),
		newCacheInfoCmd(),
		newCacheDirCmd(),
	)

	return cmd
}

func newCacheCleanCmd() *cobra.Command {
	var (
		all       bool
		manifests bool
		packages  bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean the download cache",
		Long:  "Remove cached files to free up disk space",
		RunE: func(*cobra.Command, []string) error {
			return runCacheClean(all, manifests, packages)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Clean all cached files")
	cmd.Flags().BoolVar(&manifests, "manifests", false, "Clean only cached manifests")
	cmd.Flags().BoolVar(&packages, "packages", false, "Clean only downloaded game packages")

	return cmd
}

func newCacheInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cache information",
		Long:  "Display size and file counts of the download cache",
		RunE:  runCacheInfo,
	}
}

func newCacheDirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dir",
		Short: "Show cache directory path",
		Long:  "Display the path to the cache directory",
		RunE:  runCacheDir,
	}
}

func runCacheClean(all, manifests, packages bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	result, err := store.Clean(cache.CleanOptions{All: all, Manifests: manifests, Packages: packages})
	if err != nil {
		return err
	}

	if result.ManifestFreed > 0 {
		logger.Info("Cleaned cached manifests", logger.Fields{"size": humanize.Bytes(uint64(result.ManifestFreed))})
	}
	if result.PackageFreed > 0 {
		logger.Info("Cleaned cached packages", logger.Fields{"size": humanize.Bytes(uint64(result.PackageFreed))})
	}
	logger.Successf("Cache cleaning completed, freed %s", humanize.Bytes(uint64(result.TotalFreed)))
	return nil
}

func runCacheInfo(*cobra.Command, []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	info, err := store.GetInfo()
	if err != nil {
		return err
	}

	fmt.Printf("Cache Directory: %s\n", info.Directory)
	fmt.Printf("Total Size: %s\n", humanize.Bytes(uint64(info.TotalSize)))
	fmt.Printf("Manifests: %d files, %s\n", info.ManifestFiles, humanize.Bytes(uint64(info.ManifestSize)))
	fmt.Printf("Packages: %d files, %s\n", info.PackageFiles, humanize.Bytes(uint64(info.PackageSize)))

	versions, err := store.Versions()
	if err != nil {
		return err
	}
	if len(versions) > 0 {
		fmt.Println("Cached versions:")
		for _, v := range versions {
			fmt.Printf("  %s\n", v)
		}
	}
	return nil
}

func runCacheDir(*cobra.Command, []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	fmt.Println(store.Dir())
	return nil
}
