// Package cli implements the baad commands. Each command builds on the
// pipeline packages: catalog acquisition, the verified downloader and the
// encrypted container reader.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schale-tools/baad/internal/logger"
	"github.com/schale-tools/baad/pkg/cache"
	"github.com/schale-tools/baad/pkg/catalog"
	"github.com/schale-tools/baad/pkg/config"
	"github.com/schale-tools/baad/pkg/download"
	"github.com/schale-tools/baad/pkg/fsutil"
)

// These variables are set by the main package before commands run.
var (
	ConfigPath *string
	LogLevel   *string
)

const userAgent = "baad/" + Version

// loadConfig loads the configuration, honoring the global flags.
func loadConfig() (*config.Config, error) {
	configPath := ""
	if ConfigPath != nil {
		configPath = *ConfigPath
	}
	if configPath == "" {
		defaultPath, err := config.GetDefaultConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get default config path: %w", err)
		}
		configPath = defaultPath
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if LogLevel != nil && *LogLevel != "" {
		cfg.Settings.LogLevel = *LogLevel
	}
	logger.InitLogger(cfg.Settings.LogLevel)
	return cfg, nil
}

// openStore opens the cache store configured in cfg. The store is scoped to
// the JP server under the cache root, matching the default layout.
func openStore(cfg *config.Config) (*cache.Store, error) {
	if cfg.Settings.CacheDir != "" {
		return cache.NewStore(filepath.Join(cfg.Settings.CacheDir, "jp"))
	}
	return cache.NewDefaultStore()
}

// openGlobalStore opens the cache store scoped to the global server, kept
// apart from the JP cache under the same root.
func openGlobalStore(cfg *config.Config) (*cache.Store, error) {
	base := cfg.Settings.CacheDir
	if base == "" {
		defaultBase, err := fsutil.GetCacheDir()
		if err != nil {
			return nil, err
		}
		base = defaultBase
	}
	return cache.NewStore(filepath.Join(base, "gl"))
}

// newCatalogService builds the catalog service over the configured store.
func newCatalogService(cfg *config.Config) (*catalog.Service, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	return catalog.NewService(store, cfg.Settings.HTTPTimeout, userAgent), nil
}

// resolveVersion returns the client version to work with: the explicit flag,
// then the configured pin, then the latest published version.
func resolveVersion(ctx context.Context, cfg *config.Config, svc *catalog.Service, flagVersion string) (string, error) {
	if flagVersion != "" {
		return flagVersion, nil
	}
	if cfg.Settings.Version != "" {
		return cfg.Settings.Version, nil
	}
	version, err := svc.FetchVersion(ctx)
	if err != nil {
		return "", err
	}
	logger.Infof("Latest client version: %s", version)
	return version, nil
}

// ensurePackage makes sure the game package for a version is downloaded and
// extracted, and returns the extracted data root.
func ensurePackage(ctx context.Context, svc *catalog.Service, version, packageURL string, update bool) (string, error) {
	dataDir := svc.Store().DataDir(version)
	if !update {
		if _, err := os.Stat(dataDir); err == nil {
			logger.Debugf("package for %s already extracted", version)
			return dataDir, nil
		}
	}

	url := packageURL
	if url == "" {
		resolved, err := svc.ResolvePackageURL(ctx, version)
		if err != nil {
			return "", err
		}
		url = resolved
	}

	if _, err := svc.FetchPackage(ctx, url, version, update); err != nil {
		return "", err
	}
	return svc.ExtractPackage(ctx, version)
}

// categoryFlags is the shared category selection surface of list and download.
type categoryFlags struct {
	android bool
	ios     bool
	tables  bool
	media   bool
}

func (f *categoryFlags) selected() []catalog.Category {
	var cats []catalog.Category
	if f.android {
		cats = append(cats, catalog.CategoryAndroid)
	}
	if f.ios {
		cats = append(cats, catalog.CategoryIOS)
	}
	if f.tables {
		cats = append(cats, catalog.CategoryTable)
	}
	if f.media {
		cats = append(cats, catalog.CategoryMedia)
	}
	if len(cats) == 0 {
		return catalog.Categories()
	}
	return cats
}

func summarizeOutcomes(outcomes []download.Outcome) download.Summary {
	summary := download.Summarize(outcomes)
	for _, o := range outcomes {
		if o.Status == download.StatusFailed {
			logger.Error("Download failed", logger.Fields{
				"name":     o.Item.Name,
				"attempts": o.Attempts,
				"error":    o.Err.Error(),
			})
		}
	}
	return summary
}
