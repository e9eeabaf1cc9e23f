package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/schale-tools/baad/internal/logger"
	"github.com/schale-tools/baad/pkg/catalog"
	"github.com/schale-tools/baad/pkg/config"
)

// NewCatalogCmd creates the catalog command.
func NewCatalogCmd() *cobra.Command {
	var (
		version    string
		catalogURL string
		force      bool
		global     bool
	)

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Fetch the resource catalogs",
		Long: `Fetch the asset bundle, table and media catalogs and cache them.

Without --catalog-url the manifest root is recovered from the extracted game
package, so run "baad apk" first or let "baad download" handle both steps.
The root can also be a patch channel name or bare host.

With --global the consolidated resource-data document of the global server is
fetched instead; this always needs an explicit catalog URL.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if global {
				return runGlobalCatalog(cmd, catalogURL, force)
			}
			return runCatalog(cmd, version, catalogURL, force)
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Client version to fetch catalogs for (default: latest)")
	cmd.Flags().StringVar(&catalogURL, "catalog-url", "", "Manifest root override (URL, patch channel or host)")
	cmd.Flags().BoolVar(&force, "force", false, "Refetch even when manifests are cached")
	cmd.Flags().BoolVar(&global, "global", false, "Fetch the global server's resource data instead")

	return cmd
}

func runCatalog(cmd *cobra.Command, version, catalogURL string, force bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := newCatalogService(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	idx, err := acquireIndex(ctx, cfg, svc, version, catalogURL, force)
	if err != nil {
		return err
	}

	for _, cat := range catalog.Categories() {
		logger.Info("Catalog fetched", logger.Fields{"category": string(cat), "entries": idx.Counts()[cat]})
	}
	logger.Successf("Cached %d catalog entries under %s", idx.Total(), svc.Store().Dir())
	return nil
}

func runGlobalCatalog(cmd *cobra.Command, catalogURL string, force bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if catalogURL == "" {
		catalogURL = cfg.Settings.CatalogURL
	}
	if catalogURL == "" {
		return fmt.Errorf("the global server needs an explicit catalog URL, set --catalog-url")
	}

	store, err := openGlobalStore(cfg)
	if err != nil {
		return err
	}
	svc := catalog.NewService(store, cfg.Settings.HTTPTimeout, userAgent)

	data, err := svc.FetchResourceData(cmd.Context(), strings.TrimSuffix(catalogURL, "/"), force)
	if err != nil {
		return err
	}
	logger.Successf("Cached resource data (%s) under %s", humanize.Bytes(uint64(len(data))), store.Dir())
	return nil
}

// acquireIndex resolves the manifest root and fetches the manifest index.
// The explicit flag wins over the configured catalog URL; with neither set the
// root is recovered from the extracted game package.
func acquireIndex(ctx context.Context, cfg *config.Config, svc *catalog.Service, version, catalogURL string, force bool) (*catalog.Index, error) {
	if catalogURL == "" {
		catalogURL = cfg.Settings.CatalogURL
	}

	if catalogURL == "" && version == "" {
		resolved, err := resolveVersion(ctx, cfg, svc, version)
		if err != nil {
			return nil, err
		}
		version = resolved
	}

	root, err := svc.ResolveManifestRoot(ctx, version, catalogURL)
	if err != nil {
		return nil, err
	}
	logger.Debugf("manifest root: %s", root)

	return svc.FetchManifests(ctx, root, force)
}
