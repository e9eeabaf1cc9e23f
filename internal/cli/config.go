package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/schale-tools/baad/internal/logger"
	"github.com/schale-tools/baad/pkg/config"
)

// TabWidth is the width of tabs in formatted output.
const TabWidth = 2

// NewConfigCmd creates the config command with subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  "View and initialize baad configuration settings",
	}

	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigInitCmd(),
		newConfigPathCmd(),
	)

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current configuration settings",
		RunE:  runConfigShow,
	}
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file",
		Long:  "Create a default configuration file",
		RunE: func(*cobra.Command, []string) error {
			return runConfigInit(force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration file")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Long:  "Display the path of the configuration file in use",
		RunE:  runConfigPath,
	}
}

func runConfigShow(*cobra.Command, []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SETTING\tVALUE")
	_, _ = fmt.Fprintln(tw, "-------\t-----")
	_, _ = fmt.Fprintf(tw, "cache_dir\t%s\n", cfg.Settings.CacheDir)
	_, _ = fmt.Fprintf(tw, "output_dir\t%s\n", cfg.Settings.OutputDir)
	_, _ = fmt.Fprintf(tw, "max_concurrent_downloads\t%d\n", cfg.Settings.MaxConcurrent)
	_, _ = fmt.Fprintf(tw, "retries\t%d\n", cfg.Settings.Retries)
	_, _ = fmt.Fprintf(tw, "http_timeout\t%s\n", cfg.Settings.HTTPTimeout)
	_, _ = fmt.Fprintf(tw, "catalog_url\t%s\n", cfg.Settings.CatalogURL)
	_, _ = fmt.Fprintf(tw, "version\t%s\n", cfg.Settings.Version)
	_, _ = fmt.Fprintf(tw, "log_level\t%s\n", cfg.Settings.LogLevel)
	return tw.Flush()
}

func runConfigInit(force bool) error {
	path := ""
	if ConfigPath != nil {
		path = *ConfigPath
	}
	if path == "" {
		defaultPath, err := config.GetDefaultConfigPath()
		if err != nil {
			return err
		}
		path = defaultPath
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := config.DefaultConfig().SaveConfig(path); err != nil {
		return err
	}
	logger.Successf("Wrote default configuration to %s", path)
	return nil
}

func runConfigPath(*cobra.Command, []string) error {
	path := ""
	if ConfigPath != nil {
		path = *ConfigPath
	}
	if path == "" {
		defaultPath, err := config.GetDefaultConfigPath()
		if err != nil {
			return err
		}
		path = defaultPath
	}
	fmt.Println(path)
	return nil
}
