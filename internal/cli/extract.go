package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schale-tools/baad/internal/logger"
	"github.com/schale-tools/baad/pkg/container"
)

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	var (
		outputDir string
		password  string
	)

	cmd := &cobra.Command{
		Use:   "extract ARCHIVE...",
		Short: "Extract downloaded resource containers",
		Long: `Extract password-protected zip containers downloaded from the resource
catalogs. The password is derived from the archive file name; use --password
only for containers protected with a different one.

A directory argument extracts every zip found beneath it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runExtract(args, outputDir, password)
		},
	}

	cmd.Flags().StringVar(&outputDir, "output", "", "Destination directory (default: alongside each archive)")
	cmd.Flags().StringVar(&password, "password", "", "Password override for all archives")

	return cmd
}

func runExtract(args []string, outputDir, password string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}

	archives, err := collectArchives(args)
	if err != nil {
		return err
	}
	if len(archives) == 0 {
		logger.Warnf("no archives to extract")
		return nil
	}

	for _, path := range archives {
		dest := outputDir
		if dest == "" {
			dest = filepath.Dir(path)
		}
		if err := extractOne(path, dest, password); err != nil {
			return err
		}
	}
	logger.Successf("Extracted %d archives", len(archives))
	return nil
}

func collectArchives(args []string) ([]string, error) {
	var archives []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			archives = append(archives, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".zip") {
				archives = append(archives, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return archives, nil
}

func extractOne(path, destDir, password string) error {
	if password == "" {
		logger.Debugf("extracting %s with derived password", path)
		return container.ExtractArchive(path, destDir)
	}

	r, err := container.OpenWithPassword(path, password)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return r.ExtractAll(filepath.Join(destDir, stem))
}
