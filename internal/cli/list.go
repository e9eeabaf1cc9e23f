package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var (
		filter string
		cats   categoryFlags
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog entries",
		Long: `List the downloadable files recorded in the cached catalogs.

Run "baad catalog" or "baad download" first to populate the cache. Use the
category flags and --filter to narrow the listing.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runList(filter, cats)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Only list entries whose name or path contains this string")
	cmd.Flags().BoolVar(&cats.android, "android", false, "List Android asset bundles")
	cmd.Flags().BoolVar(&cats.ios, "ios", false, "List iOS asset bundles")
	cmd.Flags().BoolVar(&cats.tables, "tables", false, "List table bundles")
	cmd.Flags().BoolVar(&cats.media, "media", false, "List media resources")

	return cmd
}

func runList(filter string, cats categoryFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := newCatalogService(cfg)
	if err != nil {
		return err
	}

	idx, err := svc.LoadIndex()
	if err != nil {
		return fmt.Errorf("no cached catalogs found, run \"baad catalog\" first: %w", err)
	}
	idx = idx.Filter(filter)

	selected := cats.selected()
	entries := idx.Entries(selected...)
	if len(entries) == 0 {
		fmt.Println("No catalog entries match")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tw, "CATEGORY\tNAME\tSIZE\tCRC")
	var total int64
	for _, cat := range selected {
		for _, e := range idx.Entries(cat) {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%08x\n", cat, e.Name, humanize.Bytes(uint64(e.Size)), e.CRC)
			total += e.Size
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d files, %s total\n", len(entries), humanize.Bytes(uint64(total)))
	return nil
}
