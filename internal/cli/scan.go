package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/excalift/excalift/pkg/report"
	"github.com/excalift/excalift/pkg/scanner"
)

// scanCommand creates the scan command for inventorying gliffy usage.
func (c *CLI) scanCommand() *cobra.Command {
	var (
		spaces  []string
		pageID  string
		format  string
		noCache bool
		noMongo bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Inventory Confluence pages and their Gliffy diagrams",
		Long: `Walk Confluence spaces (or a single page) and report every page together
with its Gliffy diagram count. Reports are written to the configured
reports directory and, when a Mongo URI is configured, stored in MongoDB.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, backend, err := c.newConfluenceClient(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer backend.Close()

			sc := scanner.New(client, c.Logger)
			sc.Spaces = spaces
			sc.PageID = pageID

			spin := newSpinnerWithContext(ctx, "Scanning Confluence")
			spin.Start()
			inventory, err := sc.Scan(ctx)
			if err != nil {
				spin.StopWithError("Scan failed")
				return err
			}
			spin.StopWithSuccess(fmt.Sprintf("Scanned %d pages", len(inventory)))

			w := report.NewWriter(cfg.Reports.Dir)
			switch format {
			case "json":
				path, err := w.WriteJSON("gliffy_inventory.json", inventory)
				if err != nil {
					return err
				}
				printFile(path)
			case "txt":
				path, err := w.WriteInventoryTXT(inventory)
				if err != nil {
					return err
				}
				printFile(path)
			default:
				return fmt.Errorf("unknown format %q (want txt or json)", format)
			}

			if cfg.Reports.MongoURI != "" && !noMongo {
				if err := c.saveInventory(cmd, cfg, inventory); err != nil {
					printWarning("Mongo store failed: %v", err)
				}
			}

			gliffyPages := 0
			for _, p := range inventory {
				if p.GliffyCount > 0 {
					gliffyPages++
				}
			}
			printInfo("%d of %d pages contain Gliffy diagrams", gliffyPages, len(inventory))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&spaces, "space", "s", nil, "space key to scan (repeatable; default: all spaces)")
	cmd.Flags().StringVarP(&pageID, "page", "p", "", "scan a single page by ID")
	cmd.Flags().StringVarP(&format, "format", "f", "txt", "report format: txt or json")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the HTTP response cache")
	cmd.Flags().BoolVar(&noMongo, "no-mongo", false, "skip storing the report in MongoDB")
	return cmd
}

func (c *CLI) saveInventory(cmd *cobra.Command, cfg *Config, inventory []report.InventoryPage) error {
	ctx := cmd.Context()
	store, err := report.NewMongoStore(ctx, cfg.Reports.MongoURI, cfg.Reports.MongoDB)
	if err != nil {
		return err
	}
	defer store.Close(ctx)
	if err := store.SaveInventory(ctx, cfg.Confluence.URL, inventory); err != nil {
		return err
	}
	printDetail("Stored in MongoDB (%s)", cfg.Reports.MongoDB)
	return nil
}
