package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/excalift/excalift/pkg/migrate"
	"github.com/excalift/excalift/pkg/report"
)

// migrateCommand creates the migrate command that inserts exported diagram
// images after gliffy macros.
func (c *CLI) migrateCommand() *cobra.Command {
	var (
		spaces  []string
		pageID  string
		force   bool
		dryRun  bool
		noCache bool
		noMongo bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Insert exported diagram images into Confluence pages",
		Long: `Walk Confluence spaces (or a single page), download the exported image of
every Gliffy macro, and insert it inline after the macro so the diagram
survives the plugin's removal.

Pages already carrying an inserted image are skipped unless --force is
given, which replaces the previous insert. With --dry-run nothing is
written back to Confluence.`,
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

			m := migrate.New(client, c.Logger)
			m.Cache = backend
			m.Spaces = spaces
			m.PageID = pageID
			m.Force = force
			m.DryRun = dryRun

			if dryRun {
				printInfo("Dry run: no pages will be modified")
			}

			var rep *report.MigrationReport
			if isTerminal(os.Stderr) {
				ui := newProgressUI("Migrating pages")
				m.OnPage = ui.Page
				rep, err = m.Run(ctx)
				ui.Finish()
				if err != nil {
					printError("Migration failed")
					return err
				}
				printSuccess("Processed %d pages", rep.Stats.PagesProcessed)
			} else {
				spin := newSpinnerWithContext(ctx, "Migrating pages")
				spin.Start()
				rep, err = m.Run(ctx)
				if err != nil {
					spin.StopWithError("Migration failed")
					return err
				}
				spin.StopWithSuccess(fmt.Sprintf("Processed %d pages", rep.Stats.PagesProcessed))
			}

			w := report.NewWriter(cfg.Reports.Dir)
			txtPath, err := w.WriteMigrationTXT(rep)
			if err != nil {
				return err
			}
			jsonPath, err := w.WriteJSON("gliffy_migration.json", rep)
			if err != nil {
				return err
			}
			printFile(txtPath)
			printFile(jsonPath)

			if cfg.Reports.MongoURI != "" && !noMongo && !dryRun {
				if err := c.saveMigration(cmd, cfg, rep); err != nil {
					printWarning("Mongo store failed: %v", err)
				}
			}

			printKeyValue("Modified", fmt.Sprintf("%d", rep.Stats.PagesModified))
			printKeyValue("Skipped", fmt.Sprintf("%d", rep.Stats.PagesSkipped))
			printKeyValue("Images", fmt.Sprintf("%d", rep.Stats.ImagesInserted))
			if rep.Stats.Errors > 0 {
				printWarning("%d pages failed; see the report for details", rep.Stats.Errors)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&spaces, "space", "s", nil, "space key to migrate (repeatable; default: all spaces)")
	cmd.Flags().StringVarP(&pageID, "page", "p", "", "migrate a single page by ID")
	cmd.Flags().BoolVar(&force, "force", false, "replace images inserted by a previous run")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the attachment cache")
	cmd.Flags().BoolVar(&noMongo, "no-mongo", false, "skip storing the report in MongoDB")
	return cmd
}

func (c *CLI) saveMigration(cmd *cobra.Command, cfg *Config, rep *report.MigrationReport) error {
	ctx := cmd.Context()
	store, err := report.NewMongoStore(ctx, cfg.Reports.MongoURI, cfg.Reports.MongoDB)
	if err != nil {
		return err
	}
	defer store.Close(ctx)
	if err := store.SaveMigration(ctx, rep); err != nil {
		return err
	}
	printDetail("Stored in MongoDB (%s)", cfg.Reports.MongoDB)
	return nil
}
