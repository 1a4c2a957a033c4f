package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/unfoldingWord-dev/uwcatalog/internal/utils"
	"github.com/unfoldingWord-dev/uwcatalog/pkg/catalog"
	"github.com/unfoldingWord-dev/uwcatalog/pkg/feeds"
	"github.com/unfoldingWord-dev/uwcatalog/pkg/storage"
	"github.com/unfoldingWord-dev/uwcatalog/pkg/whttp"
)

// updateCmd implements: uwcatalog update
//
//	-s, --slug string   Only rebuild this Bible resource (needs --lang)
//	-l, --lang string   Only rebuild this language (needs --slug)
//	--db                Record written files in the run ledger and print changes
//	--dbpath string     Path to the ledger (default: uwcatalog.sqlite in CWD)
//	--dry-run           Build everything in memory and list what would be written
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Rebuild the ts and uw catalogs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return fmt.Errorf("unknown command: '%s'. See 'uwcatalog update --help'", args[0])
		}

		cfg, opts, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		opts.Proxy, _ = cmd.Flags().GetString("proxy")

		slug, _ := cmd.Flags().GetString("slug")
		lang, _ := cmd.Flags().GetString("lang")
		switch {
		case slug != "" && lang != "":
			cfg.Only = feeds.Pair{Slug: slug, Lang: lang}
			utils.Log.Infof("Only rebuilding %s", cfg.Only)
		case slug != "" || lang != "":
			utils.Log.Warn("Both --slug and --lang are needed to scope a run, rebuilding everything")
		}

		client, err := whttp.NewClient(opts)
		if err != nil {
			return err
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		if dryRun {
			return runDry(cmd.Context(), cfg, client)
		}
		return runUpdate(cmd, cfg, client)
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().StringP("slug", "s", "", "Only rebuild this Bible resource slug (use with --lang)")
	updateCmd.Flags().StringP("lang", "l", "", "Only rebuild this language (use with --slug)")
	updateCmd.Flags().Bool("db", false, "Record written files in the run ledger and print changes")
	updateCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: uwcatalog.sqlite in CWD)")
	updateCmd.Flags().Bool("dry-run", false, "Build the catalogs in memory and list the files that would be written")
}

// loggingFetcher logs failed fetches at debug level. Most of them are
// expected: optional documents that simply don't exist yet.
func loggingFetcher(f whttp.Fetcher) whttp.Fetcher {
	return whttp.FetcherFunc(func(ctx context.Context, url string) (string, error) {
		body, err := f.Fetch(ctx, url)
		if err != nil {
			utils.Log.Debugf("Fetch failed: %v", err)
		}
		return body, err
	})
}

func runDry(ctx context.Context, cfg catalog.Config, client *whttp.Client) error {
	out := catalog.NewMemoryWriter()
	res, err := catalog.Run(ctx, cfg, loggingFetcher(client), out, utils.Log)
	if err != nil {
		return err
	}
	for _, p := range out.Paths() {
		b, _ := out.File(p)
		fmt.Printf("%-9s  %7d  %s\n", out.Kind(p), len(b), p)
	}
	printSummary(res)
	return nil
}

func runUpdate(cmd *cobra.Command, cfg catalog.Config, client *whttp.Client) error {
	ctx := cmd.Context()
	useDB, _ := cmd.Flags().GetBool("db")
	dbPath, _ := cmd.Flags().GetString("dbpath")
	if dbPath == "" {
		dbPath = "uwcatalog.sqlite"
	}

	lock, err := utils.NewCatalogLock(cfg.TSRoot)
	if err != nil {
		return err
	}
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()

	w := &catalog.FileWriter{}
	var changes []storage.Change
	if useDB {
		db, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		w.Ledger = db
		w.RunID = storage.NewRunID()
		w.OnChange = func(c storage.Change) { changes = append(changes, c) }
	}

	res, err := catalog.Run(ctx, cfg, loggingFetcher(client), w, utils.Log)
	if err != nil {
		return err
	}

	if useDB {
		// A scoped run does not rewrite everything, so absence means nothing.
		if !cfg.Scoped() {
			removed, err := w.Ledger.SweepRun(ctx, w.RunID, filepath.Clean(cfg.TSRoot)+string(filepath.Separator))
			if err != nil {
				return err
			}
			changes = append(changes, removed...)
		}
		if len(changes) == 0 {
			utils.Log.Info("No catalog files changed")
		}
		printChanges(changes)
	}

	printSummary(res)
	return nil
}

func printSummary(res *catalog.Result) {
	utils.Log.Infof("%d Bible resources, %d OBS languages, %d books, %d projects, uw catalog mod %d",
		len(res.Pairs), res.OBSLanguages, res.Books, res.Projects, res.LegacyMod)
}

func printChanges(changes []storage.Change) {
	for _, c := range changes {
		var emoji string
		switch c.ChangeType {
		case "added":
			emoji = "🆕"
		case "removed":
			emoji = "❌"
		case "updated":
			emoji = "🔄"
		}
		fmt.Printf("%s  %-9s  %s\n", emoji, c.Kind, c.Path)
	}
}
