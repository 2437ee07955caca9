package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/fatih/color"
	"github.com/robfig/cron/v3"
	"github.com/roomstack/sheetsync/internal"
	"github.com/roomstack/sheetsync/internal/dialect"
	"github.com/roomstack/sheetsync/internal/exporter"
	"github.com/roomstack/sheetsync/internal/registry"
	"github.com/roomstack/sheetsync/internal/source"
	"github.com/roomstack/sheetsync/internal/util"
	"github.com/shopmonkeyus/go-common/logger"
	"github.com/spf13/cobra"
)

func printResult(res *internal.SyncResult) {
	if !res.Success {
		color.Red("sync failed (%s): %s", res.ErrorType, res.Error)
		if verr, ok := res.Details.(*internal.ValidationError); ok {
			color.Red("  %s", verr)
			color.Red("  row: %s", util.JSONStringify(verr.Row))
		}
		return
	}
	color.Green("sync %s complete (session %s)", res.Version, res.SessionID)
	if res.Stats != nil {
		color.Green("  tables: %d, rows: %d, relationships: %d, strategy: %s",
			res.Stats.Tables, res.Stats.Rows, res.Stats.Relationships, res.Stats.Strategy)
	}
	for _, detail := range res.DetailsReport {
		fmt.Printf("  %s: +%d ~%d (checksum %s)\n", detail.TableName, detail.InsertCount, detail.UpdateCount, detail.Checksum)
	}
}

func runSync(ctx context.Context, log logger.Logger, exp *exporter.Exporter, driver, url string, req internal.SyncRequest) (*internal.SyncResult, error) {
	d, err := dialect.GetDialect(driver)
	if err != nil {
		return nil, err
	}
	db, err := connectDB(ctx, log, driver, url)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return exp.Run(ctx, db, d, req), nil
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one synchronization of the latest (or given) schema version",
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger(cmd)
		defer util.RecoverPanic(log)

		url := flagOrConfig(cmd, "url", "database.url")
		driver := flagOrConfig(cmd, "driver", "database.driver")
		strategy := flagOrConfig(cmd, "strategy", "sync.strategy")
		if url == "" || driver == "" {
			log.Error("a database --url and --driver are required")
			os.Exit(1)
		}
		if strategy == "" {
			strategy = string(internal.StrategyIncremental)
		}

		schemaDir := mustFlagString(cmd, "schema-dir", true)
		sourceDir := mustFlagString(cmd, "source-dir", true)
		exp := exporter.New(log,
			registry.NewFileRegistry(log, schemaDir),
			source.NewDirSource(log, sourceDir),
			syncConfig(log),
		)
		req := internal.SyncRequest{
			URL:      url,
			Driver:   driver,
			Version:  mustFlagString(cmd, "version", false),
			Strategy: internal.Strategy(strategy),
			DryRun:   mustFlagBool(cmd, "dry-run", false),
		}

		spec := mustFlagString(cmd, "cron", false)
		if spec == "" {
			res, err := runSync(cmd.Context(), log, exp, driver, url, req)
			if err != nil {
				log.Error("%s", err)
				os.Exit(1)
			}
			printResult(res)
			if !res.Success {
				os.Exit(1)
			}
			return
		}

		// Scheduled mode. A run that overlaps a still-active previous run is
		// skipped rather than queued.
		var running int32
		c := cron.New()
		_, err := c.AddFunc(spec, func() {
			if !atomic.CompareAndSwapInt32(&running, 0, 1) {
				log.Warn("previous run still active, skipping this trigger")
				return
			}
			defer atomic.StoreInt32(&running, 0)
			res, err := runSync(context.Background(), log, exp, driver, url, req)
			if err != nil {
				log.Error("%s", err)
				return
			}
			printResult(res)
		})
		if err != nil {
			log.Error("invalid cron expression %q: %s", spec, err)
			os.Exit(1)
		}
		c.Start()
		log.Info("scheduled sync with %q, waiting", spec)

		done := make(chan os.Signal, 1)
		signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)
		<-done
		log.Info("shutting down")
		<-c.Stop().Done()
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().String("url", "", "the database connection url")
	syncCmd.Flags().String("driver", "", "the database driver (postgres, mysql, sqlserver)")
	syncCmd.Flags().String("version", "", "the schema version to sync (default latest)")
	syncCmd.Flags().String("strategy", "", "the table strategy: incremental or overwrite")
	syncCmd.Flags().Bool("dry-run", false, "validate without writing to the database")
	syncCmd.Flags().String("cron", "", "run on a cron schedule instead of once")
}
