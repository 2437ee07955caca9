package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/roomstack/sheetsync/internal"
	"github.com/roomstack/sheetsync/internal/util"
	"github.com/shopmonkeyus/go-common/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set by main from the build metadata.
var Version = "dev"

var cfgFile string

func mustFlagBool(cmd *cobra.Command, name string, required bool) bool {
	val, err := cmd.Flags().GetBool(name)
	if required && err != nil {
		fmt.Printf("error: %s\n", err)
		os.Exit(1)
	}
	return val
}

func mustFlagString(cmd *cobra.Command, name string, required bool) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		fmt.Printf("error: %s\n", err)
		os.Exit(1)
	}
	if required && val == "" {
		fmt.Printf("error: required flag --%s missing\n", name)
		os.Exit(1)
	}
	return val
}

// flagOrConfig resolves a flag value, falling back to the configuration key
// when the flag was not set.
func flagOrConfig(cmd *cobra.Command, name, key string) string {
	if val := mustFlagString(cmd, name, false); val != "" {
		return val
	}
	return viper.GetString(key)
}

func newLogger(cmd *cobra.Command) logger.Logger {
	if mustFlagBool(cmd, "verbose", false) {
		return logger.NewConsoleLogger(logger.LevelTrace)
	}
	if mustFlagBool(cmd, "silent", false) {
		return logger.NewConsoleLogger(logger.LevelError)
	}
	return logger.NewConsoleLogger(logger.LevelInfo)
}

// syncConfig starts from the built-in per-table rules and applies any
// overrides from the configuration file. A malformed section is ignored with
// a warning rather than aborting the run.
func syncConfig(log logger.Logger) *internal.SyncConfig {
	config := internal.DefaultSyncConfig()
	if v := viper.GetInt("sync.insert_batch_size"); v > 0 {
		config.InsertBatchSize = v
	}
	if v := viper.GetInt("sync.scan_batch_size"); v > 0 {
		config.ScanBatchSize = v
	}
	if viper.IsSet("mask") {
		rules := map[string]map[string]internal.MaskKind{}
		if err := viper.UnmarshalKey("mask", &rules); err != nil {
			log.Warn("ignoring mask configuration: %s", err)
		} else {
			config.MaskRules = rules
		}
	}
	if viper.IsSet("unique_keys") {
		keys := map[string][]string{}
		if err := viper.UnmarshalKey("unique_keys", &keys); err != nil {
			log.Warn("ignoring unique_keys configuration: %s", err)
		} else {
			config.UniqueKeys = keys
		}
	}
	return config
}

// connectDB opens the target database and verifies the connection with a
// bounded ping so a bad target fails fast instead of at first statement.
func connectDB(ctx context.Context, log logger.Logger, driver, url string) (*sql.DB, error) {
	db, err := sql.Open(driver, url)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	masked, err := util.MaskURL(url)
	if err != nil {
		masked = "(unparsable url)"
	}
	log.Debug("connected to %s", masked)
	return db, nil
}

var rootCmd = &cobra.Command{
	Use:   "sheetsync",
	Short: "Synchronize spreadsheet exports into a relational store",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = Version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("sheetsync")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.sheetsync")
	}
	viper.SetEnvPrefix("SHEETSYNC")
	viper.AutomaticEnv()
	viper.ReadInConfig()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./sheetsync.yaml)")
	rootCmd.PersistentFlags().String("schema-dir", "schemas", "directory holding versioned schema mapping documents")
	rootCmd.PersistentFlags().String("source-dir", "sources", "directory holding versioned source file exports")
	rootCmd.PersistentFlags().Bool("verbose", false, "turn on verbose logging")
	rootCmd.PersistentFlags().Bool("silent", false, "turn off all logging except errors")
}
