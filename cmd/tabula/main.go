// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface (CLI) for the Tabula
// application using the Cobra library. It defines the root command,
// subcommands (like fetch and snapshot), flags, and the main entry
// point for execution.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/toeirei/tabula/buildvars"
	"github.com/toeirei/tabula/internal/config"
	"github.com/toeirei/tabula/internal/db"
	"github.com/toeirei/tabula/internal/httpx"
	"github.com/toeirei/tabula/internal/i18n"
	"github.com/toeirei/tabula/internal/logging"
	"github.com/toeirei/tabula/internal/source"
	"github.com/toeirei/tabula/internal/tui"
)

var cfgFile string

// cfg and store are populated by the root command's PersistentPreRunE and
// shared by all subcommands.
var (
	cfg   config.Config
	store db.Store
)

// main is the entry point of the application.
func main() {
	if err := execute(rootCmd); err != nil {
		// The error is already printed by Cobra on failure.
		os.Exit(1)
	}
}

// execute runs the command and closes the snapshot store afterwards, on
// the error path as well as on success.
func execute(cmd *cobra.Command) error {
	defer func() {
		if store != nil {
			_ = store.Close()
		}
	}()
	return cmd.Execute()
}

var rootCmd *cobra.Command

func init() {
	rootCmd = newRootCmd()
}

// newRootCmd creates and configures a new root cobra command.
// This function is used to create the main application command as well as
// fresh instances for isolated testing.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tabula",
		Short: "Tabula is a terminal data table for remote JSON APIs.",
		Long: `Tabula turns any paginated JSON API into a browsable table.
Point a profile at an endpoint and Tabula handles paging, sorting,
searching and computed columns, in the terminal or on the command line.
Collections can be snapshotted into a local database for offline browsing.

Running without a subcommand launches the interactive TUI.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadConfig[config.Config](cmd, config.Defaults(), &cfgFile)
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			applyFlagOverrides(cmd)

			i18n.Init(cfg.Language)
			logging.SetDebug(cfg.Debug)

			store, err = db.NewStoreFromDSN(cfg.Database.Type, cfg.Database.DSN)
			if err != nil {
				// Snapshots are an optional feature; browsing still works
				// without a store.
				logging.Warnf("snapshot store unavailable: %v", err)
				store = nil
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(cfg, store, newSourceFactory())
		},
	}

	// Add subcommands to the newly created root command.
	cmd.AddCommand(newFetchCmd())
	cmd.AddCommand(newSnapshotCmd())
	cmd.AddCommand(newProfilesCmd())

	// Set version
	cmd.Version = buildvars.VersionOrDefault("dev")

	// Define flags
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is tabula.yaml in the user config dir or current dir)")
	cmd.PersistentFlags().String("profile", "", "profile to browse (default from config)")
	cmd.PersistentFlags().String("language", "", `interface language ("en", "de")`)
	cmd.PersistentFlags().String("db-type", "", "snapshot database type (sqlite, postgres, mysql)")
	cmd.PersistentFlags().String("db-dsn", "", "snapshot database connection string (DSN)")
	cmd.PersistentFlags().Int("page-size", 0, "records per page")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	return cmd
}

// applyFlagOverrides maps dashed flag names onto config keys viper's flag
// binding cannot reach (nested keys, underscored keys).
func applyFlagOverrides(cmd *cobra.Command) {
	if v, _ := cmd.Flags().GetString("db-type"); v != "" {
		cfg.Database.Type = v
	}
	if v, _ := cmd.Flags().GetString("db-dsn"); v != "" {
		cfg.Database.DSN = v
	}
	if cmd.Flags().Changed("page-size") {
		if v, _ := cmd.Flags().GetInt("page-size"); v > 0 {
			cfg.PageSize = v
		}
	}
}

// buildClient wires the HTTP middleware stack from the configuration:
// user agent and gzip on every request, the Redis response cache when
// enabled, and retries closest to the wire.
func buildClient() *httpx.Client {
	client := httpx.NewClient(nil)

	middleware := []httpx.MiddlewareFunc{
		httpx.UserAgent(httpx.UserAgentConfig{App: "tabula", Version: buildvars.VersionOrDefault("dev")}),
		httpx.Gzip(),
	}

	if cfg.Cache.Enabled {
		redisClient, err := httpx.NewRedisClient(cfg.Cache.Addr)
		if err != nil {
			logging.Warnf("response cache disabled: %v", err)
		} else {
			ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
			middleware = append(middleware, httpx.Cache(httpx.CacheConfig{Redis: redisClient, TTL: ttl}))
		}
	}

	middleware = append(middleware, httpx.Retry())
	client.Use(middleware...)
	return client
}

// newSourceFactory returns the source builder injected into the TUI. The
// profile's mode decides between server-side paging and a one-shot
// client-side fetch.
func newSourceFactory() tui.SourceFactory {
	return func(p config.Profile) source.Source {
		rest := source.NewRESTSource(p.RESTConfig(), buildClient())
		if p.Mode == "client" {
			return source.NewClientSideSource(rest)
		}
		return rest
	}
}
