package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/Jonatas020918/myflyticketsearcher/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath  string
	envFile     string
	verbose     bool
	driver      string
	store       string
	databaseURL string
	sources     []string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "scraper",
		Short:         "Search flight offers across travel sites and track their prices.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	opts.addFlags(cmd)
	cmd.AddCommand(newSearchCmd(opts), newServeCmd(opts))
	return cmd
}

func (o *rootOptions) addFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&o.configPath, "config", "", "YAML config file")
	flags.StringVar(&o.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&o.driver, "driver", "", "Page driver: browser or http")
	flags.StringVar(&o.store, "store", "", "Store driver: memory, postgres, or sqlite")
	flags.StringVar(&o.databaseURL, "database-url", "", "Postgres DSN or SQLite path")
	flags.StringSliceVar(&o.sources, "sources", nil, "Sources to visit, in default order when empty")
}

// load builds the configuration from defaults, the YAML file, the
// environment and finally the flags that were set.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("load %s: %w", o.envFile, err)
		}
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Verbose = o.verbose
	}
	if flags.Changed("driver") {
		cfg.Driver = strings.ToLower(o.driver)
	}
	if flags.Changed("store") {
		cfg.StoreDriver = strings.ToLower(o.store)
	}
	if flags.Changed("database-url") {
		cfg.DatabaseURL = o.databaseURL
	}
	if flags.Changed("sources") {
		cfg.Sources = o.sources
	}

	logger, _ := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
