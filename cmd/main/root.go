package main

import (
	"fmt"

	"mediamarkt/crawler/internal/config"
	"mediamarkt/crawler/internal/container"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCmd builds the catalog-crawler command. Flags override the config
// file and CATALOG_* environment variables.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	var configPath string
	var allLetters bool

	cmd := &cobra.Command{
		Use:   "catalog-crawler",
		Short: "Crawl the brand catalog of a shop into one flat dataset",
		Long: `catalog-crawler walks the brand index of the shop, descends through every
brand's category tree, collects the products at the leaves and writes one row
per product to CSV and any other configured sink.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if allLetters {
				v.Set("crawl.letter_limit", 0)
			}

			cfg, err := config.Load(v, configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if err := setupLogging(cfg.Log); err != nil {
				return err
			}
			log.Info("Configuration loaded successfully")

			app, err := container.New(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize container: %w", err)
			}
			defer app.Close()

			return app.Run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "path to config file (default ./config.yaml if present)")
	flags.StringSliceP("letter", "l", nil, "glossary letter to crawl, repeatable")
	flags.BoolVar(&allLetters, "all-letters", false, "crawl every letter of the brand index")
	flags.Int("concurrency", 1, "number of category pages fetched in parallel")
	flags.Int("max-depth", 32, "maximum category depth below a brand")
	flags.String("visited-scope", "global", "lifetime of the visited set: global, brand or category")
	flags.StringP("output", "o", "/tmp/mediamarkt_products.csv", "CSV output path")
	flags.String("report", "", "write a markdown run report to this path")
	flags.String("log-level", "info", "log level: debug, info, warn, error")

	bindings := map[string]string{
		"crawl.letters":       "letter",
		"crawl.concurrency":   "concurrency",
		"crawl.max_depth":     "max-depth",
		"crawl.visited_scope": "visited-scope",
		"export.csv_path":     "output",
		"report.path":         "report",
		"log.level":           "log-level",
	}
	for key, flag := range bindings {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	return cmd
}

func setupLogging(cfg config.LogConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
