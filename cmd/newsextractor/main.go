package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/NewsExtractor/internal/collect"
	"github.com/TobiSchelling/NewsExtractor/internal/config"
	"github.com/TobiSchelling/NewsExtractor/internal/logger"
	"github.com/TobiSchelling/NewsExtractor/internal/metrics"
	"github.com/TobiSchelling/NewsExtractor/internal/pipeline"
	"github.com/TobiSchelling/NewsExtractor/internal/policy"
	"github.com/TobiSchelling/NewsExtractor/internal/scheduler"
	"github.com/TobiSchelling/NewsExtractor/internal/scrape"
	"github.com/TobiSchelling/NewsExtractor/internal/store"
)

var version = "dev"

var (
	verbose bool
	once    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "newsextractor <config_file> <key_file>",
	Short: "Continuous news article extraction",
	Long: "newsextractor backfills five years of news articles for each configured keyword, " +
		"then fetches the previous day every 24 hours. Articles are checked against robots.txt, " +
		"scraped, and persisted after every stage.",
	Version:           version,
	Args:              cobra.ExactArgs(2),
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return run(cmd.Context(), args[0], args[1])
	},
}

func init() {
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&once, "once", false, "Run a single backfill pass and exit")

	robotsCmd.Flags().StringVar(&robotsAgent, "user-agent", "*", "User agent to test robots.txt rules for")
	robotsCmd.Flags().DurationVar(&robotsTimeout, "timeout", 10*time.Second, "robots.txt fetch timeout")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(robotsCmd)
}

func run(parent context.Context, configPath, keyPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	creds, err := config.LoadCredentials(keyPath)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	logCfg := logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
	if verbose {
		logCfg.Level = "debug"
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, err := store.Open(ctx, creds, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sink.Close(closeCtx); err != nil {
			log.Warn("closing sink", logger.Error(err))
		}
	}()

	m := metrics.New()
	p := pipeline.New(
		collect.NewCollector(cfg.Fetcher, cfg.SearchParameters, log),
		policy.NewFilter(nil, cfg.Filter.UserAgent, cfg.Filter.Workers, cfg.Filter.Timeout, log),
		scrape.NewScraper(nil, cfg.Scraper.UserAgent, cfg.Scraper.Workers, cfg.Scraper.Timeout, log),
		sink, m, log,
	)
	s := scheduler.New(cfg, p, log, scheduler.WithMetrics(m, cfg.Metrics.Textfile))

	log.Info("starting newsextractor",
		logger.String("version", version),
		logger.String("topic", cfg.Topic),
		logger.Int("keywords", len(cfg.Keywords)),
		logger.String("on_unit_error", cfg.Scheduler.OnUnitError))

	if once {
		_, err = s.RunOnce(ctx)
	} else {
		err = s.Run(ctx)
	}
	if errors.Is(err, context.Canceled) {
		log.Info("shutting down")
		return nil
	}
	return err
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "newsextractor", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init <config_file>",
	Short: "Write an example configuration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := args[0]
		if _, err := os.Stat(target); err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Config already exists: %s\n", target)
			return nil
		}
		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created config: %s\n", target)
		fmt.Fprintln(cmd.OutOrStdout(), "Edit it to set the topic, keywords and search parameters.")
		return nil
	},
}

var (
	robotsAgent   string
	robotsTimeout time.Duration
)

var robotsCmd = &cobra.Command{
	Use:   "robots <url>...",
	Short: "Check whether robots.txt permits crawling the given URLs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := policy.NewFilter(nil, robotsAgent, 1, robotsTimeout, logger.NewNop())
		for _, u := range args {
			allowed, err := f.Allowed(cmd.Context(), u)
			switch {
			case err != nil:
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tdenied (%v)\n", u, err)
			case allowed:
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tallowed\n", u)
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tdisallowed\n", u)
			}
		}
		return nil
	},
}
