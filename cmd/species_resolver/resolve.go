package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/bioquery/internal/checklistbank"
	"github.com/jonathan/bioquery/internal/config"
	"github.com/jonathan/bioquery/internal/eunis"
	"github.com/jonathan/bioquery/internal/fetch"
	"github.com/jonathan/bioquery/internal/gbif"
	"github.com/jonathan/bioquery/internal/globalnames"
	"github.com/jonathan/bioquery/internal/observability"
	"github.com/jonathan/bioquery/internal/policy"
	"github.com/jonathan/bioquery/internal/resolver"
	"github.com/spf13/cobra"
)

var (
	outputFormat string
	refreshCache bool
	parallel     bool
	configPath   string
	logLevel     string
)

func init() {
	rootCmd.Flags().StringVar(&outputFormat, "format", observability.FormatPretty, "Output format: pretty or json")
	rootCmd.Flags().BoolVar(&refreshCache, "refresh-cache", false, "Force refresh policy codes from EEA")
	rootCmd.Flags().BoolVar(&parallel, "parallel", false, "Run the GBIF/ChecklistBank chain and the Global Names verification concurrently")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to a JSON config file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
}

func validateFlags(_ *cobra.Command, _ []string) error {
	switch outputFormat {
	case observability.FormatPretty, observability.FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid --format %q: must be %q or %q", outputFormat, observability.FormatPretty, observability.FormatJSON)
	}
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger := observability.NewLogger(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr()).
		With(slog.String("run_id", uuid.NewString()))

	codeMatcher, err := policy.PatternMatcher(cfg.Resolver.CodePattern)
	if err != nil {
		return err
	}

	newHTTP := func(seconds int) *fetch.Client {
		return fetch.NewClient(&fetch.Options{
			Timeout:   config.Seconds(seconds),
			UserAgent: cfg.HTTP.UserAgent,
		})
	}
	timeouts := cfg.Resolver.Timeouts
	endpoints := cfg.Resolver.Endpoints

	listingHTTP := newHTTP(timeouts.PolicyListingSeconds)
	defer listingHTTP.Close()
	gbifHTTP := newHTTP(timeouts.GBIFSeconds)
	defer gbifHTTP.Close()
	clbHTTP := newHTTP(timeouts.ChecklistBankSeconds)
	defer clbHTTP.Close()
	verifierHTTP := newHTTP(timeouts.VerifierSeconds)
	defer verifierHTTP.Close()

	store := policy.NewFileStore(cfg.Resolver.CacheFile)
	cache := policy.NewCache(
		eunis.NewClient(endpoints.PolicyListing, listingHTTP),
		store,
		&policy.Options{
			MaxAge: cfg.Resolver.CacheMaxAge(),
			Logger: logger,
		},
	)
	logCacheStatus(logger, cache, store)

	if refreshCache {
		logger.Info("forcing cache refresh")
		if err := cache.Refresh(ctx); err != nil {
			logger.Warn("cache refresh failed, continuing without policy codes", "error", err)
		}
		logCacheStatus(logger, cache, store)
	}

	r := resolver.New(
		cache,
		gbif.NewClient(endpoints.GBIFMatch, gbifHTTP),
		checklistbank.NewClient(endpoints.ChecklistBank, clbHTTP),
		globalnames.NewClient(endpoints.Verifier, cfg.Resolver.PreferredSources, verifierHTTP),
		&resolver.Options{
			CodeMatcher: codeMatcher,
			Parallel:    parallel,
			Logger:      logger,
		},
	)

	identity := r.Resolve(ctx, args[0])
	if ctx.Err() != nil {
		return fmt.Errorf("interrupted by user: %w", ctx.Err())
	}

	return observability.NewPrinter(cmd.OutOrStdout()).Print(identity, outputFormat)
}

// logCacheStatus reports the size and age of the policy code snapshot.
func logCacheStatus(logger *slog.Logger, cache *policy.Cache, store *policy.FileStore) {
	if cache.Len() == 0 {
		logger.Info("policy cache empty", "file", store.Path())
		return
	}
	fetchedAt := cache.FetchedAt()
	logger.Info("policy cache ready",
		"file", store.Path(),
		"codes", cache.Len(),
		"fetched_at", fetchedAt.Format(time.RFC3339),
		"age", time.Since(fetchedAt).Round(time.Second))
}
