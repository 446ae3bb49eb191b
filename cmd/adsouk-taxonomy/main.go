// Package main is the taxonomy companion command. It mirrors the external
// category tree and field definitions into the local database, clears the
// taxonomy cache, and reports cache statistics.
//
// Usage:
//
//	adsouk-taxonomy -import            # mirror categories and fields
//	adsouk-taxonomy -import -force     # skip the confirmation prompt
//	adsouk-taxonomy -clear-cache       # drop cached source responses
//	adsouk-taxonomy -stats             # show cache configuration and state
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"adsouk/internal/cache"
	"adsouk/internal/config"
	"adsouk/internal/database"
	"adsouk/internal/olx"
	"adsouk/internal/store"
	"adsouk/internal/taxonomy"
)

func main() {
	runImport := flag.Bool("import", false, "import categories and fields from the source")
	clearCache := flag.Bool("clear-cache", false, "clear cached source responses")
	force := flag.Bool("force", false, "skip confirmation prompts")
	stats := flag.Bool("stats", false, "show cache statistics")
	flag.Parse()

	if !*runImport && !*clearCache && !*stats {
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	taxonomyCache := cache.NewTaxonomyCache(
		valkeyClient,
		time.Duration(cfg.CacheTTLHours)*time.Hour,
		cfg.GroupedInvalidation,
	)

	ctx := context.Background()

	if *stats {
		printStats(taxonomyCache.Stats(ctx))
	}

	if *clearCache {
		if err := doClearCache(ctx, cfg, taxonomyCache, *force); err != nil {
			slog.Error("cache clear failed", "error", err)
			os.Exit(1)
		}
	}

	if *runImport {
		if err := doImport(ctx, cfg, taxonomyCache, *force); err != nil {
			slog.Error("import failed", "error", err)
			os.Exit(1)
		}
	}
}

func printStats(s cache.Stats) {
	fmt.Printf("cache driver:        %s\n", s.Driver)
	fmt.Printf("cache TTL:           %.0f hours\n", s.TTLHours)
	fmt.Printf("categories cached:   %v\n", s.CategoriesCached)
	fmt.Printf("grouped invalidation: %v\n", s.GroupedInvalidation)
}

func doClearCache(ctx context.Context, cfg *config.Config, tc *cache.TaxonomyCache, force bool) error {
	if !force && !confirm("Clear all cached taxonomy responses?") {
		fmt.Println("aborted")
		return nil
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	externalIDs, err := store.NewCategoryStore(db).ExternalIDs()
	if err != nil {
		return err
	}
	return tc.Clear(ctx, externalIDs)
}

func doImport(ctx context.Context, cfg *config.Config, tc *cache.TaxonomyCache, force bool) error {
	if !force && !confirm("Import the full category tree and field definitions?") {
		fmt.Println("aborted")
		return nil
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}

	source := olx.NewClient(cfg.SourceBaseURL)
	if !source.Health(ctx) {
		slog.Warn("source not reachable, relying on cached responses", "base_url", cfg.SourceBaseURL)
	}

	importer := taxonomy.NewImporter(
		source,
		tc,
		store.NewCategoryStore(db),
		store.NewFieldStore(db),
	)

	start := time.Now()
	if err := importer.Run(ctx); err != nil {
		return err
	}
	fmt.Printf("import finished in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// confirm prompts on stdin and accepts y/yes.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
