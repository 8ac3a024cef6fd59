// Command indexer rebuilds the Typesense movie index from the movies collection.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/spoileralert/backend/internal/adapters/database"
	"github.com/spoileralert/backend/internal/adapters/search"
	"github.com/spoileralert/backend/internal/application/services"
	"github.com/spoileralert/backend/internal/infrastructure/clients/jsonstore"
	"github.com/spoileralert/backend/internal/infrastructure/clients/typesense"
	"github.com/spoileralert/backend/internal/infrastructure/observability"
	"github.com/spoileralert/backend/pkg/config"
)

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete the existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	observability.InitLogger("spoileralert-indexer", cfg.Env)

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Err(err).Str("interval", intervalValue).Msg("invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reset = reset || os.Getenv("RESET_TYPESENSE") == "true"
	for {
		if err := indexOnce(ctx, cfg, reset); err != nil {
			log.Error().Err(err).Msg("reindex failed")
		}

		if interval <= 0 {
			return
		}
		reset = false
		log.Info().Dur("next_run_in", interval).Msg("reindex complete")

		select {
		case <-ctx.Done():
			log.Info().Msg("indexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, cfg *config.Config, reset bool) error {
	tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		return err
	}

	if reset {
		log.Info().Str("collection", typesense.MoviesCollection).Msg("deleting collection before reindex")
		if _, err := tsClient.Client().Collection(typesense.MoviesCollection).Delete(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to delete collection")
		}
	}
	if err := tsClient.InitSchema(ctx); err != nil {
		return err
	}

	// Read straight from disk so a long-running indexer sees catalog edits
	store := jsonstore.NewGateway(&config.StorageConfig{DataDir: cfg.Storage.DataDir})
	catalog := services.NewCatalogService(database.NewMovieAdapter(store), search.NewTypesenseAdapter(tsClient), nil)

	n, err := catalog.Reindex(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("movies", n).Msg("indexed movies")
	return nil
}
