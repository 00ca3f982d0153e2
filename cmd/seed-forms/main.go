package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/stemsi/formcraft-backend/internal/config"
	"github.com/stemsi/formcraft-backend/internal/database"
	"github.com/stemsi/formcraft-backend/internal/logger"
	"github.com/stemsi/formcraft-backend/internal/repository"
	"github.com/stemsi/formcraft-backend/internal/seed"
)

func main() {
	count := flag.Int("count", seed.SampleCount, "Number of sample forms")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var repo repository.FormRepository
	switch cfg.FormStore {
	case config.FormStorePostgres:
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		repo = repository.NewPostgresFormRepository(pool)
	default:
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		repo = repository.NewRedisFormRepository(rdb)
	}

	samples, err := seed.Samples(*count)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build samples")
	}

	existing, err := repo.LoadAll(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load forms")
	}

	merged, added := seed.Merge(existing, samples)
	if added == 0 {
		log.Info().Msg("Samples already present, nothing to do")
		return
	}
	if err := repo.SaveAll(ctx, merged); err != nil {
		log.Error().Err(err).Msg("Failed to save forms")
		os.Exit(1)
	}

	log.Info().
		Int("added", added).
		Int("total", len(merged)).
		Str("store", cfg.FormStore).
		Msg("Sample forms seeded")
}
