// Command seed creates any missing collection files under DATA_DIR and an
// initial admin account from ADMIN_USERNAME and ADMIN_PASSWORD.
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/spoileralert/backend/internal/adapters/auth"
	"github.com/spoileralert/backend/internal/adapters/database"
	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/infrastructure/clients/jsonstore"
	"github.com/spoileralert/backend/internal/infrastructure/observability"
	"github.com/spoileralert/backend/pkg/config"
	apperrors "github.com/spoileralert/backend/pkg/errors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	observability.InitLogger("spoileralert-seed", cfg.Env)

	ctx := context.Background()

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("data_dir", cfg.Storage.DataDir).Msg("failed to create data directory")
	}

	store := jsonstore.NewGateway(&cfg.Storage)
	for _, name := range jsonstore.AllCollections {
		_, err := store.Reload(ctx, name)
		switch {
		case err == nil:
			log.Info().Str("collection", name).Msg("collection exists")
		case apperrors.HasCode(err, apperrors.CodeMissingCollection):
			if err := store.SaveAll(ctx, name, nil); err != nil {
				log.Fatal().Err(err).Str("collection", name).Msg("failed to create collection")
			}
			log.Info().Str("collection", name).Msg("created empty collection")
		default:
			log.Fatal().Err(err).Str("collection", name).Msg("collection is not readable")
		}
	}

	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		log.Info().Msg("ADMIN_USERNAME or ADMIN_PASSWORD not set, skipping admin account")
		return
	}

	users := database.NewUserAdapter(store)
	if _, err := users.GetByUsername(ctx, username); err == nil {
		log.Info().Str("username", username).Msg("admin account already exists")
		return
	} else if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		log.Fatal().Err(err).Msg("failed to look up admin account")
	}

	hash, err := auth.NewBcryptHasher(0).Hash(password)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to hash admin password")
	}

	admin := &entities.User{
		Username:  username,
		FirstName: "Site",
		LastName:  "Admin",
		Email:     os.Getenv("ADMIN_EMAIL"),
		Password:  hash,
		Role:      entities.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatal().Err(err).Msg("failed to create admin account")
	}
	log.Info().Int("user_id", admin.ID).Str("username", username).Msg("admin account created")
}
