// authm is the maintenance CLI: bootstrap an admin account or run a
// one-shot purge of expired whitelist tokens.
package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"authd/internal/config"
	"authd/internal/gormw"
	"authd/internal/models"
	"authd/internal/password"
	"authd/internal/storage"
)

var (
	configPath  = flag.String("c", os.Getenv("CONFIG_PATH"), "Path to configuration file")
	createAdmin = flag.String("create-admin", "", "Create an admin account, format user:pass")
	purge       = flag.Bool("purge", false, "Purge expired whitelist tokens and exit")
)

func main() {
	flag.Parse()
	if *configPath == "" {
		log.Fatal().Msg("Config path must be provided via CONFIG_PATH env var or -c flag")
	}

	_ = godotenv.Load()

	cfg := config.LoadConfig(*configPath)

	db, err := gormw.Open(&cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	ctx := context.Background()

	switch {
	case *createAdmin != "":
		username, pass, ok := strings.Cut(*createAdmin, ":")
		if !ok || username == "" || pass == "" {
			log.Fatal().Msg("-create-admin expects user:pass")
		}

		users := storage.NewUserStore(db)

		existing, err := users.FindByUsername(ctx, username)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to look up user")
		}
		if existing != nil {
			log.Fatal().Msgf("User %q already exists", username)
		}

		hasher := &password.Bcrypt{}
		digest, err := hasher.Hash(pass)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to hash password")
		}

		user := &models.User{
			Username:       username,
			HashedPassword: digest,
			Role:           models.RoleAdmin,
		}
		if err := users.Create(ctx, user); err != nil {
			log.Fatal().Err(err).Msg("Failed to create admin user")
		}

		log.Info().Msgf("Created admin user %q (id %d)", username, user.ID)

	case *purge:
		whitelist := storage.NewWhitelistStore(db, clockwork.NewRealClock())
		n, err := whitelist.PurgeExpired(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to purge expired whitelist tokens")
		}
		log.Info().Int64("purged", n).Msg("Purged expired whitelist tokens")

	default:
		log.Fatal().Msg("Nothing to do, pass -create-admin or -purge")
	}
}
