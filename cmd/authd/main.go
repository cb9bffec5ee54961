package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"authd/internal/config"
	"authd/internal/gormw"
	"authd/internal/handlers/auth"
	"authd/internal/password"
	"authd/internal/storage"
	"authd/internal/token"
)

var (
	configPath = flag.String("c", os.Getenv("CONFIG_PATH"), "Path to configuration file")
)

func main() {
	flag.Parse()
	if *configPath == "" {
		log.Fatal().Msg("Config path must be provided via CONFIG_PATH env var or -c flag")
	}

	// Optional .env, so the signing secret can stay out of the yaml.
	_ = godotenv.Load()

	// Load configuration
	cfg := config.LoadConfig(*configPath)

	// cron schedule
	scheduler, _ := gocron.NewScheduler()
	scheduler.Start()

	// Initialize database
	db, err := gormw.Open(&cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	clock := clockwork.NewRealClock()

	whitelist := storage.NewWhitelistStore(db, clock)
	storage.RegisterWhitelistSweeper(scheduler, whitelist)

	users := storage.NewUserStore(db)

	codec, err := token.NewCodec(cfg.Token.Secret, cfg.Token.Algorithm, clock)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create token codec")
	}

	tokens := token.NewService(codec, whitelist, users, clock, token.ServiceConfig{
		AccessTTL:  cfg.Token.AccessTokenTTLDuration(),
		RefreshTTL: cfg.Token.RefreshTokenTTLDuration(),
	})

	// Set up Gin router
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	handlers := auth.New(users, tokens, &password.Bcrypt{}, storage.NewLoginLimiter(cfg.MaxLoginFailures))
	handlers.RegisterHandlers(router.Group("/"))

	// Start server
	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		// Good practice to set timeouts to avoid Slowloris attacks.
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      router,
	}

	// Run our server in a goroutine so that it doesn't block.
	go func() {
		log.Printf("start server at %q", srv.Addr)
		if err := srv.ListenAndServe(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	c := make(chan os.Signal, 1)
	// We'll accept graceful shutdowns when quit via SIGINT (Ctrl+C)
	// SIGKILL, SIGQUIT or SIGTERM (Ctrl+/) will not be caught.
	signal.Notify(c, os.Interrupt)

	// Block until we receive our signal.
	<-c

	// Create a deadline to wait for.
	wait := time.Second * 15
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	// Doesn't block if no connections, but will otherwise wait
	// until the timeout deadline.
	srv.Shutdown(ctx)

	log.Info().Msg("shutting down")
	os.Exit(0)
}
