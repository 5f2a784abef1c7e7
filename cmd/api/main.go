// @title                       Marketplace API
// @version                     1.0
// @description                 Accounts, dual-mode authentication and property listings.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/homestead/marketplace-api/internal/api"
	"github.com/homestead/marketplace-api/internal/api/handler"
	"github.com/homestead/marketplace-api/internal/api/metrics"
	"github.com/homestead/marketplace-api/internal/core/ports"
	"github.com/homestead/marketplace-api/internal/core/service"
	mongodb "github.com/homestead/marketplace-api/internal/infrastructure/db/mongo"
	redisdb "github.com/homestead/marketplace-api/internal/infrastructure/db/redis"
	"github.com/homestead/marketplace-api/internal/infrastructure/identity"
	"github.com/homestead/marketplace-api/internal/infrastructure/mail"
	"github.com/homestead/marketplace-api/internal/infrastructure/queue"
	"github.com/homestead/marketplace-api/internal/infrastructure/storage"
	"github.com/homestead/marketplace-api/internal/pkg/config"
	"github.com/homestead/marketplace-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "marketplace-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("connect mongo")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer func() { _ = rdb.Close() }()

	users := mongodb.NewUserRepository(db)
	properties := mongodb.NewPropertyRepository(db)
	if err := mongodb.EnsureIndexes(ctx, users, properties); err != nil {
		log.Fatal().Err(err).Msg("ensure indexes")
	}

	media, err := storage.NewS3Storage(ctx, storage.Config{
		Region:        cfg.S3.Region,
		Bucket:        cfg.S3.Bucket,
		AccessKey:     cfg.S3.AccessKey,
		SecretKey:     cfg.S3.SecretKey,
		BaseEndpoint:  cfg.S3.Endpoint,
		PublicBaseURL: cfg.S3.PublicBaseURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init media storage")
	}

	var mailer ports.Mailer = mail.NewLogMailer(logger.Component("mail"))
	if cfg.Mail.From != "" {
		ses, err := mail.NewSESMailer(ctx, mail.Config{
			Region:    cfg.Mail.Region,
			AccessKey: cfg.Mail.AccessKey,
			SecretKey: cfg.Mail.SecretKey,
			From:      cfg.Mail.From,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("init mailer")
		}
		mailer = ses
	}

	var provider ports.IdentityProvider
	if cfg.Identity.SecretKey != "" {
		provider = identity.NewClient(cfg.Identity.APIURL, cfg.Identity.SecretKey)
	} else {
		log.Warn().Msg("IDENTITY_SECRET_KEY not set: provider revocation and admin re-check disabled")
	}

	// --- Workers ---
	logins := queue.NewLoginDispatcher(cfg.LoginWorkers, users, logger.Component("logins"))
	logins.OnDrop = func(string) { metrics.LoginTouchesDroppedTotal.Inc() }
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	logins.Start(workerCtx)

	// --- Services ---
	tokens, err := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	if err != nil {
		log.Fatal().Err(err).Msg("init token service")
	}
	propertyService := service.NewPropertyService(
		properties, users, media, redisdb.NewSubmissionGuard(rdb),
		cfg.EnforceListingQuota, logger.Component("properties"),
	)
	authService := service.NewAuthService(service.AuthDeps{
		Users:          users,
		Tokens:         tokens,
		Provider:       provider,
		Logins:         logins,
		Mailer:         mailer,
		Throttle:       redisdb.NewResetThrottle(rdb),
		Listings:       propertyService,
		FrontendOrigin: cfg.FrontendOrigin,
	}, logger.Component("auth"))
	adminService := service.NewAdminService(users, logger.Component("admin"))

	e := api.NewRouter(api.Deps{
		Auth:       authService,
		Admin:      adminService,
		Properties: propertyService,
		Tokens:     tokens,
		Users:      users,
		Provider:   provider,
		Checks: map[string]handler.Check{
			"mongo": func(ctx context.Context) error { return mongoClient.Ping(ctx, readpref.Primary()) },
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		FrontendOrigin: cfg.FrontendOrigin,
		AdminEmail:     cfg.AdminEmail,
		BodyLimit:      cfg.BodyLimit,
		AuthRateLimit:  cfg.AuthRateLimit,
		Log:            logger.Component("http"),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	stopWorkers()
	logins.Wait()
	log.Info().Msg("stopped")
}
