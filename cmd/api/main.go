//	@title			Kadikoy API
//	@version		1.0
//	@description	Backend for the Kadikoy sports club site: news, gallery and sponsors.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/kadikoy/service/internal/auth"
	"github.com/kadikoy/service/internal/config"
	"github.com/kadikoy/service/internal/db"
	"github.com/kadikoy/service/internal/logger"
	"github.com/kadikoy/service/internal/media"
	"github.com/kadikoy/service/internal/news"
	"github.com/kadikoy/service/internal/server"
	"github.com/kadikoy/service/internal/sponsor"
	"github.com/kadikoy/service/internal/storage"
	"github.com/kadikoy/service/internal/user"

	_ "github.com/kadikoy/service/docs/swagger"
)

func main() {
	bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("logger init failed")
	}
	log = log.With().Str("env", cfg.AppEnv).Logger()

	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL, log); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	store, err := newStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("object storage init failed")
	}

	// Wire dependencies: repository → service → handler
	userSvc := user.NewService(user.NewRepository(pool), log)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL())
	authSvc := auth.NewService(userSvc, tokens, log)

	if err := authSvc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminEmail); err != nil {
		log.Fatal().Err(err).Msg("admin seeding failed")
	}

	registry := media.NewRegistry(
		store,
		media.NewRepository(pool),
		media.NewNamer(cfg.GalleryFolder),
		media.Policies{
			Default: media.NewPolicy(cfg.MaxFileBytes(), cfg.AllowedExtensions),
			Video:   media.NewPolicy(cfg.MaxVideoBytes(), cfg.VideoExtensions),
		},
		log,
	)
	newsSvc := news.NewService(news.NewRepository(pool), registry, log)
	sponsorSvc := sponsor.NewService(sponsor.NewRepository(pool), registry, log)

	maxUpload := max(cfg.MaxFileBytes(), cfg.MaxVideoBytes())
	router := server.NewRouter(server.Deps{
		Log:         log,
		Verifier:    tokens,
		DB:          pool,
		Store:       store,
		CORSOrigins: cfg.CORSAllowedOrigins,
		Auth:        auth.NewHandler(authSvc, log),
		Media:       media.NewHandler(registry, cfg.MaxFileBytes(), log),
		News:        news.NewHandler(newsSvc, maxUpload, log),
		Sponsors:    sponsor.NewHandler(sponsorSvc, maxUpload, log),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", srv.Addr).Str("storage", cfg.StorageDriver).Msg("server listening")
		log.Info().Msgf("swagger UI at http://localhost:%s/swagger/", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-quit
	log.Info().Msg("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
		return
	}

	log.Info().Msg("server stopped")
}

// instrumentedStore is the ObjectStore handed to the registry and the health check.
type instrumentedStore interface {
	storage.ObjectStore
	storage.HealthChecker
}

func newStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (instrumentedStore, error) {
	switch cfg.StorageDriver {
	case "s3":
		// a bare host:port endpoint is meant for minio; AWS needs a URL or nothing
		endpoint := cfg.StorageEndpoint
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = ""
		}
		s, err := storage.NewS3Store(ctx, storage.S3Options{
			Bucket:       cfg.StorageBucket,
			Region:       cfg.StorageRegion,
			Endpoint:     endpoint,
			AccessKey:    cfg.StorageAccessKey,
			SecretKey:    cfg.StorageSecretKey,
			UsePathStyle: cfg.StoragePathStyle,
			PublicACL:    cfg.StoragePublicACL,
			PublicBase:   cfg.StoragePublicBase,
		}, log)
		if err != nil {
			return nil, err
		}
		return storage.WithMetrics(s), nil
	default:
		s, err := storage.NewMinioStore(ctx, storage.MinioOptions{
			Endpoint:   cfg.StorageEndpoint,
			AccessKey:  cfg.StorageAccessKey,
			SecretKey:  cfg.StorageSecretKey,
			Bucket:     cfg.StorageBucket,
			Region:     cfg.StorageRegion,
			UseSSL:     cfg.StorageUseSSL,
			PublicBase: cfg.StoragePublicBase,
		}, log)
		if err != nil {
			return nil, err
		}
		return storage.WithMetrics(s), nil
	}
}
