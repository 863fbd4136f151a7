// Command server runs the submission and moderation API of
// ai-theoretical.org. It wires configuration, logging, tracing, the
// metadata store, the blob bucket, SMTP, and the HTTP router, then
// serves until interrupted.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/francocz/ai-theoretical.org/internal/config"
	httpapi "github.com/francocz/ai-theoretical.org/internal/http"
	"github.com/francocz/ai-theoretical.org/internal/notify"
	"github.com/francocz/ai-theoretical.org/internal/observability"
	"github.com/francocz/ai-theoretical.org/internal/repo"
	"github.com/francocz/ai-theoretical.org/internal/storage"
	"github.com/francocz/ai-theoretical.org/internal/sysutil"
)

var version = "dev"

func main() {
	// .env is a dev convenience; production sets real env vars.
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup opentelemetry")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open metadata store")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate metadata store")
	}

	var blobs storage.BlobStore
	if cfg.S3.Bucket != "" {
		s3Store, err := storage.NewS3Store(ctx, storage.S3Options{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("configure blob store")
		}
		blobs = s3Store
	} else {
		// Uploads do not survive restarts without a bucket; fine for
		// local development, never for production.
		log.Warn().Msg("S3_BUCKET not set, storing uploads in memory")
		blobs = storage.NewMemoryStore()
	}

	var mailer notify.Mailer
	if cfg.SMTP.Host != "" {
		mailer = notify.NewSMTPMailer(notify.SMTPOptions{
			Host:          cfg.SMTP.Host,
			Port:          cfg.SMTP.Port,
			User:          cfg.SMTP.Username,
			Pass:          cfg.SMTP.Password,
			From:          cfg.SMTP.From,
			SkipTLSVerify: cfg.SMTP.SkipTLSVerify,
		})
	} else {
		log.Warn().Msg("SMTP_HOST not set, logging emails instead of sending")
		mailer = logMailer{}
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, db, blobs, mailer, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
}

// logMailer is the dev fallback when no relay is configured. It logs
// the envelope so flows remain observable end to end.
type logMailer struct{}

func (logMailer) Send(to, subject, textBody, htmlBody string) error {
	log.Info().Str("to", to).Str("subject", subject).Msg("email (not sent: SMTP disabled)")
	return nil
}
