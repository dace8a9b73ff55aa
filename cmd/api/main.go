// Command api serves the ticketing auth API.
//
//	@title						Ticketing Auth API
//	@version					1.0
//	@description				Registration, login, verification and sessions for users and promotors.
//	@BasePath					/
//	@securityDefinitions.apikey	CookieAuth
//	@in							cookie
//	@name						token
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/eventix/ticketing/internal/api"
	"github.com/eventix/ticketing/internal/api/handler"
	"github.com/eventix/ticketing/internal/core/service"
	mongostore "github.com/eventix/ticketing/internal/infrastructure/db/mongo"
	redisstore "github.com/eventix/ticketing/internal/infrastructure/db/redis"
	"github.com/eventix/ticketing/internal/infrastructure/mail"
	"github.com/eventix/ticketing/internal/infrastructure/queue"
	"github.com/eventix/ticketing/internal/pkg/config"
	"github.com/eventix/ticketing/internal/pkg/password"
	"github.com/eventix/ticketing/internal/pkg/token"
	"github.com/eventix/ticketing/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "ticketing-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database, AppName: "ticketing-api"})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()
	log.Info().Str("database", cfg.Mongo.Database).Msg("mongodb connected")

	rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()
	log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")

	users := mongostore.NewUserRepository(db)
	promotors := mongostore.NewPromotorRepository(db)
	for _, repo := range []*mongostore.AccountRepository{users, promotors} {
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to create indexes")
		}
	}

	audit := mongostore.NewAuditRepository(db, cfg.Mongo.AuditRetention)
	if err := audit.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create audit indexes")
	}

	tokens, err := token.NewJWTService(cfg.Auth.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid token configuration")
	}

	mailer, err := mail.NewMailer(newSender(ctx, cfg, log), cfg.Mail.Timeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load mail templates")
	}

	policy, err := api.PolicyFromName(cfg.Auth.ErrorPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid error policy")
	}

	authService := service.NewAuthService(
		service.AuthDeps{
			Users:     users,
			Promotors: promotors,
			Hasher:    password.NewBcryptHasher(cfg.Auth.BcryptCost),
			Tokens:    tokens,
			Mailer:    mailer,
			Limiter:   redisstore.NewLoginLimiter(rdb, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow),
			Ledger:    redisstore.NewTokenLedger(rdb),
			Audit:     audit,
		},
		service.AuthOptions{
			TokenTTL:                    cfg.Auth.TokenTTL,
			ResetTokenTTL:               cfg.Auth.ResetTokenTTL,
			AppBaseURL:                  cfg.Auth.AppBaseURL,
			PromotorRequireVerification: cfg.Auth.PromotorRequireVerification,
		},
		logger.Component("auth"),
	)

	e := api.NewRouter(api.RouterDeps{
		Auth:         authService,
		Policy:       policy,
		Log:          logger.Component("http"),
		SecureCookie: cfg.IsProduction(),
		Checks: map[string]handler.Checker{
			"mongodb": handler.MongoChecker(db),
			"redis":   handler.RedisChecker(rdb),
		},
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("env", cfg.Env).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server stopped")
}

// newSender picks SMTP or the log sink, and fronts it with the background
// dispatcher when MAIL_ASYNC is set. Dispatcher workers stop with ctx.
func newSender(ctx context.Context, cfg *config.Config, log zerolog.Logger) mail.Sender {
	var sender mail.Sender
	if cfg.Mail.SMTPHost == "" {
		log.Warn().Msg("SMTP_HOST not set, mails will be logged instead of sent")
		sender = mail.NewLogSender(logger.Component("mail"))
	} else {
		sender = mail.NewSMTPSender(
			cfg.Mail.SMTPHost, cfg.Mail.SMTPPort,
			cfg.Mail.SMTPUsername, cfg.Mail.SMTPPassword,
			cfg.Mail.From, logger.Component("mail"),
		)
	}

	if !cfg.Mail.Async {
		return sender
	}
	d := queue.NewDispatcher(cfg.Mail.Workers, sender, logger.Component("mail-queue"))
	d.Start(ctx)
	log.Info().Int("workers", cfg.Mail.Workers).Msg("async mail delivery enabled")
	return d
}
