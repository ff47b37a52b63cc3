package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/adventjoy/calendar-server-go/internal/config"
	"github.com/adventjoy/calendar-server-go/internal/database"
	"github.com/adventjoy/calendar-server-go/internal/handler"
	"github.com/adventjoy/calendar-server-go/internal/jobs"
	"github.com/adventjoy/calendar-server-go/internal/middleware"
	"github.com/adventjoy/calendar-server-go/internal/redis"
	"github.com/adventjoy/calendar-server-go/internal/repository"
	"github.com/adventjoy/calendar-server-go/internal/service"
	"github.com/adventjoy/calendar-server-go/internal/session"
	"github.com/adventjoy/calendar-server-go/internal/sse"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	buyerRepo := repository.NewBuyerRepository(db.DB)
	recipientRepo := repository.NewRecipientRepository(db.DB)
	calendarRepo := repository.NewCalendarRepository(db.DB)
	accessRepo := repository.NewAccessRepository(db.DB)
	slotRepo := repository.NewSlotRepository(db.DB)

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	issuer := session.NewIssuer(cfg.SessionSecret, cfg.SessionTTL())
	limiter := service.NewRateLimiter(redisClient.Client)
	notifier := service.NewLogNotifier()

	accessService := service.NewAccessService(db, buyerRepo, recipientRepo, calendarRepo, accessRepo, slotRepo, cfg)
	unlockService := service.NewUnlockService(slotRepo, calendarRepo, cfg.DefaultTimezone, cfg.EncryptionKey)
	buyerService := service.NewBuyerService(buyerRepo)

	adminSessionSecret := cfg.AdminSessionSecret
	if adminSessionSecret == "" {
		adminSessionSecret = cfg.SessionSecret
	}
	adminService := service.NewAdminService(accessRepo, redisClient, cfg.AdminPasswordHash, adminSessionSecret)

	sessionMw := middleware.NewSessionMiddleware(issuer)
	webhookSignatureMw := middleware.NewWebhookSignatureMiddleware(cfg.PaymentWebhookSecret)
	verifyLimiter := middleware.NewVerifyRateLimiter()
	csrfMw := middleware.NewCSRFMiddleware(isProduction)
	bodyLimitMw := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMw := middleware.NewSecurityHeadersMiddleware(isProduction)

	accessHandler := handler.NewAccessHandler(accessService, issuer, limiter, cfg, isProduction)
	calendarHandler := handler.NewCalendarHandler(unlockService, broker)
	buyerHandler := handler.NewBuyerHandler(buyerService, accessService, unlockService, notifier, issuer, limiter, cfg, isProduction)
	paymentHandler := handler.NewPaymentHandler(buyerService, notifier, cfg)
	eventsHandler := handler.NewEventsHandler(broker)
	adminHandler := handler.NewAdminHandler(adminService, accessService, unlockService, isProduction)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMw.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/payments", func(r chi.Router) {
		r.Use(webhookSignatureMw.Handler)
		r.Mount("/", paymentHandler.Routes())
	})

	r.Route("/r", func(r chi.Router) {
		r.Use(verifyLimiter.Handler)
		r.Mount("/", accessHandler.Routes())
	})

	r.Route("/calendar", func(r chi.Router) {
		r.Mount("/", calendarHandler.Routes(sessionMw))
	})

	r.Route("/buyer", func(r chi.Router) {
		r.With(sessionMw.RequireBuyer).Get("/events", eventsHandler.ServeHTTP)
		r.Mount("/", buyerHandler.Routes(sessionMw))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(securityHeadersMw.Handler)
		r.Use(csrfMw.Handler)
		r.Mount("/", adminHandler.Routes())
	})

	cleanupJob := jobs.NewCleanupJob(accessRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
