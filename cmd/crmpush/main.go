package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crmpush/internal/auth"
	"crmpush/internal/config"
	"crmpush/internal/crm"
	"crmpush/internal/crm/hubspot"
	"crmpush/internal/db"
	httpx "crmpush/internal/http"
	"crmpush/internal/jobs"
	"crmpush/internal/logging"
	"crmpush/internal/push"

	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	log := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	gdb, err := db.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	svc := &push.Service{
		UoW: &push.GormUnitOfWork{DB: gdb},
		CRM: newCRM(cfg, log),
		Log: log.With().Str("component", "push").Logger(),
	}

	executor := jobs.NewExecutor(log)
	executor.RegisterPush(svc)

	deps := httpx.Deps{
		Push:  svc,
		Sched: executor,
		Log:   log,
	}
	if cfg.AuthEnabled() {
		deps.JWT = auth.NewJWT(cfg.JWTSecret, cfg.JWTTTL)
		deps.Clients = &auth.Clients{DB: gdb}
	} else {
		log.Warn().Msg("JWT_SECRET not set, API authentication disabled")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpx.NewRouter(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := executor.Wait(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("background tasks still running at shutdown; their jobs stay pending")
	}
}

func newCRM(cfg config.Config, log zerolog.Logger) crm.Client {
	if cfg.HubSpotToken == "" {
		log.Warn().Msg("HUBSPOT_TOKEN not set, using in-memory CRM")
		return crm.NewSeededMemory()
	}
	return hubspot.NewClient(cfg.HubSpotToken,
		hubspot.WithBaseURL(cfg.HubSpotBaseURL),
		hubspot.WithTimeout(cfg.HubSpotTimeout),
		hubspot.WithPageSize(cfg.HubSpotPageSize),
		hubspot.WithLogger(log),
	)
}
