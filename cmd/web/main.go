// Command web serves the browser frontend that restores sessions against the API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/eventix/ticketing/internal/pkg/config"
	"github.com/eventix/ticketing/internal/sessiongate"
	"github.com/eventix/ticketing/internal/web"
	"github.com/eventix/ticketing/pkg/logger"
)

func main() {
	cfg, err := config.LoadFrontend(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic("config: " + err.Error())
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "ticketing-web",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := web.NewServer(web.Config{
		API:          sessiongate.NewAPIClient(cfg.Web.APIBaseURL, nil),
		SecureCookie: cfg.IsProduction(),
		Log:          logger.Component("web"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build frontend")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Web.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("api", cfg.Web.APIBaseURL).Msg("starting frontend")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
}
