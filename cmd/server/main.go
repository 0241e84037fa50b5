package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/lumawork/go-sso-gateway/internal/config"
	"github.com/lumawork/go-sso-gateway/oidcauth"
	"github.com/lumawork/go-sso-gateway/provision"
	providerrepofakes "github.com/lumawork/go-sso-gateway/providers/repofakes"
	"github.com/lumawork/go-sso-gateway/server"
	"github.com/lumawork/go-sso-gateway/server/statestore"
	tenantrepofakes "github.com/lumawork/go-sso-gateway/tenants/repofakes"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("error running server")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()

	c := config.New()
	configureLogging(c)
	displayAppname(c.GetAppName())

	repos := oidcauth.Repos{
		Providers: providerrepofakes.NewFakeProviderRepo(),
		Tenants:   tenantrepofakes.NewFakeTenantRepo(),
	}

	provisioner, err := provision.NewMemoryProvisioner(repos.Tenants, repos.Providers)
	if err != nil {
		return fmt.Errorf("provision.NewMemoryProvisioner: %w", err)
	}

	srv, err := server.New(c, repos, provisioner, newStateStore(c))
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

// newStateStore picks the redis-backed store when REDIS_ADDR is configured,
// so callbacks can land on any instance; otherwise state stays in memory.
func newStateStore(c config.Config) statestore.Repo {
	addr := c.GetRedisAddr()
	if addr == "" {
		return statestore.NewInMemoryRepo()
	}
	log.Info().Str("addr", addr).Msg("using redis state store")
	return statestore.NewRedisRepo(redis.NewClient(&redis.Options{Addr: addr}))
}

func configureLogging(c config.Config) {
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(httpServer *http.Server) error {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
