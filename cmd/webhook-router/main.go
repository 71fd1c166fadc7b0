package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/DIMO-Network/server-garage/pkg/env"
	"github.com/DIMO-Network/server-garage/pkg/logging"
	"github.com/DIMO-Network/server-garage/pkg/monserver"
	"github.com/DIMO-Network/server-garage/pkg/runner"
	"github.com/DIMO-Network/webhook-router/internal/app"
	"github.com/DIMO-Network/webhook-router/internal/config"
	"github.com/DIMO-Network/webhook-router/internal/db/migrations"
	"github.com/DIMO-Network/webhook-router/internal/logbuffer"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// @title           Webhook Router
// @version         1.0
//
// @BasePath  /
func main() {
	logger := logging.GetAndSetDefaultLogger("webhook-router")
	mainCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		<-mainCtx.Done()
		logger.Info().Msg("Received signal, shutting down...")
		cancel()
	}()

	runnerGroup, runnerCtx := errgroup.WithContext(mainCtx)

	migrationCommand := flag.String("migrations", "", "run migrations")
	envFile := flag.String("env-file", ".env", "path to env file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations only")
	flag.Parse()

	settings, err := env.LoadSettings[config.Settings](*envFile)
	if err != nil {
		log.Fatalf("could not load settings: %s", err)
	}
	settings.SetDefaults()
	if err := settings.Validate(); err != nil {
		log.Fatalf("invalid settings: %s", err)
	}

	level, err := zerolog.ParseLevel(settings.LogLevel)
	if err != nil {
		log.Fatalf("could not parse log level: %s", err)
	}
	zerolog.SetGlobalLevel(level)

	// the console shows the most recent log lines alongside stdout
	logs := logbuffer.New(settings.LogBufferSize)
	logger = logging.GetAndSetDefaultLoggerWithWriter(settings.ServiceName,
		zerolog.MultiLevelWriter(os.Stdout, zerolog.ConsoleWriter{Out: logs, NoColor: true}))

	if *migrationCommand != "" || *migrateOnly {
		if *migrationCommand == "" {
			*migrationCommand = "up -v"
		}
		err := migrations.RunGoose(mainCtx, strings.Fields(*migrationCommand), settings.DB)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to run migrations")
		}
		if *migrateOnly {
			return
		}
	}

	monApp := monserver.NewMonitoringServer(&logger, settings.EnablePprof)
	logger.Info().Str("port", strconv.Itoa(settings.MonPort)).Msgf("Starting monitoring server")
	runner.RunHandler(runnerCtx, runnerGroup, monApp, ":"+strconv.Itoa(settings.MonPort))

	app, err := app.CreateServers(runnerCtx, &settings, logger, logs)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create servers")
	}
	logger.Info().Str("port", strconv.Itoa(settings.Port)).Msgf("Starting web server")
	runner.RunFiber(runnerCtx, runnerGroup, app, ":"+strconv.Itoa(settings.Port))

	if err := runnerGroup.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("Server failed.")
	}
	logger.Info().Msg("Server stopped.")
}
