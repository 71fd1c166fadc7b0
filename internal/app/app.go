package app

import (
	"context"
	"fmt"

	"github.com/DIMO-Network/server-garage/pkg/fibercommon"
	"github.com/DIMO-Network/shared/pkg/db"
	"github.com/DIMO-Network/webhook-router/internal/config"
	"github.com/DIMO-Network/webhook-router/internal/controllers/accounts"
	"github.com/DIMO-Network/webhook-router/internal/controllers/forwardlistener"
	"github.com/DIMO-Network/webhook-router/internal/controllers/webhook"
	"github.com/DIMO-Network/webhook-router/internal/queue"
	"github.com/DIMO-Network/webhook-router/internal/services/accountsrepo"
	"github.com/DIMO-Network/webhook-router/internal/services/forwarder"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// CreateServers builds the account store and forward pipeline and returns the HTTP app.
// The forward pipeline stops when ctx is cancelled.
func CreateServers(ctx context.Context, settings *config.Settings, logger zerolog.Logger, logs accounts.LogSource) (*fiber.App, error) {
	store, err := newAccountStore(ctx, settings, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create account store: %w", err)
	}

	pubSub, err := queue.New(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create forward queue: %w", err)
	}

	if err := startForwardConsumer(ctx, logger, settings, pubSub); err != nil {
		_ = pubSub.Close()
		return nil, fmt.Errorf("failed to start forward consumer: %w", err)
	}
	go func() {
		<-ctx.Done()
		if err := pubSub.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close forward queue")
		}
	}()

	return CreateFiberApp(logger, store, pubSub.Publisher, logs, settings), nil
}

// CreateFiberApp sets up the API routes.
func CreateFiberApp(logger zerolog.Logger, store accounts.Store, publisher webhook.Publisher, logs accounts.LogSource, settings *config.Settings) *fiber.App {
	logger.Info().Msg("Starting Webhook Router...")

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return fibercommon.ErrorHandler(c, err)
		},
		DisableStartupMessage: true,
	})
	app.Use(fibercommon.ContextLoggerMiddleware)

	webhookController := webhook.NewWebhookController(store, publisher, settings.ForwardTopic, settings.VerifyToken)
	accountsController := accounts.NewAccountsController(store, logs)
	logger.Info().Msg("Registering routes...")

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"data": "Server is up and running",
		})
	})

	// Platform webhook
	app.Get("/webhook", webhookController.Verify)
	app.Post("/webhook", webhookController.Receive)

	// Management console
	app.Get("/", accountsController.Index)
	app.Get("/accounts", accountsController.Console)
	app.Post("/accounts", accountsController.SaveAccount)
	app.Post("/accounts/delete", accountsController.DeleteAccount)

	return app
}

func newAccountStore(ctx context.Context, settings *config.Settings, logger zerolog.Logger) (accounts.Store, error) {
	switch settings.StoreBackend {
	case config.StoreBackendPostgres:
		dbs := db.NewDbConnectionFromSettings(ctx, &settings.DB, true)
		dbs.WaitForDB(logger)
		logger.Info().Msg("Using postgres account store")
		return accountsrepo.NewPostgresStore(dbs.DBS().Writer.DB), nil
	default:
		store, err := accountsrepo.NewFileStore(settings.AccountsDir)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("dir", settings.AccountsDir).Msg("Using file account store")
		return store, nil
	}
}

// startForwardConsumer delivers queued forwards on a background goroutine.
func startForwardConsumer(ctx context.Context, logger zerolog.Logger, settings *config.Settings, pubSub *queue.PubSub) error {
	fwd := forwarder.NewWithTimeout(settings.ForwardTimeout)
	listener := forwardlistener.NewForwardListener(logger, fwd, settings.ForwardWorkers)
	consumer := queue.NewConsumer(pubSub.Subscriber, settings.ForwardTopic, &logger)
	return consumer.Start(ctx, listener.ProcessForwards)
}
