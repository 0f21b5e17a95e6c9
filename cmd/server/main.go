package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/flexprice/grants/internal/api"
	v1 "github.com/flexprice/grants/internal/api/v1"
	"github.com/flexprice/grants/internal/cache"
	"github.com/flexprice/grants/internal/config"
	"github.com/flexprice/grants/internal/domain/catalog"
	"github.com/flexprice/grants/internal/email"
	"github.com/flexprice/grants/internal/integration/chargebee"
	chargebeewebhook "github.com/flexprice/grants/internal/integration/chargebee/webhook"
	"github.com/flexprice/grants/internal/logger"
	"github.com/flexprice/grants/internal/notification"
	"github.com/flexprice/grants/internal/postgres"
	"github.com/flexprice/grants/internal/pubsub"
	"github.com/flexprice/grants/internal/pubsub/memory"
	pubsubRouter "github.com/flexprice/grants/internal/pubsub/router"
	"github.com/flexprice/grants/internal/repository"
	"github.com/flexprice/grants/internal/sentry"
	"github.com/flexprice/grants/internal/service"
	"github.com/flexprice/grants/internal/types"
	"github.com/flexprice/grants/internal/validator"
	"go.uber.org/fx"

	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	// Initialize Fx application
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Monitoring
			sentry.NewSentryService,

			// Cache
			cache.NewInMemoryCache,

			// Postgres
			postgres.NewDB,

			// Plan mapping table
			catalog.NewFromConfig,

			// Provider API
			chargebee.NewCustomerClient,

			// Repositories
			repository.NewAccountRepository,
			repository.NewAddonRepository,
			repository.NewRegistrationRepository,
			repository.NewWebhookEventRepository,

			// PubSub
			providePubSub,
			pubsubRouter.NewRouter,

			// Email
			email.NewEmailClient,
			provideEmailSender,
		),
	)

	// Notifications
	opts = append(opts,
		fx.Provide(
			notification.NewNotifier,
			notification.NewHandler,
		),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewUserResolver,
			service.NewOnboardingService,
			service.NewSubscriptionLifecycleService,
			service.NewInvoiceReconciliationService,
			service.NewPaymentRecoveryService,
			service.NewAddonLifecycleService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			chargebeewebhook.NewHandler,
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			sentry.RegisterHooks,
			registerDBHooks,
			logCatalog,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func logCatalog(c *catalog.Catalog, log *logger.Logger) {
	log.Infow("loaded plan mappings",
		"count", c.Len(),
		"price_ids", c.PriceIDs())
}

func providePubSub(cfg *config.Configuration, logger *logger.Logger) pubsub.PubSub {
	switch cfg.Notification.PubSub {
	case types.MemoryPubSub, "":
		return memory.NewPubSub(cfg, logger)
	default:
		logger.Fatalf("unsupported notification pubsub: %s", cfg.Notification.PubSub)
		return nil
	}
}

func provideEmailSender(client email.Client, cfg *config.Configuration, logger *logger.Logger) notification.EmailSender {
	return email.NewEmail(client, cfg, logger)
}

func provideHandlers(
	db *postgres.DB,
	webhookHandler *chargebeewebhook.Handler,
	logger *logger.Logger,
) api.Handlers {
	return api.NewHandlers(
		v1.NewHealthHandler(db, logger),
		v1.NewWebhookHandler(webhookHandler, logger),
	)
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	if cfg.Deployment.Mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}
	return api.NewRouter(handlers, cfg, logger)
}

func registerDBHooks(lc fx.Lifecycle, db *postgres.DB, log *logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := db.Ping(ctx); err != nil {
				log.Errorw("database is not reachable at startup", "error", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("closing database connections")
			db.Close()
			return nil
		},
	})
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	router *pubsubRouter.Router,
	ps pubsub.PubSub,
	notificationHandler *notification.Handler,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal, types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
		startMessageRouter(lc, router, cfg, ps, notificationHandler, log)
	case types.ModeAWSLambdaAPI:
		startMessageRouter(lc, router, cfg, ps, notificationHandler, log)
		startAWSLambdaAPI(lc, r)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server...", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return srv.Shutdown(ctx)
		},
	})
}

// startAWSLambdaAPI hands the process over to the Lambda runtime once every start hook
// has run, so the notification router is already consuming
func startAWSLambdaAPI(lc fx.Lifecycle, r *gin.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ginLambda := ginadapter.New(r)
			go lambda.Start(ginLambda.ProxyWithContext)
			return nil
		},
	})
}

func startMessageRouter(
	lc fx.Lifecycle,
	router *pubsubRouter.Router,
	cfg *config.Configuration,
	ps pubsub.PubSub,
	notificationHandler *notification.Handler,
	logger *logger.Logger,
) {
	// Register handlers before starting the router
	notification.RegisterHandler(router, cfg, ps, notificationHandler)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting message router")
			go func() {
				if err := router.Run(); err != nil {
					logger.Errorw("message router failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping message router")
			if err := router.Close(); err != nil {
				return err
			}
			return ps.Close()
		},
	})
}
