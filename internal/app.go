// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	router "wager-market/internal/api"
	"wager-market/internal/api/handler"
	"wager-market/internal/auth"
	"wager-market/internal/config"
	"wager-market/internal/repository"
	"wager-market/internal/repository/postgres"
	"wager-market/internal/service"
	"wager-market/internal/util"
	"wager-market/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB

	Repositories repository.Repositories

	// Services
	SettlementService service.SettlementService
	QueryService      service.QueryService
	UserService       service.UserService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Bootstrap loads configuration, installs the logger and opens the database.
// It is all the migrate command needs.
func (app *Application) Bootstrap() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.LogLevel)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.", "db_driver", cfg.DB.Driver, "auth_enabled", cfg.Auth.Enabled())

	// 3. Connect to Database
	database, err := db.NewPostgresDB(app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")
	return nil
}

// Migrate applies pending schema migrations.
func (app *Application) Migrate(ctx context.Context) error {
	applied, err := db.Migrate(ctx, app.DB)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	app.Logger.Info("Database schema up to date.", "applied", applied)
	return nil
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	if err := app.Bootstrap(); err != nil {
		return err
	}
	if app.Config.MigrateOnStart {
		if err := app.Migrate(ctx); err != nil {
			return err
		}
	}

	// 4. Initialize Repositories
	app.Repositories = repository.Repositories{
		Users:        postgres.NewUserRepository(),
		Contracts:    postgres.NewContractRepository(),
		Negotiations: postgres.NewNegotiationRepository(),
		Ledger:       postgres.NewLedgerRepository(),
	}
	app.Logger.Info("Repositories initialized.")

	// 5. Initialize Services
	txFuncs := service.DefaultTxFuncs(app.DB)
	app.SettlementService = service.NewSettlementService(txFuncs, app.DB, app.Repositories, app.Logger)
	app.QueryService = service.NewQueryService(app.DB, app.Repositories)
	app.UserService = service.NewUserService(txFuncs, app.DB, app.Repositories, app.Logger)
	app.Logger.Info("Services initialized.")

	// 6. Initialize HTTP Handlers and Router
	var verifier auth.Verifier
	if app.Config.Auth.Enabled() {
		verifier = auth.NewJWTVerifier(app.Config.Auth.JWTSecret, app.Config.Auth.JWTIssuer)
	}
	app.HTTPHandler = router.NewRouter(router.Handlers{
		Auth:          handler.NewAuthHandler(verifier, app.UserService, app.Logger),
		Contracts:     handler.NewContractHandler(app.SettlementService, app.QueryService, app.Logger),
		Users:         handler.NewUserHandler(app.UserService, app.SettlementService, app.Logger),
		Notifications: handler.NewNotificationHandler(app.SettlementService, app.QueryService, app.Logger),
	}, app.Config.RequestTimeout)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
