package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/appshivam/restauth/config"
	"github.com/appshivam/restauth/handlers"
	"github.com/appshivam/restauth/middleware"
	"github.com/appshivam/restauth/repositories"
	"github.com/appshivam/restauth/repositories/memory"
	"github.com/appshivam/restauth/repositories/postgres"
	"github.com/appshivam/restauth/services"
	"github.com/appshivam/restauth/tokens"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB // nil with the in-memory store
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users     repositories.UserRepository
	TxManager repositories.TransactionManager

	// Services
	Hasher      *services.BcryptHasher
	Codec       *tokens.Codec
	AuthService *services.AuthService

	// Request pipeline
	AuthMiddleware *middleware.AuthMiddleware
	RoutePolicy    *middleware.RoutePolicy
	EntryPoint     *middleware.EntryPoint
	AccessGate     *middleware.AccessGate

	// Handlers
	AuthHandler   *handlers.AuthHandler
	UserHandler   *handlers.UserHandler
	HealthHandler *handlers.HealthHandler
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initStore(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize credential store: %w", err)
	}

	if err := deps.initAuth(cfg); err != nil {
		_ = deps.closeStore()
		return nil, fmt.Errorf("failed to initialize authentication: %w", err)
	}

	deps.initHandlers()

	logger.Info("all dependencies initialized successfully",
		zap.String("credential_store", cfg.Security.CredentialStore),
		zap.Int("public_routes", len(deps.RoutePolicy.Rules())),
	)
	return deps, nil
}

// initStore selects the credential store backend
func (d *Dependencies) initStore(ctx context.Context, cfg *config.Config) error {
	switch cfg.Security.CredentialStore {
	case config.StoreMemory:
		d.Users = memory.NewUserRepository()
		d.TxManager = memory.TransactionManager{}
		d.Logger.Warn("using in-memory credential store, accounts are lost on restart")
		return nil

	case config.StorePostgres:
		factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
		if err != nil {
			return fmt.Errorf("failed to create repository factory: %w", err)
		}
		d.RepoFactory = factory
		d.DB = factory.GetDB()

		if err := factory.InitSchema(ctx); err != nil {
			_ = factory.Close()
			return fmt.Errorf("failed to initialize schema: %w", err)
		}

		repos := factory.NewRepositories()
		d.Users = repos.Users
		d.TxManager = repos.TxManager
		d.Logger.Info("repositories initialized")
		return nil

	default:
		return fmt.Errorf("unknown credential store %q", cfg.Security.CredentialStore)
	}
}

// initAuth builds the hasher, the token codec, the auth service and the
// filter chain components
func (d *Dependencies) initAuth(cfg *config.Config) error {
	codec, err := tokens.NewCodec([]byte(cfg.Security.SigningKey), cfg.Security.Issuer, cfg.Security.TokenTTL)
	if err != nil {
		return services.WrapConfiguration("invalid token settings", err)
	}
	d.Codec = codec
	d.Hasher = services.NewBcryptHasher(cfg.Security.BcryptCost)

	authService, err := services.NewAuthService(d.Users, d.TxManager, d.Hasher, d.Codec, d.Logger,
		services.WithLookupTimeout(cfg.Security.LookupTimeout))
	if err != nil {
		return err
	}
	d.AuthService = authService

	policy, err := middleware.NewRoutePolicy(middleware.PublicRules(cfg.Security.PublicRoutes)...)
	if err != nil {
		return services.WrapConfiguration("invalid public routes", err)
	}
	d.RoutePolicy = policy

	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Codec, d.Logger)
	d.EntryPoint = middleware.NewEntryPoint(d.Logger)
	d.AccessGate = middleware.NewAccessGate(d.RoutePolicy, d.EntryPoint, d.Logger)

	d.Logger.Info("authentication initialized",
		zap.String("issuer", cfg.Security.Issuer),
		zap.Duration("token_ttl", d.Codec.TTL()),
		zap.Int("bcrypt_cost", d.Hasher.Cost()),
	)
	return nil
}

func (d *Dependencies) initHandlers() {
	var store handlers.StoreChecker
	if d.DB != nil {
		store = d.DB
	}

	d.AuthHandler = handlers.NewAuthHandler(d.AuthService, d.Logger)
	d.UserHandler = handlers.NewUserHandler(d.AuthService, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(store, d.Logger)
}

func (d *Dependencies) closeStore() error {
	if d.RepoFactory == nil {
		return nil
	}
	return d.RepoFactory.Close()
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if err := d.closeStore(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	} else if d.RepoFactory != nil {
		d.Logger.Info("database connection closed")
	}

	if err := ctx.Err(); err != nil {
		errs = append(errs, fmt.Errorf("shutdown deadline exceeded: %w", err))
	}

	// Sync logger
	_ = d.Logger.Sync()

	return errors.Join(errs...)
}
