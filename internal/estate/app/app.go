package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/estate/internal/estate/market"
	"github.com/aussiebroadwan/estate/pkg/apiclient"
	"github.com/aussiebroadwan/estate/pkg/cryptox"
	"github.com/aussiebroadwan/estate/pkg/fingerprint"
	"github.com/aussiebroadwan/estate/pkg/kv"
	"github.com/aussiebroadwan/estate/pkg/kv/drivers/redis"
	"github.com/aussiebroadwan/estate/pkg/kv/drivers/sqlite"
	"github.com/aussiebroadwan/estate/pkg/slogx"
	"github.com/aussiebroadwan/estate/pkg/storage"
	"github.com/aussiebroadwan/estate/pkg/tokenstore"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"

	productName = "estate"
)

// Application wires the session layer to the marketplace client.
type Application struct {
	Config Config
	Logger *slog.Logger

	KV      kv.Store
	Tokens  *tokenstore.Store
	Storage *storage.Facade
	API     *apiclient.Client
	Market  *market.Service
}

// New creates an Application with all dependencies initialized.
func New(ctx context.Context, cfg Config) (*Application, error) {
	return NewWithLogger(ctx, cfg, slogx.New(slogx.Config{
		Service: productName,
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	}))
}

// NewWithLogger is New with a caller-supplied logger.
func NewWithLogger(ctx context.Context, cfg Config, logger *slog.Logger) (*Application, error) {
	app := &Application{Config: cfg, Logger: logger}

	if err := app.initStorage(ctx); err != nil {
		return nil, err
	}
	app.initServices()

	return app, nil
}

func (app *Application) initStorage(ctx context.Context) error {
	var (
		backend kv.Store
		err     error
	)

	switch app.Config.Storage {
	case StorageMemory:
		backend = kv.NewMemory()
	case StorageSQLite:
		backend, err = sqlite.Open(app.Config.DatabaseFile)
		if err != nil {
			return fmt.Errorf("failed to open session database: %w", err)
		}
	case StorageRedis:
		backend, err = redis.Dial(ctx, app.Config.RedisAddr, app.Config.RedisPassword, app.Config.RedisDB, app.Config.RedisPrefix)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", app.Config.Storage)
	}

	if app.Config.EncryptStorage {
		master, err := cryptox.LoadMasterKey(app.Config.MasterKeyPath)
		if err != nil {
			_ = backend.Close()
			return fmt.Errorf("failed to load master key: %w", err)
		}
		sealer, err := cryptox.NewSealer(master)
		if err != nil {
			_ = backend.Close()
			return fmt.Errorf("failed to create sealer: %w", err)
		}
		backend = kv.NewEncrypted(backend, sealer)
	}

	app.KV = backend
	app.Logger.Debug("session storage ready",
		"backend", app.Config.Storage,
		"encrypted", app.Config.EncryptStorage,
	)
	return nil
}

func (app *Application) initServices() {
	// Screen geometry is unknown to a terminal; persistence follows the backend
	host := fingerprint.Host{
		Product:        productName,
		SessionStorage: true,
		LocalStorage:   app.Config.Storage != StorageMemory,
	}

	app.Tokens = tokenstore.New(app.KV, host, tokenstore.WithLogger(app.Logger))
	app.Storage = storage.New(app.KV, storage.WithLogger(app.Logger))

	api := apiclient.New(app.Config.APIURL, app.Logger)
	api.Timeout = app.Config.RequestTimeout
	api.Limiter = app.Config.RateLimit.Limiter()
	if app.Config.ValidatedAuth {
		api.Tokens = app.Tokens
	} else {
		app.Logger.Warn("bearer tokens are attached without fingerprint or expiry checks")
		api.Tokens = apiclient.Unvalidated(app.Tokens)
	}
	if app.Config.CSRFDocument != "" {
		api.CSRF = apiclient.DocumentFile(app.Config.CSRFDocument)
	}
	app.API = api

	opts := []market.Option{market.WithLogger(app.Logger)}
	if app.Config.TOTPSecret != "" {
		opts = append(opts, market.WithTOTPSecret(app.Config.TOTPSecret))
	}
	app.Market = market.NewService(api, app.Tokens, app.Storage, opts...)
}

// Close releases the storage backend.
func (app *Application) Close() error {
	if app.KV == nil {
		return nil
	}
	if err := app.KV.Close(); err != nil {
		app.Logger.Error("error closing session storage", "error", err)
		return err
	}
	return nil
}
