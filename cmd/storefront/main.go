package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/logging"
	"storefront/internal/migrate"
	"storefront/internal/repository/localstore"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/service/checkout"
	ordersvc "storefront/internal/service/order"
	"storefront/internal/session"
	"storefront/internal/view"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.IsDevelopment(), "storefront")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open cart store", zap.Error(err))
	}
	defer closeStore()

	catalogClient := catalog.NewClient(cfg.CatalogURL, cfg.CatalogTimeout, logger.Named("catalog"))
	cartService := cartsvc.New(store, logger.Named("cart"))
	validator, err := checkout.NewValidator()
	if err != nil {
		logger.Fatal("build checkout validator", zap.Error(err))
	}
	submitter := ordersvc.NewSubmitter(cartService, catalogClient, validator, logger.Named("order"))

	srv, err := httpserver.New(cfg.HTTPAddr, logger.Named("http"), httpserver.Deps{
		Catalog:     catalogClient,
		CartSvc:     cartService,
		Renderer:    view.NewRenderer(catalogClient, logger.Named("view")),
		Validator:   validator,
		Orders:      submitter,
		Sessions:    session.NewManager(cfg.SessionCookieSecure),
		Store:       store,
		CORSOrigins: cfg.CORSAllowedOrigins,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("catalog", cfg.CatalogURL),
			zap.String("store", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}

// openStore returns the key-value store selected by STORE_BACKEND. The
// Postgres backend migrates its schema before use.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (localstore.Repository, func(), error) {
	if cfg.StoreBackend != config.BackendPostgres {
		return localstore.NewMemory(), func() {}, nil
	}
	pool, err := db.Connect(ctx, cfg.DBConnString, cfg.PoolOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("connect to db: %w", err)
	}
	if err := migrate.Apply(ctx, pool, logger.Named("migrate")); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("apply migrations: %w", err)
	}
	return localstore.NewPostgres(pool, logger.Named("store")), pool.Close, nil
}
