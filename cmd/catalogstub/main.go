package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"storefront/internal/catalogstub"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/importer"
	"storefront/internal/logging"
	"storefront/internal/migrate"
	"storefront/internal/repository/product"
	"storefront/internal/seed"
	productsvc "storefront/internal/service/product"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	var (
		addr     string
		filePath string
	)
	flag.StringVar(&addr, "addr", cfg.StubAddr, "Listen address")
	flag.StringVar(&filePath, "file", cfg.StubProductsCSV, "Path to a product CSV file (defaults to the bundled catalog)")
	flag.Parse()

	logger, err := logging.New(cfg.LogLevel, cfg.IsDevelopment(), "catalogstub")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	products, closeRepo, err := openProducts(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open product store", zap.Error(err))
	}
	defer closeRepo()

	start := time.Now()
	count, err := load(ctx, products, filePath)
	if err != nil {
		logger.Fatal("load products", zap.String("file", filePath), zap.Error(err))
	}
	logger.Info("catalog loaded", zap.Int("products", count), zap.Duration("took", time.Since(start).Truncate(time.Millisecond)))

	srv := &http.Server{
		Addr:              addr,
		Handler:           catalogstub.NewRouter(productsvc.New(products), logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting catalog stub", zap.String("addr", addr))
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openProducts follows STORE_BACKEND so the stub can share the storefront's
// database during development.
func openProducts(ctx context.Context, cfg config.Config, logger *zap.Logger) (product.Repository, func(), error) {
	if cfg.StoreBackend != config.BackendPostgres {
		return product.NewMemory(), func() {}, nil
	}
	pool, err := db.Connect(ctx, cfg.DBConnString, cfg.PoolOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("connect to db: %w", err)
	}
	if err := migrate.Apply(ctx, pool, logger.Named("migrate")); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("apply migrations: %w", err)
	}
	return product.NewPostgres(pool, logger.Named("products")), pool.Close, nil
}

func load(ctx context.Context, products product.Repository, filePath string) (int, error) {
	if filePath == "" {
		return seed.Apply(ctx, products)
	}
	f, err := os.Open(filePath)
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return importer.NewCSVImporter(f, products).Run(ctx)
}
