// Command onboard-server serves the sign-in, password recovery and identity
// verification wizards over HTTP. Configuration comes from the environment;
// see internal/config.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	goOnboard "github.com/MrEthical07/goOnboard"
	"github.com/MrEthical07/goOnboard/internal/config"
	"github.com/MrEthical07/goOnboard/internal/logging"
	"github.com/MrEthical07/goOnboard/internal/server"
	"github.com/MrEthical07/goOnboard/jwt"
	"github.com/MrEthical07/goOnboard/middleware"
	"github.com/MrEthical07/goOnboard/proxy"
	"github.com/MrEthical07/goOnboard/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "onboard-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	kv, closeKV, err := openStorage(cfg, logger)
	if err != nil {
		return err
	}
	defer closeKV()

	engine, err := goOnboard.New().
		WithConfig(cfg.Engine()).
		WithStorage(kv).
		WithLogger(logger.Named("engine")).
		WithAuditSink(goOnboard.NewZapSink(logger)).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	visitors, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.CookieTTL,
		SigningMethod: jwt.MethodHS256,
		Secret:        []byte(cfg.CookieSecret),
		Issuer:        "onboard-server",
	})
	if err != nil {
		return fmt.Errorf("visitor tokens: %w", err)
	}

	srvCfg := server.Config{
		Engine:   engine,
		Visitors: visitors,
		Cookie: middleware.CookieConfig{
			Secure:   cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		},
		Logger: logger,
	}
	if cfg.VendorURL != "" {
		srvCfg.Vendors, err = proxy.NewVendorClient(proxy.Config{
			BaseURL: cfg.VendorURL,
			APIKey:  cfg.VendorAPIKey,
			Logger:  logger,
		})
		if err != nil {
			return fmt.Errorf("vendor client: %w", err)
		}
	}
	if cfg.EINURL != "" {
		srvCfg.EIN, err = proxy.NewEINClient(proxy.Config{
			BaseURL: cfg.EINURL,
			APIKey:  cfg.EINAPIKey,
			Logger:  logger,
		})
		if err != nil {
			return fmt.Errorf("ein client: %w", err)
		}
	}

	srv := server.New(srvCfg)
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", httpSrv.Addr), zap.String("session_store", cfg.SessionStore))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func openStorage(cfg *config.Config, logger *zap.Logger) (storage.KV, func(), error) {
	switch cfg.SessionStore {
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("session storage", zap.String("backend", "redis"), zap.String("addr", cfg.RedisAddr))
		return storage.NewRedisKV(client), func() { _ = client.Close() }, nil
	case config.StoreSQLite:
		kv, err := storage.OpenSQLite(cfg.SQLiteDSN)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("session storage", zap.String("backend", "sqlite"), zap.String("dsn", cfg.SQLiteDSN))
		return kv, func() { _ = kv.Close() }, nil
	default:
		return storage.NewMemoryKV(), func() {}, nil
	}
}
