package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/maxviazov/user-records-service/internal/config"
	"github.com/maxviazov/user-records-service/internal/handler"
	"github.com/maxviazov/user-records-service/internal/logger"
	"github.com/maxviazov/user-records-service/internal/repository"
	"github.com/maxviazov/user-records-service/internal/repository/memory"
	mongostore "github.com/maxviazov/user-records-service/internal/repository/mongo"
	"github.com/maxviazov/user-records-service/internal/repository/postgres"
	"github.com/maxviazov/user-records-service/internal/service"
	"github.com/rs/zerolog"
)

// store bundles what the service and health probes need from a backend.
type store struct {
	users  repository.UserRepository
	tx     repository.TxManager
	pinger repository.Pinger
	close  func()
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

// run owns every resource of the process, so all deferred cleanup has
// happened by the time main decides the exit code.
func run() error {
	// .env is optional; real deployments pass APP_* variables directly
	_ = godotenv.Load()

	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("config loading failed: %w", err)
	}

	appLogger, err := logger.New(&cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, &appLogger)
	if err != nil {
		return fmt.Errorf("store initialization failed (driver %s): %w", cfg.Storage.Driver, err)
	}
	defer st.close()

	userSvc := service.NewUserService(st.users, st.tx, appLogger)

	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := handler.NewEngine(appLogger, cfg.HTTP.AllowedOrigins, st.pinger, userSvc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownTimeout := time.Duration(cfg.App.ShutdownTimeout) * time.Second
	appLogger.Info().Str("addr", srv.Addr).Str("driver", cfg.Storage.Driver).Msg("🚀 Service started")
	if err := serve(ctx, srv, shutdownTimeout, appLogger); err != nil {
		return err
	}
	appLogger.Info().Msg("service stopped")
	return nil
}

// serve runs srv until ctx is done or the listener fails. A listener failure is
// returned instead of exiting so that the caller's deferred cleanup still runs.
func serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, logger zerolog.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-serveErr:
		logger.Error().Err(err).Msg("http server failed")
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	return nil
}

// configPath prefers APP_CONFIG, then ./config.yaml; with neither, defaults plus env are used.
func configPath() string {
	if p := os.Getenv("APP_CONFIG"); p != "" {
		return p
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}

func openStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*store, error) {
	switch cfg.Storage.Driver {
	case config.DriverMongo:
		client, err := mongostore.Connect(ctx, cfg.Mongo, logger)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.Mongo.Database)
		if err := mongostore.EnsureIndexes(ctx, db, cfg.Mongo.Collection); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return &store{
			users:  mongostore.NewUserRepository(db, cfg.Mongo.Collection),
			tx:     repository.NoTx{},
			pinger: mongostore.NewPinger(client),
			close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					logger.Error().Err(err).Msg("mongo disconnect failed")
				}
			},
		}, nil

	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.Migrate {
			if err := postgres.Migrate(ctx, pool, *logger); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return &store{
			users:  postgres.NewUserRepository(pool),
			tx:     postgres.NewTxManager(pool),
			pinger: postgres.NewPinger(pool),
			close:  pool.Close,
		}, nil

	case config.DriverMemory:
		repo := memory.NewUserRepository()
		logger.Warn().Msg("using in-memory store; records are lost on restart")
		return &store{users: repo, tx: repository.NoTx{}, pinger: repo, close: func() {}}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
