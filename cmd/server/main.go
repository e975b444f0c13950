package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/notevault/internal/api"
	"github.com/lalith-99/notevault/internal/auth"
	"github.com/lalith-99/notevault/internal/cache"
	"github.com/lalith-99/notevault/internal/config"
	"github.com/lalith-99/notevault/internal/db"
	"github.com/lalith-99/notevault/internal/events"
	"github.com/lalith-99/notevault/internal/observ"
	"github.com/lalith-99/notevault/internal/repository"
	"github.com/lalith-99/notevault/internal/repository/memory"
	"github.com/lalith-99/notevault/internal/repository/postgres"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type stores struct {
	tenants repository.TenantRepository
	users   repository.UserRepository
	notes   repository.NoteRepository
	health  func(ctx context.Context) error
	close   func()
}

func run() error {
	// ---------------------------------------------------------------
	// 1. Load config
	// ---------------------------------------------------------------
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// ---------------------------------------------------------------
	// 2. Create logger
	// ---------------------------------------------------------------
	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	if cfg.UsingDefaultSecret() {
		logger.Warn("JWT_SECRET is not set; using the insecure development default")
	}

	// SIGINT/SIGTERM cancel ctx, which starts the graceful shutdown below.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---------------------------------------------------------------
	// 3. Storage
	// ---------------------------------------------------------------
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	// ---------------------------------------------------------------
	// 4. Redis (optional): tenant cache + cross-instance note events.
	//
	// Without REDIS_URL the service still works: tenants are read
	// straight from storage and note events only reach websocket clients
	// connected to this same process.
	// ---------------------------------------------------------------
	tenants := st.tenants
	var bus events.Bus = events.NewLocalBus()

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("redis connected", zap.String("addr", opts.Addr))

		tenants = cache.NewTenantCache(st.tenants, rdb, cfg.TenantCacheTTL, logger)
		bus = events.NewRedisBus(rdb, logger)
	}

	// ---------------------------------------------------------------
	// 5. Auth core
	// ---------------------------------------------------------------
	hasher := auth.NewHasher(cfg.BcryptCost, logger)
	codec := auth.NewTokenCodec(cfg.JWTSecret)
	authn := auth.NewAuthenticator(st.users, hasher, codec, cfg.TokenTTL, logger)
	gate := auth.NewGate(authn, st.notes)
	prov := auth.NewProvisioner(tenants, st.users, hasher, logger)

	// ---------------------------------------------------------------
	// 6. HTTP server
	// ---------------------------------------------------------------
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.NewRouter(api.Deps{
		Gate:        gate,
		Authn:       authn,
		Provisioner: prov,
		Tenants:     tenants,
		Users:       st.users,
		Notes:       st.notes,
		Bus:         bus,
		Health:      st.health,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting NoteVault",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.Store),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// ---------------------------------------------------------------
	// 7. Graceful shutdown: stop accepting, let in-flight requests
	// finish for up to 15s. Deferred closes then release Redis and
	// the DB pool.
	// ---------------------------------------------------------------
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// openStores picks the repository backend from STORE.
func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("using in-memory store; all data is lost on restart")
		m := memory.New()
		return &stores{
			tenants: m.Tenants(),
			users:   m.Users(),
			notes:   m.Notes(),
			close:   func() {},
		}, nil
	}

	database, err := db.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, err
	}

	// Each store gets the same pool. The pool is goroutine-safe.
	pool := database.Pool()
	return &stores{
		tenants: postgres.NewTenantStore(pool),
		users:   postgres.NewUserStore(pool),
		notes:   postgres.NewNoteStore(pool),
		health:  database.Health,
		close:   database.Close,
	}, nil
}
