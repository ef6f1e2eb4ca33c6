package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kislikjeka/userdir/internal/infra/memory"
	"github.com/kislikjeka/userdir/internal/infra/postgres"
	"github.com/kislikjeka/userdir/internal/infra/redis"
	"github.com/kislikjeka/userdir/internal/infra/sqlite"
	"github.com/kislikjeka/userdir/internal/platform/user"
	"github.com/kislikjeka/userdir/internal/transport/httpapi"
	"github.com/kislikjeka/userdir/internal/transport/httpapi/handler"
	"github.com/kislikjeka/userdir/pkg/config"
	"github.com/kislikjeka/userdir/pkg/logger"
)

// store is a user repository that can report its own health
type store interface {
	user.Repository
	Ping(ctx context.Context) error
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "userdir: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Create context that listens for termination signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		logFile := logger.NewRotatingFile(cfg.LogFile)
		defer logFile.Close()
		out = io.MultiWriter(os.Stdout, logFile)
	}
	log := logger.New(logger.Options{Env: cfg.Env, Format: cfg.LogFormat, Output: out})
	log.Info("Starting user directory",
		"env", cfg.Env,
		"port", cfg.Port,
		"store", cfg.Store,
	)

	repo, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	userSvc := user.NewService(repo, log)

	if cfg.Seed && cfg.SeedFile != "" {
		if err := seedUsers(ctx, userSvc, cfg.SeedFile, log); err != nil {
			return err
		}
	}

	r := httpapi.NewRouter(httpapi.Config{
		Logger:         log,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		UserHandler:    handler.NewUserHandler(userSvc),
		HealthHandler:  handler.NewHealthHandler(repo, cfg.Store),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped gracefully")
	return nil
}

// openStore builds the configured backend, optionally behind the Redis cache.
// The returned func releases everything openStore acquired.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (store, func(), error) {
	var (
		repo    store
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.Store {
	case config.StorePostgres:
		db, err := postgres.NewPool(ctx, postgres.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		closers = append(closers, db.Close)
		if err := db.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, nil, err
		}
		repo = postgres.NewUserRepository(db.Pool)
		log.Info("Database connection established")

	case config.StoreSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		closers = append(closers, func() { db.Close() })
		repo = sqlite.NewUserRepository(db)
		log.Info("SQLite store opened", "path", cfg.SQLitePath)

	default:
		repo = memory.NewUserRepository()
		log.Info("In-memory store initialized")
		if cfg.IsProduction() {
			log.Warn("In-memory store does not survive restarts")
		}
	}

	if cfg.CacheEnabled() {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		closers = append(closers, func() { client.Close() })

		if err := client.Ping(ctx).Err(); err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		repo = redis.NewUserCache(repo, client, cfg.CacheTTL, log)
		log.Info("Redis cache enabled", "ttl", cfg.CacheTTL)
	}

	return repo, closeAll, nil
}

func seedUsers(ctx context.Context, svc *user.Service, path string, log *logger.Logger) error {
	seed, err := config.LoadSeedFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("Seed file not found, starting without seed users", "file", path)
		return nil
	}
	if err != nil {
		return err
	}

	users := make([]*user.User, 0, len(seed.Users))
	for _, su := range seed.Users {
		users = append(users, &user.User{Username: su.Username, Age: su.Age, Location: su.Location})
	}

	created, err := svc.Seed(ctx, users)
	if err != nil {
		return err
	}
	log.Info("Seed users loaded", "file", path, "created", created, "total", len(users))
	return nil
}
