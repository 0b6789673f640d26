package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"library_lending/internal/api"
	"library_lending/internal/api/middleware"
	"library_lending/internal/app/service"
	"library_lending/internal/app/worker"
	"library_lending/internal/common/security"
	"library_lending/internal/domain/repository"
	"library_lending/internal/platform/cache"
	"library_lending/internal/platform/config"
	"library_lending/internal/platform/database"
	"library_lending/internal/platform/logging"
	"library_lending/internal/platform/ratelimit"
)

type repos struct {
	users repository.UserRepository
	books repository.BookRepository
	loans repository.LoanRepository
}

func main() {
	// 1. Configuration and logging
	cfg := config.Load()
	logging.Init(cfg.LogLevel)
	slog.Info("configuration loaded", "store", cfg.StoreDriver, "port", cfg.APIPort)

	// 2. Store
	store, closeStore, err := openStore(cfg)
	if err != nil {
		slog.Error("store initialization failed", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// 3. Redis (optional)
	rdb, err := cache.Connect(cfg)
	if err != nil {
		slog.Error("redis initialization failed", "error", err)
		os.Exit(1)
	}
	defer cache.Close(rdb)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	// 4. Token revocation and login throttling
	var revoker security.TokenRevoker
	var loginLimiter middleware.Limiter
	if rdb != nil {
		revoker = security.NewRedisTokenRevoker(rdb)
		if cfg.LoginRateLimitPerMinute > 0 {
			limiter, err := ratelimit.NewFixedWindowLimiter(rdb, "library:login", cfg.LoginRateLimitPerMinute, time.Minute)
			if err != nil {
				slog.Error("rate limiter initialization failed", "error", err)
				os.Exit(1)
			}
			loginLimiter = limiter
		}
	} else {
		memRevoker := security.NewMemoryTokenRevoker()
		revoker = memRevoker
		go worker.NewRevocationSweeper(memRevoker, time.Minute).Start(workerCtx)
		slog.Warn("redis not configured: token revocation is per-instance and login throttling is disabled")
	}

	// 5. Services
	issuer := security.NewTokenIssuer(cfg.JWTKey)
	userService := service.NewUserService(store.users, security.NewSharedSecretPolicy(cfg.AdminAccessKey))
	services := api.Services{
		Auth:  service.NewAuthService(userService, issuer, revoker),
		Users: userService,
		Books: service.NewBookService(store.books),
		Loans: service.NewLoanService(store.loans, store.users, store.books, cfg.LoanSingleOutstanding),
	}

	// 6. Router & HTTP server
	router := api.NewRouter(services, api.Options{
		Issuer:       issuer,
		Gate:         middleware.NewAccessGate(store.users, revoker),
		LoginLimiter: loginLimiter,
		CORSOrigins:  cfg.CORSAllowedOrigins,
	})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 7. Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("could not listen", "port", cfg.APIPort, "error", err)
			os.Exit(1)
		}
	}()

	<-stop

	slog.Info("shutting down server")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
		return
	}
	slog.Info("server stopped gracefully")
}

func openStore(cfg *config.Config) (repos, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		slog.Warn("using in-memory store: data is lost on restart")
		mem := repository.NewMemoryStore()
		return repos{users: mem.Users(), books: mem.Books(), loans: mem.Loans()}, func() {}, nil
	}

	db, err := database.Connect(cfg.DBConnStr)
	if err != nil {
		return repos{}, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.Migrate(ctx, db); err != nil {
		database.Close(db)
		return repos{}, nil, err
	}
	return repos{
		users: repository.NewPgUserRepository(db),
		books: repository.NewPgBookRepository(db),
		loans: repository.NewPgLoanRepository(db),
	}, func() { database.Close(db) }, nil
}
