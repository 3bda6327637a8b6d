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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/Nbras002/MHV-PS/internal/activity"
	"github.com/Nbras002/MHV-PS/internal/app"
	"github.com/Nbras002/MHV-PS/internal/auth"
	"github.com/Nbras002/MHV-PS/internal/authz"
	"github.com/Nbras002/MHV-PS/internal/observability"
	"github.com/Nbras002/MHV-PS/internal/permits"
	"github.com/Nbras002/MHV-PS/internal/rbac"
	"github.com/Nbras002/MHV-PS/internal/regions"
	"github.com/Nbras002/MHV-PS/internal/shared"
	"github.com/Nbras002/MHV-PS/internal/stats"
	"github.com/Nbras002/MHV-PS/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "mhvps_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	usersRepo := users.NewRepository(dbpool)
	guard := authz.NewGuard(usersRepo)

	authService := auth.NewService(auth.NewRepository(dbpool))
	usersService := users.NewService(usersRepo, guard)
	permitsService := permits.NewService(permits.NewRepository(dbpool), guard)
	activityService := activity.NewService(activity.NewRepository(dbpool), guard)
	rolesService := rbac.NewService(rbac.NewRepository(dbpool), guard)
	statsCache := stats.NewCache(redisClient, cfg.StatsCacheTTL)
	statsService := stats.NewService(stats.NewRepository(dbpool), statsCache, guard)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		AuthHandler:     auth.NewHandler(logger, authService, guard, activityService, sessionManager, csrfManager),
		UsersHandler:    users.NewHandler(logger, usersService),
		PermitsHandler:  permits.NewHandler(logger, permitsService),
		ActivityHandler: activity.NewHandler(logger, activityService),
		RolesHandler:    rbac.NewHandler(logger, rolesService),
		RegionsHandler:  regions.NewHandler(),
		StatsHandler:    stats.NewHandler(logger, statsService),
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
