package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"warbler/internal/cache"
	"warbler/internal/config"
	"warbler/internal/database"
	"warbler/internal/handler"
	"warbler/internal/logging"
	"warbler/internal/queue"
	"warbler/internal/redis"
	"warbler/internal/repository"
	"warbler/internal/repository/memory"
	"warbler/internal/service"
	"warbler/internal/session"
	"warbler/internal/worker"
)

const shutdownTimeout = 10 * time.Second

var logger = logging.Component("server")

// Dependencies are the backends the HTTP stack is built on.
// FeedCache, Publisher and Media are optional.
type Dependencies struct {
	Config    *config.Config
	Repos     repository.Repositories
	FeedCache cache.FeedCache
	Publisher queue.Publisher
	Media     *service.MediaService
}

// NewHandler builds services, handlers and the router.
func NewHandler(deps Dependencies) stdhttp.Handler {
	cfg := deps.Config

	var (
		objects service.ObjectDeleter
		images  handler.ImageUploader
	)
	if deps.Media != nil {
		objects, images = deps.Media, deps.Media
	}

	sessions := session.NewManager(cfg.SecretKey, cfg.SessionMaxAge, cfg.SecureCookies)

	userService := service.NewUserService(deps.Repos, objects, cfg.DefaultImageURL, cfg.DefaultHeaderImageURL)
	authService := service.NewAuthService(userService, cfg)
	followService := service.NewFollowService(deps.Repos.Follows, deps.Repos.Users, deps.FeedCache)
	messageService := service.NewMessageService(deps.Repos.Messages, deps.Repos.Likes, deps.Publisher)
	likeService := service.NewLikeService(deps.Repos.Likes, deps.Repos.Messages)
	feedService := service.NewFeedService(deps.FeedCache, deps.Repos.Messages, deps.Repos.Likes)

	pages := handler.NewPages(sessions)

	return NewRouter(RouterConfig{
		AuthHandler:    handler.NewAuthHandler(pages, sessions, userService, authService, images),
		UserHandler:    handler.NewUserHandler(pages, sessions, userService, likeService, images),
		FollowHandler:  handler.NewFollowHandler(pages, followService),
		MessageHandler: handler.NewMessageHandler(pages, messageService, likeService),
		HomeHandler:    handler.NewHomeHandler(pages, feedService),
		Sessions:       sessions,
		Tokens:         authService,
		Users:          userService,
	})
}

// Run loads configuration, connects the backends and serves until SIGINT/SIGTERM.
func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := Dependencies{Config: cfg}

	// 2. Storage
	switch cfg.Storage {
	case config.StorageMemory:
		logger.Warn("Using in-memory storage; data is lost on restart")
		deps.Repos = memory.NewRepositories()
	default:
		db, err := database.Connect(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if cfg.RunMigrations {
			if err := database.Migrate(ctx, db); err != nil {
				return err
			}
		}
		deps.Repos = repository.NewPostgresRepositories(db)
	}

	// 3. Redis feed cache and fan-out workers
	var workers *worker.Manager
	if cfg.RedisURL != "" {
		rdb, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()

		deps.FeedCache = cache.NewFeedCache(rdb.Client)
		deps.Publisher = queue.NewPublisher(rdb.Client)

		workers = worker.NewManager(
			queue.NewConsumer(rdb.Client),
			worker.NewHandler(deps.FeedCache, deps.Repos.Follows),
			worker.ManagerConfig{WorkerCount: cfg.FeedWorkers},
		)
		if err := workers.Start(ctx); err != nil {
			return fmt.Errorf("start feed workers: %w", err)
		}
	} else {
		logger.Info("REDIS_URL not set; home feed reads go straight to the database")
	}

	// 4. Media uploads
	if cfg.MediaEnabled() {
		media, err := service.NewMediaService(ctx, cfg)
		if err != nil {
			return err
		}
		deps.Media = media
	}

	// 5. Serve
	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           NewHandler(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{"addr": srv.Addr, "storage": cfg.Storage}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if workers != nil {
			workers.Stop()
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	// 6. Graceful shutdown: HTTP first, then workers; deferred closes follow.
	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shut down server gracefully")
	}
	if workers != nil {
		workers.Stop()
	}

	logger.Info("Server stopped")
	return nil
}
