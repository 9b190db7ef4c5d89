package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bazaar/internal/cache"
	"bazaar/internal/config"
	"bazaar/internal/events"
	"bazaar/internal/http/handlers"
	applog "bazaar/internal/log"
	"bazaar/internal/media"
	"bazaar/internal/repos"
)

func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server and the outbox relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(parent context.Context, opts *RootOptions) error {
	cfg := opts.Config
	logger, err := applog.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	applog.SetLogger(logger)
	defer func() { _ = logger.Sync() }()
	logger.Info("config.loaded", zap.Any("config", cfg.Fields()))

	db, err := opts.openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if cfg.SeedOnStart {
		seeded, err := repos.SeedDefault(db)
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		if seeded {
			logger.Info("seed.loaded")
		}
	}

	store, err := media.NewStore(cfg.MediaDir)
	if err != nil {
		return err
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	itemCache, closeCache := openCache(ctx, cfg.RedisAddr)
	defer closeCache()

	pub := openPublisher(cfg)
	defer func() { _ = pub.Close() }()

	relay := events.NewRelay(repos.NewOutboxRepo(db), pub, cfg.OutboxInterval)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		relay.Run(ctx)
	}()

	app := handlers.NewApp(cfg, handlers.NewDeps(db, cfg, itemCache, store))
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server.listen", zap.String("addr", ":"+cfg.Port))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
		stop()
	case <-ctx.Done():
		logger.Info("server.shutdown")
		serveErr = app.ShutdownWithTimeout(10 * time.Second)
	}
	wg.Wait()

	// one last pass so events committed during shutdown are not left waiting
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	relay.Flush(flushCtx)
	return serveErr
}

// openCache connects to Redis when an address is configured. An unreachable
// server degrades to no caching rather than refusing to start.
func openCache(ctx context.Context, addr string) (cache.ItemCache, func()) {
	if addr == "" {
		return cache.Nop{}, func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		applog.L().Warn("cache.unavailable", zap.String("addr", addr), zap.Error(err))
		_ = client.Close()
		return cache.Nop{}, func() {}
	}
	applog.L().Info("cache.connected", zap.String("addr", addr))
	return cache.NewRedisCache(client), func() {
		if err := client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			applog.L().Warn("cache.close_failed", zap.Error(err))
		}
	}
}

func openPublisher(cfg config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		applog.L().Info("outbox.publisher", zap.String("kind", "log"))
		return events.LogPublisher{}
	}
	applog.L().Info("outbox.publisher",
		zap.String("kind", "kafka"),
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaTopic))
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
}
