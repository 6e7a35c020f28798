package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tripwise/tripwise/internal/amadeus"
	"github.com/tripwise/tripwise/internal/api"
	"github.com/tripwise/tripwise/internal/cache"
	"github.com/tripwise/tripwise/internal/config"
	"github.com/tripwise/tripwise/internal/jobs"
	"github.com/tripwise/tripwise/internal/storage"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := newRootCmd(log).Execute(); err != nil {
		log.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func newRootCmd(log *slog.Logger) *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "tripwise",
		Short:         "Trip planning API with flight and hotel price monitoring",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional env file read before the process environment")

	loadConfig := func() (*config.Config, error) {
		return config.Load(envFile)
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API and the scheduled jobs",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				return serve(cmd.Context(), cfg, log)
			},
		},
		newMigrateCmd(loadConfig, log),
		newCheckPricesCmd(loadConfig, log),
	)

	return root
}

func serve(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	// Connect to PostgreSQL and apply migrations.
	pool, err := storage.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	applied, err := storage.RunMigrations(ctx, pool, cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("migrations applied", "files", applied)

	// Connect to Redis.
	redisClient, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisClient.Close() }()

	// Wire dependencies.
	repo := storage.NewRepository(pool)
	client, searcher := newProvider(cfg)
	offerCache := cache.NewOfferCache(redisClient, cfg.OfferCacheTTL)
	handlers := api.NewHandlers(repo, offerCache, searcher, client, log)

	scheduler, err := newScheduler(cfg, repo, searcher, log)
	if err != nil {
		return err
	}

	router := api.NewRouter(handlers, cfg.JWTSecret, &pgxPoolPinger{pool: pool}, &redisPingerAdapter{client: redisClient}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	scheduler.Start()
	log.Info("scheduler started",
		"price_check", cfg.PriceCheckSchedule,
		"mail_flush", cfg.MailFlushSchedule,
		"mail_purge", cfg.MailPurgeSchedule,
	)

	var runErr error
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := scheduler.Stop(shutdownCtx); err != nil {
		log.Warn("scheduler did not stop in time", "err", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	if runErr != nil {
		return runErr
	}

	log.Info("server shut down cleanly")
	return nil
}

// newScheduler registers the price check and the mail jobs.
func newScheduler(cfg *config.Config, repo *storage.Repository, searcher *amadeus.Searcher, log *slog.Logger) (*jobs.Scheduler, error) {
	monitor := newMonitor(cfg, repo, searcher, log)
	dispatcher := newDispatcher(cfg, repo, log)

	scheduler := jobs.NewScheduler(cfg.Location, log)

	err := scheduler.Register(jobs.PriceCheck, cfg.PriceCheckSchedule, func(ctx context.Context) error {
		_, err := monitor.Run(ctx)
		return err
	})
	if err == nil {
		err = scheduler.Register(jobs.MailFlush, cfg.MailFlushSchedule, func(ctx context.Context) error {
			_, err := dispatcher.Flush(ctx)
			return err
		})
	}
	if err == nil {
		err = scheduler.Register(jobs.MailPurge, cfg.MailPurgeSchedule, purgeSentEmails(dispatcher))
	}
	if err != nil {
		return nil, fmt.Errorf("registering jobs: %w", err)
	}

	return scheduler, nil
}
