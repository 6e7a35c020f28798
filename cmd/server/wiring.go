package main

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/tripwise/tripwise/internal/amadeus"
	"github.com/tripwise/tripwise/internal/config"
	"github.com/tripwise/tripwise/internal/mailbox"
	"github.com/tripwise/tripwise/internal/pricecheck"
	"github.com/tripwise/tripwise/internal/storage"
)

func newProvider(cfg *config.Config) (*amadeus.Client, *amadeus.Searcher) {
	client := amadeus.NewClient(cfg.AmadeusBaseURL, cfg.AmadeusClientID, cfg.AmadeusClientSecret)
	return client, amadeus.NewSearcher(client)
}

func newMonitor(cfg *config.Config, repo *storage.Repository, searcher *amadeus.Searcher, log *slog.Logger) *pricecheck.Monitor {
	return pricecheck.NewMonitor(repo, searcher, repo, log,
		pricecheck.WithLocation(cfg.Location),
		pricecheck.WithThreshold(cfg.PriceDropThreshold),
		pricecheck.WithFetchTimeout(cfg.ProviderTimeout),
	)
}

func newDispatcher(cfg *config.Config, repo *storage.Repository, log *slog.Logger) *mailbox.Dispatcher {
	sender := mailbox.NewSMTPSender(mailbox.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     mailbox.Address{Name: cfg.MailFromName, Email: cfg.MailFrom},
	})
	return mailbox.NewDispatcher(repo, sender, cfg.MailBatchSize, log)
}

// purgeSentEmails is the mail-purge job. The dispatcher logs the count.
func purgeSentEmails(d *mailbox.Dispatcher) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := d.Purge(ctx)
		return err
	}
}

// pgxPoolPinger adapts pgxpool.Pool to the health check pinger.
type pgxPoolPinger struct {
	pool interface {
		Ping(ctx context.Context) error
	}
}

func (p *pgxPoolPinger) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// redisPingerAdapter adapts redis.Client to the health check pinger.
type redisPingerAdapter struct {
	client *redis.Client
}

func (r *redisPingerAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
