package mailbox

import (
	"context"
	"fmt"
	"log/slog"
)

const defaultBatchSize = 50

// Store is the outbox persistence used by Dispatcher.
type Store interface {
	ListUnsentEmails(ctx context.Context, limit int) ([]Message, error)
	MarkEmailSent(ctx context.Context, id string) error
	DeleteSentEmails(ctx context.Context) (int64, error)
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Dispatcher drains the outbox.
type Dispatcher struct {
	store     Store
	sender    Sender
	log       *slog.Logger
	batchSize int
}

// NewDispatcher constructs a Dispatcher. A non-positive batchSize selects the default.
func NewDispatcher(store Store, sender Sender, batchSize int, log *slog.Logger) *Dispatcher {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Dispatcher{store: store, sender: sender, log: log, batchSize: batchSize}
}

// Flush sends up to one batch of unsent messages and marks each delivered one
// as sent. A failed delivery is logged and left for the next flush.
func (d *Dispatcher) Flush(ctx context.Context) (int, error) {
	msgs, err := d.store.ListUnsentEmails(ctx, d.batchSize)
	if err != nil {
		return 0, fmt.Errorf("listing unsent emails: %w", err)
	}
	if len(msgs) == 0 {
		d.log.Debug("no unsent emails")
		return 0, nil
	}

	sent := 0
	for _, m := range msgs {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		if err := d.sender.Send(ctx, m); err != nil {
			d.log.Error("failed to send email", "email_id", m.ID, "to", m.Recipients(), "err", err)
			continue
		}
		if err := d.store.MarkEmailSent(ctx, m.ID); err != nil {
			d.log.Error("failed to mark email sent", "email_id", m.ID, "err", err)
			continue
		}

		d.log.Info("email sent", "email_id", m.ID, "to", m.Recipients())
		sent++
	}

	return sent, nil
}

// Purge deletes every message already marked as sent.
func (d *Dispatcher) Purge(ctx context.Context) (int64, error) {
	n, err := d.store.DeleteSentEmails(ctx)
	if err != nil {
		return 0, fmt.Errorf("deleting sent emails: %w", err)
	}
	d.log.Info("sent emails purged", "count", n)
	return n, nil
}
