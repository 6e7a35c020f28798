package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tripwise/tripwise/internal/mailbox"
)

// EnqueueEmail stores m as unsent. A zero CreatedAt falls back to the database clock.
func (r *Repository) EnqueueEmail(ctx context.Context, m mailbox.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	var createdAt *time.Time
	if !m.CreatedAt.IsZero() {
		createdAt = &m.CreatedAt
	}

	recipientsJSON, err := jsonArray(m.To)
	if err != nil {
		return fmt.Errorf("marshaling recipients of email %s: %w", m.ID, err)
	}

	const q = `
		INSERT INTO emails (id, recipients, subject, content, sent, created_at)
		VALUES ($1, $2, $3, $4, FALSE, COALESCE($5::timestamptz, NOW()))
	`

	if _, err := r.q.Exec(ctx, q, m.ID, recipientsJSON, m.Subject, m.Content, createdAt); err != nil {
		return fmt.Errorf("inserting email %s: %w", m.ID, err)
	}

	return nil
}

// ListUnsentEmails returns up to limit unsent emails, oldest first.
func (r *Repository) ListUnsentEmails(ctx context.Context, limit int) ([]mailbox.Message, error) {
	const q = `
		SELECT id, recipients, subject, content, sent, created_at
		FROM emails
		WHERE NOT sent
		ORDER BY created_at
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("querying unsent emails: %w", err)
	}
	defer rows.Close()

	var results []mailbox.Message
	for rows.Next() {
		var m mailbox.Message
		var recipientsJSON []byte

		if err := rows.Scan(&m.ID, &recipientsJSON, &m.Subject, &m.Content, &m.Sent, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning email row: %w", err)
		}

		if err := json.Unmarshal(recipientsJSON, &m.To); err != nil {
			return nil, fmt.Errorf("unmarshaling recipients of email %s: %w", m.ID, err)
		}

		results = append(results, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating email rows: %w", err)
	}

	return results, nil
}

// MarkEmailSent flags an email as delivered.
func (r *Repository) MarkEmailSent(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `UPDATE emails SET sent = TRUE, sent_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("marking email %s sent: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("marking email %s sent: not found", id)
	}

	return nil
}

// DeleteSentEmails removes every delivered email and returns how many were removed.
func (r *Repository) DeleteSentEmails(ctx context.Context) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM emails WHERE sent`)
	if err != nil {
		return 0, fmt.Errorf("deleting sent emails: %w", err)
	}

	return tag.RowsAffected(), nil
}
