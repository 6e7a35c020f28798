package mailbox_test

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/smtp"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripwise/tripwise/internal/mailbox"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     string
	}{
		{"460", "USD", "$460.00"},
		{"40.5", "eur", "€40.50"},
		{"12.345", "GBP", "£12.35"},
		{"1000", "JPY", "¥1000.00"},
		{"99.9", "CHF", "CHF 99.90"},
		{"5", "", "$5.00"},
		{"-3", "USD", "-$3.00"},
	}

	for _, tt := range tests {
		t.Run(tt.currency+"_"+tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, mailbox.FormatMoney(decimal.RequireFromString(tt.amount), tt.currency))
		})
	}
}

func TestPriceDrop_Render(t *testing.T) {
	p := mailbox.PriceDrop{
		Name:          "Ada",
		TripName:      "Paris <Spring>",
		PreviousPrice: "$500.00",
		NewPrice:      "$460.00",
		MoneySave:     "$40.00 8.0%",
		Destination:   "Paris",
		Dates:         "7/1/2026 - 7/8/2026",
	}

	html, err := p.Render()
	require.NoError(t, err)
	assert.Contains(t, html, "Hi Ada,")
	assert.Contains(t, html, "$460.00")
	assert.Contains(t, html, "$40.00 8.0%")
	assert.Contains(t, html, "7/1/2026 - 7/8/2026")
	assert.Contains(t, html, "Paris &lt;Spring&gt;", "trip name must be escaped")
	assert.Equal(t, "Price Drop Alert: Paris <Spring>", p.Subject())
}

func TestNewMessage(t *testing.T) {
	m := mailbox.NewMessage([]mailbox.Address{{Name: "Ada Lovelace", Email: "ada@example.com"}, {Email: " "}}, "s", "c")
	assert.NotEmpty(t, m.ID)
	assert.False(t, m.Sent)
	assert.Equal(t, []string{"ada@example.com"}, m.Recipients())
}

func TestAddress_String(t *testing.T) {
	assert.Equal(t, `"Ada Lovelace" <ada@example.com>`, mailbox.Address{Name: "Ada Lovelace", Email: "ada@example.com"}.String())
	assert.Equal(t, "<ada@example.com>", mailbox.Address{Email: "ada@example.com"}.String())
}

func TestSMTPSender_Send(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth

	s := mailbox.NewSMTPSenderWithFunc(mailbox.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "user",
		Password: "pass",
		From:     mailbox.Address{Name: "Tripwise", Email: "noreply@example.com"},
	}, func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
		return nil
	})

	m := mailbox.NewMessage([]mailbox.Address{{Name: "Ada Lovelace", Email: "ada@example.com"}}, "Price Drop Alert: Paris", "<p>hello</p>")
	require.NoError(t, s.Send(context.Background(), m))

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"ada@example.com"}, gotTo)

	raw := string(gotMsg)
	assert.Contains(t, raw, "From: \"Tripwise\" <noreply@example.com>\r\n")
	assert.Contains(t, raw, "To: \"Ada Lovelace\" <ada@example.com>\r\n")
	assert.Contains(t, raw, "Subject: Price Drop Alert: Paris\r\n")
	assert.Contains(t, raw, "Content-Type: text/html")

	_, body, ok := strings.Cut(raw, "\r\n\r\n")
	require.True(t, ok)
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(body, "\r\n", ""))
	require.NoError(t, err)
	assert.Equal(t, "<p>hello</p>", string(decoded))
}

func TestSMTPSender_NoAuthWithoutUsername(t *testing.T) {
	var gotAuth smtp.Auth = smtp.PlainAuth("", "x", "y", "z")
	s := mailbox.NewSMTPSenderWithFunc(mailbox.SMTPConfig{Host: "localhost", Port: 25}, func(_ string, a smtp.Auth, _ string, _ []string, _ []byte) error {
		gotAuth = a
		return nil
	})

	require.NoError(t, s.Send(context.Background(), mailbox.NewMessage([]mailbox.Address{{Email: "a@b.c"}}, "s", "c")))
	assert.Nil(t, gotAuth)
}

func TestSMTPSender_Errors(t *testing.T) {
	calls := 0
	fn := func(string, smtp.Auth, string, []string, []byte) error {
		calls++
		return errors.New("connection refused")
	}

	s := mailbox.NewSMTPSenderWithFunc(mailbox.SMTPConfig{Host: "localhost", Port: 25}, fn)

	err := s.Send(context.Background(), mailbox.NewMessage(nil, "s", "c"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recipients")

	err = s.Send(context.Background(), mailbox.NewMessage([]mailbox.Address{{Email: "a@b.c"}}, "s", "c"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.Send(ctx, mailbox.NewMessage([]mailbox.Address{{Email: "a@b.c"}}, "s", "c"))
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 1, calls)
}

// --- dispatcher ---

type mockStore struct {
	listFn   func(ctx context.Context, limit int) ([]mailbox.Message, error)
	markFn   func(ctx context.Context, id string) error
	deleteFn func(ctx context.Context) (int64, error)
}

func (m *mockStore) ListUnsentEmails(ctx context.Context, limit int) ([]mailbox.Message, error) {
	return m.listFn(ctx, limit)
}

func (m *mockStore) MarkEmailSent(ctx context.Context, id string) error {
	return m.markFn(ctx, id)
}

func (m *mockStore) DeleteSentEmails(ctx context.Context) (int64, error) {
	return m.deleteFn(ctx)
}

type mockSender struct {
	fn func(ctx context.Context, m mailbox.Message) error
}

func (m *mockSender) Send(ctx context.Context, msg mailbox.Message) error {
	return m.fn(ctx, msg)
}

func TestDispatcher_Flush_IsolatesFailures(t *testing.T) {
	msgs := []mailbox.Message{
		{ID: "1", To: []mailbox.Address{{Email: "a@example.com"}}},
		{ID: "2", To: []mailbox.Address{{Email: "b@example.com"}}},
		{ID: "3", To: []mailbox.Address{{Email: "c@example.com"}}},
	}

	var gotLimit int
	var marked []string
	store := &mockStore{
		listFn: func(_ context.Context, limit int) ([]mailbox.Message, error) {
			gotLimit = limit
			return msgs, nil
		},
		markFn: func(_ context.Context, id string) error {
			marked = append(marked, id)
			return nil
		},
	}
	sender := &mockSender{fn: func(_ context.Context, m mailbox.Message) error {
		if m.ID == "2" {
			return errors.New("mailbox full")
		}
		return nil
	}}

	d := mailbox.NewDispatcher(store, sender, 10, discardLogger())
	sent, err := d.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, 10, gotLimit)
	assert.Equal(t, []string{"1", "3"}, marked)
}

func TestDispatcher_Flush_MarkFailureNotCounted(t *testing.T) {
	store := &mockStore{
		listFn: func(context.Context, int) ([]mailbox.Message, error) {
			return []mailbox.Message{{ID: "1"}}, nil
		},
		markFn: func(context.Context, string) error { return errors.New("db down") },
	}
	sender := &mockSender{fn: func(context.Context, mailbox.Message) error { return nil }}

	sent, err := mailbox.NewDispatcher(store, sender, 0, discardLogger()).Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}

func TestDispatcher_Flush_Empty(t *testing.T) {
	store := &mockStore{listFn: func(context.Context, int) ([]mailbox.Message, error) { return nil, nil }}
	sender := &mockSender{fn: func(context.Context, mailbox.Message) error {
		t.Fatal("sender should not be called")
		return nil
	}}

	sent, err := mailbox.NewDispatcher(store, sender, 0, discardLogger()).Flush(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestDispatcher_Flush_ListError(t *testing.T) {
	store := &mockStore{listFn: func(context.Context, int) ([]mailbox.Message, error) {
		return nil, errors.New("connection reset")
	}}

	_, err := mailbox.NewDispatcher(store, &mockSender{}, 0, discardLogger()).Flush(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing unsent emails")
}

func TestDispatcher_Purge(t *testing.T) {
	store := &mockStore{deleteFn: func(context.Context) (int64, error) { return 4, nil }}
	n, err := mailbox.NewDispatcher(store, &mockSender{}, 0, discardLogger()).Purge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	store.deleteFn = func(context.Context) (int64, error) { return 0, errors.New("boom") }
	_, err = mailbox.NewDispatcher(store, &mockSender{}, 0, discardLogger()).Purge(context.Background())
	require.Error(t, err)
}
