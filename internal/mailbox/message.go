package mailbox

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Address is a named mailbox.
type Address struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// String formats the address as "Name <email>", encoding the name when needed.
func (a Address) String() string {
	return (&mail.Address{Name: a.Name, Address: a.Email}).String()
}

// Message is an outbound email waiting in the outbox.
type Message struct {
	ID        string    `json:"id"`
	To        []Address `json:"to"`
	Subject   string    `json:"subject"`
	Content   string    `json:"content"`
	Sent      bool      `json:"sent"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewMessage builds an unsent HTML message with a fresh id.
func NewMessage(to []Address, subject, content string) Message {
	return Message{
		ID:      uuid.NewString(),
		To:      to,
		Subject: subject,
		Content: content,
	}
}

// Recipients returns the bare addresses of m, as SMTP RCPT TO expects them.
func (m Message) Recipients() []string {
	out := make([]string, 0, len(m.To))
	for _, a := range m.To {
		if e := strings.TrimSpace(a.Email); e != "" {
			out = append(out, e)
		}
	}
	return out
}
