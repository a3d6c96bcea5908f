// Package notify delivers outbound messages such as invitation emails.
package notify

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

type Message struct {
	To      string
	Subject string
	Text    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// MailgunSender posts messages through the Mailgun HTTP API.
type MailgunSender struct {
	domain  string
	apiKey  string
	apiBase string
	from    string
	timeout time.Duration
}

func NewMailgunSender(domain, apiKey, apiBase, from string) *MailgunSender {
	return &MailgunSender{
		domain:  domain,
		apiKey:  apiKey,
		apiBase: apiBase,
		from:    from,
		timeout: 5 * time.Second,
	}
}

func (m *MailgunSender) Send(ctx context.Context, msg Message) error {
	mg := mailgun.NewMailgun(m.domain, m.apiKey)
	if m.apiBase != "" {
		mg.SetAPIBase(m.apiBase)
	}

	message := mailgun.NewMessage(m.from, msg.Subject, msg.Text, msg.To)

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	_, _, err := mg.Send(ctx, message)
	return err
}

// LogSender writes messages to the logger instead of delivering them. It is
// used when no mail provider is configured.
type LogSender struct {
	Logger *slog.Logger
}

func (l LogSender) Send(ctx context.Context, msg Message) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "outbound message",
		"to", msg.To,
		"subject", msg.Subject,
		"text", msg.Text,
	)
	return nil
}

// Recorder keeps every message in memory. It is safe for concurrent use.
type Recorder struct {
	Err error

	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	r.messages = append(r.messages, msg)
	return nil
}

// Sent returns a copy of the messages recorded so far.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.messages)
}
