// Package notification delivers outbound email. The core only depends on the
// Dispatcher interface; SendGrid, shoutrrr (SMTP) and a logging dispatcher
// are selected by configuration.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Message is a rendered email. Text is always set; HTML is optional.
type Message struct {
	Subject string `json:"subject"`
	HTML    string `json:"html,omitempty"`
	Text    string `json:"text"`
}

// Dispatcher sends one message to one address. Callers treat every error the
// same way regardless of cause.
type Dispatcher interface {
	Send(ctx context.Context, to string, msg Message) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, to string, msg Message) error

func (f DispatcherFunc) Send(ctx context.Context, to string, msg Message) error {
	return f(ctx, to, msg)
}

// ---------------------------------------------------------------------------
// Timeout
// ---------------------------------------------------------------------------

type timeoutDispatcher struct {
	inner   Dispatcher
	timeout time.Duration
}

// WithTimeout bounds every Send to d. The inner dispatcher gets a context
// with that deadline; if it ignores the context the call still returns once
// the deadline passes and the late result is discarded.
func WithTimeout(d time.Duration, inner Dispatcher) Dispatcher {
	if d <= 0 {
		return inner
	}
	return &timeoutDispatcher{inner: inner, timeout: d}
}

func (t *timeoutDispatcher) Send(ctx context.Context, to string, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- t.inner.Send(ctx, to, msg) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("send to %s: %w", to, ctx.Err())
	}
}

// ---------------------------------------------------------------------------
// Log dispatcher
// ---------------------------------------------------------------------------

// LogDispatcher writes messages to the log instead of sending them. Used in
// development and when no provider is configured.
type LogDispatcher struct {
	logger zerolog.Logger
}

func NewLogDispatcher(logger zerolog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Send(_ context.Context, to string, msg Message) error {
	d.logger.Info().
		Str("to", to).
		Str("subject", msg.Subject).
		Str("body", msg.Text).
		Msg("email (not sent, log provider)")
	return nil
}

// ---------------------------------------------------------------------------
// Factory
// ---------------------------------------------------------------------------

// Options selects and configures a provider.
type Options struct {
	Provider    string // "log", "sendgrid" or "smtp"
	APIKey      string
	FromAddress string
	FromName    string
	SMTPURL     string
	Timeout     time.Duration
}

// New builds the configured dispatcher wrapped with the per-call timeout.
func New(opts Options, logger zerolog.Logger) (Dispatcher, error) {
	var d Dispatcher
	switch opts.Provider {
	case "", "log":
		d = NewLogDispatcher(logger)
	case "sendgrid":
		d = NewSendGridDispatcher(opts.APIKey, opts.FromAddress, opts.FromName)
	case "smtp":
		s, err := NewShoutrrrDispatcher(opts.SMTPURL, opts.Timeout)
		if err != nil {
			return nil, err
		}
		d = s
	default:
		return nil, fmt.Errorf("unknown mail provider %q", opts.Provider)
	}
	return WithTimeout(opts.Timeout, d), nil
}
