package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
	"github.com/sethvargo/go-retry"

	"github.com/dtroode/accounts-server/internal/config"
	"github.com/dtroode/accounts-server/internal/logger"
	"github.com/dtroode/accounts-server/internal/model"
)

var _ model.Mailer = (*SMTP)(nil)

// SMTP delivers mail over a pooled SMTP connection. Sends are bounded by a
// per-attempt timeout and retried with exponential backoff, so a transient
// relay failure does not surface until the retry budget is exhausted.
type SMTP struct {
	pool        *email.Pool
	from        string
	sendTimeout time.Duration
	maxRetries  uint64
	logger      *logger.Logger
}

// NewSMTP creates an SMTP mailer from configuration. Credentials are optional
// for relays that accept unauthenticated local delivery.
func NewSMTP(cfg config.SMTP, logger *logger.Logger) (*SMTP, error) {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	pool, err := email.NewPool(addr, 1, auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp pool: %w", err)
	}

	return &SMTP{
		pool:        pool,
		from:        cfg.From,
		sendTimeout: cfg.SendTimeout,
		maxRetries:  cfg.MaxRetries,
		logger:      logger,
	}, nil
}

// Send delivers msg, retrying transient failures. Delivery is idempotent from
// the recipient's perspective, so a duplicate caused by a retried timeout is
// harmless.
func (m *SMTP) Send(ctx context.Context, msg model.Message) error {
	backoff := retry.WithMaxRetries(m.maxRetries, retry.NewExponential(500*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		e := email.NewEmail()
		e.From = m.from
		e.To = []string{msg.To}
		e.Subject = msg.Subject
		e.HTML = []byte(msg.HTML)

		if err := m.pool.Send(e, m.sendTimeout); err != nil {
			m.logger.Debug("mail send attempt failed",
				"subject", msg.Subject,
				"error", err.Error())
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	return nil
}

// Close releases the underlying SMTP connections.
func (m *SMTP) Close() {
	m.pool.Close()
}
