package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// ErrPermanent marks a send failure that retrying cannot fix.
var ErrPermanent = errors.New("permanent send failure")

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Mailgun sends email through the Mailgun API.
type Mailgun struct {
	Sender  string
	client  *mg.MailgunImpl
	timeout time.Duration
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{Sender: sender, client: mg.NewMailgun(domain, apiKey), timeout: 10 * time.Second}
}

// Send sends an email. html is optional; text is always set as the fallback body.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.Sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	c, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	_, _, err := m.client.Send(c, msg)
	return classify(err)
}

// classify wraps errors Mailgun will answer the same way every time with
// ErrPermanent. Rate limiting, 5xx and transport failures stay retryable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mg.ErrInvalidMessage) {
		return fmt.Errorf("%w: %w", ErrPermanent, err)
	}
	var ue *mg.UnexpectedResponseError
	if errors.As(err, &ue) && ue.Actual >= 400 && ue.Actual < 500 && ue.Actual != http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", ErrPermanent, err)
	}
	return err
}
